// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	log "github.com/sirupsen/logrus"
)

// ApplicationInfo identifies the application to the driver.
type ApplicationInfo struct {
	ApplicationName    string
	ApplicationVersion uint32
	EngineName         string
	EngineVersion      uint32

	// APIVersion is the highest API version the application targets.
	// Zero means DefaultAPIVersion.
	APIVersion uint32
}

// InstanceCreateInfo is the create-instance request handed to the driver.
type InstanceCreateInfo struct {
	// ApplicationInfo is nil when the application did not identify itself.
	ApplicationInfo *ApplicationInfo

	EnabledLayerNames     []string
	EnabledExtensionNames []string
}

// MakeVersion packs a version number the way VK_MAKE_VERSION does.
func MakeVersion(major, minor, patch uint32) uint32 {
	return major<<22 | minor<<12 | patch
}

// SplitVersion unpacks a version created by MakeVersion.
func SplitVersion(v uint32) (major, minor, patch uint32) {
	return v >> 22, (v >> 12) & 0x3ff, v & 0xfff
}

// DefaultAPIVersion is the API version requested when none is given.
var DefaultAPIVersion = MakeVersion(1, 0, 0)

// Layer and extension names enabled by DebugMode.
const (
	ValidationLayerName      = "VK_LAYER_LUNARG_standard_validation"
	DebugReportExtensionName = "VK_EXT_debug_report"
)

// newInstanceCreateInfo builds the request record. The application info is
// copied, so the request never aliases the caller's value.
func newInstanceCreateInfo(info *ApplicationInfo, cfg BackendConfiguration) *InstanceCreateInfo {
	req := &InstanceCreateInfo{
		EnabledLayerNames:     append([]string{}, cfg.Layers...),
		EnabledExtensionNames: append([]string{}, cfg.Extensions...),
	}
	if cfg.DebugMode {
		req.EnabledLayerNames = append(req.EnabledLayerNames, ValidationLayerName)
		req.EnabledExtensionNames = append(req.EnabledExtensionNames, DebugReportExtensionName)
	}
	if info != nil {
		ai := *info
		if ai.APIVersion == 0 {
			ai.APIVersion = DefaultAPIVersion
		}
		req.ApplicationInfo = &ai
	}
	return req
}

// createInstance creates the instance and resolves its function table.
// The table is only ever resolved from a handle the driver just returned.
func createInstance(global GlobalCommands, req *InstanceCreateInfo) (Handle, InstanceCommands, error) {
	instance, res := global.CreateInstance(req)
	if err := check("vkCreateInstance", res); err != nil {
		return NullHandle, nil, err
	}
	if instance == NullHandle {
		return NullHandle, nil, ErrNullInstance
	}
	log.WithFields(log.Fields{
		"layers":     len(req.EnabledLayerNames),
		"extensions": len(req.EnabledExtensionNames),
	}).Debug("instance created")

	commands, err := global.InstanceCommands(instance)
	if err != nil {
		return instance, nil, err
	}
	return instance, commands, nil
}
