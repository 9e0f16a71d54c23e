// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package vulkan binds the driver contract to the system Vulkan loader
// through github.com/devblok/vulkan.
//
// The binding keeps its function tables in package state, so only one
// Backend built on this driver may be alive at a time.
package vulkan

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"github.com/devblok/koruhal/core"
	vk "github.com/devblok/vulkan"
)

// Names used by the Vulkan driver.
const (
	DriverName     = "vulkan"
	EntryPointName = "vkGetInstanceProcAddr"
)

// ErrUnknownHandle is returned for handles this binding never handed out.
var ErrUnknownHandle = errors.New("vulkan: unknown handle")

// DefaultLibraryName returns the name of the system loader library.
func DefaultLibraryName() string {
	switch runtime.GOOS {
	case "windows":
		return "vulkan-1.dll"
	case "darwin":
		return "libvulkan.1.dylib"
	case "android":
		return "libvulkan.so"
	default:
		return "libvulkan.so.1"
	}
}

// Driver loads the Vulkan loader library.
type Driver struct {
	name    string
	library string
	open    func(name string) (core.Library, error)
}

// New returns a driver that opens the system loader library directly.
// An empty library name picks DefaultLibraryName.
func New(library string) *Driver {
	if library == "" {
		library = DefaultLibraryName()
	}
	return &Driver{
		name:    DriverName,
		library: library,
		open:    openNative,
	}
}

// Name implements core.Driver.
func (d *Driver) Name() string {
	return d.name
}

// LibraryName implements core.Driver.
func (d *Driver) LibraryName() string {
	return d.library
}

// EntryPoint implements core.Driver.
func (d *Driver) EntryPoint() string {
	return EntryPointName
}

// Open implements core.Driver.
func (d *Driver) Open(name string) (core.Library, error) {
	return d.open(name)
}

// Bind implements core.Driver. It installs the entry point and resolves
// the global commands.
func (d *Driver) Bind(lib core.Library, entry unsafe.Pointer) (core.GlobalCommands, error) {
	if entry == nil {
		return nil, core.ErrSymbolNotFound
	}
	vk.SetGetInstanceProcAddr(entry)
	if err := vk.Init(); err != nil {
		return nil, fmt.Errorf("vk.Init(): %s", err)
	}
	return &globalCommands{}, nil
}

type globalCommands struct {
	mu        sync.Mutex
	instances []vk.Instance
}

func (g *globalCommands) CreateInstance(info *core.InstanceCreateInfo) (core.Handle, core.Result) {
	createInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		EnabledExtensionCount:   uint32(len(info.EnabledExtensionNames)),
		PpEnabledExtensionNames: safeStrings(info.EnabledExtensionNames),
		EnabledLayerCount:       uint32(len(info.EnabledLayerNames)),
		PpEnabledLayerNames:     safeStrings(info.EnabledLayerNames),
	}
	if ai := info.ApplicationInfo; ai != nil {
		createInfo.PApplicationInfo = &vk.ApplicationInfo{
			SType:              vk.StructureTypeApplicationInfo,
			PApplicationName:   safeString(ai.ApplicationName),
			ApplicationVersion: ai.ApplicationVersion,
			PEngineName:        safeString(ai.EngineName),
			EngineVersion:      ai.EngineVersion,
			ApiVersion:         ai.APIVersion,
		}
	}

	var instance vk.Instance
	if res := vk.CreateInstance(&createInfo, nil, &instance); res != vk.Success {
		return core.NullHandle, core.Result(res)
	}
	if instance == nil {
		return core.NullHandle, core.Success
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.instances = append(g.instances, instance)
	return core.Handle(len(g.instances)), core.Success
}

func (g *globalCommands) InstanceCommands(handle core.Handle) (core.InstanceCommands, error) {
	if handle == core.NullHandle {
		return nil, core.ErrNullHandle
	}
	g.mu.Lock()
	i := int(handle) - 1
	if i < 0 || i >= len(g.instances) || g.instances[i] == nil {
		g.mu.Unlock()
		return nil, ErrUnknownHandle
	}
	instance := g.instances[i]
	g.mu.Unlock()

	if err := vk.InitInstance(instance); err != nil {
		return nil, fmt.Errorf("vk.InitInstance(): %s", err)
	}
	return &instanceCommands{
		global:   g,
		handle:   handle,
		instance: instance,
	}, nil
}

func (g *globalCommands) release(handle core.Handle) {
	g.mu.Lock()
	g.instances[int(handle)-1] = nil
	g.mu.Unlock()
}

type instanceCommands struct {
	global   *globalCommands
	handle   core.Handle
	instance vk.Instance
	devices  []vk.PhysicalDevice
}

// deviceHandle returns the handle of dev, registering it first if needed.
// Handles stay stable across enumerations.
func (c *instanceCommands) deviceHandle(dev vk.PhysicalDevice) core.Handle {
	for i, d := range c.devices {
		if d == dev {
			return core.Handle(i + 1)
		}
	}
	c.devices = append(c.devices, dev)
	return core.Handle(len(c.devices))
}

func (c *instanceCommands) device(handle core.Handle) (vk.PhysicalDevice, bool) {
	i := int(handle) - 1
	if i < 0 || i >= len(c.devices) {
		return nil, false
	}
	return c.devices[i], true
}

func (c *instanceCommands) EnumeratePhysicalDevices(count *uint32, out []core.Handle) core.Result {
	if out == nil {
		return core.Result(vk.EnumeratePhysicalDevices(c.instance, count, nil))
	}
	if int(*count) > len(out) {
		*count = uint32(len(out))
	}
	devices := make([]vk.PhysicalDevice, *count)
	res := vk.EnumeratePhysicalDevices(c.instance, count, devices)
	for i := 0; i < int(*count); i++ {
		out[i] = c.deviceHandle(devices[i])
	}
	return core.Result(res)
}

func (c *instanceCommands) PhysicalDeviceProperties(handle core.Handle) core.DeviceProperties {
	dev, ok := c.device(handle)
	if !ok {
		return core.DeviceProperties{}
	}
	var properties vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(dev, &properties)
	properties.Deref()
	properties.Limits.Deref()
	properties.SparseProperties.Deref()
	return deviceProperties(properties)
}

func (c *instanceCommands) QueueFamilyProperties(handle core.Handle, count *uint32, out []core.QueueFamily) {
	dev, ok := c.device(handle)
	if !ok {
		*count = 0
		return
	}
	if out == nil {
		vk.GetPhysicalDeviceQueueFamilyProperties(dev, count, nil)
		return
	}
	if int(*count) > len(out) {
		*count = uint32(len(out))
	}
	families := make([]vk.QueueFamilyProperties, *count)
	vk.GetPhysicalDeviceQueueFamilyProperties(dev, count, families)
	for i := 0; i < int(*count); i++ {
		families[i].Deref()
		families[i].MinImageTransferGranularity.Deref()
		out[i] = queueFamily(families[i])
	}
}

func (c *instanceCommands) MemoryProperties(handle core.Handle) core.MemoryProperties {
	dev, ok := c.device(handle)
	if !ok {
		return core.MemoryProperties{}
	}
	var properties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(dev, &properties)
	properties.Deref()
	return memoryProperties(properties)
}

func (c *instanceCommands) Features(handle core.Handle) core.Features {
	dev, ok := c.device(handle)
	if !ok {
		return core.Features{}
	}
	var features vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(dev, &features)
	features.Deref()
	return deviceFeatures(features)
}

func (c *instanceCommands) DeviceExtensions(handle core.Handle, count *uint32, out []string) core.Result {
	dev, ok := c.device(handle)
	if !ok {
		return core.ErrorInitializationFailed
	}
	if out == nil {
		return core.Result(vk.EnumerateDeviceExtensionProperties(dev, "", count, nil))
	}
	if int(*count) > len(out) {
		*count = uint32(len(out))
	}
	extensions := make([]vk.ExtensionProperties, *count)
	res := vk.EnumerateDeviceExtensionProperties(dev, "", count, extensions)
	for i := 0; i < int(*count); i++ {
		extensions[i].Deref()
		out[i] = vk.ToString(extensions[i].ExtensionName[:])
	}
	return core.Result(res)
}

func (c *instanceCommands) DestroyInstance() {
	if c.instance == nil {
		return
	}
	vk.DestroyInstance(c.instance, nil)
	c.global.release(c.handle)
	c.instance = nil
	c.devices = nil
}
