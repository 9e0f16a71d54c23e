// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Backend owns the loaded driver library, the API instance and the
// capability snapshots of the physical devices. It is the only owner:
// nothing else may close the library or destroy the instance.
type Backend struct {
	driver   string
	library  Library
	global   GlobalCommands
	instance Handle
	commands InstanceCommands
	devices  []PhysicalDeviceInfo

	configuration BackendConfiguration
}

// Create loads the driver, creates an instance and enumerates the
// physical devices, in that order. On failure everything acquired so far
// is released and no Backend is returned. info may be nil.
//
// Create is not safe for concurrent use.
func Create(drv Driver, info *ApplicationInfo, cfg BackendConfiguration) (*Backend, error) {
	logger := log.WithField("driver", drv.Name())

	/* Load library */
	name := drv.LibraryName()
	lib, err := drv.Open(name)
	if err != nil {
		return nil, &LoadError{Library: name, Err: err}
	}
	logger.WithField("library", name).Debug("driver library loaded")

	/* Resolve global entry points */
	global, err := bindGlobal(drv, lib)
	if err != nil {
		closeLibrary(logger, lib)
		return nil, err
	}

	/* Create instance */
	instance, commands, err := createInstance(global, newInstanceCreateInfo(info, cfg))
	if err != nil {
		if instance != NullHandle {
			releaseInstance(logger, global, instance)
		}
		closeLibrary(logger, lib)
		return nil, err
	}

	/* Enumerate devices */
	devices, err := enumerateDevices(commands, cfg.MaxDevices)
	if err != nil {
		commands.DestroyInstance()
		closeLibrary(logger, lib)
		return nil, err
	}

	logger.WithFields(log.Fields{
		"library": name,
		"devices": len(devices),
	}).Info("backend created")

	return &Backend{
		driver:        drv.Name(),
		library:       lib,
		global:        global,
		instance:      instance,
		commands:      commands,
		devices:       devices,
		configuration: cfg,
	}, nil
}

// MustCreate is like Create but panics if the backend can't be created.
func MustCreate(drv Driver, info *ApplicationInfo, cfg BackendConfiguration) *Backend {
	b, err := Create(drv, info, cfg)
	if err != nil {
		panic(fmt.Errorf("core.Create(): %s", err))
	}
	return b
}

func bindGlobal(drv Driver, lib Library) (GlobalCommands, error) {
	symbol := drv.EntryPoint()
	entry, err := lib.Symbol(symbol)
	if err == nil && entry == nil {
		err = ErrSymbolNotFound
	}
	if err != nil {
		return nil, &LoadError{Library: lib.Name(), Symbol: symbol, Err: err}
	}
	global, err := drv.Bind(lib, entry)
	if err != nil {
		return nil, &LoadError{Library: lib.Name(), Symbol: symbol, Err: err}
	}
	return global, nil
}

// releaseInstance destroys an instance that has no function table.
// Drivers without a way to do so leak it.
func releaseInstance(logger log.FieldLogger, global GlobalCommands, instance Handle) {
	r, ok := global.(InstanceReleaser)
	if !ok {
		logger.Warn("instance function table unavailable, instance leaked")
		return
	}
	if err := r.ReleaseInstance(instance); err != nil {
		logger.WithError(err).Warn("instance release failed")
	}
}

func closeLibrary(logger log.FieldLogger, lib Library) {
	if err := lib.Close(); err != nil {
		logger.WithError(err).Warn("driver library close failed")
	}
}

// Destroy destroys the instance and then unloads the driver library.
// Calling Destroy more than once has no effect.
func (b *Backend) Destroy() error {
	if b == nil || b.library == nil {
		return nil
	}
	b.commands.DestroyInstance()
	err := b.library.Close()

	b.devices = nil
	b.commands = nil
	b.global = nil
	b.instance = NullHandle
	b.library = nil
	return err
}

// Devices returns copies of the physical device snapshots in
// enumeration order.
func (b *Backend) Devices() []PhysicalDeviceInfo {
	devices := make([]PhysicalDeviceInfo, len(b.devices))
	for i := range b.devices {
		devices[i] = b.devices[i].clone()
	}
	return devices
}

// Device returns a copy of the i-th device snapshot.
func (b *Backend) Device(i int) (PhysicalDeviceInfo, bool) {
	if i < 0 || i >= len(b.devices) {
		return PhysicalDeviceInfo{}, false
	}
	return b.devices[i].clone(), true
}

// Instance returns the instance handle, NullHandle once destroyed.
func (b *Backend) Instance() Handle {
	return b.instance
}

// DriverName returns the name of the driver binding.
func (b *Backend) DriverName() string {
	return b.driver
}

// LibraryName returns the name of the loaded driver library,
// empty once destroyed.
func (b *Backend) LibraryName() string {
	if b.library == nil {
		return ""
	}
	return b.library.Name()
}

// Enumerate captures fresh snapshots of the physical devices. The
// snapshots held by the Backend are left untouched.
func (b *Backend) Enumerate() ([]PhysicalDeviceInfo, error) {
	if b.library == nil {
		return nil, ErrDestroyed
	}
	return enumerateDevices(b.commands, b.configuration.MaxDevices)
}

// PreferredDevice picks the device best suited for rendering. A device
// qualifies if it has a queue family with graphics and compute support;
// discrete GPUs rank first, then integrated, virtual and CPU devices.
// Ties keep enumeration order.
func (b *Backend) PreferredDevice() (int, PhysicalDeviceInfo, error) {
	if b.library == nil {
		return -1, PhysicalDeviceInfo{}, ErrDestroyed
	}
	best, weight := -1, 0
	for i, d := range b.devices {
		if _, ok := d.QueueFamilyIndex(QueueGraphics | QueueCompute); !ok {
			continue
		}
		if w := deviceWeight(d.Properties.Type); w > weight {
			best, weight = i, w
		}
	}
	if best < 0 {
		return -1, PhysicalDeviceInfo{}, ErrNoDevice
	}
	return best, b.devices[best].clone(), nil
}

func deviceWeight(t DeviceType) int {
	switch t {
	case DeviceTypeDiscreteGPU:
		return 5
	case DeviceTypeIntegratedGPU:
		return 4
	case DeviceTypeVirtualGPU:
		return 3
	case DeviceTypeCPU:
		return 2
	default:
		return 1
	}
}
