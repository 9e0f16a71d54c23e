// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package core bootstraps a native graphics driver. It loads the driver's
// shared library, creates an API instance and captures the capabilities of
// every physical device into immutable snapshots held by a Backend.
//
// The native side is reached only through the Driver contract, so the same
// bootstrap protocol runs against the Vulkan binding and the headless one.
package core

import "unsafe"

// Handle is an opaque reference to a driver object. It is only meaningful
// to the driver binding that issued it. The zero Handle is null.
type Handle uintptr

// NullHandle is the null driver object reference.
const NullHandle Handle = 0

// Driver binds a native graphics API to the bootstrap protocol.
type Driver interface {
	// Name returns the name of the driver binding.
	Name() string

	// LibraryName returns the platform-specific
	// name of the driver's shared library.
	LibraryName() string

	// EntryPoint returns the symbol name of the global function
	// that yields every other function address.
	EntryPoint() string

	// Open loads the shared library with the given name.
	Open(name string) (Library, error)

	// Bind resolves the global entry points from the address
	// of the entry point symbol found in lib.
	Bind(lib Library, entry unsafe.Pointer) (GlobalCommands, error)
}

// Library is a loaded shared library.
type Library interface {
	// Name returns the name the library was opened with.
	Name() string

	// Symbol looks up an exported symbol by name.
	Symbol(name string) (unsafe.Pointer, error)

	// Close unloads the library. No symbol obtained from it
	// may be called afterwards.
	Close() error
}

// GlobalCommands are the entry points available before an instance exists.
type GlobalCommands interface {
	// CreateInstance creates an API instance from the request.
	// The request is not retained past the call.
	CreateInstance(info *InstanceCreateInfo) (Handle, Result)

	// InstanceCommands resolves the instance-level function table.
	// It must reject NullHandle.
	InstanceCommands(instance Handle) (InstanceCommands, error)
}

// InstanceReleaser is implemented by GlobalCommands that can destroy an
// instance whose function table could not be resolved.
type InstanceReleaser interface {
	ReleaseInstance(instance Handle) error
}

// InstanceCommands are the entry points bound to a live instance.
//
// Two-phase queries take a count and an output slice: a nil slice
// writes the number of available elements into count, otherwise at most
// *count elements are written, count is set to the number written and
// Incomplete is returned when more were available.
type InstanceCommands interface {
	EnumeratePhysicalDevices(count *uint32, out []Handle) Result
	PhysicalDeviceProperties(dev Handle) DeviceProperties
	QueueFamilyProperties(dev Handle, count *uint32, out []QueueFamily)
	MemoryProperties(dev Handle) MemoryProperties
	Features(dev Handle) Features
	DeviceExtensions(dev Handle, count *uint32, out []string) Result

	// DestroyInstance destroys the instance the table is bound to.
	DestroyInstance()
}
