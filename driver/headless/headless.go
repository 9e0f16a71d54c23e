// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package headless implements the driver contract in pure Go. It simulates
// a configurable set of physical devices and can be told to fail at any
// bootstrap step, which makes it useful for CI machines without a GPU and
// for exercising error paths.
//
// Calls made after the instance was destroyed or the library was closed
// panic, the same way a native driver would misbehave.
package headless

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/devblok/koruhal/core"
)

// Names used by the headless driver.
const (
	DriverName     = "headless"
	LibraryName    = "libkoru_headless.so"
	EntryPointName = "vkGetInstanceProcAddr"
)

const (
	instanceBase = 0x1000
	deviceBase   = 0x2000
)

// package errors
var (
	ErrClosed   = errors.New("headless: library already closed")
	ErrBadEntry = errors.New("headless: entry point does not belong to this library")
)

// entryPoint is the address handed out for EntryPointName.
var entryPoint byte

// Device is a simulated physical device.
type Device struct {
	Properties    core.DeviceProperties
	QueueFamilies []core.QueueFamily
	Memory        core.MemoryProperties
	Features      core.Features
	Extensions    []string
}

// NewDevice returns a device with a graphics+compute+transfer family,
// a transfer-only family, one device local and one host heap.
func NewDevice(name string, t core.DeviceType) Device {
	return Device{
		Properties: core.DeviceProperties{
			APIVersion:    core.MakeVersion(1, 1, 0),
			DriverVersion: core.MakeVersion(0, 1, 0),
			VendorID:      0x10005,
			DeviceID:      uint32(len(name)),
			Type:          t,
			Name:          name,
			Limits: core.Limits{
				MaxImageDimension1D:            16384,
				MaxImageDimension2D:            16384,
				MaxImageDimension3D:            2048,
				MaxImageDimensionCube:          16384,
				MaxImageArrayLayers:            2048,
				MaxUniformBufferRange:          65536,
				MaxStorageBufferRange:          1 << 27,
				MaxPushConstantsSize:           128,
				MaxMemoryAllocationCount:       4096,
				MaxBoundDescriptorSets:         8,
				MaxVertexInputAttributes:       32,
				MaxComputeWorkGroupInvocations: 1024,
				MaxViewports:                   16,
				MaxFramebufferWidth:            16384,
				MaxFramebufferHeight:           16384,
				MaxColorAttachments:            8,
			},
		},
		QueueFamilies: []core.QueueFamily{
			{
				Flags:                       core.QueueGraphics | core.QueueCompute | core.QueueTransfer,
				Count:                       16,
				TimestampValidBits:          64,
				MinImageTransferGranularity: core.Extent3D{Width: 1, Height: 1, Depth: 1},
			},
			{
				Flags:                       core.QueueTransfer,
				Count:                       2,
				TimestampValidBits:          64,
				MinImageTransferGranularity: core.Extent3D{Width: 1, Height: 1, Depth: 1},
			},
		},
		Memory: core.MemoryProperties{
			Types: []core.MemoryType{
				{Flags: core.MemoryDeviceLocal, HeapIndex: 0},
				{Flags: core.MemoryHostVisible | core.MemoryHostCoherent, HeapIndex: 1},
			},
			Heaps: []core.MemoryHeap{
				{Size: 4 << 30, Flags: core.HeapDeviceLocal},
				{Size: 8 << 30},
			},
		},
		Features: core.Features{
			RobustBufferAccess:  true,
			FullDrawIndexUint32: true,
			ImageCubeArray:      true,
			IndependentBlend:    true,
			SampleRateShading:   true,
			FillModeNonSolid:    true,
			SamplerAnisotropy:   true,
		},
		Extensions: []string{"VK_KHR_swapchain"},
	}
}

// Driver is a scripted driver. The exported fields may be changed
// before Create to inject faults; they must not change afterwards.
type Driver struct {
	Devices []Device

	// OpenErr is returned by Open.
	OpenErr error
	// MissingEntryPoint makes the entry point lookup fail.
	MissingEntryPoint bool
	// BindErr is returned by Bind.
	BindErr error
	// CreateInstanceResult is returned by CreateInstance when not Success.
	CreateInstanceResult core.Result
	// NullInstance makes CreateInstance succeed with a null handle.
	NullInstance bool
	// InstanceCommandsErr is returned by InstanceCommands.
	InstanceCommandsErr error
	// EnumerateResult is returned by the count phase of
	// EnumeratePhysicalDevices when not Success.
	EnumerateResult core.Result
	// LateDevices are devices that only show up after the count phase.
	LateDevices int
	// QueueFamilyShortfall is the number of queue families the fill
	// phase leaves out.
	QueueFamilyShortfall int
	// ExtensionShortfall is the number of device extensions the fill
	// phase leaves out while still reporting Success.
	ExtensionShortfall int

	mu        sync.Mutex
	calls     []string
	request   *core.InstanceCreateInfo
	library   *Library
	instances int
	live      core.Handle
}

// New returns a driver exposing the given devices.
func New(devices ...Device) *Driver {
	return &Driver{Devices: devices}
}

func (d *Driver) record(format string, args ...interface{}) {
	d.mu.Lock()
	d.calls = append(d.calls, fmt.Sprintf(format, args...))
	d.mu.Unlock()
}

// Calls returns the driver calls made so far, in order.
func (d *Driver) Calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

// LastRequest returns the last create-instance request seen.
func (d *Driver) LastRequest() *core.InstanceCreateInfo {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.request
}

// Loaded reports whether the library is currently open.
func (d *Driver) Loaded() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.library != nil && !d.library.closed
}

// LiveInstance returns the handle of the instance not yet destroyed,
// NullHandle if there is none.
func (d *Driver) LiveInstance() core.Handle {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.live
}

// Name implements core.Driver.
func (d *Driver) Name() string {
	return DriverName
}

// LibraryName implements core.Driver.
func (d *Driver) LibraryName() string {
	return LibraryName
}

// EntryPoint implements core.Driver.
func (d *Driver) EntryPoint() string {
	return EntryPointName
}

// Open implements core.Driver.
func (d *Driver) Open(name string) (core.Library, error) {
	d.record("Open(%s)", name)
	if d.OpenErr != nil {
		return nil, d.OpenErr
	}
	lib := &Library{driver: d, name: name}
	d.mu.Lock()
	d.library = lib
	d.mu.Unlock()
	return lib, nil
}

// Bind implements core.Driver.
func (d *Driver) Bind(lib core.Library, entry unsafe.Pointer) (core.GlobalCommands, error) {
	d.record("Bind")
	if d.BindErr != nil {
		return nil, d.BindErr
	}
	l, ok := lib.(*Library)
	if !ok || l.driver != d || entry != unsafe.Pointer(&entryPoint) {
		return nil, ErrBadEntry
	}
	l.mustBeOpen("Bind")
	return &globalCommands{lib: l}, nil
}

// Library is the simulated shared library.
type Library struct {
	driver *Driver
	name   string
	closed bool
}

// Name implements core.Library.
func (l *Library) Name() string {
	return l.name
}

// Symbol implements core.Library.
func (l *Library) Symbol(name string) (unsafe.Pointer, error) {
	l.driver.record("Symbol(%s)", name)
	if l.closed {
		return nil, ErrClosed
	}
	if name != EntryPointName || l.driver.MissingEntryPoint {
		return nil, core.ErrSymbolNotFound
	}
	return unsafe.Pointer(&entryPoint), nil
}

// Close implements core.Library.
func (l *Library) Close() error {
	l.driver.record("Close")
	l.driver.mu.Lock()
	defer l.driver.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	l.closed = true
	return nil
}

func (l *Library) mustBeOpen(call string) {
	if l.closed {
		panic("headless: " + call + " called after the library was closed")
	}
}

type globalCommands struct {
	lib *Library
}

func (g *globalCommands) CreateInstance(info *core.InstanceCreateInfo) (core.Handle, core.Result) {
	d := g.lib.driver
	d.record("CreateInstance")
	g.lib.mustBeOpen("CreateInstance")
	d.mu.Lock()
	defer d.mu.Unlock()
	d.request = info
	if d.CreateInstanceResult != core.Success {
		return core.NullHandle, d.CreateInstanceResult
	}
	if d.NullInstance {
		return core.NullHandle, core.Success
	}
	d.instances++
	d.live = core.Handle(instanceBase + d.instances)
	return d.live, core.Success
}

func (g *globalCommands) InstanceCommands(instance core.Handle) (core.InstanceCommands, error) {
	d := g.lib.driver
	d.record("InstanceCommands(%#x)", uintptr(instance))
	g.lib.mustBeOpen("InstanceCommands")
	if instance == core.NullHandle {
		return nil, core.ErrNullHandle
	}
	if d.InstanceCommandsErr != nil {
		return nil, d.InstanceCommandsErr
	}
	d.mu.Lock()
	live := d.live
	d.mu.Unlock()
	if instance != live {
		return nil, fmt.Errorf("headless: unknown instance %#x", uintptr(instance))
	}
	return &instanceCommands{lib: g.lib, instance: instance}, nil
}

// ReleaseInstance implements core.InstanceReleaser.
func (g *globalCommands) ReleaseInstance(instance core.Handle) error {
	d := g.lib.driver
	d.record("ReleaseInstance(%#x)", uintptr(instance))
	g.lib.mustBeOpen("ReleaseInstance")
	d.mu.Lock()
	defer d.mu.Unlock()
	if instance == core.NullHandle || instance != d.live {
		return fmt.Errorf("headless: unknown instance %#x", uintptr(instance))
	}
	d.live = core.NullHandle
	return nil
}

type instanceCommands struct {
	lib       *Library
	instance  core.Handle
	destroyed bool
}

func (c *instanceCommands) enter(call string) *Driver {
	c.lib.driver.record("%s", call)
	c.lib.mustBeOpen(call)
	if c.destroyed {
		panic("headless: " + call + " called after DestroyInstance")
	}
	return c.lib.driver
}

func (c *instanceCommands) device(call string, dev core.Handle) Device {
	d := c.enter(call)
	i := int(dev) - deviceBase - 1
	if i < 0 || i >= len(d.Devices) {
		panic(fmt.Sprintf("headless: %s with unknown device %#x", call, uintptr(dev)))
	}
	return d.Devices[i]
}

func (c *instanceCommands) EnumeratePhysicalDevices(count *uint32, out []core.Handle) core.Result {
	d := c.enter("EnumeratePhysicalDevices")
	if out == nil {
		if d.EnumerateResult != core.Success {
			return d.EnumerateResult
		}
		*count = uint32(len(d.Devices))
		return core.Success
	}
	available := len(d.Devices) + d.LateDevices
	n := min(int(*count), len(out), len(d.Devices))
	for i := 0; i < n; i++ {
		out[i] = core.Handle(deviceBase + i + 1)
	}
	*count = uint32(n)
	if n < available {
		return core.Incomplete
	}
	return core.Success
}

func (c *instanceCommands) PhysicalDeviceProperties(dev core.Handle) core.DeviceProperties {
	return c.device("PhysicalDeviceProperties", dev).Properties
}

func (c *instanceCommands) QueueFamilyProperties(dev core.Handle, count *uint32, out []core.QueueFamily) {
	device := c.device("QueueFamilyProperties", dev)
	if out == nil {
		*count = uint32(len(device.QueueFamilies))
		return
	}
	n := copy(out[:min(int(*count), len(out))], device.QueueFamilies)
	if short := c.lib.driver.QueueFamilyShortfall; short > 0 {
		n -= short
		if n < 0 {
			n = 0
		}
	}
	*count = uint32(n)
}

func (c *instanceCommands) MemoryProperties(dev core.Handle) core.MemoryProperties {
	m := c.device("MemoryProperties", dev).Memory
	return core.MemoryProperties{
		Types: append([]core.MemoryType(nil), m.Types...),
		Heaps: append([]core.MemoryHeap(nil), m.Heaps...),
	}
}

func (c *instanceCommands) Features(dev core.Handle) core.Features {
	return c.device("Features", dev).Features
}

func (c *instanceCommands) DeviceExtensions(dev core.Handle, count *uint32, out []string) core.Result {
	device := c.device("DeviceExtensions", dev)
	if out == nil {
		*count = uint32(len(device.Extensions))
		return core.Success
	}
	n := copy(out[:min(int(*count), len(out))], device.Extensions)
	if short := c.lib.driver.ExtensionShortfall; short > 0 {
		*count = uint32(max(n-short, 0))
		return core.Success
	}
	*count = uint32(n)
	if n < len(device.Extensions) {
		return core.Incomplete
	}
	return core.Success
}

func (c *instanceCommands) DestroyInstance() {
	d := c.enter("DestroyInstance")
	c.destroyed = true
	d.mu.Lock()
	if d.live == c.instance {
		d.live = core.NullHandle
	}
	d.mu.Unlock()
}
