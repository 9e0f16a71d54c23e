// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core_test

import (
	"errors"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/devblok/koruhal/core"
	"github.com/devblok/koruhal/driver/headless"
)

func twoDeviceDriver() *headless.Driver {
	return headless.New(
		headless.NewDevice("Headless Integrated", core.DeviceTypeIntegratedGPU),
		headless.NewDevice("Headless Discrete", core.DeviceTypeDiscreteGPU),
	)
}

func indexOf(calls []string, prefix string) int {
	for i, c := range calls {
		if strings.HasPrefix(c, prefix) {
			return i
		}
	}
	return -1
}

func TestCreateWithApplicationInfo(t *testing.T) {
	c := qt.New(t)
	drv := twoDeviceDriver()

	backend, err := core.Create(drv, &core.ApplicationInfo{
		ApplicationName:    "demo",
		ApplicationVersion: 1,
		EngineName:         "core",
		EngineVersion:      1,
	}, core.BackendConfiguration{})
	c.Assert(err, qt.IsNil)
	defer backend.Destroy()

	c.Assert(backend.Devices(), qt.HasLen, 2)
	c.Assert(backend.Instance(), qt.Not(qt.Equals), core.NullHandle)
	c.Assert(backend.DriverName(), qt.Equals, headless.DriverName)
	c.Assert(backend.LibraryName(), qt.Equals, headless.LibraryName)

	req := drv.LastRequest()
	c.Assert(req.ApplicationInfo, qt.DeepEquals, &core.ApplicationInfo{
		ApplicationName:    "demo",
		ApplicationVersion: 1,
		EngineName:         "core",
		EngineVersion:      1,
		APIVersion:         core.DefaultAPIVersion,
	})
	c.Assert(req.EnabledLayerNames, qt.HasLen, 0)
	c.Assert(req.EnabledExtensionNames, qt.HasLen, 0)

	dev, ok := backend.Device(1)
	c.Assert(ok, qt.IsTrue)
	c.Assert(dev.Properties.Name, qt.Equals, "Headless Discrete")
	c.Assert(dev.QueueFamilies, qt.HasLen, 2)
	c.Assert(dev.Memory.Heaps, qt.HasLen, 2)
	c.Assert(dev.Features.SamplerAnisotropy, qt.IsTrue)
	c.Assert(dev.HasExtension("VK_KHR_swapchain"), qt.IsTrue)
}

func TestCreateWithoutApplicationInfo(t *testing.T) {
	c := qt.New(t)
	drv := twoDeviceDriver()

	backend, err := core.Create(drv, nil, core.BackendConfiguration{})
	c.Assert(err, qt.IsNil)
	defer backend.Destroy()

	c.Assert(drv.LastRequest().ApplicationInfo, qt.IsNil)
}

func TestCreateDoesNotRetainApplicationInfo(t *testing.T) {
	c := qt.New(t)
	drv := twoDeviceDriver()
	info := &core.ApplicationInfo{ApplicationName: "demo"}

	backend, err := core.Create(drv, info, core.BackendConfiguration{})
	c.Assert(err, qt.IsNil)
	defer backend.Destroy()

	info.ApplicationName = "changed"
	c.Assert(drv.LastRequest().ApplicationInfo.ApplicationName, qt.Equals, "demo")
}

func TestCreateDebugMode(t *testing.T) {
	c := qt.New(t)
	drv := twoDeviceDriver()

	backend, err := core.Create(drv, nil, core.BackendConfiguration{
		DebugMode:  true,
		Extensions: []string{"VK_KHR_surface"},
	})
	c.Assert(err, qt.IsNil)
	defer backend.Destroy()

	req := drv.LastRequest()
	c.Assert(req.EnabledLayerNames, qt.DeepEquals, []string{core.ValidationLayerName})
	c.Assert(req.EnabledExtensionNames, qt.DeepEquals, []string{"VK_KHR_surface", core.DebugReportExtensionName})
}

func TestCreateIncompatibleDriver(t *testing.T) {
	c := qt.New(t)
	drv := twoDeviceDriver()
	drv.CreateInstanceResult = core.ErrorIncompatibleDriver

	backend, err := core.Create(drv, nil, core.BackendConfiguration{})
	c.Assert(backend, qt.IsNil)
	c.Assert(err, qt.ErrorMatches, "vkCreateInstance: incompatible driver")
	c.Assert(errors.Is(err, core.ErrorIncompatibleDriver), qt.IsTrue)
	c.Assert(drv.Loaded(), qt.IsFalse)
	c.Assert(indexOf(drv.Calls(), "InstanceCommands"), qt.Equals, -1)

	c.Assert(func() {
		core.MustCreate(drv, nil, core.BackendConfiguration{})
	}, qt.PanicMatches, `core.Create\(\): vkCreateInstance: incompatible driver`)
}

func TestInstanceCommandsResolvedAfterInstance(t *testing.T) {
	c := qt.New(t)
	drv := twoDeviceDriver()

	backend, err := core.Create(drv, nil, core.BackendConfiguration{})
	c.Assert(err, qt.IsNil)
	defer backend.Destroy()

	calls := drv.Calls()
	created := indexOf(calls, "CreateInstance")
	resolved := indexOf(calls, "InstanceCommands")
	enumerated := indexOf(calls, "EnumeratePhysicalDevices")
	c.Assert(created, qt.Not(qt.Equals), -1)
	c.Assert(resolved > created, qt.IsTrue, qt.Commentf("calls: %v", calls))
	c.Assert(enumerated > resolved, qt.IsTrue, qt.Commentf("calls: %v", calls))
	c.Assert(calls[:4], qt.DeepEquals, []string{
		"Open(" + headless.LibraryName + ")",
		"Symbol(" + headless.EntryPointName + ")",
		"Bind",
		"CreateInstance",
	})
}

func TestCreateNullInstance(t *testing.T) {
	c := qt.New(t)
	drv := twoDeviceDriver()
	drv.NullInstance = true

	_, err := core.Create(drv, nil, core.BackendConfiguration{})
	c.Assert(err, qt.Equals, core.ErrNullInstance)
	c.Assert(indexOf(drv.Calls(), "InstanceCommands"), qt.Equals, -1)
	c.Assert(drv.Loaded(), qt.IsFalse)
}

func TestCreateInstanceCommandsFailure(t *testing.T) {
	c := qt.New(t)
	drv := twoDeviceDriver()
	drv.InstanceCommandsErr = errors.New("no instance table")

	_, err := core.Create(drv, nil, core.BackendConfiguration{})
	c.Assert(err, qt.ErrorMatches, "no instance table")
	c.Assert(drv.LiveInstance(), qt.Equals, core.NullHandle)
	c.Assert(drv.Loaded(), qt.IsFalse)

	calls := drv.Calls()
	released := indexOf(calls, "ReleaseInstance(")
	c.Assert(released, qt.Not(qt.Equals), -1)
	c.Assert(released < indexOf(calls, "Close"), qt.IsTrue, qt.Commentf("%v", calls))
}

func TestCreateExtensionMismatch(t *testing.T) {
	c := qt.New(t)
	dev := headless.NewDevice("Headless Discrete", core.DeviceTypeDiscreteGPU)
	dev.Extensions = []string{"VK_KHR_swapchain", "VK_KHR_maintenance1"}
	drv := headless.New(dev)
	drv.ExtensionShortfall = 1

	_, err := core.Create(drv, nil, core.BackendConfiguration{})
	var mismatch *core.MismatchError
	c.Assert(errors.As(err, &mismatch), qt.IsTrue)
	c.Assert(mismatch.Op, qt.Equals, "vkEnumerateDeviceExtensionProperties")
	c.Assert(mismatch.Counted, qt.Equals, uint32(2))
	c.Assert(mismatch.Filled, qt.Equals, uint32(1))
	c.Assert(drv.LiveInstance(), qt.Equals, core.NullHandle)
	c.Assert(drv.Loaded(), qt.IsFalse)
}

func TestCreateQueueFamilyMismatch(t *testing.T) {
	c := qt.New(t)
	drv := twoDeviceDriver()
	drv.QueueFamilyShortfall = 1

	_, err := core.Create(drv, nil, core.BackendConfiguration{})
	var mismatch *core.MismatchError
	c.Assert(errors.As(err, &mismatch), qt.IsTrue)
	c.Assert(mismatch.Op, qt.Equals, "vkGetPhysicalDeviceQueueFamilyProperties")
	c.Assert(mismatch.Counted, qt.Equals, uint32(2))
	c.Assert(mismatch.Filled, qt.Equals, uint32(1))
	c.Assert(drv.LiveInstance(), qt.Equals, core.NullHandle)
	c.Assert(drv.Loaded(), qt.IsFalse)
}

func TestCreateDeviceCapacity(t *testing.T) {
	c := qt.New(t)
	drv := twoDeviceDriver()

	_, err := core.Create(drv, nil, core.BackendConfiguration{MaxDevices: 1})
	var capacity *core.CapacityError
	c.Assert(errors.As(err, &capacity), qt.IsTrue)
	c.Assert(*capacity, qt.Equals, core.CapacityError{Limit: 1, Reported: 2})
	c.Assert(drv.Loaded(), qt.IsFalse)

	backend, err := core.Create(twoDeviceDriver(), nil, core.BackendConfiguration{MaxDevices: 2})
	c.Assert(err, qt.IsNil)
	c.Assert(backend.Devices(), qt.HasLen, 2)
	c.Assert(backend.Destroy(), qt.IsNil)
}

func TestCreateDevicesAppearDuringEnumeration(t *testing.T) {
	c := qt.New(t)
	drv := twoDeviceDriver()
	drv.LateDevices = 1

	_, err := core.Create(drv, nil, core.BackendConfiguration{})
	c.Assert(err, qt.ErrorMatches, "vkEnumeratePhysicalDevices: incomplete")
	c.Assert(errors.Is(err, core.Incomplete), qt.IsTrue)
}

func TestCreateEnumerateFailure(t *testing.T) {
	c := qt.New(t)
	drv := twoDeviceDriver()
	drv.EnumerateResult = core.ErrorInitializationFailed

	_, err := core.Create(drv, nil, core.BackendConfiguration{})
	c.Assert(err, qt.ErrorMatches, "vkEnumeratePhysicalDevices: initialization failed")
	calls := drv.Calls()
	c.Assert(calls[len(calls)-2:], qt.DeepEquals, []string{"DestroyInstance", "Close"})
}

func TestCreateLoadFailures(t *testing.T) {
	c := qt.New(t)

	drv := twoDeviceDriver()
	drv.OpenErr = errors.New("cannot open shared object file")
	_, err := core.Create(drv, nil, core.BackendConfiguration{})
	var loadErr *core.LoadError
	c.Assert(errors.As(err, &loadErr), qt.IsTrue)
	c.Assert(loadErr.Library, qt.Equals, headless.LibraryName)
	c.Assert(err, qt.ErrorMatches, "driver library libkoru_headless.so: cannot open shared object file")

	drv = twoDeviceDriver()
	drv.MissingEntryPoint = true
	_, err = core.Create(drv, nil, core.BackendConfiguration{})
	c.Assert(errors.As(err, &loadErr), qt.IsTrue)
	c.Assert(loadErr.Symbol, qt.Equals, headless.EntryPointName)
	c.Assert(errors.Is(err, core.ErrSymbolNotFound), qt.IsTrue)
	c.Assert(drv.Loaded(), qt.IsFalse)

	drv = twoDeviceDriver()
	drv.BindErr = errors.New("global entry points missing")
	_, err = core.Create(drv, nil, core.BackendConfiguration{})
	c.Assert(err, qt.ErrorMatches, ".*global entry points missing")
	c.Assert(drv.Loaded(), qt.IsFalse)
}

func TestDestroyOrder(t *testing.T) {
	c := qt.New(t)
	drv := twoDeviceDriver()

	backend, err := core.Create(drv, nil, core.BackendConfiguration{})
	c.Assert(err, qt.IsNil)
	c.Assert(backend.Destroy(), qt.IsNil)

	calls := drv.Calls()
	c.Assert(calls[len(calls)-2:], qt.DeepEquals, []string{"DestroyInstance", "Close"})
	c.Assert(drv.Loaded(), qt.IsFalse)
	c.Assert(drv.LiveInstance(), qt.Equals, core.NullHandle)
	c.Assert(backend.Instance(), qt.Equals, core.NullHandle)
	c.Assert(backend.Devices(), qt.HasLen, 0)

	c.Assert(backend.Destroy(), qt.IsNil)
	c.Assert(drv.Calls(), qt.HasLen, len(calls))

	_, err = backend.Enumerate()
	c.Assert(err, qt.Equals, core.ErrDestroyed)
}

func TestDevicesAreSnapshots(t *testing.T) {
	c := qt.New(t)
	backend, err := core.Create(twoDeviceDriver(), nil, core.BackendConfiguration{})
	c.Assert(err, qt.IsNil)
	defer backend.Destroy()

	devices := backend.Devices()
	devices[0].Properties.Name = "tampered"
	devices[0].QueueFamilies[0].Count = 0
	devices[0].Extensions[0] = "tampered"

	again := backend.Devices()
	c.Assert(again[0].Properties.Name, qt.Equals, "Headless Integrated")
	c.Assert(again[0].QueueFamilies[0].Count, qt.Equals, uint32(16))
	c.Assert(again[0].Extensions[0], qt.Equals, "VK_KHR_swapchain")

	_, ok := backend.Device(2)
	c.Assert(ok, qt.IsFalse)
}

func TestEnumerateCapturesFreshSnapshots(t *testing.T) {
	c := qt.New(t)
	drv := twoDeviceDriver()
	backend, err := core.Create(drv, nil, core.BackendConfiguration{})
	c.Assert(err, qt.IsNil)
	defer backend.Destroy()

	fresh, err := backend.Enumerate()
	c.Assert(err, qt.IsNil)
	c.Assert(fresh, qt.DeepEquals, backend.Devices())
}

func TestPreferredDevice(t *testing.T) {
	c := qt.New(t)
	cpu := headless.NewDevice("cpu", core.DeviceTypeCPU)
	transferOnly := headless.NewDevice("copy engine", core.DeviceTypeDiscreteGPU)
	transferOnly.QueueFamilies = transferOnly.QueueFamilies[1:]
	integrated := headless.NewDevice("integrated", core.DeviceTypeIntegratedGPU)

	backend, err := core.Create(headless.New(cpu, transferOnly, integrated), nil, core.BackendConfiguration{})
	c.Assert(err, qt.IsNil)
	defer backend.Destroy()

	i, dev, err := backend.PreferredDevice()
	c.Assert(err, qt.IsNil)
	c.Assert(i, qt.Equals, 2)
	c.Assert(dev.Properties.Name, qt.Equals, "integrated")

	none, err := core.Create(headless.New(transferOnly), nil, core.BackendConfiguration{})
	c.Assert(err, qt.IsNil)
	defer none.Destroy()
	_, _, err = none.PreferredDevice()
	c.Assert(err, qt.Equals, core.ErrNoDevice)
}

func TestCreateWithoutDevices(t *testing.T) {
	c := qt.New(t)
	backend, err := core.Create(headless.New(), nil, core.BackendConfiguration{})
	c.Assert(err, qt.IsNil)
	defer backend.Destroy()

	c.Assert(backend.Devices(), qt.HasLen, 0)
	_, _, err = backend.PreferredDevice()
	c.Assert(err, qt.Equals, core.ErrNoDevice)
}
