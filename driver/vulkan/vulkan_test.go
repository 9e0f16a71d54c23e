// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vulkan

import (
	"reflect"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/devblok/koruhal/core"
	vk "github.com/devblok/vulkan"
)

func TestSafeStrings(t *testing.T) {
	c := qt.New(t)
	c.Assert(safeString("Koru3D"), qt.Equals, "Koru3D\x00")
	c.Assert(safeString("Koru3D\x00"), qt.Equals, "Koru3D\x00")
	c.Assert(safeString(""), qt.Equals, "\x00")
	c.Assert(safeStrings(nil), qt.DeepEquals, []string{})
	c.Assert(safeStrings([]string{"VK_KHR_surface", "VK_EXT_debug_report"}), qt.DeepEquals,
		[]string{"VK_KHR_surface\x00", "VK_EXT_debug_report\x00"})
}

func TestDriverNames(t *testing.T) {
	c := qt.New(t)
	drv := New("")
	c.Assert(drv.Name(), qt.Equals, DriverName)
	c.Assert(drv.LibraryName(), qt.Equals, DefaultLibraryName())
	c.Assert(drv.EntryPoint(), qt.Equals, "vkGetInstanceProcAddr")
	c.Assert(New("libvulkan.so.custom").LibraryName(), qt.Equals, "libvulkan.so.custom")
	c.Assert(NewSDL().Name(), qt.Equals, SDLDriverName)
}

func TestOpenMissingLibrary(t *testing.T) {
	c := qt.New(t)
	backend, err := core.Create(New("libkoru_does_not_exist.so.0"), nil, core.BackendConfiguration{})
	c.Assert(backend, qt.IsNil)
	var loadErr *core.LoadError
	c.Assert(err, qt.ErrorAs, &loadErr)
	c.Assert(loadErr.Library, qt.Equals, "libkoru_does_not_exist.so.0")
}

func TestBindRejectsNilEntry(t *testing.T) {
	c := qt.New(t)
	_, err := New("").Bind(nil, nil)
	c.Assert(err, qt.Equals, core.ErrSymbolNotFound)
}

func TestInstanceCommandsRejectsNullHandle(t *testing.T) {
	c := qt.New(t)
	g := &globalCommands{}
	_, err := g.InstanceCommands(core.NullHandle)
	c.Assert(err, qt.Equals, core.ErrNullHandle)
	_, err = g.InstanceCommands(core.Handle(3))
	c.Assert(err, qt.Equals, ErrUnknownHandle)
}

func TestConvertQueueFamily(t *testing.T) {
	c := qt.New(t)
	got := queueFamily(vk.QueueFamilyProperties{
		QueueFlags:         vk.QueueFlags(vk.QueueGraphicsBit | vk.QueueComputeBit),
		QueueCount:         16,
		TimestampValidBits: 64,
		MinImageTransferGranularity: vk.Extent3D{
			Width: 1, Height: 1, Depth: 1,
		},
	})
	c.Assert(got, qt.Equals, core.QueueFamily{
		Flags:                       core.QueueGraphics | core.QueueCompute,
		Count:                       16,
		TimestampValidBits:          64,
		MinImageTransferGranularity: core.Extent3D{Width: 1, Height: 1, Depth: 1},
	})
}

func TestConvertMemoryProperties(t *testing.T) {
	c := qt.New(t)
	var p vk.PhysicalDeviceMemoryProperties
	p.MemoryTypeCount = 2
	p.MemoryTypes[0] = vk.MemoryType{PropertyFlags: vk.MemoryPropertyFlags(vk.MemoryPropertyDeviceLocalBit), HeapIndex: 0}
	p.MemoryTypes[1] = vk.MemoryType{PropertyFlags: vk.MemoryPropertyFlags(vk.MemoryPropertyHostVisibleBit), HeapIndex: 1}
	p.MemoryHeapCount = 2
	p.MemoryHeaps[0] = vk.MemoryHeap{Size: 1 << 30, Flags: vk.MemoryHeapFlags(vk.MemoryHeapDeviceLocalBit)}
	p.MemoryHeaps[1] = vk.MemoryHeap{Size: 2 << 30}

	m := memoryProperties(p)
	c.Assert(m.Types, qt.DeepEquals, []core.MemoryType{
		{Flags: core.MemoryDeviceLocal, HeapIndex: 0},
		{Flags: core.MemoryHostVisible, HeapIndex: 1},
	})
	c.Assert(m.TotalSize(), qt.Equals, uint64(3<<30))
	c.Assert(m.DeviceLocalSize(), qt.Equals, uint64(1<<30))
}

func TestConvertFeatures(t *testing.T) {
	c := qt.New(t)
	f := deviceFeatures(vk.PhysicalDeviceFeatures{
		SamplerAnisotropy: vk.True,
		GeometryShader:    vk.True,
	})
	c.Assert(f.Enabled(), qt.DeepEquals, []string{"geometryShader", "samplerAnisotropy"})

	f = deviceFeatures(vk.PhysicalDeviceFeatures{ShaderClipDistance: vk.True})
	c.Assert(f.Enabled(), qt.DeepEquals, []string{"shaderClipDistance"})
}

func TestConvertAllFeatures(t *testing.T) {
	c := qt.New(t)
	var in vk.PhysicalDeviceFeatures
	v := reflect.ValueOf(&in).Elem()
	flags := 0
	for i := 0; i < v.NumField(); i++ {
		if field := v.Field(i); field.CanSet() && field.Type() == reflect.TypeOf(vk.Bool32(0)) {
			field.SetUint(uint64(vk.True))
			flags++
		}
	}
	c.Assert(flags, qt.Equals, 55)

	out := reflect.ValueOf(deviceFeatures(in))
	c.Assert(out.NumField(), qt.Equals, flags)
	for i := 0; i < out.NumField(); i++ {
		c.Assert(out.Field(i).Bool(), qt.IsTrue, qt.Commentf("%s", out.Type().Field(i).Name))
	}
	c.Assert(deviceFeatures(in).Enabled(), qt.HasLen, flags)
}

func TestConvertSparseProperties(t *testing.T) {
	c := qt.New(t)
	var p vk.PhysicalDeviceProperties
	p.DeviceType = vk.PhysicalDeviceTypeDiscreteGpu
	p.SparseProperties = vk.PhysicalDeviceSparseProperties{
		ResidencyStandard2DBlockShape: vk.True,
		ResidencyNonResidentStrict:    vk.True,
	}
	got := deviceProperties(p)
	c.Assert(got.Type, qt.Equals, core.DeviceTypeDiscreteGPU)
	c.Assert(got.Sparse, qt.Equals, core.SparseProperties{
		ResidencyStandard2DBlockShape: true,
		ResidencyNonResidentStrict:    true,
	})
}
