// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"fmt"
	"strings"
)

// PhysicalDeviceInfo is an immutable snapshot of the capabilities of one
// physical device, captured at enumeration time. The contained Handle is
// driver owned; the snapshot holds no other resources.
type PhysicalDeviceInfo struct {
	Device        Handle
	Properties    DeviceProperties
	QueueFamilies []QueueFamily
	Memory        MemoryProperties
	Features      Features
	Extensions    []string
}

// clone returns a deep copy, so callers can't alias the Backend's snapshot.
func (p PhysicalDeviceInfo) clone() PhysicalDeviceInfo {
	c := p
	c.QueueFamilies = append([]QueueFamily(nil), p.QueueFamilies...)
	c.Memory.Types = append([]MemoryType(nil), p.Memory.Types...)
	c.Memory.Heaps = append([]MemoryHeap(nil), p.Memory.Heaps...)
	c.Extensions = append([]string(nil), p.Extensions...)
	return c
}

// QueueFamilyIndex returns the index of the first queue family
// supporting all of flags.
func (p PhysicalDeviceInfo) QueueFamilyIndex(flags QueueFlags) (int, bool) {
	for i, qf := range p.QueueFamilies {
		if qf.Count > 0 && qf.Flags&flags == flags {
			return i, true
		}
	}
	return -1, false
}

// HasExtension reports whether the device exposes the named extension.
func (p PhysicalDeviceInfo) HasExtension(name string) bool {
	for _, e := range p.Extensions {
		if e == name {
			return true
		}
	}
	return false
}

// DeviceProperties holds identity and limits of a physical device.
type DeviceProperties struct {
	APIVersion        uint32
	DriverVersion     uint32
	VendorID          uint32
	DeviceID          uint32
	Type              DeviceType
	Name              string
	PipelineCacheUUID [16]byte
	Limits            Limits
	Sparse            SparseProperties
}

// SparseProperties describes how the device lays out sparse resources.
type SparseProperties struct {
	ResidencyStandard2DBlockShape            bool
	ResidencyStandard2DMultisampleBlockShape bool
	ResidencyStandard3DBlockShape            bool
	ResidencyAlignedMipSize                  bool
	ResidencyNonResidentStrict               bool
}

// Limits is the subset of device limits captured by the snapshot.
// Sample count and precision limits are not kept.
type Limits struct {
	MaxImageDimension1D            uint32
	MaxImageDimension2D            uint32
	MaxImageDimension3D            uint32
	MaxImageDimensionCube          uint32
	MaxImageArrayLayers            uint32
	MaxUniformBufferRange          uint32
	MaxStorageBufferRange          uint32
	MaxPushConstantsSize           uint32
	MaxMemoryAllocationCount       uint32
	MaxBoundDescriptorSets         uint32
	MaxVertexInputAttributes       uint32
	MaxComputeWorkGroupInvocations uint32
	MaxViewports                   uint32
	MaxFramebufferWidth            uint32
	MaxFramebufferHeight           uint32
	MaxColorAttachments            uint32
}

// DeviceType classifies a physical device.
type DeviceType int32

// Device types, with VkPhysicalDeviceType values.
const (
	DeviceTypeOther DeviceType = iota
	DeviceTypeIntegratedGPU
	DeviceTypeDiscreteGPU
	DeviceTypeVirtualGPU
	DeviceTypeCPU
)

func (t DeviceType) String() string {
	switch t {
	case DeviceTypeIntegratedGPU:
		return "integrated gpu"
	case DeviceTypeDiscreteGPU:
		return "discrete gpu"
	case DeviceTypeVirtualGPU:
		return "virtual gpu"
	case DeviceTypeCPU:
		return "cpu"
	default:
		return "other"
	}
}

// QueueFlags describes the capabilities of a queue family.
type QueueFlags uint32

// Queue capability bits.
const (
	QueueGraphics      QueueFlags = 1 << iota
	QueueCompute
	QueueTransfer
	QueueSparseBinding
)

func (f QueueFlags) String() string {
	var names []string
	if f&QueueGraphics != 0 {
		names = append(names, "graphics")
	}
	if f&QueueCompute != 0 {
		names = append(names, "compute")
	}
	if f&QueueTransfer != 0 {
		names = append(names, "transfer")
	}
	if f&QueueSparseBinding != 0 {
		names = append(names, "sparse")
	}
	if rest := f &^ (QueueGraphics | QueueCompute | QueueTransfer | QueueSparseBinding); rest != 0 {
		names = append(names, fmt.Sprintf("%#x", uint32(rest)))
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// Extent3D is a size in texels.
type Extent3D struct {
	Width, Height, Depth uint32
}

// QueueFamily describes a group of queues sharing capabilities.
type QueueFamily struct {
	Flags                       QueueFlags
	Count                       uint32
	TimestampValidBits          uint32
	MinImageTransferGranularity Extent3D
}

// MemoryPropertyFlags describes a memory type.
type MemoryPropertyFlags uint32

// Memory property bits.
const (
	MemoryDeviceLocal MemoryPropertyFlags = 1 << iota
	MemoryHostVisible
	MemoryHostCoherent
	MemoryHostCached
	MemoryLazilyAllocated
)

// MemoryHeapFlags describes a memory heap.
type MemoryHeapFlags uint32

// HeapDeviceLocal marks heaps local to the device.
const HeapDeviceLocal MemoryHeapFlags = 1

// MemoryType is one entry of the memory type table.
type MemoryType struct {
	Flags     MemoryPropertyFlags
	HeapIndex uint32
}

// MemoryHeap is one memory region of a device.
type MemoryHeap struct {
	Size  uint64
	Flags MemoryHeapFlags
}

// MemoryProperties is the memory type and heap table of a device.
type MemoryProperties struct {
	Types []MemoryType
	Heaps []MemoryHeap
}

// TotalSize returns the summed size of all heaps.
func (m MemoryProperties) TotalSize() uint64 {
	var size uint64
	for _, h := range m.Heaps {
		size += h.Size
	}
	return size
}

// DeviceLocalSize returns the summed size of device local heaps.
func (m MemoryProperties) DeviceLocalSize() uint64 {
	var size uint64
	for _, h := range m.Heaps {
		if h.Flags&HeapDeviceLocal != 0 {
			size += h.Size
		}
	}
	return size
}

// Features is the set of optional capabilities a device supports,
// one field per VkPhysicalDeviceFeatures flag.
type Features struct {
	RobustBufferAccess                      bool
	FullDrawIndexUint32                     bool
	ImageCubeArray                          bool
	IndependentBlend                        bool
	GeometryShader                          bool
	TessellationShader                      bool
	SampleRateShading                       bool
	DualSrcBlend                            bool
	LogicOp                                 bool
	MultiDrawIndirect                       bool
	DrawIndirectFirstInstance               bool
	DepthClamp                              bool
	DepthBiasClamp                          bool
	FillModeNonSolid                        bool
	DepthBounds                             bool
	WideLines                               bool
	LargePoints                             bool
	AlphaToOne                              bool
	MultiViewport                           bool
	SamplerAnisotropy                       bool
	TextureCompressionETC2                  bool
	TextureCompressionASTCLDR               bool
	TextureCompressionBC                    bool
	OcclusionQueryPrecise                   bool
	PipelineStatisticsQuery                 bool
	VertexPipelineStoresAndAtomics          bool
	FragmentStoresAndAtomics                bool
	ShaderTessellationAndGeometryPointSize  bool
	ShaderImageGatherExtended               bool
	ShaderStorageImageExtendedFormats       bool
	ShaderStorageImageMultisample           bool
	ShaderStorageImageReadWithoutFormat     bool
	ShaderStorageImageWriteWithoutFormat    bool
	ShaderUniformBufferArrayDynamicIndexing bool
	ShaderSampledImageArrayDynamicIndexing  bool
	ShaderStorageBufferArrayDynamicIndexing bool
	ShaderStorageImageArrayDynamicIndexing  bool
	ShaderClipDistance                      bool
	ShaderCullDistance                      bool
	ShaderFloat64                           bool
	ShaderInt64                             bool
	ShaderInt16                             bool
	ShaderResourceResidency                 bool
	ShaderResourceMinLod                    bool
	SparseBinding                           bool
	SparseResidencyBuffer                   bool
	SparseResidencyImage2D                  bool
	SparseResidencyImage3D                  bool
	SparseResidency2Samples                 bool
	SparseResidency4Samples                 bool
	SparseResidency8Samples                 bool
	SparseResidency16Samples                bool
	SparseResidencyAliased                  bool
	VariableMultisampleRate                 bool
	InheritedQueries                        bool
}

// Enabled returns the names of the supported features.
func (f Features) Enabled() []string {
	all := []struct {
		name string
		on   bool
	}{
		{"robustBufferAccess", f.RobustBufferAccess},
		{"fullDrawIndexUint32", f.FullDrawIndexUint32},
		{"imageCubeArray", f.ImageCubeArray},
		{"independentBlend", f.IndependentBlend},
		{"geometryShader", f.GeometryShader},
		{"tessellationShader", f.TessellationShader},
		{"sampleRateShading", f.SampleRateShading},
		{"dualSrcBlend", f.DualSrcBlend},
		{"logicOp", f.LogicOp},
		{"multiDrawIndirect", f.MultiDrawIndirect},
		{"drawIndirectFirstInstance", f.DrawIndirectFirstInstance},
		{"depthClamp", f.DepthClamp},
		{"depthBiasClamp", f.DepthBiasClamp},
		{"fillModeNonSolid", f.FillModeNonSolid},
		{"depthBounds", f.DepthBounds},
		{"wideLines", f.WideLines},
		{"largePoints", f.LargePoints},
		{"alphaToOne", f.AlphaToOne},
		{"multiViewport", f.MultiViewport},
		{"samplerAnisotropy", f.SamplerAnisotropy},
		{"textureCompressionETC2", f.TextureCompressionETC2},
		{"textureCompressionASTC_LDR", f.TextureCompressionASTCLDR},
		{"textureCompressionBC", f.TextureCompressionBC},
		{"occlusionQueryPrecise", f.OcclusionQueryPrecise},
		{"pipelineStatisticsQuery", f.PipelineStatisticsQuery},
		{"vertexPipelineStoresAndAtomics", f.VertexPipelineStoresAndAtomics},
		{"fragmentStoresAndAtomics", f.FragmentStoresAndAtomics},
		{"shaderTessellationAndGeometryPointSize", f.ShaderTessellationAndGeometryPointSize},
		{"shaderImageGatherExtended", f.ShaderImageGatherExtended},
		{"shaderStorageImageExtendedFormats", f.ShaderStorageImageExtendedFormats},
		{"shaderStorageImageMultisample", f.ShaderStorageImageMultisample},
		{"shaderStorageImageReadWithoutFormat", f.ShaderStorageImageReadWithoutFormat},
		{"shaderStorageImageWriteWithoutFormat", f.ShaderStorageImageWriteWithoutFormat},
		{"shaderUniformBufferArrayDynamicIndexing", f.ShaderUniformBufferArrayDynamicIndexing},
		{"shaderSampledImageArrayDynamicIndexing", f.ShaderSampledImageArrayDynamicIndexing},
		{"shaderStorageBufferArrayDynamicIndexing", f.ShaderStorageBufferArrayDynamicIndexing},
		{"shaderStorageImageArrayDynamicIndexing", f.ShaderStorageImageArrayDynamicIndexing},
		{"shaderClipDistance", f.ShaderClipDistance},
		{"shaderCullDistance", f.ShaderCullDistance},
		{"shaderFloat64", f.ShaderFloat64},
		{"shaderInt64", f.ShaderInt64},
		{"shaderInt16", f.ShaderInt16},
		{"shaderResourceResidency", f.ShaderResourceResidency},
		{"shaderResourceMinLod", f.ShaderResourceMinLod},
		{"sparseBinding", f.SparseBinding},
		{"sparseResidencyBuffer", f.SparseResidencyBuffer},
		{"sparseResidencyImage2D", f.SparseResidencyImage2D},
		{"sparseResidencyImage3D", f.SparseResidencyImage3D},
		{"sparseResidency2Samples", f.SparseResidency2Samples},
		{"sparseResidency4Samples", f.SparseResidency4Samples},
		{"sparseResidency8Samples", f.SparseResidency8Samples},
		{"sparseResidency16Samples", f.SparseResidency16Samples},
		{"sparseResidencyAliased", f.SparseResidencyAliased},
		{"variableMultisampleRate", f.VariableMultisampleRate},
		{"inheritedQueries", f.InheritedQueries},
	}
	var names []string
	for _, e := range all {
		if e.on {
			names = append(names, e.name)
		}
	}
	return names
}
