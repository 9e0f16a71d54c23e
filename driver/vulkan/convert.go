// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vulkan

import (
	"github.com/devblok/koruhal/core"
	vk "github.com/devblok/vulkan"
)

// The structs handed to these functions must already be dereferenced.

func deviceProperties(p vk.PhysicalDeviceProperties) core.DeviceProperties {
	l, sp := p.Limits, p.SparseProperties
	return core.DeviceProperties{
		APIVersion:        p.ApiVersion,
		DriverVersion:     p.DriverVersion,
		VendorID:          p.VendorID,
		DeviceID:          p.DeviceID,
		Type:              core.DeviceType(p.DeviceType),
		Name:              vk.ToString(p.DeviceName[:]),
		PipelineCacheUUID: p.PipelineCacheUUID,
		Limits: core.Limits{
			MaxImageDimension1D:            l.MaxImageDimension1D,
			MaxImageDimension2D:            l.MaxImageDimension2D,
			MaxImageDimension3D:            l.MaxImageDimension3D,
			MaxImageDimensionCube:          l.MaxImageDimensionCube,
			MaxImageArrayLayers:            l.MaxImageArrayLayers,
			MaxUniformBufferRange:          l.MaxUniformBufferRange,
			MaxStorageBufferRange:          l.MaxStorageBufferRange,
			MaxPushConstantsSize:           l.MaxPushConstantsSize,
			MaxMemoryAllocationCount:       l.MaxMemoryAllocationCount,
			MaxBoundDescriptorSets:         l.MaxBoundDescriptorSets,
			MaxVertexInputAttributes:       l.MaxVertexInputAttributes,
			MaxComputeWorkGroupInvocations: l.MaxComputeWorkGroupInvocations,
			MaxViewports:                   l.MaxViewports,
			MaxFramebufferWidth:            l.MaxFramebufferWidth,
			MaxFramebufferHeight:           l.MaxFramebufferHeight,
			MaxColorAttachments:            l.MaxColorAttachments,
		},
		Sparse: core.SparseProperties{
			ResidencyStandard2DBlockShape:            on(sp.ResidencyStandard2DBlockShape),
			ResidencyStandard2DMultisampleBlockShape: on(sp.ResidencyStandard2DMultisampleBlockShape),
			ResidencyStandard3DBlockShape:            on(sp.ResidencyStandard3DBlockShape),
			ResidencyAlignedMipSize:                  on(sp.ResidencyAlignedMipSize),
			ResidencyNonResidentStrict:               on(sp.ResidencyNonResidentStrict),
		},
	}
}

func queueFamily(q vk.QueueFamilyProperties) core.QueueFamily {
	return core.QueueFamily{
		Flags:              core.QueueFlags(q.QueueFlags),
		Count:              q.QueueCount,
		TimestampValidBits: q.TimestampValidBits,
		MinImageTransferGranularity: core.Extent3D{
			Width:  q.MinImageTransferGranularity.Width,
			Height: q.MinImageTransferGranularity.Height,
			Depth:  q.MinImageTransferGranularity.Depth,
		},
	}
}

func memoryProperties(p vk.PhysicalDeviceMemoryProperties) core.MemoryProperties {
	m := core.MemoryProperties{
		Types: make([]core.MemoryType, 0, p.MemoryTypeCount),
		Heaps: make([]core.MemoryHeap, 0, p.MemoryHeapCount),
	}
	for i := uint32(0); i < p.MemoryTypeCount; i++ {
		p.MemoryTypes[i].Deref()
		m.Types = append(m.Types, core.MemoryType{
			Flags:     core.MemoryPropertyFlags(p.MemoryTypes[i].PropertyFlags),
			HeapIndex: p.MemoryTypes[i].HeapIndex,
		})
	}
	for i := uint32(0); i < p.MemoryHeapCount; i++ {
		p.MemoryHeaps[i].Deref()
		m.Heaps = append(m.Heaps, core.MemoryHeap{
			Size:  uint64(p.MemoryHeaps[i].Size),
			Flags: core.MemoryHeapFlags(p.MemoryHeaps[i].Flags),
		})
	}
	return m
}

func deviceFeatures(f vk.PhysicalDeviceFeatures) core.Features {
	return core.Features{
		RobustBufferAccess:                      on(f.RobustBufferAccess),
		FullDrawIndexUint32:                     on(f.FullDrawIndexUint32),
		ImageCubeArray:                          on(f.ImageCubeArray),
		IndependentBlend:                        on(f.IndependentBlend),
		GeometryShader:                          on(f.GeometryShader),
		TessellationShader:                      on(f.TessellationShader),
		SampleRateShading:                       on(f.SampleRateShading),
		DualSrcBlend:                            on(f.DualSrcBlend),
		LogicOp:                                 on(f.LogicOp),
		MultiDrawIndirect:                       on(f.MultiDrawIndirect),
		DrawIndirectFirstInstance:               on(f.DrawIndirectFirstInstance),
		DepthClamp:                              on(f.DepthClamp),
		DepthBiasClamp:                          on(f.DepthBiasClamp),
		FillModeNonSolid:                        on(f.FillModeNonSolid),
		DepthBounds:                             on(f.DepthBounds),
		WideLines:                               on(f.WideLines),
		LargePoints:                             on(f.LargePoints),
		AlphaToOne:                              on(f.AlphaToOne),
		MultiViewport:                           on(f.MultiViewport),
		SamplerAnisotropy:                       on(f.SamplerAnisotropy),
		TextureCompressionETC2:                  on(f.TextureCompressionETC2),
		TextureCompressionASTCLDR:               on(f.TextureCompressionASTC_LDR),
		TextureCompressionBC:                    on(f.TextureCompressionBC),
		OcclusionQueryPrecise:                   on(f.OcclusionQueryPrecise),
		PipelineStatisticsQuery:                 on(f.PipelineStatisticsQuery),
		VertexPipelineStoresAndAtomics:          on(f.VertexPipelineStoresAndAtomics),
		FragmentStoresAndAtomics:                on(f.FragmentStoresAndAtomics),
		ShaderTessellationAndGeometryPointSize:  on(f.ShaderTessellationAndGeometryPointSize),
		ShaderImageGatherExtended:               on(f.ShaderImageGatherExtended),
		ShaderStorageImageExtendedFormats:       on(f.ShaderStorageImageExtendedFormats),
		ShaderStorageImageMultisample:           on(f.ShaderStorageImageMultisample),
		ShaderStorageImageReadWithoutFormat:     on(f.ShaderStorageImageReadWithoutFormat),
		ShaderStorageImageWriteWithoutFormat:    on(f.ShaderStorageImageWriteWithoutFormat),
		ShaderUniformBufferArrayDynamicIndexing: on(f.ShaderUniformBufferArrayDynamicIndexing),
		ShaderSampledImageArrayDynamicIndexing:  on(f.ShaderSampledImageArrayDynamicIndexing),
		ShaderStorageBufferArrayDynamicIndexing: on(f.ShaderStorageBufferArrayDynamicIndexing),
		ShaderStorageImageArrayDynamicIndexing:  on(f.ShaderStorageImageArrayDynamicIndexing),
		ShaderClipDistance:                      on(f.ShaderClipDistance),
		ShaderCullDistance:                      on(f.ShaderCullDistance),
		ShaderFloat64:                           on(f.ShaderFloat64),
		ShaderInt64:                             on(f.ShaderInt64),
		ShaderInt16:                             on(f.ShaderInt16),
		ShaderResourceResidency:                 on(f.ShaderResourceResidency),
		ShaderResourceMinLod:                    on(f.ShaderResourceMinLod),
		SparseBinding:                           on(f.SparseBinding),
		SparseResidencyBuffer:                   on(f.SparseResidencyBuffer),
		SparseResidencyImage2D:                  on(f.SparseResidencyImage2D),
		SparseResidencyImage3D:                  on(f.SparseResidencyImage3D),
		SparseResidency2Samples:                 on(f.SparseResidency2Samples),
		SparseResidency4Samples:                 on(f.SparseResidency4Samples),
		SparseResidency8Samples:                 on(f.SparseResidency8Samples),
		SparseResidency16Samples:                on(f.SparseResidency16Samples),
		SparseResidencyAliased:                  on(f.SparseResidencyAliased),
		VariableMultisampleRate:                 on(f.VariableMultisampleRate),
		InheritedQueries:                        on(f.InheritedQueries),
	}
}

func on(b vk.Bool32) bool {
	return b.B()
}
