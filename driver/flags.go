package driver

// The flag and enum types below share their numeric values with the Vulkan
// API so an implementation can convert them with a plain type conversion.

// Handle is an opaque device object handle. The zero value is the null handle.
type Handle uint64

// PipelineStageFlags is a bitmask of VkPipelineStageFlagBits.
type PipelineStageFlags uint32

const (
	PipelineStageTopOfPipe                    PipelineStageFlags = 0x00000001
	PipelineStageDrawIndirect                 PipelineStageFlags = 0x00000002
	PipelineStageVertexInput                  PipelineStageFlags = 0x00000004
	PipelineStageVertexShader                 PipelineStageFlags = 0x00000008
	PipelineStageTessellationControlShader    PipelineStageFlags = 0x00000010
	PipelineStageTessellationEvaluationShader PipelineStageFlags = 0x00000020
	PipelineStageGeometryShader               PipelineStageFlags = 0x00000040
	PipelineStageFragmentShader               PipelineStageFlags = 0x00000080
	PipelineStageEarlyFragmentTests           PipelineStageFlags = 0x00000100
	PipelineStageLateFragmentTests            PipelineStageFlags = 0x00000200
	PipelineStageColorAttachmentOutput        PipelineStageFlags = 0x00000400
	PipelineStageComputeShader                PipelineStageFlags = 0x00000800
	PipelineStageTransfer                     PipelineStageFlags = 0x00001000
	PipelineStageBottomOfPipe                 PipelineStageFlags = 0x00002000
	PipelineStageHost                         PipelineStageFlags = 0x00004000
	PipelineStageAllGraphics                  PipelineStageFlags = 0x00008000
	PipelineStageAllCommands                  PipelineStageFlags = 0x00010000
	PipelineStageRayTracingShader             PipelineStageFlags = 0x00200000
	PipelineStageAccelerationStructureBuild   PipelineStageFlags = 0x02000000
)

// AccessFlags is a bitmask of VkAccessFlagBits.
type AccessFlags uint32

const (
	AccessIndirectCommandRead          AccessFlags = 0x00000001
	AccessIndexRead                    AccessFlags = 0x00000002
	AccessVertexAttributeRead          AccessFlags = 0x00000004
	AccessUniformRead                  AccessFlags = 0x00000008
	AccessInputAttachmentRead          AccessFlags = 0x00000010
	AccessShaderRead                   AccessFlags = 0x00000020
	AccessShaderWrite                  AccessFlags = 0x00000040
	AccessColorAttachmentRead          AccessFlags = 0x00000080
	AccessColorAttachmentWrite         AccessFlags = 0x00000100
	AccessDepthStencilAttachmentRead   AccessFlags = 0x00000200
	AccessDepthStencilAttachmentWrite  AccessFlags = 0x00000400
	AccessTransferRead                 AccessFlags = 0x00000800
	AccessTransferWrite                AccessFlags = 0x00001000
	AccessHostRead                     AccessFlags = 0x00002000
	AccessHostWrite                    AccessFlags = 0x00004000
	AccessMemoryRead                   AccessFlags = 0x00008000
	AccessMemoryWrite                  AccessFlags = 0x00010000
	AccessAccelerationStructureRead    AccessFlags = 0x00200000
	AccessAccelerationStructureWrite   AccessFlags = 0x00400000
)

// ImageLayout mirrors VkImageLayout.
type ImageLayout int32

const (
	ImageLayoutUndefined                             ImageLayout = 0
	ImageLayoutGeneral                               ImageLayout = 1
	ImageLayoutColorAttachmentOptimal                ImageLayout = 2
	ImageLayoutDepthStencilAttachmentOptimal         ImageLayout = 3
	ImageLayoutDepthStencilReadOnlyOptimal           ImageLayout = 4
	ImageLayoutShaderReadOnlyOptimal                 ImageLayout = 5
	ImageLayoutTransferSrcOptimal                    ImageLayout = 6
	ImageLayoutTransferDstOptimal                    ImageLayout = 7
	ImageLayoutPreinitialized                        ImageLayout = 8
	ImageLayoutDepthReadOnlyStencilAttachmentOptimal ImageLayout = 1000117000
	ImageLayoutDepthAttachmentStencilReadOnlyOptimal ImageLayout = 1000117001
	ImageLayoutPresentSrc                            ImageLayout = 1000001002
)

// Format mirrors the subset of VkFormat used by this module.
type Format uint32

const (
	FormatUndefined          Format = 0
	FormatR8G8B8A8Unorm      Format = 37
	FormatR8G8B8A8Srgb       Format = 43
	FormatB8G8R8A8Unorm      Format = 44
	FormatB8G8R8A8Srgb       Format = 50
	FormatR16G16B16A16Sfloat Format = 97
	FormatR32G32B32A32Sfloat Format = 109
	FormatD16Unorm           Format = 124
	FormatD32Sfloat          Format = 126
	FormatD24UnormS8Uint     Format = 129
	FormatD32SfloatS8Uint    Format = 130
)

// Aspect returns the image aspects a format carries.
func (f Format) Aspect() ImageAspectFlags {
	switch f {
	case FormatD16Unorm, FormatD32Sfloat:
		return ImageAspectDepth
	case FormatD24UnormS8Uint, FormatD32SfloatS8Uint:
		return ImageAspectDepth | ImageAspectStencil
	}
	return ImageAspectColor
}

// ImageAspectFlags mirrors VkImageAspectFlagBits.
type ImageAspectFlags uint32

const (
	ImageAspectColor   ImageAspectFlags = 0x1
	ImageAspectDepth   ImageAspectFlags = 0x2
	ImageAspectStencil ImageAspectFlags = 0x4
)

// ImageUsageFlags mirrors VkImageUsageFlagBits.
type ImageUsageFlags uint32

const (
	ImageUsageTransferSrc            ImageUsageFlags = 0x01
	ImageUsageTransferDst            ImageUsageFlags = 0x02
	ImageUsageSampled                ImageUsageFlags = 0x04
	ImageUsageStorage                ImageUsageFlags = 0x08
	ImageUsageColorAttachment        ImageUsageFlags = 0x10
	ImageUsageDepthStencilAttachment ImageUsageFlags = 0x20
	ImageUsageTransientAttachment    ImageUsageFlags = 0x40
	ImageUsageInputAttachment        ImageUsageFlags = 0x80
)

// BufferUsageFlags mirrors VkBufferUsageFlagBits.
type BufferUsageFlags uint32

const (
	BufferUsageTransferSrc         BufferUsageFlags = 0x001
	BufferUsageTransferDst         BufferUsageFlags = 0x002
	BufferUsageUniformTexelBuffer  BufferUsageFlags = 0x004
	BufferUsageStorageTexelBuffer  BufferUsageFlags = 0x008
	BufferUsageUniformBuffer       BufferUsageFlags = 0x010
	BufferUsageStorageBuffer       BufferUsageFlags = 0x020
	BufferUsageIndexBuffer         BufferUsageFlags = 0x040
	BufferUsageVertexBuffer        BufferUsageFlags = 0x080
	BufferUsageIndirectBuffer      BufferUsageFlags = 0x100
	BufferUsageShaderDeviceAddress BufferUsageFlags = 0x20000
)

// ShaderStageFlags mirrors VkShaderStageFlagBits.
type ShaderStageFlags uint32

const (
	ShaderStageVertex      ShaderStageFlags = 0x00000001
	ShaderStageGeometry    ShaderStageFlags = 0x00000008
	ShaderStageFragment    ShaderStageFlags = 0x00000010
	ShaderStageCompute     ShaderStageFlags = 0x00000020
	ShaderStageAllGraphics ShaderStageFlags = 0x0000001F
	ShaderStageRaygen      ShaderStageFlags = 0x00000100
	ShaderStageAnyHit      ShaderStageFlags = 0x00000200
	ShaderStageClosestHit  ShaderStageFlags = 0x00000400
	ShaderStageMiss        ShaderStageFlags = 0x00000800
	ShaderStageAll         ShaderStageFlags = 0x7FFFFFFF
)

// PipelineBindPoint mirrors VkPipelineBindPoint.
type PipelineBindPoint int32

const (
	PipelineBindPointGraphics   PipelineBindPoint = 0
	PipelineBindPointCompute    PipelineBindPoint = 1
	PipelineBindPointRayTracing PipelineBindPoint = 1000165000
)

func (p PipelineBindPoint) String() string {
	switch p {
	case PipelineBindPointGraphics:
		return "graphics"
	case PipelineBindPointCompute:
		return "compute"
	case PipelineBindPointRayTracing:
		return "ray-tracing"
	}
	return "unknown"
}

// DescriptorType mirrors VkDescriptorType.
type DescriptorType int32

const (
	DescriptorTypeSampler               DescriptorType = 0
	DescriptorTypeCombinedImageSampler  DescriptorType = 1
	DescriptorTypeSampledImage          DescriptorType = 2
	DescriptorTypeStorageImage          DescriptorType = 3
	DescriptorTypeUniformTexelBuffer    DescriptorType = 4
	DescriptorTypeStorageTexelBuffer    DescriptorType = 5
	DescriptorTypeUniformBuffer         DescriptorType = 6
	DescriptorTypeStorageBuffer         DescriptorType = 7
	DescriptorTypeUniformBufferDynamic  DescriptorType = 8
	DescriptorTypeStorageBufferDynamic  DescriptorType = 9
	DescriptorTypeInputAttachment       DescriptorType = 10
	DescriptorTypeAccelerationStructure DescriptorType = 1000150000
)

// descriptorTypeCount is the number of distinct descriptor types tracked by
// DescriptorPoolInfo.
const descriptorTypeCount = 12

// slot maps a descriptor type to its index in DescriptorPoolInfo.Sizes.
func (t DescriptorType) slot() int {
	if t == DescriptorTypeAccelerationStructure {
		return descriptorTypeCount - 1
	}
	return int(t)
}

// IsImage reports whether descriptors of this type reference image views.
func (t DescriptorType) IsImage() bool {
	switch t {
	case DescriptorTypeCombinedImageSampler, DescriptorTypeSampledImage,
		DescriptorTypeStorageImage, DescriptorTypeInputAttachment:
		return true
	}
	return false
}

// IsBuffer reports whether descriptors of this type reference buffers.
func (t DescriptorType) IsBuffer() bool {
	switch t {
	case DescriptorTypeUniformBuffer, DescriptorTypeStorageBuffer,
		DescriptorTypeUniformBufferDynamic, DescriptorTypeStorageBufferDynamic,
		DescriptorTypeUniformTexelBuffer, DescriptorTypeStorageTexelBuffer:
		return true
	}
	return false
}

// MemoryLocation selects where a resource's memory lives.
type MemoryLocation int

const (
	MemoryGPUOnly MemoryLocation = iota
	MemoryCPUToGPU
	MemoryGPUToCPU
)
