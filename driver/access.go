package driver

// AccessType names one way a pass touches a resource. Each access type fixes
// the pipeline stages, memory access bits and (for images) the layout the
// resource must be in, which is everything needed to synchronize two
// consecutive accesses.
type AccessType int

const (
	// Nothing is the state of a resource no command has touched yet.
	Nothing AccessType = iota

	// Read accesses.
	IndirectBuffer
	IndexBuffer
	VertexBuffer
	VertexShaderReadUniformBuffer
	VertexShaderReadSampledImageOrUniformTexelBuffer
	VertexShaderReadOther
	FragmentShaderReadUniformBuffer
	FragmentShaderReadSampledImageOrUniformTexelBuffer
	FragmentShaderReadColorInputAttachment
	FragmentShaderReadDepthStencilInputAttachment
	FragmentShaderReadOther
	ColorAttachmentRead
	DepthStencilAttachmentRead
	ComputeShaderReadUniformBuffer
	ComputeShaderReadSampledImageOrUniformTexelBuffer
	ComputeShaderReadOther
	RayTracingShaderReadSampledImageOrUniformTexelBuffer
	RayTracingShaderReadOther
	RayTracingShaderReadAccelerationStructure
	AnyShaderReadUniformBuffer
	AnyShaderReadUniformBufferOrVertexBuffer
	AnyShaderReadSampledImageOrUniformTexelBuffer
	AnyShaderReadOther
	TransferRead
	HostRead
	Present
	AccelerationStructureBuildRead

	// Write accesses.
	VertexShaderWrite
	FragmentShaderWrite
	ColorAttachmentWrite
	DepthStencilAttachmentWrite
	DepthAttachmentWriteStencilReadOnly
	StencilAttachmentWriteDepthReadOnly
	ComputeShaderWrite
	RayTracingShaderWrite
	AnyShaderWrite
	TransferWrite
	HostPreinitialized
	HostWrite
	ColorAttachmentReadWrite
	General
	AccelerationStructureBuildWrite

	accessTypeCount
)

// AccessInfo is the synchronization scope of one AccessType.
type AccessInfo struct {
	StageMask  PipelineStageFlags
	AccessMask AccessFlags
	Layout     ImageLayout
	write      bool
	name       string
}

var accessInfos = [accessTypeCount]AccessInfo{
	Nothing: {name: "Nothing"},

	IndirectBuffer: {PipelineStageDrawIndirect, AccessIndirectCommandRead, ImageLayoutUndefined, false, "IndirectBuffer"},
	IndexBuffer:    {PipelineStageVertexInput, AccessIndexRead, ImageLayoutUndefined, false, "IndexBuffer"},
	VertexBuffer:   {PipelineStageVertexInput, AccessVertexAttributeRead, ImageLayoutUndefined, false, "VertexBuffer"},

	VertexShaderReadUniformBuffer:                    {PipelineStageVertexShader, AccessUniformRead, ImageLayoutUndefined, false, "VertexShaderReadUniformBuffer"},
	VertexShaderReadSampledImageOrUniformTexelBuffer: {PipelineStageVertexShader, AccessShaderRead, ImageLayoutShaderReadOnlyOptimal, false, "VertexShaderReadSampledImageOrUniformTexelBuffer"},
	VertexShaderReadOther:                            {PipelineStageVertexShader, AccessShaderRead, ImageLayoutGeneral, false, "VertexShaderReadOther"},

	FragmentShaderReadUniformBuffer:                    {PipelineStageFragmentShader, AccessUniformRead, ImageLayoutUndefined, false, "FragmentShaderReadUniformBuffer"},
	FragmentShaderReadSampledImageOrUniformTexelBuffer: {PipelineStageFragmentShader, AccessShaderRead, ImageLayoutShaderReadOnlyOptimal, false, "FragmentShaderReadSampledImageOrUniformTexelBuffer"},
	FragmentShaderReadColorInputAttachment:             {PipelineStageFragmentShader, AccessInputAttachmentRead, ImageLayoutShaderReadOnlyOptimal, false, "FragmentShaderReadColorInputAttachment"},
	FragmentShaderReadDepthStencilInputAttachment:      {PipelineStageFragmentShader, AccessInputAttachmentRead, ImageLayoutDepthStencilReadOnlyOptimal, false, "FragmentShaderReadDepthStencilInputAttachment"},
	FragmentShaderReadOther:                            {PipelineStageFragmentShader, AccessShaderRead, ImageLayoutGeneral, false, "FragmentShaderReadOther"},

	ColorAttachmentRead:        {PipelineStageColorAttachmentOutput, AccessColorAttachmentRead, ImageLayoutColorAttachmentOptimal, false, "ColorAttachmentRead"},
	DepthStencilAttachmentRead: {PipelineStageEarlyFragmentTests | PipelineStageLateFragmentTests, AccessDepthStencilAttachmentRead, ImageLayoutDepthStencilReadOnlyOptimal, false, "DepthStencilAttachmentRead"},

	ComputeShaderReadUniformBuffer:                    {PipelineStageComputeShader, AccessUniformRead, ImageLayoutUndefined, false, "ComputeShaderReadUniformBuffer"},
	ComputeShaderReadSampledImageOrUniformTexelBuffer: {PipelineStageComputeShader, AccessShaderRead, ImageLayoutShaderReadOnlyOptimal, false, "ComputeShaderReadSampledImageOrUniformTexelBuffer"},
	ComputeShaderReadOther:                            {PipelineStageComputeShader, AccessShaderRead, ImageLayoutGeneral, false, "ComputeShaderReadOther"},

	RayTracingShaderReadSampledImageOrUniformTexelBuffer: {PipelineStageRayTracingShader, AccessShaderRead, ImageLayoutShaderReadOnlyOptimal, false, "RayTracingShaderReadSampledImageOrUniformTexelBuffer"},
	RayTracingShaderReadOther:                            {PipelineStageRayTracingShader, AccessShaderRead, ImageLayoutGeneral, false, "RayTracingShaderReadOther"},
	RayTracingShaderReadAccelerationStructure:            {PipelineStageRayTracingShader, AccessAccelerationStructureRead, ImageLayoutUndefined, false, "RayTracingShaderReadAccelerationStructure"},

	AnyShaderReadUniformBuffer:                    {PipelineStageAllCommands, AccessUniformRead, ImageLayoutUndefined, false, "AnyShaderReadUniformBuffer"},
	AnyShaderReadUniformBufferOrVertexBuffer:      {PipelineStageAllCommands, AccessUniformRead | AccessVertexAttributeRead, ImageLayoutUndefined, false, "AnyShaderReadUniformBufferOrVertexBuffer"},
	AnyShaderReadSampledImageOrUniformTexelBuffer: {PipelineStageAllCommands, AccessShaderRead, ImageLayoutShaderReadOnlyOptimal, false, "AnyShaderReadSampledImageOrUniformTexelBuffer"},
	AnyShaderReadOther:                            {PipelineStageAllCommands, AccessShaderRead, ImageLayoutGeneral, false, "AnyShaderReadOther"},

	TransferRead:                   {PipelineStageTransfer, AccessTransferRead, ImageLayoutTransferSrcOptimal, false, "TransferRead"},
	HostRead:                       {PipelineStageHost, AccessHostRead, ImageLayoutGeneral, false, "HostRead"},
	Present:                        {0, 0, ImageLayoutPresentSrc, false, "Present"},
	AccelerationStructureBuildRead: {PipelineStageAccelerationStructureBuild, AccessAccelerationStructureRead, ImageLayoutUndefined, false, "AccelerationStructureBuildRead"},

	VertexShaderWrite:                   {PipelineStageVertexShader, AccessShaderWrite, ImageLayoutGeneral, true, "VertexShaderWrite"},
	FragmentShaderWrite:                 {PipelineStageFragmentShader, AccessShaderWrite, ImageLayoutGeneral, true, "FragmentShaderWrite"},
	ColorAttachmentWrite:                {PipelineStageColorAttachmentOutput, AccessColorAttachmentWrite, ImageLayoutColorAttachmentOptimal, true, "ColorAttachmentWrite"},
	DepthStencilAttachmentWrite:         {PipelineStageEarlyFragmentTests | PipelineStageLateFragmentTests, AccessDepthStencilAttachmentWrite, ImageLayoutDepthStencilAttachmentOptimal, true, "DepthStencilAttachmentWrite"},
	DepthAttachmentWriteStencilReadOnly: {PipelineStageEarlyFragmentTests | PipelineStageLateFragmentTests, AccessDepthStencilAttachmentRead | AccessDepthStencilAttachmentWrite, ImageLayoutDepthAttachmentStencilReadOnlyOptimal, true, "DepthAttachmentWriteStencilReadOnly"},
	StencilAttachmentWriteDepthReadOnly: {PipelineStageEarlyFragmentTests | PipelineStageLateFragmentTests, AccessDepthStencilAttachmentRead | AccessDepthStencilAttachmentWrite, ImageLayoutDepthReadOnlyStencilAttachmentOptimal, true, "StencilAttachmentWriteDepthReadOnly"},
	ComputeShaderWrite:                  {PipelineStageComputeShader, AccessShaderWrite, ImageLayoutGeneral, true, "ComputeShaderWrite"},
	RayTracingShaderWrite:               {PipelineStageRayTracingShader, AccessShaderWrite, ImageLayoutGeneral, true, "RayTracingShaderWrite"},
	AnyShaderWrite:                      {PipelineStageAllCommands, AccessShaderWrite, ImageLayoutGeneral, true, "AnyShaderWrite"},
	TransferWrite:                       {PipelineStageTransfer, AccessTransferWrite, ImageLayoutTransferDstOptimal, true, "TransferWrite"},
	HostPreinitialized:                  {PipelineStageHost, AccessHostWrite, ImageLayoutPreinitialized, true, "HostPreinitialized"},
	HostWrite:                           {PipelineStageHost, AccessHostWrite, ImageLayoutGeneral, true, "HostWrite"},
	ColorAttachmentReadWrite:            {PipelineStageColorAttachmentOutput, AccessColorAttachmentRead | AccessColorAttachmentWrite, ImageLayoutColorAttachmentOptimal, true, "ColorAttachmentReadWrite"},
	General:                             {PipelineStageAllCommands, AccessMemoryRead | AccessMemoryWrite, ImageLayoutGeneral, true, "General"},
	AccelerationStructureBuildWrite:     {PipelineStageAccelerationStructureBuild, AccessAccelerationStructureWrite, ImageLayoutUndefined, true, "AccelerationStructureBuildWrite"},
}

// Info returns the synchronization scope of the access type.
func (a AccessType) Info() AccessInfo {
	if a < 0 || a >= accessTypeCount {
		panic("driver: invalid access type")
	}
	return accessInfos[a]
}

// IsWrite reports whether the access modifies the resource.
func (a AccessType) IsWrite() bool {
	return a.Info().write
}

// IsRead reports whether the access only reads the resource.
func (a AccessType) IsRead() bool {
	return a != Nothing && !a.IsWrite()
}

// StageMask is the pipeline stages in which the access happens.
func (a AccessType) StageMask() PipelineStageFlags {
	return a.Info().StageMask
}

// Layout is the image layout the access requires.
func (a AccessType) Layout() ImageLayout {
	return a.Info().Layout
}

func (a AccessType) String() string {
	if a < 0 || a >= accessTypeCount {
		return "AccessType(invalid)"
	}
	return accessInfos[a].name
}
