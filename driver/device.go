package driver

// SemaphoreWait makes a submission wait on a semaphore before the given
// pipeline stages run.
type SemaphoreWait struct {
	Semaphore Handle
	Stage     PipelineStageFlags
}

// SubmitInfo is one queue submission of a single command buffer.
type SubmitInfo struct {
	CommandBuffer Handle
	Waits         []SemaphoreWait
	Signals       []Handle
	Fence         Handle
}

// Recorder records commands into a command buffer that is between
// BeginCommandBuffer and EndCommandBuffer.
type Recorder interface {
	CmdPipelineBarrier(cmd Handle, barrier Barrier)
	CmdBindPipeline(cmd Handle, bindPoint PipelineBindPoint, pipeline Handle)
	CmdBindDescriptorSets(cmd Handle, bindPoint PipelineBindPoint, layout Handle, firstSet uint32, sets []Handle)
	CmdPushConstants(cmd Handle, layout Handle, stages ShaderStageFlags, offset uint32, data []byte)
	CmdDispatch(cmd Handle, x, y, z uint32)
	CmdDraw(cmd Handle, vertexCount, instanceCount, firstVertex, firstInstance uint32)
	CmdClearColorImage(cmd Handle, image Handle, layout ImageLayout, color [4]float32, subresource ImageSubresource)
	CmdCopyBuffer(cmd Handle, src, dst Handle, regions []BufferCopy)
	CmdCopyBufferToImage(cmd Handle, src, dst Handle, layout ImageLayout, regions []BufferImageCopy)
	CmdFillBuffer(cmd Handle, buffer Handle, offset, size uint64, data uint32)

	// CmdBeginRenderPass also sets the viewport and scissor to the render
	// area.
	CmdBeginRenderPass(cmd Handle, begin RenderPassBegin)
	CmdEndRenderPass(cmd Handle)
}

// Device creates and destroys device objects, records commands and submits
// work to a queue. Creation failures are reported as DriverError values
// (possibly wrapped); Destroy calls never fail.
type Device interface {
	Recorder

	CreateImage(info ImageInfo) (Handle, error)
	DestroyImage(image Handle)
	CreateImageView(image Handle, info ImageViewInfo) (Handle, error)
	DestroyImageView(view Handle)

	CreateBuffer(info BufferInfo) (Handle, error)
	DestroyBuffer(buffer Handle)

	CreateAccelerationStructure(info AccelerationStructureInfo) (Handle, error)
	DestroyAccelerationStructure(accel Handle)

	CreateDescriptorSetLayout(info DescriptorSetLayoutInfo) (Handle, error)
	DestroyDescriptorSetLayout(layout Handle)
	CreateDescriptorPool(info DescriptorPoolInfo) (Handle, error)
	DestroyDescriptorPool(pool Handle)
	AllocateDescriptorSet(pool, layout Handle) (Handle, error)
	UpdateDescriptorSet(set Handle, writes []DescriptorWrite)

	DestroyPipeline(pipeline Handle)
	DestroyPipelineLayout(layout Handle)

	CreateRenderPass(info RenderPassInfo) (Handle, error)
	DestroyRenderPass(renderPass Handle)
	CreateFramebuffer(info FramebufferInfo) (Handle, error)
	DestroyFramebuffer(framebuffer Handle)

	CreateCommandPool(queueFamily int) (Handle, error)
	ResetCommandPool(pool Handle) error
	DestroyCommandPool(pool Handle)
	AllocateCommandBuffer(pool Handle) (Handle, error)
	BeginCommandBuffer(cmd Handle) error
	EndCommandBuffer(cmd Handle) error

	CreateFence(signaled bool) (Handle, error)
	WaitForFence(fence Handle) error
	// FenceSignaled polls the fence without blocking.
	FenceSignaled(fence Handle) (bool, error)
	ResetFence(fence Handle) error
	DestroyFence(fence Handle)

	QueueSubmit(queueFamily int, info SubmitInfo) error
	WaitIdle() error
}

// Swapchain is the presentation engine's side of a surface.
type Swapchain interface {
	// AcquireNextImage blocks until an image is available. Failures are
	// SwapchainImageError values.
	AcquireNextImage() (*SwapchainImage, error)

	// PresentImage queues the image for presentation once its Rendered
	// semaphore signals.
	PresentImage(image *SwapchainImage) error
}
