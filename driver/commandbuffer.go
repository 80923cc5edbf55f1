package driver

import "fmt"

// CommandBuffer is a primary command buffer with its own command pool and a
// fence that signals when its last submission finishes. The fence starts
// signalled so the first WaitForFence returns immediately.
type CommandBuffer struct {
	Device      Device
	QueueFamily int

	Pool   Handle
	Handle Handle
	Fence  Handle
}

func NewCommandBuffer(device Device, queueFamily int) (*CommandBuffer, error) {
	pool, err := device.CreateCommandPool(queueFamily)
	if err != nil {
		return nil, fmt.Errorf("create command pool: %w", err)
	}
	cmd, err := device.AllocateCommandBuffer(pool)
	if err != nil {
		device.DestroyCommandPool(pool)
		return nil, fmt.Errorf("allocate command buffer: %w", err)
	}
	fence, err := device.CreateFence(true)
	if err != nil {
		device.DestroyCommandPool(pool)
		return nil, fmt.Errorf("create fence: %w", err)
	}
	return &CommandBuffer{
		Device:      device,
		QueueFamily: queueFamily,
		Pool:        pool,
		Handle:      cmd,
		Fence:       fence,
	}, nil
}

// WaitForFence blocks until the last submission has finished executing.
func (c *CommandBuffer) WaitForFence() error {
	return c.Device.WaitForFence(c.Fence)
}

// Done reports whether the last submission has finished, without
// blocking.
func (c *CommandBuffer) Done() (bool, error) {
	return c.Device.FenceSignaled(c.Fence)
}

// Reset returns the command buffer to the initial state. The caller must
// have waited for the fence.
func (c *CommandBuffer) Reset() error {
	return c.Device.ResetCommandPool(c.Pool)
}

func (c *CommandBuffer) Begin() error {
	return c.Device.BeginCommandBuffer(c.Handle)
}

func (c *CommandBuffer) End() error {
	return c.Device.EndCommandBuffer(c.Handle)
}

// Submit submits the command buffer, signalling its fence on completion.
func (c *CommandBuffer) Submit(waits []SemaphoreWait, signals []Handle) error {
	if err := c.Device.ResetFence(c.Fence); err != nil {
		return err
	}
	return c.Device.QueueSubmit(c.QueueFamily, SubmitInfo{
		CommandBuffer: c.Handle,
		Waits:         waits,
		Signals:       signals,
		Fence:         c.Fence,
	})
}

// PipelineBarrier records b into the command buffer.
func (c *CommandBuffer) PipelineBarrier(b Barrier) {
	c.Device.CmdPipelineBarrier(c.Handle, b)
}

func (c *CommandBuffer) Destroy() {
	c.Device.DestroyFence(c.Fence)
	c.Device.DestroyCommandPool(c.Pool)
	c.Pool, c.Handle, c.Fence = 0, 0, 0
}
