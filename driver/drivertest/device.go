// Package drivertest provides an in-memory driver.Device and
// driver.Swapchain that record every call for inspection by tests.
package drivertest

import (
	"strings"
	"sync"

	"github.com/celer/vkgraph/driver"
)

// Call is one recorded device call.
type Call struct {
	Op      string
	Cmd     driver.Handle
	Handle  driver.Handle
	Barrier driver.Barrier
	Submit  driver.SubmitInfo
	Data    []byte
	Args    []uint64
}

type fence struct {
	done     chan struct{}
	signaled bool
}

// Device is a fake driver.Device. Handles are unique increasing integers.
// Submissions signal their fence immediately unless HoldFences was called.
type Device struct {
	mu      sync.Mutex
	next    driver.Handle
	calls   []Call
	live    map[driver.Handle]string
	fences  map[driver.Handle]*fence
	fail    map[string]error
	hold    bool
	pending []driver.Handle

	renderPasses map[driver.Handle]driver.RenderPassInfo
}

var _ driver.Device = (*Device)(nil)

func NewDevice() *Device {
	return &Device{
		live:   make(map[driver.Handle]string),
		fences: make(map[driver.Handle]*fence),
		fail:   make(map[string]error),

		renderPasses: make(map[driver.Handle]driver.RenderPassInfo),
	}
}

// FailNext makes the next call to op return err.
func (d *Device) FailNext(op string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fail[op] = err
}

// HoldFences stops submissions from signalling their fence. Use
// SignalFences to complete them.
func (d *Device) HoldFences() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hold = true
}

// SignalFences signals every fence of a held submission and resumes
// immediate completion.
func (d *Device) SignalFences() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, h := range d.pending {
		d.signal(h)
	}
	d.pending = nil
	d.hold = false
}

// Calls returns a copy of every recorded call in order.
func (d *Device) Calls() []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Call(nil), d.calls...)
}

// Ops returns the operation names of every recorded call in order.
func (d *Device) Ops() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	ops := make([]string, len(d.calls))
	for i, c := range d.calls {
		ops[i] = c.Op
	}
	return ops
}

// Count returns how many times op was called.
func (d *Device) Count(op string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, c := range d.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Commands returns the commands recorded into cmd with the command buffer
// handle cleared, so recordings into different buffers compare equal.
func (d *Device) Commands(cmd driver.Handle) []Call {
	d.mu.Lock()
	defer d.mu.Unlock()
	var cmds []Call
	for _, c := range d.calls {
		if c.Cmd == cmd && strings.HasPrefix(c.Op, "Cmd") {
			c.Cmd = 0
			cmds = append(cmds, c)
		}
	}
	return cmds
}

// Barriers returns the barriers recorded into cmd.
func (d *Device) Barriers(cmd driver.Handle) []driver.Barrier {
	var barriers []driver.Barrier
	for _, c := range d.Commands(cmd) {
		if c.Op == "CmdPipelineBarrier" {
			barriers = append(barriers, c.Barrier)
		}
	}
	return barriers
}

// Live returns the number of objects of kind ("image", "buffer", ...) that
// were created and not yet destroyed.
func (d *Device) Live(kind string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := 0
	for _, k := range d.live {
		if k == kind {
			n++
		}
	}
	return n
}

// Signaled reports whether fence is signalled.
func (d *Device) Signaled(h driver.Handle) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	f, ok := d.fences[h]
	return ok && f.signaled
}

func (d *Device) record(c Call) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, c)
	if err, ok := d.fail[c.Op]; ok {
		delete(d.fail, c.Op)
		return err
	}
	return nil
}

func (d *Device) create(op, kind string) (driver.Handle, error) {
	if err := d.record(Call{Op: op}); err != nil {
		return 0, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.next++
	d.live[d.next] = kind
	d.calls[len(d.calls)-1].Handle = d.next
	return d.next, nil
}

func (d *Device) destroy(op string, h driver.Handle) {
	d.record(Call{Op: op, Handle: h})
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.live, h)
}

// setArgs attaches args to the call that created h.
func (d *Device) setArgs(h driver.Handle, args ...uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := len(d.calls) - 1; i >= 0; i-- {
		if d.calls[i].Handle == h {
			d.calls[i].Args = args
			return
		}
	}
}

func boolArg(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

func (d *Device) signal(h driver.Handle) {
	f := d.fences[h]
	if f != nil && !f.signaled {
		f.signaled = true
		close(f.done)
	}
}

func (d *Device) CreateImage(driver.ImageInfo) (driver.Handle, error) {
	return d.create("CreateImage", "image")
}

func (d *Device) DestroyImage(h driver.Handle) { d.destroy("DestroyImage", h) }

func (d *Device) CreateImageView(driver.Handle, driver.ImageViewInfo) (driver.Handle, error) {
	return d.create("CreateImageView", "image view")
}

func (d *Device) DestroyImageView(h driver.Handle) { d.destroy("DestroyImageView", h) }

func (d *Device) CreateBuffer(driver.BufferInfo) (driver.Handle, error) {
	return d.create("CreateBuffer", "buffer")
}

func (d *Device) DestroyBuffer(h driver.Handle) { d.destroy("DestroyBuffer", h) }

func (d *Device) CreateAccelerationStructure(driver.AccelerationStructureInfo) (driver.Handle, error) {
	return d.create("CreateAccelerationStructure", "acceleration structure")
}

func (d *Device) DestroyAccelerationStructure(h driver.Handle) {
	d.destroy("DestroyAccelerationStructure", h)
}

func (d *Device) CreateDescriptorSetLayout(driver.DescriptorSetLayoutInfo) (driver.Handle, error) {
	return d.create("CreateDescriptorSetLayout", "descriptor set layout")
}

func (d *Device) DestroyDescriptorSetLayout(h driver.Handle) {
	d.destroy("DestroyDescriptorSetLayout", h)
}

func (d *Device) CreateDescriptorPool(driver.DescriptorPoolInfo) (driver.Handle, error) {
	return d.create("CreateDescriptorPool", "descriptor pool")
}

func (d *Device) DestroyDescriptorPool(h driver.Handle) { d.destroy("DestroyDescriptorPool", h) }

func (d *Device) AllocateDescriptorSet(pool, layout driver.Handle) (driver.Handle, error) {
	return d.create("AllocateDescriptorSet", "descriptor set")
}

func (d *Device) UpdateDescriptorSet(set driver.Handle, writes []driver.DescriptorWrite) {
	args := make([]uint64, 0, len(writes))
	for _, w := range writes {
		args = append(args, uint64(w.Binding))
	}
	d.record(Call{Op: "UpdateDescriptorSet", Handle: set, Args: args})
}

func (d *Device) DestroyPipeline(h driver.Handle) { d.destroy("DestroyPipeline", h) }

func (d *Device) DestroyPipelineLayout(h driver.Handle) { d.destroy("DestroyPipelineLayout", h) }

// CreatePipeline makes a pipeline and layout handle pair for tests.
func (d *Device) CreatePipeline() (pipeline, layout driver.Handle) {
	pipeline, _ = d.create("CreatePipeline", "pipeline")
	layout, _ = d.create("CreatePipelineLayout", "pipeline layout")
	return pipeline, layout
}

func (d *Device) CreateRenderPass(info driver.RenderPassInfo) (driver.Handle, error) {
	h, err := d.create("CreateRenderPass", "render pass")
	if err != nil {
		return 0, err
	}
	d.setArgs(h, uint64(info.ColorCount), boolArg(info.HasDepth))
	d.mu.Lock()
	d.renderPasses[h] = info
	d.mu.Unlock()
	return h, nil
}

// RenderPassInfo returns the info a live render pass was created with.
func (d *Device) RenderPassInfo(h driver.Handle) (driver.RenderPassInfo, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	info, ok := d.renderPasses[h]
	return info, ok
}

func (d *Device) DestroyRenderPass(h driver.Handle) {
	d.destroy("DestroyRenderPass", h)
	d.mu.Lock()
	delete(d.renderPasses, h)
	d.mu.Unlock()
}

func (d *Device) CreateFramebuffer(info driver.FramebufferInfo) (driver.Handle, error) {
	h, err := d.create("CreateFramebuffer", "framebuffer")
	if err != nil {
		return 0, err
	}
	args := []uint64{uint64(info.RenderPass), uint64(info.Width), uint64(info.Height)}
	for _, a := range info.Attachments {
		args = append(args, uint64(a))
	}
	d.setArgs(h, args...)
	return h, nil
}

func (d *Device) DestroyFramebuffer(h driver.Handle) { d.destroy("DestroyFramebuffer", h) }

func (d *Device) CreateCommandPool(queueFamily int) (driver.Handle, error) {
	return d.create("CreateCommandPool", "command pool")
}

func (d *Device) ResetCommandPool(h driver.Handle) error {
	return d.record(Call{Op: "ResetCommandPool", Handle: h})
}

func (d *Device) DestroyCommandPool(h driver.Handle) { d.destroy("DestroyCommandPool", h) }

func (d *Device) AllocateCommandBuffer(pool driver.Handle) (driver.Handle, error) {
	return d.create("AllocateCommandBuffer", "command buffer")
}

func (d *Device) BeginCommandBuffer(h driver.Handle) error {
	return d.record(Call{Op: "BeginCommandBuffer", Handle: h})
}

func (d *Device) EndCommandBuffer(h driver.Handle) error {
	return d.record(Call{Op: "EndCommandBuffer", Handle: h})
}

func (d *Device) CreateFence(signaled bool) (driver.Handle, error) {
	h, err := d.create("CreateFence", "fence")
	if err != nil {
		return 0, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	f := &fence{done: make(chan struct{})}
	d.fences[h] = f
	if signaled {
		d.signal(h)
	}
	return h, nil
}

// WaitForFence blocks until the fence is signalled.
func (d *Device) WaitForFence(h driver.Handle) error {
	if err := d.record(Call{Op: "WaitForFence", Handle: h}); err != nil {
		return err
	}
	d.mu.Lock()
	f := d.fences[h]
	d.mu.Unlock()
	if f == nil {
		return driver.InvalidData
	}
	<-f.done
	return nil
}

func (d *Device) FenceSignaled(h driver.Handle) (bool, error) {
	if err := d.record(Call{Op: "FenceSignaled", Handle: h}); err != nil {
		return false, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	f := d.fences[h]
	if f == nil {
		return false, driver.InvalidData
	}
	return f.signaled, nil
}

func (d *Device) ResetFence(h driver.Handle) error {
	if err := d.record(Call{Op: "ResetFence", Handle: h}); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if f := d.fences[h]; f != nil && f.signaled {
		d.fences[h] = &fence{done: make(chan struct{})}
	}
	return nil
}

func (d *Device) DestroyFence(h driver.Handle) {
	d.destroy("DestroyFence", h)
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.fences, h)
}

func (d *Device) QueueSubmit(queueFamily int, info driver.SubmitInfo) error {
	if err := d.record(Call{Op: "QueueSubmit", Handle: info.CommandBuffer, Submit: info}); err != nil {
		return err
	}
	if info.Fence == 0 {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.hold {
		d.pending = append(d.pending, info.Fence)
		return nil
	}
	d.signal(info.Fence)
	return nil
}

func (d *Device) WaitIdle() error {
	return d.record(Call{Op: "WaitIdle"})
}

func (d *Device) CmdPipelineBarrier(cmd driver.Handle, b driver.Barrier) {
	d.record(Call{Op: "CmdPipelineBarrier", Cmd: cmd, Barrier: b})
}

func (d *Device) CmdBindPipeline(cmd driver.Handle, bindPoint driver.PipelineBindPoint, pipeline driver.Handle) {
	d.record(Call{Op: "CmdBindPipeline", Cmd: cmd, Handle: pipeline, Args: []uint64{uint64(bindPoint)}})
}

func (d *Device) CmdBindDescriptorSets(cmd driver.Handle, bindPoint driver.PipelineBindPoint, layout driver.Handle, firstSet uint32, sets []driver.Handle) {
	args := []uint64{uint64(bindPoint), uint64(firstSet)}
	for _, s := range sets {
		args = append(args, uint64(s))
	}
	d.record(Call{Op: "CmdBindDescriptorSets", Cmd: cmd, Handle: layout, Args: args})
}

func (d *Device) CmdPushConstants(cmd driver.Handle, layout driver.Handle, stages driver.ShaderStageFlags, offset uint32, data []byte) {
	d.record(Call{Op: "CmdPushConstants", Cmd: cmd, Handle: layout, Args: []uint64{uint64(stages), uint64(offset)}, Data: append([]byte(nil), data...)})
}

func (d *Device) CmdDispatch(cmd driver.Handle, x, y, z uint32) {
	d.record(Call{Op: "CmdDispatch", Cmd: cmd, Args: []uint64{uint64(x), uint64(y), uint64(z)}})
}

func (d *Device) CmdDraw(cmd driver.Handle, vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	d.record(Call{Op: "CmdDraw", Cmd: cmd, Args: []uint64{uint64(vertexCount), uint64(instanceCount), uint64(firstVertex), uint64(firstInstance)}})
}

func (d *Device) CmdClearColorImage(cmd driver.Handle, image driver.Handle, layout driver.ImageLayout, color [4]float32, _ driver.ImageSubresource) {
	d.record(Call{Op: "CmdClearColorImage", Cmd: cmd, Handle: image, Args: []uint64{uint64(layout)}})
}

func (d *Device) CmdCopyBuffer(cmd driver.Handle, src, dst driver.Handle, regions []driver.BufferCopy) {
	d.record(Call{Op: "CmdCopyBuffer", Cmd: cmd, Handle: dst, Args: []uint64{uint64(src), uint64(len(regions))}})
}

func (d *Device) CmdCopyBufferToImage(cmd driver.Handle, src, dst driver.Handle, layout driver.ImageLayout, regions []driver.BufferImageCopy) {
	d.record(Call{Op: "CmdCopyBufferToImage", Cmd: cmd, Handle: dst, Args: []uint64{uint64(src), uint64(layout), uint64(len(regions))}})
}

func (d *Device) CmdFillBuffer(cmd driver.Handle, buffer driver.Handle, offset, size uint64, data uint32) {
	d.record(Call{Op: "CmdFillBuffer", Cmd: cmd, Handle: buffer, Args: []uint64{offset, size, uint64(data)}})
}

func (d *Device) CmdBeginRenderPass(cmd driver.Handle, begin driver.RenderPassBegin) {
	d.record(Call{Op: "CmdBeginRenderPass", Cmd: cmd, Handle: begin.Framebuffer,
		Args: []uint64{uint64(begin.RenderPass), uint64(begin.Width), uint64(begin.Height), uint64(len(begin.ClearValues))}})
}

func (d *Device) CmdEndRenderPass(cmd driver.Handle) {
	d.record(Call{Op: "CmdEndRenderPass", Cmd: cmd})
}
