package graph

import (
	"fmt"

	"github.com/celer/vkgraph/driver"
)

// Recording is handed to a pass callback while its commands are recorded.
type Recording struct {
	cmd      *driver.CommandBuffer
	resolver *Resolver
	exec     *execution
}

func (r *Recording) Device() driver.Device {
	return r.cmd.Device
}

func (r *Recording) CommandBuffer() *driver.CommandBuffer {
	return r.cmd
}

// Image returns the image behind an image, image lease or swapchain image
// node.
func (r *Recording) Image(n AnyNode) *driver.Image {
	e := r.resolver.entry(n)
	e.expect(kindImage, kindImageLease, kindSwapchainImage)
	return e.image
}

// Buffer returns the buffer behind a buffer or buffer lease node.
func (r *Recording) Buffer(n AnyNode) *driver.Buffer {
	e := r.resolver.entry(n)
	e.expect(kindBuffer, kindBufferLease)
	return e.buffer
}

func (r *Recording) AccelerationStructure(n AnyNode) *driver.AccelerationStructure {
	e := r.resolver.entry(n)
	e.expect(kindAccel, kindAccelLease)
	return e.accel
}

// Layout is the image layout n is in during this work, as implied by the
// access the work declared for it.
func (r *Recording) Layout(n AnyNode) driver.ImageLayout {
	return r.access(n).Layout()
}

func (r *Recording) access(n AnyNode) driver.AccessType {
	r.resolver.entry(n)
	a, ok := r.exec.accessOf(n.ref().idx)
	if !ok {
		panic(fmt.Sprintf("graph: node %d is not accessed by this work", n.ref().idx))
	}
	return a
}

// ClearColorImage clears every texel of the image behind n.
func (r *Recording) ClearColorImage(n AnyNode, color [4]float32) *Recording {
	img := r.Image(n)
	r.cmd.Device.CmdClearColorImage(r.cmd.Handle, img.Handle(), r.Layout(n), color, img.Info().Subresource())
	return r
}

func (r *Recording) CopyBuffer(src, dst AnyNode, regions ...driver.BufferCopy) *Recording {
	s, d := r.Buffer(src), r.Buffer(dst)
	if len(regions) == 0 {
		regions = []driver.BufferCopy{{Size: min(s.Info().Size, d.Info().Size)}}
	}
	r.cmd.Device.CmdCopyBuffer(r.cmd.Handle, s.Handle(), d.Handle(), regions)
	return r
}

func (r *Recording) CopyBufferToImage(src, dst AnyNode, regions ...driver.BufferImageCopy) *Recording {
	s, d := r.Buffer(src), r.Image(dst)
	if len(regions) == 0 {
		regions = []driver.BufferImageCopy{{Subresource: d.Info().Subresource(), Extent: d.Info().Extent}}
	}
	r.cmd.Device.CmdCopyBufferToImage(r.cmd.Handle, s.Handle(), d.Handle(), r.Layout(dst), regions)
	return r
}

func (r *Recording) FillBuffer(n AnyNode, offset, size uint64, data uint32) *Recording {
	r.cmd.Device.CmdFillBuffer(r.cmd.Handle, r.Buffer(n).Handle(), offset, size, data)
	return r
}

func (r *Recording) Dispatch(x, y, z uint32) *Recording {
	r.cmd.Device.CmdDispatch(r.cmd.Handle, x, y, z)
	return r
}

// Draw draws into the attachments of a graphic pipeline pass.
func (r *Recording) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) *Recording {
	r.cmd.Device.CmdDraw(r.cmd.Handle, vertexCount, instanceCount, firstVertex, firstInstance)
	return r
}
