package graph

import (
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/celer/vkgraph/driver"
	"github.com/celer/vkgraph/pool"
)

// ErrNoPool is returned when work binds descriptor sets but no pool was
// given to lease them from.
var ErrNoPool = errors.New("graph: descriptor sets need a pool")

// Resolver records a resolved graph. Passes are recorded in declaration
// order, each exactly once, possibly split across several command buffers.
// The resolver keeps every resource the graph touched alive until Release.
type Resolver struct {
	graph   uuid.UUID
	entries []*entry
	passes  []*pass

	// cursor is the index of the next pass to record.
	cursor int

	leases       []interface{ Release() }
	framebuffers []*driver.Framebuffer
	released     bool
}

func (r *Resolver) entry(n AnyNode) *entry {
	ref := n.ref()
	if ref.graph != r.graph {
		panic(fmt.Sprintf("graph: node of graph %s used with resolver of graph %s", ref.graph, r.graph))
	}
	if ref.idx < 0 || ref.idx >= len(r.entries) {
		panic(fmt.Sprintf("graph: node index %d out of range", ref.idx))
	}
	return r.entries[ref.idx]
}

// LastAccess is the access n is left in after every pass has run.
func (r *Resolver) LastAccess(n AnyNode) driver.AccessType {
	return r.entry(n).last
}

// NodeStageMask is the pipeline stage of the first access of n, or the top
// of the pipe when no pass accesses n.
func (r *Resolver) NodeStageMask(n AnyNode) driver.PipelineStageFlags {
	e := r.entry(n)
	if e.firstPass < 0 {
		return driver.PipelineStageTopOfPipe
	}
	if m := e.first.StageMask(); m != 0 {
		return m
	}
	return driver.PipelineStageTopOfPipe
}

// Pending is the number of passes not recorded yet.
func (r *Resolver) Pending() int {
	return len(r.passes) - r.cursor
}

// RecordNodeDependencies records the pending passes that come before the
// first pass accessing n. When no pass accesses n every pending pass is
// recorded.
func (r *Resolver) RecordNodeDependencies(cache *pool.HashPool, cmd *driver.CommandBuffer, n AnyNode) error {
	end := r.entry(n).firstPass
	if end < 0 {
		end = len(r.passes)
	}
	return r.recordUntil(cache, cmd, end)
}

// RecordNode records every remaining pass, starting with the first pass
// accessing n unless it was recorded already.
func (r *Resolver) RecordNode(cache *pool.HashPool, cmd *driver.CommandBuffer, n AnyNode) error {
	r.entry(n)
	return r.recordUntil(cache, cmd, len(r.passes))
}

// RecordUnscheduledPasses records every remaining pass.
func (r *Resolver) RecordUnscheduledPasses(cache *pool.HashPool, cmd *driver.CommandBuffer) error {
	return r.recordUntil(cache, cmd, len(r.passes))
}

// UnbindSwapchainImage returns the swapchain image behind n.
func (r *Resolver) UnbindSwapchainImage(n SwapchainImageNode) *driver.SwapchainImage {
	e := r.entry(n)
	e.expect(kindSwapchainImage)
	return e.swapchain
}

// Release returns the descriptor sets and render passes leased while
// recording, destroys its framebuffers and drops the
// graph's hold on every binding and lease. Call it only once the device is
// done with the recorded commands.
func (r *Resolver) Release() {
	if r.released {
		return
	}
	r.released = true
	for _, l := range r.leases {
		l.Release()
	}
	r.leases = nil
	for _, fb := range r.framebuffers {
		fb.Destroy()
	}
	r.framebuffers = nil
	for _, e := range r.entries {
		e.release()
	}
}

func (r *Resolver) recordUntil(cache *pool.HashPool, cmd *driver.CommandBuffer, end int) error {
	if r.released {
		panic("graph: use of released resolver")
	}
	for r.cursor < end {
		p := r.passes[r.cursor]
		if err := r.recordPass(cache, cmd, p); err != nil {
			return fmt.Errorf("record pass %q: %w", p.name, err)
		}
		r.cursor++
	}
	return nil
}

func (r *Resolver) recordPass(cache *pool.HashPool, cmd *driver.CommandBuffer, p *pass) error {
	dev := cmd.Device
	for _, ex := range p.execs {
		for _, b := range ex.barriers {
			cmd.PipelineBarrier(b)
		}

		rendering := ex.pipeline != nil && ex.pipeline.BindPoint() == driver.PipelineBindPointGraphics
		if rendering {
			if err := r.beginRenderPass(cache, cmd, ex); err != nil {
				return err
			}
		}

		if ex.pipeline != nil {
			dev.CmdBindPipeline(cmd.Handle, ex.pipeline.BindPoint(), ex.pipeline.Handle())
			if err := r.bindDescriptorSets(cache, cmd, ex); err != nil {
				return err
			}
			stages := ex.pipeline.PushConstantStages()
			for _, pc := range ex.pushConstants {
				dev.CmdPushConstants(cmd.Handle, ex.pipeline.Layout(), stages, pc.offset, pc.data)
			}
		}

		if ex.record != nil {
			ex.record(&Recording{cmd: cmd, resolver: r, exec: ex})
		}
		if rendering {
			dev.CmdEndRenderPass(cmd.Handle)
		}
	}
	return nil
}

// beginRenderPass starts a render pass over the attachments of ex. The
// barriers planned at resolve already moved every attachment into the
// layout of its access, so the render pass performs no transitions.
func (r *Resolver) beginRenderPass(cache *pool.HashPool, cmd *driver.CommandBuffer, ex *execution) error {
	attachments := slices.Clone(ex.colors)
	for loc, a := range attachments {
		if a.idx < 0 {
			panic(fmt.Sprintf("graph: color attachment %d is not set", loc))
		}
	}
	if ex.depth != nil {
		attachments = append(attachments, *ex.depth)
	}
	if len(attachments) == 0 {
		panic("graph: graphic work has no attachments")
	}
	if cache == nil {
		return ErrNoPool
	}

	info := driver.RenderPassInfo{ColorCount: uint32(len(ex.colors)), HasDepth: ex.depth != nil}
	views := make([]driver.Handle, len(attachments))
	clears := make([]driver.ClearValue, len(attachments))
	var width, height uint32
	for i, a := range attachments {
		e := r.entries[a.idx]
		e.expect(kindImage, kindImageLease, kindSwapchainImage)
		img := e.image.Info()
		access, _ := ex.accessOf(a.idx)
		ai := driver.AttachmentInfo{
			Format:  img.Format,
			Samples: max(img.Samples, 1),
			Layout:  access.Layout(),
			LoadOp:  a.load,
		}
		if i < len(ex.colors) {
			info.Colors[i] = ai
		} else {
			info.Depth = ai
		}

		view, err := e.image.View(img.DefaultView())
		if err != nil {
			return err
		}
		views[i] = view
		clears[i] = a.clear
		if i == 0 || img.Extent.Width < width {
			width = img.Extent.Width
		}
		if i == 0 || img.Extent.Height < height {
			height = img.Extent.Height
		}
	}

	rp, err := cache.LeaseRenderPass(info)
	if err != nil {
		return err
	}
	r.leases = append(r.leases, rp)

	fb, err := driver.NewFramebuffer(cmd.Device, driver.FramebufferInfo{
		RenderPass:  rp.Item().Handle(),
		Attachments: views,
		Width:       width,
		Height:      height,
	})
	if err != nil {
		return err
	}
	r.framebuffers = append(r.framebuffers, fb)

	cmd.Device.CmdBeginRenderPass(cmd.Handle, driver.RenderPassBegin{
		RenderPass:  rp.Item().Handle(),
		Framebuffer: fb.Handle(),
		Width:       width,
		Height:      height,
		ClearValues: clears,
	})
	return nil
}

func (r *Resolver) bindDescriptorSets(cache *pool.HashPool, cmd *driver.CommandBuffer, ex *execution) error {
	if len(ex.descriptors) == 0 {
		return nil
	}
	if cache == nil {
		return ErrNoPool
	}

	bySet := make(map[uint32][]descriptorAccess)
	for _, d := range ex.descriptors {
		bySet[d.Set] = append(bySet[d.Set], d)
	}
	sets := make([]uint32, 0, len(bySet))
	for set := range bySet {
		sets = append(sets, set)
	}
	slices.Sort(sets)

	bindPoint := ex.pipeline.BindPoint()
	for _, set := range sets {
		layout := ex.pipeline.DescriptorSetLayout(set)
		if layout == nil {
			panic(fmt.Sprintf("graph: pipeline has no descriptor set %d", set))
		}

		l, err := cache.LeaseDescriptorSet(layout)
		if err != nil {
			return err
		}
		r.leases = append(r.leases, l)

		writes := make([]driver.DescriptorWrite, 0, len(bySet[set]))
		for _, d := range bySet[set] {
			w, err := r.descriptorWrite(layout, d)
			if err != nil {
				return err
			}
			writes = append(writes, w)
		}
		l.Item().Update(writes)
		cmd.Device.CmdBindDescriptorSets(cmd.Handle, bindPoint, ex.pipeline.Layout(), set, []driver.Handle{l.Item().Handle()})
	}
	return nil
}

func (r *Resolver) descriptorWrite(layout *driver.DescriptorSetLayout, d descriptorAccess) (driver.DescriptorWrite, error) {
	b, ok := layout.Info().Binding(d.Binding)
	if !ok {
		panic(fmt.Sprintf("graph: descriptor set %d has no binding %d", d.Set, d.Binding))
	}
	e := r.entries[d.idx]
	w := driver.DescriptorWrite{
		Binding:      d.Binding,
		ArrayElement: d.ArrayElement,
		Type:         b.Type,
	}
	switch {
	case b.Type == driver.DescriptorTypeAccelerationStructure:
		e.expect(kindAccel, kindAccelLease)
		w.AccelerationStructure = e.accel.Handle()
	case b.Type.IsImage():
		e.expect(kindImage, kindImageLease, kindSwapchainImage)
		view, err := e.image.View(e.image.Info().DefaultView())
		if err != nil {
			return w, err
		}
		w.ImageView = view
		w.ImageLayout = d.access.Layout()
	case b.Type.IsBuffer():
		e.expect(kindBuffer, kindBufferLease)
		w.Buffer = e.buffer.Handle()
		w.Range = e.buffer.Info().Size
	}
	return w, nil
}
