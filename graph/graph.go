// Package graph describes a frame as passes over images, buffers and
// acceleration structures, and resolves it into recorded commands with the
// barriers between those passes.
package graph

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/celer/vkgraph/driver"
	"github.com/celer/vkgraph/pool"
)

// attached maps every bound binding, lease or swapchain image to the
// unresolved graph it is bound to.
var attached sync.Map

// RenderGraph accumulates passes over nodes. Nodes and passes are only ever
// appended. Resolve or Discard consumes the graph; any later use panics.
type RenderGraph struct {
	id       uuid.UUID
	entries  []*entry
	bound    map[any]int
	passes   []*pass
	resolved bool
}

func New() *RenderGraph {
	return &RenderGraph{
		id:    uuid.New(),
		bound: make(map[any]int),
	}
}

// ID identifies the graph. Nodes carry it.
func (g *RenderGraph) ID() uuid.UUID {
	return g.id
}

func (g *RenderGraph) checkLive() {
	if g.resolved {
		panic("graph: use of resolved graph")
	}
}

func (g *RenderGraph) entry(n AnyNode) *entry {
	ref := n.ref()
	if ref.graph != g.id {
		panic(fmt.Sprintf("graph: node of graph %s used with graph %s", ref.graph, g.id))
	}
	if ref.idx < 0 || ref.idx >= len(g.entries) {
		panic(fmt.Sprintf("graph: node index %d out of range", ref.idx))
	}
	return g.entries[ref.idx]
}

// bind attaches owner, returning the existing index when owner is already
// bound to g. mk builds the entry and takes the retention.
func (g *RenderGraph) bind(owner any, mk func() *entry) nodeRef {
	g.checkLive()

	if other, loaded := attached.LoadOrStore(owner, g); loaded && other.(*RenderGraph) != g {
		panic(fmt.Sprintf("graph: resource is bound to graph %s", other.(*RenderGraph).id))
	}
	if idx, ok := g.bound[owner]; ok {
		return nodeRef{graph: g.id, idx: idx}
	}

	e := mk()
	e.owner = owner
	e.firstPass = -1
	g.entries = append(g.entries, e)
	idx := len(g.entries) - 1
	g.bound[owner] = idx
	return nodeRef{graph: g.id, idx: idx}
}

// unbind detaches the entry of n so its owner may be bound elsewhere. The
// graph keeps its retention, and n stays usable, until the resolver is
// released.
func (g *RenderGraph) unbind(n AnyNode, kind nodeKind) *entry {
	g.checkLive()
	e := g.entry(n)
	e.expect(kind)
	attached.CompareAndDelete(e.owner, g)
	return e
}

// BindImage attaches b to the graph.
func (g *RenderGraph) BindImage(b *ImageBinding) ImageNode {
	return ImageNode{g.bind(b, func() *entry {
		b.Retain()
		return &entry{kind: kindImage, image: b.Image(), release: b.Release}
	})}
}

func (g *RenderGraph) UnbindImage(n ImageNode) *ImageBinding {
	return g.unbind(n, kindImage).owner.(*ImageBinding)
}

func (g *RenderGraph) BindBuffer(b *BufferBinding) BufferNode {
	return BufferNode{g.bind(b, func() *entry {
		b.Retain()
		return &entry{kind: kindBuffer, buffer: b.Buffer(), release: b.Release}
	})}
}

func (g *RenderGraph) UnbindBuffer(n BufferNode) *BufferBinding {
	return g.unbind(n, kindBuffer).owner.(*BufferBinding)
}

func (g *RenderGraph) BindAccelerationStructure(b *AccelerationStructureBinding) AccelerationStructureNode {
	return AccelerationStructureNode{g.bind(b, func() *entry {
		b.Retain()
		return &entry{kind: kindAccel, accel: b.AccelerationStructure(), release: b.Release}
	})}
}

func (g *RenderGraph) UnbindAccelerationStructure(n AccelerationStructureNode) *AccelerationStructureBinding {
	return g.unbind(n, kindAccel).owner.(*AccelerationStructureBinding)
}

// BindSwapchainImage attaches a swapchain image. The graph never destroys
// it; Resolver.UnbindSwapchainImage hands it back for presentation.
func (g *RenderGraph) BindSwapchainImage(image *driver.SwapchainImage) SwapchainImageNode {
	return SwapchainImageNode{g.bind(image, func() *entry {
		return &entry{kind: kindSwapchainImage, image: image.Image, swapchain: image, release: func() {}}
	})}
}

func (g *RenderGraph) BindImageLease(l *pool.Lease[*driver.Image]) ImageLeaseNode {
	return ImageLeaseNode{g.bind(l, func() *entry {
		l.Retain()
		return &entry{kind: kindImageLease, image: l.Item(), release: l.Release}
	})}
}

func (g *RenderGraph) UnbindImageLease(n ImageLeaseNode) *pool.Lease[*driver.Image] {
	return g.unbind(n, kindImageLease).owner.(*pool.Lease[*driver.Image])
}

func (g *RenderGraph) BindBufferLease(l *pool.Lease[*driver.Buffer]) BufferLeaseNode {
	return BufferLeaseNode{g.bind(l, func() *entry {
		l.Retain()
		return &entry{kind: kindBufferLease, buffer: l.Item(), release: l.Release}
	})}
}

func (g *RenderGraph) UnbindBufferLease(n BufferLeaseNode) *pool.Lease[*driver.Buffer] {
	return g.unbind(n, kindBufferLease).owner.(*pool.Lease[*driver.Buffer])
}

func (g *RenderGraph) BindAccelerationStructureLease(l *pool.Lease[*driver.AccelerationStructure]) AccelerationStructureLeaseNode {
	return AccelerationStructureLeaseNode{g.bind(l, func() *entry {
		l.Retain()
		return &entry{kind: kindAccelLease, accel: l.Item(), release: l.Release}
	})}
}

func (g *RenderGraph) UnbindAccelerationStructureLease(n AccelerationStructureLeaseNode) *pool.Lease[*driver.AccelerationStructure] {
	return g.unbind(n, kindAccelLease).owner.(*pool.Lease[*driver.AccelerationStructure])
}

// ImageInfo describes the image behind an image, image lease or swapchain
// image node.
func (g *RenderGraph) ImageInfo(n AnyNode) driver.ImageInfo {
	g.checkLive()
	e := g.entry(n)
	e.expect(kindImage, kindImageLease, kindSwapchainImage)
	return e.image.Info()
}

// BufferInfo describes the buffer behind a buffer or buffer lease node.
func (g *RenderGraph) BufferInfo(n AnyNode) driver.BufferInfo {
	g.checkLive()
	e := g.entry(n)
	e.expect(kindBuffer, kindBufferLease)
	return e.buffer.Info()
}

// BeginPass starts a new pass. Passes run in the order they are begun.
func (g *RenderGraph) BeginPass(name string) *PassRef {
	g.checkLive()
	p := &pass{name: name}
	g.passes = append(g.passes, p)
	return &PassRef{graph: g, pass: p}
}

// Discard abandons an unresolved graph. Its resources are detached, their
// retentions released and no access is written back. Discarding a resolved
// or discarded graph does nothing.
func (g *RenderGraph) Discard() {
	if g.resolved {
		return
	}
	g.resolved = true
	for _, e := range g.entries {
		attached.CompareAndDelete(e.owner, g)
		e.release()
	}
}

// Resolve plans the barriers between passes and returns the resolver that
// records them. The graph is consumed.
//
// Each resource starts from the access it was left in by earlier graphs.
// A barrier is planned before an access whenever NeedsBarrier says so, and
// the final access of every node is written back to its resource.
func (g *RenderGraph) Resolve() *Resolver {
	g.checkLive()
	g.resolved = true

	for _, e := range g.entries {
		attached.CompareAndDelete(e.owner, g)
		e.first = driver.Nothing
		e.last = e.resource().Access()
	}

	for pi, p := range g.passes {
		for _, ex := range p.execs {
			for _, a := range ex.accesses {
				e := g.entries[a.idx]
				if driver.NeedsBarrier(e.last, a.access, e.isImage()) {
					ex.barriers = append(ex.barriers, e.barrier(e.last, a.access))
				}
				if e.firstPass < 0 {
					e.firstPass = pi
					e.first = a.access
				}
				e.last = a.access
			}
		}
	}

	for _, e := range g.entries {
		if e.firstPass >= 0 {
			e.resource().SetAccess(e.last)
		}
	}

	return &Resolver{
		graph:   g.id,
		entries: g.entries,
		passes:  g.passes,
	}
}
