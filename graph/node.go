package graph

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/celer/vkgraph/driver"
)

type nodeKind int

const (
	kindImage nodeKind = iota
	kindBuffer
	kindAccel
	kindSwapchainImage
	kindImageLease
	kindBufferLease
	kindAccelLease
)

func (k nodeKind) String() string {
	switch k {
	case kindImage:
		return "image"
	case kindBuffer:
		return "buffer"
	case kindAccel:
		return "acceleration structure"
	case kindSwapchainImage:
		return "swapchain image"
	case kindImageLease:
		return "image lease"
	case kindBufferLease:
		return "buffer lease"
	case kindAccelLease:
		return "acceleration structure lease"
	}
	return "unknown"
}

// nodeRef names entry idx of the graph with the given id.
type nodeRef struct {
	graph uuid.UUID
	idx   int
}

func (n nodeRef) ref() nodeRef {
	return n
}

// AnyNode is implemented by every node type of this package.
type AnyNode interface {
	ref() nodeRef
}

// ImageNode is an ImageBinding attached to a graph.
type ImageNode struct{ nodeRef }

// BufferNode is a BufferBinding attached to a graph.
type BufferNode struct{ nodeRef }

// AccelerationStructureNode is an AccelerationStructureBinding attached to a
// graph.
type AccelerationStructureNode struct{ nodeRef }

// SwapchainImageNode is a swapchain image attached to a graph.
type SwapchainImageNode struct{ nodeRef }

// ImageLeaseNode is a leased image attached to a graph.
type ImageLeaseNode struct{ nodeRef }

// BufferLeaseNode is a leased buffer attached to a graph.
type BufferLeaseNode struct{ nodeRef }

// AccelerationStructureLeaseNode is a leased acceleration structure attached
// to a graph.
type AccelerationStructureLeaseNode struct{ nodeRef }

// entry is one slot of a graph's binding arena.
type entry struct {
	kind  nodeKind
	owner any

	image     *driver.Image
	buffer    *driver.Buffer
	accel     *driver.AccelerationStructure
	swapchain *driver.SwapchainImage

	// release drops the retention taken when the entry was bound.
	release func()

	// Planned at resolve.
	first     driver.AccessType
	last      driver.AccessType
	firstPass int
}

func (e *entry) resource() driver.Resource {
	switch {
	case e.image != nil:
		return e.image
	case e.buffer != nil:
		return e.buffer
	default:
		return e.accel
	}
}

func (e *entry) isImage() bool {
	return e.image != nil
}

func (e *entry) barrier(prev, next driver.AccessType) driver.Barrier {
	b := driver.Barrier{Prev: prev, Next: next}
	switch {
	case e.image != nil:
		b.Image = e.image.Handle()
		b.Subresource = e.image.Info().Subresource()
	case e.buffer != nil:
		b.Buffer = e.buffer.Handle()
	}
	return b
}

func (e *entry) expect(kinds ...nodeKind) {
	for _, k := range kinds {
		if e.kind == k {
			return
		}
	}
	panic(fmt.Sprintf("graph: node is a %s", e.kind))
}
