package graph

import (
	"sync/atomic"

	"github.com/celer/vkgraph/driver"
)

type resource interface {
	driver.Resource
	Destroy()
}

// binding is a reference counted owner of one device resource. The
// resource is destroyed when the last holder releases it.
type binding[T resource] struct {
	item T
	refs atomic.Int32
}

func (b *binding[T]) init(item T) {
	b.item = item
	b.refs.Store(1)
}

// Retain adds a holder.
func (b *binding[T]) Retain() {
	if b.refs.Add(1) <= 1 {
		panic("graph: retain of destroyed binding")
	}
}

// Release drops a holder, destroying the resource after the last one.
func (b *binding[T]) Release() {
	switch n := b.refs.Add(-1); {
	case n == 0:
		b.item.Destroy()
	case n < 0:
		panic("graph: binding released too many times")
	}
}

// ImageBinding owns an image outside of any graph.
type ImageBinding struct {
	binding[*driver.Image]
}

func NewImageBinding(image *driver.Image) *ImageBinding {
	b := &ImageBinding{}
	b.init(image)
	return b
}

// NewImage creates an image and returns its binding.
func NewImage(device driver.Device, info driver.ImageInfo) (*ImageBinding, error) {
	image, err := driver.NewImage(device, info)
	if err != nil {
		return nil, err
	}
	return NewImageBinding(image), nil
}

func (b *ImageBinding) Image() *driver.Image {
	return b.item
}

// BufferBinding owns a buffer outside of any graph.
type BufferBinding struct {
	binding[*driver.Buffer]
}

func NewBufferBinding(buffer *driver.Buffer) *BufferBinding {
	b := &BufferBinding{}
	b.init(buffer)
	return b
}

func NewBuffer(device driver.Device, info driver.BufferInfo) (*BufferBinding, error) {
	buffer, err := driver.NewBuffer(device, info)
	if err != nil {
		return nil, err
	}
	return NewBufferBinding(buffer), nil
}

func (b *BufferBinding) Buffer() *driver.Buffer {
	return b.item
}

// AccelerationStructureBinding owns an acceleration structure outside of any
// graph.
type AccelerationStructureBinding struct {
	binding[*driver.AccelerationStructure]
}

func NewAccelerationStructureBinding(accel *driver.AccelerationStructure) *AccelerationStructureBinding {
	b := &AccelerationStructureBinding{}
	b.init(accel)
	return b
}

func (b *AccelerationStructureBinding) AccelerationStructure() *driver.AccelerationStructure {
	return b.item
}
