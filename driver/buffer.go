package driver

import (
	"fmt"
	"sync"
)

// Buffer is a device buffer and the access it was last used with.
type Buffer struct {
	Name string

	device Device
	handle Handle
	info   BufferInfo

	mu     sync.Mutex
	access AccessType
}

// NewBuffer creates a buffer.
func NewBuffer(device Device, info BufferInfo) (*Buffer, error) {
	handle, err := device.CreateBuffer(info)
	if err != nil {
		return nil, fmt.Errorf("create buffer: %w", err)
	}
	return &Buffer{device: device, handle: handle, info: info}, nil
}

func (b *Buffer) Handle() Handle {
	return b.handle
}

func (b *Buffer) Info() BufferInfo {
	return b.info
}

func (b *Buffer) Access() AccessType {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.access
}

// SetAccess records next as the current access and returns the previous one.
func (b *Buffer) SetAccess(next AccessType) AccessType {
	b.mu.Lock()
	defer b.mu.Unlock()
	prev := b.access
	b.access = next
	return prev
}

func (b *Buffer) Destroy() {
	if b.handle != 0 {
		b.device.DestroyBuffer(b.handle)
		b.handle = 0
	}
}

// AccelerationStructure is a ray tracing acceleration structure.
type AccelerationStructure struct {
	Name string

	device Device
	handle Handle
	info   AccelerationStructureInfo

	mu     sync.Mutex
	access AccessType
}

func NewAccelerationStructure(device Device, info AccelerationStructureInfo) (*AccelerationStructure, error) {
	handle, err := device.CreateAccelerationStructure(info)
	if err != nil {
		return nil, fmt.Errorf("create acceleration structure: %w", err)
	}
	return &AccelerationStructure{device: device, handle: handle, info: info}, nil
}

func (a *AccelerationStructure) Handle() Handle {
	return a.handle
}

func (a *AccelerationStructure) Info() AccelerationStructureInfo {
	return a.info
}

func (a *AccelerationStructure) Access() AccessType {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.access
}

func (a *AccelerationStructure) SetAccess(next AccessType) AccessType {
	a.mu.Lock()
	defer a.mu.Unlock()
	prev := a.access
	a.access = next
	return prev
}

func (a *AccelerationStructure) Destroy() {
	if a.handle != 0 {
		a.device.DestroyAccelerationStructure(a.handle)
		a.handle = 0
	}
}

// Resource is the access tracking shared by images, buffers and
// acceleration structures.
type Resource interface {
	Access() AccessType
	SetAccess(next AccessType) AccessType
}

var (
	_ Resource = (*Image)(nil)
	_ Resource = (*Buffer)(nil)
	_ Resource = (*AccelerationStructure)(nil)
)
