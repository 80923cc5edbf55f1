package driver

import "fmt"

// DescriptorSetLayout describes the bindings of one descriptor set.
type DescriptorSetLayout struct {
	device Device
	handle Handle
	info   DescriptorSetLayoutInfo
}

func NewDescriptorSetLayout(device Device, info DescriptorSetLayoutInfo) (*DescriptorSetLayout, error) {
	handle, err := device.CreateDescriptorSetLayout(info)
	if err != nil {
		return nil, fmt.Errorf("create descriptor set layout: %w", err)
	}
	return &DescriptorSetLayout{device: device, handle: handle, info: info}, nil
}

func (l *DescriptorSetLayout) Handle() Handle {
	return l.handle
}

func (l *DescriptorSetLayout) Info() DescriptorSetLayoutInfo {
	return l.info
}

func (l *DescriptorSetLayout) Destroy() {
	if l.handle != 0 {
		l.device.DestroyDescriptorSetLayout(l.handle)
		l.handle = 0
	}
}

// DescriptorPool allocates descriptor sets.
type DescriptorPool struct {
	device Device
	handle Handle
	info   DescriptorPoolInfo
}

func NewDescriptorPool(device Device, info DescriptorPoolInfo) (*DescriptorPool, error) {
	handle, err := device.CreateDescriptorPool(info)
	if err != nil {
		return nil, fmt.Errorf("create descriptor pool: %w", err)
	}
	return &DescriptorPool{device: device, handle: handle, info: info}, nil
}

func (p *DescriptorPool) Handle() Handle {
	return p.handle
}

func (p *DescriptorPool) Info() DescriptorPoolInfo {
	return p.info
}

// AllocateDescriptorSet allocates one set of the given layout. The set lives
// as long as the pool.
func (p *DescriptorPool) AllocateDescriptorSet(layout *DescriptorSetLayout) (*DescriptorSet, error) {
	handle, err := p.device.AllocateDescriptorSet(p.handle, layout.handle)
	if err != nil {
		return nil, fmt.Errorf("allocate descriptor set: %w", err)
	}
	return &DescriptorSet{device: p.device, handle: handle, pool: p, layout: layout}, nil
}

// Destroy destroys the pool and every set allocated from it.
func (p *DescriptorPool) Destroy() {
	if p.handle != 0 {
		p.device.DestroyDescriptorPool(p.handle)
		p.handle = 0
	}
}

// DescriptorSet is a set allocated from a DescriptorPool.
type DescriptorSet struct {
	device Device
	handle Handle
	pool   *DescriptorPool
	layout *DescriptorSetLayout
}

func (s *DescriptorSet) Handle() Handle {
	return s.handle
}

func (s *DescriptorSet) Pool() *DescriptorPool {
	return s.pool
}

func (s *DescriptorSet) Layout() *DescriptorSetLayout {
	return s.layout
}

// Update writes descriptors into the set.
func (s *DescriptorSet) Update(writes []DescriptorWrite) {
	if len(writes) == 0 {
		return
	}
	s.device.UpdateDescriptorSet(s.handle, writes)
}
