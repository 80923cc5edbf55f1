package vkg

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/celer/vkgraph/driver"
)

// descriptorSet remembers the pool a set came from so destroying the pool
// can drop its handles.
type descriptorSet struct {
	VKDescriptorSet vk.DescriptorSet
	pool            driver.Handle
}

// AllocateDescriptorSet allocates one set with layout from pool.
func (d *Device) AllocateDescriptorSet(pool, layout driver.Handle) (driver.Handle, error) {
	allocateInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     d.descPools.must(pool),
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{d.setLayouts.must(layout)},
	}

	var set vk.DescriptorSet
	if err := check(vk.AllocateDescriptorSets(d.VKDevice, &allocateInfo, &set), "allocate descriptor set"); err != nil {
		return 0, err
	}
	return d.descSets.add(d.handle(), descriptorSet{VKDescriptorSet: set, pool: pool}), nil
}

// UpdateDescriptorSet writes image, buffer and acceleration structure
// descriptors into set.
func (d *Device) UpdateDescriptorSet(set driver.Handle, writes []driver.DescriptorWrite) {
	if len(writes) == 0 {
		return
	}
	dst := d.descSets.must(set).VKDescriptorSet

	vkWrites := make([]vk.WriteDescriptorSet, 0, len(writes))
	for _, w := range writes {
		write := vk.WriteDescriptorSet{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          dst,
			DstBinding:      w.Binding,
			DstArrayElement: w.ArrayElement,
			DescriptorCount: 1,
			DescriptorType:  vk.DescriptorType(w.Type),
		}
		switch {
		case w.Type.IsImage():
			write.PImageInfo = []vk.DescriptorImageInfo{{
				ImageView:   d.imageViews.must(w.ImageView),
				ImageLayout: vk.ImageLayout(w.ImageLayout),
			}}
		case w.Type.IsBuffer():
			write.PBufferInfo = []vk.DescriptorBufferInfo{{
				Buffer: d.buffers.must(w.Buffer).VKBuffer,
				Offset: vk.DeviceSize(w.Offset),
				Range:  vk.DeviceSize(w.Range),
			}}
		default:
			d.logger.Warn("skipping unsupported descriptor write", "type", w.Type, "binding", w.Binding)
			continue
		}
		vkWrites = append(vkWrites, write)
	}
	vk.UpdateDescriptorSets(d.VKDevice, uint32(len(vkWrites)), vkWrites, 0, nil)
}

func (d *Device) forgetSets(pool driver.Handle) {
	d.descSets.removeIf(func(s descriptorSet) bool { return s.pool == pool })
}
