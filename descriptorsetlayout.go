package vkg

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/celer/vkgraph/driver"
)

func (d *Device) CreateDescriptorSetLayout(info driver.DescriptorSetLayoutInfo) (driver.Handle, error) {
	bindings := make([]vk.DescriptorSetLayoutBinding, len(info.Bindings))
	for i, b := range info.Bindings {
		bindings[i] = vk.DescriptorSetLayoutBinding{
			Binding:         b.Binding,
			DescriptorType:  vk.DescriptorType(b.Type),
			DescriptorCount: max(b.Count, 1),
			StageFlags:      vk.ShaderStageFlags(b.Stages),
		}
	}

	createInfo := &vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}

	var layout vk.DescriptorSetLayout
	if err := check(vk.CreateDescriptorSetLayout(d.VKDevice, createInfo, nil, &layout), "create descriptor set layout"); err != nil {
		return 0, err
	}
	return d.setLayouts.add(d.handle(), layout), nil
}

func (d *Device) DestroyDescriptorSetLayout(layout driver.Handle) {
	if l, ok := d.setLayouts.remove(layout); ok {
		vk.DestroyDescriptorSetLayout(d.VKDevice, l, nil)
	}
}
