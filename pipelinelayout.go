package vkg

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/celer/vkgraph/driver"
)

// createPipelineLayout creates a layout over setLayouts with one push
// constant range of pushSize bytes visible to stages, if pushSize is set.
func (d *Device) createPipelineLayout(setLayouts []*driver.DescriptorSetLayout, stages driver.ShaderStageFlags, pushSize uint32) (driver.Handle, error) {
	l := make([]vk.DescriptorSetLayout, len(setLayouts))
	for i, dsl := range setLayouts {
		l[i] = d.setLayouts.must(dsl.Handle())
	}

	createInfo := vk.PipelineLayoutCreateInfo{
		SType:          vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: uint32(len(l)),
		PSetLayouts:    l,
	}
	if pushSize > 0 {
		createInfo.PushConstantRangeCount = 1
		createInfo.PPushConstantRanges = []vk.PushConstantRange{{
			StageFlags: vk.ShaderStageFlags(stages),
			Size:       pushSize,
		}}
	}

	var pipelineLayout vk.PipelineLayout
	if err := check(vk.CreatePipelineLayout(d.VKDevice, &createInfo, nil, &pipelineLayout), "create pipeline layout"); err != nil {
		return 0, err
	}
	return d.pipeLayouts.add(d.handle(), pipelineLayout), nil
}

func (d *Device) DestroyPipelineLayout(layout driver.Handle) {
	if l, ok := d.pipeLayouts.remove(layout); ok {
		vk.DestroyPipelineLayout(d.VKDevice, l, nil)
	}
}
