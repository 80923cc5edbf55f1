package vkg

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/celer/vkgraph/driver"
)

// ComputePipelineInfo describes a compute shader and its resource interface.
type ComputePipelineInfo struct {
	Name string

	// SPIRV is the compiled shader.
	SPIRV []byte

	// EntryPoint defaults to "main".
	EntryPoint string

	// SetLayouts describes descriptor set i at index i. The pipeline takes
	// ownership of them.
	SetLayouts []driver.DescriptorSetLayoutInfo

	// PushConstantSize is the size in bytes of the push constant block.
	PushConstantSize uint32
}

// CreateComputePipeline compiles a compute pipeline. Destroying the result
// destroys its layout and set layouts too.
func (d *Device) CreateComputePipeline(info ComputePipelineInfo) (*driver.ComputePipeline, error) {
	entry := info.EntryPoint
	if entry == "" {
		entry = "main"
	}

	module, err := d.CreateShaderModule(info.SPIRV)
	if err != nil {
		return nil, err
	}
	defer module.Destroy()

	setLayouts := make([]*driver.DescriptorSetLayout, 0, len(info.SetLayouts))
	cleanup := func() {
		for _, l := range setLayouts {
			l.Destroy()
		}
	}
	for _, li := range info.SetLayouts {
		l, err := driver.NewDescriptorSetLayout(d, li)
		if err != nil {
			cleanup()
			return nil, err
		}
		setLayouts = append(setLayouts, l)
	}

	var pushStages driver.ShaderStageFlags
	if info.PushConstantSize > 0 {
		pushStages = driver.ShaderStageCompute
	}
	layout, err := d.createPipelineLayout(setLayouts, pushStages, info.PushConstantSize)
	if err != nil {
		cleanup()
		return nil, err
	}

	createInfo := []vk.ComputePipelineCreateInfo{{
		SType:  vk.StructureTypeComputePipelineCreateInfo,
		Stage:  module.VKPipelineShaderStageCreateInfo(vk.ShaderStageComputeBit, entry),
		Layout: d.pipeLayouts.must(layout),
	}}
	pipelines := make([]vk.Pipeline, 1)
	res := vk.CreateComputePipelines(d.VKDevice, vk.NullPipelineCache, 1, createInfo, nil, pipelines)
	if err := check(res, "create compute pipeline"); err != nil {
		d.DestroyPipelineLayout(layout)
		cleanup()
		return nil, err
	}

	return driver.NewComputePipeline(d, driver.PipelineInfo{
		Name:               info.Name,
		Pipeline:           d.pipelines.add(d.handle(), pipelines[0]),
		Layout:             layout,
		SetLayouts:         setLayouts,
		PushConstantStages: pushStages,
	}), nil
}

func (d *Device) DestroyPipeline(pipeline driver.Handle) {
	if p, ok := d.pipelines.remove(pipeline); ok {
		vk.DestroyPipeline(d.VKDevice, p, nil)
	}
}
