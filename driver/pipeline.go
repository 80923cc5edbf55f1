package driver

// pipeline is the state shared by every kind of pipeline. Pipeline creation
// belongs to the device implementation; the graph only needs the handles,
// the set layouts and the push constant stages.
type pipeline struct {
	Name string

	device     Device
	handle     Handle
	layout     Handle
	setLayouts []*DescriptorSetLayout
	pushStages ShaderStageFlags
}

// PipelineInfo collects what a device implementation created for a
// pipeline.
type PipelineInfo struct {
	Name               string
	Pipeline           Handle
	Layout             Handle
	SetLayouts         []*DescriptorSetLayout
	PushConstantStages ShaderStageFlags
}

func newPipeline(device Device, info PipelineInfo) pipeline {
	return pipeline{
		Name:       info.Name,
		device:     device,
		handle:     info.Pipeline,
		layout:     info.Layout,
		setLayouts: info.SetLayouts,
		pushStages: info.PushConstantStages,
	}
}

func (p *pipeline) Handle() Handle {
	return p.handle
}

// Layout is the pipeline layout handle.
func (p *pipeline) Layout() Handle {
	return p.layout
}

// DescriptorSetLayout returns the layout of descriptor set index set, or nil.
func (p *pipeline) DescriptorSetLayout(set uint32) *DescriptorSetLayout {
	if int(set) >= len(p.setLayouts) {
		return nil
	}
	return p.setLayouts[set]
}

func (p *pipeline) PushConstantStages() ShaderStageFlags {
	return p.pushStages
}

// Destroy destroys the pipeline, its layout and its set layouts.
func (p *pipeline) Destroy() {
	if p.handle == 0 {
		return
	}
	p.device.DestroyPipeline(p.handle)
	p.device.DestroyPipelineLayout(p.layout)
	for _, l := range p.setLayouts {
		l.Destroy()
	}
	p.handle = 0
}

type ComputePipeline struct {
	pipeline
}

func NewComputePipeline(device Device, info PipelineInfo) *ComputePipeline {
	return &ComputePipeline{newPipeline(device, info)}
}

func (*ComputePipeline) BindPoint() PipelineBindPoint {
	return PipelineBindPointCompute
}

type GraphicPipeline struct {
	pipeline
}

func NewGraphicPipeline(device Device, info PipelineInfo) *GraphicPipeline {
	return &GraphicPipeline{newPipeline(device, info)}
}

func (*GraphicPipeline) BindPoint() PipelineBindPoint {
	return PipelineBindPointGraphics
}

type RayTracePipeline struct {
	pipeline
}

func NewRayTracePipeline(device Device, info PipelineInfo) *RayTracePipeline {
	return &RayTracePipeline{newPipeline(device, info)}
}

func (*RayTracePipeline) BindPoint() PipelineBindPoint {
	return PipelineBindPointRayTracing
}
