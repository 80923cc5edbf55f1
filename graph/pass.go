package graph

import (
	"fmt"

	"github.com/celer/vkgraph/driver"
)

type nodeAccess struct {
	idx    int
	access driver.AccessType
}

// Descriptor names one array element of one binding of one descriptor set.
type Descriptor struct {
	Set          uint32
	Binding      uint32
	ArrayElement uint32
}

type descriptorAccess struct {
	Descriptor
	idx    int
	access driver.AccessType
}

type pushConstant struct {
	offset uint32
	data   []byte
}

// pipelineState is what recording needs from any pipeline.
type pipelineState interface {
	BindPoint() driver.PipelineBindPoint
	Handle() driver.Handle
	Layout() driver.Handle
	DescriptorSetLayout(set uint32) *driver.DescriptorSetLayout
	PushConstantStages() driver.ShaderStageFlags
}

// attachment is an image node a graphic pipeline renders into.
type attachment struct {
	idx   int
	load  driver.AttachmentLoadOp
	clear driver.ClearValue
}

// execution is one recorded callback of a pass and everything it declared.
type execution struct {
	accesses      []nodeAccess
	pipeline      pipelineState
	descriptors   []descriptorAccess
	pushConstants []pushConstant
	colors        []attachment
	depth         *attachment
	record        func(*Recording)

	barriers []driver.Barrier
}

func (ex *execution) accessOf(idx int) (driver.AccessType, bool) {
	for i := len(ex.accesses) - 1; i >= 0; i-- {
		if ex.accesses[i].idx == idx {
			return ex.accesses[i].access, true
		}
	}
	return driver.Nothing, false
}

type pass struct {
	name  string
	execs []*execution
}

// current returns the execution being declared, starting a new one after a
// recorded callback.
func (p *pass) current() *execution {
	if n := len(p.execs); n > 0 && p.execs[n-1].record == nil {
		return p.execs[n-1]
	}
	ex := &execution{}
	p.execs = append(p.execs, ex)
	return ex
}

func (p *pass) accesses(idx int) bool {
	for _, ex := range p.execs {
		if _, ok := ex.accessOf(idx); ok {
			return true
		}
	}
	return false
}

// PassRef declares the node accesses and recorded work of one pass.
type PassRef struct {
	graph *RenderGraph
	pass  *pass
}

func (p *PassRef) addAccess(n AnyNode, access driver.AccessType) int {
	p.graph.checkLive()
	if access == driver.Nothing {
		panic("graph: access of nothing")
	}
	p.graph.entry(n)
	idx := n.ref().idx
	ex := p.pass.current()
	if prev, ok := ex.accessOf(idx); ok && prev == access {
		return idx
	}
	ex.accesses = append(ex.accesses, nodeAccess{idx: idx, access: access})
	return idx
}

// AccessNode declares that the pass accesses n as access.
func (p *PassRef) AccessNode(n AnyNode, access driver.AccessType) *PassRef {
	p.addAccess(n, access)
	return p
}

// ReadNode declares a shader read of n from any stage.
func (p *PassRef) ReadNode(n AnyNode) *PassRef {
	return p.AccessNode(n, driver.AnyShaderReadOther)
}

// WriteNode declares a shader write of n from any stage.
func (p *PassRef) WriteNode(n AnyNode) *PassRef {
	return p.AccessNode(n, driver.AnyShaderWrite)
}

// Record adds work to the pass. Accesses declared after Record belong to
// the next piece of work.
func (p *PassRef) Record(fn func(*Recording)) *PassRef {
	p.graph.checkLive()
	p.pass.current().record = fn
	return p
}

// End finishes the pass.
func (p *PassRef) End() *RenderGraph {
	p.graph.checkLive()
	return p.graph
}

// Pipeline is the closed set of pipeline kinds a pass can be bound to.
type Pipeline interface {
	*driver.ComputePipeline | *driver.GraphicPipeline | *driver.RayTracePipeline
	pipelineState
}

// PipelinePassRef is a pass bound to a pipeline. It can also declare
// descriptors and push constants.
type PipelinePassRef[P Pipeline] struct {
	*PassRef
	pipeline P
}

// BindPipeline binds pipeline to the work the pass records next.
func BindPipeline[P Pipeline](pass *PassRef, pipeline P) *PipelinePassRef[P] {
	pass.graph.checkLive()
	ex := pass.pass.current()
	if ex.pipeline != nil {
		panic("graph: pipeline already bound to this work")
	}
	ex.pipeline = pipeline
	return &PipelinePassRef[P]{PassRef: pass, pipeline: pipeline}
}

func (p *PipelinePassRef[P]) Pipeline() P {
	return p.pipeline
}

// AccessDescriptor binds n to descriptor d and declares access to it.
func (p *PipelinePassRef[P]) AccessDescriptor(d Descriptor, n AnyNode, access driver.AccessType) *PipelinePassRef[P] {
	idx := p.addAccess(n, access)
	ex := p.pass.current()
	if ex.pipeline == nil {
		ex.pipeline = p.pipeline
	}
	ex.descriptors = append(ex.descriptors, descriptorAccess{Descriptor: d, idx: idx, access: access})
	return p
}

// ReadDescriptor binds n to d as a shader read. The access type follows the
// descriptor type declared by the set layout and the pipeline's stages.
func (p *PipelinePassRef[P]) ReadDescriptor(d Descriptor, n AnyNode) *PipelinePassRef[P] {
	return p.AccessDescriptor(d, n, readAccess(p.pipeline.BindPoint(), p.descriptorType(d)))
}

// WriteDescriptor binds n to d as a shader write.
func (p *PipelinePassRef[P]) WriteDescriptor(d Descriptor, n AnyNode) *PipelinePassRef[P] {
	return p.AccessDescriptor(d, n, writeAccess(p.pipeline.BindPoint()))
}

func (p *PipelinePassRef[P]) descriptorType(d Descriptor) driver.DescriptorType {
	layout := p.pipeline.DescriptorSetLayout(d.Set)
	if layout == nil {
		panic(fmt.Sprintf("graph: pipeline has no descriptor set %d", d.Set))
	}
	b, ok := layout.Info().Binding(d.Binding)
	if !ok {
		panic(fmt.Sprintf("graph: descriptor set %d has no binding %d", d.Set, d.Binding))
	}
	return b.Type
}

// PushConstants sets push constant data for the work recorded next.
func (p *PipelinePassRef[P]) PushConstants(offset uint32, data []byte) *PipelinePassRef[P] {
	p.graph.checkLive()
	ex := p.pass.current()
	if ex.pipeline == nil {
		ex.pipeline = p.pipeline
	}
	ex.pushConstants = append(ex.pushConstants, pushConstant{offset: offset, data: append([]byte(nil), data...)})
	return p
}

// AccessNode declares an access of n that is not bound to a descriptor.
func (p *PipelinePassRef[P]) AccessNode(n AnyNode, access driver.AccessType) *PipelinePassRef[P] {
	p.PassRef.AccessNode(n, access)
	return p
}

// AttachColor renders into n as color attachment location, keeping its
// contents. Attachments need a graphic pipeline.
func (p *PipelinePassRef[P]) AttachColor(location uint32, n AnyNode) *PipelinePassRef[P] {
	p.attachColor(location, n, driver.ColorAttachmentReadWrite, attachment{load: driver.AttachmentLoadOpLoad})
	return p
}

// ClearColor renders into n as color attachment location after clearing it
// to color.
func (p *PipelinePassRef[P]) ClearColor(location uint32, n AnyNode, color [4]float32) *PipelinePassRef[P] {
	p.attachColor(location, n, driver.ColorAttachmentWrite,
		attachment{load: driver.AttachmentLoadOpClear, clear: driver.ClearValue{Color: color}})
	return p
}

// AttachDepthStencil uses n as the depth stencil attachment, keeping its
// contents.
func (p *PipelinePassRef[P]) AttachDepthStencil(n AnyNode) *PipelinePassRef[P] {
	p.attachDepth(n, attachment{load: driver.AttachmentLoadOpLoad})
	return p
}

// ClearDepthStencil uses n as the depth stencil attachment after clearing
// it.
func (p *PipelinePassRef[P]) ClearDepthStencil(n AnyNode, depth float32, stencil uint32) *PipelinePassRef[P] {
	p.attachDepth(n, attachment{load: driver.AttachmentLoadOpClear, clear: driver.ClearValue{Depth: depth, Stencil: stencil}})
	return p
}

func (p *PipelinePassRef[P]) attachColor(location uint32, n AnyNode, access driver.AccessType, a attachment) {
	if location >= driver.MaxColorAttachments {
		panic(fmt.Sprintf("graph: color attachment %d out of range", location))
	}
	ex := p.graphicExecution()
	a.idx = p.addAccess(n, access)
	for uint32(len(ex.colors)) <= location {
		ex.colors = append(ex.colors, attachment{idx: -1})
	}
	ex.colors[location] = a
}

func (p *PipelinePassRef[P]) attachDepth(n AnyNode, a attachment) {
	ex := p.graphicExecution()
	a.idx = p.addAccess(n, driver.DepthStencilAttachmentWrite)
	ex.depth = &a
}

func (p *PipelinePassRef[P]) graphicExecution() *execution {
	p.graph.checkLive()
	if p.pipeline.BindPoint() != driver.PipelineBindPointGraphics {
		panic("graph: attachments need a graphic pipeline")
	}
	ex := p.pass.current()
	if ex.pipeline == nil {
		ex.pipeline = p.pipeline
	}
	return ex
}

// Record adds work to the pass with the pipeline bound. Work declared after
// Record binds the pipeline again. Graphic work runs inside a render pass
// over its attachments.
func (p *PipelinePassRef[P]) Record(fn func(*Recording)) *PipelinePassRef[P] {
	p.graph.checkLive()
	ex := p.pass.current()
	if ex.pipeline == nil {
		ex.pipeline = p.pipeline
	}
	ex.record = fn
	return p
}

func readAccess(bindPoint driver.PipelineBindPoint, t driver.DescriptorType) driver.AccessType {
	sampled := t == driver.DescriptorTypeCombinedImageSampler ||
		t == driver.DescriptorTypeSampledImage ||
		t == driver.DescriptorTypeUniformTexelBuffer
	uniform := t == driver.DescriptorTypeUniformBuffer || t == driver.DescriptorTypeUniformBufferDynamic

	switch bindPoint {
	case driver.PipelineBindPointCompute:
		switch {
		case sampled:
			return driver.ComputeShaderReadSampledImageOrUniformTexelBuffer
		case uniform:
			return driver.ComputeShaderReadUniformBuffer
		}
		return driver.ComputeShaderReadOther
	case driver.PipelineBindPointRayTracing:
		switch {
		case t == driver.DescriptorTypeAccelerationStructure:
			return driver.RayTracingShaderReadAccelerationStructure
		case sampled:
			return driver.RayTracingShaderReadSampledImageOrUniformTexelBuffer
		}
		return driver.RayTracingShaderReadOther
	}
	switch {
	case sampled:
		return driver.AnyShaderReadSampledImageOrUniformTexelBuffer
	case uniform:
		return driver.AnyShaderReadUniformBuffer
	case t == driver.DescriptorTypeInputAttachment:
		return driver.FragmentShaderReadColorInputAttachment
	}
	return driver.AnyShaderReadOther
}

func writeAccess(bindPoint driver.PipelineBindPoint) driver.AccessType {
	switch bindPoint {
	case driver.PipelineBindPointCompute:
		return driver.ComputeShaderWrite
	case driver.PipelineBindPointRayTracing:
		return driver.RayTracingShaderWrite
	}
	return driver.AnyShaderWrite
}
