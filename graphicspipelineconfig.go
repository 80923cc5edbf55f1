package vkg

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/celer/vkgraph/driver"
)

// GraphicPipelineInfo describes a vertex and fragment shader pair and the
// fixed function state they draw with. Start from NewGraphicPipelineInfo,
// which fills in the defaults.
type GraphicPipelineInfo struct {
	Name string

	VertexSPIRV   []byte
	FragmentSPIRV []byte

	// VertexEntryPoint and FragmentEntryPoint default to "main".
	VertexEntryPoint   string
	FragmentEntryPoint string

	// SetLayouts describes descriptor set i at index i. The pipeline takes
	// ownership of them.
	SetLayouts []driver.DescriptorSetLayoutInfo

	// PushConstantSize is the size in bytes of the push constant block,
	// visible to both stages.
	PushConstantSize uint32

	// ColorFormats lists the formats of the color attachments in location
	// order. DepthFormat is FormatUndefined when there is no depth attachment.
	ColorFormats []driver.Format
	DepthFormat  driver.Format

	// Samples defaults to 1.
	Samples uint32

	// PrimitiveTopology defaults to vk.PrimitiveTopologyTriangleList.
	PrimitiveTopology vk.PrimitiveTopology

	// PolygonMode defaults to vk.PolygonModeFill.
	PolygonMode vk.PolygonMode

	// LineWidth defaults to 1.
	LineWidth float32

	// CullMode defaults to vk.CullModeBackBit. TwoSided disables culling.
	CullMode vk.CullModeFlagBits
	TwoSided bool

	// FrontFace defaults to vk.FrontFaceCounterClockwise.
	FrontFace vk.FrontFace

	// DepthTestEnable and DepthWriteEnable default to true and only apply
	// with a depth attachment.
	DepthTestEnable  bool
	DepthWriteEnable bool

	// DepthCompareOp defaults to vk.CompareOpLess.
	DepthCompareOp vk.CompareOp

	// BlendAttachments has one entry per color attachment. When empty every
	// attachment writes RGBA without blending.
	BlendAttachments []vk.PipelineColorBlendAttachmentState

	VertexInputBindingDescriptions   []vk.VertexInputBindingDescription
	VertexInputAttributeDescriptions []vk.VertexInputAttributeDescription
}

// NewGraphicPipelineInfo returns an info drawing filled, back face culled
// triangles with depth testing.
func NewGraphicPipelineInfo(name string) GraphicPipelineInfo {
	return GraphicPipelineInfo{
		Name:              name,
		Samples:           1,
		PrimitiveTopology: vk.PrimitiveTopologyTriangleList,
		PolygonMode:       vk.PolygonModeFill,
		LineWidth:         1.0,
		CullMode:          vk.CullModeBackBit,
		FrontFace:         vk.FrontFaceCounterClockwise,
		DepthTestEnable:   true,
		DepthWriteEnable:  true,
		DepthCompareOp:    vk.CompareOpLess,
	}
}

// renderPassInfo is a render pass compatible with every render pass the
// graph begins for attachments of these formats.
func (g *GraphicPipelineInfo) renderPassInfo() driver.RenderPassInfo {
	var info driver.RenderPassInfo
	for i, f := range g.ColorFormats {
		info.Colors[i] = driver.AttachmentInfo{
			Format:  f,
			Samples: g.Samples,
			Layout:  driver.ImageLayoutColorAttachmentOptimal,
			LoadOp:  driver.AttachmentLoadOpLoad,
		}
	}
	info.ColorCount = uint32(len(g.ColorFormats))
	if g.DepthFormat != driver.FormatUndefined {
		info.Depth = driver.AttachmentInfo{
			Format:  g.DepthFormat,
			Samples: g.Samples,
			Layout:  driver.ImageLayoutDepthStencilAttachmentOptimal,
			LoadOp:  driver.AttachmentLoadOpLoad,
		}
		info.HasDepth = true
	}
	return info
}

func vkBool(b bool) vk.Bool32 {
	if b {
		return vk.True
	}
	return vk.False
}

// vkGraphicsPipelineCreateInfo fills every state block except the stages,
// layout and render pass. Viewport and scissor are dynamic and set when the
// graph begins a render pass.
func (g *GraphicPipelineInfo) vkGraphicsPipelineCreateInfo() vk.GraphicsPipelineCreateInfo {
	vertexInputState := vk.PipelineVertexInputStateCreateInfo{
		SType:                           vk.StructureTypePipelineVertexInputStateCreateInfo,
		VertexBindingDescriptionCount:   uint32(len(g.VertexInputBindingDescriptions)),
		PVertexBindingDescriptions:      g.VertexInputBindingDescriptions,
		VertexAttributeDescriptionCount: uint32(len(g.VertexInputAttributeDescriptions)),
		PVertexAttributeDescriptions:    g.VertexInputAttributeDescriptions,
	}

	inputAssemblyState := vk.PipelineInputAssemblyStateCreateInfo{
		SType:                  vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology:               g.PrimitiveTopology,
		PrimitiveRestartEnable: vk.False,
	}

	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}

	cullMode := vk.CullModeFlags(g.CullMode)
	if g.TwoSided {
		cullMode = vk.CullModeFlags(vk.CullModeNone)
	}
	rasterState := vk.PipelineRasterizationStateCreateInfo{
		SType:                   vk.StructureTypePipelineRasterizationStateCreateInfo,
		DepthClampEnable:        vk.False,
		RasterizerDiscardEnable: vk.False,
		PolygonMode:             g.PolygonMode,
		LineWidth:               g.LineWidth,
		CullMode:                cullMode,
		FrontFace:               g.FrontFace,
		DepthBiasEnable:         vk.False,
	}

	multisampleState := vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		SampleShadingEnable:  vk.False,
		RasterizationSamples: vk.SampleCountFlagBits(max(g.Samples, 1)),
	}

	blendAttachments := g.BlendAttachments
	if len(blendAttachments) == 0 {
		blendAttachments = make([]vk.PipelineColorBlendAttachmentState, len(g.ColorFormats))
		for i := range blendAttachments {
			blendAttachments[i] = vk.PipelineColorBlendAttachmentState{
				ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit | vk.ColorComponentBBit | vk.ColorComponentABit),
				BlendEnable:    vk.False,
			}
		}
	}
	colorBlendState := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		AttachmentCount: uint32(len(blendAttachments)),
		PAttachments:    blendAttachments,
	}

	dynamicStates := []vk.DynamicState{vk.DynamicStateViewport, vk.DynamicStateScissor}
	dynamicState := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(dynamicStates)),
		PDynamicStates:    dynamicStates,
	}

	hasDepth := g.DepthFormat != driver.FormatUndefined
	depthStencil := vk.PipelineDepthStencilStateCreateInfo{
		SType:                 vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthTestEnable:       vkBool(hasDepth && g.DepthTestEnable),
		DepthWriteEnable:      vkBool(hasDepth && g.DepthWriteEnable),
		DepthCompareOp:        g.DepthCompareOp,
		DepthBoundsTestEnable: vk.False,
		MinDepthBounds:        0.0,
		MaxDepthBounds:        1.0,
		StencilTestEnable:     vk.False,
	}

	return vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		PVertexInputState:   &vertexInputState,
		PInputAssemblyState: &inputAssemblyState,
		PViewportState:      &viewportState,
		PRasterizationState: &rasterState,
		PMultisampleState:   &multisampleState,
		PDepthStencilState:  &depthStencil,
		PColorBlendState:    &colorBlendState,
		PDynamicState:       &dynamicState,
		Subpass:             0,
	}
}

// CreateGraphicPipeline compiles a graphic pipeline against a render pass
// built from the attachment formats. Passes running it must attach images
// of exactly those formats. Destroying the result destroys its layout and
// set layouts too.
func (d *Device) CreateGraphicPipeline(info GraphicPipelineInfo) (*driver.GraphicPipeline, error) {
	if len(info.ColorFormats) > driver.MaxColorAttachments {
		return nil, errors.Wrapf(driver.InvalidData, "graphic pipeline has %d color attachments", len(info.ColorFormats))
	}
	vertEntry, fragEntry := info.VertexEntryPoint, info.FragmentEntryPoint
	if vertEntry == "" {
		vertEntry = "main"
	}
	if fragEntry == "" {
		fragEntry = "main"
	}

	vert, err := d.CreateShaderModule(info.VertexSPIRV)
	if err != nil {
		return nil, err
	}
	defer vert.Destroy()
	frag, err := d.CreateShaderModule(info.FragmentSPIRV)
	if err != nil {
		return nil, err
	}
	defer frag.Destroy()

	renderPass, err := d.CreateRenderPass(info.renderPassInfo())
	if err != nil {
		return nil, err
	}
	defer d.DestroyRenderPass(renderPass)

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
		pushStages = driver.ShaderStageVertex | driver.ShaderStageFragment
	}
	layout, err := d.createPipelineLayout(setLayouts, pushStages, info.PushConstantSize)
	if err != nil {
		cleanup()
		return nil, err
	}

	createInfo := info.vkGraphicsPipelineCreateInfo()
	createInfo.StageCount = 2
	createInfo.PStages = []vk.PipelineShaderStageCreateInfo{
		vert.VKPipelineShaderStageCreateInfo(vk.ShaderStageVertexBit, vertEntry),
		frag.VKPipelineShaderStageCreateInfo(vk.ShaderStageFragmentBit, fragEntry),
	}
	createInfo.Layout = d.pipeLayouts.must(layout)
	createInfo.RenderPass = d.renderPasses.must(renderPass).vk

	pipelines := make([]vk.Pipeline, 1)
	res := vk.CreateGraphicsPipelines(d.VKDevice, vk.NullPipelineCache, 1, []vk.GraphicsPipelineCreateInfo{createInfo}, nil, pipelines)
	if err := check(res, "create graphic pipeline"); err != nil {
		d.DestroyPipelineLayout(layout)
		cleanup()
		return nil, err
	}

	return driver.NewGraphicPipeline(d, driver.PipelineInfo{
		Name:               info.Name,
		Pipeline:           d.pipelines.add(d.handle(), pipelines[0]),
		Layout:             layout,
		SetLayouts:         setLayouts,
		PushConstantStages: pushStages,
	}), nil
}
