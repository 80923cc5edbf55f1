package vkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"

	"github.com/celer/vkgraph/driver"
	"github.com/celer/vkgraph/driver/drivertest"
	"github.com/celer/vkgraph/graph"
	"github.com/celer/vkgraph/pool"
)

func TestGraphicPipelineDefaults(t *testing.T) {
	info := NewGraphicPipelineInfo("triangle")
	info.ColorFormats = []driver.Format{driver.FormatB8G8R8A8Unorm, driver.FormatR8G8B8A8Unorm}

	ci := info.vkGraphicsPipelineCreateInfo()
	assert.Equal(t, vk.PrimitiveTopologyTriangleList, ci.PInputAssemblyState.Topology)
	assert.Equal(t, vk.CullModeFlags(vk.CullModeBackBit), ci.PRasterizationState.CullMode)
	assert.Equal(t, vk.FrontFaceCounterClockwise, ci.PRasterizationState.FrontFace)
	assert.Equal(t, vk.SampleCount1Bit, ci.PMultisampleState.RasterizationSamples)
	assert.Equal(t, []vk.DynamicState{vk.DynamicStateViewport, vk.DynamicStateScissor}, ci.PDynamicState.PDynamicStates)
	assert.EqualValues(t, 2, ci.PColorBlendState.AttachmentCount)

	// Without a depth attachment the depth test stays off.
	assert.Equal(t, vk.Bool32(vk.False), ci.PDepthStencilState.DepthTestEnable)
	assert.Equal(t, vk.Bool32(vk.False), ci.PDepthStencilState.DepthWriteEnable)

	info.DepthFormat = driver.FormatD32Sfloat
	info.TwoSided = true
	ci = info.vkGraphicsPipelineCreateInfo()
	assert.Equal(t, vk.Bool32(vk.True), ci.PDepthStencilState.DepthTestEnable)
	assert.Equal(t, vk.CompareOpLess, ci.PDepthStencilState.DepthCompareOp)
	assert.Equal(t, vk.CullModeFlags(vk.CullModeNone), ci.PRasterizationState.CullMode)
}

func TestGraphicPipelineRenderPassMatchesGraph(t *testing.T) {
	dev := drivertest.NewDevice()
	cache := pool.New(dev)
	defer cache.Clear()

	handle, layout := dev.CreatePipeline()
	pipeline := driver.NewGraphicPipeline(dev, driver.PipelineInfo{Name: "triangle", Pipeline: handle, Layout: layout})

	color, err := graph.NewImage(dev, driver.NewImageInfo2D(driver.FormatB8G8R8A8Unorm, 64, 64, driver.ImageUsageColorAttachment))
	require.NoError(t, err)
	defer color.Release()
	depth, err := graph.NewImage(dev, driver.NewImageInfo2D(driver.FormatD24UnormS8Uint, 64, 64, driver.ImageUsageDepthStencilAttachment))
	require.NoError(t, err)
	defer depth.Release()

	g := graph.New()
	graph.BindPipeline(g.BeginPass("triangle"), pipeline).
		AttachColor(0, g.BindImage(color)).
		AttachDepthStencil(g.BindImage(depth)).
		Record(func(r *graph.Recording) { r.Draw(3, 1, 0, 0) })

	r := g.Resolve()
	defer r.Release()
	cmd, err := driver.NewCommandBuffer(dev, 0)
	require.NoError(t, err)
	defer cmd.Destroy()
	require.NoError(t, r.RecordUnscheduledPasses(cache, cmd))

	var begin *drivertest.Call
	for _, c := range dev.Commands(cmd.Handle) {
		if c.Op == "CmdBeginRenderPass" {
			begin = &c
		}
	}
	require.NotNil(t, begin)
	leased, ok := dev.RenderPassInfo(driver.Handle(begin.Args[0]))
	require.True(t, ok)

	// A pipeline built for these formats is compatible with the render pass
	// the graph begins for loaded attachments.
	info := NewGraphicPipelineInfo("triangle")
	info.ColorFormats = []driver.Format{driver.FormatB8G8R8A8Unorm}
	info.DepthFormat = driver.FormatD24UnormS8Uint
	assert.Equal(t, leased, info.renderPassInfo())

	desc := vkAttachmentDescription(leased.Depth)
	assert.Equal(t, vk.AttachmentLoadOpLoad, desc.StencilLoadOp)
	assert.Equal(t, vk.AttachmentStoreOpStore, desc.StencilStoreOp)
	assert.Equal(t, vk.AttachmentStoreOpDontCare, vkAttachmentDescription(leased.Colors[0]).StencilStoreOp)
}
