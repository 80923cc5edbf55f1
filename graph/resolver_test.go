package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celer/vkgraph/driver"
	"github.com/celer/vkgraph/driver/drivertest"
	"github.com/celer/vkgraph/pool"
)

func newCommandBuffer(t *testing.T, dev driver.Device) *driver.CommandBuffer {
	t.Helper()
	cmd, err := driver.NewCommandBuffer(dev, 0)
	require.NoError(t, err)
	return cmd
}

func draw(r *Recording) { r.Draw(3, 1, 0, 0) }

func TestRepeatedReadsPlanNoBarrier(t *testing.T) {
	dev := drivertest.NewDevice()
	g := New()
	n := g.BindBuffer(newBuffer(t, dev))

	g.BeginPass("upload").AccessNode(n, driver.TransferWrite)
	g.BeginPass("read a").AccessNode(n, driver.ComputeShaderReadOther)
	g.BeginPass("read b").AccessNode(n, driver.ComputeShaderReadOther)
	g.BeginPass("vertices").AccessNode(n, driver.VertexBuffer)

	cmd := newCommandBuffer(t, dev)
	r := g.Resolve()
	require.NoError(t, r.RecordUnscheduledPasses(nil, cmd))

	barriers := dev.Barriers(cmd.Handle)
	require.Len(t, barriers, 2)
	assert.Equal(t, driver.TransferWrite, barriers[0].Prev)
	assert.Equal(t, driver.ComputeShaderReadOther, barriers[0].Next)
	assert.Equal(t, driver.ComputeShaderReadOther, barriers[1].Prev)
	assert.Equal(t, driver.VertexBuffer, barriers[1].Next)
}

func TestColorWriteThenShaderRead(t *testing.T) {
	dev := drivertest.NewDevice()
	g := New()
	b := newImage(t, dev)
	n := g.BindImage(b)

	g.BeginPass("draw").
		AccessNode(n, driver.ColorAttachmentWrite).
		Record(draw)
	g.BeginPass("sample").
		AccessNode(n, driver.FragmentShaderReadSampledImageOrUniformTexelBuffer).
		Record(draw)

	cmd := newCommandBuffer(t, dev)
	r := g.Resolve()
	require.NoError(t, r.RecordUnscheduledPasses(nil, cmd))

	var ops []string
	for _, c := range dev.Commands(cmd.Handle) {
		ops = append(ops, c.Op)
	}
	assert.Equal(t, []string{"CmdPipelineBarrier", "CmdDraw", "CmdPipelineBarrier", "CmdDraw"}, ops)

	barriers := dev.Barriers(cmd.Handle)
	require.Len(t, barriers, 2)
	assert.Equal(t, driver.Nothing, barriers[0].Prev)
	between := barriers[1]
	assert.Equal(t, driver.ColorAttachmentWrite, between.Prev)
	assert.Equal(t, driver.FragmentShaderReadSampledImageOrUniformTexelBuffer, between.Next)
	assert.Equal(t, b.Image().Handle(), between.Image)

	assert.Equal(t, driver.FragmentShaderReadSampledImageOrUniformTexelBuffer, r.LastAccess(n))
	assert.Equal(t, driver.PipelineStageColorAttachmentOutput, r.NodeStageMask(n))
	assert.Equal(t, driver.FragmentShaderReadSampledImageOrUniformTexelBuffer, b.Image().Access())
}

func TestAccessCarriesAcrossGraphs(t *testing.T) {
	dev := drivertest.NewDevice()
	b := newImage(t, dev)

	g := New()
	g.BeginPass("write").AccessNode(g.BindImage(b), driver.TransferWrite)
	g.Resolve().Release()

	g = New()
	n := g.BindImage(b)
	g.BeginPass("read").AccessNode(n, driver.TransferRead)
	r := g.Resolve()

	cmd := newCommandBuffer(t, dev)
	require.NoError(t, r.RecordUnscheduledPasses(nil, cmd))
	barriers := dev.Barriers(cmd.Handle)
	require.Len(t, barriers, 1)
	assert.Equal(t, driver.TransferWrite, barriers[0].Prev)
	assert.Equal(t, driver.TransferRead, barriers[0].Next)
}

func TestNodeStageMaskOfUntouchedNode(t *testing.T) {
	dev := drivertest.NewDevice()
	g := New()
	n := g.BindImage(newImage(t, dev))
	r := g.Resolve()

	assert.Equal(t, driver.PipelineStageTopOfPipe, r.NodeStageMask(n))
	assert.Equal(t, driver.Nothing, r.LastAccess(n))
}

// buildThreePasses declares three passes of which only the last touches the
// swapchain image.
func buildThreePasses(t *testing.T, dev *drivertest.Device) (*Resolver, SwapchainImageNode) {
	t.Helper()
	swapchain := drivertest.NewSwapchain(dev, 1, colorImageInfo())
	g := New()
	a := g.BindImage(newImage(t, dev))
	buf := g.BindBuffer(newBuffer(t, dev))
	sc := g.BindSwapchainImage(swapchain.Images[0])

	g.BeginPass("shadow").
		AccessNode(a, driver.ColorAttachmentWrite).
		Record(draw)
	g.BeginPass("fill").
		AccessNode(buf, driver.TransferWrite).
		Record(func(r *Recording) { r.FillBuffer(buf, 0, 1024, 7) })
	g.BeginPass("present").
		AccessNode(a, driver.FragmentShaderReadSampledImageOrUniformTexelBuffer).
		AccessNode(sc, driver.ColorAttachmentWrite).
		Record(draw)

	return g.Resolve(), sc
}

func TestTwoPhaseRecording(t *testing.T) {
	split := drivertest.NewDevice()
	r, sc := buildThreePasses(t, split)
	main := newCommandBuffer(t, split)
	present := newCommandBuffer(t, split)

	require.NoError(t, r.RecordNodeDependencies(nil, main, sc))
	assert.Equal(t, 1, r.Pending())
	require.NoError(t, r.RecordNode(nil, present, sc))
	assert.Zero(t, r.Pending())

	whole := drivertest.NewDevice()
	full, _ := buildThreePasses(t, whole)
	cmd := newCommandBuffer(t, whole)
	newCommandBuffer(t, whole)
	require.NoError(t, full.RecordUnscheduledPasses(nil, cmd))

	phaseA := split.Commands(main.Handle)
	phaseB := split.Commands(present.Handle)
	assert.Equal(t, []string{"CmdPipelineBarrier", "CmdDraw", "CmdFillBuffer"}, opsOf(phaseA))
	assert.Equal(t, []string{"CmdPipelineBarrier", "CmdPipelineBarrier", "CmdDraw"}, opsOf(phaseB))
	assert.Equal(t, whole.Commands(cmd.Handle), append(phaseA, phaseB...))
}

func opsOf(calls []drivertest.Call) []string {
	ops := make([]string, len(calls))
	for i, c := range calls {
		ops[i] = c.Op
	}
	return ops
}

func TestRecordNodeDependenciesOfUnaccessedNode(t *testing.T) {
	dev := drivertest.NewDevice()
	swapchain := drivertest.NewSwapchain(dev, 1, colorImageInfo())
	g := New()
	sc := g.BindSwapchainImage(swapchain.Images[0])
	n := g.BindBuffer(newBuffer(t, dev))
	g.BeginPass("only").AccessNode(n, driver.TransferWrite)

	r := g.Resolve()
	cmd := newCommandBuffer(t, dev)
	require.NoError(t, r.RecordNodeDependencies(nil, cmd, sc))
	assert.Zero(t, r.Pending())
	assert.Same(t, swapchain.Images[0], r.UnbindSwapchainImage(sc))
}

func computePipeline(t *testing.T, dev *drivertest.Device) *driver.ComputePipeline {
	t.Helper()
	layout, err := driver.NewDescriptorSetLayout(dev, driver.DescriptorSetLayoutInfo{
		Bindings: []driver.DescriptorSetLayoutBinding{
			{Binding: 0, Type: driver.DescriptorTypeCombinedImageSampler, Count: 1, Stages: driver.ShaderStageCompute},
			{Binding: 1, Type: driver.DescriptorTypeStorageBuffer, Count: 1, Stages: driver.ShaderStageCompute},
		},
	})
	require.NoError(t, err)
	handle, pipelineLayout := dev.CreatePipeline()
	return driver.NewComputePipeline(dev, driver.PipelineInfo{
		Name:               "blur",
		Pipeline:           handle,
		Layout:             pipelineLayout,
		SetLayouts:         []*driver.DescriptorSetLayout{layout},
		PushConstantStages: driver.ShaderStageCompute,
	})
}

func TestPipelinePassRecordsDescriptors(t *testing.T) {
	dev := drivertest.NewDevice()
	cache := pool.New(dev)
	pipeline := computePipeline(t, dev)

	g := New()
	img := g.BindImage(newImage(t, dev))
	buf := g.BindBuffer(newBuffer(t, dev))

	BindPipeline(g.BeginPass("blur"), pipeline).
		ReadDescriptor(Descriptor{Set: 0, Binding: 0}, img).
		WriteDescriptor(Descriptor{Set: 0, Binding: 1}, buf).
		PushConstants(0, []byte{1, 2, 3, 4}).
		Record(func(r *Recording) {
			assert.Equal(t, driver.ImageLayoutShaderReadOnlyOptimal, r.Layout(img))
			r.Dispatch(8, 8, 1)
		})

	r := g.Resolve()
	assert.Equal(t, driver.ComputeShaderReadSampledImageOrUniformTexelBuffer, r.LastAccess(img))
	assert.Equal(t, driver.ComputeShaderWrite, r.LastAccess(buf))

	cmd := newCommandBuffer(t, dev)
	require.NoError(t, r.RecordUnscheduledPasses(cache, cmd))
	assert.Equal(t, []string{
		"CmdPipelineBarrier",
		"CmdBindPipeline",
		"CmdBindDescriptorSets",
		"CmdPushConstants",
		"CmdDispatch",
	}, opsOf(dev.Commands(cmd.Handle)))
	assert.Equal(t, 1, dev.Count("UpdateDescriptorSet"))
	assert.Equal(t, 1, dev.Count("CreateImageView"))
	assert.Zero(t, cache.Stats().Idle["descriptor set"])

	r.Release()
	assert.Equal(t, 1, cache.Stats().Idle["descriptor set"])
}

func TestRecordingErrorPropagates(t *testing.T) {
	dev := drivertest.NewDevice()
	cache := pool.New(dev)
	pipeline := computePipeline(t, dev)

	g := New()
	buf := g.BindBuffer(newBuffer(t, dev))
	BindPipeline(g.BeginPass("compute"), pipeline).
		WriteDescriptor(Descriptor{Binding: 1}, buf).
		Record(func(r *Recording) { r.Dispatch(1, 1, 1) })

	r := g.Resolve()
	dev.FailNext("CreateDescriptorPool", driver.OutOfMemory)
	err := r.RecordUnscheduledPasses(cache, newCommandBuffer(t, dev))
	require.Error(t, err)
	var derr driver.DriverError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, driver.OutOfMemory, derr)

	assert.ErrorIs(t, recordWithoutPool(t, dev, pipeline), ErrNoPool)
}

// recordWithoutPool records a pass that binds a descriptor set without
// giving the resolver a pool.
func recordWithoutPool(t *testing.T, dev *drivertest.Device, p *driver.ComputePipeline) error {
	g := New()
	buf := g.BindBuffer(newBuffer(t, dev))
	BindPipeline(g.BeginPass("no pool"), p).WriteDescriptor(Descriptor{Binding: 1}, buf)
	return g.Resolve().RecordUnscheduledPasses(nil, newCommandBuffer(t, dev))
}

func TestDescriptorOfUnknownBindingPanics(t *testing.T) {
	dev := drivertest.NewDevice()
	pipeline := computePipeline(t, dev)
	g := New()
	buf := g.BindBuffer(newBuffer(t, dev))

	pass := BindPipeline(g.BeginPass("bad"), pipeline)
	assert.Panics(t, func() { pass.ReadDescriptor(Descriptor{Set: 0, Binding: 9}, buf) })
	assert.Panics(t, func() { pass.ReadDescriptor(Descriptor{Set: 3, Binding: 0}, buf) })
}

func TestReadAccessFollowsDescriptorType(t *testing.T) {
	assert.Equal(t, driver.ComputeShaderReadUniformBuffer, readAccess(driver.PipelineBindPointCompute, driver.DescriptorTypeUniformBuffer))
	assert.Equal(t, driver.ComputeShaderReadOther, readAccess(driver.PipelineBindPointCompute, driver.DescriptorTypeStorageImage))
	assert.Equal(t, driver.RayTracingShaderReadAccelerationStructure, readAccess(driver.PipelineBindPointRayTracing, driver.DescriptorTypeAccelerationStructure))
	assert.Equal(t, driver.AnyShaderReadSampledImageOrUniformTexelBuffer, readAccess(driver.PipelineBindPointGraphics, driver.DescriptorTypeCombinedImageSampler))
	assert.Equal(t, driver.FragmentShaderReadColorInputAttachment, readAccess(driver.PipelineBindPointGraphics, driver.DescriptorTypeInputAttachment))
	assert.Equal(t, driver.RayTracingShaderWrite, writeAccess(driver.PipelineBindPointRayTracing))
}

func graphicPipeline(dev *drivertest.Device) *driver.GraphicPipeline {
	handle, layout := dev.CreatePipeline()
	return driver.NewGraphicPipeline(dev, driver.PipelineInfo{Name: "mesh", Pipeline: handle, Layout: layout})
}

func TestGraphicWorkRunsInsideRenderPass(t *testing.T) {
	dev := drivertest.NewDevice()
	cache := pool.New(dev)
	pipeline := graphicPipeline(dev)

	depthImage, err := NewImage(dev, driver.NewImageInfo2D(driver.FormatD32Sfloat, 32, 32, driver.ImageUsageDepthStencilAttachment))
	require.NoError(t, err)

	g := New()
	color := g.BindImage(newImage(t, dev))
	depth := g.BindImage(depthImage)

	BindPipeline(g.BeginPass("scene"), pipeline).
		ClearColor(0, color, [4]float32{0, 0, 0, 1}).
		ClearDepthStencil(depth, 1, 0).
		Record(func(r *Recording) {
			assert.Equal(t, driver.ImageLayoutColorAttachmentOptimal, r.Layout(color))
			assert.Equal(t, driver.ImageLayoutDepthStencilAttachmentOptimal, r.Layout(depth))
			r.Draw(3, 1, 0, 0)
		})
	BindPipeline(g.BeginPass("overlay"), pipeline).
		AttachColor(0, color).
		Record(draw)

	r := g.Resolve()
	assert.Equal(t, driver.ColorAttachmentReadWrite, r.LastAccess(color))
	assert.Equal(t, driver.DepthStencilAttachmentWrite, r.LastAccess(depth))

	cmd := newCommandBuffer(t, dev)
	require.NoError(t, r.RecordUnscheduledPasses(cache, cmd))

	cmds := dev.Commands(cmd.Handle)
	assert.Equal(t, []string{
		"CmdPipelineBarrier",
		"CmdPipelineBarrier",
		"CmdBeginRenderPass",
		"CmdBindPipeline",
		"CmdDraw",
		"CmdEndRenderPass",
		"CmdPipelineBarrier",
		"CmdBeginRenderPass",
		"CmdBindPipeline",
		"CmdDraw",
		"CmdEndRenderPass",
	}, opsOf(cmds))

	// The framebuffer covers the smallest attachment and every attachment
	// gets a clear value.
	assert.Equal(t, []uint64{32, 32, 2}, cmds[2].Args[1:])
	assert.Equal(t, []uint64{64, 64, 1}, cmds[7].Args[1:])
	assert.Equal(t, driver.ColorAttachmentWrite, dev.Barriers(cmd.Handle)[2].Prev)

	// Clearing and loading need different render passes.
	assert.Equal(t, 2, dev.Count("CreateRenderPass"))
	assert.Equal(t, 2, dev.Live("framebuffer"))

	r.Release()
	assert.Zero(t, dev.Live("framebuffer"))
	assert.Equal(t, 2, cache.Stats().Idle["render pass"])
}

func TestAttachmentsNeedGraphicPipeline(t *testing.T) {
	dev := drivertest.NewDevice()
	g := New()
	n := g.BindImage(newImage(t, dev))

	pass := BindPipeline(g.BeginPass("compute"), computePipeline(t, dev))
	assert.Panics(t, func() { pass.AttachColor(0, n) })
}

func TestGraphicWorkWithoutAttachmentsPanics(t *testing.T) {
	dev := drivertest.NewDevice()
	g := New()
	BindPipeline(g.BeginPass("draw"), graphicPipeline(dev)).Record(draw)

	r := g.Resolve()
	defer r.Release()
	assert.Panics(t, func() { _ = r.RecordUnscheduledPasses(pool.New(dev), newCommandBuffer(t, dev)) })
}

func TestGraphicWorkNeedsPool(t *testing.T) {
	dev := drivertest.NewDevice()
	g := New()
	n := g.BindImage(newImage(t, dev))
	BindPipeline(g.BeginPass("draw"), graphicPipeline(dev)).
		ClearColor(0, n, [4]float32{}).
		Record(draw)

	r := g.Resolve()
	defer r.Release()
	assert.ErrorIs(t, r.RecordUnscheduledPasses(nil, newCommandBuffer(t, dev)), ErrNoPool)
}
