package display

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celer/vkgraph/driver"
	"github.com/celer/vkgraph/driver/drivertest"
	"github.com/celer/vkgraph/graph"
)

func swapchainInfo() driver.ImageInfo {
	return driver.NewImageInfo2D(driver.FormatB8G8R8A8Srgb, 320, 240,
		driver.ImageUsageColorAttachment|driver.ImageUsageTransferDst)
}

func newDisplay(images int) (*Display, *drivertest.Device, *drivertest.Swapchain) {
	dev := drivertest.NewDevice()
	sc := drivertest.NewSwapchain(dev, images, swapchainInfo())
	return New(dev, sc), dev, sc
}

func clearPass(g *graph.RenderGraph, node graph.SwapchainImageNode) {
	g.BeginPass("clear").
		AccessNode(node, driver.TransferWrite).
		Record(func(r *graph.Recording) {
			r.ClearColorImage(node, [4]float32{0, 0, 0, 1})
		})
}

func submits(dev *drivertest.Device) []driver.SubmitInfo {
	var infos []driver.SubmitInfo
	for _, c := range dev.Calls() {
		if c.Op == "QueueSubmit" {
			infos = append(infos, c.Submit)
		}
	}
	return infos
}

func TestPresentSubmitsTwice(t *testing.T) {
	d, dev, sc := newDisplay(2)

	node, g, err := d.AcquireNextImage()
	require.NoError(t, err)
	clearPass(g, node)
	require.NoError(t, d.PresentImage(g, node))

	image := sc.Images[0]
	infos := submits(dev)
	require.Len(t, infos, 2)
	assert.Empty(t, infos[0].Waits)
	assert.Empty(t, infos[0].Signals)
	assert.Equal(t, []driver.SemaphoreWait{{Semaphore: image.Acquired, Stage: driver.PipelineStageTransfer}}, infos[1].Waits)
	assert.Equal(t, []driver.Handle{image.Rendered}, infos[1].Signals)
	assert.Equal(t, []uint32{0}, sc.Presented())

	f := d.frames[0]
	assert.Empty(t, dev.Commands(f.main.Handle))
	barriers := dev.Barriers(f.present.Handle)
	require.Len(t, barriers, 2)
	assert.Equal(t, driver.Barrier{
		Prev:        driver.TransferWrite,
		Next:        driver.Present,
		Image:       image.Handle(),
		Subresource: image.Info().Subresource(),
	}, barriers[1])
	assert.Equal(t, driver.Present, image.Access())

	ops := dev.Ops()
	assert.Less(t, indexOf(ops, "PresentImage"), len(ops))
	assert.Greater(t, indexOf(ops, "PresentImage"), lastIndexOf(ops, "QueueSubmit"))
}

func TestPresentWithUntouchedSwapchainImage(t *testing.T) {
	d, dev, _ := newDisplay(1)

	node, g, err := d.AcquireNextImage()
	require.NoError(t, err)
	require.NoError(t, d.PresentImage(g, node))

	infos := submits(dev)
	require.Len(t, infos, 2)
	assert.Equal(t, driver.PipelineStageTopOfPipe, infos[1].Waits[0].Stage)
}

func TestPhaseAHoldsPassesBeforeSwapchainAccess(t *testing.T) {
	d, dev, _ := newDisplay(1)

	node, g, err := d.AcquireNextImage()
	require.NoError(t, err)
	buf, err := graph.NewBuffer(dev, driver.BufferInfo{Size: 64, Usage: driver.BufferUsageTransferDst})
	require.NoError(t, err)
	bn := g.BindBuffer(buf)
	g.BeginPass("fill").
		AccessNode(bn, driver.TransferWrite).
		Record(func(r *graph.Recording) { r.FillBuffer(bn, 0, 64, 0) })
	clearPass(g, node)
	require.NoError(t, d.PresentImage(g, node))

	f := d.frames[0]
	main := dev.Commands(f.main.Handle)
	require.Len(t, main, 1)
	assert.Equal(t, "CmdFillBuffer", main[0].Op)

	var presentOps []string
	for _, c := range dev.Commands(f.present.Handle) {
		presentOps = append(presentOps, c.Op)
	}
	assert.Equal(t, []string{"CmdPipelineBarrier", "CmdClearColorImage", "CmdPipelineBarrier"}, presentOps)
}

func TestFrameSlotsGrowLazily(t *testing.T) {
	d, dev, sc := newDisplay(3)
	sc.Order = []uint32{2, 0, 1}

	present := func() {
		node, g, err := d.AcquireNextImage()
		require.NoError(t, err)
		clearPass(g, node)
		require.NoError(t, d.PresentImage(g, node))
	}

	present()
	assert.Equal(t, 1, d.Frames())
	assert.Len(t, d.frames, 3)
	present()
	present()
	assert.Equal(t, 3, d.Frames())
	present()
	assert.Equal(t, 3, d.Frames())
	assert.Equal(t, 6, dev.Count("CreateCommandPool"))
	assert.Equal(t, []uint32{2, 0, 1, 2}, sc.Presented())
}

func TestSlotIsNotResetBeforeFenceSignals(t *testing.T) {
	d, dev, _ := newDisplay(1)

	img, err := graph.NewImage(dev, driver.NewImageInfo2D(driver.FormatR8G8B8A8Unorm, 8, 8, driver.ImageUsageSampled))
	require.NoError(t, err)

	node, g, err := d.AcquireNextImage()
	require.NoError(t, err)
	g.BeginPass("use").ReadNode(g.BindImage(img))
	clearPass(g, node)

	dev.HoldFences()
	require.NoError(t, d.PresentImage(g, node))
	img.Release()
	resets := dev.Count("ResetCommandPool")
	assert.Equal(t, 2, resets)
	assert.Equal(t, 1, dev.Live("image"), "first frame still holds the image")
	assert.Zero(t, d.Stalls())

	node, g, err = d.AcquireNextImage()
	require.NoError(t, err)
	clearPass(g, node)

	done := make(chan error, 1)
	go func() { done <- d.PresentImage(g, node) }()

	select {
	case err := <-done:
		t.Fatalf("present returned before the fence signalled: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, resets, dev.Count("ResetCommandPool"))
	assert.Equal(t, 1, dev.Live("image"))

	dev.SignalFences()
	require.NoError(t, <-done)
	assert.Equal(t, 1, d.Stalls(), "second present found the fence unsignalled")
	assert.Equal(t, resets+2, dev.Count("ResetCommandPool"))
	assert.Zero(t, dev.Live("image"), "image released once its frame finished")
}

func TestAcquireErrorsAreDeviceLost(t *testing.T) {
	d, _, sc := newDisplay(1)

	sc.FailAcquire(driver.SwapchainOutOfDate)
	_, g, err := d.AcquireNextImage()
	assert.Nil(t, g)
	require.ErrorIs(t, err, ErrDeviceLost)

	var serr driver.SwapchainImageError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, driver.SwapchainOutOfDate, serr)
}

func TestPresentErrorIsDeviceLost(t *testing.T) {
	d, _, sc := newDisplay(1)

	node, g, err := d.AcquireNextImage()
	require.NoError(t, err)
	sc.FailPresent(driver.SwapchainSuboptimal)
	err = d.PresentImage(g, node)
	require.ErrorIs(t, err, ErrDeviceLost)

	var derr *Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, DeviceLost, derr.Kind)
}

func TestSubmitFailureIsDeviceLost(t *testing.T) {
	d, dev, _ := newDisplay(1)

	node, g, err := d.AcquireNextImage()
	require.NoError(t, err)
	dev.FailNext("QueueSubmit", errors.New("queue gone"))
	assert.ErrorIs(t, d.PresentImage(g, node), ErrDeviceLost)
}

func TestRecordingDriverErrorIsDriverKind(t *testing.T) {
	d, dev, _ := newDisplay(1)

	node, g, err := d.AcquireNextImage()
	require.NoError(t, err)

	layout, err := driver.NewDescriptorSetLayout(dev, driver.DescriptorSetLayoutInfo{
		Bindings: []driver.DescriptorSetLayoutBinding{{Binding: 0, Type: driver.DescriptorTypeStorageImage, Count: 1}},
	})
	require.NoError(t, err)
	handle, pipelineLayout := dev.CreatePipeline()
	pipeline := driver.NewComputePipeline(dev, driver.PipelineInfo{
		Pipeline:   handle,
		Layout:     pipelineLayout,
		SetLayouts: []*driver.DescriptorSetLayout{layout},
	})
	graph.BindPipeline(g.BeginPass("compute"), pipeline).
		WriteDescriptor(graph.Descriptor{Binding: 0}, node).
		Record(func(r *graph.Recording) { r.Dispatch(1, 1, 1) })

	dev.FailNext("CreateDescriptorPool", driver.OutOfMemory)
	err = d.PresentImage(g, node)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDeviceLost)

	var derr *Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, Driver, derr.Kind)
	assert.Equal(t, driver.OutOfMemory, derr.Driver)

	var cause driver.DriverError
	require.ErrorAs(t, err, &cause)
	assert.Equal(t, driver.OutOfMemory, cause)
}

func TestDestroyReleasesEverything(t *testing.T) {
	d, dev, _ := newDisplay(2)

	for i := 0; i < 2; i++ {
		node, g, err := d.AcquireNextImage()
		require.NoError(t, err)
		clearPass(g, node)
		require.NoError(t, d.PresentImage(g, node))
	}
	assert.Equal(t, 4, dev.Live("command pool"))

	d.Destroy()
	assert.Zero(t, dev.Live("command pool"))
	assert.Zero(t, dev.Live("fence"))
	assert.Zero(t, d.Frames())
}

func TestAcquireDiscardsUnpresentedGraph(t *testing.T) {
	d, dev, sc := newDisplay(1)

	img, err := graph.NewImage(dev, driver.NewImageInfo2D(driver.FormatR8G8B8A8Unorm, 8, 8, driver.ImageUsageSampled))
	require.NoError(t, err)

	node, g, err := d.AcquireNextImage()
	require.NoError(t, err)
	g.BeginPass("use").ReadNode(g.BindImage(img))
	clearPass(g, node)
	img.Release()

	// The first graph is dropped without being presented. Acquiring the
	// same index again must not find the image still bound to it.
	assert.NotPanics(t, func() { node, g, err = d.AcquireNextImage() })
	require.NoError(t, err)
	assert.Zero(t, dev.Live("image"), "discarded graph released its bindings")

	clearPass(g, node)
	require.NoError(t, d.PresentImage(g, node))
	assert.Equal(t, []uint32{0}, sc.Presented())
	assert.Empty(t, d.pending)
}

func TestDestroyDiscardsUnpresentedGraph(t *testing.T) {
	d, dev, _ := newDisplay(1)

	buf, err := graph.NewBuffer(dev, driver.BufferInfo{Size: 64, Usage: driver.BufferUsageTransferDst})
	require.NoError(t, err)
	_, g, err := d.AcquireNextImage()
	require.NoError(t, err)
	g.BindBuffer(buf)
	buf.Release()

	d.Destroy()
	assert.Zero(t, dev.Live("buffer"))
	assert.Panics(t, func() { g.BeginPass("late") })
}

func indexOf(ops []string, op string) int {
	for i, o := range ops {
		if o == op {
			return i
		}
	}
	return len(ops)
}

func lastIndexOf(ops []string, op string) int {
	for i := len(ops) - 1; i >= 0; i-- {
		if ops[i] == op {
			return i
		}
	}
	return -1
}
