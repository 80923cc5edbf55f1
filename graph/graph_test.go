package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celer/vkgraph/driver"
	"github.com/celer/vkgraph/driver/drivertest"
	"github.com/celer/vkgraph/pool"
)

func colorImageInfo() driver.ImageInfo {
	return driver.NewImageInfo2D(driver.FormatR8G8B8A8Unorm, 64, 64,
		driver.ImageUsageColorAttachment|driver.ImageUsageSampled|driver.ImageUsageTransferDst)
}

func newImage(t *testing.T, dev driver.Device) *ImageBinding {
	t.Helper()
	b, err := NewImage(dev, colorImageInfo())
	require.NoError(t, err)
	return b
}

func newBuffer(t *testing.T, dev driver.Device) *BufferBinding {
	t.Helper()
	b, err := NewBuffer(dev, driver.BufferInfo{Size: 1024, Usage: driver.BufferUsageStorageBuffer | driver.BufferUsageVertexBuffer})
	require.NoError(t, err)
	return b
}

func TestBindSameBindingTwiceAliases(t *testing.T) {
	dev := drivertest.NewDevice()
	g := New()
	b := newImage(t, dev)

	a := g.BindImage(b)
	c := g.BindImage(b)
	assert.Equal(t, a, c)
	assert.Len(t, g.entries, 1)

	// Unbinding and binding again still names the same node.
	assert.Same(t, b, g.UnbindImage(a))
	assert.Equal(t, a, g.BindImage(b))
}

func TestBindToSecondGraphPanics(t *testing.T) {
	dev := drivertest.NewDevice()
	first, second := New(), New()
	b := newImage(t, dev)

	first.BindImage(b)
	assert.Panics(t, func() { second.BindImage(b) })

	// Once resolved the binding is free to join another graph.
	first.Resolve().Release()
	assert.NotPanics(t, func() { second.BindImage(b) })
	second.Resolve().Release()
}

func TestUnbindFreesBindingForOtherGraph(t *testing.T) {
	dev := drivertest.NewDevice()
	first, second := New(), New()
	b := newBuffer(t, dev)

	n := first.BindBuffer(b)
	first.UnbindBuffer(n)
	assert.NotPanics(t, func() { second.BindBuffer(b) })
}

func TestNodeOfOtherGraphPanics(t *testing.T) {
	dev := drivertest.NewDevice()
	first, second := New(), New()
	n := first.BindImage(newImage(t, dev))

	assert.Panics(t, func() { second.BeginPass("wrong").ReadNode(n) })
	assert.Panics(t, func() { second.ImageInfo(n) })

	r := first.Resolve()
	other := second.Resolve()
	assert.Panics(t, func() { other.LastAccess(n) })
	assert.NotPanics(t, func() { r.LastAccess(n) })
}

func TestNodeKindMismatchPanics(t *testing.T) {
	dev := drivertest.NewDevice()
	g := New()
	n := g.BindBuffer(newBuffer(t, dev))

	assert.Panics(t, func() { g.ImageInfo(n) })
	assert.Equal(t, uint64(1024), g.BufferInfo(n).Size)
}

func TestResolvedGraphPanics(t *testing.T) {
	dev := drivertest.NewDevice()
	g := New()
	n := g.BindImage(newImage(t, dev))
	g.Resolve()

	assert.Panics(t, func() { g.BeginPass("late") })
	assert.Panics(t, func() { g.BindImage(newImage(t, dev)) })
	assert.Panics(t, func() { g.Resolve() })
	assert.Panics(t, func() { g.ImageInfo(n) })
}

func TestBindingOutlivesUserRelease(t *testing.T) {
	dev := drivertest.NewDevice()
	g := New()
	b := newImage(t, dev)
	n := g.BindImage(b)
	g.BeginPass("clear").AccessNode(n, driver.TransferWrite)

	b.Release()
	assert.Equal(t, 1, dev.Live("image"))

	r := g.Resolve()
	assert.Equal(t, 1, dev.Live("image"))
	r.Release()
	assert.Zero(t, dev.Live("image"))

	// Releasing twice is harmless.
	r.Release()
}

func TestLeaseNodesReturnToPool(t *testing.T) {
	dev := drivertest.NewDevice()
	cache := pool.New(dev)

	img, err := cache.LeaseImage(colorImageInfo())
	require.NoError(t, err)
	buf, err := cache.LeaseBuffer(driver.BufferInfo{Size: 16})
	require.NoError(t, err)
	accel, err := cache.LeaseAccelerationStructure(driver.AccelerationStructureInfo{Size: 256})
	require.NoError(t, err)

	g := New()
	in := g.BindImageLease(img)
	bn := g.BindBufferLease(buf)
	an := g.BindAccelerationStructureLease(accel)
	assert.Equal(t, in, g.BindImageLease(img))
	assert.Same(t, buf, g.UnbindBufferLease(bn))
	assert.Same(t, accel, g.UnbindAccelerationStructureLease(an))
	assert.Same(t, img, g.UnbindImageLease(in))

	img.Release()
	buf.Release()
	accel.Release()
	assert.Zero(t, cache.Stats().Idle["image"])

	g.Resolve().Release()
	stats := cache.Stats()
	assert.Equal(t, 1, stats.Idle["image"])
	assert.Equal(t, 1, stats.Idle["buffer"])
	assert.Equal(t, 1, stats.Idle["acceleration structure"])
}

func TestAccelerationStructureBinding(t *testing.T) {
	dev := drivertest.NewDevice()
	as, err := driver.NewAccelerationStructure(dev, driver.AccelerationStructureInfo{Type: driver.AccelerationStructureBottomLevel, Size: 512})
	require.NoError(t, err)
	b := NewAccelerationStructureBinding(as)

	g := New()
	n := g.BindAccelerationStructure(b)
	g.BeginPass("build").AccessNode(n, driver.AccelerationStructureBuildWrite)
	g.BeginPass("trace").AccessNode(n, driver.RayTracingShaderReadAccelerationStructure)
	assert.Same(t, b, g.UnbindAccelerationStructure(n))

	r := g.Resolve()
	assert.Equal(t, driver.RayTracingShaderReadAccelerationStructure, r.LastAccess(n))
	assert.Equal(t, driver.PipelineStageAccelerationStructureBuild, r.NodeStageMask(n))

	cmd, err := driver.NewCommandBuffer(dev, 0)
	require.NoError(t, err)
	require.NoError(t, r.RecordUnscheduledPasses(nil, cmd))

	barriers := dev.Barriers(cmd.Handle)
	require.Len(t, barriers, 1)
	assert.Zero(t, barriers[0].Image)
	assert.Zero(t, barriers[0].Buffer)
	assert.Equal(t, driver.AccelerationStructureBuildWrite, barriers[0].Prev)
}

func TestDiscardDetachesAndReleases(t *testing.T) {
	dev := drivertest.NewDevice()
	first, second := New(), New()
	b := newImage(t, dev)
	swapchain := &driver.SwapchainImage{Image: newImage(t, dev).Image(), Index: 0}

	n := first.BindImage(b)
	first.BindSwapchainImage(swapchain)
	first.BeginPass("clear").AccessNode(n, driver.TransferWrite)
	b.Release()

	// The binding's last retention was the graph's, the swapchain image
	// is never destroyed by a graph.
	first.Discard()
	assert.Equal(t, 1, dev.Live("image"))
	assert.Panics(t, func() { first.BeginPass("late") })
	assert.NotPanics(t, func() { first.Discard() })

	// Nothing was recorded, so nothing is written back and the swapchain
	// image is free to join the next graph.
	assert.Equal(t, driver.Nothing, swapchain.Image.Access())
	assert.NotPanics(t, func() { second.BindSwapchainImage(swapchain) })
	second.Discard()
}
