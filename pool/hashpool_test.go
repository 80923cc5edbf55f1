package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celer/vkgraph/driver"
	"github.com/celer/vkgraph/driver/drivertest"
)

func testImageInfo() driver.ImageInfo {
	return driver.NewImageInfo2D(driver.FormatR8G8B8A8Unorm, 32, 32, driver.ImageUsageSampled|driver.ImageUsageTransferDst)
}

func TestLeaseRoundTripReusesObject(t *testing.T) {
	dev := drivertest.NewDevice()
	p := New(dev)

	first, err := p.LeaseImage(testImageInfo())
	require.NoError(t, err)
	img := first.Item()
	first.Release()

	second, err := p.LeaseImage(testImageInfo())
	require.NoError(t, err)
	assert.Same(t, img, second.Item())
	assert.Equal(t, 1, dev.Count("CreateImage"))

	stats := p.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
}

func TestLiveLeaseIsNotHandedOut(t *testing.T) {
	dev := drivertest.NewDevice()
	p := New(dev)

	a, err := p.LeaseBuffer(driver.BufferInfo{Size: 256, Usage: driver.BufferUsageStorageBuffer})
	require.NoError(t, err)
	b, err := p.LeaseBuffer(driver.BufferInfo{Size: 256, Usage: driver.BufferUsageStorageBuffer})
	require.NoError(t, err)
	assert.NotSame(t, a.Item(), b.Item())
	assert.Equal(t, 2, dev.Live("buffer"))
}

func TestLeaseReuseIsLIFO(t *testing.T) {
	p := New(drivertest.NewDevice())
	info := driver.BufferInfo{Size: 64}

	a, err := p.LeaseBuffer(info)
	require.NoError(t, err)
	b, err := p.LeaseBuffer(info)
	require.NoError(t, err)
	a.Release()
	b.Release()

	c, err := p.LeaseBuffer(info)
	require.NoError(t, err)
	assert.Same(t, b.Item(), c.Item())
}

func TestDifferentKeysDoNotShare(t *testing.T) {
	p := New(drivertest.NewDevice())

	a, err := p.LeaseBuffer(driver.BufferInfo{Size: 64})
	require.NoError(t, err)
	a.Release()

	b, err := p.LeaseBuffer(driver.BufferInfo{Size: 128})
	require.NoError(t, err)
	assert.NotSame(t, a.Item(), b.Item())
}

func TestRetainDelaysReturn(t *testing.T) {
	p := New(drivertest.NewDevice())

	a, err := p.LeaseImage(testImageInfo())
	require.NoError(t, err)
	a.Retain()
	a.Release()
	assert.Zero(t, p.Stats().Idle[kindImage])

	a.Release()
	assert.Equal(t, 1, p.Stats().Idle[kindImage])
	assert.Panics(t, func() { a.Release() })
}

func TestClearDestroysIdleAndOutstanding(t *testing.T) {
	dev := drivertest.NewDevice()
	p := New(dev)

	idle, err := p.LeaseImage(testImageInfo())
	require.NoError(t, err)
	idle.Release()
	held, err := p.LeaseImage(testImageInfo())
	require.NoError(t, err)
	other, err := p.LeaseImage(testImageInfo())
	require.NoError(t, err)
	assert.Equal(t, 2, dev.Live("image"))

	p.Clear()
	assert.Equal(t, 2, dev.Live("image"), "outstanding leases survive clear")

	held.Release()
	other.Release()
	assert.Zero(t, dev.Live("image"))
	assert.Zero(t, p.Stats().Idle[kindImage])

	// The pool keeps working after a clear.
	fresh, err := p.LeaseImage(testImageInfo())
	require.NoError(t, err)
	fresh.Release()
	assert.Equal(t, 1, p.Stats().Idle[kindImage])
}

func TestLeaseDescriptorSetByLayout(t *testing.T) {
	dev := drivertest.NewDevice()
	p := New(dev)
	layout, err := driver.NewDescriptorSetLayout(dev, driver.DescriptorSetLayoutInfo{
		Bindings: []driver.DescriptorSetLayoutBinding{
			{Binding: 0, Type: driver.DescriptorTypeStorageImage, Count: 1},
		},
	})
	require.NoError(t, err)

	a, err := p.LeaseDescriptorSet(layout)
	require.NoError(t, err)
	b, err := p.LeaseDescriptorSet(layout)
	require.NoError(t, err)
	assert.NotSame(t, a.Item().Pool(), b.Item().Pool())
	assert.Equal(t, 2, dev.Live("descriptor pool"))

	a.Release()
	c, err := p.LeaseDescriptorSet(layout)
	require.NoError(t, err)
	assert.Same(t, a.Item(), c.Item())
	assert.Equal(t, 2, dev.Count("AllocateDescriptorSet"))

	c.Release()
	b.Release()
	p.Clear()
	assert.Zero(t, dev.Live("descriptor pool"))
}

func TestCreateErrorPropagates(t *testing.T) {
	dev := drivertest.NewDevice()
	p := New(dev)

	dev.FailNext("CreateDescriptorPool", driver.OutOfMemory)
	_, err := p.LeaseDescriptorPool(driver.DescriptorPoolInfo{MaxSets: 1})
	assert.ErrorIs(t, err, driver.OutOfMemory)

	layout, err := driver.NewDescriptorSetLayout(dev, driver.DescriptorSetLayoutInfo{})
	require.NoError(t, err)
	dev.FailNext("AllocateDescriptorSet", driver.InvalidData)
	_, err = p.LeaseDescriptorSet(layout)
	assert.ErrorIs(t, err, driver.InvalidData)

	// The pool leased for the failed set went back idle.
	assert.Equal(t, 1, p.Stats().Idle[kindDescriptorPool])
}

func TestLeaseCommandBuffer(t *testing.T) {
	dev := drivertest.NewDevice()
	p := New(dev)

	a, err := p.LeaseCommandBuffer(0)
	require.NoError(t, err)
	require.NoError(t, a.Item().WaitForFence())
	a.Release()

	b, err := p.LeaseCommandBuffer(0)
	require.NoError(t, err)
	assert.Same(t, a.Item(), b.Item())

	c, err := p.LeaseCommandBuffer(1)
	require.NoError(t, err)
	assert.NotSame(t, b.Item(), c.Item())
	assert.Equal(t, 1, c.Item().QueueFamily)
}

func TestLeaseRenderPassByInfo(t *testing.T) {
	dev := drivertest.NewDevice()
	p := New(dev)

	info := driver.RenderPassInfo{ColorCount: 1}
	info.Colors[0] = driver.AttachmentInfo{
		Format:  driver.FormatB8G8R8A8Unorm,
		Samples: 1,
		Layout:  driver.ImageLayoutColorAttachmentOptimal,
		LoadOp:  driver.AttachmentLoadOpClear,
	}

	a, err := p.LeaseRenderPass(info)
	require.NoError(t, err)
	a.Release()
	b, err := p.LeaseRenderPass(info)
	require.NoError(t, err)
	assert.Same(t, a.Item(), b.Item())

	info.Colors[0].LoadOp = driver.AttachmentLoadOpLoad
	c, err := p.LeaseRenderPass(info)
	require.NoError(t, err)
	assert.NotSame(t, b.Item(), c.Item())
	b.Release()
	c.Release()

	assert.Equal(t, 2, p.Stats().Idle[kindRenderPass])
	p.Clear()
	assert.Zero(t, dev.Live("render pass"))
}
