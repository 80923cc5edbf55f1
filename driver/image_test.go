package driver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celer/vkgraph/driver"
	"github.com/celer/vkgraph/driver/drivertest"
)

func TestImageViewCache(t *testing.T) {
	dev := drivertest.NewDevice()
	info := driver.NewImageInfo2D(driver.FormatR8G8B8A8Unorm, 16, 16, driver.ImageUsageSampled)

	img, err := driver.NewImage(dev, info)
	require.NoError(t, err)

	a, err := img.View(info.DefaultView())
	require.NoError(t, err)
	b, err := img.View(info.DefaultView())
	require.NoError(t, err)
	assert.Equal(t, a, b)

	other := info.DefaultView()
	other.Format = driver.FormatR8G8B8A8Srgb
	c, err := img.View(other)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
	assert.Equal(t, 2, dev.Live("image view"))

	img.Destroy()
	assert.Zero(t, dev.Live("image view"))
	assert.Zero(t, dev.Live("image"))
}

func TestWrappedImageIsNotDestroyed(t *testing.T) {
	dev := drivertest.NewDevice()
	handle, err := dev.CreateImage(driver.ImageInfo{})
	require.NoError(t, err)

	img := driver.WrapImage(dev, handle, driver.NewImageInfo2D(driver.FormatB8G8R8A8Srgb, 8, 8, driver.ImageUsageColorAttachment))
	assert.False(t, img.Owned())
	_, err = img.View(img.Info().DefaultView())
	require.NoError(t, err)

	img.Destroy()
	assert.Equal(t, 1, dev.Live("image"))
	assert.Zero(t, dev.Live("image view"))
}

func TestImageAccessTracking(t *testing.T) {
	dev := drivertest.NewDevice()
	img, err := driver.NewImage(dev, driver.NewImageInfo2D(driver.FormatR8G8B8A8Unorm, 1, 1, driver.ImageUsageTransferDst))
	require.NoError(t, err)

	assert.Equal(t, driver.Nothing, img.Access())
	assert.Equal(t, driver.Nothing, img.SetAccess(driver.TransferWrite))
	assert.Equal(t, driver.TransferWrite, img.SetAccess(driver.Present))
	assert.Equal(t, driver.Present, img.Access())
}

func TestCreateErrorsKeepDriverError(t *testing.T) {
	dev := drivertest.NewDevice()
	dev.FailNext("CreateBuffer", driver.OutOfMemory)

	_, err := driver.NewBuffer(dev, driver.BufferInfo{Size: 64})
	require.Error(t, err)
	var derr driver.DriverError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, driver.OutOfMemory, derr)
}

func TestCommandBufferLifecycle(t *testing.T) {
	dev := drivertest.NewDevice()
	cmd, err := driver.NewCommandBuffer(dev, 0)
	require.NoError(t, err)

	// A fresh command buffer can be waited on without any submission.
	require.NoError(t, cmd.WaitForFence())
	require.NoError(t, cmd.Reset())
	require.NoError(t, cmd.Begin())
	require.NoError(t, cmd.End())
	require.NoError(t, cmd.Submit(nil, nil))
	assert.True(t, dev.Signaled(cmd.Fence))

	dev.HoldFences()
	require.NoError(t, cmd.Submit(nil, nil))
	assert.False(t, dev.Signaled(cmd.Fence))
	dev.SignalFences()
	require.NoError(t, cmd.WaitForFence())

	cmd.Destroy()
	assert.Zero(t, dev.Live("command pool"))
	assert.Zero(t, dev.Live("fence"))
}

func TestDescriptorPoolAllocate(t *testing.T) {
	dev := drivertest.NewDevice()
	layout, err := driver.NewDescriptorSetLayout(dev, driver.DescriptorSetLayoutInfo{
		Bindings: []driver.DescriptorSetLayoutBinding{{Binding: 0, Type: driver.DescriptorTypeStorageImage, Count: 1}},
	})
	require.NoError(t, err)

	pool, err := driver.NewDescriptorPool(dev, layout.Info().PoolInfo())
	require.NoError(t, err)
	set, err := pool.AllocateDescriptorSet(layout)
	require.NoError(t, err)
	assert.Same(t, pool, set.Pool())
	assert.Same(t, layout, set.Layout())

	dev.FailNext("AllocateDescriptorSet", driver.InvalidData)
	_, err = pool.AllocateDescriptorSet(layout)
	assert.ErrorIs(t, err, driver.InvalidData)
}
