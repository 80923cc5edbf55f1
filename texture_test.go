package vkg

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/celer/vkgraph/driver"
	"github.com/celer/vkgraph/driver/drivertest"
	"github.com/celer/vkgraph/graph"
)

func TestCopyPixels(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	src.SetRGBA(1, 1, color.RGBA{R: 10, G: 20, B: 30, A: 40})
	src.SetRGBA(2, 1, color.RGBA{R: 50, G: 60, B: 70, A: 80})
	sub := src.SubImage(image.Rect(1, 1, 3, 2)).(*image.RGBA)

	rgba := make([]byte, 8)
	copyPixels(rgba, sub, false)
	assert.Equal(t, []byte{10, 20, 30, 40, 50, 60, 70, 80}, rgba)

	bgra := make([]byte, 8)
	copyPixels(bgra, sub, true)
	assert.Equal(t, []byte{30, 20, 10, 40, 70, 60, 50, 80}, bgra)
}

func TestCopyBufferToImagePass(t *testing.T) {
	dev := drivertest.NewDevice()

	staging, err := graph.NewBuffer(dev, driver.BufferInfo{
		Size:     64 * 64 * 4,
		Usage:    driver.BufferUsageTransferSrc,
		Location: driver.MemoryCPUToGPU,
	})
	require.NoError(t, err)
	defer staging.Release()

	img, err := graph.NewImage(dev, driver.NewImageInfo2D(driver.FormatB8G8R8A8Unorm, 32, 32, driver.ImageUsageTransferDst))
	require.NoError(t, err)
	defer img.Release()

	g := graph.New()
	src, dst := g.BindBuffer(staging), g.BindImage(img)
	CopyBufferToImagePass(g, src, dst, 64, 32, 32)

	r := g.Resolve()
	defer r.Release()
	assert.Equal(t, driver.TransferRead, r.LastAccess(src))
	assert.Equal(t, driver.TransferWrite, r.LastAccess(dst))

	cmd, err := driver.NewCommandBuffer(dev, 0)
	require.NoError(t, err)
	defer cmd.Destroy()
	require.NoError(t, r.RecordUnscheduledPasses(nil, cmd))

	var copies []drivertest.Call
	for _, c := range dev.Calls() {
		if c.Op == "CmdCopyBufferToImage" {
			copies = append(copies, c)
		}
	}
	require.Len(t, copies, 1)
	assert.Equal(t, img.Image().Handle(), copies[0].Handle)
	assert.Equal(t, []uint64{uint64(staging.Buffer().Handle()), uint64(driver.ImageLayoutTransferDstOptimal), 1}, copies[0].Args)
}
