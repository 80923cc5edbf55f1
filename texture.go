package vkg

import (
	"image"
	"image/draw"
	// Load the png image loader
	_ "image/png"
	"os"

	"github.com/pkg/errors"

	"github.com/celer/vkgraph/driver"
	"github.com/celer/vkgraph/graph"
)

// LoadImageFile decodes a PNG file into RGBA pixels.
func LoadImageFile(filename string) (*image.RGBA, error) {
	reader, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	src, _, err := image.Decode(reader)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", filename)
	}
	b := src.Bounds()
	m := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(m, m.Bounds(), src, b.Min, draw.Src)
	return m, nil
}

// NewStagingBuffer creates a host visible transfer source holding the pixels
// of src laid out for format, one of the 8 bit RGBA or BGRA formats.
func (d *Device) NewStagingBuffer(src *image.RGBA, format driver.Format) (*graph.BufferBinding, error) {
	var swap bool
	switch format {
	case driver.FormatR8G8B8A8Unorm, driver.FormatR8G8B8A8Srgb:
	case driver.FormatB8G8R8A8Unorm, driver.FormatB8G8R8A8Srgb:
		swap = true
	default:
		return nil, errors.Wrapf(driver.Unsupported, "staging pixels as format %d", format)
	}

	b := src.Bounds()
	rowBytes := b.Dx() * 4
	staging, err := graph.NewBuffer(d, driver.BufferInfo{
		Size:     uint64(rowBytes * b.Dy()),
		Usage:    driver.BufferUsageTransferSrc,
		Location: driver.MemoryCPUToGPU,
	})
	if err != nil {
		return nil, err
	}

	data, err := d.MapBuffer(staging.Buffer().Handle())
	if err != nil {
		staging.Release()
		return nil, err
	}
	copyPixels(data, src, swap)
	return staging, nil
}

// copyPixels packs the rows of src into dst, swapping red and blue if swap
// is set.
func copyPixels(dst []byte, src *image.RGBA, swap bool) {
	b := src.Bounds()
	rowBytes := b.Dx() * 4
	for y := 0; y < b.Dy(); y++ {
		row := dst[y*rowBytes : (y+1)*rowBytes]
		off := src.PixOffset(b.Min.X, b.Min.Y+y)
		copy(row, src.Pix[off:off+rowBytes])
		if swap {
			for x := 0; x < rowBytes; x += 4 {
				row[x], row[x+2] = row[x+2], row[x]
			}
		}
	}
}

// CopyBufferToImagePass adds a pass to g copying the top left width x height
// pixels of src, which holds rows of rowLength texels, into the same texels
// of dst.
func CopyBufferToImagePass(g *graph.RenderGraph, src, dst graph.AnyNode, rowLength, width, height uint32) *graph.PassRef {
	subresource := g.ImageInfo(dst).Subresource()
	subresource.ArrayLayerCount = 1
	return g.BeginPass("copy buffer to image").
		AccessNode(src, driver.TransferRead).
		AccessNode(dst, driver.TransferWrite).
		Record(func(r *graph.Recording) {
			r.CopyBufferToImage(src, dst, driver.BufferImageCopy{
				BufferRowLength:   rowLength,
				BufferImageHeight: height,
				Subresource:       subresource,
				Extent:            driver.Extent3D{Width: width, Height: height, Depth: 1},
			})
		})
}

// StageImage uploads src into a new sampled RGBA image through a staging
// buffer that g releases once it has been resolved and released. The
// caller owns the returned binding.
func (d *Device) StageImage(g *graph.RenderGraph, src *image.RGBA) (*graph.ImageBinding, graph.ImageNode, error) {
	staging, err := d.NewStagingBuffer(src, driver.FormatR8G8B8A8Unorm)
	if err != nil {
		return nil, graph.ImageNode{}, err
	}
	stagingNode := g.BindBuffer(staging)
	staging.Release()

	b := src.Bounds()
	w, h := uint32(b.Dx()), uint32(b.Dy())
	img, err := graph.NewImage(d, driver.NewImageInfo2D(driver.FormatR8G8B8A8Unorm, w, h,
		driver.ImageUsageTransferDst|driver.ImageUsageSampled))
	if err != nil {
		return nil, graph.ImageNode{}, err
	}
	node := g.BindImage(img)
	CopyBufferToImagePass(g, stagingNode, node, w, w, h)
	return img, node, nil
}
