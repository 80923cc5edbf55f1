package vkg

import (
	"log/slog"
	"sync"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/celer/vkgraph/driver"
)

// Swapchain presents images to a surface. It implements driver.Swapchain.
type Swapchain struct {
	Device      *Device
	VKSwapchain vk.Swapchain
	Extent      vk.Extent2D
	Format      vk.Format

	presentFamily int
	logger        *slog.Logger

	mu         sync.Mutex
	images     []*driver.SwapchainImage
	spare      driver.Handle
	suboptimal bool
}

var _ driver.Swapchain = (*Swapchain)(nil)

type CreateSwapchainOptions struct {
	OldSwapchain *Swapchain

	// ActualSize is used when the surface leaves the extent to the
	// swapchain, which is the case for most window systems on resize.
	ActualSize vk.Extent2D

	// DesiredNumSwapchainImages defaults to the surface minimum plus one.
	DesiredNumSwapchainImages int

	// PresentMode falls back to FIFO when the surface lacks it.
	PresentMode vk.PresentMode

	GraphicsQueueFamily int
	PresentQueueFamily  int

	Logger *slog.Logger
}

func (d *Device) DefaultNumSwapchainImages(surface vk.Surface) (int, error) {
	caps, err := d.PhysicalDevice.GetSurfaceCapabilities(surface)
	if err != nil {
		return 0, err
	}
	return int(caps.MinImageCount) + 1, nil
}

// CreateSwapchain creates a swapchain on surface with images usable as
// color attachments, transfer destinations and storage when supported.
func (d *Device) CreateSwapchain(surface vk.Surface, options CreateSwapchainOptions) (*Swapchain, error) {
	logger := options.Logger
	if logger == nil {
		logger = d.logger
	}

	modes, err := d.PhysicalDevice.GetSurfacePresentModes(surface)
	if err != nil {
		return nil, err
	}
	presentMode := vk.PresentModeFifo
	if options.PresentMode != presentMode && modes.Contains(options.PresentMode) {
		presentMode = options.PresentMode
	}

	formats, err := d.PhysicalDevice.GetSurfaceFormats(surface)
	if err != nil {
		return nil, err
	}
	if len(formats) == 0 {
		return nil, errors.Wrap(driver.Unsupported, "surface reports no formats")
	}
	format, ok := formats.Find(func(f vk.SurfaceFormat) bool {
		return f.Format == vk.FormatB8g8r8a8Unorm
	})
	if !ok {
		format = formats[0]
		format.Deref()
	}

	caps, err := d.PhysicalDevice.GetSurfaceCapabilities(surface)
	if err != nil {
		return nil, err
	}

	extent := caps.CurrentExtent
	if extent.Width == vk.MaxUint32 {
		extent = options.ActualSize
		extent.Width = min(max(extent.Width, caps.MinImageExtent.Width), caps.MaxImageExtent.Width)
		extent.Height = min(max(extent.Height, caps.MinImageExtent.Height), caps.MaxImageExtent.Height)
	}

	imageCount := options.DesiredNumSwapchainImages
	if imageCount == 0 {
		imageCount = int(caps.MinImageCount) + 1
	}
	imageCount = max(imageCount, int(caps.MinImageCount))
	if caps.MaxImageCount > 0 {
		imageCount = min(imageCount, int(caps.MaxImageCount))
	}

	usage := vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit) | vk.ImageUsageFlags(vk.ImageUsageTransferDstBit)
	if caps.SupportedUsageFlags&vk.ImageUsageFlags(vk.ImageUsageStorageBit) != 0 {
		usage |= vk.ImageUsageFlags(vk.ImageUsageStorageBit)
	}

	createInfo := &vk.SwapchainCreateInfo{
		SType:            vk.StructureTypeSwapchainCreateInfo,
		Surface:          surface,
		MinImageCount:    uint32(imageCount),
		ImageFormat:      format.Format,
		ImageColorSpace:  format.ColorSpace,
		ImageExtent:      extent,
		PresentMode:      presentMode,
		ImageUsage:       usage,
		ImageArrayLayers: 1,
		Clipped:          vk.True,
		PreTransform:     caps.CurrentTransform,
		CompositeAlpha:   vk.CompositeAlphaOpaqueBit,
		OldSwapchain:     vk.NullSwapchain,
		ImageSharingMode: vk.SharingModeExclusive,
	}
	if options.OldSwapchain != nil {
		createInfo.OldSwapchain = options.OldSwapchain.VKSwapchain
	}
	if options.GraphicsQueueFamily != options.PresentQueueFamily {
		createInfo.QueueFamilyIndexCount = 2
		createInfo.PQueueFamilyIndices = []uint32{uint32(options.GraphicsQueueFamily), uint32(options.PresentQueueFamily)}
		createInfo.ImageSharingMode = vk.SharingModeConcurrent
	}

	var swapchain vk.Swapchain
	if err := check(vk.CreateSwapchain(d.VKDevice, createInfo, nil, &swapchain), "create swapchain"); err != nil {
		return nil, err
	}

	s := &Swapchain{
		Device:        d,
		VKSwapchain:   swapchain,
		Extent:        extent,
		Format:        format.Format,
		presentFamily: options.PresentQueueFamily,
		logger:        logger,
	}
	if err := s.wrapImages(driver.ImageUsageFlags(usage)); err != nil {
		s.Destroy()
		return nil, err
	}

	logger.Info("created swapchain",
		"images", len(s.images),
		"width", extent.Width,
		"height", extent.Height,
		"format", format.Format,
		"present_mode", presentMode)
	return s, nil
}

func (s *Swapchain) wrapImages(usage driver.ImageUsageFlags) error {
	d := s.Device

	var imageCount uint32
	if err := check(vk.GetSwapchainImages(d.VKDevice, s.VKSwapchain, &imageCount, nil), "get swapchain images"); err != nil {
		return err
	}
	swapchainImages := make([]vk.Image, imageCount)
	if err := check(vk.GetSwapchainImages(d.VKDevice, s.VKSwapchain, &imageCount, swapchainImages), "get swapchain images"); err != nil {
		return err
	}

	info := driver.NewImageInfo2D(driver.Format(s.Format), s.Extent.Width, s.Extent.Height, usage)

	var err error
	if s.spare, err = d.CreateSemaphore(); err != nil {
		return err
	}
	for i, image := range swapchainImages {
		img := &driver.SwapchainImage{
			Image: driver.WrapImage(d, d.wrapSwapchainImage(image), info),
			Index: uint32(i),
		}
		s.images = append(s.images, img)
		if img.Acquired, err = d.CreateSemaphore(); err != nil {
			return err
		}
		if img.Rendered, err = d.CreateSemaphore(); err != nil {
			return err
		}
	}
	return nil
}

// Images returns the swapchain images in index order.
func (s *Swapchain) Images() []*driver.SwapchainImage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*driver.SwapchainImage(nil), s.images...)
}

// Suboptimal reports whether acquisition or presentation found the
// swapchain no longer matching its surface. The swapchain keeps working
// but should be recreated.
func (s *Swapchain) Suboptimal() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.suboptimal
}

// AcquireNextImage blocks until the presentation engine releases an image.
// The returned image's Acquired semaphore signals once it may be written.
func (s *Swapchain) AcquireNextImage() (*driver.SwapchainImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.Device
	var index uint32
	res := vk.AcquireNextImage(d.VKDevice, s.VKSwapchain, vk.MaxUint64, d.semaphores.must(s.spare), vk.NullFence, &index)
	switch res {
	case vk.Success:
	case vk.Suboptimal:
		s.suboptimal = true
	default:
		return nil, errors.Wrapf(swapchainError(res), "acquire next image: %v", vk.Error(res))
	}
	if int(index) >= len(s.images) {
		return nil, errors.Wrapf(driver.SwapchainDeviceLost, "acquired image index %d out of range", index)
	}

	// The image's previous acquire semaphore has been waited on by the
	// submission that rendered it, so it becomes the next spare.
	img := s.images[index]
	img.Acquired, s.spare = s.spare, img.Acquired
	return img, nil
}

// PresentImage queues image for presentation after its Rendered semaphore.
func (s *Swapchain) PresentImage(image *driver.SwapchainImage) error {
	q, err := s.Device.Queue(s.presentFamily)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res := q.present(&vk.PresentInfo{
		SType:              vk.StructureTypePresentInfo,
		WaitSemaphoreCount: 1,
		PWaitSemaphores:    []vk.Semaphore{s.Device.semaphores.must(image.Rendered)},
		SwapchainCount:     1,
		PSwapchains:        []vk.Swapchain{s.VKSwapchain},
		PImageIndices:      []uint32{image.Index},
	})
	switch res {
	case vk.Success:
		return nil
	case vk.Suboptimal:
		s.suboptimal = true
		return nil
	default:
		return errors.Wrapf(swapchainError(res), "present image %d: %v", image.Index, vk.Error(res))
	}
}

// Destroy releases the swapchain and its semaphores. The device must be
// idle.
func (s *Swapchain) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.Device
	for _, img := range s.images {
		d.DestroySemaphore(img.Acquired)
		d.DestroySemaphore(img.Rendered)
		d.images.remove(img.Handle())
	}
	s.images = nil
	d.DestroySemaphore(s.spare)
	s.spare = 0
	vk.DestroySwapchain(d.VKDevice, s.VKSwapchain, nil)
}
