package vkg

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/celer/vkgraph/driver"
)

// boundImage is an image and the memory bound to it. Swapchain images have
// no memory of their own.
type boundImage struct {
	VKImage vk.Image
	memory  memoryAllocation

	swapchain bool
}

func vkImageCreateInfo(info driver.ImageInfo) vk.ImageCreateInfo {
	imageInfo := vk.ImageCreateInfo{
		SType:     vk.StructureTypeImageCreateInfo,
		ImageType: vk.ImageType(info.Type),
		Format:    vk.Format(info.Format),
		Extent: vk.Extent3D{
			Width:  info.Extent.Width,
			Height: info.Extent.Height,
			Depth:  max(info.Extent.Depth, 1),
		},
		MipLevels:     max(info.MipLevels, 1),
		ArrayLayers:   max(info.ArrayElements, 1),
		Samples:       vk.SampleCountFlagBits(max(info.Samples, 1)),
		Tiling:        vk.ImageTilingOptimal,
		Usage:         vk.ImageUsageFlags(info.Usage),
		SharingMode:   vk.SharingModeExclusive,
		InitialLayout: vk.ImageLayoutUndefined,
	}
	if info.Linear {
		imageInfo.Tiling = vk.ImageTilingLinear
	}
	if info.CubeCompat {
		imageInfo.Flags = vk.ImageCreateFlags(vk.ImageCreateCubeCompatibleBit)
	}
	return imageInfo
}

// CreateImage creates an image in device local memory.
func (d *Device) CreateImage(info driver.ImageInfo) (driver.Handle, error) {
	imageInfo := vkImageCreateInfo(info)

	var image vk.Image
	if err := check(vk.CreateImage(d.VKDevice, &imageInfo, nil, &image), "create image"); err != nil {
		return 0, err
	}

	var memRequirements vk.MemoryRequirements
	vk.GetImageMemoryRequirements(d.VKDevice, image, &memRequirements)

	mem, err := d.memory.allocate(memRequirements, driver.MemoryGPUOnly)
	if err != nil {
		vk.DestroyImage(d.VKDevice, image, nil)
		return 0, err
	}
	res := vk.BindImageMemory(d.VKDevice, image, mem.memory.VKDeviceMemory, vk.DeviceSize(mem.alloc.Offset))
	if err := check(res, "bind image memory"); err != nil {
		d.memory.free(mem)
		vk.DestroyImage(d.VKDevice, image, nil)
		return 0, err
	}

	return d.images.add(d.handle(), &boundImage{VKImage: image, memory: mem}), nil
}

// wrapSwapchainImage registers an image owned by a swapchain.
func (d *Device) wrapSwapchainImage(image vk.Image) driver.Handle {
	return d.images.add(d.handle(), &boundImage{VKImage: image, swapchain: true})
}

func (d *Device) DestroyImage(image driver.Handle) {
	i, ok := d.images.remove(image)
	if !ok {
		return
	}
	if !i.swapchain {
		vk.DestroyImage(d.VKDevice, i.VKImage, nil)
		d.memory.free(i.memory)
	}
}
