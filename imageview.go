package vkg

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/celer/vkgraph/driver"
)

func vkSubresourceRange(s driver.ImageSubresource) vk.ImageSubresourceRange {
	return vk.ImageSubresourceRange{
		AspectMask:     vk.ImageAspectFlags(s.Aspect),
		BaseMipLevel:   s.BaseMipLevel,
		LevelCount:     s.MipLevelCount,
		BaseArrayLayer: s.BaseArrayLayer,
		LayerCount:     s.ArrayLayerCount,
	}
}

func vkSubresourceLayers(s driver.ImageSubresource) vk.ImageSubresourceLayers {
	return vk.ImageSubresourceLayers{
		AspectMask:     vk.ImageAspectFlags(s.Aspect),
		MipLevel:       s.BaseMipLevel,
		BaseArrayLayer: s.BaseArrayLayer,
		LayerCount:     s.ArrayLayerCount,
	}
}

func (d *Device) CreateImageView(image driver.Handle, info driver.ImageViewInfo) (driver.Handle, error) {
	createImage := &vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    d.images.must(image).VKImage,
		ViewType: vk.ImageViewType(info.Type),
		Format:   vk.Format(info.Format),
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleR,
			G: vk.ComponentSwizzleG,
			B: vk.ComponentSwizzleB,
			A: vk.ComponentSwizzleA,
		},
		SubresourceRange: vkSubresourceRange(info.Subresource),
	}

	var view vk.ImageView
	if err := check(vk.CreateImageView(d.VKDevice, createImage, nil, &view), "create image view"); err != nil {
		return 0, err
	}
	return d.imageViews.add(d.handle(), view), nil
}

func (d *Device) DestroyImageView(view driver.Handle) {
	if v, ok := d.imageViews.remove(view); ok {
		vk.DestroyImageView(d.VKDevice, v, nil)
	}
}
