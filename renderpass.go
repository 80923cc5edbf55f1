package vkg

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/celer/vkgraph/driver"
)

type renderPass struct {
	vk       vk.RenderPass
	hasDepth bool
}

func vkAttachmentDescription(a driver.AttachmentInfo) vk.AttachmentDescription {
	desc := vk.AttachmentDescription{
		Format:         vk.Format(a.Format),
		Samples:        vk.SampleCountFlagBits(max(a.Samples, 1)),
		LoadOp:         vk.AttachmentLoadOp(a.LoadOp),
		StoreOp:        vk.AttachmentStoreOpStore,
		StencilLoadOp:  vk.AttachmentLoadOpDontCare,
		StencilStoreOp: vk.AttachmentStoreOpDontCare,
		InitialLayout:  vk.ImageLayout(a.Layout),
		FinalLayout:    vk.ImageLayout(a.Layout),
	}
	if a.Format.Aspect()&driver.ImageAspectStencil != 0 {
		desc.StencilLoadOp = desc.LoadOp
		desc.StencilStoreOp = vk.AttachmentStoreOpStore
	}
	return desc
}

// CreateRenderPass creates a render pass of one graphics subpass. The
// attachments keep their layout throughout, so the barriers recorded around
// the render pass are the only synchronization it needs.
func (d *Device) CreateRenderPass(info driver.RenderPassInfo) (driver.Handle, error) {
	attachments := info.Attachments()
	descs := make([]vk.AttachmentDescription, len(attachments))
	for i, a := range attachments {
		descs[i] = vkAttachmentDescription(a)
	}

	colors := make([]vk.AttachmentReference, info.ColorCount)
	for i := range colors {
		colors[i] = vk.AttachmentReference{
			Attachment: uint32(i),
			Layout:     vk.ImageLayout(info.Colors[i].Layout),
		}
	}
	subpass := vk.SubpassDescription{
		PipelineBindPoint:    vk.PipelineBindPointGraphics,
		ColorAttachmentCount: uint32(len(colors)),
		PColorAttachments:    colors,
	}
	if info.HasDepth {
		subpass.PDepthStencilAttachment = &vk.AttachmentReference{
			Attachment: info.ColorCount,
			Layout:     vk.ImageLayout(info.Depth.Layout),
		}
	}

	createInfo := vk.RenderPassCreateInfo{
		SType:           vk.StructureTypeRenderPassCreateInfo,
		AttachmentCount: uint32(len(descs)),
		PAttachments:    descs,
		SubpassCount:    1,
		PSubpasses:      []vk.SubpassDescription{subpass},
	}

	var rp vk.RenderPass
	if err := check(vk.CreateRenderPass(d.VKDevice, &createInfo, nil, &rp), "create render pass"); err != nil {
		return 0, err
	}
	return d.renderPasses.add(d.handle(), renderPass{vk: rp, hasDepth: info.HasDepth}), nil
}

func (d *Device) DestroyRenderPass(h driver.Handle) {
	if rp, ok := d.renderPasses.remove(h); ok {
		vk.DestroyRenderPass(d.VKDevice, rp.vk, nil)
	}
}

func (d *Device) CreateFramebuffer(info driver.FramebufferInfo) (driver.Handle, error) {
	views := make([]vk.ImageView, len(info.Attachments))
	for i, v := range info.Attachments {
		views[i] = d.imageViews.must(v)
	}
	createInfo := vk.FramebufferCreateInfo{
		SType:           vk.StructureTypeFramebufferCreateInfo,
		RenderPass:      d.renderPasses.must(info.RenderPass).vk,
		AttachmentCount: uint32(len(views)),
		PAttachments:    views,
		Width:           info.Width,
		Height:          info.Height,
		Layers:          1,
	}

	var framebuffer vk.Framebuffer
	if err := check(vk.CreateFramebuffer(d.VKDevice, &createInfo, nil, &framebuffer), "create framebuffer"); err != nil {
		return 0, err
	}
	return d.framebuffers.add(d.handle(), framebuffer), nil
}

func (d *Device) DestroyFramebuffer(framebuffer driver.Handle) {
	if fb, ok := d.framebuffers.remove(framebuffer); ok {
		vk.DestroyFramebuffer(d.VKDevice, fb, nil)
	}
}

// CmdBeginRenderPass begins an inline render pass over the whole framebuffer
// and points the dynamic viewport and scissor at it.
func (d *Device) CmdBeginRenderPass(cmd driver.Handle, begin driver.RenderPassBegin) {
	c := d.commands.must(cmd)
	rp := d.renderPasses.must(begin.RenderPass)
	extent := vk.Extent2D{Width: begin.Width, Height: begin.Height}

	clears := make([]vk.ClearValue, len(begin.ClearValues))
	for i, cv := range begin.ClearValues {
		if rp.hasDepth && i == len(begin.ClearValues)-1 {
			clears[i] = vk.NewClearDepthStencil(cv.Depth, cv.Stencil)
			continue
		}
		clears[i] = vk.NewClearValue(cv.Color[:])
	}

	vk.CmdBeginRenderPass(c, &vk.RenderPassBeginInfo{
		SType:           vk.StructureTypeRenderPassBeginInfo,
		RenderPass:      rp.vk,
		Framebuffer:     d.framebuffers.must(begin.Framebuffer),
		RenderArea:      vk.Rect2D{Extent: extent},
		ClearValueCount: uint32(len(clears)),
		PClearValues:    clears,
	}, vk.SubpassContentsInline)

	vk.CmdSetViewport(c, 0, 1, []vk.Viewport{{
		Width:    float32(begin.Width),
		Height:   float32(begin.Height),
		MaxDepth: 1,
	}})
	vk.CmdSetScissor(c, 0, 1, []vk.Rect2D{{Extent: extent}})
}

func (d *Device) CmdEndRenderPass(cmd driver.Handle) {
	vk.CmdEndRenderPass(d.commands.must(cmd))
}
