package driver

import "fmt"

// MaxColorAttachments bounds the color attachments of one render pass.
const MaxColorAttachments = 8

// AttachmentLoadOp mirrors VkAttachmentLoadOp.
type AttachmentLoadOp int32

const (
	AttachmentLoadOpLoad     AttachmentLoadOp = 0
	AttachmentLoadOpClear    AttachmentLoadOp = 1
	AttachmentLoadOpDontCare AttachmentLoadOp = 2
)

// AttachmentInfo describes one attachment of a single subpass render pass.
// The attachment stays in Layout for the whole render pass and is always
// stored.
type AttachmentInfo struct {
	Format  Format
	Samples uint32
	Layout  ImageLayout
	LoadOp  AttachmentLoadOp
}

// RenderPassInfo describes a render pass with one graphics subpass. It is
// comparable and used as a cache key.
type RenderPassInfo struct {
	Colors     [MaxColorAttachments]AttachmentInfo
	ColorCount uint32
	Depth      AttachmentInfo
	HasDepth   bool
}

// Attachments lists the color attachments followed by the depth attachment,
// which is the order framebuffers and clear values follow.
func (i RenderPassInfo) Attachments() []AttachmentInfo {
	a := append([]AttachmentInfo(nil), i.Colors[:i.ColorCount]...)
	if i.HasDepth {
		a = append(a, i.Depth)
	}
	return a
}

// RenderPass is a render pass object. Render passes with equal infos are
// interchangeable.
type RenderPass struct {
	device Device
	handle Handle
	info   RenderPassInfo
}

func NewRenderPass(device Device, info RenderPassInfo) (*RenderPass, error) {
	handle, err := device.CreateRenderPass(info)
	if err != nil {
		return nil, fmt.Errorf("create render pass: %w", err)
	}
	return &RenderPass{device: device, handle: handle, info: info}, nil
}

func (p *RenderPass) Handle() Handle {
	return p.handle
}

func (p *RenderPass) Info() RenderPassInfo {
	return p.info
}

func (p *RenderPass) Destroy() {
	if p.handle != 0 {
		p.device.DestroyRenderPass(p.handle)
		p.handle = 0
	}
}

// FramebufferInfo binds image views to the attachments of a render pass.
type FramebufferInfo struct {
	RenderPass    Handle
	Attachments   []Handle
	Width, Height uint32
}

// Framebuffer is a set of image views a render pass instance draws into.
type Framebuffer struct {
	device Device
	handle Handle
}

func NewFramebuffer(device Device, info FramebufferInfo) (*Framebuffer, error) {
	handle, err := device.CreateFramebuffer(info)
	if err != nil {
		return nil, fmt.Errorf("create framebuffer: %w", err)
	}
	return &Framebuffer{device: device, handle: handle}, nil
}

func (f *Framebuffer) Handle() Handle {
	return f.handle
}

func (f *Framebuffer) Destroy() {
	if f.handle != 0 {
		f.device.DestroyFramebuffer(f.handle)
		f.handle = 0
	}
}

// ClearValue is the clear color of a color attachment or the clear depth
// and stencil of a depth attachment.
type ClearValue struct {
	Color   [4]float32
	Depth   float32
	Stencil uint32
}

// RenderPassBegin starts a render pass instance over the whole framebuffer.
// ClearValues has one entry per attachment in framebuffer order.
type RenderPassBegin struct {
	RenderPass    Handle
	Framebuffer   Handle
	Width, Height uint32
	ClearValues   []ClearValue
}
