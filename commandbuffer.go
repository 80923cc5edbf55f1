package vkg

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"

	"github.com/celer/vkgraph/driver"
)

// BeginCommandBuffer begins a one time submit recording.
func (d *Device) BeginCommandBuffer(cmd driver.Handle) error {
	beginInfo := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	return check(vk.BeginCommandBuffer(d.commands.must(cmd), &beginInfo), "begin command buffer")
}

func (d *Device) EndCommandBuffer(cmd driver.Handle) error {
	return check(vk.EndCommandBuffer(d.commands.must(cmd)), "end command buffer")
}

// CmdPipelineBarrier records b as an image, buffer or global memory barrier.
func (d *Device) CmdPipelineBarrier(cmd driver.Handle, b driver.Barrier) {
	m := b.Masks()
	src, dst := vk.PipelineStageFlags(m.SrcStage), vk.PipelineStageFlags(m.DstStage)
	c := d.commands.must(cmd)

	switch {
	case b.Image != 0:
		vk.CmdPipelineBarrier(c, src, dst, vk.DependencyFlags(0), 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{{
			SType:               vk.StructureTypeImageMemoryBarrier,
			SrcAccessMask:       vk.AccessFlags(m.SrcAccess),
			DstAccessMask:       vk.AccessFlags(m.DstAccess),
			OldLayout:           vk.ImageLayout(m.OldLayout),
			NewLayout:           vk.ImageLayout(m.NewLayout),
			SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
			DstQueueFamilyIndex: vk.QueueFamilyIgnored,
			Image:               d.images.must(b.Image).VKImage,
			SubresourceRange:    vkSubresourceRange(b.Subresource),
		}})
	case b.Buffer != 0:
		vk.CmdPipelineBarrier(c, src, dst, vk.DependencyFlags(0), 0, nil, 1, []vk.BufferMemoryBarrier{{
			SType:               vk.StructureTypeBufferMemoryBarrier,
			SrcAccessMask:       vk.AccessFlags(m.SrcAccess),
			DstAccessMask:       vk.AccessFlags(m.DstAccess),
			SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
			DstQueueFamilyIndex: vk.QueueFamilyIgnored,
			Buffer:              d.buffers.must(b.Buffer).VKBuffer,
			Offset:              0,
			Size:                vk.DeviceSize(vk.WholeSize),
		}}, 0, nil)
	default:
		vk.CmdPipelineBarrier(c, src, dst, vk.DependencyFlags(0), 1, []vk.MemoryBarrier{{
			SType:         vk.StructureTypeMemoryBarrier,
			SrcAccessMask: vk.AccessFlags(m.SrcAccess),
			DstAccessMask: vk.AccessFlags(m.DstAccess),
		}}, 0, nil, 0, nil)
	}
}

func (d *Device) CmdBindPipeline(cmd driver.Handle, bindPoint driver.PipelineBindPoint, pipeline driver.Handle) {
	vk.CmdBindPipeline(d.commands.must(cmd), vk.PipelineBindPoint(bindPoint), d.pipelines.must(pipeline))
}

func (d *Device) CmdBindDescriptorSets(cmd driver.Handle, bindPoint driver.PipelineBindPoint, layout driver.Handle, firstSet uint32, sets []driver.Handle) {
	vkSets := make([]vk.DescriptorSet, len(sets))
	for i, s := range sets {
		vkSets[i] = d.descSets.must(s).VKDescriptorSet
	}
	vk.CmdBindDescriptorSets(d.commands.must(cmd), vk.PipelineBindPoint(bindPoint),
		d.pipeLayouts.must(layout), firstSet, uint32(len(vkSets)), vkSets, 0, nil)
}

func (d *Device) CmdPushConstants(cmd driver.Handle, layout driver.Handle, stages driver.ShaderStageFlags, offset uint32, data []byte) {
	if len(data) == 0 {
		return
	}
	vk.CmdPushConstants(d.commands.must(cmd), d.pipeLayouts.must(layout), vk.ShaderStageFlags(stages),
		offset, uint32(len(data)), unsafe.Pointer(&data[0]))
}

func (d *Device) CmdDispatch(cmd driver.Handle, x, y, z uint32) {
	vk.CmdDispatch(d.commands.must(cmd), x, y, z)
}

func (d *Device) CmdDraw(cmd driver.Handle, vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	vk.CmdDraw(d.commands.must(cmd), vertexCount, instanceCount, firstVertex, firstInstance)
}

func (d *Device) CmdClearColorImage(cmd driver.Handle, image driver.Handle, layout driver.ImageLayout, color [4]float32, subresource driver.ImageSubresource) {
	var cv vk.ClearColorValue
	*(*[4]float32)(unsafe.Pointer(&cv)) = color
	vk.CmdClearColorImage(d.commands.must(cmd), d.images.must(image).VKImage, vk.ImageLayout(layout),
		&cv, 1, []vk.ImageSubresourceRange{vkSubresourceRange(subresource)})
}

func (d *Device) CmdCopyBuffer(cmd driver.Handle, src, dst driver.Handle, regions []driver.BufferCopy) {
	rg := make([]vk.BufferCopy, len(regions))
	for i, r := range regions {
		rg[i] = vk.BufferCopy{
			SrcOffset: vk.DeviceSize(r.SrcOffset),
			DstOffset: vk.DeviceSize(r.DstOffset),
			Size:      vk.DeviceSize(r.Size),
		}
	}
	vk.CmdCopyBuffer(d.commands.must(cmd), d.buffers.must(src).VKBuffer, d.buffers.must(dst).VKBuffer, uint32(len(rg)), rg)
}

func (d *Device) CmdCopyBufferToImage(cmd driver.Handle, src, dst driver.Handle, layout driver.ImageLayout, regions []driver.BufferImageCopy) {
	rg := make([]vk.BufferImageCopy, len(regions))
	for i, r := range regions {
		rg[i] = vk.BufferImageCopy{
			BufferOffset:      vk.DeviceSize(r.BufferOffset),
			BufferRowLength:   r.BufferRowLength,
			BufferImageHeight: r.BufferImageHeight,
			ImageSubresource:  vkSubresourceLayers(r.Subresource),
			ImageOffset:       vk.Offset3D{X: r.Offset.X, Y: r.Offset.Y, Z: r.Offset.Z},
			ImageExtent: vk.Extent3D{
				Width:  r.Extent.Width,
				Height: r.Extent.Height,
				Depth:  max(r.Extent.Depth, 1),
			},
		}
	}
	vk.CmdCopyBufferToImage(d.commands.must(cmd), d.buffers.must(src).VKBuffer, d.images.must(dst).VKImage,
		vk.ImageLayout(layout), uint32(len(rg)), rg)
}

func (d *Device) CmdFillBuffer(cmd driver.Handle, buffer driver.Handle, offset, size uint64, data uint32) {
	vk.CmdFillBuffer(d.commands.must(cmd), d.buffers.must(buffer).VKBuffer, vk.DeviceSize(offset), vk.DeviceSize(size), data)
}
