package vkg

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/celer/vkgraph/driver"
)

// boundBuffer is a buffer and the memory bound to it.
type boundBuffer struct {
	VKBuffer vk.Buffer
	Size     uint64
	Location driver.MemoryLocation
	memory   memoryAllocation
}

// CreateBuffer creates a buffer with memory chosen by info.Location.
func (d *Device) CreateBuffer(info driver.BufferInfo) (driver.Handle, error) {
	bufferCreateInfo := vk.BufferCreateInfo{
		SType:       vk.StructureTypeBufferCreateInfo,
		Size:        vk.DeviceSize(info.Size),
		Usage:       vk.BufferUsageFlags(info.Usage),
		SharingMode: vk.SharingModeExclusive,
	}

	var buffer vk.Buffer
	if err := check(vk.CreateBuffer(d.VKDevice, &bufferCreateInfo, nil, &buffer), "create buffer"); err != nil {
		return 0, err
	}

	var memoryRequirements vk.MemoryRequirements
	vk.GetBufferMemoryRequirements(d.VKDevice, buffer, &memoryRequirements)

	mem, err := d.memory.allocate(memoryRequirements, info.Location)
	if err != nil {
		vk.DestroyBuffer(d.VKDevice, buffer, nil)
		return 0, err
	}
	res := vk.BindBufferMemory(d.VKDevice, buffer, mem.memory.VKDeviceMemory, vk.DeviceSize(mem.alloc.Offset))
	if err := check(res, "bind buffer memory"); err != nil {
		d.memory.free(mem)
		vk.DestroyBuffer(d.VKDevice, buffer, nil)
		return 0, err
	}

	return d.buffers.add(d.handle(), &boundBuffer{VKBuffer: buffer, Size: info.Size, Location: info.Location, memory: mem}), nil
}

func (d *Device) DestroyBuffer(buffer driver.Handle) {
	b, ok := d.buffers.remove(buffer)
	if !ok {
		return
	}
	vk.DestroyBuffer(d.VKDevice, b.VKBuffer, nil)
	d.memory.free(b.memory)
}

// MapBuffer returns the host view of a buffer created with a CPU visible
// location. The view stays valid until the buffer is destroyed; reads must
// wait for the fence of the submission that wrote it.
func (d *Device) MapBuffer(buffer driver.Handle) ([]byte, error) {
	b := d.buffers.must(buffer)
	if b.Location == driver.MemoryGPUOnly {
		return nil, errors.Wrap(driver.InvalidData, "map buffer: gpu only memory")
	}
	data, err := d.memory.mapping(b.memory)
	if err != nil {
		return nil, err
	}
	return data[:b.Size], nil
}

// CreateAccelerationStructure always fails: the bindings expose no ray
// tracing extension.
func (d *Device) CreateAccelerationStructure(info driver.AccelerationStructureInfo) (driver.Handle, error) {
	return 0, errors.Wrap(driver.Unsupported, "acceleration structures")
}

func (d *Device) DestroyAccelerationStructure(driver.Handle) {}
