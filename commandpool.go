package vkg

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/celer/vkgraph/driver"
)

type CommandPool struct {
	VKCommandPool vk.CommandPool
	QueueFamily   int

	buffers []driver.Handle
}

func (d *Device) CreateCommandPool(queueFamily int) (driver.Handle, error) {
	if _, err := d.Queue(queueFamily); err != nil {
		return 0, err
	}

	commandPoolCreateInfo := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateTransientBit),
		QueueFamilyIndex: uint32(queueFamily),
	}

	var commandPool vk.CommandPool
	if err := check(vk.CreateCommandPool(d.VKDevice, &commandPoolCreateInfo, nil, &commandPool), "create command pool"); err != nil {
		return 0, err
	}
	return d.commandPools.add(d.handle(), &CommandPool{VKCommandPool: commandPool, QueueFamily: queueFamily}), nil
}

// ResetCommandPool returns every command buffer of the pool to the initial
// state.
func (d *Device) ResetCommandPool(pool driver.Handle) error {
	p := d.commandPools.must(pool)
	return check(vk.ResetCommandPool(d.VKDevice, p.VKCommandPool, 0), "reset command pool")
}

// DestroyCommandPool destroys the pool and frees its command buffers.
func (d *Device) DestroyCommandPool(pool driver.Handle) {
	p, ok := d.commandPools.remove(pool)
	if !ok {
		return
	}
	for _, cmd := range p.buffers {
		d.commands.remove(cmd)
	}
	vk.DestroyCommandPool(d.VKDevice, p.VKCommandPool, nil)
}

// AllocateCommandBuffer allocates a primary command buffer from pool.
func (d *Device) AllocateCommandBuffer(pool driver.Handle) (driver.Handle, error) {
	p := d.commandPools.must(pool)

	allocateInfo := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        p.VKCommandPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}

	cmdBuffers := make([]vk.CommandBuffer, 1)
	if err := check(vk.AllocateCommandBuffers(d.VKDevice, &allocateInfo, cmdBuffers), "allocate command buffer"); err != nil {
		return 0, err
	}
	h := d.commands.add(d.handle(), cmdBuffers[0])
	p.buffers = append(p.buffers, h)
	return h, nil
}
