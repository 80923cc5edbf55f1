package vkg

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/celer/vkgraph/driver"
)

// DefaultMemoryBlockSize is used when CreateDeviceOptions leaves the block
// size unset.
const DefaultMemoryBlockSize = 64 << 20

// Device is a logical Vulkan device. It implements driver.Device: every
// object it creates is registered under a driver.Handle and looked up again
// when a handle is passed back in.
type Device struct {
	PhysicalDevice *PhysicalDevice
	VKDevice       vk.Device

	logger *slog.Logger
	queues map[int]*Queue
	memory *memoryHeap

	next atomic.Uint64

	images       *registry[*boundImage]
	imageViews   *registry[vk.ImageView]
	buffers      *registry[*boundBuffer]
	setLayouts   *registry[vk.DescriptorSetLayout]
	descPools    *registry[vk.DescriptorPool]
	descSets     *registry[descriptorSet]
	pipelines    *registry[vk.Pipeline]
	pipeLayouts  *registry[vk.PipelineLayout]
	renderPasses *registry[renderPass]
	framebuffers *registry[vk.Framebuffer]
	commandPools *registry[*CommandPool]
	commands     *registry[vk.CommandBuffer]
	fences       *registry[vk.Fence]
	semaphores   *registry[vk.Semaphore]
}

var _ driver.Device = (*Device)(nil)

func newDevice(p *PhysicalDevice, ldevice vk.Device, qfs QueueFamilySlice, options CreateDeviceOptions) *Device {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	blockSize := options.MemoryBlockSize
	if blockSize == 0 {
		blockSize = DefaultMemoryBlockSize
	}

	d := &Device{
		PhysicalDevice: p,
		VKDevice:       ldevice,
		logger:         logger,
		queues:         make(map[int]*Queue, len(qfs)),
		memory:         newMemoryHeap(ldevice, p, blockSize, logger),
		images:         newRegistry[*boundImage]("image"),
		imageViews:     newRegistry[vk.ImageView]("image view"),
		buffers:        newRegistry[*boundBuffer]("buffer"),
		setLayouts:     newRegistry[vk.DescriptorSetLayout]("descriptor set layout"),
		descPools:      newRegistry[vk.DescriptorPool]("descriptor pool"),
		descSets:       newRegistry[descriptorSet]("descriptor set"),
		pipelines:      newRegistry[vk.Pipeline]("pipeline"),
		pipeLayouts:    newRegistry[vk.PipelineLayout]("pipeline layout"),
		renderPasses:   newRegistry[renderPass]("render pass"),
		framebuffers:   newRegistry[vk.Framebuffer]("framebuffer"),
		commandPools:   newRegistry[*CommandPool]("command pool"),
		commands:       newRegistry[vk.CommandBuffer]("command buffer"),
		fences:         newRegistry[vk.Fence]("fence"),
		semaphores:     newRegistry[vk.Semaphore]("semaphore"),
	}
	for _, qf := range qfs {
		var vkq vk.Queue
		vk.GetDeviceQueue(ldevice, uint32(qf.Index), 0, &vkq)
		d.queues[qf.Index] = &Queue{QueueFamily: qf, VKQueue: vkq}
	}
	return d
}

// handle returns a fresh handle. Zero is never returned.
func (d *Device) handle() driver.Handle {
	return driver.Handle(d.next.Add(1))
}

// Queue returns the queue created for a family.
func (d *Device) Queue(queueFamily int) (*Queue, error) {
	q, ok := d.queues[queueFamily]
	if !ok {
		return nil, errors.Wrapf(driver.InvalidData, "no queue for family %d", queueFamily)
	}
	return q, nil
}

// MemoryStats reports the suballocator's usage per memory type.
func (d *Device) MemoryStats() []MemoryStats {
	return d.memory.stats()
}

func (d *Device) WaitIdle() error {
	return check(vk.DeviceWaitIdle(d.VKDevice), "wait idle")
}

// Destroy frees the memory blocks and the device. Objects created through
// the device should be destroyed first; leftovers are logged.
func (d *Device) Destroy() {
	for _, n := range []struct {
		kind  string
		count int
	}{
		{"image", d.images.len()},
		{"buffer", d.buffers.len()},
		{"descriptor pool", d.descPools.len()},
		{"render pass", d.renderPasses.len()},
		{"framebuffer", d.framebuffers.len()},
		{"command pool", d.commandPools.len()},
		{"fence", d.fences.len()},
	} {
		if n.count > 0 {
			d.logger.Warn("destroying device with live objects", "kind", n.kind, "count", n.count)
		}
	}
	d.memory.destroy()
	vk.DestroyDevice(d.VKDevice, nil)
}

func (d *Device) String() string {
	return fmt.Sprintf("{ PhysicalDevice: %s }", d.PhysicalDevice)
}
