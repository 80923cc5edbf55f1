package vkg

import (
	"log/slog"
	"slices"
	"sync"
	"unsafe"

	units "github.com/docker/go-units"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/celer/vkgraph/driver"
)

// DeviceMemory is one vkAllocateMemory block that images and buffers are
// suballocated from.
type DeviceMemory struct {
	VKDeviceMemory vk.DeviceMemory
	TypeIndex      uint32
	Size           uint64

	allocator LinearAllocator

	// mapped is the whole block mapped into host memory, set on first use
	// and valid until the block is freed.
	mapped unsafe.Pointer
}

// memoryAllocation is the part of a block bound to one image or buffer.
type memoryAllocation struct {
	memory *DeviceMemory
	alloc  *Allocation
}

// memoryHeap suballocates device memory. Requests that do not fit into
// the block size get a dedicated block.
type memoryHeap struct {
	device    vk.Device
	physical  *PhysicalDevice
	blockSize uint64
	logger    *slog.Logger

	mu     sync.Mutex
	blocks map[uint32][]*DeviceMemory
}

func newMemoryHeap(device vk.Device, physical *PhysicalDevice, blockSize uint64, logger *slog.Logger) *memoryHeap {
	return &memoryHeap{
		device:    device,
		physical:  physical,
		blockSize: blockSize,
		logger:    logger,
		blocks:    make(map[uint32][]*DeviceMemory),
	}
}

// memoryProperties returns the required and the preferred property flags for
// a memory location.
func memoryProperties(location driver.MemoryLocation) (required, preferred vk.MemoryPropertyFlagBits) {
	switch location {
	case driver.MemoryCPUToGPU:
		required = vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit
		return required, required | vk.MemoryPropertyDeviceLocalBit
	case driver.MemoryGPUToCPU:
		required = vk.MemoryPropertyHostVisibleBit | vk.MemoryPropertyHostCoherentBit
		return required, required | vk.MemoryPropertyHostCachedBit
	}
	return vk.MemoryPropertyDeviceLocalBit, vk.MemoryPropertyDeviceLocalBit
}

func (h *memoryHeap) allocate(req vk.MemoryRequirements, location driver.MemoryLocation) (memoryAllocation, error) {
	req.Deref()
	required, preferred := memoryProperties(location)
	typeIndex, err := h.physical.FindMemoryType(req.MemoryTypeBits, preferred)
	if err != nil {
		typeIndex, err = h.physical.FindMemoryType(req.MemoryTypeBits, required)
		if err != nil {
			return memoryAllocation{}, err
		}
	}

	size, align := uint64(req.Size), uint64(req.Alignment)

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, m := range h.blocks[typeIndex] {
		if a := m.allocator.Allocate(size, align); a != nil {
			return memoryAllocation{memory: m, alloc: a}, nil
		}
	}

	blockSize := h.blockSize
	if size > blockSize {
		blockSize = size
	}
	m, err := h.allocateBlock(typeIndex, blockSize)
	if err != nil {
		return memoryAllocation{}, err
	}
	a := m.allocator.Allocate(size, align)
	if a == nil {
		return memoryAllocation{}, errors.Wrap(driver.OutOfMemory, "fresh memory block too small")
	}
	return memoryAllocation{memory: m, alloc: a}, nil
}

func (h *memoryHeap) allocateBlock(typeIndex uint32, size uint64) (*DeviceMemory, error) {
	allocateInfo := vk.MemoryAllocateInfo{
		SType:           vk.StructureTypeMemoryAllocateInfo,
		AllocationSize:  vk.DeviceSize(size),
		MemoryTypeIndex: typeIndex,
	}

	var memory vk.DeviceMemory
	if err := check(vk.AllocateMemory(h.device, &allocateInfo, nil, &memory), "allocate memory"); err != nil {
		return nil, err
	}

	m := &DeviceMemory{
		VKDeviceMemory: memory,
		TypeIndex:      typeIndex,
		Size:           size,
		allocator:      LinearAllocator{Size: size},
	}
	h.blocks[typeIndex] = append(h.blocks[typeIndex], m)
	h.logger.Debug("memory block allocated",
		"type", typeIndex,
		"size", units.BytesSize(float64(size)),
		"blocks", len(h.blocks[typeIndex]),
	)
	return m, nil
}

func (h *memoryHeap) free(a memoryAllocation) {
	if a.memory == nil {
		return
	}
	h.mu.Lock()
	a.memory.allocator.Free(a.alloc)
	h.mu.Unlock()
}

// mapping returns the host view of a, mapping its block if needed. The
// memory must be host visible.
func (h *memoryHeap) mapping(a memoryAllocation) ([]byte, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m := a.memory
	if m.mapped == nil {
		var ptr unsafe.Pointer
		res := vk.MapMemory(h.device, m.VKDeviceMemory, 0, vk.DeviceSize(vk.WholeSize), 0, &ptr)
		if err := check(res, "map memory"); err != nil {
			return nil, err
		}
		m.mapped = ptr
	}
	return unsafe.Slice((*byte)(unsafe.Add(m.mapped, a.alloc.Offset)), a.alloc.Size), nil
}

// MemoryStats is the suballocator's usage of one memory type.
type MemoryStats struct {
	TypeIndex uint32
	Blocks    int
	Allocated uint64
	Used      uint64
}

func (h *memoryHeap) stats() []MemoryStats {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]MemoryStats, 0, len(h.blocks))
	for typeIndex, blocks := range h.blocks {
		s := MemoryStats{TypeIndex: typeIndex, Blocks: len(blocks)}
		for _, m := range blocks {
			s.Allocated += m.Size
			s.Used += m.allocator.Used()
		}
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b MemoryStats) int { return int(a.TypeIndex) - int(b.TypeIndex) })
	return out
}

// destroy frees every block. Objects still bound to them must already be
// destroyed.
func (h *memoryHeap) destroy() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for typeIndex, blocks := range h.blocks {
		for _, m := range blocks {
			if !m.allocator.Empty() {
				h.logger.Warn("freeing memory block with live allocations",
					"type", typeIndex, "used", units.BytesSize(float64(m.allocator.Used())))
			}
			vk.FreeMemory(h.device, m.VKDeviceMemory, nil)
		}
	}
	h.blocks = make(map[uint32][]*DeviceMemory)
}
