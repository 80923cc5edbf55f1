package vkg

import (
	"fmt"

	vk "github.com/vulkan-go/vulkan"
)

type QueueFamilySlice []*QueueFamily

func (ql QueueFamilySlice) Filter(f func(q *QueueFamily) bool) QueueFamilySlice {
	ret := make(QueueFamilySlice, 0)
	for _, q := range ql {
		if f(q) {
			ret = append(ret, q)
		}
	}
	return ret
}

// FilterGraphicsAndPresent keeps the families that can both render and
// present to surface. A single such family is all the frame scheduler
// needs.
func (ql QueueFamilySlice) FilterGraphicsAndPresent(surface vk.Surface) QueueFamilySlice {
	return ql.Filter(func(q *QueueFamily) bool {
		return q.IsGraphics() && q.IsCompute() && q.SupportsPresent(surface)
	})
}

// FilterCompute keeps the families that can run compute work.
func (ql QueueFamilySlice) FilterCompute() QueueFamilySlice {
	return ql.Filter(func(q *QueueFamily) bool {
		return q.IsCompute()
	})
}

type QueueFamily struct {
	Index                   int
	PhysicalDevice          *PhysicalDevice
	VKQueueFamilyProperties vk.QueueFamilyProperties
}

func (q *QueueFamily) has(bit vk.QueueFlagBits) bool {
	return q.VKQueueFamilyProperties.QueueFlags&vk.QueueFlags(bit) == vk.QueueFlags(bit)
}

func (q *QueueFamily) IsCompute() bool {
	return q.has(vk.QueueComputeBit)
}

func (q *QueueFamily) IsGraphics() bool {
	return q.has(vk.QueueGraphicsBit)
}

func (q *QueueFamily) IsTransfer() bool {
	return q.has(vk.QueueTransferBit)
}

func (q *QueueFamily) SupportsPresent(surface vk.Surface) bool {
	var supportsPresent vk.Bool32
	vk.GetPhysicalDeviceSurfaceSupport(q.PhysicalDevice.VKPhysicalDevice, uint32(q.Index), surface, &supportsPresent)
	return supportsPresent == vk.True
}

func (q *QueueFamily) String() string {
	return fmt.Sprintf("{ Index: %d Compute: %v Graphics: %v Transfer: %v }", q.Index, q.IsCompute(), q.IsGraphics(), q.IsTransfer())
}
