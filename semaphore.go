package vkg

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/celer/vkgraph/driver"
)

// CreateSemaphore creates a binary semaphore. Semaphores order the
// swapchain's acquire, render and present steps.
func (d *Device) CreateSemaphore() (driver.Handle, error) {
	semaphoreCreateInfo := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}

	var sema vk.Semaphore
	if err := check(vk.CreateSemaphore(d.VKDevice, &semaphoreCreateInfo, nil, &sema), "create semaphore"); err != nil {
		return 0, err
	}
	return d.semaphores.add(d.handle(), sema), nil
}

func (d *Device) DestroySemaphore(s driver.Handle) {
	if sema, ok := d.semaphores.remove(s); ok {
		vk.DestroySemaphore(d.VKDevice, sema, nil)
	}
}
