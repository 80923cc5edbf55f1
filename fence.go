package vkg

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/celer/vkgraph/driver"
)

func (d *Device) CreateFence(signaled bool) (driver.Handle, error) {
	fenceCreateInfo := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if signaled {
		fenceCreateInfo.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}

	var fence vk.Fence
	if err := check(vk.CreateFence(d.VKDevice, &fenceCreateInfo, nil, &fence), "create fence"); err != nil {
		return 0, err
	}
	return d.fences.add(d.handle(), fence), nil
}

// WaitForFence blocks without a timeout until the fence signals.
func (d *Device) WaitForFence(fence driver.Handle) error {
	f := d.fences.must(fence)
	return check(vk.WaitForFences(d.VKDevice, 1, []vk.Fence{f}, vk.True, vk.MaxUint64), "wait for fence")
}

func (d *Device) ResetFence(fence driver.Handle) error {
	f := d.fences.must(fence)
	return check(vk.ResetFences(d.VKDevice, 1, []vk.Fence{f}), "reset fence")
}

// FenceSignaled polls the fence without blocking.
func (d *Device) FenceSignaled(fence driver.Handle) (bool, error) {
	switch res := vk.GetFenceStatus(d.VKDevice, d.fences.must(fence)); res {
	case vk.Success:
		return true, nil
	case vk.NotReady:
		return false, nil
	default:
		return false, check(res, "get fence status")
	}
}

func (d *Device) DestroyFence(fence driver.Handle) {
	if f, ok := d.fences.remove(fence); ok {
		vk.DestroyFence(d.VKDevice, f, nil)
	}
}
