package vkg

import (
	vk "github.com/vulkan-go/vulkan"

	"github.com/celer/vkgraph/driver"
)

// CreateDescriptorPool creates a pool sized by info. Sets are never freed
// individually; the pool is destroyed or reused as a whole.
func (d *Device) CreateDescriptorPool(info driver.DescriptorPoolInfo) (driver.Handle, error) {
	sizes := info.PoolSizes()
	poolSizes := make([]vk.DescriptorPoolSize, len(sizes))
	for i, s := range sizes {
		poolSizes[i] = vk.DescriptorPoolSize{
			Type:            vk.DescriptorType(s.Type),
			DescriptorCount: s.Count,
		}
	}

	createInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       max(info.MaxSets, 1),
		PoolSizeCount: uint32(len(poolSizes)),
		PPoolSizes:    poolSizes,
	}

	var pool vk.DescriptorPool
	if err := check(vk.CreateDescriptorPool(d.VKDevice, &createInfo, nil, &pool), "create descriptor pool"); err != nil {
		return 0, err
	}
	return d.descPools.add(d.handle(), pool), nil
}

// DestroyDescriptorPool destroys the pool and forgets the sets allocated
// from it.
func (d *Device) DestroyDescriptorPool(pool driver.Handle) {
	p, ok := d.descPools.remove(pool)
	if !ok {
		return
	}
	d.forgetSets(pool)
	vk.DestroyDescriptorPool(d.VKDevice, p, nil)
}
