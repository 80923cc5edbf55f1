package vkg

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/celer/vkgraph/driver"
)

type VKPresentModes []vk.PresentMode

// Contains reports whether mode is in the list.
func (v VKPresentModes) Contains(mode vk.PresentMode) bool {
	for _, s := range v {
		if s == mode {
			return true
		}
	}
	return false
}

type VKSurfaceFormats []vk.SurfaceFormat

// Find returns the first format accepted by f.
func (v VKSurfaceFormats) Find(f func(f vk.SurfaceFormat) bool) (vk.SurfaceFormat, bool) {
	for _, s := range v {
		s.Deref()
		if f(s) {
			return s, true
		}
	}
	return vk.SurfaceFormat{}, false
}

type PhysicalDevice struct {
	DeviceName                 string
	VKPhysicalDevice           vk.PhysicalDevice
	VKPhysicalDeviceProperties vk.PhysicalDeviceProperties
}

func (p *PhysicalDevice) GetSurfacePresentModes(surface vk.Surface) (VKPresentModes, error) {
	var count uint32
	if err := check(vk.GetPhysicalDeviceSurfacePresentModes(p.VKPhysicalDevice, surface, &count, nil), "surface present modes"); err != nil {
		return nil, err
	}

	f := make([]vk.PresentMode, count)
	if err := check(vk.GetPhysicalDeviceSurfacePresentModes(p.VKPhysicalDevice, surface, &count, f), "surface present modes"); err != nil {
		return nil, err
	}
	return f, nil
}

func (p *PhysicalDevice) GetSurfaceFormats(surface vk.Surface) (VKSurfaceFormats, error) {
	var count uint32
	if err := check(vk.GetPhysicalDeviceSurfaceFormats(p.VKPhysicalDevice, surface, &count, nil), "surface formats"); err != nil {
		return nil, err
	}

	f := make([]vk.SurfaceFormat, count)
	if err := check(vk.GetPhysicalDeviceSurfaceFormats(p.VKPhysicalDevice, surface, &count, f), "surface formats"); err != nil {
		return nil, err
	}
	return f, nil
}

func (p *PhysicalDevice) GetSurfaceCapabilities(surface vk.Surface) (*vk.SurfaceCapabilities, error) {
	var caps vk.SurfaceCapabilities
	if err := check(vk.GetPhysicalDeviceSurfaceCapabilities(p.VKPhysicalDevice, surface, &caps), "surface capabilities"); err != nil {
		return nil, err
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()
	return &caps, nil
}

func (p *PhysicalDevice) String() string {
	return p.DeviceName
}

func (p *PhysicalDevice) QueueFamilies() QueueFamilySlice {
	var queueFamilyCount uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(p.VKPhysicalDevice, &queueFamilyCount, nil)
	if queueFamilyCount == 0 {
		return nil
	}

	queues := make([]vk.QueueFamilyProperties, queueFamilyCount)
	vk.GetPhysicalDeviceQueueFamilyProperties(p.VKPhysicalDevice, &queueFamilyCount, queues)

	ret := make(QueueFamilySlice, queueFamilyCount)
	for i, queue := range queues {
		queue.Deref()
		ret[i] = &QueueFamily{Index: i, PhysicalDevice: p, VKQueueFamilyProperties: queue}
	}
	return ret
}

// CreateDeviceOptions configures the logical device.
type CreateDeviceOptions struct {
	EnabledExtensions []string
	EnabledLayers     []string

	// MemoryBlockSize is the size of the device memory blocks images and
	// buffers are suballocated from.
	MemoryBlockSize uint64

	Logger *slog.Logger
}

// CreateLogicalDevice creates a device with one queue in each of qfs. The
// first family is the one driver.CommandBuffer values are usually created
// for.
func (p *PhysicalDevice) CreateLogicalDevice(qfs QueueFamilySlice, options CreateDeviceOptions) (*Device, error) {
	if len(qfs) == 0 {
		return nil, errors.New("no queue families requested")
	}

	queueCreateInfos := make([]vk.DeviceQueueCreateInfo, len(qfs))
	for j, q := range qfs {
		queueCreateInfos[j] = vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: uint32(q.Index),
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}
	}

	deviceFeatures := p.VKPhysicalDeviceFeatures()
	deviceCreateInfo := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(qfs)),
		PQueueCreateInfos:       queueCreateInfos,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{deviceFeatures},
		EnabledExtensionCount:   uint32(len(options.EnabledExtensions)),
		PpEnabledExtensionNames: safeStrings(options.EnabledExtensions),
		EnabledLayerCount:       uint32(len(options.EnabledLayers)),
		PpEnabledLayerNames:     safeStrings(options.EnabledLayers),
	}

	var ldevice vk.Device
	if err := check(vk.CreateDevice(p.VKPhysicalDevice, &deviceCreateInfo, nil, &ldevice), "create device"); err != nil {
		return nil, err
	}
	return newDevice(p, ldevice, qfs, options), nil
}

func (p *PhysicalDevice) VKPhysicalDeviceFeatures() vk.PhysicalDeviceFeatures {
	var deviceFeatures vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(p.VKPhysicalDevice, &deviceFeatures)
	return deviceFeatures
}

func (p *PhysicalDevice) VKPhysicalDeviceMemoryProperties() vk.PhysicalDeviceMemoryProperties {
	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(p.VKPhysicalDevice, &memoryProperties)
	return memoryProperties
}

// FindMemoryType returns the first memory type allowed by memoryTypeBits
// that has all of properties.
func (p *PhysicalDevice) FindMemoryType(memoryTypeBits uint32, properties vk.MemoryPropertyFlagBits) (uint32, error) {
	memoryProperties := p.VKPhysicalDeviceMemoryProperties()
	mp := &memoryProperties
	mp.Deref()

	for i := uint32(0); i < mp.MemoryTypeCount; i++ {
		mt := mp.MemoryTypes[i]
		mt.Deref()
		if memoryTypeBits&(1<<i) != 0 &&
			vk.MemoryPropertyFlagBits(mt.PropertyFlags)&properties == properties {
			return i, nil
		}
	}
	return 0, errors.Wrapf(driver.Unsupported, "no memory type with properties %#x in %#b", properties, memoryTypeBits)
}

// SupportedExtensions lists the device extensions by name.
func (p *PhysicalDevice) SupportedExtensions() ([]string, error) {
	var count uint32
	if err := check(vk.EnumerateDeviceExtensionProperties(p.VKPhysicalDevice, "", &count, nil), "device extensions"); err != nil {
		return nil, err
	}

	ext := make([]vk.ExtensionProperties, count)
	if err := check(vk.EnumerateDeviceExtensionProperties(p.VKPhysicalDevice, "", &count, ext), "device extensions"); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ext))
	for _, e := range ext {
		e.Deref()
		names = append(names, vk.ToString(e.ExtensionName[:]))
	}
	return names, nil
}

// SupportsExtension reports whether the device offers the named extension.
func (p *PhysicalDevice) SupportsExtension(name string) (bool, error) {
	names, err := p.SupportedExtensions()
	if err != nil {
		return false, err
	}
	return slices.Contains(names, name), nil
}

// IsDiscrete reports whether the device is a discrete GPU.
func (p *PhysicalDevice) IsDiscrete() bool {
	return p.VKPhysicalDeviceProperties.DeviceType == vk.PhysicalDeviceTypeDiscreteGpu
}

func (p *PhysicalDevice) describe() string {
	return fmt.Sprintf("%s (discrete: %v)", p.DeviceName, p.IsDiscrete())
}
