package vkg

import (
	"os"
	"unsafe"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/celer/vkgraph/driver"
)

type ShaderModule struct {
	Device         *Device
	VKShaderModule vk.ShaderModule
}

// LoadShaderModuleFromFile reads SPIR-V from file.
func (d *Device) LoadShaderModuleFromFile(file string) (*ShaderModule, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Wrap(err, "read shader")
	}
	return d.CreateShaderModule(data)
}

// CreateShaderModule creates a module from SPIR-V words.
func (d *Device) CreateShaderModule(spirv []byte) (*ShaderModule, error) {
	if len(spirv) == 0 || len(spirv)%4 != 0 {
		return nil, errors.Wrapf(driver.InvalidData, "spir-v size %d is not a multiple of 4", len(spirv))
	}

	var module vk.ShaderModule
	res := vk.CreateShaderModule(d.VKDevice, &vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(spirv)),
		PCode:    sliceUint32(spirv),
	}, nil, &module)
	if err := check(res, "create shader module"); err != nil {
		return nil, err
	}
	return &ShaderModule{Device: d, VKShaderModule: module}, nil
}

func (s *ShaderModule) VKPipelineShaderStageCreateInfo(stage vk.ShaderStageFlagBits, entryPoint string) vk.PipelineShaderStageCreateInfo {
	return vk.PipelineShaderStageCreateInfo{
		SType:  vk.StructureTypePipelineShaderStageCreateInfo,
		Stage:  stage,
		Module: s.VKShaderModule,
		PName:  safeString(entryPoint),
	}
}

func (s *ShaderModule) Destroy() {
	vk.DestroyShaderModule(s.Device.VKDevice, s.VKShaderModule, nil)
}

func sliceUint32(data []byte) []uint32 {
	return unsafe.Slice((*uint32)(unsafe.Pointer(&data[0])), len(data)/4)
}
