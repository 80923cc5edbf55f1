package vkg

import (
	"context"
	"log/slog"
	"slices"
	"unsafe"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Version is used to specify versions of components
type Version struct {
	Major int
	Minor int
	Patch int
}

// VKVersion returns a Vulkan compatible version representation
func (v *Version) VKVersion() uint32 {
	return vk.MakeVersion(v.Major, v.Minor, v.Patch)
}

// App is used to provide information about this specific application to Vulkan
type App struct {
	// Name the name of the application
	Name string
	// Engine the name of the engine associated with the application
	EngineName string
	// Version the version of the application
	Version Version
	// APIVersion the expected minimum version of the Vulkan API (i.e. 1.1.0)
	APIVersion Version

	// EnabledLayers the enabled layers
	EnabledLayers []string

	// EnabledExtensions the enabled extensions
	EnabledExtensions []string
}

// SupportedLayers returns a list of supported layers for use by Vulkan. Vulkan
// must have been initialized.
func SupportedLayers() ([]string, error) {
	var instanceLayerLen uint32
	if err := check(vk.EnumerateInstanceLayerProperties(&instanceLayerLen, nil), "instance layers"); err != nil {
		return nil, err
	}
	instanceLayer := make([]vk.LayerProperties, instanceLayerLen)
	if err := check(vk.EnumerateInstanceLayerProperties(&instanceLayerLen, instanceLayer), "instance layers"); err != nil {
		return nil, err
	}
	layerNames := make([]string, 0, len(instanceLayer))
	for _, layer := range instanceLayer {
		layer.Deref()
		layerNames = append(layerNames, vk.ToString(layer.LayerName[:]))
	}
	return layerNames, nil
}

// SupportedExtensions returns a list of supported instance extensions. Vulkan
// must have been initialized.
func SupportedExtensions() ([]string, error) {
	var instanceExtLen uint32
	if err := check(vk.EnumerateInstanceExtensionProperties("", &instanceExtLen, nil), "instance extensions"); err != nil {
		return nil, err
	}
	instanceExt := make([]vk.ExtensionProperties, instanceExtLen)
	if err := check(vk.EnumerateInstanceExtensionProperties("", &instanceExtLen, instanceExt), "instance extensions"); err != nil {
		return nil, err
	}
	extNames := make([]string, 0, len(instanceExt))
	for _, ext := range instanceExt {
		ext.Deref()
		extNames = append(extNames, vk.ToString(ext.ExtensionName[:]))
	}
	return extNames, nil
}

// EnableDebugging turns on the Khronos validation layer and debug report
// extension.
func (a *App) EnableDebugging() error {
	if err := a.EnableLayer("VK_LAYER_KHRONOS_validation"); err != nil {
		return err
	}
	a.EnableExtension("VK_EXT_debug_report")
	return nil
}

// EnableLayer enables a layer if the loader offers it.
func (a *App) EnableLayer(layer string) error {
	layers, err := SupportedLayers()
	if err != nil {
		return errors.Wrap(err, "supported layers")
	}
	if !slices.Contains(layers, layer) {
		return errors.Errorf("layer %q not found", layer)
	}
	if !slices.Contains(a.EnabledLayers, layer) {
		a.EnabledLayers = append(a.EnabledLayers, layer)
	}
	return nil
}

// EnableExtension enables an instance extension.
func (a *App) EnableExtension(extension string) *App {
	if !slices.Contains(a.EnabledExtensions, extension) {
		a.EnabledExtensions = append(a.EnabledExtensions, extension)
	}
	return a
}

//VKApplicationInfo creates a structure representing this application in a Vulkan friendly format
func (a *App) VKApplicationInfo() vk.ApplicationInfo {
	if a.APIVersion.Major < 1 {
		a.APIVersion = Version{Major: 1, Minor: 1}
	}

	return vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         a.APIVersion.VKVersion(),
		ApplicationVersion: a.Version.VKVersion(),
		PApplicationName:   safeString(a.Name),
		PEngineName:        safeString(a.EngineName),
	}
}

// CreateInstance creates the Vulkan instance
func (a *App) CreateInstance() (*Instance, error) {
	appInfo := a.VKApplicationInfo()

	extensions := safeStrings(a.EnabledExtensions)
	layers := safeStrings(a.EnabledLayers)

	createInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        &appInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
	}

	instance := &Instance{}
	if err := check(vk.CreateInstance(&createInfo, nil, &instance.VKInstance), "create instance"); err != nil {
		return nil, err
	}
	if err := vk.InitInstance(instance.VKInstance); err != nil {
		vk.DestroyInstance(instance.VKInstance, nil)
		return nil, errors.Wrap(err, "init instance")
	}
	return instance, nil
}

//Instance is an instance of the Vulkan subsystem
type Instance struct {
	//VKInstance is the native Vulkan instance object
	VKInstance vk.Instance

	debugCallback vk.DebugReportCallback
	debugging     bool
}

//PhysicalDevices returns a list of physical devices known to Vulkan
func (i *Instance) PhysicalDevices() ([]*PhysicalDevice, error) {
	var deviceCount uint32
	if err := check(vk.EnumeratePhysicalDevices(i.VKInstance, &deviceCount, nil), "enumerate physical devices"); err != nil {
		return nil, err
	}
	if deviceCount == 0 {
		return nil, nil
	}

	devices := make([]vk.PhysicalDevice, deviceCount)
	if err := check(vk.EnumeratePhysicalDevices(i.VKInstance, &deviceCount, devices), "enumerate physical devices"); err != nil {
		return nil, err
	}

	ret := make([]*PhysicalDevice, deviceCount)
	for i, device := range devices {
		ret[i] = &PhysicalDevice{VKPhysicalDevice: device}
		vk.GetPhysicalDeviceProperties(device, &ret[i].VKPhysicalDeviceProperties)
		ret[i].VKPhysicalDeviceProperties.Deref()
		ret[i].DeviceName = vk.ToString(ret[i].VKPhysicalDeviceProperties.DeviceName[:])
	}
	return ret, nil
}

// SetDebugLogger routes validation layer reports to logger. The instance
// must have been created with the debug report extension.
func (i *Instance) SetDebugLogger(logger *slog.Logger) error {
	callback := func(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType,
		object uint64, location uint, messageCode int32, pLayerPrefix string,
		pMessage string, pUserData unsafe.Pointer) vk.Bool32 {

		level := slog.LevelInfo
		switch {
		case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
			level = slog.LevelError
		case flags&vk.DebugReportFlags(vk.DebugReportWarningBit|vk.DebugReportPerformanceWarningBit) != 0:
			level = slog.LevelWarn
		case flags&vk.DebugReportFlags(vk.DebugReportDebugBit) != 0:
			level = slog.LevelDebug
		}
		logger.Log(context.Background(), level, pMessage, "layer", pLayerPrefix, "code", messageCode)
		return vk.Bool32(vk.False)
	}

	ret := vk.CreateDebugReportCallback(i.VKInstance, &vk.DebugReportCallbackCreateInfo{
		SType:       vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags:       vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit | vk.DebugReportPerformanceWarningBit),
		PfnCallback: callback,
	}, nil, &i.debugCallback)
	if err := check(ret, "create debug report callback"); err != nil {
		return err
	}
	i.debugging = true
	return nil
}

func (i *Instance) Destroy() {
	if i.debugging {
		vk.DestroyDebugReportCallback(i.VKInstance, i.debugCallback, nil)
	}
	vk.DestroyInstance(i.VKInstance, nil)
}
