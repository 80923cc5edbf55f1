package vkg

import (
	"log/slog"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/celer/vkgraph/display"
	"github.com/celer/vkgraph/driver"
	"github.com/celer/vkgraph/pool"
)

const swapchainExtension = "VK_KHR_swapchain"

// InitVulkan loads the Vulkan entry points through GLFW, which must already
// be initialized.
func InitVulkan() error {
	if !glfw.VulkanSupported() {
		return errors.Wrap(driver.Unsupported, "no vulkan loader found")
	}
	vk.SetGetInstanceProcAddr(glfw.GetVulkanGetInstanceProcAddress())
	return errors.Wrap(vk.Init(), "init vulkan")
}

// InitializeForComputeOnly loads the Vulkan entry points from the system
// loader, for programs without a window.
func InitializeForComputeOnly() error {
	if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
		return errors.Wrap(err, "load vulkan loader")
	}
	return errors.Wrap(vk.Init(), "init vulkan")
}

// GraphicsApp brings up everything between a GLFW window and a Display: the
// instance, the window surface, a device with one graphics, compute and
// present capable queue, and the swapchain.
//
// See https://vulkan-tutorial.com/ for a walkthrough of these steps.
type GraphicsApp struct {
	Config Config
	App    *App

	Instance  *Instance
	Window    *glfw.Window
	VKSurface vk.Surface

	PhysicalDevice *PhysicalDevice
	Device         *Device
	QueueFamily    *QueueFamily
	Swapchain      *Swapchain

	// Cache outlives swapchain recreation so leased objects survive a
	// resize.
	Cache *pool.HashPool

	logger  *slog.Logger
	display *display.Display
}

// NewGraphicsApp initializes Vulkan for window. InitVulkan must have been
// called.
func NewGraphicsApp(window *glfw.Window, config Config, logger *slog.Logger) (*GraphicsApp, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	p := &GraphicsApp{
		Config: config,
		App:    &App{Name: config.AppName, EngineName: "vkgraph", Version: Version{Major: 1}},
		Window: window,
		logger: logger,
	}
	if err := p.init(); err != nil {
		p.Destroy()
		return nil, err
	}
	return p, nil
}

func (p *GraphicsApp) init() error {
	for _, ext := range p.Window.GetRequiredInstanceExtensions() {
		p.App.EnableExtension(ext)
	}
	if p.Config.Debug {
		if err := p.App.EnableDebugging(); err != nil {
			p.logger.Warn("debugging unavailable", "err", err)
		}
	}

	var err error
	if p.Instance, err = p.App.CreateInstance(); err != nil {
		return err
	}
	if p.Config.Debug {
		if err := p.Instance.SetDebugLogger(p.logger.With("source", "validation")); err != nil {
			p.logger.Warn("debug report callback unavailable", "err", err)
		}
	}

	surface, err := p.Window.CreateWindowSurface(p.Instance.VKInstance, nil)
	if err != nil {
		return errors.Wrap(err, "create window surface")
	}
	p.VKSurface = vk.SurfaceFromPointer(surface)

	if err := p.pickPhysicalDevice(); err != nil {
		return err
	}

	blockSize, err := p.Config.BlockSize()
	if err != nil {
		return err
	}
	p.Device, err = p.PhysicalDevice.CreateLogicalDevice(QueueFamilySlice{p.QueueFamily}, CreateDeviceOptions{
		EnabledExtensions: []string{swapchainExtension},
		MemoryBlockSize:   blockSize,
		Logger:            p.logger,
	})
	if err != nil {
		return errors.Wrap(err, "create device")
	}
	p.Cache = pool.New(p.Device, pool.WithLogger(p.logger))

	return p.createSwapchain(nil)
}

// pickPhysicalDevice takes the first device with a queue family that can
// render, compute and present and that supports swapchains, preferring
// discrete GPUs.
func (p *GraphicsApp) pickPhysicalDevice() error {
	devices, err := p.Instance.PhysicalDevices()
	if err != nil {
		return errors.Wrap(err, "list physical devices")
	}

	for _, discrete := range []bool{true, false} {
		for _, pd := range devices {
			if pd.IsDiscrete() != discrete {
				continue
			}
			families := pd.QueueFamilies().FilterGraphicsAndPresent(p.VKSurface)
			if len(families) == 0 {
				continue
			}
			if ok, err := pd.SupportsExtension(swapchainExtension); err != nil || !ok {
				continue
			}
			p.PhysicalDevice = pd
			p.QueueFamily = families[0]
			p.logger.Info("selected physical device", "device", pd.describe(), "queue_family", families[0].Index)
			return nil
		}
	}
	return errors.Wrapf(driver.Unsupported, "none of %d physical devices can present to the window", len(devices))
}

func (p *GraphicsApp) createSwapchain(old *Swapchain) error {
	width, height := p.Window.GetFramebufferSize()
	swapchain, err := p.Device.CreateSwapchain(p.VKSurface, CreateSwapchainOptions{
		OldSwapchain:              old,
		ActualSize:                vk.Extent2D{Width: uint32(width), Height: uint32(height)},
		DesiredNumSwapchainImages: p.Config.SwapchainImages,
		PresentMode:               p.Config.VKPresentMode(),
		GraphicsQueueFamily:       p.QueueFamily.Index,
		PresentQueueFamily:        p.QueueFamily.Index,
		Logger:                    p.logger,
	})
	if err != nil {
		return err
	}
	p.Swapchain = swapchain
	return nil
}

// Display returns the display presenting to the window, creating it on
// first use.
func (p *GraphicsApp) Display() *display.Display {
	if p.display == nil {
		p.display = display.New(p.Device, p.Swapchain,
			display.WithLogger(p.logger),
			display.WithCache(p.Cache),
			display.WithQueueFamily(p.QueueFamily.Index))
	}
	return p.display
}

// RecreateSwapchain rebuilds the swapchain for the window's current size
// and returns a new display for it. The previous display must no longer be
// used.
func (p *GraphicsApp) RecreateSwapchain() (*display.Display, error) {
	if p.display != nil {
		p.display.Destroy()
		p.display = nil
	}
	if err := p.Device.WaitIdle(); err != nil {
		return nil, err
	}

	old := p.Swapchain
	err := p.createSwapchain(old)
	old.Destroy()
	if err != nil {
		p.Swapchain = nil
		return nil, err
	}
	return p.Display(), nil
}

// Destroy waits for the device and tears everything down. It is safe to
// call on a partially initialized app.
func (p *GraphicsApp) Destroy() {
	if p.Device != nil {
		if err := p.Device.WaitIdle(); err != nil {
			p.logger.Warn("device wait idle failed", "err", err)
		}
	}
	if p.display != nil {
		p.display.Destroy()
		p.display = nil
	}
	if p.Cache != nil {
		p.Cache.Clear()
		p.Cache = nil
	}
	if p.Swapchain != nil {
		p.Swapchain.Destroy()
		p.Swapchain = nil
	}
	if p.Device != nil {
		p.Device.Destroy()
		p.Device = nil
	}
	if p.Instance != nil {
		if p.VKSurface != vk.NullSurface {
			vk.DestroySurface(p.Instance.VKInstance, p.VKSurface, nil)
			p.VKSurface = vk.NullSurface
		}
		p.Instance.Destroy()
		p.Instance = nil
	}
}
