/*
Package vkg implements the driver.Device and driver.Swapchain interfaces on top of Vulkan, so
that render graphs built with the graph package can be recorded and presented on real hardware.

The packages of this module split the work as follows:

	driver		device independent descriptions of images, buffers, pipelines, descriptors,
			access types and barriers, plus the Device interface a backend implements
	pool		a hash pool leasing device objects by their description
	graph		the render graph: bindings, passes, dependency resolution and recording
	display		frame scheduling over a swapchain, pacing command buffer reuse on fences
	vkg		this package, the Vulkan backend and a windowed bootstrap

Handles

Every Vulkan object created through Device is registered under an opaque driver.Handle. The
graph and the pool only ever see handles; this package translates them back to native objects
when recording. Native structures stay reachable through the fields prefixed with 'VK', so
applications are not limited by what the driver interface exposes.

Memory

Images and buffers are suballocated from large device memory blocks, one list of blocks per
memory type, using a first fit LinearAllocator. The block size comes from
CreateDeviceOptions.MemoryBlockSize or Config.MemoryBlockSize.

Errors

Failed Vulkan calls are mapped to driver.DriverError values (out of memory, invalid data,
unsupported) and wrapped with the call that failed. Swapchain failures map to
driver.SwapchainImageError values.

Getting started

GraphicsApp brings up an instance, a window surface, a device and a swapchain for a GLFW window:

	glfw.Init()
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, _ := glfw.CreateWindow(800, 600, "clear", nil, nil)

	vkg.InitVulkan()
	app, err := vkg.NewGraphicsApp(window, vkg.DefaultConfig(), nil)
	...
	disp := app.Display()
	for !window.ShouldClose() {
		node, g, err := disp.AcquireNextImage()
		...
		g.BeginPass("clear").
			AccessNode(node, driver.TransferWrite).
			Record(func(r *graph.Recording) {
				r.ClearColorImage(node, color)
			})
		disp.PresentImage(g, node)
	}

See examples/clear for a complete program.
*/
package vkg
