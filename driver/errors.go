package driver

// DriverError is a failure surfaced by the device while creating or
// allocating an object. It is recoverable in principle: the device is still
// usable, but the operation that needed the object did not happen.
type DriverError int

const (
	// OutOfMemory means host, device or pool memory was exhausted.
	OutOfMemory DriverError = iota + 1
	// InvalidData means the request was malformed or a pool is fragmented.
	InvalidData
	// Unsupported means the device cannot satisfy the request.
	Unsupported
)

func (e DriverError) Error() string {
	switch e {
	case OutOfMemory:
		return "driver: out of memory"
	case InvalidData:
		return "driver: invalid data"
	case Unsupported:
		return "driver: unsupported"
	}
	return "driver: unknown error"
}

// SwapchainImageError describes why a swapchain image could not be acquired
// or presented.
type SwapchainImageError int

const (
	SwapchainDeviceLost SwapchainImageError = iota + 1
	SwapchainOutOfDate
	SwapchainSuboptimal
	SwapchainSurfaceLost
	SwapchainTimeout
	SwapchainNotReady
)

func (e SwapchainImageError) Error() string {
	switch e {
	case SwapchainDeviceLost:
		return "swapchain: device lost"
	case SwapchainOutOfDate:
		return "swapchain: out of date"
	case SwapchainSuboptimal:
		return "swapchain: suboptimal"
	case SwapchainSurfaceLost:
		return "swapchain: surface lost"
	case SwapchainTimeout:
		return "swapchain: timeout"
	case SwapchainNotReady:
		return "swapchain: not ready"
	}
	return "swapchain: unknown error"
}
