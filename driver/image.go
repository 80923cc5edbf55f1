package driver

import (
	"fmt"
	"sync"
)

// Image is a device image together with its cached views and the access
// the last recorded command left it in.
type Image struct {
	Name string

	device Device
	handle Handle
	info   ImageInfo
	owned  bool

	mu     sync.Mutex
	views  map[ImageViewInfo]Handle
	access AccessType
}

// NewImage creates an image owned by the returned value.
func NewImage(device Device, info ImageInfo) (*Image, error) {
	handle, err := device.CreateImage(info)
	if err != nil {
		return nil, fmt.Errorf("create image: %w", err)
	}
	return &Image{device: device, handle: handle, info: info, owned: true}, nil
}

// WrapImage wraps an image owned by someone else, such as the presentation
// engine. Destroy releases the cached views but not the image.
func WrapImage(device Device, handle Handle, info ImageInfo) *Image {
	return &Image{device: device, handle: handle, info: info}
}

func (i *Image) Handle() Handle {
	return i.handle
}

func (i *Image) Info() ImageInfo {
	return i.info
}

// Owned reports whether Destroy destroys the device image.
func (i *Image) Owned() bool {
	return i.owned
}

// View returns the view described by info, creating it on first use.
func (i *Image) View(info ImageViewInfo) (Handle, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if view, ok := i.views[info]; ok {
		return view, nil
	}
	view, err := i.device.CreateImageView(i.handle, info)
	if err != nil {
		return 0, fmt.Errorf("create image view: %w", err)
	}
	if i.views == nil {
		i.views = make(map[ImageViewInfo]Handle)
	}
	i.views[info] = view
	return view, nil
}

// Access is the access type the image was last used with.
func (i *Image) Access() AccessType {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.access
}

// SetAccess records next as the current access and returns the previous one.
func (i *Image) SetAccess(next AccessType) AccessType {
	i.mu.Lock()
	defer i.mu.Unlock()
	prev := i.access
	i.access = next
	return prev
}

// Destroy destroys every cached view and, when owned, the image itself.
func (i *Image) Destroy() {
	i.mu.Lock()
	defer i.mu.Unlock()

	for _, view := range i.views {
		i.device.DestroyImageView(view)
	}
	i.views = nil
	if i.owned && i.handle != 0 {
		i.device.DestroyImage(i.handle)
	}
	i.handle = 0
}

// SwapchainImage is an image owned by the presentation engine together with
// the semaphores that order its acquisition and presentation.
type SwapchainImage struct {
	*Image

	// Index is the image's position in the swapchain.
	Index uint32

	// Acquired is signalled when the image is ready to be rendered to.
	Acquired Handle

	// Rendered must be signalled by the last submission writing the image.
	Rendered Handle
}
