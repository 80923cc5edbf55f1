package drivertest

import (
	"sync"

	"github.com/celer/vkgraph/driver"
)

// Swapchain is a fake driver.Swapchain over images created on a fake
// Device. Images are handed out in Order, cycling.
type Swapchain struct {
	Device *Device
	Images []*driver.SwapchainImage

	// Order is the acquisition order of image indices. It defaults to
	// 0..len(Images)-1.
	Order []uint32

	mu         sync.Mutex
	acquires   int
	acquireErr error
	presentErr error
	presented  []uint32
}

var _ driver.Swapchain = (*Swapchain)(nil)

// NewSwapchain creates count swapchain images described by info, each with
// its own pair of semaphores.
func NewSwapchain(d *Device, count int, info driver.ImageInfo) *Swapchain {
	s := &Swapchain{Device: d}
	for i := 0; i < count; i++ {
		image, _ := d.create("CreateSwapchainImage", "swapchain image")
		acquired, _ := d.create("CreateSemaphore", "semaphore")
		rendered, _ := d.create("CreateSemaphore", "semaphore")
		s.Images = append(s.Images, &driver.SwapchainImage{
			Image:    driver.WrapImage(d, image, info),
			Index:    uint32(i),
			Acquired: acquired,
			Rendered: rendered,
		})
		s.Order = append(s.Order, uint32(i))
	}
	return s
}

// FailAcquire makes the next acquisition return err.
func (s *Swapchain) FailAcquire(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acquireErr = err
}

// FailPresent makes the next presentation return err.
func (s *Swapchain) FailPresent(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presentErr = err
}

// Presented returns the indices of every presented image in order.
func (s *Swapchain) Presented() []uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]uint32(nil), s.presented...)
}

func (s *Swapchain) AcquireNextImage() (*driver.SwapchainImage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Device.record(Call{Op: "AcquireNextImage"})
	if err := s.acquireErr; err != nil {
		s.acquireErr = nil
		return nil, err
	}
	idx := s.Order[s.acquires%len(s.Order)]
	s.acquires++
	return s.Images[idx], nil
}

func (s *Swapchain) PresentImage(image *driver.SwapchainImage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Device.record(Call{Op: "PresentImage", Handle: image.Rendered, Args: []uint64{uint64(image.Index)}})
	if err := s.presentErr; err != nil {
		s.presentErr = nil
		return err
	}
	s.presented = append(s.presented, image.Index)
	return nil
}
