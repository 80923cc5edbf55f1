package vkg

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"

	"github.com/celer/vkgraph/driver"
)

var end = "\x00"
var endChar byte = '\x00'

// registry maps driver handles to native Vulkan objects of one kind.
type registry[T any] struct {
	kind string

	mu      sync.RWMutex
	objects map[driver.Handle]T
}

func newRegistry[T any](kind string) *registry[T] {
	return &registry[T]{kind: kind, objects: make(map[driver.Handle]T)}
}

func (r *registry[T]) add(h driver.Handle, v T) driver.Handle {
	r.mu.Lock()
	r.objects[h] = v
	r.mu.Unlock()
	return h
}

func (r *registry[T]) get(h driver.Handle) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.objects[h]
	return v, ok
}

// must returns the object behind h and panics if there is none. Recording
// with a destroyed or foreign handle is a caller bug.
func (r *registry[T]) must(h driver.Handle) T {
	v, ok := r.get(h)
	if !ok {
		panic(fmt.Sprintf("vkg: unknown %s handle %d", r.kind, h))
	}
	return v
}

func (r *registry[T]) remove(h driver.Handle) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.objects[h]
	delete(r.objects, h)
	return v, ok
}

// removeIf drops every object drop reports true for.
func (r *registry[T]) removeIf(drop func(T) bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for h, v := range r.objects {
		if drop(v) {
			delete(r.objects, h)
		}
	}
}

func (r *registry[T]) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.objects)
}

// driverError maps a failed Vulkan result to the driver's error vocabulary.
func driverError(res vk.Result) driver.DriverError {
	switch res {
	case vk.ErrorFragmentedPool:
		return driver.InvalidData
	case vk.ErrorOutOfHostMemory, vk.ErrorOutOfDeviceMemory, vk.ErrorOutOfPoolMemory:
		return driver.OutOfMemory
	}
	return driver.Unsupported
}

// check wraps a failed result as a DriverError with the failing call as
// context. It returns nil for vk.Success.
func check(res vk.Result, op string) error {
	if res == vk.Success {
		return nil
	}
	return errors.Wrapf(driverError(res), "%s: %v", op, vk.Error(res))
}

// swapchainError maps a failed acquire or present result.
func swapchainError(res vk.Result) driver.SwapchainImageError {
	switch res {
	case vk.ErrorOutOfDate:
		return driver.SwapchainOutOfDate
	case vk.Suboptimal:
		return driver.SwapchainSuboptimal
	case vk.ErrorSurfaceLost:
		return driver.SwapchainSurfaceLost
	case vk.Timeout:
		return driver.SwapchainTimeout
	case vk.NotReady:
		return driver.SwapchainNotReady
	}
	return driver.SwapchainDeviceLost
}

func safeString(s string) string {
	if len(s) == 0 {
		return end
	}
	if s[len(s)-1] != endChar {
		return s + end
	}
	return s
}

func safeStrings(list []string) []string {
	out := make([]string, len(list))
	for i := range list {
		out[i] = safeString(list[i])
	}
	return out
}
