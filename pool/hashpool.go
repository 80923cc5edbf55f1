// Package pool caches short-lived device objects keyed by their
// description so that frames stop allocating once they reach a steady
// state.
package pool

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/celer/vkgraph/driver"
)

const (
	kindDescriptorPool = "descriptor pool"
	kindDescriptorSet  = "descriptor set"
	kindImage          = "image"
	kindBuffer         = "buffer"
	kindAccel          = "acceleration structure"
	kindCommandBuffer  = "command buffer"
	kindRenderPass     = "render pass"
)

// HashPool hands out Leases of device objects. Objects are reused last in
// first out per key and are never evicted; Clear destroys them.
type HashPool struct {
	device driver.Device
	logger *slog.Logger

	mu              sync.Mutex
	descriptorPools map[driver.DescriptorPoolInfo]*bucket[*driver.DescriptorPool]
	descriptorSets  map[*driver.DescriptorSetLayout]*bucket[*driver.DescriptorSet]
	images          map[driver.ImageInfo]*bucket[*driver.Image]
	buffers         map[driver.BufferInfo]*bucket[*driver.Buffer]
	accels          map[driver.AccelerationStructureInfo]*bucket[*driver.AccelerationStructure]
	commandBuffers  map[int]*bucket[*driver.CommandBuffer]
	renderPasses    map[driver.RenderPassInfo]*bucket[*driver.RenderPass]

	// setPools is the descriptor pool lease backing each leased set.
	setPools map[*driver.DescriptorSet]*Lease[*driver.DescriptorPool]

	hits, misses uint64
}

// Option configures a HashPool.
type Option func(*HashPool)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *HashPool) {
		p.logger = logger
	}
}

// New returns an empty pool creating objects on device.
func New(device driver.Device, opts ...Option) *HashPool {
	p := &HashPool{
		device:   device,
		logger:   slog.Default(),
		setPools: make(map[*driver.DescriptorSet]*Lease[*driver.DescriptorPool]),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.reset()
	return p
}

func (p *HashPool) reset() {
	p.descriptorPools = make(map[driver.DescriptorPoolInfo]*bucket[*driver.DescriptorPool])
	p.descriptorSets = make(map[*driver.DescriptorSetLayout]*bucket[*driver.DescriptorSet])
	p.images = make(map[driver.ImageInfo]*bucket[*driver.Image])
	p.buffers = make(map[driver.BufferInfo]*bucket[*driver.Buffer])
	p.accels = make(map[driver.AccelerationStructureInfo]*bucket[*driver.AccelerationStructure])
	p.commandBuffers = make(map[int]*bucket[*driver.CommandBuffer])
	p.renderPasses = make(map[driver.RenderPassInfo]*bucket[*driver.RenderPass])
}

// Device is the device objects are created on.
func (p *HashPool) Device() driver.Device {
	return p.device
}

func lease[K comparable, T any](p *HashPool, kind string, buckets map[K]*bucket[T], key K, create func() (T, error), destroy func(T)) (*Lease[T], error) {
	p.mu.Lock()
	b, ok := buckets[key]
	if !ok {
		b = &bucket[T]{pool: p, kind: kind, destroy: destroy}
		buckets[key] = b
	}
	if n := len(b.items); n > 0 {
		item := b.items[n-1]
		b.items = b.items[:n-1]
		p.hits++
		p.mu.Unlock()

		recordLease(context.Background(), kind, true)
		return newLease(item, b), nil
	}
	p.misses++
	p.mu.Unlock()

	recordLease(context.Background(), kind, false)
	item, err := create()
	if err != nil {
		return nil, err
	}
	p.logger.Debug("pool miss", "kind", kind, "key", fmt.Sprintf("%+v", key))
	return newLease(item, b), nil
}

// LeaseDescriptorPool leases a descriptor pool with exactly the given
// capacity.
func (p *HashPool) LeaseDescriptorPool(info driver.DescriptorPoolInfo) (*Lease[*driver.DescriptorPool], error) {
	return lease(p, kindDescriptorPool, p.descriptorPools, info,
		func() (*driver.DescriptorPool, error) {
			return driver.NewDescriptorPool(p.device, info)
		},
		(*driver.DescriptorPool).Destroy,
	)
}

// LeaseDescriptorSet leases a descriptor set of the given layout. Each set
// is allocated from its own leased pool sized for the layout; the pool
// lease is held until the set is destroyed.
func (p *HashPool) LeaseDescriptorSet(layout *driver.DescriptorSetLayout) (*Lease[*driver.DescriptorSet], error) {
	return lease(p, kindDescriptorSet, p.descriptorSets, layout,
		func() (*driver.DescriptorSet, error) {
			poolLease, err := p.LeaseDescriptorPool(layout.Info().PoolInfo())
			if err != nil {
				return nil, err
			}
			set, err := poolLease.Item().AllocateDescriptorSet(layout)
			if err != nil {
				poolLease.Release()
				return nil, err
			}
			p.mu.Lock()
			p.setPools[set] = poolLease
			p.mu.Unlock()
			return set, nil
		},
		p.destroyDescriptorSet,
	)
}

func (p *HashPool) destroyDescriptorSet(set *driver.DescriptorSet) {
	p.mu.Lock()
	poolLease := p.setPools[set]
	delete(p.setPools, set)
	p.mu.Unlock()

	if poolLease != nil {
		poolLease.Release()
	}
}

// LeaseImage leases an image matching info.
func (p *HashPool) LeaseImage(info driver.ImageInfo) (*Lease[*driver.Image], error) {
	return lease(p, kindImage, p.images, info,
		func() (*driver.Image, error) {
			return driver.NewImage(p.device, info)
		},
		(*driver.Image).Destroy,
	)
}

// LeaseBuffer leases a buffer matching info.
func (p *HashPool) LeaseBuffer(info driver.BufferInfo) (*Lease[*driver.Buffer], error) {
	return lease(p, kindBuffer, p.buffers, info,
		func() (*driver.Buffer, error) {
			return driver.NewBuffer(p.device, info)
		},
		(*driver.Buffer).Destroy,
	)
}

// LeaseAccelerationStructure leases an acceleration structure matching
// info.
func (p *HashPool) LeaseAccelerationStructure(info driver.AccelerationStructureInfo) (*Lease[*driver.AccelerationStructure], error) {
	return lease(p, kindAccel, p.accels, info,
		func() (*driver.AccelerationStructure, error) {
			return driver.NewAccelerationStructure(p.device, info)
		},
		(*driver.AccelerationStructure).Destroy,
	)
}

// LeaseCommandBuffer leases a command buffer for one-shot work on the queue
// family. Holders must wait for its fence before releasing it.
func (p *HashPool) LeaseCommandBuffer(queueFamily int) (*Lease[*driver.CommandBuffer], error) {
	return lease(p, kindCommandBuffer, p.commandBuffers, queueFamily,
		func() (*driver.CommandBuffer, error) {
			return driver.NewCommandBuffer(p.device, queueFamily)
		},
		(*driver.CommandBuffer).Destroy,
	)
}

// LeaseRenderPass leases a render pass matching info.
func (p *HashPool) LeaseRenderPass(info driver.RenderPassInfo) (*Lease[*driver.RenderPass], error) {
	return lease(p, kindRenderPass, p.renderPasses, info,
		func() (*driver.RenderPass, error) {
			return driver.NewRenderPass(p.device, info)
		},
		(*driver.RenderPass).Destroy,
	)
}

// Clear destroys every idle object. Leases still outstanding destroy their
// object when released instead of returning it.
func (p *HashPool) Clear() {
	var destroy []func()

	p.mu.Lock()
	destroy = appendIdle(destroy, p.descriptorSets)
	destroy = appendIdle(destroy, p.descriptorPools)
	destroy = appendIdle(destroy, p.images)
	destroy = appendIdle(destroy, p.buffers)
	destroy = appendIdle(destroy, p.accels)
	destroy = appendIdle(destroy, p.commandBuffers)
	destroy = appendIdle(destroy, p.renderPasses)
	p.reset()
	p.mu.Unlock()

	for _, fn := range destroy {
		fn()
	}
	p.logger.Debug("pool cleared", "destroyed", len(destroy))
}

func appendIdle[K comparable, T any](destroy []func(), buckets map[K]*bucket[T]) []func() {
	for _, b := range buckets {
		b.dead = true
		for _, item := range b.items {
			item, fn := item, b.destroy
			destroy = append(destroy, func() { fn(item) })
		}
		b.items = nil
	}
	return destroy
}

// Stats is a snapshot of the pool.
type Stats struct {
	Hits   uint64
	Misses uint64

	// Idle counts the objects waiting in the pool per kind.
	Idle map[string]int
}

func (p *HashPool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Stats{
		Hits:   p.hits,
		Misses: p.misses,
		Idle: map[string]int{
			kindDescriptorPool: countIdle(p.descriptorPools),
			kindDescriptorSet:  countIdle(p.descriptorSets),
			kindImage:          countIdle(p.images),
			kindBuffer:         countIdle(p.buffers),
			kindAccel:          countIdle(p.accels),
			kindCommandBuffer:  countIdle(p.commandBuffers),
			kindRenderPass:     countIdle(p.renderPasses),
		},
	}
}

func countIdle[K comparable, T any](buckets map[K]*bucket[T]) int {
	n := 0
	for _, b := range buckets {
		n += len(b.items)
	}
	return n
}
