// Package display submits resolved render graphs and presents swapchain
// images, pacing the reuse of per-image command buffers on their fences.
package display

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/celer/vkgraph/driver"
	"github.com/celer/vkgraph/graph"
	"github.com/celer/vkgraph/pool"
)

// frame is the state of one swapchain image index.
type frame struct {
	main    *driver.CommandBuffer
	present *driver.CommandBuffer

	// resolver is the most recent graph submitted on this index. It is
	// released once both fences have signalled.
	resolver *graph.Resolver
}

// Display drives one swapchain. It is not safe for concurrent use.
type Display struct {
	cache       *pool.HashPool
	device      driver.Device
	swapchain   driver.Swapchain
	queueFamily int
	logger      *slog.Logger

	frames []*frame

	// pending maps an acquired image index to the graph handed out for it
	// until that graph is presented.
	pending map[uint32]*graph.RenderGraph
	stalls  int
}

// Option configures a Display.
type Option func(*Display)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(d *Display) {
		d.logger = logger
	}
}

// WithCache shares a pool with the display. By default the display creates
// its own.
func WithCache(cache *pool.HashPool) Option {
	return func(d *Display) {
		d.cache = cache
	}
}

// WithQueueFamily selects the queue family command buffers are created for
// and submitted to. The default is 0.
func WithQueueFamily(index int) Option {
	return func(d *Display) {
		d.queueFamily = index
	}
}

func New(device driver.Device, swapchain driver.Swapchain, opts ...Option) *Display {
	d := &Display{
		device:    device,
		swapchain: swapchain,
		logger:    slog.Default(),
		pending:   make(map[uint32]*graph.RenderGraph),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.cache == nil {
		d.cache = pool.New(device, pool.WithLogger(d.logger))
	}
	return d
}

// Cache is the pool the display leases descriptor sets from.
func (d *Display) Cache() *pool.HashPool {
	return d.cache
}

// Frames is the number of swapchain indices seen so far.
func (d *Display) Frames() int {
	n := 0
	for _, f := range d.frames {
		if f != nil {
			n++
		}
	}
	return n
}

// Stalls counts presents that had to block on the fence of the previous
// submission to their image index.
func (d *Display) Stalls() int {
	return d.stalls
}

// AcquireNextImage waits for the next swapchain image and returns a new
// graph with the image bound into it. A graph returned for the same index
// earlier and never presented is discarded.
func (d *Display) AcquireNextImage() (graph.SwapchainImageNode, *graph.RenderGraph, error) {
	ctx, span := tracer.Start(context.Background(), "display.AcquireNextImage")
	defer span.End()

	image, err := d.swapchain.AcquireNextImage()
	if err != nil {
		err = deviceLost(err)
		d.fail(ctx, span, "acquire", err)
		return graph.SwapchainImageNode{}, nil, err
	}
	span.SetAttributes(attribute.Int("index", int(image.Index)))

	if old, ok := d.pending[image.Index]; ok {
		d.logger.Warn("discarding graph that was never presented", "index", image.Index, "graph", old.ID())
		old.Discard()
	}
	g := graph.New()
	d.pending[image.Index] = g
	return g.BindSwapchainImage(image), g, nil
}

// PresentImage resolves g, submits it in two parts and presents the
// swapchain image behind node.
//
// The first submission holds every pass before the first one touching the
// swapchain image and waits on nothing. The second holds the rest, waits on
// the image's Acquired semaphore at the stage of its first access and
// signals Rendered, which presentation waits on.
func (d *Display) PresentImage(g *graph.RenderGraph, node graph.SwapchainImageNode) error {
	start := time.Now()
	ctx, span := tracer.Start(context.Background(), "display.PresentImage")
	defer span.End()

	r := g.Resolve()
	image := r.UnbindSwapchainImage(node)
	if d.pending[image.Index] == g {
		delete(d.pending, image.Index)
	}
	span.SetAttributes(attribute.Int("index", int(image.Index)))

	f, err := d.frame(image.Index)
	if err != nil {
		r.Release()
		err = classify(err)
		d.fail(ctx, span, "present", err)
		return err
	}

	// The previous submission on this index must be finished before its
	// command buffers are reset and its resources released.
	done, err := f.main.Done()
	if err != nil {
		r.Release()
		return d.fail(ctx, span, "present", deviceLost(err))
	}
	if !done {
		d.stalls++
		recordStall(ctx, image.Index)
	}
	if err := f.main.WaitForFence(); err != nil {
		r.Release()
		return d.fail(ctx, span, "present", deviceLost(err))
	}
	if err := f.present.WaitForFence(); err != nil {
		r.Release()
		return d.fail(ctx, span, "present", deviceLost(err))
	}
	if f.resolver != nil {
		f.resolver.Release()
	}
	f.resolver = r
	waited := time.Since(start)

	if err := f.main.Reset(); err != nil {
		return d.fail(ctx, span, "present", deviceLost(err))
	}
	if err := f.present.Reset(); err != nil {
		return d.fail(ctx, span, "present", deviceLost(err))
	}

	if err := d.submitDependencies(f, r, node); err != nil {
		return d.fail(ctx, span, "present", err)
	}
	phaseA := time.Since(start)

	if err := d.submitPresentation(f, r, node, image); err != nil {
		return d.fail(ctx, span, "present", err)
	}
	phaseB := time.Since(start)

	if err := d.swapchain.PresentImage(image); err != nil {
		return d.fail(ctx, span, "present", deviceLost(err))
	}

	elapsed := time.Since(start)
	recordPresent(ctx, image.Index, elapsed)
	d.logger.Debug("presented",
		"index", image.Index,
		"wait_us", waited.Microseconds(),
		"phase_a_us", (phaseA - waited).Microseconds(),
		"phase_b_us", (phaseB - phaseA).Microseconds(),
		"present_us", (elapsed - phaseB).Microseconds(),
	)
	return nil
}

func (d *Display) submitDependencies(f *frame, r *graph.Resolver, node graph.SwapchainImageNode) error {
	if err := f.main.Begin(); err != nil {
		return deviceLost(err)
	}
	if err := r.RecordNodeDependencies(d.cache, f.main, node); err != nil {
		return classify(err)
	}
	if err := f.main.End(); err != nil {
		return deviceLost(err)
	}
	if err := f.main.Submit(nil, nil); err != nil {
		return deviceLost(err)
	}
	return nil
}

func (d *Display) submitPresentation(f *frame, r *graph.Resolver, node graph.SwapchainImageNode, image *driver.SwapchainImage) error {
	if err := f.present.Begin(); err != nil {
		return deviceLost(err)
	}
	if err := r.RecordNode(d.cache, f.present, node); err != nil {
		return classify(err)
	}

	f.present.PipelineBarrier(driver.Barrier{
		Prev:        r.LastAccess(node),
		Next:        driver.Present,
		Image:       image.Handle(),
		Subresource: image.Info().Subresource(),
	})
	image.SetAccess(driver.Present)

	if err := f.present.End(); err != nil {
		return deviceLost(err)
	}
	waits := []driver.SemaphoreWait{{Semaphore: image.Acquired, Stage: r.NodeStageMask(node)}}
	if err := f.present.Submit(waits, []driver.Handle{image.Rendered}); err != nil {
		return deviceLost(err)
	}
	return nil
}

// frame returns the slot of index, creating it on first use.
func (d *Display) frame(index uint32) (*frame, error) {
	for len(d.frames) <= int(index) {
		d.frames = append(d.frames, nil)
	}
	if f := d.frames[index]; f != nil {
		return f, nil
	}

	main, err := driver.NewCommandBuffer(d.device, d.queueFamily)
	if err != nil {
		return nil, err
	}
	present, err := driver.NewCommandBuffer(d.device, d.queueFamily)
	if err != nil {
		main.Destroy()
		return nil, err
	}
	f := &frame{main: main, present: present}
	d.frames[index] = f
	d.logger.Debug("frame slot created", "index", index, "frames", d.Frames())
	return f, nil
}

func (d *Display) fail(ctx context.Context, span trace.Span, op string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	recordError(ctx, op, err)
	d.logger.Error("display "+op+" failed", "err", err)
	return err
}

// Destroy discards graphs that were never presented, waits for every frame,
// releases the retained graphs and destroys the command buffers and the
// pool's idle objects.
func (d *Display) Destroy() {
	for index, g := range d.pending {
		g.Discard()
		delete(d.pending, index)
	}
	for i, f := range d.frames {
		if f == nil {
			continue
		}
		for _, cmd := range []*driver.CommandBuffer{f.main, f.present} {
			if err := cmd.WaitForFence(); err != nil {
				d.logger.Warn("frame fence wait failed", "index", i, "err", err)
			}
		}
		if f.resolver != nil {
			f.resolver.Release()
		}
		f.main.Destroy()
		f.present.Destroy()
	}
	d.frames = nil
	d.cache.Clear()
}
