package driver

// Barrier is one synchronization point between two accesses of a resource.
// Image and Buffer name the resource; when both are zero the barrier is a
// global memory barrier (acceleration structures use these).
type Barrier struct {
	Prev, Next  AccessType
	Image       Handle
	Buffer      Handle
	Subresource ImageSubresource

	// Discard lets an image barrier drop the previous contents by
	// transitioning from the undefined layout.
	Discard bool
}

// BarrierMasks is the flattened form of a Barrier a device records.
type BarrierMasks struct {
	SrcStage  PipelineStageFlags
	DstStage  PipelineStageFlags
	SrcAccess AccessFlags
	DstAccess AccessFlags
	OldLayout ImageLayout
	NewLayout ImageLayout
}

// Masks computes the stage, access and layout masks for the barrier.
//
// Source access bits are only made available when the previous access
// wrote; destination access bits are only made visible when there is
// something to make visible or the image layout changes. A barrier with no
// source stage waits on the top of the pipe, one with no destination stage
// blocks only the bottom of the pipe.
func (b Barrier) Masks() BarrierMasks {
	prev, next := b.Prev.Info(), b.Next.Info()

	var m BarrierMasks
	m.SrcStage = prev.StageMask
	m.DstStage = next.StageMask
	if prev.write {
		m.SrcAccess = prev.AccessMask
	}

	m.OldLayout = prev.Layout
	m.NewLayout = next.Layout
	if b.Discard || b.Prev == Nothing {
		m.OldLayout = ImageLayoutUndefined
	}

	layoutChange := b.Image != 0 && m.OldLayout != m.NewLayout
	if m.SrcAccess != 0 || layoutChange {
		m.DstAccess = next.AccessMask
	}

	if m.SrcStage == 0 {
		m.SrcStage = PipelineStageTopOfPipe
	}
	if m.DstStage == 0 {
		m.DstStage = PipelineStageBottomOfPipe
	}
	return m
}

// NeedsBarrier reports whether moving a resource from prev to next access
// requires a barrier. Repeating a read needs nothing; any change of access
// type or any access following a write does. The first access of a buffer
// has nothing to wait on, but an image still needs its layout transition.
func NeedsBarrier(prev, next AccessType, image bool) bool {
	if prev == Nothing {
		return image && next.Layout() != ImageLayoutUndefined
	}
	if prev == next {
		return prev.IsWrite()
	}
	return true
}
