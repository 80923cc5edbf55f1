package vkg

import (
	"fmt"
)

// Allocation is a range of a memory block.
type Allocation struct {
	Offset uint64
	Size   uint64
}

func (a *Allocation) String() string {
	return fmt.Sprintf("[%d %d]", a.Offset, a.Size)
}

// LinearAllocator hands out first-fit ranges of a block of Size bytes. The
// allocations are kept sorted by offset.
type LinearAllocator struct {
	Size   uint64
	allocs []*Allocation
}

func makeAlignUp(a uint64, align uint64) uint64 {
	if align <= 1 {
		return a
	}
	m := a % align
	if m == 0 {
		return a
	}
	return (a - m) + align
}

// Free returns fa to the block. Freeing an allocation twice is a no-op.
func (p *LinearAllocator) Free(fa *Allocation) {
	for i, a := range p.allocs {
		if a == fa {
			p.allocs = append(p.allocs[:i], p.allocs[i+1:]...)
			return
		}
	}
}

// Allocate returns the first aligned gap that fits size bytes, or nil if
// there is none.
func (p *LinearAllocator) Allocate(size uint64, align uint64) *Allocation {
	if size == 0 || size > p.Size {
		return nil
	}

	var start uint64
	for i, c := range p.allocs {
		if c.Offset >= start && c.Offset-start >= size {
			na := &Allocation{Offset: start, Size: size}
			p.allocs = append(p.allocs[:i], append([]*Allocation{na}, p.allocs[i:]...)...)
			return na
		}
		start = makeAlignUp(c.Offset+c.Size, align)
	}

	if start <= p.Size && p.Size-start >= size {
		na := &Allocation{Offset: start, Size: size}
		p.allocs = append(p.allocs, na)
		return na
	}
	return nil
}

// Used is the number of bytes currently allocated.
func (p *LinearAllocator) Used() uint64 {
	var n uint64
	for _, a := range p.allocs {
		n += a.Size
	}
	return n
}

// Empty reports whether nothing is allocated.
func (p *LinearAllocator) Empty() bool {
	return len(p.allocs) == 0
}

func (p *LinearAllocator) String() string {
	return fmt.Sprintf("%v", p.allocs)
}
