package pool

import "sync/atomic"

// bucket holds the idle objects of one key. A dead bucket belongs to a
// cleared pool: objects released into it are destroyed instead.
type bucket[T any] struct {
	pool    *HashPool
	kind    string
	items   []T
	dead    bool
	destroy func(T)
}

// Lease is exclusive use of one pooled object. It returns to the bucket it
// came from when the last holder releases it.
type Lease[T any] struct {
	item   T
	bucket *bucket[T]
	refs   atomic.Int32
}

func newLease[T any](item T, b *bucket[T]) *Lease[T] {
	l := &Lease[T]{item: item, bucket: b}
	l.refs.Store(1)
	return l
}

// Item is the leased object. It must not be used after the final Release.
func (l *Lease[T]) Item() T {
	return l.item
}

// Retain adds a holder. Every Retain must be matched by a Release.
func (l *Lease[T]) Retain() *Lease[T] {
	if l.refs.Add(1) <= 1 {
		panic("pool: retain of released lease")
	}
	return l
}

// Release drops one holder. The last release returns the object to its
// bucket, or destroys it if the pool has been cleared since.
func (l *Lease[T]) Release() {
	switch n := l.refs.Add(-1); {
	case n > 0:
		return
	case n < 0:
		panic("pool: lease released too many times")
	}

	b := l.bucket
	p := b.pool
	p.mu.Lock()
	if !b.dead {
		b.items = append(b.items, l.item)
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	p.logger.Debug("destroying lease of cleared pool", "kind", b.kind)
	b.destroy(l.item)
}
