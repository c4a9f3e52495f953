// Package history holds the station's bounded rolling buffers: chart series,
// the vehicle trajectory and the user-visible log.
package history

// Ring is a fixed-capacity sequence that evicts its oldest element when full.
// It is not safe for concurrent use; the station serializes access.
type Ring[T any] struct {
	buf     []T
	head    int // index of the oldest element
	size    int
	evicted uint64
}

// NewRing returns an empty ring. Capacities below one are raised to one.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{buf: make([]T, capacity)}
}

// Push appends v and reports whether the oldest element was evicted.
func (r *Ring[T]) Push(v T) bool {
	if r.size < len(r.buf) {
		r.buf[(r.head+r.size)%len(r.buf)] = v
		r.size++
		return false
	}
	r.buf[r.head] = v
	r.head = (r.head + 1) % len(r.buf)
	r.evicted++
	return true
}

// Len returns the number of retained elements.
func (r *Ring[T]) Len() int { return r.size }

// Cap returns the capacity.
func (r *Ring[T]) Cap() int { return len(r.buf) }

// Evicted returns how many elements have been dropped since creation.
func (r *Ring[T]) Evicted() uint64 { return r.evicted }

// Last returns the most recently pushed element.
func (r *Ring[T]) Last() (T, bool) {
	var zero T
	if r.size == 0 {
		return zero, false
	}
	return r.buf[(r.head+r.size-1)%len(r.buf)], true
}

// Items returns a copy of the retained elements, oldest first.
func (r *Ring[T]) Items() []T {
	out := make([]T, r.size)
	for i := range r.size {
		out[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	return out
}

// Clear drops every element. The eviction counter is kept.
func (r *Ring[T]) Clear() {
	var zero T
	for i := range r.buf {
		r.buf[i] = zero
	}
	r.head, r.size = 0, 0
}
