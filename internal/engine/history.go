package engine

// historyRing stores the last N events, oldest discarded first.
// A size of 0 retains nothing.
type historyRing[T comparable] struct {
	size   int
	events []Event[T]
	next   int
	full   bool
}

func newHistoryRing[T comparable](size int) *historyRing[T] {
	if size < 0 {
		size = 0
	}
	return &historyRing[T]{
		size:   size,
		events: make([]Event[T], size),
	}
}

func (r *historyRing[T]) add(ev Event[T]) {
	if r.size == 0 {
		return
	}
	r.events[r.next] = ev
	r.next++
	if r.next >= r.size {
		r.next = 0
		r.full = true
	}
}

// snapshot returns the buffered events in chronological order.
func (r *historyRing[T]) snapshot() []Event[T] {
	if !r.full {
		out := make([]Event[T], r.next)
		copy(out, r.events[:r.next])
		return out
	}

	out := make([]Event[T], r.size)
	copy(out, r.events[r.next:])
	copy(out[r.size-r.next:], r.events[:r.next])
	return out
}
