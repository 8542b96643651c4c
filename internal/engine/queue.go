package engine

import "sync"

// dispatchQueue is the FIFO between mutation and subscriber notification.
//
// Mutations enqueue events while the engine lock is held. After the lock is
// released the caller drains the queue and invokes subscribers. A subscriber
// that mutates the engine enqueues further events; those are delivered by
// the drain already in progress rather than by a nested one, so every
// subscriber observes events in Seq order.
type dispatchQueue[T comparable] struct {
	mu       sync.Mutex
	events   []Event[T]
	draining bool
}

func newDispatchQueue[T comparable]() *dispatchQueue[T] {
	return &dispatchQueue[T]{
		events: make([]Event[T], 0, 8),
	}
}

// enqueue adds an event to the back of the queue.
func (q *dispatchQueue[T]) enqueue(ev Event[T]) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.events = append(q.events, ev)
}

// tryDequeue removes and returns the front event.
// Returns false and clears the draining flag when the queue is empty.
func (q *dispatchQueue[T]) tryDequeue() (Event[T], bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		q.draining = false
		return Event[T]{}, false
	}

	ev := q.events[0]
	// Release references held by the backing array.
	q.events[0] = Event[T]{}
	if len(q.events) == 1 {
		q.events = q.events[:0]
	} else {
		q.events = q.events[1:]
	}
	return ev, true
}

// drain delivers queued events until the queue is empty.
// Returns immediately if another drain is already running.
func (q *dispatchQueue[T]) drain(deliver func(Event[T])) {
	q.mu.Lock()
	if q.draining {
		q.mu.Unlock()
		return
	}
	q.draining = true
	q.mu.Unlock()

	for {
		ev, ok := q.tryDequeue()
		if !ok {
			return
		}
		deliver(ev)
	}
}

// len returns the number of undelivered events.
func (q *dispatchQueue[T]) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// reset drops undelivered events.
func (q *dispatchQueue[T]) reset() {
	q.mu.Lock()
	defer q.mu.Unlock()
	clear(q.events)
	q.events = q.events[:0]
}
