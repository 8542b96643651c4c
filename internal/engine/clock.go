package engine

import (
	"sync/atomic"
	"time"
)

// Clock supplies wall-clock time and one-shot timers to the cooldown and
// autoplay machinery.
//
// AfterFunc schedules f to run once after d and returns a cancel function
// reporting whether the call stopped the timer before it fired. Production
// code uses SystemClock; tests inject a virtual clock (see
// internal/testutil.VirtualClock) so time can be advanced deterministically.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) (cancel func() bool)
}

// SystemClock is the Clock backed by package time.
//
// Timer callbacks run on their own goroutine; the engine serializes them
// against public operations with its mutex.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time {
	return time.Now()
}

// AfterFunc wraps time.AfterFunc.
func (SystemClock) AfterFunc(d time.Duration, f func()) func() bool {
	t := time.AfterFunc(d, f)
	return t.Stop
}

// Sequencer is a monotonic logical clock used to stamp events.
//
// Every emitted event receives a strictly increasing Seq. Ordering of a
// recorded event log uses Seq, never the wall-clock Time field, so replays
// produce identical order.
//
// Thread-safety: Sequencer is safe for concurrent use (atomic operations).
type Sequencer struct {
	seq atomic.Int64
}

// NewSequencer creates a new sequencer starting at 0.
func NewSequencer() *Sequencer {
	return &Sequencer{}
}

// NewSequencerAt creates a sequencer starting at a specific sequence number.
// Used by replay to continue numbering after the last recorded event.
func NewSequencerAt(start int64) *Sequencer {
	s := &Sequencer{}
	s.seq.Store(start)
	return s
}

// Next returns the next sequence number and increments the sequencer.
func (s *Sequencer) Next() int64 {
	return s.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (s *Sequencer) Current() int64 {
	return s.seq.Load()
}
