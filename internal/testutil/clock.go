package testutil

import (
	"sort"
	"sync"
	"time"
)

// Epoch is the default start time of a VirtualClock.
var Epoch = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

// VirtualClock is a manually advanced time source with one-shot timers.
//
// It satisfies engine.Clock structurally. Time only moves when Advance is
// called; due timers fire synchronously from Advance in deadline order, with
// ties broken by scheduling order. Callbacks run without the clock lock held,
// so they may schedule or cancel further timers.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type VirtualClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*virtualTimer
	nextID int
}

type virtualTimer struct {
	id int
	at time.Time
	f  func()
}

// NewVirtualClock creates a clock reading start. A zero start means Epoch.
func NewVirtualClock(start time.Time) *VirtualClock {
	if start.IsZero() {
		start = Epoch
	}
	return &VirtualClock{now: start}
}

// Now returns the current virtual time.
func (c *VirtualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc schedules f to run once the clock has been advanced by d.
// The returned function cancels the timer and reports whether it was still
// pending.
func (c *VirtualClock) AfterFunc(d time.Duration, f func()) func() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := &virtualTimer{id: c.nextID, at: c.now.Add(d), f: f}
	c.nextID++
	c.timers = append(c.timers, t)

	return func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.remove(t)
	}
}

// Advance moves the clock forward by d, firing every timer that falls due.
// Timers scheduled by a callback fire in the same call if they fall due
// before the target time.
func (c *VirtualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		c.mu.Lock()
		t := c.due(target)
		if t == nil {
			c.now = target
			c.mu.Unlock()
			return
		}
		c.remove(t)
		c.now = t.at
		c.mu.Unlock()

		t.f()
	}
}

// Pending returns the number of scheduled timers.
func (c *VirtualClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

// NextDeadline returns the earliest pending deadline.
func (c *VirtualClock) NextDeadline() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.earliest()
	if t == nil {
		return time.Time{}, false
	}
	return t.at, true
}

// due returns the earliest timer at or before target.
func (c *VirtualClock) due(target time.Time) *virtualTimer {
	t := c.earliest()
	if t == nil || t.at.After(target) {
		return nil
	}
	return t
}

func (c *VirtualClock) earliest() *virtualTimer {
	if len(c.timers) == 0 {
		return nil
	}
	sort.SliceStable(c.timers, func(i, j int) bool {
		if c.timers[i].at.Equal(c.timers[j].at) {
			return c.timers[i].id < c.timers[j].id
		}
		return c.timers[i].at.Before(c.timers[j].at)
	})
	return c.timers[0]
}

func (c *VirtualClock) remove(t *virtualTimer) bool {
	for i, x := range c.timers {
		if x == t {
			c.timers = append(c.timers[:i], c.timers[i+1:]...)
			return true
		}
	}
	return false
}
