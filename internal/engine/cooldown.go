package engine

import "time"

// cooldown ignores user interactions for a window after the last one.
//
// Only user-driven calls are gated and only user-driven calls arm the
// window; programmatic and autoplay calls pass straight through.
type cooldown[T comparable] struct {
	duration     time.Duration
	durationFunc func(s Snapshot[T]) time.Duration

	lastTime time.Time
	end      time.Time
	armed    bool
}

func (c *cooldown[T]) configured() bool {
	return c.duration != 0 || c.durationFunc != nil
}

// isActive reports whether a call with opts must be ignored at now.
func (c *cooldown[T]) isActive(opts ActionOptions, now time.Time) bool {
	if !opts.IsUserInteraction || !c.armed {
		return false
	}
	return !now.After(c.end)
}

// arm opens a new window after a user-driven change to content.
//
// The change has already been applied when arm runs; a non-positive
// duration is reported without undoing it.
func (c *cooldown[T]) arm(op string, opts ActionOptions, content *Content[T], now time.Time) error {
	if !opts.IsUserInteraction {
		return nil
	}
	if opts.Cooldown == 0 && !c.configured() {
		return nil
	}

	d := opts.Cooldown
	if d == 0 {
		if c.durationFunc != nil {
			d = c.durationFunc(content.snapshot())
		} else {
			d = c.duration
		}
	}
	if d <= 0 {
		return newDurationError(ErrCodeCooldownDurationInvalid, op, d)
	}

	c.lastTime = now
	c.end = now.Add(d)
	c.armed = true
	return nil
}
