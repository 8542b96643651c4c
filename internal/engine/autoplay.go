package engine

import "time"

// AutoplayConfig enables automatic advancing to the next content.
type AutoplayConfig[T comparable] struct {
	// Duration is how long each content stays active before advancing.
	Duration time.Duration

	// DurationFunc, when set, resolves the duration from the last
	// activated content and takes precedence over Duration.
	DurationFunc func(s Snapshot[T]) time.Duration

	// StopsOnUserInteraction stops autoplay on the first user-driven
	// activation or deactivation.
	StopsOnUserInteraction bool
}

// AutoplayState reports the autoplay timer state.
type AutoplayState struct {
	Configured           bool
	Playing              bool
	Pending              bool
	HasBeenStoppedBefore bool
	Duration             time.Duration
	Remaining            time.Duration
}

// autoplay owns at most one pending timer.
//
// playing is the intent to advance. It survives activation changes and is
// cleared by pause and stop. generation is bumped whenever the pending timer
// is replaced or cancelled so that a callback which already left the clock
// cannot act on a state it was not scheduled for.
type autoplay[T comparable] struct {
	config *AutoplayConfig[T]

	cancel        func() bool
	playing       bool
	stoppedBefore bool

	startedAt time.Time
	duration  time.Duration
	remaining time.Duration

	generation uint64
}

func (a *autoplay[T]) cancelTimer() {
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.generation++
}

// playAutoplay arms the timer for the last activated content. Caller holds
// e.mu.
func (e *Engine[T]) playAutoplay() error {
	a := &e.autoplay
	a.cancelTimer()

	if a.config == nil || len(e.contents) == 0 {
		return nil
	}
	last := e.last()
	if last == nil {
		return nil
	}

	d := a.remaining
	if d <= 0 {
		d = a.config.Duration
		if a.config.DurationFunc != nil {
			d = a.config.DurationFunc(last.snapshot())
		}
		if d <= 0 {
			return newDurationError(ErrCodeAutoplayDurationInvalid, "play", d)
		}
	}

	gen := a.generation
	a.remaining = 0
	a.duration = d
	a.startedAt = e.clock.Now()
	a.cancel = e.clock.AfterFunc(d, func() {
		e.autoplayExpired(gen)
	})
	return nil
}

// pauseAutoplay cancels the pending timer and remembers the time left.
func (e *Engine[T]) pauseAutoplay() {
	a := &e.autoplay
	if a.cancel != nil {
		elapsed := e.clock.Now().Sub(a.startedAt)
		if left := a.duration - elapsed; left > 0 {
			a.remaining = left
		}
	}
	a.cancelTimer()
	a.playing = false
}

// stopAutoplay cancels the pending timer and forgets the time left.
func (e *Engine[T]) stopAutoplay() {
	a := &e.autoplay
	a.cancelTimer()
	a.remaining = 0
	a.playing = false
	if a.config != nil {
		a.stoppedBefore = true
	}
}

// autoplayOnActiveIndexChanged is called after every activation.
func (e *Engine[T]) autoplayOnActiveIndexChanged(index int, opts ActionOptions) error {
	a := &e.autoplay
	if a.config == nil {
		return nil
	}

	if opts.IsUserInteraction && a.config.StopsOnUserInteraction {
		e.stopAutoplay()
		return nil
	}
	if !e.isCircular && index == len(e.contents)-1 {
		e.stopAutoplay()
		return nil
	}

	// A new content always gets its full duration.
	a.remaining = 0
	if !a.playing {
		return nil
	}
	return e.playAutoplay()
}

// autoplayOnDeactivation is called after every deactivation.
func (e *Engine[T]) autoplayOnDeactivation(opts ActionOptions) {
	a := &e.autoplay
	if a.config == nil {
		return
	}
	if opts.IsUserInteraction && a.config.StopsOnUserInteraction {
		e.stopAutoplay()
	}
}

// autoplayExpired runs on the clock's goroutine when a timer fires.
func (e *Engine[T]) autoplayExpired(gen uint64) {
	e.mu.Lock()

	a := &e.autoplay
	if gen != a.generation {
		// Superseded; a.cancel belongs to the newer timer.
		e.mu.Unlock()
		return
	}
	a.cancel = nil
	if !a.playing || len(e.contents) == 0 || e.last() == nil {
		e.mu.Unlock()
		return
	}

	changed, err := e.activateIndex("autoplay", e.nextIndex(), Auto())
	if err == nil && !changed {
		// Nothing to advance to, e.g. a single content or a full ignore-mode
		// limit. Re-arming would spin on the same content.
		e.stopAutoplay()
	}
	e.mu.Unlock()

	e.flush()

	if err != nil {
		e.logger.Warn("autoplay advance failed",
			"engine_id", e.id,
			"error", err,
		)
	}
}

// Play starts or resumes autoplay. After Pause the current content keeps the
// time it had left; after Stop it gets its full duration.
func (e *Engine[T]) Play() error {
	return e.locked(func() error {
		if e.autoplay.config == nil {
			return nil
		}
		e.autoplay.playing = true
		return e.playAutoplay()
	})
}

// Pause suspends autoplay, remembering the time left on the current content.
func (e *Engine[T]) Pause() {
	_ = e.locked(func() error {
		e.pauseAutoplay()
		return nil
	})
}

// Stop halts autoplay and discards the time left on the current content.
func (e *Engine[T]) Stop() {
	_ = e.locked(func() error {
		e.stopAutoplay()
		return nil
	})
}

// ConfigureAutoplay replaces the autoplay configuration and starts playing.
// A nil cfg disables autoplay.
func (e *Engine[T]) ConfigureAutoplay(cfg *AutoplayConfig[T]) error {
	return e.locked(func() error {
		a := &e.autoplay
		a.cancelTimer()
		a.remaining = 0
		a.config = cfg
		a.playing = cfg != nil
		if cfg == nil {
			return nil
		}
		return e.playAutoplay()
	})
}

// AutoplayState returns a snapshot of the autoplay timer.
func (e *Engine[T]) AutoplayState() AutoplayState {
	e.mu.Lock()
	defer e.mu.Unlock()

	a := &e.autoplay
	st := AutoplayState{
		Configured:           a.config != nil,
		Playing:              a.playing,
		Pending:              a.cancel != nil,
		HasBeenStoppedBefore: a.stoppedBefore,
		Duration:             a.duration,
		Remaining:            a.remaining,
	}
	if a.cancel != nil {
		if left := a.duration - e.clock.Now().Sub(a.startedAt); left > 0 {
			st.Remaining = left
		} else {
			st.Remaining = 0
		}
	}
	return st
}
