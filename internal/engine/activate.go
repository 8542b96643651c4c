package engine

import "slices"

// activate is the single-content activation used by Content and
// Initialize. Caller holds e.mu.
func (e *Engine[T]) activate(i int, opts ActionOptions) error {
	_, err := e.activateIndex("activate", i, opts)
	return err
}

// activateIndex activates the content at i and reports whether anything
// changed. Caller holds e.mu.
//
// Order of effects: mutate, repair, autoplay, cooldown, event. A timer error
// is returned with the activation already applied and no event emitted.
func (e *Engine[T]) activateIndex(op string, i int, opts ActionOptions) (bool, error) {
	if err := e.checkIndex(op, i); err != nil {
		return false, err
	}
	c := e.contents[i]
	if c.isActive || e.cooldown.isActive(opts, e.clock.Now()) {
		return false, nil
	}

	evicted, ok, err := e.applyActivation(op, c)
	if err != nil || !ok {
		return false, err
	}

	if err := e.autoplayOnActiveIndexChanged(c.index, opts); err != nil {
		return true, err
	}
	if err := e.cooldown.arm(op, opts, c, e.clock.Now()); err != nil {
		return true, err
	}

	e.emit(EventActivated, []T{c.value}, []int{c.index}, evicted)
	e.logger.Debug("content activated",
		"engine_id", e.id,
		"index", c.index,
		"user", opts.IsUserInteraction,
		"direction", e.direction,
	)
	return true, nil
}

// applyActivation marks c active, enforcing the limit. It returns the
// contents evicted by the circular behavior and false when the ignore
// behavior dropped the request.
func (e *Engine[T]) applyActivation(op string, c *Content[T]) ([]*Content[T], bool, error) {
	limited := e.maxActivationLimit != NoActivationLimit
	if limited && len(e.active) >= e.maxActivationLimit {
		switch e.limitBehavior {
		case LimitError:
			return nil, false, newLimitError(op, e.maxActivationLimit)
		case LimitIgnore:
			return nil, false, nil
		}
	}

	e.direction = e.directionTo(c.index)

	c.isActive = true
	c.hasBeenActiveBefore = true
	e.active = append(e.active, c)

	var evicted []*Content[T]
	for limited && len(e.active) > e.maxActivationLimit {
		oldest := e.active[0]
		oldest.isActive = false
		e.active = slices.Delete(e.active, 0, 1)
		evicted = append(evicted, oldest)
	}

	e.repair()
	return evicted, true, nil
}

// deactivate is the single-content deactivation used by Content.
// Caller holds e.mu.
func (e *Engine[T]) deactivate(i int, opts ActionOptions) error {
	_, err := e.deactivateIndex("deactivate", i, opts)
	return err
}

func (e *Engine[T]) deactivateIndex(op string, i int, opts ActionOptions) (bool, error) {
	if err := e.checkIndex(op, i); err != nil {
		return false, err
	}
	c := e.contents[i]
	if !c.isActive || e.cooldown.isActive(opts, e.clock.Now()) {
		return false, nil
	}

	e.applyDeactivation(c)
	e.autoplayOnDeactivation(opts)

	if err := e.cooldown.arm(op, opts, c, e.clock.Now()); err != nil {
		return true, err
	}

	e.emit(EventDeactivated, []T{c.value}, []int{c.index}, nil)
	e.logger.Debug("content deactivated",
		"engine_id", e.id,
		"index", c.index,
		"user", opts.IsUserInteraction,
		"direction", e.direction,
	)
	return true, nil
}

// applyDeactivation clears c from the active set. The reported direction is
// the inverse of moving toward the vacated position from the new last
// activated content.
func (e *Engine[T]) applyDeactivation(c *Content[T]) {
	c.isActive = false
	e.active = slices.DeleteFunc(e.active, func(x *Content[T]) bool {
		return x == c
	})

	if len(e.active) == 0 {
		e.direction = e.directions.Next
	} else {
		e.direction = e.invert(e.directionTo(c.index))
	}
	e.repair()
}

func (e *Engine[T]) toggle(i int, opts ActionOptions) error {
	if err := e.checkIndex("toggle", i); err != nil {
		return err
	}
	if e.contents[i].isActive {
		_, err := e.deactivateIndex("toggle", i, opts)
		return err
	}
	_, err := e.activateIndex("toggle", i, opts)
	return err
}

// activateMatching activates every inactive content matching pred with one
// ActivatedMultiple event. Predicates see the state before the sweep.
func (e *Engine[T]) activateMatching(pred Predicate[T], opts ActionOptions) error {
	const op = "activate_by_predicate"
	if e.cooldown.isActive(opts, e.clock.Now()) {
		return nil
	}

	var matches []*Content[T]
	for _, c := range e.contents {
		if !c.isActive && pred(c.snapshot()) {
			matches = append(matches, c)
		}
	}
	if len(matches) == 0 {
		return nil
	}

	if e.limitBehavior == LimitError && e.maxActivationLimit != NoActivationLimit &&
		len(e.active)+len(matches) > e.maxActivationLimit {
		return newLimitError(op, e.maxActivationLimit)
	}

	var (
		changed []*Content[T]
		evicted []*Content[T]
	)
	for _, c := range matches {
		ev, ok, err := e.applyActivation(op, c)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		changed = append(changed, c)
		evicted = append(evicted, ev...)
	}
	if len(changed) == 0 {
		return nil
	}

	last := changed[len(changed)-1]
	if err := e.autoplayOnActiveIndexChanged(last.index, opts); err != nil {
		return err
	}
	if err := e.cooldown.arm(op, opts, last, e.clock.Now()); err != nil {
		return err
	}

	values, indexes := valuesAndIndexes(changed)
	e.emit(EventActivatedMultiple, values, indexes, evicted)
	return nil
}

// deactivateMatching deactivates every active content matching pred with
// one DeactivatedMultiple event.
func (e *Engine[T]) deactivateMatching(pred Predicate[T], opts ActionOptions) error {
	const op = "deactivate_by_predicate"
	if e.cooldown.isActive(opts, e.clock.Now()) {
		return nil
	}

	var matches []*Content[T]
	for _, c := range e.contents {
		if c.isActive && pred(c.snapshot()) {
			matches = append(matches, c)
		}
	}
	if len(matches) == 0 {
		return nil
	}

	for _, c := range matches {
		e.applyDeactivation(c)
	}
	e.autoplayOnDeactivation(opts)

	if err := e.cooldown.arm(op, opts, matches[len(matches)-1], e.clock.Now()); err != nil {
		return err
	}

	values, indexes := valuesAndIndexes(matches)
	e.emit(EventDeactivatedMultiple, values, indexes, nil)
	return nil
}

func valuesAndIndexes[T comparable](cs []*Content[T]) ([]T, []int) {
	values := make([]T, len(cs))
	indexes := make([]int, len(cs))
	for i, c := range cs {
		values[i] = c.value
		indexes[i] = c.index
	}
	return values, indexes
}

// nextIndex resolves the traversal target after the last activated content.
// With nothing active the target is the first position.
func (e *Engine[T]) nextIndex() int {
	n := len(e.contents)
	last := e.lastIndex()
	if last == -1 {
		return 0
	}
	target := last + 1
	if target >= n {
		if e.isCircular {
			return 0
		}
		return n - 1
	}
	return target
}

// previousIndex resolves the traversal target before the last activated
// content. With nothing active a circular engine targets the last position
// and a linear one the first.
func (e *Engine[T]) previousIndex() int {
	n := len(e.contents)
	last := e.lastIndex()
	if last == -1 {
		if e.isCircular {
			return n - 1
		}
		return 0
	}
	target := last - 1
	if target < 0 {
		if e.isCircular {
			return n - 1
		}
		return 0
	}
	return target
}

// Activate activates the content at index.
func (e *Engine[T]) Activate(index int, opts ActionOptions) error {
	return e.locked(func() error {
		_, err := e.activateIndex("activate", index, opts)
		return err
	})
}

// ActivateByValue activates the first content holding v.
func (e *Engine[T]) ActivateByValue(v T, opts ActionOptions) error {
	return e.locked(func() error {
		i := e.indexOfValue(v)
		if i == -1 {
			return newNotFoundError("activate_by_value", "value")
		}
		_, err := e.activateIndex("activate_by_value", i, opts)
		return err
	})
}

// ActivateByPredicate activates every inactive content matching pred, in
// position order, and emits a single ActivatedMultiple event.
//
// With LimitError the whole sweep is rejected when it would exceed the
// limit. With LimitCircular earlier matches may be evicted by later ones.
func (e *Engine[T]) ActivateByPredicate(pred Predicate[T], opts ActionOptions) error {
	return e.locked(func() error {
		return e.activateMatching(pred, opts)
	})
}

// ActivateNext activates the content after the last activated one. Circular
// engines wrap; linear engines stay on the last content. The traversal
// methods are no-ops on an empty engine.
func (e *Engine[T]) ActivateNext(opts ActionOptions) error {
	return e.locked(func() error {
		if len(e.contents) == 0 {
			return nil
		}
		_, err := e.activateIndex("activate_next", e.nextIndex(), opts)
		return err
	})
}

// ActivatePrevious activates the content before the last activated one.
// Circular engines wrap; linear engines stay on the first content.
func (e *Engine[T]) ActivatePrevious(opts ActionOptions) error {
	return e.locked(func() error {
		if len(e.contents) == 0 {
			return nil
		}
		_, err := e.activateIndex("activate_previous", e.previousIndex(), opts)
		return err
	})
}

// ActivateFirst activates the first content.
func (e *Engine[T]) ActivateFirst(opts ActionOptions) error {
	return e.locked(func() error {
		if len(e.contents) == 0 {
			return nil
		}
		_, err := e.activateIndex("activate_first", 0, opts)
		return err
	})
}

// ActivateLast activates the last content.
func (e *Engine[T]) ActivateLast(opts ActionOptions) error {
	return e.locked(func() error {
		if len(e.contents) == 0 {
			return nil
		}
		_, err := e.activateIndex("activate_last", len(e.contents)-1, opts)
		return err
	})
}

// Deactivate deactivates the content at index.
func (e *Engine[T]) Deactivate(index int, opts ActionOptions) error {
	return e.locked(func() error {
		_, err := e.deactivateIndex("deactivate", index, opts)
		return err
	})
}

// DeactivateByValue deactivates the first content holding v.
func (e *Engine[T]) DeactivateByValue(v T, opts ActionOptions) error {
	return e.locked(func() error {
		i := e.indexOfValue(v)
		if i == -1 {
			return newNotFoundError("deactivate_by_value", "value")
		}
		_, err := e.deactivateIndex("deactivate_by_value", i, opts)
		return err
	})
}

// DeactivateByPredicate deactivates every active content matching pred and
// emits a single DeactivatedMultiple event.
func (e *Engine[T]) DeactivateByPredicate(pred Predicate[T], opts ActionOptions) error {
	return e.locked(func() error {
		return e.deactivateMatching(pred, opts)
	})
}

// Toggle flips the activation of the content at index.
func (e *Engine[T]) Toggle(index int, opts ActionOptions) error {
	return e.locked(func() error {
		return e.toggle(index, opts)
	})
}

// ToggleByValue flips the activation of the first content holding v.
func (e *Engine[T]) ToggleByValue(v T, opts ActionOptions) error {
	return e.locked(func() error {
		i := e.indexOfValue(v)
		if i == -1 {
			return newNotFoundError("toggle_by_value", "value")
		}
		return e.toggle(i, opts)
	})
}
