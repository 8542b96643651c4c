package engine

// Content wraps one value held by an Engine together with its derived
// positional facts.
//
// Contents are created and owned by the engine; the facts are recomputed
// after every activation change and structural mutation. Accessors take the
// engine lock, so they are safe to call from subscribers and other
// goroutines, but must not be called from inside a Predicate or a duration
// callback (those receive a Snapshot instead).
type Content[T comparable] struct {
	engine *Engine[T]
	value  T

	index               int
	isActive            bool
	hasBeenActiveBefore bool
	isFirst             bool
	isLast              bool
	hasNext             bool
	hasPrevious         bool
	isNext              bool
	isPrevious          bool
}

// Snapshot is a copy of a Content's state at one point in time.
// Predicates and duration callbacks receive snapshots because they run
// while the engine lock is held.
type Snapshot[T comparable] struct {
	Value               T
	Index               int
	IsActive            bool
	HasBeenActiveBefore bool
	IsFirst             bool
	IsLast              bool
	HasNext             bool
	HasPrevious         bool
	IsNext              bool
	IsPrevious          bool
}

// Predicate selects contents in the *ByPredicate operations.
type Predicate[T comparable] func(s Snapshot[T]) bool

func (c *Content[T]) snapshot() Snapshot[T] {
	return Snapshot[T]{
		Value:               c.value,
		Index:               c.index,
		IsActive:            c.isActive,
		HasBeenActiveBefore: c.hasBeenActiveBefore,
		IsFirst:             c.isFirst,
		IsLast:              c.isLast,
		HasNext:             c.hasNext,
		HasPrevious:         c.hasPrevious,
		IsNext:              c.isNext,
		IsPrevious:          c.isPrevious,
	}
}

// Snapshot returns a copy of the content's current state.
func (c *Content[T]) Snapshot() Snapshot[T] {
	c.engine.mu.Lock()
	defer c.engine.mu.Unlock()
	return c.snapshot()
}

// Value returns the wrapped value.
func (c *Content[T]) Value() T {
	// value is immutable after construction
	return c.value
}

// Index returns the current position, or -1 once the content was removed.
func (c *Content[T]) Index() int {
	c.engine.mu.Lock()
	defer c.engine.mu.Unlock()
	return c.index
}

func (c *Content[T]) IsActive() bool            { return c.Snapshot().IsActive }
func (c *Content[T]) HasBeenActiveBefore() bool { return c.Snapshot().HasBeenActiveBefore }
func (c *Content[T]) IsFirst() bool             { return c.Snapshot().IsFirst }
func (c *Content[T]) IsLast() bool              { return c.Snapshot().IsLast }
func (c *Content[T]) HasNext() bool             { return c.Snapshot().HasNext }
func (c *Content[T]) HasPrevious() bool         { return c.Snapshot().HasPrevious }
func (c *Content[T]) IsNext() bool              { return c.Snapshot().IsNext }
func (c *Content[T]) IsPrevious() bool          { return c.Snapshot().IsPrevious }

// Activate activates this content.
func (c *Content[T]) Activate(opts ActionOptions) error {
	return c.engine.withContent(c, "activate", func(i int) error {
		return c.engine.activate(i, opts)
	})
}

// Deactivate deactivates this content.
func (c *Content[T]) Deactivate(opts ActionOptions) error {
	return c.engine.withContent(c, "deactivate", func(i int) error {
		return c.engine.deactivate(i, opts)
	})
}

// Toggle activates this content when inactive and deactivates it otherwise.
func (c *Content[T]) Toggle(opts ActionOptions) error {
	return c.engine.withContent(c, "toggle", func(i int) error {
		return c.engine.toggle(i, opts)
	})
}

// Remove removes this content from its engine.
func (c *Content[T]) Remove() error {
	return c.engine.withContent(c, "remove", func(i int) error {
		return c.engine.remove(i)
	})
}

// SwapWith swaps this content with other.
func (c *Content[T]) SwapWith(other *Content[T]) error {
	return c.engine.withContent(c, "swap", func(i int) error {
		j, ok := c.engine.positionOf(other)
		if !ok {
			return newNotFoundError("swap", "content")
		}
		return c.engine.swap(i, j)
	})
}

// SwapWithNext swaps this content with its successor. Wraps around in
// circular mode; a no-op for the last content otherwise.
func (c *Content[T]) SwapWithNext() error {
	return c.engine.withContent(c, "swap", func(i int) error {
		j, ok := c.engine.neighbour(i, 1)
		if !ok {
			return nil
		}
		return c.engine.swap(i, j)
	})
}

// SwapWithPrevious swaps this content with its predecessor. Wraps around
// in circular mode; a no-op for the first content otherwise.
func (c *Content[T]) SwapWithPrevious() error {
	return c.engine.withContent(c, "swap", func(i int) error {
		j, ok := c.engine.neighbour(i, -1)
		if !ok {
			return nil
		}
		return c.engine.swap(i, j)
	})
}

// MoveToIndex moves this content to position to.
func (c *Content[T]) MoveToIndex(to int) error {
	return c.engine.withContent(c, "move", func(i int) error {
		return c.engine.move(i, to)
	})
}

// MoveToFirst moves this content to the front.
func (c *Content[T]) MoveToFirst() error {
	return c.MoveToIndex(0)
}

// MoveToLast moves this content to the back.
func (c *Content[T]) MoveToLast() error {
	return c.engine.withContent(c, "move", func(i int) error {
		return c.engine.move(i, len(c.engine.contents)-1)
	})
}

// MoveForward moves this content one position towards the back. Wraps to
// the front in circular mode; a no-op for the last content otherwise.
func (c *Content[T]) MoveForward() error {
	return c.engine.withContent(c, "move", func(i int) error {
		j, ok := c.engine.neighbour(i, 1)
		if !ok {
			return nil
		}
		return c.engine.move(i, j)
	})
}

// MoveBackward moves this content one position towards the front. Wraps to
// the back in circular mode; a no-op for the first content otherwise.
func (c *Content[T]) MoveBackward() error {
	return c.engine.withContent(c, "move", func(i int) error {
		j, ok := c.engine.neighbour(i, -1)
		if !ok {
			return nil
		}
		return c.engine.move(i, j)
	})
}
