package engine

import "slices"

// Placement positions an inserted or moved content relative to the first
// content matching a predicate.
type Placement string

const (
	// PlaceAt takes the matched content's position.
	PlaceAt Placement = "at"
	// PlaceBefore lands directly in front of the matched content.
	PlaceBefore Placement = "before"
	// PlaceAfter lands directly behind the matched content.
	PlaceAfter Placement = "after"
)

// Valid reports whether p is a known placement.
func (p Placement) Valid() bool {
	switch p {
	case PlaceAt, PlaceBefore, PlaceAfter:
		return true
	}
	return false
}

func (e *Engine[T]) insert(op string, v T, i int) error {
	n := len(e.contents)
	if i < 0 || i > n {
		return newIndexError(op, i, n, true)
	}

	c := &Content[T]{engine: e, value: v}
	e.contents = slices.Insert(e.contents, i, c)
	e.repair()

	e.emit(EventInserted, []T{v}, []int{i}, nil)
	e.logger.Debug("content inserted", "engine_id", e.id, "index", i, "len", n+1)
	return nil
}

// detach removes the content at i without emitting. Caller holds e.mu and
// has checked i.
func (e *Engine[T]) detach(i int) *Content[T] {
	c := e.contents[i]
	e.contents = slices.Delete(e.contents, i, i+1)
	if c.isActive {
		c.isActive = false
		e.active = slices.DeleteFunc(e.active, func(x *Content[T]) bool {
			return x == c
		})
	}
	c.index = -1
	return c
}

func (e *Engine[T]) remove(i int) error {
	_, err := e.removeIndex("remove", i)
	return err
}

func (e *Engine[T]) removeIndex(op string, i int) (T, error) {
	if err := e.checkIndex(op, i); err != nil {
		var zero T
		return zero, err
	}
	c := e.detach(i)
	e.repair()

	e.emit(EventRemoved, []T{c.value}, []int{i}, nil)
	e.logger.Debug("content removed", "engine_id", e.id, "index", i, "len", len(e.contents))
	return c.value, nil
}

func (e *Engine[T]) swap(a, b int) error {
	if err := e.checkIndex("swap", a); err != nil {
		return err
	}
	if err := e.checkIndex("swap", b); err != nil {
		return err
	}
	if a == b {
		return nil
	}

	ca, cb := e.contents[a], e.contents[b]
	e.contents[a], e.contents[b] = cb, ca
	e.repair()

	e.emit(EventSwapped, []T{ca.value, cb.value}, []int{a, b}, nil)
	return nil
}

func (e *Engine[T]) move(from, to int) error {
	if err := e.checkIndex("move", from); err != nil {
		return err
	}
	if err := e.checkIndex("move", to); err != nil {
		return err
	}
	if from == to {
		return nil
	}

	c := e.contents[from]
	e.contents = slices.Delete(e.contents, from, from+1)
	e.contents = slices.Insert(e.contents, to, c)
	e.repair()

	e.emit(EventMoved, []T{c.value}, []int{from, to}, nil)
	return nil
}

// firstMatch returns the position of the first content other than skip that
// matches pred, or -1.
func (e *Engine[T]) firstMatch(pred Predicate[T], skip *Content[T]) int {
	for i, c := range e.contents {
		if c != skip && pred(c.snapshot()) {
			return i
		}
	}
	return -1
}

// Insert adds v at index. index may equal Len() to append.
func (e *Engine[T]) Insert(v T, index int) error {
	return e.locked(func() error {
		return e.insert("insert", v, index)
	})
}

// Push appends v.
func (e *Engine[T]) Push(v T) {
	_ = e.locked(func() error {
		return e.insert("push", v, len(e.contents))
	})
}

// Unshift prepends v.
func (e *Engine[T]) Unshift(v T) {
	_ = e.locked(func() error {
		return e.insert("unshift", v, 0)
	})
}

// InsertByPredicate inserts v relative to the first content matching pred.
// PlaceAt and PlaceBefore insert in front of the match, PlaceAfter behind it.
func (e *Engine[T]) InsertByPredicate(v T, pred Predicate[T], place Placement) error {
	return e.locked(func() error {
		const op = "insert_by_predicate"
		p := e.firstMatch(pred, nil)
		if p == -1 {
			return newNotFoundError(op, "predicate match")
		}
		if place == PlaceAfter {
			p++
		}
		return e.insert(op, v, p)
	})
}

// Remove removes the content at index and returns its value.
func (e *Engine[T]) Remove(index int) (T, error) {
	var v T
	err := e.locked(func() error {
		var err error
		v, err = e.removeIndex("remove", index)
		return err
	})
	return v, err
}

// RemoveByValue removes the first content holding v.
func (e *Engine[T]) RemoveByValue(v T) error {
	return e.locked(func() error {
		i := e.indexOfValue(v)
		if i == -1 {
			return newNotFoundError("remove_by_value", "value")
		}
		_, err := e.removeIndex("remove_by_value", i)
		return err
	})
}

// Pop removes the last content. ok is false when the engine is empty.
func (e *Engine[T]) Pop() (v T, ok bool) {
	_ = e.locked(func() error {
		if len(e.contents) == 0 {
			return nil
		}
		v, _ = e.removeIndex("pop", len(e.contents)-1)
		ok = true
		return nil
	})
	return v, ok
}

// Shift removes the first content. ok is false when the engine is empty.
func (e *Engine[T]) Shift() (v T, ok bool) {
	_ = e.locked(func() error {
		if len(e.contents) == 0 {
			return nil
		}
		v, _ = e.removeIndex("shift", 0)
		ok = true
		return nil
	})
	return v, ok
}

// RemoveByPredicate removes every content matching pred and emits a single
// RemovedMultiple event carrying the original positions. It returns the
// removed values in position order.
func (e *Engine[T]) RemoveByPredicate(pred Predicate[T]) []T {
	var removed []T
	_ = e.locked(func() error {
		var original []int
		for i, c := range e.contents {
			if pred(c.snapshot()) {
				original = append(original, i)
			}
		}
		if len(original) == 0 {
			return nil
		}

		// Each earlier removal shifts later matches one position left.
		for k, i := range original {
			c := e.detach(i - k)
			removed = append(removed, c.value)
		}
		e.repair()

		e.emit(EventRemovedMultiple, slices.Clone(removed), original, nil)
		e.logger.Debug("contents removed", "engine_id", e.id, "count", len(removed), "len", len(e.contents))
		return nil
	})
	return removed
}

// Swap exchanges the contents at a and b.
func (e *Engine[T]) Swap(a, b int) error {
	return e.locked(func() error {
		return e.swap(a, b)
	})
}

// SwapByValue exchanges the first contents holding a and b.
func (e *Engine[T]) SwapByValue(a, b T) error {
	return e.locked(func() error {
		ia, ib := e.indexOfValue(a), e.indexOfValue(b)
		if ia == -1 || ib == -1 {
			return newNotFoundError("swap_by_value", "value")
		}
		return e.swap(ia, ib)
	})
}

// Move relocates the content at from to position to, shifting the contents
// in between.
func (e *Engine[T]) Move(from, to int) error {
	return e.locked(func() error {
		return e.move(from, to)
	})
}

// MoveByValue relocates the first content holding v to position to.
func (e *Engine[T]) MoveByValue(v T, to int) error {
	return e.locked(func() error {
		from := e.indexOfValue(v)
		if from == -1 {
			return newNotFoundError("move_by_value", "value")
		}
		return e.move(from, to)
	})
}

// MoveByPredicate relocates the first content holding v relative to the
// first other content matching pred. PlaceAt takes the match's position,
// PlaceBefore and PlaceAfter land next to it.
func (e *Engine[T]) MoveByPredicate(v T, pred Predicate[T], place Placement) error {
	return e.locked(func() error {
		const op = "move_by_predicate"
		from := e.indexOfValue(v)
		if from == -1 {
			return newNotFoundError(op, "value")
		}
		p := e.firstMatch(pred, e.contents[from])
		if p == -1 {
			return newNotFoundError(op, "predicate match")
		}

		// Position of the match once v has been taken out.
		shifted := p
		if from < p {
			shifted--
		}

		to := p
		switch place {
		case PlaceBefore:
			to = shifted
		case PlaceAfter:
			to = shifted + 1
		}
		return e.move(from, to)
	})
}
