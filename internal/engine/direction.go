package engine

// directionTo returns the label for moving from the last activated position
// to target. Caller holds e.mu.
//
// Linear engines compare positions. Circular engines pick the shorter way
// around the ring; ties go to the next label.
func (e *Engine[T]) directionTo(target int) string {
	current := e.lastIndex()

	if !e.isCircular {
		if target >= current {
			return e.directions.Next
		}
		return e.directions.Previous
	}

	if current == -1 {
		return e.directions.Next
	}

	lastIndex := len(e.contents) - 1
	var left, right int
	if current > target {
		left = current - target
		right = 1 + target + (lastIndex - current)
	} else {
		left = (lastIndex - target) + current + 1
		right = target - current
	}

	if left < right {
		return e.directions.Previous
	}
	return e.directions.Next
}

func (e *Engine[T]) invert(label string) string {
	if label == e.directions.Next {
		return e.directions.Previous
	}
	return e.directions.Next
}
