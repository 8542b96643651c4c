package harness

import (
	"fmt"

	"github.com/roach88/activeset/internal/engine"
)

// CheckInvariants verifies the structural invariants of e and returns one
// message per violation. An empty result means the engine is consistent.
//
// Checked:
//   - every content's index equals its position, with matching first/last
//     and neighbour flags
//   - active indexes are in range, distinct and flagged active, and no other
//     content is flagged active
//   - the activation limit is respected
//   - the last activated value is the last entry of the active list
//   - exactly one content is next and one is previous of the last activated
func CheckInvariants(e *engine.Engine[string]) []string {
	var problems []string
	fail := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	snaps := e.Snapshots()
	n := len(snaps)
	circular := e.IsCircular()

	flagged := 0
	nextCount, prevCount := 0, 0
	for i, s := range snaps {
		if s.Index != i {
			fail("content %q at position %d reports index %d", s.Value, i, s.Index)
		}
		if s.IsFirst != (i == 0) {
			fail("content %d: isFirst = %v", i, s.IsFirst)
		}
		if s.IsLast != (i == n-1) {
			fail("content %d: isLast = %v", i, s.IsLast)
		}
		wantNext, wantPrev := i < n-1, i > 0
		if circular {
			wantNext, wantPrev = true, true
		}
		if s.HasNext != wantNext || s.HasPrevious != wantPrev {
			fail("content %d: hasNext/hasPrevious = %v/%v, want %v/%v",
				i, s.HasNext, s.HasPrevious, wantNext, wantPrev)
		}
		if s.IsActive {
			flagged++
		}
		if s.IsNext {
			nextCount++
		}
		if s.IsPrevious {
			prevCount++
		}
	}

	active := e.Active()
	indexes := e.ActiveIndexes()
	if len(active) != len(indexes) {
		fail("active has %d values but %d indexes", len(active), len(indexes))
	}
	seen := make(map[int]bool, len(indexes))
	for k, i := range indexes {
		if i < 0 || i >= n {
			fail("active index %d out of range [0, %d)", i, n)
			continue
		}
		if seen[i] {
			fail("active index %d listed twice", i)
		}
		seen[i] = true
		if !snaps[i].IsActive {
			fail("active index %d is not flagged active", i)
		}
		if k < len(active) && snaps[i].Value != active[k] {
			fail("active[%d] = %q but content at %d is %q", k, active[k], i, snaps[i].Value)
		}
	}
	if flagged != len(indexes) {
		fail("%d contents flagged active, active list has %d", flagged, len(indexes))
	}

	if limit := e.MaxActivationLimit(); limit != engine.NoActivationLimit && len(indexes) > limit {
		fail("%d active contents exceed the limit of %d", len(indexes), limit)
	}

	last, ok := e.LastActivated()
	lastIndex := e.LastActivatedIndex()
	switch {
	case len(active) == 0:
		if ok || lastIndex != -1 {
			fail("no active contents but lastActivated = %q at %d", last, lastIndex)
		}
		if nextCount != 0 || prevCount != 0 {
			fail("no active contents but %d next and %d previous flags", nextCount, prevCount)
		}
	default:
		if !ok || last != active[len(active)-1] {
			fail("lastActivated = %q, want %q", last, active[len(active)-1])
		}
		if lastIndex != indexes[len(indexes)-1] {
			fail("lastActivatedIndex = %d, want %d", lastIndex, indexes[len(indexes)-1])
		}
		if nextCount != 1 || prevCount != 1 {
			fail("%d next and %d previous flags, want 1 each", nextCount, prevCount)
		}
	}

	return problems
}
