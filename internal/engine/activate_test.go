package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isEven(s Snapshot[string]) bool { return s.Index%2 == 0 }

func TestActivate_OutOfBounds(t *testing.T) {
	e, _ := newTestEngine(t, Config[string]{Contents: []string{"a", "b", "c"}})
	events := record(t, e)

	for _, i := range []int{-1, 3, 100} {
		err := e.Activate(i, User())
		require.Error(t, err, "index %d", i)
		assert.ErrorIs(t, err, ErrIndexOutOfBounds)
	}

	assert.Empty(t, e.Active())
	assert.Equal(t, -1, e.LastActivatedIndex())
	assert.Empty(t, *events)
}

func TestActivate_AlreadyActiveIsNoop(t *testing.T) {
	e, _ := newTestEngine(t, Config[string]{Contents: []string{"a", "b"}, Active: []string{"a"}})
	events := record(t, e)

	require.NoError(t, e.Activate(0, User()))
	assert.Empty(t, *events)
}

func TestActivate_CircularLimitEvictsOldest(t *testing.T) {
	e, _ := newTestEngine(t, Config[string]{Contents: []string{"a", "b", "c"}})
	events := record(t, e)

	require.NoError(t, e.Activate(0, Auto()))
	require.NoError(t, e.Activate(1, Auto()))

	assert.Equal(t, []string{"b"}, e.Active())
	assert.False(t, e.Contents()[0].IsActive())
	assert.True(t, e.Contents()[0].HasBeenActiveBefore())

	require.Len(t, *events, 2)
	ev := (*events)[1]
	assert.Equal(t, EventActivated, ev.Type)
	assert.Equal(t, []string{"b"}, ev.Values)
	assert.Equal(t, []string{"a"}, ev.EvictedValues)
	assert.Equal(t, []int{0}, ev.EvictedIndexes)
	requireConsistent(t, e)
}

func TestActivate_CircularLimitNeverExceeded(t *testing.T) {
	e, _ := newTestEngine(t, Config[string]{Contents: []string{"a", "b", "c", "d"}})

	for _, i := range []int{0, 1, 2, 3, 0, 2} {
		require.NoError(t, e.Activate(i, Auto()))
		assert.Len(t, e.Active(), 1)
		assert.Equal(t, i, e.LastActivatedIndex())
	}
}

func TestActivate_CircularLimitTwo(t *testing.T) {
	e, _ := newTestEngine(t, Config[string]{
		Contents:           []string{"a", "b", "c"},
		MaxActivationLimit: 2,
	})

	require.NoError(t, e.Activate(0, Auto()))
	require.NoError(t, e.Activate(1, Auto()))
	require.NoError(t, e.Activate(2, Auto()))

	assert.Equal(t, []string{"b", "c"}, e.Active())
	assert.Equal(t, []int{1, 2}, e.ActiveIndexes())
	requireConsistent(t, e)
}

func TestActivate_ErrorLimit(t *testing.T) {
	e, _ := newTestEngine(t, Config[string]{
		Contents:                   []string{"a", "b", "c"},
		MaxActivationLimitBehavior: LimitError,
	})
	require.NoError(t, e.Activate(0, Auto()))
	events := record(t, e)

	err := e.Activate(1, Auto())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrActivationLimitReached)
	assert.Equal(t, ErrCodeActivationLimitReached, CodeOf(err))

	assert.Equal(t, []string{"a"}, e.Active())
	assert.Equal(t, "right", e.Direction())
	assert.Empty(t, *events)
}

func TestActivate_IgnoreLimit(t *testing.T) {
	e, _ := newTestEngine(t, Config[string]{
		Contents:                   []string{"a", "b", "c"},
		MaxActivationLimitBehavior: LimitIgnore,
	})
	require.NoError(t, e.Activate(0, Auto()))
	events := record(t, e)

	require.NoError(t, e.Activate(2, Auto()))

	assert.Equal(t, []string{"a"}, e.Active())
	assert.Empty(t, *events)
}

func TestActivate_Unbounded(t *testing.T) {
	e, _ := newTestEngine(t, Config[string]{
		Contents:           []string{"a", "b", "c"},
		MaxActivationLimit: NoActivationLimit,
	})

	require.NoError(t, e.Activate(0, Auto()))
	require.NoError(t, e.Activate(2, Auto()))
	require.NoError(t, e.Activate(1, Auto()))

	assert.Equal(t, []int{0, 2, 1}, e.ActiveIndexes())
	assert.Equal(t, []string{"a", "c", "b"}, e.Active())
	assert.Equal(t, 1, e.LastActivatedIndex())
	require.Len(t, e.ActiveContents(), 3)
	assert.Equal(t, "b", e.LastActivatedContent().Value())
	requireConsistent(t, e)
}

func TestActivate_NeighbourFactsFollowLastActivated(t *testing.T) {
	e, _ := newTestEngine(t, Config[string]{Contents: []string{"a", "b", "c", "d"}})

	require.NoError(t, e.Activate(3, Auto()))

	snaps := e.Snapshots()
	assert.True(t, snaps[0].IsNext, "successor of the last position wraps")
	assert.True(t, snaps[2].IsPrevious)
	assert.False(t, snaps[1].IsNext)
	assert.False(t, snaps[1].IsPrevious)
}

func TestActivateByValue(t *testing.T) {
	e, _ := newTestEngine(t, Config[string]{Contents: []string{"a", "b", "c"}})

	require.NoError(t, e.ActivateByValue("c", User()))
	assert.Equal(t, []string{"c"}, e.Active())

	err := e.ActivateByValue("z", User())
	assert.ErrorIs(t, err, ErrItemNotFound)
	assert.Equal(t, []string{"c"}, e.Active())
}

func TestDeactivate_ReDerivesLastFromActivationOrder(t *testing.T) {
	e, _ := newTestEngine(t, Config[string]{
		Contents:           []string{"a", "b", "c", "d"},
		MaxActivationLimit: NoActivationLimit,
	})
	require.NoError(t, e.Activate(3, Auto()))
	require.NoError(t, e.Activate(0, Auto()))
	require.NoError(t, e.Activate(1, Auto()))
	events := record(t, e)

	require.NoError(t, e.Deactivate(1, Auto()))

	// Last activated falls back to the previous activation, not the
	// highest position.
	assert.Equal(t, 0, e.LastActivatedIndex())
	assert.Equal(t, []int{3, 0}, e.ActiveIndexes())
	// Moving toward 1 from 0 is "right", so deactivating reports "left".
	assert.Equal(t, "left", e.Direction())

	require.Len(t, *events, 1)
	assert.Equal(t, EventDeactivated, (*events)[0].Type)
	assert.Equal(t, []string{"b"}, (*events)[0].Values)
	assert.Equal(t, []int{1}, (*events)[0].Indexes)
	requireConsistent(t, e)
}

func TestDeactivate_LastActiveResetsDirection(t *testing.T) {
	e, _ := newTestEngine(t, Config[string]{Contents: []string{"a", "b", "c"}})
	require.NoError(t, e.Activate(2, Auto()))
	require.NoError(t, e.Activate(0, Auto()))
	require.Equal(t, "left", e.Direction())

	require.NoError(t, e.Deactivate(0, Auto()))

	assert.Equal(t, "right", e.Direction())
	assert.Equal(t, -1, e.LastActivatedIndex())
	assert.Nil(t, e.LastActivatedContent())
	for _, s := range e.Snapshots() {
		assert.False(t, s.IsNext)
		assert.False(t, s.IsPrevious)
	}
}

func TestDeactivate_InactiveIsNoop(t *testing.T) {
	e, _ := newTestEngine(t, Config[string]{Contents: []string{"a", "b"}})
	events := record(t, e)

	require.NoError(t, e.Deactivate(1, User()))
	assert.Empty(t, *events)

	assert.ErrorIs(t, e.Deactivate(2, User()), ErrIndexOutOfBounds)
}

func TestDeactivateByValue(t *testing.T) {
	e, _ := newTestEngine(t, Config[string]{Contents: []string{"a", "b"}, Active: []string{"b"}})

	require.NoError(t, e.DeactivateByValue("b", User()))
	assert.Empty(t, e.Active())

	assert.True(t, IsItemNotFound(e.DeactivateByValue("nope", User())))
}

func TestToggle(t *testing.T) {
	e, _ := newTestEngine(t, Config[string]{Contents: []string{"a", "b"}})
	events := record(t, e)

	require.NoError(t, e.Toggle(1, Auto()))
	assert.Equal(t, []string{"b"}, e.Active())
	require.NoError(t, e.ToggleByValue("b", Auto()))
	assert.Empty(t, e.Active())

	assert.Equal(t, []EventType{EventActivated, EventDeactivated}, typesOf(*events))
	assert.True(t, IsItemNotFound(e.ToggleByValue("z", Auto())))
	assert.True(t, IsIndexOutOfBounds(e.Toggle(5, Auto())))
}

func TestActivateByPredicate_SingleEvent(t *testing.T) {
	e, _ := newTestEngine(t, Config[string]{
		Contents:           []string{"a", "b", "c", "d", "e"},
		MaxActivationLimit: NoActivationLimit,
	})
	events := record(t, e)

	require.NoError(t, e.ActivateByPredicate(isEven, User()))

	assert.Equal(t, []int{0, 2, 4}, e.ActiveIndexes())
	require.Len(t, *events, 1)
	ev := (*events)[0]
	assert.Equal(t, EventActivatedMultiple, ev.Type)
	assert.Equal(t, []string{"a", "c", "e"}, ev.Values)
	assert.Equal(t, []int{0, 2, 4}, ev.Indexes)
	requireConsistent(t, e)
}

func TestActivateByPredicate_SkipsActive(t *testing.T) {
	e, _ := newTestEngine(t, Config[string]{
		Contents:           []string{"a", "b", "c"},
		MaxActivationLimit: NoActivationLimit,
		Active:             []string{"a"},
	})
	events := record(t, e)

	require.NoError(t, e.ActivateByPredicate(isEven, Auto()))

	require.Len(t, *events, 1)
	assert.Equal(t, []string{"c"}, (*events)[0].Values)
	assert.Equal(t, []int{0, 2}, e.ActiveIndexes())
}

func TestActivateByPredicate_NoMatchNoEvent(t *testing.T) {
	e, _ := newTestEngine(t, Config[string]{Contents: []string{"a", "b"}})
	events := record(t, e)

	require.NoError(t, e.ActivateByPredicate(func(Snapshot[string]) bool { return false }, User()))
	assert.Empty(t, *events)
}

func TestActivateByPredicate_ErrorLimitRejectsWholeSweep(t *testing.T) {
	e, _ := newTestEngine(t, Config[string]{
		Contents:                   []string{"a", "b", "c", "d"},
		MaxActivationLimit:         2,
		MaxActivationLimitBehavior: LimitError,
		Active:                     []string{"b"},
	})
	events := record(t, e)

	err := e.ActivateByPredicate(isEven, Auto())
	assert.ErrorIs(t, err, ErrActivationLimitReached)
	assert.Equal(t, []string{"b"}, e.Active())
	assert.Empty(t, *events)
}

func TestActivateByPredicate_CircularEvictsWithinSweep(t *testing.T) {
	e, _ := newTestEngine(t, Config[string]{Contents: []string{"a", "b", "c", "d"}})
	events := record(t, e)

	require.NoError(t, e.ActivateByPredicate(isEven, Auto()))

	assert.Equal(t, []string{"c"}, e.Active())
	require.Len(t, *events, 1)
	assert.Equal(t, []string{"a", "c"}, (*events)[0].Values)
	assert.Equal(t, []string{"a"}, (*events)[0].EvictedValues)
}

func TestDeactivateByPredicate_SingleEvent(t *testing.T) {
	e, _ := newTestEngine(t, Config[string]{
		Contents:           []string{"a", "b", "c", "d"},
		MaxActivationLimit: NoActivationLimit,
		ActiveIndexes:      []int{0, 1, 2, 3},
	})
	events := record(t, e)

	require.NoError(t, e.DeactivateByPredicate(isEven, User()))

	assert.Equal(t, []int{1, 3}, e.ActiveIndexes())
	require.Len(t, *events, 1)
	assert.Equal(t, EventDeactivatedMultiple, (*events)[0].Type)
	assert.Equal(t, []string{"a", "c"}, (*events)[0].Values)
	assert.Equal(t, []int{0, 2}, (*events)[0].Indexes)
	requireConsistent(t, e)
}

func TestNext_Linear(t *testing.T) {
	e, _ := newTestEngine(t, Config[string]{Contents: []string{"a", "b", "c"}})
	events := record(t, e)

	require.NoError(t, e.ActivateNext(User()))
	assert.Equal(t, 0, e.LastActivatedIndex(), "nothing active starts at the first")
	require.NoError(t, e.ActivateNext(User()))
	require.NoError(t, e.ActivateNext(User()))
	assert.Equal(t, 2, e.LastActivatedIndex())

	require.NoError(t, e.ActivateNext(User()))
	assert.Equal(t, 2, e.LastActivatedIndex(), "linear next clamps at the end")
	assert.Len(t, *events, 3)

	require.NoError(t, e.ActivatePrevious(User()))
	assert.Equal(t, 1, e.LastActivatedIndex())
	assert.Equal(t, "left", e.Direction())
}

func TestPrevious_LinearClampsAtStart(t *testing.T) {
	e, _ := newTestEngine(t, Config[string]{Contents: []string{"a", "b", "c"}})

	require.NoError(t, e.ActivatePrevious(Auto()))
	assert.Equal(t, 0, e.LastActivatedIndex())
	require.NoError(t, e.ActivatePrevious(Auto()))
	assert.Equal(t, 0, e.LastActivatedIndex())
}

func TestNext_CircularWraps(t *testing.T) {
	e, _ := newTestEngine(t, Config[string]{
		Contents:   []string{"a", "b", "c"},
		IsCircular: true,
		Active:     []string{"c"},
	})

	require.NoError(t, e.ActivateNext(User()))
	assert.Equal(t, 0, e.LastActivatedIndex())
	assert.Equal(t, "right", e.Direction())

	require.NoError(t, e.ActivatePrevious(User()))
	assert.Equal(t, 2, e.LastActivatedIndex())
	assert.Equal(t, "left", e.Direction())
}

func TestPrevious_CircularWithNothingActive(t *testing.T) {
	e, _ := newTestEngine(t, Config[string]{
		Contents:   []string{"a", "b", "c"},
		IsCircular: true,
	})

	require.NoError(t, e.ActivatePrevious(Auto()))
	assert.Equal(t, 2, e.LastActivatedIndex())
}

func TestFirstLast(t *testing.T) {
	e, _ := newTestEngine(t, Config[string]{Contents: []string{"a", "b", "c"}})

	require.NoError(t, e.ActivateLast(Auto()))
	assert.Equal(t, 2, e.LastActivatedIndex())
	require.NoError(t, e.ActivateFirst(Auto()))
	assert.Equal(t, 0, e.LastActivatedIndex())
}

func TestTraversal_EmptyEngine(t *testing.T) {
	for _, circular := range []bool{false, true} {
		e, _ := newTestEngine(t, Config[string]{IsCircular: circular})
		events := record(t, e)

		assert.NoError(t, e.ActivateNext(User()))
		assert.NoError(t, e.ActivatePrevious(User()))
		assert.NoError(t, e.ActivateFirst(Auto()))
		assert.NoError(t, e.ActivateLast(Auto()))

		assert.Empty(t, *events)
		assert.False(t, e.CooldownActive())
		assert.Equal(t, -1, e.LastActivatedIndex())

		// Explicit positions are still bounds-checked.
		assert.True(t, IsIndexOutOfBounds(e.Activate(0, Auto())))
	}
}
