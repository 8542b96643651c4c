package engine

import "time"

// EventType discriminates events emitted by the engine.
type EventType string

const (
	EventInitialized         EventType = "INITIALIZED"
	EventActivated           EventType = "ACTIVATED"
	EventActivatedMultiple   EventType = "ACTIVATED_MULTIPLE"
	EventDeactivated         EventType = "DEACTIVATED"
	EventDeactivatedMultiple EventType = "DEACTIVATED_MULTIPLE"
	EventInserted            EventType = "INSERTED"
	EventRemoved             EventType = "REMOVED"
	EventRemovedMultiple     EventType = "REMOVED_MULTIPLE"
	EventSwapped             EventType = "SWAPPED"
	EventMoved               EventType = "MOVED"
)

// EventTypes lists every event type in declaration order.
var EventTypes = []EventType{
	EventInitialized,
	EventActivated,
	EventActivatedMultiple,
	EventDeactivated,
	EventDeactivatedMultiple,
	EventInserted,
	EventRemoved,
	EventRemovedMultiple,
	EventSwapped,
	EventMoved,
}

// Valid reports whether t is a known event type.
func (t EventType) Valid() bool {
	for _, known := range EventTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Event describes one mutation of the engine.
//
// Values and Indexes are a snapshot taken when the event was emitted; they
// are not kept accurate after later mutations. Their layout depends on Type:
//
//	INITIALIZED            Values: all contents     Indexes: active positions
//	ACTIVATED              Values: [v]              Indexes: [i]
//	ACTIVATED_MULTIPLE     Values: activated        Indexes: their positions
//	DEACTIVATED            Values: [v]              Indexes: [i]
//	DEACTIVATED_MULTIPLE   Values: deactivated      Indexes: their positions
//	INSERTED               Values: [v]              Indexes: [i]
//	REMOVED                Values: [v]              Indexes: [i]
//	REMOVED_MULTIPLE       Values: removed          Indexes: original positions
//	SWAPPED                Values: [a, b]           Indexes: [ia, ib]
//	MOVED                  Values: [v]              Indexes: [from, to]
//
// EvictedValues/EvictedIndexes are set on activation events when the
// circular limit behavior deactivated older entries to make room.
type Event[T comparable] struct {
	Type     EventType
	Seq      int64
	Time     time.Time
	EngineID string

	Values  []T
	Indexes []int

	EvictedValues  []T
	EvictedIndexes []int
}

// Value returns the first value of the event, or the zero value.
func (e Event[T]) Value() T {
	if len(e.Values) == 0 {
		var zero T
		return zero
	}
	return e.Values[0]
}

// Index returns the first index of the event, or -1.
func (e Event[T]) Index() int {
	if len(e.Indexes) == 0 {
		return -1
	}
	return e.Indexes[0]
}

// Subscriber receives every event emitted by an engine, synchronously and in
// Seq order. Subscribers run without the engine lock held and may call back
// into the engine.
type Subscriber[T comparable] func(e *Engine[T], ev Event[T])
