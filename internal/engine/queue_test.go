package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchQueue_FIFO(t *testing.T) {
	q := newDispatchQueue[string]()

	for i := int64(1); i <= 3; i++ {
		q.enqueue(Event[string]{Type: EventActivated, Seq: i})
	}
	assert.Equal(t, 3, q.len())

	for i := int64(1); i <= 3; i++ {
		ev, ok := q.tryDequeue()
		require.True(t, ok)
		assert.Equal(t, i, ev.Seq)
	}
}

func TestDispatchQueue_TryDequeue_Empty(t *testing.T) {
	q := newDispatchQueue[string]()

	_, ok := q.tryDequeue()
	assert.False(t, ok, "dequeue from empty queue should return false")
}

func TestDispatchQueue_Drain_DeliversInOrder(t *testing.T) {
	q := newDispatchQueue[string]()
	q.enqueue(Event[string]{Seq: 1})
	q.enqueue(Event[string]{Seq: 2})

	var got []int64
	q.drain(func(ev Event[string]) {
		got = append(got, ev.Seq)
	})

	assert.Equal(t, []int64{1, 2}, got)
	assert.Equal(t, 0, q.len())
}

func TestDispatchQueue_Drain_ReentrantEnqueue(t *testing.T) {
	q := newDispatchQueue[string]()
	q.enqueue(Event[string]{Seq: 1})

	var got []int64
	var deliver func(ev Event[string])
	deliver = func(ev Event[string]) {
		got = append(got, ev.Seq)
		if ev.Seq < 3 {
			q.enqueue(Event[string]{Seq: ev.Seq + 1})
			// Nested drain must not deliver out of order.
			q.drain(deliver)
			assert.Equal(t, []int64{1, 2, 3}[:ev.Seq], got)
		}
	}
	q.drain(deliver)

	assert.Equal(t, []int64{1, 2, 3}, got)
}

func TestDispatchQueue_DrainAgainAfterEmpty(t *testing.T) {
	q := newDispatchQueue[string]()

	q.drain(func(Event[string]) {})
	q.enqueue(Event[string]{Seq: 7})

	var got []int64
	q.drain(func(ev Event[string]) { got = append(got, ev.Seq) })
	assert.Equal(t, []int64{7}, got, "draining flag should be cleared once empty")
}

func TestDispatchQueue_Reset(t *testing.T) {
	q := newDispatchQueue[string]()
	q.enqueue(Event[string]{Seq: 1})
	q.enqueue(Event[string]{Seq: 2})

	q.reset()
	assert.Equal(t, 0, q.len())
}
