package presence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPendingQueue_FIFO(t *testing.T) {
	var q PendingQueue

	for _, key := range []string{"A", "B", "C"} {
		joins := NewState()
		joins.Set(key, &Presence{Metas: []Meta{{"phx_ref": key}}})
		q.Push(Diff{Joins: joins})
	}
	assert.Equal(t, 3, q.Len())

	var order []string
	n := q.Drain(func(d Diff) {
		order = append(order, d.Joins.Keys()...)
	})

	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"A", "B", "C"}, order)
	assert.Equal(t, 0, q.Len())
}

func TestPendingQueue_DrainEmpty(t *testing.T) {
	var q PendingQueue

	called := false
	n := q.Drain(func(Diff) { called = true })

	assert.Equal(t, 0, n)
	assert.False(t, called)
}

func TestPendingQueue_PushDuringDrainWaits(t *testing.T) {
	var q PendingQueue
	q.Push(Diff{})

	drained := q.Drain(func(Diff) {
		q.Push(Diff{})
	})

	assert.Equal(t, 1, drained)
	assert.Equal(t, 1, q.Len())
}
