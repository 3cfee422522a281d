package presence

// PendingQueue buffers diffs that arrive while the connection epoch is stale.
//
// It is append-only and drained strictly in arrival order. Like the Reconciler that owns
// it, the queue is not safe for concurrent use.
type PendingQueue struct {
	diffs []Diff
}

// Push appends a diff to the back of the queue.
func (q *PendingQueue) Push(d Diff) {
	q.diffs = append(q.diffs, d)
}

// Len returns the number of queued diffs.
func (q *PendingQueue) Len() int {
	return len(q.diffs)
}

// Drain hands every queued diff to fn in arrival order and empties the queue.
// The queue is detached before fn runs, so diffs pushed from fn wait for the next drain.
// Returns the number of drained diffs.
func (q *PendingQueue) Drain(fn func(Diff)) int {
	pending := q.diffs
	q.diffs = nil

	for _, d := range pending {
		fn(d)
	}
	return len(pending)
}
