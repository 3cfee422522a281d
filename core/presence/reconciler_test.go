package presence

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubChannel delivers events synchronously and bumps its epoch on reconnect.
type stubChannel struct {
	ref    int
	events map[string]func(any)
}

func newStubChannel() *stubChannel {
	return &stubChannel{ref: 1, events: make(map[string]func(any))}
}

func (c *stubChannel) On(event string, handler func(payload any)) {
	c.events[event] = handler
}

func (c *stubChannel) JoinRef() Epoch {
	return strconv.Itoa(c.ref)
}

func (c *stubChannel) trigger(event string, payload any) {
	c.events[event](payload)
}

func (c *stubChannel) simulateDisconnectAndReconnect() {
	c.ref++
}

type recordedChange struct {
	key      string
	old, new string
}

func recordChanges(t *testing.T, r *Reconciler) *[]recordedChange {
	t.Helper()
	var changes []recordedChange
	r.OnChange(func(key string, oldPresence, newPresence *Presence) {
		old := "null"
		if oldPresence != nil {
			old = toJSON(t, oldPresence)
		}
		changes = append(changes, recordedChange{key: key, old: old, new: toJSON(t, newPresence)})
	})
	return &changes
}

const (
	user1 = `{"metas": [{"id": 1, "phx_ref": "1"}]}`
	user2 = `{"metas": [{"id": 2, "phx_ref": "2"}]}`
	user3 = `{"metas": [{"id": 3, "phx_ref": "3"}]}`
)

func TestReconciler_SyncsStateAndDiffs(t *testing.T) {
	ch := newStubChannel()
	r := New(ch, Config{})

	ch.trigger(DefaultStateEvent, mustState(t, `{"u1": `+user1+`, "u2": `+user2+`}`))
	assert.JSONEq(t, `[{"id": 1, "phx_ref": "1"}, {"id": 2, "phx_ref": "2"}]`, toJSON(t, ListBy(r.State(), listByFirst)))

	ch.trigger(DefaultDiffEvent, mustDiff(t, `{"joins": {}, "leaves": {"u1": `+user1+`}}`))
	assert.JSONEq(t, `[{"id": 2, "phx_ref": "2"}]`, toJSON(t, ListBy(r.State(), listByFirst)))
}

func TestReconciler_AppliesPendingDiffAfterState(t *testing.T) {
	ch := newStubChannel()
	r := New(ch, Config{})
	changes := recordChanges(t, r)

	// New connection: the diff arrives before the first state
	ch.trigger(DefaultDiffEvent, mustDiff(t, `{"joins": {}, "leaves": {"u2": `+user2+`}}`))

	assert.Empty(t, r.List())
	assert.Equal(t, 1, r.PendingLen())
	assert.Empty(t, *changes)

	ch.trigger(DefaultStateEvent, mustState(t, `{"u1": `+user1+`, "u2": `+user2+`}`))

	require.Len(t, *changes, 3)
	assert.Equal(t, "u1", (*changes)[0].key)
	assert.Equal(t, "null", (*changes)[0].old)
	assert.JSONEq(t, user1, (*changes)[0].new)
	assert.Equal(t, "u2", (*changes)[1].key)
	assert.Equal(t, "null", (*changes)[1].old)
	assert.JSONEq(t, user2, (*changes)[1].new)
	assert.Equal(t, "u2", (*changes)[2].key)
	assert.JSONEq(t, user2, (*changes)[2].old)
	assert.JSONEq(t, `{"metas": []}`, (*changes)[2].new)

	assert.JSONEq(t, `[{"id": 1, "phx_ref": "1"}]`, toJSON(t, ListBy(r.State(), listByFirst)))
	assert.Equal(t, 0, r.PendingLen())

	// Disconnect and reconnect
	assert.False(t, r.InPendingSyncState())
	ch.simulateDisconnectAndReconnect()
	assert.True(t, r.InPendingSyncState())

	ch.trigger(DefaultDiffEvent, mustDiff(t, `{"joins": {}, "leaves": {"u1": `+user1+`}}`))
	assert.JSONEq(t, `[{"id": 1, "phx_ref": "1"}]`, toJSON(t, ListBy(r.State(), listByFirst)))

	ch.trigger(DefaultStateEvent, mustState(t, `{"u1": `+user1+`, "u3": `+user3+`}`))
	assert.JSONEq(t, `[{"id": 3, "phx_ref": "3"}]`, toJSON(t, ListBy(r.State(), listByFirst)))
	assert.False(t, r.InPendingSyncState())
}

func TestReconciler_QueuedDiffsMatchLiveDelivery(t *testing.T) {
	snapshot := `{"u1": {"metas": [{"phx_ref": "a"}]}, "u2": {"metas": [{"phx_ref": "b"}]}}`
	diffs := []string{
		`{"joins": {"u1": {"metas": [{"phx_ref": "c"}]}}, "leaves": {"u2": {"metas": [{"phx_ref": "b"}]}}}`,
		`{"joins": {"u3": {"metas": [{"phx_ref": "d"}]}}, "leaves": {"u1": {"metas": [{"phx_ref": "a"}]}}}`,
	}

	// Diffs after the snapshot
	live := newStubChannel()
	liveR := New(live, Config{})
	liveChanges := recordChanges(t, liveR)
	live.trigger(DefaultStateEvent, mustState(t, snapshot))
	for _, d := range diffs {
		live.trigger(DefaultDiffEvent, mustDiff(t, d))
	}

	// Same diffs delivered during the reconnect window
	queued := newStubChannel()
	queuedR := New(queued, Config{})
	queuedChanges := recordChanges(t, queuedR)
	for _, d := range diffs {
		queued.trigger(DefaultDiffEvent, mustDiff(t, d))
	}
	assert.Equal(t, 2, queuedR.PendingLen())
	queued.trigger(DefaultStateEvent, mustState(t, snapshot))

	assert.Equal(t, *liveChanges, *queuedChanges)
	assert.JSONEq(t, toJSON(t, liveR.State()), toJSON(t, queuedR.State()))
	assert.Equal(t, liveR.State().Keys(), queuedR.State().Keys())
}

func TestReconciler_CustomEvents(t *testing.T) {
	ch := newStubChannel()
	r := New(ch, Config{StateEvent: "the_state", DiffEvent: "the_diff"})

	ch.trigger("the_state", mustState(t, `{"user1": `+user1+`}`))
	assert.JSONEq(t, `[{"id": 1, "phx_ref": "1"}]`, toJSON(t, ListBy(r.State(), listByFirst)))

	ch.trigger("the_diff", mustDiff(t, `{"joins": {}, "leaves": {"user1": `+user1+`}}`))
	assert.Empty(t, r.List())
}

func TestReconciler_RawJSONPayloads(t *testing.T) {
	ch := newStubChannel()
	r := New(ch, Config{})

	ch.trigger(DefaultStateEvent, []byte(`{"u2": `+user2+`, "u1": `+user1+`}`))
	ch.trigger(DefaultDiffEvent, `{"joins": {"u3": `+user3+`}}`)

	assert.Equal(t, []string{"u2", "u1", "u3"}, r.State().Keys())
}

func TestReconciler_DropsUndecodablePayloads(t *testing.T) {
	ch := newStubChannel()
	r := New(ch, Config{})

	ch.trigger(DefaultStateEvent, 42)
	assert.True(t, r.InPendingSyncState())

	ch.trigger(DefaultStateEvent, mustState(t, `{"u1": `+user1+`}`))
	ch.trigger(DefaultDiffEvent, []byte(`not json`))

	assert.Equal(t, []string{"u1"}, r.State().Keys())
	assert.Equal(t, 0, r.PendingLen())
}

func TestReconciler_OnChangeReplacesHandler(t *testing.T) {
	ch := newStubChannel()
	r := New(ch, Config{})

	first, second := 0, 0
	r.OnChange(func(string, *Presence, *Presence) { first++ })
	r.OnChange(func(string, *Presence, *Presence) { second++ })

	ch.trigger(DefaultStateEvent, mustState(t, fixtureState))

	assert.Equal(t, 0, first)
	assert.Equal(t, 3, second)
}

func TestReconciler_OnSync(t *testing.T) {
	ch := newStubChannel()
	r := New(ch, Config{})

	syncs := 0
	r.OnSync(func() { syncs++ })

	// Queued diffs do not sync
	ch.trigger(DefaultDiffEvent, mustDiff(t, `{"joins": {"u9": `+user3+`}}`))
	assert.Equal(t, 0, syncs)

	// One sync per snapshot, pending drain included
	ch.trigger(DefaultStateEvent, mustState(t, fixtureState))
	assert.Equal(t, 1, syncs)
	assert.Equal(t, []string{"u1", "u2", "u3", "u9"}, r.State().Keys())

	// Live diffs sync as well
	ch.trigger(DefaultDiffEvent, mustDiff(t, `{"leaves": {"u9": `+user3+`}}`))
	assert.Equal(t, 2, syncs)

	// A nil handler restores the no-op default
	r.OnSync(nil)
	ch.trigger(DefaultStateEvent, mustState(t, fixtureState))
	assert.Equal(t, 2, syncs)
}

func TestReconciler_LegacyJoinLeaveHandlers(t *testing.T) {
	ch := newStubChannel()
	r := New(ch, Config{})

	var joins, leaves []string
	r.OnJoin(func(key string, current, joined *Presence) {
		joins = append(joins, key)
	})
	r.OnLeave(func(key string, current, left *Presence) {
		leaves = append(leaves, key+":"+toJSON(t, current))
	})

	ch.trigger(DefaultStateEvent, mustState(t, `{"u1": {"metas": [{"phx_ref": "1"}, {"phx_ref": "2"}]}}`))
	ch.trigger(DefaultDiffEvent, mustDiff(t, `{"leaves": {"u1": {"metas": [{"phx_ref": "1"}]}}}`))

	assert.Equal(t, []string{"u1"}, joins)
	require.Len(t, leaves, 1)
	assert.Equal(t, `u1:{"metas":[{"phx_ref":"2"}]}`, leaves[0])
	assert.Equal(t, []string{"2"}, r.List()[0].Refs())
}
