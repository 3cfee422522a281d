package trace

import (
	"fmt"

	"presence-sync/core/channel"
	"presence-sync/core/presence"
)

// Result summarizes a replay.
type Result struct {
	// State is the final roster.
	State *presence.State
	// Changes lists every change notification in delivery order.
	Changes []presence.Change
	// Syncs counts OnSync invocations.
	Syncs int
	// Pending is the number of diffs still queued at the end of the trace.
	Pending int
}

// Replay drives a fresh Reconciler over a Local channel through every step of t.
// observer, if not nil, receives each change as it is delivered.
func Replay(t *Trace, cfg presence.Config, observer presence.ChangeFunc) (*Result, error) {
	ch := channel.NewLocal()
	r := presence.New(ch, cfg)
	res := &Result{}

	r.OnChange(func(key string, oldPresence, newPresence *presence.Presence) {
		res.Changes = append(res.Changes, presence.Change{Key: key, Old: oldPresence, New: newPresence})
		if observer != nil {
			observer(key, oldPresence, newPresence)
		}
	})
	r.OnSync(func() { res.Syncs++ })

	for i, step := range t.Steps {
		if step.Reconnect {
			ch.Reconnect()
			continue
		}
		if err := ch.Trigger(step.Event, step.Payload); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}

	res.State = r.State()
	res.Pending = r.PendingLen()
	return res, nil
}
