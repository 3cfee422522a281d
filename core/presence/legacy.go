package presence

import (
	"go.uber.org/zap"
)

// LegacySyncState reconciles a copy of current against newState and returns the copy.
// Neither input is modified.
//
// Deprecated: Use SyncState instead.
func LegacySyncState(current, newState *State, onJoin, onLeave JoinLeaveFunc) *State {
	warnDeprecated("LegacySyncState", "SyncState")
	return legacySyncState(current, newState, onJoin, onLeave)
}

// LegacySyncDiff applies a copy of diff to a copy of state and returns the copy.
// Neither input is modified.
//
// Deprecated: Use ApplyDiff instead.
func LegacySyncDiff(state *State, diff Diff, onJoin, onLeave JoinLeaveFunc) *State {
	warnDeprecated("LegacySyncDiff", "ApplyDiff")
	return legacySyncDiff(state, diff, onJoin, onLeave)
}

func legacySyncState(current, newState *State, onJoin, onLeave JoinLeaveFunc) *State {
	return legacySyncDiff(current, ComputeDiff(current, newState), onJoin, onLeave)
}

// legacySyncDiff delegates to ApplyDiff and splits its changes into join and leave
// callbacks: all joins first, then all leaves, each in diff order.
func legacySyncDiff(state *State, diff Diff, onJoin, onLeave JoinLeaveFunc) *State {
	d := diff.Clone()
	next, changes := ApplyDiff(state.Clone(), d)

	if onJoin != nil {
		for _, c := range changes {
			if joined, ok := d.Joins.Get(c.Key); ok {
				onJoin(c.Key, c.Old, joined)
			}
		}
	}
	if onLeave != nil {
		for _, c := range changes {
			if left, ok := d.Leaves.Get(c.Key); ok {
				onLeave(c.Key, c.New, left)
			}
		}
	}

	return next
}

func warnDeprecated(name, replacement string) {
	zap.L().Named("presence").Warn(name+" is deprecated",
		zap.String("use", replacement),
	)
}
