package presence

// ComputeDiff expresses the replacement of oldState by newState as a join/leave diff,
// so that full snapshots go through the same merge path as incremental updates.
//
// A reference rotation (old ref gone, new ref present for the same key) is reported as a
// simultaneous leave and join rather than as a no-op. Neither input is modified.
func ComputeDiff(oldState, newState *State) Diff {
	joins := NewState()
	leaves := NewState()

	// Keys that vanished leave with their whole entry
	oldState.Each(func(key string, current *Presence) {
		if _, ok := newState.Get(key); !ok {
			leaves.Set(key, current)
		}
	})

	newState.Each(func(key string, next *Presence) {
		current, ok := oldState.Get(key)
		if !ok {
			joins.Set(key, next)
			return
		}

		joined := excludeRefs(next.Metas, refSet(current.Metas))
		left := excludeRefs(current.Metas, refSet(next.Metas))

		if len(joined) > 0 {
			joins.Set(key, next.withMetas(joined))
		}
		if len(left) > 0 {
			if len(joined) > 0 {
				// The join side already carries the fresh custom fields
				leaves.Set(key, &Presence{Metas: left})
			} else {
				leaves.Set(key, next.withMetas(left))
			}
		}
	})

	return Diff{Joins: joins, Leaves: leaves}
}

// SyncState reconciles state against a full snapshot and returns the updated state
// together with one change per affected key. Ownership rules match ApplyDiff.
func SyncState(state, newState *State) (*State, []Change) {
	return ApplyDiff(state, ComputeDiff(state, newState))
}

// refSet returns the set of references in metas.
func refSet(metas []Meta) map[string]struct{} {
	set := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		set[m.refID()] = struct{}{}
	}
	return set
}

// excludeRefs returns the metas whose reference is not in refs, preserving order.
func excludeRefs(metas []Meta, refs map[string]struct{}) []Meta {
	out := make([]Meta, 0, len(metas))
	for _, m := range metas {
		if _, found := refs[m.refID()]; !found {
			out = append(out, m)
		}
	}
	return out
}
