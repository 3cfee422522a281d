package presence

// keyChange collects both sides of a diff for one key.
type keyChange struct {
	key    string
	joined []Meta
	left   []Meta
	// update supplies the custom fields of the resulting entry
	update *Presence
}

// ApplyDiff merges diff into state and returns the updated state with one change per
// affected key, in diff order (join keys first, then keys that only left).
//
// ApplyDiff takes ownership of state: it is mutated in place and returned. A nil state is
// treated as empty and a new one is allocated. Entries are replaced, never edited, so the
// Old entry of a change stays intact. Leaves for a key that is not present are ignored.
//
// Re-applying the same diff is a no-op on references: already joined references are
// filtered out before the join instances are appended, and removed references are gone.
func ApplyDiff(state *State, diff Diff) (*State, []Change) {
	if state == nil {
		state = NewState()
	}

	changeSet := buildChangeSet(diff)
	changes := make([]Change, 0, len(changeSet))

	for _, c := range changeSet {
		current, existed := state.Get(c.key)

		var base []Meta
		if existed {
			base = current.Metas
		}

		// Drop instances that are about to be re-added, append the joins, then drop leaves
		metas := excludeRefs(base, refSet(c.joined))
		metas = append(metas, c.joined...)
		metas = excludeRefs(metas, refSet(c.left))

		if !existed && len(metas) == 0 {
			continue
		}

		next := &Presence{Metas: metas, Fields: cloneFields(c.update.Fields)}
		if len(metas) == 0 {
			state.Delete(c.key)
		} else {
			state.Set(c.key, next)
		}

		changes = append(changes, Change{Key: c.key, Old: current, New: next})
	}

	return state, changes
}

// buildChangeSet creates the ordered union of keys touched by either side of the diff.
func buildChangeSet(diff Diff) []*keyChange {
	var order []*keyChange
	index := make(map[string]*keyChange)

	diff.Joins.Each(func(key string, p *Presence) {
		if p == nil {
			return
		}
		c := &keyChange{key: key, joined: p.Metas, update: p}
		index[key] = c
		order = append(order, c)
	})

	diff.Leaves.Each(func(key string, p *Presence) {
		if p == nil {
			return
		}
		if c, ok := index[key]; ok {
			c.left = p.Metas
			return
		}
		c := &keyChange{key: key, left: p.Metas, update: p}
		index[key] = c
		order = append(order, c)
	})

	return order
}

// notify delivers changes to fn in order.
func notify(changes []Change, fn ChangeFunc) {
	if fn == nil {
		return
	}
	for _, c := range changes {
		fn(c.Key, c.Old, c.New)
	}
}
