package presence

// Chooser maps a presence entry to a listed value.
type Chooser[T any] func(key string, p *Presence) T

// List returns the entries of state in key enumeration order.
func List(state *State) []*Presence {
	return ListBy(state, func(_ string, p *Presence) *Presence { return p })
}

// ListBy applies chooser to every entry of state in key enumeration order.
func ListBy[T any](state *State, chooser Chooser[T]) []T {
	out := make([]T, 0, state.Len())
	state.Each(func(key string, p *Presence) {
		out = append(out, chooser(key, p))
	})
	return out
}
