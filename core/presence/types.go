package presence

import (
	"bytes"
	"encoding/json"
	"fmt"

	"presence-sync/core/utils"
)

// RefKey is the meta field that carries the instance reference.
const RefKey = "phx_ref"

// metasKey is the JSON field holding the instance list of a presence entry.
const metasKey = "metas"

// Meta represents one physical connection (tab, device) of a presence key.
// Besides the reference it may carry arbitrary application fields, e.g. phx_ref_prev.
type Meta map[string]any

// Ref returns the instance reference rendered as a string.
func (m Meta) Ref() string {
	v, ok := m[RefKey]
	if !ok || v == nil {
		return ""
	}
	return utils.ToString(v)
}

// refID identifies the instance reference for matching. Numbers match numbers with the
// same value, but a number never matches a string, so 1 and "1" are different instances.
func (m Meta) refID() string {
	v, ok := m[RefKey]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return "s:" + s
	}
	return "v:" + utils.ToString(v)
}

// Presence is the aggregate of a logical key.
type Presence struct {
	// Metas is the ordered instance list. Order is merge order.
	Metas []Meta

	// Fields holds application fields that are siblings of the instance list.
	// They are replaced wholesale on every update, never merged.
	Fields map[string]any
}

// Refs returns the references of all instances in order.
func (p *Presence) Refs() []string {
	if p == nil {
		return nil
	}
	refs := make([]string, 0, len(p.Metas))
	for _, m := range p.Metas {
		refs = append(refs, m.Ref())
	}
	return refs
}

// withMetas returns a copy of p carrying the given instances and p's fields.
func (p *Presence) withMetas(metas []Meta) *Presence {
	return &Presence{Metas: metas, Fields: cloneFields(p.Fields)}
}

// MarshalJSON encodes the entry as {"metas": [...], <fields>}.
func (p *Presence) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(p.Fields)+1)
	for k, v := range p.Fields {
		out[k] = v
	}
	metas := p.Metas
	if metas == nil {
		metas = []Meta{}
	}
	out[metasKey] = metas
	return json.Marshal(out)
}

// UnmarshalJSON decodes an entry, treating every key except "metas" as a custom field.
func (p *Presence) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	decoded := Presence{}
	for k, v := range raw {
		if k == metasKey {
			if err := json.Unmarshal(v, &decoded.Metas); err != nil {
				return fmt.Errorf("presence: decode metas: %w", err)
			}
			continue
		}
		var field any
		if err := json.Unmarshal(v, &field); err != nil {
			return fmt.Errorf("presence: decode field %q: %w", k, err)
		}
		if decoded.Fields == nil {
			decoded.Fields = make(map[string]any)
		}
		decoded.Fields[k] = field
	}

	*p = decoded
	return nil
}

// State maps presence keys to entries and remembers insertion order.
// Setting an existing key keeps its position; deleting and re-adding a key appends it.
// The zero value is not usable; use NewState. A nil *State reads as empty.
type State struct {
	keys    []string
	entries map[string]*Presence
}

// NewState returns an empty state.
func NewState() *State {
	return &State{entries: make(map[string]*Presence)}
}

// Len returns the number of keys.
func (s *State) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// Get returns the entry stored under key.
func (s *State) Get(key string) (*Presence, bool) {
	if s == nil {
		return nil, false
	}
	p, ok := s.entries[key]
	return p, ok
}

// Set stores p under key.
func (s *State) Set(key string, p *Presence) {
	if _, ok := s.entries[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.entries[key] = p
}

// Delete removes key. Deleting an absent key does nothing.
func (s *State) Delete(key string) {
	if _, ok := s.entries[key]; !ok {
		return
	}
	delete(s.entries, key)
	for i, k := range s.keys {
		if k == key {
			s.keys = append(s.keys[:i], s.keys[i+1:]...)
			break
		}
	}
}

// Keys returns a copy of the keys in enumeration order.
func (s *State) Keys() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.keys...)
}

// Each calls fn for every entry in enumeration order.
func (s *State) Each(fn func(key string, p *Presence)) {
	if s == nil {
		return
	}
	for _, key := range s.Keys() {
		fn(key, s.entries[key])
	}
}

// Clone returns a deep copy of the state.
func (s *State) Clone() *State {
	out := NewState()
	s.Each(func(key string, p *Presence) {
		out.Set(key, clonePresence(p))
	})
	return out
}

// MarshalJSON encodes the state as a JSON object in enumeration order.
func (s *State) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range s.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(s.entries[key])
		if err != nil {
			return nil, fmt.Errorf("presence: encode %q: %w", key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object keeping the order keys appear in.
func (s *State) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	decoded := NewState()
	if tok == nil {
		*s = *decoded
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("presence: state must be a JSON object, got %v", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("presence: unexpected token %v", tok)
		}
		var p Presence
		if err := dec.Decode(&p); err != nil {
			return fmt.Errorf("presence: decode %q: %w", key, err)
		}
		decoded.Set(key, &p)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*s = *decoded
	return nil
}

// Diff is an incremental update. Entries carry only the instances that joined or left.
// A nil side is treated as empty.
type Diff struct {
	Joins  *State `json:"joins"`
	Leaves *State `json:"leaves"`
}

// Clone returns a deep copy of the diff with both sides allocated.
func (d Diff) Clone() Diff {
	return Diff{Joins: d.Joins.Clone(), Leaves: d.Leaves.Clone()}
}

// Change describes the effect of one update on a single key.
type Change struct {
	// Key is the presence key.
	Key string

	// Old is the entry before the update, nil if the key was absent.
	Old *Presence

	// New is the entry after the update. Metas is empty when the key was removed.
	New *Presence
}

// ChangeFunc receives one notification per affected key.
type ChangeFunc func(key string, oldPresence, newPresence *Presence)

// Epoch identifies a channel connection validity window. Only == is used on it,
// so it must hold a comparable value.
type Epoch any

func clonePresence(p *Presence) *Presence {
	if p == nil {
		return nil
	}
	out := &Presence{Fields: cloneFields(p.Fields)}
	if p.Metas != nil {
		out.Metas = make([]Meta, len(p.Metas))
		for i, m := range p.Metas {
			out.Metas[i] = Meta(cloneValue(map[string]any(m)).(map[string]any))
		}
	}
	return out
}

func cloneFields(fields map[string]any) map[string]any {
	if len(fields) == 0 {
		return nil
	}
	return cloneValue(fields).(map[string]any)
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		if t == nil {
			return t
		}
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = cloneValue(val)
		}
		return out
	case Meta:
		return Meta(cloneValue(map[string]any(t)).(map[string]any))
	case []any:
		if t == nil {
			return t
		}
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = cloneValue(val)
		}
		return out
	default:
		return v
	}
}
