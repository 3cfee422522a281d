package presence

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnsupportedPayload is returned when an event payload has an unexpected type.
var ErrUnsupportedPayload = errors.New("presence: unsupported payload")

// Channel is the realtime channel capability the reconciler depends on.
type Channel interface {
	// On registers the handler for an event. At most one handler per event is expected.
	On(event string, handler func(payload any))

	// JoinRef returns the epoch of the current connection. It must change across a reconnect.
	JoinRef() Epoch
}

// decodeState converts a state event payload. Raw JSON is decoded preserving key order.
func decodeState(payload any) (*State, error) {
	switch p := payload.(type) {
	case *State:
		if p == nil {
			return NewState(), nil
		}
		return p, nil
	case State:
		return &p, nil
	case json.RawMessage:
		return unmarshalState(p)
	case []byte:
		return unmarshalState(p)
	case string:
		return unmarshalState([]byte(p))
	default:
		return nil, fmt.Errorf("%w: state event carries %T", ErrUnsupportedPayload, payload)
	}
}

// decodeDiff converts a diff event payload.
func decodeDiff(payload any) (Diff, error) {
	switch p := payload.(type) {
	case Diff:
		return p, nil
	case *Diff:
		if p == nil {
			return Diff{}, nil
		}
		return *p, nil
	case json.RawMessage:
		return unmarshalDiff(p)
	case []byte:
		return unmarshalDiff(p)
	case string:
		return unmarshalDiff([]byte(p))
	default:
		return Diff{}, fmt.Errorf("%w: diff event carries %T", ErrUnsupportedPayload, payload)
	}
}

func unmarshalState(data []byte) (*State, error) {
	s := NewState()
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("presence: decode state: %w", err)
	}
	return s, nil
}

func unmarshalDiff(data []byte) (Diff, error) {
	var d Diff
	if err := json.Unmarshal(data, &d); err != nil {
		return Diff{}, fmt.Errorf("presence: decode diff: %w", err)
	}
	return d, nil
}
