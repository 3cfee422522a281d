package trace

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

var (
	// ErrEmptyTrace is returned when a trace has no steps.
	ErrEmptyTrace = errors.New("trace: no steps")
	// ErrInvalidStep is returned when a step is neither an event delivery nor a reconnect.
	ErrInvalidStep = errors.New("trace: invalid step")
)

// Trace is a recorded sequence of channel traffic for one topic.
type Trace struct {
	Topic string
	Steps []Step
}

// Step is either the delivery of Payload under Event, or a reconnect marker.
type Step struct {
	Event     string
	Payload   json.RawMessage
	Reconnect bool
}

type rawTrace struct {
	Topic string    `yaml:"topic"`
	Steps []rawStep `yaml:"steps"`
}

type rawStep struct {
	Event     string    `yaml:"event"`
	Reconnect bool      `yaml:"reconnect"`
	Payload   yaml.Node `yaml:"payload"`
}

// Parse decodes a trace from YAML or JSON. Payload mappings keep their key order.
func Parse(data []byte) (*Trace, error) {
	var raw rawTrace
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("trace: decode: %w", err)
	}
	if len(raw.Steps) == 0 {
		return nil, ErrEmptyTrace
	}

	t := &Trace{Topic: raw.Topic, Steps: make([]Step, 0, len(raw.Steps))}
	for i, rs := range raw.Steps {
		step, err := rs.build()
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		t.Steps = append(t.Steps, step)
	}
	return t, nil
}

func (rs rawStep) build() (Step, error) {
	hasPayload := rs.Payload.Kind != 0

	switch {
	case rs.Reconnect && (rs.Event != "" || hasPayload):
		return Step{}, fmt.Errorf("%w: reconnect step carries an event", ErrInvalidStep)
	case rs.Reconnect:
		return Step{Reconnect: true}, nil
	case rs.Event == "":
		return Step{}, fmt.Errorf("%w: missing event", ErrInvalidStep)
	case !hasPayload:
		return Step{}, fmt.Errorf("%w: event %q has no payload", ErrInvalidStep, rs.Event)
	}

	var buf bytes.Buffer
	if err := writeJSON(&buf, &rs.Payload); err != nil {
		return Step{}, fmt.Errorf("%w: %v", ErrInvalidStep, err)
	}
	return Step{Event: rs.Event, Payload: buf.Bytes()}, nil
}

// writeJSON renders a YAML node as JSON, emitting mapping keys in document order.
func writeJSON(buf *bytes.Buffer, n *yaml.Node) error {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			buf.WriteString("null")
			return nil
		}
		return writeJSON(buf, n.Content[0])
	case yaml.AliasNode:
		return writeJSON(buf, n.Alias)
	case yaml.MappingNode:
		buf.WriteByte('{')
		for i := 0; i+1 < len(n.Content); i += 2 {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(n.Content[i].Value)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := writeJSON(buf, n.Content[i+1]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case yaml.SequenceNode:
		buf.WriteByte('[')
		for i, item := range n.Content {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return err
		}
		out, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("line %d: %w", n.Line, err)
		}
		buf.Write(out)
		return nil
	default:
		return fmt.Errorf("line %d: unsupported node kind %d", n.Line, n.Kind)
	}
}
