package channel

import (
	"errors"
	"fmt"
	"sync"

	"presence-sync/core/presence"

	"github.com/google/uuid"
)

// ErrNoHandler is returned by Trigger when no handler is registered for the event.
var ErrNoHandler = errors.New("channel: no handler for event")

// Local is an in-process presence.Channel. Events are delivered synchronously on the
// caller's goroutine, and every (re)connection is identified by a random epoch.
//
// Registration and epoch access are safe for concurrent use. Delivery is not serialized:
// callers that trigger from several goroutines must serialize on their own.
type Local struct {
	mu       sync.RWMutex
	epoch    string
	handlers map[string]func(payload any)
}

// NewLocal creates a connected channel with a fresh epoch.
func NewLocal() *Local {
	return &Local{
		epoch:    uuid.NewString(),
		handlers: make(map[string]func(payload any)),
	}
}

// On registers handler for event, replacing any previous handler.
func (l *Local) On(event string, handler func(payload any)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handlers[event] = handler
}

// JoinRef returns the epoch of the current connection.
func (l *Local) JoinRef() presence.Epoch {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.epoch
}

// Reconnect simulates a dropped and re-established connection by rotating the epoch.
// It returns the new epoch.
func (l *Local) Reconnect() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.epoch = uuid.NewString()
	return l.epoch
}

// Trigger delivers payload to the handler registered for event.
// The handler runs without the channel lock held, so it may call back into the channel.
func (l *Local) Trigger(event string, payload any) error {
	l.mu.RLock()
	handler, ok := l.handlers[event]
	l.mu.RUnlock()

	if !ok {
		return fmt.Errorf("%w: %q", ErrNoHandler, event)
	}
	handler(payload)
	return nil
}
