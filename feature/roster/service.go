package roster

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"presence-sync/core/channel"
	"presence-sync/core/journal"
	"presence-sync/core/logger"
	"presence-sync/core/metrics"
	"presence-sync/core/presence"
	"presence-sync/core/trace"

	"go.uber.org/zap"
)

var (
	// ErrUnknownTopic is returned for a topic that never received an event.
	ErrUnknownTopic = errors.New("roster: unknown topic")
	// ErrInvalidPayload is returned when a request body is not a state or diff document.
	ErrInvalidPayload = errors.New("roster: invalid payload")
	// ErrJournalDisabled is returned when no journal database is configured.
	ErrJournalDisabled = errors.New("roster: journal disabled")
	// ErrTracesDisabled is returned when no trace storage is configured.
	ErrTracesDisabled = errors.New("roster: trace storage disabled")
)

// ChangeView is the wire form of a single roster change.
type ChangeView struct {
	Key     string   `json:"key"`
	Kind    string   `json:"kind"`
	OldRefs []string `json:"old_refs"`
	NewRefs []string `json:"new_refs"`
}

// Result describes the outcome of delivering one event to a topic.
type Result struct {
	Topic   string       `json:"topic"`
	Queued  bool         `json:"queued"`
	Synced  bool         `json:"synced"`
	Pending int          `json:"pending"`
	Changes []ChangeView `json:"changes"`
}

// Snapshot is a point-in-time copy of a topic's roster.
type Snapshot struct {
	Topic   string          `json:"topic"`
	Synced  bool            `json:"synced"`
	Pending int             `json:"pending"`
	Keys    []string        `json:"keys"`
	State   *presence.State `json:"state"`
}

// room is the reconciler of one topic. mu serializes event delivery and reads.
type room struct {
	mu         sync.Mutex
	topic      string
	channel    *channel.Local
	reconciler *presence.Reconciler
	batch      []presence.Change
}

// Service manages one reconciler per topic.
type Service struct {
	mu      sync.Mutex
	rooms   map[string]*room
	cfg     presence.Config
	metrics *metrics.Collector
	journal *journal.Recorder
	traces  *trace.Cache
	logger  *zap.Logger
}

// NewService creates a roster service. collector and recorder are optional.
func NewService(cfg presence.Config, collector *metrics.Collector, recorder *journal.Recorder, logger *zap.Logger) *Service {
	return &Service{
		rooms:   make(map[string]*room),
		cfg:     cfg.WithDefaults(),
		metrics: collector,
		journal: recorder,
		logger:  logger,
	}
}

// WithTraces enables seeding topics from traces in object storage.
func (s *Service) WithTraces(cache *trace.Cache) *Service {
	s.traces = cache
	return s
}

// Topics returns the known topics in lexical order.
func (s *Service) Topics() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	topics := make([]string, 0, len(s.rooms))
	for topic := range s.rooms {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return topics
}

// Roster returns a copy of the current roster of topic.
func (s *Service) Roster(topic string) (*Snapshot, error) {
	rm, ok := s.lookup(topic)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	state := rm.reconciler.State().Clone()
	return &Snapshot{
		Topic:   topic,
		Synced:  !rm.reconciler.InPendingSyncState(),
		Pending: rm.reconciler.PendingLen(),
		Keys:    state.Keys(),
		State:   state,
	}, nil
}

// PushState delivers a full snapshot to topic, creating the topic on first use.
func (s *Service) PushState(ctx context.Context, topic string, body []byte) (*Result, error) {
	state := presence.NewState()
	if err := json.Unmarshal(body, state); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	rm := s.getOrCreate(topic)
	rm.mu.Lock()
	defer rm.mu.Unlock()

	return s.push(ctx, rm, s.cfg.StateEvent, state)
}

// PushDiff delivers an incremental diff to topic, creating the topic on first use.
// Diffs for a topic without a current snapshot are queued.
func (s *Service) PushDiff(ctx context.Context, topic string, body []byte) (*Result, error) {
	var diff presence.Diff
	if err := json.Unmarshal(body, &diff); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	rm := s.getOrCreate(topic)
	rm.mu.Lock()
	defer rm.mu.Unlock()

	return s.push(ctx, rm, s.cfg.DiffEvent, diff)
}

// ReplayTrace delivers every step of the stored trace object to topic, creating the
// topic on first use. The returned result accumulates the changes of all steps.
// A trace naming an event the reconciler does not handle is rejected as a whole.
func (s *Service) ReplayTrace(ctx context.Context, topic, object string) (*Result, error) {
	if s.traces == nil {
		return nil, ErrTracesDisabled
	}

	tr, err := s.traces.Get(ctx, object)
	if err != nil {
		return nil, err
	}

	// Reject the whole trace before the topic is touched
	for i, step := range tr.Steps {
		if step.Reconnect || step.Event == s.cfg.StateEvent || step.Event == s.cfg.DiffEvent {
			continue
		}
		return nil, fmt.Errorf("step %d: %w: %q", i, channel.ErrNoHandler, step.Event)
	}

	rm := s.getOrCreate(topic)
	rm.mu.Lock()
	defer rm.mu.Unlock()

	total := &Result{Topic: topic, Changes: []ChangeView{}}
	for i, step := range tr.Steps {
		if step.Reconnect {
			rm.channel.Reconnect()
			continue
		}
		res, err := s.push(ctx, rm, step.Event, step.Payload)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		total.Changes = append(total.Changes, res.Changes...)
	}

	total.Synced = !rm.reconciler.InPendingSyncState()
	total.Pending = rm.reconciler.PendingLen()

	logger.WithTopic(s.logger, topic).Info("Trace replayed",
		zap.String("object", object),
		zap.Int("steps", len(tr.Steps)),
		zap.Int("changes", len(total.Changes)),
	)
	return total, nil
}

// Reconnect rotates the connection epoch of topic. Subsequent diffs are queued until
// the next snapshot.
func (s *Service) Reconnect(topic string) (*Result, error) {
	rm, ok := s.lookup(topic)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTopic, topic)
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	epoch := rm.channel.Reconnect()
	logger.WithTopic(s.logger, topic).Info("Topic reconnected", zap.String("epoch", epoch))

	return &Result{
		Topic:   topic,
		Synced:  !rm.reconciler.InPendingSyncState(),
		Pending: rm.reconciler.PendingLen(),
		Changes: []ChangeView{},
	}, nil
}

// Journal returns the recorded changes of topic.
func (s *Service) Journal(ctx context.Context, topic string) ([]journal.Entry, error) {
	if s.journal == nil {
		return nil, ErrJournalDisabled
	}
	return s.journal.List(ctx, topic)
}

// push triggers event on the room's channel, updates metrics and the journal, and
// reports the resulting changes. The caller must hold rm.mu.
func (s *Service) push(ctx context.Context, rm *room, event string, payload any) (*Result, error) {
	queued := event == s.cfg.DiffEvent && rm.reconciler.InPendingSyncState()

	rm.batch = nil
	if err := rm.channel.Trigger(event, payload); err != nil {
		return nil, err
	}

	changes := make([]ChangeView, 0, len(rm.batch))
	for _, c := range rm.batch {
		changes = append(changes, ChangeView{
			Key:     c.Key,
			Kind:    journal.KindOf(c),
			OldRefs: c.Old.Refs(),
			NewRefs: c.New.Refs(),
		})
	}

	if s.metrics != nil {
		switch {
		case event == s.cfg.StateEvent:
			s.metrics.Snapshot(rm.topic)
		case queued:
			s.metrics.DiffQueued(rm.topic)
		default:
			s.metrics.DiffApplied(rm.topic)
		}
		s.metrics.Changes(rm.topic, len(rm.batch))
		s.metrics.RosterSize(rm.topic, rm.reconciler.State().Len())
	}
	s.record(ctx, rm)

	return &Result{
		Topic:   rm.topic,
		Queued:  queued,
		Synced:  !rm.reconciler.InPendingSyncState(),
		Pending: rm.reconciler.PendingLen(),
		Changes: changes,
	}, nil
}

// record writes the last batch of rm to the journal. Failures are logged because the
// roster has already been updated.
func (s *Service) record(ctx context.Context, rm *room) {
	if s.journal == nil {
		return
	}
	for _, c := range rm.batch {
		if err := s.journal.Record(ctx, rm.topic, c); err != nil {
			logger.WithTopic(s.logger, rm.topic).Warn("Journal write failed", zap.Error(err))
			return
		}
	}
}

func (s *Service) lookup(topic string) (*room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rm, ok := s.rooms[topic]
	return rm, ok
}

func (s *Service) getOrCreate(topic string) *room {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rm, ok := s.rooms[topic]; ok {
		return rm
	}

	ch := channel.NewLocal()
	rm := &room{
		topic:      topic,
		channel:    ch,
		reconciler: presence.New(ch, s.cfg),
	}
	rm.reconciler.OnChange(func(key string, oldPresence, newPresence *presence.Presence) {
		rm.batch = append(rm.batch, presence.Change{Key: key, Old: oldPresence, New: newPresence})
	})
	s.rooms[topic] = rm

	logger.WithTopic(s.logger, topic).Info("Topic created")
	return rm
}
