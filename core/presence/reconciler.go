package presence

import (
	"go.uber.org/zap"
)

// JoinLeaveFunc is the legacy per-side callback. For joins it receives the entry before
// the update and the joined entry; for leaves the entry after the update and the left entry.
type JoinLeaveFunc func(key string, current, changed *Presence)

// callbacks holds the single-slot handlers registered by the caller.
type callbacks struct {
	onChange ChangeFunc
	onJoin   JoinLeaveFunc
	onLeave  JoinLeaveFunc
	onSync   func()
}

// Reconciler keeps a local roster in sync with a channel's state and diff events.
//
// It is synced while its local epoch equals the channel's JoinRef and pending otherwise,
// including before the first snapshot. Diffs received while pending are queued and
// replayed after the next snapshot. All work happens synchronously inside the channel's
// handler calls; the Reconciler is not safe for concurrent use.
type Reconciler struct {
	channel Channel
	cfg     Config
	state   *State
	pending PendingQueue
	joinRef Epoch
	caller  callbacks
	logger  *zap.Logger
}

// New creates a reconciler and registers its handlers on ch.
// Empty event names in cfg fall back to DefaultStateEvent and DefaultDiffEvent.
func New(ch Channel, cfg Config) *Reconciler {
	r := &Reconciler{
		channel: ch,
		cfg:     cfg.WithDefaults(),
		state:   NewState(),
		caller:  callbacks{onSync: func() {}},
		logger:  zap.L().Named("presence"),
	}

	ch.On(r.cfg.StateEvent, r.handleState)
	ch.On(r.cfg.DiffEvent, r.handleDiff)

	return r
}

// OnChange sets the change handler, replacing any previous one.
func (r *Reconciler) OnChange(fn ChangeFunc) {
	r.caller.onChange = fn
}

// OnSync sets the handler invoked after every snapshot reconciliation and after every
// live diff, replacing any previous one. A nil fn restores the no-op default.
func (r *Reconciler) OnSync(fn func()) {
	if fn == nil {
		fn = func() {}
	}
	r.caller.onSync = fn
}

// OnJoin sets the legacy join handler.
//
// Deprecated: Use OnChange instead.
func (r *Reconciler) OnJoin(fn JoinLeaveFunc) {
	warnDeprecated("Reconciler.OnJoin", "Reconciler.OnChange")
	r.caller.onJoin = fn
}

// OnLeave sets the legacy leave handler.
//
// Deprecated: Use OnChange instead.
func (r *Reconciler) OnLeave(fn JoinLeaveFunc) {
	warnDeprecated("Reconciler.OnLeave", "Reconciler.OnChange")
	r.caller.onLeave = fn
}

// List returns the current entries in key enumeration order.
func (r *Reconciler) List() []*Presence {
	return List(r.state)
}

// State returns the current roster. Callers must not modify it.
func (r *Reconciler) State() *State {
	return r.state
}

// PendingLen returns the number of diffs waiting for the next snapshot.
func (r *Reconciler) PendingLen() int {
	return r.pending.Len()
}

// InPendingSyncState reports whether the local epoch is unset or stale.
func (r *Reconciler) InPendingSyncState() bool {
	return r.joinRef == nil || r.joinRef != r.channel.JoinRef()
}

func (r *Reconciler) handleState(payload any) {
	newState, err := decodeState(payload)
	if err != nil {
		r.logger.Warn("Dropping presence state", zap.String("event", r.cfg.StateEvent), zap.Error(err))
		return
	}

	r.joinRef = r.channel.JoinRef()

	if r.legacy() {
		r.state = legacySyncState(r.state, newState, r.caller.onJoin, r.caller.onLeave)
	} else {
		var changes []Change
		r.state, changes = SyncState(r.state, newState)
		notify(changes, r.caller.onChange)
	}

	drained := r.pending.Drain(r.apply)
	if drained > 0 {
		r.logger.Debug("Replayed pending presence diffs", zap.Int("count", drained))
	}

	r.caller.onSync()
}

func (r *Reconciler) handleDiff(payload any) {
	diff, err := decodeDiff(payload)
	if err != nil {
		r.logger.Warn("Dropping presence diff", zap.String("event", r.cfg.DiffEvent), zap.Error(err))
		return
	}

	if r.InPendingSyncState() {
		r.pending.Push(diff)
		r.logger.Debug("Queued presence diff until next state", zap.Int("pending", r.pending.Len()))
		return
	}

	r.apply(diff)
	r.caller.onSync()
}

// apply merges one diff through the canonical or legacy path.
func (r *Reconciler) apply(diff Diff) {
	if r.legacy() {
		r.state = legacySyncDiff(r.state, diff, r.caller.onJoin, r.caller.onLeave)
		return
	}

	var changes []Change
	r.state, changes = ApplyDiff(r.state, diff)
	notify(changes, r.caller.onChange)
}

func (r *Reconciler) legacy() bool {
	return r.caller.onJoin != nil || r.caller.onLeave != nil
}
