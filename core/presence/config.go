package presence

const (
	// DefaultStateEvent is the conventional name of the full-state event.
	DefaultStateEvent = "presence_state"
	// DefaultDiffEvent is the conventional name of the join/leave diff event.
	DefaultDiffEvent = "presence_diff"
)

// Config maps the channel events the reconciler listens to.
type Config struct {
	// StateEvent is the event carrying full snapshots.
	StateEvent string `mapstructure:"state_event" default:"presence_state"`
	// DiffEvent is the event carrying join/leave diffs.
	DiffEvent string `mapstructure:"diff_event" default:"presence_diff"`
}

// WithDefaults returns c with empty event names set to the conventional ones.
func (c Config) WithDefaults() Config {
	if c.StateEvent == "" {
		c.StateEvent = DefaultStateEvent
	}
	if c.DiffEvent == "" {
		c.DiffEvent = DefaultDiffEvent
	}
	return c
}
