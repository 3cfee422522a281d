package channel_test

import (
	"testing"

	"presence-sync/core/channel"
	"presence-sync/core/presence"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ presence.Channel = (*channel.Local)(nil)

func TestLocal_Trigger(t *testing.T) {
	ch := channel.NewLocal()

	var got []any
	ch.On("ping", func(payload any) { got = append(got, payload) })

	require.NoError(t, ch.Trigger("ping", 1))
	require.NoError(t, ch.Trigger("ping", "two"))
	assert.Equal(t, []any{1, "two"}, got)

	err := ch.Trigger("pong", nil)
	assert.ErrorIs(t, err, channel.ErrNoHandler)
}

func TestLocal_OnReplacesHandler(t *testing.T) {
	ch := channel.NewLocal()

	var first, second int
	ch.On("ping", func(any) { first++ })
	ch.On("ping", func(any) { second++ })

	require.NoError(t, ch.Trigger("ping", nil))
	assert.Equal(t, 0, first)
	assert.Equal(t, 1, second)
}

func TestLocal_Reconnect(t *testing.T) {
	ch := channel.NewLocal()

	before := ch.JoinRef()
	require.NotEmpty(t, before)

	after := ch.Reconnect()
	assert.NotEqual(t, before, after)
	assert.Equal(t, presence.Epoch(after), ch.JoinRef())
}

func TestLocal_DrivesReconciler(t *testing.T) {
	ch := channel.NewLocal()
	r := presence.New(ch, presence.Config{})

	// Not synced before the first snapshot
	require.NoError(t, ch.Trigger(presence.DefaultDiffEvent, `{"joins": {"u1": {"metas": [{"phx_ref": "1"}]}}, "leaves": {}}`))
	assert.True(t, r.InPendingSyncState())
	assert.Equal(t, 1, r.PendingLen())

	require.NoError(t, ch.Trigger(presence.DefaultStateEvent, `{}`))
	assert.False(t, r.InPendingSyncState())
	assert.Equal(t, []string{"u1"}, r.State().Keys())

	ch.Reconnect()
	assert.True(t, r.InPendingSyncState())
}
