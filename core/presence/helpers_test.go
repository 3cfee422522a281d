package presence

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

// mustState decodes a JSON roster fixture, keeping key order.
func mustState(t *testing.T, raw string) *State {
	t.Helper()
	s := NewState()
	require.NoError(t, json.Unmarshal([]byte(raw), s))
	return s
}

// mustDiff decodes a JSON diff fixture.
func mustDiff(t *testing.T, raw string) Diff {
	t.Helper()
	var d Diff
	require.NoError(t, json.Unmarshal([]byte(raw), &d))
	return d
}

func toJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

// fixtureState mirrors a roster with three single-instance users.
const fixtureState = `{
	"u1": {"metas": [{"id": 1, "phx_ref": "1"}]},
	"u2": {"metas": [{"id": 2, "phx_ref": "2"}]},
	"u3": {"metas": [{"id": 3, "phx_ref": "3"}]}
}`
