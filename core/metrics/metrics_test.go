package metrics_test

import (
	"io"
	"net/http/httptest"
	"testing"

	"presence-sync/core/metrics"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Counters(t *testing.T) {
	c := metrics.New()

	c.Snapshot("room:lobby")
	c.Snapshot("room:lobby")
	c.DiffApplied("room:lobby")
	c.DiffQueued("room:other")
	c.Changes("room:lobby", 3)
	c.RosterSize("room:lobby", 2)

	count, err := testutil.GatherAndCount(c.Registry(), "presence_snapshots_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	families, err := c.Registry().Gather()
	require.NoError(t, err)

	values := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			label := m.GetLabel()
			if len(label) != 1 {
				continue
			}
			key := mf.GetName() + "/" + label[0].GetValue()
			switch {
			case m.GetCounter() != nil:
				values[key] = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				values[key] = m.GetGauge().GetValue()
			}
		}
	}

	assert.Equal(t, 2.0, values["presence_snapshots_total/room:lobby"])
	assert.Equal(t, 1.0, values["presence_diffs_applied_total/room:lobby"])
	assert.Equal(t, 1.0, values["presence_diffs_queued_total/room:other"])
	assert.Equal(t, 3.0, values["presence_changes_total/room:lobby"])
	assert.Equal(t, 2.0, values["presence_roster_keys/room:lobby"])
}

func TestCollector_Handler(t *testing.T) {
	c := metrics.New()
	c.Snapshot("room:lobby")

	app := fiber.New()
	app.Get("/metrics", c.Handler())

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil), 2000)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `presence_snapshots_total{topic="room:lobby"} 1`)
}
