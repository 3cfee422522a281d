package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace is the prometheus namespace of every collector in this package.
const Namespace = "presence"

const topicLabel = "topic"

// Collector groups the reconciliation metrics of all topics on a dedicated registry.
type Collector struct {
	registry *prometheus.Registry

	snapshots    *prometheus.CounterVec
	diffsApplied *prometheus.CounterVec
	diffsQueued  *prometheus.CounterVec
	changes      *prometheus.CounterVec
	rosterKeys   *prometheus.GaugeVec
}

// New creates a collector with its own registry, including the Go runtime and process collectors.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		snapshots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "snapshots_total",
			Help:      "Number of full state snapshots reconciled.",
		}, []string{topicLabel}),
		diffsApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "diffs_applied_total",
			Help:      "Number of diffs merged into the roster while synced.",
		}, []string{topicLabel}),
		diffsQueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "diffs_queued_total",
			Help:      "Number of diffs queued while awaiting a snapshot.",
		}, []string{topicLabel}),
		changes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "changes_total",
			Help:      "Number of per-key changes delivered to observers.",
		}, []string{topicLabel}),
		rosterKeys: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "roster_keys",
			Help:      "Number of keys currently present in the roster.",
		}, []string{topicLabel}),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.snapshots,
		c.diffsApplied,
		c.diffsQueued,
		c.changes,
		c.rosterKeys,
	)
	return c
}

// Registry returns the registry backing the collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Snapshot records a reconciled snapshot for topic.
func (c *Collector) Snapshot(topic string) {
	c.snapshots.WithLabelValues(topic).Inc()
}

// DiffApplied records a diff merged while synced.
func (c *Collector) DiffApplied(topic string) {
	c.diffsApplied.WithLabelValues(topic).Inc()
}

// DiffQueued records a diff held back until the next snapshot.
func (c *Collector) DiffQueued(topic string) {
	c.diffsQueued.WithLabelValues(topic).Inc()
}

// Changes adds n delivered changes for topic.
func (c *Collector) Changes(topic string, n int) {
	c.changes.WithLabelValues(topic).Add(float64(n))
}

// RosterSize sets the current number of keys for topic.
func (c *Collector) RosterSize(topic string, keys int) {
	c.rosterKeys.WithLabelValues(topic).Set(float64(keys))
}

// Handler serves the registry in the prometheus exposition format.
func (c *Collector) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))
}
