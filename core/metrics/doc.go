// Package metrics exposes reconciliation counters in the prometheus format.
//
// A Collector owns a dedicated registry so tests and embedded uses never collide with
// the default global registry. All series carry a topic label:
//
//   - presence_snapshots_total
//   - presence_diffs_applied_total
//   - presence_diffs_queued_total
//   - presence_changes_total
//   - presence_roster_keys (gauge)
//
// Handler adapts promhttp to a Fiber handler for mounting on the HTTP server.
package metrics
