// Package roster exposes live presence rosters over HTTP.
//
// Each topic owns an in-process channel and a presence reconciler. Snapshots and diffs
// posted to the topic are delivered through the channel exactly as a realtime
// transport would deliver them, so the HTTP surface exercises the full reconciliation
// path: pending queueing after a reconnect, replay after the next snapshot, and change
// notification.
//
// # Routes
//
//   - GET  /roster                    known topics
//   - GET  /roster/:topic             current entries, keys and sync status
//   - POST /roster/:topic/state       reconcile against a full snapshot
//   - POST /roster/:topic/diff        merge (200) or queue (202) a diff
//   - POST /roster/:topic/reconnect   rotate the connection epoch
//   - POST /roster/:topic/replay      deliver a stored trace ({"object": "..."})
//   - GET  /roster/:topic/journal     recorded changes (requires a database)
//
// # Concurrency
//
// Requests for the same topic are serialized by a per-topic mutex, so a read never
// observes a partially applied diff. Different topics proceed independently.
//
// Every delivered event updates the prometheus collector and, when configured, writes
// the resulting changes to the journal.
package roster
