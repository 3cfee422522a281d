// Package presence reconciles a replicated presence roster from full snapshots and
// incremental join/leave diffs.
//
// A roster maps logical keys (e.g. user ids) to entries. Each entry holds the instances
// (metas) through which the key is connected, one per tab or device, identified by their
// phx_ref reference, plus custom fields shared by the whole entry.
//
// # Architecture
//
// The package consists of four parts:
//
// 1. ComputeDiff: turns a pair of full snapshots into an equivalent join/leave diff, so a
// fresh snapshot goes through the same merge path as a live diff. A rotated reference is
// a leave plus a join, never a no-op.
//
// 2. ApplyDiff: the single merge function. Instance lists change by union and difference
// on references, so sibling instances of a key survive unrelated joins and leaves. It
// returns one Change per affected key.
//
// 3. PendingQueue: holds diffs received while the connection epoch is stale (a reconnect
// is in progress) until the next snapshot has been applied.
//
// 4. Reconciler: subscribes to a Channel's state and diff events, tracks the epoch and
// drives the pieces above, exposing single-slot OnChange and OnSync handlers.
//
// # Ownership
//
// ApplyDiff and SyncState take ownership of the state they are given and return it
// updated. LegacySyncState and LegacySyncDiff copy their inputs first and report through
// separate join and leave callbacks; they are kept for compatibility only and log a
// deprecation warning through the global zap logger.
//
// # Ordering
//
// State is insertion ordered. List, ListBy and change notifications follow key
// enumeration order, and JSON decoding keeps the order of the source document.
//
// # Usage Example
//
//	r := presence.New(ch, presence.Config{})
//	r.OnChange(func(key string, oldPresence, newPresence *presence.Presence) {
//	    log.Info("presence changed", zap.String("key", key))
//	})
//	r.OnSync(func() { render(r.List()) })
package presence
