// Package lock provides distributed spec locking for stagehand workspaces.
//
// When multiple machines work against a shared filesystem, two of them may
// attempt to modify the same spec simultaneously. The lock package prevents
// this by reserving a per-spec lock slot (specs/<id>/spec.lock) through the
// lockfile codec. Acquisition is single-shot: a held lock is reported back
// immediately, never waited on.
//
// # Architecture
//
// The [Manager] wraps a [lockfile.Codec] and a machine identity. Every
// mutating operation reads the current record, decides, and rewrites or
// removes the slot whole. Forced releases and stale-lock removals are
// written to the audit trail before the slot is touched, and lifecycle
// events are published to the event bus for dashboard observability.
//
// # Staleness
//
// Records carry their own lifetime (timeout, in hours). Nothing renews a
// lock in the background: expired records are reclaimed lazily, either by
// an [Manager.Acquire] that finds one in its way or by an explicit
// [Manager.CleanupStale] sweep. Queries treat expired records as unlocked.
//
// # Basic Usage
//
//	mgr := lock.NewManager(codec, ident,
//	    lock.WithAudit(trail),
//	    lock.WithBus(bus),
//	)
//
//	// Try to take a spec
//	res, err := mgr.Acquire("auth-api", lock.AcquireOptions{Reason: "refactor"})
//	if err == nil && !res.Success {
//	    fmt.Println(res.Error) // "Spec is already locked"
//	}
//
//	// Release when done
//	_, err = mgr.Release("auth-api", lock.ReleaseOptions{})
//
//	// Sweep expired records
//	swept, err := mgr.CleanupStale(lock.CleanupOptions{Pattern: "auth-*"})
//
// # Thread Safety
//
// Mutating operations are serialized by an internal sync.Mutex. That guards
// goroutines of one process; exclusion between processes rests on the
// lock records themselves.
package lock
