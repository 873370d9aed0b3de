package lock

import (
	"time"

	"github.com/stagehand-sh/stagehand/internal/lockfile"
)

// Contention outcomes surfaced on structured results. These are business
// outcomes, not errors: the operation ran to completion and reported that
// the lock was unavailable.
const (
	// AlreadyLockedMessage is set on AcquireResult.Error when another
	// machine holds an unexpired lock.
	AlreadyLockedMessage = "Spec is already locked"

	// ForeignLockMessage is set on ReleaseResult.Error when a non-forced
	// release finds the lock held by a different machine.
	ForeignLockMessage = "Lock owned by different machine"
)

// DefaultTimeoutHours is the lock lifetime applied when the caller does not
// supply one.
const DefaultTimeoutHours = 4.0

// AcquireOptions configures a single acquisition attempt.
type AcquireOptions struct {
	Owner        string  // human-readable label; defaults to the machine hostname
	Reason       string  // free-text justification; required
	TimeoutHours float64 // lock lifetime in hours; defaults to the manager's default
}

// AcquireResult reports the outcome of an acquisition attempt.
type AcquireResult struct {
	Success     bool             // lock is held by this machine after the call
	AlreadyHeld bool             // this machine already held it; nothing was written
	Error       string           // contention message when Success is false
	Existing    *lockfile.Record // the blocking record on contention
	Record      *lockfile.Record // the held record on success
}

// ReleaseOptions configures a release.
type ReleaseOptions struct {
	Force bool   // delete the slot regardless of holder
	Actor string // human label recorded in the audit trail on forced release
}

// ReleaseResult reports the outcome of a release.
type ReleaseResult struct {
	Success  bool             // the slot is clear (or was already)
	Forced   bool             // a forced release actually removed something
	WasHeld  bool             // a valid record existed before the call
	Error    string           // contention message when Success is false
	Previous *lockfile.Record // the record that held the slot, if any
}

// CleanupOptions configures a stale-lock sweep.
type CleanupOptions struct {
	Pattern string // optional glob over spec ids; empty matches all
	Actor   string // human label recorded in the audit trail
	DryRun  bool   // report stale locks without removing them
}

// StaleLock describes one expired record found by a sweep.
type StaleLock struct {
	SpecID string
	Record *lockfile.Record
	Age    time.Duration // time since the record's timestamp, second precision
}

// CleanupResult reports the outcome of a stale-lock sweep.
type CleanupResult struct {
	Checked int         // valid records examined (after pattern filtering)
	Removed int         // records actually deleted; zero on dry runs
	Stale   []StaleLock // expired records found, in spec-id order
}

// HeldLock pairs a spec id with its current lock record for listings.
type HeldLock struct {
	SpecID  string
	Record  *lockfile.Record
	Expired bool
}

// Option configures a Manager.
type Option func(*Manager)

// Expired reports whether the record's lifetime had elapsed as of now.
// Elapsed time is compared at second precision; a nil record is expired.
func Expired(rec *lockfile.Record, now time.Time) bool {
	if rec == nil {
		return true
	}
	elapsed := now.Sub(rec.Timestamp).Truncate(time.Second)
	limit := time.Duration(rec.Timeout * float64(time.Hour))
	return elapsed > limit
}

// Age returns how long ago the record was written, truncated to seconds.
func Age(rec *lockfile.Record, now time.Time) time.Duration {
	if rec == nil {
		return 0
	}
	return now.Sub(rec.Timestamp).Truncate(time.Second)
}
