package lock

import (
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/gobwas/glob"
	"github.com/stagehand-sh/stagehand/internal/audit"
	"github.com/stagehand-sh/stagehand/internal/errors"
	"github.com/stagehand-sh/stagehand/internal/event"
	"github.com/stagehand-sh/stagehand/internal/identity"
	"github.com/stagehand-sh/stagehand/internal/lockfile"
	"github.com/stagehand-sh/stagehand/internal/logging"
)

// Manager coordinates spec locks across machines that share a filesystem.
// The lock records on disk are the coordination medium; the Manager adds
// ownership checks, staleness reclamation and auditing on top of the codec.
//
// A sync.Mutex serializes mutating operations between goroutines of this
// process. Cross-process exclusion remains the filesystem's contract.
type Manager struct {
	mu             sync.Mutex
	codec          *lockfile.Codec
	identity       identity.Provider
	audit          audit.Recorder
	bus            *event.Bus
	logger         *logging.Logger
	version        string
	defaultTimeout float64 // hours
}

// NewManager creates a Manager over the given codec and machine identity.
func NewManager(codec *lockfile.Codec, provider identity.Provider, opts ...Option) *Manager {
	m := &Manager{
		codec:          codec,
		identity:       provider,
		audit:          audit.NopRecorder{},
		logger:         logging.NopLogger(),
		version:        "dev",
		defaultTimeout: DefaultTimeoutHours,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// WithAudit wires a recorder for forced releases and stale cleanups.
func WithAudit(rec audit.Recorder) Option {
	return func(m *Manager) {
		m.audit = rec
	}
}

// WithBus wires an event bus; lock lifecycle events are published to it.
func WithBus(bus *event.Bus) Option {
	return func(m *Manager) {
		m.bus = bus
	}
}

// WithLogger sets the logger used by manager operations.
func WithLogger(logger *logging.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithVersion sets the version tag stamped into new lock records.
func WithVersion(version string) Option {
	return func(m *Manager) {
		m.version = version
	}
}

// WithDefaultTimeout sets the lock lifetime in hours applied when an
// acquisition does not supply one.
func WithDefaultTimeout(hours float64) Option {
	return func(m *Manager) {
		if hours > 0 {
			m.defaultTimeout = hours
		}
	}
}

// Acquire attempts to take the lock for a spec. It is single-shot: the
// outcome is returned immediately, and contention is reported on the result
// rather than as an error. An expired foreign record is reclaimed (and the
// reclamation audited) within the same call.
func (m *Manager) Acquire(specID string, opts AcquireOptions) (*AcquireResult, error) {
	m.mu.Lock()
	res, evts, err := m.acquireLocked(specID, opts)
	m.mu.Unlock()

	m.publish(evts)
	return res, err
}

func (m *Manager) acquireLocked(specID string, opts AcquireOptions) (*AcquireResult, []event.Event, error) {
	me, err := m.identity.Identity()
	if err != nil {
		return nil, nil, errors.NewLockError("resolve machine identity", err).WithSpecID(specID)
	}

	now := time.Now().UTC()
	var evts []event.Event

	if existing := m.codec.Read(specID); existing != nil {
		switch {
		case existing.MachineID == me.ID:
			// Re-entrant: already ours. The original timestamp and timeout
			// stand; holding again does not refresh the lease.
			return &AcquireResult{Success: true, AlreadyHeld: true, Record: existing}, nil, nil

		case Expired(existing, now):
			age := Age(existing, now)
			if err := m.recordCleanup(specID, existing, me, "", age); err != nil {
				return nil, nil, err
			}
			if _, err := m.codec.Delete(specID); err != nil {
				return nil, nil, errors.NewLockError("remove stale lock", err).WithSpecID(specID)
			}
			evts = append(evts, event.NewLockCleanedEvent(specID, existing.MachineID, age))
			m.logger.WithSpec(specID).Info("reclaimed stale lock",
				"holder", existing.MachineID, "age", age.String())

		default:
			return &AcquireResult{Success: false, Error: AlreadyLockedMessage, Existing: existing}, nil, nil
		}
	}

	rec := &lockfile.Record{
		Owner:     opts.Owner,
		MachineID: me.ID,
		Hostname:  me.Hostname,
		Timestamp: now,
		Timeout:   opts.TimeoutHours,
		Reason:    opts.Reason,
		Version:   m.version,
	}
	if rec.Owner == "" {
		rec.Owner = me.Hostname
	}
	if rec.Timeout <= 0 {
		rec.Timeout = m.defaultTimeout
	}

	err = m.codec.WriteExclusive(specID, rec)
	if errors.Is(err, lockfile.ErrSlotExists) {
		// Lost a cross-process race, or an undecodable file occupies the slot.
		current := m.codec.Read(specID)
		switch {
		case current == nil:
			// Slot file present but invalid: counts as unlocked, overwrite it.
			if err := m.codec.Write(specID, rec); err != nil {
				return nil, evts, err
			}
		case current.MachineID == me.ID:
			return &AcquireResult{Success: true, AlreadyHeld: true, Record: current}, evts, nil
		default:
			return &AcquireResult{Success: false, Error: AlreadyLockedMessage, Existing: current}, evts, nil
		}
	} else if err != nil {
		return nil, evts, err
	}

	evts = append(evts, event.NewLockAcquiredEvent(specID, me.ID, rec.Owner))
	m.logger.WithSpec(specID).Info("lock acquired",
		"owner", rec.Owner, "timeout_hours", rec.Timeout)
	return &AcquireResult{Success: true, Record: rec}, evts, nil
}

// Release clears the lock for a spec. Without Force it only releases a lock
// this machine holds; a foreign holder is reported on the result. With Force
// the slot is always cleared and the override is audited. Releasing an
// unheld spec without force is an idempotent success.
func (m *Manager) Release(specID string, opts ReleaseOptions) (*ReleaseResult, error) {
	m.mu.Lock()
	res, evts, err := m.releaseLocked(specID, opts)
	m.mu.Unlock()

	m.publish(evts)
	return res, err
}

func (m *Manager) releaseLocked(specID string, opts ReleaseOptions) (*ReleaseResult, []event.Event, error) {
	me, err := m.identity.Identity()
	if err != nil {
		return nil, nil, errors.NewLockError("resolve machine identity", err).WithSpecID(specID)
	}

	existing := m.codec.Read(specID)

	if existing == nil {
		if !opts.Force {
			// Nothing held; releasing is a no-op.
			return &ReleaseResult{Success: true}, nil, nil
		}
		if _, err := os.Stat(m.codec.LockPath(specID)); err != nil {
			return &ReleaseResult{Success: true}, nil, nil
		}
		// An undecodable file occupies the slot; force clears it too.
		if err := m.recordForced(specID, nil, me, opts.Actor); err != nil {
			return nil, nil, err
		}
		if _, err := m.codec.Delete(specID); err != nil {
			return nil, nil, errors.NewLockError("remove lock slot", err).WithSpecID(specID)
		}
		m.logger.WithSpec(specID).Warn("force-cleared undecodable lock slot", "actor", opts.Actor)
		evts := []event.Event{event.NewLockReleasedEvent(specID, "", true)}
		return &ReleaseResult{Success: true, Forced: true}, evts, nil
	}

	if existing.MachineID == me.ID {
		if _, err := m.codec.Delete(specID); err != nil {
			return nil, nil, errors.NewLockError("remove lock slot", err).WithSpecID(specID)
		}
		m.logger.WithSpec(specID).Info("lock released")
		evts := []event.Event{event.NewLockReleasedEvent(specID, me.ID, false)}
		return &ReleaseResult{Success: true, WasHeld: true, Previous: existing}, evts, nil
	}

	if !opts.Force {
		return &ReleaseResult{Success: false, Error: ForeignLockMessage, WasHeld: true, Previous: existing}, nil, nil
	}

	// Audit before touching the slot so every override leaves a trace.
	if err := m.recordForced(specID, existing, me, opts.Actor); err != nil {
		return nil, nil, err
	}
	if _, err := m.codec.Delete(specID); err != nil {
		return nil, nil, errors.NewLockError("remove lock slot", err).WithSpecID(specID)
	}
	m.logger.WithSpec(specID).Warn("lock force-released",
		"holder", existing.MachineID, "actor", opts.Actor)
	evts := []event.Event{event.NewLockReleasedEvent(specID, existing.MachineID, true)}
	return &ReleaseResult{Success: true, Forced: true, WasHeld: true, Previous: existing}, evts, nil
}

// CleanupStale sweeps lock slots and removes records whose timeout has
// elapsed. This is the only reclamation mechanism; nothing renews a lock in
// the background. A partial result is returned alongside any error.
func (m *Manager) CleanupStale(opts CleanupOptions) (*CleanupResult, error) {
	m.mu.Lock()
	res, evts, err := m.cleanupLocked(opts)
	m.mu.Unlock()

	m.publish(evts)
	return res, err
}

func (m *Manager) cleanupLocked(opts CleanupOptions) (*CleanupResult, []event.Event, error) {
	me, err := m.identity.Identity()
	if err != nil {
		return nil, nil, errors.NewLockError("resolve machine identity", err)
	}

	matcher, err := compilePattern(opts.Pattern)
	if err != nil {
		return nil, nil, err
	}

	specs, err := m.codec.ListLockedSpecs()
	if err != nil {
		return nil, nil, errors.NewLockError("scan lock slots", err)
	}
	sort.Strings(specs)

	now := time.Now().UTC()
	res := &CleanupResult{}
	var evts []event.Event

	for _, specID := range specs {
		if matcher != nil && !matcher.Match(specID) {
			continue
		}
		rec := m.codec.Read(specID)
		if rec == nil {
			continue
		}
		res.Checked++
		if !Expired(rec, now) {
			continue
		}

		age := Age(rec, now)
		res.Stale = append(res.Stale, StaleLock{SpecID: specID, Record: rec, Age: age})
		if opts.DryRun {
			continue
		}

		if err := m.recordCleanup(specID, rec, me, opts.Actor, age); err != nil {
			return res, evts, err
		}
		if _, err := m.codec.Delete(specID); err != nil {
			return res, evts, errors.NewLockError("remove stale lock", err).WithSpecID(specID)
		}
		res.Removed++
		evts = append(evts, event.NewLockCleanedEvent(specID, rec.MachineID, age))
		m.logger.WithSpec(specID).Info("removed stale lock",
			"holder", rec.MachineID, "age", age.String())
	}

	return res, evts, nil
}

// IsLocked reports whether a valid, unexpired record holds the spec.
func (m *Manager) IsLocked(specID string) bool {
	rec := m.codec.Read(specID)
	return rec != nil && !Expired(rec, time.Now().UTC())
}

// IsLockedByMe reports whether this machine holds a live lock on the spec.
func (m *Manager) IsLockedByMe(specID string) (bool, error) {
	me, err := m.identity.Identity()
	if err != nil {
		return false, errors.NewLockError("resolve machine identity", err).WithSpecID(specID)
	}
	rec := m.codec.Read(specID)
	return rec != nil && !Expired(rec, time.Now().UTC()) && rec.MachineID == me.ID, nil
}

// Holder returns the current record for a spec whether or not it has
// expired, or nil when the slot is absent or does not decode.
func (m *Manager) Holder(specID string) *lockfile.Record {
	return m.codec.Read(specID)
}

// List returns every decodable lock sorted by spec id, with expiry noted.
// An empty pattern matches all specs.
func (m *Manager) List(pattern string) ([]HeldLock, error) {
	matcher, err := compilePattern(pattern)
	if err != nil {
		return nil, err
	}

	specs, err := m.codec.ListLockedSpecs()
	if err != nil {
		return nil, errors.NewLockError("scan lock slots", err)
	}
	sort.Strings(specs)

	now := time.Now().UTC()
	var locks []HeldLock
	for _, specID := range specs {
		if matcher != nil && !matcher.Match(specID) {
			continue
		}
		rec := m.codec.Read(specID)
		if rec == nil {
			continue
		}
		locks = append(locks, HeldLock{SpecID: specID, Record: rec, Expired: Expired(rec, now)})
	}
	return locks, nil
}

// compilePattern builds a glob matcher, or nil when the pattern is empty.
func compilePattern(pattern string) (glob.Glob, error) {
	if pattern == "" {
		return nil, nil
	}
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, errors.NewValidationError("pattern", pattern, err.Error())
	}
	return g, nil
}

// recordCleanup writes the audit entry for a stale-lock removal.
func (m *Manager) recordCleanup(specID string, stale *lockfile.Record, me *identity.Machine, actor string, age time.Duration) error {
	err := m.audit.Record(audit.Entry{
		Action:    audit.ActionStaleCleanup,
		SpecID:    specID,
		MachineID: me.ID,
		Hostname:  me.Hostname,
		Actor:     actor,
		Detail: fmt.Sprintf("expired lock held by %s (%s); age %s, timeout %.1fh",
			stale.MachineID, stale.Hostname, age, stale.Timeout),
	})
	if err != nil {
		return errors.NewLockError("record stale cleanup audit entry", err).WithSpecID(specID)
	}
	return nil
}

// recordForced writes the audit entry for a forced release.
func (m *Manager) recordForced(specID string, prev *lockfile.Record, me *identity.Machine, actor string) error {
	detail := "cleared undecodable lock slot"
	if prev != nil {
		detail = fmt.Sprintf("released lock held by %s (%s), owner %q",
			prev.MachineID, prev.Hostname, prev.Owner)
	}
	err := m.audit.Record(audit.Entry{
		Action:    audit.ActionForcedRelease,
		SpecID:    specID,
		MachineID: me.ID,
		Hostname:  me.Hostname,
		Actor:     actor,
		Detail:    detail,
	})
	if err != nil {
		return errors.NewLockError("record forced release audit entry", err).WithSpecID(specID)
	}
	return nil
}

// publish sends events to the bus when one is configured. Called outside the
// manager mutex so handlers may call back into the Manager.
func (m *Manager) publish(evts []event.Event) {
	if m.bus == nil {
		return
	}
	for _, e := range evts {
		m.bus.Publish(e)
	}
}
