package event

import "time"

// Event is the interface that all events must implement.
// It provides a common way to identify and timestamp events.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "lock.acquired", "scene.completed")
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

// newBaseEvent creates a baseEvent with the current time.
func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Lock Events
// -----------------------------------------------------------------------------

// LockAcquiredEvent is emitted when a spec lock is successfully acquired.
// Re-entrant acquisitions (same machine already holding) do not emit.
type LockAcquiredEvent struct {
	baseEvent
	SpecID    string // Spec whose lock slot was claimed
	MachineID string // Machine that now holds the lock
	Owner     string // Human-readable owner label
}

// NewLockAcquiredEvent creates a LockAcquiredEvent.
func NewLockAcquiredEvent(specID, machineID, owner string) LockAcquiredEvent {
	return LockAcquiredEvent{
		baseEvent: newBaseEvent("lock.acquired"),
		SpecID:    specID,
		MachineID: machineID,
		Owner:     owner,
	}
}

// LockReleasedEvent is emitted when a spec lock is released.
type LockReleasedEvent struct {
	baseEvent
	SpecID    string // Spec whose lock slot was cleared
	MachineID string // Machine that held the lock (empty if slot was corrupt)
	Forced    bool   // Whether the release overrode a foreign holder
}

// NewLockReleasedEvent creates a LockReleasedEvent.
func NewLockReleasedEvent(specID, machineID string, forced bool) LockReleasedEvent {
	return LockReleasedEvent{
		baseEvent: newBaseEvent("lock.released"),
		SpecID:    specID,
		MachineID: machineID,
		Forced:    forced,
	}
}

// LockCleanedEvent is emitted for each stale lock removed by a cleanup sweep.
type LockCleanedEvent struct {
	baseEvent
	SpecID    string        // Spec whose stale lock was removed
	MachineID string        // Machine that held the expired lock
	Age       time.Duration // How long past creation the record had lived
}

// NewLockCleanedEvent creates a LockCleanedEvent.
func NewLockCleanedEvent(specID, machineID string, age time.Duration) LockCleanedEvent {
	return LockCleanedEvent{
		baseEvent: newBaseEvent("lock.cleaned"),
		SpecID:    specID,
		MachineID: machineID,
		Age:       age,
	}
}

// -----------------------------------------------------------------------------
// Session Events
// -----------------------------------------------------------------------------

// SessionStartedEvent is emitted when a new session record is created.
type SessionStartedEvent struct {
	baseEvent
	SessionID string // Unique identifier of the new session
	Tool      string // Tool that opened the session
}

// NewSessionStartedEvent creates a SessionStartedEvent.
func NewSessionStartedEvent(sessionID, tool string) SessionStartedEvent {
	return SessionStartedEvent{
		baseEvent: newBaseEvent("session.started"),
		SessionID: sessionID,
		Tool:      tool,
	}
}

// SessionResumedEvent is emitted when an existing session is resumed.
type SessionResumedEvent struct {
	baseEvent
	SessionID string // Session that was resumed
	Status    string // Status after the resume patch was applied
}

// NewSessionResumedEvent creates a SessionResumedEvent.
func NewSessionResumedEvent(sessionID, status string) SessionResumedEvent {
	return SessionResumedEvent{
		baseEvent: newBaseEvent("session.resumed"),
		SessionID: sessionID,
		Status:    status,
	}
}

// SnapshotRecordedEvent is emitted when a snapshot is appended to a session.
type SnapshotRecordedEvent struct {
	baseEvent
	SessionID string // Session the snapshot was recorded on
	Summary   string // Snapshot summary text
}

// NewSnapshotRecordedEvent creates a SnapshotRecordedEvent.
func NewSnapshotRecordedEvent(sessionID, summary string) SnapshotRecordedEvent {
	return SnapshotRecordedEvent{
		baseEvent: newBaseEvent("session.snapshot"),
		SessionID: sessionID,
		Summary:   summary,
	}
}

// -----------------------------------------------------------------------------
// Scene Events
// -----------------------------------------------------------------------------

// SceneBegunEvent is emitted when BeginScene runs for a scene.
// CreatedNew distinguishes a fresh cycle from an idempotent re-entry.
type SceneBegunEvent struct {
	baseEvent
	SceneID    string // Scene identifier
	SessionID  string // Primary session for the current cycle
	Cycle      int    // Cycle number of the primary session
	CreatedNew bool   // Whether a new primary was created by this call
}

// NewSceneBegunEvent creates a SceneBegunEvent.
func NewSceneBegunEvent(sceneID, sessionID string, cycle int, createdNew bool) SceneBegunEvent {
	return SceneBegunEvent{
		baseEvent:  newBaseEvent("scene.begun"),
		SceneID:    sceneID,
		SessionID:  sessionID,
		Cycle:      cycle,
		CreatedNew: createdNew,
	}
}

// SceneCompletedEvent is emitted when a scene cycle completes and the
// follow-on cycle's primary has been created.
type SceneCompletedEvent struct {
	baseEvent
	SceneID       string // Scene identifier
	CompletedID   string // Session that was marked completed
	NextSessionID string // Primary session created for the next cycle
	NextCycle     int    // Cycle number of the new primary
}

// NewSceneCompletedEvent creates a SceneCompletedEvent.
func NewSceneCompletedEvent(sceneID, completedID, nextSessionID string, nextCycle int) SceneCompletedEvent {
	return SceneCompletedEvent{
		baseEvent:     newBaseEvent("scene.completed"),
		SceneID:       sceneID,
		CompletedID:   completedID,
		NextSessionID: nextSessionID,
		NextCycle:     nextCycle,
	}
}

// ChildBoundEvent is emitted when a spec session is bound under a scene's
// primary session (insert or update).
type ChildBoundEvent struct {
	baseEvent
	SceneSessionID string // Primary session the child was bound to
	SpecID         string // Spec the child session works on
	ChildSessionID string // The bound spec session
	Status         string // Recorded status of the child
}

// NewChildBoundEvent creates a ChildBoundEvent.
func NewChildBoundEvent(sceneSessionID, specID, childSessionID, status string) ChildBoundEvent {
	return ChildBoundEvent{
		baseEvent:      newBaseEvent("child.bound"),
		SceneSessionID: sceneSessionID,
		SpecID:         specID,
		ChildSessionID: childSessionID,
		Status:         status,
	}
}
