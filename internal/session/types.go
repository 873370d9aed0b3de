package session

import (
	"errors"
	"time"

	"github.com/stagehand-sh/stagehand/internal/steering"
)

// Layout constants for the session tree under the data directory.
const (
	// SessionsDirName is the directory holding one subdirectory per session.
	SessionsDirName = "sessions"
	// SessionFileName is the record file inside each session directory.
	SessionFileName = "session.json"
)

// LatestAlias resolves to the most recently written session on Resume.
const LatestAlias = "latest"

// DefaultTool is recorded when the caller does not name one.
const DefaultTool = "stagehand"

// Status is the lifecycle state of a session.
type Status string

const (
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

// ValidStatuses returns the statuses a session may be set to.
func ValidStatuses() []Status {
	return []Status{StatusActive, StatusPaused, StatusCompleted}
}

func validStatus(s Status) bool {
	switch s {
	case StatusActive, StatusPaused, StatusCompleted:
		return true
	}
	return false
}

// Scene roles and states carried on a session record.
const (
	RolePrimary = "primary"
	RoleChild   = "child"

	SceneActive    = "active"
	SceneCompleted = "completed"
)

// Timeline event names.
const (
	EventSessionStarted   = "session_started"
	EventSessionResumed   = "session_resumed"
	EventSnapshotRecorded = "snapshot_recorded"
	EventSceneCompleted   = "scene_completed"
	EventChildBound       = "child_bound"
)

// Sentinel errors for session operations.
var (
	// ErrDuplicateSession indicates a Start collided with an existing record.
	ErrDuplicateSession = errors.New("session already exists")
	// ErrSessionNotFound indicates no record exists for the id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionCorrupted indicates a record exists but cannot be decoded.
	ErrSessionCorrupted = errors.New("session record corrupted")
	// ErrSceneNotFound indicates no active primary session exists for the scene.
	ErrSceneNotFound = errors.New("no active session for scene")
	// ErrNotScenePrimary indicates the session is not the scene's primary.
	ErrNotScenePrimary = errors.New("session is not the scene primary")
)

// TimelineEntry is one append-only lifecycle event on a record.
type TimelineEntry struct {
	Event     string    `json:"event"`
	Timestamp time.Time `json:"timestamp"`
	Detail    string    `json:"detail,omitempty"`
}

// Snapshot is a point-in-time progress report.
type Snapshot struct {
	Summary   string         `json:"summary"`
	Status    string         `json:"status,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// SceneRef ties a session to a scene cycle.
type SceneRef struct {
	ID    string `json:"id"`
	Role  string `json:"role"`
	State string `json:"state"`
	Cycle int    `json:"cycle"`
}

// ChildBinding records a spec session spawned under a scene primary.
type ChildBinding struct {
	SpecID    string `json:"spec_id"`
	SessionID string `json:"session_id"`
	Status    string `json:"status,omitempty"`
}

// Children groups the bindings hanging off a primary record.
type Children struct {
	SpecSessions []ChildBinding `json:"spec_sessions"`
}

// Record is the whole-session document persisted as session.json. Every
// mutation rewrites the full record.
type Record struct {
	SessionID    string             `json:"session_id"`
	Tool         string             `json:"tool"`
	AgentVersion string             `json:"agent_version,omitempty"`
	Objective    string             `json:"objective,omitempty"`
	Status       Status             `json:"status"`
	Timeline     []TimelineEntry    `json:"timeline"`
	Snapshots    []Snapshot         `json:"snapshots,omitempty"`
	Steering     *steering.Contract `json:"steering,omitempty"`
	Scene        *SceneRef          `json:"scene,omitempty"`
	Children     *Children          `json:"children,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

// ChildFor returns the binding for the given spec id, or nil.
func (r *Record) ChildFor(specID string) *ChildBinding {
	if r.Children == nil {
		return nil
	}
	for i := range r.Children.SpecSessions {
		if r.Children.SpecSessions[i].SpecID == specID {
			return &r.Children.SpecSessions[i]
		}
	}
	return nil
}

// isActivePrimary reports whether the record is the live primary of a scene.
func (r *Record) isActivePrimary() bool {
	return r.Scene != nil && r.Scene.Role == RolePrimary && r.Scene.State == SceneActive
}

// Info is a listing row. Corrupted entries are surfaced, never hidden: a
// record that fails to decode still appears with Corrupted set so operators
// notice the damage.
type Info struct {
	SessionID  string
	Status     Status
	Objective  string
	Scene      *SceneRef
	ChildCount int
	UpdatedAt  time.Time
	Corrupted  bool
	Path       string
}
