// Package orchestration models the outcome of a scene's fan-out run and
// maps it onto per-spec statuses.
package orchestration

import (
	"fmt"
	"sort"

	"github.com/stagehand-sh/stagehand/internal/errors"
	"github.com/stagehand-sh/stagehand/internal/logging"
	"github.com/stagehand-sh/stagehand/internal/session"
)

// Status is the overall outcome of an orchestration run.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusPartial   Status = "partial"
	StatusRunning   Status = "running"
)

// ValidStatuses returns the accepted overall statuses.
func ValidStatuses() []Status {
	return []Status{StatusCompleted, StatusFailed, StatusPartial, StatusRunning}
}

// Result is the outcome of one orchestration run over a scene's specs.
type Result struct {
	Status    Status   `json:"status"`
	Completed []string `json:"completed,omitempty"`
	Failed    []string `json:"failed,omitempty"`
}

// Validate checks the overall status.
func (r Result) Validate() error {
	switch r.Status {
	case StatusCompleted, StatusFailed, StatusPartial, StatusRunning:
		return nil
	}
	return errors.NewValidationError("status", string(r.Status),
		"must be one of: completed, failed, partial, running")
}

// Specs returns every spec the result names, deduplicated and sorted.
func (r Result) Specs() []string {
	seen := make(map[string]bool)
	var specs []string
	for _, id := range r.Completed {
		if id != "" && !seen[id] {
			seen[id] = true
			specs = append(specs, id)
		}
	}
	for _, id := range r.Failed {
		if id != "" && !seen[id] {
			seen[id] = true
			specs = append(specs, id)
		}
	}
	sort.Strings(specs)
	return specs
}

// ToSpecStatus derives one spec's status from the run result. An explicit
// failure wins over everything; an explicit completion wins over the overall
// status; a spec the result does not name inherits "completed" only when the
// whole run completed, and mirrors the overall status otherwise.
func ToSpecStatus(specID string, r Result) string {
	for _, id := range r.Failed {
		if id == specID {
			return string(StatusFailed)
		}
	}
	for _, id := range r.Completed {
		if id == specID {
			return string(StatusCompleted)
		}
	}
	if r.Status == StatusCompleted {
		return string(StatusCompleted)
	}
	return string(r.Status)
}

// SessionBinder is the slice of the session store the recorder needs.
type SessionBinder interface {
	Get(id string) (*session.Record, error)
	BindChild(sceneSessionID string, b session.ChildBinding) (*session.Record, error)
}

// Report summarizes one Apply.
type Report struct {
	SceneSessionID string                 `json:"scene_session_id"`
	Applied        []session.ChildBinding `json:"applied,omitempty"`
	// Unbound lists specs the result named that have no child session on
	// the record. They cannot be bound without a session id.
	Unbound []string `json:"unbound,omitempty"`
}

// Recorder writes orchestration results onto scene primaries.
type Recorder struct {
	sessions SessionBinder
	logger   *logging.Logger
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithLogger attaches a logger.
func WithLogger(logger *logging.Logger) Option {
	return func(r *Recorder) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRecorder creates a Recorder over the session store.
func NewRecorder(sessions SessionBinder, opts ...Option) *Recorder {
	r := &Recorder{
		sessions: sessions,
		logger:   logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Apply upserts every spec the result names onto the scene primary,
// deriving each child status through ToSpecStatus. Specs without an
// existing child binding are reported rather than guessed at.
func (r *Recorder) Apply(sceneSessionID string, res Result) (*Report, error) {
	if err := res.Validate(); err != nil {
		return nil, err
	}

	rec, err := r.sessions.Get(sceneSessionID)
	if err != nil {
		return nil, err
	}
	if rec.Scene == nil || rec.Scene.Role != session.RolePrimary {
		return nil, fmt.Errorf("%w: %s", session.ErrNotScenePrimary, sceneSessionID)
	}

	report := &Report{SceneSessionID: sceneSessionID}
	for _, specID := range res.Specs() {
		existing := rec.ChildFor(specID)
		if existing == nil {
			report.Unbound = append(report.Unbound, specID)
			continue
		}

		b := session.ChildBinding{
			SpecID:    specID,
			SessionID: existing.SessionID,
			Status:    ToSpecStatus(specID, res),
		}
		if _, err := r.sessions.BindChild(sceneSessionID, b); err != nil {
			return report, err
		}
		report.Applied = append(report.Applied, b)
	}

	r.logger.WithSession(sceneSessionID).Info("orchestration result recorded",
		"status", string(res.Status), "applied", len(report.Applied), "unbound", len(report.Unbound))
	return report, nil
}
