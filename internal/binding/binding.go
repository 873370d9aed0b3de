// Package binding decides which scene a piece of spec work attaches to.
//
// Resolution tries strategies in a fixed order and stops at the first that
// produces a binding:
//
//  1. explicit: the caller named a scene
//  2. studio-latest: the studio's latest job reference names a scene with
//     an active primary
//  3. single-active: exactly one scene is active in the workspace
//
// Ambiguity is never guessed away: with no usable reference and multiple
// active scenes, resolution fails and the caller must name one.
package binding

import (
	"fmt"
	"strings"

	"github.com/stagehand-sh/stagehand/internal/errors"
	"github.com/stagehand-sh/stagehand/internal/jobref"
	"github.com/stagehand-sh/stagehand/internal/logging"
	"github.com/stagehand-sh/stagehand/internal/session"
)

// Source identifies which strategy produced a binding.
type Source string

const (
	SourceExplicit     Source = "explicit"
	SourceStudioLatest Source = "studio-latest"
	SourceSingleActive Source = "single-active"
)

// Sentinel errors for resolution failures.
var (
	// ErrAmbiguousScene indicates several scenes are active and none was
	// named.
	ErrAmbiguousScene = errors.New("Multiple active scene sessions detected")
	// ErrNoActiveScene indicates nothing is active to bind to.
	ErrNoActiveScene = errors.New("no active scene session")
)

// Request carries the caller's binding inputs.
type Request struct {
	// SceneID, when set, selects the scene explicitly.
	SceneID string
	// SpecID identifies the spec being bound. Informational only.
	SpecID string
}

// Binding is a resolved scene attachment.
type Binding struct {
	SceneID        string `json:"scene_id"`
	SceneSessionID string `json:"scene_session_id"`
	Source         Source `json:"source"`
}

// SessionSource is the slice of the session store resolution needs.
type SessionSource interface {
	ActivePrimary(sceneID string) (*session.Record, error)
	ActiveScenes() ([]*session.Record, error)
}

// JobSource provides the studio's latest job reference.
type JobSource interface {
	Latest() (*jobref.Job, error)
}

// Resolver resolves scene bindings.
type Resolver struct {
	sessions SessionSource
	jobs     JobSource
	logger   *logging.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger attaches a logger.
func WithLogger(logger *logging.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver creates a Resolver. jobs may be nil when no studio is in
// play.
func NewResolver(sessions SessionSource, jobs JobSource, opts ...Option) *Resolver {
	r := &Resolver{
		sessions: sessions,
		jobs:     jobs,
		logger:   logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve maps a request to the scene session it should attach to.
func (r *Resolver) Resolve(req Request) (*Binding, error) {
	if req.SceneID != "" {
		return r.resolveExplicit(req)
	}
	if b, ok, err := r.resolveStudioLatest(req); err != nil {
		return nil, err
	} else if ok {
		return b, nil
	}
	return r.resolveSingleActive(req)
}

func (r *Resolver) resolveExplicit(req Request) (*Binding, error) {
	primary, err := r.sessions.ActivePrimary(req.SceneID)
	if err != nil {
		return nil, err
	}
	if primary == nil {
		return nil, fmt.Errorf("%w: %s", session.ErrSceneNotFound, req.SceneID)
	}
	r.logger.WithScene(req.SceneID).Debug("binding resolved",
		"source", string(SourceExplicit), "spec_id", req.SpecID)
	return &Binding{
		SceneID:        req.SceneID,
		SceneSessionID: primary.SessionID,
		Source:         SourceExplicit,
	}, nil
}

// resolveStudioLatest consults the studio's latest job reference. A missing
// or stale reference reports ok=false so the next strategy runs; only real
// workspace errors propagate.
func (r *Resolver) resolveStudioLatest(req Request) (*Binding, bool, error) {
	if r.jobs == nil {
		return nil, false, nil
	}
	job, err := r.jobs.Latest()
	if err != nil || job == nil {
		return nil, false, nil
	}

	primary, err := r.sessions.ActivePrimary(job.SceneID)
	if err != nil {
		return nil, false, err
	}
	if primary == nil {
		r.logger.WithScene(job.SceneID).Debug("studio reference is stale", "job_id", job.JobID)
		return nil, false, nil
	}

	r.logger.WithScene(job.SceneID).Debug("binding resolved",
		"source", string(SourceStudioLatest), "job_id", job.JobID, "spec_id", req.SpecID)
	return &Binding{
		SceneID:        job.SceneID,
		SceneSessionID: primary.SessionID,
		Source:         SourceStudioLatest,
	}, true, nil
}

func (r *Resolver) resolveSingleActive(req Request) (*Binding, error) {
	scenes, err := r.sessions.ActiveScenes()
	if err != nil {
		return nil, err
	}

	switch len(scenes) {
	case 0:
		return nil, ErrNoActiveScene
	case 1:
		primary := scenes[0]
		r.logger.WithScene(primary.Scene.ID).Debug("binding resolved",
			"source", string(SourceSingleActive), "spec_id", req.SpecID)
		return &Binding{
			SceneID:        primary.Scene.ID,
			SceneSessionID: primary.SessionID,
			Source:         SourceSingleActive,
		}, nil
	default:
		ids := make([]string, len(scenes))
		for i, rec := range scenes {
			ids[i] = rec.Scene.ID
		}
		return nil, fmt.Errorf("%w: %s", ErrAmbiguousScene, strings.Join(ids, ", "))
	}
}
