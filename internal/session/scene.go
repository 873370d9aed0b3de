package session

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/stagehand-sh/stagehand/internal/errors"
	"github.com/stagehand-sh/stagehand/internal/event"
)

// BeginSceneOptions configures BeginScene.
type BeginSceneOptions struct {
	// SceneID names the scene. Required.
	SceneID      string
	Objective    string
	Tool         string
	AgentVersion string
}

// BeginSceneResult reports the scene's primary session.
type BeginSceneResult struct {
	Session *Record
	// CreatedNew is false when an active primary already existed and was
	// returned as-is.
	CreatedNew bool
}

// BeginScene ensures the scene has an active primary session. When one
// already exists it is returned unchanged, so repeated begins are safe; when
// none exists a new primary is created on the next cycle number.
func (s *Store) BeginScene(opts BeginSceneOptions) (*BeginSceneResult, error) {
	s.mu.Lock()
	res, evt, err := s.beginSceneLocked(opts)
	s.mu.Unlock()
	if evt != nil {
		s.publish(evt)
	}
	return res, err
}

func (s *Store) beginSceneLocked(opts BeginSceneOptions) (*BeginSceneResult, event.Event, error) {
	if strings.TrimSpace(opts.SceneID) == "" {
		return nil, nil, errors.NewValidationError("scene_id", opts.SceneID, "cannot be empty")
	}

	records, err := s.loadAll()
	if err != nil {
		return nil, nil, err
	}

	if existing := activePrimaryOf(records, opts.SceneID); existing != nil {
		s.logger.WithScene(opts.SceneID).Info("scene already active",
			"session_id", existing.SessionID, "cycle", existing.Scene.Cycle)
		evt := event.NewSceneBegunEvent(opts.SceneID, existing.SessionID, existing.Scene.Cycle, false)
		return &BeginSceneResult{Session: existing}, evt, nil
	}

	cycle := maxCycleOf(records, opts.SceneID) + 1
	rec, err := s.createPrimary(opts.SceneID, cycle, opts.Tool, opts.AgentVersion, opts.Objective)
	if err != nil {
		return nil, nil, err
	}

	s.logger.WithScene(opts.SceneID).Info("scene begun",
		"session_id", rec.SessionID, "cycle", cycle)
	evt := event.NewSceneBegunEvent(opts.SceneID, rec.SessionID, cycle, true)
	return &BeginSceneResult{Session: rec, CreatedNew: true}, evt, nil
}

// CompleteSceneOptions configures CompleteScene.
type CompleteSceneOptions struct {
	// SessionID, when set, must name the scene's active primary.
	SessionID string
	// Summary becomes the closing snapshot. A default is generated when
	// empty.
	Summary string
}

// CompleteSceneResult reports the closed cycle and its successor.
type CompleteSceneResult struct {
	Completed *Record
	Next      *Record
}

// CompleteScene closes the scene's active primary and immediately opens the
// next cycle, so a scene always has exactly one active primary between
// begins. The completed record keeps a closing snapshot of the cycle.
func (s *Store) CompleteScene(sceneID string, opts CompleteSceneOptions) (*CompleteSceneResult, error) {
	s.mu.Lock()
	res, evt, err := s.completeSceneLocked(sceneID, opts)
	s.mu.Unlock()
	if evt != nil {
		s.publish(evt)
	}
	return res, err
}

func (s *Store) completeSceneLocked(sceneID string, opts CompleteSceneOptions) (*CompleteSceneResult, event.Event, error) {
	if strings.TrimSpace(sceneID) == "" {
		return nil, nil, errors.NewValidationError("scene_id", sceneID, "cannot be empty")
	}

	records, err := s.loadAll()
	if err != nil {
		return nil, nil, err
	}

	primary := activePrimaryOf(records, sceneID)
	if primary == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrSceneNotFound, sceneID)
	}
	if opts.SessionID != "" && opts.SessionID != primary.SessionID {
		return nil, nil, fmt.Errorf("%w: scene %s primary is %s, not %s",
			ErrNotScenePrimary, sceneID, primary.SessionID, opts.SessionID)
	}

	summary := opts.Summary
	if strings.TrimSpace(summary) == "" {
		summary = fmt.Sprintf("scene %s cycle %d completed", sceneID, primary.Scene.Cycle)
	}

	now := s.now()
	primary.Status = StatusCompleted
	primary.Scene.State = SceneCompleted
	primary.Snapshots = append(primary.Snapshots, Snapshot{
		Summary:   summary,
		Status:    string(StatusCompleted),
		Timestamp: now,
	})
	primary.Timeline = append(primary.Timeline, TimelineEntry{
		Event:     EventSceneCompleted,
		Timestamp: now,
		Detail:    summary,
	})
	if err := s.save(primary); err != nil {
		return nil, nil, err
	}

	next, err := s.createPrimary(sceneID, primary.Scene.Cycle+1,
		primary.Tool, primary.AgentVersion, primary.Objective)
	if err != nil {
		return nil, nil, err
	}

	s.logger.WithScene(sceneID).Info("scene completed",
		"completed", primary.SessionID, "next", next.SessionID, "next_cycle", next.Scene.Cycle)
	evt := event.NewSceneCompletedEvent(sceneID, primary.SessionID, next.SessionID, next.Scene.Cycle)
	return &CompleteSceneResult{Completed: primary, Next: next}, evt, nil
}

// BindChild records a spec session under the scene primary, replacing any
// earlier binding for the same spec. Binding is allowed on a completed
// primary so results can land after the cycle closes.
func (s *Store) BindChild(sceneSessionID string, b ChildBinding) (*Record, error) {
	s.mu.Lock()
	rec, evt, err := s.bindChildLocked(sceneSessionID, b)
	s.mu.Unlock()
	if evt != nil {
		s.publish(evt)
	}
	return rec, err
}

func (s *Store) bindChildLocked(sceneSessionID string, b ChildBinding) (*Record, event.Event, error) {
	if strings.TrimSpace(b.SpecID) == "" {
		return nil, nil, errors.NewValidationError("spec_id", b.SpecID, "cannot be empty")
	}
	if strings.TrimSpace(b.SessionID) == "" {
		return nil, nil, errors.NewValidationError("session_id", b.SessionID, "cannot be empty")
	}

	rec, err := s.load(sceneSessionID)
	if err != nil {
		return nil, nil, err
	}
	if rec.Scene == nil || rec.Scene.Role != RolePrimary {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotScenePrimary, sceneSessionID)
	}

	if rec.Children == nil {
		rec.Children = &Children{}
	}
	replaced := false
	for i := range rec.Children.SpecSessions {
		if rec.Children.SpecSessions[i].SpecID == b.SpecID {
			rec.Children.SpecSessions[i] = b
			replaced = true
			break
		}
	}
	if !replaced {
		rec.Children.SpecSessions = append(rec.Children.SpecSessions, b)
	}

	detail := fmt.Sprintf("%s -> %s", b.SpecID, b.SessionID)
	if b.Status != "" {
		detail = fmt.Sprintf("%s (%s)", detail, b.Status)
	}
	rec.Timeline = append(rec.Timeline, TimelineEntry{
		Event:     EventChildBound,
		Timestamp: s.now(),
		Detail:    detail,
	})
	if err := s.save(rec); err != nil {
		return nil, nil, err
	}

	s.logger.WithScene(rec.Scene.ID).Info("child bound",
		"spec_id", b.SpecID, "child_session", b.SessionID, "status", b.Status)
	return rec, event.NewChildBoundEvent(sceneSessionID, b.SpecID, b.SessionID, b.Status), nil
}

// ActivePrimary returns the scene's active primary session, or nil when the
// scene has none.
func (s *Store) ActivePrimary(sceneID string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.loadAll()
	if err != nil {
		return nil, err
	}
	return activePrimaryOf(records, sceneID), nil
}

// ActiveScenes returns the active primary of every scene, ordered by scene
// id.
func (s *Store) ActiveScenes() ([]*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.loadAll()
	if err != nil {
		return nil, err
	}

	var primaries []*Record
	for _, rec := range records {
		if rec.isActivePrimary() {
			primaries = append(primaries, rec)
		}
	}
	sort.Slice(primaries, func(i, j int) bool {
		return primaries[i].Scene.ID < primaries[j].Scene.ID
	})
	return primaries, nil
}

// createPrimary starts a fresh primary session for a scene cycle.
func (s *Store) createPrimary(sceneID string, cycle int, tool, agentVersion, objective string) (*Record, error) {
	if tool == "" {
		tool = DefaultTool
	}
	rec := s.newRecord(s.newID(), tool, agentVersion, objective)
	rec.Scene = &SceneRef{
		ID:    sceneID,
		Role:  RolePrimary,
		State: SceneActive,
		Cycle: cycle,
	}
	if err := s.create(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// validateChildSceneRef checks a scene reference supplied to Start. Only the
// child role is accepted there.
func validateChildSceneRef(ref *SceneRef) error {
	if strings.TrimSpace(ref.ID) == "" {
		return errors.NewValidationError("scene.id", ref.ID, "cannot be empty")
	}
	if ref.Role != RoleChild {
		return errors.NewValidationError("scene.role", ref.Role, "only child sessions may start with a scene reference")
	}
	if ref.State != SceneActive && ref.State != SceneCompleted {
		return errors.NewValidationError("scene.state", ref.State, "must be active or completed")
	}
	if ref.Cycle < 1 {
		return errors.NewValidationError("scene.cycle", fmt.Sprintf("%d", ref.Cycle), "must be at least 1")
	}
	return nil
}

// loadAll reads every session record. Scene operations need a consistent
// view of the whole tree, so any corrupt record aborts the scan rather than
// being skipped.
func (s *Store) loadAll() ([]*Record, error) {
	entries, err := os.ReadDir(s.SessionsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.NewSessionError("reading sessions directory", err)
	}

	var records []*Record
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		rec, err := s.load(entry.Name())
		if err != nil {
			if errors.Is(err, ErrSessionNotFound) {
				continue
			}
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func activePrimaryOf(records []*Record, sceneID string) *Record {
	for _, rec := range records {
		if rec.isActivePrimary() && rec.Scene.ID == sceneID {
			return rec
		}
	}
	return nil
}

func maxCycleOf(records []*Record, sceneID string) int {
	max := 0
	for _, rec := range records {
		if rec.Scene != nil && rec.Scene.ID == sceneID && rec.Scene.Cycle > max {
			max = rec.Scene.Cycle
		}
	}
	return max
}
