// Package session persists agent session records under the workspace data
// directory.
//
// Each session owns a directory at sessions/<session-id>/ holding a single
// session.json document. Mutations load the document, apply the change, and
// atomically rewrite the whole file; there is no partial update path. Scene
// cycles layer on top of plain sessions: a scene's primary session carries a
// SceneRef and collects child spec-session bindings as work fans out.
//
// Corruption is loud. A record that fails to decode surfaces as
// ErrSessionCorrupted (or a Corrupted listing row) rather than being
// silently skipped, so a damaged workspace is noticed instead of slowly
// forgotten.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stagehand-sh/stagehand/internal/backup"
	"github.com/stagehand-sh/stagehand/internal/errors"
	"github.com/stagehand-sh/stagehand/internal/event"
	"github.com/stagehand-sh/stagehand/internal/logging"
	"github.com/stagehand-sh/stagehand/internal/steering"
)

// Store manages session records under baseDir/sessions.
type Store struct {
	mu       sync.Mutex
	baseDir  string
	steering steering.Source
	bus      *event.Bus
	logger   *logging.Logger

	// backupOnRewrite snapshots session.json into a sibling backups/
	// directory before each rewrite.
	backupOnRewrite bool

	now   func() time.Time
	newID func() string
}

// Option configures a Store.
type Option func(*Store)

// WithSteering overrides the steering contract source.
func WithSteering(src steering.Source) Option {
	return func(s *Store) { s.steering = src }
}

// WithBus attaches an event bus for lifecycle notifications.
func WithBus(bus *event.Bus) Option {
	return func(s *Store) { s.bus = bus }
}

// WithLogger attaches a logger.
func WithLogger(logger *logging.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithBackupOnRewrite enables pre-rewrite backups of session records.
func WithBackupOnRewrite(enabled bool) Option {
	return func(s *Store) { s.backupOnRewrite = enabled }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides the session id generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// NewStore creates a Store rooted at the given data directory. The steering
// source defaults to the conventional manifest at the directory root.
func NewStore(baseDir string, opts ...Option) *Store {
	s := &Store{
		baseDir:  baseDir,
		steering: steering.NewFileSource(filepath.Join(baseDir, steering.DefaultManifestName)),
		logger:   logging.NopLogger(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SessionsDir returns the directory holding all session directories.
func (s *Store) SessionsDir() string {
	return filepath.Join(s.baseDir, SessionsDirName)
}

// SessionDir returns the directory for one session.
func (s *Store) SessionDir(id string) string {
	return filepath.Join(s.SessionsDir(), id)
}

// SessionPath returns the record file for one session.
func (s *Store) SessionPath(id string) string {
	return filepath.Join(s.SessionDir(id), SessionFileName)
}

// StartOptions configures Start.
type StartOptions struct {
	// SessionID names the new session. Generated when empty.
	SessionID string
	// Tool identifies the agent tool. Defaults to DefaultTool.
	Tool         string
	AgentVersion string
	Objective    string
	// Scene attaches a child scene reference to the new session. Only
	// child roles are accepted here; primary sessions are created through
	// BeginScene and CompleteScene, which enforce the one-active-primary
	// invariant.
	Scene *SceneRef
}

// Start creates a new session record. The record embeds a snapshot of the
// current steering contract so later runs can tell what guidance the session
// started under. Starting an id that already exists fails with
// ErrDuplicateSession.
func (s *Store) Start(opts StartOptions) (*Record, error) {
	s.mu.Lock()
	rec, evt, err := s.startLocked(opts)
	s.mu.Unlock()
	if evt != nil {
		s.publish(evt)
	}
	return rec, err
}

func (s *Store) startLocked(opts StartOptions) (*Record, event.Event, error) {
	id := opts.SessionID
	if id == "" {
		id = s.newID()
	}
	if err := validateSessionID(id); err != nil {
		return nil, nil, err
	}

	tool := opts.Tool
	if tool == "" {
		tool = DefaultTool
	}

	rec := s.newRecord(id, tool, opts.AgentVersion, opts.Objective)
	if opts.Scene != nil {
		if err := validateChildSceneRef(opts.Scene); err != nil {
			return nil, nil, err
		}
		ref := *opts.Scene
		rec.Scene = &ref
	}
	if err := s.create(rec); err != nil {
		return nil, nil, err
	}

	s.logger.WithSession(id).Info("session started", "tool", tool)
	return rec, event.NewSessionStartedEvent(id, tool), nil
}

// newRecord assembles a fresh active record with the steering snapshot and
// the opening timeline entry.
func (s *Store) newRecord(id, tool, agentVersion, objective string) *Record {
	now := s.now()
	rec := &Record{
		SessionID:    id,
		Tool:         tool,
		AgentVersion: agentVersion,
		Objective:    objective,
		Status:       StatusActive,
		Timeline: []TimelineEntry{
			{Event: EventSessionStarted, Timestamp: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	contract, err := s.steering.Contract()
	if err != nil {
		s.logger.WithSession(id).Warn("steering contract unavailable", "error", err)
	} else if contract != nil && (contract.ManifestPath != "" || len(contract.Compatibility.Supported) > 0) {
		rec.Steering = contract
	}
	return rec
}

// ResumeOptions configures Resume.
type ResumeOptions struct {
	// Status the session resumes into. Defaults to active.
	Status Status
	// Note is recorded on the timeline entry.
	Note string
}

// Resume reopens an existing session, or the most recently written one when
// id is LatestAlias.
func (s *Store) Resume(id string, opts ResumeOptions) (*Record, error) {
	s.mu.Lock()
	rec, evt, err := s.resumeLocked(id, opts)
	s.mu.Unlock()
	if evt != nil {
		s.publish(evt)
	}
	return rec, err
}

func (s *Store) resumeLocked(id string, opts ResumeOptions) (*Record, event.Event, error) {
	if id == LatestAlias {
		resolved, err := s.latestSessionID()
		if err != nil {
			return nil, nil, err
		}
		id = resolved
	}

	status := opts.Status
	if status == "" {
		status = StatusActive
	}
	if !validStatus(status) {
		return nil, nil, errors.NewValidationError("status", string(status), "must be one of: active, paused, completed")
	}

	rec, err := s.load(id)
	if err != nil {
		return nil, nil, err
	}

	rec.Status = status
	rec.Timeline = append(rec.Timeline, TimelineEntry{
		Event:     EventSessionResumed,
		Timestamp: s.now(),
		Detail:    opts.Note,
	})
	if err := s.save(rec); err != nil {
		return nil, nil, err
	}

	s.logger.WithSession(id).Info("session resumed", "status", string(status))
	return rec, event.NewSessionResumedEvent(id, string(status)), nil
}

// latestSessionID picks the session whose record file was written most
// recently. File mtime is the tiebreaker of record against reality: a
// record's own timestamps cannot be trusted if it is corrupt, but the file
// write time always exists.
func (s *Store) latestSessionID() (string, error) {
	entries, err := os.ReadDir(s.SessionsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: no sessions recorded", ErrSessionNotFound)
		}
		return "", errors.NewSessionError("reading sessions directory", err)
	}

	var latest string
	var latestMod time.Time
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := os.Stat(s.SessionPath(entry.Name()))
		if err != nil {
			continue
		}
		if latest == "" || info.ModTime().After(latestMod) {
			latest = entry.Name()
			latestMod = info.ModTime()
		}
	}
	if latest == "" {
		return "", fmt.Errorf("%w: no sessions recorded", ErrSessionNotFound)
	}
	return latest, nil
}

// SnapshotOptions configures Snapshot.
type SnapshotOptions struct {
	// Summary is the human-readable progress line. Required.
	Summary string
	// Status optionally transitions the session alongside the snapshot.
	Status Status
	// Payload carries arbitrary structured context.
	Payload map[string]any
}

// Snapshot appends a progress snapshot to the session.
func (s *Store) Snapshot(id string, opts SnapshotOptions) (*Record, error) {
	s.mu.Lock()
	rec, evt, err := s.snapshotLocked(id, opts)
	s.mu.Unlock()
	if evt != nil {
		s.publish(evt)
	}
	return rec, err
}

func (s *Store) snapshotLocked(id string, opts SnapshotOptions) (*Record, event.Event, error) {
	if strings.TrimSpace(opts.Summary) == "" {
		return nil, nil, errors.NewValidationError("summary", opts.Summary, "cannot be empty")
	}
	if opts.Status != "" && !validStatus(opts.Status) {
		return nil, nil, errors.NewValidationError("status", string(opts.Status), "must be one of: active, paused, completed")
	}

	rec, err := s.load(id)
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	snap := Snapshot{
		Summary:   opts.Summary,
		Payload:   opts.Payload,
		Timestamp: now,
	}
	if opts.Status != "" {
		snap.Status = string(opts.Status)
		rec.Status = opts.Status
	}
	rec.Snapshots = append(rec.Snapshots, snap)
	rec.Timeline = append(rec.Timeline, TimelineEntry{
		Event:     EventSnapshotRecorded,
		Timestamp: now,
		Detail:    opts.Summary,
	})
	if err := s.save(rec); err != nil {
		return nil, nil, err
	}

	s.logger.WithSession(id).Info("snapshot recorded", "summary", opts.Summary)
	return rec, event.NewSnapshotRecordedEvent(id, opts.Summary), nil
}

// Get loads one session record.
func (s *Store) Get(id string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(id)
}

// Resolve maps LatestAlias to the most recently written session id. Any
// other id passes through unchanged.
func (s *Store) Resolve(id string) (string, error) {
	if id != LatestAlias {
		return id, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latestSessionID()
}

// List returns a row per session directory, newest first. Decodable records
// carry their status and scene; undecodable ones are flagged Corrupted.
func (s *Store) List() ([]Info, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.SessionsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.NewSessionError("reading sessions directory", err)
	}

	var infos []Info
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id := entry.Name()
		path := s.SessionPath(id)
		stat, err := os.Stat(path)
		if err != nil {
			continue
		}

		rec, err := s.load(id)
		if err != nil {
			infos = append(infos, Info{
				SessionID: id,
				Corrupted: true,
				UpdatedAt: stat.ModTime(),
				Path:      path,
			})
			continue
		}

		info := Info{
			SessionID: rec.SessionID,
			Status:    rec.Status,
			Objective: rec.Objective,
			Scene:     rec.Scene,
			UpdatedAt: rec.UpdatedAt,
			Path:      path,
		}
		if rec.Children != nil {
			info.ChildCount = len(rec.Children.SpecSessions)
		}
		infos = append(infos, info)
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].UpdatedAt.After(infos[j].UpdatedAt)
	})
	return infos, nil
}

// ----------------------------------------------------------------------------
// Persistence
// ----------------------------------------------------------------------------

// load reads and validates one record. Absent records map to
// ErrSessionNotFound, undecodable or inconsistent ones to ErrSessionCorrupted.
func (s *Store) load(id string) (*Record, error) {
	if err := validateSessionID(id); err != nil {
		return nil, err
	}
	path := s.SessionPath(id)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
		}
		return nil, errors.NewSessionError(fmt.Sprintf("reading session %s", id), err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSessionCorrupted, path, err)
	}
	if rec.SessionID != id {
		return nil, fmt.Errorf("%w: %s: record id %q does not match directory", ErrSessionCorrupted, path, rec.SessionID)
	}
	if rec.Status == "" {
		return nil, fmt.Errorf("%w: %s: missing status", ErrSessionCorrupted, path)
	}
	return &rec, nil
}

// create writes a brand-new record, failing if one already exists.
func (s *Store) create(rec *Record) error {
	dir := s.SessionDir(rec.SessionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.NewSessionError("creating session directory", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return errors.NewSessionError("encoding session record", err)
	}

	path := s.SessionPath(rec.SessionID)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateSession, rec.SessionID)
		}
		return errors.NewSessionError("creating session record", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return errors.NewSessionError("writing session record", err)
	}
	return f.Close()
}

// save rewrites an existing record in place, optionally snapshotting the
// previous contents first. Backup failure is logged and does not block the
// write.
func (s *Store) save(rec *Record) error {
	path := s.SessionPath(rec.SessionID)
	if s.backupOnRewrite {
		if _, err := os.Stat(path); err == nil {
			if _, err := backup.ForFile(path).Create(path); err != nil {
				s.logger.WithSession(rec.SessionID).Warn("session backup failed", "error", err)
			}
		}
	}

	rec.UpdatedAt = s.now()
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return errors.NewSessionError("encoding session record", err)
	}
	if err := atomicWriteFile(path, data, 0o644); err != nil {
		return errors.NewSessionError("writing session record", err)
	}
	return nil
}

func (s *Store) publish(evt event.Event) {
	if s.bus != nil {
		s.bus.Publish(evt)
	}
}

// validateSessionID rejects ids that would escape the sessions directory or
// collide with the resume alias.
func validateSessionID(id string) error {
	if strings.TrimSpace(id) == "" {
		return errors.NewValidationError("session_id", id, "cannot be empty")
	}
	if id == LatestAlias {
		return errors.NewValidationError("session_id", id, "is reserved")
	}
	if id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return errors.NewValidationError("session_id", id, "must not contain path separators")
	}
	return nil
}

// atomicWriteFile writes data to a temporary file in the same directory and
// renames it into place.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}
	success = true
	return nil
}
