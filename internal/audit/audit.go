// Package audit records forced lock operations to an append-only trail.
// Forced release and stale-lock cleanup override normal ownership checks,
// so every such action is written down: who forced it, on which spec, when.
// Entries are persisted as JSONL (one JSON object per line); the log is only
// ever appended to.
package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// AuditDirName is the directory under the workspace data dir holding the trail.
	AuditDirName = "audit"

	// AuditFileName is the append-only JSONL file inside the audit directory.
	AuditFileName = "audit.jsonl"
)

// Action identifies the kind of forced operation being recorded.
type Action string

const (
	// ActionForcedRelease records a lock released with force by a non-owner.
	ActionForcedRelease Action = "lock.forced_release"
	// ActionStaleCleanup records a lock removed because its timeout elapsed.
	ActionStaleCleanup Action = "lock.stale_cleanup"
)

// Entry is one audit record.
type Entry struct {
	ID        string    `json:"id"`
	Action    Action    `json:"action"`
	SpecID    string    `json:"spec_id"`
	MachineID string    `json:"machine_id"` // machine performing the action
	Hostname  string    `json:"hostname"`
	Actor     string    `json:"actor,omitempty"` // human label when provided
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Recorder accepts audit entries. Implementations must be safe for
// concurrent use.
type Recorder interface {
	Record(e Entry) error
}

// FileRecorder appends entries to {baseDir}/audit/audit.jsonl.
type FileRecorder struct {
	baseDir string
	mu      sync.Mutex
}

// NewFileRecorder creates a FileRecorder rooted at the workspace data
// directory. The audit directory is created lazily on first write.
func NewFileRecorder(baseDir string) *FileRecorder {
	return &FileRecorder{baseDir: baseDir}
}

// Path returns the location of the audit log file.
func (r *FileRecorder) Path() string {
	return filepath.Join(r.baseDir, AuditDirName, AuditFileName)
}

// Record validates and appends an entry. If e.ID is empty, a unique ID is
// generated. If e.Timestamp is zero, the current time is used. Writes are
// serialized via a mutex and use O_APPEND.
func (r *FileRecorder) Record(e Entry) error {
	if e.Action == "" {
		return fmt.Errorf("audit: entry Action field is required")
	}
	if e.SpecID == "" {
		return fmt.Errorf("audit: entry SpecID field is required")
	}

	if e.ID == "" {
		e.ID = generateID()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	if err := os.MkdirAll(filepath.Join(r.baseDir, AuditDirName), 0o755); err != nil {
		return fmt.Errorf("audit: create directory: %w", err)
	}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("audit: marshal entry: %w", err)
	}
	data = append(data, '\n')

	return r.atomicAppend(r.Path(), data)
}

// Entries returns all recorded entries in log order. Malformed lines are
// skipped rather than failing the whole read. Returns nil (not an error)
// when the trail does not exist yet.
func (r *FileRecorder) Entries() ([]Entry, error) {
	f, err := os.Open(r.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("audit: open trail: %w", err)
	}
	defer func() { _ = f.Close() }()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			// Skip malformed lines rather than failing entirely
			continue
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("audit: scan trail: %w", err)
	}

	return entries, nil
}

// Tail returns the last n entries in log order. n <= 0 returns all entries.
func (r *FileRecorder) Tail(n int) ([]Entry, error) {
	entries, err := r.Entries()
	if err != nil {
		return nil, err
	}
	if n <= 0 || len(entries) <= n {
		return entries, nil
	}
	return entries[len(entries)-n:], nil
}

// atomicAppend appends data to a file under a mutex to serialize writes.
// Each JSONL line is small enough that O_APPEND provides atomicity guarantees
// on POSIX systems (writes under PIPE_BUF are atomic).
func (r *FileRecorder) atomicAppend(path string, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("audit: open trail for append: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("audit: append to trail: %w", err)
	}

	return f.Close()
}

// NopRecorder discards all entries. Useful for tests and for callers that
// have no workspace to audit into.
type NopRecorder struct{}

// Record implements Recorder by discarding the entry.
func (NopRecorder) Record(Entry) error { return nil }

// idCounter provides per-process uniqueness for entry IDs.
var idCounter atomic.Uint64

// generateID produces a unique entry ID using timestamp, PID, and atomic counter.
func generateID() string {
	return fmt.Sprintf("aud-%d-%d-%d", time.Now().UnixNano(), os.Getpid(), idCounter.Add(1))
}
