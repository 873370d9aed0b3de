// Package lockfile reads, writes, and validates the lock record that marks a
// spec as claimed. One record per spec, stored as JSON in a reserved file
// inside the spec's directory. The codec owns no locking policy: staleness,
// ownership, and takeover decisions live in the lock manager.
package lockfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// File and directory names for the on-disk layout.
const (
	// SpecsDirName is the directory under the workspace data dir holding one
	// subdirectory per spec.
	SpecsDirName = "specs"
	// LockFileName is the reserved lock slot inside each spec directory.
	LockFileName = "spec.lock"
)

// Sentinel errors returned by the codec.
var (
	// ErrInvalidMetadata indicates a lock record failed validation. Invalid
	// records are rejected before any write touches storage.
	ErrInvalidMetadata = errors.New("invalid lock metadata")

	// ErrInvalidSpecID indicates a spec id is empty or contains path
	// separators.
	ErrInvalidSpecID = errors.New("invalid spec id")

	// ErrSlotExists indicates an exclusive write found an existing lock slot.
	ErrSlotExists = errors.New("lock slot already exists")
)

// Record is the persisted lock record. All fields are required; JSON keys
// are camelCase to stay wire-compatible with records written by earlier
// tooling.
type Record struct {
	Owner     string    `json:"owner"`
	MachineID string    `json:"machineId"`
	Hostname  string    `json:"hostname"`
	Timestamp time.Time `json:"timestamp"`
	Timeout   float64   `json:"timeout"` // lock lifetime in hours
	Reason    string    `json:"reason"`
	Version   string    `json:"version"`
}

// Validate checks that every required field is present and well-typed.
// Returns an error wrapping ErrInvalidMetadata naming the offending field.
func (r *Record) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidMetadata)
	}
	if r.Owner == "" {
		return fmt.Errorf("%w: missing owner", ErrInvalidMetadata)
	}
	if r.MachineID == "" {
		return fmt.Errorf("%w: missing machineId", ErrInvalidMetadata)
	}
	if r.Hostname == "" {
		return fmt.Errorf("%w: missing hostname", ErrInvalidMetadata)
	}
	if r.Timestamp.IsZero() {
		return fmt.Errorf("%w: missing timestamp", ErrInvalidMetadata)
	}
	if r.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be a positive number of hours", ErrInvalidMetadata)
	}
	if r.Reason == "" {
		return fmt.Errorf("%w: missing reason", ErrInvalidMetadata)
	}
	if r.Version == "" {
		return fmt.Errorf("%w: missing version", ErrInvalidMetadata)
	}
	return nil
}

// Codec persists lock records under a workspace data directory.
type Codec struct {
	baseDir string
}

// NewCodec creates a Codec rooted at the workspace data directory
// (typically ".stagehand").
func NewCodec(baseDir string) *Codec {
	return &Codec{baseDir: baseDir}
}

// SpecsDir returns the directory holding all spec directories.
func (c *Codec) SpecsDir() string {
	return filepath.Join(c.baseDir, SpecsDirName)
}

// SpecDir returns the directory for a single spec.
func (c *Codec) SpecDir(specID string) string {
	return filepath.Join(c.SpecsDir(), specID)
}

// LockPath returns the lock slot path for a spec.
func (c *Codec) LockPath(specID string) string {
	return filepath.Join(c.SpecDir(specID), LockFileName)
}

// validateSpecID rejects ids that are empty or would escape the specs tree.
func validateSpecID(specID string) error {
	if specID == "" {
		return fmt.Errorf("%w: empty", ErrInvalidSpecID)
	}
	if strings.ContainsAny(specID, "/\\") || specID == "." || specID == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidSpecID, specID)
	}
	return nil
}

// Write validates the record and serializes it to the spec's lock slot,
// overwriting any existing record. The prior record, if any, is silently
// lost; callers must check ownership before calling.
func (c *Codec) Write(specID string, rec *Record) error {
	if err := validateSpecID(specID); err != nil {
		return err
	}
	if err := rec.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(c.SpecDir(specID), 0755); err != nil {
		return fmt.Errorf("failed to create spec directory: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal lock record: %w", err)
	}

	return atomicWriteFile(c.LockPath(specID), data, 0644)
}

// WriteExclusive validates the record and creates the lock slot only if it
// does not already exist, using O_EXCL so the existence check and the create
// are one filesystem operation. Returns ErrSlotExists when the slot is
// occupied.
func (c *Codec) WriteExclusive(specID string, rec *Record) error {
	if err := validateSpecID(specID); err != nil {
		return err
	}
	if err := rec.Validate(); err != nil {
		return err
	}

	if err := os.MkdirAll(c.SpecDir(specID), 0755); err != nil {
		return fmt.Errorf("failed to create spec directory: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal lock record: %w", err)
	}

	// Use O_EXCL to fail if file already exists (race condition protection)
	f, err := os.OpenFile(c.LockPath(specID), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("%w: spec %s", ErrSlotExists, specID)
		}
		return fmt.Errorf("failed to create lock slot: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(c.LockPath(specID))
		return fmt.Errorf("failed to write lock record: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("failed to sync lock record: %w", err)
	}
	return f.Close()
}

// Read returns the parsed lock record for a spec, or nil if the slot is
// absent, unreadable, unparsable, or structurally invalid. Corruption is
// deliberately indistinguishable from "unlocked" so that a damaged lock
// file can never permanently wedge a spec.
func (c *Codec) Read(specID string) *Record {
	if err := validateSpecID(specID); err != nil {
		return nil
	}

	data, err := os.ReadFile(c.LockPath(specID))
	if err != nil {
		return nil
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil
	}
	if err := rec.Validate(); err != nil {
		return nil
	}
	return &rec
}

// Exists reports whether Read would return a record for the spec.
func (c *Codec) Exists(specID string) bool {
	return c.Read(specID) != nil
}

// Delete removes the lock slot for a spec. The first return value reports
// whether a slot file was actually removed; deleting an absent slot is not
// an error, so a second call returns false, nil. A corrupt slot file is
// still a removable slot.
func (c *Codec) Delete(specID string) (bool, error) {
	if err := validateSpecID(specID); err != nil {
		return false, err
	}

	err := os.Remove(c.LockPath(specID))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to remove lock slot: %w", err)
	}
	return true, nil
}

// ListLockedSpecs returns the ids of specs whose lock slot currently decodes
// to a valid record. Order follows directory order; callers must not rely on
// it. Unreadable entries are skipped.
func (c *Codec) ListLockedSpecs() ([]string, error) {
	entries, err := os.ReadDir(c.SpecsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read specs directory: %w", err)
	}

	var locked []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if c.Read(entry.Name()) != nil {
			locked = append(locked, entry.Name())
		}
	}
	return locked, nil
}

// atomicWriteFile writes data to path via a temp file and rename so readers
// never observe a partially written record.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)

	// Create temp file in same directory to ensure atomic rename
	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}
