// Package jobref reads studio job references from the workspace data
// directory.
//
// The studio writes job descriptors under studio/jobs/ and keeps a
// latest.json pointer to the most recent one. Stagehand never writes these
// files; it only consumes them to bind spec work to the scene the studio is
// currently driving. Because the files belong to another tool, Latest
// degrades to "no reference" on anything unreadable instead of failing the
// caller.
package jobref

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/stagehand-sh/stagehand/internal/errors"
)

// Layout constants for the studio subtree.
const (
	// StudioDirName is the studio's directory under the data directory.
	StudioDirName = "studio"
	// JobsDirName holds one descriptor file per job.
	JobsDirName = "jobs"
	// LatestFileName is the pointer to the most recent job.
	LatestFileName = "latest.json"
)

// Job is one studio job descriptor.
type Job struct {
	JobID     string    `json:"job_id"`
	SceneID   string    `json:"scene_id"`
	Status    string    `json:"status,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// valid reports whether the descriptor carries enough to bind against.
func (j *Job) valid() bool {
	return j.JobID != "" && j.SceneID != ""
}

// latestPointer is the shape of latest.json.
type latestPointer struct {
	JobID      string    `json:"job_id"`
	SceneID    string    `json:"scene_id,omitempty"`
	RecordedAt time.Time `json:"recorded_at,omitempty"`
}

// Reader provides read-only access to the studio subtree.
type Reader struct {
	baseDir string
}

// NewReader creates a Reader rooted at the data directory.
func NewReader(baseDir string) *Reader {
	return &Reader{baseDir: baseDir}
}

// StudioDir returns the studio directory.
func (r *Reader) StudioDir() string {
	return filepath.Join(r.baseDir, StudioDirName)
}

// JobsDir returns the job descriptors directory.
func (r *Reader) JobsDir() string {
	return filepath.Join(r.StudioDir(), JobsDirName)
}

func (r *Reader) jobPath(jobID string) string {
	return filepath.Join(r.JobsDir(), jobID+".json")
}

// Latest resolves the latest.json pointer to its job descriptor. It returns
// (nil, nil) when the pointer or the descriptor is absent, unreadable, or
// incomplete: an unusable studio reference means "no reference", never an
// error.
func (r *Reader) Latest() (*Job, error) {
	data, err := os.ReadFile(filepath.Join(r.StudioDir(), LatestFileName))
	if err != nil {
		return nil, nil
	}

	var ptr latestPointer
	if err := json.Unmarshal(data, &ptr); err != nil || ptr.JobID == "" {
		return nil, nil
	}

	job, err := r.read(ptr.JobID)
	if err != nil || !job.valid() {
		return nil, nil
	}
	return job, nil
}

// Get loads one job descriptor by id.
func (r *Reader) Get(jobID string) (*Job, error) {
	if strings.TrimSpace(jobID) == "" {
		return nil, errors.NewValidationError("job_id", jobID, "cannot be empty")
	}
	job, err := r.read(jobID)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("studio job", jobID)
		}
		return nil, errors.NewCorruptedError(r.jobPath(jobID), err)
	}
	return job, nil
}

// List returns all decodable job descriptors, newest first. Descriptors
// that cannot be parsed or lack identifying fields are skipped; listing is
// a best-effort view over another tool's files.
func (r *Reader) List() ([]Job, error) {
	entries, err := os.ReadDir(r.JobsDir())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "reading studio jobs directory")
	}

	var jobs []Job
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		job, err := r.read(strings.TrimSuffix(name, ".json"))
		if err != nil || !job.valid() {
			continue
		}
		jobs = append(jobs, *job)
	}

	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	return jobs, nil
}

// read loads and decodes one descriptor file.
func (r *Reader) read(jobID string) (*Job, error) {
	data, err := os.ReadFile(r.jobPath(jobID))
	if err != nil {
		return nil, err
	}
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, err
	}
	return &job, nil
}
