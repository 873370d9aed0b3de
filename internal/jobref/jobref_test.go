package jobref

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stagehand-sh/stagehand/internal/errors"
)

func writeJob(t *testing.T, baseDir string, job Job) {
	t.Helper()
	jobsDir := filepath.Join(baseDir, StudioDirName, JobsDirName)
	if err := os.MkdirAll(jobsDir, 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	data, err := json.Marshal(job)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(jobsDir, job.JobID+".json"), data, 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
}

func writeLatest(t *testing.T, baseDir, jobID string) {
	t.Helper()
	studioDir := filepath.Join(baseDir, StudioDirName)
	if err := os.MkdirAll(studioDir, 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	data, err := json.Marshal(map[string]any{
		"job_id":      jobID,
		"recorded_at": time.Now(),
	})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(studioDir, LatestFileName), data, 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
}

func writeRaw(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
}

// ===== Latest =====

func TestLatest(t *testing.T) {
	dir := t.TempDir()
	writeJob(t, dir, Job{JobID: "job-1", SceneID: "checkout-flow", Status: "running", CreatedAt: time.Now()})
	writeLatest(t, dir, "job-1")

	job, err := NewReader(dir).Latest()
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if job == nil {
		t.Fatal("expected a job")
	}
	if job.JobID != "job-1" || job.SceneID != "checkout-flow" {
		t.Errorf("unexpected job %+v", job)
	}
}

func TestLatestMissingStudio(t *testing.T) {
	job, err := NewReader(t.TempDir()).Latest()
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if job != nil {
		t.Errorf("expected nil job, got %+v", job)
	}
}

func TestLatestDegradesGracefully(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, dir string)
	}{
		{
			"malformed pointer",
			func(t *testing.T, dir string) {
				writeRaw(t, filepath.Join(dir, StudioDirName, LatestFileName), "not valid json{")
			},
		},
		{
			"pointer without job id",
			func(t *testing.T, dir string) {
				writeRaw(t, filepath.Join(dir, StudioDirName, LatestFileName), `{"recorded_at":"2026-01-01T00:00:00Z"}`)
			},
		},
		{
			"pointer to missing descriptor",
			func(t *testing.T, dir string) {
				writeLatest(t, dir, "job-ghost")
			},
		},
		{
			"pointer to malformed descriptor",
			func(t *testing.T, dir string) {
				writeLatest(t, dir, "job-1")
				writeRaw(t, filepath.Join(dir, StudioDirName, JobsDirName, "job-1.json"), "not valid json{")
			},
		},
		{
			"pointer to descriptor without scene",
			func(t *testing.T, dir string) {
				writeJob(t, dir, Job{JobID: "job-1"})
				writeLatest(t, dir, "job-1")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			tt.setup(t, dir)

			job, err := NewReader(dir).Latest()
			if err != nil {
				t.Fatalf("Latest failed: %v", err)
			}
			if job != nil {
				t.Errorf("expected nil job, got %+v", job)
			}
		})
	}
}

// ===== Get =====

func TestGet(t *testing.T) {
	dir := t.TempDir()
	writeJob(t, dir, Job{JobID: "job-1", SceneID: "checkout-flow", Status: "completed"})

	job, err := NewReader(dir).Get("job-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if job.Status != "completed" {
		t.Errorf("unexpected job %+v", job)
	}
}

func TestGetNotFound(t *testing.T) {
	_, err := NewReader(t.TempDir()).Get("job-ghost")
	if !errors.IsNotFound(err) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestGetMalformed(t *testing.T) {
	dir := t.TempDir()
	writeRaw(t, filepath.Join(dir, StudioDirName, JobsDirName, "job-1.json"), "not valid json{")

	_, err := NewReader(dir).Get("job-1")
	if !errors.IsCorrupted(err) {
		t.Fatalf("expected corrupted error, got %v", err)
	}
}

func TestGetEmptyID(t *testing.T) {
	_, err := NewReader(t.TempDir()).Get("  ")
	if !errors.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

// ===== List =====

func TestList(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	writeJob(t, dir, Job{JobID: "job-old", SceneID: "alpha", CreatedAt: now.Add(-time.Hour)})
	writeJob(t, dir, Job{JobID: "job-new", SceneID: "beta", CreatedAt: now})
	writeJob(t, dir, Job{JobID: "job-sceneless"}) // skipped: no scene
	writeRaw(t, filepath.Join(dir, StudioDirName, JobsDirName, "job-bad.json"), "not valid json{")
	writeRaw(t, filepath.Join(dir, StudioDirName, JobsDirName, "notes.txt"), "ignore me")

	jobs, err := NewReader(dir).List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0].JobID != "job-new" || jobs[1].JobID != "job-old" {
		t.Errorf("expected newest first, got %q then %q", jobs[0].JobID, jobs[1].JobID)
	}
}

func TestListMissingStudio(t *testing.T) {
	jobs, err := NewReader(t.TempDir()).List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(jobs) != 0 {
		t.Errorf("expected no jobs, got %d", len(jobs))
	}
}
