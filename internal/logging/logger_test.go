package logging

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("creates log file in log directory", func(t *testing.T) {
		dir := t.TempDir()

		logger, err := New(dir, LevelDebug)
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		defer logger.Close()

		logPath := filepath.Join(dir, LogFileName)
		if _, err := os.Stat(logPath); os.IsNotExist(err) {
			t.Errorf("log file was not created at %s", logPath)
		}
	})

	t.Run("writes to stderr when logDir is empty", func(t *testing.T) {
		logger, err := New("", LevelInfo)
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		defer logger.Close()

		if logger.sink != nil {
			t.Error("expected sink to be nil when logDir is empty")
		}
	})

	t.Run("creates nested log directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), ".stagehand", "logs")

		logger, err := New(dir, LevelInfo)
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		defer logger.Close()

		if _, err := os.Stat(dir); err != nil {
			t.Errorf("log directory was not created: %v", err)
		}
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"DEBUG", LevelDebug},
		{"debug", LevelDebug},
		{"Info", LevelInfo},
		{"WARN", LevelWarn},
		{"error", LevelError},
		{"bogus", LevelInfo},
		{"", LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("ParseLevel(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// readLogEntries parses the JSON log lines written to the given directory.
func readLogEntries(t *testing.T, dir string) []map[string]any {
	t.Helper()

	data, err := os.ReadFile(filepath.Join(dir, LogFileName))
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}

	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("failed to parse log line %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestLogger_LevelFiltering(t *testing.T) {
	dir := t.TempDir()

	logger, err := New(dir, LevelWarn)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")
	logger.Close()

	entries := readLogEntries(t, dir)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2 (warn + error)", len(entries))
	}
	if entries[0]["msg"] != "warn message" {
		t.Errorf("first entry msg = %v, want 'warn message'", entries[0]["msg"])
	}
	if entries[1]["msg"] != "error message" {
		t.Errorf("second entry msg = %v, want 'error message'", entries[1]["msg"])
	}
}

func TestLogger_ChildLoggers(t *testing.T) {
	dir := t.TempDir()

	logger, err := New(dir, LevelDebug)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	specLogger := logger.WithSpec("auth-api")
	sceneLogger := specLogger.WithScene("nightly")
	sceneLogger.Info("lock acquired", "timeout_hours", 4)

	// The parent logger must not have inherited child attributes.
	logger.Info("plain message")
	logger.Close()

	entries := readLogEntries(t, dir)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}

	first := entries[0]
	if first["spec_id"] != "auth-api" {
		t.Errorf("spec_id = %v, want auth-api", first["spec_id"])
	}
	if first["scene_id"] != "nightly" {
		t.Errorf("scene_id = %v, want nightly", first["scene_id"])
	}
	if first["timeout_hours"] != float64(4) {
		t.Errorf("timeout_hours = %v, want 4", first["timeout_hours"])
	}

	second := entries[1]
	if _, ok := second["spec_id"]; ok {
		t.Error("parent logger entry should not carry spec_id")
	}
}

func TestLogger_WithSession(t *testing.T) {
	dir := t.TempDir()

	logger, err := New(dir, LevelDebug)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.WithSession("sess-42").Info("resumed")
	logger.Close()

	entries := readLogEntries(t, dir)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0]["session_id"] != "sess-42" {
		t.Errorf("session_id = %v, want sess-42", entries[0]["session_id"])
	}
}

func TestLogger_With(t *testing.T) {
	dir := t.TempDir()

	logger, err := New(dir, LevelDebug)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.With("machine_id", "m-1", "forced", true).Warn("lock released")
	logger.Close()

	entries := readLogEntries(t, dir)
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0]["machine_id"] != "m-1" {
		t.Errorf("machine_id = %v, want m-1", entries[0]["machine_id"])
	}
	if entries[0]["forced"] != true {
		t.Errorf("forced = %v, want true", entries[0]["forced"])
	}
}

func TestLogger_Close(t *testing.T) {
	dir := t.TempDir()

	logger, err := New(dir, LevelInfo)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	if err := logger.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
	// Second close is a no-op.
	if err := logger.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}

func TestNopLogger(t *testing.T) {
	logger := NopLogger()

	// Must not panic or create files.
	logger.Debug("a")
	logger.Info("b")
	logger.Warn("c")
	logger.Error("d")
	logger.WithSpec("x").Info("e")

	if err := logger.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestValidLevels(t *testing.T) {
	levels := ValidLevels()
	if len(levels) != 4 {
		t.Fatalf("got %d levels, want 4", len(levels))
	}
	if levels[0] != LevelDebug || levels[3] != LevelError {
		t.Errorf("unexpected level ordering: %v", levels)
	}
}
