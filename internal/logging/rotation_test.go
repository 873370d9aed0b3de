package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRotatingWriter_NoRotationUnderLimit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.log")

	rw, err := NewRotatingWriter(path, RotationConfig{MaxSizeMB: 1, MaxBackups: 2})
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	defer rw.Close()

	if _, err := rw.Write([]byte("small write\n")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if _, err := os.Stat(path + ".1"); !os.IsNotExist(err) {
		t.Error("backup file created for a write under the size limit")
	}
}

func TestRotatingWriter_RotationDisabled(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.log")

	rw, err := NewRotatingWriter(path, RotationConfig{MaxSizeMB: 0})
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	defer rw.Close()

	big := strings.Repeat("x", 4096)
	for i := 0; i < 10; i++ {
		if _, err := rw.Write([]byte(big)); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}

	if _, err := os.Stat(path + ".1"); !os.IsNotExist(err) {
		t.Error("rotation occurred despite MaxSizeMB = 0")
	}
	if rw.CurrentSize() != int64(10*len(big)) {
		t.Errorf("CurrentSize = %d, want %d", rw.CurrentSize(), 10*len(big))
	}
}

// writeUntilRotated writes chunks until the writer rotates once.
func writeUntilRotated(t *testing.T, rw *RotatingWriter, path string) {
	t.Helper()

	chunk := []byte(strings.Repeat("y", 256*1024))
	for i := 0; i < 8; i++ {
		if _, err := rw.Write(chunk); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		if _, err := os.Stat(path + ".1"); err == nil {
			return
		}
	}
	t.Fatal("writer never rotated")
}

func TestRotatingWriter_RotatesAtLimit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.log")

	rw, err := NewRotatingWriter(path, RotationConfig{MaxSizeMB: 1, MaxBackups: 2})
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	defer rw.Close()

	writeUntilRotated(t, rw, path)

	// The active file must still exist and be writable after rotation.
	if _, err := os.Stat(path); err != nil {
		t.Errorf("active log file missing after rotation: %v", err)
	}
	if _, err := rw.Write([]byte("after rotation\n")); err != nil {
		t.Errorf("Write after rotation failed: %v", err)
	}
}

func TestRotatingWriter_MaxBackups(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.log")

	rw, err := NewRotatingWriter(path, RotationConfig{MaxSizeMB: 1, MaxBackups: 1})
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}
	defer rw.Close()

	writeUntilRotated(t, rw, path)
	// Force a second rotation; the single backup slot must be reused.
	os.Remove(path + ".1")
	writeUntilRotated(t, rw, path)

	if _, err := os.Stat(path + ".2"); !os.IsNotExist(err) {
		t.Error("backup .2 exists despite MaxBackups = 1")
	}
}

func TestRotatingWriter_WriteAfterClose(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.log")

	rw, err := NewRotatingWriter(path, RotationConfig{MaxSizeMB: 1})
	if err != nil {
		t.Fatalf("NewRotatingWriter failed: %v", err)
	}

	if err := rw.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := rw.Write([]byte("x")); err == nil {
		t.Error("Write after Close succeeded, want error")
	}
	// Second close is a no-op.
	if err := rw.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}
