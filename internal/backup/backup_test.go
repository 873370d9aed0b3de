package backup

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	return string(data)
}

// ===== Create =====

func TestCreate(t *testing.T) {
	dir := t.TempDir()
	original := filepath.Join(dir, "spec.md")
	writeFile(t, original, "# Auth API")

	k := ForFile(original)
	b, err := k.Create(original)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if !strings.HasPrefix(b.ID, "spec.md.backup-") {
		t.Errorf("expected id prefixed with original name, got %q", b.ID)
	}
	if b.Original != original {
		t.Errorf("expected original %q, got %q", original, b.Original)
	}
	if got := readFile(t, b.Path); got != "# Auth API" {
		t.Errorf("expected backup content preserved, got %q", got)
	}
	if b.Size != int64(len("# Auth API")) {
		t.Errorf("expected size %d, got %d", len("# Auth API"), b.Size)
	}
	if filepath.Dir(b.Path) != filepath.Join(dir, DirName) {
		t.Errorf("expected backup under %s dir, got %s", DirName, b.Path)
	}
}

func TestCreateMissingSource(t *testing.T) {
	dir := t.TempDir()
	k := NewKeeper(filepath.Join(dir, DirName))

	if _, err := k.Create(filepath.Join(dir, "absent.json")); err == nil {
		t.Fatal("expected error for missing source file")
	}
}

func TestCreateUniqueIDs(t *testing.T) {
	dir := t.TempDir()
	original := filepath.Join(dir, "session.json")
	writeFile(t, original, "{}")

	k := ForFile(original)
	seen := make(map[string]bool)
	for range 3 {
		b, err := k.Create(original)
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if seen[b.ID] {
			t.Fatalf("duplicate backup id %q", b.ID)
		}
		seen[b.ID] = true
	}
}

// ===== Restore =====

func TestRestore(t *testing.T) {
	dir := t.TempDir()
	original := filepath.Join(dir, "spec.lock")
	writeFile(t, original, "v1")

	k := ForFile(original)
	b, err := k.Create(original)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	writeFile(t, original, "v2 corrupted")
	if err := k.Restore(b.ID); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if got := readFile(t, original); got != "v1" {
		t.Errorf("expected restored content %q, got %q", "v1", got)
	}
}

func TestRestoreRecreatesDeletedOriginal(t *testing.T) {
	dir := t.TempDir()
	original := filepath.Join(dir, "config.yaml")
	writeFile(t, original, "owner: alice")

	k := ForFile(original)
	b, err := k.Create(original)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := os.Remove(original); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := k.Restore(b.ID); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}
	if got := readFile(t, original); got != "owner: alice" {
		t.Errorf("expected restored content, got %q", got)
	}
}

func TestRestoreUnknownID(t *testing.T) {
	k := NewKeeper(filepath.Join(t.TempDir(), DirName))

	err := k.Restore("spec.md.backup-20250601_120000_000000")
	if !errors.Is(err, ErrBackupNotFound) {
		t.Fatalf("expected ErrBackupNotFound, got %v", err)
	}
}

// ===== Remove =====

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	original := filepath.Join(dir, "spec.md")
	writeFile(t, original, "content")

	k := ForFile(original)
	b, err := k.Create(original)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := k.Remove(b.ID); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if _, err := os.Stat(b.Path); !os.IsNotExist(err) {
		t.Error("expected backup file deleted")
	}
	if err := k.Remove(b.ID); !errors.Is(err, ErrBackupNotFound) {
		t.Errorf("expected ErrBackupNotFound on second remove, got %v", err)
	}
}

// ===== List =====

func TestList(t *testing.T) {
	dir := t.TempDir()
	original := filepath.Join(dir, "spec.md")
	writeFile(t, original, "content")

	k := ForFile(original)
	first, err := k.Create(original)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	second, err := k.Create(original)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	// Push the second backup's mtime forward so ordering is deterministic.
	later := time.Now().Add(time.Minute)
	if err := os.Chtimes(second.Path, later, later); err != nil {
		t.Fatalf("Chtimes failed: %v", err)
	}

	backups, err := k.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(backups) != 2 {
		t.Fatalf("expected 2 backups, got %d", len(backups))
	}
	if backups[0].ID != second.ID || backups[1].ID != first.ID {
		t.Errorf("expected newest first, got %q then %q", backups[0].ID, backups[1].ID)
	}
	if backups[0].Original != original {
		t.Errorf("expected derived original %q, got %q", original, backups[0].Original)
	}
}

func TestListEmptyDirectory(t *testing.T) {
	k := NewKeeper(filepath.Join(t.TempDir(), DirName))

	backups, err := k.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(backups) != 0 {
		t.Errorf("expected no backups, got %d", len(backups))
	}
}

func TestListIgnoresForeignFiles(t *testing.T) {
	dir := t.TempDir()
	original := filepath.Join(dir, "spec.md")
	writeFile(t, original, "content")

	k := ForFile(original)
	if _, err := k.Create(original); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	writeFile(t, filepath.Join(k.Dir(), "README.txt"), "not a backup")

	backups, err := k.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(backups) != 1 {
		t.Errorf("expected 1 backup, got %d", len(backups))
	}
}

// ===== Prune =====

func TestPrune(t *testing.T) {
	dir := t.TempDir()
	original := filepath.Join(dir, "spec.md")
	writeFile(t, original, "content")

	k := ForFile(original)
	old, err := k.Create(original)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	fresh, err := k.Create(original)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	stale := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(old.Path, stale, stale); err != nil {
		t.Fatalf("Chtimes failed: %v", err)
	}

	removed, err := k.Prune(24 * time.Hour)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("expected 1 backup pruned, got %d", removed)
	}
	if _, err := os.Stat(old.Path); !os.IsNotExist(err) {
		t.Error("expected stale backup deleted")
	}
	if _, err := os.Stat(fresh.Path); err != nil {
		t.Errorf("expected fresh backup kept: %v", err)
	}
}

func TestPruneZeroAgeRemovesAll(t *testing.T) {
	dir := t.TempDir()
	original := filepath.Join(dir, "spec.md")
	writeFile(t, original, "content")

	k := ForFile(original)
	for range 3 {
		if _, err := k.Create(original); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	removed, err := k.Prune(0)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 3 {
		t.Errorf("expected 3 backups pruned, got %d", removed)
	}
}
