// Package backup creates and manages timestamped copies of workspace files.
//
// Backups live in a dedicated directory next to the files they protect
// (for example specs/<id>/backups/). A backup's identity is its file name,
// <original-name>.backup-<stamp>, so the set of backups is fully derivable
// from the directory listing alone; no separate index is kept.
package backup

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// DirName is the conventional backups directory name.
const DirName = "backups"

// suffix separates the original file name from the timestamp.
const suffix = ".backup-"

// ErrBackupNotFound indicates the named backup does not exist.
var ErrBackupNotFound = errors.New("backup not found")

// Backup describes one stored copy.
type Backup struct {
	ID        string    // file name of the backup, e.g. "spec.md.backup-20250601_120000_123456"
	Original  string    // path the copy restores to
	Path      string    // location of the backup file
	Size      int64     // bytes
	CreatedAt time.Time // when the copy was taken
}

// Keeper stores backups in a single directory. The restore target of a
// backup is the file of the same base name in the directory's parent.
type Keeper struct {
	dir string
	mu  sync.Mutex
}

// NewKeeper creates a Keeper over the given backups directory. The
// directory is created lazily on first use.
func NewKeeper(dir string) *Keeper {
	return &Keeper{dir: dir}
}

// ForFile returns a Keeper for the conventional backups directory next to
// the given file.
func ForFile(path string) *Keeper {
	return NewKeeper(filepath.Join(filepath.Dir(path), DirName))
}

// Dir returns the backups directory.
func (k *Keeper) Dir() string {
	return k.dir
}

// Create copies the file at path into the backups directory and returns the
// new backup. The source file must exist.
func (k *Keeper) Create(path string) (*Backup, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat source file: %w", err)
	}
	if err := os.MkdirAll(k.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create backups directory: %w", err)
	}

	now := time.Now()
	id := fmt.Sprintf("%s%s%s_%06d",
		filepath.Base(path), suffix, now.Format("20060102_150405"), now.Nanosecond()/1000)
	backupPath := filepath.Join(k.dir, id)

	size, err := copyFile(path, backupPath)
	if err != nil {
		return nil, fmt.Errorf("copy to backup: %w", err)
	}

	return &Backup{
		ID:        id,
		Original:  path,
		Path:      backupPath,
		Size:      size,
		CreatedAt: now,
	}, nil
}

// Restore copies the named backup over its original file.
func (k *Keeper) Restore(id string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	b, err := k.find(id)
	if err != nil {
		return err
	}
	if _, err := copyFile(b.Path, b.Original); err != nil {
		return fmt.Errorf("restore backup: %w", err)
	}
	return nil
}

// Remove deletes the named backup.
func (k *Keeper) Remove(id string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	b, err := k.find(id)
	if err != nil {
		return err
	}
	if err := os.Remove(b.Path); err != nil {
		return fmt.Errorf("remove backup: %w", err)
	}
	return nil
}

// List returns all backups in the directory, newest first.
func (k *Keeper) List() ([]Backup, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.list()
}

// Prune removes backups older than maxAge and reports how many were
// deleted. A zero or negative maxAge removes everything.
func (k *Keeper) Prune(maxAge time.Duration) (int, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	backups, err := k.list()
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, b := range backups {
		if maxAge > 0 && b.CreatedAt.After(cutoff) {
			continue
		}
		if err := os.Remove(b.Path); err != nil {
			return removed, fmt.Errorf("prune backup %s: %w", b.ID, err)
		}
		removed++
	}
	return removed, nil
}

// find locates one backup by id.
func (k *Keeper) find(id string) (*Backup, error) {
	if !strings.Contains(id, suffix) {
		return nil, fmt.Errorf("%w: %q", ErrBackupNotFound, id)
	}
	path := filepath.Join(k.dir, id)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %q", ErrBackupNotFound, id)
		}
		return nil, fmt.Errorf("stat backup: %w", err)
	}
	return &Backup{
		ID:        id,
		Original:  k.originalFor(id),
		Path:      path,
		Size:      info.Size(),
		CreatedAt: info.ModTime(),
	}, nil
}

// list scans the directory. Entries without the backup suffix are ignored.
func (k *Keeper) list() ([]Backup, error) {
	entries, err := os.ReadDir(k.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read backups directory: %w", err)
	}

	var backups []Backup
	for _, entry := range entries {
		if entry.IsDir() || !strings.Contains(entry.Name(), suffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		id := entry.Name()
		backups = append(backups, Backup{
			ID:        id,
			Original:  k.originalFor(id),
			Path:      filepath.Join(k.dir, id),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}

// originalFor derives the restore target: the same base name in the
// parent of the backups directory.
func (k *Keeper) originalFor(id string) string {
	base := id[:strings.LastIndex(id, suffix)]
	return filepath.Join(filepath.Dir(k.dir), base)
}

// copyFile copies src to dst, returning the number of bytes written.
func copyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(out, in)
	if err != nil {
		out.Close()
		os.Remove(dst)
		return 0, err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return n, err
	}
	return n, out.Close()
}
