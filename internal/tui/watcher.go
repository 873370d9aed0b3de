package tui

import (
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"

	"github.com/stagehand-sh/stagehand/internal/audit"
	"github.com/stagehand-sh/stagehand/internal/lockfile"
	"github.com/stagehand-sh/stagehand/internal/session"
)

// newWatcher builds a filesystem watcher over the data directory trees the
// dashboard cares about. Locks and session records live one level down, and
// fsnotify does not recurse, so existing subdirectories are added up front;
// directories created later are added as their create events arrive.
func newWatcher(dataDir string) (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	roots := []string{
		filepath.Join(dataDir, lockfile.SpecsDirName),
		filepath.Join(dataDir, session.SessionsDirName),
		filepath.Join(dataDir, audit.AuditDirName),
	}
	for _, root := range roots {
		// Missing trees are fine; the periodic refresh covers them.
		if err := w.Add(root); err != nil {
			continue
		}
		entries, err := os.ReadDir(root)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				_ = w.Add(filepath.Join(root, entry.Name()))
			}
		}
	}
	return w, nil
}

// waitForFS blocks on the next filesystem event and delivers it as a
// message. The command is re-armed by Update after each delivery.
func waitForFS(w *fsnotify.Watcher) tea.Cmd {
	return func() tea.Msg {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			return fsEventMsg{event: ev}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return fsErrorMsg{err: err}
		}
	}
}

// trackCreatedDir widens the watch to a newly created subdirectory, keeping
// new spec and session directories under observation.
func trackCreatedDir(w *fsnotify.Watcher, ev fsnotify.Event) {
	if w == nil || ev.Op&fsnotify.Create == 0 {
		return
	}
	if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
		_ = w.Add(ev.Name)
	}
}
