// Package tui implements the watch dashboard: a read-only live view of
// the workspace's locks, active scenes, and recent activity. It renders
// state from the data directory and never mutates it.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/stagehand-sh/stagehand/internal/logging"
)

// Options configures the dashboard.
type Options struct {
	// DataDir is the workspace data directory to watch.
	DataDir string
	// Logger receives watcher and refresh diagnostics. Nil disables them.
	Logger *logging.Logger
}

// Run starts the dashboard and blocks until the user quits.
func Run(opts Options) error {
	watcher, err := newWatcher(opts.DataDir)
	if err != nil {
		// No inotify capacity is not fatal; the ticker still refreshes.
		if opts.Logger != nil {
			opts.Logger.Warn("filesystem watcher unavailable, polling instead", "error", err)
		}
		watcher = nil
	}
	if watcher != nil {
		defer func() { _ = watcher.Close() }()
	}

	p := tea.NewProgram(newModel(opts, watcher), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
