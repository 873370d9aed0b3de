package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
)

// tickMsg drives the periodic refresh cadence.
type tickMsg time.Time

// snapshotMsg carries a freshly collected workspace snapshot.
type snapshotMsg struct {
	snap *workspaceSnapshot
	err  error
}

// fsEventMsg is a single filesystem event from the watcher.
type fsEventMsg struct {
	event fsnotify.Event
}

// fsErrorMsg is a watcher error.
type fsErrorMsg struct {
	err error
}

// tick returns a command that sends a tickMsg after the refresh interval.
// Filesystem events only mark the model dirty; the actual reload happens
// on the next tick, so bursts of writes coalesce into one read.
func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// loadSnapshot returns a command that reads the workspace state.
func loadSnapshot(dataDir string) tea.Cmd {
	return func() tea.Msg {
		snap, err := collectSnapshot(dataDir)
		return snapshotMsg{snap: snap, err: err}
	}
}
