package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"

	"github.com/stagehand-sh/stagehand/internal/audit"
	"github.com/stagehand-sh/stagehand/internal/logging"
	"github.com/stagehand-sh/stagehand/internal/util"
)

const (
	tickInterval     = time.Second
	fullRefreshTicks = 10  // force a reload every N ticks even without events
	maxFeedEntries   = 200 // feed lines kept in memory
	maxLockRows      = 8   // lock rows shown before clipping
	maxSceneRows     = 5   // scene rows shown before clipping
)

// pane identifies which panel has keyboard focus.
type pane int

const (
	paneLocks pane = iota
	paneScenes
	paneFeed
	paneCount
)

// Model holds the dashboard state.
type Model struct {
	dataDir string
	logger  *logging.Logger
	watcher *fsnotify.Watcher

	snap      *workspaceSnapshot
	feed      []feedEntry
	seenAudit map[string]bool
	seeded    bool

	focus    pane
	viewport viewport.Model
	spin     spinner.Model

	width  int
	height int
	ready  bool
	dirty  bool
	ticks  int

	err      error
	quitting bool
}

// newModel builds the dashboard model. A nil watcher degrades to pure
// tick-based polling.
func newModel(opts Options, watcher *fsnotify.Watcher) Model {
	sp := spinner.New(spinner.WithSpinner(spinner.MiniDot))
	sp.Style = headerStyle

	logger := opts.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}

	return Model{
		dataDir:   opts.DataDir,
		logger:    logger,
		watcher:   watcher,
		seenAudit: make(map[string]bool),
		viewport:  viewport.New(0, 0),
		spin:      sp,
		focus:     paneFeed,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.spin.Tick,
		loadSnapshot(m.dataDir),
		tick(),
	}
	if m.watcher != nil {
		cmds = append(cmds, waitForFS(m.watcher))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit

		case "r":
			return m, loadSnapshot(m.dataDir)

		case "tab":
			m.focus = (m.focus + 1) % paneCount
			return m, nil

		case "g":
			if m.focus == paneFeed {
				m.viewport.GotoTop()
			}
			return m, nil

		case "G":
			if m.focus == paneFeed {
				m.viewport.GotoBottom()
			}
			return m, nil

		default:
			if m.focus == paneFeed {
				var cmd tea.Cmd
				m.viewport, cmd = m.viewport.Update(msg)
				return m, cmd
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resize()
		m.refreshFeedView()

	case tickMsg:
		m.ticks++
		cmds = append(cmds, tick())
		if m.dirty || m.ticks%fullRefreshTicks == 0 {
			m.dirty = false
			cmds = append(cmds, loadSnapshot(m.dataDir))
		}

	case snapshotMsg:
		if msg.err != nil {
			m.err = msg.err
			m.logger.Warn("snapshot failed", "error", msg.err)
			break
		}
		m.err = nil
		m.applySnapshot(msg.snap)

	case fsEventMsg:
		trackCreatedDir(m.watcher, msg.event)
		if msg.event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
			m.dirty = true
		}
		if m.watcher != nil {
			cmds = append(cmds, waitForFS(m.watcher))
		}

	case fsErrorMsg:
		m.logger.Warn("watcher error", "error", msg.err)
		if m.watcher != nil {
			cmds = append(cmds, waitForFS(m.watcher))
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// applySnapshot folds a new snapshot into the model: state panels update
// in place, and the differences become feed entries.
func (m *Model) applySnapshot(snap *workspaceSnapshot) {
	entries := diffSnapshots(m.snap, snap)
	entries = append(entries, m.newAuditEntries(snap)...)
	m.snap = snap
	m.appendFeed(entries)
	m.resize()
	m.refreshFeedView()
}

// newAuditEntries returns feed entries for audit records not seen before.
// The first snapshot seeds the seen set silently so old history does not
// flood the feed at startup.
func (m *Model) newAuditEntries(snap *workspaceSnapshot) []feedEntry {
	var fresh []audit.Entry
	for _, e := range snap.Audit {
		if m.seenAudit[e.ID] {
			continue
		}
		m.seenAudit[e.ID] = true
		if m.seeded {
			fresh = append(fresh, e)
		}
	}
	m.seeded = true
	return auditFeed(fresh)
}

func (m *Model) appendFeed(entries []feedEntry) {
	if len(entries) == 0 {
		return
	}
	m.feed = append(m.feed, entries...)
	if len(m.feed) > maxFeedEntries {
		m.feed = m.feed[len(m.feed)-maxFeedEntries:]
	}
}

// resize recomputes the feed viewport dimensions from the terminal size
// and the current panel row counts.
func (m *Model) resize() {
	if !m.ready {
		return
	}
	locksH := panelHeight(m.lockRowCount())
	scenesH := panelHeight(m.sceneRowCount())

	// header + locks + scenes + feed chrome + help
	feedH := m.height - 1 - locksH - scenesH - 3 - 1
	if m.err != nil {
		feedH--
	}
	if feedH < 3 {
		feedH = 3
	}

	vpWidth := m.width - 4
	if vpWidth < 10 {
		vpWidth = 10
	}
	m.viewport.Width = vpWidth
	m.viewport.Height = feedH
}

// panelHeight is rows plus the title line and the border.
func panelHeight(rows int) int {
	if rows < 1 {
		rows = 1
	}
	return rows + 3
}

func (m *Model) lockRowCount() int {
	if m.snap == nil || len(m.snap.Locks) == 0 {
		return 1
	}
	n := len(m.snap.Locks)
	if n > maxLockRows {
		return maxLockRows + 1 // clipped rows plus the overflow line
	}
	return n
}

func (m *Model) sceneRowCount() int {
	if m.snap == nil || len(m.snap.Scenes) == 0 {
		return 1
	}
	n := len(m.snap.Scenes)
	if n > maxSceneRows {
		return maxSceneRows + 1
	}
	return n
}

// refreshFeedView rebuilds the viewport content, keeping the view pinned
// to the newest entries unless the user has scrolled away.
func (m *Model) refreshFeedView() {
	atBottom := m.viewport.AtBottom()

	lines := make([]string, 0, len(m.feed))
	for _, e := range m.feed {
		line := timestampStyle.Render(e.At.Local().Format("15:04:05")) + "  " + e.Kind.style().Render(e.Text)
		lines = append(lines, util.TruncateANSI(line, m.viewport.Width))
	}
	if len(lines) == 0 {
		lines = append(lines, mutedStyle.Render("waiting for activity"))
	}
	m.viewport.SetContent(strings.Join(lines, "\n"))

	if atBottom {
		m.viewport.GotoBottom()
	}
}
