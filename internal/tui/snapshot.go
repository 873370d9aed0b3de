package tui

import (
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/stagehand-sh/stagehand/internal/audit"
	"github.com/stagehand-sh/stagehand/internal/lock"
	"github.com/stagehand-sh/stagehand/internal/lockfile"
	"github.com/stagehand-sh/stagehand/internal/session"
)

// auditTailSize bounds how much audit history each snapshot carries.
const auditTailSize = 50

// lockRow is one held lock as shown in the locks panel.
type lockRow struct {
	SpecID   string
	Owner    string
	Hostname string
	Age      time.Duration
	Timeout  float64
	Expired  bool
}

// sceneRow is one active scene primary as shown in the scenes panel.
type sceneRow struct {
	SceneID   string
	Cycle     int
	SessionID string
	Specs     int
	Objective string
}

// workspaceSnapshot is a point-in-time read of the data directory.
type workspaceSnapshot struct {
	Locks    []lockRow
	Scenes   []sceneRow
	Sessions []session.Info
	Audit    []audit.Entry
	TakenAt  time.Time
}

// collectSnapshot reads the workspace state from disk. It never writes.
func collectSnapshot(dataDir string) (*workspaceSnapshot, error) {
	now := time.Now().UTC()
	snap := &workspaceSnapshot{TakenAt: now}

	codec := lockfile.NewCodec(dataDir)
	specs, err := codec.ListLockedSpecs()
	if err != nil {
		return nil, fmt.Errorf("failed to scan locks: %w", err)
	}
	sort.Strings(specs)
	for _, specID := range specs {
		rec := codec.Read(specID)
		if rec == nil {
			continue
		}
		snap.Locks = append(snap.Locks, lockRow{
			SpecID:   specID,
			Owner:    rec.Owner,
			Hostname: rec.Hostname,
			Age:      lock.Age(rec, now),
			Timeout:  rec.Timeout,
			Expired:  lock.Expired(rec, now),
		})
	}

	store := session.NewStore(dataDir)
	scenes, err := store.ActiveScenes()
	if err != nil {
		return nil, fmt.Errorf("failed to read scenes: %w", err)
	}
	for _, rec := range scenes {
		row := sceneRow{
			SceneID:   rec.Scene.ID,
			Cycle:     rec.Scene.Cycle,
			SessionID: rec.SessionID,
			Objective: rec.Objective,
		}
		if rec.Children != nil {
			row.Specs = len(rec.Children.SpecSessions)
		}
		snap.Scenes = append(snap.Scenes, row)
	}

	infos, err := store.List()
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions: %w", err)
	}
	snap.Sessions = infos

	// A broken audit trail dims the feed but must not blank the dashboard.
	if entries, err := audit.NewFileRecorder(dataDir).Tail(auditTailSize); err == nil {
		snap.Audit = entries
	}

	return snap, nil
}

type feedKind int

const (
	kindLock feedKind = iota
	kindScene
	kindSession
	kindAudit
)

func (k feedKind) style() lipgloss.Style {
	switch k {
	case kindLock:
		return feedLockStyle
	case kindScene:
		return feedSceneStyle
	case kindSession:
		return feedSessionStyle
	default:
		return feedAuditStyle
	}
}

// feedEntry is one line in the event feed.
type feedEntry struct {
	At   time.Time
	Kind feedKind
	Text string
}

// diffSnapshots derives feed entries from the state changes between two
// snapshots. The previous snapshot may be nil (first load), which yields
// nothing: the feed reports what happened while watching, not history.
func diffSnapshots(prev, next *workspaceSnapshot) []feedEntry {
	if prev == nil || next == nil {
		return nil
	}
	at := next.TakenAt
	var feed []feedEntry

	// Locks: appeared, expired, disappeared.
	prevLocks := make(map[string]lockRow, len(prev.Locks))
	for _, l := range prev.Locks {
		prevLocks[l.SpecID] = l
	}
	for _, l := range next.Locks {
		old, ok := prevLocks[l.SpecID]
		switch {
		case !ok:
			feed = append(feed, feedEntry{at, kindLock,
				fmt.Sprintf("lock acquired on %s by %s", l.SpecID, l.Owner)})
		case !old.Expired && l.Expired:
			feed = append(feed, feedEntry{at, kindLock,
				fmt.Sprintf("lock on %s expired (held by %s)", l.SpecID, l.Owner)})
		}
		delete(prevLocks, l.SpecID)
	}
	released := make([]string, 0, len(prevLocks))
	for specID := range prevLocks {
		released = append(released, specID)
	}
	sort.Strings(released)
	for _, specID := range released {
		feed = append(feed, feedEntry{at, kindLock,
			fmt.Sprintf("lock released on %s", specID)})
	}

	// Scenes: new, cycle advanced, gone inactive.
	prevScenes := make(map[string]sceneRow, len(prev.Scenes))
	for _, sc := range prev.Scenes {
		prevScenes[sc.SceneID] = sc
	}
	for _, sc := range next.Scenes {
		old, ok := prevScenes[sc.SceneID]
		switch {
		case !ok:
			feed = append(feed, feedEntry{at, kindScene,
				fmt.Sprintf("scene %s active on cycle %d", sc.SceneID, sc.Cycle)})
		case sc.Cycle > old.Cycle:
			feed = append(feed, feedEntry{at, kindScene,
				fmt.Sprintf("scene %s advanced to cycle %d", sc.SceneID, sc.Cycle)})
		}
		delete(prevScenes, sc.SceneID)
	}
	inactive := make([]string, 0, len(prevScenes))
	for sceneID := range prevScenes {
		inactive = append(inactive, sceneID)
	}
	sort.Strings(inactive)
	for _, sceneID := range inactive {
		feed = append(feed, feedEntry{at, kindScene,
			fmt.Sprintf("scene %s no longer active", sceneID)})
	}

	// Sessions: started, status changed.
	prevSessions := make(map[string]session.Info, len(prev.Sessions))
	for _, s := range prev.Sessions {
		prevSessions[s.SessionID] = s
	}
	for _, s := range next.Sessions {
		if s.Corrupted {
			continue
		}
		old, ok := prevSessions[s.SessionID]
		switch {
		case !ok:
			feed = append(feed, feedEntry{at, kindSession,
				fmt.Sprintf("session %s started", s.SessionID)})
		case old.Status != s.Status:
			feed = append(feed, feedEntry{at, kindSession,
				fmt.Sprintf("session %s now %s", s.SessionID, s.Status)})
		}
	}

	return feed
}

// auditFeed converts audit entries into feed entries. The actor falls back
// to the recording hostname, matching how the audit command displays them.
func auditFeed(entries []audit.Entry) []feedEntry {
	feed := make([]feedEntry, 0, len(entries))
	for _, e := range entries {
		actor := e.Actor
		if actor == "" {
			actor = e.Hostname
		}
		feed = append(feed, feedEntry{
			At:   e.Timestamp,
			Kind: kindAudit,
			Text: fmt.Sprintf("%s on %s by %s", e.Action, e.SpecID, actor),
		})
	}
	return feed
}
