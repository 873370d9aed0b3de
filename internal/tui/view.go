package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/stagehand-sh/stagehand/internal/util"
)

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderLocks())
	b.WriteString("\n")
	b.WriteString(m.renderScenes())
	b.WriteString("\n")
	b.WriteString(m.renderFeed())
	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(errorStyle.Render(util.TruncateString("error: "+m.err.Error(), m.width)))
		b.WriteString("\n")
	}
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m Model) renderHeader() string {
	mode := "watching"
	if m.watcher == nil {
		mode = "polling"
	}
	left := headerStyle.Render("stagehand") + " " + m.spin.View() + " " + mutedStyle.Render(mode)
	right := mutedStyle.Render(m.dataDir)
	line := left + "  " + right
	return util.TruncateANSI(line, m.width)
}

// panelStyles returns the border and title styles for a panel, sized to
// the terminal and highlighted when the panel has focus.
func (m Model) panelStyles(p pane) (border, title lipgloss.Style) {
	border, title = panelStyle, panelTitleStyle
	if m.focus == p {
		border, title = panelFocusedStyle, panelTitleFocusedStyle
	}
	if m.width > 2 {
		border = border.Width(m.width - 2)
	}
	return border, title
}

func (m Model) renderLocks() string {
	border, title := m.panelStyles(paneLocks)
	width := m.contentWidth()

	var locks []lockRow
	if m.snap != nil {
		locks = m.snap.Locks
	}

	lines := []string{title.Render(fmt.Sprintf("Locks (%d)", len(locks)))}
	if len(locks) == 0 {
		lines = append(lines, mutedStyle.Render("no locks held"))
	}
	shown := locks
	if len(shown) > maxLockRows {
		shown = shown[:maxLockRows]
	}
	for _, l := range shown {
		state := heldStyle.Render("held")
		if l.Expired {
			state = expiredStyle.Render("expired")
		}
		row := fmt.Sprintf("%-24s %-16s %-10s %-8s ",
			util.TruncateString(l.SpecID, 24),
			util.TruncateString(l.Owner, 16),
			util.TruncateString(l.Hostname, 10),
			util.FormatAge(l.Age))
		lines = append(lines, util.TruncateANSI(row+state, width))
	}
	if len(locks) > maxLockRows {
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("… and %d more", len(locks)-maxLockRows)))
	}

	return border.Render(strings.Join(lines, "\n"))
}

func (m Model) renderScenes() string {
	border, title := m.panelStyles(paneScenes)
	width := m.contentWidth()

	var scenes []sceneRow
	if m.snap != nil {
		scenes = m.snap.Scenes
	}

	lines := []string{title.Render(fmt.Sprintf("Active scenes (%d)", len(scenes)))}
	if len(scenes) == 0 {
		lines = append(lines, mutedStyle.Render("no active scenes"))
	}
	shown := scenes
	if len(shown) > maxSceneRows {
		shown = shown[:maxSceneRows]
	}
	for _, sc := range shown {
		row := fmt.Sprintf("%-20s cycle %-3d %-2d specs  %s",
			util.TruncateString(sc.SceneID, 20),
			sc.Cycle,
			sc.Specs,
			util.TruncateString(sc.Objective, 40))
		lines = append(lines, util.TruncateANSI(row, width))
	}
	if len(scenes) > maxSceneRows {
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("… and %d more", len(scenes)-maxSceneRows)))
	}

	return border.Render(strings.Join(lines, "\n"))
}

func (m Model) renderFeed() string {
	border, title := m.panelStyles(paneFeed)
	header := title.Render(fmt.Sprintf("Events (%d)", len(m.feed)))
	return border.Render(header + "\n" + m.viewport.View())
}

func (m Model) renderHelp() string {
	keys := []struct{ key, desc string }{
		{"q", "quit"},
		{"r", "refresh"},
		{"tab", "focus"},
		{"j/k", "scroll"},
		{"g/G", "top/bottom"},
	}
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, helpKeyStyle.Render(k.key)+" "+helpStyle.Render(k.desc))
	}
	return util.TruncateANSI(strings.Join(parts, helpStyle.Render(" · ")), m.width)
}

// contentWidth is the renderable width inside a panel border.
func (m Model) contentWidth() int {
	w := m.width - 4
	if w < 10 {
		w = 10
	}
	return w
}
