package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	primaryColor = lipgloss.Color("#A78BFA") // Purple
	successColor = lipgloss.Color("#10B981") // Green
	warningColor = lipgloss.Color("#F59E0B") // Amber
	errorColor   = lipgloss.Color("#F87171") // Red
	mutedColor   = lipgloss.Color("#9CA3AF") // Gray
	textColor    = lipgloss.Color("#F9FAFB") // Light text
	borderColor  = lipgloss.Color("#6B7280") // Gray

	// Header bar
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor)

	// Panels
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(borderColor).
			Padding(0, 1)

	panelFocusedStyle = panelStyle.BorderForeground(primaryColor)

	panelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(textColor)

	panelTitleFocusedStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(primaryColor)

	// Lock states
	heldStyle = lipgloss.NewStyle().
			Foreground(successColor)

	expiredStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(errorColor)

	// Feed
	timestampStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	feedLockStyle    = lipgloss.NewStyle().Foreground(warningColor)
	feedSceneStyle   = lipgloss.NewStyle().Foreground(primaryColor)
	feedSessionStyle = lipgloss.NewStyle().Foreground(successColor)
	feedAuditStyle   = lipgloss.NewStyle().Foreground(errorColor)

	// Help bar
	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	helpKeyStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(successColor)
)
