package tui

import "github.com/charmbracelet/lipgloss"

// Dashboard styles - balanced palette (vibrant but not harsh)
var (
	// Neutral UI
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#F1F5F9"))

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")).
			Bold(true)

	listHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#CBD5E1"))

	listSeparatorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#475569"))

	listSelectedStyle = lipgloss.NewStyle().
				Background(lipgloss.Color("#334155")).
				Foreground(lipgloss.Color("#F1F5F9")).
				Bold(true)

	listCursorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#60A5FA")).
			Bold(true)

	listMutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))

	// Badges
	attentionBadgeStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#EF4444")).
				Bold(true)

	reviewBadgeStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#93C5FD"))

	// Status
	listApprovedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#22C55E"))

	listChangesStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#F59E0B"))

	// Age column styles
	listAgeRecentStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#22C55E")) // Green for < 7 days

	listAgeModerateStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FBBF24")) // Yellow for 7-13 days

	listAgeWarningStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#F59E0B")) // Orange for 14-29 days

	listAgeCriticalStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#EF4444")) // Red for 30+ days

	listHelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B"))

	listStatusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#60A5FA"))

	listEmptyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	spinnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86"))

	// Tab bar styles
	tabActiveStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#60A5FA")).
			Bold(true)

	tabInactiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#6B7280"))

	// Preview panel
	previewBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("#475569")).
				Padding(0, 1)

	previewLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#94A3B8")).
				Bold(true)

	additionsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#22C55E"))

	deletionsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#EF4444"))
)

// applyStyle renders text with the given style when not selected.
// When selected, returns plain text to avoid ANSI reset codes that would
// interrupt the selected row's background highlight.
func applyStyle(s lipgloss.Style, text string, selected bool) string {
	if selected {
		return text
	}
	return s.Render(text)
}
