package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/spiffcs/prwatch/internal/format"
	"github.com/spiffcs/prwatch/internal/model"
)

// Column widths
const (
	colIcon   = format.IconWidth
	colID     = 26
	colTitle  = 50
	colStatus = 28
	colAge    = 4
)

// Lines used by the header, tab bar, table header and footer.
const chromeLines = 9

// previewLines is the height reserved for the preview panel.
const previewLines = 12

// renderDashboard renders the complete view
func renderDashboard(m Dashboard) string {
	var b strings.Builder

	b.WriteString(renderTitleBar(m))
	b.WriteString("\n")
	if m.snap.LastError != "" {
		b.WriteString(errorStyle.Render("  " + m.snap.LastError))
	}
	b.WriteString("\n")
	b.WriteString(renderTabBar(m))
	b.WriteString("\n\n")

	rows := m.rows[m.pane]
	cursor := m.cursor[m.pane]

	r, hasSelection := m.selected()
	showPreview := m.showPreview && hasSelection && r.pr

	availableHeight := m.windowHeight - chromeLines
	if showPreview {
		availableHeight -= previewLines
	}
	availableHeight = max(availableHeight, 3)

	if len(rows) == 0 {
		b.WriteString(renderEmptyState(m.pane, m.snap.Loading))
		b.WriteString("\n\n")
	} else {
		b.WriteString(renderHeader())
		b.WriteString("\n")
		b.WriteString(listSeparatorStyle.Render(strings.Repeat("─", tableWidth())))
		b.WriteString("\n")

		start, end := calculateScrollWindow(cursor, len(rows), availableHeight)
		now := m.now()
		for i := start; i < end; i++ {
			b.WriteString(renderRow(rows[i], i == cursor, now))
			b.WriteString("\n")
		}
	}

	if showPreview {
		b.WriteString("\n")
		b.WriteString(renderPreview(m, r.id))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(renderHelp())

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(listStatusStyle.Render(m.statusMsg))
	}

	return b.String()
}

// renderTitleBar renders the app name, user, badges and refresh state
func renderTitleBar(m Dashboard) string {
	s := m.snap.Summary()

	parts := []string{titleStyle.Render("prwatch")}
	if m.snap.Username != "" {
		parts = append(parts, userStyle.Render("@"+m.snap.Username))
	}
	if s.Attention > 0 {
		parts = append(parts, attentionBadgeStyle.Render(fmt.Sprintf("%s %d", format.AttentionIcon, s.Attention)))
	}
	if s.ReviewRequests > 0 {
		parts = append(parts, reviewBadgeStyle.Render(fmt.Sprintf("%d to review", s.ReviewRequests)))
	}

	switch {
	case m.snap.Loading:
		parts = append(parts, m.spinner.View()+listHelpStyle.Render(" refreshing"))
	case !m.snap.LastUpdated.IsZero():
		parts = append(parts, listHelpStyle.Render("updated "+format.Since(m.snap.LastUpdated, m.now())+" ago"))
	}

	return "  " + strings.Join(parts, "  ")
}

// renderTabBar renders the tab bar at the top of the view
func renderTabBar(m Dashboard) string {
	tabs := make([]string, paneCount)
	for p := range paneCount {
		label := fmt.Sprintf("[ %d: %s (%d) ]", p+1, paneNames[p], len(m.rows[p]))
		if p == m.pane {
			tabs[p] = tabActiveStyle.Render(label)
		} else {
			tabs[p] = tabInactiveStyle.Render(label)
		}
	}
	return "  " + strings.Join(tabs, "  ")
}

// renderHeader renders the table header
func renderHeader() string {
	return listHeaderStyle.Render(fmt.Sprintf(
		"  %-*s%-*s  %-*s  %-*s  %s",
		colIcon, "",
		colID, "Item",
		colTitle, "Title",
		colStatus, "Status",
		"Age",
	))
}

func tableWidth() int {
	return 2 + colIcon + colID + 2 + colTitle + 2 + colStatus + 2 + colAge
}

// renderRow renders a single item row
func renderRow(r row, selected bool, now time.Time) string {
	// Cursor indicator
	cursor := "  "
	if selected {
		cursor = applyStyle(listCursorStyle, "> ", selected)
	}

	icon := format.PadRight(r.icon, format.DisplayWidth(r.icon), colIcon)

	id, idWidth := format.TruncateToWidth(r.id, colID)
	id = format.PadRight(id, idWidth, colID)

	title, titleWidth := format.TruncateToWidth(r.title, colTitle)
	title = format.PadRight(title, titleWidth, colTitle)
	if r.icon == format.MutedIcon {
		title = applyStyle(listMutedStyle, title, selected)
	}

	status, statusWidth := format.TruncateToWidth(r.status, colStatus)
	status = format.PadRight(renderStatus(status, selected), statusWidth, colStatus)

	age := renderAge(r.updatedAt, now, selected)

	line := fmt.Sprintf("%s%s%s  %s  %s  %s", cursor, icon, id, title, status, age)
	if selected {
		return listSelectedStyle.Width(tableWidth()).Render(line)
	}
	return line
}

// renderStatus colors well-known review labels in the status text.
func renderStatus(status string, selected bool) string {
	switch {
	case strings.Contains(status, "approved"):
		return applyStyle(listApprovedStyle, status, selected)
	case strings.Contains(status, "changes"):
		return applyStyle(listChangesStyle, status, selected)
	default:
		return status
	}
}

// renderAge renders the age with appropriate color coding
func renderAge(t, now time.Time, selected bool) string {
	ageStr := format.Since(t, now)
	days := int(now.Sub(t).Hours() / 24)

	switch {
	case t.IsZero():
		return ageStr
	case days >= 30:
		return applyStyle(listAgeCriticalStyle, ageStr, selected)
	case days >= 14:
		return applyStyle(listAgeWarningStyle, ageStr, selected)
	case days >= 7:
		return applyStyle(listAgeModerateStyle, ageStr, selected)
	default:
		return applyStyle(listAgeRecentStyle, ageStr, selected)
	}
}

// renderPreview renders the detail panel for the selected PR
func renderPreview(m Dashboard, id string) string {
	if m.previews == nil {
		return ""
	}

	var lines []string
	d, ok := m.previews.Get(id)
	switch {
	case ok:
		lines = previewLinesFor(id, d, m.now())
	case m.previews.Error(id) != "":
		lines = []string{previewLabelStyle.Render(id), errorStyle.Render("Preview failed: " + m.previews.Error(id))}
	default:
		lines = []string{previewLabelStyle.Render(id), m.spinner.View() + " Loading preview..."}
	}

	if len(lines) > previewLines-2 {
		lines = lines[:previewLines-2]
	}
	return previewBorderStyle.Width(tableWidth() - 2).Render(strings.Join(lines, "\n"))
}

func previewLinesFor(id string, d model.PreviewDetails, now time.Time) []string {
	lines := []string{fmt.Sprintf("%s  %s%s  opened %s ago",
		previewLabelStyle.Render(id),
		additionsStyle.Render(fmt.Sprintf("+%d", d.Additions)),
		deletionsStyle.Render(fmt.Sprintf("/-%d", d.Deletions)),
		format.Since(d.CreatedAt, now),
	)}

	for _, f := range d.Files {
		path, _ := format.TruncateToWidth(f.Path, colTitle)
		lines = append(lines, fmt.Sprintf("  %s%s %s",
			additionsStyle.Render(fmt.Sprintf("+%d", f.Additions)),
			deletionsStyle.Render(fmt.Sprintf("/-%d", f.Deletions)),
			path))
	}

	if len(d.PendingReviewers) > 0 {
		lines = append(lines, previewLabelStyle.Render("Waiting on:")+" "+strings.Join(d.PendingReviewers, ", "))
	}

	if len(d.Reviews) > 0 {
		reviews := make([]string, len(d.Reviews))
		for i, r := range d.Reviews {
			reviews[i] = r.Author + " " + strings.ToLower(strings.ReplaceAll(r.State, "_", " "))
		}
		lines = append(lines, previewLabelStyle.Render("Reviews:")+" "+strings.Join(reviews, ", "))
	}

	for _, run := range d.FailedRuns {
		lines = append(lines, errorStyle.Render(format.CIFailureIcon+" "+run.Name))
	}

	for _, c := range d.Mentions {
		body, _ := format.TruncateToWidth(strings.Join(strings.Fields(c.Body), " "), colTitle+colStatus)
		lines = append(lines, fmt.Sprintf("@%s: %s", c.Author, body))
	}
	return lines
}

// calculateScrollWindow determines which items to show based on cursor position
func calculateScrollWindow(cursor, total, viewHeight int) (start, end int) {
	if total <= viewHeight {
		return 0, total
	}

	start = cursor - viewHeight/2
	if start < 0 {
		start = 0
	}

	end = start + viewHeight
	if end > total {
		end = total
		start = end - viewHeight
		if start < 0 {
			start = 0
		}
	}

	return start, end
}

// renderHelp renders the help text
func renderHelp() string {
	return listHelpStyle.Render("  Tab/1-5: panes   j/k: nav   m: mute   p: preview   r: refresh   enter: open   q: quit")
}

// renderEmptyState renders the empty state message
func renderEmptyState(p pane, loading bool) string {
	if loading {
		return listEmptyStyle.Render("  Loading...")
	}
	switch p {
	case panePRs:
		return listEmptyStyle.Render("  No open pull requests.")
	case paneReviews:
		return listEmptyStyle.Render("  No reviews requested. All caught up!")
	case paneMerged:
		return listEmptyStyle.Render("  Nothing merged with outside activity recently.")
	default:
		return listEmptyStyle.Render("  Nothing here.")
	}
}
