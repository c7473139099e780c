package tui

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/spiffcs/prwatch/internal/format"
	"github.com/spiffcs/prwatch/internal/heuristics"
	"github.com/spiffcs/prwatch/internal/model"
	"github.com/spiffcs/prwatch/internal/service"
	"github.com/spiffcs/prwatch/internal/urlutil"
)

const statusTimeout = 2 * time.Second

// pane is one tab of the dashboard.
type pane int

const (
	panePRs pane = iota
	paneReviews
	paneMerged
	paneNotifications
	paneIssues
	paneCount
)

var paneNames = [paneCount]string{"My PRs", "Reviews", "Merged", "Notifications", "Issues"}

// row is one rendered list entry. Only open PR rows can be muted or
// previewed.
type row struct {
	id        string
	icon      string
	title     string
	status    string
	updatedAt time.Time
	url       string
	pr        bool
}

// Dashboard is the Bubble Tea model for the watch command.
type Dashboard struct {
	ctx           context.Context
	backend       Backend
	previews      Previews
	focus         Focuser
	snapshots     <-chan model.Snapshot
	previewLoaded <-chan string

	snap   model.Snapshot
	rows   [paneCount][]row
	pane   pane
	cursor [paneCount]int

	showPreview bool
	focused     string

	spinner      spinner.Model
	windowWidth  int
	windowHeight int
	statusMsg    string
	quitting     bool
	now          func() time.Time
}

// NewDashboard creates the dashboard model. snapshots is usually the
// channel returned by Backend.Subscribe.
func NewDashboard(ctx context.Context, opts Options, snapshots <-chan model.Snapshot) Dashboard {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	return Dashboard{
		ctx:           ctx,
		backend:       opts.Backend,
		previews:      opts.Previews,
		focus:         opts.Focus,
		snapshots:     snapshots,
		previewLoaded: opts.PreviewLoaded,
		showPreview:   true,
		spinner:       s,
		windowWidth:   100,
		windowHeight:  30,
		now:           time.Now,
	}
}

// Init implements tea.Model
func (m Dashboard) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		waitForSnapshot(m.snapshots),
		waitForPreview(m.previewLoaded),
	)
}

// Update implements tea.Model
func (m Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.windowWidth = msg.Width
		m.windowHeight = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case snapshotMsg:
		m.applySnapshot(model.Snapshot(msg))
		return m, waitForSnapshot(m.snapshots)

	case previewLoadedMsg:
		// The view reads the cache directly; receiving the message redraws.
		return m, waitForPreview(m.previewLoaded)

	case refreshDoneMsg:
		switch {
		case msg.err == nil:
			return m, nil
		case errors.Is(msg.err, service.ErrRefreshInProgress):
			m.statusMsg = "Refresh already in progress"
		default:
			// The snapshot carries the user-facing error.
			return m, nil
		}
		return m, clearStatusAfter(statusTimeout)

	case clearStatusMsg:
		m.statusMsg = ""
		return m, nil
	}

	return m, nil
}

// handleKey processes keyboard input
func (m Dashboard) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		m.quitting = true
		m.blur()
		return m, tea.Quit

	case "tab", "right", "l":
		m.pane = (m.pane + 1) % paneCount
	case "shift+tab", "left", "h":
		m.pane = (m.pane + paneCount - 1) % paneCount
	case "1", "2", "3", "4", "5":
		m.pane = pane(msg.String()[0] - '1')

	case "j", "down":
		if m.cursor[m.pane] < len(m.rows[m.pane])-1 {
			m.cursor[m.pane]++
		}
	case "k", "up":
		if m.cursor[m.pane] > 0 {
			m.cursor[m.pane]--
		}
	case "g", "home":
		m.cursor[m.pane] = 0
	case "G", "end":
		m.cursor[m.pane] = max(len(m.rows[m.pane])-1, 0)

	case "r":
		m.statusMsg = "Refreshing..."
		return m, tea.Batch(refresh(m.ctx, m.backend), clearStatusAfter(statusTimeout))

	case "m":
		return m.toggleMute()

	case "p":
		m.showPreview = !m.showPreview

	case "enter", "o":
		if r, ok := m.selected(); ok && r.url != "" {
			return m, openURL(r.url)
		}
		m.statusMsg = "No URL available"
		return m, clearStatusAfter(statusTimeout)
	}

	m.syncFocus()
	return m, nil
}

// toggleMute flips the mute state of the selected PR. The service
// republishes, so the list updates when the next snapshot arrives.
func (m Dashboard) toggleMute() (tea.Model, tea.Cmd) {
	r, ok := m.selected()
	if !ok || !r.pr {
		return m, nil
	}

	muted, err := m.backend.ToggleMute(r.id)
	switch {
	case err != nil:
		m.statusMsg = "Error: " + err.Error()
	case muted:
		m.statusMsg = "Muted " + r.id
	default:
		m.statusMsg = "Unmuted " + r.id
	}
	return m, clearStatusAfter(statusTimeout)
}

// View implements tea.Model
func (m Dashboard) View() string {
	if m.quitting {
		return ""
	}
	return renderDashboard(m)
}

func (m Dashboard) selected() (row, bool) {
	rows := m.rows[m.pane]
	c := m.cursor[m.pane]
	if c < 0 || c >= len(rows) {
		return row{}, false
	}
	return rows[c], true
}

// applySnapshot rebuilds the rows and keeps each pane's cursor on the same
// item when it is still present.
func (m *Dashboard) applySnapshot(snap model.Snapshot) {
	var keep [paneCount]string
	for p := range paneCount {
		if c := m.cursor[p]; c < len(m.rows[p]) {
			keep[p] = m.rows[p][c].id
		}
	}

	m.snap = snap
	m.rows = buildRows(snap)

	for p := range paneCount {
		idx := slices.IndexFunc(m.rows[p], func(r row) bool { return r.id == keep[p] })
		switch {
		case idx >= 0:
			m.cursor[p] = idx
		case m.cursor[p] >= len(m.rows[p]):
			m.cursor[p] = max(len(m.rows[p])-1, 0)
		}
	}
	m.syncFocus()
}

// syncFocus points the preview tracker at the selected PR, or blurs it when
// the selection is not a PR or the preview is hidden.
func (m *Dashboard) syncFocus() {
	r, ok := m.selected()
	if !m.showPreview || !ok || !r.pr {
		m.blur()
		return
	}
	if r.id == m.focused || m.focus == nil {
		return
	}
	m.focused = r.id
	m.focus.Focus(r.id)
}

func (m *Dashboard) blur() {
	if m.focused == "" || m.focus == nil {
		return
	}
	m.focused = ""
	m.focus.Blur()
}

// buildRows projects a snapshot onto the panes. PRs needing attention sort
// first; muted PRs sort last.
func buildRows(snap model.Snapshot) [paneCount][]row {
	var rows [paneCount][]row

	open := slices.Clone(snap.OpenPRs)
	rank := func(pr model.PullRequest) int {
		switch {
		case snap.IsMuted(pr.ID()):
			return 2
		case pr.NeedsAttention:
			return 0
		default:
			return 1
		}
	}
	slices.SortStableFunc(open, func(a, b model.PullRequest) int {
		return rank(a) - rank(b)
	})
	for _, pr := range open {
		rows[panePRs] = append(rows[panePRs], row{
			id:        pr.ID(),
			icon:      format.RowIcon(pr, snap.IsMuted(pr.ID())),
			title:     pr.Title,
			status:    prStatus(pr),
			updatedAt: pr.UpdatedAt,
			url:       pr.URL,
			pr:        true,
		})
	}

	for _, rr := range snap.ReviewRequests {
		rows[paneReviews] = append(rows[paneReviews], row{
			id:        rr.ID(),
			title:     rr.Title,
			status:    "@" + rr.Author.Login,
			updatedAt: rr.UpdatedAt,
			url:       rr.URL,
		})
	}

	for _, pr := range snap.MergedPRs {
		rows[paneMerged] = append(rows[paneMerged], row{
			id:        pr.ID(),
			title:     pr.Title,
			status:    format.Size(pr.Additions, pr.Deletions),
			updatedAt: pr.SortTime(),
			url:       pr.URL,
		})
	}

	for _, n := range snap.Notifications {
		rows[paneNotifications] = append(rows[paneNotifications], row{
			id:        urlutil.SubjectRef(n.Repository, n.URL),
			title:     n.Title,
			status:    n.Reason,
			updatedAt: n.UpdatedAt,
			url:       urlutil.WebURL(n.URL),
		})
	}

	for _, is := range snap.Issues {
		status := ""
		if is.CommentsCount > 0 {
			status = strconv.Itoa(is.CommentsCount) + " comments"
		}
		rows[paneIssues] = append(rows[paneIssues], row{
			id:        model.FormatID(is.Repository.NameWithOwner, is.Number),
			title:     is.Title,
			status:    status,
			updatedAt: is.UpdatedAt,
			url:       is.URL,
		})
	}

	return rows
}

// prStatus summarizes CI, review and attention state as plain text.
func prStatus(pr model.PullRequest) string {
	var parts []string
	if icon := format.CIIcon(heuristics.CIStatusFrom(pr.StatusChecks)); icon != "" {
		parts = append(parts, icon)
	}
	if label := format.ReviewLabel(heuristics.ReviewStatusFrom(pr.ReviewDecision)); label != "" {
		parts = append(parts, label)
	}
	for _, r := range pr.AttentionReasons {
		parts = append(parts, r.Display())
	}
	if pr.IsDraft {
		parts = append(parts, "draft")
	}
	return strings.Join(parts, " ")
}
