package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/spiffcs/prwatch/internal/format"
	"github.com/spiffcs/prwatch/internal/heuristics"
	"github.com/spiffcs/prwatch/internal/model"
	"github.com/spiffcs/prwatch/internal/urlutil"
)

// Column widths
const (
	colIcon   = format.IconWidth
	colID     = 28
	colTitle  = 44
	colStatus = 24
	colAge    = 4
)

// TextFormatter formats output as terminal text
type TextFormatter struct {
	// Now overrides the clock used for ages.
	Now func() time.Time
}

// hyperlink creates a clickable terminal hyperlink using OSC 8
// Format: \033]8;;URL\033\\TEXT\033]8;;\033\\
func hyperlink(text, url string) string {
	// Only use hyperlinks if stdout is a terminal
	if url == "" || !term.IsTerminal(int(os.Stdout.Fd())) {
		return text
	}
	return fmt.Sprintf("\033]8;;%s\033\\%s\033]8;;\033\\", url, text)
}

// Format outputs the snapshot grouped into sections
func (f *TextFormatter) Format(snap model.Snapshot, w io.Writer) error {
	now := nowOr(f.Now)

	if snap.LastError != "" {
		fmt.Fprintf(w, "%s %s\n\n", color.RedString("error:"), snap.LastError)
	}

	attention := snap.AttentionPRs()
	section(w, "Needs attention", len(attention))
	for _, pr := range attention {
		reasons := make([]string, len(pr.AttentionReasons))
		for i, r := range pr.AttentionReasons {
			reasons[i] = r.Display()
		}
		status := color.RedString(strings.Join(reasons, ", "))
		f.row(w, format.AttentionIcon, pr.ID(), pr.Title, pr.URL, status, format.Since(pr.UpdatedAt, now))
	}

	section(w, "Open pull requests", len(snap.OpenPRs))
	for _, pr := range snap.OpenPRs {
		icon := format.RowIcon(pr, snap.IsMuted(pr.ID()))
		f.row(w, icon, pr.ID(), pr.Title, pr.URL, prStatus(pr), format.Since(pr.UpdatedAt, now))
	}

	section(w, "Review requests", len(snap.ReviewRequests))
	for _, rr := range snap.ReviewRequests {
		author := "@" + format.TruncateUsername(rr.Author.Login, colStatus-1)
		f.row(w, "", rr.ID(), rr.Title, rr.URL, color.CyanString(author), format.Since(rr.UpdatedAt, now))
	}

	section(w, "Recently merged", len(snap.MergedPRs))
	for _, pr := range snap.MergedPRs {
		var at time.Time
		if pr.MergedAt != nil {
			at = *pr.MergedAt
		}
		f.row(w, "", pr.ID(), pr.Title, pr.URL, color.MagentaString(format.Size(pr.Additions, pr.Deletions)), format.Since(at, now))
	}

	section(w, "Recently closed", len(snap.ClosedPRs))
	for _, pr := range snap.ClosedPRs {
		var at time.Time
		if pr.ClosedAt != nil {
			at = *pr.ClosedAt
		}
		f.row(w, "", pr.ID(), pr.Title, pr.URL, "", format.Since(at, now))
	}

	section(w, "Notifications", len(snap.Notifications))
	for _, n := range snap.Notifications {
		f.row(w, "", urlutil.SubjectRef(n.Repository, n.URL), n.Title, urlutil.WebURL(n.URL), color.YellowString(n.Reason), format.Since(n.UpdatedAt, now))
	}

	section(w, "Issues", len(snap.Issues))
	for _, is := range snap.Issues {
		id := model.FormatID(is.Repository.NameWithOwner, is.Number)
		status := ""
		if is.CommentsCount > 0 {
			status = fmt.Sprintf("%d comments", is.CommentsCount)
		}
		f.row(w, "", id, is.Title, is.URL, status, format.Since(is.UpdatedAt, now))
	}

	printFooterSummary(snap, now, w)
	return nil
}

func section(w io.Writer, name string, n int) {
	if n == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s (%d)\n", color.New(color.Bold).Sprint(name), n)
}

func (f *TextFormatter) row(w io.Writer, icon, id, title, url, status, age string) {
	iconCell := format.PadRight(icon, format.DisplayWidth(icon), colIcon)

	id, idWidth := format.TruncateToWidth(id, colID)
	id = format.PadRight(id, idWidth, colID)

	title, titleWidth := format.TruncateToWidth(title, colTitle)
	title = format.PadRight(hyperlink(title, url), titleWidth, colTitle)

	status, statusWidth := format.TruncateToWidth(status, colStatus)
	status = format.PadRight(status, statusWidth, colStatus)

	fmt.Fprintf(w, "  %s%s  %s  %s  %*s\n", iconCell, id, title, status, colAge, age)
}

// prStatus builds the status column from CI, review and size.
func prStatus(pr model.PullRequest) string {
	var parts []string

	switch ci := heuristics.CIStatusFrom(pr.StatusChecks); ci {
	case model.CISuccess:
		parts = append(parts, color.GreenString(format.CIIcon(ci)))
	case model.CIFailure:
		parts = append(parts, color.RedString(format.CIIcon(ci)))
	case model.CIPending:
		parts = append(parts, color.YellowString(format.CIIcon(ci)))
	}

	switch rs := heuristics.ReviewStatusFrom(pr.ReviewDecision); rs {
	case model.ReviewApproved:
		parts = append(parts, color.GreenString(format.ReviewLabel(rs)))
	case model.ReviewChangesRequested:
		parts = append(parts, color.YellowString(format.ReviewLabel(rs)))
	case model.ReviewPending:
		parts = append(parts, color.CyanString(format.ReviewLabel(rs)))
	}

	if pr.IsDraft {
		parts = append(parts, color.HiBlackString("draft"))
	}
	if pr.CommentCount > 0 {
		parts = append(parts, fmt.Sprintf("%dc", pr.CommentCount))
	}
	return strings.Join(parts, " ")
}

// printFooterSummary prints the attention badge line and refresh time
func printFooterSummary(snap model.Snapshot, now time.Time, w io.Writer) {
	s := snap.Summary()

	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("━", 60))

	if s.Total() == 0 {
		fmt.Fprintf(w, "  %s nothing needs your attention\n", color.GreenString(format.CISuccessIcon))
	}
	if s.Attention > 0 {
		fmt.Fprintf(w, "  %s %s PRs need attention\n",
			color.RedString("●"),
			color.RedString("%d", s.Attention))
	}
	if s.ReviewRequests > 0 {
		fmt.Fprintf(w, "  %s %d PRs awaiting your review\n",
			color.CyanString("○"),
			s.ReviewRequests)
	}
	if s.Muted > 0 {
		fmt.Fprintf(w, "  %s %d muted\n", format.MutedIcon, s.Muted)
	}
	if !snap.LastUpdated.IsZero() {
		fmt.Fprintf(w, "  updated %s ago\n", format.FormatAge(now.Sub(snap.LastUpdated)))
	}
}

// FormatPreview outputs preview details for one PR
func (f *TextFormatter) FormatPreview(id string, d model.PreviewDetails, w io.Writer) error {
	now := nowOr(f.Now)

	fmt.Fprintf(w, "%s  %s\n", color.New(color.Bold).Sprint(id), format.Size(d.Additions, d.Deletions))
	fmt.Fprintf(w, "  opened %s ago, updated %s ago\n",
		format.Since(d.CreatedAt, now), format.Since(d.UpdatedAt, now))

	if len(d.Files) > 0 {
		fmt.Fprintln(w, "\nTop files")
		for _, file := range d.Files {
			fmt.Fprintf(w, "  %s %s\n",
				color.GreenString("+%d", file.Additions)+color.RedString("/-%d", file.Deletions),
				file.Path)
		}
	}

	if len(d.PendingReviewers) > 0 {
		fmt.Fprintf(w, "\nWaiting on %s\n", strings.Join(d.PendingReviewers, ", "))
	}

	if len(d.Reviews) > 0 {
		fmt.Fprintln(w, "\nReviews")
		for _, r := range d.Reviews {
			state := format.PadRight(reviewState(r.State), len(r.State), 18)
			fmt.Fprintf(w, "  %-20s %s %s\n", r.Author, state, format.Since(r.SubmittedAt, now))
		}
	}

	if len(d.FailedRuns) > 0 {
		fmt.Fprintln(w, "\nFailing checks")
		for _, run := range d.FailedRuns {
			fmt.Fprintf(w, "  %s %s\n", color.RedString(format.CIFailureIcon), hyperlink(run.Name, run.URL))
		}
	}

	if len(d.Mentions) > 0 {
		fmt.Fprintln(w, "\nMentions")
		for _, m := range d.Mentions {
			body, _ := format.TruncateToWidth(strings.Join(strings.Fields(m.Body), " "), 72)
			fmt.Fprintf(w, "  @%s (%s): %s\n", m.Author, format.Since(m.CreatedAt, now), body)
		}
	}
	return nil
}

func reviewState(state string) string {
	switch state {
	case model.ReviewStateApproved:
		return color.GreenString(state)
	case model.ReviewStateChangesRequested:
		return color.YellowString(state)
	default:
		return state
	}
}

// FormatMuted outputs the muted set sorted by id
func (f *TextFormatter) FormatMuted(muted map[string]time.Time, w io.Writer) error {
	if len(muted) == 0 {
		fmt.Fprintln(w, "No muted pull requests.")
		return nil
	}
	now := nowOr(f.Now)
	for _, id := range sortedIDs(muted) {
		fmt.Fprintf(w, "%s %-*s %s\n", format.MutedIcon, colID, id, format.Since(muted[id], now))
	}
	return nil
}
