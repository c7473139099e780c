package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spiffcs/prwatch/internal/format"
	"github.com/spiffcs/prwatch/internal/model"
	"github.com/spiffcs/prwatch/internal/urlutil"
)

// MarkdownFormatter formats output as Markdown
type MarkdownFormatter struct {
	// Now overrides the clock used for ages and the report timestamp.
	Now func() time.Time
}

// Format outputs the snapshot as a Markdown report
func (f *MarkdownFormatter) Format(snap model.Snapshot, w io.Writer) error {
	now := nowOr(f.Now)

	fmt.Fprintln(w, "# Pull Request Report")
	fmt.Fprintf(w, "\n*Generated: %s*\n", now.Format("2006-01-02 15:04"))
	if snap.LastError != "" {
		fmt.Fprintf(w, "\n> **Error:** %s\n", snap.LastError)
	}

	s := snap.Summary()
	fmt.Fprintln(w, "\n| Category | Count |")
	fmt.Fprintln(w, "|----------|-------|")
	for _, row := range []struct {
		name  string
		count int
	}{
		{"Needs attention", s.Attention},
		{"Open", s.Open},
		{"Review requests", s.ReviewRequests},
		{"Merged", s.Merged},
		{"Closed", s.Closed},
		{"Notifications", s.Notifications},
		{"Issues", s.Issues},
		{"Muted", s.Muted},
	} {
		fmt.Fprintf(w, "| %s | %d |\n", row.name, row.count)
	}

	attention := snap.AttentionPRs()
	if len(attention) > 0 {
		fmt.Fprintf(w, "\n## %s Needs attention (%d)\n\n", format.AttentionIcon, len(attention))
		for _, pr := range attention {
			reasons := make([]string, len(pr.AttentionReasons))
			for i, r := range pr.AttentionReasons {
				reasons[i] = r.Display()
			}
			fmt.Fprintf(w, "- [%s](%s) %s: %s\n", pr.ID(), pr.URL, escape(pr.Title), strings.Join(reasons, ", "))
		}
	}

	if len(snap.ReviewRequests) > 0 {
		fmt.Fprintf(w, "\n## Review requests (%d)\n\n", len(snap.ReviewRequests))
		for _, rr := range snap.ReviewRequests {
			fmt.Fprintf(w, "- [%s](%s) %s by @%s, updated %s ago\n",
				rr.ID(), rr.URL, escape(rr.Title), rr.Author.Login, formatDuration(now.Sub(rr.UpdatedAt)))
		}
	}

	f.prList(w, "Open pull requests", snap.OpenPRs, snap, now)
	f.prList(w, "Recently merged", snap.MergedPRs, snap, now)
	f.prList(w, "Recently closed", snap.ClosedPRs, snap, now)

	if len(snap.Notifications) > 0 {
		fmt.Fprintf(w, "\n## Notifications (%d)\n\n", len(snap.Notifications))
		for _, n := range snap.Notifications {
			fmt.Fprintf(w, "- [%s](%s) `%s` %s\n", escape(n.Title), urlutil.WebURL(n.URL), n.Reason, urlutil.SubjectRef(n.Repository, n.URL))
		}
	}

	if len(snap.Issues) > 0 {
		fmt.Fprintf(w, "\n## Issues (%d)\n\n", len(snap.Issues))
		for _, is := range snap.Issues {
			fmt.Fprintf(w, "- [%s](%s) %s (%d comments)\n",
				model.FormatID(is.Repository.NameWithOwner, is.Number), is.URL, escape(is.Title), is.CommentsCount)
		}
	}

	return nil
}

func (f *MarkdownFormatter) prList(w io.Writer, title string, prs []model.PullRequest, snap model.Snapshot, now time.Time) {
	if len(prs) == 0 {
		return
	}
	fmt.Fprintf(w, "\n## %s (%d)\n\n", title, len(prs))
	for _, pr := range prs {
		suffix := ""
		if snap.IsMuted(pr.ID()) {
			suffix = " " + format.MutedIcon
		}
		fmt.Fprintf(w, "- [%s](%s) %s, updated %s ago%s\n",
			pr.ID(), pr.URL, escape(pr.Title), formatDuration(now.Sub(pr.SortTime())), suffix)
	}
}

// FormatPreview outputs preview details as Markdown
func (f *MarkdownFormatter) FormatPreview(id string, d model.PreviewDetails, w io.Writer) error {
	fmt.Fprintf(w, "# %s\n\n", id)
	fmt.Fprintf(w, "- **Changes:** +%d/-%d (%s)\n", d.Additions, d.Deletions, format.Size(d.Additions, d.Deletions))
	if len(d.PendingReviewers) > 0 {
		fmt.Fprintf(w, "- **Waiting on:** %s\n", formatLabels(d.PendingReviewers))
	}

	if len(d.Files) > 0 {
		fmt.Fprintln(w, "\n## Top files")
		fmt.Fprintln(w, "| File | + | - |")
		fmt.Fprintln(w, "|------|---|---|")
		for _, file := range d.Files {
			fmt.Fprintf(w, "| `%s` | %d | %d |\n", file.Path, file.Additions, file.Deletions)
		}
	}

	if len(d.Reviews) > 0 {
		fmt.Fprintln(w, "\n## Reviews")
		for _, r := range d.Reviews {
			fmt.Fprintf(w, "- **%s** %s\n", r.Author, r.State)
		}
	}

	if len(d.FailedRuns) > 0 {
		fmt.Fprintln(w, "\n## Failing checks")
		for _, run := range d.FailedRuns {
			fmt.Fprintf(w, "- [%s](%s)\n", run.Name, run.URL)
		}
	}

	if len(d.Mentions) > 0 {
		fmt.Fprintln(w, "\n## Mentions")
		for _, m := range d.Mentions {
			fmt.Fprintf(w, "> %s\n>\n> [@%s](%s)\n\n", strings.Join(strings.Fields(m.Body), " "), m.Author, m.URL)
		}
	}
	return nil
}

// FormatMuted outputs the muted set as a Markdown list
func (f *MarkdownFormatter) FormatMuted(muted map[string]time.Time, w io.Writer) error {
	fmt.Fprintf(w, "# Muted pull requests (%d)\n\n", len(muted))
	now := nowOr(f.Now)
	for _, id := range sortedIDs(muted) {
		at := muted[id]
		if at.IsZero() {
			fmt.Fprintf(w, "- %s\n", id)
			continue
		}
		fmt.Fprintf(w, "- %s (muted %s ago)\n", id, formatDuration(now.Sub(at)))
	}
	return nil
}

func escape(s string) string {
	return strings.NewReplacer("[", `\[`, "]", `\]`).Replace(s)
}

func formatDuration(d time.Duration) string {
	if d < time.Hour {
		return fmt.Sprintf("%d minutes", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%d hours", int(d.Hours()))
	}
	days := int(d.Hours() / 24)
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}

func formatLabels(labels []string) string {
	formatted := make([]string, len(labels))
	for i, l := range labels {
		formatted[i] = "`" + l + "`"
	}
	return strings.Join(formatted, " ")
}
