package output

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/spiffcs/prwatch/internal/format"
	"github.com/spiffcs/prwatch/internal/model"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func init() {
	color.NoColor = true
}

func fixedNow() time.Time { return now }

func testSnapshot() model.Snapshot {
	merged := now.Add(-48 * time.Hour)
	return model.Snapshot{
		OpenPRs: []model.PullRequest{
			{
				Number:           1,
				Title:            "Fix flaky test",
				URL:              "https://github.com/o/r/pull/1",
				UpdatedAt:        now.Add(-3 * time.Hour),
				Repository:       model.Repository{NameWithOwner: "o/r"},
				NeedsAttention:   true,
				AttentionReasons: []model.AttentionReason{model.ReasonCIFailure},
			},
			{
				Number:         2,
				Title:          "Add feature",
				UpdatedAt:      now.Add(-time.Hour),
				Repository:     model.Repository{NameWithOwner: "o/r"},
				ReviewDecision: "APPROVED",
			},
			{
				Number:           3,
				Title:            "Muted conflict",
				UpdatedAt:        now.Add(-time.Hour),
				Repository:       model.Repository{NameWithOwner: "o/r"},
				NeedsAttention:   true,
				AttentionReasons: []model.AttentionReason{model.ReasonConflicts},
			},
		},
		MergedPRs: []model.PullRequest{
			{Number: 9, Title: "Shipped", Repository: model.Repository{NameWithOwner: "o/r"}, MergedAt: &merged, Additions: 5, Deletions: 1},
		},
		ReviewRequests: []model.ReviewRequest{
			{Number: 4, Title: "Please review", Author: model.Actor{Login: "alice"}, UpdatedAt: now.Add(-24 * time.Hour), Repository: model.Repository{NameWithOwner: "o/other"}},
		},
		Notifications: []model.Notification{
			{Reason: "mention", Title: "Ping", Repository: "o/r", URL: "https://api.github.com/repos/o/r/issues/5", UpdatedAt: now.Add(-time.Hour)},
		},
		LastUpdated: now.Add(-2 * time.Minute),
		Username:    "me",
		Muted:       map[string]time.Time{"o/r#3": now.Add(-time.Hour)},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"json", FormatJSON, false},
		{"markdown", FormatMarkdown, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTextFormatSections(t *testing.T) {
	f := &TextFormatter{Now: fixedNow}
	var buf strings.Builder
	if err := f.Format(testSnapshot(), &buf); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Needs attention (1)",
		"Open pull requests (3)",
		"Review requests (1)",
		"Recently merged (1)",
		"Notifications (1)",
		"CI failing",
		"@alice",
		"XS+5/-1",
		"1 PRs need attention",
		"1 PRs awaiting your review",
		"1 muted",
		"updated 2m ago",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}

	if strings.Contains(out, "Recently closed") {
		t.Error("empty sections should be omitted")
	}

	// The muted PR shows the muted icon, never the attention icon.
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "o/r#3") && strings.Contains(line, format.AttentionIcon) {
			t.Errorf("muted PR rendered as needing attention: %q", line)
		}
	}
}

func TestTextFormatError(t *testing.T) {
	f := &TextFormatter{Now: fixedNow}
	snap := model.Snapshot{LastError: "GitHub CLI is not authenticated"}

	var buf strings.Builder
	if err := f.Format(snap, &buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "error: GitHub CLI is not authenticated") {
		t.Errorf("expected error banner, got %q", out)
	}
	if !strings.Contains(out, "nothing needs your attention") {
		t.Errorf("expected empty summary, got %q", out)
	}
}

func TestTextFormatTruncatesTitles(t *testing.T) {
	snap := model.Snapshot{OpenPRs: []model.PullRequest{{
		Number:     1,
		Title:      strings.Repeat("x", colTitle*2),
		Repository: model.Repository{NameWithOwner: "o/r"},
		UpdatedAt:  now,
	}}}

	var buf strings.Builder
	if err := (&TextFormatter{Now: fixedNow}).Format(snap, &buf); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), strings.Repeat("x", colTitle)) {
		t.Error("expected title to be truncated to the column width")
	}
}

func TestJSONFormat(t *testing.T) {
	var buf strings.Builder
	if err := NewFormatter(FormatJSON).Format(testSnapshot(), &buf); err != nil {
		t.Fatal(err)
	}

	var got struct {
		OpenPRs   []model.PullRequest `json:"openPRs"`
		Attention []model.PullRequest `json:"attention"`
		Summary   model.Summary       `json:"summary"`
		Username  string              `json:"username"`
	}
	if err := json.Unmarshal([]byte(buf.String()), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(got.OpenPRs) != 3 {
		t.Errorf("len(openPRs) = %d, want 3", len(got.OpenPRs))
	}
	if len(got.Attention) != 1 || got.Attention[0].Number != 1 {
		t.Errorf("attention = %+v, want only #1", got.Attention)
	}
	if got.Summary.Attention != 1 || got.Summary.Muted != 1 {
		t.Errorf("summary = %+v", got.Summary)
	}
	if got.Username != "me" {
		t.Errorf("username = %q", got.Username)
	}
}

func TestJSONFormatEmptyAttention(t *testing.T) {
	var buf strings.Builder
	if err := NewFormatter(FormatJSON).Format(model.Snapshot{}, &buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"attention": []`) {
		t.Errorf("expected empty attention array, got %s", buf.String())
	}
}

func TestFormatMuted(t *testing.T) {
	muted := map[string]time.Time{
		"o/r#2": now.Add(-time.Hour),
		"o/r#1": {},
	}

	var text strings.Builder
	if err := (&TextFormatter{Now: fixedNow}).FormatMuted(muted, &text); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(text.String()), "\n")
	if len(lines) != 2 || !strings.Contains(lines[0], "o/r#1") || !strings.Contains(lines[1], "1h") {
		t.Errorf("text output = %q", text.String())
	}

	var js strings.Builder
	if err := (&JSONFormatter{}).FormatMuted(muted, &js); err != nil {
		t.Fatal(err)
	}
	var entries []MutedEntry
	if err := json.Unmarshal([]byte(js.String()), &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 || entries[0].ID != "o/r#1" || entries[0].MutedAt != nil || entries[1].MutedAt == nil {
		t.Errorf("json entries = %+v", entries)
	}

	var empty strings.Builder
	if err := (&TextFormatter{}).FormatMuted(nil, &empty); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(empty.String(), "No muted pull requests.") {
		t.Errorf("empty output = %q", empty.String())
	}
}

func TestFormatPreview(t *testing.T) {
	d := model.PreviewDetails{
		Additions:        120,
		Deletions:        30,
		Files:            []model.ChangedFile{{Path: "main.go", Additions: 100, Deletions: 10}},
		PendingReviewers: []string{"bob"},
		Reviews:          []model.CompletedReview{{Author: "carol", State: model.ReviewStateApproved, SubmittedAt: now.Add(-time.Hour)}},
		FailedRuns:       []model.FailedRun{{Name: "lint", URL: "https://ci/lint"}},
		Mentions:         []model.MentionComment{{Author: "dave", Body: "hey @me\nlook", CreatedAt: now.Add(-time.Hour)}},
		CreatedAt:        now.Add(-72 * time.Hour),
		UpdatedAt:        now.Add(-time.Hour),
	}

	tests := []struct {
		name   string
		format Format
		want   []string
	}{
		{"text", FormatText, []string{"o/r#1", "M+120/-30", "main.go", "Waiting on bob", "carol", "lint", "@dave (1h): hey @me look"}},
		{"markdown", FormatMarkdown, []string{"# o/r#1", "`main.go`", "`bob`", "**carol** APPROVED", "[lint](https://ci/lint)"}},
		{"json", FormatJSON, []string{`"id": "o/r#1"`, `"path": "main.go"`, `"name": "lint"`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f Formatter
			switch tt.format {
			case FormatText:
				f = &TextFormatter{Now: fixedNow}
			case FormatMarkdown:
				f = &MarkdownFormatter{Now: fixedNow}
			default:
				f = NewFormatter(tt.format)
			}

			var buf strings.Builder
			if err := f.FormatPreview("o/r#1", d, &buf); err != nil {
				t.Fatal(err)
			}
			for _, want := range tt.want {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("output missing %q\n%s", want, buf.String())
				}
			}
		})
	}
}

func TestMarkdownFormat(t *testing.T) {
	f := &MarkdownFormatter{Now: fixedNow}
	var buf strings.Builder
	if err := f.Format(testSnapshot(), &buf); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	for _, want := range []string{
		"*Generated: 2024-06-01 12:00*",
		"| Needs attention | 1 |",
		"[o/r#1](https://github.com/o/r/pull/1) Fix flaky test: CI failing",
		"[o/other#4]",
		"by @alice, updated 1 day ago",
		"(https://github.com/o/r/issues/5)",
		"## Recently merged (1)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
}
