package preview

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-github/v57/github"

	"github.com/spiffcs/prwatch/internal/model"
)

type fakeSource struct {
	previewCalls atomic.Int32
	block        chan struct{}
	err          error
	payload      *model.PreviewPayload
	comments     []*github.IssueComment
}

// Preview returns the configured payload, or one whose Additions counts the
// calls made so far.
func (f *fakeSource) Preview(ctx context.Context, _ string, _ int) (*model.PreviewPayload, error) {
	n := f.previewCalls.Add(1)
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.payload == nil {
		return &model.PreviewPayload{Additions: int(n)}, nil
	}
	return f.payload, nil
}

func (f *fakeSource) IssueComments(context.Context, string, int) ([]*github.IssueComment, error) {
	return f.comments, nil
}

var base = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func mention(login, body string, minutes int) *github.IssueComment {
	return &github.IssueComment{
		User:      &github.User{Login: github.String(login)},
		Body:      github.String(body),
		HTMLURL:   github.String(fmt.Sprintf("https://github.com/o/r/pull/1#c%d", minutes)),
		CreatedAt: &github.Timestamp{Time: base.Add(time.Duration(minutes) * time.Minute)},
	}
}

func TestBuild(t *testing.T) {
	submitted := base.Add(time.Hour)
	p := &model.PreviewPayload{
		Additions: 40,
		Deletions: 12,
		Files: []model.ChangedFile{
			{Path: "a", Additions: 1},
			{Path: "b", Additions: 10},
			{Path: "c", Additions: 5, Deletions: 5},
			{Path: "d", Deletions: 3},
			{Path: "e", Additions: 2},
			{Path: "f", Additions: 7},
			{Path: "g", Deletions: 1},
		},
		ReviewRequests: []model.Requestee{{Login: "dave"}, {Name: "core"}},
		LatestReviews:  []model.DetailReview{{Author: model.Actor{Login: "carol"}, State: "APPROVED", SubmittedAt: &submitted}},
		StatusCheckRollup: []model.StatusCheck{
			{Name: "build", Conclusion: "SUCCESS", DetailsURL: "https://ci/1"},
			{Name: "test", Conclusion: "FAILURE", DetailsURL: "https://ci/2"},
			{Context: "legacy", State: "FAILURE", TargetURL: "https://ci/3"},
		},
		CreatedAt: base,
		UpdatedAt: submitted,
	}
	comments := []*github.IssueComment{
		mention("bob", "@alice one", 5),
		mention("bob", "no mention", 6),
		mention("carol", "@alice two", 1),
		mention("dave", "@alice three", 9),
		mention("erin", "@alice four", 7),
		mention("frank", "@Alice wrong case", 10),
	}

	d := Build(p, comments, "alice")

	var paths []string
	for _, f := range d.Files {
		paths = append(paths, f.Path)
	}
	// b and c tie at 10; server order keeps b first.
	if !slices.Equal(paths, []string{"b", "c", "f", "d", "e"}) {
		t.Errorf("Files = %v", paths)
	}
	if !slices.Equal(d.PendingReviewers, []string{"dave", "core"}) {
		t.Errorf("PendingReviewers = %v", d.PendingReviewers)
	}
	if len(d.Reviews) != 1 || !d.Reviews[0].SubmittedAt.Equal(submitted) {
		t.Errorf("Reviews = %+v", d.Reviews)
	}
	if len(d.FailedRuns) != 2 || d.FailedRuns[0] != (model.FailedRun{Name: "test", URL: "https://ci/2"}) || d.FailedRuns[1].URL != "https://ci/3" {
		t.Errorf("FailedRuns = %+v", d.FailedRuns)
	}

	var bodies []string
	for _, m := range d.Mentions {
		bodies = append(bodies, m.Body)
	}
	if !slices.Equal(bodies, []string{"@alice three", "@alice four", "@alice one"}) {
		t.Errorf("Mentions = %v, want newest three newest-first", bodies)
	}
}

func TestEnsureLoadedCoalesces(t *testing.T) {
	src := &fakeSource{block: make(chan struct{})}
	c := NewCache(src, func() string { return "alice" })

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = c.EnsureLoaded(context.Background(), "o/r#1")
	}()

	deadline := time.Now().Add(2 * time.Second)
	for !c.Loading("o/r#1") {
		if time.Now().After(deadline) {
			t.Fatal("load never started")
		}
		time.Sleep(time.Millisecond)
	}

	// In flight: second call is a no-op.
	if err := c.EnsureLoaded(context.Background(), "o/r#1"); err != nil {
		t.Fatal(err)
	}
	close(src.block)
	wg.Wait()

	if _, ok := c.Get("o/r#1"); !ok {
		t.Fatal("expected cached preview")
	}
	// Cached: another call is a no-op.
	if err := c.EnsureLoaded(context.Background(), "o/r#1"); err != nil {
		t.Fatal(err)
	}
	if n := src.previewCalls.Load(); n != 1 {
		t.Errorf("Preview called %d times, want 1", n)
	}
}

func TestEnsureLoadedErrorAndRetry(t *testing.T) {
	src := &fakeSource{err: errors.New("not found")}
	var notified []string
	c := NewCache(src, nil, WithNotify(func(id string) { notified = append(notified, id) }))

	if err := c.EnsureLoaded(context.Background(), "o/r#1"); err == nil {
		t.Fatal("expected error")
	}
	if _, ok := c.Get("o/r#1"); ok {
		t.Error("failed load should leave no entry")
	}
	if c.Error("o/r#1") == "" {
		t.Error("expected per-id error")
	}
	if c.Error("o/r#2") != "" {
		t.Error("error leaked to another id")
	}

	src.err = nil
	if err := c.EnsureLoaded(context.Background(), "o/r#1"); err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if c.Error("o/r#1") != "" {
		t.Error("successful retry should clear the error")
	}
	if len(notified) != 2 {
		t.Errorf("notify called %d times, want 2", len(notified))
	}
}

func TestEnsureLoadedBadID(t *testing.T) {
	c := NewCache(&fakeSource{}, nil)
	if err := c.EnsureLoaded(context.Background(), "not-an-id"); err == nil {
		t.Error("expected error for malformed id")
	}
}

func TestInvalidate(t *testing.T) {
	src := &fakeSource{}
	c := NewCache(src, nil)
	for _, id := range []string{"o/r#1", "o/r#2"} {
		if err := c.EnsureLoaded(context.Background(), id); err != nil {
			t.Fatal(err)
		}
	}

	c.Invalidate("o/r#1")
	if _, ok := c.Get("o/r#1"); ok {
		t.Error("o/r#1 should be invalidated")
	}
	if _, ok := c.Get("o/r#2"); !ok {
		t.Error("o/r#2 should remain cached")
	}

	c.InvalidateAll()
	if _, ok := c.Get("o/r#2"); ok {
		t.Error("InvalidateAll should clear every entry")
	}

	if err := c.EnsureLoaded(context.Background(), "o/r#2"); err != nil {
		t.Fatal(err)
	}
	if n := src.previewCalls.Load(); n != 3 {
		t.Errorf("Preview called %d times, want 3", n)
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestInvalidateDuringLoadDiscardsStaleResult(t *testing.T) {
	tests := []struct {
		name       string
		invalidate func(c *Cache)
	}{
		{name: "single id", invalidate: func(c *Cache) { c.Invalidate("o/r#1") }},
		{name: "all ids", invalidate: func(c *Cache) { c.InvalidateAll() }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &fakeSource{block: make(chan struct{})}
			c := NewCache(src, func() string { return "alice" })

			var wg sync.WaitGroup
			load := func() {
				wg.Add(1)
				go func() {
					defer wg.Done()
					_ = c.EnsureLoaded(context.Background(), "o/r#1")
				}()
			}

			load()
			waitFor(t, "first load", func() bool { return src.previewCalls.Load() == 1 })

			tt.invalidate(c)
			if c.Loading("o/r#1") {
				t.Error("invalidated load still reported as loading")
			}

			// Refocusing after the refresh must start a new load rather than
			// wait on the stale one.
			load()
			waitFor(t, "second load", func() bool { return src.previewCalls.Load() == 2 })

			close(src.block)
			wg.Wait()

			got, ok := c.Get("o/r#1")
			if !ok {
				t.Fatal("expected the fresh preview to be cached")
			}
			if got.Additions != 2 {
				t.Errorf("cached preview came from load %d, want the post-invalidation load 2", got.Additions)
			}
			if c.Loading("o/r#1") {
				t.Error("expected no load in flight")
			}
		})
	}
}

func TestInvalidateDuringLoadWithoutReload(t *testing.T) {
	src := &fakeSource{block: make(chan struct{})}
	c := NewCache(src, nil)

	done := make(chan error, 1)
	go func() { done <- c.EnsureLoaded(context.Background(), "o/r#1") }()
	waitFor(t, "load", func() bool { return src.previewCalls.Load() == 1 })

	c.Invalidate("o/r#1")
	close(src.block)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get("o/r#1"); ok {
		t.Error("result of an invalidated load was cached")
	}
}

func TestEnsureLoadedReloadsWhenUsernameResolves(t *testing.T) {
	var mu sync.Mutex
	username := ""
	src := &fakeSource{comments: []*github.IssueComment{mention("bob", "@alice ping", 1)}}
	c := NewCache(src, func() string {
		mu.Lock()
		defer mu.Unlock()
		return username
	})

	if err := c.EnsureLoaded(context.Background(), "o/r#1"); err != nil {
		t.Fatal(err)
	}
	if got, _ := c.Get("o/r#1"); len(got.Mentions) != 0 {
		t.Fatalf("Mentions = %v before login is known, want none", got.Mentions)
	}

	mu.Lock()
	username = "alice"
	mu.Unlock()

	if err := c.EnsureLoaded(context.Background(), "o/r#1"); err != nil {
		t.Fatal(err)
	}
	got, _ := c.Get("o/r#1")
	if len(got.Mentions) != 1 || got.Mentions[0].Author != "bob" {
		t.Errorf("Mentions = %+v, want bob's comment", got.Mentions)
	}

	if err := c.EnsureLoaded(context.Background(), "o/r#1"); err != nil {
		t.Fatal(err)
	}
	if n := src.previewCalls.Load(); n != 2 {
		t.Errorf("Preview called %d times, want 2", n)
	}
}

func TestFocusGracePeriod(t *testing.T) {
	c := NewCache(&fakeSource{}, nil)
	f := NewFocus(context.Background(), c, 20*time.Millisecond)
	defer f.Close()

	f.Focus("o/r#1")
	if f.Current() != "o/r#1" {
		t.Fatalf("Current() = %q", f.Current())
	}

	// Refocusing before the grace period cancels the clear.
	f.Blur()
	f.Focus("o/r#2")
	time.Sleep(60 * time.Millisecond)
	if f.Current() != "o/r#2" {
		t.Errorf("Current() = %q, want o/r#2", f.Current())
	}

	f.Blur()
	if f.Current() != "o/r#2" {
		t.Error("focus cleared before the grace period")
	}
	deadline := time.Now().Add(2 * time.Second)
	for f.Current() != "" {
		if time.Now().After(deadline) {
			t.Fatal("focus never cleared")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestFocusLoadsPreview(t *testing.T) {
	c := NewCache(&fakeSource{}, nil)
	f := NewFocus(context.Background(), c, 0)

	f.Focus("o/r#1")
	f.Close()

	if _, ok := c.Get("o/r#1"); !ok {
		t.Error("Close should wait for the focused preview to finish loading")
	}

	f.Focus("o/r#2")
	if f.Current() != "o/r#1" {
		t.Error("Focus after Close should be ignored")
	}
}
