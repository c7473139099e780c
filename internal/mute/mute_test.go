package mute

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/go-github/v57/github"

	"github.com/spiffcs/prwatch/internal/constants"
	"github.com/spiffcs/prwatch/internal/kvstore"
	"github.com/spiffcs/prwatch/internal/model"
)

var t0 = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T, kv KV) *Store {
	t.Helper()
	s, err := NewStore(kv)
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	s.now = func() time.Time { return t0 }
	return s
}

func TestToggleTwiceRestoresState(t *testing.T) {
	kv := kvstore.Memory()
	s := newTestStore(t, kv)

	if _, err := s.Toggle("o/r#1"); err != nil {
		t.Fatal(err)
	}
	before := s.Snapshot()

	muted, err := s.Toggle("o/r#2")
	if err != nil || !muted {
		t.Fatalf("Toggle() = (%v, %v), want (true, nil)", muted, err)
	}
	muted, err = s.Toggle("o/r#2")
	if err != nil || muted {
		t.Fatalf("Toggle() = (%v, %v), want (false, nil)", muted, err)
	}

	if !maps.Equal(before, s.Snapshot()) {
		t.Errorf("state after double toggle = %v, want %v", s.Snapshot(), before)
	}

	var stamps map[string]int64
	if _, err := kv.Get(constants.KeyMuteTimestamps, &stamps); err != nil {
		t.Fatal(err)
	}
	if _, ok := stamps["o/r#2"]; ok {
		t.Error("orphaned timestamp left behind after unmute")
	}
}

func TestUnmutingLastPRClearsState(t *testing.T) {
	kv := kvstore.Memory()
	s := newTestStore(t, kv)

	for range 2 {
		if _, err := s.Toggle("o/r#1"); err != nil {
			t.Fatal(err)
		}
	}
	if keys := kv.Keys(); len(keys) != 0 {
		t.Errorf("expected no persisted keys once nothing is muted, got %v", keys)
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	kv := kvstore.Memory()
	s := newTestStore(t, kv)
	if _, err := s.Toggle("o/r#1"); err != nil {
		t.Fatal(err)
	}

	reloaded := newTestStore(t, kv)
	at, ok := reloaded.MutedAt("o/r#1")
	if !ok {
		t.Fatal("expected o/r#1 to be muted after reload")
	}
	if !at.Equal(t0) {
		t.Errorf("MutedAt() = %v, want %v", at, t0)
	}
}

func TestLoadWithoutTimestamp(t *testing.T) {
	kv := kvstore.Memory()
	if err := kv.Set(constants.KeyMutedPRs, []string{"o/r#1"}); err != nil {
		t.Fatal(err)
	}
	s := newTestStore(t, kv)

	at, ok := s.MutedAt("o/r#1")
	if !ok || !at.IsZero() {
		t.Errorf("MutedAt() = (%v, %v), want zero time and muted", at, ok)
	}
}

func TestUnmuteClosedIdempotent(t *testing.T) {
	s := newTestStore(t, kvstore.Memory())
	for _, id := range []string{"o/r#1", "o/r#2", "o/r#3"} {
		if _, err := s.Toggle(id); err != nil {
			t.Fatal(err)
		}
	}

	open := []string{"o/r#2", "o/r#9"}
	removed, err := s.UnmuteClosed(open)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(removed, []string{"o/r#1", "o/r#3"}) {
		t.Errorf("UnmuteClosed() = %v", removed)
	}
	after := s.Snapshot()

	removed, err = s.UnmuteClosed(open)
	if err != nil {
		t.Fatal(err)
	}
	if len(removed) != 0 {
		t.Errorf("second UnmuteClosed() removed %v", removed)
	}
	if !maps.Equal(after, s.Snapshot()) {
		t.Error("second UnmuteClosed() changed state")
	}
	if !slices.Equal(s.MutedIDs(), []string{"o/r#2"}) {
		t.Errorf("MutedIDs() = %v", s.MutedIDs())
	}
}

type fakeActivity struct {
	mu       sync.Mutex
	comments map[string][]*github.IssueComment
	reviews  map[string][]*github.PullRequestReview
	errs     map[string]error
	calls    map[string]int
}

func (f *fakeActivity) record(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[key]++
}

func (f *fakeActivity) IssueComments(_ context.Context, repo string, number int) ([]*github.IssueComment, error) {
	id := model.FormatID(repo, number)
	f.record("comments:" + id)
	if err := f.errs[id]; err != nil {
		return nil, err
	}
	return f.comments[id], nil
}

func (f *fakeActivity) PRReviews(_ context.Context, repo string, number int) ([]*github.PullRequestReview, error) {
	id := model.FormatID(repo, number)
	f.record("reviews:" + id)
	if err := f.errs[id]; err != nil {
		return nil, err
	}
	return f.reviews[id], nil
}

func comment(login, typ, body string, at time.Time) *github.IssueComment {
	return &github.IssueComment{
		User:      &github.User{Login: github.String(login), Type: github.String(typ)},
		Body:      github.String(body),
		CreatedAt: &github.Timestamp{Time: at},
	}
}

func review(login, body string, at time.Time) *github.PullRequestReview {
	return &github.PullRequestReview{
		User:        &github.User{Login: github.String(login)},
		Body:        github.String(body),
		SubmittedAt: &github.Timestamp{Time: at},
	}
}

func openPR(number int, updated time.Time) model.PullRequest {
	return model.PullRequest{Number: number, UpdatedAt: updated, Repository: model.Repository{NameWithOwner: "o/r"}}
}

func defaultOpts() ReconcileOptions {
	return ReconcileOptions{Enabled: true, HumansOnly: true, MentionsOnly: true, Username: "alice", Concurrency: 2}
}

func TestReconcile(t *testing.T) {
	t1 := t0.Add(time.Hour)

	tests := []struct {
		name       string
		comments   []*github.IssueComment
		reviews    []*github.PullRequestReview
		opts       ReconcileOptions
		wantUnmute bool
	}{
		{
			name:       "human mention after mute",
			comments:   []*github.IssueComment{comment("bob", "User", "@alice ptal", t1)},
			opts:       defaultOpts(),
			wantUnmute: true,
		},
		{
			name:     "bot mention stays muted",
			comments: []*github.IssueComment{comment("dependabot[bot]", "Bot", "@alice bumped", t1)},
			opts:     defaultOpts(),
		},
		{
			name:     "comment before mute",
			comments: []*github.IssueComment{comment("bob", "User", "@alice ptal", t0.Add(-time.Minute))},
			opts:     defaultOpts(),
		},
		{
			name:     "self comment",
			comments: []*github.IssueComment{comment("Alice", "User", "@alice note to self", t1)},
			opts:     defaultOpts(),
		},
		{
			name:     "no mention with mentions only",
			comments: []*github.IssueComment{comment("bob", "User", "looks good", t1)},
			opts:     defaultOpts(),
		},
		{
			name:       "no mention without mentions only",
			comments:   []*github.IssueComment{comment("bob", "User", "looks good", t1)},
			opts:       ReconcileOptions{Enabled: true, HumansOnly: true, Username: "alice"},
			wantUnmute: true,
		},
		{
			name:       "bot allowed when humans only disabled",
			comments:   []*github.IssueComment{comment("renovate[bot]", "Bot", "@alice", t1)},
			opts:       ReconcileOptions{Enabled: true, MentionsOnly: true, Username: "alice"},
			wantUnmute: true,
		},
		{
			name:       "review with mention",
			reviews:    []*github.PullRequestReview{review("carol", "@alice one nit", t1)},
			opts:       defaultOpts(),
			wantUnmute: true,
		},
		{
			name:     "disabled",
			comments: []*github.IssueComment{comment("bob", "User", "@alice ptal", t1)},
			opts:     ReconcileOptions{HumansOnly: true, MentionsOnly: true, Username: "alice"},
		},
		{
			name:     "no username",
			comments: []*github.IssueComment{comment("bob", "User", "@alice ptal", t1)},
			opts:     ReconcileOptions{Enabled: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t, kvstore.Memory())
			if _, err := s.Toggle("o/r#1"); err != nil {
				t.Fatal(err)
			}
			src := &fakeActivity{
				comments: map[string][]*github.IssueComment{"o/r#1": tt.comments},
				reviews:  map[string][]*github.PullRequestReview{"o/r#1": tt.reviews},
			}

			removed, err := s.Reconcile(context.Background(), src, []model.PullRequest{openPR(1, t1)}, tt.opts)
			if err != nil {
				t.Fatalf("Reconcile() error: %v", err)
			}
			if got := !s.IsMuted("o/r#1"); got != tt.wantUnmute {
				t.Errorf("unmuted = %v, want %v", got, tt.wantUnmute)
			}
			if tt.wantUnmute && !slices.Equal(removed, []string{"o/r#1"}) {
				t.Errorf("Reconcile() returned %v", removed)
			}
		})
	}
}

func TestReconcileSkipsUnchangedPRs(t *testing.T) {
	s := newTestStore(t, kvstore.Memory())
	if _, err := s.Toggle("o/r#1"); err != nil {
		t.Fatal(err)
	}
	src := &fakeActivity{}

	// updatedAt equal to the mute time is not strictly after
	if _, err := s.Reconcile(context.Background(), src, []model.PullRequest{openPR(1, t0)}, defaultOpts()); err != nil {
		t.Fatal(err)
	}
	if len(src.calls) != 0 {
		t.Errorf("expected no fetches, got %v", src.calls)
	}
}

func TestReconcileCommentsShortCircuitReviews(t *testing.T) {
	s := newTestStore(t, kvstore.Memory())
	if _, err := s.Toggle("o/r#1"); err != nil {
		t.Fatal(err)
	}
	src := &fakeActivity{
		comments: map[string][]*github.IssueComment{"o/r#1": {comment("bob", "User", "@alice", t0.Add(time.Hour))}},
	}

	if _, err := s.Reconcile(context.Background(), src, []model.PullRequest{openPR(1, t0.Add(time.Hour))}, defaultOpts()); err != nil {
		t.Fatal(err)
	}
	if src.calls["reviews:o/r#1"] != 0 {
		t.Error("reviews fetched after a qualifying comment")
	}
}

func TestReconcileFetchErrorKeepsMuted(t *testing.T) {
	s := newTestStore(t, kvstore.Memory())
	for _, id := range []string{"o/r#1", "o/r#2"} {
		if _, err := s.Toggle(id); err != nil {
			t.Fatal(err)
		}
	}
	t1 := t0.Add(time.Hour)
	src := &fakeActivity{
		comments: map[string][]*github.IssueComment{"o/r#2": {comment("bob", "User", "@alice", t1)}},
		errs:     map[string]error{"o/r#1": errors.New("gh exploded")},
	}

	removed, err := s.Reconcile(context.Background(), src, []model.PullRequest{openPR(1, t1), openPR(2, t1)}, defaultOpts())
	if err != nil {
		t.Fatalf("Reconcile() error: %v", err)
	}
	if !s.IsMuted("o/r#1") {
		t.Error("PR with failing fetch should stay muted")
	}
	if !slices.Equal(removed, []string{"o/r#2"}) {
		t.Errorf("Reconcile() = %v, want [o/r#2]", removed)
	}
}

func TestReconcileKeepsNewerMute(t *testing.T) {
	s := newTestStore(t, kvstore.Memory())
	if _, err := s.Toggle("o/r#1"); err != nil {
		t.Fatal(err)
	}

	// Simulate the user unmuting and re-muting while activity is evaluated.
	removed, err := s.unmuteIfUnchanged(map[string]time.Time{"o/r#1": t0.Add(-time.Hour)})
	if err != nil {
		t.Fatal(err)
	}
	if len(removed) != 0 || !s.IsMuted("o/r#1") {
		t.Error("stale evaluation should not unmute a newer mute")
	}
}
