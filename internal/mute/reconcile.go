package mute

import (
	"context"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"
	"golang.org/x/sync/errgroup"

	"github.com/spiffcs/prwatch/internal/constants"
	"github.com/spiffcs/prwatch/internal/heuristics"
	"github.com/spiffcs/prwatch/internal/log"
	"github.com/spiffcs/prwatch/internal/model"
)

// ActivitySource fetches the raw REST comments and reviews of a PR.
type ActivitySource interface {
	IssueComments(ctx context.Context, repo string, number int) ([]*github.IssueComment, error)
	PRReviews(ctx context.Context, repo string, number int) ([]*github.PullRequestReview, error)
}

// ReconcileOptions controls which activity revives a muted PR.
type ReconcileOptions struct {
	Enabled bool
	// HumansOnly ignores bots and automation accounts.
	HumansOnly bool
	// MentionsOnly requires the body to contain @Username.
	MentionsOnly bool
	Username     string
	// Concurrency bounds how many PRs are checked at once.
	Concurrency int
}

// Reconcile unmutes PRs that received qualifying activity after they were
// muted. Only PRs whose updatedAt is after the mute time are fetched. Fetch
// failures leave the PR muted. It returns the ids it unmuted.
func (s *Store) Reconcile(ctx context.Context, src ActivitySource, prs []model.PullRequest, opts ReconcileOptions) ([]string, error) {
	if !opts.Enabled || opts.Username == "" {
		return nil, nil
	}

	type candidate struct {
		pr      model.PullRequest
		mutedAt time.Time
	}
	var candidates []candidate
	for _, pr := range prs {
		at, ok := s.MutedAt(pr.ID())
		if !ok || at.IsZero() {
			continue
		}
		if pr.UpdatedAt.After(at) {
			candidates = append(candidates, candidate{pr: pr, mutedAt: at})
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	limit := opts.Concurrency
	if limit <= 0 {
		limit = constants.DefaultMaxConcurrency
	}

	revived := make([]bool, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, c := range candidates {
		g.Go(func() error {
			ok, err := hasQualifyingActivity(gctx, src, c.pr, c.mutedAt, opts)
			if err != nil {
				log.Warn("auto-unmute check failed", "id", c.pr.ID(), "error", err)
				return nil
			}
			revived[i] = ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	evaluated := make(map[string]time.Time)
	for i, c := range candidates {
		if revived[i] {
			evaluated[c.pr.ID()] = c.mutedAt
		}
	}
	removed, err := s.unmuteIfUnchanged(evaluated)
	if len(removed) > 0 {
		log.Info("auto-unmuted PRs with new activity", "ids", removed)
	}
	return removed, err
}

// hasQualifyingActivity scans comments before reviews and stops at the first
// match, so reviews are only fetched when no comment qualifies.
func hasQualifyingActivity(ctx context.Context, src ActivitySource, pr model.PullRequest, mutedAt time.Time, opts ReconcileOptions) (bool, error) {
	comments, err := src.IssueComments(ctx, pr.Repo(), pr.Number)
	if err != nil {
		return false, err
	}
	for _, c := range comments {
		if qualifies(c.GetUser().GetLogin(), c.GetBody(), c.GetCreatedAt().Time, mutedAt, opts) {
			log.Debug("comment revives muted PR", "id", pr.ID(), "author", c.GetUser().GetLogin())
			return true, nil
		}
	}

	reviews, err := src.PRReviews(ctx, pr.Repo(), pr.Number)
	if err != nil {
		return false, err
	}
	for _, r := range reviews {
		if qualifies(r.GetUser().GetLogin(), r.GetBody(), r.GetSubmittedAt().Time, mutedAt, opts) {
			log.Debug("review revives muted PR", "id", pr.ID(), "author", r.GetUser().GetLogin())
			return true, nil
		}
	}
	return false, nil
}

func qualifies(login, body string, at, mutedAt time.Time, opts ReconcileOptions) bool {
	if !at.After(mutedAt) {
		return false
	}
	if strings.EqualFold(login, opts.Username) {
		return false
	}
	if opts.HumansOnly && !heuristics.IsRealUser(login, opts.Username) {
		return false
	}
	if opts.MentionsOnly && !heuristics.Mentions(body, opts.Username) {
		return false
	}
	return true
}
