// Package enrich augments fetched PRs with per-item detail and derives their
// attention state.
package enrich

import (
	"context"
	"slices"

	"github.com/google/go-github/v57/github"
	"golang.org/x/sync/errgroup"

	"github.com/spiffcs/prwatch/internal/constants"
	"github.com/spiffcs/prwatch/internal/heuristics"
	"github.com/spiffcs/prwatch/internal/log"
	"github.com/spiffcs/prwatch/internal/model"
)

// Source provides the per-PR payloads enrichment needs. *fetch.Client
// satisfies it.
type Source interface {
	PRDetail(ctx context.Context, repo string, number int) (*model.PRDetail, error)
	IssueComments(ctx context.Context, repo string, number int) ([]*github.IssueComment, error)
	PRReviews(ctx context.Context, repo string, number int) ([]*github.PullRequestReview, error)
}

// Engine fans enrichment out across PRs.
type Engine struct {
	src   Source
	limit int
}

// NewEngine creates an Engine running at most limit detail fetches at once.
func NewEngine(src Source, limit int) *Engine {
	if limit <= 0 {
		limit = constants.DefaultMaxConcurrency
	}
	return &Engine{src: src, limit: limit}
}

// EnrichOpenPRs enriches every PR and returns them sorted by updatedAt,
// newest first. A PR whose detail fetch fails is returned un-enriched.
func (e *Engine) EnrichOpenPRs(ctx context.Context, prs []model.PullRequest) []model.PullRequest {
	out := slices.Clone(prs)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.limit)
	for i := range out {
		g.Go(func() error {
			enriched, err := e.EnrichPR(gctx, out[i])
			if err != nil {
				log.Warn("failed to enrich PR", "id", out[i].ID(), "error", err)
				return nil
			}
			out[i] = enriched
			return nil
		})
	}
	_ = g.Wait()

	slices.SortStableFunc(out, func(a, b model.PullRequest) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})
	return out
}

// EnrichPR fetches detail for one PR and applies it.
func (e *Engine) EnrichPR(ctx context.Context, pr model.PullRequest) (model.PullRequest, error) {
	d, err := e.src.PRDetail(ctx, pr.Repo(), pr.Number)
	if err != nil {
		return pr, err
	}
	log.Trace("enriched PR", "id", pr.ID(), "checks", len(d.StatusCheckRollup), "reviews", len(d.Reviews))
	return ApplyDetail(pr, d), nil
}

// ApplyDetail derives the enrichment fields of pr from d.
func ApplyDetail(pr model.PullRequest, d *model.PRDetail) model.PullRequest {
	pr.Enriched = true
	pr.Mergeable = d.Mergeable
	pr.ReviewDecision = d.ReviewDecision
	pr.StatusChecks = slices.Clone(d.StatusCheckRollup)
	pr.CommentCount = len(d.Comments)

	approvals := 0
	reviewers := make(map[string]struct{})
	for _, r := range d.Reviews {
		if r.State == model.ReviewStateApproved {
			approvals++
		}
		if r.Author.Login != "" {
			reviewers[r.Author.Login] = struct{}{}
		}
	}
	// Pending requests count on top of past reviewers, so a re-requested
	// reviewer appears twice.
	pending := 0
	for _, req := range d.ReviewRequests {
		if req.Key() != "" {
			pending++
		}
	}
	pr.ApprovalsCount = approvals
	pr.ReviewersCount = len(reviewers) + pending

	pr.FailingCheck = heuristics.FailingCheck(d.StatusCheckRollup)
	pr.AttentionReasons = heuristics.AttentionReasons(d.Mergeable, d.StatusCheckRollup)
	pr.NeedsAttention = len(pr.AttentionReasons) > 0
	return pr
}

// EnrichMergedPRs determines external activity for each merged PR and sorts
// them by merge time, newest first. Without a username the PRs are returned
// unchanged.
func (e *Engine) EnrichMergedPRs(ctx context.Context, prs []model.PullRequest, username string) []model.PullRequest {
	if username == "" {
		return prs
	}
	out := slices.Clone(prs)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.limit)
	for i := range out {
		g.Go(func() error {
			out[i].HasExternalActivity = e.CheckExternalActivity(gctx, out[i], username)
			return nil
		})
	}
	_ = g.Wait()

	slices.SortStableFunc(out, func(a, b model.PullRequest) int {
		return b.SortTime().Compare(a.SortTime())
	})
	return out
}

// CheckExternalActivity reports whether a human other than username
// commented on or reviewed pr. Fetch failures report False.
func (e *Engine) CheckExternalActivity(ctx context.Context, pr model.PullRequest, username string) model.Tristate {
	var (
		comments []*github.IssueComment
		reviews  []*github.PullRequestReview
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		comments, err = e.src.IssueComments(gctx, pr.Repo(), pr.Number)
		return err
	})
	g.Go(func() error {
		var err error
		reviews, err = e.src.PRReviews(gctx, pr.Repo(), pr.Number)
		return err
	})
	if err := g.Wait(); err != nil {
		log.Warn("failed to check external activity", "id", pr.ID(), "error", err)
		return model.False
	}

	external := slices.ContainsFunc(comments, func(c *github.IssueComment) bool {
		return isExternal(c.GetUser(), username)
	}) || slices.ContainsFunc(reviews, func(r *github.PullRequestReview) bool {
		return isExternal(r.GetUser(), username)
	})
	return model.TristateOf(external)
}

func isExternal(u *github.User, username string) bool {
	return u.GetType() == "User" && heuristics.IsRealUser(u.GetLogin(), username)
}
