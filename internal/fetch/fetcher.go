package fetch

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/spiffcs/prwatch/internal/log"
	"github.com/spiffcs/prwatch/internal/model"
)

// Windows are the lookback periods for time-bounded queries.
type Windows struct {
	MergedDays        int
	NotificationHours int
}

// Result holds the primary collections of one fetch.
type Result struct {
	OpenPRs        []model.PullRequest
	MergedPRs      []model.PullRequest
	ClosedPRs      []model.PullRequest
	ReviewRequests []model.ReviewRequest
	Notifications  []model.Notification
	Issues         []model.Issue
}

// FetchAll runs every primary query in parallel. Any failure fails the call.
func (c *Client) FetchAll(ctx context.Context, w Windows) (*Result, error) {
	result := &Result{}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		prs, err := c.OpenPRs(gctx)
		if err != nil {
			return fmt.Errorf("open PRs: %w", err)
		}
		mu.Lock()
		result.OpenPRs = prs
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		prs, err := c.MergedPRs(gctx, w.MergedDays)
		if err != nil {
			return fmt.Errorf("merged PRs: %w", err)
		}
		mu.Lock()
		result.MergedPRs = prs
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		prs, err := c.ClosedPRs(gctx, w.MergedDays)
		if err != nil {
			return fmt.Errorf("closed PRs: %w", err)
		}
		mu.Lock()
		result.ClosedPRs = prs
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		rrs, err := c.ReviewRequests(gctx)
		if err != nil {
			return fmt.Errorf("review requests: %w", err)
		}
		mu.Lock()
		result.ReviewRequests = rrs
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		ns, err := c.Notifications(gctx, w.NotificationHours)
		if err != nil {
			return fmt.Errorf("notifications: %w", err)
		}
		mu.Lock()
		result.Notifications = ns
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		issues, err := c.Issues(gctx, w.NotificationHours)
		if err != nil {
			return fmt.Errorf("issues: %w", err)
		}
		mu.Lock()
		result.Issues = issues
		mu.Unlock()
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	result.ClosedPRs = CrossFilterClosed(result.MergedPRs, result.ClosedPRs)

	log.Info("fetched",
		"open", len(result.OpenPRs),
		"merged", len(result.MergedPRs),
		"closed", len(result.ClosedPRs),
		"reviewRequests", len(result.ReviewRequests),
		"notifications", len(result.Notifications),
		"issues", len(result.Issues))

	return result, nil
}

// CrossFilterClosed drops closed PRs that also appear among the merged PRs.
// Search returns merged PRs for both queries when the windows overlap. PRs
// are matched by identity so equal numbers in different repositories do not
// collide.
func CrossFilterClosed(merged, closed []model.PullRequest) []model.PullRequest {
	mergedIDs := make(map[string]struct{}, len(merged))
	for _, pr := range merged {
		mergedIDs[pr.ID()] = struct{}{}
	}

	out := make([]model.PullRequest, 0, len(closed))
	for _, pr := range closed {
		if _, ok := mergedIDs[pr.ID()]; ok {
			continue
		}
		out = append(out, pr)
	}
	return out
}
