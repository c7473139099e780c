// Package fetch issues the gh queries prwatch aggregates and decodes their
// payloads into model records.
package fetch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"

	"github.com/spiffcs/prwatch/internal/ghcli"
	"github.com/spiffcs/prwatch/internal/log"
	"github.com/spiffcs/prwatch/internal/model"
)

// Client runs fetch queries through a gh executor.
type Client struct {
	exec ghcli.Executor
	now  func() time.Time
}

// New creates a Client.
func New(exec ghcli.Executor) *Client {
	return &Client{
		exec: exec,
		now:  time.Now,
	}
}

func (c *Client) run(ctx context.Context, args []string) ([]byte, error) {
	log.Debug("running gh", "args", strings.Join(args, " "))
	return c.exec.Run(ctx, args...)
}

// Username returns the login of the authenticated gh user.
func (c *Client) Username(ctx context.Context) (string, error) {
	out, err := c.run(ctx, usernameArgs())
	if err != nil {
		return "", err
	}
	login := strings.TrimSpace(string(out))
	if login == "" {
		return "", &ParseError{What: "username", Err: fmt.Errorf("empty login")}
	}
	return login, nil
}

// OpenPRs returns the user's open PRs.
func (c *Client) OpenPRs(ctx context.Context) ([]model.PullRequest, error) {
	out, err := c.run(ctx, openPRArgs())
	if err != nil {
		return nil, err
	}
	prs, err := DecodeList[model.PullRequest]("open PRs", out)
	if err != nil {
		return nil, err
	}
	return model.Dedupe(prs), nil
}

// MergedPRs returns PRs merged in the last days. Search does not expose
// mergedAt, so closedAt is used in its place.
func (c *Client) MergedPRs(ctx context.Context, days int) ([]model.PullRequest, error) {
	out, err := c.run(ctx, mergedPRArgs(c.now().AddDate(0, 0, -days)))
	if err != nil {
		return nil, err
	}
	prs, err := DecodeList[model.PullRequest]("merged PRs", out)
	if err != nil {
		return nil, err
	}
	for i := range prs {
		prs[i].MergedAt = prs[i].ClosedAt
		prs[i].ClosedAt = nil
	}
	return model.Dedupe(prs), nil
}

// ClosedPRs returns PRs closed in the last days. Merged PRs are included by
// the search and must be removed with CrossFilterClosed.
func (c *Client) ClosedPRs(ctx context.Context, days int) ([]model.PullRequest, error) {
	out, err := c.run(ctx, closedPRArgs(c.now().AddDate(0, 0, -days)))
	if err != nil {
		return nil, err
	}
	prs, err := DecodeList[model.PullRequest]("closed PRs", out)
	if err != nil {
		return nil, err
	}
	return model.Dedupe(prs), nil
}

// ReviewRequests returns open PRs awaiting the user's review.
func (c *Client) ReviewRequests(ctx context.Context) ([]model.ReviewRequest, error) {
	out, err := c.run(ctx, reviewRequestArgs())
	if err != nil {
		return nil, err
	}
	rrs, err := DecodeList[model.ReviewRequest]("review requests", out)
	if err != nil {
		return nil, err
	}
	return model.Dedupe(rrs), nil
}

// Notifications returns notifications updated in the last hours.
func (c *Client) Notifications(ctx context.Context, hours int) ([]model.Notification, error) {
	since := c.now().Add(-time.Duration(hours) * time.Hour)
	out, err := c.run(ctx, notificationArgs(since))
	if err != nil {
		return nil, err
	}
	return DecodeLines[model.Notification]("notifications", out), nil
}

// Issues returns open issues involving the user updated in the last hours.
func (c *Client) Issues(ctx context.Context, hours int) ([]model.Issue, error) {
	since := c.now().Add(-time.Duration(hours) * time.Hour)
	out, err := c.run(ctx, issueArgs(since))
	if err != nil {
		return nil, err
	}
	issues, err := DecodeList[model.Issue]("issues", out)
	if err != nil {
		return nil, err
	}
	return model.Dedupe(issues), nil
}

// PRDetail returns the enrichment payload for one PR.
func (c *Client) PRDetail(ctx context.Context, repo string, number int) (*model.PRDetail, error) {
	out, err := c.run(ctx, prDetailArgs(repo, number))
	if err != nil {
		return nil, err
	}
	return DecodeObject[model.PRDetail]("PR detail", out)
}

// Preview returns the preview payload for one PR.
func (c *Client) Preview(ctx context.Context, repo string, number int) (*model.PreviewPayload, error) {
	out, err := c.run(ctx, previewArgs(repo, number))
	if err != nil {
		return nil, err
	}
	return DecodeObject[model.PreviewPayload]("PR preview", out)
}

// IssueComments returns the raw REST conversation comments of a PR.
func (c *Client) IssueComments(ctx context.Context, repo string, number int) ([]*github.IssueComment, error) {
	out, err := c.run(ctx, issueCommentsArgs(repo, number))
	if err != nil {
		return nil, err
	}
	return DecodePages[*github.IssueComment]("issue comments", out)
}

// PRReviews returns the raw REST reviews of a PR.
func (c *Client) PRReviews(ctx context.Context, repo string, number int) ([]*github.PullRequestReview, error) {
	out, err := c.run(ctx, prReviewsArgs(repo, number))
	if err != nil {
		return nil, err
	}
	return DecodePages[*github.PullRequestReview]("PR reviews", out)
}
