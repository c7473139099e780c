// Package preview loads and caches the detail shown for a focused PR.
package preview

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/google/go-github/v57/github"
	"golang.org/x/sync/errgroup"

	"github.com/spiffcs/prwatch/internal/constants"
	"github.com/spiffcs/prwatch/internal/heuristics"
	"github.com/spiffcs/prwatch/internal/log"
	"github.com/spiffcs/prwatch/internal/model"
)

// Source provides the payloads a preview is built from. *fetch.Client
// satisfies it.
type Source interface {
	Preview(ctx context.Context, repo string, number int) (*model.PreviewPayload, error)
	IssueComments(ctx context.Context, repo string, number int) ([]*github.IssueComment, error)
}

// Cache holds previews keyed by PR identity. Entries live until explicitly
// invalidated or until the login they were built for changes.
type Cache struct {
	src      Source
	username func() string
	notify   func(id string)

	mu       sync.Mutex
	entries  map[string]entry
	inflight map[string]uint64
	errs     map[string]string
	loads    uint64
}

type entry struct {
	details  model.PreviewDetails
	username string
}

// Option configures a Cache.
type Option func(*Cache)

// WithNotify registers a callback run after each load attempt finishes.
func WithNotify(fn func(id string)) Option {
	return func(c *Cache) {
		c.notify = fn
	}
}

// NewCache creates a Cache. username is consulted on every load so the
// cache works before the login has been resolved.
func NewCache(src Source, username func() string, opts ...Option) *Cache {
	c := &Cache{
		src:      src,
		username: username,
		entries:  make(map[string]entry),
		inflight: make(map[string]uint64),
		errs:     make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EnsureLoaded loads the preview for id unless it is cached for the current
// login or already loading. A failure is recorded per id and leaves no entry,
// so a later call retries. A load that was invalidated while in flight is
// discarded.
func (c *Cache) EnsureLoaded(ctx context.Context, id string) error {
	username := c.currentUsername()

	c.mu.Lock()
	if e, ok := c.entries[id]; ok && e.username == username {
		c.mu.Unlock()
		return nil
	}
	if _, ok := c.inflight[id]; ok {
		c.mu.Unlock()
		return nil
	}
	c.loads++
	ticket := c.loads
	c.inflight[id] = ticket
	c.mu.Unlock()

	details, err := c.load(ctx, id, username)

	c.mu.Lock()
	if c.inflight[id] != ticket {
		c.mu.Unlock()
		log.Debug("discarded stale preview", "id", id)
		return nil
	}
	delete(c.inflight, id)
	if err != nil {
		c.errs[id] = err.Error()
	} else {
		delete(c.errs, id)
		c.entries[id] = entry{details: details, username: username}
	}
	c.mu.Unlock()

	if err != nil {
		log.Warn("failed to load preview", "id", id, "error", err)
	}
	if c.notify != nil {
		c.notify(id)
	}
	return err
}

func (c *Cache) currentUsername() string {
	if c.username == nil {
		return ""
	}
	return c.username()
}

func (c *Cache) load(ctx context.Context, id, username string) (model.PreviewDetails, error) {
	repo, number, err := model.ParseID(id)
	if err != nil {
		return model.PreviewDetails{}, err
	}

	var (
		payload  *model.PreviewPayload
		comments []*github.IssueComment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		payload, err = c.src.Preview(gctx, repo, number)
		if err != nil {
			return fmt.Errorf("pr view: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		comments, err = c.src.IssueComments(gctx, repo, number)
		if err != nil {
			return fmt.Errorf("comments: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return model.PreviewDetails{}, err
	}

	return Build(payload, comments, username), nil
}

// Get returns the cached preview for id.
func (c *Cache) Get(id string) (model.PreviewDetails, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	return e.details, ok
}

// Error returns the last load error for id, or "".
func (c *Cache) Error(id string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errs[id]
}

// Loading reports whether a load for id is in flight.
func (c *Cache) Loading(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inflight[id]
	return ok
}

// Invalidate drops the entry and error for id. A load already in flight for
// id is abandoned, so the next EnsureLoaded starts a fresh one.
func (c *Cache) Invalidate(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, id)
	delete(c.errs, id)
	delete(c.inflight, id)
}

// InvalidateAll drops every entry and error and abandons in-flight loads.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
	clear(c.errs)
	clear(c.inflight)
}

// Build assembles preview details from the pr view payload and the PR's
// conversation comments.
func Build(p *model.PreviewPayload, comments []*github.IssueComment, username string) model.PreviewDetails {
	d := model.PreviewDetails{
		Additions: p.Additions,
		Deletions: p.Deletions,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}

	files := slices.Clone(p.Files)
	slices.SortStableFunc(files, func(a, b model.ChangedFile) int {
		return b.Total() - a.Total()
	})
	d.Files = files[:min(len(files), constants.PreviewTopFiles)]

	for _, r := range p.ReviewRequests {
		if key := r.Key(); key != "" {
			d.PendingReviewers = append(d.PendingReviewers, key)
		}
	}

	for _, r := range p.LatestReviews {
		cr := model.CompletedReview{Author: r.Author.Login, State: r.State}
		if r.SubmittedAt != nil {
			cr.SubmittedAt = *r.SubmittedAt
		}
		d.Reviews = append(d.Reviews, cr)
	}

	for _, check := range p.StatusCheckRollup {
		if check.Failed() {
			d.FailedRuns = append(d.FailedRuns, model.FailedRun{Name: check.DisplayName(), URL: check.Link()})
		}
	}

	d.Mentions = mentions(comments, username)
	return d
}

// mentions keeps the last few comments mentioning username in chronological
// order and returns them newest first.
func mentions(comments []*github.IssueComment, username string) []model.MentionComment {
	var matched []model.MentionComment
	for _, c := range comments {
		if !heuristics.Mentions(c.GetBody(), username) {
			continue
		}
		matched = append(matched, model.MentionComment{
			Author:    c.GetUser().GetLogin(),
			Body:      c.GetBody(),
			URL:       c.GetHTMLURL(),
			CreatedAt: c.GetCreatedAt().Time,
		})
	}
	slices.SortStableFunc(matched, func(a, b model.MentionComment) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	if len(matched) > constants.PreviewMentionComments {
		matched = matched[len(matched)-constants.PreviewMentionComments:]
	}
	slices.Reverse(matched)
	return matched
}
