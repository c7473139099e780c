// Package service owns the watcher state: it runs refresh cycles, applies
// mute reconciliation and publishes immutable snapshots to subscribers.
package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/spiffcs/prwatch/config"
	"github.com/spiffcs/prwatch/internal/fetch"
	"github.com/spiffcs/prwatch/internal/ghcli"
	"github.com/spiffcs/prwatch/internal/log"
	"github.com/spiffcs/prwatch/internal/model"
	"github.com/spiffcs/prwatch/internal/mute"
)

// ErrRefreshInProgress is returned when Refresh is called while another
// refresh is running.
var ErrRefreshInProgress = errors.New("refresh already in progress")

// Fetcher runs the primary queries. *fetch.Client satisfies it.
type Fetcher interface {
	Username(ctx context.Context) (string, error)
	FetchAll(ctx context.Context, w fetch.Windows) (*fetch.Result, error)
}

// Enricher adds per-PR detail. *enrich.Engine satisfies it.
type Enricher interface {
	EnrichOpenPRs(ctx context.Context, prs []model.PullRequest) []model.PullRequest
	EnrichMergedPRs(ctx context.Context, prs []model.PullRequest, username string) []model.PullRequest
}

// Service is the single owner of the snapshot. Create one per process and
// pass it to every consumer.
type Service struct {
	fetcher  Fetcher
	enricher Enricher
	mutes    *mute.Store
	activity mute.ActivitySource
	now      func() time.Time

	refreshing atomic.Bool
	reset      chan struct{}

	mu       sync.RWMutex
	settings config.Settings
	snapshot model.Snapshot
	username string

	subMu sync.Mutex
	subs  map[chan model.Snapshot]struct{}
}

// New creates a Service. activity is used by auto-unmute reconciliation.
func New(settings config.Settings, fetcher Fetcher, enricher Enricher, mutes *mute.Store, activity mute.ActivitySource) *Service {
	return &Service{
		fetcher:  fetcher,
		enricher: enricher,
		mutes:    mutes,
		activity: activity,
		now:      time.Now,
		reset:    make(chan struct{}, 1),
		settings: settings,
		snapshot: model.Snapshot{Muted: mutes.Snapshot()},
		subs:     make(map[chan model.Snapshot]struct{}),
	}
}

// Settings returns the current settings.
func (s *Service) Settings() config.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// UpdateSettings replaces the settings and restarts the refresh timer.
func (s *Service) UpdateSettings(settings config.Settings) {
	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()

	select {
	case s.reset <- struct{}{}:
	default:
	}
	log.Info("settings updated", "interval", settings.RefreshInterval)
}

// Username returns the resolved login, or "" before the first successful
// resolution.
func (s *Service) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}

// Snapshot returns a copy of the current state.
func (s *Service) Snapshot() model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot.Clone()
}

// Refresh runs one refresh cycle. Only one cycle runs at a time; a call made
// while another is running returns ErrRefreshInProgress. On failure the
// previous collections are kept and the error is recorded in the snapshot.
func (s *Service) Refresh(ctx context.Context) error {
	if !s.refreshing.CompareAndSwap(false, true) {
		return ErrRefreshInProgress
	}
	defer s.refreshing.Store(false)

	start := s.now()
	s.update(func(snap *model.Snapshot) {
		snap.Loading = true
		snap.LastError = ""
	})

	username, err := s.resolveUsername(ctx)
	if err != nil {
		return s.fail("username", err)
	}

	settings := s.Settings()
	res, err := s.fetcher.FetchAll(ctx, fetch.Windows{
		MergedDays:        settings.MergedDays,
		NotificationHours: settings.NotificationHours,
	})
	if err != nil {
		return s.fail("fetch", err)
	}

	var open, merged []model.PullRequest
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		open = s.enricher.EnrichOpenPRs(gctx, res.OpenPRs)
		return nil
	})
	g.Go(func() error {
		merged = s.enricher.EnrichMergedPRs(gctx, res.MergedPRs, username)
		return nil
	})
	_ = g.Wait()

	merged = withExternalActivity(merged)

	s.reconcileMutes(ctx, open, username, settings)

	s.update(func(snap *model.Snapshot) {
		snap.OpenPRs = open
		snap.MergedPRs = merged
		snap.ClosedPRs = res.ClosedPRs
		snap.ReviewRequests = res.ReviewRequests
		snap.Notifications = res.Notifications
		snap.Issues = res.Issues
		snap.Username = username
		snap.Loading = false
		snap.LastError = ""
		snap.LastUpdated = s.now()
	})

	log.Info("refresh complete", "duration", s.now().Sub(start), "open", len(open), "merged", len(merged))
	return nil
}

func (s *Service) resolveUsername(ctx context.Context) (string, error) {
	if u := s.Username(); u != "" {
		return u, nil
	}
	u, err := s.fetcher.Username(ctx)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.username = u
	s.mu.Unlock()
	log.Debug("resolved username", "login", u)
	return u, nil
}

// reconcileMutes drops mutes for PRs that left the open set, then revives
// PRs with qualifying activity. Failures are logged; mute state is never
// allowed to abort the cycle.
func (s *Service) reconcileMutes(ctx context.Context, open []model.PullRequest, username string, settings config.Settings) {
	ids := make([]string, len(open))
	for i, pr := range open {
		ids[i] = pr.ID()
	}
	if _, err := s.mutes.UnmuteClosed(ids); err != nil {
		log.Warn("failed to persist mute state", "error", err)
	}

	if !settings.AutoUnmute.Enabled {
		return
	}
	_, err := s.mutes.Reconcile(ctx, s.activity, open, mute.ReconcileOptions{
		Enabled:      settings.AutoUnmute.Enabled,
		HumansOnly:   settings.AutoUnmute.HumansOnly,
		MentionsOnly: settings.AutoUnmute.MentionsOnly,
		Username:     username,
		Concurrency:  settings.MaxConcurrency,
	})
	if err != nil {
		log.Warn("auto-unmute failed", "error", err)
	}
}

func (s *Service) fail(stage string, err error) error {
	msg := ghcli.UserMessage(err)
	log.Error("refresh failed", "stage", stage, "error", err)
	s.update(func(snap *model.Snapshot) {
		snap.Loading = false
		snap.LastError = msg
	})
	return err
}

// ToggleMute flips the mute state of a PR and republishes.
func (s *Service) ToggleMute(id string) (bool, error) {
	muted, err := s.mutes.Toggle(id)
	s.update(func(*model.Snapshot) {})
	return muted, err
}

// update applies fn to the snapshot, refreshes its mute view from the mute
// store and publishes the result. Publishing happens under s.mu so
// subscribers receive snapshots in the order they were computed.
func (s *Service) update(fn func(*model.Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.snapshot)
	s.snapshot.Muted = s.mutes.Snapshot()
	s.publish(s.snapshot.Clone())
}

func withExternalActivity(prs []model.PullRequest) []model.PullRequest {
	out := make([]model.PullRequest, 0, len(prs))
	for _, pr := range prs {
		if pr.HasExternalActivity == model.True {
			out = append(out, pr)
		}
	}
	return out
}
