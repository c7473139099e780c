package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spiffcs/prwatch/config"
	"github.com/spiffcs/prwatch/internal/duration"
	"github.com/spiffcs/prwatch/internal/enrich"
	"github.com/spiffcs/prwatch/internal/fetch"
	"github.com/spiffcs/prwatch/internal/ghcli"
	"github.com/spiffcs/prwatch/internal/kvstore"
	"github.com/spiffcs/prwatch/internal/log"
	"github.com/spiffcs/prwatch/internal/model"
	"github.com/spiffcs/prwatch/internal/mute"
	"github.com/spiffcs/prwatch/internal/output"
	"github.com/spiffcs/prwatch/internal/preview"
	"github.com/spiffcs/prwatch/internal/service"
	"github.com/spiffcs/prwatch/internal/stats"
)

// app bundles the long-lived components every command is built from.
type app struct {
	format  output.Format
	client  *fetch.Client
	mutes   *mute.Store
	svc     *service.Service
	history *stats.Store
}

// newApp loads the merged config, applies command-line overrides and wires
// the executor, fetch client, enrichment engine, mute store and service.
func newApp(opts *Options) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	settings, err := resolveSettings(cfg, opts)
	if err != nil {
		return nil, err
	}

	formatName := opts.Format
	if formatName == "" {
		formatName = cfg.DefaultFormat
	}
	format, err := output.ParseFormat(formatName)
	if err != nil {
		return nil, err
	}

	state, err := openState(settings.StatePath)
	if err != nil {
		return nil, err
	}

	mutes, err := mute.NewStore(state)
	if err != nil {
		return nil, fmt.Errorf("failed to load muted pull requests: %w", err)
	}

	exec := ghcli.New(
		ghcli.WithPath(settings.GHPath),
		ghcli.WithMaxConcurrency(settings.MaxConcurrency),
		ghcli.WithTimeout(settings.CommandTimeout),
	)
	client := fetch.New(exec)
	engine := enrich.NewEngine(client, settings.MaxConcurrency)

	log.Debug("configured",
		"interval", settings.RefreshInterval,
		"merged_days", settings.MergedDays,
		"notification_hours", settings.NotificationHours,
		"state", state.Path())

	history, err := stats.NewStore()
	if err != nil {
		log.Warn("refresh history disabled", "error", err)
	}

	return &app{
		format:  format,
		client:  client,
		mutes:   mutes,
		svc:     service.New(settings, client, engine, mutes, client),
		history: history,
	}, nil
}

// resolveSettings layers the flag overrides on top of the config file.
func resolveSettings(cfg *config.Config, opts *Options) (config.Settings, error) {
	settings, err := cfg.Settings()
	if err != nil {
		return settings, fmt.Errorf("invalid config: %w", err)
	}

	if opts.Interval != "" {
		d, err := duration.Parse(opts.Interval)
		if err != nil {
			return settings, fmt.Errorf("--interval: %w", err)
		}
		settings.RefreshInterval = d
	}
	if opts.MergedDays > 0 {
		settings.MergedDays = opts.MergedDays
	}
	if opts.NotificationHours > 0 {
		settings.NotificationHours = opts.NotificationHours
	}

	return settings, settings.Validate()
}

func openState(path string) (*kvstore.Store, error) {
	if path == "" {
		p, err := kvstore.DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("failed to locate state directory: %w", err)
		}
		path = p
	}
	return kvstore.Open(path)
}

// newPreviews creates a preview cache bound to the service's login. When
// loaded is non-nil, the id of every finished load is offered to it without
// blocking.
func (a *app) newPreviews(loaded chan<- string) *preview.Cache {
	var opts []preview.Option
	if loaded != nil {
		opts = append(opts, preview.WithNotify(func(id string) {
			select {
			case loaded <- id:
			default:
			}
		}))
	}
	return preview.NewCache(a.client, a.svc.Username, opts...)
}

// invalidatePreviews drops the cached preview of every PR whose updatedAt
// moved (or that left the lists) when a refresh lands, and reloads the one in
// focus if it was dropped or the login changed.
func invalidatePreviews(ctx context.Context, svc *service.Service, cache *preview.Cache, focus *preview.Focus) {
	snapshots, unsubscribe := svc.Subscribe()
	defer unsubscribe()

	var (
		seen     map[string]time.Time
		username string
	)
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			if snap.Loading {
				continue
			}
			next := updatedAtByID(snap)
			current := focus.Current()
			reload := snap.Username != username
			username = snap.Username
			for id, at := range seen {
				if nextAt, ok := next[id]; ok && nextAt.Equal(at) {
					continue
				}
				cache.Invalidate(id)
				if id == current {
					reload = true
				}
			}
			seen = next
			if reload && current != "" {
				focus.Focus(current)
			}
		}
	}
}

func updatedAtByID(snap model.Snapshot) map[string]time.Time {
	m := make(map[string]time.Time)
	for _, prs := range [][]model.PullRequest{snap.OpenPRs, snap.MergedPRs, snap.ClosedPRs} {
		for _, pr := range prs {
			m[pr.ID()] = pr.UpdatedAt
		}
	}
	for _, rr := range snap.ReviewRequests {
		m[rr.ID()] = rr.UpdatedAt
	}
	return m
}

// record appends a completed refresh to the history. Failed or in-progress
// snapshots are skipped.
func (a *app) record(snap model.Snapshot) {
	if a.history == nil || snap.Loading || snap.LastError != "" || snap.LastUpdated.IsZero() {
		return
	}
	if err := a.history.Append(stats.FromSnapshot(snap)); err != nil {
		log.Warn("failed to record refresh history", "error", err)
	}
}

// recordHistory records every refresh the service completes until ctx is
// done.
func (a *app) recordHistory(ctx context.Context) {
	snapshots, unsubscribe := a.svc.Subscribe()
	defer unsubscribe()

	var last time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			if snap.LastUpdated.After(last) {
				last = snap.LastUpdated
				a.record(snap)
			}
		}
	}
}

// reloadOnHangup re-reads the config on SIGHUP and hands the result to the
// service, which restarts its refresh timer.
func (a *app) reloadOnHangup(ctx context.Context, opts *Options) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			cfg, err := config.Load()
			if err != nil {
				log.Warn("config reload failed", "error", err)
				continue
			}
			settings, err := resolveSettings(cfg, opts)
			if err != nil {
				log.Warn("config reload rejected", "error", err)
				continue
			}
			a.svc.UpdateSettings(settings)
		}
	}
}

// initLogging routes logs to stderr, or discards them while the dashboard
// owns the terminal.
func initLogging(opts *Options, dashboard bool) {
	var w io.Writer = os.Stderr
	if dashboard {
		w = io.Discard
	}
	log.Initialize(opts.Verbosity, w)
}

// withProfiling runs fn between profiler start and stop.
func withProfiling(opts *Options, fn func() error) error {
	p := newProfiler(opts)
	if err := p.start(); err != nil {
		return err
	}
	defer p.stop()
	return fn()
}
