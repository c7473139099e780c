package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/spiffcs/prwatch/internal/constants"
	"github.com/spiffcs/prwatch/internal/log"
	"github.com/spiffcs/prwatch/internal/model"
	"github.com/spiffcs/prwatch/internal/output"
	"github.com/spiffcs/prwatch/internal/preview"
	"github.com/spiffcs/prwatch/internal/tui"
)

// NewCmdWatch creates the watch command.
func NewCmdWatch(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch your pull requests (same as root prwatch)",
		Long: `Refreshes your pull requests, review requests, notifications and issues
on an interval. On a terminal this opens a live dashboard; otherwise each
completed refresh is printed.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, opts)
		},
	}

	addWatchFlags(cmd, opts)
	return cmd
}

// addWatchFlags adds the watch-specific flags to a command.
func addWatchFlags(cmd *cobra.Command, opts *Options) {
	cmd.Flags().StringVarP(&opts.Format, "output", "o", "", "Output format for plain mode (text, json, markdown)")
	cmd.Flags().StringVarP(&opts.Interval, "interval", "i", "", "Refresh interval (e.g., 2m, 1h); overrides refresh_interval")
	cmd.Flags().IntVar(&opts.MergedDays, "merged-days", 0, "Days of merged and closed pull requests to show")
	cmd.Flags().IntVar(&opts.NotificationHours, "notification-hours", 0, "Hours of notifications and issues to show")

	// TUI flag with tri-state: nil = auto, true = force, false = disable
	cmd.Flags().Var(newTUIFlag(opts), "tui", "Enable/disable the live dashboard (default: auto-detect)")

	// Profiling flags
	cmd.Flags().StringVar(&opts.CPUProfile, "cpuprofile", "", "Write CPU profile to file")
	cmd.Flags().StringVar(&opts.MemProfile, "memprofile", "", "Write memory profile to file")
	cmd.Flags().StringVar(&opts.Trace, "trace", "", "Write execution trace to file")
}

func runWatch(cmd *cobra.Command, opts *Options) error {
	initLogging(opts, false)

	a, err := newApp(opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dashboard := shouldUseTUI(opts, a.format)
	initLogging(opts, dashboard)

	go a.reloadOnHangup(ctx, opts)

	return withProfiling(opts, func() error {
		if dashboard {
			return runDashboard(ctx, a)
		}
		return runPlain(ctx, a)
	})
}

// runDashboard runs the scheduler in the background and hands the terminal
// to the dashboard until the user quits.
func runDashboard(ctx context.Context, a *app) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	loaded := make(chan string, 1)
	cache := a.newPreviews(loaded)
	focus := preview.NewFocus(ctx, cache, constants.FocusGracePeriod)
	defer focus.Close()

	go func() {
		if err := a.svc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("scheduler stopped", "error", err)
		}
	}()
	go invalidatePreviews(ctx, a.svc, cache, focus)
	go a.recordHistory(ctx)

	return tui.Run(ctx, tui.Options{
		Backend:       a.svc,
		Previews:      cache,
		Focus:         focus,
		PreviewLoaded: loaded,
	})
}

// runPlain prints every completed refresh until interrupted.
func runPlain(ctx context.Context, a *app) error {
	formatter := output.NewFormatter(a.format)
	snapshots, unsubscribe := a.svc.Subscribe()
	defer unsubscribe()

	errc := make(chan error, 1)
	go func() {
		errc <- a.svc.Run(ctx)
	}()

	var last model.Snapshot
	for {
		select {
		case err := <-errc:
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		case snap := <-snapshots:
			if snap.Loading || snap.LastUpdated.Equal(last.LastUpdated) && snap.LastError == last.LastError {
				continue
			}
			if !last.LastUpdated.IsZero() {
				logChange(model.Changed(last, snap))
			}
			last = snap
			a.record(snap)
			if err := formatter.Format(snap, os.Stdout); err != nil {
				return err
			}
			if a.format == output.FormatText {
				fmt.Println()
			}
		}
	}
}

func logChange(c model.Change) {
	if !c.Any() {
		return
	}
	log.Info("snapshot changed",
		"new_attention", len(c.NewAttention),
		"resolved", len(c.Resolved),
		"new_review_requests", len(c.NewReviewRequests))
}
