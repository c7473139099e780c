package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/spiffcs/prwatch/internal/output"
)

// NewCmdStatus creates the status command.
func NewCmdStatus(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Refresh once and print what needs your attention",
		Long: `Runs a single refresh and prints the result. Useful in scripts and
shell prompts:
  prwatch status -o json | jq '.summary.attention'`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "output", "o", "", "Output format (text, json, markdown)")
	cmd.Flags().IntVar(&opts.MergedDays, "merged-days", 0, "Days of merged and closed pull requests to show")
	cmd.Flags().IntVar(&opts.NotificationHours, "notification-hours", 0, "Hours of notifications and issues to show")

	return cmd
}

func runStatus(cmd *cobra.Command, opts *Options) error {
	initLogging(opts, false)

	a, err := newApp(opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	return printOnce(ctx, a)
}

// printOnce runs a single refresh and prints the result. A failed refresh
// still prints whatever state is available before returning the error.
func printOnce(ctx context.Context, a *app) error {
	refreshErr := a.svc.Refresh(ctx)
	snap := a.svc.Snapshot()
	a.record(snap)

	formatter := output.NewFormatter(a.format)
	if err := formatter.Format(snap, os.Stdout); err != nil {
		return err
	}
	return refreshErr
}
