package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/spiffcs/prwatch/internal/ghcli"
	"github.com/spiffcs/prwatch/internal/model"
	"github.com/spiffcs/prwatch/internal/output"
	"github.com/spiffcs/prwatch/internal/preview"
)

// NewCmdPreview creates the preview command.
func NewCmdPreview(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview <owner/repo#number>",
		Short: "Show the preview details for one pull request",
		Long: `Loads the same details the dashboard preview shows: size, largest files,
pending reviewers, latest reviews, failed checks and comments that
mention you.`,
		Example: `  prwatch preview spiffcs/prwatch#42`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreview(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "output", "o", "", "Output format (text, json, markdown)")
	return cmd
}

func runPreview(cmd *cobra.Command, opts *Options, id string) error {
	initLogging(opts, false)

	if _, _, err := model.ParseID(id); err != nil {
		return err
	}

	a, err := newApp(opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	username, err := a.client.Username(ctx)
	if err != nil {
		return errors.New(ghcli.UserMessage(err))
	}

	cache := preview.NewCache(a.client, func() string { return username })
	if err := cache.EnsureLoaded(ctx, id); err != nil {
		return fmt.Errorf("preview for %s: %s", id, ghcli.UserMessage(err))
	}

	details, ok := cache.Get(id)
	if !ok {
		return fmt.Errorf("no preview loaded for %s", id)
	}
	return output.NewFormatter(a.format).FormatPreview(id, details, os.Stdout)
}
