package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/spiffcs/prwatch/internal/log"
	"github.com/spiffcs/prwatch/internal/model"
	"github.com/spiffcs/prwatch/internal/output"
)

// NewCmdMute creates the mute command with its list subcommand.
func NewCmdMute(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mute <owner/repo#number>",
		Short: "Mute or unmute a pull request",
		Long: `Toggles whether a pull request is muted. Muted pull requests stay listed
but never count as needing attention. A muted pull request is unmuted
automatically when it closes, or when someone else comments on it after
it was muted (see auto_unmute in 'prwatch config defaults').`,
		Example: `  prwatch mute spiffcs/prwatch#42
  prwatch mute list`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMuteToggle(opts, args[0])
		},
	}

	cmd.AddCommand(NewCmdMuteList(opts))
	return cmd
}

// NewCmdMuteList creates the mute list subcommand.
func NewCmdMuteList(opts *Options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List muted pull requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMuteList(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "output", "o", "", "Output format (text, json, markdown)")
	return cmd
}

func runMuteToggle(opts *Options, id string) error {
	initLogging(opts, false)

	if _, _, err := model.ParseID(id); err != nil {
		return err
	}

	a, err := newApp(opts)
	if err != nil {
		return err
	}

	muted, err := a.mutes.Toggle(id)
	if err != nil {
		return fmt.Errorf("failed to save mute state: %w", err)
	}
	log.Info("mute toggled", "id", id, "muted", muted)

	if muted {
		fmt.Printf("Muted %s.\n", id)
	} else {
		fmt.Printf("Unmuted %s.\n", id)
	}
	return nil
}

func runMuteList(opts *Options) error {
	initLogging(opts, false)

	a, err := newApp(opts)
	if err != nil {
		return err
	}
	return output.NewFormatter(a.format).FormatMuted(a.mutes.Snapshot(), os.Stdout)
}
