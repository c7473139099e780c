package cmd

import (
	"github.com/spf13/cobra"
)

// New creates the root command with all subcommands registered.
func New() *cobra.Command {
	opts := NewOptions()

	rootCmd := &cobra.Command{
		Use:   "prwatch",
		Short: "Keep track of the pull requests that need you",
		Long: `A watcher that polls the GitHub CLI (gh) for your open, merged and
closed pull requests, review requests, notifications and issues, and
highlights the pull requests that need your attention.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, opts)
		},
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().CountVarP(&opts.Verbosity, "verbose", "v", "Increase verbosity (-v info, -vv debug, -vvv trace)")

	// Add watch flags to root command so `prwatch` and `prwatch watch` work identically
	addWatchFlags(rootCmd, opts)

	// Register subcommands
	rootCmd.AddCommand(NewCmdWatch(opts))
	rootCmd.AddCommand(NewCmdStatus(opts))
	rootCmd.AddCommand(NewCmdMute(opts))
	rootCmd.AddCommand(NewCmdPreview(opts))
	rootCmd.AddCommand(NewCmdStats(opts))
	rootCmd.AddCommand(NewCmdConfig())
	rootCmd.AddCommand(NewCmdVersion())

	return rootCmd
}
