package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/spiffcs/prwatch/internal/format"
	"github.com/spiffcs/prwatch/internal/output"
	"github.com/spiffcs/prwatch/internal/stats"
)

// NewCmdStats creates the stats command.
func NewCmdStats(opts *Options) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show how your pull request load changed over recent refreshes",
		Long: `Every completed refresh records its counts. This prints the most recent
records, oldest first.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStats(opts, limit)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "output", "o", "", "Output format (text, json)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of records to show")

	return cmd
}

func runStats(opts *Options, limit int) error {
	initLogging(opts, false)

	f, err := output.ParseFormat(opts.Format)
	if err != nil {
		return err
	}

	store, err := stats.NewStore()
	if err != nil {
		return fmt.Errorf("failed to open refresh history: %w", err)
	}
	records := store.Recent(limit)

	if f == output.FormatJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if records == nil {
			records = []stats.Record{}
		}
		return enc.Encode(records)
	}
	return printStats(os.Stdout, records, time.Now())
}

func printStats(w io.Writer, records []stats.Record, now time.Time) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No refreshes recorded yet.")
		return err
	}

	bold := color.New(color.Bold)
	bold.Fprintf(w, "%-10s %9s %7s %5s %8s %7s %7s\n",
		"WHEN", "ATTENTION", "REVIEWS", "OPEN", "FAILING", "MUTED", "MEDIAN")

	for i, r := range records {
		attention := fmt.Sprintf("%9d", r.Attention)
		if i > 0 && r.Attention > records[i-1].Attention {
			attention = color.RedString(attention)
		}
		fmt.Fprintf(w, "%-10s %s %7d %5d %8d %7d %7s\n",
			format.Since(r.Timestamp, now),
			attention,
			r.ReviewRequests,
			r.Open,
			r.CIFailure,
			r.Muted,
			medianAge(r))
	}
	return nil
}

func medianAge(r stats.Record) string {
	if r.MedianAgeHours <= 0 {
		return "-"
	}
	return format.FormatAge(time.Duration(r.MedianAgeHours * float64(time.Hour)))
}
