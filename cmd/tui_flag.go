package cmd

import (
	"fmt"
	"strconv"

	"github.com/spiffcs/prwatch/internal/output"
	"github.com/spiffcs/prwatch/internal/tui"
)

// tuiFlag implements pflag.Value for the tri-state --tui flag.
type tuiFlag struct {
	opts *Options
}

func newTUIFlag(opts *Options) *tuiFlag {
	return &tuiFlag{opts: opts}
}

func (f *tuiFlag) String() string {
	if f.opts.TUI == nil {
		return "auto"
	}
	return strconv.FormatBool(*f.opts.TUI)
}

func (f *tuiFlag) Set(s string) error {
	if s == "auto" {
		f.opts.TUI = nil
		return nil
	}
	switch s {
	case "yes":
		s = "true"
	case "no":
		s = "false"
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("invalid value %q: use true, false, or auto", s)
	}
	f.opts.TUI = &v
	return nil
}

func (f *tuiFlag) Type() string {
	return "bool"
}

func (f *tuiFlag) IsBoolFlag() bool {
	return true
}

// shouldUseTUI decides between the live dashboard and plain output. Verbose
// logging and non-text formats force plain output.
func shouldUseTUI(opts *Options, format output.Format) bool {
	if opts.Verbosity > 0 || format != output.FormatText {
		return false
	}
	if opts.TUI != nil {
		return *opts.TUI
	}
	return tui.ShouldUseTUI()
}
