package cmd

// Options holds the shared command-line options for the prwatch CLI.
type Options struct {
	Format    string
	Verbosity int
	TUI       *bool // nil = auto-detect, true = force TUI, false = disable TUI

	// Overrides applied on top of the loaded config when non-zero
	Interval          string
	MergedDays        int
	NotificationHours int

	// Profiling options
	CPUProfile string // Write CPU profile to file
	MemProfile string // Write memory profile to file
	Trace      string // Write execution trace to file
}

// Option is a functional option for configuring Options.
type Option func(*Options)

// NewOptions creates a new Options with defaults and applies any provided options.
func NewOptions(opts ...Option) *Options {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithFormat sets the output format (text, json, markdown).
func WithFormat(format string) Option {
	return func(o *Options) {
		o.Format = format
	}
}

// WithVerbosity sets the verbosity level.
func WithVerbosity(v int) Option {
	return func(o *Options) {
		o.Verbosity = v
	}
}

// WithTUI controls TUI mode (nil = auto-detect, true = force, false = disable).
func WithTUI(tui *bool) Option {
	return func(o *Options) {
		o.TUI = tui
	}
}

// WithInterval overrides the refresh interval (e.g., "2m", "1h").
func WithInterval(interval string) Option {
	return func(o *Options) {
		o.Interval = interval
	}
}

// WithMergedDays overrides the merged/closed lookback in days.
func WithMergedDays(days int) Option {
	return func(o *Options) {
		o.MergedDays = days
	}
}

// WithNotificationHours overrides the notification/issue lookback in hours.
func WithNotificationHours(hours int) Option {
	return func(o *Options) {
		o.NotificationHours = hours
	}
}

// WithCPUProfile sets the CPU profile output file.
func WithCPUProfile(path string) Option {
	return func(o *Options) {
		o.CPUProfile = path
	}
}

// WithMemProfile sets the memory profile output file.
func WithMemProfile(path string) Option {
	return func(o *Options) {
		o.MemProfile = path
	}
}

// WithTrace sets the execution trace output file.
func WithTrace(path string) Option {
	return func(o *Options) {
		o.Trace = path
	}
}
