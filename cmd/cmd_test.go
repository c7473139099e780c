package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/spiffcs/prwatch/config"
	"github.com/spiffcs/prwatch/internal/model"
	"github.com/spiffcs/prwatch/internal/output"
	"github.com/spiffcs/prwatch/internal/stats"
)

func TestNew(t *testing.T) {
	cmd := New()
	if cmd == nil {
		t.Fatal("New() returned nil")
	}
	if cmd.Use != "prwatch" {
		t.Errorf("expected Use to be 'prwatch', got %q", cmd.Use)
	}

	want := []string{"watch", "status", "mute", "preview", "stats", "config", "version"}
	for _, name := range want {
		sub, _, err := cmd.Find([]string{name})
		if err != nil || sub == cmd {
			t.Errorf("expected subcommand %q to be registered", name)
		}
	}

	if cmd.PersistentFlags().Lookup("verbose") == nil {
		t.Error("expected persistent --verbose flag")
	}
	for _, flag := range []string{"output", "interval", "tui", "cpuprofile"} {
		if cmd.Flags().Lookup(flag) == nil {
			t.Errorf("expected root to carry watch flag --%s", flag)
		}
	}
}

func TestSubcommandUse(t *testing.T) {
	opts := NewOptions()
	tests := []struct {
		name string
		use  string
		got  string
	}{
		{"watch", "watch", NewCmdWatch(opts).Use},
		{"status", "status", NewCmdStatus(opts).Use},
		{"mute", "mute <owner/repo#number>", NewCmdMute(opts).Use},
		{"mute list", "list", NewCmdMuteList(opts).Use},
		{"preview", "preview <owner/repo#number>", NewCmdPreview(opts).Use},
		{"stats", "stats", NewCmdStats(opts).Use},
		{"config", "config", NewCmdConfig().Use},
		{"version", "version", NewCmdVersion().Use},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.use {
				t.Errorf("expected Use %q, got %q", tt.use, tt.got)
			}
		})
	}
}

func TestSetVersionInfo(t *testing.T) {
	SetVersionInfo("1.0.0", "abc123", "2024-01-01")
	if version != "1.0.0" || commit != "abc123" || date != "2024-01-01" {
		t.Errorf("unexpected version info %s %s %s", version, commit, date)
	}

	SetVersionInfo("", "", "")
	if version != "1.0.0" {
		t.Errorf("empty values should not overwrite, got %q", version)
	}
}

func TestNewOptions(t *testing.T) {
	tui := false
	opts := NewOptions(
		WithFormat("json"),
		WithVerbosity(2),
		WithTUI(&tui),
		WithInterval("2m"),
		WithMergedDays(7),
		WithNotificationHours(12),
		WithCPUProfile("cpu.out"),
		WithMemProfile("mem.out"),
		WithTrace("trace.out"),
	)

	if opts.Format != "json" || opts.Verbosity != 2 || opts.TUI == nil || *opts.TUI {
		t.Errorf("unexpected options %+v", opts)
	}
	if opts.Interval != "2m" || opts.MergedDays != 7 || opts.NotificationHours != 12 {
		t.Errorf("unexpected overrides %+v", opts)
	}
	if opts.CPUProfile != "cpu.out" || opts.MemProfile != "mem.out" || opts.Trace != "trace.out" {
		t.Errorf("unexpected profiling options %+v", opts)
	}
}

func TestTUIFlag(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{"true", "true", false},
		{"1", "true", false},
		{"yes", "true", false},
		{"false", "false", false},
		{"no", "false", false},
		{"auto", "auto", false},
		{"maybe", "auto", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			opts := NewOptions()
			f := newTUIFlag(opts)
			err := f.Set(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Set(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got := f.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestShouldUseTUI(t *testing.T) {
	on, off := true, false
	tests := []struct {
		name   string
		opts   *Options
		format output.Format
		want   bool
	}{
		{"forced on", NewOptions(WithTUI(&on)), output.FormatText, true},
		{"forced off", NewOptions(WithTUI(&off)), output.FormatText, false},
		{"verbose wins", NewOptions(WithTUI(&on), WithVerbosity(1)), output.FormatText, false},
		{"json wins", NewOptions(WithTUI(&on)), output.FormatJSON, false},
		{"markdown wins", NewOptions(WithTUI(&on)), output.FormatMarkdown, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shouldUseTUI(tt.opts, tt.format); got != tt.want {
				t.Errorf("shouldUseTUI() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveSettings(t *testing.T) {
	tests := []struct {
		name    string
		opts    *Options
		check   func(t *testing.T, s config.Settings)
		wantErr bool
	}{
		{
			name: "defaults",
			opts: NewOptions(),
			check: func(t *testing.T, s config.Settings) {
				if s != config.DefaultSettings() {
					t.Errorf("expected default settings, got %+v", s)
				}
			},
		},
		{
			name: "overrides",
			opts: NewOptions(WithInterval("2h"), WithMergedDays(7), WithNotificationHours(6)),
			check: func(t *testing.T, s config.Settings) {
				if s.RefreshInterval != 2*time.Hour {
					t.Errorf("expected 2h interval, got %v", s.RefreshInterval)
				}
				if s.MergedDays != 7 || s.NotificationHours != 6 {
					t.Errorf("unexpected windows %d days, %d hours", s.MergedDays, s.NotificationHours)
				}
			},
		},
		{
			name:    "unparseable interval",
			opts:    NewOptions(WithInterval("soon")),
			wantErr: true,
		},
		{
			name:    "interval below minimum",
			opts:    NewOptions(WithInterval("10s")),
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := resolveSettings(&config.Config{}, tt.opts)
			if (err != nil) != tt.wantErr {
				t.Fatalf("resolveSettings() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.check != nil {
				tt.check(t, s)
			}
		})
	}
}

func TestOpenState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.json")
	store, err := openState(path)
	if err != nil {
		t.Fatalf("openState() error = %v", err)
	}
	if store.Path() != path {
		t.Errorf("expected path %q, got %q", path, store.Path())
	}
	if err := store.Set("k", "v"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected state file to be written: %v", err)
	}
}

func TestRunConfigSetLocal(t *testing.T) {
	t.Chdir(t.TempDir())

	if err := runConfigSet("merged_days", "7", true); err != nil {
		t.Fatalf("runConfigSet() error = %v", err)
	}
	if err := runConfigSet("auto_unmute.humans_only", "false", true); err != nil {
		t.Fatalf("runConfigSet() error = %v", err)
	}

	data, err := os.ReadFile(config.LocalConfigPath())
	if err != nil {
		t.Fatalf("expected local config to be written: %v", err)
	}
	for _, want := range []string{"merged_days: 7", "humans_only: false"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("expected %q in local config:\n%s", want, data)
		}
	}

	if err := runConfigSet("merged_days", "0", true); err == nil {
		t.Error("expected out-of-range value to be rejected")
	}
	if err := runConfigSet("token", "abc", true); err == nil {
		t.Error("expected unknown key to be rejected")
	}

	after, _ := os.ReadFile(config.LocalConfigPath())
	if string(after) != string(data) {
		t.Error("rejected values must not modify the file")
	}
}

func TestProfilerWritesHeapProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mem.out")
	err := withProfiling(NewOptions(WithMemProfile(path)), func() error { return nil })
	if err != nil {
		t.Fatalf("withProfiling() error = %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected heap profile: %v", err)
	}
	if info.Size() == 0 {
		t.Error("expected non-empty heap profile")
	}
}

func TestPrintStats(t *testing.T) {
	color.NoColor = true
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	var empty bytes.Buffer
	if err := printStats(&empty, nil, now); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(empty.String(), "No refreshes recorded yet.") {
		t.Errorf("unexpected empty output %q", empty.String())
	}

	records := []stats.Record{
		{Timestamp: now.Add(-2 * time.Hour), Attention: 1, Open: 5},
		{Timestamp: now.Add(-5 * time.Minute), Attention: 3, Open: 6, CIFailure: 2, MedianAgeHours: 72},
	}
	var buf bytes.Buffer
	if err := printStats(&buf, records, now); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %d lines:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "WHEN") {
		t.Errorf("expected header first, got %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "2h") || !strings.HasSuffix(lines[1], "-") {
		t.Errorf("unexpected first row %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "5m") || !strings.HasSuffix(lines[2], "3d") {
		t.Errorf("unexpected second row %q", lines[2])
	}
}

func TestUpdatedAtByID(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := model.Repository{NameWithOwner: "o/r"}
	snap := model.Snapshot{
		OpenPRs:        []model.PullRequest{{Number: 1, Repository: repo, UpdatedAt: now}},
		MergedPRs:      []model.PullRequest{{Number: 2, Repository: repo, UpdatedAt: now.Add(-time.Hour)}},
		ClosedPRs:      []model.PullRequest{{Number: 3, Repository: repo, UpdatedAt: now.Add(-2 * time.Hour)}},
		ReviewRequests: []model.ReviewRequest{{Number: 4, Repository: repo, UpdatedAt: now.Add(-3 * time.Hour)}},
		Issues:         []model.Issue{{Number: 5, URL: "https://github.com/o/r/issues/5", UpdatedAt: now}},
	}

	got := updatedAtByID(snap)
	if len(got) != 4 {
		t.Fatalf("expected 4 previewable ids, got %d: %v", len(got), got)
	}
	if !got["o/r#2"].Equal(now.Add(-time.Hour)) {
		t.Errorf("unexpected updatedAt for o/r#2: %v", got["o/r#2"])
	}
	if _, ok := got["o/r#5"]; ok {
		t.Error("issues have no preview and should not be tracked")
	}
}
