// Package tui implements the live dashboard for the watch command.
package tui

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"runtime"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/spiffcs/prwatch/internal/model"
)

// Backend is the live state the dashboard renders. *service.Service
// satisfies it.
type Backend interface {
	Subscribe() (<-chan model.Snapshot, func())
	Refresh(ctx context.Context) error
	ToggleMute(id string) (bool, error)
}

// Previews reads cached preview state. *preview.Cache satisfies it.
type Previews interface {
	Get(id string) (model.PreviewDetails, bool)
	Error(id string) string
	Loading(id string) bool
}

// Focuser tracks which PR the preview follows. *preview.Focus satisfies it.
type Focuser interface {
	Focus(id string)
	Blur()
}

// Options wires the dashboard to the rest of the process.
type Options struct {
	Backend  Backend
	Previews Previews
	Focus    Focuser
	// PreviewLoaded delivers ids whose preview finished loading, so the view
	// redraws without polling. May be nil.
	PreviewLoaded <-chan string
}

// Run starts the dashboard and blocks until the user quits or ctx is done.
func Run(ctx context.Context, opts Options) error {
	snapshots, unsubscribe := opts.Backend.Subscribe()
	defer unsubscribe()

	m := NewDashboard(ctx, opts, snapshots)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// ShouldUseTUI returns true if the TUI should be used based on environment.
func ShouldUseTUI() bool {
	// Check if stdout is a TTY
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return false
	}

	// Check for CI environment variables
	ciVars := []string{
		"CI",
		"GITHUB_ACTIONS",
		"JENKINS_URL",
		"TRAVIS",
		"CIRCLECI",
		"GITLAB_CI",
		"BUILDKITE",
	}

	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			return false
		}
	}

	return true
}

// openURL opens a URL in the default browser
func openURL(url string) tea.Cmd {
	return func() tea.Msg {
		var cmd *exec.Cmd

		switch runtime.GOOS {
		case "darwin":
			cmd = exec.Command("open", url)
		case "linux":
			cmd = exec.Command("xdg-open", url)
		case "windows":
			cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
		default:
			return nil
		}

		_ = cmd.Start()
		return nil
	}
}
