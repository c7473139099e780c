package ghcli

import (
	"errors"
	"fmt"
	"strings"
)

// ErrToolNotFound is returned when the gh binary cannot be located.
var ErrToolNotFound = errors.New("GitHub CLI (gh) not found: install it from https://cli.github.com and run 'gh auth login'")

// authMarkers are substrings gh prints when the session is missing or expired.
var authMarkers = []string{
	"not logged into",
	"not logged in",
	"gh auth login",
	"authentication required",
	"bad credentials",
	"http 401",
	"requires authentication",
}

// ToolError reports a gh invocation that exited non-zero.
type ToolError struct {
	Args     []string
	ExitCode int
	// Message is stdout and stderr combined.
	Message string
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("gh %s: %s", commandName(e.Args), e.Message)
}

// IsAuthError reports whether the failure looks like a missing or expired login.
func (e *ToolError) IsAuthError() bool {
	msg := strings.ToLower(e.Message)
	for _, marker := range authMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// LaunchError reports that the gh process could not be started at all.
type LaunchError struct {
	Path string
	Err  error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch %s: %v", e.Path, e.Err)
}

func (e *LaunchError) Unwrap() error {
	return e.Err
}

// UserMessage returns a message suitable for display in the snapshot.
// Authentication failures are reworded into an actionable hint.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, ErrToolNotFound) {
		return ErrToolNotFound.Error()
	}
	var toolErr *ToolError
	if errors.As(err, &toolErr) && toolErr.IsAuthError() {
		return "GitHub CLI is not authenticated: run 'gh auth login' in a terminal"
	}
	return err.Error()
}

// commandName returns the subcommand portion of args for error messages,
// e.g. "search prs" or "api".
func commandName(args []string) string {
	var parts []string
	for _, a := range args {
		if strings.HasPrefix(a, "-") || len(parts) == 2 {
			break
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}
