package ghcli

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"testing"
)

func TestToolErrorIsAuthError(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    bool
	}{
		{"not logged in", "You are not logged into any GitHub hosts. Run gh auth login to authenticate.", true},
		{"bad credentials", "HTTP 401: Bad credentials (https://api.github.com/graphql)", true},
		{"not found", "GraphQL: Could not resolve to a PullRequest with the number of 9.", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &ToolError{Args: []string{"pr", "view"}, Message: tt.message}
			if got := e.IsAuthError(); got != tt.want {
				t.Errorf("IsAuthError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestToolErrorMessage(t *testing.T) {
	e := &ToolError{Args: []string{"search", "prs", "--author=@me"}, Message: "boom"}
	if got, want := e.Error(), "gh search prs: boom"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"not found", fmt.Errorf("username: %w", ErrToolNotFound), ErrToolNotFound.Error()},
		{"auth", &ToolError{Message: "gh auth login required"}, "GitHub CLI is not authenticated: run 'gh auth login' in a terminal"},
		{"other", errors.New("network down"), "network down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLaunchErrorUnwrap(t *testing.T) {
	inner := errors.New("permission denied")
	err := error(&LaunchError{Path: "/usr/bin/gh", Err: inner})
	if !errors.Is(err, inner) {
		t.Error("expected LaunchError to unwrap to the spawn error")
	}
}

func TestFindExecutable(t *testing.T) {
	notOnPath := func(string) (string, error) { return "", exec.ErrNotFound }

	t.Run("falls back to first existing candidate", func(t *testing.T) {
		exists := func(p string) bool { return p == "/opt/homebrew/bin/gh" }
		got, err := findExecutable(notOnPath, exists, []string{"/usr/local/bin/gh", "/opt/homebrew/bin/gh"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "/opt/homebrew/bin/gh" {
			t.Errorf("got %q, want /opt/homebrew/bin/gh", got)
		}
	})

	t.Run("not found anywhere", func(t *testing.T) {
		exists := func(string) bool { return false }
		_, err := findExecutable(notOnPath, exists, []string{"/usr/local/bin/gh"})
		if !errors.Is(err, ErrToolNotFound) {
			t.Errorf("expected ErrToolNotFound, got %v", err)
		}
	})
}

func TestCandidatePaths(t *testing.T) {
	for _, goos := range []string{"darwin", "linux", "windows", "freebsd"} {
		t.Run(goos, func(t *testing.T) {
			paths := candidatePaths(goos, "/home/me", `C:\Users\me\AppData\Local`)
			if len(paths) == 0 {
				t.Fatal("expected candidate paths")
			}
			for _, p := range paths {
				if p == "" {
					t.Error("candidate list contains empty path")
				}
			}
		})
	}

	if paths := candidatePaths("linux", "", ""); strings.Contains(strings.Join(paths, ":"), "go/bin") {
		t.Error("home-relative path should be skipped when home is unknown")
	}
}

func TestCLIRunToolNotFound(t *testing.T) {
	c := New()
	c.discover = func() (string, error) { return "", ErrToolNotFound }

	_, err := c.Run(context.Background(), "api", "user")
	if !errors.Is(err, ErrToolNotFound) {
		t.Errorf("expected ErrToolNotFound, got %v", err)
	}
}

func TestCLIRunExitCode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh")
	}
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}

	c := New(WithPath(sh), WithMaxConcurrency(1))

	out, err := c.Run(context.Background(), "-c", "printf ok")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != "ok" {
		t.Errorf("stdout = %q, want ok", out)
	}

	_, err = c.Run(context.Background(), "-c", "echo out; echo err 1>&2; exit 3")
	var toolErr *ToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("expected ToolError, got %v", err)
	}
	if toolErr.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", toolErr.ExitCode)
	}
	if !strings.Contains(toolErr.Message, "out") || !strings.Contains(toolErr.Message, "err") {
		t.Errorf("Message = %q, want combined stdout and stderr", toolErr.Message)
	}
}

func TestCLIRunLaunchError(t *testing.T) {
	c := New(WithPath("/nonexistent/path/to/gh"))
	_, err := c.Run(context.Background(), "api", "user")
	var launchErr *LaunchError
	if !errors.As(err, &launchErr) {
		t.Fatalf("expected LaunchError, got %v", err)
	}
}
