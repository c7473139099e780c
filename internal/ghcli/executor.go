// Package ghcli runs the GitHub CLI as a subprocess and maps its failures to
// structured errors. Authentication and HTTP are left entirely to gh.
package ghcli

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/spiffcs/prwatch/internal/constants"
	"github.com/spiffcs/prwatch/internal/log"
	"golang.org/x/sync/semaphore"
)

// Executor runs a gh command and returns its stdout.
type Executor interface {
	Run(ctx context.Context, args ...string) ([]byte, error)
}

// CLI executes the real gh binary. One process is spawned per call; the
// semaphore bounds how many run at once.
type CLI struct {
	mu       sync.Mutex
	path     string
	discover func() (string, error)

	sem     *semaphore.Weighted
	timeout time.Duration
}

// Option configures a CLI.
type Option func(*CLI)

// WithPath pins the gh binary instead of discovering it.
func WithPath(path string) Option {
	return func(c *CLI) {
		c.path = strings.TrimSpace(path)
	}
}

// WithMaxConcurrency caps concurrent gh processes.
func WithMaxConcurrency(n int) Option {
	return func(c *CLI) {
		if n > 0 {
			c.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithTimeout bounds a single invocation. Zero disables the timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *CLI) {
		c.timeout = d
	}
}

// New creates a CLI executor.
func New(opts ...Option) *CLI {
	c := &CLI{
		discover: discover,
		sem:      semaphore.NewWeighted(constants.DefaultMaxConcurrency),
		timeout:  constants.DefaultCommandTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Path returns the resolved gh binary, discovering it on first use.
func (c *CLI) Path() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.path != "" {
		return c.path, nil
	}
	p, err := c.discover()
	if err != nil {
		return "", err
	}
	log.Debug("resolved gh binary", "path", p)
	c.path = p
	return p, nil
}

// Run executes gh with args. On a non-zero exit the combined stdout and
// stderr become the ToolError message.
func (c *CLI) Run(ctx context.Context, args ...string) ([]byte, error) {
	path, err := c.Path()
	if err != nil {
		return nil, err
	}

	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer c.sem.Release(1)

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, &LaunchError{Path: path, Err: err}
	}

	err = cmd.Wait()
	log.Trace("gh finished", "args", args, "duration", time.Since(start), "bytes", stdout.Len())
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) && ctx.Err() == nil {
			return nil, &LaunchError{Path: path, Err: err}
		}
		msg := strings.TrimSpace(stdout.String() + stderr.String())
		if msg == "" && ctx.Err() != nil {
			msg = ctx.Err().Error()
		}
		code := -1
		if exitErr != nil {
			code = exitErr.ExitCode()
		}
		return nil, &ToolError{Args: args, ExitCode: code, Message: msg}
	}

	return stdout.Bytes(), nil
}

// Ensure CLI implements Executor.
var _ Executor = (*CLI)(nil)
