package census

import (
	"context"
	"log/slog"
	"os/exec"
	"runtime"
	"time"

	"appdeck/internal/logging"
)

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) ([]byte, error)
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	return cmd.Output()
}

// Census lists running processes using the platform's native facility.
type Census struct {
	exec     Executor
	goos     string
	procRoot string
	timeout  time.Duration
	logger   *slog.Logger
}

// Option customizes a Census.
type Option func(*Census)

// WithExecutor replaces the command runner.
func WithExecutor(e Executor) Option {
	return func(c *Census) {
		if e != nil {
			c.exec = e
		}
	}
}

// WithPlatform overrides the detected operating system and /proc mount point.
func WithPlatform(goos, procRoot string) Option {
	return func(c *Census) {
		if goos != "" {
			c.goos = goos
		}
		if procRoot != "" {
			c.procRoot = procRoot
		}
	}
}

// New constructs a Census. timeout bounds each listing command.
func New(logger *slog.Logger, timeout time.Duration, opts ...Option) *Census {
	c := &Census{
		exec:     commandExecutor{},
		goos:     runtime.GOOS,
		procRoot: "/proc",
		timeout:  timeout,
		logger:   logging.NewComponentLogger(logger, "census"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns the names of running executables. It never fails; an
// unavailable process listing produces an empty Set.
func (c *Census) Snapshot(ctx context.Context) Set {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	names, err := c.list(ctx)
	if err != nil {
		logging.WarnWithContext(c.logger, "process census failed", "census_failed",
			logging.String("platform", c.goos),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "verify the process listing command is available"),
			logging.String(logging.FieldImpact, "all entries reported as not running"),
		)
		return NewSet()
	}
	set := NewSet(names...)
	c.logger.Debug("process census complete", logging.Int("processes", set.Len()))
	return set
}

func (c *Census) list(ctx context.Context) ([]string, error) {
	switch c.goos {
	case "windows":
		// chcp switches the console to UTF-8 so non-ASCII image names survive.
		args := []string{"/C", "chcp", "65001", ">nul", "&&", "tasklist", "/FO", "CSV", "/NH"}
		out, err := c.exec.Run(ctx, "cmd", args)
		if err != nil {
			return nil, err
		}
		return parseTasklist(out)
	case "linux":
		names, err := listProc(c.procRoot)
		if err == nil {
			return names, nil
		}
		c.logger.Debug("proc listing unavailable; falling back to ps", logging.Error(err))
		fallthrough
	default:
		out, err := c.exec.Run(ctx, "ps", []string{"-A", "-o", "comm="})
		if err != nil {
			return nil, err
		}
		return parsePS(out), nil
	}
}
