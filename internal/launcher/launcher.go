package launcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"appdeck/internal/catalog"
	"appdeck/internal/logging"
)

var (
	// ErrNoPath is returned for entries without an executable path.
	ErrNoPath = errors.New("entry has no executable path")
	// ErrNotRunning is returned by Stop when no process matched.
	ErrNotRunning = errors.New("no matching process is running")
)

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string) ([]byte, error)
}

// Starter spawns path detached with dir as its working directory.
type Starter interface {
	Start(path, dir string) error
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	return cmd.CombinedOutput()
}

type processStarter struct{}

func (processStarter) Start(path, dir string) error {
	cmd := exec.Command(path) //nolint:gosec
	cmd.Dir = dir
	cmd.SysProcAttr = detachedAttr()
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}

// Launcher starts and stops catalog entries.
type Launcher struct {
	exec    Executor
	starter Starter
	goos    string
	timeout time.Duration
	logger  *slog.Logger
}

// Option customizes a Launcher.
type Option func(*Launcher)

// WithExecutor replaces the command runner used by Stop.
func WithExecutor(e Executor) Option {
	return func(l *Launcher) {
		if e != nil {
			l.exec = e
		}
	}
}

// WithStarter replaces the process spawner used by Launch.
func WithStarter(s Starter) Option {
	return func(l *Launcher) {
		if s != nil {
			l.starter = s
		}
	}
}

// WithPlatform overrides the detected operating system.
func WithPlatform(goos string) Option {
	return func(l *Launcher) {
		if goos != "" {
			l.goos = goos
		}
	}
}

// New constructs a Launcher. timeout bounds the stop command.
func New(logger *slog.Logger, timeout time.Duration, opts ...Option) *Launcher {
	l := &Launcher{
		exec:    commandExecutor{},
		starter: processStarter{},
		goos:    runtime.GOOS,
		timeout: timeout,
		logger:  logging.NewComponentLogger(logger, "launcher"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Launch starts the entry's executable in its own directory.
func (l *Launcher) Launch(entry catalog.Entry) error {
	path := strings.TrimSpace(entry.Path)
	if path == "" {
		return fmt.Errorf("launch %q: %w", entry.Name, ErrNoPath)
	}
	dir := dirOf(path)
	if err := l.starter.Start(path, dir); err != nil {
		return fmt.Errorf("launch %q: %w", entry.Name, err)
	}
	l.logger.Info("app launched",
		logging.String("id", entry.ID),
		logging.String("path", path),
		logging.String("dir", dir),
	)
	return nil
}

// Stop terminates every process whose image name matches the entry's executable.
func (l *Launcher) Stop(ctx context.Context, entry catalog.Entry) error {
	image := baseOf(strings.TrimSpace(entry.Path))
	if image == "" {
		return fmt.Errorf("stop %q: %w", entry.Name, ErrNoPath)
	}
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	binary, args := l.stopCommand(image)
	output, err := l.exec.Run(ctx, binary, args)
	if err != nil {
		if notRunning(l.goos, err, output) {
			return fmt.Errorf("stop %q: %w", entry.Name, ErrNotRunning)
		}
		return fmt.Errorf("stop %q: %s: %w", entry.Name, strings.TrimSpace(string(output)), err)
	}
	l.logger.Info("app stopped",
		logging.String("id", entry.ID),
		logging.String("image", image),
	)
	return nil
}

func (l *Launcher) stopCommand(image string) (string, []string) {
	if l.goos == "windows" {
		return "taskkill", []string{"/F", "/IM", image}
	}
	return "pkill", []string{"-x", image}
}

// notRunning recognises the "nothing matched" outcome: pkill exits 1 and
// taskkill exits 128.
func notRunning(goos string, err error, output []byte) bool {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code := exitErr.ExitCode()
		if goos == "windows" {
			return code == 128
		}
		return code == 1
	}
	return strings.Contains(strings.ToLower(string(output)), "not found")
}

func dirOf(path string) string {
	idx := strings.LastIndexAny(path, `/\`)
	switch {
	case idx < 0:
		return ""
	case idx == 0:
		return path[:1]
	default:
		return path[:idx]
	}
}

func baseOf(path string) string {
	return path[strings.LastIndexAny(path, `/\`)+1:]
}
