package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"appdeck/internal/catalogaccess"
	"appdeck/internal/config"
	"appdeck/internal/engine"
	"appdeck/internal/ipc"
	"appdeck/internal/logging"
	"appdeck/internal/overrides"
)

type commandContext struct {
	socketFlag *string
	configFlag *string
	verbose    *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(socketFlag, configFlag *string, verbose *bool) *commandContext {
	return &commandContext{
		socketFlag: socketFlag,
		configFlag: configFlag,
		verbose:    verbose,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

// cliLogger logs to stderr only. Without --verbose it drops below WARN so
// scans stay quiet in scripts.
func (c *commandContext) cliLogger() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		level := "warn"
		if c.verbose != nil && *c.verbose {
			level = cfg.Logging.Level
		}
		logger, err := logging.New(logging.Options{Level: level, Format: cfg.Logging.Format})
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		c.logger = logger
	})
	return c.logger
}

func (c *commandContext) socketPath() string {
	if c.socketFlag != nil && strings.TrimSpace(*c.socketFlag) != "" {
		return strings.TrimSpace(*c.socketFlag)
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return ""
	}
	return cfg.SocketPath()
}

func (c *commandContext) dialClient() (*ipc.Client, error) {
	socket := c.socketPath()
	client, err := ipc.Dial(socket)
	if err != nil {
		return nil, wrapDialError(err, socket)
	}
	return client, nil
}

func (c *commandContext) openLocal() (*engine.Engine, overrides.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	logger := c.cliLogger()
	store, err := overrides.Open(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	eng, err := engine.NewFromConfig(cfg, store, logger)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	return eng, store, nil
}

// withAccess runs fn against the daemon when reachable and an in-process
// engine otherwise.
func (c *commandContext) withAccess(fn func(catalogaccess.Access) error) error {
	session, err := catalogaccess.OpenWithFallback(c.dialClient, c.openLocal)
	if err != nil {
		return err
	}
	defer session.Close()
	return fn(session.Access)
}

func wrapDialError(err error, socket string) error {
	switch {
	case errors.Is(err, syscall.ENOENT) || os.IsNotExist(err):
		return fmt.Errorf("connect to daemon: socket %s not found; start it with `appdeck daemon`", socket)
	case errors.Is(err, syscall.ECONNREFUSED):
		return fmt.Errorf("connect to daemon: socket %s refused the connection; verify the daemon is running", socket)
	default:
		return fmt.Errorf("connect to daemon: %w", err)
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
