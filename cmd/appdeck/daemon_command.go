package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"appdeck/internal/daemon"
	"appdeck/internal/daemonctl"
	"appdeck/internal/engine"
	"appdeck/internal/ipc"
	"appdeck/internal/logging"
	"appdeck/internal/overrides"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	daemonCmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the catalog daemon in the foreground",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemonProcess(cmd.Context(), ctx)
		},
	}

	var waitTimeout time.Duration
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the daemon in the background",
		RunE: func(cmd *cobra.Command, args []string) error {
			exe, err := os.Executable()
			if err != nil {
				return fmt.Errorf("resolve executable: %w", err)
			}
			result, err := daemonctl.EnsureStarted(ctx.socketPath(), exe, daemonctl.LaunchOptions{
				SocketPath: ctx.socketPath(),
				ConfigPath: ctx.configPath(),
			}, waitTimeout)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if result.State == daemonctl.StartStateAlreadyRunning {
				fmt.Fprintf(out, "Daemon already running (pid %d)\n", result.PID)
				return nil
			}
			fmt.Fprintf(out, "Daemon started (pid %d)\n", result.PID)
			return nil
		},
	}
	startCmd.Flags().DurationVar(&waitTimeout, "wait", 10*time.Second, "How long to wait for the daemon socket")

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the background daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			result, err := daemonctl.Stop(ctx.socketPath(), 5*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(out, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if result.Forced {
				fmt.Fprintf(out, "Daemon killed (pid %d)\n", result.PID)
				return nil
			}
			fmt.Fprintf(out, "Daemon stopped (pid %d)\n", result.PID)
			return nil
		},
	}

	daemonCmd.AddCommand(startCmd, stopCmd)
	return daemonCmd
}

func runDaemonProcess(cmdCtx context.Context, ctx *commandContext) error {
	if cmdCtx == nil {
		cmdCtx = context.Background()
	}
	signalCtx, cancel := signal.NotifyContext(cmdCtx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.NewFromConfig(cfg, "appdeck.log")
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	store, err := overrides.Open(cfg, logger)
	if err != nil {
		logger.Error("open override store", logging.Error(err))
		return err
	}

	eng, err := engine.NewFromConfig(cfg, store, logger)
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("build engine: %w", err)
	}

	d, err := daemon.New(cfg, eng, store, logger)
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	// The lock must be held before the socket is replaced, or a second
	// instance would unlink the first one's socket.
	if err := d.Start(signalCtx); err != nil {
		return err
	}

	ipcServer, err := ipc.NewServer(signalCtx, ctx.socketPath(), d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	<-signalCtx.Done()
	logger.Info("appdeck daemon shutting down")
	return nil
}
