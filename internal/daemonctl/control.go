// Package daemonctl starts a detached `appdeck daemon` process and stops a
// running one, waiting on its IPC socket in both directions.
package daemonctl

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"appdeck/internal/ipc"
)

// ErrDaemonNotRunning is returned by Stop when no daemon answers on the socket.
var ErrDaemonNotRunning = errors.New("daemon is not running")

// LaunchOptions controls daemon process launch behavior.
type LaunchOptions struct {
	SocketPath string
	ConfigPath string
}

// StartState reports what EnsureStarted found or did.
type StartState string

const (
	StartStateStarted        StartState = "started"
	StartStateAlreadyRunning StartState = "already_running"
)

// StartResult captures daemon start orchestration state.
type StartResult struct {
	State StartState
	PID   int
}

// StopResult reports how a daemon was stopped.
type StopResult struct {
	PID    int
	Forced bool
}

const pollInterval = 100 * time.Millisecond

// Launch starts a detached appdeck daemon process.
func Launch(executablePath string, opts LaunchOptions) error {
	if strings.TrimSpace(executablePath) == "" {
		return fmt.Errorf("resolve executable: executable path is empty")
	}

	args := []string{"daemon"}
	if socket := strings.TrimSpace(opts.SocketPath); socket != "" {
		args = append(args, "--socket", socket)
	}
	if cfg := strings.TrimSpace(opts.ConfigPath); cfg != "" {
		args = append(args, "--config", cfg)
	}

	proc := exec.Command(executablePath, args...) //nolint:gosec
	proc.SysProcAttr = detachedAttr()
	if err := proc.Start(); err != nil {
		return fmt.Errorf("launch daemon: %w", err)
	}
	return proc.Process.Release()
}

// WaitForClient waits for the IPC socket and returns a connected client.
func WaitForClient(socketPath string, timeout time.Duration) (*ipc.Client, error) {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		client, err := ipc.Dial(socketPath)
		if err == nil {
			return client, nil
		}
		lastErr = err
		time.Sleep(pollInterval)
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("timeout waiting for daemon")
	}
	return nil, fmt.Errorf("daemon failed to start: %w", lastErr)
}

// EnsureStarted launches the daemon unless one already answers on socketPath.
func EnsureStarted(socketPath, executablePath string, opts LaunchOptions, waitTimeout time.Duration) (StartResult, error) {
	state := StartStateAlreadyRunning
	client, err := ipc.Dial(socketPath)
	if err != nil {
		if launchErr := Launch(executablePath, opts); launchErr != nil {
			return StartResult{}, launchErr
		}
		client, err = WaitForClient(socketPath, waitTimeout)
		if err != nil {
			return StartResult{}, err
		}
		state = StartStateStarted
	}
	defer client.Close()

	status, err := client.Status()
	if err != nil {
		return StartResult{}, fmt.Errorf("query daemon status: %w", err)
	}
	return StartResult{State: state, PID: status.PID}, nil
}

// Stop asks the daemon on socketPath to terminate and waits for its socket
// to go away. It escalates to a kill after timeout.
func Stop(socketPath string, timeout time.Duration) (StopResult, error) {
	client, err := ipc.Dial(socketPath)
	if err != nil {
		return StopResult{}, ErrDaemonNotRunning
	}
	status, err := client.Status()
	_ = client.Close()
	if err != nil {
		return StopResult{}, fmt.Errorf("query daemon status: %w", err)
	}
	if status.PID <= 0 {
		return StopResult{}, fmt.Errorf("daemon reported invalid pid %d", status.PID)
	}

	proc, err := os.FindProcess(status.PID)
	if err != nil {
		return StopResult{}, fmt.Errorf("find daemon process: %w", err)
	}
	result := StopResult{PID: status.PID}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		// Windows cannot deliver SIGTERM.
		result.Forced = true
		if killErr := proc.Kill(); killErr != nil {
			return result, fmt.Errorf("terminate daemon: %w", killErr)
		}
	}

	if waitForSocketGone(socketPath, timeout) {
		return result, nil
	}
	if !result.Forced {
		result.Forced = true
		if err := proc.Kill(); err != nil {
			return result, fmt.Errorf("kill daemon: %w", err)
		}
		if waitForSocketGone(socketPath, timeout) {
			return result, nil
		}
	}
	return result, fmt.Errorf("daemon pid %d did not exit within %s", status.PID, timeout)
}

func waitForSocketGone(socketPath string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		client, err := ipc.Dial(socketPath)
		if err != nil {
			return true
		}
		_ = client.Close()
		time.Sleep(pollInterval)
	}
	return false
}
