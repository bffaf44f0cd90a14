// Package daemonctl starts, stops, and inspects the background daemon on
// behalf of the CLI. It talks to a running daemon through the HTTP API and
// falls back to the PID file only when a daemon refuses to exit.
package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"reshelf/internal/api"
	"reshelf/internal/config"
	"reshelf/internal/daemon"
	"reshelf/internal/history"
)

// ErrDaemonNotRunning reports that nothing answered on the configured API
// address.
var ErrDaemonNotRunning = errors.New("daemon is not running")

const (
	pollInterval       = 200 * time.Millisecond
	pollRequestTimeout = 2 * time.Second
)

// StartState describes how EnsureStarted satisfied the request.
type StartState string

const (
	StartStateStarted        StartState = "started"
	StartStateAlreadyRunning StartState = "already_running"
)

// StartResult reports the outcome of EnsureStarted.
type StartResult struct {
	State    StartState
	Launched bool
	PID      int
}

// StopResult reports how Stop brought the daemon down.
type StopResult struct {
	Acknowledged bool
	ForcedKill   bool
	PID          int
}

// LaunchOptions carries flags forwarded to the detached daemon process.
type LaunchOptions struct {
	ConfigPath string
	LogLevel   string
}

// Launch starts a detached daemon process by re-invoking the given executable
// with the daemon run subcommand, then releases it so the caller can exit.
func Launch(executablePath string, opts LaunchOptions) error {
	if strings.TrimSpace(executablePath) == "" {
		return errors.New("executable path is required")
	}
	args := []string{"daemon", "run"}
	if path := strings.TrimSpace(opts.ConfigPath); path != "" {
		args = append(args, "--config", path)
	}
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		args = append(args, "--log-level", level)
	}
	proc := exec.Command(executablePath, args...)
	if err := proc.Start(); err != nil {
		return fmt.Errorf("failed to launch daemon process: %w", err)
	}
	if err := proc.Process.Release(); err != nil {
		return fmt.Errorf("failed to detach daemon process: %w", err)
	}
	return nil
}

// WaitForReady polls the daemon health endpoint until it answers or the
// timeout elapses.
func WaitForReady(ctx context.Context, client *api.Client, timeout time.Duration) (*api.HealthStatus, error) {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for {
		pollCtx, cancel := context.WithTimeout(ctx, pollRequestTimeout)
		health, err := client.Health(pollCtx)
		cancel()
		if err == nil {
			return health, nil
		}
		lastErr = err
		if time.Now().After(deadline) {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
	return nil, fmt.Errorf("daemon did not become ready within %s: %w", timeout, lastErr)
}

// WaitForShutdown polls the daemon until the API stops answering.
func WaitForShutdown(ctx context.Context, client *api.Client, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		pollCtx, cancel := context.WithTimeout(ctx, pollRequestTimeout)
		_, err := client.Health(pollCtx)
		cancel()
		if errors.Is(err, api.ErrDaemonUnavailable) {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("daemon still answering after %s", timeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// ProcessInfo reports whether a daemon answers on the API and, when it does,
// the PID it reports.
func ProcessInfo(ctx context.Context, client *api.Client) (bool, int, error) {
	pollCtx, cancel := context.WithTimeout(ctx, pollRequestTimeout)
	defer cancel()
	health, err := client.Health(pollCtx)
	if err != nil {
		if errors.Is(err, api.ErrDaemonUnavailable) {
			return false, 0, nil
		}
		return false, 0, err
	}
	return true, health.PID, nil
}

// EnsureStarted makes sure a daemon is serving the API, launching a detached
// process when nothing answers.
func EnsureStarted(ctx context.Context, client *api.Client, executablePath string, opts LaunchOptions, waitTimeout time.Duration) (StartResult, error) {
	pollCtx, cancel := context.WithTimeout(ctx, pollRequestTimeout)
	health, err := client.Health(pollCtx)
	cancel()
	if err == nil {
		return StartResult{State: StartStateAlreadyRunning, PID: health.PID}, nil
	}
	if !errors.Is(err, api.ErrDaemonUnavailable) {
		return StartResult{}, fmt.Errorf("failed to query daemon state: %w", err)
	}
	if err := Launch(executablePath, opts); err != nil {
		return StartResult{}, err
	}
	health, err = WaitForReady(ctx, client, waitTimeout)
	if err != nil {
		return StartResult{}, err
	}
	return StartResult{State: StartStateStarted, Launched: true, PID: health.PID}, nil
}

// Stop asks a running daemon to shut down and waits for the API to go away.
// When the daemon keeps answering past the grace period the process is
// force-killed via the PID file.
func Stop(ctx context.Context, client *api.Client, cfg *config.Config, grace time.Duration) (StopResult, error) {
	running, pid, err := ProcessInfo(ctx, client)
	if err != nil {
		return StopResult{}, err
	}
	if !running {
		return StopResult{}, ErrDaemonNotRunning
	}
	result := StopResult{PID: pid}
	resp, err := client.Shutdown(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to request shutdown: %w", err)
	}
	result.Acknowledged = resp.Stopping
	if err := WaitForShutdown(ctx, client, grace); err == nil {
		return result, nil
	}
	if cfg == nil {
		return result, fmt.Errorf("daemon did not stop within %s", grace)
	}
	pidPath := filepath.Join(cfg.Paths.LogDir, daemon.PIDFileName)
	lockPath := filepath.Join(cfg.Paths.LogDir, daemon.LockFileName)
	killed, killErr := ForceKillProcess(pidPath, lockPath, pid)
	if killErr != nil {
		return result, fmt.Errorf("failed to stop daemon process: %w", killErr)
	}
	result.ForcedKill = true
	result.PID = killed
	return result, nil
}

// ForceKillProcess kills the daemon recorded in the PID file, falling back to
// fallbackPID when the file is unreadable. It refuses to kill the calling
// process and removes the PID and lock files on success.
func ForceKillProcess(pidPath, lockPath string, fallbackPID int) (int, error) {
	pid := fallbackPID
	if raw, err := os.ReadFile(pidPath); err == nil {
		if parsed, parseErr := strconv.Atoi(strings.TrimSpace(string(raw))); parseErr == nil && parsed > 0 {
			pid = parsed
		}
	}
	if pid <= 0 {
		return 0, fmt.Errorf("no daemon PID recorded at %s", pidPath)
	}
	if pid == os.Getpid() {
		return 0, fmt.Errorf("refusing to kill the current process (pid %d)", pid)
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return 0, fmt.Errorf("failed to find process %d: %w", pid, err)
	}
	if err := proc.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return 0, fmt.Errorf("failed to kill process %d: %w", pid, err)
	}
	_ = os.Remove(pidPath)
	_ = os.Remove(lockPath)
	return pid, nil
}

// BuildStatusSnapshot returns the daemon status, synthesizing an offline
// snapshot from configuration and the history database when no daemon
// answers the API.
func BuildStatusSnapshot(ctx context.Context, client *api.Client, cfg *config.Config) (*api.DaemonStatus, error) {
	pollCtx, cancel := context.WithTimeout(ctx, pollRequestTimeout)
	status, err := client.Status(pollCtx)
	cancel()
	if err == nil {
		return status, nil
	}
	if !errors.Is(err, api.ErrDaemonUnavailable) {
		return nil, err
	}
	if cfg == nil {
		return nil, ErrDaemonNotRunning
	}
	snapshot := &api.DaemonStatus{
		Running:       false,
		HistoryDBPath: cfg.HistoryDBPath(),
		LockFilePath:  filepath.Join(cfg.Paths.LogDir, daemon.LockFileName),
		TransferMode:  cfg.Transfer.Mode,
		Directories:   api.FromWatchDirectories(cfg.Watch.Directories),
	}
	store, openErr := history.Open(cfg)
	if openErr != nil {
		return snapshot, nil
	}
	defer func() { _ = store.Close() }()
	queryCtx, cancelQuery := context.WithTimeout(ctx, 2*time.Second)
	defer cancelQuery()
	if stats, statsErr := store.Stats(queryCtx); statsErr == nil {
		snapshot.HistoryStats = api.MergeHistoryStats(stats)
	}
	return snapshot, nil
}
