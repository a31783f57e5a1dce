package launch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"devbox/internal/config"
	"devbox/internal/logging"
	"devbox/internal/services"
)

// Phase is the lifecycle phase name used in logs and the journal.
const Phase = "launch"

// StartState describes what Start did.
type StartState string

const (
	StartStateStarted        StartState = "started"
	StartStateAlreadyRunning StartState = "already_running"
)

// Options tunes a launch.
type Options struct {
	// Wait overrides server.liveness_wait_seconds when positive.
	Wait   time.Duration
	Logger *slog.Logger
}

// Outcome is the result of the single liveness check.
type Outcome struct {
	State   StartState
	PID     int
	Alive   bool
	LogPath string
	Port    int
}

// Message renders the line printed after a launch.
func (o Outcome) Message() string {
	switch {
	case o.State == StartStateAlreadyRunning:
		return fmt.Sprintf("Web UI already running on port %d (pid %d)", o.Port, o.PID)
	case o.Alive:
		return fmt.Sprintf("Web UI started on port %d (pid %d)", o.Port, o.PID)
	default:
		return fmt.Sprintf("Web UI may have failed to start; check %s", o.LogPath)
	}
}

// Running reports the PID recorded in the PID file and whether that process is
// still the server that was spawned. A live process whose start time differs
// from the recorded one holds a recycled PID and counts as not running.
func Running(cfg *config.Config) (int, bool, error) {
	rec, err := readPIDRecord(cfg.PIDPath())
	if err != nil || rec.PID == 0 {
		return rec.PID, false, err
	}
	return rec.PID, rec.owns(), nil
}

// Start launches the web UI unless it is already running, waits out the
// liveness window, and probes the process once.
func Start(ctx context.Context, cfg *config.Config, opts Options) (Outcome, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	ctx = services.WithPhase(ctx, Phase)
	base := logger
	logger = logging.WithContext(ctx, base)
	outcome := Outcome{LogPath: cfg.Server.LogFile, Port: cfg.Server.Port}

	if pid, alive, err := Running(cfg); err != nil {
		logging.WarnWithContext(logger, "pid file unreadable; starting a new server", "pid_file_invalid",
			logging.String("path", cfg.PIDPath()),
			logging.Error(err),
			logging.String(logging.FieldImpact, "a previous server may still be running"),
		)
	} else if alive {
		outcome.State = StartStateAlreadyRunning
		outcome.PID = pid
		outcome.Alive = true
		logger.Info("web ui already running", logging.Int("pid", pid))
		return outcome, nil
	}

	pid, err := spawn(cfg)
	if err != nil {
		return outcome, err
	}
	outcome.State = StartStateStarted
	outcome.PID = pid

	if err := RecordPID(cfg.PIDPath(), pid); err != nil {
		logging.WarnWithContext(logger, "failed to record web ui pid", "pid_file_write_failed",
			logging.Int("pid", pid),
			logging.Error(err),
			logging.String(logging.FieldImpact, "status and stop cannot find the server"),
		)
	}
	logger.Info("web ui spawned",
		logging.Int("pid", pid),
		logging.String("log_file", cfg.Server.LogFile),
		logging.Strings("command", cfg.Server.Command),
	)

	wait := opts.Wait
	if wait <= 0 {
		wait = time.Duration(cfg.Server.LivenessWaitSeconds) * time.Second
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		outcome.Alive = Probe(pid)
		return outcome, ctx.Err()
	}

	outcome.Alive = Probe(pid)
	probeLogger := logging.WithContext(services.WithStep(ctx, "liveness"), base)
	if outcome.Alive {
		probeLogger.Info("web ui alive", logging.Int("pid", pid), logging.Int("port", cfg.Server.Port))
	} else {
		logging.WarnWithContext(probeLogger, "web ui exited during liveness window", "webui_dead",
			logging.Int("pid", pid),
			logging.String("log_file", cfg.Server.LogFile),
			logging.String(logging.FieldErrorHint, "read "+cfg.Server.LogFile+" or run devbox logs"),
			logging.String(logging.FieldImpact, "web ui is not serving"),
		)
	}
	return outcome, nil
}

// spawn truncates the log file and starts the server in a new session with
// stdout and stderr redirected to it. A goroutine reaps the child so an early
// exit does not linger as a zombie.
func spawn(cfg *config.Config) (int, error) {
	argv := cfg.Server.Command
	if len(argv) == 0 {
		return 0, services.Wrap(services.ErrConfiguration, Phase, "spawn", "server.command is empty", nil)
	}
	env, err := BuildEnv(cfg)
	if err != nil {
		return 0, services.Wrap(services.ErrConfiguration, Phase, "env", "", err)
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Server.LogFile), 0o755); err != nil {
		return 0, services.Wrap(services.ErrExternalTool, Phase, "spawn", "create log directory", err)
	}
	logFile, err := os.OpenFile(cfg.Server.LogFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, services.Wrap(services.ErrExternalTool, Phase, "spawn", "open log file", err)
	}
	defer logFile.Close()

	cmd := exec.Command(argv[0], argv[1:]...) //nolint:gosec
	cmd.Dir = cfg.Project.Root
	cmd.Env = env
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return 0, services.Wrap(services.ErrExternalTool, Phase, "spawn", "start "+argv[0], err)
	}
	go func() { _ = cmd.Wait() }()
	return cmd.Process.Pid, nil
}

// StopResult describes what Stop did.
type StopResult struct {
	PID        int
	WasRunning bool
	Forced     bool
}

// Stop terminates the web UI recorded in the PID file: SIGTERM to its process
// group, then SIGKILL once server.stop_timeout_seconds has elapsed. The PID
// file is removed afterwards. Stopping when nothing runs is not an error.
func Stop(ctx context.Context, cfg *config.Config, logger *slog.Logger) (StopResult, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	pid, alive, err := Running(cfg)
	if errors.Is(err, ErrInvalidPIDFile) {
		logging.WarnWithContext(logger, "removing unreadable pid file", "pid_file_invalid",
			logging.String("path", cfg.PIDPath()),
			logging.Error(err),
			logging.String(logging.FieldImpact, "no process is signalled"),
		)
		return StopResult{}, removePID(cfg.PIDPath())
	}
	if err != nil {
		return StopResult{}, err
	}
	result := StopResult{PID: pid, WasRunning: alive}
	if !alive {
		if pid != 0 {
			logger.Info("removing stale pid file", logging.Int("pid", pid), logging.Bool("pid_alive", Probe(pid)))
		}
		return result, removePID(cfg.PIDPath())
	}
	if pid == os.Getpid() {
		return result, fmt.Errorf("refusing to signal current process (pid %d)", pid)
	}

	if err := signalGroup(pid, unix.SIGTERM); err != nil {
		return result, fmt.Errorf("signal web ui %d: %w", pid, err)
	}
	timeout := time.Duration(cfg.Server.StopTimeoutSeconds) * time.Second
	if !waitForExit(ctx, pid, timeout) {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		logging.WarnWithContext(logger, "web ui ignored SIGTERM; killing", "webui_force_kill",
			logging.Int("pid", pid),
			logging.Duration("timeout", timeout),
			logging.String(logging.FieldImpact, "in-flight requests are dropped"),
		)
		if err := signalGroup(pid, unix.SIGKILL); err != nil {
			return result, fmt.Errorf("kill web ui %d: %w", pid, err)
		}
		result.Forced = true
		if !waitForExit(ctx, pid, 5*time.Second) {
			return result, fmt.Errorf("web ui %d still alive after SIGKILL", pid)
		}
	}
	logger.Info("web ui stopped", logging.Int("pid", pid), logging.Bool("forced", result.Forced))
	return result, removePID(cfg.PIDPath())
}

func waitForExit(ctx context.Context, pid int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		if !Probe(pid) {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}
