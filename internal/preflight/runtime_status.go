package preflight

import (
	"fmt"

	"devbox/internal/config"
	"devbox/internal/launch"
)

// WebUIStatus is the process-level view of the web UI.
type WebUIStatus struct {
	PID     int
	Alive   bool
	Port    int
	LogFile string
}

// ProbeWebUI reads the PID file and probes the recorded process.
func ProbeWebUI(cfg *config.Config) (WebUIStatus, error) {
	status := WebUIStatus{Port: cfg.Server.Port, LogFile: cfg.Server.LogFile}
	pid, alive, err := launch.Running(cfg)
	status.PID = pid
	status.Alive = alive
	return status, err
}

// Detail renders a display-friendly summary for status output.
func (s WebUIStatus) Detail() string {
	switch {
	case s.Alive:
		return fmt.Sprintf("running on port %d (pid %d)", s.Port, s.PID)
	case s.PID != 0:
		return fmt.Sprintf("not running (stale pid %d; see %s)", s.PID, s.LogFile)
	default:
		return "not running"
	}
}

// CheckWebUIProcess evaluates whether the web UI process is alive.
func CheckWebUIProcess(cfg *config.Config) Result {
	const name = "Web UI process"
	status, err := ProbeWebUI(cfg)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{Name: name, Passed: status.Alive, Detail: status.Detail()}
}
