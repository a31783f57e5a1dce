package provision

import (
	"time"
)

// Phase is the lifecycle phase name used in logs and the journal.
const Phase = "setup"

// Step names in execution order.
const (
	StepPackagesUpdate  = "packages-update"
	StepPackagesInstall = "packages-install"
	StepPythonTool      = "python-tool"
	StepPythonSync      = "python-sync"
	StepAppConfig       = "app-config"
	StepSetupScript     = "setup-script"
)

// Policy decides how a step failure affects the run.
type Policy string

const (
	PolicyTolerated Policy = "tolerated"
	PolicyFatal     Policy = "fatal"
	PolicyOptional  Policy = "optional"
)

// Status is the result of a single step.
type Status string

const (
	StatusOK      Status = "ok"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
	StatusNotRun  Status = "not-run"
)

// StepResult records what one step did.
type StepResult struct {
	Name     string
	Policy   Policy
	Status   Status
	Detail   string
	Duration time.Duration
	Tail     []string
	Err      error
}

// Report is the outcome of a setup run.
type Report struct {
	Steps []StepResult
	// Aborted names the fatal step that stopped the run, if any.
	Aborted string
}

// Degraded reports whether any tolerated step failed.
func (r Report) Degraded() bool {
	for _, step := range r.Steps {
		if step.Status == StatusFailed && step.Policy == PolicyTolerated {
			return true
		}
	}
	return false
}

// Failures returns the failed steps in execution order.
func (r Report) Failures() []StepResult {
	var failed []StepResult
	for _, step := range r.Steps {
		if step.Status == StatusFailed {
			failed = append(failed, step)
		}
	}
	return failed
}

// Step returns the named step result.
func (r Report) Step(name string) (StepResult, bool) {
	for _, step := range r.Steps {
		if step.Name == name {
			return step, true
		}
	}
	return StepResult{}, false
}
