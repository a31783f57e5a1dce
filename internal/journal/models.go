package journal

import "time"

// Outcome is the terminal state of a run.
type Outcome string

const (
	OutcomeRunning     Outcome = "running"
	OutcomeSucceeded   Outcome = "succeeded"
	OutcomeDegraded    Outcome = "degraded"
	OutcomeFailed      Outcome = "failed"
	OutcomeInterrupted Outcome = "interrupted"
)

// Run is one setup or launch invocation.
type Run struct {
	ID         string
	Phase      string
	StartedAt  time.Time
	FinishedAt time.Time
	Outcome    Outcome
	Detail     string
	Hostname   string
	StepCount  int
}

// Duration returns the run's wall time, or zero while it is still running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Step is one recorded step of a run.
type Step struct {
	RunID      string
	Position   int
	Name       string
	Policy     string
	Status     string
	Detail     string
	Duration   time.Duration
	RecordedAt time.Time
}
