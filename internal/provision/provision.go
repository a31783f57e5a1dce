package provision

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"devbox/internal/config"
	"devbox/internal/logging"
	"devbox/internal/services"
	"devbox/internal/shell"
)

// Options tunes a setup run.
type Options struct {
	SkipPackages bool
	SkipSync     bool
	Runner       shell.Runner
	Logger       *slog.Logger
	// OnStep is called after every step, including steps that never ran.
	OnStep func(context.Context, StepResult)
}

type step struct {
	name   string
	policy Policy
	run    func(ctx context.Context) outcome
}

type outcome struct {
	status Status
	detail string
	tail   []string
	err    error
}

func ok(detail string) outcome      { return outcome{status: StatusOK, detail: detail} }
func skipped(detail string) outcome { return outcome{status: StatusSkipped, detail: detail} }
func failed(detail string, err error, tail []string) outcome {
	return outcome{status: StatusFailed, detail: detail, err: err, tail: tail}
}

// Setup runs the setup phase. It returns a non-nil error only when a fatal
// step fails or the context is cancelled; tolerated failures are reported in
// the Report.
func Setup(ctx context.Context, cfg *config.Config, opts Options) (Report, error) {
	if cfg == nil {
		return Report{}, services.Wrap(services.ErrConfiguration, Phase, "", "config is required", nil)
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	runner := opts.Runner
	if runner == nil {
		runner = shell.NewExecRunner(cfg.Packages.OutputTailLines, nil)
	}
	ctx = services.WithPhase(ctx, Phase)

	p := &provisioner{cfg: cfg, opts: opts, runner: runner, logger: logger}
	return p.execute(ctx, p.plan())
}

type provisioner struct {
	cfg    *config.Config
	opts   Options
	runner shell.Runner
	logger *slog.Logger
}

func (p *provisioner) plan() []step {
	return []step{
		{name: StepPackagesUpdate, policy: PolicyTolerated, run: p.packagesUpdate},
		{name: StepPackagesInstall, policy: PolicyTolerated, run: p.packagesInstall},
		{name: StepPythonTool, policy: PolicyTolerated, run: p.pythonTool},
		{name: StepPythonSync, policy: PolicyFatal, run: p.pythonSync},
		{name: StepAppConfig, policy: PolicyFatal, run: p.appConfig},
		{name: StepSetupScript, policy: PolicyOptional, run: p.setupScript},
	}
}

func (p *provisioner) execute(ctx context.Context, steps []step) (Report, error) {
	var report Report
	var runErr error

	for i, st := range steps {
		stepCtx := services.WithStep(ctx, st.name)
		logger := logging.WithContext(stepCtx, p.logger)

		if err := ctx.Err(); err != nil {
			runErr = err
			report.Aborted = st.name
			p.markNotRun(ctx, &report, steps[i:], "interrupted")
			break
		}

		logger.Debug("step started", logging.String("policy", string(st.policy)))
		started := time.Now()
		out := st.run(stepCtx)
		result := StepResult{
			Name:     st.name,
			Policy:   st.policy,
			Status:   out.status,
			Detail:   out.detail,
			Duration: time.Since(started),
			Tail:     out.tail,
			Err:      out.err,
		}
		report.Steps = append(report.Steps, result)
		p.notify(stepCtx, result)

		switch {
		case result.Status != StatusFailed:
			logger.Info("step "+string(result.Status),
				logging.String("detail", result.Detail),
				logging.Duration("duration", result.Duration.Round(time.Millisecond)),
			)
		case st.policy == PolicyTolerated && !errors.Is(out.err, context.Canceled):
			logging.WarnWithContext(logger, "step failed; continuing", "step_tolerated_failure",
				logging.String("detail", result.Detail),
				logging.Error(out.err),
				logging.Strings("output_tail", result.Tail),
				logging.String(logging.FieldErrorHint, hintFor(st.name)),
				logging.String(logging.FieldImpact, "setup continues without this step"),
			)
		default:
			logging.ErrorWithContext(logger, "step failed; aborting setup", "step_fatal_failure",
				logging.String("detail", result.Detail),
				logging.Error(out.err),
				logging.Strings("output_tail", result.Tail),
				logging.String(logging.FieldErrorHint, hintFor(st.name)),
			)
			runErr = services.Wrap(markerFor(out.err), Phase, st.name, result.Detail, out.err)
			report.Aborted = st.name
			p.markNotRun(ctx, &report, steps[i+1:], "previous step "+st.name+" failed")
		}
		if report.Aborted != "" {
			break
		}
	}
	return report, runErr
}

func (p *provisioner) markNotRun(ctx context.Context, report *Report, rest []step, reason string) {
	for _, st := range rest {
		result := StepResult{Name: st.name, Policy: st.policy, Status: StatusNotRun, Detail: reason}
		report.Steps = append(report.Steps, result)
		p.notify(services.WithStep(ctx, st.name), result)
	}
}

func (p *provisioner) notify(ctx context.Context, result StepResult) {
	if p.opts.OnStep != nil {
		p.opts.OnStep(ctx, result)
	}
}

func markerFor(err error) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return services.ErrNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return services.ErrTimeout
	default:
		return services.ErrExternalTool
	}
}

func hintFor(step string) string {
	switch step {
	case StepPackagesUpdate, StepPackagesInstall:
		return "check network access and packages.install names; rerun devbox setup"
	case StepPythonTool:
		return "install uv manually (pip install --user uv) and rerun devbox setup"
	case StepPythonSync:
		return "run uv sync in the project root to see the full error"
	case StepAppConfig:
		return "check permissions on the project directory"
	case StepSetupScript:
		return "run the setup script by hand to see the full output"
	default:
		return "check logs for details"
	}
}
