package preflight

import (
	"context"

	"devbox/internal/config"
	"devbox/internal/deps"
	"devbox/internal/shell"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every readiness check for the given config. Dependency
// probes run concurrently; everything else is sequential.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Project root", cfg.Project.Root))
	results = append(results, CheckStateDirectory(cfg.Paths.StateDir))

	statuses, err := CheckSystemDeps(ctx, cfg, nil)
	if err != nil {
		results = append(results, Result{Name: "Dependencies", Detail: err.Error()})
	}
	for _, status := range statuses {
		results = append(results, DependencyResult(status))
	}

	process := CheckWebUIProcess(cfg)
	results = append(results, process)
	if process.Passed {
		results = append(results, CheckHealth(ctx, cfg.HealthURL()))
	} else {
		results = append(results, Result{Name: healthCheckName, Detail: "skipped (web UI not running)"})
	}

	results = append(results, CheckAppConfig(cfg))
	return results
}

// CheckSystemDeps probes the container's system requirements, including
// versions. A nil runner uses the exec runner.
func CheckSystemDeps(ctx context.Context, cfg *config.Config, runner shell.Runner) ([]deps.VersionStatus, error) {
	if runner == nil {
		runner = shell.NewExecRunner(deps.ProbeTailLines, nil)
	}
	return deps.ProbeAll(ctx, runner, deps.SystemRequirements(cfg))
}

// DependencyResult folds a version status into a pass/fail result. Missing
// optional binaries pass.
func DependencyResult(status deps.VersionStatus) Result {
	result := Result{Name: status.Name}
	switch {
	case !status.Available && status.Optional:
		result.Passed = true
		result.Detail = "optional, not installed"
	case !status.Available:
		result.Detail = status.Detail
	case !status.Satisfied:
		result.Detail = status.Detail
	default:
		result.Passed = true
		result.Detail = status.Path
		if status.Version != "" {
			result.Detail = status.Version + " (" + status.Path + ")"
		}
	}
	return result
}
