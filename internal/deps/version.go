package deps

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	"golang.org/x/sync/errgroup"

	"devbox/internal/shell"
)

// ProbeTailLines is the output window a version probe runner should keep;
// some tools print their version on the first of many lines.
const ProbeTailLines = 64

var versionPattern = regexp.MustCompile(`\d+\.\d+(?:\.\d+)?`)

// VersionStatus extends Status with the probed version.
type VersionStatus struct {
	Status
	Version    string
	MinVersion string
	Satisfied  bool
}

// ProbeVersion resolves req and runs it with VersionArgs, parsing the first
// version-looking token in its output. Missing binaries are reported in the
// status rather than as an error.
func ProbeVersion(ctx context.Context, runner shell.Runner, req Requirement) (VersionStatus, error) {
	status := VersionStatus{Status: checkBinary(req), MinVersion: strings.TrimSpace(req.MinVersion)}
	if !status.Available {
		return status, nil
	}
	if runner == nil {
		runner = shell.NewExecRunner(ProbeTailLines, nil)
	}
	args := req.VersionArgs
	if len(args) == 0 {
		args = []string{"--version"}
	}
	result, err := runner.Run(ctx, shell.Command{Name: status.Path, Args: args})
	if err != nil {
		if ctx.Err() != nil {
			return status, fmt.Errorf("probe %s: %w", req.Name, err)
		}
		status.Detail = fmt.Sprintf("version probe failed: %v", err)
		return status, nil
	}
	version, err := ParseVersion(result.Tail)
	if err != nil {
		status.Detail = err.Error()
		status.Satisfied = status.MinVersion == ""
		return status, nil
	}
	status.Version = version.String()
	satisfied, err := isVersionSatisfied(version, status.MinVersion)
	if err != nil {
		return status, fmt.Errorf("probe %s: %w", req.Name, err)
	}
	status.Satisfied = satisfied
	if !satisfied {
		status.Detail = fmt.Sprintf("version %s is older than required %s", status.Version, status.MinVersion)
	}
	return status, nil
}

// ProbeAll probes every requirement concurrently and returns results in input order.
func ProbeAll(ctx context.Context, runner shell.Runner, reqs []Requirement) ([]VersionStatus, error) {
	results := make([]VersionStatus, len(reqs))
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(4)
	for i, req := range reqs {
		group.Go(func() error {
			status, err := ProbeVersion(gctx, runner, req)
			results[i] = status
			return err
		})
	}
	if err := group.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

// ParseVersion extracts the first semantic version found in lines.
func ParseVersion(lines []string) (*semver.Version, error) {
	for _, line := range lines {
		match := versionPattern.FindString(line)
		if match == "" {
			continue
		}
		version, err := semver.NewVersion(match)
		if err != nil {
			continue
		}
		return version, nil
	}
	return nil, fmt.Errorf("no version found in output")
}

func isVersionSatisfied(version *semver.Version, minVersion string) (bool, error) {
	if strings.TrimSpace(minVersion) == "" {
		return true, nil
	}
	constraint, err := semver.NewConstraint(">= " + minVersion)
	if err != nil {
		return false, fmt.Errorf("parse minimum version %q: %w", minVersion, err)
	}
	return constraint.Check(version), nil
}
