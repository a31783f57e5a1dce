package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Requirement defines an external binary devbox relies on.
type Requirement struct {
	Name        string
	Command     string
	Aliases     []string
	Description string
	Optional    bool
	// VersionArgs are passed to the binary when probing its version.
	VersionArgs []string
	// MinVersion is an optional semantic version lower bound.
	MinVersion string
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Path        string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// Resolve finds the first of Command or Aliases present on PATH.
func Resolve(req Requirement) (string, string, bool) {
	candidates := append([]string{req.Command}, req.Aliases...)
	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		if path, err := exec.LookPath(candidate); err == nil {
			return candidate, path, true
		}
	}
	return strings.TrimSpace(req.Command), "", false
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		results = append(results, checkBinary(req))
	}
	return results
}

func checkBinary(req Requirement) Status {
	status := Status{
		Name:        req.Name,
		Command:     strings.TrimSpace(req.Command),
		Description: strings.TrimSpace(req.Description),
		Optional:    req.Optional,
	}
	if status.Command == "" && len(req.Aliases) == 0 {
		status.Detail = "command not configured"
		return status
	}
	cmd, path, ok := Resolve(req)
	status.Command = cmd
	if !ok {
		status.Detail = fmt.Sprintf("binary %q not found", cmd)
		if len(req.Aliases) > 0 {
			status.Detail = fmt.Sprintf("none of %s found", strings.Join(append([]string{req.Command}, req.Aliases...), ", "))
		}
		return status
	}
	status.Path = path
	status.Available = true
	return status
}
