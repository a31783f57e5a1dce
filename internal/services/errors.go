package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrBusy          = errors.New("another devbox run is in progress")
)

// Exit codes returned by the CLI.
const (
	ExitOK     = 0
	ExitFailed = 1
	ExitConfig = 2
	ExitBusy   = 3
)

// Wrap builds an error message that includes phase and step context while
// tagging it with the provided marker for later classification. The marker
// should be one of the exported sentinel errors above.
func Wrap(marker error, phase, step, message string, err error) error {
	detail := buildDetail(phase, step, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrBusy):
		return ExitBusy
	case errors.Is(err, ErrConfiguration):
		return ExitConfig
	default:
		return ExitFailed
	}
}

func buildDetail(phase, step, message string) string {
	parts := make([]string, 0, 3)
	if phase = strings.TrimSpace(phase); phase != "" {
		parts = append(parts, phase)
	}
	if step = strings.TrimSpace(step); step != "" {
		parts = append(parts, step)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "devbox failure"
	}
	return strings.Join(parts, ": ")
}
