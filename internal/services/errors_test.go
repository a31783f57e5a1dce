package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"devbox/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "setup", "python-sync", "uv sync failed", base)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"setup", "python-sync", "uv sync failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestExitCodeMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, services.ExitOK},
		{"config", services.Wrap(services.ErrConfiguration, "config", "", "bad port", nil), services.ExitConfig},
		{"busy", fmt.Errorf("acquire: %w", services.ErrBusy), services.ExitBusy},
		{"tool", services.Wrap(services.ErrExternalTool, "setup", "python-sync", "", errors.New("exit 1")), services.ExitFailed},
		{"plain", errors.New("other"), services.ExitFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := services.ExitCode(tc.err); got != tc.want {
				t.Fatalf("ExitCode=%d want %d", got, tc.want)
			}
		})
	}
}
