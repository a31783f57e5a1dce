package shell_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"devbox/internal/shell"
)

func TestExecRunnerKeepsTail(t *testing.T) {
	var echo bytes.Buffer
	runner := shell.NewExecRunner(2, &echo)
	result, err := runner.Run(context.Background(), shell.Command{
		Name: "sh",
		Args: []string{"-c", "echo one; echo two; echo three >&2"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.ExitCode != 0 {
		t.Fatalf("exit code %d", result.ExitCode)
	}
	if len(result.Tail) != 2 {
		t.Fatalf("expected 2 tail lines, got %v", result.Tail)
	}
	if !strings.Contains(echo.String(), "three") {
		t.Fatalf("echo missing last line: %q", echo.String())
	}
	if strings.Contains(echo.String(), "one") {
		t.Fatalf("echo should drop early lines: %q", echo.String())
	}
}

func TestExecRunnerNonZeroExit(t *testing.T) {
	runner := shell.NewExecRunner(5, nil)
	result, err := runner.Run(context.Background(), shell.Command{Name: "sh", Args: []string{"-c", "echo failing; exit 7"}})
	var exitErr *shell.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got %v", err)
	}
	if exitErr.ExitCode != 7 || result.ExitCode != 7 {
		t.Fatalf("unexpected exit codes: %d / %d", exitErr.ExitCode, result.ExitCode)
	}
	if len(result.Tail) != 1 || result.Tail[0] != "failing" {
		t.Fatalf("unexpected tail %v", result.Tail)
	}
}

func TestExecRunnerPassesEnvAndDir(t *testing.T) {
	dir := t.TempDir()
	runner := shell.NewExecRunner(5, nil)
	result, err := runner.Run(context.Background(), shell.Command{
		Name: "sh",
		Args: []string{"-c", "echo $DEVBOX_TEST_VALUE; pwd"},
		Dir:  dir,
		Env:  []string{"DEVBOX_TEST_VALUE=hello"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Tail) != 2 || result.Tail[0] != "hello" || !strings.HasSuffix(result.Tail[1], dir[strings.LastIndex(dir, "/"):]) {
		t.Fatalf("unexpected tail %v", result.Tail)
	}
}

func TestExecRunnerMissingBinary(t *testing.T) {
	runner := shell.NewExecRunner(5, nil)
	if _, err := runner.Run(context.Background(), shell.Command{Name: "devbox-definitely-missing"}); err == nil {
		t.Fatal("expected start error")
	}
}

func TestExecRunnerHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	runner := shell.NewExecRunner(5, nil)
	_, err := runner.Run(ctx, shell.Command{Name: "sleep", Args: []string{"5"}})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

func TestExecRunnerSurvivesOverlongLine(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	runner := shell.NewExecRunner(2, nil)
	result, err := runner.Run(ctx, shell.Command{
		Name: "sh",
		Args: []string{"-c", `head -c 2000000 /dev/zero | tr '\0' x; echo; echo done`},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Tail) != 2 || result.Tail[1] != "done" {
		t.Fatalf("expected truncated line then done, got %d lines", len(result.Tail))
	}
	if got := len(result.Tail[0]); got != shell.MaxLineBytes {
		t.Fatalf("overlong line kept %d bytes, want %d", got, shell.MaxLineBytes)
	}
}

func TestExecRunnerCancellationReachesChildren(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	runner := shell.NewExecRunner(5, nil)
	started := time.Now()
	_, err := runner.Run(ctx, shell.Command{Name: "sh", Args: []string{"-c", "sleep 30 & sleep 30; wait"}})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if elapsed := time.Since(started); elapsed > 10*time.Second {
		t.Fatalf("Run returned after %s; children kept it blocked", elapsed)
	}
}

func TestExecRunnerDoesNotWaitForBackgroundChild(t *testing.T) {
	runner := shell.NewExecRunner(5, nil)
	started := time.Now()
	result, err := runner.Run(context.Background(), shell.Command{
		Name: "sh",
		Args: []string{"-c", "sleep 8 & echo spawned"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(result.Tail) != 1 || result.Tail[0] != "spawned" {
		t.Fatalf("unexpected tail %v", result.Tail)
	}
	if elapsed := time.Since(started); elapsed > 6*time.Second {
		t.Fatalf("Run returned after %s; background child kept it blocked", elapsed)
	}
}

func TestCommandString(t *testing.T) {
	cmd := shell.Command{Name: "apt-get", Args: []string{"install", "-y", "fonts noto"}}
	if got := cmd.String(); got != `apt-get install -y "fonts noto"` {
		t.Fatalf("unexpected string %q", got)
	}
}
