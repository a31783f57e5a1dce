package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"

	"devbox/internal/launch"
	"devbox/internal/testsupport"
)

func TestStartStopLifecycle(t *testing.T) {
	env := setupCLITestEnv(t,
		testsupport.WithPort(8765),
		testsupport.WithServerCommand("sh", "-c", "echo listening on $STREAMLIT_SERVER_PORT; exec sleep 30"),
	)
	t.Cleanup(func() { _, _ = launch.Stop(context.Background(), env.cfg, nil) })

	out, _, err := env.run(t, "start")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	pid, alive, err := launch.Running(env.cfg)
	if err != nil || !alive {
		t.Fatalf("server not running after start: pid=%d err=%v", pid, err)
	}
	if strings.TrimSpace(out) != fmt.Sprintf("Web UI started on port 8765 (pid %d)", pid) {
		t.Fatalf("unexpected start output %q", out)
	}

	out, _, err = env.run(t, "start")
	if err != nil {
		t.Fatalf("second start: %v", err)
	}
	requireContains(t, out, "already running")

	out, _, err = env.run(t, "logs", "-n", "5")
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "listening on 8765")

	out, _, err = env.run(t, "stop")
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	requireContains(t, out, fmt.Sprintf("Web UI stopped (pid %d)", pid))
	if launch.Probe(pid) {
		t.Fatal("server still alive after stop")
	}

	out, _, err = env.run(t, "stop")
	if err != nil {
		t.Fatalf("second stop: %v", err)
	}
	requireContains(t, out, "Web UI is not running")

	history, _, err := env.run(t, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, history, "Launch")
}

func TestStartReportsDeadServerWithoutFailing(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithServerCommand("sh", "-c", "echo crashed; exit 1"))

	out, _, err := env.run(t, "start")
	if err != nil {
		t.Fatalf("dead server must not fail start: %v", err)
	}
	want := "Web UI may have failed to start; check " + env.cfg.Server.LogFile
	if strings.TrimSpace(out) != want {
		t.Fatalf("output %q want %q", out, want)
	}
	data, err := os.ReadFile(env.cfg.Server.LogFile)
	if err != nil {
		t.Fatalf("read server log: %v", err)
	}
	if string(data) != "crashed\n" {
		t.Fatalf("unexpected server log %q", data)
	}
}

func TestStartMissingServerBinaryFails(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithServerCommand("devbox-missing-server"))
	if _, _, err := env.run(t, "start"); err == nil {
		t.Fatal("expected exec failure")
	}
}

func TestRestartReplacesServer(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithServerCommand("sleep", "30"))
	t.Cleanup(func() { _, _ = launch.Stop(context.Background(), env.cfg, nil) })

	if _, _, err := env.run(t, "start"); err != nil {
		t.Fatalf("start: %v", err)
	}
	first, _, _ := launch.Running(env.cfg)

	out, _, err := env.run(t, "restart")
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	second, alive, _ := launch.Running(env.cfg)
	if !alive || second == first {
		t.Fatalf("expected a new live server, first=%d second=%d alive=%v", first, second, alive)
	}
	requireContains(t, out, "Web UI stopped")
	requireContains(t, out, "Web UI started")
}

func TestStartAndStopIgnoreForeignPIDFile(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithServerCommand("sleep", "30"))
	t.Cleanup(func() { _, _ = launch.Stop(context.Background(), env.cfg, nil) })

	other := exec.Command("sleep", "30")
	if err := other.Start(); err != nil {
		t.Fatalf("start unrelated process: %v", err)
	}
	t.Cleanup(func() {
		_ = other.Process.Kill()
		_ = other.Wait()
	})
	if err := os.MkdirAll(env.cfg.Paths.StateDir, 0o755); err != nil {
		t.Fatal(err)
	}
	// Left over from a previous container boot whose pid was reused.
	stale := fmt.Sprintf("%d\n1\n", other.Process.Pid)
	if err := os.WriteFile(env.cfg.PIDPath(), []byte(stale), 0o644); err != nil {
		t.Fatal(err)
	}

	out, _, err := env.run(t, "start")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	requireContains(t, out, "Web UI started")
	requireNotContains(t, out, "already running")

	if _, _, err := env.run(t, "stop"); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if !launch.Probe(other.Process.Pid) {
		t.Fatal("stop signalled an unrelated process")
	}
}

func TestStopRemovesCorruptPIDFile(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.MkdirAll(env.cfg.Paths.StateDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(env.cfg.PIDPath(), []byte("not-a-pid\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, _, err := env.run(t, "stop")
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	requireContains(t, out, "Web UI is not running")
	if _, err := os.Stat(env.cfg.PIDPath()); !os.IsNotExist(err) {
		t.Fatal("corrupt pid file should be removed")
	}
}
