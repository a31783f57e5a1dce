package main

import (
	"errors"
	"strings"
	"testing"

	"devbox/internal/runlock"
	"devbox/internal/services"
	"devbox/internal/testsupport"
)

func TestSetupCommandSucceedsAndIsJournaled(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries())
	testsupport.WriteProjectFile(t, env.cfg, "pyproject.toml", "[project]\nname = \"pixelle\"\ndependencies = [\"streamlit\"]\n")
	testsupport.WriteProjectFile(t, env.cfg, "uv.lock", "version = 1\n")
	testsupport.WriteProjectFile(t, env.cfg, "config.example.yaml", "llm:\n  api_key: \"\"\n  model: \"\"\n")

	for i := range 2 {
		out, _, err := env.run(t, "setup")
		if err != nil {
			t.Fatalf("setup run %d: %v", i+1, err)
		}
		requireContains(t, out, "Setup complete")
		requireNotContains(t, out, "tolerated failures")
		requireContains(t, out, "python-sync")
	}

	out, _, err := env.run(t, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if strings.Count(out, "succeeded") != 2 {
		t.Fatalf("expected two succeeded runs, got:\n%s", out)
	}
	requireContains(t, out, "Setup")
}

func TestSetupCommandToleratesPackageFailures(t *testing.T) {
	env := setupCLITestEnv(t,
		testsupport.WithStubbedBinaries("uv", "bash"),
		testsupport.WithFailingBinaries("apt-get"),
	)

	out, _, err := env.run(t, "setup")
	if err != nil {
		t.Fatalf("package failures must not fail setup: %v", err)
	}
	requireContains(t, out, "Setup complete with tolerated failures")
	requireContains(t, out, "packages-install")

	history, _, err := env.run(t, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, history, "degraded")
}

func TestSetupCommandSyncFailureIsFatal(t *testing.T) {
	env := setupCLITestEnv(t,
		testsupport.WithStubbedBinaries("apt-get", "bash"),
		testsupport.WithFailingBinaries("uv"),
	)
	testsupport.WriteProjectFile(t, env.cfg, "pyproject.toml", "[project]\nname = \"pixelle\"\n")
	testsupport.WriteProjectFile(t, env.cfg, "uv.lock", "version = 1\n")

	out, _, err := env.run(t, "setup")
	if err == nil {
		t.Fatal("expected sync failure")
	}
	if code := services.ExitCode(err); code != services.ExitFailed {
		t.Fatalf("exit code %d want %d", code, services.ExitFailed)
	}
	requireContains(t, out, "Setup failed at python-sync")
	requireContains(t, out, "not-run")
}

func TestSetupCommandHonorsSkipFlags(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithFailingBinaries("apt-get", "uv"))
	testsupport.WriteProjectFile(t, env.cfg, "pyproject.toml", "[project]\nname = \"pixelle\"\n")
	testsupport.WriteProjectFile(t, env.cfg, "uv.lock", "version = 1\n")

	out, _, err := env.run(t, "setup", "--skip-packages", "--skip-sync")
	if err != nil {
		t.Fatalf("setup with skips: %v", err)
	}
	requireContains(t, out, "--skip-sync")
	requireContains(t, out, "Setup complete")
}

func TestSetupCommandBusyWhenLocked(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedBinaries())
	if err := env.cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	lock, err := runlock.Acquire(env.cfg.LockPath())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer lock.Release()

	_, _, err = env.run(t, "setup")
	if !errors.Is(err, services.ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	if code := services.ExitCode(err); code != services.ExitBusy {
		t.Fatalf("exit code %d want %d", code, services.ExitBusy)
	}
}
