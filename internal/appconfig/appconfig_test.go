package appconfig_test

import (
	"reflect"
	"testing"

	"devbox/internal/appconfig"
	"devbox/internal/testsupport"
)

const exampleYAML = `llm:
  api_key: ""
  base_url: "https://api.openai.com/v1"
  model: "gpt-4o"
comfyui:
  comfyui_url: "http://127.0.0.1:8188"
`

func TestSeedCopiesExampleOnce(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteProjectFile(t, cfg, cfg.Project.AppConfigExample, exampleYAML)

	first, err := appconfig.Seed(cfg)
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if first.Outcome != appconfig.SeedCreated {
		t.Fatalf("expected created, got %s", first.Outcome)
	}

	testsupport.WriteProjectFile(t, cfg, cfg.Project.AppConfig, "llm:\n  api_key: sk-user\n")
	second, err := appconfig.Seed(cfg)
	if err != nil {
		t.Fatalf("Seed again: %v", err)
	}
	if second.Outcome != appconfig.SeedExists {
		t.Fatalf("expected exists, got %s", second.Outcome)
	}
	if got := testsupport.ReadFile(t, second.Path); got != "llm:\n  api_key: sk-user\n" {
		t.Fatalf("user config overwritten: %q", got)
	}
}

func TestSeedWithoutExample(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	result, err := appconfig.Seed(cfg)
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if result.Outcome != appconfig.SeedNoExample {
		t.Fatalf("expected no-example, got %s", result.Outcome)
	}
}

func TestInspect(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	missing, err := appconfig.Inspect(cfg)
	if err != nil {
		t.Fatalf("Inspect missing: %v", err)
	}
	if missing.Present || missing.Ready() {
		t.Fatalf("expected absent config, got %#v", missing)
	}

	testsupport.WriteProjectFile(t, cfg, cfg.Project.AppConfig, exampleYAML)
	seeded, err := appconfig.Inspect(cfg)
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if !seeded.Present || seeded.Ready() {
		t.Fatalf("expected present but not ready, got %#v", seeded)
	}
	if !reflect.DeepEqual(seeded.Missing(), []string{"llm.api_key"}) {
		t.Fatalf("unexpected missing keys %v", seeded.Missing())
	}
	if seeded.ComfyUIURL != "http://127.0.0.1:8188" {
		t.Fatalf("unexpected comfyui url %q", seeded.ComfyUIURL)
	}

	testsupport.WriteProjectFile(t, cfg, cfg.Project.AppConfig, "llm:\n  api_key: sk-test\n  model: qwen-max\n")
	ready, err := appconfig.Inspect(cfg)
	if err != nil {
		t.Fatalf("Inspect ready: %v", err)
	}
	if !ready.Ready() || len(ready.Missing()) != 0 {
		t.Fatalf("expected ready config, got %#v", ready)
	}
}

func TestInspectRejectsMalformedYAML(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteProjectFile(t, cfg, cfg.Project.AppConfig, "llm: [unterminated")
	if _, err := appconfig.Inspect(cfg); err == nil {
		t.Fatal("expected parse error")
	}
}
