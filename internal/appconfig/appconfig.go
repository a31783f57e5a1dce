// Package appconfig manages the web UI's own YAML configuration file.
//
// devbox never edits the file's contents. It seeds config.yaml from the
// example shipped with the project and reads it back to report whether the
// LLM settings the web UI needs have been filled in.
package appconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"devbox/internal/config"
	"devbox/internal/fileutil"
)

// SeedOutcome describes what Seed did.
type SeedOutcome string

const (
	SeedCreated   SeedOutcome = "created"
	SeedExists    SeedOutcome = "exists"
	SeedNoExample SeedOutcome = "no-example"
)

// SeedResult reports the paths involved in a seed attempt.
type SeedResult struct {
	Outcome SeedOutcome
	Path    string
	Example string
}

// Seed copies the example config to the app config path when the latter is
// missing. An existing config is never overwritten.
func Seed(cfg *config.Config) (SeedResult, error) {
	result := SeedResult{
		Path:    cfg.ProjectPath(cfg.Project.AppConfig),
		Example: cfg.ProjectPath(cfg.Project.AppConfigExample),
	}
	if result.Path == "" {
		return result, errors.New("project.app_config is not set")
	}
	if fileutil.Exists(result.Path) {
		result.Outcome = SeedExists
		return result, nil
	}
	if result.Example == "" || !fileutil.Exists(result.Example) {
		result.Outcome = SeedNoExample
		return result, nil
	}
	err := fileutil.CopyNoClobber(result.Example, result.Path)
	switch {
	case err == nil:
		result.Outcome = SeedCreated
	case errors.Is(err, fileutil.ErrExists):
		result.Outcome = SeedExists
	default:
		return result, fmt.Errorf("copy %s to %s: %w", result.Example, result.Path, err)
	}
	return result, nil
}

type document struct {
	LLM struct {
		APIKey  string `yaml:"api_key"`
		BaseURL string `yaml:"base_url"`
		Model   string `yaml:"model"`
	} `yaml:"llm"`
	ComfyUI struct {
		URL string `yaml:"comfyui_url"`
	} `yaml:"comfyui"`
}

// Readiness summarizes the app config from devbox's point of view.
type Readiness struct {
	Path       string
	Present    bool
	APIKeySet  bool
	Model      string
	BaseURL    string
	ComfyUIURL string
}

// Ready reports whether the LLM settings required by the web UI are filled in.
func (r Readiness) Ready() bool {
	return r.Present && r.APIKeySet && r.Model != ""
}

// Missing lists the required keys that are still empty.
func (r Readiness) Missing() []string {
	if !r.Present {
		return []string{"config file"}
	}
	var missing []string
	if !r.APIKeySet {
		missing = append(missing, "llm.api_key")
	}
	if r.Model == "" {
		missing = append(missing, "llm.model")
	}
	return missing
}

// Inspect parses the app config. A missing file is reported as not present
// rather than an error.
func Inspect(cfg *config.Config) (Readiness, error) {
	readiness := Readiness{Path: cfg.ProjectPath(cfg.Project.AppConfig)}
	data, err := os.ReadFile(readiness.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return readiness, nil
		}
		return readiness, fmt.Errorf("read app config: %w", err)
	}
	readiness.Present = true

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return readiness, fmt.Errorf("parse app config %s: %w", readiness.Path, err)
	}
	readiness.APIKeySet = strings.TrimSpace(doc.LLM.APIKey) != ""
	readiness.Model = strings.TrimSpace(doc.LLM.Model)
	readiness.BaseURL = strings.TrimSpace(doc.LLM.BaseURL)
	readiness.ComfyUIURL = strings.TrimSpace(doc.ComfyUI.URL)
	return readiness, nil
}
