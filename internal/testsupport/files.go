package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"devbox/internal/config"
)

// WriteProjectFile writes content to a path relative to the project root,
// creating parent directories as needed, and returns the absolute path.
func WriteProjectFile(t testing.TB, cfg *config.Config, rel, content string) string {
	t.Helper()

	path := cfg.ProjectPath(rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// ReadFile returns the file contents or fails the test.
func ReadFile(t testing.TB, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}
