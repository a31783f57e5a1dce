package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Project describes the workspace being provisioned.
type Project struct {
	Root             string `toml:"root"`
	Name             string `toml:"name"`
	SetupScript      string `toml:"setup_script"`
	AppConfig        string `toml:"app_config"`
	AppConfigExample string `toml:"app_config_example"`
}

// Packages contains OS package installation settings.
type Packages struct {
	Manager         string   `toml:"manager"`
	Sudo            string   `toml:"sudo"`
	Update          bool     `toml:"update"`
	Install         []string `toml:"install"`
	OutputTailLines int      `toml:"output_tail_lines"`
}

// Python contains settings for the Python dependency tool.
type Python struct {
	Tool            string     `toml:"tool"`
	InstallCommands [][]string `toml:"install_commands"`
	SyncArgs        []string   `toml:"sync_args"`
	LinkMode        string     `toml:"link_mode"`
	MinVersion      string     `toml:"min_version"`
}

// Server contains settings for the web UI process started by the launch phase.
type Server struct {
	Command             []string `toml:"command"`
	Port                int      `toml:"port"`
	Address             string   `toml:"address"`
	Headless            bool     `toml:"headless"`
	LogLevel            string   `toml:"log_level"`
	LogFile             string   `toml:"log_file"`
	LivenessWaitSeconds int      `toml:"liveness_wait_seconds"`
	EnvFile             string   `toml:"env_file"`
	HealthPath          string   `toml:"health_path"`
	StopTimeoutSeconds  int      `toml:"stop_timeout_seconds"`
}

// Paths contains devbox's own state and log locations.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for devbox.
//
// Configuration sections by phase:
//   - Project: workspace root, secondary setup script, app config files
//   - Packages: OS packages installed during setup
//   - Python: dependency tool install and sync
//   - Server: web UI command, environment, log file, liveness window
//   - Paths: state (pid, lock, journal) and devbox log directories
//   - Logging: log format, level, and retention
type Config struct {
	Project  Project  `toml:"project"`
	Packages Packages `toml:"packages"`
	Python   Python   `toml:"python"`
	Server   Server   `toml:"server"`
	Paths    Paths    `toml:"paths"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories. The web UI log
// directory is created on a best-effort basis; the launch phase reports the
// real error when it cannot open the file.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if dir := filepath.Dir(c.Server.LogFile); strings.TrimSpace(c.Server.LogFile) != "" {
		_ = os.MkdirAll(dir, 0o755)
	}
	return nil
}

// PIDPath is where the launch phase records the web UI process id.
func (c *Config) PIDPath() string {
	return filepath.Join(c.Paths.StateDir, "webui.pid")
}

// LockPath is the file lock serializing devbox runs.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "devbox.lock")
}

// JournalPath is the SQLite run journal location.
func (c *Config) JournalPath() string {
	return filepath.Join(c.Paths.StateDir, "journal.db")
}

// ProjectPath resolves a project-relative path. Absolute values are returned unchanged.
func (c *Config) ProjectPath(rel string) string {
	rel = strings.TrimSpace(rel)
	if rel == "" {
		return ""
	}
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(c.Project.Root, rel)
}

// HealthURL is the loopback URL of the web UI health endpoint.
func (c *Config) HealthURL() string {
	return fmt.Sprintf("http://127.0.0.1:%d%s", c.Server.Port, c.Server.HealthPath)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
