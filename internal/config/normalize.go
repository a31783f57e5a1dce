package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeProject(); err != nil {
		return err
	}
	c.normalizePackages()
	c.normalizePython()
	if err := c.normalizeServer(); err != nil {
		return err
	}
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeProject() error {
	if value, ok := os.LookupEnv("DEVBOX_PROJECT_ROOT"); ok && strings.TrimSpace(value) != "" {
		c.Project.Root = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Project.Root) == "" {
		c.Project.Root = defaultProjectRoot
	}
	var err error
	if c.Project.Root, err = expandPath(c.Project.Root); err != nil {
		return fmt.Errorf("project.root: %w", err)
	}
	c.Project.Name = strings.TrimSpace(c.Project.Name)
	if c.Project.Name == "" {
		c.Project.Name = defaultProjectName
	}
	c.Project.SetupScript = strings.TrimSpace(c.Project.SetupScript)
	c.Project.AppConfig = strings.TrimSpace(c.Project.AppConfig)
	c.Project.AppConfigExample = strings.TrimSpace(c.Project.AppConfigExample)
	return nil
}

func (c *Config) normalizePackages() {
	c.Packages.Manager = strings.TrimSpace(c.Packages.Manager)
	if c.Packages.Manager == "" {
		c.Packages.Manager = defaultPackageManager
	}
	c.Packages.Sudo = strings.ToLower(strings.TrimSpace(c.Packages.Sudo))
	if c.Packages.Sudo == "" {
		c.Packages.Sudo = defaultSudoMode
	}
	pkgs := make([]string, 0, len(c.Packages.Install))
	seen := make(map[string]struct{}, len(c.Packages.Install))
	for _, pkg := range c.Packages.Install {
		name := strings.TrimSpace(pkg)
		if name == "" {
			continue
		}
		if _, exists := seen[name]; exists {
			continue
		}
		seen[name] = struct{}{}
		pkgs = append(pkgs, name)
	}
	c.Packages.Install = pkgs
	if c.Packages.OutputTailLines <= 0 {
		c.Packages.OutputTailLines = defaultOutputTailLines
	}
}

func (c *Config) normalizePython() {
	c.Python.Tool = strings.TrimSpace(c.Python.Tool)
	if c.Python.Tool == "" {
		c.Python.Tool = defaultPythonTool
	}
	commands := make([][]string, 0, len(c.Python.InstallCommands))
	for _, argv := range c.Python.InstallCommands {
		if trimmed := trimArgs(argv); len(trimmed) > 0 {
			commands = append(commands, trimmed)
		}
	}
	c.Python.InstallCommands = commands
	c.Python.SyncArgs = trimArgs(c.Python.SyncArgs)
	if len(c.Python.SyncArgs) == 0 {
		c.Python.SyncArgs = []string{"sync"}
	}
	c.Python.LinkMode = strings.TrimSpace(c.Python.LinkMode)
	c.Python.MinVersion = strings.TrimPrefix(strings.TrimSpace(c.Python.MinVersion), "v")
}

func (c *Config) normalizeServer() error {
	if value, ok := os.LookupEnv("DEVBOX_SERVER_PORT"); ok && strings.TrimSpace(value) != "" {
		port, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("DEVBOX_SERVER_PORT: invalid port %q", value)
		}
		c.Server.Port = port
	}
	c.Server.Command = trimArgs(c.Server.Command)
	if len(c.Server.Command) == 0 {
		c.Server.Command = defaultServerCommand()
	}
	c.Server.Address = strings.TrimSpace(c.Server.Address)
	if c.Server.Address == "" {
		c.Server.Address = defaultServerAddress
	}
	c.Server.LogLevel = strings.ToLower(strings.TrimSpace(c.Server.LogLevel))
	switch c.Server.LogLevel {
	case "":
		c.Server.LogLevel = defaultServerLogLevel
	case "warn":
		c.Server.LogLevel = "warning"
	}
	if strings.TrimSpace(c.Server.LogFile) == "" {
		c.Server.LogFile = defaultServerLogFile
	}
	var err error
	if c.Server.LogFile, err = expandPath(strings.TrimSpace(c.Server.LogFile)); err != nil {
		return fmt.Errorf("server.log_file: %w", err)
	}
	if c.Server.LivenessWaitSeconds < 0 {
		c.Server.LivenessWaitSeconds = 0
	}
	c.Server.EnvFile = strings.TrimSpace(c.Server.EnvFile)
	c.Server.HealthPath = strings.TrimSpace(c.Server.HealthPath)
	if c.Server.HealthPath == "" {
		c.Server.HealthPath = defaultHealthPath
	}
	if !strings.HasPrefix(c.Server.HealthPath, "/") {
		c.Server.HealthPath = "/" + c.Server.HealthPath
	}
	if c.Server.StopTimeoutSeconds <= 0 {
		c.Server.StopTimeoutSeconds = defaultStopTimeoutSeconds
	}
	return nil
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	var err error
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

func trimArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for _, arg := range args {
		if trimmed := strings.TrimSpace(arg); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
