package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePackages(); err != nil {
		return err
	}
	if err := c.validatePython(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePackages() error {
	switch c.Packages.Sudo {
	case SudoAuto, SudoAlways, SudoNever:
	default:
		return fmt.Errorf("packages.sudo must be one of %q, %q, %q (got %q)", SudoAuto, SudoAlways, SudoNever, c.Packages.Sudo)
	}
	for _, pkg := range c.Packages.Install {
		if strings.HasPrefix(pkg, "-") {
			return fmt.Errorf("packages.install entry %q looks like a flag", pkg)
		}
	}
	return nil
}

func (c *Config) validatePython() error {
	if c.Python.MinVersion == "" {
		return nil
	}
	if _, err := semver.NewVersion(c.Python.MinVersion); err != nil {
		return fmt.Errorf("python.min_version %q is not a valid version: %w", c.Python.MinVersion, err)
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535 (got %d)", c.Server.Port)
	}
	if len(c.Server.Command) == 0 {
		return errors.New("server.command must not be empty")
	}
	if strings.TrimSpace(c.Server.LogFile) == "" {
		return errors.New("server.log_file must be set")
	}
	switch c.Server.LogLevel {
	case "debug", "info", "warning", "error":
	default:
		return fmt.Errorf("server.log_level must be debug, info, warning, or error (got %q)", c.Server.LogLevel)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	return nil
}
