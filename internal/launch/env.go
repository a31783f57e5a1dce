package launch

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"devbox/internal/config"
)

// EnvVar is a single environment entry.
type EnvVar struct {
	Key   string
	Value string
	// Source is "managed", "dotenv", or "process".
	Source string
	// Shadowed marks .env entries ignored because the process already sets them.
	Shadowed bool
}

// ManagedEnv returns the variables devbox always sets for the web UI.
func ManagedEnv(cfg *config.Config) []EnvVar {
	return []EnvVar{
		{Key: "STREAMLIT_SERVER_PORT", Value: strconv.Itoa(cfg.Server.Port), Source: "managed"},
		{Key: "STREAMLIT_SERVER_ADDRESS", Value: cfg.Server.Address, Source: "managed"},
		{Key: "STREAMLIT_SERVER_HEADLESS", Value: strconv.FormatBool(cfg.Server.Headless), Source: "managed"},
		{Key: "STREAMLIT_LOGGER_LEVEL", Value: cfg.Server.LogLevel, Source: "managed"},
		{Key: "UV_LINK_MODE", Value: cfg.Python.LinkMode, Source: "managed"},
	}
}

// DotEnv reads the project's env file. A missing file yields no entries.
func DotEnv(cfg *config.Config) ([]EnvVar, error) {
	path := cfg.ProjectPath(cfg.Server.EnvFile)
	if path == "" {
		return nil, nil
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read env file %s: %w", path, err)
	}
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	vars := make([]EnvVar, 0, len(keys))
	for _, key := range keys {
		_, shadowed := os.LookupEnv(key)
		vars = append(vars, EnvVar{Key: key, Value: values[key], Source: "dotenv", Shadowed: shadowed})
	}
	return vars, nil
}

// BuildEnv assembles the web UI environment: the current process environment,
// then .env keys not already set, then the managed variables, which always win.
func BuildEnv(cfg *config.Config) ([]string, error) {
	dotenv, err := DotEnv(cfg)
	if err != nil {
		return nil, err
	}
	managed := ManagedEnv(cfg)
	overridden := make(map[string]struct{}, len(managed))
	for _, v := range managed {
		overridden[v.Key] = struct{}{}
	}

	env := make([]string, 0, len(os.Environ())+len(dotenv)+len(managed))
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if _, ok := overridden[key]; ok {
			continue
		}
		env = append(env, kv)
	}
	for _, v := range dotenv {
		if v.Shadowed {
			continue
		}
		if _, ok := overridden[v.Key]; ok {
			continue
		}
		env = append(env, v.Key+"="+v.Value)
	}
	for _, v := range managed {
		env = append(env, v.Key+"="+v.Value)
	}
	return env, nil
}

var secretMarkers = []string{"KEY", "SECRET", "TOKEN", "PASSWORD", "PASSWD", "CREDENTIAL"}

// IsSecret reports whether a variable name looks like it holds a credential.
func IsSecret(key string) bool {
	upper := strings.ToUpper(key)
	for _, marker := range secretMarkers {
		if strings.Contains(upper, marker) {
			return true
		}
	}
	return false
}

// Mask hides all but the last four characters of secret values.
func Mask(key, value string) string {
	if !IsSecret(key) || value == "" {
		return value
	}
	if len(value) <= 8 {
		return strings.Repeat("*", len(value))
	}
	return strings.Repeat("*", 8) + value[len(value)-4:]
}
