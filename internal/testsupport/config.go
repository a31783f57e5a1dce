package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"devbox/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The project root, state dir, log dir, and web UI log file all live under
// one temp directory so tests never touch the real home directory.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Project.Root = filepath.Join(base, "project")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Server.LogFile = filepath.Join(base, "webui.log")
	cfgVal.Server.LivenessWaitSeconds = 1
	cfgVal.Server.StopTimeoutSeconds = 2
	cfgVal.Packages.Sudo = config.SudoNever
	if err := os.MkdirAll(cfgVal.Project.Root, 0o755); err != nil {
		t.Fatalf("mkdir project root: %v", err)
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithServerCommand overrides the web UI command on the test config.
func WithServerCommand(args ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Server.Command = args
	}
}

// WithPort overrides the web UI port on the test config.
func WithPort(port int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Server.Port = port
	}
}

// WithStubbedBinaries writes stub executables that exit 0 for the provided
// names and prepends them to PATH. If names is empty, the default external
// binaries used by the setup phase are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"apt-get", "uv", "bash"}
		}
		for _, name := range names {
			writeStub(b.t, b.binDir(), name, "#!/bin/sh\nexit 0\n")
		}
		b.prependPath()
	}
}

// WithFailingBinaries writes stub executables that print to stderr and exit
// with status 1.
func WithFailingBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		for _, name := range names {
			writeStub(b.t, b.binDir(), name, "#!/bin/sh\necho \""+name+": simulated failure\" >&2\nexit 1\n")
		}
		b.prependPath()
	}
}

// WithScriptedBinary writes a stub executable with the provided shell body.
func WithScriptedBinary(name, body string) ConfigOption {
	return func(b *configBuilder) {
		writeStub(b.t, b.binDir(), name, "#!/bin/sh\n"+body+"\n")
		b.prependPath()
	}
}

func (b *configBuilder) binDir() string {
	dir := filepath.Join(b.baseDir, "bin")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		b.t.Fatalf("mkdir bin dir: %v", err)
	}
	return dir
}

func (b *configBuilder) prependPath() {
	dir := filepath.Join(b.baseDir, "bin")
	current := os.Getenv("PATH")
	if filepath.SplitList(current)[0] == dir {
		return
	}
	setenv(b.t, "PATH", dir+string(os.PathListSeparator)+current)
}

func writeStub(t testing.TB, dir, name, script string) {
	t.Helper()
	target := filepath.Join(dir, name)
	if err := os.WriteFile(target, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub %s: %v", name, err)
	}
}

func setenv(t testing.TB, key, value string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("set %s: %v", key, err)
	}
	t.Cleanup(func() {
		if had {
			_ = os.Setenv(key, old)
			return
		}
		_ = os.Unsetenv(key)
	})
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Project.Root)
}
