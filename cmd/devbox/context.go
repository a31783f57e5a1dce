package main

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"devbox/internal/config"
	"devbox/internal/journal"
	"devbox/internal/logging"
	"devbox/internal/services"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string
	verboseFlag  *bool

	configOnce     sync.Once
	config         *config.Config
	configErr      error
	configResolved string
	configExists   bool
}

func newCommandContext(configFlag, logLevelFlag *string, verboseFlag *bool) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
		verboseFlag:  verboseFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, exists, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "config", "load", "", err)
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "config", "directories", "", err)
			return
		}
		c.config = cfg
		c.configResolved = path
		c.configExists = exists
	})
	return c.config, c.configErr
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) logLevel(cfg *config.Config) string {
	if c.verboseFlag != nil && *c.verboseFlag {
		return "debug"
	}
	if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
		return strings.TrimSpace(*c.logLevelFlag)
	}
	return cfg.Logging.Level
}

// commandLogger builds the console logger for a command and tees it into a
// per-run JSON log under log_dir. A run log that cannot be opened only costs
// the file copy; the console logger still works.
func (c *commandContext) commandLogger(cmd *cobra.Command, name string) (*slog.Logger, func(), error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	level := c.logLevel(cfg)
	console, err := logging.New(logging.Options{
		Level:  level,
		Format: cfg.Logging.Format,
		Writer: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, nil, services.Wrap(services.ErrConfiguration, "config", "logging", "", err)
	}

	runLogPath := filepath.Join(cfg.Paths.LogDir, logging.RunLogName(time.Now(), name))
	handler, closeRunLog, err := logging.NewRunLogHandler(runLogPath, level)
	if err != nil {
		logging.WarnWithContext(console, "run log unavailable", "run_log_unavailable",
			logging.String("path", runLogPath),
			logging.Error(err),
			logging.String(logging.FieldImpact, "this run is only logged to the console"),
		)
		return logging.NewComponentLogger(console, name), func() {}, nil
	}

	logger := logging.NewComponentLogger(logging.TeeLogger(console, handler), name)
	if err := logging.EnsureCurrentLogPointer(cfg.Paths.LogDir, runLogPath); err != nil {
		logger.Debug("log pointer not updated", logging.Error(err))
	}
	if removed := logging.PruneRunLogs(logger, cfg.Paths.LogDir, cfg.Logging.RetentionDays, runLogPath); removed > 0 {
		logger.Debug("pruned run logs", logging.Int("removed", removed))
	}
	return logger, func() { _ = closeRunLog() }, nil
}

// journalRetainRuns bounds the number of runs kept in the journal.
const journalRetainRuns = 200

// runRecorder writes to the journal when it is available. Journal failures
// are logged and never fail a phase.
type runRecorder struct {
	store  *journal.Store
	run    *journal.Run
	logger *slog.Logger
}

func (c *commandContext) beginRun(ctx context.Context, phase string, logger *slog.Logger) *runRecorder {
	rec := &runRecorder{logger: logger}
	cfg, err := c.ensureConfig()
	if err != nil {
		return rec
	}
	store, err := journal.Open(cfg)
	if err != nil {
		rec.warn("journal unavailable", err)
		return rec
	}
	run, err := store.BeginRun(ctx, phase)
	if err != nil {
		rec.warn("journal run not recorded", err)
		_ = store.Close()
		return rec
	}
	rec.store = store
	rec.run = run
	return rec
}

func (r *runRecorder) runID() string {
	if r == nil || r.run == nil {
		return ""
	}
	return r.run.ID
}

func (r *runRecorder) step(ctx context.Context, step journal.Step) {
	if r == nil || r.store == nil {
		return
	}
	if err := r.store.RecordStep(context.WithoutCancel(ctx), r.run.ID, step); err != nil {
		r.warn("journal step not recorded", err)
	}
}

func (r *runRecorder) finish(ctx context.Context, outcome journal.Outcome, detail string) {
	if r == nil || r.store == nil {
		return
	}
	defer r.store.Close()
	ctx = context.WithoutCancel(ctx)
	if err := r.store.FinishRun(ctx, r.run.ID, outcome, detail); err != nil {
		r.warn("journal run not finalized", err)
	}
	if _, err := r.store.Prune(ctx, journalRetainRuns); err != nil {
		r.warn("journal prune failed", err)
	}
}

func (r *runRecorder) warn(msg string, err error) {
	logging.WarnWithContext(r.logger, msg, "journal_unavailable",
		logging.Error(err),
		logging.String(logging.FieldImpact, "devbox history will not show this run"),
	)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
