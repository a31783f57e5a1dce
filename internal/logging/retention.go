package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// RunLogPattern matches the per-invocation log files written under log_dir.
const RunLogPattern = "devbox-*.log"

// RunLogName returns the file name for a run log started at ts.
func RunLogName(ts time.Time, command string) string {
	command = strings.TrimSpace(command)
	if command == "" {
		command = "run"
	}
	return fmt.Sprintf("devbox-%s-%s.log", ts.UTC().Format("20060102T150405Z"), command)
}

// PruneRunLogs removes run logs in dir older than retentionDays, skipping
// any paths listed in keep. A retentionDays value of 0 disables pruning.
// It returns the number of files removed.
func PruneRunLogs(logger *slog.Logger, dir string, retentionDays int, keep ...string) int {
	dir = strings.TrimSpace(dir)
	if retentionDays <= 0 || dir == "" {
		return 0
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	exclusions := make(map[string]struct{}, len(keep))
	for _, path := range keep {
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			if abs, err := filepath.Abs(trimmed); err == nil {
				exclusions[abs] = struct{}{}
			}
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	removed := 0
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if matched, err := filepath.Match(RunLogPattern, entry.Name()); err != nil || !matched {
			continue
		}
		fullPath := filepath.Join(dir, entry.Name())
		if abs, err := filepath.Abs(fullPath); err == nil {
			fullPath = abs
		}
		if _, skip := exclusions[fullPath]; skip {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(fullPath); err != nil {
			WarnWithContext(logger, "log retention remove failed; file remains", "log_retention_failed",
				String("path", fullPath),
				Error(err),
				String(FieldErrorHint, "check file permissions and paths.log_dir ownership"),
				String(FieldImpact, "old run log remains on disk"),
			)
			continue
		}
		removed++
		if logger != nil {
			logger.Debug("run log pruned",
				String("path", fullPath),
				String(FieldEventType, "log_pruned"),
			)
		}
	}
	return removed
}
