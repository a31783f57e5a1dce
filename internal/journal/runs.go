package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrRunNotFound is returned when no run matches an identifier.
var ErrRunNotFound = errors.New("run not found")

const runColumns = `id, phase, started_at, finished_at, outcome, detail, hostname,
    (SELECT COUNT(1) FROM steps WHERE steps.run_id = runs.id)`

// BeginRun records the start of a phase and returns the new run.
func (s *Store) BeginRun(ctx context.Context, phase string) (*Run, error) {
	phase = strings.TrimSpace(phase)
	if phase == "" {
		return nil, errors.New("phase is required")
	}
	hostname, _ := os.Hostname()
	run := &Run{
		ID:        uuid.NewString(),
		Phase:     phase,
		StartedAt: time.Now().UTC(),
		Outcome:   OutcomeRunning,
		Hostname:  hostname,
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO runs (id, phase, started_at, outcome, hostname) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.Phase, formatTime(run.StartedAt), string(run.Outcome), nullableString(run.Hostname),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// FinishRun stamps the run's outcome and finish time.
func (s *Store) FinishRun(ctx context.Context, id string, outcome Outcome, detail string) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE runs SET finished_at = ?, outcome = ?, detail = ? WHERE id = ?`,
		formatTime(time.Now()), string(outcome), nullableString(detail), id,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run %s: %w", id, ErrRunNotFound)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Find returns the run whose id equals or starts with prefix. An ambiguous
// prefix is an error.
func (s *Store) Find(ctx context.Context, prefix string) (*Run, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil, ErrRunNotFound
	}
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT `+runColumns+` FROM runs WHERE id = ? OR id LIKE ? ESCAPE '\' ORDER BY started_at DESC LIMIT 2`,
		prefix, escapeLike(prefix)+"%")
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	defer rows.Close()

	var matches []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		if run.ID == prefix {
			return &run, nil
		}
		matches = append(matches, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, prefix)
	case 1:
		return &matches[0], nil
	default:
		return nil, fmt.Errorf("run id prefix %q is ambiguous", prefix)
	}
}

// Prune deletes all but the newest keep runs along with their steps and
// returns the number of runs removed.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.execWithRetry(ctx,
		`DELETE FROM runs WHERE id NOT IN (
            SELECT id FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?
        )`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune rows affected: %w", err)
	}
	return n, nil
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (Run, error) {
	var (
		run        Run
		startedRaw sql.NullString
		finished   sql.NullString
		outcome    string
		detail     sql.NullString
		hostname   sql.NullString
	)
	if err := scanner.Scan(&run.ID, &run.Phase, &startedRaw, &finished, &outcome, &detail, &hostname, &run.StepCount); err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.StartedAt = parseTime(startedRaw)
	run.FinishedAt = parseTime(finished)
	run.Outcome = Outcome(outcome)
	run.Detail = detail.String
	run.Hostname = hostname.String
	return run, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}
