package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// RecordStep appends a step to the run. Position is assigned in insertion order.
func (s *Store) RecordStep(ctx context.Context, runID string, step Step) error {
	if strings.TrimSpace(runID) == "" {
		return errors.New("run id is required")
	}
	if strings.TrimSpace(step.Name) == "" {
		return errors.New("step name is required")
	}
	recorded := step.RecordedAt
	if recorded.IsZero() {
		recorded = time.Now()
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO steps (run_id, position, name, policy, status, detail, duration_ms, recorded_at)
         VALUES (?, (SELECT COALESCE(MAX(position), 0) + 1 FROM steps WHERE run_id = ?), ?, ?, ?, ?, ?, ?)`,
		runID, runID,
		step.Name,
		step.Policy,
		step.Status,
		nullableString(step.Detail),
		step.Duration.Milliseconds(),
		formatTime(recorded),
	)
	if err != nil {
		return fmt.Errorf("insert step %s: %w", step.Name, err)
	}
	return nil
}

// Steps returns the steps recorded for a run in execution order.
func (s *Store) Steps(ctx context.Context, runID string) ([]Step, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT run_id, position, name, policy, status, detail, duration_ms, recorded_at
         FROM steps WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("query steps: %w", err)
	}
	defer rows.Close()

	var steps []Step
	for rows.Next() {
		var (
			step     Step
			detail   sql.NullString
			duration int64
			recorded sql.NullString
		)
		if err := rows.Scan(&step.RunID, &step.Position, &step.Name, &step.Policy, &step.Status, &detail, &duration, &recorded); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		step.Detail = detail.String
		step.Duration = time.Duration(duration) * time.Millisecond
		step.RecordedAt = parseTime(recorded)
		steps = append(steps, step)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate steps: %w", err)
	}
	return steps, nil
}
