package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewRunID produces a time-sortable migration run identifier.
func NewRunID() string {
	return "run_" + uuid.Must(uuid.NewV7()).String()
}

// RecordRun persists a migration run report. Every run, successful or not,
// leaves a row here — silent partial success is never acceptable.
func (s *Store) RecordRun(ctx context.Context, r *RunRecord) error {
	if r.RunID == "" {
		r.RunID = NewRunID()
	}
	if r.CreatedAt == 0 {
		r.CreatedAt = time.Now().UnixMilli()
	}
	if r.Details == "" {
		r.Details = "{}"
	}
	_, err := execBusy(ctx, s.DB,
		`INSERT INTO migration_runs (run_id, stage, migrated, skipped, errored,
		duration_ms, success, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Stage, r.Migrated, r.Skipped, r.Errored,
		r.DurationMS, r.Success, r.Details, r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("store: record run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent run records, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*RunRecord, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT run_id, stage, migrated, skipped, errored, duration_ms, success, details, created_at
		FROM migration_runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()

	var runs []*RunRecord
	for rows.Next() {
		var r RunRecord
		var success int
		err := rows.Scan(&r.RunID, &r.Stage, &r.Migrated, &r.Skipped, &r.Errored,
			&r.DurationMS, &success, &r.Details, &r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.Success = success != 0
		runs = append(runs, &r)
	}
	return runs, rows.Err()
}
