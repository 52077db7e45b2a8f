// Package store persists scored mission runs in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"launchops-sim/internal/mission"
	"launchops-sim/internal/scoring"
	"launchops-sim/internal/store/migrations"
	"launchops-sim/internal/telemetry"
)

// Store provides SQLite-backed performance record persistence.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a performance store at path and applies migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close releases the SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Create persists one scored run.
func (s *Store) Create(ctx context.Context, e mission.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	e.RunID = strings.TrimSpace(e.RunID)
	if e.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	r := e.Record
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO performance_records (
	run_id,
	scenario_id,
	terminal_state,
	completion_time_ms,
	time_score,
	error_score,
	checklist_score,
	completion_score,
	overall_score,
	grade,
	error_count,
	warning_count,
	created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		e.RunID,
		e.ScenarioID,
		string(e.TerminalState),
		e.CompletionTimeMs,
		r.TimeScore,
		r.ErrorScore,
		r.ChecklistScore,
		r.CompletionScore,
		r.OverallScore,
		r.Grade,
		r.ErrorCount,
		r.WarningCount,
		e.CreatedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("create performance record: %w", err)
	}
	return nil
}

// List returns newest-first records, optionally filtered by scenario.
func (s *Store) List(ctx context.Context, scenarioID string, limit int) ([]mission.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT
	run_id,
	scenario_id,
	terminal_state,
	completion_time_ms,
	time_score,
	error_score,
	checklist_score,
	completion_score,
	overall_score,
	grade,
	error_count,
	warning_count,
	created_at
FROM performance_records
WHERE ? = '' OR scenario_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ?
`, scenarioID, scenarioID, limit)
	if err != nil {
		return nil, fmt.Errorf("list performance records: %w", err)
	}
	defer rows.Close()

	var out []mission.Entry
	for rows.Next() {
		var (
			e         mission.Entry
			r         scoring.Record
			state     string
			createdAt int64
		)
		if err := rows.Scan(
			&e.RunID,
			&e.ScenarioID,
			&state,
			&e.CompletionTimeMs,
			&r.TimeScore,
			&r.ErrorScore,
			&r.ChecklistScore,
			&r.CompletionScore,
			&r.OverallScore,
			&r.Grade,
			&r.ErrorCount,
			&r.WarningCount,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan performance record: %w", err)
		}
		e.TerminalState = telemetry.SystemState(state)
		e.Record = r
		e.CreatedAt = time.UnixMilli(createdAt).UTC()
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate performance records: %w", err)
	}
	return out, nil
}
