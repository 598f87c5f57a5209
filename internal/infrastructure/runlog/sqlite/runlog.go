// Package sqlite provides a SQLite implementation of the RunLog interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/ersonp/comply-core/internal/domain/entities"
	"github.com/ersonp/comply-core/internal/infrastructure/config"
)

// defaultListLimit bounds listings when no limit is given.
const defaultListLimit = 50

// RunLog implements ports.RunLog using SQLite.
type RunLog struct {
	db   *sql.DB
	path string
}

// NewRunLog opens (creating if needed) the run log database.
func NewRunLog(cfg config.RunLogConfig) (*RunLog, error) {
	if cfg.Path == "" {
		return nil, errors.New("run log path is required")
	}

	if cfg.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0755); err != nil {
			return nil, fmt.Errorf("creating run log directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// An in-memory database exists per connection.
	if cfg.Path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrent read/write performance
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Set busy timeout to avoid "database is locked" errors
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	return &RunLog{
		db:   db,
		path: cfg.Path,
	}, nil
}

// Close closes the database connection.
func (r *RunLog) Close() error {
	return r.db.Close()
}

// Path returns the database file path.
func (r *RunLog) Path() string {
	return r.path
}

// EnsureSchema creates the database schema if it doesn't exist.
func (r *RunLog) EnsureSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS check_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source TEXT NOT NULL,
		type TEXT NOT NULL,
		entity TEXT NOT NULL,
		outcome TEXT NOT NULL,
		stage TEXT,
		error TEXT,
		record_id TEXT,
		score INTEGER,
		started_at TIMESTAMP NOT NULL,
		duration_ms INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_check_runs_started ON check_runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_check_runs_outcome ON check_runs(outcome);
	CREATE INDEX IF NOT EXISTS idx_check_runs_entity ON check_runs(entity);
	`

	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// LogRun appends a run and sets its ID.
func (r *RunLog) LogRun(ctx context.Context, run *entities.CheckRun) error {
	query := `
		INSERT INTO check_runs (source, type, entity, outcome, stage, error, record_id, score, started_at, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var score sql.NullInt64
	if run.Score != nil {
		score = sql.NullInt64{Int64: int64(*run.Score), Valid: true}
	}

	res, err := r.db.ExecContext(ctx, query,
		string(run.Source),
		run.Type,
		run.Entity,
		string(run.Outcome),
		nullString(run.Stage),
		nullString(run.Error),
		nullString(run.RecordID),
		score,
		run.StartedAt.UTC(),
		run.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("logging check run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading check run id: %w", err)
	}
	run.ID = id
	return nil
}

// ListRuns returns the most recent runs first.
func (r *RunLog) ListRuns(ctx context.Context, limit int) ([]entities.CheckRun, error) {
	query := `
		SELECT id, source, type, entity, outcome, stage, error, record_id, score, started_at, duration_ms
		FROM check_runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`
	return r.queryRuns(ctx, query, normalizeLimit(limit))
}

// ListRunsByOutcome returns the most recent runs with the given outcome.
func (r *RunLog) ListRunsByOutcome(ctx context.Context, outcome entities.CheckOutcome, limit int) ([]entities.CheckRun, error) {
	query := `
		SELECT id, source, type, entity, outcome, stage, error, record_id, score, started_at, duration_ms
		FROM check_runs
		WHERE outcome = ?
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`
	return r.queryRuns(ctx, query, string(outcome), normalizeLimit(limit))
}

// queryRuns is a helper to execute run log queries.
func (r *RunLog) queryRuns(ctx context.Context, query string, args ...any) ([]entities.CheckRun, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying check runs: %w", err)
	}
	defer rows.Close()

	var runs []entities.CheckRun
	for rows.Next() {
		var run entities.CheckRun
		var source, outcome string
		var stage, errText, recordID sql.NullString
		var score sql.NullInt64
		var startedAt time.Time

		if err := rows.Scan(
			&run.ID,
			&source,
			&run.Type,
			&run.Entity,
			&outcome,
			&stage,
			&errText,
			&recordID,
			&score,
			&startedAt,
			&run.DurationMs,
		); err != nil {
			return nil, fmt.Errorf("scanning check run: %w", err)
		}

		run.Source = entities.Source(source)
		run.Outcome = entities.CheckOutcome(outcome)
		run.Stage = stage.String
		run.Error = errText.String
		run.RecordID = recordID.String
		run.StartedAt = startedAt.UTC()
		if score.Valid {
			v := int(score.Int64)
			run.Score = &v
		}

		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return limit
}
