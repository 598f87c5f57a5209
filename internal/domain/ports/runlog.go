package ports

import (
	"context"

	"github.com/ersonp/comply-core/internal/domain/entities"
)

// RunLog records every per-entity check execution.
type RunLog interface {
	// EnsureSchema creates the storage schema if it doesn't exist.
	EnsureSchema(ctx context.Context) error

	// Close releases the underlying connection.
	Close() error

	// LogRun appends a run and sets its ID.
	LogRun(ctx context.Context, run *entities.CheckRun) error

	// ListRuns returns the most recent runs first.
	ListRuns(ctx context.Context, limit int) ([]entities.CheckRun, error)

	// ListRunsByOutcome returns the most recent runs with the given outcome.
	ListRunsByOutcome(ctx context.Context, outcome entities.CheckOutcome, limit int) ([]entities.CheckRun, error)
}
