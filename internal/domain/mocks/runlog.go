package mocks

import (
	"context"
	"sync"

	"github.com/ersonp/comply-core/internal/domain/entities"
)

// RunLog is a mock implementation of ports.RunLog.
type RunLog struct {
	mu   sync.Mutex
	Runs []entities.CheckRun
	Err  error
}

// EnsureSchema does nothing.
func (m *RunLog) EnsureSchema(_ context.Context) error {
	return m.Err
}

// Close does nothing.
func (m *RunLog) Close() error {
	return nil
}

// LogRun appends run and assigns a sequential ID.
func (m *RunLog) LogRun(_ context.Context, run *entities.CheckRun) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	run.ID = int64(len(m.Runs) + 1)
	m.Runs = append(m.Runs, *run)
	return nil
}

// ListRuns returns runs, most recent first.
func (m *RunLog) ListRuns(ctx context.Context, limit int) ([]entities.CheckRun, error) {
	return m.ListRunsByOutcome(ctx, "", limit)
}

// ListRunsByOutcome returns runs with outcome, most recent first. An empty
// outcome matches every run.
func (m *RunLog) ListRunsByOutcome(_ context.Context, outcome entities.CheckOutcome, limit int) ([]entities.CheckRun, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []entities.CheckRun
	for i := len(m.Runs) - 1; i >= 0; i-- {
		if outcome != "" && m.Runs[i].Outcome != outcome {
			continue
		}
		result = append(result, m.Runs[i])
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}
