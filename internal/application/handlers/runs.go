package handlers

import (
	"context"
	"errors"

	"github.com/ersonp/comply-core/internal/domain/entities"
	"github.com/ersonp/comply-core/internal/domain/ports"
)

// RunsHandler lists check runs from the run log.
type RunsHandler struct {
	runLog ports.RunLog
}

// NewRunsHandler creates a new RunsHandler.
func NewRunsHandler(runLog ports.RunLog) *RunsHandler {
	return &RunsHandler{
		runLog: runLog,
	}
}

// Handle returns the most recent runs, optionally only failed ones.
func (h *RunsHandler) Handle(ctx context.Context, failedOnly bool, limit int) ([]entities.CheckRun, error) {
	if h.runLog == nil {
		return nil, errors.New("run log is not configured (set runlog.path)")
	}

	var (
		runs []entities.CheckRun
		err  error
	)
	if failedOnly {
		runs, err = h.runLog.ListRunsByOutcome(ctx, entities.OutcomeFailed, limit)
	} else {
		runs, err = h.runLog.ListRuns(ctx, limit)
	}
	if err != nil {
		return nil, err
	}
	if runs == nil {
		runs = []entities.CheckRun{}
	}
	return runs, nil
}
