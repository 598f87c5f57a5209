package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/comply-core/internal/domain/entities"
	"github.com/ersonp/comply-core/internal/domain/mocks"
)

func TestRunsHandler_Handle(t *testing.T) {
	runLog := &mocks.RunLog{Runs: []entities.CheckRun{
		{ID: 1, Entity: "acme/api", Outcome: entities.OutcomeSucceeded},
		{ID: 2, Entity: "acme/web", Outcome: entities.OutcomeFailed, Stage: "aggregation"},
		{ID: 3, Entity: "acme/api", Outcome: entities.OutcomeSucceeded},
	}}
	handler := NewRunsHandler(runLog)

	runs, err := handler.Handle(t.Context(), false, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, int64(3), runs[0].ID)

	runs, err = handler.Handle(t.Context(), true, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "acme/web", runs[0].Entity)
}

func TestRunsHandler_Handle_Empty(t *testing.T) {
	runs, err := NewRunsHandler(&mocks.RunLog{}).Handle(t.Context(), false, 10)

	require.NoError(t, err)
	assert.NotNil(t, runs)
	assert.Empty(t, runs)
}

func TestRunsHandler_Handle_NotConfigured(t *testing.T) {
	_, err := NewRunsHandler(nil).Handle(t.Context(), false, 10)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "run log is not configured")
}
