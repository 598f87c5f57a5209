package handlers

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/comply-core/internal/domain/mocks"
	"github.com/ersonp/comply-core/internal/domain/ports"
	"github.com/ersonp/comply-core/internal/infrastructure/config"
)

func TestInitHandler_Handle_Success(t *testing.T) {
	tmpDir := t.TempDir()

	runLog := &mocks.RunLog{}
	var opened config.RunLogConfig
	handler := NewInitHandler(func(cfg config.RunLogConfig) (ports.RunLog, error) {
		opened = cfg
		return runLog, nil
	})

	result, err := handler.Handle(t.Context(), tmpDir)

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Contains(t, result.ConfigPath, "config.yaml")
	assert.Equal(t, filepath.Join(tmpDir, ".comply", "evidence"), result.LedgerPath)
	assert.Equal(t, filepath.Join(tmpDir, ".comply", "runs.db"), opened.Path)
	assert.Equal(t, opened.Path, result.RunLogPath)

	// Verify config and ledger directory were created
	assert.True(t, config.Exists(tmpDir))
	info, err := os.Stat(result.LedgerPath)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestInitHandler_Handle_WithoutRunLog(t *testing.T) {
	handler := NewInitHandler(nil)

	result, err := handler.Handle(t.Context(), t.TempDir())

	require.NoError(t, err)
	assert.Empty(t, result.RunLogPath)
}

func TestInitHandler_Handle_AlreadyInitialized(t *testing.T) {
	tmpDir := t.TempDir()

	// Initialize first
	require.NoError(t, config.WriteDefault(tmpDir))

	handler := NewInitHandler(nil)

	_, err := handler.Handle(t.Context(), tmpDir)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "already initialized")
}

func TestInitHandler_Handle_SchemaError(t *testing.T) {
	runLog := &mocks.RunLog{Err: errors.New("disk I/O error")}
	handler := NewInitHandler(func(config.RunLogConfig) (ports.RunLog, error) {
		return runLog, nil
	})

	_, err := handler.Handle(t.Context(), t.TempDir())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "creating run log schema")
}

func TestInitHandler_Handle_OpenError(t *testing.T) {
	handler := NewInitHandler(func(config.RunLogConfig) (ports.RunLog, error) {
		return nil, errors.New("unable to open database file")
	})

	_, err := handler.Handle(t.Context(), t.TempDir())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening run log")
}
