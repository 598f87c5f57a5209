// Package handlers contains application use case handlers.
package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/ersonp/comply-core/internal/domain/ports"
	"github.com/ersonp/comply-core/internal/infrastructure/config"
)

// RunLogOpener opens the run log described by cfg.
type RunLogOpener func(cfg config.RunLogConfig) (ports.RunLog, error)

// InitHandler handles project initialization.
type InitHandler struct {
	openRunLog RunLogOpener
}

// NewInitHandler creates a new init handler. openRunLog may be nil.
func NewInitHandler(openRunLog RunLogOpener) *InitHandler {
	return &InitHandler{
		openRunLog: openRunLog,
	}
}

// InitResult contains the result of initialization.
type InitResult struct {
	ConfigPath string
	LedgerPath string
	RunLogPath string
}

// Handle writes the default config and prepares the ledger and run log.
func (h *InitHandler) Handle(ctx context.Context, basePath string) (*InitResult, error) {
	if config.Exists(basePath) {
		return nil, fmt.Errorf("comply already initialized in %s", basePath)
	}

	if err := config.WriteDefault(basePath); err != nil {
		return nil, fmt.Errorf("writing default config: %w", err)
	}

	cfg, err := config.Load(basePath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := os.MkdirAll(cfg.Ledger.Path, 0755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}

	result := &InitResult{
		ConfigPath: config.ConfigFilePath(basePath),
		LedgerPath: cfg.Ledger.Path,
	}

	if h.openRunLog != nil && cfg.RunLog.Path != "" {
		runLog, err := h.openRunLog(cfg.RunLog)
		if err != nil {
			return nil, fmt.Errorf("opening run log: %w", err)
		}
		defer runLog.Close()

		if err := runLog.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("creating run log schema: %w", err)
		}
		result.RunLogPath = cfg.RunLog.Path
	}

	return result, nil
}
