package handlers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ersonp/comply-core/internal/domain/entities"
	"github.com/ersonp/comply-core/internal/domain/services"
	"github.com/ersonp/comply-core/internal/infrastructure/parsers"
)

// ImportHandler handles importing manual evidence from files.
type ImportHandler struct {
	service *services.ImportService
}

// NewImportHandler creates a new import handler.
func NewImportHandler(service *services.ImportService) *ImportHandler {
	return &ImportHandler{
		service: service,
	}
}

// ImportOptions controls import behavior.
type ImportOptions struct {
	Format string // "json", "csv", or "auto"
	DryRun bool   // Validate without saving
}

// ImportResult contains the result of an import operation.
type ImportResult struct {
	Imported int                        `json:"imported"`
	Records  []*entities.EvidenceRecord `json:"records,omitempty"`
	Errors   []services.ImportError     `json:"errors,omitempty"`
}

// Handle imports manual evidence from a file.
func (h *ImportHandler) Handle(ctx context.Context, filePath string, opts ImportOptions) (*ImportResult, error) {
	// Get parser
	var parser parsers.Parser
	if opts.Format == "" || opts.Format == "auto" {
		parser = parsers.ForFile(filePath)
	} else {
		parser = parsers.ForFormat(opts.Format)
	}

	if parser == nil {
		return nil, fmt.Errorf("unsupported format for file: %s", filePath)
	}

	// Open file
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer file.Close()

	entries, err := parser.Parse(file)
	if err != nil {
		return nil, fmt.Errorf("parsing file: %w", err)
	}

	if len(entries) == 0 {
		return &ImportResult{}, nil
	}

	serviceResult, err := h.service.Import(ctx, entries, services.ImportOptions{
		DryRun: opts.DryRun,
		Origin: filepath.Base(filePath),
	})
	if err != nil {
		return nil, err
	}

	return &ImportResult{
		Imported: serviceResult.Imported,
		Records:  serviceResult.Records,
		Errors:   serviceResult.Errors,
	}, nil
}
