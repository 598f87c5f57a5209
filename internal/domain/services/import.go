package services

import (
	"context"
	"fmt"
	"maps"
	"strings"

	"github.com/ersonp/comply-core/internal/domain/entities"
	"github.com/ersonp/comply-core/internal/infrastructure/parsers"
)

// ImportOptions controls import behavior.
type ImportOptions struct {
	DryRun bool   // Validate without saving
	Origin string // Recorded as the imported_from metadata key
}

// ImportError represents an error for a specific entry during import.
type ImportError struct {
	Line    int    // Line number (1-indexed, 0 if unknown)
	Field   string // Which field has the error
	Value   string // The invalid value
	Message string // Human-readable error message
}

func (e ImportError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// ImportResult contains the result of an import operation.
type ImportResult struct {
	Imported int
	Records  []*entities.EvidenceRecord
	Errors   []ImportError
}

// ManualEvidence is the data payload of an imported record.
type ManualEvidence struct {
	Control string `json:"control,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

// ImportService saves manually collected evidence into the ledger.
type ImportService struct {
	ledger *EvidenceLedger
}

// NewImportService creates a new import service.
func NewImportService(ledger *EvidenceLedger) *ImportService {
	return &ImportService{ledger: ledger}
}

// Import validates every entry and saves the valid ones under the manual source.
// Invalid entries are reported in the result and never saved.
func (s *ImportService) Import(ctx context.Context, entries []parsers.RawEvidence, opts ImportOptions) (*ImportResult, error) {
	result := &ImportResult{}

	valid, validationErrors := s.validateEntries(entries)
	result.Errors = validationErrors

	if opts.DryRun {
		result.Imported = len(valid)
		return result, nil
	}

	for _, entry := range valid {
		rec, err := s.ledger.Save(
			ctx,
			entities.SourceManual,
			entry.Type,
			ManualEvidence{Control: entry.Control, Notes: entry.Notes},
			toSummary(entry),
			importMetadata(entry, opts.Origin),
		)
		if err != nil {
			return result, fmt.Errorf("importing line %d: %w", entry.LineNum, err)
		}
		result.Records = append(result.Records, rec)
		result.Imported++
	}

	return result, nil
}

func (s *ImportService) validateEntries(entries []parsers.RawEvidence) ([]parsers.RawEvidence, []ImportError) {
	var valid []parsers.RawEvidence
	var errs []ImportError

	for _, entry := range entries {
		if err := validateRawEvidence(entry); err != nil {
			errs = append(errs, *err)
			continue
		}
		valid = append(valid, entry)
	}

	return valid, errs
}

func validateRawEvidence(entry parsers.RawEvidence) *ImportError {
	if strings.TrimSpace(entry.Type) == "" {
		return &ImportError{
			Line:    entry.LineNum,
			Field:   "type",
			Message: "missing required field: type",
		}
	}

	if entry.Score != nil && (*entry.Score < 0 || *entry.Score > 100) {
		return &ImportError{
			Line:    entry.LineNum,
			Field:   "score",
			Value:   fmt.Sprintf("%d", *entry.Score),
			Message: fmt.Sprintf("score must be between 0 and 100, got %d", *entry.Score),
		}
	}

	if entry.Status == "" {
		if entry.Score == nil {
			return &ImportError{
				Line:    entry.LineNum,
				Field:   "status",
				Message: "missing status: provide status or score",
			}
		}
		return nil
	}

	if !entities.Status(strings.ToLower(entry.Status)).IsValid() {
		return &ImportError{
			Line:    entry.LineNum,
			Field:   "status",
			Value:   entry.Status,
			Message: fmt.Sprintf("invalid status %q (must be pass, fail, partial or unknown)", entry.Status),
		}
	}

	return nil
}

// toSummary builds the record summary. An explicit status wins over the
// status derived from the score.
func toSummary(entry parsers.RawEvidence) entities.Summary {
	issues := entry.Issues
	if issues == nil {
		issues = []string{}
	}

	var summary entities.Summary
	if entry.Score != nil {
		summary = entities.NewScoredSummary(*entry.Score, issues)
	} else {
		summary = entities.Summary{Issues: issues}
	}
	if entry.Status != "" {
		summary.Status = entities.Status(strings.ToLower(entry.Status))
	}
	return summary
}

func importMetadata(entry parsers.RawEvidence, origin string) map[string]string {
	metadata := make(map[string]string, len(entry.Metadata)+2)
	maps.Copy(metadata, entry.Metadata)
	if entry.Control != "" {
		metadata["control"] = entry.Control
	}
	if origin != "" {
		metadata["imported_from"] = origin
	}
	return metadata
}
