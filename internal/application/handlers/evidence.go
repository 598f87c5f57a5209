package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ersonp/comply-core/internal/domain/entities"
	"github.com/ersonp/comply-core/internal/domain/services"
)

// ErrNoEvidence is returned when a lookup finds no matching record.
var ErrNoEvidence = errors.New("no evidence found")

// EvidenceHandler handles ledger queries at the application layer.
type EvidenceHandler struct {
	ledger *services.EvidenceLedger
}

// NewEvidenceHandler creates a new EvidenceHandler.
func NewEvidenceHandler(ledger *services.EvidenceLedger) *EvidenceHandler {
	return &EvidenceHandler{
		ledger: ledger,
	}
}

// ListOptions filters a ledger listing.
type ListOptions struct {
	Source string
	Type   string
	Since  time.Time
	Until  time.Time
	Limit  int
}

// EvidenceListResult contains the result of listing evidence.
type EvidenceListResult struct {
	Records []entities.EvidenceRecord `json:"records"`
	Total   int                       `json:"total"`
}

// DiffResult pairs the two most recent records with their diff.
type DiffResult struct {
	Latest   *entities.EvidenceRecord `json:"latest"`
	Previous *entities.EvidenceRecord `json:"previous"`
	Diff     entities.EvidenceDiff    `json:"diff"`
}

// HandleList returns matching records, most recent first.
func (h *EvidenceHandler) HandleList(ctx context.Context, opts ListOptions) (*EvidenceListResult, error) {
	var source entities.Source
	if opts.Source != "" {
		s, err := ParseSource(opts.Source)
		if err != nil {
			return nil, err
		}
		source = s
	}

	records, err := h.ledger.List(ctx, entities.EvidenceQuery{
		Source: source,
		Type:   opts.Type,
		Since:  opts.Since,
		Until:  opts.Until,
		Limit:  opts.Limit,
	})
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []entities.EvidenceRecord{}
	}

	return &EvidenceListResult{
		Records: records,
		Total:   len(records),
	}, nil
}

// HandleLatest returns the most recent record for source and type.
func (h *EvidenceHandler) HandleLatest(ctx context.Context, source, recordType string) (*entities.EvidenceRecord, error) {
	s, err := ParseSource(source)
	if err != nil {
		return nil, err
	}

	rec, err := h.ledger.Latest(ctx, s, recordType)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("%w for %s %s", ErrNoEvidence, source, recordType)
	}
	return rec, nil
}

// HandleDiff compares the latest record for source and type with the one before it.
func (h *EvidenceHandler) HandleDiff(ctx context.Context, source, recordType string) (*DiffResult, error) {
	s, err := ParseSource(source)
	if err != nil {
		return nil, err
	}

	latest, previous, err := h.ledger.Previous(ctx, s, recordType)
	if err != nil {
		return nil, err
	}
	if latest == nil || previous == nil {
		return nil, fmt.Errorf("%w: diff needs two records for %s %s", ErrNoEvidence, source, recordType)
	}

	return &DiffResult{
		Latest:   latest,
		Previous: previous,
		Diff:     h.ledger.Diff(previous, latest),
	}, nil
}

// HandleHistory returns the records of the last days days.
func (h *EvidenceHandler) HandleHistory(ctx context.Context, source, recordType string, days int) (*EvidenceListResult, error) {
	s, err := ParseSource(source)
	if err != nil {
		return nil, err
	}

	records, err := h.ledger.History(ctx, s, recordType, days)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []entities.EvidenceRecord{}
	}

	return &EvidenceListResult{
		Records: records,
		Total:   len(records),
	}, nil
}

// HandleSummary returns the latest status of every summary source.
func (h *EvidenceHandler) HandleSummary(ctx context.Context) (*entities.RollupSummary, error) {
	return h.ledger.Summary(ctx)
}

// HandlePrune removes records older than days days.
func (h *EvidenceHandler) HandlePrune(ctx context.Context, days int) (int, error) {
	return h.ledger.Prune(ctx, days)
}

// ParseSource validates a source name.
func ParseSource(name string) (entities.Source, error) {
	s := entities.Source(name)
	if !s.IsValid() {
		return "", fmt.Errorf("invalid source %q (must be one of %v)", name, entities.AllSources)
	}
	return s, nil
}
