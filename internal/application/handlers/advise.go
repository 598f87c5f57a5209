package handlers

import (
	"context"
	"errors"

	"github.com/ersonp/comply-core/internal/domain/entities"
	"github.com/ersonp/comply-core/internal/domain/ports"
	"github.com/ersonp/comply-core/internal/domain/services"
)

// AdviseHandler asks the advisor how to fix the issues of the latest record.
type AdviseHandler struct {
	evidence *EvidenceHandler
	advisor  ports.Advisor
}

// NewAdviseHandler creates a new AdviseHandler.
func NewAdviseHandler(ledger *services.EvidenceLedger, advisor ports.Advisor) *AdviseHandler {
	return &AdviseHandler{
		evidence: NewEvidenceHandler(ledger),
		advisor:  advisor,
	}
}

// AdviseResult pairs a record with the suggested remediations.
type AdviseResult struct {
	Record       *entities.EvidenceRecord `json:"record"`
	Remediations []entities.Remediation   `json:"remediations"`
}

// Handle loads the latest record for source and type and requests remediations.
func (h *AdviseHandler) Handle(ctx context.Context, source, recordType string) (*AdviseResult, error) {
	if h.advisor == nil {
		return nil, errors.New("no advisor configured (set llm.api_key or OPENAI_API_KEY)")
	}

	rec, err := h.evidence.HandleLatest(ctx, source, recordType)
	if err != nil {
		return nil, err
	}

	remediations, err := h.advisor.Remediate(ctx, rec)
	if err != nil {
		return nil, err
	}
	if remediations == nil {
		remediations = []entities.Remediation{}
	}

	return &AdviseResult{
		Record:       rec,
		Remediations: remediations,
	}, nil
}
