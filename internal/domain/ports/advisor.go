package ports

import (
	"context"

	"github.com/ersonp/comply-core/internal/domain/entities"
)

// Advisor suggests remediations for the issues of an evidence record.
type Advisor interface {
	Remediate(ctx context.Context, rec *entities.EvidenceRecord) ([]entities.Remediation, error)
}
