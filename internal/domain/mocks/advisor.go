package mocks

import (
	"context"

	"github.com/ersonp/comply-core/internal/domain/entities"
)

// Advisor is a mock implementation of ports.Advisor.
type Advisor struct {
	Remediations []entities.Remediation
	Err          error
	Calls        int
}

// Remediate returns the configured remediations.
func (m *Advisor) Remediate(_ context.Context, _ *entities.EvidenceRecord) ([]entities.Remediation, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Remediations, nil
}
