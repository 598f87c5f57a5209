package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ersonp/comply-core/internal/domain/entities"
)

// EvidenceStore is an in-memory implementation of ports.EvidenceStore.
type EvidenceStore struct {
	mu      sync.Mutex
	Records []entities.EvidenceRecord
	Err     error
	// AppendErr fails Append only, leaving reads working.
	AppendErr error
	// AppendCalls counts Append calls, failed ones included.
	AppendCalls int
}

// NewEvidenceStore creates a new mock EvidenceStore.
func NewEvidenceStore() *EvidenceStore {
	return &EvidenceStore{}
}

// Append stores a copy of rec.
func (m *EvidenceStore) Append(_ context.Context, rec *entities.EvidenceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AppendCalls++
	if m.Err != nil {
		return m.Err
	}
	if m.AppendErr != nil {
		return m.AppendErr
	}
	m.Records = append(m.Records, *rec)
	return nil
}

// List returns matching records, most recent first.
func (m *EvidenceStore) List(_ context.Context, query entities.EvidenceQuery) ([]entities.EvidenceRecord, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []entities.EvidenceRecord
	for i := range m.Records {
		rec := m.Records[i]
		if query.Source != "" && rec.Source != query.Source {
			continue
		}
		if query.Matches(&rec) {
			result = append(result, rec)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.After(result[j].Timestamp)
	})
	if query.Limit > 0 && len(result) > query.Limit {
		result = result[:query.Limit]
	}
	return result, nil
}

// DeleteBefore removes records older than cutoff.
func (m *EvidenceStore) DeleteBefore(_ context.Context, cutoff time.Time) (int, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	kept := m.Records[:0]
	removed := 0
	for _, rec := range m.Records {
		if rec.Timestamp.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	m.Records = kept
	return removed, nil
}

// Delete removes the records with matching ids.
func (m *EvidenceStore) Delete(_ context.Context, records []entities.EvidenceRecord) (int, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	doomed := make(map[string]bool, len(records))
	for i := range records {
		doomed[records[i].ID] = true
	}
	kept := m.Records[:0]
	removed := 0
	for _, rec := range m.Records {
		if doomed[rec.ID] {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	m.Records = kept
	return removed, nil
}

// EvidenceArchiver is a mock implementation of ports.EvidenceArchiver.
type EvidenceArchiver struct {
	Archived []entities.EvidenceRecord
	Calls    int
	Err      error
}

// Archive records the batch.
func (m *EvidenceArchiver) Archive(_ context.Context, records []entities.EvidenceRecord) error {
	m.Calls++
	if m.Err != nil {
		return m.Err
	}
	m.Archived = append(m.Archived, records...)
	return nil
}
