package mocks

import (
	"sync"

	"github.com/ersonp/comply-core/internal/domain/entities"
)

// Metrics is a mock implementation of ports.MetricsRecorder that counts calls.
type Metrics struct {
	mu sync.Mutex

	Completed       int
	Failed          map[string]int
	EntitiesSkipped int
	RecordsSkipped  int
	Pruned          int
	LastSummary     entities.Summary
}

// NewMetrics creates a new mock Metrics.
func NewMetrics() *Metrics {
	return &Metrics{Failed: make(map[string]int)}
}

// CheckCompleted counts a completed check.
func (m *Metrics) CheckCompleted(_ entities.Source, _ string, summary entities.Summary) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Completed++
	m.LastSummary = summary
}

// CheckFailed counts a failed check by stage.
func (m *Metrics) CheckFailed(_ entities.Source, stage string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Failed[stage]++
}

// EntitySkipped counts a skipped rollup entity.
func (m *Metrics) EntitySkipped(_ entities.Source) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EntitiesSkipped++
}

// RecordSkipped counts a malformed record.
func (m *Metrics) RecordSkipped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RecordsSkipped++
}

// RecordsPruned adds count pruned records.
func (m *Metrics) RecordsPruned(count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Pruned += count
}
