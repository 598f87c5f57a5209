package ports

import "github.com/ersonp/comply-core/internal/domain/entities"

// MetricsRecorder receives check and ledger telemetry.
type MetricsRecorder interface {
	CheckCompleted(source entities.Source, checkType string, summary entities.Summary)
	CheckFailed(source entities.Source, stage string)
	EntitySkipped(source entities.Source)
	RecordSkipped()
	RecordsPruned(count int)
}
