package ports

import (
	"context"
	"time"

	"github.com/ersonp/comply-core/internal/domain/entities"
)

// EvidenceStore is durable, append-only storage for evidence records,
// partitioned by source.
type EvidenceStore interface {
	// Append writes a new record. Existing records are never rewritten.
	Append(ctx context.Context, rec *entities.EvidenceRecord) error

	// List returns matching records, most recent first. Records that cannot be
	// decoded are skipped rather than failing the scan.
	List(ctx context.Context, query entities.EvidenceQuery) ([]entities.EvidenceRecord, error)

	// DeleteBefore removes every record with a timestamp strictly before cutoff
	// and returns the number removed.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int, error)

	// Delete removes exactly the given records and returns the number removed.
	// Records already gone are not an error.
	Delete(ctx context.Context, records []entities.EvidenceRecord) (int, error)
}

// EvidenceArchiver copies records to long-term storage before they are pruned.
type EvidenceArchiver interface {
	Archive(ctx context.Context, records []entities.EvidenceRecord) error
}
