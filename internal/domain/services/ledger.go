package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ersonp/comply-core/internal/domain/entities"
	"github.com/ersonp/comply-core/internal/domain/ports"
)

// maxAppendAttempts bounds the retries of a save whose timestamp is already taken.
const maxAppendAttempts = 8

// EvidenceLedger is the append-only evidence log. It constructs records and
// composes latest, history, diff, summary and prune on top of an EvidenceStore.
type EvidenceLedger struct {
	store    ports.EvidenceStore
	archiver ports.EvidenceArchiver
	metrics  ports.MetricsRecorder
	logger   *slog.Logger

	mu        sync.Mutex
	lastStamp time.Time
}

// LedgerOption configures an EvidenceLedger.
type LedgerOption func(*EvidenceLedger)

// WithArchiver archives records before Prune removes them.
func WithArchiver(a ports.EvidenceArchiver) LedgerOption {
	return func(l *EvidenceLedger) { l.archiver = a }
}

// WithLedgerMetrics reports pruned record counts to m.
func WithLedgerMetrics(m ports.MetricsRecorder) LedgerOption {
	return func(l *EvidenceLedger) { l.metrics = m }
}

// NewEvidenceLedger creates a new EvidenceLedger over store.
func NewEvidenceLedger(store ports.EvidenceStore, logger *slog.Logger, opts ...LedgerOption) *EvidenceLedger {
	if logger == nil {
		logger = slog.Default()
	}
	l := &EvidenceLedger{
		store:  store,
		logger: logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Save constructs a record with a fresh id and timestamp and appends it.
func (l *EvidenceLedger) Save(
	ctx context.Context,
	source entities.Source,
	recordType string,
	data any,
	summary entities.Summary,
	metadata map[string]string,
) (*entities.EvidenceRecord, error) {
	if !source.IsValid() {
		return nil, fmt.Errorf("invalid evidence source: %q", source)
	}
	if recordType == "" {
		return nil, errors.New("evidence type is required")
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshaling evidence data: %w", err)
	}

	// UUIDv7 ids are time-ordered and carry a per-process monotonic sequence,
	// so ids written within the same millisecond still sort by creation.
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("generating evidence id: %w", err)
	}

	if summary.Score != nil {
		score := entities.ClampScore(*summary.Score)
		summary.Score = &score
	}
	if summary.Issues == nil {
		summary.Issues = []string{}
	}

	rec := &entities.EvidenceRecord{
		ID:        id.String(),
		Source:    source,
		Type:      recordType,
		Timestamp: l.stamp(),
		Data:      payload,
		Summary:   summary,
		Metadata:  metadata,
	}

	// Another writer on the same storage may have taken the timestamp.
	for attempt := 1; ; attempt++ {
		err := l.store.Append(ctx, rec)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, ports.ErrRecordExists) || attempt == maxAppendAttempts {
			return nil, fmt.Errorf("saving evidence record: %w", err)
		}
		rec.Timestamp = l.restamp()
	}
}

// stamp returns the current UTC time, nudged forward so that no two records
// written through this ledger share a timestamp.
func (l *EvidenceLedger) stamp() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()

	t := timeNow().UTC()
	if !t.After(l.lastStamp) {
		t = l.lastStamp.Add(time.Nanosecond)
	}
	l.lastStamp = t
	return t
}

// restamp moves past a timestamp taken by another writer. The random step
// keeps two writers from colliding again on the next nanosecond.
func (l *EvidenceLedger) restamp() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()

	t := timeNow().UTC()
	if t.Before(l.lastStamp) {
		t = l.lastStamp
	}
	t = t.Add(time.Duration(1 + rand.IntN(int(time.Microsecond))))
	l.lastStamp = t
	return t
}

// List returns matching records, most recent first.
func (l *EvidenceLedger) List(ctx context.Context, query entities.EvidenceQuery) ([]entities.EvidenceRecord, error) {
	records, err := l.store.List(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing evidence: %w", err)
	}
	return records, nil
}

// Latest returns the most recent record for source and type, or nil if there is none.
// An empty recordType matches any type.
func (l *EvidenceLedger) Latest(ctx context.Context, source entities.Source, recordType string) (*entities.EvidenceRecord, error) {
	return l.LatestMatching(ctx, source, recordType, nil)
}

// LatestMatching returns the most recent record for source and type whose
// metadata carries every key of metadata, or nil if there is none.
func (l *EvidenceLedger) LatestMatching(ctx context.Context, source entities.Source, recordType string, metadata map[string]string) (*entities.EvidenceRecord, error) {
	records, err := l.List(ctx, entities.EvidenceQuery{Source: source, Type: recordType, Metadata: metadata, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// Previous returns the two most recent records for source and type, newest first.
func (l *EvidenceLedger) Previous(ctx context.Context, source entities.Source, recordType string) (latest, previous *entities.EvidenceRecord, err error) {
	records, err := l.List(ctx, entities.EvidenceQuery{Source: source, Type: recordType, Limit: 2})
	if err != nil {
		return nil, nil, err
	}
	if len(records) > 0 {
		latest = &records[0]
	}
	if len(records) > 1 {
		previous = &records[1]
	}
	return latest, previous, nil
}

// History returns the records of the last windowDays days, most recent first.
func (l *EvidenceLedger) History(ctx context.Context, source entities.Source, recordType string, windowDays int) ([]entities.EvidenceRecord, error) {
	if windowDays < 0 {
		return nil, fmt.Errorf("history window must not be negative: %d", windowDays)
	}
	since := timeNow().UTC().AddDate(0, 0, -windowDays)
	return l.List(ctx, entities.EvidenceQuery{Source: source, Type: recordType, Since: since})
}

// Diff compares two records of the same source and type.
func (l *EvidenceLedger) Diff(older, newer *entities.EvidenceRecord) entities.EvidenceDiff {
	return entities.Diff(older, newer)
}

// Summary reports the latest status of every summary source.
// Sources without records are reported as unknown.
func (l *EvidenceLedger) Summary(ctx context.Context) (*entities.RollupSummary, error) {
	summary := &entities.RollupSummary{
		Sources: make([]entities.SourceStatus, 0, len(entities.SummarySources)),
	}
	statuses := make([]entities.Status, 0, len(entities.SummarySources))

	for _, source := range entities.SummarySources {
		latest, err := l.Latest(ctx, source, "")
		if err != nil {
			return nil, fmt.Errorf("reading latest %s evidence: %w", source, err)
		}

		line := entities.SourceStatus{Name: source, Status: entities.StatusUnknown}
		if latest != nil {
			ts := latest.Timestamp
			line.LastCheck = &ts
			line.Status = latest.Summary.Status
			line.IssueCount = len(latest.Summary.Issues)
		}

		summary.Sources = append(summary.Sources, line)
		summary.TotalIssues += line.IssueCount
		statuses = append(statuses, line.Status)
	}

	summary.OverallStatus = entities.OverallStatus(statuses)
	return summary, nil
}

// Prune removes every record older than olderThanDays days and returns how
// many were removed. With an archiver configured, only the records that were
// archived are removed: a failed archive leaves the ledger untouched, and files
// that cannot be decoded stay in place for inspection.
func (l *EvidenceLedger) Prune(ctx context.Context, olderThanDays int) (int, error) {
	if olderThanDays < 0 {
		return 0, fmt.Errorf("retention must not be negative: %d", olderThanDays)
	}
	cutoff := timeNow().UTC().AddDate(0, 0, -olderThanDays)

	var (
		removed int
		err     error
	)
	if l.archiver != nil {
		var archived []entities.EvidenceRecord
		archived, err = l.archiveBefore(ctx, cutoff)
		if err != nil {
			return 0, err
		}
		removed, err = l.store.Delete(ctx, archived)
	} else {
		removed, err = l.store.DeleteBefore(ctx, cutoff)
	}
	if err != nil {
		return removed, fmt.Errorf("pruning evidence: %w", err)
	}

	if l.metrics != nil {
		l.metrics.RecordsPruned(removed)
	}
	l.logger.Info("pruned evidence", "older_than_days", olderThanDays, "removed", removed)

	return removed, nil
}

// archiveBefore archives the decodable records older than cutoff and returns them.
func (l *EvidenceLedger) archiveBefore(ctx context.Context, cutoff time.Time) ([]entities.EvidenceRecord, error) {
	records, err := l.List(ctx, entities.EvidenceQuery{Until: cutoff})
	if err != nil {
		return nil, err
	}

	candidates := records[:0]
	for i := range records {
		if records[i].Timestamp.Before(cutoff) {
			candidates = append(candidates, records[i])
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	if err := l.archiver.Archive(ctx, candidates); err != nil {
		return nil, fmt.Errorf("archiving evidence before prune: %w", err)
	}
	l.logger.Info("archived evidence", "records", len(candidates))
	return candidates, nil
}
