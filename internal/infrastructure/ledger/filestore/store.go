// Package filestore provides a file-backed implementation of the EvidenceStore interface.
//
// Records are stored one JSON file per record, grouped in one directory per source:
//
//	<root>/<source>/<timestamp-key>_<type>.json
//
// The timestamp key is fixed width, so sorting file names in descending order
// yields the most recent records first without reading their contents.
package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/ersonp/comply-core/internal/domain/entities"
	"github.com/ersonp/comply-core/internal/domain/ports"
)

const (
	// keyLayout is the fixed-width, lexicographically sortable timestamp key.
	keyLayout = "20060102T150405.000000000Z"
	fileExt   = ".json"
	tmpPrefix = "."
)

var reUnsafeTypeChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// StorageError reports that the backing directory could not be read or written.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("evidence storage %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Store implements ports.EvidenceStore on the local filesystem.
type Store struct {
	root    string
	logger  *slog.Logger
	metrics ports.MetricsRecorder
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used to report skipped records.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the recorder notified of skipped records.
func WithMetrics(m ports.MetricsRecorder) Option {
	return func(s *Store) { s.metrics = m }
}

// New creates a store rooted at root, creating the directory if needed.
func New(root string, opts ...Option) (*Store, error) {
	if root == "" {
		return nil, errors.New("evidence ledger path is required")
	}

	if err := os.MkdirAll(root, 0750); err != nil {
		return nil, &StorageError{Op: "create", Path: root, Err: err}
	}

	s := &Store{root: root, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Root returns the ledger root directory.
func (s *Store) Root() string {
	return s.root
}

// FileName returns the storage name of a record within its source partition.
func FileName(rec *entities.EvidenceRecord) string {
	return rec.Timestamp.UTC().Format(keyLayout) + "_" + sanitizeType(rec.Type) + fileExt
}

// Append writes rec under its source partition. The write goes to a hidden
// temp file first and is linked into place, so readers never observe a partial
// record and an existing record is never replaced.
func (s *Store) Append(_ context.Context, rec *entities.EvidenceRecord) error {
	if !rec.Source.IsValid() {
		return fmt.Errorf("invalid evidence source: %q", rec.Source)
	}

	dir := filepath.Join(s.root, string(rec.Source))
	if err := os.MkdirAll(dir, 0750); err != nil {
		return &StorageError{Op: "create partition", Path: dir, Err: err}
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling evidence record: %w", err)
	}

	name := FileName(rec)
	finalPath := filepath.Join(dir, name)
	tempPath := filepath.Join(dir, tmpPrefix+name+".tmp")

	if err := os.WriteFile(tempPath, data, 0640); err != nil {
		return &StorageError{Op: "write", Path: tempPath, Err: err}
	}
	defer os.Remove(tempPath)

	if err := os.Link(tempPath, finalPath); err != nil {
		if errors.Is(err, fs.ErrExist) {
			err = fmt.Errorf("%w: %w", ports.ErrRecordExists, err)
		}
		return &StorageError{Op: "finalize", Path: finalPath, Err: err}
	}

	return nil
}

// List returns matching records, most recent first. Malformed records are
// logged and skipped.
func (s *Store) List(ctx context.Context, query entities.EvidenceQuery) ([]entities.EvidenceRecord, error) {
	records, skipped, err := s.Scan(ctx, query)
	if err != nil {
		return nil, err
	}

	for _, m := range skipped {
		s.logger.Warn("skipping malformed evidence record", "path", m.Path, "error", m.Err)
		if s.metrics != nil {
			s.metrics.RecordSkipped()
		}
	}

	return records, nil
}

// Scan is List with the skipped records returned instead of logged.
func (s *Store) Scan(ctx context.Context, query entities.EvidenceQuery) ([]entities.EvidenceRecord, []entities.MalformedRecord, error) {
	files, err := s.listFiles(query.Source, query.Type)
	if err != nil {
		return nil, nil, err
	}

	var (
		records []entities.EvidenceRecord
		skipped []entities.MalformedRecord
	)

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		// Files are newest first; once the key is older than Since, so is everything after it.
		if !query.Since.IsZero() && f.hasKey && f.key.Before(query.Since) {
			break
		}

		rec, err := readRecord(f.path)
		if errors.Is(err, fs.ErrNotExist) {
			continue // pruned mid-scan
		}
		if err != nil {
			skipped = append(skipped, entities.MalformedRecord{Path: f.path, Err: err})
			continue
		}

		if !query.Matches(rec) {
			continue
		}

		records = append(records, *rec)
		if query.Limit > 0 && len(records) >= query.Limit {
			break
		}
	}

	return records, skipped, nil
}

// DeleteBefore removes every record whose timestamp is strictly before cutoff.
// Records written after cutoff are never candidates.
func (s *Store) DeleteBefore(ctx context.Context, cutoff time.Time) (int, error) {
	files, err := s.listFiles("", "")
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return removed, err
		}

		ts := f.key
		if !f.hasKey {
			rec, err := readRecord(f.path)
			if err != nil {
				continue // cannot date it; leave it for inspection
			}
			ts = rec.Timestamp
		}

		if !ts.Before(cutoff) {
			continue
		}

		if err := os.Remove(f.path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return removed, &StorageError{Op: "delete", Path: f.path, Err: err}
		}
		removed++
	}

	return removed, nil
}

// Delete removes the files of the given records. Files already gone are skipped.
func (s *Store) Delete(ctx context.Context, records []entities.EvidenceRecord) (int, error) {
	removed := 0
	for i := range records {
		if err := ctx.Err(); err != nil {
			return removed, err
		}

		rec := &records[i]
		if !rec.Source.IsValid() {
			return removed, fmt.Errorf("invalid evidence source: %q", rec.Source)
		}
		path := filepath.Join(s.root, string(rec.Source), FileName(rec))
		if err := os.Remove(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return removed, &StorageError{Op: "delete", Path: path, Err: err}
		}
		removed++
	}
	return removed, nil
}

// storedFile is one candidate record file.
type storedFile struct {
	name   string
	path   string
	key    time.Time
	hasKey bool
}

// listFiles returns the record files of one partition (or all, when source is
// empty), sorted newest first. A non-empty recordType narrows by file name.
func (s *Store) listFiles(source entities.Source, recordType string) ([]storedFile, error) {
	partitions := entities.AllSources
	if source != "" {
		if !source.IsValid() {
			return nil, fmt.Errorf("invalid evidence source: %q", source)
		}
		partitions = []entities.Source{source}
	}

	suffix := fileExt
	if recordType != "" {
		suffix = "_" + sanitizeType(recordType) + fileExt
	}

	var files []storedFile
	for _, p := range partitions {
		dir := filepath.Join(s.root, string(p))
		entries, err := os.ReadDir(dir)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, &StorageError{Op: "read partition", Path: dir, Err: err}
		}

		for _, entry := range entries {
			name := entry.Name()
			if entry.IsDir() || strings.HasPrefix(name, tmpPrefix) || !strings.HasSuffix(name, suffix) {
				continue
			}

			f := storedFile{name: name, path: filepath.Join(dir, name)}
			f.key, f.hasKey = parseKey(name)
			files = append(files, f)
		}
	}

	sort.SliceStable(files, func(i, j int) bool {
		return files[i].name > files[j].name
	})

	return files, nil
}

// parseKey extracts the timestamp key from a record file name.
func parseKey(name string) (time.Time, bool) {
	if len(name) < len(keyLayout) {
		return time.Time{}, false
	}
	t, err := time.Parse(keyLayout, name[:len(keyLayout)])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// readRecord reads and decodes a single record file.
func readRecord(path string) (*entities.EvidenceRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var rec entities.EvidenceRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding record: %w", err)
	}
	if rec.ID == "" || rec.Timestamp.IsZero() {
		return nil, errors.New("record is missing id or timestamp")
	}

	return &rec, nil
}

// sanitizeType makes a record type safe to use in a file name.
func sanitizeType(t string) string {
	if t == "" {
		return "untyped"
	}
	return reUnsafeTypeChars.ReplaceAllString(t, "_")
}
