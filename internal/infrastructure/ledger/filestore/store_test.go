package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/comply-core/internal/domain/entities"
	"github.com/ersonp/comply-core/internal/domain/ports"
)

var baseTime = time.Date(2026, 5, 10, 9, 30, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(t.TempDir())
	require.NoError(t, err)
	return store
}

func newRecord(id string, source entities.Source, recordType string, ts time.Time, issues ...string) *entities.EvidenceRecord {
	score := 100 - 10*len(issues)
	return &entities.EvidenceRecord{
		ID:        id,
		Source:    source,
		Type:      recordType,
		Timestamp: ts,
		Data:      json.RawMessage(`{"ok":true}`),
		Summary:   entities.NewScoredSummary(score, issues),
	}
}

func ids(records []entities.EvidenceRecord) []string {
	out := make([]string, len(records))
	for i := range records {
		out[i] = records[i].ID
	}
	return out
}

func TestNew_RequiresPath(t *testing.T) {
	_, err := New("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path is required")
}

func TestAppend_WritesUnderSourcePartition(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := newRecord("r1", entities.SourceGitHub, "repo_acme_api", baseTime, "no protection")
	rec.Metadata = map[string]string{"repository": "acme/api"}
	require.NoError(t, store.Append(ctx, rec))

	path := filepath.Join(store.Root(), "github", "20260510T093000.000000000Z_repo_acme_api.json")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "r1", decoded["id"])
	assert.Equal(t, "github", decoded["source"])
	assert.Equal(t, "repo_acme_api", decoded["type"])
	assert.Equal(t, "2026-05-10T09:30:00Z", decoded["timestamp"])
	assert.Equal(t, map[string]any{"ok": true}, decoded["data"])
	assert.Equal(t, map[string]any{"repository": "acme/api"}, decoded["metadata"])

	summary := decoded["summary"].(map[string]any)
	assert.Equal(t, "pass", summary["status"])
	assert.Equal(t, float64(90), summary["score"])
}

func TestAppend_OmitsEmptyOptionalFields(t *testing.T) {
	store := newTestStore(t)

	rec := &entities.EvidenceRecord{
		ID:        "m1",
		Source:    entities.SourceManual,
		Type:      "policy_review",
		Timestamp: baseTime,
		Data:      json.RawMessage(`null`),
		Summary:   entities.Summary{Status: entities.StatusUnknown, Issues: []string{}},
	}
	require.NoError(t, store.Append(context.Background(), rec))

	data, err := os.ReadFile(filepath.Join(store.Root(), "manual", FileName(rec)))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "metadata")
	assert.NotContains(t, string(data), "score")
}

func TestAppend_NeverOverwrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, newRecord("first", entities.SourceGitHub, "t", baseTime)))
	err := store.Append(ctx, newRecord("second", entities.SourceGitHub, "t", baseTime))

	var storageErr *StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.ErrorIs(t, err, ports.ErrRecordExists)

	records, err := store.List(ctx, entities.EvidenceQuery{})
	require.NoError(t, err)
	assert.Equal(t, []string{"first"}, ids(records))
}

func TestAppend_InvalidSource(t *testing.T) {
	store := newTestStore(t)

	err := store.Append(context.Background(), newRecord("x", "azure", "t", baseTime))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid evidence source")
}

func TestFileName_SanitizesType(t *testing.T) {
	rec := newRecord("x", entities.SourceGitHub, "repo_acme/api v2", baseTime)
	assert.Equal(t, "20260510T093000.000000000Z_repo_acme_api_v2.json", FileName(rec))
}

func TestList_OrderingAndFilters(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seed := []*entities.EvidenceRecord{
		newRecord("gh-old", entities.SourceGitHub, "repo_acme_api", baseTime),
		newRecord("google-mid", entities.SourceGoogle, "workspace_compliance", baseTime.Add(time.Hour)),
		newRecord("gh-new", entities.SourceGitHub, "repo_acme_api", baseTime.Add(2*time.Hour)),
		newRecord("gh-other", entities.SourceGitHub, "repo_acme_web", baseTime.Add(3*time.Hour)),
	}
	for _, rec := range seed {
		require.NoError(t, store.Append(ctx, rec))
	}

	tests := []struct {
		name     string
		query    entities.EvidenceQuery
		expected []string
	}{
		{
			name:     "all partitions newest first",
			query:    entities.EvidenceQuery{},
			expected: []string{"gh-other", "gh-new", "google-mid", "gh-old"},
		},
		{
			name:     "by source",
			query:    entities.EvidenceQuery{Source: entities.SourceGitHub},
			expected: []string{"gh-other", "gh-new", "gh-old"},
		},
		{
			name:     "by type",
			query:    entities.EvidenceQuery{Type: "repo_acme_api"},
			expected: []string{"gh-new", "gh-old"},
		},
		{
			name:     "since inclusive",
			query:    entities.EvidenceQuery{Since: baseTime.Add(time.Hour)},
			expected: []string{"gh-other", "gh-new", "google-mid"},
		},
		{
			name:     "until inclusive",
			query:    entities.EvidenceQuery{Until: baseTime.Add(time.Hour)},
			expected: []string{"google-mid", "gh-old"},
		},
		{
			name:     "limit",
			query:    entities.EvidenceQuery{Source: entities.SourceGitHub, Limit: 1},
			expected: []string{"gh-other"},
		},
		{
			name:     "empty partition",
			query:    entities.EvidenceQuery{Source: entities.SourceAWS},
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := store.List(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ids(records))
		})
	}
}

func TestList_TypeSuffixCollisionFilteredByContent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, newRecord("long", entities.SourceGitHub, "repo_a_b", baseTime)))
	require.NoError(t, store.Append(ctx, newRecord("short", entities.SourceGitHub, "b", baseTime.Add(time.Minute))))

	records, err := store.List(ctx, entities.EvidenceQuery{Type: "b"})
	require.NoError(t, err)
	assert.Equal(t, []string{"short"}, ids(records))
}

func TestList_Idempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := range 5 {
		require.NoError(t, store.Append(ctx, newRecord(string(rune('a'+i)), entities.SourceGoogle, "workspace_compliance", baseTime.Add(time.Duration(i)*time.Second))))
	}

	first, err := store.List(ctx, entities.EvidenceQuery{})
	require.NoError(t, err)
	second, err := store.List(ctx, entities.EvidenceQuery{})
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestScan_SkipsMalformedRecords(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, newRecord("good", entities.SourceGitHub, "repo_x_y", baseTime)))

	dir := filepath.Join(store.Root(), "github")
	badPath := filepath.Join(dir, "20260510T100000.000000000Z_repo_x_y.json")
	require.NoError(t, os.WriteFile(badPath, []byte("{not json"), 0640))
	emptyPath := filepath.Join(dir, "20260510T110000.000000000Z_repo_x_y.json")
	require.NoError(t, os.WriteFile(emptyPath, []byte(`{}`), 0640))

	records, skipped, err := store.Scan(ctx, entities.EvidenceQuery{Source: entities.SourceGitHub})
	require.NoError(t, err)
	assert.Equal(t, []string{"good"}, ids(records))
	require.Len(t, skipped, 2)
	assert.Equal(t, emptyPath, skipped[0].Path)
	assert.Equal(t, badPath, skipped[1].Path)

	listed, err := store.List(ctx, entities.EvidenceQuery{Source: entities.SourceGitHub})
	require.NoError(t, err)
	assert.Equal(t, []string{"good"}, ids(listed))
}

func TestList_IgnoresTempAndForeignFiles(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, newRecord("good", entities.SourceAWS, "account", baseTime)))
	dir := filepath.Join(store.Root(), "aws")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".20260510T120000.000000000Z_account.json.tmp"), []byte("partial"), 0640))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.txt"), []byte("notes"), 0640))

	records, skipped, err := store.Scan(ctx, entities.EvidenceQuery{})
	require.NoError(t, err)
	assert.Equal(t, []string{"good"}, ids(records))
	assert.Empty(t, skipped)
}

func TestDeleteBefore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, newRecord("ancient", entities.SourceGitHub, "repo_a_b", baseTime.AddDate(0, 0, -100))))
	require.NoError(t, store.Append(ctx, newRecord("old", entities.SourceGoogle, "workspace_compliance", baseTime.AddDate(0, 0, -31))))
	require.NoError(t, store.Append(ctx, newRecord("recent", entities.SourceGitHub, "repo_a_b", baseTime.AddDate(0, 0, -1))))
	require.NoError(t, store.Append(ctx, newRecord("now", entities.SourceManual, "review", baseTime)))

	cutoff := baseTime.AddDate(0, 0, -30)
	removed, err := store.DeleteBefore(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	records, err := store.List(ctx, entities.EvidenceQuery{})
	require.NoError(t, err)
	assert.Equal(t, []string{"now", "recent"}, ids(records))

	for _, rec := range records {
		assert.False(t, rec.Timestamp.Before(cutoff))
	}

	removed, err = store.DeleteBefore(ctx, cutoff)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestDeleteBefore_LeavesUndatableFiles(t *testing.T) {
	store := newTestStore(t)
	dir := filepath.Join(store.Root(), "manual")
	require.NoError(t, os.MkdirAll(dir, 0750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "garbage.json"), []byte("nope"), 0640))

	removed, err := store.DeleteBefore(context.Background(), baseTime)
	require.NoError(t, err)
	assert.Zero(t, removed)
	assert.FileExists(t, filepath.Join(dir, "garbage.json"))
}

func TestDelete_RemovesOnlyGivenRecords(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	gone := newRecord("gone", entities.SourceGitHub, "repo_a_b", baseTime.AddDate(0, 0, -40))
	kept := newRecord("kept", entities.SourceGitHub, "repo_a_b", baseTime.AddDate(0, 0, -50))
	require.NoError(t, store.Append(ctx, gone))
	require.NoError(t, store.Append(ctx, kept))
	missing := newRecord("missing", entities.SourceGoogle, "workspace_compliance", baseTime)

	removed, err := store.Delete(ctx, []entities.EvidenceRecord{*gone, *missing})
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	records, err := store.List(ctx, entities.EvidenceQuery{})
	require.NoError(t, err)
	assert.Equal(t, []string{"kept"}, ids(records))
}

func TestStore_ConcurrentAppendDeleteList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	cutoff := baseTime.AddDate(0, 0, -30)

	const stale = 100
	for i := range stale {
		ts := cutoff.Add(-time.Duration(i+1) * time.Minute)
		require.NoError(t, store.Append(ctx, newRecord(fmt.Sprintf("stale-%d", i), entities.SourceGitHub, "repo_a_b", ts)))
	}

	const writers, perWriter = 3, 30
	errs := make(chan error, 1000)
	var wg sync.WaitGroup

	for w := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perWriter {
				ts := baseTime.Add(time.Duration(w*perWriter+i) * time.Millisecond)
				if err := store.Append(ctx, newRecord(fmt.Sprintf("fresh-%d-%d", w, i), entities.SourceGitHub, "repo_a_b", ts)); err != nil {
					errs <- err
				}
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for range 5 {
			if _, err := store.DeleteBefore(ctx, cutoff); err != nil {
				errs <- err
			}
		}
	}()

	for range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 10 {
				records, skipped, err := store.Scan(ctx, entities.EvidenceQuery{Source: entities.SourceGitHub})
				if err != nil {
					errs <- err
					continue
				}
				if len(skipped) > 0 {
					errs <- fmt.Errorf("scan reported %d malformed records: %v", len(skipped), skipped[0].Err)
				}
				for i := 1; i < len(records); i++ {
					if !records[i-1].Timestamp.After(records[i].Timestamp) {
						errs <- fmt.Errorf("records out of order at %d", i)
						break
					}
				}
			}
		}()
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}

	_, err := store.DeleteBefore(ctx, cutoff)
	require.NoError(t, err)

	records, err := store.List(ctx, entities.EvidenceQuery{})
	require.NoError(t, err)
	assert.Len(t, records, writers*perWriter)
	for _, rec := range records {
		assert.False(t, rec.Timestamp.Before(cutoff), "stale record %s survived", rec.ID)
	}
}

func TestScan_ToleratesRecordsRemovedMidScan(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var batch []entities.EvidenceRecord
	for i := range 200 {
		rec := newRecord(fmt.Sprintf("r%d", i), entities.SourceManual, "review", baseTime.Add(time.Duration(i)*time.Second))
		require.NoError(t, store.Append(ctx, rec))
		batch = append(batch, *rec)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := range batch {
			_, _ = store.Delete(ctx, batch[i:i+1])
		}
	}()

	for {
		select {
		case <-done:
			records, skipped, err := store.Scan(ctx, entities.EvidenceQuery{})
			require.NoError(t, err)
			assert.Empty(t, records)
			assert.Empty(t, skipped)
			return
		default:
		}
		_, skipped, err := store.Scan(ctx, entities.EvidenceQuery{})
		require.NoError(t, err)
		assert.Empty(t, skipped)
	}
}
