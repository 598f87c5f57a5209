package gcs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/comply-core/internal/domain/entities"
	"github.com/ersonp/comply-core/internal/infrastructure/config"
	"github.com/ersonp/comply-core/internal/infrastructure/ledger/filestore"
)

type memWriter struct {
	bytes.Buffer
	name     string
	objects  map[string][]byte
	closeErr error
}

func (w *memWriter) Close() error {
	if w.closeErr != nil {
		return w.closeErr
	}
	w.objects[w.name] = w.Bytes()
	return nil
}

func newMemArchiver(prefix string, closeErr error) (*Archiver, map[string][]byte) {
	objects := make(map[string][]byte)
	a := &Archiver{
		bucket: "audit",
		prefix: prefix,
		newWriter: func(_ context.Context, name string) io.WriteCloser {
			return &memWriter{name: name, objects: objects, closeErr: closeErr}
		},
	}
	return a, objects
}

func TestObjectName(t *testing.T) {
	rec := &entities.EvidenceRecord{
		ID:        "0190f3a2-7c1e-7a4b-9d2f-3b8c5e6f7a81",
		Source:    entities.SourceGitHub,
		Type:      "repo_acme/api",
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 600, time.UTC),
	}

	assert.Equal(t,
		"evidence-archive/github/20260102T030405.000000600Z_repo_acme_api.json",
		ObjectName("evidence-archive", rec))
	assert.Equal(t,
		"github/20260102T030405.000000600Z_repo_acme_api.json",
		ObjectName("", rec))
	assert.Equal(t, "github/"+filestore.FileName(rec), ObjectName("", rec))
}

func TestArchiver_Archive(t *testing.T) {
	a, objects := newMemArchiver("archive", nil)
	records := []entities.EvidenceRecord{
		{ID: "a", Source: entities.SourceGitHub, Type: "repo_acme_api", Timestamp: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)},
		{ID: "b", Source: entities.SourceGoogle, Type: "workspace_compliance", Timestamp: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)},
	}

	require.NoError(t, a.Archive(context.Background(), records))

	require.Len(t, objects, 2)
	data, ok := objects["archive/google/20250102T000000.000000000Z_workspace_compliance.json"]
	require.True(t, ok)
	var got entities.EvidenceRecord
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "workspace_compliance", got.Type)
}

func TestArchiver_Archive_CloseError(t *testing.T) {
	a, objects := newMemArchiver("", errors.New("precondition failed"))

	err := a.Archive(context.Background(), []entities.EvidenceRecord{{ID: "a", Source: entities.SourceManual}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "gs://audit/")
	assert.Empty(t, objects)
}

func TestNewArchiver_RequiresBucket(t *testing.T) {
	_, err := NewArchiver(context.Background(), config.ArchiveConfig{})
	require.Error(t, err)
}
