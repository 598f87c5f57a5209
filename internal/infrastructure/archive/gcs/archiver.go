// Package gcs archives evidence records to a Google Cloud Storage bucket.
package gcs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/ersonp/comply-core/internal/domain/entities"
	"github.com/ersonp/comply-core/internal/infrastructure/config"
	"github.com/ersonp/comply-core/internal/infrastructure/ledger/filestore"
)

// Archiver implements ports.EvidenceArchiver by writing one JSON object per record.
type Archiver struct {
	client    *storage.Client
	bucket    string
	prefix    string
	newWriter func(ctx context.Context, name string) io.WriteCloser
}

// NewArchiver creates an archiver for cfg.Bucket. Without a credentials file
// the client falls back to application default credentials.
func NewArchiver(ctx context.Context, cfg config.ArchiveConfig, opts ...option.ClientOption) (*Archiver, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("archive bucket is required")
	}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating GCS storage client: %w", err)
	}

	a := &Archiver{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}
	bucket := client.Bucket(cfg.Bucket)
	a.newWriter = func(ctx context.Context, name string) io.WriteCloser {
		w := bucket.Object(name).NewWriter(ctx)
		w.ContentType = "application/json"
		return w
	}
	return a, nil
}

// Close releases the storage client.
func (a *Archiver) Close() error {
	if a.client == nil {
		return nil
	}
	return a.client.Close()
}

// Archive uploads every record. Object names are deterministic, so archiving
// the same record twice rewrites the same object.
func (a *Archiver) Archive(ctx context.Context, records []entities.EvidenceRecord) error {
	for i := range records {
		if err := a.upload(ctx, &records[i]); err != nil {
			return err
		}
	}
	return nil
}

func (a *Archiver) upload(ctx context.Context, rec *entities.EvidenceRecord) error {
	name := ObjectName(a.prefix, rec)

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshaling record %s: %w", rec.ID, err)
	}

	w := a.newWriter(ctx, name)
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("writing gs://%s/%s: %w", a.bucket, name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing gs://%s/%s: %w", a.bucket, name, err)
	}
	return nil
}

// ObjectName returns the object path of rec under prefix. The base name is the
// record's ledger file name, so an archived partition mirrors the local one.
func ObjectName(prefix string, rec *entities.EvidenceRecord) string {
	return path.Join(prefix, string(rec.Source), filestore.FileName(rec))
}
