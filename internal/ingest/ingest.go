// Package ingest implements the bulk photo ingestion pipeline: validate a
// batch of uploads with no side effects, then encode, store and record each
// item inside one database transaction so the whole batch becomes visible
// atomically. The blob store has no transactions of its own, so written blobs
// are tracked in memory and compensated (deleted) when anything fails.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/aryapradana/galeri/internal/blob"
	"github.com/aryapradana/galeri/internal/codec"
	"github.com/aryapradana/galeri/internal/storage"
)

// Limits bounds a single upload request. Zero values fall back to the
// defaults below.
type Limits struct {
	MaxBatch     int
	MaxFileBytes int64
	AllowedTypes []string
}

const (
	// DefaultMaxBatch is the largest number of photos accepted in one batch.
	DefaultMaxBatch = 20
	// DefaultMaxFileBytes is the per-file size cap (5048 KB).
	DefaultMaxFileBytes = 5048 * 1024
)

func (l Limits) withDefaults() Limits {
	if l.MaxBatch <= 0 {
		l.MaxBatch = DefaultMaxBatch
	}
	if l.MaxFileBytes <= 0 {
		l.MaxFileBytes = DefaultMaxFileBytes
	}
	if len(l.AllowedTypes) == 0 {
		l.AllowedTypes = []string{"image/jpeg", "image/png"}
	}
	return l
}

// Item is one (title, file) pair submitted in an upload batch.
type Item struct {
	Title    string
	Filename string
	Data     []byte
}

// UploadedFile summarises one successfully ingested photo.
type UploadedFile struct {
	ID       int64
	Title    string
	Filename string
	Path     string
}

// ValidationError reports every violated field of an invalid batch. It is
// returned before any side effect has happened.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("ingest: validation failed (%d field(s))", len(e.Fields))
}

// PhotoStore is the slice of the record store the pipeline needs.
type PhotoStore interface {
	BeginBatch(ctx context.Context) (storage.PhotoBatch, error)
}

// BlobStore is the slice of the blob store the pipeline needs.
type BlobStore interface {
	Put(key string, data []byte) error
	Delete(key string) error
}

// Pipeline ingests photo batches for authenticated users.
type Pipeline struct {
	photos PhotoStore
	blobs  BlobStore
	logger *slog.Logger
	limits Limits
	now    func() time.Time
}

// New builds a Pipeline. The logger must not be nil.
func New(photos PhotoStore, blobs BlobStore, logger *slog.Logger, limits Limits) *Pipeline {
	return &Pipeline{
		photos: photos,
		blobs:  blobs,
		logger: logger,
		limits: limits.withDefaults(),
		now:    time.Now,
	}
}

// Ingest validates and stores a batch of photos for userID. On success every
// item has been encoded, written to the blob store and recorded, and the
// returned summaries mirror the batch order. On failure no record and no blob
// of this batch survives; the returned error is the original cause (or a
// *ValidationError when the batch never passed validation).
func (p *Pipeline) Ingest(ctx context.Context, userID int64, items []Item) ([]UploadedFile, error) {
	if verr := p.Validate(items); verr != nil {
		return nil, verr
	}

	batch, err := p.photos.BeginBatch(ctx)
	if err != nil {
		return nil, fmt.Errorf("ingest: begin batch: %w", err)
	}

	var written []string
	uploaded := make([]UploadedFile, 0, len(items))

	for i, item := range items {
		key := blob.NewKey(p.now(), extension(item.Filename))

		encoded, err := codec.Normalize(item.Data)
		if err != nil {
			return nil, p.fail(batch, written, fmt.Errorf("item %d: %w", i, err))
		}

		// Track the key before writing so a partial write is still
		// cleaned up.
		written = append(written, key)
		if err := p.blobs.Put(key, encoded); err != nil {
			return nil, p.fail(batch, written, fmt.Errorf("item %d: %w", i, err))
		}

		photo, err := batch.Create(ctx, storage.PhotoCreate{
			UserID:   userID,
			FilePath: key,
			Title:    item.Title,
			TakenAt:  codec.TakenAt(item.Data),
		})
		if err != nil {
			return nil, p.fail(batch, written, fmt.Errorf("item %d: %w", i, err))
		}

		uploaded = append(uploaded, UploadedFile{
			ID:       photo.ID,
			Title:    photo.Title,
			Filename: filepath.Base(key),
			Path:     key,
		})
	}

	if err := batch.Commit(); err != nil {
		return nil, p.fail(batch, written, fmt.Errorf("ingest: commit: %w", err))
	}

	p.logger.Info("batch ingested", "userID", userID, "count", len(uploaded))
	return uploaded, nil
}

// Validate checks the whole batch and reports every violated field. It never
// touches the blob store or the record store.
func (p *Pipeline) Validate(items []Item) *ValidationError {
	fields := map[string]string{}

	if len(items) == 0 {
		fields["photo"] = "at least one photo is required"
	}
	if len(items) > p.limits.MaxBatch {
		fields["photo"] = fmt.Sprintf("at most %d photos can be uploaded at once", p.limits.MaxBatch)
	}

	for i, item := range items {
		titleField := fmt.Sprintf("title.%d", i)
		photoField := fmt.Sprintf("photo.%d", i)

		switch {
		case strings.TrimSpace(item.Title) == "":
			fields[titleField] = "title is required"
		case len(item.Title) > 255:
			fields[titleField] = "title must not exceed 255 characters"
		}

		switch {
		case len(item.Data) == 0:
			fields[photoField] = "photo file is required"
		case int64(len(item.Data)) > p.limits.MaxFileBytes:
			fields[photoField] = fmt.Sprintf("photo must not exceed %d KB", p.limits.MaxFileBytes/1024)
		case !p.allowedType(item.Data):
			fields[photoField] = "photo must be a JPG, JPEG or PNG image"
		}
	}

	if len(fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: fields}
}

func (p *Pipeline) allowedType(data []byte) bool {
	detected := http.DetectContentType(data)
	for _, t := range p.limits.AllowedTypes {
		if detected == t {
			return true
		}
	}
	return false
}

// fail rolls back the open transaction and deletes every blob written so far.
// Cleanup is best effort: an individual delete failure is logged and the
// remaining blobs are still removed. The original cause is always what the
// caller gets back.
func (p *Pipeline) fail(batch storage.PhotoBatch, written []string, cause error) error {
	if err := batch.Rollback(); err != nil {
		p.logger.Error("batch rollback failed", "error", err)
	}

	for _, key := range written {
		if err := p.blobs.Delete(key); err != nil {
			if errors.Is(err, blob.ErrNotFound) {
				continue
			}
			p.logger.Error("cleanup failed", "key", key, "error", err)
		}
	}

	p.logger.Error("batch ingest failed", "error", cause)
	return cause
}

func extension(filename string) string {
	ext := strings.TrimPrefix(filepath.Ext(filename), ".")
	if ext == "" {
		return "jpg"
	}
	return ext
}
