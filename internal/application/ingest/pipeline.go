package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/staysquare/api/internal/domain"
	"github.com/staysquare/api/internal/pkg/id"
)

// MaxFiles caps how many images one listing may carry.
const MaxFiles = 5

// TempFile is an uploaded image spooled to local disk by the HTTP boundary.
type TempFile struct {
	Path        string
	Name        string // original client filename, used in the object key
	ContentType string
}

// ObjectStore is the storage collaborator the pipeline uploads to.
type ObjectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// Pipeline turns local temp files into durable, URL-addressable objects.
type Pipeline struct {
	store ObjectStore
}

func NewPipeline(store ObjectStore) *Pipeline {
	return &Pipeline{store: store}
}

// Ingest uploads all files concurrently and returns their URLs in input
// order. The batch is all-or-nothing: any single failure fails the whole call
// with domain.ErrUploadFailed and best-effort deletes the objects that did
// make it. Every temp file is removed before Ingest returns, on every path.
func (p *Pipeline) Ingest(ctx context.Context, ownerID string, files []TempFile) ([]string, error) {
	defer Discard(files)

	if len(files) == 0 || len(files) > MaxFiles {
		return nil, fmt.Errorf("between 1 and %d images required: %w", MaxFiles, domain.ErrBadRequest)
	}

	urls := make([]string, len(files))
	keys := make([]string, len(files))
	errs := make([]error, len(files))

	var wg sync.WaitGroup
	for i, f := range files {
		wg.Add(1)
		go func(i int, f TempFile) {
			defer wg.Done()
			src, err := os.Open(f.Path)
			if err != nil {
				errs[i] = fmt.Errorf("open %s: %w", f.Name, err)
				return
			}
			defer src.Close()
			key := fmt.Sprintf("listings/%s/%s-%s", ownerID, id.New(), sanitizeFilename(f.Name))
			url, err := p.store.Upload(ctx, key, src, f.ContentType)
			if err != nil {
				errs[i] = fmt.Errorf("upload %s: %w", f.Name, err)
				return
			}
			urls[i], keys[i] = url, key
		}(i, f)
	}
	wg.Wait()

	for _, err := range errs {
		if err == nil {
			continue
		}
		// Don't leave orphaned objects behind a failed batch.
		for _, key := range keys {
			if key == "" {
				continue
			}
			if dErr := p.store.Delete(ctx, key); dErr != nil {
				slog.Warn("could not delete orphaned object", "key", key, "err", dErr)
			}
		}
		return nil, fmt.Errorf("%s: %w", err, domain.ErrUploadFailed)
	}
	return urls, nil
}

// Discard removes the temp files of a batch that will not be ingested, e.g.
// when validation fails after the boundary already spooled the uploads.
func Discard(files []TempFile) {
	for _, f := range files {
		if err := os.Remove(f.Path); err != nil && !os.IsNotExist(err) {
			slog.Warn("could not remove temp upload", "path", f.Path, "err", err)
		}
	}
}

// sanitizeFilename strips directory components and keeps only safe characters
// (alphanumeric, dot, dash, underscore) to prevent path traversal in S3 keys.
func sanitizeFilename(name string) string {
	name = path.Base(name)
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '.' || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	if result := b.String(); result != "" && result != "." && result != ".." {
		return result
	}
	return "_"
}
