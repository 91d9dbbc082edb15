package domain

import (
	"context"
	"io"
	"time"
)

// BlobInfo describes a stored bundle.
type BlobInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
}

// Blob is an open stored bundle. The caller closes it.
type Blob struct {
	io.ReadCloser
	Info BlobInfo
}

// BlobWriter uploads a complete bundle. Implementations pick the upload
// strategy from the body size.
type BlobWriter interface {
	Upload(ctx context.Context, key string, body []byte, contentType string) error
}

// BlobReader opens a bundle for streaming. A missing key is ErrNotFound.
type BlobReader interface {
	Open(ctx context.Context, key string) (*Blob, error)
}

// Archiver writes completed results to cold storage as JSONL and returns the
// object key.
type Archiver interface {
	ArchiveStudy(ctx context.Context, s StudyResult) (string, error)
	ArchiveReports(ctx context.Context, batch string, reports []Report) (string, error)
}
