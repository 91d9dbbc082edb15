package s3blob

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/alanyoungcy/impactsim/internal/domain"
)

const (
	// ContentTypeJSONL is the media type of archived bundles.
	ContentTypeJSONL = "application/x-ndjson"

	// Bundles above multipartThreshold go through the upload manager in
	// partSize chunks. 5 MiB is the S3 minimum part size.
	multipartThreshold = 8 << 20
	partSize           = 5 << 20
)

// objectAPI is the subset of *s3.Client the store calls. Tests substitute it.
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Writer implements domain.BlobWriter.
type Writer struct {
	api      objectAPI
	uploader *manager.Uploader
	bucket   string
}

// NewWriter creates a Writer for the client's bucket.
func NewWriter(c *Client) *Writer {
	return &Writer{
		api: c.S3(),
		uploader: manager.NewUploader(c.S3(), func(u *manager.Uploader) {
			u.PartSize = partSize
		}),
		bucket: c.Bucket(),
	}
}

// Upload stores body under key. Small bundles use one PutObject with an
// explicit length; large study sweeps are split into parts.
func (w *Writer) Upload(ctx context.Context, key string, body []byte, contentType string) error {
	in := &s3.PutObjectInput{
		Bucket:      aws.String(w.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	}
	if len(body) > multipartThreshold && w.uploader != nil {
		if _, err := w.uploader.Upload(ctx, in); err != nil {
			return fmt.Errorf("s3blob: multipart upload %s (%d bytes): %w", key, len(body), err)
		}
		return nil
	}
	in.ContentLength = aws.Int64(int64(len(body)))
	if _, err := w.api.PutObject(ctx, in); err != nil {
		return fmt.Errorf("s3blob: put %s: %w", key, err)
	}
	return nil
}

var _ domain.BlobWriter = (*Writer)(nil)
