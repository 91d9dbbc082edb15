package s3blob

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/alanyoungcy/impactsim/internal/domain"
)

// Reader implements domain.BlobReader and serves archived bundles back to
// the API.
type Reader struct {
	api    objectAPI
	bucket string
}

func NewReader(c *Client) *Reader {
	return &Reader{api: c.S3(), bucket: c.Bucket()}
}

// Open starts a GetObject and returns the body with its metadata.
func (r *Reader) Open(ctx context.Context, key string) (*domain.Blob, error) {
	out, err := r.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("s3blob: open %s: %w", key, domain.NotFound("archive", key))
		}
		return nil, fmt.Errorf("s3blob: open %s: %w", key, err)
	}

	info := domain.BlobInfo{
		Key:         key,
		Size:        aws.ToInt64(out.ContentLength),
		ContentType: aws.ToString(out.ContentType),
	}
	if out.LastModified != nil {
		info.LastModified = out.LastModified.UTC()
	}
	if info.ContentType == "" {
		info.ContentType = ContentTypeJSONL
	}
	return &domain.Blob{ReadCloser: out.Body, Info: info}, nil
}

// isNotFound reports whether err means the object does not exist. Some
// S3-compatible providers answer with a bare 404 instead of NoSuchKey.
func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var status interface{ HTTPStatusCode() int }
	return errors.As(err, &status) && status.HTTPStatusCode() == http.StatusNotFound
}

var _ domain.BlobReader = (*Reader)(nil)
