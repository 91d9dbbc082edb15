package s3blob

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/alanyoungcy/impactsim/internal/domain"
)

type fakeAPI struct {
	put    *s3.PutObjectInput
	body   string
	getErr error
	stamp  time.Time
}

func (f *fakeAPI) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.put = in
	b, _ := io.ReadAll(in.Body)
	f.body = string(b)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeAPI) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(strings.NewReader(f.body)),
		ContentLength: aws.Int64(int64(len(f.body))),
		LastModified:  &f.stamp,
	}, nil
}

func TestWriterSmallUpload(t *testing.T) {
	api := &fakeAPI{}
	w := &Writer{api: api, bucket: "impactsim-archive"}

	if err := w.Upload(context.Background(), "studies/a.jsonl", []byte("{}\n"), ContentTypeJSONL); err != nil {
		t.Fatal(err)
	}
	if aws.ToString(api.put.Bucket) != "impactsim-archive" || aws.ToString(api.put.Key) != "studies/a.jsonl" {
		t.Errorf("put = %s/%s", aws.ToString(api.put.Bucket), aws.ToString(api.put.Key))
	}
	if aws.ToInt64(api.put.ContentLength) != 3 || api.body != "{}\n" {
		t.Errorf("length = %d body = %q", aws.ToInt64(api.put.ContentLength), api.body)
	}
}

func TestReaderOpen(t *testing.T) {
	stamp := time.Date(2026, 10, 14, 8, 0, 0, 0, time.FixedZone("x", 7200))
	r := &Reader{api: &fakeAPI{body: "{\"index\":0}\n", stamp: stamp}, bucket: "b"}

	blob, err := r.Open(context.Background(), "studies/a.jsonl")
	if err != nil {
		t.Fatal(err)
	}
	defer blob.Close()
	if blob.Info.Size != 12 || blob.Info.ContentType != ContentTypeJSONL {
		t.Errorf("info = %+v", blob.Info)
	}
	if !blob.Info.LastModified.Equal(stamp) || blob.Info.LastModified.Location() != time.UTC {
		t.Errorf("last modified = %v", blob.Info.LastModified)
	}
}

func TestReaderNotFound(t *testing.T) {
	r := &Reader{api: &fakeAPI{getErr: &types.NoSuchKey{}}, bucket: "b"}
	if _, err := r.Open(context.Background(), "gone"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("err = %v, want not found", err)
	}

	r.api = &fakeAPI{getErr: errors.New("connection reset")}
	if _, err := r.Open(context.Background(), "x"); err == nil || errors.Is(err, domain.ErrNotFound) {
		t.Errorf("transport err = %v", err)
	}
}
