package s3io

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePath(t *testing.T) {
	bucket, key, err := parsePath("s3://bucket/dir/file.parquet")
	require.NoError(t, err)
	assert.Equal(t, "bucket", bucket)
	assert.Equal(t, "dir/file.parquet", key)
	assert.False(t, IsS3Path("http://localhost/upload"))
	assert.False(t, IsS3Path("s3:///nobucket"))
}

func TestWriteInvalidPath(t *testing.T) {
	_, err := NewWriter(context.Background(), "http://localhost/upload", nil)
	require.Equal(t, ErrInvalidS3Path, err)
}

func newTestWriter(t *testing.T, up mockUploader) *Writer {
	w, err := NewWriter(context.Background(), "s3://localhost/upload", &fakeS3{})
	require.NoError(t, err)
	w.uploader = up
	return w
}

func TestWriteSimple(t *testing.T) {
	results := bytes.NewBuffer(nil)
	expected := []byte("some test data")
	w := newTestWriter(t, func(in *s3manager.UploadInput) (*s3manager.UploadOutput, error) {
		_, err := io.Copy(results, in.Body)
		return &s3manager.UploadOutput{}, err
	})
	_, err := w.Write(expected)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.Equal(t, expected, results.Bytes())
}

func TestWriteImmediateError(t *testing.T) {
	expected := errors.New("expected error")
	w := newTestWriter(t, func(in *s3manager.UploadInput) (*s3manager.UploadOutput, error) {
		return &s3manager.UploadOutput{}, expected
	})
	_, err := w.Write([]byte("test data"))
	assert.Equal(t, expected, err)
	assert.Equal(t, expected, w.Close())
}

func TestWriteEventualError(t *testing.T) {
	data := []byte("test data")
	expected := errors.New("expected error")
	w := newTestWriter(t, func(in *s3manager.UploadInput) (*s3manager.UploadOutput, error) {
		buf := make([]byte, len(data))
		_, _ = in.Body.Read(buf)
		return &s3manager.UploadOutput{}, expected
	})
	_, err := w.Write(data)
	require.NoError(t, err)
	_, err = w.Write(data)
	assert.Equal(t, expected, err)
	assert.Equal(t, expected, w.Close())
}

func TestWriteAbort(t *testing.T) {
	var uploadErr error
	w := newTestWriter(t, func(in *s3manager.UploadInput) (*s3manager.UploadOutput, error) {
		_, uploadErr = io.ReadAll(in.Body)
		return nil, uploadErr
	})
	_, err := w.Write([]byte("partial"))
	require.NoError(t, err)
	w.Abort()
	assert.ErrorIs(t, uploadErr, errAborted)
}

func TestReader(t *testing.T) {
	data := []byte("0123456789")
	client := &fakeS3{data: data}
	r, err := NewReader(context.Background(), "s3://bucket/key", client)
	require.NoError(t, err)
	size, err := r.Size()
	require.NoError(t, err)
	assert.EqualValues(t, 10, size)

	b := make([]byte, 4)
	n, err := r.ReadAt(b, 8)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 2, n)
	assert.Equal(t, "89", string(b[:n]))
	assert.Equal(t, []string{"bytes=8-9"}, client.ranges)

	_, err = r.Seek(-4, io.SeekEnd)
	require.NoError(t, err)
	all, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "6789", string(all))
}

type mockUploader func(*s3manager.UploadInput) (*s3manager.UploadOutput, error)

func (m mockUploader) UploadWithContext(_ aws.Context, in *s3manager.UploadInput, _ ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	return m(in)
}

// fakeS3 serves one object. Methods it does not override panic through the
// nil embedded interface.
type fakeS3 struct {
	s3iface.S3API
	data   []byte
	ranges []string
}

func (f *fakeS3) HeadObjectWithContext(aws.Context, *s3.HeadObjectInput, ...request.Option) (*s3.HeadObjectOutput, error) {
	return &s3.HeadObjectOutput{ContentLength: aws.Int64(int64(len(f.data)))}, nil
}

func (f *fakeS3) GetObjectWithContext(_ aws.Context, in *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	rng := aws.StringValue(in.Range)
	f.ranges = append(f.ranges, rng)
	var lo, hi int
	if _, err := fmt.Sscanf(rng, "bytes=%d-%d", &lo, &hi); err != nil {
		return nil, err
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(f.data[lo : hi+1]))}, nil
}
