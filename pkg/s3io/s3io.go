package s3io

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
)

var ErrInvalidS3Path = errors.New("path is not a valid s3 location")

// NewClient returns an S3 client using the shared AWS configuration. The
// AWS_S3_ENDPOINT environment variable selects an S3-compatible endpoint
// with path-style addressing.
func NewClient(cfg *aws.Config) *s3.S3 {
	if cfg == nil {
		cfg = aws.NewConfig()
	}
	if endpoint := os.Getenv("AWS_S3_ENDPOINT"); endpoint != "" && cfg.Endpoint == nil {
		cfg = cfg.Copy().WithEndpoint(endpoint).WithS3ForcePathStyle(true)
	}
	sess := session.Must(session.NewSessionWithOptions(session.Options{
		Config:            *cfg,
		SharedConfigState: session.SharedConfigEnable,
	}))
	return s3.New(sess)
}

func IsS3Path(path string) bool {
	_, _, err := parsePath(path)
	return err == nil
}

func parsePath(path string) (bucket, key string, err error) {
	u, err := url.Parse(path)
	if err != nil {
		return "", "", err
	}
	if u.Scheme != "s3" || u.Host == "" {
		return "", "", ErrInvalidS3Path
	}
	return u.Host, strings.TrimPrefix(u.Path, "/"), nil
}

type Info struct {
	Size int64
}

func Stat(ctx context.Context, path string, client s3iface.S3API) (Info, error) {
	bucket, key, err := parsePath(path)
	if err != nil {
		return Info{}, err
	}
	out, err := client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return Info{}, err
	}
	return Info{Size: aws.Int64Value(out.ContentLength)}, nil
}

func Exists(ctx context.Context, path string, client s3iface.S3API) (bool, error) {
	_, err := Stat(ctx, path, client)
	var reqerr awserr.RequestFailure
	if errors.As(err, &reqerr) && reqerr.StatusCode() == http.StatusNotFound {
		return false, nil
	}
	return err == nil, err
}

func Remove(ctx context.Context, path string, client s3iface.S3API) error {
	bucket, key, err := parsePath(path)
	if err != nil {
		return err
	}
	_, err = client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	return err
}

// uploader is an interface wrapper for s3manager.Uploader. This is only here
// for unit testing purposes.
type uploader interface {
	UploadWithContext(aws.Context, *s3manager.UploadInput, ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error)
}

// Writer streams an object to S3 through a multipart upload that starts on
// the first Write.
type Writer struct {
	ctx      context.Context
	writer   *io.PipeWriter
	uploader uploader
	bucket   string
	key      string
	once     sync.Once
	done     chan struct{}
	err      error
}

func NewWriter(ctx context.Context, path string, client s3iface.S3API, options ...func(*s3manager.Uploader)) (*Writer, error) {
	bucket, key, err := parsePath(path)
	if err != nil {
		return nil, err
	}
	return &Writer{
		ctx:      ctx,
		bucket:   bucket,
		key:      key,
		uploader: s3manager.NewUploaderWithClient(client, options...),
		done:     make(chan struct{}),
	}, nil
}

func (w *Writer) init() {
	pr, pw := io.Pipe()
	w.writer = pw
	go func() {
		_, err := w.uploader.UploadWithContext(w.ctx, &s3manager.UploadInput{
			Bucket: aws.String(w.bucket),
			Key:    aws.String(w.key),
			Body:   pr,
		})
		w.err = err
		close(w.done)
		_ = pr.CloseWithError(err) // can ignore, return value will always be nil
	}()
}

func (w *Writer) Write(b []byte) (int, error) {
	w.once.Do(w.init)
	return w.writer.Write(b)
}

func (w *Writer) Close() error {
	w.once.Do(w.init)
	err := w.writer.Close()
	<-w.done
	if err != nil {
		return err
	}
	return w.err
}

var errAborted = errors.New("upload aborted")

// Abort fails the upload so that no object is created.
func (w *Writer) Abort() {
	w.once.Do(w.init)
	w.writer.CloseWithError(errAborted)
	<-w.done
}
