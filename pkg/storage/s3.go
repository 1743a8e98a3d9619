package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/brimdata/parq/pkg/s3io"
)

type S3Engine struct {
	client s3iface.S3API
}

var _ Engine = (*S3Engine)(nil)
var _ Sizer = (*s3io.Reader)(nil)

func NewS3() *S3Engine {
	return NewS3WithClient(s3io.NewClient(nil))
}

func NewS3WithClient(client s3iface.S3API) *S3Engine {
	return &S3Engine{client: client}
}

func (s *S3Engine) Get(ctx context.Context, u *URI) (Reader, error) {
	r, err := s3io.NewReader(ctx, u.String(), s.client)
	if err != nil {
		return nil, wrapErr(u, err)
	}
	return r, nil
}

func (s *S3Engine) Put(ctx context.Context, u *URI) (io.WriteCloser, error) {
	w, err := s3io.NewWriter(ctx, u.String(), s.client)
	if err != nil {
		return nil, wrapErr(u, err)
	}
	return w, nil
}

func (s *S3Engine) Delete(ctx context.Context, u *URI) error {
	return wrapErr(u, s3io.Remove(ctx, u.String(), s.client))
}

func (s *S3Engine) Size(ctx context.Context, u *URI) (int64, error) {
	info, err := s3io.Stat(ctx, u.String(), s.client)
	if err != nil {
		return 0, wrapErr(u, err)
	}
	return info.Size, nil
}

func (s *S3Engine) Exists(ctx context.Context, u *URI) (bool, error) {
	ok, err := s3io.Exists(ctx, u.String(), s.client)
	return ok, wrapErr(u, err)
}

func wrapErr(u *URI, err error) error {
	var reqerr awserr.RequestFailure
	if errors.As(err, &reqerr) && reqerr.StatusCode() == http.StatusNotFound {
		return fmt.Errorf("%s: %w", u, ErrNotFound)
	}
	return err
}
