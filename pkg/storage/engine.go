package storage

import (
	"context"
	"errors"
	"io"
)

type Reader interface {
	io.Reader
	io.ReaderAt
	io.Closer
}

type Sizer interface {
	Size() (int64, error)
}

var (
	ErrNotFound     = errors.New("not found")
	ErrNotSupported = errors.New("method call on storage engine not supported")
)

type Engine interface {
	Get(context.Context, *URI) (Reader, error)
	Put(context.Context, *URI) (io.WriteCloser, error)
	Delete(context.Context, *URI) error
	Exists(context.Context, *URI) (bool, error)
	Size(context.Context, *URI) (int64, error)
}

func NewRemoteEngine() *Router {
	router := NewRouter()
	router.Enable(S3Scheme)
	return router
}

func NewLocalEngine() *Router {
	router := NewRemoteEngine()
	router.Enable(FileScheme)
	return router
}

func Put(ctx context.Context, engine Engine, u *URI, r io.Reader) error {
	w, err := engine.Put(ctx, u)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, r)
	if closeErr := w.Close(); err == nil {
		err = closeErr
	}
	return err
}

func Size(r Reader) (int64, error) {
	if sizer, ok := r.(Sizer); ok {
		return sizer.Size()
	}
	return 0, ErrNotSupported
}

// NewSeeker provides a seeker implementation on top of Reader for the
// Parquet readers, which locate the footer by seeking from the end.
func NewSeeker(r Reader) (*Seeker, error) {
	size, err := Size(r)
	if err != nil {
		return nil, err
	}
	return &Seeker{
		ReadSeeker: io.NewSectionReader(r, 0, size),
		Reader:     r,
	}, nil
}

type Seeker struct {
	io.ReadSeeker
	Reader
}

// Read resolves the ambiguous selector s.Read to s.ReadSeeker.Read.
func (s *Seeker) Read(b []byte) (int, error) {
	return s.ReadSeeker.Read(b)
}

// Open returns a seekable reader for the object at u.
func Open(ctx context.Context, engine Engine, u *URI) (*Seeker, error) {
	r, err := engine.Get(ctx, u)
	if err != nil {
		return nil, err
	}
	s, err := NewSeeker(r)
	if err != nil {
		r.Close()
		return nil, err
	}
	return s, nil
}
