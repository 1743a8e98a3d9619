package storage

import (
	"context"
	"fmt"
	"io"
)

type Scheme string

const (
	FileScheme Scheme = "file"
	S3Scheme   Scheme = "s3"
)

func knownScheme(s Scheme) bool {
	switch s {
	case FileScheme, S3Scheme:
		return true
	}
	return false
}

// Router dispatches each call to the engine for the URI's scheme. Engines
// are created when their scheme is enabled.
type Router struct {
	engines map[Scheme]Engine
}

var _ Engine = (*Router)(nil)

func NewRouter() *Router {
	return &Router{engines: make(map[Scheme]Engine)}
}

func (r *Router) Enable(scheme Scheme) {
	if _, ok := r.engines[scheme]; ok {
		return
	}
	switch scheme {
	case FileScheme:
		r.engines[scheme] = NewFileSystem()
	case S3Scheme:
		r.engines[scheme] = NewS3()
	}
}

func (r *Router) lookup(u *URI) (Engine, error) {
	scheme := Scheme(u.Scheme)
	if scheme == "" {
		scheme = FileScheme
	}
	engine, ok := r.engines[scheme]
	if !ok {
		return nil, fmt.Errorf("%s: %w: scheme %q", u, ErrNotSupported, scheme)
	}
	return engine, nil
}

func (r *Router) Get(ctx context.Context, u *URI) (Reader, error) {
	engine, err := r.lookup(u)
	if err != nil {
		return nil, err
	}
	return engine.Get(ctx, u)
}

func (r *Router) Put(ctx context.Context, u *URI) (io.WriteCloser, error) {
	engine, err := r.lookup(u)
	if err != nil {
		return nil, err
	}
	return engine.Put(ctx, u)
}

func (r *Router) Delete(ctx context.Context, u *URI) error {
	engine, err := r.lookup(u)
	if err != nil {
		return err
	}
	return engine.Delete(ctx, u)
}

func (r *Router) Exists(ctx context.Context, u *URI) (bool, error) {
	engine, err := r.lookup(u)
	if err != nil {
		return false, err
	}
	return engine.Exists(ctx, u)
}

func (r *Router) Size(ctx context.Context, u *URI) (int64, error) {
	engine, err := r.lookup(u)
	if err != nil {
		return 0, err
	}
	return engine.Size(ctx, u)
}
