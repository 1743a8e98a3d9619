package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

type FileSystem struct {
	perm   os.FileMode
	exists map[string]struct{}
}

var _ Engine = (*FileSystem)(nil)

func NewFileSystem() *FileSystem {
	return &FileSystem{
		perm:   0666,
		exists: make(map[string]struct{}),
	}
}

func (f *FileSystem) Get(_ context.Context, u *URI) (Reader, error) {
	r, err := os.Open(u.Filepath())
	if err != nil {
		return nil, wrapfileError(u, err)
	}
	return &fileSizer{r, u}, nil
}

// Put returns a writer that replaces the file at u when closed, so a failed
// write never leaves a partial Parquet file behind.
func (f *FileSystem) Put(_ context.Context, u *URI) (io.WriteCloser, error) {
	path := u.Filepath()
	if err := f.checkPath(path); err != nil {
		return nil, wrapfileError(u, err)
	}
	w, err := newReplacer(path, f.perm)
	return w, wrapfileError(u, err)
}

func (f *FileSystem) Delete(_ context.Context, u *URI) error {
	return wrapfileError(u, os.Remove(u.Filepath()))
}

func (f *FileSystem) Size(_ context.Context, u *URI) (int64, error) {
	info, err := os.Stat(u.Filepath())
	if err != nil {
		return 0, wrapfileError(u, err)
	}
	return info.Size(), nil
}

func (f *FileSystem) Exists(_ context.Context, u *URI) (bool, error) {
	_, err := os.Stat(u.Filepath())
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, wrapfileError(u, err)
	}
	return true, nil
}

func (f *FileSystem) checkPath(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	if _, ok := f.exists[dir]; ok {
		return nil
	}
	err := os.MkdirAll(dir, 0755)
	if os.IsExist(err) {
		err = nil
	}
	if err == nil {
		f.exists[dir] = struct{}{}
	}
	return err
}

func wrapfileError(uri *URI, err error) error {
	if os.IsNotExist(err) {
		return fmt.Errorf("%s: %w", uri, ErrNotFound)
	}
	return err
}

type fileSizer struct {
	*os.File
	uri *URI
}

var _ Sizer = (*fileSizer)(nil)

func (f *fileSizer) Size() (int64, error) {
	info, err := f.Stat()
	if err != nil {
		return 0, wrapfileError(f.uri, err)
	}
	return info.Size(), nil
}

// replacer writes to a temporary file in the target's directory and renames
// it over the target on Close. Abort discards the temporary file.
type replacer struct {
	f    *os.File
	path string
	perm os.FileMode
	err  error
}

func newReplacer(path string, perm os.FileMode) (*replacer, error) {
	f, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path))
	if err != nil {
		return nil, err
	}
	return &replacer{f: f, path: path, perm: perm}, nil
}

func (r *replacer) Write(b []byte) (int, error) {
	n, err := r.f.Write(b)
	if err != nil && r.err == nil {
		r.err = err
	}
	return n, err
}

func (r *replacer) Abort() {
	if r.err == nil {
		r.err = errAborted
	}
	r.Close()
}

var errAborted = errors.New("write aborted")

func (r *replacer) Close() error {
	if r.f == nil {
		return r.err
	}
	name := r.f.Name()
	err := r.f.Close()
	r.f = nil
	if err == nil && r.err == nil {
		err = os.Chmod(name, r.perm)
	}
	if err == nil && r.err == nil {
		err = os.Rename(name, r.path)
	}
	if err != nil || r.err != nil {
		os.Remove(name)
	}
	if err == nil {
		err = r.err
	}
	return err
}

// Abort discards w if it is a pending file write.
func Abort(w io.WriteCloser) {
	if a, ok := w.(interface{ Abort() }); ok {
		a.Abort()
		return
	}
	w.Close()
}
