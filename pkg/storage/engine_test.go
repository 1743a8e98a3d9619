package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeeker(t *testing.T) {
	r := NewMemFile([]byte{0, 1})
	s, err := NewSeeker(r)
	require.NoError(t, err)

	// Test that ReadAt doesn't affect the offset.
	b := make([]byte, 3)
	n, err := s.ReadAt(b, 1)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 1, n)
	assert.EqualValues(t, 1, b[0])
	n64, err := s.Seek(0, io.SeekCurrent)
	assert.NoError(t, err)
	assert.EqualValues(t, 0, n64)

	// Test Read followed by Seek to the beginning.
	for i := 0; i < 3; i++ {
		n, err = s.Read(b)
		assert.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.EqualValues(t, 0, b[0])
		assert.EqualValues(t, 1, b[1])
		n64, err = s.Seek(0, io.SeekStart)
		assert.NoError(t, err)
		assert.EqualValues(t, 0, n64)
	}
}

func TestMemFile(t *testing.T) {
	m := NewMemFile(nil)
	_, err := m.Write([]byte("hello world"))
	require.NoError(t, err)
	_, err = m.Seek(6, io.SeekStart)
	require.NoError(t, err)
	_, err = m.Write([]byte("there!"))
	require.NoError(t, err)
	assert.Equal(t, "hello there!", string(m.Bytes()))

	require.NoError(t, m.Truncate(5))
	_, err = m.Seek(0, io.SeekEnd)
	require.NoError(t, err)
	_, err = m.Write([]byte("!"))
	require.NoError(t, err)
	assert.Equal(t, "hello!", string(m.Bytes()))

	_, err = m.Seek(8, io.SeekStart)
	require.NoError(t, err)
	_, err = m.Write([]byte("x"))
	require.NoError(t, err)
	assert.Equal(t, "hello!\x00\x00x", string(m.Bytes()))
	size, err := m.Size()
	require.NoError(t, err)
	assert.EqualValues(t, 9, size)
}

func TestParseURI(t *testing.T) {
	u, err := ParseURI("s3://bucket/path/file.parquet")
	require.NoError(t, err)
	assert.True(t, u.HasScheme(S3Scheme))
	assert.Equal(t, "s3://bucket/path/file.parquet", u.String())

	u, err = ParseURI("relative/file.parquet")
	require.NoError(t, err)
	assert.True(t, u.HasScheme(FileScheme))
	abs, err := filepath.Abs("relative/file.parquet")
	require.NoError(t, err)
	assert.Equal(t, abs, u.Filepath())

	u, err = ParseURI("")
	require.NoError(t, err)
	assert.True(t, u.IsZero())
}

func TestFileSystem(t *testing.T) {
	ctx := context.Background()
	engine := NewLocalEngine()
	dir := t.TempDir()
	u := MustParseURI(filepath.Join(dir, "sub", "data.parquet"))

	ok, err := engine.Exists(ctx, u)
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = engine.Get(ctx, u)
	assert.ErrorIs(t, err, ErrNotFound)

	w, err := engine.Put(ctx, u)
	require.NoError(t, err)
	_, err = w.Write([]byte("abc"))
	require.NoError(t, err)
	ok, err = engine.Exists(ctx, u)
	require.NoError(t, err)
	assert.False(t, ok, "file is visible before Close")
	require.NoError(t, w.Close())

	s, err := Open(ctx, engine, u)
	require.NoError(t, err)
	b, err := io.ReadAll(s)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(b))
	require.NoError(t, s.Close())

	w, err = engine.Put(ctx, u)
	require.NoError(t, err)
	_, err = w.Write([]byte("partial"))
	require.NoError(t, err)
	Abort(w)
	size, err := engine.Size(ctx, u)
	require.NoError(t, err)
	assert.EqualValues(t, 3, size)
	entries, err := os.ReadDir(filepath.Join(dir, "sub"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	require.NoError(t, engine.Delete(ctx, u))
	ok, err = engine.Exists(ctx, u)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRouterUnknownScheme(t *testing.T) {
	router := NewRouter()
	router.Enable(FileScheme)
	_, err := router.Get(context.Background(), MustParseURI("s3://bucket/key"))
	assert.ErrorIs(t, err, ErrNotSupported)
}
