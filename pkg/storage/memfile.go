package storage

import (
	"errors"
	"io"
)

// MemFile is a growable in-memory file. It satisfies the reader and
// append-target interfaces used for Parquet files.
type MemFile struct {
	b   []byte
	off int64
}

var _ Reader = (*MemFile)(nil)
var _ Sizer = (*MemFile)(nil)

func NewMemFile(b []byte) *MemFile {
	return &MemFile{b: b}
}

func (m *MemFile) Bytes() []byte {
	return m.b
}

func (m *MemFile) Size() (int64, error) {
	return int64(len(m.b)), nil
}

func (m *MemFile) Read(p []byte) (int, error) {
	n, err := m.ReadAt(p, m.off)
	m.off += int64(n)
	if err == io.EOF && n > 0 {
		err = nil
	}
	return n, err
}

func (m *MemFile) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.New("storage.MemFile.ReadAt: negative offset")
	}
	if off >= int64(len(m.b)) {
		return 0, io.EOF
	}
	n := copy(p, m.b[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Write writes p at the current offset, growing the file as needed.
func (m *MemFile) Write(p []byte) (int, error) {
	end := m.off + int64(len(p))
	if n := int64(len(m.b)); end > n {
		if end > int64(cap(m.b)) {
			b := make([]byte, end, 2*end)
			copy(b, m.b)
			m.b = b
		} else {
			m.b = m.b[:end]
			// Zero any gap left by seeking past the end.
			for i := n; i < m.off; i++ {
				m.b[i] = 0
			}
		}
	}
	copy(m.b[m.off:], p)
	m.off = end
	return len(p), nil
}

func (m *MemFile) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		offset += m.off
	case io.SeekEnd:
		offset += int64(len(m.b))
	default:
		return 0, errors.New("storage.MemFile.Seek: invalid whence")
	}
	if offset < 0 {
		return 0, errors.New("storage.MemFile.Seek: negative position")
	}
	m.off = offset
	return offset, nil
}

// Truncate changes the size of the file. It does not move the offset.
func (m *MemFile) Truncate(size int64) error {
	if size < 0 {
		return errors.New("storage.MemFile.Truncate: negative size")
	}
	if size <= int64(len(m.b)) {
		m.b = m.b[:size]
		return nil
	}
	m.b = append(m.b, make([]byte, size-int64(len(m.b)))...)
	return nil
}

func (*MemFile) Close() error {
	return nil
}
