package parq

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/brimdata/parq/dremel"
	"github.com/brimdata/parq/schema"
	"github.com/brimdata/parq/zio/parquetio"
	"go.uber.org/zap"
)

// AppendTarget is a destination holding a Parquet file that can be read
// and rewritten in place, such as an *os.File opened for reading and
// writing.
type AppendTarget interface {
	io.ReaderAt
	io.Seeker
	io.Writer
	Truncate(size int64) error
}

// Append adds records to the Parquet file held by dst. The existing row
// groups are rewritten unchanged ahead of the new ones. The record type
// must have the same columns as the file. The new records are striped
// before dst is truncated, so dst is left as it was if the file cannot be
// read, its schema differs, a record cannot be striped or ctx is done.
func (s *Serializer) Append(ctx context.Context, dst AppendTarget, records interface{}, opts *Options) (*schema.Schema, error) {
	if opts == nil {
		opts = &Options{}
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	v, st, err := s.striper(records)
	if err != nil {
		return nil, err
	}
	groups, err := readExisting(dst)
	if err != nil {
		return nil, err
	}
	if err := groups.schema.Compatible(st.Schema()); err != nil {
		return nil, fmt.Errorf("append: %w", err)
	}
	type group struct {
		cols []*dremel.Column
		rows int
		took time.Duration
	}
	var added []group
	err = s.stripeRecords(ctx, st, v, opts, func(cols []*dremel.Column, rows int, elapsed time.Duration) error {
		added = append(added, group{cols, rows, elapsed})
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// Only container I/O can fail from here on.
	if err := dst.Truncate(0); err != nil {
		return nil, &AppendTargetError{Err: err}
	}
	if _, err := dst.Seek(0, io.SeekStart); err != nil {
		return nil, &AppendTargetError{Err: err}
	}
	w, err := parquetio.NewWriter(dst, st.Schema(), opts.writerOptions())
	if err != nil {
		return nil, err
	}
	for _, cols := range groups.cols {
		if err := w.WriteRowGroup(cols); err != nil {
			return nil, err
		}
	}
	for _, g := range added {
		start := time.Now()
		if err := w.WriteRowGroup(g.cols); err != nil {
			return nil, err
		}
		s.logRowGroup(w, g.rows, len(g.cols), g.took+time.Since(start))
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	s.logger.Info("Records appended",
		zap.Int("existing_rowgroups", len(groups.cols)),
		zap.Int64("existing_rows", groups.rows),
		zap.Int("rows", v.Len()),
		zap.Int("rowgroups", w.NumRowGroups()),
	)
	return st.Schema(), nil
}

type existing struct {
	schema *schema.Schema
	cols   [][]*dremel.Column
	rows   int64
}

func readExisting(r AppendTarget) (*existing, error) {
	size, err := r.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, &AppendTargetError{Err: err}
	}
	if size == 0 {
		return nil, &AppendTargetError{Err: errors.New("destination is empty")}
	}
	pr, err := parquetio.NewReader(io.NewSectionReader(r, 0, size))
	if err != nil {
		return nil, &AppendTargetError{Err: err}
	}
	e := &existing{schema: pr.Schema(), rows: pr.NumRows()}
	for i := 0; i < pr.NumRowGroups(); i++ {
		_, cols, err := pr.ReadRowGroup(i)
		if err != nil {
			return nil, &AppendTargetError{Err: err}
		}
		e.cols = append(e.cols, cols)
	}
	return e, nil
}
