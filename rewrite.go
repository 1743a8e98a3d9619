package parq

import (
	"context"
	"io"

	"github.com/apache/arrow/go/v11/parquet"
	"github.com/brimdata/parq/dremel"
	"github.com/brimdata/parq/schema"
	"github.com/brimdata/parq/zio/parquetio"
	"go.uber.org/zap"
)

// Rewrite copies the Parquet file in src to dst with the compression and
// page options of opts, without decoding records. If opts.RowGroupSize is
// set, records are regrouped into row groups of that size. Otherwise the
// row group boundaries of src are kept. opts.Append is ignored.
func (s *Serializer) Rewrite(ctx context.Context, src parquet.ReaderAtSeeker, dst io.Writer, opts *Options) (*schema.Schema, error) {
	if opts == nil {
		opts = &Options{}
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	r, err := parquetio.NewReader(src)
	if err != nil {
		return nil, err
	}
	sch := r.Schema()
	w, err := parquetio.NewWriter(dst, sch, opts.writerOptions())
	if err != nil {
		return nil, err
	}
	rg := &regrouper{w: w}
	if opts.RowGroupSize != nil {
		rg.size = *opts.RowGroupSize
	}
	for i := 0; i < r.NumRowGroups(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, cols, err := r.ReadRowGroup(i)
		if err != nil {
			return nil, err
		}
		if err := rg.add(rows, cols); err != nil {
			return nil, err
		}
	}
	if err := rg.flush(); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	s.logger.Info("File rewritten",
		zap.Int("source_rowgroups", r.NumRowGroups()),
		zap.Int("rowgroups", w.NumRowGroups()),
		zap.Int64("rows", r.NumRows()),
	)
	return sch, nil
}

// regrouper buffers columns until it holds a full row group. A size of
// zero passes row groups through.
type regrouper struct {
	w       *parquetio.Writer
	size    int
	pending []*dremel.Column
	rows    int
}

func (r *regrouper) add(rows int, cols []*dremel.Column) error {
	if rows == 0 {
		return nil
	}
	if r.size == 0 {
		return r.w.WriteRowGroup(cols)
	}
	if r.pending == nil {
		r.pending = cols
	} else {
		for k := range cols {
			c, err := dremel.Concat(r.pending[k], cols[k])
			if err != nil {
				return err
			}
			r.pending[k] = c
		}
	}
	r.rows += rows
	for r.rows >= r.size {
		head := make([]*dremel.Column, len(r.pending))
		for k, c := range r.pending {
			head[k], r.pending[k] = c.Split(r.size)
		}
		if err := r.w.WriteRowGroup(head); err != nil {
			return err
		}
		r.rows -= r.size
	}
	return nil
}

func (r *regrouper) flush() error {
	if r.rows == 0 {
		return nil
	}
	r.rows = 0
	return r.w.WriteRowGroup(r.pending)
}
