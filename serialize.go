package parq

import (
	"context"
	"errors"
	"io"
	"reflect"
	"time"

	"github.com/brimdata/parq/dremel"
	"github.com/brimdata/parq/schema"
	"github.com/brimdata/parq/zio/parquetio"
	"go.uber.org/zap"
)

// Serialize writes records, a slice of structs or pointers to structs, to
// dst as a new Parquet file and returns the file's schema. With
// opts.Append set, dst must implement AppendTarget and the records are
// added to the file it holds. A nil opts uses the defaults.
func (s *Serializer) Serialize(ctx context.Context, dst io.Writer, records interface{}, opts *Options) (*schema.Schema, error) {
	if opts == nil {
		opts = &Options{}
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Append {
		target, ok := dst.(AppendTarget)
		if !ok {
			return nil, &AppendTargetError{Err: errors.New("destination cannot be read and truncated")}
		}
		return s.Append(ctx, target, records, opts)
	}
	v, st, err := s.striper(records)
	if err != nil {
		return nil, err
	}
	w, err := parquetio.NewWriter(dst, st.Schema(), opts.writerOptions())
	if err != nil {
		return nil, err
	}
	if err := s.writeRecords(ctx, w, st, v, opts); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return st.Schema(), nil
}

func (s *Serializer) striper(records interface{}) (reflect.Value, *dremel.Striper, error) {
	v := reflect.ValueOf(records)
	if !v.IsValid() {
		return v, nil, errors.New("records must be a slice of structs, not nil")
	}
	typ, err := recordType(v.Type())
	if err != nil {
		return v, nil, err
	}
	st, err := s.registry.Striper(typ)
	return v, st, err
}

// writeRecords stripes and writes records in row groups of at most
// opts.RowGroupSize records.
func (s *Serializer) writeRecords(ctx context.Context, w *parquetio.Writer, st *dremel.Striper, records reflect.Value, opts *Options) error {
	return s.stripeRecords(ctx, st, records, opts, func(cols []*dremel.Column, rows int, elapsed time.Duration) error {
		start := time.Now()
		if err := w.WriteRowGroup(cols); err != nil {
			return err
		}
		s.logRowGroup(w, rows, len(cols), elapsed+time.Since(start))
		return nil
	})
}

// stripeRecords divides records into row groups of at most
// opts.RowGroupSize records and calls fn with the columns of each.
func (s *Serializer) stripeRecords(ctx context.Context, st *dremel.Striper, records reflect.Value, opts *Options, fn func([]*dremel.Column, int, time.Duration) error) error {
	n := records.Len()
	size := opts.rowGroupSize(n)
	for lo := 0; lo < n; lo += size {
		if err := ctx.Err(); err != nil {
			return err
		}
		hi := lo + size
		if hi > n {
			hi = n
		}
		start := time.Now()
		cols, err := st.Stripe(ctx, records.Slice(lo, hi))
		if err != nil {
			return err
		}
		if err := fn(cols, hi-lo, time.Since(start)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Serializer) logRowGroup(w *parquetio.Writer, rows, ncols int, elapsed time.Duration) {
	s.logger.Debug("Row group written",
		zap.Int("rowgroup", w.NumRowGroups()-1),
		zap.Int("rows", rows),
		zap.Int("columns", ncols),
		zap.Duration("elapsed", elapsed),
	)
}
