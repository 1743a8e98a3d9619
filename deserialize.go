package parq

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/apache/arrow/go/v11/parquet"
	"github.com/brimdata/parq/zio/parquetio"
	"go.uber.org/zap"
)

// Deserialize reads every record of the Parquet file in src into out, which
// must be a pointer to a slice of structs or of pointers to structs. The
// records of all row groups are appended in file order to a new slice that
// replaces *out. A row group that fails to assemble leaves *out unchanged.
func (s *Serializer) Deserialize(ctx context.Context, src parquet.ReaderAtSeeker, out interface{}) error {
	pv := reflect.ValueOf(out)
	if pv.Kind() != reflect.Ptr || pv.IsNil() {
		return fmt.Errorf("output must be a non-nil pointer to a slice, not %T", out)
	}
	slice := pv.Elem()
	typ, err := recordType(slice.Type())
	if err != nil {
		return err
	}
	asm, err := s.registry.Assembler(typ)
	if err != nil {
		return err
	}
	r, err := parquetio.NewReader(src)
	if err != nil {
		return err
	}
	if err := asm.Schema().Compatible(r.Schema()); err != nil {
		return err
	}
	result := reflect.MakeSlice(slice.Type(), 0, int(r.NumRows()))
	for i := 0; i < r.NumRowGroups(); i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := time.Now()
		rows, cols, err := r.ReadRowGroup(i)
		if err != nil {
			return err
		}
		g := asm.NewRowGroup(rows)
		for k, col := range cols {
			if err := g.AssembleField(k, col); err != nil {
				return err
			}
		}
		batch := reflect.MakeSlice(slice.Type(), rows, rows)
		if err := g.Bind(batch); err != nil {
			return err
		}
		result = reflect.AppendSlice(result, batch)
		s.logger.Debug("Row group read",
			zap.Int("rowgroup", i),
			zap.Int("rows", rows),
			zap.Int("columns", len(cols)),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
	slice.Set(result)
	return nil
}
