package parquetio

import (
	"fmt"
	"io"

	"github.com/apache/arrow/go/v11/parquet"
	"github.com/apache/arrow/go/v11/parquet/compress"
	"github.com/apache/arrow/go/v11/parquet/file"
	"github.com/brimdata/parq/dremel"
	"github.com/brimdata/parq/schema"
)

const DefaultCreatedBy = "parq"

type WriterOptions struct {
	Compression compress.Compression
	// CompressionLevel of zero selects the codec's default.
	CompressionLevel int
	// PageSize is the target data page size in bytes. Zero selects the
	// container's default.
	PageSize    int64
	PageVersion parquet.DataPageVersion
	CreatedBy   string
}

func (o WriterOptions) properties() *parquet.WriterProperties {
	opts := []parquet.WriterProperty{
		parquet.WithCompression(o.Compression),
		parquet.WithDataPageVersion(o.PageVersion),
	}
	if o.CompressionLevel != 0 {
		opts = append(opts, parquet.WithCompressionLevel(o.CompressionLevel))
	}
	if o.PageSize > 0 {
		opts = append(opts, parquet.WithDataPageSize(o.PageSize))
	}
	createdBy := o.CreatedBy
	if createdBy == "" {
		createdBy = DefaultCreatedBy
	}
	opts = append(opts, parquet.WithCreatedBy(createdBy))
	return parquet.NewWriterProperties(opts...)
}

// Writer writes shredded row groups to a Parquet file.
type Writer struct {
	schema *schema.Schema
	fw     *file.Writer
}

// nopCloser keeps the file writer from closing the caller's destination.
type nopCloser struct {
	io.Writer
}

func NewWriter(w io.Writer, s *schema.Schema, opts WriterOptions) (*Writer, error) {
	root, err := newArrowSchema(s)
	if err != nil {
		return nil, err
	}
	fw := file.NewParquetWriter(nopCloser{w}, root, file.WithWriterProps(opts.properties()))
	return &Writer{schema: s, fw: fw}, nil
}

// WriteRowGroup writes one row group from a column for every leaf, in leaf
// order.
func (w *Writer) WriteRowGroup(cols []*dremel.Column) error {
	if len(cols) != w.schema.NumColumns() {
		return fmt.Errorf("row group has %d columns, schema has %d", len(cols), w.schema.NumColumns())
	}
	rgw := w.fw.AppendRowGroup()
	for _, col := range cols {
		cw, err := rgw.NextColumn()
		if err != nil {
			return err
		}
		if err := writeColumn(cw, col); err != nil {
			cw.Close()
			return fmt.Errorf("column %q: %w", col.Path, err)
		}
		if err := cw.Close(); err != nil {
			return err
		}
	}
	return rgw.Close()
}

func writeColumn(cw file.ColumnChunkWriter, col *dremel.Column) error {
	if col.NumSlots() == 0 {
		return nil
	}
	def, rep, vals := col.DefLevels, col.RepLevels, &col.Values
	var err error
	switch cw := cw.(type) {
	case *file.BooleanColumnChunkWriter:
		_, err = cw.WriteBatch(vals.Bools, def, rep)
	case *file.Int32ColumnChunkWriter:
		_, err = cw.WriteBatch(vals.Int32s, def, rep)
	case *file.Int64ColumnChunkWriter:
		_, err = cw.WriteBatch(vals.Int64s, def, rep)
	case *file.Float32ColumnChunkWriter:
		_, err = cw.WriteBatch(vals.Floats, def, rep)
	case *file.Float64ColumnChunkWriter:
		_, err = cw.WriteBatch(vals.Doubles, def, rep)
	case *file.ByteArrayColumnChunkWriter:
		out := make([]parquet.ByteArray, len(vals.Bytes))
		for i, b := range vals.Bytes {
			out[i] = b
		}
		_, err = cw.WriteBatch(out, def, rep)
	case *file.FixedLenByteArrayColumnChunkWriter:
		out := make([]parquet.FixedLenByteArray, len(vals.Bytes))
		for i, b := range vals.Bytes {
			out[i] = b
		}
		_, err = cw.WriteBatch(out, def, rep)
	default:
		err = fmt.Errorf("unsupported column writer %T", cw)
	}
	return err
}

func (w *Writer) NumRowGroups() int {
	return w.fw.NumRowGroups()
}

// Close writes the footer. It does not close the underlying writer.
func (w *Writer) Close() error {
	return w.fw.Close()
}
