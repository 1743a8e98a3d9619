package parquetio

import (
	"errors"
	"fmt"

	"github.com/apache/arrow/go/v11/parquet"
	"github.com/apache/arrow/go/v11/parquet/compress"
	"github.com/apache/arrow/go/v11/parquet/file"
	"github.com/brimdata/parq/dremel"
	"github.com/brimdata/parq/schema"
)

var ErrInvalidFile = errors.New("not a valid parquet file")

// Reader reads shredded row groups from a Parquet file.
type Reader struct {
	fr     *file.Reader
	schema *schema.Schema
}

// NewReader parses the footer of r. The Reader does not close r.
func NewReader(r parquet.ReaderAtSeeker) (*Reader, error) {
	fr, err := file.NewParquetReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFile, err)
	}
	s, err := fromArrowSchema(fr.MetaData().Schema)
	if err != nil {
		return nil, err
	}
	return &Reader{fr: fr, schema: s}, nil
}

// Schema returns the schema stored in the file. It has no Go types.
func (r *Reader) Schema() *schema.Schema {
	return r.schema
}

func (r *Reader) NumRowGroups() int {
	return r.fr.NumRowGroups()
}

func (r *Reader) NumRows() int64 {
	return r.fr.NumRows()
}

// RowGroupRows returns the number of rows in row group i.
func (r *Reader) RowGroupRows(i int) (int64, error) {
	if i < 0 || i >= r.NumRowGroups() {
		return 0, fmt.Errorf("no row group %d in file with %d row groups", i, r.NumRowGroups())
	}
	return r.fr.RowGroup(i).NumRows(), nil
}

func (r *Reader) CreatedBy() string {
	return r.fr.MetaData().GetCreatedBy()
}

// ChunkInfo describes one column chunk of a row group.
type ChunkInfo struct {
	Path             string
	Type             parquet.Type
	Codec            compress.Compression
	NumValues        int64
	CompressedSize   int64
	UncompressedSize int64
}

// ColumnChunks returns the metadata of the column chunks of row group i.
func (r *Reader) ColumnChunks(i int) ([]ChunkInfo, error) {
	if i < 0 || i >= r.NumRowGroups() {
		return nil, fmt.Errorf("no row group %d in file with %d row groups", i, r.NumRowGroups())
	}
	md := r.fr.RowGroup(i).MetaData()
	leaves := r.schema.Leaves()
	var chunks []ChunkInfo
	for k := 0; k < md.NumColumns(); k++ {
		cc, err := md.ColumnChunk(k)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, ChunkInfo{
			Path:             leaves[k].Path,
			Type:             cc.Type(),
			Codec:            cc.Compression(),
			NumValues:        cc.NumValues(),
			CompressedSize:   cc.TotalCompressedSize(),
			UncompressedSize: cc.TotalUncompressedSize(),
		})
	}
	return chunks, nil
}

// ReadRowGroup returns the number of rows in row group i and its columns in
// leaf order. Byte values are copied out of the page buffers.
func (r *Reader) ReadRowGroup(i int) (int, []*dremel.Column, error) {
	if i < 0 || i >= r.NumRowGroups() {
		return 0, nil, fmt.Errorf("no row group %d in file with %d row groups", i, r.NumRowGroups())
	}
	rgr := r.fr.RowGroup(i)
	var cols []*dremel.Column
	for k, leaf := range r.schema.Leaves() {
		col, err := r.readColumn(rgr, k, leaf)
		if err != nil {
			return 0, nil, fmt.Errorf("row group %d: column %q: %w", i, leaf.Path, err)
		}
		cols = append(cols, col)
	}
	return int(rgr.NumRows()), cols, nil
}

func (r *Reader) readColumn(rgr *file.RowGroupReader, k int, leaf *schema.Leaf) (*dremel.Column, error) {
	md, err := rgr.MetaData().ColumnChunk(k)
	if err != nil {
		return nil, err
	}
	n := md.NumValues()
	cr, err := rgr.Column(k)
	if err != nil {
		return nil, err
	}
	col := dremel.NewColumn(leaf, int(n))
	var def, rep []int16
	if col.DefLevels != nil {
		def = make([]int16, n)
	}
	if col.RepLevels != nil {
		rep = make([]int16, n)
	}
	vals := &col.Values
	switch leaf.Field.Type.Physical {
	case schema.Boolean:
		vals.Bools, err = readChunk[bool](cr, n, def, rep)
	case schema.Int32:
		vals.Int32s, err = readChunk[int32](cr, n, def, rep)
	case schema.Int64:
		vals.Int64s, err = readChunk[int64](cr, n, def, rep)
	case schema.Float:
		vals.Floats, err = readChunk[float32](cr, n, def, rep)
	case schema.Double:
		vals.Doubles, err = readChunk[float64](cr, n, def, rep)
	case schema.ByteArray:
		var out []parquet.ByteArray
		out, err = readChunk[parquet.ByteArray](cr, n, def, rep)
		vals.Bytes = copyBytes(out)
	case schema.FixedLenByteArray:
		var out []parquet.FixedLenByteArray
		out, err = readChunk[parquet.FixedLenByteArray](cr, n, def, rep)
		vals.Bytes = copyBytes(out)
	}
	if err != nil {
		return nil, err
	}
	col.DefLevels = def
	col.RepLevels = rep
	return col, nil
}

func copyBytes[T ~[]byte](in []T) [][]byte {
	out := make([][]byte, len(in))
	for i, b := range in {
		out[i] = append([]byte{}, b...)
	}
	return out
}

type batchReader[T any] interface {
	HasNext() bool
	ReadBatch(batchSize int64, values []T, defLvls []int16, repLvls []int16) (int64, int, error)
}

// readChunk reads the n level entries of a column chunk and returns the
// non-null values.
func readChunk[T any](cr file.ColumnChunkReader, n int64, def, rep []int16) ([]T, error) {
	br, ok := cr.(batchReader[T])
	if !ok {
		return nil, fmt.Errorf("unexpected column reader %T", cr)
	}
	values := make([]T, n)
	var levels int64
	var nvals int
	for levels < n && br.HasNext() {
		var d, r []int16
		if def != nil {
			d = def[levels:]
		}
		if rep != nil {
			r = rep[levels:]
		}
		total, read, err := br.ReadBatch(n-levels, values[nvals:], d, r)
		if err != nil {
			return nil, err
		}
		if total == 0 {
			break
		}
		levels += total
		nvals += read
	}
	if levels != n {
		return nil, fmt.Errorf("read %d of %d values", levels, n)
	}
	return values[:nvals:nvals], nil
}
