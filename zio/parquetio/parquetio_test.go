package parquetio

import (
	"bytes"
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/apache/arrow/go/v11/parquet"
	"github.com/apache/arrow/go/v11/parquet/compress"
	"github.com/brimdata/parq/dremel"
	"github.com/brimdata/parq/schema"
	goparquet "github.com/fraugster/parquet-go"
	"github.com/fraugster/parquet-go/parquetschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Sku   string
	Count *int32
}

type order struct {
	ID      int64
	Note    *string
	Items   []item
	Labels  map[string]string
	Digest  [4]byte
	Payload []byte
	Weight  float32
	Total   float64
	Paid    bool
}

func orders() []order {
	note := "rush"
	two := int32(2)
	return []order{
		{
			ID:      1,
			Note:    &note,
			Items:   []item{{Sku: "a", Count: &two}, {Sku: "b"}},
			Labels:  map[string]string{"k": "v"},
			Digest:  [4]byte{1, 2, 3, 4},
			Payload: []byte("xyz"),
			Weight:  1.5,
			Total:   10.25,
			Paid:    true,
		},
		{ID: 2, Items: []item{}},
		{ID: 3, Labels: map[string]string{}},
	}
}

func stripeOrders(t *testing.T, records []order) (*schema.Schema, []*dremel.Column) {
	s, err := schema.Derive(reflect.TypeOf(order{}), true)
	require.NoError(t, err)
	st, err := dremel.NewStriper(s)
	require.NoError(t, err)
	cols, err := st.Stripe(context.Background(), reflect.ValueOf(records))
	require.NoError(t, err)
	return s, cols
}

func writeFile(t *testing.T, s *schema.Schema, opts WriterOptions, groups ...[]*dremel.Column) []byte {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, s, opts)
	require.NoError(t, err)
	for _, cols := range groups {
		require.NoError(t, w.WriteRowGroup(cols))
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestWriteReadColumns(t *testing.T) {
	s, cols := stripeOrders(t, orders())
	b := writeFile(t, s, WriterOptions{Compression: compress.Codecs.Snappy}, cols, cols)

	r, err := NewReader(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, 2, r.NumRowGroups())
	assert.EqualValues(t, 6, r.NumRows())
	require.NoError(t, s.Compatible(r.Schema()))

	for g := 0; g < r.NumRowGroups(); g++ {
		rows, got, err := r.ReadRowGroup(g)
		require.NoError(t, err)
		assert.Equal(t, 3, rows)
		require.Len(t, got, len(cols))
		for i := range cols {
			require.NoError(t, got[i].Validate())
			assert.Equal(t, cols[i].Path, got[i].Path)
			assert.Equal(t, cols[i].DefLevels, got[i].DefLevels, cols[i].Path)
			assert.Equal(t, cols[i].RepLevels, got[i].RepLevels, cols[i].Path)
			assert.Equal(t, cols[i].Values.Len(), got[i].Values.Len(), cols[i].Path)
			for k := 0; k < cols[i].Values.Len(); k++ {
				assert.Equal(t, cols[i].Values.Format(k), got[i].Values.Format(k), cols[i].Path)
			}
		}
	}
}

func TestFileSchema(t *testing.T) {
	s, cols := stripeOrders(t, orders())
	b := writeFile(t, s, WriterOptions{}, cols)
	r, err := NewReader(bytes.NewReader(b))
	require.NoError(t, err)
	fs := r.Schema()
	assert.Nil(t, fs.GoType())
	assert.Equal(t, s.String(), fs.String())
	items := fs.Root.Child("Items")
	require.NotNil(t, items)
	assert.Equal(t, schema.List, items.Kind)
	labels := fs.Root.Child("Labels")
	require.NotNil(t, labels)
	assert.Equal(t, schema.Map, labels.Kind)
}

func TestFileSchemaLogicalTypes(t *testing.T) {
	type record struct {
		I8  int8
		U16 uint16
		U64 uint64
		T   time.Time
		S   *string
		B   []byte
	}
	s, err := schema.Derive(reflect.TypeOf(record{}), true)
	require.NoError(t, err)
	r, err := NewReader(bytes.NewReader(writeFile(t, s, WriterOptions{})))
	require.NoError(t, err)
	leaves := r.Schema().Leaves()
	require.Len(t, leaves, 6)
	for i, l := range s.Leaves() {
		assert.Equal(t, l.Field.Type, leaves[i].Field.Type, l.Path)
	}
	assert.Equal(t, schema.Integer, leaves[2].Field.Type.Logical)
	assert.False(t, leaves[2].Field.Type.Signed)
	assert.Equal(t, schema.Nanos, leaves[3].Field.Type.Unit)
}

func TestCodecs(t *testing.T) {
	s, cols := stripeOrders(t, orders())
	for _, codec := range []compress.Compression{
		compress.Codecs.Uncompressed,
		compress.Codecs.Snappy,
		compress.Codecs.Gzip,
		compress.Codecs.Brotli,
		compress.Codecs.Zstd,
	} {
		codec := codec
		t.Run(codec.String(), func(t *testing.T) {
			b := writeFile(t, s, WriterOptions{Compression: codec, PageVersion: parquet.DataPageV2}, cols)
			r, err := NewReader(bytes.NewReader(b))
			require.NoError(t, err)
			chunks, err := r.ColumnChunks(0)
			require.NoError(t, err)
			require.Len(t, chunks, s.NumColumns())
			for _, c := range chunks {
				assert.Equal(t, codec, c.Codec)
			}
			_, got, err := r.ReadRowGroup(0)
			require.NoError(t, err)
			assert.Equal(t, cols[0].Values.Int64s, got[0].Values.Int64s)
		})
	}
}

func TestEmptyFile(t *testing.T) {
	s, _ := stripeOrders(t, nil)
	b := writeFile(t, s, WriterOptions{})
	r, err := NewReader(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, 0, r.NumRowGroups())
	assert.EqualValues(t, 0, r.NumRows())
	_, _, err = r.ReadRowGroup(0)
	assert.Error(t, err)
}

func TestInvalidFile(t *testing.T) {
	_, err := NewReader(bytes.NewReader([]byte("this is not a parquet file at all")))
	assert.ErrorIs(t, err, ErrInvalidFile)
}

func TestWrongColumnCount(t *testing.T) {
	s, cols := stripeOrders(t, orders())
	var buf bytes.Buffer
	w, err := NewWriter(&buf, s, WriterOptions{})
	require.NoError(t, err)
	assert.Error(t, w.WriteRowGroup(cols[:1]))
}

type flat struct {
	ID   int64  `parquet:"id"`
	Name string `parquet:"name"`
}

// Files are readable by an independent implementation.
func TestInteropFraugster(t *testing.T) {
	records := []flat{{1, "one"}, {2, "two"}, {3, "three"}}
	s, err := schema.Derive(reflect.TypeOf(flat{}), false)
	require.NoError(t, err)
	st, err := dremel.NewStriper(s)
	require.NoError(t, err)
	cols, err := st.Stripe(context.Background(), reflect.ValueOf(records))
	require.NoError(t, err)
	b := writeFile(t, s, WriterOptions{Compression: compress.Codecs.Snappy}, cols)

	fr, err := goparquet.NewFileReader(bytes.NewReader(b))
	require.NoError(t, err)
	fs, err := FromSchemaDefinition(fr.GetSchemaDefinition())
	require.NoError(t, err)
	require.NoError(t, s.Compatible(fs))
	for _, rec := range records {
		row, err := fr.NextRow()
		require.NoError(t, err)
		assert.Equal(t, rec.ID, row["id"])
		assert.Equal(t, []byte(rec.Name), row["name"])
	}
}

func TestSchemaDefinition(t *testing.T) {
	type rec struct {
		A int64
		B *int32
		C []string
		D uint16
	}
	s, err := schema.Derive(reflect.TypeOf(rec{}), false)
	require.NoError(t, err)
	sd, err := NewSchemaDefinition(s)
	require.NoError(t, err)
	text := sd.String()
	assert.Contains(t, text, "message schema")

	parsed, err := parquetschema.ParseSchemaDefinition(text)
	require.NoError(t, err)
	back, err := FromSchemaDefinition(parsed)
	require.NoError(t, err)
	assert.NoError(t, s.Compatible(back))
	assert.Equal(t, 16, back.Leaf("D").Type().BitWidth)
	assert.False(t, back.Leaf("D").Type().Signed)
}
