package parq

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow/go/v11/parquet"
	"github.com/apache/arrow/go/v11/parquet/compress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptions(t *testing.T) {
	const config = `
compression: gzip
compression_level: 6
row_group_size: 5000
page_size: 512KB
page_version: v2
`
	o, err := ParseOptions([]byte(config))
	require.NoError(t, err)
	assert.Equal(t, Gzip, o.Compression)
	require.NotNil(t, o.RowGroupSize)
	assert.Equal(t, 5000, *o.RowGroupSize)

	w := o.writerOptions()
	assert.Equal(t, compress.Codecs.Gzip, w.Compression)
	assert.Equal(t, 6, w.CompressionLevel)
	assert.EqualValues(t, 512*1024, w.PageSize)
	assert.Equal(t, parquet.DataPageV2, w.PageVersion)
}

func TestParseOptionsDefaults(t *testing.T) {
	o, err := ParseOptions(nil)
	require.NoError(t, err)
	assert.Nil(t, o.RowGroupSize)
	w := o.writerOptions()
	assert.Equal(t, compress.Codecs.Snappy, w.Compression)
	assert.Zero(t, w.PageSize)
	assert.Equal(t, parquet.DataPageV1, w.PageVersion)
}

func TestParseOptionsUnknownKey(t *testing.T) {
	_, err := ParseOptions([]byte("compresion: gzip\n"))
	assert.Error(t, err)
}

func TestLoadOptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parq.yaml")
	require.NoError(t, os.WriteFile(path, []byte("row_group_size: 0\n"), 0644))
	_, err := LoadOptions(path)
	var optErr *InvalidOptionError
	require.ErrorAs(t, err, &optErr)
	assert.Equal(t, "row_group_size", optErr.Name)
	assert.Contains(t, err.Error(), path)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		opts Options
		name string
	}{
		{Options{Compression: "lzo"}, "compression"},
		{Options{Compression: Gzip, CompressionLevel: 10}, "compression_level"},
		{Options{Compression: Zstd, CompressionLevel: 23}, "compression_level"},
		{Options{Compression: Brotli, CompressionLevel: -1}, "compression_level"},
		{Options{CompressionLevel: 1}, "compression_level"},
		{Options{Compression: Uncompressed, CompressionLevel: 3}, "compression_level"},
		{Options{RowGroupSize: intp(-1)}, "row_group_size"},
		{Options{PageSize: "lots"}, "page_size"},
		{Options{PageSize: "0B"}, "page_size"},
		{Options{PageVersion: "v3"}, "page_version"},
	}
	for _, c := range cases {
		err := c.opts.Validate()
		var optErr *InvalidOptionError
		if assert.ErrorAs(t, err, &optErr, "%+v", c.opts) {
			assert.Equal(t, c.name, optErr.Name)
		}
	}
	for _, o := range []Options{
		{},
		{Compression: Brotli, CompressionLevel: 11},
		{Compression: Zstd, CompressionLevel: 22},
		{Compression: Gzip, CompressionLevel: 1},
		{RowGroupSize: intp(1), PageSize: "1MiB", PageVersion: PageV1},
	} {
		assert.NoError(t, o.Validate(), "%+v", o)
	}
}
