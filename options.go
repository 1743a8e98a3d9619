package parq

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/units"
	"github.com/apache/arrow/go/v11/parquet"
	"github.com/apache/arrow/go/v11/parquet/compress"
	"github.com/brimdata/parq/zio/parquetio"
	"gopkg.in/yaml.v3"
)

type Compression string

const (
	Uncompressed Compression = "uncompressed"
	Snappy       Compression = "snappy"
	Gzip         Compression = "gzip"
	Brotli       Compression = "brotli"
	Zstd         Compression = "zstd"
)

// DefaultCompression is used when Options.Compression is empty.
const DefaultCompression = Snappy

type codecInfo struct {
	codec    compress.Compression
	minLevel int
	maxLevel int
}

var codecs = map[Compression]codecInfo{
	Uncompressed: {codec: compress.Codecs.Uncompressed},
	Snappy:       {codec: compress.Codecs.Snappy},
	Gzip:         {codec: compress.Codecs.Gzip, minLevel: 1, maxLevel: 9},
	Brotli:       {codec: compress.Codecs.Brotli, minLevel: 0, maxLevel: 11},
	Zstd:         {codec: compress.Codecs.Zstd, minLevel: 1, maxLevel: 22},
}

type PageVersion string

const (
	PageV1 PageVersion = "v1"
	PageV2 PageVersion = "v2"
)

// Options control how records are written. The zero value writes a single
// snappy-compressed row group.
type Options struct {
	Compression Compression `yaml:"compression"`
	// CompressionLevel of zero selects the codec's default level.
	CompressionLevel int `yaml:"compression_level"`
	// RowGroupSize is the maximum number of records per row group. When
	// unset, each call writes its records as a single row group.
	RowGroupSize *int `yaml:"row_group_size"`
	Append       bool `yaml:"append"`
	// PageSize is a byte size such as "1MiB" or "512KB".
	PageSize    string      `yaml:"page_size"`
	PageVersion PageVersion `yaml:"page_version"`
	CreatedBy   string      `yaml:"created_by"`
}

func (o *Options) Validate() error {
	c := o.compression()
	info, ok := codecs[c]
	if !ok {
		return &InvalidOptionError{Name: "compression", Value: o.Compression, Reason: "unknown codec"}
	}
	if o.CompressionLevel != 0 && (info.maxLevel == 0 || o.CompressionLevel < info.minLevel || o.CompressionLevel > info.maxLevel) {
		reason := fmt.Sprintf("%s supports levels %d to %d", c, info.minLevel, info.maxLevel)
		if info.maxLevel == 0 {
			reason = fmt.Sprintf("%s has no compression levels", c)
		}
		return &InvalidOptionError{Name: "compression_level", Value: o.CompressionLevel, Reason: reason}
	}
	if o.RowGroupSize != nil && *o.RowGroupSize < 1 {
		return &InvalidOptionError{Name: "row_group_size", Value: *o.RowGroupSize, Reason: "must be positive"}
	}
	if _, err := o.pageSize(); err != nil {
		return err
	}
	switch o.PageVersion {
	case "", PageV1, PageV2:
	default:
		return &InvalidOptionError{Name: "page_version", Value: o.PageVersion, Reason: "must be v1 or v2"}
	}
	return nil
}

func (o *Options) compression() Compression {
	if o.Compression == "" {
		return DefaultCompression
	}
	return o.Compression
}

func (o *Options) pageSize() (int64, error) {
	if o.PageSize == "" {
		return 0, nil
	}
	n, err := units.ParseBase2Bytes(o.PageSize)
	if err != nil {
		return 0, &InvalidOptionError{Name: "page_size", Value: o.PageSize, Reason: err.Error()}
	}
	if n <= 0 {
		return 0, &InvalidOptionError{Name: "page_size", Value: o.PageSize, Reason: "must be positive"}
	}
	return int64(n), nil
}

// rowGroupSize returns the number of records per row group for a batch
// of n records.
func (o *Options) rowGroupSize(n int) int {
	if o.RowGroupSize == nil {
		return n
	}
	return *o.RowGroupSize
}

// writerOptions assumes o has been validated.
func (o *Options) writerOptions() parquetio.WriterOptions {
	pageSize, _ := o.pageSize()
	version := parquet.DataPageV1
	if o.PageVersion == PageV2 {
		version = parquet.DataPageV2
	}
	return parquetio.WriterOptions{
		Compression:      codecs[o.compression()].codec,
		CompressionLevel: o.CompressionLevel,
		PageSize:         pageSize,
		PageVersion:      version,
		CreatedBy:        o.CreatedBy,
	}
}

// ParseOptions decodes and validates YAML options. Unknown keys are errors.
func ParseOptions(b []byte) (*Options, error) {
	var o Options
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&o); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return &o, nil
}

func LoadOptions(path string) (*Options, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	o, err := ParseOptions(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return o, nil
}
