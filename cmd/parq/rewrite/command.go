package rewrite

import (
	"errors"
	"flag"

	"github.com/brimdata/parq"
	"github.com/brimdata/parq/cmd/parq/root"
	"github.com/brimdata/parq/pkg/charm"
	"github.com/brimdata/parq/pkg/storage"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var Rewrite = &charm.Spec{
	Name:  "rewrite",
	Usage: "rewrite [options] src dst",
	Short: "recompress and regroup a Parquet file",
	Long: `
The rewrite command copies the Parquet file src to dst, changing its
compression and page options and optionally regrouping its records into
row groups of a fixed size. Records are moved as shredded columns and are
never decoded, so any file whose columns parq can read may be rewritten.

Options may be read from a YAML file given with -config, whose keys are
compression, compression_level, row_group_size, page_size, page_version
and created_by. Flags given on the command line override the file.

The destination is written to a temporary file and renamed into place
when complete.`,
	New: New,
}

func init() {
	root.Parq.Add(Rewrite)
}

type Command struct {
	*root.Command
	flags        *flag.FlagSet
	config       string
	compression  string
	level        int
	rowGroupSize int
	pageSize     string
	pageVersion  string
}

func New(parent charm.Command, f *flag.FlagSet) (charm.Command, error) {
	c := &Command{Command: parent.(*root.Command), flags: f}
	f.StringVar(&c.config, "config", "", "YAML file of writer options")
	f.StringVar(&c.compression, "compression", string(parq.DefaultCompression), "compression codec (uncompressed, snappy, gzip, brotli, zstd)")
	f.IntVar(&c.level, "level", 0, "compression level (0 for the codec's default)")
	f.IntVar(&c.rowGroupSize, "rowgroup", 0, "records per row group (0 keeps the source row groups)")
	f.StringVar(&c.pageSize, "pagesize", "", "target data page size, as '1MiB' or '512KB'")
	f.StringVar(&c.pageVersion, "pagev", "", "data page version (v1 or v2)")
	return c, nil
}

func (c *Command) Run(args []string) error {
	defer c.Cleanup()
	if err := c.Init(); err != nil {
		return err
	}
	if len(args) != 2 {
		return errors.New("parq rewrite: must be run with a source and a destination")
	}
	opts, err := c.options()
	if err != nil {
		return err
	}
	src, err := c.Open(args[0])
	if err != nil {
		return err
	}
	dst, err := c.Create(args[1])
	if err != nil {
		src.Close()
		return err
	}
	s := parq.NewSerializer(parq.WithLogger(c.Logger))
	if _, err := s.Rewrite(c.Ctx, src.Source, dst, opts); err != nil {
		storage.Abort(dst)
		return multierr.Append(err, src.Close())
	}
	if err := multierr.Append(dst.Close(), src.Close()); err != nil {
		return err
	}
	c.Logger.Debug("Rewrite complete", zap.String("src", args[0]), zap.String("dst", args[1]))
	return nil
}

// options loads the -config file, if any, and applies the flags that were
// set explicitly.
func (c *Command) options() (*parq.Options, error) {
	opts := &parq.Options{}
	if c.config != "" {
		var err error
		if opts, err = parq.LoadOptions(c.config); err != nil {
			return nil, err
		}
	}
	set := make(map[string]bool)
	c.flags.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if set["compression"] || opts.Compression == "" {
		opts.Compression = parq.Compression(c.compression)
	}
	if set["level"] {
		opts.CompressionLevel = c.level
	}
	if set["rowgroup"] && c.rowGroupSize != 0 {
		n := c.rowGroupSize
		opts.RowGroupSize = &n
	}
	if set["pagesize"] {
		opts.PageSize = c.pageSize
	}
	if set["pagev"] {
		opts.PageVersion = parq.PageVersion(c.pageVersion)
	}
	return opts, opts.Validate()
}
