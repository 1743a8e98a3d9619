package root

import (
	"context"
	"flag"
	"io"

	"github.com/brimdata/parq/cli"
	"github.com/brimdata/parq/pkg/charm"
	"github.com/brimdata/parq/pkg/storage"
	"github.com/brimdata/parq/zio/parquetio"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"go.uber.org/zap"
)

var Parq = &charm.Spec{
	Name:  "parq",
	Usage: "parq [global options] command [options] [arguments...]",
	Short: "inspect and rewrite Parquet files",
	Long: `
parq looks inside Parquet files written by the parq library or any other
Parquet implementation. It prints file and column chunk metadata, schemas
with their repetition and definition levels, and the shredded columns
themselves, and it can rewrite a file with different compression and row
group sizes.

Paths may be local files or S3 URLs of the form s3://bucket/key.
S3 credentials and region come from the usual AWS environment and
configuration files.`,
	New: New,
}

type Command struct {
	cli.Flags
	Ctx         context.Context
	Logger      *zap.Logger
	Engine      storage.Engine
	cacheBlocks int
	metrics     *prometheus.Registry
	cache       *storage.CacheMetrics
	cleanup     func()
}

func New(parent charm.Command, f *flag.FlagSet) (charm.Command, error) {
	c := &Command{}
	c.SetFlags(f)
	f.IntVar(&c.cacheBlocks, "cache", 64, "number of 1MiB blocks of each S3 object to cache in memory (0 to disable)")
	return c, nil
}

func (c *Command) Init() error {
	ctx, logger, cleanup, err := c.Flags.Init()
	if err != nil {
		return err
	}
	c.Ctx, c.Logger, c.cleanup = ctx, logger, cleanup
	c.Engine = storage.NewLocalEngine()
	c.metrics = prometheus.NewRegistry()
	c.cache = storage.NewCacheMetrics(c.metrics)
	return nil
}

func (c *Command) Cleanup() {
	if c.metrics != nil {
		c.logMetrics()
	}
	if c.cleanup != nil {
		c.cleanup()
	}
}

func (c *Command) logMetrics() {
	families, err := c.metrics.Gather()
	if err != nil {
		c.Logger.Warn("Gathering metrics", zap.Error(err))
		return
	}
	fields := make([]zap.Field, 0, len(families))
	for _, f := range families {
		if f.GetType() != dto.MetricType_COUNTER {
			continue
		}
		var total float64
		for _, m := range f.GetMetric() {
			total += m.GetCounter().GetValue()
		}
		fields = append(fields, zap.Float64(f.GetName(), total))
	}
	c.Logger.Debug("Metrics", fields...)
}

func (c *Command) Run(args []string) error {
	defer c.Cleanup()
	if err := c.Init(); err != nil {
		return err
	}
	return charm.ErrNoRun
}

// File is an open Parquet file.
type File struct {
	*parquetio.Reader
	Source *storage.Seeker
}

func (f *File) Close() error {
	return f.Source.Close()
}

func (c *Command) Open(path string) (*File, error) {
	u, err := storage.ParseURI(path)
	if err != nil {
		return nil, err
	}
	obj, err := c.Engine.Get(c.Ctx, u)
	if err != nil {
		return nil, err
	}
	if storage.Scheme(u.Scheme) == storage.S3Scheme && c.cacheBlocks > 0 {
		cached, err := storage.NewCachedReader(obj, storage.DefaultBlockSize, c.cacheBlocks, c.cache)
		if err != nil {
			obj.Close()
			return nil, err
		}
		obj = cached
	}
	src, err := storage.NewSeeker(obj)
	if err != nil {
		obj.Close()
		return nil, err
	}
	r, err := parquetio.NewReader(src)
	if err != nil {
		src.Close()
		return nil, err
	}
	return &File{Reader: r, Source: src}, nil
}

func (c *Command) Create(path string) (io.WriteCloser, error) {
	u, err := storage.ParseURI(path)
	if err != nil {
		return nil, err
	}
	return c.Engine.Put(c.Ctx, u)
}
