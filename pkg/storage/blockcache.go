package storage

import (
	"errors"
	"io"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const DefaultBlockSize = 1024 * 1024

// CacheMetrics counts block cache lookups. A single CacheMetrics may be
// shared by any number of cached readers.
type CacheMetrics struct {
	hits   prometheus.Counter
	misses prometheus.Counter
}

func NewCacheMetrics(registerer prometheus.Registerer) *CacheMetrics {
	if registerer == nil {
		registerer = prometheus.NewRegistry()
	}
	factory := promauto.With(registerer)
	return &CacheMetrics{
		hits: factory.NewCounter(prometheus.CounterOpts{
			Name: "parq_block_cache_hits_total",
			Help: "Number of reads served from the block cache.",
		}),
		misses: factory.NewCounter(prometheus.CounterOpts{
			Name: "parq_block_cache_misses_total",
			Help: "Number of block cache misses that read from the underlying object.",
		}),
	}
}

// CachedReader serves ReadAt from an LRU cache of fixed-size blocks of an
// immutable object. Each miss reads one whole block from the underlying
// Reader.
type CachedReader struct {
	Reader
	size      int64
	blockSize int64
	blocks    *lru.Cache[int64, []byte]
	metrics   *CacheMetrics
}

var _ Reader = (*CachedReader)(nil)
var _ Sizer = (*CachedReader)(nil)

// NewCachedReader wraps r, which must implement Sizer, with a cache holding
// up to nblocks blocks of blockSize bytes. metrics may be nil.
func NewCachedReader(r Reader, blockSize, nblocks int, metrics *CacheMetrics) (*CachedReader, error) {
	if blockSize <= 0 {
		return nil, errors.New("block size must be positive")
	}
	size, err := Size(r)
	if err != nil {
		return nil, err
	}
	blocks, err := lru.New[int64, []byte](nblocks)
	if err != nil {
		return nil, err
	}
	if metrics == nil {
		metrics = NewCacheMetrics(nil)
	}
	return &CachedReader{
		Reader:    r,
		size:      size,
		blockSize: int64(blockSize),
		blocks:    blocks,
		metrics:   metrics,
	}, nil
}

func (c *CachedReader) Size() (int64, error) {
	return c.size, nil
}

func (c *CachedReader) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.New("storage.CachedReader.ReadAt: negative offset")
	}
	var n int
	for n < len(p) {
		if off >= c.size {
			return n, io.EOF
		}
		block, err := c.block(off / c.blockSize)
		if err != nil {
			return n, err
		}
		m := copy(p[n:], block[off%c.blockSize:])
		n += m
		off += int64(m)
	}
	return n, nil
}

func (c *CachedReader) block(k int64) ([]byte, error) {
	if b, ok := c.blocks.Get(k); ok {
		c.metrics.hits.Inc()
		return b, nil
	}
	c.metrics.misses.Inc()
	off := k * c.blockSize
	n := c.blockSize
	if off+n > c.size {
		n = c.size - off
	}
	b := make([]byte, n)
	if _, err := c.Reader.ReadAt(b, off); err != nil && !(err == io.EOF && off+n == c.size) {
		return nil, err
	}
	c.blocks.Add(k, b)
	return b, nil
}
