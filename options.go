package facetree

import (
	"log/slog"

	"github.com/hupe1980/facetree/blobstore"
	"github.com/hupe1980/facetree/codec"
	"github.com/hupe1980/facetree/internal/cache"
)

// DefaultCacheSize is the default memory budget of the term result cache.
const DefaultCacheSize = 64 << 20

// Cache is a byte-oriented cache for encoded term results.
type Cache = cache.Cache

// CacheKey identifies one cached term result.
type CacheKey = cache.Key

type options struct {
	codec            codec.Codec
	metricsCollector MetricsCollector
	logger           *Logger
	cache            Cache
	cacheSize        int64
	blobStore        blobstore.Store
	blobCompression  codec.Compression
	concurrency      int64
	rateLimit        float64
}

// Option configures the Engine.
type Option func(*options)

// WithCodec configures the codec of cached term results.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithCache replaces the in-memory term result cache.
// The engine closes it on Close.
func WithCache(c Cache) Option {
	return func(o *options) {
		o.cache = c
	}
}

// WithCacheSize sets the memory budget of the default term result cache.
// A size of zero or less disables the default cache; without a cache the
// blob store is not used either.
func WithCacheSize(bytes int64) Option {
	return func(o *options) {
		o.cacheSize = bytes
	}
}

// WithBlobStore adds a persistent second cache tier.
//
// Example with a local directory:
//
//	store := blobstore.NewLocalStore("./facet-cache")
//	eng, _ := facetree.New(repo, facetree.WithBlobStore(store, codec.CompressionZstd))
func WithBlobStore(s blobstore.Store, c codec.Compression) Option {
	return func(o *options) {
		o.blobStore = s
		o.blobCompression = c
	}
}

// WithConcurrency bounds how many facet terms execute at once.
func WithConcurrency(n int64) Option {
	return func(o *options) {
		o.concurrency = n
	}
}

// WithRateLimit bounds how many facet terms start per second.
// Zero means unlimited.
func WithRateLimit(perSecond float64) Option {
	return func(o *options) {
		o.rateLimit = perSecond
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &facetree.BasicMetricsCollector{}
//	eng, _ := facetree.New(repo, facetree.WithMetricsCollector(metrics))
//	// ... search ...
//	stats := metrics.GetStats()
//	fmt.Printf("Searches: %d, Avg latency: %dns\n", stats.SearchCount, stats.SearchAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := facetree.NewJSONLogger(slog.LevelInfo)
//	eng, _ := facetree.New(repo, facetree.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:            codec.Default,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		cacheSize:        DefaultCacheSize,
		blobCompression:  codec.CompressionZstd,
		concurrency:      4,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
