package facetree

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/hupe1980/facetree/facet"
	"github.com/hupe1980/facetree/internal/cache"
	"github.com/hupe1980/facetree/internal/resource"
	"github.com/hupe1980/facetree/model"
	"github.com/hupe1980/facetree/permission"
	"github.com/hupe1980/facetree/schema"
	"github.com/hupe1980/facetree/topology"
)

// Backend bundles every collaborator port a search reads from.
// dataset.Repository implements it.
type Backend interface {
	schema.Schema
	schema.RecordSource
	permission.Oracle
	facet.Matcher
}

// Ports lets each collaborator come from a different system, e.g. a
// DynamoDB permission oracle next to a SQL-backed matcher.
type Ports struct {
	Schema  schema.Schema
	Records schema.RecordSource
	Oracle  permission.Oracle
	Matcher facet.Matcher
}

// Engine runs permission-aware hierarchical searches.
//
// An Engine is safe for concurrent use. Every search builds its own
// topology and state map; only the term result cache is shared.
type Engine struct {
	schema  schema.Schema
	builder *topology.Builder
	runner  *facet.Runner
	cached  *facet.CachedMatcher
	l1      Cache
	rc      *resource.Controller
	opts    options
	closed  atomic.Bool
}

// New creates an Engine reading everything from one backend.
func New(b Backend, optFns ...Option) (*Engine, error) {
	if b == nil {
		return nil, errors.New("facetree: backend is required")
	}
	return NewWithPorts(Ports{Schema: b, Records: b, Oracle: b, Matcher: b}, optFns...)
}

// NewWithPorts creates an Engine from individual collaborators.
func NewWithPorts(p Ports, optFns ...Option) (*Engine, error) {
	if p.Schema == nil || p.Records == nil || p.Oracle == nil || p.Matcher == nil {
		return nil, errors.New("facetree: schema, records, oracle and matcher are required")
	}

	opts := applyOptions(optFns)
	logger := opts.logger.Logger

	rc := resource.NewController(resource.Config{
		MemoryLimitBytes:   max(opts.cacheSize, 0),
		MaxConcurrentTerms: opts.concurrency,
		TermsPerSecond:     opts.rateLimit,
	})

	e := &Engine{
		schema: p.Schema,
		rc:     rc,
		opts:   opts,
	}

	matcher := p.Matcher
	switch {
	case opts.cache != nil:
		e.l1 = opts.cache
	case opts.cacheSize > 0:
		e.l1 = cache.NewShardedLRU(opts.cacheSize, rc)
	}
	if e.l1 != nil {
		cacheOpts := []facet.CacheOption{
			facet.WithCodec(opts.codec),
			facet.WithCacheLogger(logger),
		}
		if opts.blobStore != nil {
			cacheOpts = append(cacheOpts,
				facet.WithBlobStore(opts.blobStore),
				facet.WithBlobCompression(opts.blobCompression),
			)
		}
		e.cached = facet.NewCachedMatcher(p.Matcher, e.l1, cacheOpts...)
		matcher = e.cached
	}

	filter := permission.NewFilter(p.Schema, p.Oracle, logger)
	e.builder = topology.NewBuilder(p.Schema, p.Records, filter, logger)
	e.runner = facet.NewRunner(matcher,
		facet.WithResourceController(rc),
		facet.WithLogger(logger),
		facet.WithObserver(func(ev facet.TermEvent) {
			opts.metricsCollector.RecordFacetTerm(ev.Kind.String(), ev.Duration, ev.Err)
		}),
	)
	return e, nil
}

// Invalidate drops cached term results that read a field of a datatype.
// Call it whenever a record of dt changes. AnyField drops every entry of
// the datatype. Entries of the template the datatype derives from are
// dropped as well. It returns the number of entries removed.
//
// If dt no longer exists its own entries are still dropped and ErrNotFound
// is returned. Its former template cannot be resolved then and must be
// invalidated separately; dataset.Repository.Replace reports it among the
// changed datatypes.
func (e *Engine) Invalidate(ctx context.Context, dt model.DatatypeID, field model.FieldID) (n int, err error) {
	if e.closed.Load() {
		return 0, ErrClosed
	}
	if e.cached == nil {
		return 0, nil
	}
	defer func() {
		e.opts.metricsCollector.RecordInvalidation(n)
		e.opts.logger.LogInvalidate(ctx, uint32(dt), uint32(field), n, err)
	}()

	if field == facet.AnyField {
		n, err = e.cached.InvalidateDatatype(ctx, dt)
	} else {
		n, err = e.cached.InvalidateField(ctx, dt, field)
	}
	if err != nil {
		return n, err
	}

	d, err := e.schema.Datatype(ctx, dt)
	if err != nil {
		return n, translateError(err)
	}
	if d.TemplateID != 0 {
		m, err := e.cached.InvalidateDatatype(ctx, d.TemplateID)
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// CacheStats returns the hit and miss counters of the term result cache.
func (e *Engine) CacheStats() (hits, misses int64) {
	if e.cached == nil {
		return 0, 0
	}
	return e.cached.Stats()
}

// Usage is a snapshot of the resources an engine holds.
type Usage struct {
	CacheHits   int64
	CacheMisses int64
	// CacheBytes is the size of the in-memory term cache.
	CacheBytes int64
	// CacheLimitBytes is zero when the cache is uncapped.
	CacheLimitBytes int64
	// TermsInFlight counts facet terms running against the matcher.
	TermsInFlight int64
}

// Usage returns the current resource usage.
func (e *Engine) Usage() Usage {
	u := Usage{
		CacheBytes:      e.rc.Reserved(),
		CacheLimitBytes: e.rc.Limit(),
		TermsInFlight:   e.rc.InFlight(),
	}
	u.CacheHits, u.CacheMisses = e.CacheStats()
	return u
}
