package facet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hupe1980/facetree/blobstore"
	"github.com/hupe1980/facetree/codec"
	"github.com/hupe1980/facetree/internal/cache"
	"github.com/hupe1980/facetree/model"
	"github.com/hupe1980/facetree/recordset"
)

// envelope is the cached form of a TermResult.
type envelope struct {
	Guard bool   `msgpack:"g"`
	IDs   []byte `msgpack:"i"`
}

// CachedMatcher memoizes term results.
//
// The first tier is an in-memory cache holding LZ4-compressed entries. The
// optional second tier is a blob store holding zstd-compressed entries, so
// results survive restarts and can be shared between processes. Entries are
// never refreshed implicitly; callers invalidate them when records change.
type CachedMatcher struct {
	next   Matcher
	l1     cache.Cache
	l2     blobstore.Store
	l2c    codec.Compression
	codec  codec.Codec
	logger *slog.Logger
}

// CacheOption configures a CachedMatcher.
type CacheOption func(*CachedMatcher)

// WithBlobStore enables the second cache tier.
func WithBlobStore(s blobstore.Store) CacheOption {
	return func(m *CachedMatcher) { m.l2 = s }
}

// WithBlobCompression sets the compression of second-tier entries.
// The default is zstd.
func WithBlobCompression(c codec.Compression) CacheOption {
	return func(m *CachedMatcher) { m.l2c = c }
}

// WithCodec overrides the envelope codec.
func WithCodec(c codec.Codec) CacheOption {
	return func(m *CachedMatcher) { m.codec = c }
}

// WithCacheLogger sets the logger.
func WithCacheLogger(l *slog.Logger) CacheOption {
	return func(m *CachedMatcher) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewCachedMatcher wraps next with the given first-tier cache.
func NewCachedMatcher(next Matcher, l1 cache.Cache, opts ...CacheOption) *CachedMatcher {
	m := &CachedMatcher{
		next:   next,
		l1:     l1,
		l2c:    codec.CompressionZstd,
		codec:  codec.Default,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("component", "facet-cache")
	return m
}

func keyOf(t Term) cache.Key {
	kind := cache.KindTerm
	switch {
	case t.Template:
		kind = cache.KindTemplate
	case t.Field == AnyField:
		kind = cache.KindGeneral
	}
	return cache.Key{Kind: kind, Datatype: t.Datatype, Field: t.Field, Digest: t.Digest()}
}

func blobName(k cache.Key) string {
	return fmt.Sprintf("%d/%d/%d-%016x", k.Datatype, k.Field, k.Kind, k.Digest)
}

// Run returns the cached result of t, running it on a miss.
func (m *CachedMatcher) Run(ctx context.Context, t Term) (TermResult, error) {
	key := keyOf(t)

	if b, ok := m.l1.Get(ctx, key); ok {
		res, err := m.decode(b)
		if err == nil {
			return res, nil
		}
		m.logger.WarnContext(ctx, "dropping corrupt cache entry", "datatype", key.Datatype, "field", key.Field, "error", err)
		m.l1.Invalidate(func(k cache.Key) bool { return k == key })
	}

	if m.l2 != nil {
		b, err := m.l2.Get(ctx, blobName(key))
		switch {
		case err == nil:
			if res, err := m.decode(b); err == nil {
				m.store(ctx, key, res, false)
				return res, nil
			}
		case !errors.Is(err, blobstore.ErrNotFound):
			m.logger.WarnContext(ctx, "blob cache read failed", "datatype", key.Datatype, "error", err)
		}
	}

	res, err := m.next.Run(ctx, t)
	if err != nil {
		return TermResult{}, err
	}
	m.store(ctx, key, res, true)
	return res, nil
}

func (m *CachedMatcher) store(ctx context.Context, key cache.Key, res TermResult, persist bool) {
	ids, err := res.IDs.MarshalBinary()
	if err != nil {
		return
	}
	raw, err := m.codec.Marshal(envelope{Guard: res.Guard, IDs: ids})
	if err != nil {
		return
	}

	if b, err := codec.Compress(raw, codec.CompressionLZ4); err == nil {
		m.l1.Set(ctx, key, b)
	}

	if persist && m.l2 != nil {
		b, err := codec.Compress(raw, m.l2c)
		if err != nil {
			return
		}
		if err := m.l2.Put(ctx, blobName(key), b); err != nil {
			m.logger.WarnContext(ctx, "blob cache write failed", "datatype", key.Datatype, "error", err)
		}
	}
}

func (m *CachedMatcher) decode(b []byte) (TermResult, error) {
	raw, err := codec.Decompress(b)
	if err != nil {
		return TermResult{}, err
	}
	var env envelope
	if err := m.codec.Unmarshal(raw, &env); err != nil {
		return TermResult{}, err
	}
	ids := recordset.New()
	if err := ids.UnmarshalBinary(env.IDs); err != nil {
		return TermResult{}, err
	}
	return TermResult{IDs: ids, Guard: env.Guard}, nil
}

// InvalidateField drops every entry that read a field of a datatype,
// including the datatype's general-search entries. It returns the number of
// entries removed from both tiers.
func (m *CachedMatcher) InvalidateField(ctx context.Context, dt model.DatatypeID, field model.FieldID) (int, error) {
	n := m.l1.Invalidate(cache.ByField(dt, field))
	if m.l2 == nil {
		return n, nil
	}
	fields := []model.FieldID{field}
	if field != AnyField {
		fields = append(fields, AnyField)
	}
	for _, f := range fields {
		removed, err := blobstore.DeletePrefix(ctx, m.l2, fmt.Sprintf("%d/%d/", dt, f))
		n += removed
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// InvalidateDatatype drops every entry of a datatype from both tiers.
func (m *CachedMatcher) InvalidateDatatype(ctx context.Context, dt model.DatatypeID) (int, error) {
	n := m.l1.Invalidate(cache.ByDatatype(dt))
	if m.l2 == nil {
		return n, nil
	}
	removed, err := blobstore.DeletePrefix(ctx, m.l2, fmt.Sprintf("%d/", dt))
	return n + removed, err
}

// Stats returns the first-tier hit and miss counters.
func (m *CachedMatcher) Stats() (hits, misses int64) {
	return m.l1.Stats()
}
