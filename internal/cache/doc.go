// Package cache provides in-memory LRU caching for facet term results.
//
// Entries are opaque encoded payloads keyed by the datatype and field a
// term reads plus a digest of the term itself. Keying by field lets the
// engine drop every entry a record update may have affected without
// knowing the terms that produced them.
//
// The ShardedLRU spreads keys over 32 shards so concurrent facet workers
// rarely contend on the same mutex. Both caches charge their bytes to an
// optional resource.Controller and refuse to grow past its memory limit.
package cache
