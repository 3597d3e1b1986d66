package cache

import (
	"context"
	"encoding/binary"

	"github.com/cespare/xxhash/v2"

	"github.com/hupe1980/facetree/internal/resource"
)

const numShards = 32

// ShardedLRU distributes entries across shards to reduce lock contention.
type ShardedLRU struct {
	shards [numShards]*LRU
}

// NewShardedLRU creates a new sharded LRU cache.
// The capacity is divided evenly across all shards.
func NewShardedLRU(capacity int64, rc *resource.Controller) *ShardedLRU {
	shardCapacity := max(capacity/numShards, 1)

	s := &ShardedLRU{}
	for i := range numShards {
		s.shards[i] = NewLRU(shardCapacity, rc)
	}
	return s
}

func (s *ShardedLRU) shard(key Key) *LRU {
	var buf [17]byte
	buf[0] = byte(key.Kind)
	binary.LittleEndian.PutUint32(buf[1:], uint32(key.Datatype))
	binary.LittleEndian.PutUint32(buf[5:], uint32(key.Field))
	binary.LittleEndian.PutUint64(buf[9:], key.Digest)
	return s.shards[xxhash.Sum64(buf[:])%numShards]
}

// Get returns a cached payload.
func (s *ShardedLRU) Get(ctx context.Context, key Key) ([]byte, bool) {
	return s.shard(key).Get(ctx, key)
}

// Set caches a payload.
func (s *ShardedLRU) Set(ctx context.Context, key Key, b []byte) {
	s.shard(key).Set(ctx, key, b)
}

// Invalidate removes entries matching the predicate from all shards.
func (s *ShardedLRU) Invalidate(predicate func(key Key) bool) int {
	n := 0
	for _, sh := range s.shards {
		n += sh.Invalidate(predicate)
	}
	return n
}

// Stats returns aggregated hit and miss counters.
func (s *ShardedLRU) Stats() (hits, misses int64) {
	for _, sh := range s.shards {
		h, m := sh.Stats()
		hits += h
		misses += m
	}
	return hits, misses
}

// Size returns the total cached bytes.
func (s *ShardedLRU) Size() int64 {
	var n int64
	for _, sh := range s.shards {
		n += sh.Size()
	}
	return n
}

// Len returns the total number of cached entries.
func (s *ShardedLRU) Len() int {
	n := 0
	for _, sh := range s.shards {
		n += sh.Len()
	}
	return n
}

// Close closes all shards.
func (s *ShardedLRU) Close() error {
	for _, sh := range s.shards {
		_ = sh.Close()
	}
	return nil
}

var (
	_ Cache = (*LRU)(nil)
	_ Cache = (*ShardedLRU)(nil)
)
