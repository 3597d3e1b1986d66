package cache

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/facetree/internal/resource"
)

// LRU is a size-bounded least-recently-used cache.
type LRU struct {
	mu        sync.Mutex
	capacity  int64
	size      int64
	items     map[Key]*list.Element
	evictList *list.List
	rc        *resource.Controller

	hits   atomic.Int64
	misses atomic.Int64
}

type entry struct {
	key   Key
	value []byte
}

// NewLRU creates a new LRU cache with the given capacity in bytes.
// If rc is provided, it is charged for every cached byte.
func NewLRU(capacity int64, rc *resource.Controller) *LRU {
	return &LRU{
		capacity:  capacity,
		items:     make(map[Key]*list.Element),
		evictList: list.New(),
		rc:        rc,
	}
}

// Get returns a cached payload.
func (c *LRU) Get(_ context.Context, key Key) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.hits.Add(1)
		c.evictList.MoveToFront(el)
		return el.Value.(*entry).value, true
	}
	c.misses.Add(1)
	return nil, false
}

// Set caches a payload. Payloads larger than the capacity are not cached.
func (c *LRU) Set(_ context.Context, key Key, b []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	newSize := int64(len(b))

	if el, ok := c.items[key]; ok {
		c.evictList.MoveToFront(el)
		ent := el.Value.(*entry)
		oldSize := int64(len(ent.value))
		if newSize > oldSize && !c.rc.Reserve(newSize-oldSize) {
			// Keep the old value when the controller denies growth.
			return
		}
		if newSize < oldSize {
			c.rc.Free(oldSize - newSize)
		}
		c.size += newSize - oldSize
		ent.value = b
		c.evict()
		return
	}

	if newSize > c.capacity {
		return
	}

	// Evict locally first so released bytes are available to the controller.
	for c.size+newSize > c.capacity {
		el := c.evictList.Back()
		if el == nil {
			break
		}
		c.removeElement(el)
	}

	if !c.rc.Reserve(newSize) {
		return
	}

	c.items[key] = c.evictList.PushFront(&entry{key, b})
	c.size += newSize
}

// Invalidate removes entries matching the predicate.
func (c *LRU) Invalidate(predicate func(key Key) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var toRemove []*list.Element
	for key, el := range c.items {
		if predicate(key) {
			toRemove = append(toRemove, el)
		}
	}
	for _, el := range toRemove {
		c.removeElement(el)
	}
	return len(toRemove)
}

func (c *LRU) evict() {
	for c.size > c.capacity {
		el := c.evictList.Back()
		if el == nil {
			return
		}
		c.removeElement(el)
	}
}

func (c *LRU) removeElement(el *list.Element) {
	c.evictList.Remove(el)
	ent := el.Value.(*entry)
	delete(c.items, ent.key)
	n := int64(len(ent.value))
	c.size -= n
	c.rc.Free(n)
}

// Close drops all entries and returns their memory to the controller.
func (c *LRU) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rc.Free(c.size)
	c.items = make(map[Key]*list.Element)
	c.evictList.Init()
	c.size = 0
	return nil
}

// Stats returns hit and miss counters.
func (c *LRU) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Size returns the current size of the cache in bytes.
func (c *LRU) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Len returns the number of cached entries.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
