package resource

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds the limits shared by every search of an engine.
type Config struct {
	// MemoryLimitBytes caps the bytes the term cache may hold.
	// Zero tracks usage without a cap.
	MemoryLimitBytes int64

	// MaxConcurrentTerms is the number of facet terms that may run against
	// the matcher at once. Values below one mean one.
	MaxConcurrentTerms int64

	// TermsPerSecond throttles term starts. Zero disables throttling.
	TermsPerSecond float64
}

// Controller hands out cache bytes and term slots.
type Controller struct {
	limit    int64
	bytes    *semaphore.Weighted // nil without a cap
	reserved atomic.Int64

	slots    *semaphore.Weighted
	inFlight atomic.Int64
	limiter  *rate.Limiter // nil without throttling
}

// NewController creates a controller for cfg.
func NewController(cfg Config) *Controller {
	c := &Controller{
		limit: cfg.MemoryLimitBytes,
		slots: semaphore.NewWeighted(max(cfg.MaxConcurrentTerms, 1)),
	}
	if cfg.MemoryLimitBytes > 0 {
		c.bytes = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}
	if cfg.TermsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.TermsPerSecond), max(int(cfg.TermsPerSecond), 1))
	}
	return c
}

// Reserve claims n cache bytes without blocking. It reports false when the
// cap would be exceeded.
func (c *Controller) Reserve(n int64) bool {
	if c == nil || n <= 0 {
		return true
	}
	if c.bytes != nil && !c.bytes.TryAcquire(n) {
		return false
	}
	c.reserved.Add(n)
	return true
}

// Free returns n cache bytes claimed by Reserve.
func (c *Controller) Free(n int64) {
	if c == nil || n <= 0 {
		return
	}
	if c.bytes != nil {
		c.bytes.Release(n)
	}
	c.reserved.Add(-n)
}

// Reserved returns the cache bytes currently claimed.
func (c *Controller) Reserved() int64 {
	if c == nil {
		return 0
	}
	return c.reserved.Load()
}

// Limit returns the cache byte cap, zero if uncapped.
func (c *Controller) Limit() int64 {
	if c == nil {
		return 0
	}
	return c.limit
}

// Term waits for a term slot and then for the rate limiter. The returned
// func gives the slot back and must be called exactly once.
func (c *Controller) Term(ctx context.Context) (release func(), err error) {
	if c == nil {
		return func() {}, nil
	}
	if err := c.slots.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			c.slots.Release(1)
			return nil, err
		}
	}
	return c.claimed(), nil
}

// InFlight returns the number of term slots held.
func (c *Controller) InFlight() int64 {
	if c == nil {
		return 0
	}
	return c.inFlight.Load()
}

func (c *Controller) claimed() func() {
	c.inFlight.Add(1)
	var once atomic.Bool
	return func() {
		if once.CompareAndSwap(false, true) {
			c.inFlight.Add(-1)
			c.slots.Release(1)
		}
	}
}
