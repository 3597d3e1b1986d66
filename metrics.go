package facetree

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus;
// see package prommetrics for a ready-made collector.
type MetricsCollector interface {
	// RecordSearch is called after each search.
	// matches is the number of top-level matches, err is nil if successful.
	RecordSearch(duration time.Duration, matches int, err error)

	// RecordFacetTerm is called after each executed term.
	// kind is "advanced" or "general".
	RecordFacetTerm(kind string, duration time.Duration, err error)

	// RecordMerge is called after the merge of a search with the number of
	// topology nodes it visited.
	RecordMerge(nodes int, duration time.Duration)

	// RecordInvalidation is called after each cache invalidation with the
	// number of entries removed.
	RecordInvalidation(entries int)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordSearch(time.Duration, int, error)       {}
func (NoopMetricsCollector) RecordFacetTerm(string, time.Duration, error) {}
func (NoopMetricsCollector) RecordMerge(int, time.Duration)               {}
func (NoopMetricsCollector) RecordInvalidation(int)                       {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	SearchCount      atomic.Int64
	SearchErrors     atomic.Int64
	SearchMatches    atomic.Int64
	SearchTotalNanos atomic.Int64
	TermCount        atomic.Int64
	TermErrors       atomic.Int64
	TermTotalNanos   atomic.Int64
	MergeCount       atomic.Int64
	MergeNodes       atomic.Int64
	Invalidations    atomic.Int64
	InvalidatedItems atomic.Int64
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(duration time.Duration, matches int, err error) {
	b.SearchCount.Add(1)
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	b.SearchMatches.Add(int64(matches))
	if err != nil {
		b.SearchErrors.Add(1)
	}
}

// RecordFacetTerm implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFacetTerm(_ string, duration time.Duration, err error) {
	b.TermCount.Add(1)
	b.TermTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.TermErrors.Add(1)
	}
}

// RecordMerge implements MetricsCollector.
func (b *BasicMetricsCollector) RecordMerge(nodes int, _ time.Duration) {
	b.MergeCount.Add(1)
	b.MergeNodes.Add(int64(nodes))
}

// RecordInvalidation implements MetricsCollector.
func (b *BasicMetricsCollector) RecordInvalidation(entries int) {
	b.Invalidations.Add(1)
	b.InvalidatedItems.Add(int64(entries))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		SearchCount:      b.SearchCount.Load(),
		SearchErrors:     b.SearchErrors.Load(),
		SearchMatches:    b.SearchMatches.Load(),
		SearchAvgNanos:   avg(b.SearchTotalNanos.Load(), b.SearchCount.Load()),
		TermCount:        b.TermCount.Load(),
		TermErrors:       b.TermErrors.Load(),
		TermAvgNanos:     avg(b.TermTotalNanos.Load(), b.TermCount.Load()),
		MergeCount:       b.MergeCount.Load(),
		MergeNodes:       b.MergeNodes.Load(),
		Invalidations:    b.Invalidations.Load(),
		InvalidatedItems: b.InvalidatedItems.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	SearchCount      int64
	SearchErrors     int64
	SearchMatches    int64
	SearchAvgNanos   int64
	TermCount        int64
	TermErrors       int64
	TermAvgNanos     int64
	MergeCount       int64
	MergeNodes       int64
	Invalidations    int64
	InvalidatedItems int64
}
