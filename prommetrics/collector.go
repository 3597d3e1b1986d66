// Package prommetrics exposes facetree engine metrics to Prometheus.
//
//	reg := prometheus.NewRegistry()
//	c := prommetrics.New("facetree")
//	reg.MustRegister(c)
//	eng, _ := facetree.New(backend, facetree.WithMetricsCollector(c))
//	c.WatchUsage(eng.Usage)
package prommetrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/facetree"
)

var _ facetree.MetricsCollector = (*Collector)(nil)
var _ prometheus.Collector = (*Collector)(nil)

// Collector implements facetree.MetricsCollector on top of Prometheus
// histograms and counters. It is itself a prometheus.Collector and must be
// registered before it is scraped.
type Collector struct {
	opLatency     *prometheus.HistogramVec
	matches       prometheus.Counter
	terms         *prometheus.CounterVec
	mergeNodes    prometheus.Histogram
	invalidations prometheus.Counter
	invalidated   prometheus.Counter

	usage      atomic.Pointer[func() facetree.Usage]
	cacheHits  *prometheus.Desc
	cacheMiss  *prometheus.Desc
	cacheBytes *prometheus.Desc
	cacheLimit *prometheus.Desc
	inFlight   *prometheus.Desc
}

// New creates a Collector whose metric names are prefixed with namespace.
func New(namespace string) *Collector {
	return &Collector{
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_latency_seconds",
			Help:      "Latency of engine operations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op", "status"}),
		matches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_matches_total",
			Help:      "Total top-level records returned by searches",
		}),
		terms: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "facet_terms_total",
			Help:      "Total facet terms executed",
		}, []string{"kind", "status"}),
		mergeNodes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "merge_nodes",
			Help:      "Topology nodes visited per merge",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
		invalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_invalidations_total",
			Help:      "Total cache invalidation calls",
		}),
		invalidated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_invalidated_entries_total",
			Help:      "Total cache entries removed by invalidation",
		}),
		cacheHits: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "cache_hits_total"),
			"Term cache hits", nil, nil),
		cacheMiss: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "cache_misses_total"),
			"Term cache misses", nil, nil),
		cacheBytes: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "cache_bytes"),
			"Bytes held by the in-memory term cache", nil, nil),
		cacheLimit: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "cache_limit_bytes"),
			"Byte cap of the in-memory term cache, 0 if uncapped", nil, nil),
		inFlight: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "terms_in_flight"),
			"Facet terms currently running against the matcher", nil, nil),
	}
}

// WatchUsage makes every scrape report the snapshot returned by fn,
// typically (*facetree.Engine).Usage.
func (c *Collector) WatchUsage(fn func() facetree.Usage) {
	c.usage.Store(&fn)
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordSearch implements facetree.MetricsCollector.
func (c *Collector) RecordSearch(d time.Duration, matches int, err error) {
	c.opLatency.WithLabelValues("search", status(err)).Observe(d.Seconds())
	c.matches.Add(float64(matches))
}

// RecordFacetTerm implements facetree.MetricsCollector.
func (c *Collector) RecordFacetTerm(kind string, d time.Duration, err error) {
	c.opLatency.WithLabelValues("term", status(err)).Observe(d.Seconds())
	c.terms.WithLabelValues(kind, status(err)).Inc()
}

// RecordMerge implements facetree.MetricsCollector.
func (c *Collector) RecordMerge(nodes int, d time.Duration) {
	c.opLatency.WithLabelValues("merge", "success").Observe(d.Seconds())
	c.mergeNodes.Observe(float64(nodes))
}

// RecordInvalidation implements facetree.MetricsCollector.
func (c *Collector) RecordInvalidation(entries int) {
	c.invalidations.Inc()
	c.invalidated.Add(float64(entries))
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.opLatency.Describe(ch)
	c.matches.Describe(ch)
	c.terms.Describe(ch)
	c.mergeNodes.Describe(ch)
	c.invalidations.Describe(ch)
	c.invalidated.Describe(ch)
	ch <- c.cacheHits
	ch <- c.cacheMiss
	ch <- c.cacheBytes
	ch <- c.cacheLimit
	ch <- c.inFlight
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.opLatency.Collect(ch)
	c.matches.Collect(ch)
	c.terms.Collect(ch)
	c.mergeNodes.Collect(ch)
	c.invalidations.Collect(ch)
	c.invalidated.Collect(ch)

	fn := c.usage.Load()
	if fn == nil {
		return
	}
	u := (*fn)()
	ch <- prometheus.MustNewConstMetric(c.cacheHits, prometheus.CounterValue, float64(u.CacheHits))
	ch <- prometheus.MustNewConstMetric(c.cacheMiss, prometheus.CounterValue, float64(u.CacheMisses))
	ch <- prometheus.MustNewConstMetric(c.cacheBytes, prometheus.GaugeValue, float64(u.CacheBytes))
	ch <- prometheus.MustNewConstMetric(c.cacheLimit, prometheus.GaugeValue, float64(u.CacheLimitBytes))
	ch <- prometheus.MustNewConstMetric(c.inFlight, prometheus.GaugeValue, float64(u.TermsInFlight))
}
