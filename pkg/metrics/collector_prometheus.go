package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

var _ Collector = (*PrometheusCollector)(nil)
var _ prometheus.Collector = (*PrometheusCollector)(nil)

// PrometheusCollector implements Collector by self-describing a handful of
// counters and a gauge to a Prometheus registry. Counters are plain
// int64s updated with sync/atomic rather than prometheus.Counter values:
// the engine is single-threaded per instance, but the collector may be
// scraped from another goroutine concurrently with engine operations, so
// the values it reports still need atomic reads.
type PrometheusCollector struct {
	name   string
	labels prometheus.Labels

	hits       int64
	misses     int64
	insertions int64
	promotions int64
	evictions  map[EvictionReason]*int64
	bytes      map[string]*int64
	sizeBytes  int64

	hitDesc       *prometheus.Desc
	missDesc      *prometheus.Desc
	insertionDesc *prometheus.Desc
	promotionDesc *prometheus.Desc
	evictionDesc  *prometheus.Desc
	bytesDesc     *prometheus.Desc
	sizeDesc      *prometheus.Desc
}

// NewPrometheusCollector creates a collector labeled with name, ready to be
// registered with a prometheus.Registerer.
func NewPrometheusCollector(name string) *PrometheusCollector {
	labels := prometheus.Labels{"cache": name}

	c := &PrometheusCollector{
		name:      name,
		labels:    labels,
		evictions: make(map[EvictionReason]*int64, len(EvictionReasons)),
		bytes:     make(map[string]*int64, 3),

		hitDesc:       prometheus.NewDesc("s3fifo_hits_total", "Cache hits.", nil, labels),
		missDesc:      prometheus.NewDesc("s3fifo_misses_total", "Cache misses.", nil, labels),
		insertionDesc: prometheus.NewDesc("s3fifo_insertions_total", "Objects admitted into small or main.", nil, labels),
		promotionDesc: prometheus.NewDesc("s3fifo_promotions_total", "Small-queue victims promoted to main.", nil, labels),
		evictionDesc:  prometheus.NewDesc("s3fifo_evictions_total", "Terminal evictions.", []string{"reason"}, labels),
		bytesDesc:     prometheus.NewDesc("s3fifo_bytes_total", "Bytes moved, by category.", []string{"category"}, labels),
		sizeDesc:      prometheus.NewDesc("s3fifo_occupied_bytes", "Current occupied bytes.", nil, labels),
	}

	for _, reason := range EvictionReasons {
		var n int64
		c.evictions[reason] = &n
	}
	for _, category := range []string{"small", "main", "promotion"} {
		var n int64
		c.bytes[category] = &n
	}

	return c
}

func (c *PrometheusCollector) IncHit()       { atomic.AddInt64(&c.hits, 1) }
func (c *PrometheusCollector) IncMiss()      { atomic.AddInt64(&c.misses, 1) }
func (c *PrometheusCollector) IncInsertion() { atomic.AddInt64(&c.insertions, 1) }
func (c *PrometheusCollector) IncPromotion() { atomic.AddInt64(&c.promotions, 1) }

func (c *PrometheusCollector) IncEviction(reason EvictionReason) {
	counter, ok := c.evictions[reason]
	if !ok {
		var n int64
		counter = &n
		c.evictions[reason] = counter
	}
	atomic.AddInt64(counter, 1)
}

func (c *PrometheusCollector) AddBytes(category string, n int64) {
	counter, ok := c.bytes[category]
	if !ok {
		var zero int64
		counter = &zero
		c.bytes[category] = counter
	}
	atomic.AddInt64(counter, n)
}

func (c *PrometheusCollector) SetSizeBytes(bytes int64) { atomic.StoreInt64(&c.sizeBytes, bytes) }

// Describe implements prometheus.Collector.
func (c *PrometheusCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.hitDesc
	ch <- c.missDesc
	ch <- c.insertionDesc
	ch <- c.promotionDesc
	ch <- c.evictionDesc
	ch <- c.bytesDesc
	ch <- c.sizeDesc
}

// Collect implements prometheus.Collector.
func (c *PrometheusCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.hitDesc, prometheus.CounterValue, float64(atomic.LoadInt64(&c.hits)))
	ch <- prometheus.MustNewConstMetric(c.missDesc, prometheus.CounterValue, float64(atomic.LoadInt64(&c.misses)))
	ch <- prometheus.MustNewConstMetric(c.insertionDesc, prometheus.CounterValue, float64(atomic.LoadInt64(&c.insertions)))
	ch <- prometheus.MustNewConstMetric(c.promotionDesc, prometheus.CounterValue, float64(atomic.LoadInt64(&c.promotions)))
	ch <- prometheus.MustNewConstMetric(c.sizeDesc, prometheus.GaugeValue, float64(atomic.LoadInt64(&c.sizeBytes)))

	for reason, counter := range c.evictions {
		ch <- prometheus.MustNewConstMetric(c.evictionDesc, prometheus.CounterValue, float64(atomic.LoadInt64(counter)), string(reason))
	}
	for category, counter := range c.bytes {
		ch <- prometheus.MustNewConstMetric(c.bytesDesc, prometheus.CounterValue, float64(atomic.LoadInt64(counter)), category)
	}
}
