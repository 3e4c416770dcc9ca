// Package metrics tracks admissions, promotions, and bytes moved for the
// S3-FIFO engine's diagnostics. These counters are not load-bearing: they
// may be disabled without affecting correctness, so Stats always writes
// through a Collector and defaults to a NoOpCollector when the caller
// supplies none.
package metrics

// EvictionReason labels why a record left a queue, for the eviction
// counter's "reason" dimension.
type EvictionReason string

// Reasons recorded by the engine.
const (
	ReasonDemotion EvictionReason = "demotion" // small-queue victim moved to ghost
	ReasonDrop     EvictionReason = "drop"     // victim discarded outright (from main, or from small with no ghost)
)

// EvictionReasons enumerates the reasons PrometheusCollector pre-registers a
// series for, so a reason that never fires still reports zero instead of
// being absent from scrapes.
var EvictionReasons = []EvictionReason{ReasonDemotion, ReasonDrop}

// Collector receives the engine's counter updates. Both a Prometheus-backed
// implementation and a no-op implementation satisfy it, so enabling or
// disabling metrics never changes the engine's control flow.
type Collector interface {
	IncHit()
	IncMiss()
	IncInsertion()
	IncPromotion()
	IncEviction(reason EvictionReason)
	AddBytes(category string, n int64)
	SetSizeBytes(bytes int64)
}

// Stats is the counter bundle owned by an engine instance. All counts are
// cumulative since engine creation; they mirror the hit, miss, admission
// and promotion updates the Collector was sent, so a caller can inspect
// them without a Prometheus scrape. Eviction reasons and occupied bytes go
// to the Collector only and are not kept here.
type Stats struct {
	collector Collector

	Hits   int64
	Misses int64

	AdmittedToSmall      int64
	AdmittedToMain       int64
	MovedToMain          int64
	BytesAdmittedToSmall int64
	BytesAdmittedToMain  int64
	BytesMovedToMain     int64
}

// NewStats creates a Stats bundle that writes through collector. A nil
// collector is replaced with a NoOpCollector.
func NewStats(collector Collector) *Stats {
	if collector == nil {
		collector = &NoOpCollector{}
	}
	return &Stats{collector: collector}
}

// RecordHit records a cache hit.
func (s *Stats) RecordHit() {
	s.Hits++
	s.collector.IncHit()
}

// RecordMiss records a cache miss.
func (s *Stats) RecordMiss() {
	s.Misses++
	s.collector.IncMiss()
}

// RecordAdmitToSmall records an admission into the small queue.
func (s *Stats) RecordAdmitToSmall(sizeBytes uint32) {
	s.AdmittedToSmall++
	s.BytesAdmittedToSmall += int64(sizeBytes)
	s.collector.IncInsertion()
	s.collector.AddBytes("small", int64(sizeBytes))
}

// RecordAdmitToMain records a direct admission into the main queue (a ghost
// hit past threshold, or the warm-up placement rule that seeds main before
// small has cycled anything through itself).
func (s *Stats) RecordAdmitToMain(sizeBytes uint32) {
	s.AdmittedToMain++
	s.BytesAdmittedToMain += int64(sizeBytes)
	s.collector.IncInsertion()
	s.collector.AddBytes("main", int64(sizeBytes))
}

// RecordMoveToMain records a small-queue eviction that promoted its victim
// to main.
func (s *Stats) RecordMoveToMain(sizeBytes uint32) {
	s.MovedToMain++
	s.BytesMovedToMain += int64(sizeBytes)
	s.collector.IncPromotion()
	s.collector.AddBytes("promotion", int64(sizeBytes))
}

// RecordEviction records a terminal eviction: a demotion to ghost, or a
// victim dropped outright.
func (s *Stats) RecordEviction(reason EvictionReason) {
	s.collector.IncEviction(reason)
}

// SetOccupiedBytes reports current byte occupancy to the collector's gauge.
func (s *Stats) SetOccupiedBytes(bytes int64) {
	s.collector.SetSizeBytes(bytes)
}
