// Package s3fifo implements the size-aware S3-FIFO engine: a cache built
// from three FIFOs, small, main, and a metadata-only ghost, that admits and
// evicts by comparing an object's size against the cache's running mean
// object size rather than by counting objects. See https://s3fifo.com/ for
// the count-based algorithm this generalizes.
package s3fifo

import (
	"fmt"
	"math/rand/v2"

	"github.com/cachelab/s3fifosize/internal"
	"github.com/cachelab/s3fifosize/pkg/cache"
	"github.com/cachelab/s3fifosize/pkg/metrics"
	"github.com/cachelab/s3fifosize/pkg/objtable"
	"github.com/cachelab/s3fifosize/pkg/params"
	"github.com/cachelab/s3fifosize/pkg/queue"
)

// Engine is the size-aware S3-FIFO cache. It satisfies cache.Cache itself,
// so it can be nested inside another cache.Cache the same way its own
// small/main/ghost sub-queues are.
type Engine struct {
	noCopy internal.NoCopy

	capacityBytes int64

	small *queue.Queue
	main  *queue.Queue
	ghost *queue.Queue // nil when the ghost-size ratio is configured to zero

	moveToMainThreshold int
	hardAdmission       bool // false (default) = probabilistic admission to small

	hasEvicted    bool
	cumAdmitBytes uint64 // running total of bytes ever admitted to small; used as the insertion clock

	rng *rand.Rand

	smallSizeRatio float64
	stats          *metrics.Stats
}

// Option configures an Engine at construction time.
type Option func(*engineConfig)

type engineConfig struct {
	seed      uint64
	collector metrics.Collector
	hard      bool
}

// WithSeed fixes the seed of the random source driving probabilistic
// admission, for reproducible runs. Unseeded engines, and engines given a
// seed of 0, derive their seed from the process-global source.
func WithSeed(seed uint64) Option {
	return func(c *engineConfig) { c.seed = seed }
}

// WithCollector attaches a metrics.Collector. Unset, the engine's Stats
// write through a metrics.NoOpCollector.
func WithCollector(collector metrics.Collector) Option {
	return func(c *engineConfig) { c.collector = collector }
}

// WithHardAdmission selects the hard admission regime for the small queue:
// admit iff the object is smaller than the small queue's capacity, instead
// of the default probabilistic regime, which rejects with probability
// size/small_capacity.
func WithHardAdmission() Option {
	return func(c *engineConfig) { c.hard = true }
}

// New constructs an Engine with total capacity capacityBytes, configured by
// paramString (the key=value grammar parsed by package params). A
// paramString containing "print" returns params.ErrPrintRequested.
func New(capacityBytes int64, paramString string, opts ...Option) (*Engine, error) {
	p, err := params.Parse(paramString)
	if err != nil {
		return nil, err
	}

	cfg := &engineConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	smallCap := int64(float64(capacityBytes) * p.SmallSizeRatio)
	mainCap := capacityBytes - smallCap
	ghostCap := int64(float64(capacityBytes) * p.GhostSizeRatio)

	e := &Engine{
		capacityBytes:       capacityBytes,
		small:               queue.New(smallCap),
		main:                queue.New(mainCap),
		moveToMainThreshold: p.MoveToMainThreshold,
		hardAdmission:       cfg.hard,
		smallSizeRatio:      p.SmallSizeRatio,
		stats:               metrics.NewStats(cfg.collector),
	}
	if ghostCap > 0 {
		e.ghost = queue.New(ghostCap)
	}
	if cfg.seed != 0 {
		e.rng = rand.New(rand.NewPCG(cfg.seed, cfg.seed))
	} else {
		e.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	return e, nil
}

var _ cache.Cache = (*Engine)(nil)

// Name reports the engine's identity: algorithm, small-size ratio, and
// move-to-main threshold.
func (e *Engine) Name() string {
	return fmt.Sprintf("S3FIFOSize-%.4f-%d", e.smallSizeRatio, e.moveToMainThreshold)
}

// Get performs a full find-or-admit cycle: a hit bumps the resident
// record's frequency; a miss evicts until req fits, then inserts.
func (e *Engine) Get(req cache.Request) bool {
	if _, hit := e.Find(req, true); hit {
		e.stats.RecordHit()
		e.stats.SetOccupiedBytes(e.OccupiedBytes())
		return true
	}

	e.stats.RecordMiss()

	if !e.CanInsert(req) {
		e.stats.SetOccupiedBytes(e.OccupiedBytes())
		return false
	}

	e.Evict(req)
	e.Insert(req)
	e.stats.SetOccupiedBytes(e.OccupiedBytes())
	return false
}

// Find consults small then main. A hit always bumps frequency when update
// is set; there is no access-recency gate (see DESIGN.md for why that
// filtering path is left disabled).
func (e *Engine) Find(req cache.Request, update bool) (*objtable.Record, bool) {
	if r, ok := e.small.Find(req, update); ok {
		if update {
			r.BumpFreq()
		}
		return r, true
	}
	if r, ok := e.main.Find(req, update); ok {
		if update {
			r.BumpFreq()
		}
		return r, true
	}
	return nil, false
}

// CanInsert decides whether req is admissible. A ghost hit past the
// move-to-main threshold is admitted straight to main provided it fits
// there; otherwise the request is tested against the small queue's
// admission regime.
func (e *Engine) CanInsert(req cache.Request) bool {
	if e.ghost != nil {
		if gobj, ok := e.ghost.Find(req, false); ok {
			ratio := float64(req.Size) / e.meanSizeInSmall()
			if float64(gobj.Freq)/ratio >= float64(e.moveToMainThreshold) {
				return int64(req.Size) < e.main.CapacityBytes()
			}
		}
	}
	return e.canInsertToSmall(req)
}

// canInsertToSmall is the small-queue admission test: reject outright if
// the object is at least as large as the small queue's capacity, otherwise
// either admit unconditionally (hard regime) or admit with probability
// 1 - size/capacity (probabilistic regime).
func (e *Engine) canInsertToSmall(req cache.Request) bool {
	if int64(req.Size) >= e.small.CapacityBytes() {
		return false
	}
	if e.hardAdmission {
		return true
	}
	p := float64(req.Size) / float64(e.small.CapacityBytes())
	return e.rng.Float64() >= p
}

// Insert places req. A ghost hit either promotes straight to main
// (past threshold) or recirculates into small carrying the ghost's
// frequency forward, incremented and saturated at objtable.MaxFreq. A
// cold miss before the engine's first eviction, once small is already at
// capacity, warms up main directly so the small queue does not have to
// cycle every object through itself before main ever receives anything.
func (e *Engine) Insert(req cache.Request) {
	if e.ghost != nil {
		if gobj, ok := e.ghost.Find(req, false); ok {
			ratio := float64(req.Size) / e.meanSizeInSmall()
			promote := float64(gobj.Freq)/ratio >= float64(e.moveToMainThreshold)
			freq := gobj.Freq
			e.ghost.Remove(req.ID)

			if promote {
				e.main.PushTail(&objtable.Record{ID: req.ID, Size: req.Size, Freq: 1})
				e.stats.RecordAdmitToMain(req.Size)
				return
			}

			if freq < objtable.MaxFreq {
				freq++
			}
			e.cumAdmitBytes += uint64(req.Size)
			e.small.PushTail(&objtable.Record{ID: req.ID, Size: req.Size, Freq: freq, InsertionMarker: e.cumAdmitBytes})
			e.stats.RecordAdmitToSmall(req.Size)
			return
		}
	}

	if !e.hasEvicted && e.small.OccupiedBytes() >= e.small.CapacityBytes() {
		e.main.PushTail(&objtable.Record{ID: req.ID, Size: req.Size, Freq: 1})
		e.stats.RecordAdmitToMain(req.Size)
		return
	}

	e.cumAdmitBytes += uint64(req.Size)
	e.small.PushTail(&objtable.Record{ID: req.ID, Size: req.Size, Freq: 1, InsertionMarker: e.cumAdmitBytes})
	e.stats.RecordAdmitToSmall(req.Size)
}

// Evict frees space for req: it repeatedly picks one victim from
// main or small until the engine could accommodate req without exceeding
// capacity. Main is drained whenever it is over its own capacity share or
// small has nothing left to offer; otherwise small is drained. The loop
// stops early when nothing is resident: a request within a whisker of
// total capacity can owe more overhead than an empty cache can free.
func (e *Engine) Evict(req cache.Request) {
	for e.OccupiedBytes()+int64(req.Size)+objtable.PerRecordOverhead > e.capacityBytes {
		if e.NObjects() == 0 {
			return
		}
		e.hasEvicted = true
		if e.main.OccupiedBytes() > e.main.CapacityBytes() || e.small.OccupiedBytes() == 0 {
			e.evictMain()
		} else {
			e.evictSmall()
		}
	}
}

// evictSmall processes exactly one small-queue victim: promote it
// to main if its frequency, relative to the overall mean object size,
// clears the move-to-main threshold; otherwise demote it to ghost (or
// drop it outright, when no ghost queue is configured).
func (e *Engine) evictSmall() {
	victim, ok := e.small.PeekHead()
	if !ok {
		panic("s3fifo: evictSmall called on an empty small queue")
	}

	ratio := float64(victim.Size) / e.meanSizeOverall()
	if float64(victim.Freq)/ratio >= float64(e.moveToMainThreshold) {
		e.small.Remove(victim.ID)
		e.main.PushTail(&objtable.Record{ID: victim.ID, Size: victim.Size, Freq: 1})
		e.stats.RecordMoveToMain(victim.Size)
		return
	}

	e.small.Remove(victim.ID)
	if e.ghost != nil {
		e.admitToGhost(victim.ID, victim.Size, victim.Freq)
		e.stats.RecordEviction(metrics.ReasonDemotion)
	} else {
		e.stats.RecordEviction(metrics.ReasonDrop)
	}
}

// evictMain processes exactly one main-queue victim: a victim
// clearing the move-to-main threshold recirculates to the tail with its
// frequency decayed to min(freq, objtable.MaxFreq) - 1; otherwise it is
// dropped for good. The threshold test guarantees freq >= 1 here (freq/ratio
// >= threshold >= 1 is unreachable at freq == 0), so the decay never
// underflows.
func (e *Engine) evictMain() {
	victim, ok := e.main.PeekHead()
	if !ok {
		panic("s3fifo: evictMain called on an empty main queue")
	}

	ratio := float64(victim.Size) / e.meanSizeOverall()
	if float64(victim.Freq)/ratio >= float64(e.moveToMainThreshold) {
		e.main.Remove(victim.ID)
		decayed := victim.Freq
		if decayed > objtable.MaxFreq {
			decayed = objtable.MaxFreq
		}
		if decayed > 0 {
			decayed--
		}
		e.main.PushTail(&objtable.Record{ID: victim.ID, Size: victim.Size, Freq: decayed})
		return
	}

	e.main.Remove(victim.ID)
	e.stats.RecordEviction(metrics.ReasonDrop)
}

// admitToGhost inserts id into the ghost queue, first evicting ghost's own
// head-to-tail until there is room (the ghost queue is itself a plain
// FIFO over id/size/freq, with no promotion logic of its own).
func (e *Engine) admitToGhost(id uint64, sizeBytes uint32, freq uint8) {
	for e.ghost.OccupiedBytes()+int64(sizeBytes) > e.ghost.CapacityBytes() {
		if _, ok := e.ghost.PopHead(); !ok {
			break
		}
	}
	e.ghost.PushTail(&objtable.Record{ID: id, Size: sizeBytes, Freq: freq})
}

// ToEvict is unsupported: which record would be evicted next depends on
// the promotion chain the next Evict call would walk, not on a single
// queue's head, so there is no single record to report without mutating
// state.
func (e *Engine) ToEvict(req cache.Request) (*objtable.Record, bool) {
	return nil, false
}

// Remove deletes id from whichever of small, ghost, or main holds it.
func (e *Engine) Remove(id uint64) bool {
	if e.small.Remove(id) {
		return true
	}
	if e.ghost != nil && e.ghost.Remove(id) {
		return true
	}
	return e.main.Remove(id)
}

// OccupiedBytes is the sum of resident bytes across small and main. Ghost
// occupancy is metadata, not cached payload, and is excluded.
func (e *Engine) OccupiedBytes() int64 {
	return e.small.OccupiedBytes() + e.main.OccupiedBytes()
}

// NObjects is the number of resident records across small and main.
func (e *Engine) NObjects() int {
	return e.small.NObjects() + e.main.NObjects()
}

// meanSizeInSmall is the small queue's mean object size, the denominator
// every admission-time promotion test uses. A tiny epsilon denominator
// replaces division-by-zero on an empty small queue.
func (e *Engine) meanSizeInSmall() float64 {
	n := e.small.NObjects()
	if n == 0 {
		return 1e-8
	}
	return float64(e.small.OccupiedBytes()) / float64(n)
}

// meanSizeOverall is the cache-wide mean object size (small+main), the
// denominator every eviction-time promotion test uses.
func (e *Engine) meanSizeOverall() float64 {
	n := e.small.NObjects() + e.main.NObjects()
	if n == 0 {
		return 1e-8
	}
	return float64(e.OccupiedBytes()) / float64(n)
}

// Stats exposes the engine's counter bundle for inspection without a
// Prometheus scrape.
func (e *Engine) Stats() *metrics.Stats {
	return e.stats
}
