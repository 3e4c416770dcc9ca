// Package twoqueue adapts the 2Q eviction algorithm to the byte-size
// accounting contract in cache.Cache. 2Q separates objects into three
// tiers: recent (a plain FIFO of objects seen once), frequent (an LRU of
// objects seen more than once), and ghost (a FIFO remembering ids recently
// evicted from recent, without their bytes). A ghost hit promotes straight
// into frequent, skipping a second pass through recent.
//
// This composes the byte-aware queue.Queue and lru.Cache packages for its
// recent/ghost and frequent tiers respectively, rather than reimplementing
// FIFO and LRU bookkeeping from scratch.
package twoqueue

import (
	"github.com/cachelab/s3fifosize/internal"
	"github.com/cachelab/s3fifosize/pkg/cache"
	"github.com/cachelab/s3fifosize/pkg/lru"
	"github.com/cachelab/s3fifosize/pkg/objtable"
	"github.com/cachelab/s3fifosize/pkg/queue"
)

const (
	// DefaultRecentRatio is the share of total capacity dedicated to
	// objects seen exactly once.
	DefaultRecentRatio = 0.25

	// DefaultGhostRatio is the share of total capacity dedicated to
	// remembering ids recently evicted from the recent tier.
	DefaultGhostRatio = 0.50
)

// Cache is a byte-capacity-bounded 2Q cache.
type Cache struct {
	noCopy internal.NoCopy

	capacityBytes int64

	recentCapacityBytes   int64
	ghostCapacityBytes    int64
	frequentCapacityBytes int64

	recent   *queue.Queue
	frequent *lru.Cache
	ghost    *queue.Queue
}

var _ cache.Cache = (*Cache)(nil)

// New creates an empty Cache bounded by capacityBytes using the default
// recent/ghost ratios.
func New(capacityBytes int64) *Cache {
	return NewWithRatio(capacityBytes, DefaultRecentRatio, DefaultGhostRatio)
}

// NewWithRatio creates an empty Cache bounded by capacityBytes, with
// recentRatio and ghostRatio (each in [0,1]) sizing the recent and ghost
// tiers; the remainder goes to the frequent tier.
func NewWithRatio(capacityBytes int64, recentRatio, ghostRatio float64) *Cache {
	recentCap := int64(float64(capacityBytes) * recentRatio)
	ghostCap := int64(float64(capacityBytes) * ghostRatio)
	frequentCap := capacityBytes - recentCap
	if frequentCap < 1 {
		frequentCap = 1
	}

	return &Cache{
		capacityBytes:         capacityBytes,
		recentCapacityBytes:   recentCap,
		ghostCapacityBytes:    ghostCap,
		frequentCapacityBytes: frequentCap,
		recent:                queue.New(recentCap),
		frequent:              lru.New(frequentCap),
		ghost:                 queue.New(ghostCap),
	}
}

// Find looks up req.ID among resident (recent or frequent) records,
// without promoting between tiers; promotion only happens through Get.
func (c *Cache) Find(req cache.Request, update bool) (*objtable.Record, bool) {
	if r, ok := c.frequent.Find(req, update); ok {
		return r, true
	}
	return c.recent.Find(req, false)
}

// CanInsert rejects only a request at least as large as the whole capacity.
func (c *Cache) CanInsert(req cache.Request) bool {
	return int64(req.Size) < c.capacityBytes
}

// ToEvict reports the next eviction victim: recent's head while recent is
// non-empty, otherwise frequent's least-recently-used record.
func (c *Cache) ToEvict(req cache.Request) (*objtable.Record, bool) {
	if r, ok := c.recent.PeekHead(); ok {
		return r, true
	}
	return c.frequent.ToEvict(req)
}

// Evict removes the next victim per ToEvict's choice. Eviction from recent
// demotes the victim into ghost; eviction from frequent discards it.
func (c *Cache) Evict(req cache.Request) {
	if victim, ok := c.recent.PeekHead(); ok {
		c.recent.Remove(victim.ID)
		c.admitToGhost(victim)
		return
	}
	victim, ok := c.frequent.ToEvict(req)
	if !ok {
		panic("twoqueue: evict called on empty cache")
	}
	c.frequent.Remove(victim.ID)
}

func (c *Cache) admitToGhost(r *objtable.Record) {
	for c.ghost.OccupiedBytes()+int64(r.Size) > c.ghostCapacityBytes {
		if _, ok := c.ghost.PopHead(); !ok {
			break
		}
	}
	if c.ghostCapacityBytes > 0 {
		c.ghost.PushTail(&objtable.Record{ID: r.ID, Size: r.Size, Freq: r.Freq})
	}
}

// Insert admits req into the recent tier, the default placement for a
// brand-new key. Callers resolving a recent or ghost hit should use Get
// instead, which applies 2Q's promotion rules.
func (c *Cache) Insert(req cache.Request) {
	for c.recent.OccupiedBytes()+int64(req.Size) > c.recentCapacityBytes {
		victim, ok := c.recent.PeekHead()
		if !ok {
			break
		}
		c.recent.Remove(victim.ID)
		c.admitToGhost(victim)
	}
	c.recent.PushTail(&objtable.Record{ID: req.ID, Size: req.Size, Freq: 1})
}

// Remove deletes req.ID from whichever tier holds it, resident or ghost.
func (c *Cache) Remove(id uint64) bool {
	if c.frequent.Remove(id) {
		return true
	}
	if c.recent.Remove(id) {
		return true
	}
	return c.ghost.Remove(id)
}

// OccupiedBytes returns the sum of recent and frequent resident record
// sizes; ghost entries carry no occupancy.
func (c *Cache) OccupiedBytes() int64 {
	return c.recent.OccupiedBytes() + c.frequent.OccupiedBytes()
}

// NObjects returns the number of resident (recent plus frequent) records.
func (c *Cache) NObjects() int {
	return c.recent.NObjects() + c.frequent.NObjects()
}

// CapacityBytes returns the cache's configured total byte capacity.
func (c *Cache) CapacityBytes() int64 { return c.capacityBytes }

func (c *Cache) ensureFrequentSpace(req cache.Request) {
	for c.frequent.OccupiedBytes()+int64(req.Size) > c.frequentCapacityBytes {
		victim, ok := c.frequent.ToEvict(req)
		if !ok {
			break
		}
		c.frequent.Remove(victim.ID)
	}
}

// Get performs a full 2Q access cycle: a frequent hit refreshes recency; a
// recent hit promotes into frequent; a ghost hit promotes directly into
// frequent without a second pass through recent; a complete miss admits
// into recent.
func (c *Cache) Get(req cache.Request) bool {
	if _, hit := c.frequent.Find(req, true); hit {
		return true
	}

	if r, hit := c.recent.Find(req, false); hit {
		c.recent.Remove(req.ID)
		c.ensureFrequentSpace(req)
		c.frequent.Insert(cache.Request{ID: req.ID, Size: r.Size})
		return true
	}

	if r, hit := c.ghost.Find(req, false); hit {
		c.ghost.Remove(req.ID)
		c.ensureFrequentSpace(req)
		c.frequent.Insert(cache.Request{ID: req.ID, Size: r.Size})
		return false
	}

	if !c.CanInsert(req) {
		return false
	}
	c.Insert(req)
	return false
}
