// Package lru adapts the classic least-recently-used policy to the byte-size
// accounting contract in cache.Cache, standing in for the algorithms a
// sub-queue may substitute for a plain FIFO. Unlike a plain queue.Queue, LRU
// moves an entry to the front of the list on every hit.
package lru

import (
	"container/list"

	"github.com/cachelab/s3fifosize/internal"
	"github.com/cachelab/s3fifosize/pkg/cache"
	"github.com/cachelab/s3fifosize/pkg/objtable"
)

// Cache is a byte-capacity-bounded least-recently-used cache.
type Cache struct {
	noCopy internal.NoCopy

	capacityBytes int64
	occupiedBytes int64

	table *objtable.Table
	order *list.List // most recently used at Front, least at Back
	elems map[uint64]*list.Element
}

var _ cache.Cache = (*Cache)(nil)

// New creates an empty Cache bounded by capacityBytes.
func New(capacityBytes int64) *Cache {
	return &Cache{
		capacityBytes: capacityBytes,
		table:         objtable.NewTable(),
		order:         list.New(),
		elems:         make(map[uint64]*list.Element),
	}
}

// Find looks up req.ID. When update is true, a hit moves the record to the
// front of the recency order.
func (c *Cache) Find(req cache.Request, update bool) (*objtable.Record, bool) {
	r, ok := c.table.Find(req.ID)
	if !ok {
		return nil, false
	}
	if update {
		c.order.MoveToFront(c.elems[req.ID])
	}
	return r, true
}

// CanInsert rejects only a request at least as large as the whole capacity.
func (c *Cache) CanInsert(req cache.Request) bool {
	return int64(req.Size) < c.capacityBytes
}

// ToEvict returns the least recently used record without removing it.
func (c *Cache) ToEvict(req cache.Request) (*objtable.Record, bool) {
	e := c.order.Back()
	if e == nil {
		return nil, false
	}
	r, ok := c.table.Find(e.Value.(uint64))
	if !ok {
		panic("lru: tail id missing from object table")
	}
	return r, true
}

// Evict removes the least recently used record.
func (c *Cache) Evict(req cache.Request) {
	e := c.order.Back()
	if e == nil {
		panic("lru: evict called on empty cache")
	}
	c.unlink(e.Value.(uint64))
}

// Insert places req at the front of the recency order with frequency 1, or
// refreshes recency if req.ID is already resident.
func (c *Cache) Insert(req cache.Request) {
	if e, ok := c.elems[req.ID]; ok {
		c.order.MoveToFront(e)
		return
	}
	r := &objtable.Record{ID: req.ID, Size: req.Size, Freq: 1}
	c.table.Insert(r)
	c.elems[req.ID] = c.order.PushFront(req.ID)
	c.occupiedBytes += int64(req.Size)
}

// Get performs a full find-or-admit cycle: a hit refreshes recency; a miss
// evicts least-recently-used records until req fits, then inserts.
func (c *Cache) Get(req cache.Request) bool {
	if _, hit := c.Find(req, true); hit {
		return true
	}
	if !c.CanInsert(req) {
		return false
	}
	for c.occupiedBytes+int64(req.Size) > c.capacityBytes {
		if c.order.Len() == 0 {
			break
		}
		c.Evict(req)
	}
	c.Insert(req)
	return false
}

// Remove deletes req.ID. Returns true iff it was present.
func (c *Cache) Remove(id uint64) bool {
	if _, ok := c.elems[id]; !ok {
		return false
	}
	c.unlink(id)
	return true
}

func (c *Cache) unlink(id uint64) {
	e := c.elems[id]
	r, _ := c.table.Find(id)
	c.order.Remove(e)
	delete(c.elems, id)
	c.table.Remove(id)
	c.occupiedBytes -= int64(r.Size)
}

// OccupiedBytes returns the sum of resident record sizes.
func (c *Cache) OccupiedBytes() int64 { return c.occupiedBytes }

// NObjects returns the number of resident records.
func (c *Cache) NObjects() int { return c.table.Len() }

// CapacityBytes returns the cache's configured byte capacity.
func (c *Cache) CapacityBytes() int64 { return c.capacityBytes }
