// Package sieve adapts the SIEVE eviction algorithm
// (https://cachemon.github.io/SIEVE-website/) to the byte-size accounting
// contract in cache.Cache: a single "hand" pointer scans from its last
// position toward the front (newer entries) for an entry whose visited bit is
// clear, clearing visited bits as it passes over set ones, choosing a
// victim without ever reordering the list on a hit.
package sieve

import (
	"container/list"

	"github.com/cachelab/s3fifosize/internal"
	"github.com/cachelab/s3fifosize/pkg/cache"
	"github.com/cachelab/s3fifosize/pkg/objtable"
)

type node struct {
	record  *objtable.Record
	visited bool
}

// Cache is a byte-capacity-bounded SIEVE cache.
type Cache struct {
	noCopy internal.NoCopy

	capacityBytes int64
	occupiedBytes int64

	order *list.List // newest at Front, oldest at Back
	elems map[uint64]*list.Element
	hand  *list.Element
}

var _ cache.Cache = (*Cache)(nil)

// New creates an empty Cache bounded by capacityBytes.
func New(capacityBytes int64) *Cache {
	return &Cache{
		capacityBytes: capacityBytes,
		order:         list.New(),
		elems:         make(map[uint64]*list.Element),
	}
}

// Find looks up req.ID. A hit sets the visited bit when update is true; it
// never moves the entry within the list.
func (c *Cache) Find(req cache.Request, update bool) (*objtable.Record, bool) {
	e, ok := c.elems[req.ID]
	if !ok {
		return nil, false
	}
	n := e.Value.(*node)
	if update {
		n.visited = true
	}
	return n.record, true
}

// CanInsert rejects only a request at least as large as the whole capacity.
func (c *Cache) CanInsert(req cache.Request) bool {
	return int64(req.Size) < c.capacityBytes
}

// ToEvict runs the hand scan without removing the record it lands on. The
// scan's visited-bit clearing is part of the algorithm itself, so repeated
// calls to ToEvict without an intervening Evict can still change which
// record comes back.
func (c *Cache) ToEvict(req cache.Request) (*objtable.Record, bool) {
	e := c.scan()
	if e == nil {
		return nil, false
	}
	return e.Value.(*node).record, true
}

// Evict removes the next SIEVE victim and leaves the hand at its predecessor.
func (c *Cache) Evict(req cache.Request) {
	e := c.scan()
	if e == nil {
		panic("sieve: evict called on empty cache")
	}
	c.hand = e.Prev()
	c.unlink(e)
}

// scan walks from the hand's last position toward the front, clearing
// visited bits as it passes, until it finds an unvisited entry. If the hand
// is nil or runs off the front without finding one, it restarts from Back.
func (c *Cache) scan() *list.Element {
	if c.order.Len() == 0 {
		return nil
	}

	e := c.hand
	if e == nil {
		e = c.order.Back()
	}

	for e != nil && e.Value.(*node).visited {
		e.Value.(*node).visited = false
		e = e.Prev()
	}

	if e == nil {
		e = c.order.Back()
		for e.Value.(*node).visited {
			e.Value.(*node).visited = false
			e = e.Prev()
		}
	}

	return e
}

// Insert places req at the front of the list with visited unset, or marks
// an already-resident record visited.
func (c *Cache) Insert(req cache.Request) {
	if e, ok := c.elems[req.ID]; ok {
		e.Value.(*node).visited = true
		return
	}
	r := &objtable.Record{ID: req.ID, Size: req.Size, Freq: 1}
	c.elems[req.ID] = c.order.PushFront(&node{record: r})
	c.occupiedBytes += int64(req.Size)
}

// Get performs a full find-or-admit cycle.
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
	e, ok := c.elems[id]
	if !ok {
		return false
	}
	if c.hand == e {
		c.hand = e.Prev()
	}
	c.unlink(e)
	return true
}

func (c *Cache) unlink(e *list.Element) {
	n := e.Value.(*node)
	c.order.Remove(e)
	delete(c.elems, n.record.ID)
	c.occupiedBytes -= int64(n.record.Size)
}

// OccupiedBytes returns the sum of resident record sizes.
func (c *Cache) OccupiedBytes() int64 { return c.occupiedBytes }

// NObjects returns the number of resident records.
func (c *Cache) NObjects() int { return len(c.elems) }

// CapacityBytes returns the cache's configured byte capacity.
func (c *Cache) CapacityBytes() int64 { return c.capacityBytes }
