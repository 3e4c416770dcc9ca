// Package arc adapts the Adaptive Replacement Cache algorithm to the
// byte-size accounting contract in cache.Cache. ARC maintains four lists:
// T1 (recently seen once), T2 (seen more than once), and two ghost lists
// B1/B2 that remember recently evicted keys without their values. A ghost
// hit nudges the adaptive parameter p, which decides whether the next
// eviction comes from T1 or T2.
//
// The original ARC paper sizes these lists by item count; here every list
// is sized and trimmed by byte footprint, and p is carried in bytes rather
// than item counts.
package arc

import (
	"container/list"

	"github.com/cachelab/s3fifosize/internal"
	"github.com/cachelab/s3fifosize/pkg/cache"
	"github.com/cachelab/s3fifosize/pkg/objtable"
)

// Cache is a byte-capacity-bounded Adaptive Replacement Cache.
type Cache struct {
	noCopy internal.NoCopy

	capacityBytes int64
	p             int64 // adaptive target size, in bytes, for T1

	t1, t2, b1, b2             *list.List
	t1Map, t2Map, b1Map, b2Map map[uint64]*list.Element
	t1Bytes, t2Bytes           int64
	b1Bytes, b2Bytes           int64
}

var _ cache.Cache = (*Cache)(nil)

// New creates an empty Cache bounded by capacityBytes.
func New(capacityBytes int64) *Cache {
	return &Cache{
		capacityBytes: capacityBytes,
		t1:            list.New(),
		t2:            list.New(),
		b1:            list.New(),
		b2:            list.New(),
		t1Map:         make(map[uint64]*list.Element),
		t2Map:         make(map[uint64]*list.Element),
		b1Map:         make(map[uint64]*list.Element),
		b2Map:         make(map[uint64]*list.Element),
	}
}

// Find looks up req.ID among resident (T1 or T2) records. A T1 hit with
// update promotes the record to T2 (it has now been seen more than once);
// a T2 hit with update refreshes its recency. Ghost entries in B1/B2 are
// not resident and never match here.
func (c *Cache) Find(req cache.Request, update bool) (*objtable.Record, bool) {
	if e, ok := c.t1Map[req.ID]; ok {
		r := e.Value.(*objtable.Record)
		if !update {
			return r, true
		}
		c.t1.Remove(e)
		delete(c.t1Map, req.ID)
		c.t1Bytes -= int64(r.Size)
		ne := c.t2.PushFront(r)
		c.t2Map[req.ID] = ne
		c.t2Bytes += int64(r.Size)
		return r, true
	}
	if e, ok := c.t2Map[req.ID]; ok {
		if update {
			c.t2.MoveToFront(e)
		}
		return e.Value.(*objtable.Record), true
	}
	return nil, false
}

// CanInsert rejects only a request at least as large as the whole capacity.
func (c *Cache) CanInsert(req cache.Request) bool {
	return int64(req.Size) < c.capacityBytes
}

// ToEvict reports the victim the canonical rule would pick right now: T1's
// tail when T1 occupies at least p bytes, T2's tail otherwise.
func (c *Cache) ToEvict(req cache.Request) (*objtable.Record, bool) {
	if e := c.victimElement(); e != nil {
		return e.Value.(*objtable.Record), true
	}
	return nil, false
}

func (c *Cache) victimElement() *list.Element {
	floor := c.p
	if floor < 1 {
		floor = 1
	}
	if c.t1Bytes >= floor && c.t1.Len() > 0 {
		return c.t1.Back()
	}
	if c.t2.Len() > 0 {
		return c.t2.Back()
	}
	return c.t1.Back()
}

// Evict applies the canonical rule once, moving the chosen victim to its
// ghost list.
func (c *Cache) Evict(req cache.Request) {
	floor := c.p
	if floor < 1 {
		floor = 1
	}
	if c.t1Bytes >= floor && c.t1.Len() > 0 {
		c.evictFromT1()
		return
	}
	if c.t2.Len() > 0 {
		c.evictFromT2()
		return
	}
	if c.t1.Len() > 0 {
		c.evictFromT1()
		return
	}
	panic("arc: evict called on empty cache")
}

func (c *Cache) evictFromT1() {
	e := c.t1.Back()
	if e == nil {
		return
	}
	r := e.Value.(*objtable.Record)
	c.t1.Remove(e)
	delete(c.t1Map, r.ID)
	c.t1Bytes -= int64(r.Size)

	ge := c.b1.PushFront(r)
	c.b1Map[r.ID] = ge
	c.b1Bytes += int64(r.Size)
	c.trimGhost(c.b1, c.b1Map, &c.b1Bytes)
}

func (c *Cache) evictFromT2() {
	e := c.t2.Back()
	if e == nil {
		return
	}
	r := e.Value.(*objtable.Record)
	c.t2.Remove(e)
	delete(c.t2Map, r.ID)
	c.t2Bytes -= int64(r.Size)

	ge := c.b2.PushFront(r)
	c.b2Map[r.ID] = ge
	c.b2Bytes += int64(r.Size)
	c.trimGhost(c.b2, c.b2Map, &c.b2Bytes)
}

func (c *Cache) trimGhost(l *list.List, m map[uint64]*list.Element, bytes *int64) {
	for *bytes > c.capacityBytes {
		old := l.Back()
		if old == nil {
			return
		}
		r := old.Value.(*objtable.Record)
		l.Remove(old)
		delete(m, r.ID)
		*bytes -= int64(r.Size)
	}
}

// Insert admits a brand-new key at the front of T1. Callers that have just
// resolved a ghost hit should use Get instead, which folds the adaptive
// bookkeeping in.
func (c *Cache) Insert(req cache.Request) {
	r := &objtable.Record{ID: req.ID, Size: req.Size, Freq: 1}
	e := c.t1.PushFront(r)
	c.t1Map[req.ID] = e
	c.t1Bytes += int64(req.Size)
}

// Remove deletes req.ID from whichever list holds it, resident or ghost.
func (c *Cache) Remove(id uint64) bool {
	if e, ok := c.t1Map[id]; ok {
		r := e.Value.(*objtable.Record)
		c.t1.Remove(e)
		delete(c.t1Map, id)
		c.t1Bytes -= int64(r.Size)
		return true
	}
	if e, ok := c.t2Map[id]; ok {
		r := e.Value.(*objtable.Record)
		c.t2.Remove(e)
		delete(c.t2Map, id)
		c.t2Bytes -= int64(r.Size)
		return true
	}
	if e, ok := c.b1Map[id]; ok {
		r := e.Value.(*objtable.Record)
		c.b1.Remove(e)
		delete(c.b1Map, id)
		c.b1Bytes -= int64(r.Size)
		return true
	}
	if e, ok := c.b2Map[id]; ok {
		r := e.Value.(*objtable.Record)
		c.b2.Remove(e)
		delete(c.b2Map, id)
		c.b2Bytes -= int64(r.Size)
		return true
	}
	return false
}

// OccupiedBytes returns the sum of T1 and T2 resident record sizes; ghost
// entries carry no occupancy.
func (c *Cache) OccupiedBytes() int64 { return c.t1Bytes + c.t2Bytes }

// NObjects returns the number of resident (T1 plus T2) records.
func (c *Cache) NObjects() int { return len(c.t1Map) + len(c.t2Map) }

// CapacityBytes returns the cache's configured byte capacity.
func (c *Cache) CapacityBytes() int64 { return c.capacityBytes }

// Get performs a full ARC access cycle: a resident hit promotes/refreshes
// per Find; a ghost hit adapts p, evicts by the canonical rule, and admits
// the record into T2; a complete miss runs ARC's replacement policy before
// admitting into T1.
func (c *Cache) Get(req cache.Request) bool {
	if _, hit := c.Find(req, true); hit {
		return true
	}

	if !c.CanInsert(req) {
		return false
	}

	if _, ok := c.b1Map[req.ID]; ok {
		c.ghostHit(req, true)
		return false
	}
	if _, ok := c.b2Map[req.ID]; ok {
		c.ghostHit(req, false)
		return false
	}

	c.miss(req)
	return false
}

// ghostHit handles a reference to a key currently recorded only in a ghost
// list: it adapts p toward whichever tier the hit came from, evicts once by
// the canonical rule (and again while req would not fit), and admits the
// record at the front of T2.
func (c *Cache) ghostHit(req cache.Request, fromB1 bool) {
	if fromB1 {
		if e, ok := c.b1Map[req.ID]; ok {
			r := e.Value.(*objtable.Record)
			c.b1.Remove(e)
			delete(c.b1Map, req.ID)
			c.b1Bytes -= int64(r.Size)
		}
	} else {
		if e, ok := c.b2Map[req.ID]; ok {
			r := e.Value.(*objtable.Record)
			c.b2.Remove(e)
			delete(c.b2Map, req.ID)
			c.b2Bytes -= int64(r.Size)
		}
	}

	if fromB1 {
		delta := int64(1)
		if c.b1Bytes != 0 {
			delta = maxI64(1, c.b2Bytes/c.b1Bytes)
		}
		c.p = minI64(c.p+delta, c.capacityBytes)
	} else {
		delta := int64(1)
		if c.b2Bytes != 0 {
			delta = maxI64(1, c.b1Bytes/c.b2Bytes)
		}
		c.p = maxI64(c.p-delta, 0)
	}

	if c.t1.Len() > 0 || c.t2.Len() > 0 {
		c.Evict(req)
	}
	for c.t1Bytes+c.t2Bytes+int64(req.Size) > c.capacityBytes && (c.t1.Len() > 0 || c.t2.Len() > 0) {
		c.Evict(req)
	}

	r := &objtable.Record{ID: req.ID, Size: req.Size, Freq: 1}
	e := c.t2.PushFront(r)
	c.t2Map[req.ID] = e
	c.t2Bytes += int64(req.Size)
}

// miss runs ARC's canonical replacement policy for a key seen in neither
// resident nor ghost lists, evicts further while req would not fit, then
// admits it into T1.
func (c *Cache) miss(req cache.Request) {
	t1b1 := c.t1Bytes + c.b1Bytes

	if t1b1 >= c.capacityBytes {
		if c.t1Bytes >= c.capacityBytes {
			c.evictFromT1()
		} else if c.b1.Len() > 0 {
			old := c.b1.Back()
			r := old.Value.(*objtable.Record)
			c.b1.Remove(old)
			delete(c.b1Map, r.ID)
			c.b1Bytes -= int64(r.Size)
			if c.t1.Len() > 0 || c.t2.Len() > 0 {
				c.Evict(req)
			}
		} else if c.t1.Len() > 0 || c.t2.Len() > 0 {
			c.Evict(req)
		}
	} else {
		total := c.t1Bytes + c.t2Bytes + c.b1Bytes + c.b2Bytes
		if total >= c.capacityBytes {
			if total >= 2*c.capacityBytes && c.b2.Len() > 0 {
				old := c.b2.Back()
				r := old.Value.(*objtable.Record)
				c.b2.Remove(old)
				delete(c.b2Map, r.ID)
				c.b2Bytes -= int64(r.Size)
			}
			if c.t1.Len() > 0 || c.t2.Len() > 0 {
				c.Evict(req)
			}
		}
	}

	for c.t1Bytes+c.t2Bytes+int64(req.Size) > c.capacityBytes && (c.t1.Len() > 0 || c.t2.Len() > 0) {
		c.Evict(req)
	}

	c.Insert(req)
}

func minI64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func maxI64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
