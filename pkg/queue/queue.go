// Package queue implements the FIFO primitive: an ordered sequence of
// object records with O(1) expected head, tail and remove-by-id. It also
// implements cache.Cache directly, since a plain FIFO is the default
// backing for every sub-queue the S3-FIFO engine composes, and any cache
// honoring the contract may substitute for it.
package queue

import (
	"container/list"

	"github.com/cachelab/s3fifosize/internal"
	"github.com/cachelab/s3fifosize/pkg/cache"
	"github.com/cachelab/s3fifosize/pkg/objtable"
)

// Queue is an insertion-ordered sequence of object records bounded by a
// byte capacity. It never reorders on a hit: Find walks the table only, and
// the sequence stays in strict insertion order with no promotion-to-front.
type Queue struct {
	noCopy internal.NoCopy

	capacityBytes int64
	occupiedBytes int64

	table *objtable.Table
	order *list.List // Value = uint64 id, oldest at Front, newest at Back
	elems map[uint64]*list.Element
}

var _ cache.Cache = (*Queue)(nil)

// New creates an empty Queue bounded by capacityBytes.
func New(capacityBytes int64) *Queue {
	return &Queue{
		capacityBytes: capacityBytes,
		table:         objtable.NewTable(),
		order:         list.New(),
		elems:         make(map[uint64]*list.Element),
	}
}

// CapacityBytes returns the queue's configured byte capacity.
func (q *Queue) CapacityBytes() int64 { return q.capacityBytes }

// PushTail appends a record to the tail of the queue. Staying within
// capacity is the caller's responsibility: PushTail itself does not check
// capacity.
func (q *Queue) PushTail(r *objtable.Record) {
	q.table.Insert(r)
	e := q.order.PushBack(r.ID)
	q.elems[r.ID] = e
	q.occupiedBytes += int64(r.Size)
}

// PeekHead returns the head record without mutating the queue.
func (q *Queue) PeekHead() (*objtable.Record, bool) {
	e := q.order.Front()
	if e == nil {
		return nil, false
	}
	r, ok := q.table.Find(e.Value.(uint64))
	if !ok {
		panic("queue: head id missing from object table")
	}
	return r, true
}

// PopHead removes and returns the head record.
func (q *Queue) PopHead() (*objtable.Record, bool) {
	r, ok := q.PeekHead()
	if !ok {
		return nil, false
	}
	q.unlink(r)
	return r, true
}

// Remove deletes id from the queue. Returns true iff id was present.
func (q *Queue) Remove(id uint64) bool {
	r, ok := q.table.Find(id)
	if !ok {
		return false
	}
	q.unlink(r)
	return true
}

// Find looks up id. update is informational only for a plain FIFO (the
// caller may still mutate the returned record's frequency field directly);
// Find never reorders the queue regardless of update.
func (q *Queue) Find(req cache.Request, update bool) (*objtable.Record, bool) {
	return q.table.Find(req.ID)
}

func (q *Queue) unlink(r *objtable.Record) {
	e := q.elems[r.ID]
	q.order.Remove(e)
	delete(q.elems, r.ID)
	q.table.Remove(r.ID)
	q.occupiedBytes -= int64(r.Size)
}

// OccupiedBytes returns the sum of resident record sizes.
func (q *Queue) OccupiedBytes() int64 { return q.occupiedBytes }

// NObjects returns the number of resident records.
func (q *Queue) NObjects() int { return q.table.Len() }

// CanInsert is the hard admission regime: reject only a request at least as
// large as the queue's capacity.
func (q *Queue) CanInsert(req cache.Request) bool {
	return int64(req.Size) < q.capacityBytes
}

// ToEvict returns the head record without removing it.
func (q *Queue) ToEvict(req cache.Request) (*objtable.Record, bool) {
	return q.PeekHead()
}

// Evict removes the head record, the only victim choice a plain FIFO has.
func (q *Queue) Evict(req cache.Request) {
	if _, ok := q.PopHead(); !ok {
		panic("queue: evict called on empty queue")
	}
}

// Insert places a new record for req at the tail with frequency 1, or
// bumps the frequency of an id already present. Callers that need
// different placement semantics (e.g. the S3-FIFO engine's ghost
// bookkeeping) should use PushTail/Remove directly instead.
func (q *Queue) Insert(req cache.Request) {
	if r, ok := q.table.Find(req.ID); ok {
		r.BumpFreq()
		return
	}
	q.PushTail(&objtable.Record{ID: req.ID, Size: req.Size, Freq: 1})
}

// Get performs a full find-or-admit cycle: on a hit it bumps the record's
// frequency; on a miss it evicts head-to-tail until req fits, then inserts.
func (q *Queue) Get(req cache.Request) bool {
	if r, ok := q.table.Find(req.ID); ok {
		r.BumpFreq()
		return true
	}

	if !q.CanInsert(req) {
		return false
	}

	for q.occupiedBytes+int64(req.Size) > q.capacityBytes {
		if q.order.Len() == 0 {
			break
		}
		q.Evict(req)
	}

	q.PushTail(&objtable.Record{ID: req.ID, Size: req.Size, Freq: 1})
	return false
}
