// Package objtable implements the object table every FIFO in the engine is
// built on: an associative id -> record lookup, scoped to a single queue.
package objtable

import "github.com/DmitriyVTitov/size"

// Record represents a resident (or ghost) object. Records are owned by
// exactly one queue at a time; a record's identity is unique across the
// small and main queues of one engine (they share one address space), and
// the ghost queue is a disjoint address space (see cache invariant 2).
type Record struct {
	ID uint64
	// Size is the object's size in bytes as reported by the request that
	// admitted it.
	Size uint32
	// Freq is a saturating frequency counter, capped at MaxFreq.
	Freq uint8
	// InsertionMarker is the cumulative admitted-byte counter at the time
	// this record was inserted into the small queue. The engine sets it on
	// every small-queue admission; no code in this module reads it (the hit
	// path has no age gate).
	InsertionMarker uint64
}

// MaxFreq is the saturation point of Record.Freq.
const MaxFreq uint8 = 4

// BumpFreq increments r.Freq, saturating at MaxFreq.
func (r *Record) BumpFreq() {
	if r.Freq < MaxFreq {
		r.Freq++
	}
}

// PerRecordOverhead is a one-time measurement of a Record's approximate
// in-memory footprint. The eviction loop budgets occupied_bytes + req.size
// + per-object-overhead against capacity; this gives that term a concrete,
// measured value rather than a guessed constant.
var PerRecordOverhead = int64(size.Of(Record{}))

// Table is an associative id -> Record lookup scoped to a single queue.
// Hash collisions are resolved by Go's built-in map, which is the idiomatic
// choice the whole corpus uses for this role; nothing here requires chaining
// or open addressing over it.
type Table struct {
	records map[uint64]*Record
}

// NewTable creates an empty object table.
func NewTable() *Table {
	return &Table{records: make(map[uint64]*Record)}
}

// Find looks up id, returning the record and whether it was present.
func (t *Table) Find(id uint64) (*Record, bool) {
	r, ok := t.records[id]
	return r, ok
}

// Insert adds or replaces the record under its own ID. The caller must not
// insert a duplicate ID without first removing the existing one (FIFO
// invariant: no duplicate ids within one FIFO).
func (t *Table) Insert(r *Record) {
	t.records[r.ID] = r
}

// Remove deletes id from the table. Returns true iff id was present.
func (t *Table) Remove(id uint64) bool {
	if _, ok := t.records[id]; !ok {
		return false
	}
	delete(t.records, id)
	return true
}

// Len returns the number of records currently tracked.
func (t *Table) Len() int {
	return len(t.records)
}
