// Package cache defines the uniform capability contract that both the
// S3-FIFO engine and every sub-queue it composes implement. The engine
// never depends on which concrete implementation backs a sub-queue: the
// default is a plain FIFO (pkg/queue), but any cache honoring this contract
// may substitute (pkg/lru, pkg/arc, pkg/sieve, pkg/twoqueue).
package cache

import "github.com/cachelab/s3fifosize/pkg/objtable"

// Request is a single incoming object reference. NextAccessVTime is carried
// for oracular algorithms outside this module's scope and is left at its
// zero value by every caller here.
type Request struct {
	ClockTime       int64
	ID              uint64
	Size            uint32
	NextAccessVTime int64
}

// Cache is the capability aggregate every queue in the engine implements,
// whether it is a plain FIFO, the S3-FIFO engine itself, or an alternate
// eviction algorithm substituted in its place.
type Cache interface {
	// Get returns hit/miss; on miss, admits if admissible, evicts until
	// space, and inserts.
	Get(req Request) (hit bool)

	// Find performs a lookup only. When update is true, the caller is
	// permitted to mutate the returned record's metadata (e.g. bump
	// frequency). A plain FIFO (pkg/queue) never reorders on Find; the
	// recency-ordered implementations (pkg/lru, pkg/arc) move a hit record
	// within their lists when update is true.
	Find(req Request, update bool) (*objtable.Record, bool)

	// Insert places a record. The caller guarantees space and a
	// non-duplicate id.
	Insert(req Request)

	// Evict removes records to make room. The S3-FIFO engine evicts until
	// req.Size fits; pkg/queue, pkg/lru, pkg/sieve, pkg/arc and
	// pkg/twoqueue remove a single victim per call without looking at
	// req.Size, and their own Get paths free space for a request.
	Evict(req Request)

	// ToEvict returns the next eviction victim without removing it.
	// Implementations that cannot decouple victim-selection from eviction
	// return ok=false.
	ToEvict(req Request) (victim *objtable.Record, ok bool)

	// Remove is a user-driven removal, distinct from Evict.
	Remove(id uint64) bool

	// CanInsert is the admission decision.
	CanInsert(req Request) bool

	// OccupiedBytes reports the live byte occupancy.
	OccupiedBytes() int64

	// NObjects reports the live object count.
	NObjects() int
}
