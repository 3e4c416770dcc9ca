package arc

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cachelab/s3fifosize/pkg/cache"
)

func req(id uint64, size uint32) cache.Request {
	return cache.Request{ID: id, Size: size}
}

func TestNew(t *testing.T) {
	is := assert.New(t)
	t.Parallel()

	c := New(100)
	is.Equal(int64(100), c.CapacityBytes())
	is.Equal(int64(0), c.OccupiedBytes())
	is.Equal(0, c.NObjects())
}

func TestGetMissThenHit(t *testing.T) {
	is := assert.New(t)
	t.Parallel()

	c := New(100)
	is.False(c.Get(req(1, 10)))
	is.True(c.Get(req(1, 10)))
	is.Equal(int64(10), c.OccupiedBytes())
	is.Equal(1, c.NObjects())
}

// TestSecondReferencePromotesToT2 mirrors the canonical ARC rule: a first
// reference lands in T1 (seen once); a second reference promotes it to T2
// (seen more than once).
func TestSecondReferencePromotesToT2(t *testing.T) {
	is := assert.New(t)
	t.Parallel()

	c := New(100)
	c.Get(req(1, 10))
	_, ok := c.t1Map[1]
	is.True(ok)

	c.Get(req(1, 10))
	_, ok = c.t1Map[1]
	is.False(ok)
	_, ok = c.t2Map[1]
	is.True(ok)
}

// TestEvictionDemotesToGhost checks that a capacity-forced eviction from T1
// produces a ghost entry in B1 rather than disappearing outright.
func TestEvictionDemotesToGhost(t *testing.T) {
	is := assert.New(t)
	t.Parallel()

	c := New(15)
	c.Get(req(1, 10))
	c.Get(req(2, 10)) // 20 bytes exceed capacity; forces eviction of 1 from T1

	_, ok := c.t1Map[1]
	is.False(ok)
	_, ok = c.b1Map[1]
	is.True(ok)
}

// TestGhostHitAdaptsPTowardT1 exercises the adaptive parameter: a B1 ghost
// hit increases p, biasing future evictions away from T1.
func TestGhostHitAdaptsPTowardT1(t *testing.T) {
	is := assert.New(t)
	t.Parallel()

	c := New(15)
	c.Get(req(1, 10))
	c.Get(req(2, 10)) // evicts 1 into B1

	pBefore := c.p
	c.Get(req(1, 10)) // ghost hit in B1

	is.Greater(c.p, pBefore)
	_, ok := c.b1Map[1]
	is.False(ok, "ghost entry is consumed on hit")
	_, ok = c.t2Map[1]
	is.True(ok, "ghost hit admits directly into T2")
}

func TestRemove(t *testing.T) {
	is := assert.New(t)
	t.Parallel()

	c := New(100)
	c.Get(req(1, 10))
	is.True(c.Remove(1))
	is.False(c.Remove(1))
	is.Equal(int64(0), c.OccupiedBytes())
	is.Equal(0, c.NObjects())
}

func TestRemoveFromGhostList(t *testing.T) {
	is := assert.New(t)
	t.Parallel()

	c := New(15)
	c.Get(req(1, 10))
	c.Get(req(2, 10)) // evicts 1 into B1

	is.True(c.Remove(1))
	_, ok := c.b1Map[1]
	is.False(ok)
}

func TestCanInsertRejectsOversized(t *testing.T) {
	is := assert.New(t)
	t.Parallel()

	c := New(100)
	is.False(c.CanInsert(req(1, 100)))
	is.True(c.CanInsert(req(1, 99)))
}

func TestNeverExceedsCapacity(t *testing.T) {
	is := assert.New(t)
	t.Parallel()

	c := New(500)
	for id := uint64(1); id <= 200; id++ {
		size := uint32(10 + (id*7)%40)
		c.Get(req(id%23, size))
		is.LessOrEqual(c.OccupiedBytes(), int64(500))
	}
}
