package sieve

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

// TestVisitedSurvivesOneScanPass checks the core SIEVE property: a visited
// entry gets one reprieve, its bit cleared, before a second scan pass can
// select it.
func TestVisitedSurvivesOneScanPass(t *testing.T) {
	is := assert.New(t)
	t.Parallel()

	c := New(100)
	c.Get(req(1, 10)) // miss, inserted unvisited
	c.Get(req(2, 10)) // miss, inserted unvisited
	c.Get(req(1, 10)) // hit, 1 becomes visited

	victim, ok := c.ToEvict(req(0, 0))
	is.True(ok)
	is.EqualValues(2, victim.ID, "2 was never visited and is evicted before 1")
}

func TestEvictUnvisitedInInsertionOrder(t *testing.T) {
	is := assert.New(t)
	t.Parallel()

	c := New(20)
	c.Get(req(1, 10))
	c.Get(req(2, 10)) // fills capacity exactly, neither visited

	c.Get(req(3, 10)) // forces an eviction; the hand starts at the tail (1)

	_, ok := c.Find(req(1, 0), false)
	is.False(ok, "1 was the oldest unvisited entry and is evicted")

	_, ok = c.Find(req(2, 0), false)
	is.True(ok)

	_, ok = c.Find(req(3, 0), false)
	is.True(ok)
}

func TestHitDoesNotReorderList(t *testing.T) {
	is := assert.New(t)
	t.Parallel()

	c := New(100)
	c.Get(req(1, 10))
	c.Get(req(2, 10))
	c.Get(req(1, 10)) // hit; SIEVE never moves entries on access

	is.Equal(uint64(2), c.order.Front().Value.(*node).record.ID)
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

func TestRemoveAtHandRepointsHand(t *testing.T) {
	is := assert.New(t)
	t.Parallel()

	c := New(100)
	c.Get(req(1, 10))
	c.Get(req(2, 10))
	c.Evict(req(0, 0)) // hand now sits before the evicted entry

	victim, ok := c.ToEvict(req(0, 0))
	is.True(ok)

	is.True(c.Remove(victim.ID))
	is.Nil(c.hand, "the hand moves off the removed entry to its predecessor")
	is.Equal(0, c.NObjects())
}

func TestCanInsertRejectsOversized(t *testing.T) {
	is := assert.New(t)
	t.Parallel()

	c := New(100)
	is.False(c.CanInsert(req(1, 100)))
	is.True(c.CanInsert(req(1, 99)))
}
