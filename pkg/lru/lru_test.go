package lru

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

func TestHitMovesToFront(t *testing.T) {
	is := assert.New(t)
	t.Parallel()

	c := New(100)
	c.Get(req(1, 10))
	c.Get(req(2, 10))
	c.Get(req(1, 10)) // refresh 1; 2 is now the least recently used

	victim, ok := c.ToEvict(req(0, 0))
	is.True(ok)
	is.EqualValues(2, victim.ID)
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	is := assert.New(t)
	t.Parallel()

	c := New(20)
	c.Get(req(1, 10))
	c.Get(req(2, 10)) // fills capacity exactly
	c.Get(req(1, 10)) // 1 becomes most recent; 2 is now oldest

	c.Get(req(3, 10)) // forces an eviction; 2 should be the victim

	_, ok := c.Find(req(2, 0), false)
	is.False(ok)

	_, ok = c.Find(req(1, 0), false)
	is.True(ok)

	_, ok = c.Find(req(3, 0), false)
	is.True(ok)
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

func TestCanInsertRejectsOversized(t *testing.T) {
	is := assert.New(t)
	t.Parallel()

	c := New(100)
	is.False(c.CanInsert(req(1, 100)))
	is.True(c.CanInsert(req(1, 99)))
}
