package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cachelab/s3fifosize/pkg/cache"
	"github.com/cachelab/s3fifosize/pkg/objtable"
)

func req(id uint64, size uint32) cache.Request {
	return cache.Request{ID: id, Size: size}
}

func TestNew(t *testing.T) {
	is := assert.New(t)
	t.Parallel()

	q := New(100)
	is.Equal(int64(100), q.CapacityBytes())
	is.Equal(int64(0), q.OccupiedBytes())
	is.Equal(0, q.NObjects())
}

func TestPushTailAndPeekHead(t *testing.T) {
	is := assert.New(t)
	t.Parallel()

	q := New(100)
	q.PushTail(&objtable.Record{ID: 1, Size: 10})
	q.PushTail(&objtable.Record{ID: 2, Size: 10})

	head, ok := q.PeekHead()
	require.True(t, ok)
	is.EqualValues(1, head.ID, "the earliest pushed record is the head")
}

func TestFindNeverReordersOnHit(t *testing.T) {
	is := assert.New(t)
	t.Parallel()

	q := New(100)
	q.PushTail(&objtable.Record{ID: 1, Size: 10})
	q.PushTail(&objtable.Record{ID: 2, Size: 10})

	_, ok := q.Find(req(1, 0), true)
	is.True(ok)

	head, _ := q.PeekHead()
	is.EqualValues(1, head.ID, "a hit never promotes in a plain FIFO")
}

func TestPopHeadRemovesInInsertionOrder(t *testing.T) {
	is := assert.New(t)
	t.Parallel()

	q := New(100)
	q.PushTail(&objtable.Record{ID: 1, Size: 10})
	q.PushTail(&objtable.Record{ID: 2, Size: 10})

	r, ok := q.PopHead()
	require.True(t, ok)
	is.EqualValues(1, r.ID)
	is.Equal(int64(10), q.OccupiedBytes())
	is.Equal(1, q.NObjects())
}

func TestRemove(t *testing.T) {
	is := assert.New(t)
	t.Parallel()

	q := New(100)
	q.PushTail(&objtable.Record{ID: 1, Size: 10})

	is.True(q.Remove(1))
	is.False(q.Remove(1))
	is.Equal(int64(0), q.OccupiedBytes())
	is.Equal(0, q.NObjects())
}

func TestGetMissThenHitBumpsFreq(t *testing.T) {
	is := assert.New(t)
	t.Parallel()

	q := New(100)
	is.False(q.Get(req(1, 10)))
	is.True(q.Get(req(1, 10)))

	r, ok := q.Find(req(1, 0), false)
	require.True(t, ok)
	is.Equal(uint8(2), r.Freq)
}

func TestGetEvictsHeadWhenFull(t *testing.T) {
	is := assert.New(t)
	t.Parallel()

	q := New(20)
	q.Get(req(1, 10))
	q.Get(req(2, 10)) // fills capacity exactly

	q.Get(req(3, 10)) // forces an eviction of the head, id 1

	_, ok := q.Find(req(1, 0), false)
	is.False(ok)
	_, ok = q.Find(req(2, 0), false)
	is.True(ok)
	_, ok = q.Find(req(3, 0), false)
	is.True(ok)
}

func TestCanInsertRejectsOversized(t *testing.T) {
	is := assert.New(t)
	t.Parallel()

	q := New(100)
	is.False(q.CanInsert(req(1, 100)))
	is.True(q.CanInsert(req(1, 99)))
}
