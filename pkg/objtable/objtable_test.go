package objtable

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInsertAndFind(t *testing.T) {
	is := assert.New(t)
	t.Parallel()

	tbl := NewTable()
	r := &Record{ID: 1, Size: 10, Freq: 1}
	tbl.Insert(r)

	got, ok := tbl.Find(1)
	is.True(ok)
	is.Same(r, got)
	is.Equal(1, tbl.Len())
}

func TestFindMissing(t *testing.T) {
	is := assert.New(t)
	t.Parallel()

	tbl := NewTable()
	_, ok := tbl.Find(1)
	is.False(ok)
}

func TestRemove(t *testing.T) {
	is := assert.New(t)
	t.Parallel()

	tbl := NewTable()
	tbl.Insert(&Record{ID: 1, Size: 10})

	is.True(tbl.Remove(1))
	is.False(tbl.Remove(1))
	is.Equal(0, tbl.Len())
}

func TestBumpFreqSaturatesAtMaxFreq(t *testing.T) {
	is := assert.New(t)
	t.Parallel()

	r := &Record{ID: 1, Size: 10}
	for i := 0; i < int(MaxFreq)+5; i++ {
		r.BumpFreq()
	}
	is.Equal(MaxFreq, r.Freq)
}

func TestPerRecordOverheadIsPositive(t *testing.T) {
	assert.Greater(t, PerRecordOverhead, int64(0))
}
