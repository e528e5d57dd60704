package layout

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/appdeck/model"
)

func TestLayout_Stride(t *testing.T) {
	assert.Equal(t, 2*128+12, Default().Stride())
	assert.Equal(t, 127, Default().MaxFieldLength())
	assert.Equal(t, 2*16+12, Layout{FieldCapacity: 16}.Stride())
	// Unusable capacities fall back to the default.
	assert.Equal(t, Default().Stride(), Layout{FieldCapacity: 1}.Stride())
}

func TestItemBuffer_StoreAndRecord(t *testing.T) {
	buf := NewItemBuffer(Default())
	buf.Reset(2)
	buf.Store(0, 7, "safari", "com.apple.safari")
	buf.Store(1, 9, "", "")

	require.Equal(t, 2, buf.Len())
	assert.Len(t, buf.Bytes(), 2*Default().Stride())

	r0 := buf.Record(0)
	assert.Equal(t, "safari", string(r0.Name))
	assert.Equal(t, "com.apple.safari", string(r0.Key))
	assert.Equal(t, uint32(7), r0.Index)

	r1 := buf.Record(1)
	assert.Empty(t, r1.Name)
	assert.Empty(t, r1.Key)
	assert.Equal(t, uint32(9), r1.Index)
}

func TestItemBuffer_TruncatesSilently(t *testing.T) {
	l := Layout{FieldCapacity: 8}
	buf := NewItemBuffer(l)
	buf.Reset(1)
	buf.Store(0, 0, "abcdefghijkl", "xyz")

	rec := buf.Record(0)
	assert.Equal(t, "abcdefg", string(rec.Name), "name clamps to capacity-1")
	assert.Equal(t, "xyz", string(rec.Key))

	// Terminator byte stays zero.
	assert.Equal(t, byte(0), buf.Bytes()[7])

	// A multi-byte rune straddling the limit is dropped entirely.
	buf.Store(0, 0, "abcdefé", "")
	assert.Equal(t, "abcdef", string(buf.Record(0).Name))
}

func TestItemBuffer_ReuseOverwrites(t *testing.T) {
	buf := NewItemBuffer(Layout{FieldCapacity: 16})
	buf.Reset(2)
	buf.Store(0, 0, "a long item name", "com.example.long")
	buf.Store(1, 1, "second", "key")

	buf.Reset(1)
	buf.Store(0, 0, "ab", "k")

	rec := buf.Record(0)
	assert.Equal(t, "ab", string(rec.Name))
	assert.Equal(t, "k", string(rec.Key))

	// No bytes from the previous, longer name remain in the record.
	stride := buf.Layout().Stride()
	name := buf.Bytes()[:16]
	assert.Equal(t, strings.Repeat("\x00", 14), string(name[2:]))
	assert.Len(t, buf.Bytes(), stride)
}

func TestQueryBuffer(t *testing.T) {
	q := NewQueryBuffer(8)
	assert.Equal(t, 8, q.Capacity())

	q.Store("saf")
	assert.Equal(t, "saf", string(q.Bytes()))

	q.Store("0123456789")
	assert.Equal(t, "0123456", string(q.Bytes()))

	q.Store("")
	assert.Empty(t, q.Bytes())

	assert.Equal(t, DefaultQueryCapacity, NewQueryBuffer(0).Capacity())
}

func TestResultBuffer_Reset(t *testing.T) {
	var r ResultBuffer
	r.Reset(3)
	r.Kind[1] = 2
	r.Score[1] = 42
	r.Pos[1] = 3

	r.Reset(2)
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []uint8{0, 0}, r.Kind)
	assert.Equal(t, []float32{0, 0}, r.Score)
	assert.Equal(t, []int32{-1, -1}, r.Pos)
}

func TestPool_Load(t *testing.T) {
	p := NewPool(Default(), DefaultQueryCapacity)
	tb := p.Get()
	defer p.Put(tb)

	items := []model.SearchItem{
		{ID: "1", Name: "Safari", SecondaryKey: "com.apple.Safari"},
		{ID: "2", Name: "Pages", SecondaryKey: "com.apple.Pages"},
	}
	tb.Order = append(tb.Order, 5, 6)
	tb.Load(items, "saf")

	assert.Equal(t, "saf", string(tb.Query.Bytes()))
	require.Equal(t, 2, tb.Items.Len())
	assert.Equal(t, "safari", string(tb.Items.Record(0).Name))
	assert.Equal(t, "com.apple.pages", string(tb.Items.Record(1).Key))
	assert.Equal(t, 2, tb.Results.Len())
	assert.Empty(t, tb.Order)
}
