package rescache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_GetPut(t *testing.T) {
	c := New(4)
	_, ok := c.Get("saf")
	assert.False(t, ok)

	ids := []string{"a", "b"}
	c.Put("saf", ids)
	ids[0] = "mutated"

	got, ok := c.Get("saf")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, got, "Put must copy its input")

	hits, misses, _ := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}

func TestCache_EmptyResultIsCached(t *testing.T) {
	c := New(2)
	c.Put("zzz", nil)
	got, ok := c.Get("zzz")
	assert.True(t, ok)
	assert.Empty(t, got)
}

func TestCache_InsertionOrderEviction(t *testing.T) {
	c := New(3)
	c.Put("q1", []string{"1"})
	c.Put("q2", []string{"2"})
	c.Put("q3", []string{"3"})

	// Reading q1 does not protect it: eviction is by insertion, not access.
	_, ok := c.Get("q1")
	require.True(t, ok)

	c.Put("q4", []string{"4"})
	assert.Equal(t, 3, c.Len())

	_, ok = c.Get("q1")
	assert.False(t, ok, "oldest insertion must be evicted first")
	for _, q := range []string{"q2", "q3", "q4"} {
		_, ok := c.Get(q)
		assert.True(t, ok, q)
	}

	_, _, evictions := c.Stats()
	assert.Equal(t, int64(1), evictions)
}

func TestCache_RePutKeepsPosition(t *testing.T) {
	c := New(2)
	c.Put("q1", []string{"old"})
	c.Put("q2", []string{"2"})
	c.Put("q1", []string{"new"})

	got, _ := c.Get("q1")
	assert.Equal(t, []string{"new"}, got)

	c.Put("q3", []string{"3"})
	_, ok := c.Get("q1")
	assert.False(t, ok, "re-put must not refresh insertion order")
}

func TestCache_Clear(t *testing.T) {
	c := New(0)
	assert.Equal(t, DefaultMaxEntries, c.Capacity())

	c.Put("q", []string{"x"})
	c.Clear()
	assert.Zero(t, c.Len())
	_, ok := c.Get("q")
	assert.False(t, ok)
}

func TestCache_Concurrent(t *testing.T) {
	c := New(10)
	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 200 {
				q := fmt.Sprintf("q%d", (g*200+i)%37)
				c.Put(q, []string{q})
				if ids, ok := c.Get(q); ok {
					assert.Equal(t, []string{q}, ids)
				}
				if i%50 == 0 {
					c.Clear()
				}
			}
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 10)
}
