package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestItems_Deterministic(t *testing.T) {
	a := NewRNG(4711).Items(50)
	b := NewRNG(4711).Items(50)
	assert.Equal(t, a, b)

	seen := make(map[string]bool)
	for _, it := range a {
		assert.NotEmpty(t, it.Name)
		assert.NotEmpty(t, it.SecondaryKey)
		assert.False(t, seen[it.ID], "duplicate id %s", it.ID)
		seen[it.ID] = true
	}
}

func TestReset(t *testing.T) {
	rng := NewRNG(7)
	first := rng.Items(5)
	rng.Reset()
	assert.Equal(t, first, rng.Items(5))
	assert.Equal(t, int64(7), rng.Seed())
}

func TestQuery(t *testing.T) {
	rng := NewRNG(42)
	items := rng.Items(20)
	for range 20 {
		q := rng.Query(items, 4)
		assert.NotEmpty(t, q)
		assert.LessOrEqual(t, len(q), 4)
	}
	assert.Empty(t, rng.Query(nil, 4))
}

func TestLauncherItems(t *testing.T) {
	items := LauncherItems()
	assert.Equal(t, []string{"Safari", "Pages", "Xcode"}, Names(items))
	assert.Equal(t, "com.apple.Pages", IDs(items)[1])
}
