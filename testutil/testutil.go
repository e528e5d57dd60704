package testutil

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/hupe1980/appdeck/model"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

var (
	syllables = []string{
		"sa", "fa", "ri", "pa", "ges", "x", "co", "de", "mu", "sic", "pho", "to",
		"ma", "il", "no", "tes", "ter", "mi", "nal", "ca", "len", "dar", "ke", "y",
	}
	vendors = []string{"com.apple.", "com.example.", "org.gnome.", "io.github.", "net.sourceforge."}
)

func (r *RNG) word(minSyl, maxSyl int) string {
	n := minSyl + r.rand.Intn(maxSyl-minSyl+1)
	var sb strings.Builder
	for range n {
		sb.WriteString(syllables[r.rand.Intn(len(syllables))])
	}
	return sb.String()
}

// Items generates n items with unique ids. Names mix case, repeat often
// enough to produce score ties, and occasionally exceed the default field
// capacity.
func (r *RNG) Items(n int) []model.SearchItem {
	r.mu.Lock()
	defer r.mu.Unlock()

	items := make([]model.SearchItem, n)
	for i := range items {
		name := r.word(1, 4)
		if r.rand.Intn(3) == 0 {
			name = strings.ToUpper(name[:1]) + name[1:]
		}
		if r.rand.Intn(50) == 0 {
			name = strings.Repeat(name, 40)
		}
		vendor := vendors[r.rand.Intn(len(vendors))]
		key := vendor + strings.ToLower(name)
		if len(key) > 64 {
			key = key[:64]
		}
		items[i] = model.SearchItem{
			ID:           fmt.Sprintf("item-%05d", i),
			Name:         name,
			SecondaryKey: key,
			SourcePath:   fmt.Sprintf("/Applications/%s.app", name),
		}
	}
	return items
}

// Query returns a query of up to maxLen bytes taken from a random item's
// name, secondary key, or a subsequence of either.
func (r *RNG) Query(items []model.SearchItem, maxLen int) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(items) == 0 || maxLen <= 0 {
		return ""
	}
	it := items[r.rand.Intn(len(items))]
	src := strings.ToLower(it.Name)
	if r.rand.Intn(2) == 0 {
		src = strings.ToLower(it.SecondaryKey)
	}
	if src == "" {
		return ""
	}

	switch r.rand.Intn(3) {
	case 0: // prefix
		return src[:min(maxLen, len(src))]
	case 1: // substring
		start := r.rand.Intn(len(src))
		return src[start:min(start+maxLen, len(src))]
	default: // subsequence
		var sb strings.Builder
		for i := 0; i < len(src) && sb.Len() < maxLen; i++ {
			if r.rand.Intn(2) == 0 {
				sb.WriteByte(src[i])
			}
		}
		if sb.Len() == 0 {
			return src[:1]
		}
		return sb.String()
	}
}

// LauncherItems returns the three-item fixture used across tests.
func LauncherItems() []model.SearchItem {
	return []model.SearchItem{
		{ID: "com.apple.Safari", Name: "Safari", SecondaryKey: "com.apple.Safari", SourcePath: "/Applications/Safari.app"},
		{ID: "com.apple.Pages", Name: "Pages", SecondaryKey: "com.apple.Pages", SourcePath: "/Applications/Pages.app"},
		{ID: "com.apple.dt.Xcode", Name: "Xcode", SecondaryKey: "com.apple.dt.Xcode", SourcePath: "/Applications/Xcode.app"},
	}
}

// Names returns the names of items in order.
func Names(items []model.SearchItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}

// IDs returns the ids of items in order.
func IDs(items []model.SearchItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}
