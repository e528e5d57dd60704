package score

import "bytes"

// Ranked is the view of a scored item used for ordering.
type Ranked struct {
	Score float32
	Name  []byte
	Key   []byte
	Index uint32
}

// Compare orders by descending score, then ascending folded name, then
// ascending folded secondary key, then ascending original index.
// The result is a total order over distinct indices.
func Compare(a, b Ranked) int {
	switch {
	case a.Score > b.Score:
		return -1
	case a.Score < b.Score:
		return 1
	}
	if c := bytes.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	if c := bytes.Compare(a.Key, b.Key); c != 0 {
		return c
	}
	switch {
	case a.Index < b.Index:
		return -1
	case a.Index > b.Index:
		return 1
	}
	return 0
}

// Less reports whether a ranks strictly before b.
func Less(a, b Ranked) bool { return Compare(a, b) < 0 }
