package model

import "fmt"

// SearchItem is a searchable, launchable entity.
//
// Items are immutable once constructed and owned by the caller. The search
// engine only indexes into a snapshot slice for the duration of one call.
type SearchItem struct {
	// ID is stable and unique within a snapshot.
	ID string `json:"id"`
	// Name is the display name.
	Name string `json:"name"`
	// SecondaryKey is an alternative search key, e.g. a bundle identifier.
	SecondaryKey string `json:"secondaryKey"`
	// SourcePath is where the item was discovered.
	SourcePath string `json:"sourcePath"`
}

// String returns a short human-readable representation.
func (it SearchItem) String() string {
	if it.SecondaryKey == "" {
		return it.Name
	}
	return fmt.Sprintf("%s (%s)", it.Name, it.SecondaryKey)
}

// MatchKind identifies the stage of the match pipeline that accepted an item.
type MatchKind uint8

const (
	// MatchNone means no stage matched.
	MatchNone MatchKind = iota
	// MatchExact is a literal prefix match on the name.
	MatchExact
	// MatchSubstring is a contiguous match anywhere in the name or secondary key.
	MatchSubstring
	// MatchFuzzy is an in-order, not necessarily contiguous, subsequence match.
	MatchFuzzy
)

// String returns the string representation of a MatchKind.
func (k MatchKind) String() string {
	switch k {
	case MatchNone:
		return "none"
	case MatchExact:
		return "exact"
	case MatchSubstring:
		return "substring"
	case MatchFuzzy:
		return "fuzzy"
	default:
		return "unknown"
	}
}

// MatchField identifies which item field satisfied the match.
type MatchField uint8

const (
	// FieldName is SearchItem.Name.
	FieldName MatchField = iota
	// FieldSecondaryKey is SearchItem.SecondaryKey.
	FieldSecondaryKey
)

// String returns the string representation of a MatchField.
func (f MatchField) String() string {
	switch f {
	case FieldName:
		return "name"
	case FieldSecondaryKey:
		return "secondaryKey"
	default:
		return "unknown"
	}
}

// MatchResult is produced 1:1 per input item, indexed by position.
// The zero value is a non-match.
type MatchResult struct {
	ItemIndex uint32
	IsMatch   bool
	Kind      MatchKind
	Field     MatchField
}

// Hit is a ranked search result.
type Hit struct {
	Item  SearchItem
	Index int // position in the snapshot the search ran against
	Kind  MatchKind
	Field MatchField
	Score float32
}

// Snapshot is one immutable generation of items.
type Snapshot struct {
	Generation uint64
	Items      []SearchItem
}

// Len returns the number of items in the snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Items)
}
