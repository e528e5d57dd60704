package score

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/hupe1980/appdeck/model"
)

// Scoring constants.
const (
	ExactScore        float32 = 100
	SubstringScore    float32 = 50
	StartBonus        float32 = 20
	KeySubstringScore float32 = 30
	FuzzyScore        float32 = 15
	TrustedBonus      float32 = 5
	ShortNameLimit            = 20
	ShortNameWeight   float32 = 0.2
)

// DefaultTrustedPrefix is the default trusted vendor prefix.
const DefaultTrustedPrefix = "com.apple."

// Fold returns the canonical comparison form of s: NFC-normalized and
// lower-cased.
func Fold(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}

// NormalizeQuery trims surrounding whitespace and folds the query.
func NormalizeQuery(q string) string {
	return Fold(strings.TrimSpace(q))
}

// Clamp truncates s to at most limit bytes, backing off to the start of a
// rune so no partial encoding is kept. limit <= 0 yields the empty slice.
func Clamp(s []byte, limit int) []byte {
	if limit <= 0 {
		return s[:0]
	}
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// ClampString is Clamp for strings.
func ClampString(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return string(Clamp([]byte(s), limit))
}

// HasPrefix reports whether q is a literal prefix of s.
func HasPrefix(q, s []byte) bool {
	return bytes.HasPrefix(s, q)
}

// Index returns the byte offset of the first occurrence of q in s, or -1.
func Index(q, s []byte) int {
	return bytes.Index(s, q)
}

// IsSubsequence reports whether the runes of q occur in s in order.
func IsSubsequence(q, s []byte) bool {
	if len(q) == 0 {
		return true
	}
	qr, qn := utf8.DecodeRune(q)
	for len(s) > 0 {
		r, n := utf8.DecodeRune(s)
		s = s[n:]
		if r != qr {
			continue
		}
		q = q[qn:]
		if len(q) == 0 {
			return true
		}
		qr, qn = utf8.DecodeRune(q)
	}
	return false
}

// Match describes the stage that accepted an item.
type Match struct {
	Kind  model.MatchKind
	Field model.MatchField
	// Pos is the byte offset of a substring match; -1 otherwise.
	Pos int
}

// Matched reports whether any stage accepted the item.
func (m Match) Matched() bool { return m.Kind != model.MatchNone }

// StagePrefix is stage 1.
func StagePrefix(q, name []byte) (Match, bool) {
	if HasPrefix(q, name) {
		return Match{Kind: model.MatchExact, Field: model.FieldName, Pos: 0}, true
	}
	return Match{Pos: -1}, false
}

// StageSubstring is stage 2.
func StageSubstring(q, name []byte) (Match, bool) {
	if pos := Index(q, name); pos >= 0 {
		return Match{Kind: model.MatchSubstring, Field: model.FieldName, Pos: pos}, true
	}
	return Match{Pos: -1}, false
}

// StageKeySubstring is stage 3.
func StageKeySubstring(q, key []byte) (Match, bool) {
	if pos := Index(q, key); pos >= 0 {
		return Match{Kind: model.MatchSubstring, Field: model.FieldSecondaryKey, Pos: pos}, true
	}
	return Match{Pos: -1}, false
}

// StageFuzzy is stage 4: name first, then secondary key.
func StageFuzzy(q, name, key []byte) (Match, bool) {
	if IsSubsequence(q, name) {
		return Match{Kind: model.MatchFuzzy, Field: model.FieldName, Pos: -1}, true
	}
	if IsSubsequence(q, key) {
		return Match{Kind: model.MatchFuzzy, Field: model.FieldSecondaryKey, Pos: -1}, true
	}
	return Match{Pos: -1}, false
}

// Classify runs all four stages in priority order and returns the first hit.
func Classify(q, name, key []byte) Match {
	if m, ok := StagePrefix(q, name); ok {
		return m
	}
	if m, ok := StageSubstring(q, name); ok {
		return m
	}
	if m, ok := StageKeySubstring(q, key); ok {
		return m
	}
	if m, ok := StageFuzzy(q, name, key); ok {
		return m
	}
	return Match{Pos: -1}
}

// Base returns the stage score of m, 0 for a non-match.
func Base(m Match) float32 {
	switch m.Kind {
	case model.MatchExact:
		return ExactScore
	case model.MatchSubstring:
		if m.Field == model.FieldSecondaryKey {
			return KeySubstringScore
		}
		if m.Pos == 0 {
			return SubstringScore + StartBonus
		}
		return SubstringScore
	case model.MatchFuzzy:
		return FuzzyScore
	default:
		return 0
	}
}

// Scorer applies the post-match bonuses.
// The zero value applies no trusted prefix bonus.
type Scorer struct {
	trusted []byte
}

// NewScorer returns a Scorer for the given trusted vendor prefix.
func NewScorer(trustedPrefix string) Scorer {
	if trustedPrefix == "" {
		return Scorer{}
	}
	return Scorer{trusted: []byte(Fold(trustedPrefix))}
}

// TrustedPrefix returns the folded trusted prefix.
func (s Scorer) TrustedPrefix() string { return string(s.trusted) }

// Bonus returns the post-match bonus for an item.
func (s Scorer) Bonus(name, key []byte) float32 {
	var b float32
	if len(s.trusted) > 0 && bytes.HasPrefix(key, s.trusted) {
		b += TrustedBonus
	}
	if n := len(name); n > 0 && n < ShortNameLimit {
		b += float32(ShortNameLimit-n) * ShortNameWeight
	}
	return b
}

// Score returns the final score for a matched item, 0 for a non-match.
func (s Scorer) Score(m Match, name, key []byte) float32 {
	if !m.Matched() {
		return 0
	}
	return Base(m) + s.Bonus(name, key)
}

// Evaluate classifies and scores one item.
func (s Scorer) Evaluate(q, name, key []byte) (Match, float32) {
	m := Classify(q, name, key)
	return m, s.Score(m, name, key)
}
