// Package score implements the matching and ranking rules shared by every
// execution strategy of the search engine.
//
// The compute kernels and the sequential fallback both call into this
// package; neither re-derives the formula. All inputs are folded
// (NFC-normalized, lower-cased) byte strings.
//
// # Stages (first match wins)
//
//  1. prefix of name           → Exact,     100
//  2. substring of name        → Substring,  50 (+20 at position 0)
//  3. substring of secondary   → Substring,  30
//  4. subsequence of name, then secondary key → Fuzzy, 15
//
// # Bonuses
//
//   - +5 when the secondary key starts with the trusted prefix
//   - +(20-len(name))*0.2 when 0 < len(name) < 20
package score
