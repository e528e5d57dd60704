// Package model defines core types used throughout appdeck.
//
// # Items
//
//   - SearchItem: one launchable entity (stable id, display name, secondary
//     key such as a bundle identifier, and the source path)
//   - Snapshot: one immutable generation of items produced by a scan
//
// # Results
//
//   - MatchKind / MatchField: which stage matched and on which field
//   - MatchResult: per-item output of the match pipeline
//   - Hit: a ranked search result (item, kind, field, score)
package model
