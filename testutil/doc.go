// Package testutil provides testing utilities for appdeck.
//
// This package is intended for use in tests and benchmarks only.
// It provides a deterministic RNG, generators for synthetic item snapshots,
// and small fixed fixtures.
//
// # Random Items
//
//	rng := testutil.NewRNG(seed)
//	items := rng.Items(500)          // names, bundle ids, paths
//	q := rng.Query(items, 3)         // a short query likely to match
//
// # Fixtures
//
//	items := testutil.LauncherItems() // Safari, Pages, Xcode
package testutil
