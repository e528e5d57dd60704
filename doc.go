// Package appdeck provides application search and icon rendering for a
// keyboard-driven launcher.
//
// A Deck owns one snapshot of installed applications, a search engine that
// ranks them against a typed query, and a bounded cache of rendered icon
// textures. Ranking runs on a data-parallel compute device for large
// snapshots and falls back to an equivalent CPU path when no device is
// available or a dispatch fails. Both paths produce identical results.
//
// # Quick Start
//
//	ctx := context.Background()
//	deck, _ := appdeck.Open(ctx, appdeck.WithRoots("/Applications"))
//	defer deck.Close()
//
//	items, _ := deck.Search(ctx, "saf")
//	tex, _ := deck.Icon(ctx, items[0].ID, 64)
//
// # Matching
//
// Every item is classified by the first stage that accepts it:
//
//	exact      name starts with the query
//	substring  name or secondary key contains the query
//	fuzzy      query characters appear in order in the name
//
// Comparison is case-insensitive. Within a stage, items whose secondary
// key begins with the trusted prefix (com.apple. by default) receive a
// small bonus, and ties are broken by name and then by secondary key.
//
// # Caching
//
// Search results are cached per normalized query and cleared on every
// Rescan. Icon textures are cached per (identity, size) under an entry
// bound and a byte budget, and evicted least-recently-used first. Icons
// that cannot be resolved are replaced by a deterministic placeholder.
//
// # Configuration
//
// Options can be built in code or loaded from a TOML file:
//
//	cfg, _ := config.Load("")
//	deck, _ := appdeck.Open(ctx, appdeck.WithConfig(cfg))
//
// # Observability
//
// Logging uses log/slog through Logger. Metrics are reported through a
// MetricsCollector; see the metrics/prom package for a Prometheus
// implementation.
package appdeck
