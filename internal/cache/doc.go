// Package cache provides the icon texture cache.
//
// TextureCache maps (identity, size) to a rendered texture. Lookups that hit
// run concurrently under a read lock and only bump the entry's access tick;
// inserts, evictions and Clear take the write lock.
//
// Key features:
//   - LRU eviction bounded by entry count and by texture bytes, performed
//     synchronously by the insert that overflows the budget
//   - Byte budget enforced through resource.Controller
//   - One render per key under concurrent Get and Preheat (singleflight)
//   - Generation counter: renders started before Clear are not inserted
//   - Failed renders cache a placeholder until the next Clear
package cache
