// Package resource implements the Controller that governs icon cache
// memory, background preheat concurrency, and the icon render rate.
//
//	┌───────────────────────────────────────────────────────┐
//	│                      Controller                       │
//	├─────────────────┬─────────────────┬───────────────────┤
//	│  Texture Bytes  │  Background     │  Render Rate      │
//	│  (fail-fast)    │  Slots (sem)    │  (token bucket)   │
//	├─────────────────┼─────────────────┼───────────────────┤
//	│  AcquireMemory  │  AcquireBack-   │  WaitRender       │
//	│  ReleaseMemory  │  ground         │                   │
//	│  MemoryUsage    │  Release        │                   │
//	│  MemoryLimit    │  MaxBackground  │                   │
//	└─────────────────┴─────────────────┴───────────────────┘
//
// AcquireMemory never blocks. The icon cache treats ErrOverBudget
// as the signal to evict the least recently used texture and retry:
//
//	for rc.AcquireMemory(tex.Bytes()) != nil {
//	    if !evictOldest() {
//	        break
//	    }
//	}
//
// All methods handle a nil Controller gracefully; they become no-ops.
package resource
