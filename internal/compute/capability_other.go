//go:build !amd64 && !arm64

package compute

// No SIMD feature detection on this architecture.
