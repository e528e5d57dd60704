package compute

import (
	"os"
	"runtime"
	"strings"
)

// Mode selects how Probe chooses a device.
type Mode uint8

const (
	// ModeAuto uses the parallel backend when the host can run it.
	ModeAuto Mode = iota
	// ModeParallel forces the parallel backend.
	ModeParallel
	// ModeCPU disables the compute path.
	ModeCPU
)

// String returns the string representation of a Mode.
func (m Mode) String() string {
	switch m {
	case ModeAuto:
		return "auto"
	case ModeParallel:
		return "parallel"
	case ModeCPU:
		return "cpu"
	default:
		return "unknown"
	}
}

// ParseMode parses a string into a Mode value.
func ParseMode(s string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ModeAuto, true
	case "parallel", "gpu":
		return ModeParallel, true
	case "cpu", "off", "none":
		return ModeCPU, true
	default:
		return ModeAuto, false
	}
}

// EnvOverride is the environment variable that overrides the probe mode.
const EnvOverride = "APPDECK_COMPUTE"

// Host feature flags (set by platform-specific init).
var (
	hasASIMD   bool // ARM64 NEON
	hasSVE2    bool // ARM64 SVE2
	hasAVX2    bool // x86-64 AVX2 + FMA
	hasAVX512F bool // x86-64 AVX-512 Foundation
)

// groupsPerLane scales SIMD lane width to work items per group.
const groupsPerLane = 16

// Lanes returns the host's 32-bit SIMD lane width.
func Lanes() int {
	switch {
	case hasAVX512F:
		return 16
	case hasAVX2:
		return 8
	case hasSVE2, hasASIMD:
		return 4
	default:
		return 1
	}
}

// Features returns a short description of the detected host features.
func Features() string {
	var f []string
	if hasAVX512F {
		f = append(f, "avx512f")
	}
	if hasAVX2 {
		f = append(f, "avx2")
	}
	if hasSVE2 {
		f = append(f, "sve2")
	}
	if hasASIMD {
		f = append(f, "asimd")
	}
	if len(f) == 0 {
		return "generic"
	}
	return strings.Join(f, ",")
}

// DefaultGroupSize returns the default work-group size for this host.
func DefaultGroupSize() int {
	return Lanes() * groupsPerLane
}

// Info describes the outcome of a probe.
type Info struct {
	Mode      Mode
	Backend   string // "parallel" or "none"
	Features  string
	Workers   int
	GroupSize int
	// Overridden is true if APPDECK_COMPUTE selected the mode.
	Overridden bool
}

// Probe selects a device for the given mode. A nil Device means the
// compute path is unavailable.
func Probe(mode Mode) (Device, Info) {
	info := Info{Mode: mode, Backend: "none", Features: Features()}

	if override := os.Getenv(EnvOverride); override != "" {
		if m, ok := ParseMode(override); ok {
			mode = m
			info.Mode = m
			info.Overridden = true
		}
	}

	switch mode {
	case ModeCPU:
		return nil, info
	case ModeAuto:
		// A single hardware thread gains nothing from work-group fan-out.
		if runtime.NumCPU() < 2 {
			return nil, info
		}
	}

	dev := NewParallelDevice(0, 0)
	info.Backend = dev.Name()
	info.Workers = dev.Workers()
	info.GroupSize = dev.GroupSize()
	return dev, info
}
