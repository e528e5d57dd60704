//go:build arm64

package compute

import "golang.org/x/sys/cpu"

func init() {
	hasASIMD = cpu.ARM64.HasASIMD
	hasSVE2 = cpu.ARM64.HasSVE2
}
