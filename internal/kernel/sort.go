package kernel

import (
	"context"
	"slices"
	"sync/atomic"

	"github.com/hupe1980/appdeck/internal/compute"
	"github.com/hupe1980/appdeck/internal/score"
)

// Sort dispatch labels.
const (
	LabelGather = "sort.gather"
	LabelEven   = "sort.even"
	LabelOdd    = "sort.odd"
	LabelRuns   = "sort.runs"
	LabelMerge  = "sort.merge"
)

const (
	// TranspositionLimit is the largest input sorted by the odd-even
	// transposition network. Larger inputs use run sort + merge passes.
	TranspositionLimit = 256

	runLength = 64
)

// Gather builds the ranking keys for the matched indices in order.
func Gather(ctx context.Context, dev compute.Device, a *Args, order []uint32) ([]score.Ranked, error) {
	keys := make([]score.Ranked, len(order))
	cb := dev.NewCommandBuffer()
	cb.Dispatch(LabelGather, len(order), func(i int) {
		idx := int(order[i])
		keys[i] = a.Items.Record(idx).Ranked(a.Results.Score[idx])
	})
	cb.Commit()
	if err := cb.Wait(ctx); err != nil {
		return nil, err
	}
	return keys, nil
}

// Sort orders keys in place by score.Compare.
func Sort(ctx context.Context, dev compute.Device, keys []score.Ranked) error {
	if len(keys) < 2 {
		return nil
	}
	if len(keys) <= TranspositionLimit {
		return transpositionSort(ctx, dev, keys)
	}
	return mergeSort(ctx, dev, keys)
}

// transpositionSort runs even/odd compare-exchange passes until a full
// even+odd round swaps nothing, within a budget of 2N passes.
func transpositionSort(ctx context.Context, dev compute.Device, keys []score.Ranked) error {
	n := len(keys)
	budget := 2 * n

	for pass := 0; pass < budget; pass += 2 {
		var swapped atomic.Bool

		cb := dev.NewCommandBuffer()
		cb.Dispatch(LabelEven, n/2, exchangeKernel(keys, 0, &swapped))
		cb.Dispatch(LabelOdd, (n-1)/2, exchangeKernel(keys, 1, &swapped))
		cb.Commit()
		if err := cb.Wait(ctx); err != nil {
			return err
		}

		if !swapped.Load() {
			return nil
		}
	}
	return nil
}

// exchangeKernel compares pair (2p+phase, 2p+phase+1). Pairs within one
// pass are disjoint.
func exchangeKernel(keys []score.Ranked, phase int, swapped *atomic.Bool) compute.Kernel {
	return func(p int) {
		i := 2*p + phase
		if i+1 >= len(keys) {
			return
		}
		if score.Less(keys[i+1], keys[i]) {
			keys[i], keys[i+1] = keys[i+1], keys[i]
			swapped.Store(true)
		}
	}
}

// mergeSort sorts fixed-length runs in parallel, then merges pairs of runs
// in log2(N/runLength) passes recorded into one command buffer.
func mergeSort(ctx context.Context, dev compute.Device, keys []score.Ranked) error {
	n := len(keys)
	tmp := make([]score.Ranked, n)

	cb := dev.NewCommandBuffer()
	cb.Dispatch(LabelRuns, (n+runLength-1)/runLength, func(r int) {
		lo := r * runLength
		hi := min(lo+runLength, n)
		slices.SortFunc(keys[lo:hi], score.Compare)
	})

	src, dst := keys, tmp
	for width := runLength; width < n; width *= 2 {
		pairs := (n + 2*width - 1) / (2 * width)
		cb.Dispatch(LabelMerge, pairs, mergeKernel(src, dst, width))
		src, dst = dst, src
	}

	cb.Commit()
	if err := cb.Wait(ctx); err != nil {
		return err
	}

	if &src[0] != &keys[0] {
		copy(keys, src)
	}
	return nil
}

// mergeKernel merges src[lo:mid] and src[mid:hi] into dst[lo:hi].
func mergeKernel(src, dst []score.Ranked, width int) compute.Kernel {
	n := len(src)
	return func(p int) {
		lo := p * 2 * width
		mid := min(lo+width, n)
		hi := min(lo+2*width, n)

		i, j, k := lo, mid, lo
		for i < mid && j < hi {
			if score.Compare(src[j], src[i]) < 0 {
				dst[k] = src[j]
				j++
			} else {
				dst[k] = src[i]
				i++
			}
			k++
		}
		k += copy(dst[k:], src[i:mid])
		copy(dst[k:], src[j:hi])
	}
}
