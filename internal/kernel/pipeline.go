package kernel

import (
	"context"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/appdeck/internal/compute"
)

// Run executes the full match pipeline on dev and returns the matched
// record indices ordered by rank. The whole call blocks until every
// dispatch has completed.
func Run(ctx context.Context, dev compute.Device, a *Args) ([]uint32, error) {
	n := a.Items.Len()
	if n == 0 || len(a.Query) == 0 {
		return nil, nil
	}

	chunks := (n + compactChunk - 1) / compactChunk
	local := make([]*roaring.Bitmap, chunks)

	cb := dev.NewCommandBuffer()
	for _, st := range Stages {
		cb.Dispatch(st.Label, n, st.Build(a))
	}
	cb.Dispatch(LabelCompact, chunks, compactKernel(a, local))
	cb.Commit()
	if err := cb.Wait(ctx); err != nil {
		return nil, err
	}

	matched := roaring.FastOr(local...)
	if matched.IsEmpty() {
		return nil, nil
	}
	order := matched.ToArray()

	keys, err := Gather(ctx, dev, a, order)
	if err != nil {
		return nil, err
	}
	if err := Sort(ctx, dev, keys); err != nil {
		return nil, err
	}

	for i := range keys {
		order[i] = keys[i].Index
	}
	return order, nil
}
