package kernel

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/appdeck/internal/compute"
	"github.com/hupe1980/appdeck/internal/layout"
	"github.com/hupe1980/appdeck/internal/score"
	"github.com/hupe1980/appdeck/model"
)

// Dispatch labels.
const (
	LabelPrefix    = "match.prefix"
	LabelSubstring = "match.substring"
	LabelKey       = "match.key"
	LabelFuzzy     = "match.fuzzy"
	LabelScore     = "score"
	LabelCompact   = "compact"
)

// compactChunk is the number of items each compact work item scans.
const compactChunk = 1024

// Args binds kernels to one set of transfer buffers.
type Args struct {
	Query   []byte
	Items   *layout.ItemBuffer
	Results *layout.ResultBuffer
	Scorer  score.Scorer
}

func (a *Args) pending(i int) bool {
	return model.MatchKind(a.Results.Kind[i]) == model.MatchNone
}

func (a *Args) store(i int, m score.Match) {
	a.Results.Kind[i] = uint8(m.Kind)
	a.Results.Field[i] = uint8(m.Field)
	a.Results.Pos[i] = int32(m.Pos)
}

// Match returns the stored match of item i.
func (a *Args) Match(i int) score.Match {
	return score.Match{
		Kind:  model.MatchKind(a.Results.Kind[i]),
		Field: model.MatchField(a.Results.Field[i]),
		Pos:   int(a.Results.Pos[i]),
	}
}

// Stage is one match-pipeline dispatch.
type Stage struct {
	Label string
	Build func(a *Args) compute.Kernel
}

// Stages lists the match and score dispatches in priority order.
var Stages = []Stage{
	{Label: LabelPrefix, Build: PrefixKernel},
	{Label: LabelSubstring, Build: SubstringKernel},
	{Label: LabelKey, Build: KeySubstringKernel},
	{Label: LabelFuzzy, Build: FuzzyKernel},
	{Label: LabelScore, Build: ScoreKernel},
}

// PrefixKernel is stage 1: query is a prefix of the name.
func PrefixKernel(a *Args) compute.Kernel {
	return func(i int) {
		if !a.pending(i) {
			return
		}
		if m, ok := score.StagePrefix(a.Query, a.Items.Record(i).Name); ok {
			a.store(i, m)
		}
	}
}

// SubstringKernel is stage 2: query occurs in the name.
func SubstringKernel(a *Args) compute.Kernel {
	return func(i int) {
		if !a.pending(i) {
			return
		}
		if m, ok := score.StageSubstring(a.Query, a.Items.Record(i).Name); ok {
			a.store(i, m)
		}
	}
}

// KeySubstringKernel is stage 3: query occurs in the secondary key.
func KeySubstringKernel(a *Args) compute.Kernel {
	return func(i int) {
		if !a.pending(i) {
			return
		}
		if m, ok := score.StageKeySubstring(a.Query, a.Items.Record(i).Key); ok {
			a.store(i, m)
		}
	}
}

// FuzzyKernel is stage 4: query is a subsequence of the name or secondary key.
func FuzzyKernel(a *Args) compute.Kernel {
	return func(i int) {
		if !a.pending(i) {
			return
		}
		rec := a.Items.Record(i)
		if m, ok := score.StageFuzzy(a.Query, rec.Name, rec.Key); ok {
			a.store(i, m)
		}
	}
}

// ScoreKernel writes the final score of every matched item.
func ScoreKernel(a *Args) compute.Kernel {
	return func(i int) {
		if a.pending(i) {
			return
		}
		rec := a.Items.Record(i)
		a.Results.Score[i] = a.Scorer.Score(a.Match(i), rec.Name, rec.Key)
	}
}

// compactKernel builds one bitmap of matched indices per chunk.
func compactKernel(a *Args, out []*roaring.Bitmap) compute.Kernel {
	n := a.Results.Len()
	return func(chunk int) {
		bm := roaring.New()
		lo := chunk * compactChunk
		hi := min(lo+compactChunk, n)
		for i := lo; i < hi; i++ {
			if !a.pending(i) {
				bm.Add(uint32(i))
			}
		}
		out[chunk] = bm
	}
}
