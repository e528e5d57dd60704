package layout

import (
	"sync"

	"github.com/hupe1980/appdeck/internal/score"
	"github.com/hupe1980/appdeck/model"
)

// TransferBuffers is the full set of buffers for one pipeline dispatch.
type TransferBuffers struct {
	Items   *ItemBuffer
	Query   *QueryBuffer
	Results ResultBuffer
	// Order receives the ordered indices of matched records.
	Order []uint32
}

// Load overwrites every buffer with the given snapshot and folded query.
func (t *TransferBuffers) Load(items []model.SearchItem, query string) {
	t.Query.Store(query)
	t.Items.Reset(len(items))
	for i := range items {
		t.Items.Store(i, uint32(i), score.Fold(items[i].Name), score.Fold(items[i].SecondaryKey))
	}
	t.Results.Reset(len(items))
	t.Order = t.Order[:0]
}

// Pool recycles TransferBuffers of one layout.
type Pool struct {
	layout        Layout
	queryCapacity int
	pool          sync.Pool
}

// NewPool creates a pool for the given layout and query capacity.
func NewPool(l Layout, queryCapacity int) *Pool {
	p := &Pool{layout: l.normalized(), queryCapacity: queryCapacity}
	p.pool.New = func() any {
		return &TransferBuffers{
			Items: NewItemBuffer(p.layout),
			Query: NewQueryBuffer(p.queryCapacity),
		}
	}
	return p
}

// Layout returns the pool's record layout.
func (p *Pool) Layout() Layout { return p.layout }

// Get retrieves buffers from the pool. Contents are undefined until Load.
func (p *Pool) Get() *TransferBuffers {
	return p.pool.Get().(*TransferBuffers)
}

// Put returns buffers to the pool.
func (p *Pool) Put(t *TransferBuffers) {
	if t == nil {
		return
	}
	p.pool.Put(t)
}
