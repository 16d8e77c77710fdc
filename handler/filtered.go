package handler

import (
	"context"

	"github.com/philipp01105/krait/core"
	"github.com/philipp01105/krait/filter"
)

// Filtered runs an ordered filter chain before passing entries to the
// wrapped handler. Suppressed entries never reach it.
type Filtered struct {
	next    Handler
	filters filter.Chain
}

// WithFilters attaches filters to h. Filters run on a private copy of
// each entry, so enrichment done here is not seen by sibling handlers.
func WithFilters(h Handler, filters ...filter.Filter) *Filtered {
	return &Filtered{next: h, filters: filter.Chain(filters)}
}

// Handle applies the filters and forwards entries that pass.
func (f *Filtered) Handle(entry *core.Entry) error {
	if len(f.filters) == 0 {
		return f.next.Handle(entry)
	}
	c := core.CloneEntry(entry)
	defer core.PutEntry(c)
	if !f.filters.Filter(c) {
		return nil
	}
	return f.next.Handle(c)
}

// Unwrap returns the wrapped handler.
func (f *Filtered) Unwrap() Handler {
	return f.next
}

// Start starts the wrapped handler's worker, if it has one.
func (f *Filtered) Start() {
	if s, ok := f.next.(Starter); ok {
		s.Start()
	}
}

// Flush flushes the wrapped handler.
func (f *Filtered) Flush(ctx context.Context) error {
	return Flush(ctx, f.next)
}

// Stats returns the wrapped handler's statistics, or an empty snapshot.
func (f *Filtered) Stats() Snapshot {
	if sp, ok := f.next.(StatsProvider); ok {
		return sp.Stats()
	}
	return Snapshot{}
}

// Close closes the wrapped handler.
func (f *Filtered) Close() error {
	return f.next.Close()
}
