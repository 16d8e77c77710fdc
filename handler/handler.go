package handler

import (
	"context"

	"github.com/philipp01105/krait/core"
)

// Handler defines the interface for log handlers
type Handler interface {
	// Handle processes a log entry. The caller keeps ownership of entry
	// and may recycle it as soon as Handle returns.
	Handle(entry *core.Entry) error

	// Close closes the handler and releases resources
	Close() error
}

// Flusher is implemented by handlers that buffer entries.
type Flusher interface {
	// Flush blocks until every entry handled before the call has been
	// written and synced, or ctx is done.
	Flush(ctx context.Context) error
}

// Starter is implemented by handlers with a background worker that can
// be started explicitly.
type Starter interface {
	Start()
}

// StatsProvider is implemented by handlers that keep delivery counters.
type StatsProvider interface {
	Stats() Snapshot
}

// Flush flushes h if it buffers entries and is a no-op otherwise.
func Flush(ctx context.Context, h Handler) error {
	if f, ok := h.(Flusher); ok {
		return f.Flush(ctx)
	}
	return nil
}
