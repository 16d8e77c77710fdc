package consolehandler

import (
	"context"
	"sync/atomic"

	"github.com/philipp01105/krait/core"
	"github.com/philipp01105/krait/handler"
)

// SyncConsoleHandler formats and writes on the calling goroutine.
type SyncConsoleHandler struct {
	sink   *consoleSink
	stats  *handler.Stats
	closed atomic.Bool
}

func newSyncConsoleHandler(cfg ConsoleConfig) *SyncConsoleHandler {
	return &SyncConsoleHandler{
		sink:  newConsoleSink(cfg),
		stats: new(handler.Stats),
	}
}

// Handle processes a log entry synchronously.
func (h *SyncConsoleHandler) Handle(entry *core.Entry) error {
	if h.closed.Load() {
		return handler.ErrHandlerClosed
	}
	if err := h.sink.Write(entry); err != nil {
		h.stats.RecordFailure()
		return err
	}
	h.stats.RecordWrite()
	return nil
}

// Flush flushes buffering writers.
func (h *SyncConsoleHandler) Flush(context.Context) error {
	return h.sink.Sync()
}

// Stats returns a snapshot of the current statistics
func (h *SyncConsoleHandler) Stats() handler.Snapshot {
	return h.stats.Snapshot()
}

// Close closes the handler.
func (h *SyncConsoleHandler) Close() error {
	if h.closed.Swap(true) {
		return nil
	}
	return h.sink.Close()
}
