package filehandler

import (
	"context"
	"sync/atomic"

	"github.com/philipp01105/krait/core"
	"github.com/philipp01105/krait/handler"
)

// SyncFileHandler writes on the calling goroutine. Write failures are
// returned to the caller.
type SyncFileHandler struct {
	sink   *fileSink
	stats  *handler.Stats
	closed atomic.Bool
}

func newSyncFileHandler(cfg FileConfig) *SyncFileHandler {
	return &SyncFileHandler{
		sink:  newFileSink(cfg),
		stats: new(handler.Stats),
	}
}

// Handle processes a log entry synchronously.
func (h *SyncFileHandler) Handle(entry *core.Entry) error {
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

// Flush writes buffered output and syncs the file.
func (h *SyncFileHandler) Flush(context.Context) error {
	return h.sink.Sync()
}

// Stats returns a snapshot of the current statistics
func (h *SyncFileHandler) Stats() handler.Snapshot {
	return h.stats.Snapshot()
}

// Filename returns the path of the active log file.
func (h *SyncFileHandler) Filename() string {
	return h.sink.filename
}

// Close closes the handler and the underlying file.
func (h *SyncFileHandler) Close() error {
	if h.closed.Swap(true) {
		return nil
	}
	return h.sink.Close()
}
