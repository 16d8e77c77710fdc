package filehandler

import "github.com/philipp01105/krait/handler"

// AsyncFileHandler queues snapshots of entries and writes them to the
// file from a single background goroutine, which owns the file handle.
type AsyncFileHandler struct {
	*handler.AsyncHandler
	sink *fileSink
}

func newAsyncFileHandler(cfg FileConfig) *AsyncFileHandler {
	sink := newFileSink(cfg)
	return &AsyncFileHandler{
		AsyncHandler: handler.NewAsyncHandler(sink, handler.AsyncConfig{
			Name:           "file " + cfg.Filename,
			Capacity:       cfg.QueueCapacity,
			OverflowPolicy: cfg.OverflowPolicy,
			DefaultPolicy:  cfg.DefaultPolicy,
			BlockTimeout:   cfg.BlockTimeout,
			DrainTimeout:   cfg.DrainTimeout,
			ManualStart:    cfg.ManualStart,
			ErrorReporter:  cfg.ErrorReporter,
		}),
		sink: sink,
	}
}

// Filename returns the path of the active log file.
func (h *AsyncFileHandler) Filename() string {
	return h.sink.filename
}
