package consolehandler

import "github.com/philipp01105/krait/handler"

// AsyncConsoleHandler queues entries and writes them from a dedicated
// background goroutine, so slow terminals never stall callers.
type AsyncConsoleHandler struct {
	*handler.AsyncHandler
}

func newAsyncConsoleHandler(cfg ConsoleConfig) *AsyncConsoleHandler {
	return &AsyncConsoleHandler{
		AsyncHandler: handler.NewAsyncHandler(newConsoleSink(cfg), handler.AsyncConfig{
			Name:           "console",
			Capacity:       cfg.QueueCapacity,
			OverflowPolicy: cfg.OverflowPolicy,
			DefaultPolicy:  cfg.DefaultPolicy,
			BlockTimeout:   cfg.BlockTimeout,
			DrainTimeout:   cfg.DrainTimeout,
			ErrorReporter:  cfg.ErrorReporter,
		}),
	}
}
