package handler

import (
	"context"

	"go.uber.org/multierr"

	"github.com/philipp01105/krait/core"
)

// MultiHandler sends log entries to multiple handlers
type MultiHandler struct {
	handlers []Handler
}

// NewMultiHandler creates a new multi-handler
func NewMultiHandler(handlers ...Handler) *MultiHandler {
	return &MultiHandler{handlers: handlers}
}

// Handlers returns the child handlers.
func (h *MultiHandler) Handlers() []Handler {
	return h.handlers
}

// Handle sends the entry to every handler. A failing child does not
// stop delivery to the others; all errors are combined.
func (h *MultiHandler) Handle(entry *core.Entry) error {
	var err error
	for _, handler := range h.handlers {
		err = multierr.Append(err, handler.Handle(entry))
	}
	return err
}

// Start starts every child that has a worker.
func (h *MultiHandler) Start() {
	for _, handler := range h.handlers {
		if s, ok := handler.(Starter); ok {
			s.Start()
		}
	}
}

// Flush flushes every child.
func (h *MultiHandler) Flush(ctx context.Context) error {
	var err error
	for _, handler := range h.handlers {
		err = multierr.Append(err, Flush(ctx, handler))
	}
	return err
}

// Close closes all handlers
func (h *MultiHandler) Close() error {
	var err error
	for _, handler := range h.handlers {
		err = multierr.Append(err, handler.Close())
	}
	return err
}
