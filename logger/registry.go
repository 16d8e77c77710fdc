package logger

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/philipp01105/krait/core"
	"github.com/philipp01105/krait/filter"
	"github.com/philipp01105/krait/formatter"
	"github.com/philipp01105/krait/handler"
	"github.com/philipp01105/krait/handler/consolehandler"
)

// registry owns the process-wide handler and the named loggers that
// write through it. Loggers look the handler up on every entry, so
// Configure takes effect for loggers obtained earlier.
type registry struct {
	mu      sync.Mutex
	current atomic.Pointer[handlerBox]
	level   *AtomicLevel
	caller  atomic.Bool
	loggers map[string]*Logger
}

// handlerBox wraps the current handler; closed marks a shut down registry.
type handlerBox struct {
	h      handler.Handler
	closed bool
}

func newRegistry() *registry {
	return &registry{
		level:   NewAtomicLevel(InfoLevel),
		loggers: make(map[string]*Logger),
	}
}

var std = newRegistry()

// handler returns the active handler, creating the default async
// console handler on first use.
func (r *registry) handler() *handlerBox {
	if b := r.current.Load(); b != nil {
		return b
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if b := r.current.Load(); b != nil {
		return b
	}
	b := &handlerBox{h: consolehandler.NewConsoleHandler(consolehandler.ConsoleConfig{
		Async:         true,
		QueueCapacity: DefaultQueueCapacity,
		BlockTimeout:  DefaultBlockTimeout,
		Formatter:     formatter.NewTextFormatter(formatter.Config{}),
	})}
	r.current.Store(b)
	return b
}

// swap installs b and returns the handler it replaced, if any. A box
// without a handler restores the lazily created default.
func (r *registry) swap(b *handlerBox) handler.Handler {
	if b.h == nil && !b.closed {
		b = nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	old := r.current.Swap(b)
	if old == nil || old.closed {
		return nil
	}
	return old.h
}

func (r *registry) get(module string) *Logger {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.loggers[module]; ok {
		return l
	}

	b := NewBuilder().
		WithHandler(registryHandler{r}).
		WithAtomicLevel(r.level).
		WithName(module)
	if module != "" {
		b.WithFields(Module(module))
	}
	l := b.Build()
	l.callerFlag = &r.caller
	r.loggers[module] = l
	return l
}

func (r *registry) shutdown(ctx context.Context) error {
	old := r.swap(&handlerBox{closed: true})
	core.StopCoarseClock()
	if old == nil {
		return nil
	}
	return multierr.Append(handler.Flush(ctx, old), old.Close())
}

// registryHandler forwards to whatever handler the registry holds at
// the time of the call. Closing it is a no-op; the registry owns the
// real handler.
type registryHandler struct {
	r *registry
}

// Handle retries once when the handler it loaded was closed by a
// concurrent Configure or SetHandler, so a reload does not lose entries.
func (h registryHandler) Handle(entry *core.Entry) error {
	b := h.r.handler()
	if b.closed {
		return handler.ErrHandlerClosed
	}
	err := b.h.Handle(entry)
	if errors.Is(err, handler.ErrHandlerClosed) && h.r.current.Load() != b {
		if next := h.r.handler(); !next.closed {
			return next.h.Handle(entry)
		}
	}
	return err
}

func (h registryHandler) Flush(ctx context.Context) error {
	b := h.r.current.Load()
	if b == nil || b.closed {
		return nil
	}
	return handler.Flush(ctx, b.h)
}

func (h registryHandler) Close() error {
	return nil
}

// Get returns the logger for module, the package path or other
// identifier of the code that logs. Loggers are cached, so repeated
// calls return the same instance. Entries carry the module both as the
// logger name and as the "module" field.
func Get(module string) *Logger {
	return std.get(module)
}

// ForCaller returns the logger named after the package that calls it,
// found by inspecting the stack.
func ForCaller() *Logger {
	return std.get(filter.CallerModule(1))
}

// SetHandler replaces the process-wide handler used by every logger
// from Get, ForCaller and Default; nil restores the default console
// handler. The previous handler is returned and not closed; the caller
// owns it from now on.
func SetHandler(h handler.Handler) handler.Handler {
	return std.swap(&handlerBox{h: h})
}

// SetLevel changes the minimum level of every registry logger.
func SetLevel(l Level) {
	std.level.SetLevel(l)
}

// SetCaller turns caller capture on or off for every registry logger.
func SetCaller(enabled bool) {
	std.caller.Store(enabled)
}

// Flush waits until the process-wide handler has written everything
// logged so far.
func Flush(ctx context.Context) error {
	return registryHandler{std}.Flush(ctx)
}

// Shutdown flushes and closes the process-wide handler, joining every
// async worker. Later entries are rejected until Configure or
// SetHandler installs a new handler.
func Shutdown(ctx context.Context) error {
	return std.shutdown(ctx)
}

// Zap returns a *zap.Logger named name that writes through the
// process-wide handler and honors the registry level.
func Zap(name string) *zap.Logger {
	zc := handler.NewDynamicZapCore(registryHandler{std}, func(l Level) bool {
		return l >= std.level.Level()
	})
	return zap.New(zc, zap.AddCaller()).Named(name)
}
