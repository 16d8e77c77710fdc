package handler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/philipp01105/krait/core"
)

// Sink is the destination an AsyncHandler writes to. Only the worker
// goroutine calls Write and Sync; Close is called once after the
// worker has exited.
type Sink interface {
	Write(entry *core.Entry) error
	Sync() error
	Close() error
}

// AsyncConfig holds configuration for an async handler
type AsyncConfig struct {
	// Name identifies the handler in error reports (default: "async")
	Name string
	// Capacity is the maximum number of queued entries (0 = unbounded)
	Capacity int
	// OverflowPolicy defines per-level overflow behavior
	OverflowPolicy map[core.Level]OverflowPolicy
	// DefaultPolicy applies to levels missing from OverflowPolicy (default: Block)
	DefaultPolicy OverflowPolicy
	// BlockTimeout bounds the wait of a Block enqueue on a full queue.
	// Zero fails immediately, a negative value waits until space frees up.
	BlockTimeout time.Duration
	// DrainTimeout bounds draining on Close (0 = drain everything)
	DrainTimeout time.Duration
	// ManualStart defers the worker until Start, Flush or Close
	ManualStart bool
	// ErrorReporter receives write failures (default: StderrReporter)
	ErrorReporter ErrorReporter
}

// AsyncHandler decouples callers from I/O: Handle snapshots the entry
// and queues it, and one background goroutine writes queued entries to
// the sink in FIFO order.
type AsyncHandler struct {
	sink           Sink
	queue          *entryQueue
	overflowPolicy map[core.Level]OverflowPolicy
	defaultPolicy  OverflowPolicy
	blockTimeout   time.Duration
	drainTimeout   time.Duration
	report         ErrorReporter
	stats          *Stats

	startOnce  sync.Once
	closeOnce  sync.Once
	workerDone chan struct{}
	closeErr   error
}

// NewAsyncHandler wraps sink with a queue and a worker goroutine. The
// worker starts immediately unless cfg.ManualStart is set.
func NewAsyncHandler(sink Sink, cfg AsyncConfig) *AsyncHandler {
	if cfg.Name == "" {
		cfg.Name = "async"
	}
	if cfg.ErrorReporter == nil {
		cfg.ErrorReporter = StderrReporter(cfg.Name)
	}

	h := &AsyncHandler{
		sink:           sink,
		queue:          newEntryQueue(cfg.Capacity),
		overflowPolicy: cfg.OverflowPolicy,
		defaultPolicy:  cfg.DefaultPolicy,
		blockTimeout:   cfg.BlockTimeout,
		drainTimeout:   cfg.DrainTimeout,
		report:         cfg.ErrorReporter,
		stats:          new(Stats),
		workerDone:     make(chan struct{}),
	}
	if !cfg.ManualStart {
		h.Start()
	}
	return h
}

// Start spawns the worker if it is not running yet.
func (h *AsyncHandler) Start() {
	h.startOnce.Do(func() {
		go h.process()
	})
}

// Handle snapshots entry and enqueues it. It never waits on I/O; with a
// full queue it applies the level's overflow policy. A Block policy
// that times out returns ErrQueueFull, and Handle after Close returns
// ErrHandlerClosed.
func (h *AsyncHandler) Handle(entry *core.Entry) error {
	policy, ok := h.overflowPolicy[entry.Level]
	if !ok {
		policy = h.defaultPolicy
	}

	snapshot := core.CloneEntry(entry)
	dropped, waited, err := h.queue.push(snapshot, policy, h.blockTimeout)
	if waited {
		h.stats.RecordBlock()
	}
	if err != nil {
		if errors.Is(err, ErrQueueFull) {
			h.stats.RecordDrop(entry.Level)
		}
		core.PutEntry(snapshot)
		return err
	}
	if dropped != nil {
		h.stats.RecordDrop(dropped.Level)
		core.PutEntry(dropped)
	}
	return nil
}

// Flush blocks until every entry queued before the call is written and
// the sink is synced. It starts the worker if needed. Flushing a closed
// handler is a no-op because Close already synced everything.
func (h *AsyncHandler) Flush(ctx context.Context) error {
	h.Start()
	done := make(chan error, 1)
	if err := h.queue.pushFlush(done); err != nil {
		return nil
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending returns the number of queued entries not yet written.
func (h *AsyncHandler) Pending() int {
	return h.queue.size()
}

// Stats returns a snapshot of the current statistics
func (h *AsyncHandler) Stats() Snapshot {
	return h.stats.Snapshot()
}

// Close stops accepting entries, waits for the worker to drain the
// queue, then syncs and closes the sink. It is idempotent.
func (h *AsyncHandler) Close() error {
	h.closeOnce.Do(func() {
		h.queue.close()
		h.Start()
		<-h.workerDone

		syncErr := h.sink.Sync()
		if syncErr != nil {
			h.report(syncErr)
		}
		h.closeErr = h.sink.Close()
		if h.closeErr == nil {
			h.closeErr = syncErr
		}
	})
	return h.closeErr
}

// process is the worker loop; it is the only goroutine touching the sink
// until Close.
func (h *AsyncHandler) process() {
	defer close(h.workerDone)

	for {
		if it, ok := h.queue.pop(); ok {
			h.handleItem(it)
			continue
		}
		select {
		case <-h.queue.ready:
		case <-h.queue.done:
			h.drain()
			return
		}
	}
}

// drain writes what is left after close, bounded by drainTimeout.
func (h *AsyncHandler) drain() {
	var deadline time.Time
	if h.drainTimeout > 0 {
		deadline = time.Now().Add(h.drainTimeout)
	}
	for {
		it, ok := h.queue.pop()
		if !ok {
			return
		}
		if !deadline.IsZero() && time.Now().After(deadline) {
			h.discard(it)
			continue
		}
		h.handleItem(it)
	}
}

func (h *AsyncHandler) handleItem(it queueItem) {
	if it.flush != nil {
		err := h.sink.Sync()
		if err != nil {
			h.report(err)
		}
		it.flush <- err
		return
	}

	if err := h.sink.Write(it.entry); err != nil {
		h.stats.RecordFailure()
		h.report(err)
	} else {
		h.stats.RecordWrite()
	}
	core.PutEntry(it.entry)
}

func (h *AsyncHandler) discard(it queueItem) {
	if it.flush != nil {
		it.flush <- ErrHandlerClosed
		return
	}
	h.stats.RecordDrop(it.entry.Level)
	core.PutEntry(it.entry)
}
