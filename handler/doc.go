// Package handler provides the Handler interface and the building blocks
// shared by the concrete handlers in filehandler and consolehandler.
//
// AsyncHandler is the core: Handle takes a snapshot of the entry, puts it
// on a FIFO queue and returns without touching I/O. One worker goroutine
// per handler drains the queue into a Sink, so entries are written in the
// order they were queued and the sink is never shared between goroutines.
// The queue is unbounded when Capacity is zero.
//
// When a bounded queue is full, the level's OverflowPolicy applies: Block
// (the default) waits up to BlockTimeout and then fails with
// ErrQueueFull, DropNewest discards the incoming entry and DropOldest
// evicts the oldest queued one. Drops are counted in Stats.
//
// Flush waits until everything queued before the call is written and
// synced. Close drains the queue, syncs and closes the sink; Handle after
// Close returns ErrHandlerClosed. Write failures on the worker are never
// returned to callers. They go to the handler's ErrorReporter, which
// prints to stderr by default, and the worker carries on with the next
// entry.
//
// Other pieces:
//
//   - Filtered runs a filter.Chain in front of one handler.
//   - MultiHandler fans out a single entry to multiple child handlers.
//   - SlogHandler adapts a Handler to log/slog.Handler.
//   - NewZapCore adapts a Handler to zapcore.Core.
package handler
