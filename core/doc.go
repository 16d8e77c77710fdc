// Package core defines the shared types used across the krait logging
// packages.
//
// It provides the Level type for severity filtering, the Entry type that
// represents a single log event, and the Field type for zero-allocation
// structured key-value pairs.
//
// The level set extends the usual ladder with TraceLevel below
// DebugLevel and NoticeLevel between InfoLevel and WarnLevel. Level.Index
// maps every defined level onto a dense slot so per-level counters can
// live in fixed arrays.
//
// Entry objects are pooled via sync.Pool. Callers get an Entry with
// GetEntry and return it with PutEntry once the handler has consumed it.
// Handlers that keep an entry past Handle (the async ones) take a
// snapshot with CloneEntry, so the caller may always recycle its own
// entry as soon as Handle returns.
//
// CoarseClock trades timestamp precision (500µs by default) for a
// cheaper read on hot paths. Its refresh goroutine stops on its own
// once nobody reads the clock.
package core
