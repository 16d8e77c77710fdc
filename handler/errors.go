package handler

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	// ErrHandlerClosed is returned by Handle after Close.
	ErrHandlerClosed = errors.New("handler closed")
	// ErrQueueFull is returned when a blocking enqueue times out.
	ErrQueueFull = errors.New("queue full")
)

// WriteError describes a failed operation on a handler's destination.
// Handlers report it through their ErrorReporter rather than returning it
// to the goroutine that logged.
type WriteError struct {
	Op   string // "open", "write", "sync", "rotate" or "close"
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	if e.Path == "" {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// ErrorReporter receives failures that happen away from the caller,
// typically on an async worker goroutine.
type ErrorReporter func(err error)

var (
	fallbackMu sync.Mutex
	fallback   io.Writer = os.Stderr
)

// SetFallbackWriter redirects the default error report stream and
// returns the previous one.
func SetFallbackWriter(w io.Writer) io.Writer {
	fallbackMu.Lock()
	defer fallbackMu.Unlock()
	prev := fallback
	fallback = w
	return prev
}

// StderrReporter returns the default reporter, which prints one line per
// error to the fallback stream (stderr unless redirected).
func StderrReporter(name string) ErrorReporter {
	return func(err error) {
		fallbackMu.Lock()
		defer fallbackMu.Unlock()
		fmt.Fprintf(fallback, "krait: %s: %v\n", name, err)
	}
}
