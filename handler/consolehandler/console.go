package consolehandler

import (
	"bytes"
	"io"
	"os"
	"sync"
	"time"

	"github.com/philipp01105/krait/core"
	"github.com/philipp01105/krait/formatter"
	"github.com/philipp01105/krait/handler"
)

// isConcurrentSafeWriter returns true if the writer is known to be safe for
// concurrent Write calls, allowing the handler to skip write-level locking.
func isConcurrentSafeWriter(w io.Writer) bool {
	if w == io.Discard {
		return true
	}
	_, ok := w.(*os.File)
	return ok
}

// consoleSink formats entries and writes each one with a single Write.
type consoleSink struct {
	writer          io.Writer
	formatter       formatter.Formatter
	bufferFormatter formatter.BufferFormatter
	concurrentSafe  bool
	mu              sync.Mutex // protects syncBuf, and writer unless concurrentSafe
	syncBuf         bytes.Buffer
	bufPool         sync.Pool
}

func newConsoleSink(cfg ConsoleConfig) *consoleSink {
	s := &consoleSink{
		writer:         cfg.Writer,
		formatter:      cfg.Formatter,
		concurrentSafe: cfg.ConcurrentWriter || isConcurrentSafeWriter(cfg.Writer),
	}
	s.bufferFormatter, _ = cfg.Formatter.(formatter.BufferFormatter)
	if s.bufferFormatter != nil {
		s.syncBuf.Grow(256)
		s.bufPool.New = func() interface{} {
			b := new(bytes.Buffer)
			b.Grow(256)
			return b
		}
	}
	return s
}

// Write formats and writes an entry. An uncontended call formats into
// the sink's own buffer; a contended one formats into a pooled buffer
// outside the lock.
func (s *consoleSink) Write(entry *core.Entry) error {
	if s.bufferFormatter == nil {
		data, err := s.formatter.Format(entry)
		if err != nil {
			return &handler.WriteError{Op: "format", Err: err}
		}
		return s.writeLocked(data)
	}

	if s.mu.TryLock() {
		s.syncBuf.Reset()
		s.bufferFormatter.FormatEntry(entry, &s.syncBuf)
		_, err := s.writer.Write(s.syncBuf.Bytes())
		s.mu.Unlock()
		return wrapWrite(err)
	}

	buf := s.bufPool.Get().(*bytes.Buffer)
	buf.Reset()
	s.bufferFormatter.FormatEntry(entry, buf)
	err := s.writeLocked(buf.Bytes())
	s.bufPool.Put(buf)
	return err
}

func (s *consoleSink) writeLocked(data []byte) error {
	if s.concurrentSafe {
		_, err := s.writer.Write(data)
		return wrapWrite(err)
	}
	s.mu.Lock()
	_, err := s.writer.Write(data)
	s.mu.Unlock()
	return wrapWrite(err)
}

func wrapWrite(err error) error {
	if err == nil {
		return nil
	}
	return &handler.WriteError{Op: "write", Err: err}
}

// Sync flushes writers that buffer, such as *bufio.Writer. Terminals and
// pipes are not fsynced.
func (s *consoleSink) Sync() error {
	f, ok := s.writer.(interface{ Flush() error })
	if !ok {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return wrapWrite(f.Flush())
}

// Close leaves the writer open; the console streams belong to the process.
func (s *consoleSink) Close() error {
	return s.Sync()
}

// ConsoleConfig holds configuration for console handler
type ConsoleConfig struct {
	// Writer to write to (default: os.Stdout)
	Writer io.Writer
	// Formatter to use (default: TextFormatter)
	Formatter formatter.Formatter
	// Async writes through a queue and a background worker
	Async bool
	// QueueCapacity bounds the async queue (0 = unbounded)
	QueueCapacity int
	// OverflowPolicy defines per-level overflow behavior
	OverflowPolicy map[core.Level]handler.OverflowPolicy
	// DefaultPolicy applies to levels missing from OverflowPolicy (default: Block)
	DefaultPolicy handler.OverflowPolicy
	// BlockTimeout bounds a Block enqueue (0 = fail at once, <0 = wait)
	BlockTimeout time.Duration
	// DrainTimeout bounds draining on Close (0 = drain everything)
	DrainTimeout time.Duration
	// ErrorReporter receives failures from the async worker (default: stderr)
	ErrorReporter handler.ErrorReporter
	// ConcurrentWriter indicates the Writer supports concurrent Write calls.
	// When true, the handler skips write-level locking for parallel log entries.
	// Automatically detected for io.Discard and *os.File; set true for other
	// goroutine-safe writers.
	ConcurrentWriter bool
}

// applyConsoleDefaults fills in zero-value fields with defaults.
func applyConsoleDefaults(cfg *ConsoleConfig) {
	if cfg.Writer == nil {
		cfg.Writer = os.Stdout
	}
	if cfg.Formatter == nil {
		cfg.Formatter = formatter.NewTextFormatter(formatter.Config{})
	}
	if cfg.ErrorReporter == nil {
		cfg.ErrorReporter = handler.StderrReporter("console")
	}
}

// NewConsoleHandler creates a new console handler.
// Returns a SyncConsoleHandler when Async is false, or an AsyncConsoleHandler
// when Async is true.
func NewConsoleHandler(cfg ConsoleConfig) handler.Handler {
	applyConsoleDefaults(&cfg)
	if cfg.Async {
		return newAsyncConsoleHandler(cfg)
	}
	return newSyncConsoleHandler(cfg)
}
