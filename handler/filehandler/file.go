package filehandler

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/multierr"

	"github.com/philipp01105/krait/core"
	"github.com/philipp01105/krait/formatter"
	"github.com/philipp01105/krait/handler"
)

// backupTimeFormat sorts lexically in chronological order.
const backupTimeFormat = "2006-01-02T15-04-05.000000000"

// fileSink owns the destination file. It is opened lazily on the first
// write, and a failed open is retried on the next one.
type fileSink struct {
	mu              sync.Mutex
	filename        string
	mode            os.FileMode
	file            *os.File
	bufWriter       *bufio.Writer
	bufSize         int
	formatter       formatter.Formatter
	bufferFormatter formatter.BufferFormatter
	syncBuf         bytes.Buffer
	maxSize         int64
	maxAge          time.Duration
	maxBackups      int
	rotateInterval  time.Duration
	currentSize     int64
	openedAt        time.Time
	hasRotation     bool
	now             func() time.Time
}

func newFileSink(cfg FileConfig) *fileSink {
	s := &fileSink{
		filename:       cfg.Filename,
		mode:           cfg.FileMode,
		bufSize:        cfg.WriteBufferSize,
		formatter:      cfg.Formatter,
		maxSize:        cfg.MaxSize,
		maxAge:         cfg.MaxAge,
		maxBackups:     cfg.MaxBackups,
		rotateInterval: cfg.RotateInterval,
		hasRotation:    cfg.MaxSize > 0 || cfg.MaxAge > 0 || cfg.RotateInterval > 0,
		now:            time.Now,
	}
	s.bufferFormatter, _ = cfg.Formatter.(formatter.BufferFormatter)
	if s.bufferFormatter != nil {
		s.syncBuf.Grow(256)
	}
	return s
}

func (s *fileSink) wrap(op string, err error) error {
	return &handler.WriteError{Op: op, Path: s.filename, Err: err}
}

// openLocked opens the file for appending. Caller holds mu.
func (s *fileSink) openLocked() error {
	if err := os.MkdirAll(filepath.Dir(s.filename), 0755); err != nil {
		return s.wrap("open", err)
	}
	file, err := os.OpenFile(s.filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, s.mode)
	if err != nil {
		return s.wrap("open", err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return s.wrap("open", err)
	}

	s.file = file
	if s.bufWriter == nil {
		s.bufWriter = bufio.NewWriterSize(file, s.bufSize)
	} else {
		s.bufWriter.Reset(file)
	}
	s.currentSize = info.Size()
	s.openedAt = s.now()
	return nil
}

// Write formats entry and appends it to the buffered file.
func (s *fileSink) Write(entry *core.Entry) error {
	var data []byte
	if s.bufferFormatter == nil {
		var err error
		if data, err = s.formatter.Format(entry); err != nil {
			return s.wrap("format", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		if err := s.openLocked(); err != nil {
			return err
		}
	}
	// A failed rotation still writes when a file is open.
	rotateErr := s.rotateIfNeeded()
	if s.file == nil {
		return rotateErr
	}

	if s.bufferFormatter != nil {
		s.syncBuf.Reset()
		s.bufferFormatter.FormatEntry(entry, &s.syncBuf)
		data = s.syncBuf.Bytes()
	}
	n, err := s.bufWriter.Write(data)
	s.currentSize += int64(n)
	if err != nil {
		return s.failLocked("write", err)
	}
	return rotateErr
}

// failLocked drops the file after a write error. bufio.Writer keeps
// returning its first error, so the next Write reopens the file and
// resets the buffer instead of reusing it. Caller holds mu.
func (s *fileSink) failLocked(op string, err error) error {
	_ = s.file.Close()
	s.file = nil
	return s.wrap(op, err)
}

// Sync flushes buffered output and commits the file to stable storage.
func (s *fileSink) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.syncLocked()
}

func (s *fileSink) syncLocked() error {
	if s.file == nil {
		return nil
	}
	if err := s.bufWriter.Flush(); err != nil {
		return s.failLocked("write", err)
	}
	if err := s.file.Sync(); err != nil {
		return s.wrap("sync", err)
	}
	return nil
}

// Close flushes, syncs and closes the file. The sink may be reopened by
// a later Write.
func (s *fileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	if err := s.syncLocked(); err != nil {
		return err
	}
	err := s.file.Close()
	s.file = nil
	if err != nil {
		return s.wrap("close", err)
	}
	return nil
}

// rotateIfNeeded checks and performs rotation if needed. Caller holds mu.
func (s *fileSink) rotateIfNeeded() error {
	if !s.hasRotation {
		return nil
	}

	age := s.now().Sub(s.openedAt)
	needRotate := (s.maxSize > 0 && s.currentSize >= s.maxSize) ||
		(s.maxAge > 0 && age >= s.maxAge) ||
		(s.rotateInterval > 0 && age >= s.rotateInterval)
	if !needRotate || s.currentSize == 0 {
		return nil
	}
	return s.rotate()
}

// rotate renames the current file to a timestamped backup and opens a
// fresh one. Caller holds mu.
func (s *fileSink) rotate() error {
	if err := s.syncLocked(); err != nil {
		return err
	}
	if err := s.file.Close(); err != nil {
		s.file = nil
		return s.wrap("rotate", err)
	}
	s.file = nil

	backup := s.filename + "." + s.now().Format(backupTimeFormat)
	renameErr := os.Rename(s.filename, backup)
	if renameErr == nil && s.maxBackups > 0 {
		s.cleanupOldBackups()
	}

	// Keep logging even when the rename failed.
	if err := s.openLocked(); err != nil {
		if renameErr != nil {
			return s.wrap("rotate", multierr.Append(renameErr, err))
		}
		return err
	}
	if renameErr != nil {
		return s.wrap("rotate", renameErr)
	}
	return nil
}

// cleanupOldBackups removes the oldest backups beyond maxBackups.
func (s *fileSink) cleanupOldBackups() {
	backups := s.backups()
	if len(backups) <= s.maxBackups {
		return
	}
	for _, file := range backups[:len(backups)-s.maxBackups] {
		if err := os.Remove(file); err != nil {
			return
		}
	}
}

// backups lists rotated files, oldest first.
func (s *fileSink) backups() []string {
	base := filepath.Base(s.filename)
	matches, err := filepath.Glob(filepath.Join(filepath.Dir(s.filename), base+".*"))
	if err != nil {
		return nil
	}
	var backups []string
	for _, match := range matches {
		suffix := strings.TrimPrefix(filepath.Base(match), base+".")
		if _, err := time.Parse(backupTimeFormat, suffix); err == nil {
			backups = append(backups, match)
		}
	}
	sort.Strings(backups)
	return backups
}

// FileConfig holds configuration for file handler
type FileConfig struct {
	// Filename is the path to the log file. Parent directories are
	// created on first write.
	Filename string
	// Formatter to use (default: TextFormatter)
	Formatter formatter.Formatter
	// Async writes through a queue and a background worker
	Async bool
	// FileMode is used when the file is created (default: 0644)
	FileMode os.FileMode
	// WriteBufferSize is the size of the bufio buffer (default: 4096)
	WriteBufferSize int

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
	// ManualStart defers the async worker until Start, Flush or Close
	ManualStart bool
	// ErrorReporter receives failures from the async worker (default: stderr)
	ErrorReporter handler.ErrorReporter

	// MaxSize is the maximum size in bytes before rotation (0 = no size rotation)
	MaxSize int64
	// MaxAge is the maximum age before rotation (0 = no time rotation)
	MaxAge time.Duration
	// MaxBackups is the maximum number of old log files to retain (0 = keep all)
	MaxBackups int
	// RotateInterval is the interval for time-based rotation (0 = no interval rotation)
	RotateInterval time.Duration
}

// applyFileDefaults fills in zero-value fields with defaults.
func applyFileDefaults(cfg *FileConfig) {
	if cfg.Formatter == nil {
		cfg.Formatter = formatter.NewTextFormatter(formatter.Config{})
	}
	if cfg.FileMode == 0 {
		cfg.FileMode = 0644
	}
	if cfg.WriteBufferSize <= 0 {
		cfg.WriteBufferSize = 4096
	}
	if cfg.ErrorReporter == nil {
		cfg.ErrorReporter = handler.StderrReporter("file " + cfg.Filename)
	}
}

// NewFileHandler creates a new file handler.
// Returns a SyncFileHandler when Async is false, or an AsyncFileHandler
// when Async is true. The file itself is opened on the first write, so
// only an invalid configuration makes this fail.
func NewFileHandler(cfg FileConfig) (handler.Handler, error) {
	if cfg.Filename == "" {
		return nil, fmt.Errorf("filename is required")
	}
	if cfg.QueueCapacity < 0 {
		return nil, fmt.Errorf("queue capacity must not be negative, got %d", cfg.QueueCapacity)
	}
	applyFileDefaults(&cfg)

	if cfg.Async {
		return newAsyncFileHandler(cfg), nil
	}
	return newSyncFileHandler(cfg), nil
}
