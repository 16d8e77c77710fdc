package handler

import (
	"bytes"
	"errors"
	"sync"

	"github.com/philipp01105/krait/core"
	"github.com/philipp01105/krait/formatter"
)

// memSink records written messages in memory.
type memSink struct {
	mu       sync.Mutex
	messages []string
	syncs    int
	closed   bool
	failOn   string // Write fails for this message
}

func (s *memSink) Write(e *core.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn != "" && e.Message == s.failOn {
		return &WriteError{Op: "write", Path: "mem", Err: errors.New("disk full")}
	}
	s.messages = append(s.messages, e.Message)
	return nil
}

func (s *memSink) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncs++
	return nil
}

func (s *memSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *memSink) snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.messages...)
}

// recorder is a synchronous Handler that keeps copies of handled entries.
type recorder struct {
	mu      sync.Mutex
	entries []*core.Entry
	err     error
	closed  bool
}

func (r *recorder) Handle(e *core.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *e
	c.Fields = append([]core.Field(nil), e.Fields...)
	r.entries = append(r.entries, &c)
	return r.err
}

func (r *recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *recorder) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Message
	}
	return out
}

func newEntry(level core.Level, msg string) *core.Entry {
	e := core.GetEntry()
	e.Level = level
	e.Message = msg
	return e
}

// textHandler formats entries synchronously into a buffer.
type textHandler struct {
	mu  sync.Mutex
	buf bytes.Buffer
	f   formatter.Formatter
}

func newTextHandler() *textHandler {
	return &textHandler{f: formatter.NewTextFormatter(formatter.Config{})}
}

func (h *textHandler) Handle(e *core.Entry) error {
	data, err := h.f.Format(e)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = h.buf.Write(data)
	return err
}

func (h *textHandler) Close() error { return nil }

func (h *textHandler) String() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.buf.String()
}
