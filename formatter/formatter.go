package formatter

import (
	"bytes"
	"fmt"
	"sort"
	"sync"

	"github.com/philipp01105/krait/core"
)

// Formatter defines the interface for log formatters
type Formatter interface {
	// Format formats a log entry into bytes
	Format(entry *core.Entry) ([]byte, error)
}

// BufferFormatter is implemented by formatters that can append to a
// caller-owned buffer. Sinks prefer it to avoid a copy per entry.
type BufferFormatter interface {
	FormatEntry(entry *core.Entry, buf *bytes.Buffer)
}

// Config holds common formatter configuration
type Config struct {
	// IncludeCaller enables caller information in log output
	IncludeCaller bool
	// TimestampFormat specifies the time format (empty for the formatter default)
	TimestampFormat string
	// Color renders level labels with ANSI colours (text formatter only)
	Color bool
}

// Factory builds a formatter from cfg.
type Factory func(cfg Config) Formatter

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{
		"text": func(cfg Config) Formatter { return NewTextFormatter(cfg) },
		"json": func(cfg Config) Formatter { return NewJSONFormatter(cfg) },
	}
)

// Register makes a formatter available to New and to configuration
// files under name. Registering an existing name replaces it.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = factory
}

// Names returns the registered formatter names in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New returns the formatter registered under name. An empty name
// selects text.
func New(name string, cfg Config) (Formatter, error) {
	if name == "" {
		name = "text"
	}
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown formatter %q", name)
	}
	return factory(cfg), nil
}

var bufferPool = sync.Pool{
	New: func() any {
		b := new(bytes.Buffer)
		b.Grow(256)
		return b
	},
}

func getBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// putBuffer drops buffers above 64 KiB so one huge line does not pin memory.
func putBuffer(buf *bytes.Buffer) {
	if buf.Cap() > 64<<10 {
		return
	}
	bufferPool.Put(buf)
}
