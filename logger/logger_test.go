package logger

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/philipp01105/krait/filter"
	"github.com/philipp01105/krait/formatter"
	"github.com/philipp01105/krait/handler"
	"github.com/philipp01105/krait/handler/consolehandler"
)

func TestLogger_LevelGate(t *testing.T) {
	emit := map[Level]func(*Logger, string){
		DebugLevel: func(l *Logger, m string) { l.Debug(m) },
		InfoLevel:  func(l *Logger, m string) { l.Info(m) },
		WarnLevel:  func(l *Logger, m string) { l.Warn(m) },
		ErrorLevel: func(l *Logger, m string) { l.Error(m) },
	}
	tests := []struct {
		min     Level
		at      Level
		written bool
	}{
		{InfoLevel, DebugLevel, false},
		{InfoLevel, InfoLevel, true},
		{InfoLevel, WarnLevel, true},
		{WarnLevel, InfoLevel, false},
		{ErrorLevel, ErrorLevel, true},
		{DebugLevel, DebugLevel, true},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_at_%s", tt.at, tt.min), func(t *testing.T) {
			var buf bytes.Buffer
			log := newBufferLogger(&buf, tt.min).Build()
			emit[tt.at](log, "gate check")
			assert.Equal(t, tt.written, strings.Contains(buf.String(), "gate check"))
			assert.Equal(t, tt.written, log.Enabled(tt.at))
		})
	}
}

func TestLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf, InfoLevel).WithFields(String("app", "billing")).Build()

	log.With(String("request_id", "r-9")).Info("paid",
		String("currency", "EUR"),
		Int("cents", 4200),
		Bool("retry", true),
		Float64("ratio", 0.25),
	)

	out := buf.String()
	for _, want := range []string{"app=billing", "request_id=r-9", "currency=EUR", "cents=4200", "retry=true", "ratio=0.25"} {
		assert.Contains(t, out, want)
	}
}

func TestLogger_Formatted(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf, DebugLevel).Build()

	log.Debugf("cache %s after %d misses", "warm", 3)
	log.Warnf("disk at %d%%", 91)

	assert.Contains(t, buf.String(), "cache warm after 3 misses")
	assert.Contains(t, buf.String(), "disk at 91%")
}

func TestLogger_WithDoesNotLeakIntoParent(t *testing.T) {
	var buf bytes.Buffer
	parent := newBufferLogger(&buf, InfoLevel).WithFields(String("svc", "api")).Build()
	child := parent.With(String("tenant", "acme"))

	parent.Info("from parent")
	assert.Contains(t, buf.String(), "svc=api")
	assert.NotContains(t, buf.String(), "tenant=acme")

	buf.Reset()
	child.Info("from child")
	assert.Contains(t, buf.String(), "svc=api")
	assert.Contains(t, buf.String(), "tenant=acme")
}

func TestLogger_FatalExits(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf, DebugLevel).Build()

	code := -1
	origExit := osExit
	osExit = func(c int) { code = c }
	defer func() { osExit = origExit }()

	log.Fatal("cannot bind", Int("port", 8080))

	assert.Equal(t, 1, code)
	assert.Contains(t, buf.String(), "[FATAL] cannot bind")
	assert.Contains(t, buf.String(), "port=8080")
}

func TestLogger_PanicAfterWrite(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf, DebugLevel).Build()

	assert.PanicsWithValue(t, "invariant broken", func() { log.Panic("invariant broken") })
	assert.Contains(t, buf.String(), "[PANIC] invariant broken")
}

func TestLogger_CoarseClock(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf, InfoLevel).WithCoarseClock(true).Build()

	log.Info("bare")
	log.With(String("k", "v")).Info("child")
	log.Info("fielded", Int("n", 1))

	out := buf.String()
	assert.Contains(t, out, "bare")
	assert.Contains(t, out, "child k=v")
	assert.Contains(t, out, "fielded n=1")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"trace", TraceLevel},
		{"DEBUG", DebugLevel},
		{"info", InfoLevel},
		{"Notice", NoticeLevel},
		{"warning", WarnLevel},
		{"error", ErrorLevel},
		{"FATAL", FatalLevel},
		{"panic", PanicLevel},
		{"bogus", InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), tt.in)
	}
	_, err := LookupLevel("bogus")
	assert.Error(t, err)
}

func benchLogger() *Logger {
	h := consolehandler.NewConsoleHandler(consolehandler.ConsoleConfig{
		Writer:    io.Discard,
		Formatter: formatter.NewTextFormatter(formatter.Config{}),
	})
	return NewBuilder().WithHandler(h).WithLevel(InfoLevel).Build()
}

func BenchmarkLogger_Disabled(b *testing.B) {
	log := benchLogger()
	for b.Loop() {
		log.Debug("dropped", String("key", "value"))
	}
}

func BenchmarkLogger_Fields(b *testing.B) {
	log := benchLogger()
	for b.Loop() {
		log.Info("request", String("path", "/v1"), Int("status", 200), Bool("cached", false))
	}
}

func newBufferLogger(buf *bytes.Buffer, level Level) *Builder {
	h := consolehandler.NewConsoleHandler(consolehandler.ConsoleConfig{
		Writer:    buf,
		Formatter: formatter.NewTextFormatter(formatter.Config{IncludeCaller: true}),
	})
	return NewBuilder().WithHandler(h).WithLevel(level)
}

func TestLogger_TraceAndNotice(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf, TraceLevel).Build()

	log.Trace("deep detail")
	log.Noticef("worker %d ready", 3)

	output := buf.String()
	assert.Contains(t, output, "[TRACE] deep detail")
	assert.Contains(t, output, "[NOTICE] worker 3 ready")

	buf.Reset()
	log = newBufferLogger(&buf, InfoLevel).Build()
	log.Tracef("hidden %d", 1)
	log.Notice("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestLogger_Named(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf, InfoLevel).WithName("app").Build()

	db := log.Named("db")
	assert.Equal(t, "app.db", db.Name())
	assert.Equal(t, "app", log.Name())
	assert.Equal(t, "app", log.Named("").Name())

	db.Info("connected")
	assert.Contains(t, buf.String(), "(app.db) connected")
}

func TestLogger_AtomicLevel(t *testing.T) {
	var buf bytes.Buffer
	level := NewAtomicLevel(WarnLevel)
	log := newBufferLogger(&buf, InfoLevel).WithAtomicLevel(level).Build()

	log.Info("quiet")
	assert.Empty(t, buf.String())

	level.SetLevel(DebugLevel)
	assert.True(t, log.With(String("k", "v")).Enabled(DebugLevel), "children share the level")
	log.Debug("loud")
	assert.Contains(t, buf.String(), "loud")
}

func TestLogger_CallerIsUserFrame(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf, InfoLevel).WithCaller(true).Build()

	log.Info("here")
	log.Infof("and %s", "here")
	log.Log(WarnLevel, "also")

	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		assert.Contains(t, line, "[logger_test.go:")
	}
}

func TestLogger_WrapperCallerSkip(t *testing.T) {
	var buf bytes.Buffer
	log := newBufferLogger(&buf, InfoLevel).WithCaller(true).WithCallerSkip(1).Build()

	wrapped := func(msg string) { log.Info(msg) }
	_, _, line, _ := runtime.Caller(0)
	wrapped("wrapped")
	assert.Contains(t, buf.String(), fmt.Sprintf("[logger_test.go:%d]", line+1))
}

func TestLogger_NilHandler(t *testing.T) {
	log := NewBuilder().Build()
	assert.NotPanics(t, func() { log.Info("nowhere") })
	assert.NoError(t, log.Flush(context.Background()))
	assert.NoError(t, log.Close())
}

func TestLogger_FlagSkipsOneHandler(t *testing.T) {
	var display, archive bytes.Buffer
	h := handler.NewMultiHandler(
		handler.WithFilters(consolehandler.NewConsoleHandler(consolehandler.ConsoleConfig{Writer: &display}),
			filter.NewSkipFlag("skip_display")),
		consolehandler.NewConsoleHandler(consolehandler.ConsoleConfig{Writer: &archive}),
	)
	log := NewBuilder().WithHandler(h).Build()

	log.Info("secret", Flag("skip_display"))
	log.Info("public")

	assert.NotContains(t, display.String(), "secret")
	assert.Contains(t, display.String(), "public")
	assert.Contains(t, archive.String(), "secret")
	require.NoError(t, log.Close())
}

func TestLogger_FatalFlushesAsyncHandler(t *testing.T) {
	var out syncBuffer
	h := consolehandler.NewConsoleHandler(consolehandler.ConsoleConfig{Writer: &out, Async: true})
	defer h.Close()
	log := NewBuilder().WithHandler(h).Build()

	origExit := osExit
	osExit = func(int) {}
	defer func() { osExit = origExit }()

	log.Fatalf("giving up after %d tries", 3)
	assert.Contains(t, out.String(), "giving up after 3 tries")
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
