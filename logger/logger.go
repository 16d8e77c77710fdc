package logger

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/philipp01105/krait/core"
	"github.com/philipp01105/krait/handler"
)

// osExit is a variable to allow overriding os.Exit in tests
var osExit = os.Exit

// fatalFlushTimeout bounds the flush Fatal performs before exiting.
const fatalFlushTimeout = 5 * time.Second

// defaultCallerSkip makes GetCaller report the frame that called a
// Logger method.
const defaultCallerSkip = 3

// Logger is the main logging interface (immutable)
type Logger struct {
	handler       handler.Handler
	level         core.Level
	atomicLevel   *AtomicLevel
	name          string
	fields        []core.Field
	includeCaller bool
	callerFlag    *atomic.Bool // overrides includeCaller when set
	callerSkip    int
	coarseClock   bool
	errs          *handleReporter
}

// Builder provides a fluent API for building Logger instances
type Builder struct {
	l      Logger
	report handler.ErrorReporter
}

// NewBuilder creates a new logger builder
func NewBuilder() *Builder {
	return &Builder{l: Logger{
		level:      core.InfoLevel, // Default level
		callerSkip: defaultCallerSkip,
	}}
}

// WithHandler sets the handler
func (b *Builder) WithHandler(h handler.Handler) *Builder {
	b.l.handler = h
	return b
}

// WithLevel sets the log level
func (b *Builder) WithLevel(level core.Level) *Builder {
	b.l.level = level
	return b
}

// WithAtomicLevel makes the logger read its level from a, so the level
// can be changed after Build.
func (b *Builder) WithAtomicLevel(a *AtomicLevel) *Builder {
	b.l.atomicLevel = a
	return b
}

// WithName sets the logger name reported in every entry.
func (b *Builder) WithName(name string) *Builder {
	b.l.name = name
	return b
}

// WithFields adds default fields to all log entries
func (b *Builder) WithFields(fields ...core.Field) *Builder {
	b.l.fields = append(b.l.fields, fields...)
	return b
}

// WithCaller enables caller information
func (b *Builder) WithCaller(enabled bool) *Builder {
	b.l.includeCaller = enabled
	return b
}

// WithCallerSkip skips n additional frames when capturing the caller,
// for wrappers around Logger.
func (b *Builder) WithCallerSkip(n int) *Builder {
	b.l.callerSkip = defaultCallerSkip + n
	return b
}

// WithCoarseClock timestamps entries with core.CoarseNow instead of
// time.Now. The process-wide coarse clock is started here and stopped
// by Shutdown or after a second without log calls.
func (b *Builder) WithCoarseClock(enabled bool) *Builder {
	if enabled {
		core.StartCoarseClock()
	}
	b.l.coarseClock = enabled
	return b
}

// WithErrorReporter receives errors returned by the handler, such as
// ErrQueueFull or ErrHandlerClosed. The default prints to the handler
// fallback stream via handler.StderrReporter. Repeats of one error kind
// are reported at most once per second.
func (b *Builder) WithErrorReporter(r handler.ErrorReporter) *Builder {
	b.report = r
	return b
}

// Build creates the Logger instance
func (b *Builder) Build() *Logger {
	l := b.l
	l.fields = append([]core.Field(nil), b.l.fields...)
	report := b.report
	if report == nil {
		name := l.name
		if name == "" {
			name = "logger"
		}
		report = handler.StderrReporter(name)
	}
	l.errs = newHandleReporter(report)
	return &l
}

// clone returns a shallow copy; fields are shared until appended to.
func (l *Logger) clone() *Logger {
	c := *l
	return &c
}

// With creates a new Logger with additional fields (immutable operation)
func (l *Logger) With(fields ...core.Field) *Logger {
	newFields := make([]core.Field, len(l.fields)+len(fields))
	copy(newFields, l.fields)
	copy(newFields[len(l.fields):], fields)

	c := l.clone()
	c.fields = newFields
	return c
}

// Named returns a child logger whose name is the parent's name joined
// with name by a dot.
func (l *Logger) Named(name string) *Logger {
	c := l.clone()
	switch {
	case name == "":
	case l.name == "":
		c.name = name
	default:
		c.name = l.name + "." + name
	}
	return c
}

// Name returns the logger name.
func (l *Logger) Name() string {
	return l.name
}

// Level returns the current minimum level.
func (l *Logger) Level() core.Level {
	if l.atomicLevel != nil {
		return l.atomicLevel.Level()
	}
	return l.level
}

// Enabled reports whether an entry at level would be handled.
func (l *Logger) Enabled(level core.Level) bool {
	return level >= l.Level()
}

// Handler returns the handler entries are sent to.
func (l *Logger) Handler() handler.Handler {
	return l.handler
}

// Log logs msg at level. Fatal and Panic levels are written but do not
// exit or panic.
func (l *Logger) Log(level core.Level, msg string, fields ...core.Field) {
	l.emit(level, msg, fields)
}

// log builds a pooled entry and hands it to the handler. depth counts
// extra frames between the user's call and the Logger method.
func (l *Logger) log(depth int, level core.Level, msg string, fields []core.Field) {
	if l.handler == nil {
		return
	}

	entry := core.GetEntry()
	if l.coarseClock {
		entry.Time = core.CoarseNow()
	}
	entry.Level = level
	entry.Logger = l.name
	entry.Message = msg

	entry.Fields = append(append(entry.Fields, l.fields...), fields...)

	if l.captureCaller() {
		entry.Caller = core.GetCaller(l.callerSkip + depth)
	}

	// Handlers copy what they keep, so the entry can always be recycled.
	err := l.handler.Handle(entry)
	core.PutEntry(entry)
	if err != nil && l.errs != nil {
		l.errs.handle(err)
	}
}

func (l *Logger) captureCaller() bool {
	if l.callerFlag != nil {
		return l.callerFlag.Load()
	}
	return l.includeCaller
}

// emit and emitf are the single frame between the leveled methods and
// log, so every method captures the same caller depth.
func (l *Logger) emit(level core.Level, msg string, fields []core.Field) {
	if l.Enabled(level) {
		l.log(1, level, msg, fields)
	}
}

func (l *Logger) emitf(level core.Level, format string, args []interface{}) {
	if l.Enabled(level) {
		l.log(1, level, fmt.Sprintf(format, args...), nil)
	}
}

func (l *Logger) Trace(msg string, fields ...core.Field)  { l.emit(core.TraceLevel, msg, fields) }
func (l *Logger) Debug(msg string, fields ...core.Field)  { l.emit(core.DebugLevel, msg, fields) }
func (l *Logger) Info(msg string, fields ...core.Field)   { l.emit(core.InfoLevel, msg, fields) }
func (l *Logger) Notice(msg string, fields ...core.Field) { l.emit(core.NoticeLevel, msg, fields) }
func (l *Logger) Warn(msg string, fields ...core.Field)   { l.emit(core.WarnLevel, msg, fields) }
func (l *Logger) Error(msg string, fields ...core.Field)  { l.emit(core.ErrorLevel, msg, fields) }

func (l *Logger) Tracef(format string, args ...interface{})  { l.emitf(core.TraceLevel, format, args) }
func (l *Logger) Debugf(format string, args ...interface{})  { l.emitf(core.DebugLevel, format, args) }
func (l *Logger) Infof(format string, args ...interface{})   { l.emitf(core.InfoLevel, format, args) }
func (l *Logger) Noticef(format string, args ...interface{}) { l.emitf(core.NoticeLevel, format, args) }
func (l *Logger) Warnf(format string, args ...interface{})   { l.emitf(core.WarnLevel, format, args) }
func (l *Logger) Errorf(format string, args ...interface{})  { l.emitf(core.ErrorLevel, format, args) }

// Fatal logs regardless of level, flushes the handler for up to
// fatalFlushTimeout and exits with status 1.
func (l *Logger) Fatal(msg string, fields ...core.Field) {
	l.fatal(0, msg, fields)
}

func (l *Logger) Fatalf(format string, args ...interface{}) {
	l.fatal(0, fmt.Sprintf(format, args...), nil)
}

func (l *Logger) fatal(depth int, msg string, fields []core.Field) {
	l.log(depth+1, core.FatalLevel, msg, fields)
	l.flushBeforeExit()
	osExit(1)
}

func (l *Logger) flushBeforeExit() {
	if l.handler == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), fatalFlushTimeout)
	defer cancel()
	_ = handler.Flush(ctx, l.handler)
}

// Panic logs regardless of level, then panics with msg.
func (l *Logger) Panic(msg string, fields ...core.Field) {
	l.log(0, core.PanicLevel, msg, fields)
	panic(msg)
}

func (l *Logger) Panicf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.log(0, core.PanicLevel, msg, nil)
	panic(msg)
}

// Flush waits until the handler has written everything logged so far.
func (l *Logger) Flush(ctx context.Context) error {
	if l.handler == nil {
		return nil
	}
	return handler.Flush(ctx, l.handler)
}

// Close closes the logger's handler
func (l *Logger) Close() error {
	if l.handler != nil {
		return l.handler.Close()
	}
	return nil
}
