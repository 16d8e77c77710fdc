package logger

import (
	"fmt"
	"sync/atomic"

	"github.com/philipp01105/krait/core"
)

var defaultOverride atomic.Pointer[Logger]

// Default returns the logger behind the package-level functions. Unless
// replaced with SetDefault it is the unnamed registry logger, so
// Configure and SetHandler apply to it.
func Default() *Logger {
	if l := defaultOverride.Load(); l != nil {
		return l
	}
	return std.get("")
}

// SetDefault replaces the default logger; nil restores the registry logger.
func SetDefault(l *Logger) {
	defaultOverride.Store(l)
}

// The helpers below sit one frame between the user and Logger.log.

func logDefault(level core.Level, msg string, fields []core.Field) {
	if l := Default(); l.Enabled(level) {
		l.log(1, level, msg, fields)
	}
}

func logDefaultf(level core.Level, format string, args []interface{}) {
	if l := Default(); l.Enabled(level) {
		l.log(1, level, fmt.Sprintf(format, args...), nil)
	}
}

func Trace(msg string, fields ...core.Field)  { logDefault(core.TraceLevel, msg, fields) }
func Debug(msg string, fields ...core.Field)  { logDefault(core.DebugLevel, msg, fields) }
func Info(msg string, fields ...core.Field)   { logDefault(core.InfoLevel, msg, fields) }
func Notice(msg string, fields ...core.Field) { logDefault(core.NoticeLevel, msg, fields) }
func Warn(msg string, fields ...core.Field)   { logDefault(core.WarnLevel, msg, fields) }
func Error(msg string, fields ...core.Field)  { logDefault(core.ErrorLevel, msg, fields) }

func Tracef(format string, args ...interface{})  { logDefaultf(core.TraceLevel, format, args) }
func Debugf(format string, args ...interface{})  { logDefaultf(core.DebugLevel, format, args) }
func Infof(format string, args ...interface{})   { logDefaultf(core.InfoLevel, format, args) }
func Noticef(format string, args ...interface{}) { logDefaultf(core.NoticeLevel, format, args) }
func Warnf(format string, args ...interface{})   { logDefaultf(core.WarnLevel, format, args) }
func Errorf(format string, args ...interface{})  { logDefaultf(core.ErrorLevel, format, args) }

// Fatal logs through the default logger, flushes it and exits with status 1.
func Fatal(msg string, fields ...core.Field) {
	Default().fatal(0, msg, fields)
}

func Fatalf(format string, args ...interface{}) {
	Default().fatal(0, fmt.Sprintf(format, args...), nil)
}

// Panic logs through the default logger, then panics with msg.
func Panic(msg string, fields ...core.Field) {
	Default().log(0, core.PanicLevel, msg, fields)
	panic(msg)
}

func Panicf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	Default().log(0, core.PanicLevel, msg, nil)
	panic(msg)
}

// With derives a child of the default logger.
func With(fields ...core.Field) *Logger {
	return Default().With(fields...)
}
