package logger

import (
	"sync/atomic"

	"github.com/philipp01105/krait/core"
)

// Level Re-export type and constants for convenience
type Level = core.Level

const (
	TraceLevel  = core.TraceLevel
	DebugLevel  = core.DebugLevel
	InfoLevel   = core.InfoLevel
	NoticeLevel = core.NoticeLevel
	WarnLevel   = core.WarnLevel
	ErrorLevel  = core.ErrorLevel
	FatalLevel  = core.FatalLevel
	PanicLevel  = core.PanicLevel
)

// ParseLevel converts a string to a Level, falling back to InfoLevel
// for unknown names.
func ParseLevel(s string) Level {
	if l, err := LookupLevel(s); err == nil {
		return l
	}
	return InfoLevel
}

// LookupLevel converts a level name to a Level and fails on unknown names.
func LookupLevel(s string) (Level, error) {
	return core.LookupLevel(s)
}

// AtomicLevel is a minimum level that can be changed while loggers
// built with it are in use.
type AtomicLevel struct {
	v atomic.Int32
}

// NewAtomicLevel creates an AtomicLevel set to l.
func NewAtomicLevel(l Level) *AtomicLevel {
	a := &AtomicLevel{}
	a.SetLevel(l)
	return a
}

// Level returns the current level.
func (a *AtomicLevel) Level() Level {
	return Level(a.v.Load())
}

// SetLevel changes the level for every logger sharing a.
func (a *AtomicLevel) SetLevel(l Level) {
	a.v.Store(int32(l))
}
