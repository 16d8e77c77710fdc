package core

import (
	"fmt"
	"strings"
)

// Level is the severity of an entry. The zero value is DebugLevel.
type Level int8

const (
	TraceLevel Level = iota - 1
	DebugLevel
	InfoLevel
	NoticeLevel // normal but significant, between info and warn
	WarnLevel
	ErrorLevel
	FatalLevel // logger exits the process after writing
	PanicLevel // logger panics after writing
)

// LevelCount is the number of defined levels from TraceLevel to PanicLevel.
const LevelCount = int(PanicLevel-TraceLevel) + 1

var levelNames = [LevelCount]string{"TRACE", "DEBUG", "INFO", "NOTICE", "WARN", "ERROR", "FATAL", "PANIC"}

// Index maps the level to a zero-based slot, suitable for per-level arrays.
// Levels outside the defined range return -1.
func (l Level) Index() int {
	if l < TraceLevel || l > PanicLevel {
		return -1
	}
	return int(l - TraceLevel)
}

func (l Level) String() string {
	if i := l.Index(); i >= 0 {
		return levelNames[i]
	}
	return "UNKNOWN"
}

// LookupLevel converts a case-insensitive level name to a Level.
// "WARNING" is accepted for WarnLevel.
func LookupLevel(s string) (Level, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == "WARNING" {
		return WarnLevel, nil
	}
	for i, n := range levelNames {
		if n == name {
			return Level(i) + TraceLevel, nil
		}
	}
	return InfoLevel, fmt.Errorf("unknown level %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	if l.Index() < 0 {
		return nil, fmt.Errorf("invalid level %d", int8(l))
	}
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(text []byte) error {
	v, err := LookupLevel(string(text))
	if err != nil {
		return err
	}
	*l = v
	return nil
}
