package handler

import (
	"context"
	"log/slog"

	"github.com/philipp01105/krait/core"
)

// Slog levels for the two levels log/slog does not define.
const (
	SlogLevelTrace  slog.Level = -8
	SlogLevelNotice slog.Level = 2
)

// slogThresholds is ordered from most to least severe. A slog level maps
// to the first entry it reaches.
var slogThresholds = []struct {
	min   slog.Level
	level core.Level
}{
	{slog.LevelError, core.ErrorLevel},
	{slog.LevelWarn, core.WarnLevel},
	{SlogLevelNotice, core.NoticeLevel},
	{slog.LevelInfo, core.InfoLevel},
	{slog.LevelDebug, core.DebugLevel},
}

// SlogLevelToCore maps a slog level onto the nearest core level at or
// below it. Anything under slog.LevelDebug is TraceLevel.
func SlogLevelToCore(level slog.Level) core.Level {
	for _, t := range slogThresholds {
		if level >= t.min {
			return t.level
		}
	}
	return core.TraceLevel
}

// SlogHandler lets a *slog.Logger write through a Handler. Attributes
// added with WithAttrs and WithGroup become fields with dotted keys.
type SlogHandler struct {
	handler Handler
	level   core.Level
	attrs   []core.Field
	prefix  string
}

var _ slog.Handler = (*SlogHandler)(nil)

// NewSlogHandler adapts h, admitting records at level or above.
func NewSlogHandler(h Handler, level core.Level) *SlogHandler {
	return &SlogHandler{handler: h, level: level}
}

func (s *SlogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return SlogLevelToCore(level) >= s.level
}

// Handle converts the record into a pooled Entry. Handlers that keep the
// entry past Handle take their own snapshot.
func (s *SlogHandler) Handle(_ context.Context, record slog.Record) error {
	entry := core.GetEntry()
	defer core.PutEntry(entry)

	entry.Time = record.Time
	entry.Level = SlogLevelToCore(record.Level)
	entry.Message = record.Message
	entry.Caller = core.CallerFromPC(record.PC)
	entry.Fields = append(entry.Fields, s.attrs...)
	record.Attrs(func(a slog.Attr) bool {
		entry.Fields = flattenAttr(entry.Fields, s.prefix, a)
		return true
	})
	return s.handler.Handle(entry)
}

func (s *SlogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return s
	}
	c := s.clone()
	for _, a := range attrs {
		c.attrs = flattenAttr(c.attrs, s.prefix, a)
	}
	return c
}

func (s *SlogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return s
	}
	c := s.clone()
	c.prefix = qualify(s.prefix, name)
	return c
}

// clone copies s with a capacity-limited attrs slice, so appends on the
// copy never write into the parent's backing array.
func (s *SlogHandler) clone() *SlogHandler {
	c := *s
	c.attrs = s.attrs[:len(s.attrs):len(s.attrs)]
	return &c
}

func qualify(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	default:
		return prefix + "." + key
	}
}

// flattenAttr appends a to fields. Groups are inlined with their keys
// qualified; empty attributes are dropped as slog.Handler requires.
func flattenAttr(fields []core.Field, prefix string, a slog.Attr) []core.Field {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return fields
	}
	key := qualify(prefix, a.Key)
	v := a.Value

	switch v.Kind() {
	case slog.KindGroup:
		for _, ga := range v.Group() {
			fields = flattenAttr(fields, key, ga)
		}
		return fields
	case slog.KindString:
		return append(fields, core.String(key, v.String()))
	case slog.KindInt64:
		return append(fields, core.Int64(key, v.Int64()))
	case slog.KindFloat64:
		return append(fields, core.Float64(key, v.Float64()))
	case slog.KindBool:
		return append(fields, core.Bool(key, v.Bool()))
	case slog.KindTime:
		return append(fields, core.Time(key, v.Time()))
	case slog.KindDuration:
		return append(fields, core.Duration(key, v.Duration()))
	}
	if err, ok := v.Any().(error); ok {
		return append(fields, core.NamedError(key, err))
	}
	return append(fields, core.Any(key, v.Any()))
}
