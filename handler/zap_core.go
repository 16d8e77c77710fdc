package handler

import (
	"context"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/philipp01105/krait/core"
)

// zapCore implements zapcore.Core on top of a Handler, so zap loggers can
// share handlers, filters and async workers with the rest of the process.
type zapCore struct {
	handler Handler
	enabled func(core.Level) bool
	fields  []core.Field
}

// NewZapCore returns a zapcore.Core writing to h. Entries below level are
// disabled.
func NewZapCore(h Handler, level core.Level) zapcore.Core {
	return NewDynamicZapCore(h, func(l core.Level) bool { return l >= level })
}

// NewDynamicZapCore is like NewZapCore but asks enabled on every entry,
// so the threshold may change while the core is in use.
func NewDynamicZapCore(h Handler, enabled func(core.Level) bool) zapcore.Core {
	return &zapCore{handler: h, enabled: enabled}
}

// ZapLevelToCore converts a zapcore.Level to a core.Level.
func ZapLevelToCore(l zapcore.Level) core.Level {
	switch {
	case l >= zapcore.FatalLevel:
		return core.FatalLevel
	case l >= zapcore.DPanicLevel:
		return core.PanicLevel
	case l >= zapcore.ErrorLevel:
		return core.ErrorLevel
	case l >= zapcore.WarnLevel:
		return core.WarnLevel
	case l >= zapcore.InfoLevel:
		return core.InfoLevel
	default:
		return core.DebugLevel
	}
}

func (c *zapCore) Enabled(l zapcore.Level) bool {
	return c.enabled(ZapLevelToCore(l))
}

func (c *zapCore) With(fs []zapcore.Field) zapcore.Core {
	fields := make([]core.Field, len(c.fields), len(c.fields)+len(fs))
	copy(fields, c.fields)
	return &zapCore{
		handler: c.handler,
		enabled: c.enabled,
		fields:  appendZapFields(fields, fs),
	}
}

func (c *zapCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *zapCore) Write(ent zapcore.Entry, fs []zapcore.Field) error {
	entry := core.GetEntry()
	defer core.PutEntry(entry)

	entry.Time = ent.Time
	entry.Level = ZapLevelToCore(ent.Level)
	entry.Logger = ent.LoggerName
	entry.Message = ent.Message
	if ent.Caller.Defined {
		entry.Caller = core.CallerInfo{
			File:      ent.Caller.File,
			ShortFile: filepath.Base(ent.Caller.File),
			Line:      ent.Caller.Line,
			Function:  ent.Caller.Function,
			Defined:   true,
		}
	}
	entry.Fields = append(entry.Fields, c.fields...)
	entry.Fields = appendZapFields(entry.Fields, fs)

	return c.handler.Handle(entry)
}

func (c *zapCore) Sync() error {
	return Flush(context.Background(), c.handler)
}

// appendZapFields encodes fs through zap's map encoder and converts the
// result. Keys are sorted because the encoder does not keep order.
func appendZapFields(fields []core.Field, fs []zapcore.Field) []core.Field {
	if len(fs) == 0 {
		return fields
	}
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range fs {
		f.AddTo(enc)
	}

	keys := make([]string, 0, len(enc.Fields))
	for k := range enc.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		fields = append(fields, anyToField(k, enc.Fields[k]))
	}
	return fields
}

func anyToField(key string, v any) core.Field {
	switch val := v.(type) {
	case string:
		return core.String(key, val)
	case bool:
		return core.Bool(key, val)
	case int:
		return core.Int(key, val)
	case int64:
		return core.Int64(key, val)
	case int32:
		return core.Int64(key, int64(val))
	case float64:
		return core.Float64(key, val)
	case float32:
		return core.Float64(key, float64(val))
	case time.Time:
		return core.Time(key, val)
	case time.Duration:
		return core.Duration(key, val)
	case error:
		return core.NamedError(key, val)
	default:
		return core.Any(key, val)
	}
}
