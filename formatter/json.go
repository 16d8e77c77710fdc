package formatter

import (
	"bytes"
	"math"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/philipp01105/krait/core"
)

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// JSONFormatter writes one JSON object per entry, terminated by a
// newline. Keys are time, level, logger (if named), message, caller (if
// enabled) and then the fields in order.
type JSONFormatter struct {
	Config
}

// NewJSONFormatter creates a new JSON formatter. The timestamp format
// defaults to RFC3339Nano.
func NewJSONFormatter(cfg Config) *JSONFormatter {
	if cfg.TimestampFormat == "" {
		cfg.TimestampFormat = time.RFC3339Nano
	}
	return &JSONFormatter{Config: cfg}
}

// Format formats an entry as JSON
func (f *JSONFormatter) Format(entry *core.Entry) ([]byte, error) {
	s := jsonAPI.BorrowStream(nil)
	defer jsonAPI.ReturnStream(s)
	f.encode(s, entry)

	out := make([]byte, len(s.Buffer()))
	copy(out, s.Buffer())
	return out, nil
}

// FormatEntry appends the JSON line for entry to buf.
func (f *JSONFormatter) FormatEntry(entry *core.Entry, buf *bytes.Buffer) {
	s := jsonAPI.BorrowStream(nil)
	defer jsonAPI.ReturnStream(s)
	f.encode(s, entry)
	buf.Write(s.Buffer())
}

func (f *JSONFormatter) encode(s *jsoniter.Stream, entry *core.Entry) {
	s.WriteObjectStart()
	s.WriteObjectField("time")
	writeTime(s, entry.Time, f.TimestampFormat)

	s.WriteMore()
	s.WriteObjectField("level")
	s.WriteString(entry.Level.String())

	if entry.Logger != "" {
		s.WriteMore()
		s.WriteObjectField("logger")
		s.WriteString(entry.Logger)
	}

	s.WriteMore()
	s.WriteObjectField("message")
	s.WriteString(entry.Message)

	if f.IncludeCaller && entry.Caller.Defined {
		s.WriteMore()
		s.WriteObjectField("caller")
		s.WriteObjectStart()
		s.WriteObjectField("file")
		s.WriteString(entry.Caller.ShortFile)
		s.WriteMore()
		s.WriteObjectField("line")
		s.WriteInt(entry.Caller.Line)
		if entry.Caller.Function != "" {
			s.WriteMore()
			s.WriteObjectField("function")
			s.WriteString(entry.Caller.Function)
		}
		s.WriteObjectEnd()
	}

	for _, field := range entry.Fields {
		s.WriteMore()
		s.WriteObjectField(field.Key)
		writeValue(s, field)
	}
	s.WriteObjectEnd()
	s.WriteRaw("\n")
}

// writeTime formats t straight into the stream buffer.
func writeTime(s *jsoniter.Stream, t time.Time, layout string) {
	buf := append(s.Buffer(), '"')
	buf = t.AppendFormat(buf, layout)
	s.SetBuffer(append(buf, '"'))
}

func writeValue(s *jsoniter.Stream, field core.Field) {
	switch field.Type {
	case core.StringType, core.ErrorType:
		s.WriteString(field.Str)
	case core.IntType, core.Int64Type, core.DurationType:
		s.WriteInt64(field.Int64)
	case core.Float64Type:
		if math.IsNaN(field.Float64) || math.IsInf(field.Float64, 0) {
			s.WriteString(field.StringValue())
			return
		}
		s.WriteFloat64(field.Float64)
	case core.BoolType:
		s.WriteBool(field.Int64 == 1)
	case core.TimeType:
		writeTime(s, time.Unix(0, field.Int64), time.RFC3339Nano)
	case core.AnyType:
		// Marshal separately so a failure cannot leave half a value behind.
		data, err := jsonAPI.Marshal(field.Any)
		if err != nil {
			s.WriteString(field.StringValue())
			return
		}
		_, _ = s.Write(data)
	default:
		s.WriteString(field.StringValue())
	}
}
