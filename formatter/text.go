package formatter

import (
	"bytes"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/philipp01105/krait/core"
)

// levelColors holds ANSI palette indices, indexed by Level.Index.
var levelColors = [core.LevelCount]lipgloss.Color{"8", "6", "2", "4", "3", "1", "5", "5"}

// TextFormatter renders one line per entry:
//
//	<time> [LEVEL] (logger) [file:line] message key=value ...
//
// The logger and caller parts are omitted when empty or disabled.
type TextFormatter struct {
	Config
	labels [core.LevelCount]string
}

// NewTextFormatter creates a text formatter. Level labels are rendered
// once here, coloured with lipgloss when cfg.Color is set.
func NewTextFormatter(cfg Config) *TextFormatter {
	if cfg.TimestampFormat == "" {
		cfg.TimestampFormat = time.RFC3339
	}
	f := &TextFormatter{Config: cfg}
	for i := range f.labels {
		label := "[" + (core.TraceLevel + core.Level(i)).String() + "]"
		if cfg.Color {
			label = lipgloss.NewStyle().Bold(true).Foreground(levelColors[i]).Render(label)
		}
		f.labels[i] = " " + label + " "
	}
	return f
}

func (f *TextFormatter) Format(entry *core.Entry) ([]byte, error) {
	buf := getBuffer()
	defer putBuffer(buf)
	f.FormatEntry(entry, buf)
	return bytes.Clone(buf.Bytes()), nil
}

// FormatEntry appends the line for entry to buf.
func (f *TextFormatter) FormatEntry(entry *core.Entry, buf *bytes.Buffer) {
	buf.Write(entry.Time.AppendFormat(buf.AvailableBuffer(), f.TimestampFormat))

	if idx := entry.Level.Index(); idx >= 0 {
		buf.WriteString(f.labels[idx])
	} else {
		buf.WriteString(" [UNKNOWN] ")
	}
	if entry.Logger != "" {
		buf.WriteByte('(')
		buf.WriteString(entry.Logger)
		buf.WriteString(") ")
	}
	if f.IncludeCaller && entry.Caller.Defined {
		buf.WriteByte('[')
		buf.WriteString(entry.Caller.ShortFile)
		buf.WriteByte(':')
		buf.Write(strconv.AppendInt(buf.AvailableBuffer(), int64(entry.Caller.Line), 10))
		buf.WriteString("] ")
	}
	buf.WriteString(entry.Message)

	for i := range entry.Fields {
		fd := &entry.Fields[i]
		buf.WriteByte(' ')
		buf.WriteString(fd.Key)
		buf.WriteByte('=')
		buf.WriteString(fd.StringValue())
	}
	buf.WriteByte('\n')
}
