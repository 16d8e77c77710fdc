// Package formatter serializes log entries into lines.
//
// TextFormatter renders "<time> [LEVEL] (logger) [file:line] message
// key=value..." with optional lipgloss-coloured level labels.
// JSONFormatter writes one object per line through a pooled
// json-iterator stream; AnyType values that cannot be encoded fall back
// to their fmt representation.
//
// Both implement BufferFormatter, which file and console sinks use to
// format into their own write buffer. Additional formatters can be made
// available to configuration files with Register.
package formatter
