package core

import (
	"fmt"
	"strconv"
	"time"
)

// FieldType tells which member of a Field holds the value.
type FieldType uint8

const (
	StringType FieldType = iota
	IntType
	Int64Type
	Float64Type
	BoolType
	TimeType
	DurationType
	ErrorType
	AnyType
)

// Field is a typed key-value pair. Scalars are stored inline so that
// building a field does not allocate; only AnyType boxes its value.
type Field struct {
	Key     string
	Type    FieldType
	Int64   int64
	Float64 float64
	Str     string
	Any     any
}

func String(key, val string) Field {
	return Field{Key: key, Type: StringType, Str: val}
}

func Int(key string, val int) Field {
	return Field{Key: key, Type: IntType, Int64: int64(val)}
}

func Int64(key string, val int64) Field {
	return Field{Key: key, Type: Int64Type, Int64: val}
}

func Float64(key string, val float64) Field {
	return Field{Key: key, Type: Float64Type, Float64: val}
}

func Bool(key string, val bool) Field {
	f := Field{Key: key, Type: BoolType}
	if val {
		f.Int64 = 1
	}
	return f
}

// Time stores t with nanosecond precision; the location is not kept.
func Time(key string, t time.Time) Field {
	return Field{Key: key, Type: TimeType, Int64: t.UnixNano()}
}

func Duration(key string, d time.Duration) Field {
	return Field{Key: key, Type: DurationType, Int64: int64(d)}
}

// NamedError stores err's message under key. A nil error yields an
// empty message.
func NamedError(key string, err error) Field {
	f := Field{Key: key, Type: ErrorType}
	if err != nil {
		f.Str = err.Error()
	}
	return f
}

func Any(key string, val any) Field {
	return Field{Key: key, Type: AnyType, Any: val}
}

// Value returns the field's value as a Go value: string, int64,
// float64, bool, time.Time, time.Duration or the boxed value.
func (f Field) Value() any {
	switch f.Type {
	case StringType, ErrorType:
		return f.Str
	case IntType, Int64Type:
		return f.Int64
	case Float64Type:
		return f.Float64
	case BoolType:
		return f.Int64 == 1
	case TimeType:
		return time.Unix(0, f.Int64)
	case DurationType:
		return time.Duration(f.Int64)
	default:
		return f.Any
	}
}

// StringValue renders the value for text output.
func (f Field) StringValue() string {
	switch f.Type {
	case StringType, ErrorType:
		return f.Str
	case IntType, Int64Type:
		return strconv.FormatInt(f.Int64, 10)
	case Float64Type:
		return strconv.FormatFloat(f.Float64, 'f', -1, 64)
	case BoolType:
		return strconv.FormatBool(f.Int64 == 1)
	case TimeType:
		return time.Unix(0, f.Int64).Format(time.RFC3339)
	case DurationType:
		return time.Duration(f.Int64).String()
	case AnyType:
		return fmt.Sprint(f.Any)
	default:
		return ""
	}
}

// Truthy reports whether the value counts as set: non-zero numbers,
// true, non-empty strings and errors, and non-nil values that are not
// a false bool.
func (f Field) Truthy() bool {
	switch f.Type {
	case StringType, ErrorType:
		return f.Str != ""
	case IntType, Int64Type, BoolType, TimeType, DurationType:
		return f.Int64 != 0
	case Float64Type:
		return f.Float64 != 0
	case AnyType:
		if b, ok := f.Any.(bool); ok {
			return b
		}
		return f.Any != nil
	default:
		return false
	}
}
