package logger

import (
	"github.com/philipp01105/krait/core"
	"github.com/philipp01105/krait/filter"
)

// Field constructors, re-exported from core so call sites only import
// logger.
var (
	String   = core.String
	Int      = core.Int
	Int64    = core.Int64
	Float64  = core.Float64
	Bool     = core.Bool
	Time     = core.Time
	Duration = core.Duration
	Any      = core.Any
)

// Err stores err under the "error" key.
func Err(err error) core.Field {
	return core.NamedError("error", err)
}

// Flag creates a boolean marker field, typically checked by a SkipFlag
// filter to keep an entry away from one handler.
func Flag(name string) core.Field {
	return core.Bool(name, true)
}

// Module overrides the module field QualModulePath would derive.
func Module(path string) core.Field {
	return core.String(filter.ModuleKey, path)
}
