package filter

import (
	"fmt"
	"strings"

	"github.com/philipp01105/krait/core"
)

// Filter decides whether an entry should be delivered.
type Filter interface {
	// Filter returns false to suppress the entry. It may add fields.
	Filter(entry *core.Entry) bool
}

// Func adapts an ordinary function to the Filter interface.
type Func func(entry *core.Entry) bool

// Filter calls f(entry).
func (f Func) Filter(entry *core.Entry) bool {
	return f(entry)
}

// Chain is an ordered list of filters.
type Chain []Filter

// Filter runs every filter in order and reports false as soon as one
// suppresses the entry. An empty chain passes everything.
func (c Chain) Filter(entry *core.Entry) bool {
	for _, f := range c {
		if !f.Filter(entry) {
			return false
		}
	}
	return true
}

// SkipFlag suppresses entries carrying a truthy field named Flag.
type SkipFlag struct {
	Flag string
}

// NewSkipFlag creates a SkipFlag filter for the given field name.
func NewSkipFlag(flag string) SkipFlag {
	return SkipFlag{Flag: flag}
}

// Filter passes entries whose flag field is absent or falsy.
func (s SkipFlag) Filter(entry *core.Entry) bool {
	f, ok := entry.Lookup(s.Flag)
	return !ok || !f.Truthy()
}

// MinLevel suppresses entries below the threshold.
type MinLevel core.Level

// Filter passes entries at or above the threshold.
func (m MinLevel) Filter(entry *core.Entry) bool {
	return entry.Level >= core.Level(m)
}

// Parse builds a filter from its configuration name:
//
//	qual_module      QualModulePath
//	skip:<flag>      SkipFlag(flag)
func Parse(def string) (Filter, error) {
	name, arg, _ := strings.Cut(strings.TrimSpace(def), ":")
	switch name {
	case "qual_module":
		return QualModulePath{}, nil
	case "skip":
		if arg == "" {
			return nil, fmt.Errorf("filter %q: missing flag name", def)
		}
		return NewSkipFlag(arg), nil
	default:
		return nil, fmt.Errorf("unknown filter %q", def)
	}
}

// ParseAll parses every name into a Chain.
func ParseAll(names []string) (Chain, error) {
	chain := make(Chain, 0, len(names))
	for _, s := range names {
		f, err := Parse(s)
		if err != nil {
			return nil, err
		}
		chain = append(chain, f)
	}
	return chain, nil
}
