// Package filter provides predicates and transforms applied to log
// entries before they reach a handler.
//
// A Filter either lets an entry pass (returning true) or suppresses it.
// Filters may also enrich the entry in place, as QualModulePath does.
// A Chain runs filters in order and stops at the first suppression;
// handler.WithFilters attaches a chain to a single handler so other
// handlers on the same logger are unaffected.
package filter
