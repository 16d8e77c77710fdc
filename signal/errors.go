package signal

import "errors"

var (
	// ErrAttributeNotSet is returned by Get when a property was never set
	// on the instance and has no default.
	ErrAttributeNotSet = errors.New("attribute not set")
	// ErrReadOnly is returned by Set on a computed property.
	ErrReadOnly = errors.New("read-only attribute")
	// ErrNilInstance is returned when an operation is given a nil instance.
	ErrNilInstance = errors.New("nil instance")
)
