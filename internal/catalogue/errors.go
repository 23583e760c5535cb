package catalogue

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingContext means neither a concrete item nor an explicit order was given.
	ErrMissingContext = errors.New("a heading, package item or explicit order is required")
	// ErrAmbiguousContext means both a heading and a package item were given.
	ErrAmbiguousContext = errors.New("heading and package item are mutually exclusive")
	// ErrDuplicateOrder means another item in the same scope shares the current order.
	ErrDuplicateOrder = errors.New("order is shared with another item in scope")

	ErrUnknownFunction = errors.New("unknown function")
	ErrItemNotFound    = errors.New("not found in scope")
)

// ConfigurationError reports a resolution request that cannot be answered
// without a human fixing the configuration.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func configErr(format string, args ...any) error {
	return &ConfigurationError{Err: fmt.Errorf(format, args...)}
}
