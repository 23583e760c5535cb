package extension

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/wolfeidau/formulary/internal/variable"
)

var (
	ErrDuplicateExtension = errors.New("duplicate extension")
	ErrInvalidLabel       = errors.New("invalid extension label")
	ErrInvalidDescriptor  = errors.New("invalid extension descriptor")
)

// Registry is the catalogue of compiled-in extensions keyed by token.
//
// It is populated once by NewRegistry and never modified afterwards, so it
// is safe for concurrent use without locking.
type Registry struct {
	values     map[variable.Token]ValueProvider
	functions  map[variable.Token]FunctionProvider
	validators map[variable.Token]ArgumentValidator
}

// NewRegistry registers descriptors in order. Any failure is meant to stop
// the process from starting.
func NewRegistry(descriptors []Descriptor) (*Registry, error) {
	r := &Registry{
		values:     make(map[variable.Token]ValueProvider),
		functions:  make(map[variable.Token]FunctionProvider),
		validators: make(map[variable.Token]ArgumentValidator),
	}

	for _, d := range descriptors {
		if err := r.register(d); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// MustNewRegistry is like NewRegistry but panics on error.
func MustNewRegistry(descriptors []Descriptor) *Registry {
	r, err := NewRegistry(descriptors)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Registry) register(d Descriptor) error {
	switch {
	case d.Value != nil && d.Function != nil:
		return fmt.Errorf("%w: %q sets both value and function providers", ErrInvalidDescriptor, d.Label)
	case d.Value == nil && d.Function == nil:
		return fmt.Errorf("%w: %q has no provider", ErrInvalidDescriptor, d.Label)
	case d.Value != nil && d.Validator != nil:
		return fmt.Errorf("%w: %q value extensions take no arguments to validate", ErrInvalidDescriptor, d.Label)
	}

	tok, err := tokenForLabel(d.Label)
	if err != nil {
		return err
	}

	if r.Has(tok) {
		return fmt.Errorf("%w: %s", ErrDuplicateExtension, tok)
	}

	if d.Value != nil {
		r.values[tok] = d.Value
		return nil
	}

	r.functions[tok] = d.Function
	if d.Validator != nil {
		r.validators[tok] = d.Validator
	}
	return nil
}

// tokenForLabel checks the de-hyphenated, whitespace collapsed label holds
// only ASCII letters and spaces before normalizing it.
func tokenForLabel(label string) (variable.Token, error) {
	collapsed := strings.Join(strings.Fields(strings.ReplaceAll(label, "-", " ")), " ")
	if collapsed == "" {
		return "", fmt.Errorf("%w: empty label", ErrInvalidLabel)
	}

	for _, r := range collapsed {
		if r != ' ' && (r >= unicode.MaxASCII || !unicode.IsLetter(r)) {
			return "", fmt.Errorf("%w: %q must contain only ASCII letters and spaces", ErrInvalidLabel, label)
		}
	}

	return variable.Normalize(collapsed)
}

// Has reports whether tok names any registered extension.
func (r *Registry) Has(tok variable.Token) bool {
	_, isValue := r.values[tok]
	_, isFunc := r.functions[tok]
	return isValue || isFunc
}

// ValueTokens returns the tokens of plain value extensions.
func (r *Registry) ValueTokens() variable.Set {
	s := make(variable.Set, len(r.values))
	for tok := range r.values {
		s[tok] = struct{}{}
	}
	return s
}

// FunctionTokens returns the tokens of function extensions.
func (r *Registry) FunctionTokens() variable.Set {
	s := make(variable.Set, len(r.functions))
	for tok := range r.functions {
		s[tok] = struct{}{}
	}
	return s
}

// Tokens returns every registered token.
func (r *Registry) Tokens() variable.Set {
	s := r.ValueTokens()
	for tok := range r.functions {
		s[tok] = struct{}{}
	}
	return s
}

// Value returns the provider of a value extension.
func (r *Registry) Value(tok variable.Token) (ValueProvider, bool) {
	p, ok := r.values[tok]
	return p, ok
}

// Function returns the provider of a function extension.
func (r *Registry) Function(tok variable.Token) (FunctionProvider, bool) {
	p, ok := r.functions[tok]
	return p, ok
}

// Validator returns the argument validator registered for a function
// extension, if any.
func (r *Registry) Validator(tok variable.Token) (ArgumentValidator, bool) {
	v, ok := r.validators[tok]
	return v, ok
}
