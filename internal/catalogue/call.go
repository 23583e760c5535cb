package catalogue

import (
	"context"
	"fmt"

	"github.com/wolfeidau/formulary/internal/extension"
	"github.com/wolfeidau/formulary/internal/telemetry"
	"github.com/wolfeidau/formulary/internal/variable"
)

// CallResult is the outcome of validating a function extension call.
type CallResult struct {
	// Errors holds messages for the formula author; empty means valid.
	Errors []string
	// Used holds the tokens the call depends on.
	Used variable.Set
}

// Valid reports whether the call had no errors.
func (r *CallResult) Valid() bool {
	return len(r.Errors) == 0
}

// ValidateCall runs the argument validator registered for function against
// args in the context of the current item. Functions without a validator
// accept any arguments.
func (b *Builder) ValidateCall(ctx context.Context, scope Scope, function variable.Token, args []any) (*CallResult, error) {
	if _, ok := b.extensions.Function(function); !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFunction, function)
	}

	current, packageID, err := scope.current()
	if err != nil {
		return nil, err
	}

	result := &CallResult{Used: variable.Set{}}

	validator, ok := b.extensions.Validator(function)
	if ok {
		call := &extension.CallContext{
			OrgID:     scope.OrgID,
			PackageID: packageID,
			Current:   current,
			Items:     b,
			Used:      result.Used,
		}
		result.Errors = validator.Validate(ctx, args, call)
	}

	telemetry.GetMetrics().RecordFunctionValidation(ctx, string(function), result.Valid())

	return result, nil
}
