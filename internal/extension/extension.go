// Package extension holds the registry of extensions compiled into the
// engine. Extensions contribute variable tokens to every formula namespace,
// either as plain values or as functions taking arguments.
package extension

import (
	"context"

	"github.com/google/uuid"
	"github.com/wolfeidau/formulary/internal/models"
	"github.com/wolfeidau/formulary/internal/variable"
)

// Facts supplies the per-employee, per-period quantities extensions compute
// from. It is provided by the evaluation host.
type Facts interface {
	Float(key string) (float64, bool)
}

// ValueProvider computes a zero argument extension.
type ValueProvider func(ctx context.Context, facts Facts) (float64, error)

// FunctionProvider computes a parametrized extension.
type FunctionProvider func(ctx context.Context, facts Facts, args []any) (float64, error)

// ItemLookup resolves headings or package items by name within the scope of
// the item whose formula is being authored.
type ItemLookup interface {
	LookupItem(ctx context.Context, call *CallContext, name string) (models.Item, error)
}

// CallContext is passed to argument validators.
type CallContext struct {
	OrgID uuid.UUID
	// PackageID is set when the current item belongs to a package.
	PackageID uuid.NullUUID
	Current   models.Item
	Items     ItemLookup
	// Used collects tokens a validated call depends on so cycle and usage
	// analysis can see the edge.
	Used variable.Set
}

// ArgumentValidator checks call arguments for a function extension at
// formula authoring time. It returns human readable messages, empty when the
// call is valid, and must not mutate persistent state.
type ArgumentValidator interface {
	Validate(ctx context.Context, args []any, call *CallContext) []string
}

// ValidatorFunc adapts a function to ArgumentValidator.
type ValidatorFunc func(ctx context.Context, args []any, call *CallContext) []string

func (f ValidatorFunc) Validate(ctx context.Context, args []any, call *CallContext) []string {
	return f(ctx, args, call)
}

// Descriptor declares one extension. Exactly one of Value and Function must
// be set; Validator is only meaningful alongside Function.
type Descriptor struct {
	Label     string
	Value     ValueProvider
	Function  FunctionProvider
	Validator ArgumentValidator
}
