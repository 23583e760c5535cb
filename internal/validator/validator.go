// Package validator provides argument validators for function extensions.
package validator

import (
	"context"
	"fmt"

	"github.com/wolfeidau/formulary/internal/extension"
	"github.com/wolfeidau/formulary/internal/variable"
)

// Strings accepts between min and max string arguments. A negative max means
// no upper bound.
type Strings struct {
	Min int
	Max int
}

var _ extension.ArgumentValidator = Strings{}

func (s Strings) Validate(_ context.Context, args []any, _ *extension.CallContext) []string {
	msgs := checkCount(args, s.Min, s.Max)
	return append(msgs, checkStrings(args)...)
}

// HeadingReferences accepts heading names as string arguments. Every name
// must resolve to an item in the current scope ordered strictly before the
// current item; each resolved item is recorded as used.
type HeadingReferences struct {
	Min int
	Max int
}

var _ extension.ArgumentValidator = HeadingReferences{}

func (h HeadingReferences) Validate(ctx context.Context, args []any, call *extension.CallContext) []string {
	msgs := checkCount(args, h.Min, h.Max)
	if typeMsgs := checkStrings(args); len(typeMsgs) > 0 {
		return append(msgs, typeMsgs...)
	}
	if call == nil || call.Items == nil {
		return append(msgs, "heading references cannot be resolved without a scope")
	}

	var used []variable.Token
	for _, arg := range args {
		name := arg.(string)

		item, err := call.Items.LookupItem(ctx, call, name)
		if err != nil {
			msgs = append(msgs, fmt.Sprintf("%q: %v", name, err))
			continue
		}

		if item.Order >= call.Current.Order {
			msgs = append(msgs, fmt.Sprintf("%q must be ordered before %q", item.Name, call.Current.Name))
			continue
		}

		tok, err := variable.Normalize(item.Name)
		if err != nil {
			msgs = append(msgs, fmt.Sprintf("%q: %v", name, err))
			continue
		}
		used = append(used, tok)
	}

	if len(msgs) > 0 {
		return msgs
	}

	if call.Used != nil {
		for _, tok := range used {
			call.Used.Add(tok)
		}
	}
	return nil
}

func checkCount(args []any, minArgs, maxArgs int) []string {
	switch {
	case len(args) < minArgs:
		return []string{fmt.Sprintf("expected at least %d argument(s), got %d", minArgs, len(args))}
	case maxArgs >= 0 && len(args) > maxArgs:
		return []string{fmt.Sprintf("expected at most %d argument(s), got %d", maxArgs, len(args))}
	}
	return nil
}

func checkStrings(args []any) []string {
	var msgs []string
	for i, arg := range args {
		if _, ok := arg.(string); !ok {
			msgs = append(msgs, fmt.Sprintf("argument %d must be a string, got %T", i+1, arg))
		}
	}
	return msgs
}
