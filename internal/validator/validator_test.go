package validator

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/formulary/internal/extension"
	"github.com/wolfeidau/formulary/internal/models"
	"github.com/wolfeidau/formulary/internal/variable"
)

type fakeLookup map[string]models.Item

func (f fakeLookup) LookupItem(_ context.Context, _ *extension.CallContext, name string) (models.Item, error) {
	item, ok := f[name]
	if !ok {
		return models.Item{}, errors.New("not found")
	}
	return item, nil
}

func TestStrings(t *testing.T) {
	v := Strings{Min: 1, Max: 1}
	ctx := context.Background()

	require.Empty(t, v.Validate(ctx, []any{"Sick Leave"}, nil))
	require.Equal(t, []string{"expected at least 1 argument(s), got 0"}, v.Validate(ctx, nil, nil))
	require.Equal(t, []string{"expected at most 1 argument(s), got 2"}, v.Validate(ctx, []any{"a", "b"}, nil))
	require.Equal(t, []string{"argument 1 must be a string, got float64"}, v.Validate(ctx, []any{1.5}, nil))

	unbounded := Strings{Min: 0, Max: -1}
	require.Empty(t, unbounded.Validate(ctx, []any{"a", "b", "c"}, nil))
}

func TestHeadingReferences(t *testing.T) {
	ctx := context.Background()
	lookup := fakeLookup{
		"Basic Salary": {ID: uuid.New(), Name: "Basic Salary", Order: 1, Type: models.HeadingTypeAddition},
		"Allowance":    {ID: uuid.New(), Name: "Allowance", Order: 2, Type: models.HeadingTypeAddition},
		"Bonus":        {ID: uuid.New(), Name: "Bonus", Order: 4, Type: models.HeadingTypeInformational},
	}
	current := models.Item{ID: uuid.New(), Name: "Tax", Order: 3, Type: models.HeadingTypeDeduction}

	newCall := func() *extension.CallContext {
		return &extension.CallContext{OrgID: uuid.New(), Current: current, Items: lookup, Used: variable.Set{}}
	}

	v := HeadingReferences{Min: 1, Max: -1}

	t.Run("earlier headings are recorded as used", func(t *testing.T) {
		call := newCall()
		msgs := v.Validate(ctx, []any{"Basic Salary", "Allowance"}, call)
		require.Empty(t, msgs)
		require.Equal(t, []variable.Token{"__ALLOWANCE__", "__BASIC_SALARY__"}, call.Used.Sorted())
	})

	t.Run("later heading is rejected", func(t *testing.T) {
		call := newCall()
		msgs := v.Validate(ctx, []any{"Basic Salary", "Bonus"}, call)
		require.Equal(t, []string{`"Bonus" must be ordered before "Tax"`}, msgs)
		require.Empty(t, call.Used)
	})

	t.Run("self reference is rejected", func(t *testing.T) {
		self := fakeLookup{"Tax": current}
		call := newCall()
		call.Items = self
		msgs := v.Validate(ctx, []any{"Tax"}, call)
		require.Len(t, msgs, 1)
	})

	t.Run("unknown heading", func(t *testing.T) {
		call := newCall()
		msgs := v.Validate(ctx, []any{"Overtime"}, call)
		require.Equal(t, []string{`"Overtime": not found`}, msgs)
	})

	t.Run("non string arguments", func(t *testing.T) {
		call := newCall()
		msgs := v.Validate(ctx, []any{true}, call)
		require.Equal(t, []string{"argument 1 must be a string, got bool"}, msgs)
	})

	t.Run("no arguments", func(t *testing.T) {
		msgs := v.Validate(ctx, nil, newCall())
		require.Equal(t, []string{"expected at least 1 argument(s), got 0"}, msgs)
	})

	t.Run("missing scope", func(t *testing.T) {
		msgs := v.Validate(ctx, []any{"Basic Salary"}, nil)
		require.Equal(t, []string{"heading references cannot be resolved without a scope"}, msgs)
	})
}
