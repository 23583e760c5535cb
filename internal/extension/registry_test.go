package extension

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/formulary/internal/variable"
)

func constant(v float64) ValueProvider {
	return func(context.Context, Facts) (float64, error) { return v, nil }
}

func sum(_ context.Context, _ Facts, args []any) (float64, error) {
	return float64(len(args)), nil
}

func TestNewRegistry(t *testing.T) {
	noop := ValidatorFunc(func(context.Context, []any, *CallContext) []string { return nil })

	r, err := NewRegistry([]Descriptor{
		{Label: "Total Working Days", Value: constant(22)},
		{Label: "paid-leave   days", Value: constant(1)},
		{Label: "Annual Amount", Function: sum, Validator: noop},
		{Label: "Days In Month", Function: sum},
	})
	require.NoError(t, err)

	require.Equal(t, []variable.Token{"__PAID_LEAVE_DAYS__", "__TOTAL_WORKING_DAYS__"}, r.ValueTokens().Sorted())
	require.Equal(t, []variable.Token{"__ANNUAL_AMOUNT__", "__DAYS_IN_MONTH__"}, r.FunctionTokens().Sorted())
	require.Len(t, r.Tokens(), 4)

	v, ok := r.Validator("__ANNUAL_AMOUNT__")
	require.True(t, ok)
	require.NotNil(t, v)

	_, ok = r.Validator("__DAYS_IN_MONTH__")
	require.False(t, ok)

	p, ok := r.Value("__TOTAL_WORKING_DAYS__")
	require.True(t, ok)
	got, err := p(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, 22.0, got)

	_, ok = r.Function("__TOTAL_WORKING_DAYS__")
	require.False(t, ok)
}

func TestNewRegistry_duplicates(t *testing.T) {
	t.Run("value and value", func(t *testing.T) {
		_, err := NewRegistry([]Descriptor{
			{Label: "Total Working Days", Value: constant(1)},
			{Label: "total  working-days", Value: constant(2)},
		})
		require.ErrorIs(t, err, ErrDuplicateExtension)
	})

	t.Run("value and function share a namespace", func(t *testing.T) {
		_, err := NewRegistry([]Descriptor{
			{Label: "Annual Amount", Value: constant(1)},
			{Label: "Annual Amount", Function: sum},
		})
		require.ErrorIs(t, err, ErrDuplicateExtension)
	})

	t.Run("must variant panics", func(t *testing.T) {
		require.Panics(t, func() {
			MustNewRegistry([]Descriptor{
				{Label: "A", Value: constant(1)},
				{Label: "a", Value: constant(1)},
			})
		})
	})
}

func TestNewRegistry_invalidLabels(t *testing.T) {
	for _, label := range []string{"", "   ", "Slot 2 Days", "Tax_Total", "Tax (monthly)", "Straße Zulage"} {
		_, err := NewRegistry([]Descriptor{{Label: label, Value: constant(1)}})
		require.ErrorIs(t, err, ErrInvalidLabel, "label %q", label)
	}
}

func TestNewRegistry_invalidDescriptors(t *testing.T) {
	noop := ValidatorFunc(func(context.Context, []any, *CallContext) []string { return nil })

	tests := []struct {
		name string
		desc Descriptor
	}{
		{name: "no provider", desc: Descriptor{Label: "Nothing"}},
		{name: "both providers", desc: Descriptor{Label: "Both", Value: constant(1), Function: sum}},
		{name: "validator on value", desc: Descriptor{Label: "Val", Value: constant(1), Validator: noop}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry([]Descriptor{tt.desc})
			require.ErrorIs(t, err, ErrInvalidDescriptor)
		})
	}
}

func TestRegistry_concurrentReads(t *testing.T) {
	r := MustNewRegistry([]Descriptor{
		{Label: "Total Working Days", Value: constant(1)},
		{Label: "Annual Amount", Function: sum},
	})

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				tokens := r.Tokens()
				tokens.Add("__SCRATCH__")
				_ = r.Has("__ANNUAL_AMOUNT__")
				_, _ = r.Validator("__ANNUAL_AMOUNT__")
			}
		}()
	}
	wg.Wait()

	require.Len(t, r.Tokens(), 2)
}
