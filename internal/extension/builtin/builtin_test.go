package builtin

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/formulary/internal/variable"
)

type facts map[string]float64

func (f facts) Float(key string) (float64, bool) {
	v, ok := f[key]
	return v, ok
}

func TestRegistry(t *testing.T) {
	r, err := Registry()
	require.NoError(t, err)

	require.Equal(t, []variable.Token{
		"__PAID_LEAVE_DAYS__",
		"__TOTAL_WORKED_DAYS__",
		"__TOTAL_WORKING_DAYS__",
		"__UNPAID_LEAVE_DAYS__",
	}, r.ValueTokens().Sorted())

	require.Equal(t, []variable.Token{
		"__ANNUAL_AMOUNT__",
		"__DAYS_IN_MONTH__",
		"__LEAVE_DAYS_OF_TYPE__",
	}, r.FunctionTokens().Sorted())

	_, ok := r.Validator("__ANNUAL_AMOUNT__")
	require.True(t, ok)
	_, ok = r.Validator("__LEAVE_DAYS_OF_TYPE__")
	require.True(t, ok)
	_, ok = r.Validator("__DAYS_IN_MONTH__")
	require.False(t, ok)
}

func TestRegistry_disjointFromStaticTokens(t *testing.T) {
	r, err := Registry()
	require.NoError(t, err)

	_, err = variable.Merge(variable.StaticTokens(), r.Tokens())
	require.NoError(t, err)
}

func TestProviders(t *testing.T) {
	r, err := Registry()
	require.NoError(t, err)
	ctx := context.Background()

	f := facts{
		FactWorkingDays:                   22,
		FactAnnualPrefix + "Basic Salary": 120000,
		FactAnnualPrefix + "Allowance":    6000,
		FactLeavePrefix + "Sick":          2,
		FactPeriodStart:                   float64(time.Date(2024, time.February, 10, 0, 0, 0, 0, time.UTC).Unix()),
	}

	working, ok := r.Value("__TOTAL_WORKING_DAYS__")
	require.True(t, ok)
	v, err := working(ctx, f)
	require.NoError(t, err)
	require.Equal(t, 22.0, v)

	worked, _ := r.Value("__TOTAL_WORKED_DAYS__")
	_, err = worked(ctx, f)
	require.Error(t, err)

	annual, ok := r.Function("__ANNUAL_AMOUNT__")
	require.True(t, ok)
	v, err = annual(ctx, f, []any{"Basic Salary", "Allowance"})
	require.NoError(t, err)
	require.Equal(t, 126000.0, v)

	leave, _ := r.Function("__LEAVE_DAYS_OF_TYPE__")
	v, err = leave(ctx, f, []any{"Sick"})
	require.NoError(t, err)
	require.Equal(t, 2.0, v)
	v, err = leave(ctx, f, []any{"Annual"})
	require.NoError(t, err)
	require.Zero(t, v)

	days, _ := r.Function("__DAYS_IN_MONTH__")
	v, err = days(ctx, f, nil)
	require.NoError(t, err)
	require.Equal(t, 29.0, v)
}
