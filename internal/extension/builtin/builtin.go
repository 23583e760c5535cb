// Package builtin lists the extensions compiled into the engine.
package builtin

import (
	"context"
	"fmt"
	"time"

	"github.com/wolfeidau/formulary/internal/extension"
	"github.com/wolfeidau/formulary/internal/validator"
)

// Fact keys read from extension.Facts.
const (
	FactWorkingDays     = "working_days"
	FactWorkedDays      = "worked_days"
	FactPaidLeaveDays   = "paid_leave_days"
	FactUnpaidLeaveDays = "unpaid_leave_days"
	FactLeavePrefix     = "leave_days:"
	FactAnnualPrefix    = "annual_amount:"
	FactPeriodStart     = "period_start_unix"
)

// Descriptors returns the compiled-in extensions in registration order.
func Descriptors() []extension.Descriptor {
	return []extension.Descriptor{
		{Label: "Total Working Days", Value: fact(FactWorkingDays)},
		{Label: "Total Worked Days", Value: fact(FactWorkedDays)},
		{Label: "Paid Leave Days", Value: fact(FactPaidLeaveDays)},
		{Label: "Unpaid Leave Days", Value: fact(FactUnpaidLeaveDays)},
		{
			Label:     "Annual Amount",
			Function:  annualAmount,
			Validator: validator.HeadingReferences{Min: 1, Max: -1},
		},
		{
			Label:     "Leave Days Of Type",
			Function:  leaveDaysOfType,
			Validator: validator.Strings{Min: 1, Max: 1},
		},
		{Label: "Days In Month", Function: daysInMonth},
	}
}

// Registry builds the registry of compiled-in extensions.
func Registry() (*extension.Registry, error) {
	return extension.NewRegistry(Descriptors())
}

func fact(key string) extension.ValueProvider {
	return func(_ context.Context, facts extension.Facts) (float64, error) {
		v, ok := facts.Float(key)
		if !ok {
			return 0, fmt.Errorf("fact %q not available", key)
		}
		return v, nil
	}
}

func annualAmount(_ context.Context, facts extension.Facts, args []any) (float64, error) {
	var total float64
	for _, arg := range args {
		name, ok := arg.(string)
		if !ok {
			return 0, fmt.Errorf("annual amount: argument must be a string, got %T", arg)
		}
		v, ok := facts.Float(FactAnnualPrefix + name)
		if !ok {
			return 0, fmt.Errorf("annual amount of %q not available", name)
		}
		total += v
	}
	return total, nil
}

func leaveDaysOfType(_ context.Context, facts extension.Facts, args []any) (float64, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("leave days of type: expected 1 argument, got %d", len(args))
	}
	leaveType, ok := args[0].(string)
	if !ok {
		return 0, fmt.Errorf("leave days of type: argument must be a string, got %T", args[0])
	}
	v, _ := facts.Float(FactLeavePrefix + leaveType)
	return v, nil
}

// daysInMonth returns the number of days in the month the period starts in.
func daysInMonth(_ context.Context, facts extension.Facts, _ []any) (float64, error) {
	start, ok := facts.Float(FactPeriodStart)
	if !ok {
		return 0, fmt.Errorf("fact %q not available", FactPeriodStart)
	}
	t := time.Unix(int64(start), 0).UTC()
	firstOfNext := time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, time.UTC)
	return float64(firstOfNext.AddDate(0, 0, -1).Day()), nil
}
