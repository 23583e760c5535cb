package variable

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		label    string
		suffixes []string
		expected Token
	}{
		{name: "simple", label: "Basic Salary", expected: "__BASIC_SALARY__"},
		{name: "whitespace runs", label: "  Basic \t  Salary\n", expected: "__BASIC_SALARY__"},
		{name: "hyphenated", label: "Cost-of-living Allowance", expected: "__COST_OF_LIVING_ALLOWANCE__"},
		{name: "digits kept", label: "Slot 2 days", expected: "__SLOT_2_DAYS__"},
		{name: "single suffix", label: "Basic Salary", suffixes: []string{"ytd"}, expected: "__BASIC_SALARY_YTD__"},
		{name: "multi word suffixes", label: "Tax", suffixes: []string{"last month", "total"}, expected: "__TAX_LAST_MONTH_TOTAL__"},
		{name: "empty suffix ignored", label: "Tax", suffixes: []string{""}, expected: "__TAX__"},
		{name: "non ascii letters separate", label: "Straße", expected: "__STRA_E__"},
		{name: "accented letters separate", label: "Café Allowance", expected: "__CAF_ALLOWANCE__"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok, err := Normalize(tt.label, tt.suffixes...)
			require.NoError(t, err)
			require.Equal(t, tt.expected, tok)
		})
	}
}

func TestNormalize_emptyLabels(t *testing.T) {
	for _, label := range []string{"", "   ", "\t\n", "--", "__", "奖金", "ß"} {
		_, err := Normalize(label)
		require.ErrorIs(t, err, ErrEmptyLabel, "label %q", label)
	}

	_, err := Normalize("", "suffix")
	require.ErrorIs(t, err, ErrEmptyLabel)
}

func TestNormalize_idempotent(t *testing.T) {
	labels := []string{"Basic Salary", "total   working days", "Cost-of-living", "Overtime (x1.5) Rate"}

	for _, label := range labels {
		first, err := Normalize(label)
		require.NoError(t, err)

		second, err := Normalize(label)
		require.NoError(t, err)
		require.Equal(t, first, second)

		again, err := Normalize(string(first))
		require.NoError(t, err)
		require.Equal(t, first, again)

		roundTrip, err := Normalize(Denormalize(first))
		require.NoError(t, err)
		require.Equal(t, first, roundTrip)
	}
}

func TestMustNormalize_panicsOnEmpty(t *testing.T) {
	require.Panics(t, func() { MustNormalize(" ") })
	require.Equal(t, Token("__TAX__"), MustNormalize("tax"))
}

func TestCollapseLabel(t *testing.T) {
	require.Equal(t, "total working days", CollapseLabel("  total-working   days "))
	require.Equal(t, "", CollapseLabel("   "))
}

func TestNormalize_tokenAlphabet(t *testing.T) {
	for _, label := range []string{"Straße", "Überstunden Zulage", "İstanbul bonus", "ǅemal", "Basic Salary"} {
		tok, err := Normalize(label)
		require.NoError(t, err)
		require.Regexp(t, `^__[A-Z0-9]+(_[A-Z0-9]+)*__$`, string(tok), "label %q", label)
	}
}
