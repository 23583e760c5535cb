package variable

// Tokens available to every formula regardless of position or organization.
var (
	AnnualGrossSalary           = MustNormalize("Annual Gross Salary")
	YearToDate                  = MustNormalize("Year To Date")
	SlotDaysCount               = MustNormalize("Slot Days Count")
	SlotWorkingDaysCount        = MustNormalize("Slot Working Days Count")
	RemainingDaysInFiscalYear   = MustNormalize("Remaining Days In Fiscal Year")
	RemainingMonthsInFiscalYear = MustNormalize("Remaining Months In Fiscal Year")
)

// StaticTokens returns a fresh set of the always-available tokens.
func StaticTokens() Set {
	return Set{
		AnnualGrossSalary:           {},
		YearToDate:                  {},
		SlotDaysCount:               {},
		SlotWorkingDaysCount:        {},
		RemainingDaysInFiscalYear:   {},
		RemainingMonthsInFiscalYear: {},
	}
}
