package payroll

import (
	"github.com/shopspring/decimal"

	"github.com/diazhh/erp-ace-sub000/internal/domain/apperr"
)

// Statutory deduction rates, applied to the proportional salary only.
var (
	ssoRate = decimal.RequireFromString("0.04")
	rpeRate = decimal.RequireFromString("0.005")
	favRate = decimal.RequireFromString("0.01")
)

// CalculateTotals derives gross pay, statutory deductions and net pay from an
// entry's input fields. Pure; callers persist the result.
//
// Every derived field is rounded to 2 decimal places before totals are taken,
// so netPay == grossPay - totalDeductions holds exactly at stored precision.
// A negative net is allowed and reported via the negative_net warning.
func CalculateTotals(in EntryInputs) (EntryTotals, error) {
	if in.TotalDays <= 0 {
		return EntryTotals{}, apperr.Validation("invalid_total_days", "totalDays must be positive, got %d", in.TotalDays)
	}
	if in.DaysWorked < 0 || in.DaysWorked > in.TotalDays {
		return EntryTotals{}, apperr.Validation("invalid_days_worked", "daysWorked must be between 0 and %d, got %d", in.TotalDays, in.DaysWorked)
	}
	if in.BaseSalary.IsNegative() {
		return EntryTotals{}, apperr.Validation("invalid_base_salary", "baseSalary must not be negative")
	}

	proportional := in.BaseSalary.
		Div(decimal.NewFromInt(int64(in.TotalDays))).
		Mul(decimal.NewFromInt(int64(in.DaysWorked))).
		Round(2)

	gross := proportional.
		Add(in.Overtime).
		Add(in.Bonus).
		Add(in.Commission).
		Add(in.FoodAllowance).
		Add(in.TransportAllowance).
		Add(in.OtherIncome).
		Round(2)

	sso := proportional.Mul(ssoRate).Round(2)
	rpe := proportional.Mul(rpeRate).Round(2)
	fav := proportional.Mul(favRate).Round(2)

	totalDeductions := sso.
		Add(rpe).
		Add(fav).
		Add(in.ISLRDeduction).
		Add(in.LoanDeduction).
		Add(in.OtherDeductions).
		Round(2)

	net := gross.Sub(totalDeductions)

	totals := EntryTotals{
		ProportionalSalary: proportional,
		GrossPay:           gross,
		SSODeduction:       sso,
		RPEDeduction:       rpe,
		FAVDeduction:       fav,
		TotalDeductions:    totalDeductions,
		NetPay:             net,
	}
	if net.IsNegative() {
		totals.Warnings = append(totals.Warnings, WarningNegativeNet)
	}
	return totals, nil
}
