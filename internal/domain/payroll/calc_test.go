package payroll

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func TestCalculateTotalsHalfPeriod(t *testing.T) {
	totals, err := CalculateTotals(EntryInputs{
		BaseSalary: dec("1500"),
		TotalDays:  30,
		DaysWorked: 15,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !totals.ProportionalSalary.Equal(dec("750")) {
		t.Fatalf("expected proportional 750, got %v", totals.ProportionalSalary)
	}
	if !totals.SSODeduction.Equal(dec("30")) {
		t.Fatalf("expected sso 30, got %v", totals.SSODeduction)
	}
	if !totals.RPEDeduction.Equal(dec("3.75")) {
		t.Fatalf("expected rpe 3.75, got %v", totals.RPEDeduction)
	}
	if !totals.FAVDeduction.Equal(dec("7.5")) {
		t.Fatalf("expected fav 7.5, got %v", totals.FAVDeduction)
	}
	if !totals.TotalDeductions.Equal(dec("41.25")) {
		t.Fatalf("expected total deductions 41.25, got %v", totals.TotalDeductions)
	}
	if !totals.GrossPay.Equal(dec("750")) {
		t.Fatalf("expected gross 750, got %v", totals.GrossPay)
	}
	if !totals.NetPay.Equal(dec("708.75")) {
		t.Fatalf("expected net 708.75, got %v", totals.NetPay)
	}
}

func TestCalculateTotalsIncomeComponents(t *testing.T) {
	totals, err := CalculateTotals(EntryInputs{
		BaseSalary:         dec("3000"),
		TotalDays:          30,
		DaysWorked:         30,
		Overtime:           dec("120.50"),
		Bonus:              dec("200"),
		Commission:         dec("75.25"),
		FoodAllowance:      dec("40"),
		TransportAllowance: dec("25"),
		OtherIncome:        dec("10"),
		ISLRDeduction:      dec("90"),
		LoanDeduction:      dec("100"),
		OtherDeductions:    dec("15.75"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !totals.GrossPay.Equal(dec("3470.75")) {
		t.Fatalf("expected gross 3470.75, got %v", totals.GrossPay)
	}
	// 4% + 0.5% + 1% of 3000 = 165, plus islr/loan/other.
	if !totals.TotalDeductions.Equal(dec("370.75")) {
		t.Fatalf("expected total deductions 370.75, got %v", totals.TotalDeductions)
	}
	if !totals.NetPay.Equal(totals.GrossPay.Sub(totals.TotalDeductions)) {
		t.Fatalf("net %v does not equal gross - deductions", totals.NetPay)
	}
	if len(totals.Warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", totals.Warnings)
	}
}

func TestCalculateTotalsNegativeNetWarns(t *testing.T) {
	totals, err := CalculateTotals(EntryInputs{
		BaseSalary:    dec("100"),
		TotalDays:     30,
		DaysWorked:    30,
		LoanDeduction: dec("500"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !totals.NetPay.IsNegative() {
		t.Fatalf("expected negative net, got %v", totals.NetPay)
	}
	if len(totals.Warnings) != 1 || totals.Warnings[0] != WarningNegativeNet {
		t.Fatalf("expected negative_net warning, got %v", totals.Warnings)
	}
}

func TestCalculateTotalsRejectsZeroTotalDays(t *testing.T) {
	if _, err := CalculateTotals(EntryInputs{BaseSalary: dec("1500")}); err == nil {
		t.Fatal("expected validation error for totalDays=0")
	}
}

func TestCalculateTotalsRejectsDaysWorkedAboveTotal(t *testing.T) {
	_, err := CalculateTotals(EntryInputs{BaseSalary: dec("1500"), TotalDays: 30, DaysWorked: 31})
	if err == nil {
		t.Fatal("expected validation error for daysWorked > totalDays")
	}
}

func TestCalculateTotalsRoundsUnevenDivision(t *testing.T) {
	totals, err := CalculateTotals(EntryInputs{
		BaseSalary: dec("1000"),
		TotalDays:  30,
		DaysWorked: 7,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 1000/30*7 = 233.333... stored as 233.33.
	if !totals.ProportionalSalary.Equal(dec("233.33")) {
		t.Fatalf("expected proportional 233.33, got %v", totals.ProportionalSalary)
	}
	if !totals.NetPay.Equal(totals.GrossPay.Sub(totals.TotalDeductions)) {
		t.Fatalf("net %v does not equal gross - deductions", totals.NetPay)
	}
}
