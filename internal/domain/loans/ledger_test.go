package loans

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func TestNormalizeDerivesInstallmentAndRemaining(t *testing.T) {
	loan, err := Normalize(Loan{Amount: dec("1200"), TotalInstallments: 12, Status: StatusActive})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !loan.InstallmentAmount.Equal(dec("100")) {
		t.Fatalf("expected installment 100, got %v", loan.InstallmentAmount)
	}
	if !loan.RemainingAmount.Equal(dec("1200")) {
		t.Fatalf("expected remaining 1200, got %v", loan.RemainingAmount)
	}
	if loan.Status != StatusActive {
		t.Fatalf("expected ACTIVE, got %s", loan.Status)
	}
}

func TestNormalizeFlipsToPaidAtZero(t *testing.T) {
	loan, err := Normalize(Loan{Amount: dec("1200"), TotalInstallments: 12, PaidInstallments: 12, Status: StatusActive})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !loan.RemainingAmount.IsZero() {
		t.Fatalf("expected remaining 0, got %v", loan.RemainingAmount)
	}
	if loan.Status != StatusPaid {
		t.Fatalf("expected PAID, got %s", loan.Status)
	}
}

func TestNormalizeNeverGoesNegative(t *testing.T) {
	loan, err := Normalize(Loan{Amount: dec("1200"), TotalInstallments: 12, PaidInstallments: 15, Status: StatusPaid})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loan.RemainingAmount.IsNegative() {
		t.Fatalf("remaining must not be negative, got %v", loan.RemainingAmount)
	}
}

func TestNormalizeAbsorbsRoundingTail(t *testing.T) {
	// 1000/3 rounds to 333.33 per installment; after the final installment
	// the 0.01 tail must not keep the loan open.
	loan, err := Normalize(Loan{Amount: dec("1000"), TotalInstallments: 3, PaidInstallments: 3, Status: StatusActive})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !loan.RemainingAmount.IsZero() {
		t.Fatalf("expected remaining 0, got %v", loan.RemainingAmount)
	}
	if loan.Status != StatusPaid {
		t.Fatalf("expected PAID, got %s", loan.Status)
	}
}

func TestNormalizeRejectsZeroInstallments(t *testing.T) {
	if _, err := Normalize(Loan{Amount: dec("1200"), Status: StatusActive}); err == nil {
		t.Fatal("expected validation error for totalInstallments=0")
	}
}

func TestScheduleSumsToLoanAmount(t *testing.T) {
	loan, err := Normalize(Loan{Amount: dec("1000"), TotalInstallments: 3, PaidInstallments: 1, Status: StatusActive})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	lines := Schedule(loan)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	sum := decimal.Zero
	for _, line := range lines {
		sum = sum.Add(line.Amount)
	}
	if !sum.Equal(loan.Amount) {
		t.Fatalf("schedule sums to %v, want %v", sum, loan.Amount)
	}
	if !lines[2].Amount.Equal(dec("333.34")) {
		t.Fatalf("expected last line 333.34, got %v", lines[2].Amount)
	}
	if !lines[0].Paid || lines[1].Paid {
		t.Fatalf("expected only first line paid, got %+v", lines)
	}
}

func TestFormatCode(t *testing.T) {
	if code := FormatCode(7); code != "LOAN-00007" {
		t.Fatalf("expected LOAN-00007, got %s", code)
	}
	if code := FormatCode(123456); code != "LOAN-123456" {
		t.Fatalf("expected LOAN-123456, got %s", code)
	}
}
