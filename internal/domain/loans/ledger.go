package loans

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/diazhh/erp-ace-sub000/internal/domain/apperr"
)

// Normalize recomputes the loan's derived fields from amount, installment
// count and paid installments, and flips an ACTIVE loan to PAID when nothing
// remains. It must run before every loan write so a persisted loan can never
// carry a remainingAmount inconsistent with its paidInstallments.
func Normalize(loan Loan) (Loan, error) {
	if loan.TotalInstallments <= 0 {
		return Loan{}, apperr.Validation("invalid_installments", "totalInstallments must be positive, got %d", loan.TotalInstallments)
	}
	if !loan.Amount.IsPositive() {
		return Loan{}, apperr.Validation("invalid_amount", "loan amount must be positive")
	}
	if loan.PaidInstallments < 0 {
		return Loan{}, apperr.Validation("invalid_paid_installments", "paidInstallments must not be negative")
	}

	loan.InstallmentAmount = loan.Amount.Div(decimal.NewFromInt(int64(loan.TotalInstallments))).Round(2)

	remaining := loan.Amount.Sub(loan.InstallmentAmount.Mul(decimal.NewFromInt(int64(loan.PaidInstallments))))
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	// Rounded installments can leave a sub-cent tail after the last one.
	if loan.PaidInstallments >= loan.TotalInstallments {
		remaining = decimal.Zero
	}
	loan.RemainingAmount = remaining

	if loan.Status == StatusActive && loan.RemainingAmount.IsZero() {
		loan.Status = StatusPaid
	}
	return loan, nil
}

// Schedule derives the amortization schedule from the loan's fields. The last
// installment absorbs the rounding difference so the lines sum to the loan
// amount exactly.
func Schedule(loan Loan) []ScheduleLine {
	lines := make([]ScheduleLine, 0, loan.TotalInstallments)
	accumulated := decimal.Zero
	for n := 1; n <= loan.TotalInstallments; n++ {
		amount := loan.InstallmentAmount
		if n == loan.TotalInstallments {
			amount = loan.Amount.Sub(accumulated)
		}
		lines = append(lines, ScheduleLine{
			InstallmentNumber: n,
			Amount:            amount,
			Paid:              n <= loan.PaidInstallments,
		})
		accumulated = accumulated.Add(amount)
	}
	return lines
}

// FormatCode renders a loan code from the global sequence value.
func FormatCode(sequence int64) string {
	return fmt.Sprintf("%s-%05d", codePrefix, sequence)
}
