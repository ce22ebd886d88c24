package loans

import (
	"time"

	"github.com/shopspring/decimal"
)

type Loan struct {
	ID                string          `json:"id"`
	Code              string          `json:"code"`
	EmployeeID        string          `json:"employeeId"`
	Amount            decimal.Decimal `json:"amount"`
	TotalInstallments int             `json:"totalInstallments"`
	InstallmentAmount decimal.Decimal `json:"installmentAmount"`
	PaidInstallments  int             `json:"paidInstallments"`
	RemainingAmount   decimal.Decimal `json:"remainingAmount"`
	Status            string          `json:"status"`
	Reason            string          `json:"reason,omitempty"`
	StartDate         time.Time       `json:"startDate"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
}

// Payment is an append-only record of one installment payment. PayrollEntryID
// is set when the installment was deducted through payroll.
type Payment struct {
	ID                string          `json:"id"`
	LoanID            string          `json:"loanId"`
	PayrollEntryID    string          `json:"payrollEntryId,omitempty"`
	InstallmentNumber int             `json:"installmentNumber"`
	Amount            decimal.Decimal `json:"amount"`
	PaymentDate       time.Time       `json:"paymentDate"`
	Method            string          `json:"method"`
	CreatedAt         time.Time       `json:"createdAt"`
}

// ScheduleLine is one row of the derived amortization schedule.
type ScheduleLine struct {
	InstallmentNumber int             `json:"installmentNumber"`
	Amount            decimal.Decimal `json:"amount"`
	Paid              bool            `json:"paid"`
}
