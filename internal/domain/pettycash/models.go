package pettycash

import (
	"time"

	"github.com/shopspring/decimal"
)

// Fund is a cash fund whose current balance only moves through approved
// entries of matching amount.
type Fund struct {
	ID                string              `json:"id"`
	Name              string              `json:"name"`
	Currency          string              `json:"currency"`
	InitialAmount     decimal.Decimal     `json:"initialAmount"`
	CurrentBalance    decimal.Decimal     `json:"currentBalance"`
	MinimumBalance    decimal.Decimal     `json:"minimumBalance"`
	MaximumExpense    decimal.NullDecimal `json:"maximumExpense"`
	RequiresApproval  bool                `json:"requiresApproval"`
	ApprovalThreshold decimal.NullDecimal `json:"approvalThreshold"`
	Status            string              `json:"status"`
	CustodianID       string              `json:"custodianId,omitempty"`
	CreatedAt         time.Time           `json:"createdAt"`
	UpdatedAt         time.Time           `json:"updatedAt"`
}

// NeedsReplenishment reports whether the fund has drained to or below its
// configured minimum.
func (f Fund) NeedsReplenishment() bool {
	return f.CurrentBalance.LessThanOrEqual(f.MinimumBalance)
}

type Entry struct {
	ID               string              `json:"id"`
	FundID           string              `json:"fundId"`
	EntryType        string              `json:"entryType"`
	Amount           decimal.Decimal     `json:"amount"`
	Description      string              `json:"description,omitempty"`
	Status           string              `json:"status"`
	BalanceAfter     decimal.NullDecimal `json:"balanceAfter"`
	ApprovedBy       string              `json:"approvedBy,omitempty"`
	ApprovedAt       *time.Time          `json:"approvedAt,omitempty"`
	RejectionReason  string              `json:"rejectionReason,omitempty"`
	PaidBy           string              `json:"paidBy,omitempty"`
	PaidAt           *time.Time          `json:"paidAt,omitempty"`
	PaymentReference string              `json:"paymentReference,omitempty"`
	CreatedBy        string              `json:"createdBy,omitempty"`
	CreatedAt        time.Time           `json:"createdAt"`
	UpdatedAt        time.Time           `json:"updatedAt"`
}

// Decision is the balance guard's verdict on a prospective expense.
type Decision struct {
	Allowed          bool   `json:"allowed"`
	Reason           string `json:"reason,omitempty"`
	RequiresApproval bool   `json:"requiresApproval"`
}
