package pettycash

import (
	"github.com/shopspring/decimal"

	"github.com/diazhh/erp-ace-sub000/internal/domain/apperr"
)

// Reasons returned by CanExpense, in check order.
const (
	ReasonFundNotActive       = "fund not active"
	ReasonInsufficientBalance = "insufficient balance"
	ReasonExceedsMaximum      = "exceeds per-expense maximum"
)

// CanExpense decides whether an expense of the given amount may be drawn
// from the fund. Checks short-circuit on the first failure, so the reason
// always names the earliest violated policy.
func CanExpense(fund Fund, amount decimal.Decimal) Decision {
	if fund.Status != FundStatusActive {
		return Decision{Reason: ReasonFundNotActive}
	}
	if amount.GreaterThan(fund.CurrentBalance) {
		return Decision{Reason: ReasonInsufficientBalance}
	}
	if fund.MaximumExpense.Valid && amount.GreaterThan(fund.MaximumExpense.Decimal) {
		return Decision{Reason: ReasonExceedsMaximum}
	}
	return Decision{
		Allowed:          true,
		RequiresApproval: fund.RequiresApproval && (!fund.ApprovalThreshold.Valid || amount.GreaterThanOrEqual(fund.ApprovalThreshold.Decimal)),
	}
}

// NewBalance applies one entry's signed effect to the running balance.
// Expenses subtract; everything else adds, with adjustment amounts allowed
// to carry their own sign.
func NewBalance(current, amount decimal.Decimal, entryType string) (decimal.Decimal, error) {
	switch entryType {
	case EntryTypeExpense:
		return current.Sub(amount), nil
	case EntryTypeReplenishment, EntryTypeInitial, EntryTypeAdjustment:
		return current.Add(amount), nil
	default:
		return decimal.Zero, apperr.Validation("invalid_entry_type", "unknown entry type %q", entryType)
	}
}
