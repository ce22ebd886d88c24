package pettycash

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/diazhh/erp-ace-sub000/internal/domain/apperr"
	"github.com/diazhh/erp-ace-sub000/internal/platform/metrics"
)

// closeTolerance is the largest residual balance a fund may hold when it is
// closed; anything below a cent is rounding dust.
var closeTolerance = decimal.RequireFromString("0.01")

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

func withRetry(fn func() error) error {
	err := fn()
	if apperr.KindOf(err) == apperr.KindTransient {
		metrics.WriteConflictRetries.Inc()
		return fn()
	}
	return err
}

type CreateFundRequest struct {
	Name              string
	Currency          string
	InitialAmount     decimal.Decimal
	MinimumBalance    decimal.Decimal
	MaximumExpense    decimal.NullDecimal
	RequiresApproval  bool
	ApprovalThreshold decimal.NullDecimal
	CustodianID       string
	CreatedBy         string
}

// CreateFund opens a fund and records its opening balance as an
// auto-approved INITIAL entry, so the balance invariant holds from the
// first row: every unit in current_balance is backed by an entry.
func (s *Service) CreateFund(ctx context.Context, req CreateFundRequest) (Fund, error) {
	if req.Name == "" {
		return Fund{}, apperr.Validation("missing_name", "fund name is required")
	}
	if req.InitialAmount.IsNegative() {
		return Fund{}, apperr.Validation("invalid_initial_amount", "initial amount must not be negative")
	}
	if req.MinimumBalance.IsNegative() {
		return Fund{}, apperr.Validation("invalid_minimum_balance", "minimum balance must not be negative")
	}
	if req.Currency == "" {
		req.Currency = "VES"
	}

	fund := Fund{
		Name:              req.Name,
		Currency:          req.Currency,
		InitialAmount:     req.InitialAmount,
		CurrentBalance:    req.InitialAmount,
		MinimumBalance:    req.MinimumBalance,
		MaximumExpense:    req.MaximumExpense,
		RequiresApproval:  req.RequiresApproval,
		ApprovalThreshold: req.ApprovalThreshold,
		Status:            FundStatusActive,
		CustodianID:       req.CustodianID,
	}

	var id string
	err := withRetry(func() error {
		return s.store.Transact(ctx, func(tx TxAPI) error {
			fundID, err := tx.InsertFund(ctx, fund)
			if err != nil {
				return err
			}
			id = fundID

			now := time.Now().UTC()
			opening := Entry{
				FundID:       fundID,
				EntryType:    EntryTypeInitial,
				Amount:       req.InitialAmount,
				Description:  "fund opening",
				Status:       StatusApproved,
				BalanceAfter: decimal.NewNullDecimal(req.InitialAmount),
				ApprovedBy:   req.CreatedBy,
				ApprovedAt:   &now,
				CreatedBy:    req.CreatedBy,
			}
			_, err = tx.InsertEntry(ctx, opening)
			return err
		})
	})
	if err != nil {
		return Fund{}, err
	}
	return s.store.GetFund(ctx, id)
}

func (s *Service) GetFund(ctx context.Context, fundID string) (Fund, error) {
	return s.store.GetFund(ctx, fundID)
}

func (s *Service) ListFunds(ctx context.Context, status string, limit, offset int) ([]Fund, int, error) {
	return s.store.ListFunds(ctx, status, limit, offset)
}

// UpdateFundStatus moves a fund between ACTIVE, INACTIVE and SUSPENDED.
// Closing goes through CloseFund, which checks the balance is settled.
func (s *Service) UpdateFundStatus(ctx context.Context, fundID, target string) (Fund, error) {
	switch target {
	case FundStatusActive, FundStatusInactive, FundStatusSuspended:
	case FundStatusClosed:
		return Fund{}, apperr.Validation("use_close", "funds are closed through the close operation")
	default:
		return Fund{}, apperr.Validation("invalid_fund_status", "unknown fund status %q", target)
	}

	var fund Fund
	err := withRetry(func() error {
		return s.store.Transact(ctx, func(tx TxAPI) error {
			locked, err := tx.FundForUpdate(ctx, fundID)
			if err != nil {
				return err
			}
			if err := checkFundTransition(locked.Status, target); err != nil {
				return err
			}
			locked.Status = target
			if err := tx.UpdateFund(ctx, locked); err != nil {
				return err
			}
			fund = locked
			return nil
		})
	})
	if err != nil {
		return Fund{}, err
	}
	return fund, nil
}

// CloseFund is terminal. It refuses unless the balance has been spent or
// adjusted down to (near) zero.
func (s *Service) CloseFund(ctx context.Context, fundID string) (Fund, error) {
	var fund Fund
	err := withRetry(func() error {
		return s.store.Transact(ctx, func(tx TxAPI) error {
			locked, err := tx.FundForUpdate(ctx, fundID)
			if err != nil {
				return err
			}
			if err := checkFundTransition(locked.Status, FundStatusClosed); err != nil {
				return err
			}
			if locked.CurrentBalance.Abs().GreaterThanOrEqual(closeTolerance) {
				return apperr.BusinessRule("fund_not_settled", "fund balance is %s, settle it before closing", locked.CurrentBalance.StringFixed(2))
			}
			locked.Status = FundStatusClosed
			if err := tx.UpdateFund(ctx, locked); err != nil {
				return err
			}
			fund = locked
			return nil
		})
	})
	if err != nil {
		return Fund{}, err
	}
	return fund, nil
}

// CheckExpense is the read-only preview of the balance guard. The verdict
// is advisory; creation and approval re-run the guard under a row lock.
func (s *Service) CheckExpense(ctx context.Context, fundID string, amount decimal.Decimal) (Decision, error) {
	if !amount.IsPositive() {
		return Decision{}, apperr.Validation("invalid_amount", "expense amount must be positive")
	}
	fund, err := s.store.GetFund(ctx, fundID)
	if err != nil {
		return Decision{}, err
	}
	return CanExpense(fund, amount), nil
}

type EntryRequest struct {
	EntryType   string
	Amount      decimal.Decimal
	Description string
	CreatedBy   string
}

// CreateEntry records a new movement against the fund. Expenses that clear
// the guard without needing approval (and replenishments/adjustments on
// funds that don't require approval) are approved in the same transaction,
// with the balance applied immediately; everything else lands PENDING.
func (s *Service) CreateEntry(ctx context.Context, fundID string, req EntryRequest) (Entry, error) {
	switch req.EntryType {
	case EntryTypeExpense, EntryTypeReplenishment:
		if !req.Amount.IsPositive() {
			return Entry{}, apperr.Validation("invalid_amount", "%s amount must be positive", req.EntryType)
		}
	case EntryTypeAdjustment:
		if req.Amount.IsZero() {
			return Entry{}, apperr.Validation("invalid_amount", "adjustment amount must not be zero")
		}
	case EntryTypeInitial:
		return Entry{}, apperr.Validation("invalid_entry_type", "the opening entry is written when the fund is created")
	default:
		return Entry{}, apperr.Validation("invalid_entry_type", "unknown entry type %q", req.EntryType)
	}

	var entry Entry
	err := withRetry(func() error {
		return s.store.Transact(ctx, func(tx TxAPI) error {
			fund, err := tx.FundForUpdate(ctx, fundID)
			if err != nil {
				return err
			}

			needsApproval := fund.RequiresApproval
			if req.EntryType == EntryTypeExpense {
				decision := CanExpense(fund, req.Amount)
				if !decision.Allowed {
					return apperr.BusinessRule("expense_rejected", "%s", decision.Reason)
				}
				needsApproval = decision.RequiresApproval
			} else if fund.Status != FundStatusActive {
				return apperr.BusinessRule("fund_not_active", "%s", ReasonFundNotActive)
			}

			entry = Entry{
				FundID:      fundID,
				EntryType:   req.EntryType,
				Amount:      req.Amount,
				Description: req.Description,
				Status:      StatusPending,
				CreatedBy:   req.CreatedBy,
			}

			if !needsApproval {
				balance, err := NewBalance(fund.CurrentBalance, req.Amount, req.EntryType)
				if err != nil {
					return err
				}
				fund.CurrentBalance = balance
				if err := tx.UpdateFund(ctx, fund); err != nil {
					return err
				}
				now := time.Now().UTC()
				entry.Status = StatusApproved
				entry.BalanceAfter = decimal.NewNullDecimal(balance)
				entry.ApprovedBy = req.CreatedBy
				entry.ApprovedAt = &now
			}

			id, err := tx.InsertEntry(ctx, entry)
			if err != nil {
				return err
			}
			entry.ID = id
			return nil
		})
	})
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// ApproveEntry applies a pending entry's balance effect. The guard re-runs
// against the locked fund row, not the balance the requester saw, so an
// expense approved after the fund drained is still refused.
func (s *Service) ApproveEntry(ctx context.Context, entryID, approvedBy string) (Entry, error) {
	var entry Entry
	err := withRetry(func() error {
		return s.store.Transact(ctx, func(tx TxAPI) error {
			locked, err := tx.EntryForUpdate(ctx, entryID)
			if err != nil {
				return err
			}
			if err := CheckTransition(locked.Status, StatusApproved); err != nil {
				return err
			}

			fund, err := tx.FundForUpdate(ctx, locked.FundID)
			if err != nil {
				return err
			}
			if locked.EntryType == EntryTypeExpense {
				if decision := CanExpense(fund, locked.Amount); !decision.Allowed {
					return apperr.BusinessRule("expense_rejected", "%s", decision.Reason)
				}
			} else if fund.Status != FundStatusActive {
				return apperr.BusinessRule("fund_not_active", "%s", ReasonFundNotActive)
			}

			balance, err := NewBalance(fund.CurrentBalance, locked.Amount, locked.EntryType)
			if err != nil {
				return err
			}
			fund.CurrentBalance = balance
			if err := tx.UpdateFund(ctx, fund); err != nil {
				return err
			}

			now := time.Now().UTC()
			locked.Status = StatusApproved
			locked.BalanceAfter = decimal.NewNullDecimal(balance)
			locked.ApprovedBy = approvedBy
			locked.ApprovedAt = &now
			if err := tx.UpdateEntry(ctx, locked); err != nil {
				return err
			}
			entry = locked
			return nil
		})
	})
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

func (s *Service) RejectEntry(ctx context.Context, entryID, rejectedBy, reason string) (Entry, error) {
	if reason == "" {
		return Entry{}, apperr.Validation("missing_reason", "rejection reason is required")
	}

	var entry Entry
	err := withRetry(func() error {
		return s.store.Transact(ctx, func(tx TxAPI) error {
			locked, err := tx.EntryForUpdate(ctx, entryID)
			if err != nil {
				return err
			}
			if err := CheckTransition(locked.Status, StatusRejected); err != nil {
				return err
			}
			now := time.Now().UTC()
			locked.Status = StatusRejected
			locked.RejectionReason = reason
			locked.ApprovedBy = rejectedBy
			locked.ApprovedAt = &now
			if err := tx.UpdateEntry(ctx, locked); err != nil {
				return err
			}
			entry = locked
			return nil
		})
	})
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// PayEntry marks an approved entry as disbursed. The balance moved at
// approval time, so payment is bookkeeping only.
func (s *Service) PayEntry(ctx context.Context, entryID, paidBy, paymentReference string) (Entry, error) {
	var entry Entry
	err := withRetry(func() error {
		return s.store.Transact(ctx, func(tx TxAPI) error {
			locked, err := tx.EntryForUpdate(ctx, entryID)
			if err != nil {
				return err
			}
			if err := CheckTransition(locked.Status, StatusPaid); err != nil {
				return err
			}
			now := time.Now().UTC()
			locked.Status = StatusPaid
			locked.PaidBy = paidBy
			locked.PaidAt = &now
			locked.PaymentReference = paymentReference
			if err := tx.UpdateEntry(ctx, locked); err != nil {
				return err
			}
			entry = locked
			return nil
		})
	})
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// CancelEntry voids a pending or approved entry. An approved entry's
// balance effect is reversed by applying the inverse type with the same
// amount (adjustments reverse by negation).
func (s *Service) CancelEntry(ctx context.Context, entryID string) (Entry, error) {
	var entry Entry
	err := withRetry(func() error {
		return s.store.Transact(ctx, func(tx TxAPI) error {
			locked, err := tx.EntryForUpdate(ctx, entryID)
			if err != nil {
				return err
			}
			if err := CheckTransition(locked.Status, StatusCancelled); err != nil {
				return err
			}

			if locked.Status == StatusApproved {
				reverse, err := ReverseType(locked.EntryType)
				if err != nil {
					return err
				}
				amount := locked.Amount
				if locked.EntryType == EntryTypeAdjustment {
					amount = amount.Neg()
				}
				fund, err := tx.FundForUpdate(ctx, locked.FundID)
				if err != nil {
					return err
				}
				balance, err := NewBalance(fund.CurrentBalance, amount, reverse)
				if err != nil {
					return err
				}
				fund.CurrentBalance = balance
				if err := tx.UpdateFund(ctx, fund); err != nil {
					return err
				}
			}

			locked.Status = StatusCancelled
			if err := tx.UpdateEntry(ctx, locked); err != nil {
				return err
			}
			entry = locked
			return nil
		})
	})
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

func (s *Service) GetEntry(ctx context.Context, entryID string) (Entry, error) {
	return s.store.GetEntry(ctx, entryID)
}

func (s *Service) ListEntries(ctx context.Context, fundID, status string, limit, offset int) ([]Entry, int, error) {
	if _, err := s.store.GetFund(ctx, fundID); err != nil {
		return nil, 0, err
	}
	return s.store.ListEntries(ctx, fundID, status, limit, offset)
}
