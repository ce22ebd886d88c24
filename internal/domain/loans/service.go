package loans

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/diazhh/erp-ace-sub000/internal/domain/apperr"
	"github.com/diazhh/erp-ace-sub000/internal/platform/metrics"
)

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

// withRetry re-runs fn once when the store reports a transient write
// conflict. A second conflict is surfaced to the caller.
func withRetry(fn func() error) error {
	err := fn()
	if apperr.KindOf(err) == apperr.KindTransient {
		metrics.WriteConflictRetries.Inc()
		return fn()
	}
	return err
}

// Originate creates an ACTIVE loan with a code drawn from the global
// sequence. Loans are never deleted afterwards; Cancel soft-cancels.
func (s *Service) Originate(ctx context.Context, employeeID string, amount decimal.Decimal, totalInstallments int, startDate time.Time, reason string) (Loan, error) {
	if employeeID == "" {
		return Loan{}, apperr.Validation("missing_employee", "employeeId is required")
	}

	loan := Loan{
		EmployeeID:        employeeID,
		Amount:            amount,
		TotalInstallments: totalInstallments,
		Status:            StatusActive,
		Reason:            reason,
		StartDate:         startDate,
	}
	loan, err := Normalize(loan)
	if err != nil {
		return Loan{}, err
	}

	var id string
	err = withRetry(func() error {
		return s.store.Transact(ctx, func(tx TxAPI) error {
			sequence, err := tx.NextCodeSequence(ctx)
			if err != nil {
				return err
			}
			loan.Code = FormatCode(sequence)
			id, err = tx.InsertLoan(ctx, loan)
			return err
		})
	})
	if err != nil {
		return Loan{}, err
	}
	return s.store.GetLoan(ctx, id)
}

type PaymentRequest struct {
	Amount            decimal.Decimal
	InstallmentNumber int
	PaymentDate       time.Time
	Method            string
	PayrollEntryID    string
}

// ApplyPayment records one installment payment and advances the loan's
// amortization state atomically. Only ACTIVE loans accept payments; once the
// remaining amount reaches zero the loan flips to PAID, so paying past the
// last installment is impossible rather than silently floored.
func (s *Service) ApplyPayment(ctx context.Context, loanID string, req PaymentRequest) (Loan, Payment, error) {
	if !req.Amount.IsPositive() {
		return Loan{}, Payment{}, apperr.Validation("invalid_amount", "payment amount must be positive")
	}
	if req.PaymentDate.IsZero() {
		req.PaymentDate = time.Now().UTC()
	}
	if req.Method == "" {
		req.Method = MethodPayroll
	}

	var loan Loan
	var payment Payment
	err := withRetry(func() error {
		return s.store.Transact(ctx, func(tx TxAPI) error {
			locked, err := tx.LoanForUpdate(ctx, loanID)
			if err != nil {
				return err
			}
			if locked.Status != StatusActive {
				return apperr.StateConflict("loan_not_active", "loan %s is %s and does not accept payments", locked.Code, locked.Status)
			}

			next := locked.PaidInstallments + 1
			if req.InstallmentNumber != 0 && req.InstallmentNumber != next {
				return apperr.Validation("installment_out_of_sequence", "expected installment %d, got %d", next, req.InstallmentNumber)
			}

			locked.PaidInstallments = next
			locked, err = Normalize(locked)
			if err != nil {
				return err
			}

			payment = Payment{
				LoanID:            loanID,
				PayrollEntryID:    req.PayrollEntryID,
				InstallmentNumber: next,
				Amount:            req.Amount,
				PaymentDate:       req.PaymentDate,
				Method:            req.Method,
			}
			paymentID, err := tx.InsertPayment(ctx, payment)
			if err != nil {
				return err
			}
			payment.ID = paymentID

			if err := tx.UpdateLoan(ctx, locked); err != nil {
				return err
			}
			loan = locked
			return nil
		})
	})
	if err != nil {
		return Loan{}, Payment{}, err
	}
	return loan, payment, nil
}

func (s *Service) GetLoan(ctx context.Context, loanID string) (Loan, error) {
	return s.store.GetLoan(ctx, loanID)
}

func (s *Service) ListLoans(ctx context.Context, employeeID string, limit, offset int) ([]Loan, int, error) {
	return s.store.ListLoans(ctx, employeeID, limit, offset)
}

func (s *Service) ListPayments(ctx context.Context, loanID string) ([]Payment, error) {
	if _, err := s.store.GetLoan(ctx, loanID); err != nil {
		return nil, err
	}
	return s.store.ListPayments(ctx, loanID)
}

// LoanSchedule returns the derived amortization schedule.
func (s *Service) LoanSchedule(ctx context.Context, loanID string) ([]ScheduleLine, error) {
	loan, err := s.store.GetLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	return Schedule(loan), nil
}

// Cancel soft-cancels a loan that still owes money.
func (s *Service) Cancel(ctx context.Context, loanID string) (Loan, error) {
	return s.setStatus(ctx, loanID, StatusCancelled, StatusActive, StatusPaused)
}

// Pause stops an active loan from accepting payments without cancelling it.
func (s *Service) Pause(ctx context.Context, loanID string) (Loan, error) {
	return s.setStatus(ctx, loanID, StatusPaused, StatusActive)
}

// Resume reactivates a paused loan.
func (s *Service) Resume(ctx context.Context, loanID string) (Loan, error) {
	return s.setStatus(ctx, loanID, StatusActive, StatusPaused)
}

func (s *Service) setStatus(ctx context.Context, loanID, target string, allowedFrom ...string) (Loan, error) {
	var loan Loan
	err := withRetry(func() error {
		return s.store.Transact(ctx, func(tx TxAPI) error {
			locked, err := tx.LoanForUpdate(ctx, loanID)
			if err != nil {
				return err
			}
			allowed := false
			for _, from := range allowedFrom {
				if locked.Status == from {
					allowed = true
					break
				}
			}
			if !allowed {
				return apperr.StateConflict("invalid_loan_transition", "cannot move loan from %s to %s", locked.Status, target)
			}
			locked.Status = target
			locked, err = Normalize(locked)
			if err != nil {
				return err
			}
			// Normalize may flip ACTIVE to PAID on resume of a settled loan.
			if err := tx.UpdateLoan(ctx, locked); err != nil {
				return err
			}
			loan = locked
			return nil
		})
	})
	if err != nil {
		return Loan{}, err
	}
	return loan, nil
}
