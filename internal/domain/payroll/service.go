package payroll

import (
	"context"
	"time"

	"github.com/diazhh/erp-ace-sub000/internal/db"
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

// periodTransitions is the forward lifecycle of a payroll period. CANCELLED
// is reachable from every non-terminal state; PAID is terminal.
var periodTransitions = map[string][]string{
	PeriodStatusDraft:      {PeriodStatusCalculated, PeriodStatusCancelled},
	PeriodStatusCalculated: {PeriodStatusApproved, PeriodStatusDraft, PeriodStatusCancelled},
	PeriodStatusApproved:   {PeriodStatusPaid, PeriodStatusCancelled},
	PeriodStatusPaid:       {},
	PeriodStatusCancelled:  {},
}

func canTransitionPeriod(from, to string) bool {
	for _, allowed := range periodTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func (s *Service) CreatePeriod(ctx context.Context, name string, startDate, endDate time.Time) (Period, error) {
	if !endDate.After(startDate) {
		return Period{}, apperr.Validation("invalid_period_range", "end date must be after start date")
	}
	id, err := s.store.CreatePeriod(ctx, name, startDate, endDate)
	if err != nil {
		return Period{}, err
	}
	return s.store.GetPeriod(ctx, id)
}

func (s *Service) GetPeriod(ctx context.Context, periodID string) (Period, error) {
	return s.store.GetPeriod(ctx, periodID)
}

func (s *Service) ListPeriods(ctx context.Context, limit, offset int) ([]Period, int, error) {
	total, err := s.store.CountPeriods(ctx)
	if err != nil {
		return nil, 0, err
	}
	periods, err := s.store.ListPeriods(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return periods, total, nil
}

// UpdatePeriodStatus validates the transition against the locked period row.
// Moving to PAID or CANCELLED sweeps the period's pending entries to the
// matching payment status in the same transaction.
func (s *Service) UpdatePeriodStatus(ctx context.Context, periodID, status string) (Period, error) {
	var period Period
	err := withRetry(func() error {
		return s.store.Transact(ctx, func(tx TxAPI) error {
			current, err := tx.PeriodForUpdate(ctx, periodID)
			if err != nil {
				return err
			}
			if !canTransitionPeriod(current.Status, status) {
				return apperr.StateConflict("invalid_period_transition", "cannot move period from %s to %s", current.Status, status)
			}
			if err := tx.UpdatePeriodStatus(ctx, periodID, status); err != nil {
				return err
			}
			switch status {
			case PeriodStatusPaid:
				if err := tx.SetEntriesPaymentStatus(ctx, periodID, EntryStatusPending, EntryStatusPaid); err != nil {
					return err
				}
			case PeriodStatusCancelled:
				if err := tx.SetEntriesPaymentStatus(ctx, periodID, EntryStatusPending, EntryStatusCancelled); err != nil {
					return err
				}
			}
			current.Status = status
			period = current
			return nil
		})
	})
	if err != nil {
		return Period{}, err
	}
	return period, nil
}

func (s *Service) CreateEntry(ctx context.Context, periodID, employeeID string, inputs EntryInputs) (Entry, error) {
	if employeeID == "" {
		return Entry{}, apperr.Validation("missing_employee", "employeeId is required")
	}
	totals, err := CalculateTotals(inputs)
	if err != nil {
		return Entry{}, err
	}

	var id string
	err = withRetry(func() error {
		return s.store.Transact(ctx, func(tx TxAPI) error {
			period, err := tx.PeriodForUpdate(ctx, periodID)
			if err != nil {
				return err
			}
			if period.Status == PeriodStatusPaid {
				return ErrPeriodImmutable
			}
			exists, err := tx.EntryExists(ctx, periodID, employeeID)
			if err != nil {
				return err
			}
			if exists {
				return apperr.BusinessRule("duplicate_entry", "employee already has an entry in this period")
			}
			id, err = tx.InsertEntry(ctx, Entry{
				PeriodID:      periodID,
				EmployeeID:    employeeID,
				EntryInputs:   inputs,
				EntryTotals:   totals,
				PaymentStatus: EntryStatusPending,
			})
			return err
		})
	})
	if err != nil {
		// The UNIQUE(period_id, employee_id) index backstops the
		// in-transaction existence check.
		if db.IsUniqueViolation(err) {
			return Entry{}, apperr.BusinessRule("duplicate_entry", "employee already has an entry in this period")
		}
		return Entry{}, err
	}
	return s.store.GetEntry(ctx, id)
}

// UpdateEntry replaces the entry's input fields and recomputes every derived
// field. The owning period is re-checked under lock; PAID periods are
// immutable.
func (s *Service) UpdateEntry(ctx context.Context, entryID string, inputs EntryInputs) (Entry, error) {
	totals, err := CalculateTotals(inputs)
	if err != nil {
		return Entry{}, err
	}

	err = withRetry(func() error {
		return s.store.Transact(ctx, func(tx TxAPI) error {
			entry, err := tx.EntryForUpdate(ctx, entryID)
			if err != nil {
				return err
			}
			period, err := tx.PeriodForUpdate(ctx, entry.PeriodID)
			if err != nil {
				return err
			}
			if period.Status == PeriodStatusPaid {
				return ErrPeriodImmutable
			}
			entry.EntryInputs = inputs
			entry.EntryTotals = totals
			return tx.UpdateEntry(ctx, entry)
		})
	})
	if err != nil {
		return Entry{}, err
	}
	return s.store.GetEntry(ctx, entryID)
}

func (s *Service) GetEntry(ctx context.Context, entryID string) (Entry, error) {
	return s.store.GetEntry(ctx, entryID)
}

func (s *Service) ListEntries(ctx context.Context, periodID string) ([]Entry, error) {
	if _, err := s.store.GetPeriod(ctx, periodID); err != nil {
		return nil, err
	}
	return s.store.ListEntries(ctx, periodID)
}

// RecalculatePeriod reruns CalculateTotals over every entry of the period,
// then marks the period CALCULATED. The whole sweep is one transaction; a
// failed entry write rolls every recomputed row back.
func (s *Service) RecalculatePeriod(ctx context.Context, periodID string) (PeriodSummary, error) {
	err := withRetry(func() error {
		return s.store.Transact(ctx, func(tx TxAPI) error {
			period, err := tx.PeriodForUpdate(ctx, periodID)
			if err != nil {
				return err
			}
			if period.Status == PeriodStatusPaid || period.Status == PeriodStatusCancelled {
				return apperr.StateConflict("period_closed", "cannot recalculate a %s period", period.Status)
			}

			entries, err := tx.ListEntries(ctx, periodID)
			if err != nil {
				return err
			}
			for _, entry := range entries {
				totals, err := CalculateTotals(entry.EntryInputs)
				if err != nil {
					return err
				}
				entry.EntryTotals = totals
				if err := tx.UpdateEntry(ctx, entry); err != nil {
					return err
				}
			}
			if period.Status == PeriodStatusDraft {
				return tx.UpdatePeriodStatus(ctx, periodID, PeriodStatusCalculated)
			}
			return nil
		})
	})
	if err != nil {
		return PeriodSummary{}, err
	}
	return s.PeriodSummary(ctx, periodID)
}

func (s *Service) PeriodSummary(ctx context.Context, periodID string) (PeriodSummary, error) {
	gross, deductions, net, count, err := s.store.PeriodTotals(ctx, periodID)
	if err != nil {
		return PeriodSummary{}, err
	}
	summary := PeriodSummary{
		TotalGross:      gross,
		TotalDeductions: deductions,
		TotalNet:        net,
		EntryCount:      count,
		Warnings:        map[string]int{},
	}
	entries, err := s.store.ListEntries(ctx, periodID)
	if err != nil {
		return summary, err
	}
	for _, entry := range entries {
		for _, warning := range entry.Warnings {
			summary.Warnings[warning]++
		}
	}
	return summary, nil
}
