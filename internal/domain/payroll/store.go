package payroll

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/diazhh/erp-ace-sub000/internal/db"
	"github.com/diazhh/erp-ace-sub000/internal/domain/apperr"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

func (s *Store) Transact(ctx context.Context, fn func(tx TxAPI) error) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	if err := fn(&txStore{tx: tx}); err != nil {
		_ = tx.Rollback(ctx)
		if db.IsSerializationFailure(err) {
			return apperr.Transient("write_conflict", "concurrent update on period, retry")
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		if db.IsSerializationFailure(err) {
			return apperr.Transient("write_conflict", "concurrent update on period, retry")
		}
		return err
	}
	return nil
}

func (s *Store) CreatePeriod(ctx context.Context, name string, startDate, endDate time.Time) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO payroll_periods (name, start_date, end_date, status)
    VALUES ($1,$2,$3,$4)
    RETURNING id
  `, name, startDate, endDate, PeriodStatusDraft).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

const periodColumns = "id, name, start_date, end_date, status, created_at"

func scanPeriod(row pgx.Row) (Period, error) {
	var period Period
	err := row.Scan(&period.ID, &period.Name, &period.StartDate, &period.EndDate, &period.Status, &period.CreatedAt)
	return period, err
}

func (s *Store) GetPeriod(ctx context.Context, periodID string) (Period, error) {
	period, err := scanPeriod(s.DB.QueryRow(ctx, "SELECT "+periodColumns+" FROM payroll_periods WHERE id = $1", periodID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Period{}, ErrPeriodNotFound
	}
	return period, err
}

func (s *Store) CountPeriods(ctx context.Context) (int, error) {
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM payroll_periods").Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) ListPeriods(ctx context.Context, limit, offset int) ([]Period, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+periodColumns+`
    FROM payroll_periods
    ORDER BY start_date DESC
    LIMIT $1 OFFSET $2
  `, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var periods []Period
	for rows.Next() {
		period, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		periods = append(periods, period)
	}
	return periods, nil
}

const entryColumns = `
    id, period_id, employee_id,
    base_salary, total_days, days_worked,
    overtime, bonus, commission, food_allowance, transport_allowance, other_income,
    islr_deduction, loan_deduction, other_deductions,
    proportional_salary, gross_pay, sso_deduction, rpe_deduction, fav_deduction,
    total_deductions, net_pay, warnings_json, payment_status, created_at, updated_at`

func scanEntry(row pgx.Row) (Entry, error) {
	var entry Entry
	var warningsJSON []byte
	err := row.Scan(
		&entry.ID, &entry.PeriodID, &entry.EmployeeID,
		&entry.BaseSalary, &entry.TotalDays, &entry.DaysWorked,
		&entry.Overtime, &entry.Bonus, &entry.Commission, &entry.FoodAllowance, &entry.TransportAllowance, &entry.OtherIncome,
		&entry.ISLRDeduction, &entry.LoanDeduction, &entry.OtherDeductions,
		&entry.ProportionalSalary, &entry.GrossPay, &entry.SSODeduction, &entry.RPEDeduction, &entry.FAVDeduction,
		&entry.TotalDeductions, &entry.NetPay, &warningsJSON, &entry.PaymentStatus, &entry.CreatedAt, &entry.UpdatedAt,
	)
	if err != nil {
		return Entry{}, err
	}
	if len(warningsJSON) > 0 {
		_ = json.Unmarshal(warningsJSON, &entry.Warnings)
	}
	return entry, nil
}

func (s *Store) GetEntry(ctx context.Context, entryID string) (Entry, error) {
	entry, err := scanEntry(s.DB.QueryRow(ctx, "SELECT"+entryColumns+" FROM payroll_entries WHERE id = $1", entryID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrEntryNotFound
	}
	return entry, err
}

func (s *Store) ListEntries(ctx context.Context, periodID string) ([]Entry, error) {
	rows, err := s.DB.Query(ctx, "SELECT"+entryColumns+" FROM payroll_entries WHERE period_id = $1 ORDER BY created_at", periodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEntries(rows)
}

func collectEntries(rows pgx.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *Store) PeriodTotals(ctx context.Context, periodID string) (decimal.Decimal, decimal.Decimal, decimal.Decimal, int, error) {
	var gross, deductions, net decimal.Decimal
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COALESCE(SUM(gross_pay),0), COALESCE(SUM(total_deductions),0), COALESCE(SUM(net_pay),0), COUNT(1)
    FROM payroll_entries
    WHERE period_id = $1
  `, periodID).Scan(&gross, &deductions, &net, &count)
	if err != nil {
		return decimal.Zero, decimal.Zero, decimal.Zero, 0, err
	}
	return gross, deductions, net, count, nil
}

type txStore struct {
	tx pgx.Tx
}

func (t *txStore) PeriodForUpdate(ctx context.Context, periodID string) (Period, error) {
	period, err := scanPeriod(t.tx.QueryRow(ctx, "SELECT "+periodColumns+" FROM payroll_periods WHERE id = $1 FOR UPDATE", periodID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Period{}, ErrPeriodNotFound
	}
	return period, err
}

func (t *txStore) UpdatePeriodStatus(ctx context.Context, periodID, status string) error {
	_, err := t.tx.Exec(ctx, "UPDATE payroll_periods SET status = $1 WHERE id = $2", status, periodID)
	return err
}

func (t *txStore) SetEntriesPaymentStatus(ctx context.Context, periodID, from, to string) error {
	_, err := t.tx.Exec(ctx, `
    UPDATE payroll_entries SET payment_status = $1, updated_at = now()
    WHERE period_id = $2 AND payment_status = $3
  `, to, periodID, from)
	return err
}

func (t *txStore) EntryForUpdate(ctx context.Context, entryID string) (Entry, error) {
	entry, err := scanEntry(t.tx.QueryRow(ctx, "SELECT"+entryColumns+" FROM payroll_entries WHERE id = $1 FOR UPDATE", entryID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrEntryNotFound
	}
	return entry, err
}

func (t *txStore) InsertEntry(ctx context.Context, entry Entry) (string, error) {
	warningsJSON, err := json.Marshal(entry.Warnings)
	if err != nil {
		warningsJSON = []byte("[]")
	}
	var id string
	err = t.tx.QueryRow(ctx, `
    INSERT INTO payroll_entries (
      period_id, employee_id,
      base_salary, total_days, days_worked,
      overtime, bonus, commission, food_allowance, transport_allowance, other_income,
      islr_deduction, loan_deduction, other_deductions,
      proportional_salary, gross_pay, sso_deduction, rpe_deduction, fav_deduction,
      total_deductions, net_pay, warnings_json, payment_status
    )
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)
    RETURNING id
  `,
		entry.PeriodID, entry.EmployeeID,
		entry.BaseSalary, entry.TotalDays, entry.DaysWorked,
		entry.Overtime, entry.Bonus, entry.Commission, entry.FoodAllowance, entry.TransportAllowance, entry.OtherIncome,
		entry.ISLRDeduction, entry.LoanDeduction, entry.OtherDeductions,
		entry.ProportionalSalary, entry.GrossPay, entry.SSODeduction, entry.RPEDeduction, entry.FAVDeduction,
		entry.TotalDeductions, entry.NetPay, warningsJSON, entry.PaymentStatus,
	).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (t *txStore) UpdateEntry(ctx context.Context, entry Entry) error {
	warningsJSON, err := json.Marshal(entry.Warnings)
	if err != nil {
		warningsJSON = []byte("[]")
	}
	_, err = t.tx.Exec(ctx, `
    UPDATE payroll_entries SET
      base_salary = $1, total_days = $2, days_worked = $3,
      overtime = $4, bonus = $5, commission = $6, food_allowance = $7, transport_allowance = $8, other_income = $9,
      islr_deduction = $10, loan_deduction = $11, other_deductions = $12,
      proportional_salary = $13, gross_pay = $14, sso_deduction = $15, rpe_deduction = $16, fav_deduction = $17,
      total_deductions = $18, net_pay = $19, warnings_json = $20, payment_status = $21, updated_at = now()
    WHERE id = $22
  `,
		entry.BaseSalary, entry.TotalDays, entry.DaysWorked,
		entry.Overtime, entry.Bonus, entry.Commission, entry.FoodAllowance, entry.TransportAllowance, entry.OtherIncome,
		entry.ISLRDeduction, entry.LoanDeduction, entry.OtherDeductions,
		entry.ProportionalSalary, entry.GrossPay, entry.SSODeduction, entry.RPEDeduction, entry.FAVDeduction,
		entry.TotalDeductions, entry.NetPay, warningsJSON, entry.PaymentStatus, entry.ID,
	)
	return err
}

func (t *txStore) EntryExists(ctx context.Context, periodID, employeeID string) (bool, error) {
	var count int
	err := t.tx.QueryRow(ctx, "SELECT COUNT(1) FROM payroll_entries WHERE period_id = $1 AND employee_id = $2", periodID, employeeID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (t *txStore) ListEntries(ctx context.Context, periodID string) ([]Entry, error) {
	rows, err := t.tx.Query(ctx, "SELECT"+entryColumns+" FROM payroll_entries WHERE period_id = $1 ORDER BY created_at", periodID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEntries(rows)
}
