package loans

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/diazhh/erp-ace-sub000/internal/db"
	"github.com/diazhh/erp-ace-sub000/internal/domain/apperr"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{DB: pool}
}

func (s *Store) Transact(ctx context.Context, fn func(tx TxAPI) error) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	if err := fn(&txStore{tx: tx}); err != nil {
		_ = tx.Rollback(ctx)
		if db.IsSerializationFailure(err) {
			return apperr.Transient("write_conflict", "concurrent update on loan, retry")
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		if db.IsSerializationFailure(err) {
			return apperr.Transient("write_conflict", "concurrent update on loan, retry")
		}
		return err
	}
	return nil
}

const loanColumns = `
    id, code, employee_id, amount, total_installments, installment_amount,
    paid_installments, remaining_amount, status, COALESCE(reason, ''),
    start_date, created_at, updated_at`

func scanLoan(row pgx.Row) (Loan, error) {
	var loan Loan
	err := row.Scan(
		&loan.ID, &loan.Code, &loan.EmployeeID, &loan.Amount, &loan.TotalInstallments, &loan.InstallmentAmount,
		&loan.PaidInstallments, &loan.RemainingAmount, &loan.Status, &loan.Reason,
		&loan.StartDate, &loan.CreatedAt, &loan.UpdatedAt,
	)
	return loan, err
}

func (s *Store) GetLoan(ctx context.Context, loanID string) (Loan, error) {
	loan, err := scanLoan(s.DB.QueryRow(ctx, "SELECT"+loanColumns+" FROM employee_loans WHERE id = $1", loanID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Loan{}, ErrLoanNotFound
	}
	return loan, err
}

func (s *Store) ListLoans(ctx context.Context, employeeID string, limit, offset int) ([]Loan, int, error) {
	query := "SELECT" + loanColumns + " FROM employee_loans"
	countQuery := "SELECT COUNT(1) FROM employee_loans"
	var args []any
	if employeeID != "" {
		query += " WHERE employee_id = $1"
		countQuery += " WHERE employee_id = $1"
		args = append(args, employeeID)
	}

	var total int
	if err := s.DB.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += " ORDER BY created_at DESC"
	limitPos := len(args) + 1
	query += " LIMIT $" + itoa(limitPos) + " OFFSET $" + itoa(limitPos+1)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var loans []Loan
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, 0, err
		}
		loans = append(loans, loan)
	}
	return loans, total, nil
}

func (s *Store) ListPayments(ctx context.Context, loanID string) ([]Payment, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, loan_id, COALESCE(payroll_entry_id::text, ''), installment_number, amount, payment_date, method, created_at
    FROM loan_payments
    WHERE loan_id = $1
    ORDER BY installment_number
  `, loanID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []Payment
	for rows.Next() {
		var payment Payment
		if err := rows.Scan(&payment.ID, &payment.LoanID, &payment.PayrollEntryID, &payment.InstallmentNumber, &payment.Amount, &payment.PaymentDate, &payment.Method, &payment.CreatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}
	return payments, nil
}

type txStore struct {
	tx pgx.Tx
}

func (t *txStore) LoanForUpdate(ctx context.Context, loanID string) (Loan, error) {
	loan, err := scanLoan(t.tx.QueryRow(ctx, "SELECT"+loanColumns+" FROM employee_loans WHERE id = $1 FOR UPDATE", loanID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Loan{}, ErrLoanNotFound
	}
	return loan, err
}

func (t *txStore) InsertLoan(ctx context.Context, loan Loan) (string, error) {
	var id string
	err := t.tx.QueryRow(ctx, `
    INSERT INTO employee_loans (
      code, employee_id, amount, total_installments, installment_amount,
      paid_installments, remaining_amount, status, reason, start_date
    )
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
    RETURNING id
  `, loan.Code, loan.EmployeeID, loan.Amount, loan.TotalInstallments, loan.InstallmentAmount,
		loan.PaidInstallments, loan.RemainingAmount, loan.Status, nullIfEmpty(loan.Reason), loan.StartDate,
	).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (t *txStore) UpdateLoan(ctx context.Context, loan Loan) error {
	_, err := t.tx.Exec(ctx, `
    UPDATE employee_loans SET
      installment_amount = $1, paid_installments = $2, remaining_amount = $3, status = $4, updated_at = now()
    WHERE id = $5
  `, loan.InstallmentAmount, loan.PaidInstallments, loan.RemainingAmount, loan.Status, loan.ID)
	return err
}

func (t *txStore) InsertPayment(ctx context.Context, payment Payment) (string, error) {
	var id string
	err := t.tx.QueryRow(ctx, `
    INSERT INTO loan_payments (loan_id, payroll_entry_id, installment_number, amount, payment_date, method)
    VALUES ($1,$2,$3,$4,$5,$6)
    RETURNING id
  `, payment.LoanID, nullIfEmpty(payment.PayrollEntryID), payment.InstallmentNumber, payment.Amount, payment.PaymentDate, payment.Method).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (t *txStore) NextCodeSequence(ctx context.Context) (int64, error) {
	var sequence int64
	if err := t.tx.QueryRow(ctx, "SELECT nextval('loan_code_seq')").Scan(&sequence); err != nil {
		return 0, err
	}
	return sequence, nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func itoa(value int) string {
	return strconv.Itoa(value)
}
