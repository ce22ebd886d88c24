package pettycash

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
			return apperr.Transient("write_conflict", "concurrent update on fund, retry")
		}
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		if db.IsSerializationFailure(err) {
			return apperr.Transient("write_conflict", "concurrent update on fund, retry")
		}
		return err
	}
	return nil
}

const fundColumns = `
    id, name, currency, initial_amount, current_balance, minimum_balance,
    maximum_expense, requires_approval, approval_threshold, status,
    COALESCE(custodian_id::text, ''), created_at, updated_at`

func scanFund(row pgx.Row) (Fund, error) {
	var fund Fund
	err := row.Scan(
		&fund.ID, &fund.Name, &fund.Currency, &fund.InitialAmount, &fund.CurrentBalance, &fund.MinimumBalance,
		&fund.MaximumExpense, &fund.RequiresApproval, &fund.ApprovalThreshold, &fund.Status,
		&fund.CustodianID, &fund.CreatedAt, &fund.UpdatedAt,
	)
	return fund, err
}

const entryColumns = `
    id, fund_id, entry_type, amount, COALESCE(description, ''), status, balance_after,
    COALESCE(approved_by::text, ''), approved_at, COALESCE(rejection_reason, ''),
    COALESCE(paid_by::text, ''), paid_at, COALESCE(payment_reference, ''),
    COALESCE(created_by::text, ''), created_at, updated_at`

func scanEntry(row pgx.Row) (Entry, error) {
	var entry Entry
	err := row.Scan(
		&entry.ID, &entry.FundID, &entry.EntryType, &entry.Amount, &entry.Description, &entry.Status, &entry.BalanceAfter,
		&entry.ApprovedBy, &entry.ApprovedAt, &entry.RejectionReason,
		&entry.PaidBy, &entry.PaidAt, &entry.PaymentReference,
		&entry.CreatedBy, &entry.CreatedAt, &entry.UpdatedAt,
	)
	return entry, err
}

func (s *Store) GetFund(ctx context.Context, fundID string) (Fund, error) {
	fund, err := scanFund(s.DB.QueryRow(ctx, "SELECT"+fundColumns+" FROM petty_cash_funds WHERE id = $1", fundID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Fund{}, ErrFundNotFound
	}
	return fund, err
}

func (s *Store) ListFunds(ctx context.Context, status string, limit, offset int) ([]Fund, int, error) {
	query := "SELECT" + fundColumns + " FROM petty_cash_funds"
	countQuery := "SELECT COUNT(1) FROM petty_cash_funds"
	var args []any
	if status != "" {
		query += " WHERE status = $1"
		countQuery += " WHERE status = $1"
		args = append(args, status)
	}

	var total int
	if err := s.DB.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += " ORDER BY created_at DESC"
	pos := len(args) + 1
	query += " LIMIT $" + strconv.Itoa(pos) + " OFFSET $" + strconv.Itoa(pos+1)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var funds []Fund
	for rows.Next() {
		fund, err := scanFund(rows)
		if err != nil {
			return nil, 0, err
		}
		funds = append(funds, fund)
	}
	return funds, total, nil
}

func (s *Store) GetEntry(ctx context.Context, entryID string) (Entry, error) {
	entry, err := scanEntry(s.DB.QueryRow(ctx, "SELECT"+entryColumns+" FROM petty_cash_entries WHERE id = $1", entryID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrEntryNotFound
	}
	return entry, err
}

func (s *Store) ListEntries(ctx context.Context, fundID, status string, limit, offset int) ([]Entry, int, error) {
	query := "SELECT" + entryColumns + " FROM petty_cash_entries WHERE fund_id = $1"
	countQuery := "SELECT COUNT(1) FROM petty_cash_entries WHERE fund_id = $1"
	args := []any{fundID}
	if status != "" {
		query += " AND status = $2"
		countQuery += " AND status = $2"
		args = append(args, status)
	}

	var total int
	if err := s.DB.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += " ORDER BY created_at DESC"
	pos := len(args) + 1
	query += " LIMIT $" + strconv.Itoa(pos) + " OFFSET $" + strconv.Itoa(pos+1)
	args = append(args, limit, offset)

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, entry)
	}
	return entries, total, nil
}

type txStore struct {
	tx pgx.Tx
}

func (t *txStore) FundForUpdate(ctx context.Context, fundID string) (Fund, error) {
	fund, err := scanFund(t.tx.QueryRow(ctx, "SELECT"+fundColumns+" FROM petty_cash_funds WHERE id = $1 FOR UPDATE", fundID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Fund{}, ErrFundNotFound
	}
	return fund, err
}

func (t *txStore) InsertFund(ctx context.Context, fund Fund) (string, error) {
	var id string
	err := t.tx.QueryRow(ctx, `
    INSERT INTO petty_cash_funds (
      name, currency, initial_amount, current_balance, minimum_balance,
      maximum_expense, requires_approval, approval_threshold, status, custodian_id
    )
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
    RETURNING id
  `, fund.Name, fund.Currency, fund.InitialAmount, fund.CurrentBalance, fund.MinimumBalance,
		fund.MaximumExpense, fund.RequiresApproval, fund.ApprovalThreshold, fund.Status, nullIfEmpty(fund.CustodianID),
	).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (t *txStore) UpdateFund(ctx context.Context, fund Fund) error {
	_, err := t.tx.Exec(ctx, `
    UPDATE petty_cash_funds SET
      current_balance = $1, minimum_balance = $2, maximum_expense = $3,
      requires_approval = $4, approval_threshold = $5, status = $6, updated_at = now()
    WHERE id = $7
  `, fund.CurrentBalance, fund.MinimumBalance, fund.MaximumExpense,
		fund.RequiresApproval, fund.ApprovalThreshold, fund.Status, fund.ID)
	return err
}

func (t *txStore) EntryForUpdate(ctx context.Context, entryID string) (Entry, error) {
	entry, err := scanEntry(t.tx.QueryRow(ctx, "SELECT"+entryColumns+" FROM petty_cash_entries WHERE id = $1 FOR UPDATE", entryID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Entry{}, ErrEntryNotFound
	}
	return entry, err
}

func (t *txStore) InsertEntry(ctx context.Context, entry Entry) (string, error) {
	var id string
	err := t.tx.QueryRow(ctx, `
    INSERT INTO petty_cash_entries (
      fund_id, entry_type, amount, description, status, balance_after,
      approved_by, approved_at, created_by
    )
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
    RETURNING id
  `, entry.FundID, entry.EntryType, entry.Amount, nullIfEmpty(entry.Description), entry.Status, entry.BalanceAfter,
		nullIfEmpty(entry.ApprovedBy), entry.ApprovedAt, nullIfEmpty(entry.CreatedBy),
	).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (t *txStore) UpdateEntry(ctx context.Context, entry Entry) error {
	_, err := t.tx.Exec(ctx, `
    UPDATE petty_cash_entries SET
      status = $1, balance_after = $2, approved_by = $3, approved_at = $4,
      rejection_reason = $5, paid_by = $6, paid_at = $7, payment_reference = $8,
      updated_at = now()
    WHERE id = $9
  `, entry.Status, entry.BalanceAfter, nullIfEmpty(entry.ApprovedBy), entry.ApprovedAt,
		nullIfEmpty(entry.RejectionReason), nullIfEmpty(entry.PaidBy), entry.PaidAt, nullIfEmpty(entry.PaymentReference),
		entry.ID)
	return err
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}
