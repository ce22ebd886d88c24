package payroll

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// StoreAPI is the read side plus the transaction entry point. Every write
// that spans rows or re-checks period state goes through Transact.
type StoreAPI interface {
	Transact(ctx context.Context, fn func(tx TxAPI) error) error

	CreatePeriod(ctx context.Context, name string, startDate, endDate time.Time) (string, error)
	GetPeriod(ctx context.Context, periodID string) (Period, error)
	CountPeriods(ctx context.Context) (int, error)
	ListPeriods(ctx context.Context, limit, offset int) ([]Period, error)

	GetEntry(ctx context.Context, entryID string) (Entry, error)
	ListEntries(ctx context.Context, periodID string) ([]Entry, error)
	PeriodTotals(ctx context.Context, periodID string) (gross, deductions, net decimal.Decimal, count int, err error)
}

type TxAPI interface {
	PeriodForUpdate(ctx context.Context, periodID string) (Period, error)
	UpdatePeriodStatus(ctx context.Context, periodID, status string) error
	SetEntriesPaymentStatus(ctx context.Context, periodID, from, to string) error

	EntryForUpdate(ctx context.Context, entryID string) (Entry, error)
	InsertEntry(ctx context.Context, entry Entry) (string, error)
	UpdateEntry(ctx context.Context, entry Entry) error
	EntryExists(ctx context.Context, periodID, employeeID string) (bool, error)
	ListEntries(ctx context.Context, periodID string) ([]Entry, error)
}
