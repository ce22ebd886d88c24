package pettycash

import "context"

// StoreAPI is the petty cash persistence boundary. Every balance-mutating
// operation goes through Transact, which holds a row lock on the fund for
// the whole read-modify-write.
type StoreAPI interface {
	Transact(ctx context.Context, fn func(tx TxAPI) error) error

	GetFund(ctx context.Context, fundID string) (Fund, error)
	ListFunds(ctx context.Context, status string, limit, offset int) ([]Fund, int, error)
	GetEntry(ctx context.Context, entryID string) (Entry, error)
	ListEntries(ctx context.Context, fundID, status string, limit, offset int) ([]Entry, int, error)
}

// TxAPI is the transaction-scoped view of the store.
type TxAPI interface {
	FundForUpdate(ctx context.Context, fundID string) (Fund, error)
	InsertFund(ctx context.Context, fund Fund) (string, error)
	UpdateFund(ctx context.Context, fund Fund) error
	EntryForUpdate(ctx context.Context, entryID string) (Entry, error)
	InsertEntry(ctx context.Context, entry Entry) (string, error)
	UpdateEntry(ctx context.Context, entry Entry) error
}
