package loans

import "context"

// StoreAPI is the loan aggregate's persistence boundary. Balance-mutating
// work goes through Transact, which serializes concurrent payments on the
// same loan via a row lock held for the whole read-modify-write.
type StoreAPI interface {
	Transact(ctx context.Context, fn func(tx TxAPI) error) error

	GetLoan(ctx context.Context, loanID string) (Loan, error)
	ListLoans(ctx context.Context, employeeID string, limit, offset int) ([]Loan, int, error)
	ListPayments(ctx context.Context, loanID string) ([]Payment, error)
}

// TxAPI is the transaction-scoped view of the store.
type TxAPI interface {
	LoanForUpdate(ctx context.Context, loanID string) (Loan, error)
	InsertLoan(ctx context.Context, loan Loan) (string, error)
	UpdateLoan(ctx context.Context, loan Loan) error
	InsertPayment(ctx context.Context, payment Payment) (string, error)
	NextCodeSequence(ctx context.Context) (int64, error)
}
