package loans

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diazhh/erp-ace-sub000/internal/domain/apperr"
)

// memStore is an in-memory StoreAPI for service tests.
type memStore struct {
	loans         map[string]Loan
	payments      []Payment
	sequence      int64
	nextID        int
	transientOnce bool
	transacts     int
}

func newMemStore() *memStore {
	return &memStore{loans: map[string]Loan{}}
}

func (m *memStore) Transact(_ context.Context, fn func(tx TxAPI) error) error {
	m.transacts++
	if m.transientOnce {
		m.transientOnce = false
		return apperr.Transient("write_conflict", "concurrent update on loan, retry")
	}
	return fn(m)
}

func (m *memStore) GetLoan(_ context.Context, loanID string) (Loan, error) {
	loan, ok := m.loans[loanID]
	if !ok {
		return Loan{}, ErrLoanNotFound
	}
	return loan, nil
}

func (m *memStore) ListLoans(_ context.Context, employeeID string, _, _ int) ([]Loan, int, error) {
	var out []Loan
	for _, loan := range m.loans {
		if employeeID == "" || loan.EmployeeID == employeeID {
			out = append(out, loan)
		}
	}
	return out, len(out), nil
}

func (m *memStore) ListPayments(_ context.Context, loanID string) ([]Payment, error) {
	var out []Payment
	for _, payment := range m.payments {
		if payment.LoanID == loanID {
			out = append(out, payment)
		}
	}
	return out, nil
}

func (m *memStore) LoanForUpdate(ctx context.Context, loanID string) (Loan, error) {
	return m.GetLoan(ctx, loanID)
}

func (m *memStore) InsertLoan(_ context.Context, loan Loan) (string, error) {
	m.nextID++
	loan.ID = fmt.Sprintf("loan-%d", m.nextID)
	m.loans[loan.ID] = loan
	return loan.ID, nil
}

func (m *memStore) UpdateLoan(_ context.Context, loan Loan) error {
	if _, ok := m.loans[loan.ID]; !ok {
		return ErrLoanNotFound
	}
	m.loans[loan.ID] = loan
	return nil
}

func (m *memStore) InsertPayment(_ context.Context, payment Payment) (string, error) {
	m.nextID++
	payment.ID = fmt.Sprintf("payment-%d", m.nextID)
	m.payments = append(m.payments, payment)
	return payment.ID, nil
}

func (m *memStore) NextCodeSequence(_ context.Context) (int64, error) {
	m.sequence++
	return m.sequence, nil
}

func TestOriginateAssignsSequentialCodes(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ctx := context.Background()

	first, err := svc.Originate(ctx, "emp-1", dec("1200"), 12, time.Now(), "advance")
	require.NoError(t, err)
	second, err := svc.Originate(ctx, "emp-2", dec("600"), 6, time.Now(), "")
	require.NoError(t, err)

	assert.Equal(t, "LOAN-00001", first.Code)
	assert.Equal(t, "LOAN-00002", second.Code)
	assert.True(t, first.InstallmentAmount.Equal(dec("100")))
	assert.True(t, first.RemainingAmount.Equal(dec("1200")))
	assert.Equal(t, StatusActive, first.Status)
}

func TestApplyPaymentFullAmortization(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ctx := context.Background()

	loan, err := svc.Originate(ctx, "emp-1", dec("1200"), 12, time.Now(), "")
	require.NoError(t, err)

	for n := 1; n <= 12; n++ {
		updated, payment, err := svc.ApplyPayment(ctx, loan.ID, PaymentRequest{Amount: dec("100")})
		require.NoError(t, err, "payment %d", n)
		assert.Equal(t, n, payment.InstallmentNumber)
		expected := dec("1200").Sub(dec("100").Mul(dec(fmt.Sprintf("%d", n))))
		assert.True(t, updated.RemainingAmount.Equal(expected), "after payment %d: remaining %v want %v", n, updated.RemainingAmount, expected)
	}

	final, err := svc.GetLoan(ctx, loan.ID)
	require.NoError(t, err)
	assert.True(t, final.RemainingAmount.IsZero())
	assert.Equal(t, StatusPaid, final.Status)

	// A 13th payment must be refused, not floored.
	_, _, err = svc.ApplyPayment(ctx, loan.ID, PaymentRequest{Amount: dec("100")})
	require.Error(t, err)
	assert.Equal(t, apperr.KindStateConflict, apperr.KindOf(err))
	assert.False(t, final.RemainingAmount.IsNegative())
}

func TestApplyPaymentRejectsOutOfSequenceInstallment(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ctx := context.Background()

	loan, err := svc.Originate(ctx, "emp-1", dec("1200"), 12, time.Now(), "")
	require.NoError(t, err)

	_, _, err = svc.ApplyPayment(ctx, loan.ID, PaymentRequest{Amount: dec("100"), InstallmentNumber: 3})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestApplyPaymentRejectsNonActiveLoan(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ctx := context.Background()

	loan, err := svc.Originate(ctx, "emp-1", dec("1200"), 12, time.Now(), "")
	require.NoError(t, err)
	_, err = svc.Pause(ctx, loan.ID)
	require.NoError(t, err)

	_, _, err = svc.ApplyPayment(ctx, loan.ID, PaymentRequest{Amount: dec("100")})
	require.Error(t, err)
	assert.Equal(t, apperr.KindStateConflict, apperr.KindOf(err))
}

func TestCancelIsSoftAndTerminal(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ctx := context.Background()

	loan, err := svc.Originate(ctx, "emp-1", dec("1200"), 12, time.Now(), "")
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)

	// Still present, never deleted.
	kept, err := svc.GetLoan(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, kept.Status)

	_, err = svc.Resume(ctx, loan.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindStateConflict, apperr.KindOf(err))
}

func TestApplyPaymentRetriesOnceOnTransientConflict(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ctx := context.Background()

	loan, err := svc.Originate(ctx, "emp-1", dec("1200"), 12, time.Now(), "")
	require.NoError(t, err)

	store.transientOnce = true
	before := store.transacts
	updated, _, err := svc.ApplyPayment(ctx, loan.ID, PaymentRequest{Amount: dec("100")})
	require.NoError(t, err)
	assert.Equal(t, before+2, store.transacts)
	assert.Equal(t, 1, updated.PaidInstallments)
}
