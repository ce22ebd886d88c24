package pettycash

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diazhh/erp-ace-sub000/internal/domain/apperr"
)

type memStore struct {
	funds   map[string]Fund
	entries map[string]Entry
	nextID  int
}

func newMemStore() *memStore {
	return &memStore{funds: map[string]Fund{}, entries: map[string]Entry{}}
}

func (m *memStore) Transact(_ context.Context, fn func(tx TxAPI) error) error {
	return fn(m)
}

func (m *memStore) GetFund(_ context.Context, fundID string) (Fund, error) {
	fund, ok := m.funds[fundID]
	if !ok {
		return Fund{}, ErrFundNotFound
	}
	return fund, nil
}

func (m *memStore) ListFunds(_ context.Context, status string, _, _ int) ([]Fund, int, error) {
	var out []Fund
	for _, fund := range m.funds {
		if status == "" || fund.Status == status {
			out = append(out, fund)
		}
	}
	return out, len(out), nil
}

func (m *memStore) GetEntry(_ context.Context, entryID string) (Entry, error) {
	entry, ok := m.entries[entryID]
	if !ok {
		return Entry{}, ErrEntryNotFound
	}
	return entry, nil
}

func (m *memStore) ListEntries(_ context.Context, fundID, status string, _, _ int) ([]Entry, int, error) {
	var out []Entry
	for _, entry := range m.entries {
		if entry.FundID == fundID && (status == "" || entry.Status == status) {
			out = append(out, entry)
		}
	}
	return out, len(out), nil
}

func (m *memStore) FundForUpdate(ctx context.Context, fundID string) (Fund, error) {
	return m.GetFund(ctx, fundID)
}

func (m *memStore) InsertFund(_ context.Context, fund Fund) (string, error) {
	m.nextID++
	fund.ID = fmt.Sprintf("fund-%d", m.nextID)
	m.funds[fund.ID] = fund
	return fund.ID, nil
}

func (m *memStore) UpdateFund(_ context.Context, fund Fund) error {
	if _, ok := m.funds[fund.ID]; !ok {
		return ErrFundNotFound
	}
	m.funds[fund.ID] = fund
	return nil
}

func (m *memStore) EntryForUpdate(ctx context.Context, entryID string) (Entry, error) {
	return m.GetEntry(ctx, entryID)
}

func (m *memStore) InsertEntry(_ context.Context, entry Entry) (string, error) {
	m.nextID++
	entry.ID = fmt.Sprintf("entry-%d", m.nextID)
	m.entries[entry.ID] = entry
	return entry.ID, nil
}

func (m *memStore) UpdateEntry(_ context.Context, entry Entry) error {
	if _, ok := m.entries[entry.ID]; !ok {
		return ErrEntryNotFound
	}
	m.entries[entry.ID] = entry
	return nil
}

func newFund(t *testing.T, svc *Service, req CreateFundRequest) Fund {
	t.Helper()
	fund, err := svc.CreateFund(context.Background(), req)
	require.NoError(t, err)
	return fund
}

func standardFundRequest() CreateFundRequest {
	return CreateFundRequest{
		Name:              "caja chica principal",
		InitialAmount:     dec("500"),
		MinimumBalance:    dec("100"),
		MaximumExpense:    decimal.NewNullDecimal(dec("200")),
		RequiresApproval:  true,
		ApprovalThreshold: decimal.NewNullDecimal(dec("100")),
		CreatedBy:         "user-1",
	}
}

func TestCreateFundWritesOpeningEntry(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ctx := context.Background()

	fund := newFund(t, svc, standardFundRequest())
	assert.Equal(t, FundStatusActive, fund.Status)
	assert.True(t, fund.CurrentBalance.Equal(dec("500")))

	entries, total, err := svc.ListEntries(ctx, fund.ID, "", 50, 0)
	require.NoError(t, err)
	require.Equal(t, 1, total)
	opening := entries[0]
	assert.Equal(t, EntryTypeInitial, opening.EntryType)
	assert.Equal(t, StatusApproved, opening.Status)
	assert.True(t, opening.Amount.Equal(dec("500")))
	require.True(t, opening.BalanceAfter.Valid)
	assert.True(t, opening.BalanceAfter.Decimal.Equal(dec("500")))
}

func TestExpenseAboveThresholdLandsPendingThenApprovalMovesBalance(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ctx := context.Background()

	fund := newFund(t, svc, standardFundRequest())

	entry, err := svc.CreateEntry(ctx, fund.ID, EntryRequest{EntryType: EntryTypeExpense, Amount: dec("150"), CreatedBy: "user-2"})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, entry.Status)

	// Pending entries leave the balance untouched.
	current, err := svc.GetFund(ctx, fund.ID)
	require.NoError(t, err)
	assert.True(t, current.CurrentBalance.Equal(dec("500")))

	approved, err := svc.ApproveEntry(ctx, entry.ID, "supervisor-1")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, approved.Status)
	assert.Equal(t, "supervisor-1", approved.ApprovedBy)
	require.NotNil(t, approved.ApprovedAt)
	require.True(t, approved.BalanceAfter.Valid)
	assert.True(t, approved.BalanceAfter.Decimal.Equal(dec("350")))

	current, err = svc.GetFund(ctx, fund.ID)
	require.NoError(t, err)
	assert.True(t, current.CurrentBalance.Equal(dec("350")))
}

func TestExpenseBelowThresholdApprovesImmediately(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ctx := context.Background()

	fund := newFund(t, svc, standardFundRequest())

	entry, err := svc.CreateEntry(ctx, fund.ID, EntryRequest{EntryType: EntryTypeExpense, Amount: dec("99.99"), CreatedBy: "user-2"})
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, entry.Status)
	require.True(t, entry.BalanceAfter.Valid)
	assert.True(t, entry.BalanceAfter.Decimal.Equal(dec("400.01")))

	current, err := svc.GetFund(ctx, fund.ID)
	require.NoError(t, err)
	assert.True(t, current.CurrentBalance.Equal(dec("400.01")))
}

func TestReapprovingAnApprovedEntryFailsWithoutBalanceChange(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ctx := context.Background()

	fund := newFund(t, svc, standardFundRequest())
	entry, err := svc.CreateEntry(ctx, fund.ID, EntryRequest{EntryType: EntryTypeExpense, Amount: dec("150")})
	require.NoError(t, err)
	_, err = svc.ApproveEntry(ctx, entry.ID, "supervisor-1")
	require.NoError(t, err)

	_, err = svc.ApproveEntry(ctx, entry.ID, "supervisor-2")
	require.Error(t, err)
	assert.Equal(t, apperr.KindStateConflict, apperr.KindOf(err))

	current, err := svc.GetFund(ctx, fund.ID)
	require.NoError(t, err)
	assert.True(t, current.CurrentBalance.Equal(dec("350")), "re-approval must not move the balance")
}

func TestCancellingApprovedExpenseRestoresBalance(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ctx := context.Background()

	fund := newFund(t, svc, standardFundRequest())
	entry, err := svc.CreateEntry(ctx, fund.ID, EntryRequest{EntryType: EntryTypeExpense, Amount: dec("150")})
	require.NoError(t, err)
	_, err = svc.ApproveEntry(ctx, entry.ID, "supervisor-1")
	require.NoError(t, err)

	cancelled, err := svc.CancelEntry(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)

	current, err := svc.GetFund(ctx, fund.ID)
	require.NoError(t, err)
	assert.True(t, current.CurrentBalance.Equal(dec("500")), "cancellation must restore the pre-approval balance")
}

func TestCancellingPendingEntryLeavesBalanceAlone(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ctx := context.Background()

	fund := newFund(t, svc, standardFundRequest())
	entry, err := svc.CreateEntry(ctx, fund.ID, EntryRequest{EntryType: EntryTypeExpense, Amount: dec("150")})
	require.NoError(t, err)

	_, err = svc.CancelEntry(ctx, entry.ID)
	require.NoError(t, err)

	current, err := svc.GetFund(ctx, fund.ID)
	require.NoError(t, err)
	assert.True(t, current.CurrentBalance.Equal(dec("500")))
}

func TestOpeningEntryCannotBeCancelled(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ctx := context.Background()

	fund := newFund(t, svc, standardFundRequest())
	entries, _, err := svc.ListEntries(ctx, fund.ID, "", 50, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	_, err = svc.CancelEntry(ctx, entries[0].ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindStateConflict, apperr.KindOf(err))
}

func TestExpenseEqualToBalanceAllowedOneCentOverRejected(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ctx := context.Background()

	req := standardFundRequest()
	req.MaximumExpense = decimal.NullDecimal{}
	req.RequiresApproval = false
	fund := newFund(t, svc, req)

	_, err := svc.CreateEntry(ctx, fund.ID, EntryRequest{EntryType: EntryTypeExpense, Amount: dec("500.01")})
	require.Error(t, err)
	assert.Equal(t, apperr.KindBusinessRule, apperr.KindOf(err))

	entry, err := svc.CreateEntry(ctx, fund.ID, EntryRequest{EntryType: EntryTypeExpense, Amount: dec("500")})
	require.NoError(t, err)
	require.True(t, entry.BalanceAfter.Valid)
	assert.True(t, entry.BalanceAfter.Decimal.IsZero())

	current, err := svc.GetFund(ctx, fund.ID)
	require.NoError(t, err)
	assert.True(t, current.CurrentBalance.IsZero())
}

func TestApprovalRevalidatesAgainstCurrentBalance(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ctx := context.Background()

	req := standardFundRequest()
	req.MaximumExpense = decimal.NullDecimal{}
	fund := newFund(t, svc, req)

	// Two pending expenses that individually fit but jointly overdraw.
	first, err := svc.CreateEntry(ctx, fund.ID, EntryRequest{EntryType: EntryTypeExpense, Amount: dec("400")})
	require.NoError(t, err)
	second, err := svc.CreateEntry(ctx, fund.ID, EntryRequest{EntryType: EntryTypeExpense, Amount: dec("400")})
	require.NoError(t, err)

	_, err = svc.ApproveEntry(ctx, first.ID, "supervisor-1")
	require.NoError(t, err)

	_, err = svc.ApproveEntry(ctx, second.ID, "supervisor-1")
	require.Error(t, err)
	assert.Equal(t, apperr.KindBusinessRule, apperr.KindOf(err))

	current, err := svc.GetFund(ctx, fund.ID)
	require.NoError(t, err)
	assert.True(t, current.CurrentBalance.Equal(dec("100")))
}

func TestBalanceEqualsInitialPlusSignedApprovedAmounts(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ctx := context.Background()

	req := standardFundRequest()
	req.MaximumExpense = decimal.NullDecimal{}
	req.RequiresApproval = false
	fund := newFund(t, svc, req)

	moves := []EntryRequest{
		{EntryType: EntryTypeExpense, Amount: dec("120.50")},
		{EntryType: EntryTypeReplenishment, Amount: dec("300")},
		{EntryType: EntryTypeAdjustment, Amount: dec("-19.75")},
		{EntryType: EntryTypeExpense, Amount: dec("45.25")},
	}
	for _, move := range moves {
		_, err := svc.CreateEntry(ctx, fund.ID, move)
		require.NoError(t, err)
	}

	// 500 - 120.50 + 300 - 19.75 - 45.25 = 614.50
	current, err := svc.GetFund(ctx, fund.ID)
	require.NoError(t, err)
	assert.True(t, current.CurrentBalance.Equal(dec("614.50")), "got %v", current.CurrentBalance)
}

func TestRejectEntryRequiresReasonAndLeavesBalance(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ctx := context.Background()

	fund := newFund(t, svc, standardFundRequest())
	entry, err := svc.CreateEntry(ctx, fund.ID, EntryRequest{EntryType: EntryTypeExpense, Amount: dec("150")})
	require.NoError(t, err)

	_, err = svc.RejectEntry(ctx, entry.ID, "supervisor-1", "")
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	rejected, err := svc.RejectEntry(ctx, entry.ID, "supervisor-1", "no receipt")
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, rejected.Status)
	assert.Equal(t, "no receipt", rejected.RejectionReason)

	current, err := svc.GetFund(ctx, fund.ID)
	require.NoError(t, err)
	assert.True(t, current.CurrentBalance.Equal(dec("500")))

	_, err = svc.ApproveEntry(ctx, entry.ID, "supervisor-2")
	require.Error(t, err)
	assert.Equal(t, apperr.KindStateConflict, apperr.KindOf(err))
}

func TestPayEntryStampsDisbursement(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ctx := context.Background()

	fund := newFund(t, svc, standardFundRequest())
	entry, err := svc.CreateEntry(ctx, fund.ID, EntryRequest{EntryType: EntryTypeExpense, Amount: dec("150")})
	require.NoError(t, err)
	_, err = svc.ApproveEntry(ctx, entry.ID, "supervisor-1")
	require.NoError(t, err)

	paid, err := svc.PayEntry(ctx, entry.ID, "cashier-1", "REC-0042")
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, paid.Status)
	assert.Equal(t, "cashier-1", paid.PaidBy)
	assert.Equal(t, "REC-0042", paid.PaymentReference)
	require.NotNil(t, paid.PaidAt)

	// Payment moves no money; that happened at approval.
	current, err := svc.GetFund(ctx, fund.ID)
	require.NoError(t, err)
	assert.True(t, current.CurrentBalance.Equal(dec("350")))

	_, err = svc.CancelEntry(ctx, entry.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindStateConflict, apperr.KindOf(err))
}

func TestCloseFundRequiresSettledBalance(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ctx := context.Background()

	req := standardFundRequest()
	req.MaximumExpense = decimal.NullDecimal{}
	req.RequiresApproval = false
	fund := newFund(t, svc, req)

	_, err := svc.CloseFund(ctx, fund.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindBusinessRule, apperr.KindOf(err))

	_, err = svc.CreateEntry(ctx, fund.ID, EntryRequest{EntryType: EntryTypeExpense, Amount: dec("500")})
	require.NoError(t, err)

	closed, err := svc.CloseFund(ctx, fund.ID)
	require.NoError(t, err)
	assert.Equal(t, FundStatusClosed, closed.Status)

	// Closed funds accept nothing further.
	_, err = svc.CreateEntry(ctx, fund.ID, EntryRequest{EntryType: EntryTypeReplenishment, Amount: dec("100")})
	require.Error(t, err)
	_, err = svc.UpdateFundStatus(ctx, fund.ID, FundStatusActive)
	require.Error(t, err)
	assert.Equal(t, apperr.KindStateConflict, apperr.KindOf(err))
}

func TestFundStatusTransitions(t *testing.T) {
	store := newMemStore()
	svc := NewService(store)
	ctx := context.Background()

	fund := newFund(t, svc, standardFundRequest())

	suspended, err := svc.UpdateFundStatus(ctx, fund.ID, FundStatusSuspended)
	require.NoError(t, err)
	assert.Equal(t, FundStatusSuspended, suspended.Status)

	_, err = svc.CreateEntry(ctx, fund.ID, EntryRequest{EntryType: EntryTypeExpense, Amount: dec("10")})
	require.Error(t, err)
	assert.Equal(t, apperr.KindBusinessRule, apperr.KindOf(err))

	_, err = svc.UpdateFundStatus(ctx, fund.ID, FundStatusClosed)
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	reactivated, err := svc.UpdateFundStatus(ctx, fund.ID, FundStatusActive)
	require.NoError(t, err)
	assert.Equal(t, FundStatusActive, reactivated.Status)
}
