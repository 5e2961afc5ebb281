package ledger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/shared"
	_ "github.com/meridian-erp/meridian-erp/testing"
)

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

type mockRepository struct {
	accounts     map[uuid.UUID]*Account
	transactions map[uuid.UUID]*Transaction
	transfers    map[uuid.UUID]*TransferRecord

	// Error injection
	accountErr      error
	transactionsErr error
	transfersErr    error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		accounts:     make(map[uuid.UUID]*Account),
		transactions: make(map[uuid.UUID]*Transaction),
		transfers:    make(map[uuid.UUID]*TransferRecord),
	}
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, m)
}

func (m *mockRepository) GetAccount(_ context.Context, tenant shared.TenantContext, id uuid.UUID) (*Account, error) {
	if m.accountErr != nil {
		return nil, m.accountErr
	}
	acc, ok := m.accounts[id]
	if !ok || acc.CompanyID != tenant.CompanyID {
		return nil, ErrNotFound
	}
	copied := *acc
	return &copied, nil
}

func (m *mockRepository) ListAccounts(_ context.Context, tenant shared.TenantContext, activeOnly bool) ([]Account, error) {
	var out []Account
	for _, acc := range m.accounts {
		if acc.CompanyID != tenant.CompanyID {
			continue
		}
		if activeOnly && !acc.IsActive {
			continue
		}
		out = append(out, *acc)
	}
	return out, nil
}

func (m *mockRepository) ListTransactions(_ context.Context, tenant shared.TenantContext, accountID uuid.UUID, _ int) ([]Transaction, error) {
	if m.transactionsErr != nil {
		return nil, m.transactionsErr
	}
	var out []Transaction
	for _, tx := range m.transactions {
		if tx.AccountID == accountID {
			out = append(out, *tx)
		}
	}
	return out, nil
}

func (m *mockRepository) ListTransfers(_ context.Context, tenant shared.TenantContext, accountID uuid.UUID, _ int) ([]Transfer, error) {
	if m.transfersErr != nil {
		return nil, m.transfersErr
	}
	var out []Transfer
	for _, tr := range m.transfers {
		if tr.CompanyID != tenant.CompanyID {
			continue
		}
		switch accountID {
		case tr.ToAccountID:
			out = append(out, Transfer{
				ID: tr.ID, Amount: tr.Amount, TransferDate: tr.TransferDate,
				Direction: TransferIncoming, CounterpartyName: tr.FromAccountName,
				FromAccountID: tr.FromAccountID, ToAccountID: tr.ToAccountID,
				CreatedAt: tr.CreatedAt, UpdatedAt: tr.UpdatedAt,
			})
		case tr.FromAccountID:
			out = append(out, Transfer{
				ID: tr.ID, Amount: tr.Amount, TransferDate: tr.TransferDate,
				Direction: TransferOutgoing, CounterpartyName: tr.ToAccountName,
				FromAccountID: tr.FromAccountID, ToAccountID: tr.ToAccountID,
				CreatedAt: tr.CreatedAt, UpdatedAt: tr.UpdatedAt,
			})
		}
	}
	return out, nil
}

func (m *mockRepository) ListAllTransfers(_ context.Context, tenant shared.TenantContext, _ int) ([]TransferRecord, error) {
	var out []TransferRecord
	for _, tr := range m.transfers {
		if tr.CompanyID != tenant.CompanyID {
			continue
		}
		out = append(out, *tr)
	}
	return out, nil
}

func (m *mockRepository) InsertTransaction(_ context.Context, tenant shared.TenantContext, tx Transaction) error {
	acc, ok := m.accounts[tx.AccountID]
	if !ok || acc.CompanyID != tenant.CompanyID {
		return ErrNotFound
	}
	copied := tx
	m.transactions[tx.ID] = &copied
	return nil
}

func (m *mockRepository) GetTransaction(_ context.Context, _ shared.TenantContext, id uuid.UUID) (*Transaction, error) {
	tx, ok := m.transactions[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *tx
	return &copied, nil
}

func (m *mockRepository) DeleteTransaction(_ context.Context, _ shared.TenantContext, id uuid.UUID) error {
	if _, ok := m.transactions[id]; !ok {
		return ErrNotFound
	}
	delete(m.transactions, id)
	return nil
}

func (m *mockRepository) InsertTransfer(_ context.Context, _ shared.TenantContext, tr TransferRecord) error {
	copied := tr
	m.transfers[tr.ID] = &copied
	return nil
}

func (m *mockRepository) GetTransfer(_ context.Context, tenant shared.TenantContext, id uuid.UUID) (*TransferRecord, error) {
	tr, ok := m.transfers[id]
	if !ok || tr.CompanyID != tenant.CompanyID {
		return nil, ErrNotFound
	}
	copied := *tr
	return &copied, nil
}

func (m *mockRepository) DeleteTransfer(_ context.Context, tenant shared.TenantContext, id uuid.UUID) error {
	tr, ok := m.transfers[id]
	if !ok || tr.CompanyID != tenant.CompanyID {
		return ErrNotFound
	}
	delete(m.transfers, id)
	return nil
}

func (m *mockRepository) AdjustBalance(_ context.Context, tenant shared.TenantContext, accountID uuid.UUID, delta decimal.Decimal) error {
	acc, ok := m.accounts[accountID]
	if !ok || acc.CompanyID != tenant.CompanyID {
		return ErrNotFound
	}
	acc.CurrentBalance = acc.CurrentBalance.Add(delta)
	return nil
}

func (m *mockRepository) HasActivity(_ context.Context, _ shared.TenantContext, accountID uuid.UUID) (bool, error) {
	for _, tx := range m.transactions {
		if tx.AccountID == accountID {
			return true, nil
		}
	}
	for _, tr := range m.transfers {
		if tr.FromAccountID == accountID || tr.ToAccountID == accountID {
			return true, nil
		}
	}
	return false, nil
}

// ============================================================================
// HELPERS
// ============================================================================

var testTenant = shared.TenantContext{CompanyID: 7}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedAccount(repo *mockRepository, name, capital string) *Account {
	acc := &Account{
		ID:             uuid.New(),
		CompanyID:      testTenant.CompanyID,
		PartnerName:    name,
		AccountType:    "partner",
		Currency:       "TRY",
		InitialCapital: dec(capital),
		CurrentBalance: dec(capital),
		IsActive:       true,
		CreatedAt:      day(1),
		UpdatedAt:      day(1),
	}
	repo.accounts[acc.ID] = acc
	return acc
}

// ============================================================================
// TESTS
// ============================================================================

func TestGetLedgerViewHappyPath(t *testing.T) {
	repo := newMockRepository()
	acc := seedAccount(repo, "Partner A", "1000")
	other := seedAccount(repo, "Partner B", "0")
	svc := NewService(repo, nil, nil, testLogger(), 0)

	_, err := svc.RecordTransaction(context.Background(), testTenant, RecordTransactionInput{
		AccountID: acc.ID, Type: EntryIncome, Amount: dec("500"), Category: "Capital", TransactionDate: day(1),
	})
	require.NoError(t, err)
	_, err = svc.CreateTransfer(context.Background(), testTenant, CreateTransferInput{
		FromAccountID: other.ID, ToAccountID: acc.ID, Amount: dec("250"), TransferDate: day(2),
	})
	require.NoError(t, err)

	view, err := svc.GetLedgerView(context.Background(), testTenant, acc.ID, Filter{})
	require.NoError(t, err)
	require.Len(t, view.Activities, 2)

	// Newest first: the transfer leads and carries the final balance.
	assert.Equal(t, KindTransfer, view.Activities[0].Kind)
	assert.True(t, dec("1750").Equal(view.Activities[0].BalanceAfter), "got %s", view.Activities[0].BalanceAfter)
	assert.True(t, dec("1500").Equal(view.Activities[1].BalanceAfter))

	// Transfers stay out of headline totals.
	assert.True(t, dec("500").Equal(view.Totals.TotalIncome))
	assert.True(t, view.Totals.TotalExpense.IsZero())
	assert.True(t, dec("250").Equal(view.Totals.TransferIn))

	// The stored balance kept pace with the replay.
	check, err := svc.VerifyAccountBalance(context.Background(), testTenant, acc.ID)
	require.NoError(t, err)
	assert.True(t, check.InSync, "stored %s computed %s", check.Stored, check.Computed)
}

func TestGetLedgerViewFetchFailureAbortsWholeView(t *testing.T) {
	repo := newMockRepository()
	acc := seedAccount(repo, "Partner A", "1000")
	repo.transfersErr = errors.New("boom")
	svc := NewService(repo, nil, nil, testLogger(), 0)

	view, err := svc.GetLedgerView(context.Background(), testTenant, acc.ID, Filter{})
	require.Error(t, err)
	assert.Nil(t, view)
}

func TestGetLedgerViewUnknownAccount(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil, nil, testLogger(), 0)

	_, err := svc.GetLedgerView(context.Background(), testTenant, uuid.New(), Filter{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetLedgerViewRequiresTenant(t *testing.T) {
	svc := NewService(newMockRepository(), nil, nil, testLogger(), 0)
	_, err := svc.GetLedgerView(context.Background(), shared.TenantContext{}, uuid.New(), Filter{})
	assert.ErrorIs(t, err, shared.ErrTenantMissing)
}

func TestGetLedgerViewTenantIsolation(t *testing.T) {
	repo := newMockRepository()
	acc := seedAccount(repo, "Partner A", "1000")
	svc := NewService(repo, nil, nil, testLogger(), 0)

	_, err := svc.GetLedgerView(context.Background(), shared.TenantContext{CompanyID: 99}, acc.ID, Filter{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateTransferRejectsSameAccount(t *testing.T) {
	repo := newMockRepository()
	acc := seedAccount(repo, "Partner A", "1000")
	svc := NewService(repo, nil, nil, testLogger(), 0)

	_, err := svc.CreateTransfer(context.Background(), testTenant, CreateTransferInput{
		FromAccountID: acc.ID, ToAccountID: acc.ID, Amount: dec("10"),
	})
	assert.ErrorIs(t, err, ErrSameAccount)
}

func TestCreateTransferMovesBothBalances(t *testing.T) {
	repo := newMockRepository()
	from := seedAccount(repo, "Partner A", "1000")
	to := seedAccount(repo, "Partner B", "200")
	svc := NewService(repo, nil, nil, testLogger(), 0)

	_, err := svc.CreateTransfer(context.Background(), testTenant, CreateTransferInput{
		FromAccountID: from.ID, ToAccountID: to.ID, Amount: dec("300"), TransferDate: day(1),
	})
	require.NoError(t, err)

	assert.True(t, dec("700").Equal(repo.accounts[from.ID].CurrentBalance))
	assert.True(t, dec("500").Equal(repo.accounts[to.ID].CurrentBalance))

	// Both perspectives of the same record.
	viewFrom, err := svc.GetLedgerView(context.Background(), testTenant, from.ID, Filter{})
	require.NoError(t, err)
	viewTo, err := svc.GetLedgerView(context.Background(), testTenant, to.ID, Filter{})
	require.NoError(t, err)

	require.Len(t, viewFrom.Activities, 1)
	require.Len(t, viewTo.Activities, 1)
	assert.Equal(t, EntryExpense, viewFrom.Activities[0].Type)
	assert.Equal(t, "Transfer to Partner B", viewFrom.Activities[0].Description)
	assert.Equal(t, EntryIncome, viewTo.Activities[0].Type)
	assert.Equal(t, "Transfer from Partner A", viewTo.Activities[0].Description)
}

func TestListTransferHistoryReturnsStoredRecords(t *testing.T) {
	repo := newMockRepository()
	from := seedAccount(repo, "Partner A", "1000")
	to := seedAccount(repo, "Partner B", "200")
	svc := NewService(repo, nil, nil, testLogger(), 0)

	created, err := svc.CreateTransfer(context.Background(), testTenant, CreateTransferInput{
		FromAccountID: from.ID, ToAccountID: to.ID, Amount: dec("300"), TransferDate: day(1),
	})
	require.NoError(t, err)

	history, err := svc.ListTransferHistory(context.Background(), testTenant, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)

	// The tenant-wide log has no viewing account: rows keep both endpoint
	// names instead of a resolved direction.
	assert.Equal(t, created.ID, history[0].ID)
	assert.Equal(t, "Partner A", history[0].FromAccountName)
	assert.Equal(t, "Partner B", history[0].ToAccountName)
	assert.True(t, dec("300").Equal(history[0].Amount))
}

func TestDeleteEntryRoutesByPrefix(t *testing.T) {
	repo := newMockRepository()
	from := seedAccount(repo, "Partner A", "1000")
	to := seedAccount(repo, "Partner B", "0")
	svc := NewService(repo, nil, nil, testLogger(), 0)

	tx, err := svc.RecordTransaction(context.Background(), testTenant, RecordTransactionInput{
		AccountID: from.ID, Type: EntryExpense, Amount: dec("100"), TransactionDate: day(1),
	})
	require.NoError(t, err)
	tr, err := svc.CreateTransfer(context.Background(), testTenant, CreateTransferInput{
		FromAccountID: from.ID, ToAccountID: to.ID, Amount: dec("50"), TransferDate: day(2),
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteEntry(context.Background(), testTenant, tx.ID.String()))
	require.NoError(t, svc.DeleteEntry(context.Background(), testTenant, "transfer_"+tr.ID.String()))

	// Every effect reversed: balances back at their seeds.
	assert.True(t, dec("1000").Equal(repo.accounts[from.ID].CurrentBalance), "got %s", repo.accounts[from.ID].CurrentBalance)
	assert.True(t, repo.accounts[to.ID].CurrentBalance.IsZero())
	assert.Empty(t, repo.transactions)
	assert.Empty(t, repo.transfers)
}

func TestRecordTransactionValidation(t *testing.T) {
	repo := newMockRepository()
	acc := seedAccount(repo, "Partner A", "0")
	svc := NewService(repo, nil, nil, testLogger(), 0)

	_, err := svc.RecordTransaction(context.Background(), testTenant, RecordTransactionInput{
		AccountID: acc.ID, Type: "refund", Amount: dec("10"),
	})
	require.Error(t, err)

	_, err = svc.RecordTransaction(context.Background(), testTenant, RecordTransactionInput{
		AccountID: acc.ID, Type: EntryIncome, Amount: dec("-10"),
	})
	require.Error(t, err)
}

func TestVerifyAccountBalanceDetectsDrift(t *testing.T) {
	repo := newMockRepository()
	acc := seedAccount(repo, "Partner A", "1000")
	svc := NewService(repo, nil, nil, testLogger(), 0)

	_, err := svc.RecordTransaction(context.Background(), testTenant, RecordTransactionInput{
		AccountID: acc.ID, Type: EntryIncome, Amount: dec("500"), TransactionDate: day(1),
	})
	require.NoError(t, err)

	// Simulate a write that bypassed the balance adjustment.
	repo.accounts[acc.ID].CurrentBalance = dec("9999")

	check, err := svc.VerifyAccountBalance(context.Background(), testTenant, acc.ID)
	require.NoError(t, err)
	assert.False(t, check.InSync)
	assert.True(t, dec("1500").Equal(check.Computed))
	assert.True(t, dec("9999").Equal(check.Stored))
}

func TestGetLedgerViewPresetUsesWallClock(t *testing.T) {
	repo := newMockRepository()
	acc := seedAccount(repo, "Partner A", "0")
	svc := NewService(repo, nil, nil, testLogger(), 0)

	now := time.Now()
	_, err := svc.RecordTransaction(context.Background(), testTenant, RecordTransactionInput{
		AccountID: acc.ID, Type: EntryIncome, Amount: dec("10"), TransactionDate: now,
	})
	require.NoError(t, err)

	view, err := svc.GetLedgerView(context.Background(), testTenant, acc.ID, Filter{Preset: PresetToday})
	require.NoError(t, err)
	assert.Len(t, view.Activities, 1)
}
