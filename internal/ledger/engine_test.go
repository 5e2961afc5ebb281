package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(n int) time.Time {
	return time.Date(2025, time.March, n, 12, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func tx(t EntryType, amount string, date time.Time) Transaction {
	return Transaction{
		ID:              uuid.New(),
		Type:            t,
		Amount:          dec(amount),
		Description:     "entry",
		Category:        "General",
		TransactionDate: date,
		UpdatedAt:       date,
	}
}

func TestMergeActivitiesProjectsTransfers(t *testing.T) {
	transferID := uuid.New()
	transfers := []Transfer{
		{
			ID:               transferID,
			Amount:           dec("250"),
			TransferDate:     day(2),
			Direction:        TransferIncoming,
			CounterpartyName: "Account B",
		},
	}
	transactions := []Transaction{tx(EntryIncome, "100", day(1))}

	activities := MergeActivities(transactions, transfers)
	require.Len(t, activities, 2)

	// Newest first: the transfer on day 2 leads.
	got := activities[0]
	assert.Equal(t, "transfer_"+transferID.String(), got.ID)
	assert.Equal(t, KindTransfer, got.Kind)
	assert.Equal(t, EntryIncome, got.Type)
	assert.Equal(t, "Transfer from Account B", got.Description)
	assert.Equal(t, TransferCategory, got.Category)
	assert.True(t, dec("250").Equal(got.Amount))

	assert.Equal(t, KindTransaction, activities[1].Kind)
}

func TestMergeActivitiesTransferDirectionPerViewer(t *testing.T) {
	// The same stored transfer, resolved for each side.
	id := uuid.New()
	fromA := Transfer{ID: id, Amount: dec("250"), TransferDate: day(1), Direction: TransferOutgoing, CounterpartyName: "Account A"}
	fromB := Transfer{ID: id, Amount: dec("250"), TransferDate: day(1), Direction: TransferIncoming, CounterpartyName: "Account B"}

	seenByB := MergeActivities(nil, []Transfer{fromA})
	seenByA := MergeActivities(nil, []Transfer{fromB})

	require.Len(t, seenByA, 1)
	require.Len(t, seenByB, 1)
	assert.Equal(t, EntryIncome, seenByA[0].Type)
	assert.Equal(t, "Transfer from Account B", seenByA[0].Description)
	assert.Equal(t, EntryExpense, seenByB[0].Type)
	assert.Equal(t, "Transfer to Account A", seenByB[0].Description)
}

func TestMergeActivitiesEmptyInputs(t *testing.T) {
	assert.Empty(t, MergeActivities(nil, nil))
}

func TestComputeRunningBalancesReplay(t *testing.T) {
	transactions := []Transaction{
		tx(EntryIncome, "500", day(1)),
		tx(EntryIncome, "300", day(2)),
		tx(EntryIncome, "200", day(3)),
		tx(EntryExpense, "400", day(4)),
	}
	activities := MergeActivities(transactions, nil)
	balanced := ComputeRunningBalances(activities, dec("1000"))
	require.Len(t, balanced, 4)

	// Displayed newest-first: day4 expense on top with the final balance.
	assert.True(t, dec("1600").Equal(balanced[0].BalanceAfter), "got %s", balanced[0].BalanceAfter)
	assert.True(t, dec("2000").Equal(balanced[1].BalanceAfter))
	assert.True(t, dec("1800").Equal(balanced[2].BalanceAfter))
	assert.True(t, dec("1500").Equal(balanced[3].BalanceAfter))
}

func TestComputeRunningBalancesDisplayReplaySeparation(t *testing.T) {
	transactions := []Transaction{
		tx(EntryIncome, "10.01", day(1)),
		tx(EntryExpense, "3.02", day(2)),
		tx(EntryIncome, "7.50", day(3)),
	}
	activities := MergeActivities(transactions, nil)
	displayed := ComputeRunningBalances(activities, decimal.Zero)

	// Reversing the displayed list must reproduce the ascending replay
	// order with identical balances at each position.
	ascending := make([]Activity, len(displayed))
	for i := range displayed {
		ascending[len(displayed)-1-i] = displayed[i]
	}

	running := decimal.Zero
	for i, a := range ascending {
		running = running.Add(signedAmount(a))
		assert.True(t, running.Equal(a.BalanceAfter), "position %d: want %s got %s", i, running, a.BalanceAfter)
		if i > 0 {
			assert.False(t, a.TransactionDate.Before(ascending[i-1].TransactionDate))
		}
	}
}

func TestComputeRunningBalancesDecimalExactness(t *testing.T) {
	// 0.1 added many times drifts under binary floats; the decimal chain
	// must land exactly.
	var transactions []Transaction
	for i := 0; i < 1000; i++ {
		transactions = append(transactions, tx(EntryIncome, "0.10", day(1).Add(time.Duration(i)*time.Minute)))
	}
	balanced := ComputeRunningBalances(MergeActivities(transactions, nil), decimal.Zero)
	require.Len(t, balanced, 1000)
	assert.True(t, dec("100").Equal(balanced[0].BalanceAfter), "got %s", balanced[0].BalanceAfter)
}

func TestComputeRunningBalancesTieBreakByID(t *testing.T) {
	a := tx(EntryIncome, "100", day(1))
	b := tx(EntryExpense, "40", day(1))
	ordered := []Transaction{a, b}

	first := ComputeRunningBalances(MergeActivities(ordered, nil), decimal.Zero)
	second := ComputeRunningBalances(MergeActivities([]Transaction{b, a}, nil), decimal.Zero)

	require.Len(t, first, 2)
	require.Len(t, second, 2)
	// Identical timestamps resolve by id, so input order cannot change
	// the result.
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.True(t, first[i].BalanceAfter.Equal(second[i].BalanceAfter))
	}
}

func TestComputeRunningBalancesDoesNotMutateInput(t *testing.T) {
	activities := MergeActivities([]Transaction{tx(EntryIncome, "5", day(1))}, nil)
	before := activities[0].BalanceAfter
	_ = ComputeRunningBalances(activities, dec("100"))
	assert.True(t, before.Equal(activities[0].BalanceAfter))
}

func TestComputeTotalsOrderInvariant(t *testing.T) {
	a := tx(EntryIncome, "500", day(1))
	b := tx(EntryExpense, "120.55", day(2))
	c := tx(EntryIncome, "79.45", day(3))

	forward := ComputeTotals([]Transaction{a, b, c})
	backward := ComputeTotals([]Transaction{c, b, a})

	assert.True(t, forward.TotalIncome.Equal(backward.TotalIncome))
	assert.True(t, forward.TotalExpense.Equal(backward.TotalExpense))
	assert.True(t, dec("579.45").Equal(forward.TotalIncome))
	assert.True(t, dec("120.55").Equal(forward.TotalExpense))
}

func TestComputeTotalsExcludesTransfers(t *testing.T) {
	transactions := []Transaction{tx(EntryIncome, "100", day(1))}
	transfers := []Transfer{{ID: uuid.New(), Amount: dec("900"), TransferDate: day(1), Direction: TransferIncoming}}

	totals := AddTransferFlow(ComputeTotals(transactions), transfers)
	assert.True(t, dec("100").Equal(totals.TotalIncome))
	assert.True(t, totals.TotalExpense.IsZero())
	assert.True(t, dec("900").Equal(totals.TransferIn))
	assert.True(t, totals.TransferOut.IsZero())
}

func TestBuildLedgerViewEmptyLedger(t *testing.T) {
	account := Account{ID: uuid.New(), InitialCapital: decimal.Zero}
	view := BuildLedgerView(account, nil, nil, Filter{})

	assert.Empty(t, view.Activities)
	assert.True(t, view.Totals.TotalIncome.IsZero())
	assert.True(t, view.Totals.TotalExpense.IsZero())
}

func TestBuildLedgerViewIdempotent(t *testing.T) {
	account := Account{ID: uuid.New(), InitialCapital: dec("1000")}
	transactions := []Transaction{
		tx(EntryIncome, "500", day(1)),
		tx(EntryExpense, "400", day(4)),
	}
	transfers := []Transfer{
		{ID: uuid.New(), Amount: dec("250"), TransferDate: day(2), Direction: TransferIncoming, CounterpartyName: "B", UpdatedAt: day(2)},
	}
	filter := Filter{Type: EntryIncome, Now: day(10)}

	first := BuildLedgerView(account, transactions, transfers, filter)
	second := BuildLedgerView(account, transactions, transfers, filter)
	assert.Equal(t, first, second)
}

func TestBuildLedgerViewBalancesUnaffectedByFilter(t *testing.T) {
	account := Account{ID: uuid.New(), InitialCapital: dec("1000")}
	transactions := []Transaction{
		tx(EntryIncome, "500", day(1)),
		tx(EntryExpense, "400", day(2)),
	}

	view := BuildLedgerView(account, transactions, nil, Filter{Type: EntryExpense})
	require.Len(t, view.Activities, 1)
	// The expense keeps the balance it had in the full chronological
	// replay, not one recomputed over the filtered subset.
	assert.True(t, dec("1100").Equal(view.Activities[0].BalanceAfter))
}
