package ledger

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// MergeActivities projects transactions and transfers into one activity
// feed ordered newest-first. Transfers are rewritten from the viewed
// account's perspective: an incoming transfer reads as income from the
// counterparty, an outgoing one as expense towards it.
func MergeActivities(transactions []Transaction, transfers []Transfer) []Activity {
	activities := make([]Activity, 0, len(transactions)+len(transfers))

	for _, tx := range transactions {
		activities = append(activities, Activity{
			ID:              tx.ID.String(),
			Kind:            KindTransaction,
			Type:            tx.Type,
			Amount:          tx.Amount,
			Description:     tx.Description,
			Category:        tx.Category,
			TransactionDate: tx.TransactionDate,
			UpdatedAt:       tx.UpdatedAt,
		})
	}

	for _, tr := range transfers {
		activities = append(activities, Activity{
			ID:              transferIDPrefix + tr.ID.String(),
			Kind:            KindTransfer,
			Type:            transferEntryType(tr.Direction),
			Amount:          tr.Amount,
			Description:     transferDescription(tr),
			Category:        TransferCategory,
			TransactionDate: tr.TransferDate,
			UpdatedAt:       tr.UpdatedAt,
		})
	}

	sortNewestFirst(activities)
	return activities
}

// ComputeRunningBalances replays activities oldest-first from the initial
// capital and annotates each with the balance immediately after it, then
// returns the list newest-first for display. The balance at position N in
// chronological order is always initialCapital plus the signed sum of
// amounts 1..N, independent of display order.
func ComputeRunningBalances(activities []Activity, initialCapital decimal.Decimal) []Activity {
	replay := make([]Activity, len(activities))
	copy(replay, activities)
	sortOldestFirst(replay)

	running := initialCapital
	for i := range replay {
		running = running.Add(signedAmount(replay[i]))
		replay[i].BalanceAfter = running
	}

	for i, j := 0, len(replay)-1; i < j; i, j = i+1, j-1 {
		replay[i], replay[j] = replay[j], replay[i]
	}
	return replay
}

// ComputeTotals sums income and expense over direct transactions only.
// Transfer flow is accumulated separately via AddTransferFlow.
func ComputeTotals(transactions []Transaction) Totals {
	totals := Totals{
		TotalIncome:  decimal.Zero,
		TotalExpense: decimal.Zero,
		TransferIn:   decimal.Zero,
		TransferOut:  decimal.Zero,
	}
	for _, tx := range transactions {
		switch tx.Type {
		case EntryIncome:
			totals.TotalIncome = totals.TotalIncome.Add(tx.Amount)
		case EntryExpense:
			totals.TotalExpense = totals.TotalExpense.Add(tx.Amount)
		}
	}
	return totals
}

// AddTransferFlow folds transfer movement into the totals without
// touching the headline income/expense figures.
func AddTransferFlow(totals Totals, transfers []Transfer) Totals {
	for _, tr := range transfers {
		switch tr.Direction {
		case TransferIncoming:
			totals.TransferIn = totals.TransferIn.Add(tr.Amount)
		case TransferOutgoing:
			totals.TransferOut = totals.TransferOut.Add(tr.Amount)
		}
	}
	return totals
}

// BuildLedgerView assembles the display-ready ledger for one account from
// a consistent snapshot of its transactions and transfers. The function
// is pure: identical inputs produce identical output, and the inputs are
// never mutated. Filtering applies to the activity feed only; totals and
// running balances always reflect the full snapshot, so a filtered view
// never under- or over-states the balance chain.
func BuildLedgerView(account Account, transactions []Transaction, transfers []Transfer, filter Filter) LedgerView {
	merged := MergeActivities(transactions, transfers)
	balanced := ComputeRunningBalances(merged, account.InitialCapital)
	totals := AddTransferFlow(ComputeTotals(transactions), transfers)

	return LedgerView{
		Account:    account,
		Activities: FilterActivities(balanced, filter),
		Totals:     totals,
	}
}

func transferEntryType(direction TransferDirection) EntryType {
	if direction == TransferIncoming {
		return EntryIncome
	}
	return EntryExpense
}

func transferDescription(tr Transfer) string {
	name := tr.CounterpartyName
	if name == "" {
		name = "other account"
	}
	if tr.Direction == TransferIncoming {
		return fmt.Sprintf("Transfer from %s", name)
	}
	return fmt.Sprintf("Transfer to %s", name)
}

func signedAmount(a Activity) decimal.Decimal {
	if a.Type == EntryIncome {
		return a.Amount
	}
	return a.Amount.Neg()
}

// Activities sharing a timestamp sort by id so the order is stable
// across refetches; the sort itself is stable so fully identical keys
// keep their input order.
func sortNewestFirst(activities []Activity) {
	sort.SliceStable(activities, func(i, j int) bool {
		if !activities[i].TransactionDate.Equal(activities[j].TransactionDate) {
			return activities[i].TransactionDate.After(activities[j].TransactionDate)
		}
		return activities[i].ID > activities[j].ID
	})
}

func sortOldestFirst(activities []Activity) {
	sort.SliceStable(activities, func(i, j int) bool {
		if !activities[i].TransactionDate.Equal(activities[j].TransactionDate) {
			return activities[i].TransactionDate.Before(activities[j].TransactionDate)
		}
		return activities[i].ID < activities[j].ID
	})
}
