package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryType marks the direction of a ledger entry. Amounts are always
// non-negative; direction is carried here, never in the amount's sign.
type EntryType string

const (
	EntryIncome  EntryType = "income"
	EntryExpense EntryType = "expense"
)

// TransferDirection describes a transfer relative to the viewed account.
type TransferDirection string

const (
	TransferIncoming TransferDirection = "incoming"
	TransferOutgoing TransferDirection = "outgoing"
)

// ActivityKind tags the origin of an activity row.
type ActivityKind string

const (
	KindTransaction ActivityKind = "transaction"
	KindTransfer    ActivityKind = "transfer"
)

// TransferCategory labels transfer-derived activities in the feed.
const TransferCategory = "Transfer"

// transferIDPrefix namespaces transfer ids so they can never collide
// with transaction ids in the merged feed.
const transferIDPrefix = "transfer_"

// Account is a ledger-bearing partner entity.
type Account struct {
	ID                  uuid.UUID
	CompanyID           int64
	PartnerName         string
	AccountType         string
	Currency            string
	InitialCapital      decimal.Decimal
	CurrentBalance      decimal.Decimal
	OwnershipPercentage decimal.Decimal
	IsActive            bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Transaction is a direct income or expense entry against one account.
type Transaction struct {
	ID              uuid.UUID
	AccountID       uuid.UUID
	Type            EntryType
	Amount          decimal.Decimal
	Description     string
	Category        string
	TransactionDate time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Transfer is a directed movement of funds between two accounts, already
// resolved to the viewed account's perspective.
type Transfer struct {
	ID               uuid.UUID
	Amount           decimal.Decimal
	TransferDate     time.Time
	Direction        TransferDirection
	CounterpartyName string
	FromAccountID    uuid.UUID
	ToAccountID      uuid.UUID
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Activity is the unified display projection of a transaction or a
// transfer. BalanceAfter is filled in by the running-balance replay and
// holds the cumulative balance immediately after this activity occurred.
type Activity struct {
	ID              string
	Kind            ActivityKind
	Type            EntryType
	Amount          decimal.Decimal
	Description     string
	Category        string
	TransactionDate time.Time
	UpdatedAt       time.Time
	BalanceAfter    decimal.Decimal
}

// Totals aggregates headline figures for an account. Transfers are kept
// out of TotalIncome/TotalExpense and reported on their own, matching the
// product's treatment of transfers as neutral movements.
type Totals struct {
	TotalIncome  decimal.Decimal
	TotalExpense decimal.Decimal
	TransferIn   decimal.Decimal
	TransferOut  decimal.Decimal
}

// BalanceCheck is the result of replaying one account's full ledger and
// comparing it against the stored balance.
type BalanceCheck struct {
	AccountID uuid.UUID
	Stored    decimal.Decimal
	Computed  decimal.Decimal
	InSync    bool
}

// LedgerView is the display-ready result for one account: the filtered
// activity feed newest-first with running balances, plus totals computed
// over the unfiltered snapshot.
type LedgerView struct {
	Account    Account
	Activities []Activity
	Totals     Totals
}
