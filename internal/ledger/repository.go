package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

var (
	ErrNotFound        = errors.New("ledger: not found")
	ErrAccountInactive = errors.New("ledger: account inactive")
	ErrSameAccount     = errors.New("ledger: transfer endpoints must differ")
)

// Repository is the data-access port for the ledger. Every method takes
// the tenant explicitly; the three read methods behind BuildLedgerView
// have no ordering dependency and may be issued concurrently.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error

	GetAccount(ctx context.Context, tenant shared.TenantContext, id uuid.UUID) (*Account, error)
	ListAccounts(ctx context.Context, tenant shared.TenantContext, activeOnly bool) ([]Account, error)
	ListTransactions(ctx context.Context, tenant shared.TenantContext, accountID uuid.UUID, limit int) ([]Transaction, error)
	ListTransfers(ctx context.Context, tenant shared.TenantContext, accountID uuid.UUID, limit int) ([]Transfer, error)
	ListAllTransfers(ctx context.Context, tenant shared.TenantContext, limit int) ([]TransferRecord, error)

	InsertTransaction(ctx context.Context, tenant shared.TenantContext, tx Transaction) error
	GetTransaction(ctx context.Context, tenant shared.TenantContext, id uuid.UUID) (*Transaction, error)
	DeleteTransaction(ctx context.Context, tenant shared.TenantContext, id uuid.UUID) error

	InsertTransfer(ctx context.Context, tenant shared.TenantContext, tr TransferRecord) error
	GetTransfer(ctx context.Context, tenant shared.TenantContext, id uuid.UUID) (*TransferRecord, error)
	DeleteTransfer(ctx context.Context, tenant shared.TenantContext, id uuid.UUID) error

	AdjustBalance(ctx context.Context, tenant shared.TenantContext, accountID uuid.UUID, delta decimal.Decimal) error
	HasActivity(ctx context.Context, tenant shared.TenantContext, accountID uuid.UUID) (bool, error)
}

// TransferRecord is the stored, direction-less form of a transfer. The
// per-account Transfer view in domain.go is derived from it at query
// time relative to the account being read.
type TransferRecord struct {
	ID              uuid.UUID
	CompanyID       int64
	FromAccountID   uuid.UUID
	ToAccountID     uuid.UUID
	FromAccountName string
	ToAccountName   string
	Amount          decimal.Decimal
	TransferDate    time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
