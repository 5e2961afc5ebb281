package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// PGRepository provides PostgreSQL backed persistence for the ledger.
type PGRepository struct {
	db     dbtx
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool, logger *slog.Logger) *PGRepository {
	return &PGRepository{db: pool, pool: pool, logger: logger}
}

// WithTx runs fn against a transactional view of the repository.
func (r *PGRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &PGRepository{db: tx, pool: r.pool, logger: r.logger})
	})
}

// GetAccount loads one partner account scoped to the tenant.
func (r *PGRepository) GetAccount(ctx context.Context, tenant shared.TenantContext, id uuid.UUID) (*Account, error) {
	row := r.db.QueryRow(ctx, `SELECT id, company_id, partner_name, account_type, currency,
       initial_capital::text, current_balance::text, COALESCE(ownership_percentage, 0)::text,
       is_active, created_at, updated_at
  FROM partner_accounts WHERE id = $1 AND company_id = $2`, id, tenant.CompanyID)

	var acc Account
	var initial, current, ownership string
	if err := row.Scan(&acc.ID, &acc.CompanyID, &acc.PartnerName, &acc.AccountType, &acc.Currency,
		&initial, &current, &ownership, &acc.IsActive, &acc.CreatedAt, &acc.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var err error
	if acc.InitialCapital, err = decimal.NewFromString(initial); err != nil {
		// Missing initial capital defaults to zero rather than failing
		// the whole view.
		r.logger.Warn("unparseable initial capital, defaulting to zero",
			slog.String("account_id", acc.ID.String()), slog.Any("error", err))
		acc.InitialCapital = decimal.Zero
	}
	if acc.CurrentBalance, err = decimal.NewFromString(current); err != nil {
		acc.CurrentBalance = decimal.Zero
	}
	if acc.OwnershipPercentage, err = decimal.NewFromString(ownership); err != nil {
		acc.OwnershipPercentage = decimal.Zero
	}
	return &acc, nil
}

// ListAccounts returns the tenant's partner accounts, newest first.
func (r *PGRepository) ListAccounts(ctx context.Context, tenant shared.TenantContext, activeOnly bool) ([]Account, error) {
	query := `SELECT id, company_id, partner_name, account_type, currency,
       initial_capital::text, current_balance::text, COALESCE(ownership_percentage, 0)::text,
       is_active, created_at, updated_at
  FROM partner_accounts WHERE company_id = $1`
	if activeOnly {
		query += ` AND is_active`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, tenant.CompanyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		var acc Account
		var initial, current, ownership string
		if err := rows.Scan(&acc.ID, &acc.CompanyID, &acc.PartnerName, &acc.AccountType, &acc.Currency,
			&initial, &current, &ownership, &acc.IsActive, &acc.CreatedAt, &acc.UpdatedAt); err != nil {
			return nil, err
		}
		acc.InitialCapital = mustDecimal(r.logger, "initial_capital", initial)
		acc.CurrentBalance = mustDecimal(r.logger, "current_balance", current)
		acc.OwnershipPercentage = mustDecimal(r.logger, "ownership_percentage", ownership)
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}

// ListTransactions returns the account's direct ledger entries, newest
// first. Rows whose amount fails decimal parsing are logged and skipped
// so one bad row cannot break the running-balance chain for the rest.
func (r *PGRepository) ListTransactions(ctx context.Context, tenant shared.TenantContext, accountID uuid.UUID, limit int) ([]Transaction, error) {
	rows, err := r.db.Query(ctx, `SELECT t.id, t.account_id, t.type, t.amount::text,
       COALESCE(t.description, ''), COALESCE(t.category, ''), t.transaction_date, t.created_at, t.updated_at
  FROM partner_transactions t
  JOIN partner_accounts a ON a.id = t.account_id
 WHERE t.account_id = $1 AND a.company_id = $2
 ORDER BY t.transaction_date DESC, t.id DESC
 LIMIT $3`, accountID, tenant.CompanyID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []Transaction
	for rows.Next() {
		var tx Transaction
		var amount, entryType string
		if err := rows.Scan(&tx.ID, &tx.AccountID, &entryType, &amount,
			&tx.Description, &tx.Category, &tx.TransactionDate, &tx.CreatedAt, &tx.UpdatedAt); err != nil {
			return nil, err
		}
		tx.Type = EntryType(entryType)
		parsed, err := decimal.NewFromString(amount)
		if err != nil {
			r.logger.Warn("skipping transaction with unparseable amount",
				slog.String("transaction_id", tx.ID.String()), slog.Any("error", err))
			continue
		}
		tx.Amount = parsed
		transactions = append(transactions, tx)
	}
	return transactions, rows.Err()
}

// ListTransfers returns transfers touching the account, resolved to its
// perspective: direction and counterparty name depend on which side of
// the stored row the account sits on.
func (r *PGRepository) ListTransfers(ctx context.Context, tenant shared.TenantContext, accountID uuid.UUID, limit int) ([]Transfer, error) {
	rows, err := r.db.Query(ctx, `SELECT id, amount::text, transfer_date,
       CASE WHEN to_account_id = $1 THEN 'incoming' ELSE 'outgoing' END,
       CASE WHEN to_account_id = $1 THEN from_account_name ELSE to_account_name END,
       from_account_id, to_account_id, created_at, updated_at
  FROM account_transfers
 WHERE company_id = $2 AND (from_account_id = $1 OR to_account_id = $1)
 ORDER BY transfer_date DESC, id DESC
 LIMIT $3`, accountID, tenant.CompanyID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transfers []Transfer
	for rows.Next() {
		var tr Transfer
		var amount, direction string
		if err := rows.Scan(&tr.ID, &amount, &tr.TransferDate, &direction, &tr.CounterpartyName,
			&tr.FromAccountID, &tr.ToAccountID, &tr.CreatedAt, &tr.UpdatedAt); err != nil {
			return nil, err
		}
		tr.Direction = TransferDirection(direction)
		parsed, err := decimal.NewFromString(amount)
		if err != nil {
			r.logger.Warn("skipping transfer with unparseable amount",
				slog.String("transfer_id", tr.ID.String()), slog.Any("error", err))
			continue
		}
		tr.Amount = parsed
		transfers = append(transfers, tr)
	}
	return transfers, rows.Err()
}

// ListAllTransfers returns the tenant's transfer history, newest first.
// The listing has no viewing account, so rows come back in their stored,
// direction-less form with both endpoint names.
func (r *PGRepository) ListAllTransfers(ctx context.Context, tenant shared.TenantContext, limit int) ([]TransferRecord, error) {
	rows, err := r.db.Query(ctx, `SELECT id, company_id, from_account_id, to_account_id,
       from_account_name, to_account_name, amount::text, transfer_date, created_at, updated_at
  FROM account_transfers
 WHERE company_id = $1
 ORDER BY transfer_date DESC, id DESC
 LIMIT $2`, tenant.CompanyID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transfers []TransferRecord
	for rows.Next() {
		var tr TransferRecord
		var amount string
		if err := rows.Scan(&tr.ID, &tr.CompanyID, &tr.FromAccountID, &tr.ToAccountID,
			&tr.FromAccountName, &tr.ToAccountName, &amount, &tr.TransferDate, &tr.CreatedAt, &tr.UpdatedAt); err != nil {
			return nil, err
		}
		parsed, err := decimal.NewFromString(amount)
		if err != nil {
			r.logger.Warn("skipping transfer with unparseable amount",
				slog.String("transfer_id", tr.ID.String()), slog.Any("error", err))
			continue
		}
		tr.Amount = parsed
		transfers = append(transfers, tr)
	}
	return transfers, rows.Err()
}

// InsertTransaction stores a new direct ledger entry.
func (r *PGRepository) InsertTransaction(ctx context.Context, tenant shared.TenantContext, tx Transaction) error {
	tag, err := r.db.Exec(ctx, `INSERT INTO partner_transactions (id, account_id, type, amount, description, category, transaction_date, created_at, updated_at)
SELECT $1, $2, $3, $4::numeric, $5, $6, $7, $8, $9
 WHERE EXISTS (SELECT 1 FROM partner_accounts WHERE id = $2 AND company_id = $10)`,
		tx.ID, tx.AccountID, string(tx.Type), tx.Amount.String(), tx.Description, tx.Category,
		tx.TransactionDate, tx.CreatedAt, tx.UpdatedAt, tenant.CompanyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetTransaction loads one transaction scoped to the tenant.
func (r *PGRepository) GetTransaction(ctx context.Context, tenant shared.TenantContext, id uuid.UUID) (*Transaction, error) {
	row := r.db.QueryRow(ctx, `SELECT t.id, t.account_id, t.type, t.amount::text,
       COALESCE(t.description, ''), COALESCE(t.category, ''), t.transaction_date, t.created_at, t.updated_at
  FROM partner_transactions t
  JOIN partner_accounts a ON a.id = t.account_id
 WHERE t.id = $1 AND a.company_id = $2`, id, tenant.CompanyID)

	var tx Transaction
	var amount, entryType string
	if err := row.Scan(&tx.ID, &tx.AccountID, &entryType, &amount,
		&tx.Description, &tx.Category, &tx.TransactionDate, &tx.CreatedAt, &tx.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	tx.Type = EntryType(entryType)
	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, err
	}
	tx.Amount = parsed
	return &tx, nil
}

// DeleteTransaction removes one transaction scoped to the tenant.
func (r *PGRepository) DeleteTransaction(ctx context.Context, tenant shared.TenantContext, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM partner_transactions t
 USING partner_accounts a
 WHERE t.id = $1 AND a.id = t.account_id AND a.company_id = $2`, id, tenant.CompanyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertTransfer stores a new inter-account transfer.
func (r *PGRepository) InsertTransfer(ctx context.Context, tenant shared.TenantContext, tr TransferRecord) error {
	_, err := r.db.Exec(ctx, `INSERT INTO account_transfers (id, company_id, from_account_id, to_account_id, from_account_name, to_account_name, amount, transfer_date, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8, $9, $10)`,
		tr.ID, tenant.CompanyID, tr.FromAccountID, tr.ToAccountID, tr.FromAccountName, tr.ToAccountName,
		tr.Amount.String(), tr.TransferDate, tr.CreatedAt, tr.UpdatedAt)
	return err
}

// GetTransfer loads one stored transfer scoped to the tenant.
func (r *PGRepository) GetTransfer(ctx context.Context, tenant shared.TenantContext, id uuid.UUID) (*TransferRecord, error) {
	row := r.db.QueryRow(ctx, `SELECT id, company_id, from_account_id, to_account_id, from_account_name, to_account_name,
       amount::text, transfer_date, created_at, updated_at
  FROM account_transfers WHERE id = $1 AND company_id = $2`, id, tenant.CompanyID)

	var tr TransferRecord
	var amount string
	if err := row.Scan(&tr.ID, &tr.CompanyID, &tr.FromAccountID, &tr.ToAccountID,
		&tr.FromAccountName, &tr.ToAccountName, &amount, &tr.TransferDate, &tr.CreatedAt, &tr.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, err
	}
	tr.Amount = parsed
	return &tr, nil
}

// DeleteTransfer removes one stored transfer scoped to the tenant.
func (r *PGRepository) DeleteTransfer(ctx context.Context, tenant shared.TenantContext, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM account_transfers WHERE id = $1 AND company_id = $2`, id, tenant.CompanyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AdjustBalance applies a signed delta to the account's stored balance.
func (r *PGRepository) AdjustBalance(ctx context.Context, tenant shared.TenantContext, accountID uuid.UUID, delta decimal.Decimal) error {
	tag, err := r.db.Exec(ctx, `UPDATE partner_accounts
   SET current_balance = current_balance + $1::numeric, updated_at = $2
 WHERE id = $3 AND company_id = $4`, delta.String(), time.Now(), accountID, tenant.CompanyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// HasActivity reports whether any transaction or transfer references the
// account.
func (r *PGRepository) HasActivity(ctx context.Context, tenant shared.TenantContext, accountID uuid.UUID) (bool, error) {
	row := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM partner_transactions WHERE account_id = $1)
    OR EXISTS (SELECT 1 FROM account_transfers WHERE company_id = $2 AND (from_account_id = $1 OR to_account_id = $1))`,
		accountID, tenant.CompanyID)
	var has bool
	if err := row.Scan(&has); err != nil {
		return false, err
	}
	return has, nil
}

func mustDecimal(logger *slog.Logger, field, raw string) decimal.Decimal {
	parsed, err := decimal.NewFromString(raw)
	if err != nil {
		logger.Warn("unparseable decimal field, defaulting to zero",
			slog.String("field", field), slog.Any("error", err))
		return decimal.Zero
	}
	return parsed
}
