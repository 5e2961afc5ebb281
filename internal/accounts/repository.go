package accounts

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

var (
	ErrNotFound      = errors.New("accounts: not found")
	ErrAlreadyExists = errors.New("accounts: partner name already exists")
)

const uniqueNameConstraint = "uq_partner_accounts_company_name"

// mapPgError translates the per-company name constraint violation into
// the domain sentinel; every other error passes through untouched.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.ConstraintName == uniqueNameConstraint {
		return ErrAlreadyExists
	}
	return err
}

// Repository defines data access for partner accounts.
type Repository interface {
	Create(ctx context.Context, account PartnerAccount) error
	Get(ctx context.Context, tenant shared.TenantContext, id uuid.UUID) (*PartnerAccount, error)
	List(ctx context.Context, tenant shared.TenantContext, req ListAccountsRequest) ([]PartnerAccount, int, error)
	Update(ctx context.Context, tenant shared.TenantContext, account PartnerAccount) error
	HasActivity(ctx context.Context, tenant shared.TenantContext, id uuid.UUID) (bool, error)
}

// PGRepository provides PostgreSQL backed persistence.
type PGRepository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool, logger *slog.Logger) *PGRepository {
	return &PGRepository{pool: pool, logger: logger}
}

// Create inserts a partner account. Partner names are unique per company.
func (r *PGRepository) Create(ctx context.Context, account PartnerAccount) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO partner_accounts (id, company_id, partner_name, account_type, currency, initial_capital, current_balance, ownership_percentage, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6::numeric, $7::numeric, $8::numeric, $9, $10, $11)`,
		account.ID, account.CompanyID, account.PartnerName, account.AccountType, account.Currency,
		account.InitialCapital.String(), account.CurrentBalance.String(), account.OwnershipPercentage.String(),
		account.IsActive, account.CreatedAt, account.UpdatedAt)
	if err != nil {
		return mapPgError(err)
	}
	return nil
}

// Get loads one partner account scoped to the tenant.
func (r *PGRepository) Get(ctx context.Context, tenant shared.TenantContext, id uuid.UUID) (*PartnerAccount, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, company_id, partner_name, account_type, currency,
       initial_capital::text, current_balance::text, COALESCE(ownership_percentage, 0)::text,
       is_active, created_at, updated_at
  FROM partner_accounts WHERE id = $1 AND company_id = $2`, id, tenant.CompanyID)
	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return account, nil
}

// List returns the tenant's accounts with filters and total count.
func (r *PGRepository) List(ctx context.Context, tenant shared.TenantContext, req ListAccountsRequest) ([]PartnerAccount, int, error) {
	pagination := shared.NewPagination(req.Page, req.PerPage, 0)

	where := ` WHERE company_id = $1`
	args := []interface{}{tenant.CompanyID}
	if req.IsActive != nil {
		args = append(args, *req.IsActive)
		where += ` AND is_active = $2`
	}
	if req.Search != "" {
		args = append(args, "%"+req.Search+"%")
		where += ` AND partner_name ILIKE $` + itoa(len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM partner_accounts`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, pagination.PerPage, pagination.Offset())
	query := `SELECT id, company_id, partner_name, account_type, currency,
       initial_capital::text, current_balance::text, COALESCE(ownership_percentage, 0)::text,
       is_active, created_at, updated_at
  FROM partner_accounts` + where + ` ORDER BY partner_name LIMIT $` + itoa(len(args)-1) + ` OFFSET $` + itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var accounts []PartnerAccount
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, 0, err
		}
		accounts = append(accounts, *account)
	}
	return accounts, total, rows.Err()
}

// Update rewrites the mutable fields of one account.
func (r *PGRepository) Update(ctx context.Context, tenant shared.TenantContext, account PartnerAccount) error {
	tag, err := r.pool.Exec(ctx, `UPDATE partner_accounts
   SET partner_name = $1, account_type = $2, initial_capital = $3::numeric,
       current_balance = $4::numeric, ownership_percentage = $5::numeric,
       is_active = $6, updated_at = $7
 WHERE id = $8 AND company_id = $9`,
		account.PartnerName, account.AccountType, account.InitialCapital.String(),
		account.CurrentBalance.String(), account.OwnershipPercentage.String(),
		account.IsActive, account.UpdatedAt, account.ID, tenant.CompanyID)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// HasActivity reports whether any transaction or transfer references the
// account.
func (r *PGRepository) HasActivity(ctx context.Context, tenant shared.TenantContext, id uuid.UUID) (bool, error) {
	row := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM partner_transactions WHERE account_id = $1)
    OR EXISTS (SELECT 1 FROM account_transfers WHERE company_id = $2 AND (from_account_id = $1 OR to_account_id = $1))`,
		id, tenant.CompanyID)
	var has bool
	if err := row.Scan(&has); err != nil {
		return false, err
	}
	return has, nil
}

func scanAccount(row pgx.Row) (*PartnerAccount, error) {
	var account PartnerAccount
	var initial, current, ownership string
	if err := row.Scan(&account.ID, &account.CompanyID, &account.PartnerName, &account.AccountType,
		&account.Currency, &initial, &current, &ownership, &account.IsActive,
		&account.CreatedAt, &account.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if account.InitialCapital, err = decimal.NewFromString(initial); err != nil {
		account.InitialCapital = decimal.Zero
	}
	if account.CurrentBalance, err = decimal.NewFromString(current); err != nil {
		account.CurrentBalance = decimal.Zero
	}
	if account.OwnershipPercentage, err = decimal.NewFromString(ownership); err != nil {
		account.OwnershipPercentage = decimal.Zero
	}
	return &account, nil
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
