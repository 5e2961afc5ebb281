package accounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// ErrCapitalLocked rejects initial-capital changes once the account has
// ledger activity, since every computed running balance would silently
// shift under the history.
var ErrCapitalLocked = errors.New("accounts: initial capital is immutable once the account has activity")

// Service handles partner account business logic.
type Service struct {
	repo Repository
}

// NewService builds Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create registers a new partner account. The stored balance starts at
// the initial capital.
func (s *Service) Create(ctx context.Context, tenant shared.TenantContext, req CreateAccountRequest) (*PartnerAccount, error) {
	if !tenant.Valid() {
		return nil, shared.ErrTenantMissing
	}
	if !ValidAccountType(req.AccountType) {
		return nil, fmt.Errorf("accounts: unknown account type %q", req.AccountType)
	}

	capital := decimal.Zero
	if req.InitialCapital != "" {
		parsed, err := decimal.NewFromString(req.InitialCapital)
		if err != nil {
			return nil, fmt.Errorf("accounts: initial capital: %w", err)
		}
		capital = parsed
	}
	ownership := decimal.Zero
	if req.OwnershipPercentage != "" {
		parsed, err := decimal.NewFromString(req.OwnershipPercentage)
		if err != nil {
			return nil, fmt.Errorf("accounts: ownership percentage: %w", err)
		}
		ownership = parsed
	}

	now := time.Now()
	account := PartnerAccount{
		ID:                  uuid.New(),
		CompanyID:           tenant.CompanyID,
		PartnerName:         req.PartnerName,
		AccountType:         req.AccountType,
		Currency:            req.Currency,
		InitialCapital:      capital,
		CurrentBalance:      capital,
		OwnershipPercentage: ownership,
		IsActive:            true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.repo.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	return &account, nil
}

// Get returns one partner account.
func (s *Service) Get(ctx context.Context, tenant shared.TenantContext, id uuid.UUID) (*PartnerAccount, error) {
	if !tenant.Valid() {
		return nil, shared.ErrTenantMissing
	}
	return s.repo.Get(ctx, tenant, id)
}

// List returns the tenant's accounts with pagination metadata.
func (s *Service) List(ctx context.Context, tenant shared.TenantContext, req ListAccountsRequest) ([]PartnerAccount, shared.Pagination, error) {
	if !tenant.Valid() {
		return nil, shared.Pagination{}, shared.ErrTenantMissing
	}
	accounts, total, err := s.repo.List(ctx, tenant, req)
	if err != nil {
		return nil, shared.Pagination{}, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, shared.NewPagination(req.Page, req.PerPage, total), nil
}

// Update applies the request's set fields. Accounts are never hard
// deleted; deactivation flips is_active.
func (s *Service) Update(ctx context.Context, tenant shared.TenantContext, id uuid.UUID, req UpdateAccountRequest) (*PartnerAccount, error) {
	if !tenant.Valid() {
		return nil, shared.ErrTenantMissing
	}

	account, err := s.repo.Get(ctx, tenant, id)
	if err != nil {
		return nil, err
	}

	if req.PartnerName != nil {
		account.PartnerName = *req.PartnerName
	}
	if req.AccountType != nil {
		if !ValidAccountType(*req.AccountType) {
			return nil, fmt.Errorf("accounts: unknown account type %q", *req.AccountType)
		}
		account.AccountType = *req.AccountType
	}
	if req.InitialCapital != nil {
		parsed, err := decimal.NewFromString(*req.InitialCapital)
		if err != nil {
			return nil, fmt.Errorf("accounts: initial capital: %w", err)
		}
		if !parsed.Equal(account.InitialCapital) {
			active, err := s.repo.HasActivity(ctx, tenant, id)
			if err != nil {
				return nil, fmt.Errorf("check activity: %w", err)
			}
			if active {
				return nil, ErrCapitalLocked
			}
			// No activity yet: the stored balance still equals the old
			// capital and moves with it.
			account.CurrentBalance = account.CurrentBalance.Sub(account.InitialCapital).Add(parsed)
			account.InitialCapital = parsed
		}
	}
	if req.OwnershipPercentage != nil {
		parsed, err := decimal.NewFromString(*req.OwnershipPercentage)
		if err != nil {
			return nil, fmt.Errorf("accounts: ownership percentage: %w", err)
		}
		account.OwnershipPercentage = parsed
	}
	if req.IsActive != nil {
		account.IsActive = *req.IsActive
	}
	account.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, tenant, *account); err != nil {
		return nil, fmt.Errorf("update account: %w", err)
	}
	return account, nil
}
