package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Service serves reconciled ledger views and owns the ledger write side.
type Service struct {
	repo       Repository
	cache      *Cache
	audit      *shared.AuditLogger
	logger     *slog.Logger
	fetchLimit int
}

// NewService builds Service instance. The audit logger may be nil; writes
// then skip the trail.
func NewService(repo Repository, cache *Cache, audit *shared.AuditLogger, logger *slog.Logger, fetchLimit int) *Service {
	if fetchLimit <= 0 {
		fetchLimit = 500
	}
	return &Service{repo: repo, cache: cache, audit: audit, logger: logger, fetchLimit: fetchLimit}
}

// snapshot is the point-in-time input set for one reconciliation run.
type snapshot struct {
	account      *Account
	transactions []Transaction
	transfers    []Transfer
}

// fetchSnapshot issues the three independent reads concurrently and joins
// them. The queries have no data dependency on each other; consistency
// comes from recomputing the whole view whenever any of them changes, not
// from read isolation across the three.
func (s *Service) fetchSnapshot(ctx context.Context, tenant shared.TenantContext, accountID uuid.UUID) (*snapshot, error) {
	var snap snapshot
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		account, err := s.repo.GetAccount(gctx, tenant, accountID)
		if err != nil {
			return fmt.Errorf("fetch account: %w", err)
		}
		snap.account = account
		return nil
	})
	g.Go(func() error {
		transactions, err := s.repo.ListTransactions(gctx, tenant, accountID, s.fetchLimit)
		if err != nil {
			return fmt.Errorf("fetch transactions: %w", err)
		}
		snap.transactions = transactions
		return nil
	})
	g.Go(func() error {
		transfers, err := s.repo.ListTransfers(gctx, tenant, accountID, s.fetchLimit)
		if err != nil {
			return fmt.Errorf("fetch transfers: %w", err)
		}
		snap.transfers = transfers
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &snap, nil
}

// GetLedgerView returns the account's reconciled ledger. The unfiltered
// view is computed from a fresh snapshot (or served from the versioned
// cache) and the filter is applied on top, so filtering never distorts
// running balances or totals. Any fetch failure aborts the whole view;
// no partial computation is attempted.
func (s *Service) GetLedgerView(ctx context.Context, tenant shared.TenantContext, accountID uuid.UUID, filter Filter) (*LedgerView, error) {
	if !tenant.Valid() {
		return nil, shared.ErrTenantMissing
	}

	loader := func(ctx context.Context) (interface{}, error) {
		snap, err := s.fetchSnapshot(ctx, tenant, accountID)
		if err != nil {
			return nil, err
		}
		view := BuildLedgerView(*snap.account, snap.transactions, snap.transfers, Filter{})
		return view, nil
	}

	var view LedgerView
	if s.cache == nil {
		value, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		view = value.(LedgerView)
	} else {
		key, err := s.cache.BuildKey(ctx, keyLedgerView(tenant.CompanyID, accountID))
		if err != nil {
			return nil, err
		}
		if err := s.cache.FetchJSON(ctx, key, &view, loader); err != nil {
			return nil, err
		}
	}

	if !filter.IsZero() {
		if filter.Now.IsZero() {
			filter.Now = time.Now()
		}
		view.Activities = FilterActivities(view.Activities, filter)
	}
	return &view, nil
}

// ListTransferHistory returns the tenant's transfer log, newest first.
// Rows are the stored, direction-less records; direction only exists
// relative to a viewing account.
func (s *Service) ListTransferHistory(ctx context.Context, tenant shared.TenantContext, limit int) ([]TransferRecord, error) {
	if !tenant.Valid() {
		return nil, shared.ErrTenantMissing
	}
	if limit <= 0 || limit > s.fetchLimit {
		limit = s.fetchLimit
	}
	return s.repo.ListAllTransfers(ctx, tenant, limit)
}

// VerifyAccountBalance replays the account's full ledger and compares the
// result to the stored balance. Drift means a write bypassed the balance
// adjustment and is reported for the integrity job to log.
func (s *Service) VerifyAccountBalance(ctx context.Context, tenant shared.TenantContext, accountID uuid.UUID) (*BalanceCheck, error) {
	snap, err := s.fetchSnapshot(ctx, tenant, accountID)
	if err != nil {
		return nil, err
	}

	merged := MergeActivities(snap.transactions, snap.transfers)
	balanced := ComputeRunningBalances(merged, snap.account.InitialCapital)

	computed := snap.account.InitialCapital
	if len(balanced) > 0 {
		computed = balanced[0].BalanceAfter
	}
	return &BalanceCheck{
		AccountID: accountID,
		Stored:    snap.account.CurrentBalance,
		Computed:  computed,
		InSync:    computed.Equal(snap.account.CurrentBalance),
	}, nil
}

// ActiveAccounts lists the tenant's active accounts for background jobs.
func (s *Service) ActiveAccounts(ctx context.Context, tenant shared.TenantContext) ([]Account, error) {
	return s.repo.ListAccounts(ctx, tenant, true)
}
