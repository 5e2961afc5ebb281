package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// RecordTransactionInput describes a new income or expense entry.
type RecordTransactionInput struct {
	AccountID       uuid.UUID
	Type            EntryType
	Amount          decimal.Decimal
	Description     string
	Category        string
	TransactionDate time.Time
}

// CreateTransferInput describes a new inter-account transfer.
type CreateTransferInput struct {
	FromAccountID uuid.UUID
	ToAccountID   uuid.UUID
	Amount        decimal.Decimal
	TransferDate  time.Time
}

// RecordTransaction stores a direct ledger entry and applies it to the
// account's stored balance in the same transaction.
func (s *Service) RecordTransaction(ctx context.Context, tenant shared.TenantContext, input RecordTransactionInput) (*Transaction, error) {
	if !tenant.Valid() {
		return nil, shared.ErrTenantMissing
	}
	if input.Type != EntryIncome && input.Type != EntryExpense {
		return nil, fmt.Errorf("ledger: unknown entry type %q", input.Type)
	}
	if input.Amount.IsNegative() || input.Amount.IsZero() {
		return nil, fmt.Errorf("ledger: amount must be positive")
	}
	if input.TransactionDate.IsZero() {
		input.TransactionDate = time.Now()
	}

	now := time.Now()
	tx := Transaction{
		ID:              uuid.New(),
		AccountID:       input.AccountID,
		Type:            input.Type,
		Amount:          input.Amount,
		Description:     input.Description,
		Category:        input.Category,
		TransactionDate: input.TransactionDate,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if err := repo.InsertTransaction(ctx, tenant, tx); err != nil {
			return err
		}
		delta := tx.Amount
		if tx.Type == EntryExpense {
			delta = delta.Neg()
		}
		return repo.AdjustBalance(ctx, tenant, tx.AccountID, delta)
	})
	if err != nil {
		return nil, fmt.Errorf("record transaction: %w", err)
	}

	s.bumpCache(ctx)
	s.recordAudit(ctx, tenant, "transaction.create", "partner_transaction", tx.ID.String(), map[string]any{
		"type":   string(tx.Type),
		"amount": tx.Amount.String(),
	})
	return &tx, nil
}

// DeleteEntry removes a ledger entry by its activity id and reverses its
// balance effect. Transfer-derived activities carry the transfer_ prefix
// and route to transfer deletion.
func (s *Service) DeleteEntry(ctx context.Context, tenant shared.TenantContext, activityID string) error {
	if !tenant.Valid() {
		return shared.ErrTenantMissing
	}

	if raw, ok := strings.CutPrefix(activityID, transferIDPrefix); ok {
		transferID, err := uuid.Parse(raw)
		if err != nil {
			return fmt.Errorf("ledger: malformed transfer id: %w", err)
		}
		return s.DeleteTransfer(ctx, tenant, transferID)
	}

	transactionID, err := uuid.Parse(activityID)
	if err != nil {
		return fmt.Errorf("ledger: malformed transaction id: %w", err)
	}
	return s.DeleteTransaction(ctx, tenant, transactionID)
}

// DeleteTransaction removes a direct entry and reverses its effect on the
// stored balance: deleting income decreases it, deleting expense
// increases it.
func (s *Service) DeleteTransaction(ctx context.Context, tenant shared.TenantContext, id uuid.UUID) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		tx, err := repo.GetTransaction(ctx, tenant, id)
		if err != nil {
			return err
		}
		if err := repo.DeleteTransaction(ctx, tenant, id); err != nil {
			return err
		}
		reversal := tx.Amount
		if tx.Type == EntryIncome {
			reversal = reversal.Neg()
		}
		return repo.AdjustBalance(ctx, tenant, tx.AccountID, reversal)
	})
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.bumpCache(ctx)
	s.recordAudit(ctx, tenant, "transaction.delete", "partner_transaction", id.String(), nil)
	return nil
}

// CreateTransfer moves funds between two accounts atomically: the stored
// transfer row and both balance adjustments commit or roll back together.
func (s *Service) CreateTransfer(ctx context.Context, tenant shared.TenantContext, input CreateTransferInput) (*TransferRecord, error) {
	if !tenant.Valid() {
		return nil, shared.ErrTenantMissing
	}
	if input.FromAccountID == input.ToAccountID {
		return nil, ErrSameAccount
	}
	if input.Amount.IsNegative() || input.Amount.IsZero() {
		return nil, fmt.Errorf("ledger: amount must be positive")
	}
	if input.TransferDate.IsZero() {
		input.TransferDate = time.Now()
	}

	now := time.Now()
	record := TransferRecord{
		ID:            uuid.New(),
		CompanyID:     tenant.CompanyID,
		FromAccountID: input.FromAccountID,
		ToAccountID:   input.ToAccountID,
		Amount:        input.Amount,
		TransferDate:  input.TransferDate,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		from, err := repo.GetAccount(ctx, tenant, input.FromAccountID)
		if err != nil {
			return fmt.Errorf("source account: %w", err)
		}
		to, err := repo.GetAccount(ctx, tenant, input.ToAccountID)
		if err != nil {
			return fmt.Errorf("destination account: %w", err)
		}
		if !from.IsActive || !to.IsActive {
			return ErrAccountInactive
		}
		record.FromAccountName = from.PartnerName
		record.ToAccountName = to.PartnerName

		if err := repo.InsertTransfer(ctx, tenant, record); err != nil {
			return err
		}
		if err := repo.AdjustBalance(ctx, tenant, input.FromAccountID, input.Amount.Neg()); err != nil {
			return err
		}
		return repo.AdjustBalance(ctx, tenant, input.ToAccountID, input.Amount)
	})
	if err != nil {
		return nil, fmt.Errorf("create transfer: %w", err)
	}

	s.bumpCache(ctx)
	s.recordAudit(ctx, tenant, "transfer.create", "account_transfer", record.ID.String(), map[string]any{
		"from":   record.FromAccountID.String(),
		"to":     record.ToAccountID.String(),
		"amount": record.Amount.String(),
	})
	return &record, nil
}

// DeleteTransfer removes a transfer and reverses both balance effects.
func (s *Service) DeleteTransfer(ctx context.Context, tenant shared.TenantContext, id uuid.UUID) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		record, err := repo.GetTransfer(ctx, tenant, id)
		if err != nil {
			return err
		}
		if err := repo.DeleteTransfer(ctx, tenant, id); err != nil {
			return err
		}
		if err := repo.AdjustBalance(ctx, tenant, record.FromAccountID, record.Amount); err != nil {
			return err
		}
		return repo.AdjustBalance(ctx, tenant, record.ToAccountID, record.Amount.Neg())
	})
	if err != nil {
		return fmt.Errorf("delete transfer: %w", err)
	}

	s.bumpCache(ctx)
	s.recordAudit(ctx, tenant, "transfer.delete", "account_transfer", id.String(), nil)
	return nil
}

func (s *Service) bumpCache(ctx context.Context) {
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("ledger cache bump failed", "error", err)
	}
}

// recordAudit appends to the trail after a committed write. Failures are
// logged, never surfaced; the write already happened.
func (s *Service) recordAudit(ctx context.Context, tenant shared.TenantContext, action, entity, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		CompanyID: tenant.CompanyID,
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		Meta:      meta,
		At:        time.Now(),
	})
	if err != nil {
		s.logger.Warn("audit record failed", "action", action, "error", err)
	}
}
