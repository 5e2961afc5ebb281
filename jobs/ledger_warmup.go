package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	jobmetrics "github.com/meridian-erp/meridian-erp/internal/jobs"
	"github.com/meridian-erp/meridian-erp/internal/ledger"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// LedgerWarmupJob pre-populates reconciled ledger views so the first
// request after a write does not pay the snapshot-fetch cost.
type LedgerWarmupJob struct {
	Ledger  *ledger.Service
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewLedgerWarmupJob wires dependencies for the warmup handler.
func NewLedgerWarmupJob(ledgerSvc *ledger.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *LedgerWarmupJob {
	return &LedgerWarmupJob{Ledger: ledgerSvc, Logger: logger, Metrics: metrics}
}

// Handle processes TaskLedgerWarmup tasks.
func (j *LedgerWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("ledger warmup: handler not configured")
	}
	var payload LedgerWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.CompanyID <= 0 {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskLedgerWarmup)
	var resultErr error
	defer func() {
		tracker.End(resultErr)
	}()

	tenant := shared.TenantContext{CompanyID: payload.CompanyID}
	logger := j.logger().With(slog.Int64("company_id", payload.CompanyID))

	accountIDs := payload.AccountIDs
	if len(accountIDs) == 0 {
		accounts, err := j.Ledger.ActiveAccounts(ctx, tenant)
		if err != nil {
			resultErr = err
			logger.Error("list accounts", slog.Any("error", err))
			return resultErr
		}
		accountIDs = make([]uuid.UUID, 0, len(accounts))
		for _, account := range accounts {
			accountIDs = append(accountIDs, account.ID)
		}
	}

	start := time.Now()
	warmed := 0
	for _, accountID := range accountIDs {
		if err := j.warmAccount(ctx, tenant, accountID); err != nil {
			resultErr = err
			logger.Error("warm account", slog.String("account_id", accountID.String()), slog.Any("error", err))
			return resultErr
		}
		warmed++
	}

	logger.Info("completed ledger warmup", slog.Int("accounts", warmed), slog.Duration("duration", time.Since(start)))
	return resultErr
}

// warmAccount bounds each view computation so a slow account cannot stall
// the whole run.
func (j *LedgerWarmupJob) warmAccount(ctx context.Context, tenant shared.TenantContext, accountID uuid.UUID) error {
	accountCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	_, err := j.Ledger.GetLedgerView(accountCtx, tenant, accountID, ledger.Filter{})
	return err
}

func (j *LedgerWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *LedgerWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
