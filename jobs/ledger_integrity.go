package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/meridian-erp/meridian-erp/internal/jobs"
	"github.com/meridian-erp/meridian-erp/internal/ledger"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// LedgerIntegrityJob replays partner ledgers and compares them against
// stored balances. Drift is logged and counted, never auto-corrected.
type LedgerIntegrityJob struct {
	Ledger  *ledger.Service
	Pool    *pgxpool.Pool
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewLedgerIntegrityJob wires dependencies for the integrity handler.
func NewLedgerIntegrityJob(ledgerSvc *ledger.Service, pool *pgxpool.Pool, logger *slog.Logger, metrics *jobmetrics.Metrics) *LedgerIntegrityJob {
	return &LedgerIntegrityJob{Ledger: ledgerSvc, Pool: pool, Logger: logger, Metrics: metrics}
}

// Handle processes TaskLedgerIntegrity tasks.
func (j *LedgerIntegrityJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("ledger integrity: handler not configured")
	}
	var payload LedgerIntegrityPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskLedgerIntegrity)
	var resultErr error
	defer func() {
		tracker.End(resultErr)
	}()

	companies, err := j.resolveCompanies(ctx, payload.CompanyID)
	if err != nil {
		resultErr = err
		j.logger().Error("load integrity scopes", slog.Any("error", err))
		return resultErr
	}
	if len(companies) == 0 {
		j.logger().Info("no companies discovered for integrity check")
		return resultErr
	}

	start := time.Now()
	checked := 0
	drifted := 0
	for _, companyID := range companies {
		tenant := shared.TenantContext{CompanyID: companyID}
		logger := j.logger().With(slog.Int64("company_id", companyID))

		accounts, err := j.Ledger.ActiveAccounts(ctx, tenant)
		if err != nil {
			resultErr = err
			logger.Error("list accounts", slog.Any("error", err))
			return resultErr
		}
		companyDrift := 0
		for _, account := range accounts {
			check, err := j.Ledger.VerifyAccountBalance(ctx, tenant, account.ID)
			if err != nil {
				resultErr = err
				logger.Error("verify balance", slog.String("account_id", account.ID.String()), slog.Any("error", err))
				return resultErr
			}
			checked++
			if check.InSync {
				continue
			}
			companyDrift++
			logger.Warn("balance drift detected",
				slog.String("account_id", check.AccountID.String()),
				slog.String("stored", check.Stored.String()),
				slog.String("computed", check.Computed.String()),
			)
		}
		if companyDrift > 0 {
			drifted += companyDrift
			j.metrics().AddDrift(companyID, companyDrift)
		}
	}

	j.logger().Info("completed ledger integrity check",
		slog.Int("accounts", checked),
		slog.Int("drifted", drifted),
		slog.Duration("duration", time.Since(start)),
	)
	return resultErr
}

func (j *LedgerIntegrityJob) resolveCompanies(ctx context.Context, companyID int64) ([]int64, error) {
	if companyID > 0 {
		return []int64{companyID}, nil
	}
	if j.Pool == nil {
		return nil, errors.New("ledger integrity: pool not configured")
	}
	rows, err := j.Pool.Query(ctx, `SELECT DISTINCT company_id FROM partner_accounts WHERE company_id > 0 ORDER BY company_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	companies := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		companies = append(companies, id)
	}
	return companies, rows.Err()
}

func (j *LedgerIntegrityJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *LedgerIntegrityJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
