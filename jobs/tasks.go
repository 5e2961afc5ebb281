package jobs

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLedgerIntegrity replays partner ledgers and reports balance drift.
	TaskLedgerIntegrity = "ledger:integrity"
	// TaskLedgerWarmup pre-populates reconciled ledger views in the cache.
	TaskLedgerWarmup = "ledger:warmup"
)

// LedgerIntegrityPayload scopes an integrity run. CompanyID zero means
// every company that has partner accounts.
type LedgerIntegrityPayload struct {
	CompanyID int64 `json:"company_id"`
}

// LedgerWarmupPayload scopes a warmup run. An empty AccountIDs slice
// warms every active account in the company.
type LedgerWarmupPayload struct {
	CompanyID  int64       `json:"company_id"`
	AccountIDs []uuid.UUID `json:"account_ids,omitempty"`
}

// NewLedgerIntegrityTask constructs an Asynq task for an integrity run.
func NewLedgerIntegrityTask(payload LedgerIntegrityPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerIntegrity, data), nil
}

// NewLedgerWarmupTask constructs an Asynq task for a warmup run.
func NewLedgerWarmupTask(payload LedgerWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerWarmup, data), nil
}
