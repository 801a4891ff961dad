package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLedgerIntegrity recomputes ledger/balance agreement for accounts.
	TaskLedgerIntegrity = "ledger:integrity"
)

// LedgerIntegrityPayload selects which accounts to scan. AccountID 0 means
// every account.
type LedgerIntegrityPayload struct {
	AccountID int64 `json:"accountId"`
}

// NewLedgerIntegrityTask constructs an Asynq task.
func NewLedgerIntegrityTask(payload LedgerIntegrityPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerIntegrity, data), nil
}
