package transaction

import "time"

// Type enumerates transaction kinds.
type Type string

const (
	TypeUse    Type = "USE"
	TypeCancel Type = "CANCEL"
)

// ResultType enumerates transaction outcomes.
type ResultType string

const (
	ResultSuccess ResultType = "S"
	ResultFailure ResultType = "F"
)

// Transaction is one ledger entry. Every engine invocation that reaches
// account resolution appends exactly one, successful or not, so the ledger is
// a complete audit trail rather than a success log.
type Transaction struct {
	ID int64
	// TransactionID is the opaque business key generated per attempt.
	TransactionID string
	Type          Type
	Result        ResultType
	// AccountID is nil on failure paths where the account could not be
	// resolved.
	AccountID     *int64
	AccountNumber string
	Amount        int64
	// BalanceSnapshot is the account balance immediately after this
	// transaction took effect, the unchanged balance on failure, and nil
	// when the account was unresolvable.
	BalanceSnapshot *int64
	TransactedAt    time.Time
	CreatedAt       time.Time
}

// Result is what the engine hands back to the calling layer.
type Result struct {
	AccountNumber   string
	TransactionID   string
	Type            Type
	Result          ResultType
	Amount          int64
	BalanceSnapshot int64
	TransactedAt    time.Time
}

func resultFrom(tx *Transaction) Result {
	res := Result{
		AccountNumber: tx.AccountNumber,
		TransactionID: tx.TransactionID,
		Type:          tx.Type,
		Result:        tx.Result,
		Amount:        tx.Amount,
		TransactedAt:  tx.TransactedAt,
	}
	if tx.BalanceSnapshot != nil {
		res.BalanceSnapshot = *tx.BalanceSnapshot
	}
	return res
}
