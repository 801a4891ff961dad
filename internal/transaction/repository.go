package transaction

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/YujeongSon/AccountSystem/internal/platform/db"
)

// ErrDuplicateTransactionID indicates an insert reused an existing
// transaction id. Ids are generated per attempt, so this only fires when a
// caller retries a save that already landed.
var ErrDuplicateTransactionID = errors.New("transaction: duplicate transaction id")

// Repository defines access to the append-only transaction ledger.
type Repository interface {
	// Save appends one ledger entry.
	Save(ctx context.Context, tx Transaction) (*Transaction, error)
	// FindByTransactionID returns the entry or nil when the id is unknown.
	FindByTransactionID(ctx context.Context, transactionID string) (*Transaction, error)
	// FindLatestSuccessByAccount returns the most recent successful entry
	// for the account, or nil when it has none.
	FindLatestSuccessByAccount(ctx context.Context, accountID int64) (*Transaction, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds a postgres-backed Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const transactionColumns = `id, transaction_id, transaction_type, transaction_result, account_id, account_number, amount, balance_snapshot, transacted_at, created_at`

func scanTransaction(row pgx.Row) (*Transaction, error) {
	var t Transaction
	err := row.Scan(&t.ID, &t.TransactionID, &t.Type, &t.Result, &t.AccountID,
		&t.AccountNumber, &t.Amount, &t.BalanceSnapshot, &t.TransactedAt, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repository) Save(ctx context.Context, tx Transaction) (*Transaction, error) {
	saved, err := scanTransaction(r.db.QueryRow(ctx,
		`INSERT INTO transactions (transaction_id, transaction_type, transaction_result, account_id, account_number, amount, balance_snapshot, transacted_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		 RETURNING `+transactionColumns,
		tx.TransactionID, tx.Type, tx.Result, tx.AccountID, tx.AccountNumber,
		tx.Amount, tx.BalanceSnapshot, tx.TransactedAt))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrDuplicateTransactionID
		}
		return nil, fmt.Errorf("transaction: save: %w", err)
	}
	return saved, nil
}

func (r *repository) FindByTransactionID(ctx context.Context, transactionID string) (*Transaction, error) {
	return scanTransaction(r.db.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE transaction_id = $1`,
		transactionID))
}

func (r *repository) FindLatestSuccessByAccount(ctx context.Context, accountID int64) (*Transaction, error) {
	return scanTransaction(r.db.QueryRow(ctx,
		`SELECT `+transactionColumns+`
		 FROM transactions
		 WHERE account_id = $1 AND transaction_result = 'S'
		 ORDER BY id DESC
		 LIMIT 1`,
		accountID))
}
