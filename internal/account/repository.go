package account

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/YujeongSon/AccountSystem/internal/platform/db"
)

// ErrDuplicateAccountNumber indicates an insert collided on the account
// number unique constraint. Assignment is serialized through an advisory
// lock, so this only fires when rows are inserted outside Create.
var ErrDuplicateAccountNumber = errors.New("account: duplicate account number")

// accountNumberLockID keys the advisory lock that serializes account number
// assignment across all instances.
const accountNumberLockID = int64(730_550_101)

// Repository defines data access for accounts.
type Repository interface {
	// Create persists a new account, assigning the next account number.
	Create(ctx context.Context, acct Account) (*Account, error)
	// FindByNumber returns the account or nil when the number is unknown.
	FindByNumber(ctx context.Context, number string) (*Account, error)
	// FindByID returns the account or nil when the id is unknown.
	FindByID(ctx context.Context, id int64) (*Account, error)
	// ListByUser returns all accounts owned by the user, oldest first.
	ListByUser(ctx context.Context, userID int64) ([]Account, error)
	// CountByUser returns how many accounts the user holds.
	CountByUser(ctx context.Context, userID int64) (int, error)
	// Update persists balance and status changes for an existing account.
	Update(ctx context.Context, acct Account) (*Account, error)
	// ListIDs returns the ids of every account.
	ListIDs(ctx context.Context) ([]int64, error)
}

type repository struct {
	db *pgxpool.Pool
}

// NewRepository builds a postgres-backed Repository.
func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const accountColumns = `id, user_id, account_number, status, balance, registered_at, unregistered_at, created_at, updated_at`

func scanAccount(row pgx.Row) (*Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.UserID, &a.Number, &a.Status, &a.Balance,
		&a.RegisteredAt, &a.UnregisteredAt, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create assigns the next sequential account number inside a transaction.
// The advisory lock serializes assignment even when the table is empty and
// there is no row to lock.
func (r *repository) Create(ctx context.Context, acct Account) (*Account, error) {
	var created *Account
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, accountNumberLockID); err != nil {
			return err
		}

		var last string
		err := tx.QueryRow(ctx,
			`SELECT account_number FROM accounts ORDER BY id DESC LIMIT 1`,
		).Scan(&last)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			acct.Number = FirstAccountNumber
		case err != nil:
			return err
		default:
			n, convErr := strconv.ParseInt(last, 10, 64)
			if convErr != nil {
				return convErr
			}
			acct.Number = strconv.FormatInt(n+1, 10)
		}

		created, err = scanAccount(tx.QueryRow(ctx,
			`INSERT INTO accounts (user_id, account_number, status, balance, registered_at, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, now(), now())
			 RETURNING `+accountColumns,
			acct.UserID, acct.Number, acct.Status, acct.Balance, acct.RegisteredAt,
		))
		return err
	})
	if db.IsUniqueViolation(err) {
		return nil, ErrDuplicateAccountNumber
	}
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *repository) FindByNumber(ctx context.Context, number string) (*Account, error) {
	return scanAccount(r.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE account_number = $1`, number))
}

func (r *repository) FindByID(ctx context.Context, id int64) (*Account, error) {
	return scanAccount(r.db.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
}

func (r *repository) ListByUser(ctx context.Context, userID int64) ([]Account, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		var a Account
		err := rows.Scan(&a.ID, &a.UserID, &a.Number, &a.Status, &a.Balance,
			&a.RegisteredAt, &a.UnregisteredAt, &a.CreatedAt, &a.UpdatedAt)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *repository) CountByUser(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT count(*) FROM accounts WHERE user_id = $1`, userID).Scan(&count)
	return count, err
}

func (r *repository) Update(ctx context.Context, acct Account) (*Account, error) {
	return scanAccount(r.db.QueryRow(ctx,
		`UPDATE accounts
		 SET status = $2, balance = $3, unregistered_at = $4, updated_at = now()
		 WHERE id = $1
		 RETURNING `+accountColumns,
		acct.ID, acct.Status, acct.Balance, acct.UnregisteredAt))
}

func (r *repository) ListIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT id FROM accounts ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
