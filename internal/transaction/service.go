package transaction

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/YujeongSon/AccountSystem/internal/account"
	"github.com/YujeongSon/AccountSystem/internal/platform/lock"
	"github.com/YujeongSon/AccountSystem/internal/shared"
	"github.com/YujeongSon/AccountSystem/internal/users"
)

const (
	defaultLockWait  = 1 * time.Second
	defaultLockLease = 15 * time.Second

	cancelWindowYears = 1
)

// IntegrityScheduler enqueues an out-of-band ledger reconciliation for one
// account. The engine calls it when the dual write is left half done.
type IntegrityScheduler interface {
	EnqueueLedgerScan(ctx context.Context, accountID int64) error
}

// Service is the balance transaction engine. It serializes mutations per
// account number through a distributed lock, validates every request against
// the freshly read account state, and appends one ledger entry per attempt
// that reached account resolution.
type Service struct {
	logger      *slog.Logger
	userRepo    users.Repository
	accountRepo account.Repository
	ledger      Repository
	locks       lock.Locker
	scans       IntegrityScheduler

	lockWait  time.Duration
	lockLease time.Duration
	now       func() time.Time
}

// NewService builds the engine.
func NewService(
	logger *slog.Logger,
	userRepo users.Repository,
	accountRepo account.Repository,
	ledger Repository,
	locks lock.Locker,
) *Service {
	return &Service{
		logger:      logger,
		userRepo:    userRepo,
		accountRepo: accountRepo,
		ledger:      ledger,
		locks:       locks,
		lockWait:    defaultLockWait,
		lockLease:   defaultLockLease,
		now:         time.Now,
	}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// WithLockTimeouts overrides the lock wait window and lease.
func (s *Service) WithLockTimeouts(wait, lease time.Duration) {
	if wait > 0 {
		s.lockWait = wait
	}
	if lease > 0 {
		s.lockLease = lease
	}
}

// WithIntegrityScheduler wires the reconciliation queue.
func (s *Service) WithIntegrityScheduler(scans IntegrityScheduler) {
	s.scans = scans
}

// UseBalance debits amount from the account after the full precondition
// chain passes. Validation runs against the account state read after the
// lock is held, never against anything stale.
func (s *Service) UseBalance(ctx context.Context, userID int64, accountNumber string, amount int64) (Result, error) {
	if amount <= 0 {
		return Result{}, shared.ErrInvalidRequest
	}

	release, err := s.acquire(ctx, accountNumber)
	if err != nil {
		return Result{}, err
	}
	defer release()

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return Result{}, err
	}
	if user == nil {
		return Result{}, shared.ErrUserNotFound
	}

	acct, err := s.accountRepo.FindByNumber(ctx, accountNumber)
	if err != nil {
		return Result{}, err
	}
	if acct == nil {
		return Result{}, shared.ErrAccountNotFound
	}
	if acct.UserID != user.ID {
		return Result{}, shared.ErrUserAccountMismatch
	}
	if acct.Status != account.StatusInUse {
		return Result{}, shared.ErrAccountAlreadyUnregistered
	}

	updated, err := acct.ApplyUse(amount)
	if err != nil {
		return Result{}, err
	}

	return s.commit(ctx, *acct, updated, TypeUse, amount)
}

// CancelBalance reverses a prior use transaction in full, crediting the
// amount back to the account.
func (s *Service) CancelBalance(ctx context.Context, transactionID, accountNumber string, amount int64) (Result, error) {
	if amount <= 0 {
		return Result{}, shared.ErrInvalidRequest
	}

	release, err := s.acquire(ctx, accountNumber)
	if err != nil {
		return Result{}, err
	}
	defer release()

	original, err := s.ledger.FindByTransactionID(ctx, transactionID)
	if err != nil {
		return Result{}, err
	}
	if original == nil {
		return Result{}, shared.ErrTransactionNotFound
	}

	acct, err := s.accountRepo.FindByNumber(ctx, accountNumber)
	if err != nil {
		return Result{}, err
	}
	if acct == nil {
		return Result{}, shared.ErrAccountNotFound
	}
	if original.AccountID == nil || *original.AccountID != acct.ID {
		return Result{}, shared.ErrTransactionAccountMismatch
	}
	if original.Type != TypeUse || original.Result != ResultSuccess {
		return Result{}, shared.ErrInvalidRequest
	}
	if original.Amount != amount {
		return Result{}, shared.ErrCancelMustBeFull
	}
	if original.TransactedAt.Before(s.now().AddDate(-cancelWindowYears, 0, 0)) {
		return Result{}, shared.ErrTooOldToCancel
	}

	updated, err := acct.ApplyCancel(amount)
	if err != nil {
		return Result{}, err
	}

	return s.commit(ctx, *acct, updated, TypeCancel, amount)
}

// QueryTransaction returns the ledger entry for the transaction id. Failed
// attempts are queryable like successful ones.
func (s *Service) QueryTransaction(ctx context.Context, transactionID string) (Result, error) {
	tx, err := s.ledger.FindByTransactionID(ctx, transactionID)
	if err != nil {
		return Result{}, err
	}
	if tx == nil {
		return Result{}, shared.ErrTransactionNotFound
	}
	return resultFrom(tx), nil
}

// RecordFailedUse appends a failure entry for a rejected use attempt. It
// snapshots the unchanged balance best-effort and tolerates the account
// being unresolvable; no lock is taken because nothing is mutated.
func (s *Service) RecordFailedUse(ctx context.Context, accountNumber string, amount int64) error {
	return s.recordFailure(ctx, TypeUse, accountNumber, amount)
}

// RecordFailedCancel appends a failure entry for a rejected cancel attempt.
func (s *Service) RecordFailedCancel(ctx context.Context, accountNumber string, amount int64) error {
	return s.recordFailure(ctx, TypeCancel, accountNumber, amount)
}

// ShouldRecordUseFailure reports whether a failed use attempt reached
// account resolution and therefore belongs in the ledger.
func ShouldRecordUseFailure(err error) bool {
	var domainErr *shared.Error
	if !errors.As(err, &domainErr) {
		return false
	}
	switch domainErr.Code {
	case shared.CodeUserAccountMismatch,
		shared.CodeAccountAlreadyUnregistered,
		shared.CodeAmountExceedsBalance:
		return true
	}
	return false
}

// ShouldRecordCancelFailure reports whether a failed cancel attempt reached
// account resolution and therefore belongs in the ledger.
func ShouldRecordCancelFailure(err error) bool {
	var domainErr *shared.Error
	if !errors.As(err, &domainErr) {
		return false
	}
	switch domainErr.Code {
	case shared.CodeTransactionAccountMismatch,
		shared.CodeCancelMustBeFull,
		shared.CodeTooOldToCancel:
		return true
	}
	return false
}

func (s *Service) acquire(ctx context.Context, accountNumber string) (func(), error) {
	key := shared.AccountLockKey(accountNumber)
	lease, err := s.locks.Acquire(ctx, key, s.lockWait, s.lockLease)
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return nil, shared.ErrLockUnavailable
		}
		return nil, err
	}
	release := func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("release account lock", slog.String("key", key), slog.Any("error", err))
		}
	}
	return release, nil
}

// commit persists the mutated account and appends the success ledger entry.
// The two writes are one logical unit; when the second fails the account is
// already updated and the mismatch is handed to reconciliation.
func (s *Service) commit(ctx context.Context, before, updated account.Account, txType Type, amount int64) (Result, error) {
	persisted, err := s.accountRepo.Update(ctx, updated)
	if err != nil {
		return Result{}, err
	}

	snapshot := persisted.Balance
	saved, err := s.ledger.Save(ctx, Transaction{
		TransactionID:   newTransactionID(),
		Type:            txType,
		Result:          ResultSuccess,
		AccountID:       &persisted.ID,
		AccountNumber:   persisted.Number,
		Amount:          amount,
		BalanceSnapshot: &snapshot,
		TransactedAt:    s.now(),
	})
	if err != nil {
		s.logger.Error("ledger append failed after balance update",
			slog.String("account_number", persisted.Number),
			slog.String("type", string(txType)),
			slog.Int64("amount", amount),
			slog.Int64("balance_before", before.Balance),
			slog.Int64("balance_after", persisted.Balance),
			slog.Any("error", err))
		if s.scans != nil {
			if scanErr := s.scans.EnqueueLedgerScan(context.WithoutCancel(ctx), persisted.ID); scanErr != nil {
				s.logger.Error("enqueue ledger scan", slog.Any("error", scanErr))
			}
		}
		return Result{}, shared.ErrLedgerInconsistency
	}

	return resultFrom(saved), nil
}

func (s *Service) recordFailure(ctx context.Context, txType Type, accountNumber string, amount int64) error {
	entry := Transaction{
		TransactionID: newTransactionID(),
		Type:          txType,
		Result:        ResultFailure,
		AccountNumber: accountNumber,
		Amount:        amount,
		TransactedAt:  s.now(),
	}

	acct, err := s.accountRepo.FindByNumber(ctx, accountNumber)
	if err != nil {
		s.logger.Warn("failure snapshot read", slog.String("account_number", accountNumber), slog.Any("error", err))
	} else if acct != nil {
		snapshot := acct.Balance
		entry.AccountID = &acct.ID
		entry.BalanceSnapshot = &snapshot
	}

	if _, err := s.ledger.Save(ctx, entry); err != nil {
		return err
	}
	return nil
}

func newTransactionID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
