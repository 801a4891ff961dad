package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/YujeongSon/AccountSystem/internal/account"
	"github.com/YujeongSon/AccountSystem/internal/transaction"
)

const scanConcurrency = 4

// LedgerScanner cross-checks account balances against the ledger: the most
// recent successful entry's balance snapshot must equal the stored balance.
// A mismatch means a mutation landed without its ledger entry (the engine's
// dual-write gap) and needs manual reconciliation.
type LedgerScanner struct {
	logger   *slog.Logger
	accounts account.Repository
	ledger   transaction.Repository
}

// NewLedgerScanner constructs a LedgerScanner.
func NewLedgerScanner(logger *slog.Logger, accounts account.Repository, ledger transaction.Repository) *LedgerScanner {
	return &LedgerScanner{logger: logger, accounts: accounts, ledger: ledger}
}

// Scan checks one account, or every account when accountID is 0.
func (s *LedgerScanner) Scan(ctx context.Context, accountID int64) error {
	if accountID != 0 {
		return s.scanOne(ctx, accountID)
	}

	ids, err := s.accounts.ListIDs(ctx)
	if err != nil {
		return fmt.Errorf("jobs: list accounts: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(scanConcurrency)
	for _, id := range ids {
		g.Go(func() error {
			return s.scanOne(ctx, id)
		})
	}
	return g.Wait()
}

func (s *LedgerScanner) scanOne(ctx context.Context, accountID int64) error {
	acct, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return err
	}
	if acct == nil {
		s.logger.Warn("integrity scan: account vanished", slog.Int64("account_id", accountID))
		return nil
	}

	latest, err := s.ledger.FindLatestSuccessByAccount(ctx, accountID)
	if err != nil {
		return err
	}
	if latest == nil {
		// No successful transaction yet; the balance is still the initial
		// deposit and there is nothing to cross-check.
		return nil
	}
	if latest.BalanceSnapshot == nil || *latest.BalanceSnapshot != acct.Balance {
		s.logger.Error("ledger inconsistency detected",
			slog.Int64("account_id", accountID),
			slog.String("account_number", acct.Number),
			slog.Int64("balance", acct.Balance),
			slog.Any("latest_snapshot", latest.BalanceSnapshot),
			slog.String("transaction_id", latest.TransactionID))
	}
	return nil
}

// HandleLedgerIntegrityTask adapts the scanner to an Asynq handler.
func HandleLedgerIntegrityTask(scanner *LedgerScanner) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload LedgerIntegrityPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		return scanner.Scan(ctx, payload.AccountID)
	}
}
