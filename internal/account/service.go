package account

import (
	"context"
	"time"

	"github.com/YujeongSon/AccountSystem/internal/shared"
	"github.com/YujeongSon/AccountSystem/internal/users"
)

const maxAccountsPerUser = 10

// Service handles the account lifecycle outside the transaction engine:
// opening, closing, and listing accounts.
type Service struct {
	userRepo users.Repository
	repo     Repository
	now      func() time.Time
}

// NewService builds Service instance.
func NewService(userRepo users.Repository, repo Repository) *Service {
	return &Service{
		userRepo: userRepo,
		repo:     repo,
		now:      time.Now,
	}
}

// WithNow overrides the clock for deterministic tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Create opens a new account for the user with the initial balance deposited.
func (s *Service) Create(ctx context.Context, userID, initialBalance int64) (*Account, error) {
	if initialBalance < 0 {
		return nil, shared.ErrInvalidRequest
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, shared.ErrUserNotFound
	}

	count, err := s.repo.CountByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if count >= maxAccountsPerUser {
		return nil, shared.ErrMaxAccountsPerUser
	}

	return s.repo.Create(ctx, Account{
		UserID:       user.ID,
		Status:       StatusInUse,
		Balance:      initialBalance,
		RegisteredAt: s.now(),
	})
}

// Close unregisters the account. Accounts are never deleted, only marked
// unregistered, and only when the balance is empty.
func (s *Service) Close(ctx context.Context, userID int64, accountNumber string) (*Account, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, shared.ErrUserNotFound
	}

	acct, err := s.repo.FindByNumber(ctx, accountNumber)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, shared.ErrAccountNotFound
	}
	if acct.UserID != user.ID {
		return nil, shared.ErrUserAccountMismatch
	}
	if acct.Status == StatusUnregistered {
		return nil, shared.ErrAccountAlreadyUnregistered
	}
	if acct.Balance > 0 {
		return nil, shared.ErrBalanceNotEmpty
	}

	return s.repo.Update(ctx, acct.Unregister(s.now()))
}

// ListByUser returns all accounts the user holds.
func (s *Service) ListByUser(ctx context.Context, userID int64) ([]Account, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, shared.ErrUserNotFound
	}
	return s.repo.ListByUser(ctx, user.ID)
}
