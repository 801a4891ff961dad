package account

import (
	"time"

	"github.com/YujeongSon/AccountSystem/internal/shared"
)

// Status enumerates account lifecycle states.
type Status string

const (
	StatusInUse        Status = "IN_USE"
	StatusUnregistered Status = "UNREGISTERED"
)

// FirstAccountNumber is issued when no account exists yet; subsequent numbers
// increment the last issued number by one.
const FirstAccountNumber = "1000000000"

// Account models a numbered account holding a single balance in the smallest
// currency unit. Balance is mutated only through ApplyUse and ApplyCancel so
// the transaction engine controls every write under its lock.
type Account struct {
	ID             int64
	UserID         int64
	Number         string
	Status         Status
	Balance        int64
	RegisteredAt   time.Time
	UnregisteredAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ApplyUse returns a copy with amount debited. The balance never goes
// negative.
func (a Account) ApplyUse(amount int64) (Account, error) {
	if amount > a.Balance {
		return a, shared.ErrAmountExceedsBalance
	}
	a.Balance -= amount
	return a, nil
}

// ApplyCancel returns a copy with amount credited back.
func (a Account) ApplyCancel(amount int64) (Account, error) {
	if amount < 0 {
		return a, shared.ErrInvalidRequest
	}
	a.Balance += amount
	return a, nil
}

// Unregister marks the account closed at the given time.
func (a Account) Unregister(at time.Time) Account {
	a.Status = StatusUnregistered
	a.UnregisteredAt = &at
	return a
}
