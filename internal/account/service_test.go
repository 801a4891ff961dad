package account

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/YujeongSon/AccountSystem/internal/shared"
	"github.com/YujeongSon/AccountSystem/internal/users"
)

type memoryUserRepo struct {
	users map[int64]*users.AccountUser
}

func newMemoryUserRepo(names ...string) *memoryUserRepo {
	r := &memoryUserRepo{users: make(map[int64]*users.AccountUser)}
	for i, name := range names {
		id := int64(i + 1)
		r.users[id] = &users.AccountUser{ID: id, Name: name}
	}
	return r
}

func (r *memoryUserRepo) FindByID(ctx context.Context, id int64) (*users.AccountUser, error) {
	return r.users[id], nil
}

type memoryAccountRepo struct {
	accounts map[int64]*Account
	nextID   int64
}

func newMemoryAccountRepo() *memoryAccountRepo {
	return &memoryAccountRepo{accounts: make(map[int64]*Account)}
}

func (r *memoryAccountRepo) Create(ctx context.Context, acct Account) (*Account, error) {
	number := FirstAccountNumber
	if r.nextID > 0 {
		last := r.accounts[r.nextID].Number
		n, err := strconv.ParseInt(last, 10, 64)
		if err != nil {
			return nil, err
		}
		number = strconv.FormatInt(n+1, 10)
	}
	r.nextID++
	acct.ID = r.nextID
	acct.Number = number
	r.accounts[acct.ID] = &acct
	return &acct, nil
}

func (r *memoryAccountRepo) FindByNumber(ctx context.Context, number string) (*Account, error) {
	for _, acct := range r.accounts {
		if acct.Number == number {
			return acct, nil
		}
	}
	return nil, nil
}

func (r *memoryAccountRepo) FindByID(ctx context.Context, id int64) (*Account, error) {
	return r.accounts[id], nil
}

func (r *memoryAccountRepo) ListByUser(ctx context.Context, userID int64) ([]Account, error) {
	var out []Account
	for id := int64(1); id <= r.nextID; id++ {
		if acct, ok := r.accounts[id]; ok && acct.UserID == userID {
			out = append(out, *acct)
		}
	}
	return out, nil
}

func (r *memoryAccountRepo) CountByUser(ctx context.Context, userID int64) (int, error) {
	count := 0
	for _, acct := range r.accounts {
		if acct.UserID == userID {
			count++
		}
	}
	return count, nil
}

func (r *memoryAccountRepo) Update(ctx context.Context, acct Account) (*Account, error) {
	r.accounts[acct.ID] = &acct
	return &acct, nil
}

func (r *memoryAccountRepo) ListIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	for id := int64(1); id <= r.nextID; id++ {
		if _, ok := r.accounts[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func newTestService(names ...string) (*Service, *memoryAccountRepo) {
	repo := newMemoryAccountRepo()
	svc := NewService(newMemoryUserRepo(names...), repo)
	return svc, repo
}

func TestCreateFirstAccountNumber(t *testing.T) {
	svc, _ := newTestService("Pobi")

	acct, err := svc.Create(context.Background(), 1, 10000)
	require.NoError(t, err)
	require.Equal(t, "1000000000", acct.Number)
	require.Equal(t, StatusInUse, acct.Status)
	require.Equal(t, int64(10000), acct.Balance)
	require.False(t, acct.RegisteredAt.IsZero())
}

func TestCreateIncrementsAccountNumber(t *testing.T) {
	svc, _ := newTestService("Pobi")
	ctx := context.Background()

	first, err := svc.Create(ctx, 1, 0)
	require.NoError(t, err)
	second, err := svc.Create(ctx, 1, 500)
	require.NoError(t, err)

	require.Equal(t, "1000000000", first.Number)
	require.Equal(t, "1000000001", second.Number)
}

func TestCreateUnknownUser(t *testing.T) {
	svc, _ := newTestService("Pobi")

	_, err := svc.Create(context.Background(), 99, 1000)
	require.ErrorIs(t, err, shared.ErrUserNotFound)
}

func TestCreateNegativeInitialBalance(t *testing.T) {
	svc, _ := newTestService("Pobi")

	_, err := svc.Create(context.Background(), 1, -1)
	require.ErrorIs(t, err, shared.ErrInvalidRequest)
}

func TestCreateAtAccountLimit(t *testing.T) {
	svc, _ := newTestService("Pobi")
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		_, err := svc.Create(ctx, 1, 0)
		require.NoError(t, err)
	}

	_, err := svc.Create(ctx, 1, 0)
	require.ErrorIs(t, err, shared.ErrMaxAccountsPerUser)
}

func TestCloseAccount(t *testing.T) {
	svc, repo := newTestService("Pobi")
	ctx := context.Background()

	acct, err := svc.Create(ctx, 1, 0)
	require.NoError(t, err)

	closedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.WithNow(func() time.Time { return closedAt })

	closed, err := svc.Close(ctx, 1, acct.Number)
	require.NoError(t, err)
	require.Equal(t, StatusUnregistered, closed.Status)
	require.NotNil(t, closed.UnregisteredAt)
	require.Equal(t, closedAt, *closed.UnregisteredAt)

	stored, err := repo.FindByID(ctx, acct.ID)
	require.NoError(t, err)
	require.Equal(t, StatusUnregistered, stored.Status)
}

func TestCloseRejections(t *testing.T) {
	svc, _ := newTestService("Pobi", "Harry")
	ctx := context.Background()

	funded, err := svc.Create(ctx, 1, 300)
	require.NoError(t, err)
	empty, err := svc.Create(ctx, 1, 0)
	require.NoError(t, err)

	_, err = svc.Close(ctx, 99, empty.Number)
	require.ErrorIs(t, err, shared.ErrUserNotFound)

	_, err = svc.Close(ctx, 1, "0000000000")
	require.ErrorIs(t, err, shared.ErrAccountNotFound)

	_, err = svc.Close(ctx, 2, empty.Number)
	require.ErrorIs(t, err, shared.ErrUserAccountMismatch)

	_, err = svc.Close(ctx, 1, funded.Number)
	require.ErrorIs(t, err, shared.ErrBalanceNotEmpty)

	_, err = svc.Close(ctx, 1, empty.Number)
	require.NoError(t, err)
	_, err = svc.Close(ctx, 1, empty.Number)
	require.ErrorIs(t, err, shared.ErrAccountAlreadyUnregistered)
}

func TestListByUser(t *testing.T) {
	svc, _ := newTestService("Pobi", "Harry")
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, 100)
	require.NoError(t, err)
	_, err = svc.Create(ctx, 1, 200)
	require.NoError(t, err)
	_, err = svc.Create(ctx, 2, 300)
	require.NoError(t, err)

	accounts, err := svc.ListByUser(ctx, 1)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	require.Equal(t, int64(100), accounts[0].Balance)
	require.Equal(t, int64(200), accounts[1].Balance)

	_, err = svc.ListByUser(ctx, 99)
	require.ErrorIs(t, err, shared.ErrUserNotFound)
}
