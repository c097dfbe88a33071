package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"

	apperrors "playarena/internal/errors"
	"playarena/internal/models"
	"playarena/internal/repositories"
	"playarena/internal/repositories/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	args := m.Called(ctx, key, dest)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value interface{}) error {
	return m.Called(ctx, key, value).Error(0)
}

func (m *MockCache) Delete(ctx context.Context, keys ...string) error {
	return m.Called(ctx, keys).Error(0)
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func seedUser(t *testing.T, store repositories.Store, balance string) *models.User {
	t.Helper()
	user := &models.User{Username: "player-" + balance + "-" + t.Name(), WalletBalance: d(balance)}
	require.NoError(t, store.Users().Create(context.Background(), user))
	return user
}

func walletOf(t *testing.T, store repositories.Store, userID uint) decimal.Decimal {
	t.Helper()
	user, err := store.Users().GetByID(context.Background(), userID)
	require.NoError(t, err)
	return user.WalletBalance
}

func assertConsistent(t *testing.T, svc Service, userID uint) {
	t.Helper()
	report, err := svc.Reconcile(context.Background(), userID)
	require.NoError(t, err)
	assert.True(t, report.Consistent, "stored %s replayed %s", report.Stored, report.Replayed)
}

func TestLedger_Debit(t *testing.T) {
	tests := []struct {
		name        string
		balance     string
		amount      string
		wantErr     error
		wantBalance string
	}{
		{name: "successful debit", balance: "100", amount: "30", wantBalance: "70"},
		{name: "exact balance", balance: "50", amount: "50", wantBalance: "0"},
		{name: "insufficient balance", balance: "20", amount: "50", wantErr: apperrors.ErrInsufficientBalance, wantBalance: "20"},
		{name: "zero amount", balance: "20", amount: "0", wantErr: apperrors.ErrInvalidAmount, wantBalance: "20"},
		{name: "negative amount", balance: "20", amount: "-5", wantErr: apperrors.ErrInvalidAmount, wantBalance: "20"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.New()
			svc := NewService(store, nil, nil, nil)
			user := seedUser(t, store, tt.balance)

			row, err := svc.Debit(context.Background(), nil, Entry{
				UserID:   user.ID,
				Amount:   d(tt.amount),
				Category: models.CategoryMatchEntry,
			})

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, row)
			} else {
				require.NoError(t, err)
				assert.Equal(t, models.TransactionDebit, row.Type)
				assert.Equal(t, models.TransactionCompleted, row.Status)
				assert.True(t, row.BalanceBefore.Equal(d(tt.balance)))
				assert.True(t, row.BalanceAfter.Equal(d(tt.wantBalance)))
				assert.Contains(t, row.Reference, "TXN-")
			}
			assert.True(t, walletOf(t, store, user.ID).Equal(d(tt.wantBalance)))
			assertConsistent(t, svc, user.ID)
		})
	}
}

func TestLedger_CreditCompletedAndPending(t *testing.T) {
	store := memory.New()
	svc := NewService(store, nil, nil, nil)
	user := seedUser(t, store, "10")
	ctx := context.Background()

	_, err := svc.Credit(ctx, nil, Entry{UserID: user.ID, Amount: d("5.50"), Category: models.CategoryMatchPrize})
	require.NoError(t, err)
	assert.True(t, walletOf(t, store, user.ID).Equal(d("15.50")))

	pending, err := svc.Credit(ctx, nil, Entry{
		UserID:    user.ID,
		Amount:    d("100"),
		Category:  models.CategoryDeposit,
		Status:    models.TransactionPending,
		Reference: models.Reference{Type: models.RefDeposit, ID: "order_1"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.TransactionPending, pending.Status)
	assert.True(t, walletOf(t, store, user.ID).Equal(d("15.50")), "pending credit must not be applied")
	assertConsistent(t, svc, user.ID)

	settled, err := svc.Settle(ctx, nil, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionCompleted, settled.Status)
	assert.NotNil(t, settled.SettledAt)
	assert.True(t, settled.BalanceAfter.Equal(d("115.50")))
	assert.True(t, walletOf(t, store, user.ID).Equal(d("115.50")))

	t.Run("settle is idempotent", func(t *testing.T) {
		again, err := svc.Settle(ctx, nil, pending.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TransactionCompleted, again.Status)
		assert.True(t, walletOf(t, store, user.ID).Equal(d("115.50")))
	})
	assertConsistent(t, svc, user.ID)
}

func TestLedger_FailPendingCredit(t *testing.T) {
	store := memory.New()
	svc := NewService(store, nil, nil, nil)
	user := seedUser(t, store, "0")
	ctx := context.Background()

	pending, err := svc.Credit(ctx, nil, Entry{UserID: user.ID, Amount: d("40"), Category: models.CategoryDeposit, Status: models.TransactionPending})
	require.NoError(t, err)

	failed, err := svc.Fail(ctx, nil, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionFailed, failed.Status)

	_, err = svc.Settle(ctx, nil, pending.ID)
	assert.ErrorIs(t, err, ErrNotPending)
	assert.True(t, walletOf(t, store, user.ID).IsZero())

	_, err = svc.Reverse(ctx, nil, pending.ID, "")
	assert.ErrorIs(t, err, ErrNotReversible)
	assertConsistent(t, svc, user.ID)
}

func TestLedger_Reverse(t *testing.T) {
	ctx := context.Background()

	t.Run("reversing an entry fee restores balance as a refund", func(t *testing.T) {
		store := memory.New()
		svc := NewService(store, nil, nil, nil)
		user := seedUser(t, store, "100")

		debit, err := svc.Debit(ctx, nil, Entry{
			UserID:    user.ID,
			Amount:    d("25"),
			Category:  models.CategoryMatchEntry,
			Reference: models.Reference{Type: models.RefMatch, ID: "7"},
		})
		require.NoError(t, err)

		reversal, err := svc.Reverse(ctx, nil, debit.ID, "admin correction")
		require.NoError(t, err)
		assert.Equal(t, models.TransactionCredit, reversal.Type)
		assert.Equal(t, models.CategoryMatchRefund, reversal.Category)
		assert.Equal(t, debit.ID, *reversal.ReversalOfID)
		assert.Equal(t, "7", reversal.RefID)
		assert.True(t, walletOf(t, store, user.ID).Equal(d("100")))

		orig, err := store.Transactions().GetByID(ctx, debit.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TransactionReversed, orig.Status)
		assert.Equal(t, reversal.ID, *orig.ReversedByID)

		again, err := svc.Reverse(ctx, nil, debit.ID, "")
		require.NoError(t, err)
		assert.Equal(t, reversal.ID, again.ID)
		assert.True(t, walletOf(t, store, user.ID).Equal(d("100")))

		_, err = svc.Reverse(ctx, nil, reversal.ID, "")
		assert.ErrorIs(t, err, ErrNotReversible)
		assertConsistent(t, svc, user.ID)
	})

	t.Run("reversing a pending hold releases it", func(t *testing.T) {
		store := memory.New()
		svc := NewService(store, nil, nil, nil)
		user := seedUser(t, store, "500")

		hold, err := svc.Debit(ctx, nil, Entry{UserID: user.ID, Amount: d("200"), Category: models.CategoryWithdrawal, Status: models.TransactionPending})
		require.NoError(t, err)
		assert.True(t, walletOf(t, store, user.ID).Equal(d("300")))
		assertConsistent(t, svc, user.ID)

		reversal, err := svc.Reverse(ctx, nil, hold.ID, "")
		require.NoError(t, err)
		assert.Equal(t, models.CategoryWithdrawalRefund, reversal.Category)
		assert.True(t, walletOf(t, store, user.ID).Equal(d("500")))
		assertConsistent(t, svc, user.ID)
	})

	t.Run("reversing a credit needs the funds back", func(t *testing.T) {
		store := memory.New()
		svc := NewService(store, nil, nil, nil)
		user := seedUser(t, store, "0")

		credit, err := svc.Credit(ctx, nil, Entry{UserID: user.ID, Amount: d("50"), Category: models.CategoryMatchPrize})
		require.NoError(t, err)
		_, err = svc.Debit(ctx, nil, Entry{UserID: user.ID, Amount: d("40"), Category: models.CategoryMatchEntry})
		require.NoError(t, err)

		_, err = svc.Reverse(ctx, nil, credit.ID, "")
		assert.ErrorIs(t, err, apperrors.ErrInsufficientBalance)
		assert.True(t, walletOf(t, store, user.ID).Equal(d("10")))
		assertConsistent(t, svc, user.ID)
	})

	t.Run("unknown transaction", func(t *testing.T) {
		svc := NewService(memory.New(), nil, nil, nil)
		_, err := svc.Reverse(ctx, nil, 999, "")
		assert.True(t, apperrors.IsKind(err, apperrors.KindNotFound))
	})
}

func TestLedger_PostingJoinsCallerTransaction(t *testing.T) {
	store := memory.New()
	svc := NewService(store, nil, nil, nil)
	user := seedUser(t, store, "100")
	ctx := context.Background()
	boom := errors.New("later step failed")

	err := store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		if _, err := svc.Debit(ctx, tx, Entry{UserID: user.ID, Amount: d("60"), Category: models.CategoryMatchEntry}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.True(t, walletOf(t, store, user.ID).Equal(d("100")))

	history, total, err := svc.History(ctx, user.ID, repositories.TransactionFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, history)
}

func TestLedger_ConcurrentDebitsNeverOverdraw(t *testing.T) {
	store := memory.New()
	svc := NewService(store, nil, nil, nil)
	user := seedUser(t, store, "100")

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Debit(context.Background(), nil, Entry{UserID: user.ID, Amount: d("10"), Category: models.CategoryMatchEntry})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	assert.True(t, walletOf(t, store, user.ID).IsZero())
	assertConsistent(t, svc, user.ID)
}

func TestLedger_BalanceCache(t *testing.T) {
	ctx := context.Background()

	t.Run("miss loads from store and fills cache", func(t *testing.T) {
		store := memory.New()
		cache := new(MockCache)
		svc := NewService(store, cache, nil, nil)
		user := seedUser(t, store, "42")
		key := balanceKey(user.ID)

		cache.On("Get", ctx, key, mock.Anything).Return(false, nil).Once()
		cache.On("Set", ctx, key, mock.AnythingOfType("*ledger.Balance")).Return(nil).Once()

		balance, err := svc.Balance(ctx, user.ID)
		require.NoError(t, err)
		assert.True(t, balance.Wallet.Equal(d("42")))
		cache.AssertExpectations(t)
	})

	t.Run("committed posting invalidates cache", func(t *testing.T) {
		store := memory.New()
		cache := new(MockCache)
		svc := NewService(store, cache, nil, nil)
		user := seedUser(t, store, "42")

		cache.On("Delete", mock.Anything, []string{balanceKey(user.ID)}).Return(nil).Once()

		_, err := svc.Credit(ctx, nil, Entry{UserID: user.ID, Amount: d("1"), Category: models.CategoryBonus})
		require.NoError(t, err)
		cache.AssertExpectations(t)
	})

	t.Run("rolled back posting leaves cache alone", func(t *testing.T) {
		store := memory.New()
		cache := new(MockCache)
		svc := NewService(store, cache, nil, nil)
		user := seedUser(t, store, "42")

		_ = store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
			if _, err := svc.Credit(ctx, tx, Entry{UserID: user.ID, Amount: d("1"), Category: models.CategoryBonus}); err != nil {
				return err
			}
			return errors.New("abort")
		})
		cache.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("posting between read and fill does not leave a stale entry", func(t *testing.T) {
		store := memory.New()
		cache := newMapCache()
		svc := NewService(store, cache, nil, nil)
		user := seedUser(t, store, "500")

		cache.beforeSet = func() {
			_, err := svc.Debit(ctx, nil, Entry{UserID: user.ID, Amount: d("100"), Category: models.CategoryMatchEntry})
			require.NoError(t, err)
		}

		first, err := svc.Balance(ctx, user.ID)
		require.NoError(t, err)
		assert.True(t, first.Wallet.Equal(d("500")))

		second, err := svc.Balance(ctx, user.ID)
		require.NoError(t, err)
		assert.True(t, second.Wallet.Equal(d("400")), "cached %s", second.Wallet)
		assert.True(t, walletOf(t, store, user.ID).Equal(second.Wallet))
	})
}

// mapCache is an in-process BalanceCache; beforeSet runs once ahead of the
// next write.
type mapCache struct {
	mu        sync.Mutex
	entries   map[string]Balance
	beforeSet func()
}

func newMapCache() *mapCache {
	return &mapCache{entries: map[string]Balance{}}
}

func (c *mapCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.entries[key]
	if ok {
		*dest.(*Balance) = b
	}
	return ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, value interface{}) error {
	if hook := c.beforeSet; hook != nil {
		c.beforeSet = nil
		hook()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = *value.(*Balance)
	return nil
}

func (c *mapCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.entries, key)
	}
	return nil
}

func TestReplay(t *testing.T) {
	txs := []models.Transaction{
		{Type: models.TransactionCredit, Amount: d("100"), Status: models.TransactionCompleted},
		{Type: models.TransactionDebit, Amount: d("30"), Status: models.TransactionPending},
		{Type: models.TransactionCredit, Amount: d("50"), Status: models.TransactionPending},
		{Type: models.TransactionCredit, Amount: d("70"), Status: models.TransactionFailed},
		{Type: models.TransactionDebit, Amount: d("10"), Status: models.TransactionReversed},
		{Type: models.TransactionCredit, Amount: d("10"), Status: models.TransactionCompleted},
	}
	assert.True(t, Replay(txs).Equal(d("70")))
}
