package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"playarena/internal/models"
	"playarena/internal/repositories"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUser(t *testing.T, s *Store, name string, balance int64) *models.User {
	t.Helper()
	u := &models.User{Username: name, WalletBalance: decimal.NewFromInt(balance)}
	require.NoError(t, s.Users().Create(context.Background(), u))
	return u
}

func TestTransactionRollbackRestoresState(t *testing.T) {
	ctx := context.Background()
	s := New()
	u := seedUser(t, s, "alice", 100)

	boom := errors.New("boom")
	err := s.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		locked, err := tx.Users().GetByIDForUpdate(ctx, u.ID)
		require.NoError(t, err)
		require.NoError(t, tx.Users().UpdateBalance(ctx, locked, decimal.NewFromInt(40)))
		require.NoError(t, tx.Transactions().Create(ctx, &models.Transaction{UserID: u.ID, Amount: decimal.NewFromInt(60)}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.WalletBalance.Equal(decimal.NewFromInt(100)))

	_, total, err := s.Transactions().ListByUser(ctx, u.ID, repositories.TransactionFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestNestedRollbackKeepsOuterWrites(t *testing.T) {
	ctx := context.Background()
	s := New()
	u := seedUser(t, s, "bob", 10)

	err := s.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		require.NoError(t, tx.Users().UpdateFlags(ctx, u.ID, true, false))
		inner := tx.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
			require.NoError(t, tx.Users().UpdateFlags(ctx, u.ID, true, true))
			return errors.New("inner failed")
		})
		assert.Error(t, inner)
		return nil
	})
	require.NoError(t, err)

	got, err := s.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.IsKYCVerified)
	assert.False(t, got.IsBanned)
}

func TestOnCommitRunsOnlyAfterCommit(t *testing.T) {
	ctx := context.Background()
	s := New()

	var ran []string
	err := s.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		tx.OnCommit(func() { ran = append(ran, "first") })
		assert.Empty(t, ran)
		return tx.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
			tx.OnCommit(func() { ran = append(ran, "nested") })
			return nil
		})
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "nested"}, ran)

	ran = nil
	err = s.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		tx.OnCommit(func() { ran = append(ran, "never") })
		return errors.New("rolled back")
	})
	require.Error(t, err)
	assert.Empty(t, ran)

	// outside a transaction the hook runs straight away
	s.OnCommit(func() { ran = append(ran, "now") })
	assert.Equal(t, []string{"now"}, ran)
}

func TestStaleVersionRejected(t *testing.T) {
	ctx := context.Background()
	s := New()
	u := seedUser(t, s, "carol", 50)

	first, err := s.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	second, err := s.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)

	require.NoError(t, s.Users().UpdateBalance(ctx, first, decimal.NewFromInt(20)))
	err = s.Users().UpdateBalance(ctx, second, decimal.NewFromInt(30))
	assert.ErrorIs(t, err, repositories.ErrStaleVersion)
}

func TestDuplicates(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedUser(t, s, "dave", 0)

	err := s.Users().Create(ctx, &models.User{Username: "dave"})
	assert.ErrorIs(t, err, repositories.ErrDuplicate)

	m := &models.Match{Title: "Duo", MaxSlots: 2, Status: models.MatchRegistrationOpen, ScheduledAt: time.Now().Add(time.Hour)}
	require.NoError(t, s.Matches().Create(ctx, m))

	require.NoError(t, s.Matches().AddParticipant(ctx, &models.MatchParticipant{MatchID: m.ID, UserID: 1, SlotNumber: 1}))
	assert.ErrorIs(t, s.Matches().AddParticipant(ctx, &models.MatchParticipant{MatchID: m.ID, UserID: 1, SlotNumber: 2}), repositories.ErrDuplicate)
	assert.ErrorIs(t, s.Matches().AddParticipant(ctx, &models.MatchParticipant{MatchID: m.ID, UserID: 2, SlotNumber: 1}), repositories.ErrDuplicate)

	slots, err := s.Matches().UsedSlots(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, slots)
}

func TestIncrementFilledStopsAtCapacity(t *testing.T) {
	ctx := context.Background()
	s := New()
	m := &models.Match{Title: "Solo", MaxSlots: 1, Status: models.MatchRegistrationOpen, ScheduledAt: time.Now()}
	require.NoError(t, s.Matches().Create(ctx, m))

	ok, err := s.Matches().IncrementFilled(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Matches().IncrementFilled(ctx, m.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Matches().DecrementFilled(ctx, m.ID))
	got, err := s.Matches().GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Zero(t, got.FilledSlots)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := New().ExecuteInTransaction(ctx, func(repositories.Store) error {
		t.Fatal("must not run")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
