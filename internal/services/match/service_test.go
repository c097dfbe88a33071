package match

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	apperrors "playarena/internal/errors"
	"playarena/internal/models"
	"playarena/internal/repositories"
	"playarena/internal/repositories/memory"
	"playarena/internal/services/audit"
	"playarena/internal/services/ledger"
	"playarena/internal/services/notification"
	"playarena/internal/services/refund"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, notice notification.Notice) {
	m.Called(ctx, notice)
}

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) Record(ctx context.Context, entry audit.Entry) {
	m.Called(ctx, entry)
}

// flakyLedger fails credits for one user while failing is set.
type flakyLedger struct {
	ledger.Service
	mu      sync.Mutex
	userID  uint
	failing bool
}

func (l *flakyLedger) setFailing(v bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failing = v
}

func (l *flakyLedger) Credit(ctx context.Context, tx repositories.Store, entry ledger.Entry) (*models.Transaction, error) {
	l.mu.Lock()
	fail := l.failing && entry.UserID == l.userID
	l.mu.Unlock()
	if fail {
		return nil, errors.New("payment store unavailable")
	}
	return l.Service.Credit(ctx, tx, entry)
}

type fixture struct {
	ctx      context.Context
	store    *memory.Store
	ledger   ledger.Service
	svc      *Service
	notifier *MockNotifier
	audit    *MockRecorder
	now      time.Time
	users    int
}

const adminID uint = 9000

func newFixture(t *testing.T, wrap ...func(ledger.Service) ledger.Service) *fixture {
	t.Helper()
	f := &fixture{
		ctx:      context.Background(),
		store:    memory.New(),
		notifier: new(MockNotifier),
		audit:    new(MockRecorder),
		now:      time.Date(2026, 5, 10, 18, 0, 0, 0, time.UTC),
	}
	f.notifier.On("Notify", mock.Anything, mock.Anything).Return()
	f.audit.On("Record", mock.Anything, mock.Anything).Return()

	f.ledger = ledger.NewService(f.store, nil, nil, nil)
	ledgerSvc := f.ledger
	for _, w := range wrap {
		ledgerSvc = w(ledgerSvc)
	}
	f.svc = NewService(f.store, ledgerSvc, refund.Default(), f.notifier, f.audit, Config{}, nil,
		WithClock(func() time.Time { return f.now }))
	return f
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (f *fixture) user(t *testing.T, balance string) *models.User {
	t.Helper()
	f.users++
	u := &models.User{Username: fmt.Sprintf("player%d", f.users), WalletBalance: d(balance)}
	require.NoError(t, f.store.Users().Create(f.ctx, u))
	return u
}

func (f *fixture) openMatch(t *testing.T, maxSlots int, fee string, startsIn time.Duration) *models.Match {
	t.Helper()
	m, err := f.svc.Create(f.ctx, adminID, MatchInput{
		Title:       "Squad Scrim",
		Game:        "bgmi",
		MaxSlots:    maxSlots,
		EntryFee:    d(fee),
		ScheduledAt: f.now.Add(startsIn),
		OpenNow:     true,
	})
	require.NoError(t, err)
	return m
}

func (f *fixture) join(t *testing.T, m *models.Match, u *models.User) *JoinResult {
	t.Helper()
	res, err := f.svc.Join(f.ctx, m.ID, u.ID, JoinRequest{InGameID: fmt.Sprintf("ign-%d", u.ID), InGameName: u.Username})
	require.NoError(t, err)
	return res
}

func (f *fixture) balance(t *testing.T, u *models.User) decimal.Decimal {
	t.Helper()
	got, err := f.store.Users().GetByID(f.ctx, u.ID)
	require.NoError(t, err)
	return got.WalletBalance
}

func (f *fixture) assertMatchInvariants(t *testing.T, matchID uint) {
	t.Helper()
	m, err := f.store.Matches().GetWithParticipants(f.ctx, matchID)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, m.FilledSlots, 0)
	assert.LessOrEqual(t, m.FilledSlots, m.MaxSlots)
	assert.Equal(t, len(m.Participants), m.FilledSlots)

	users := map[uint]bool{}
	slots := map[int]bool{}
	for _, p := range m.Participants {
		assert.False(t, users[p.UserID], "user %d joined twice", p.UserID)
		assert.False(t, slots[p.SlotNumber], "slot %d assigned twice", p.SlotNumber)
		users[p.UserID] = true
		slots[p.SlotNumber] = true
	}
}

func (f *fixture) assertLedgerConsistent(t *testing.T, users ...*models.User) {
	t.Helper()
	for _, u := range users {
		report, err := f.ledger.Reconcile(f.ctx, u.ID)
		require.NoError(t, err)
		assert.True(t, report.Consistent, "user %d stored %s replayed %s", u.ID, report.Stored, report.Replayed)
	}
}

func TestJoin_FillsSlotsInOrderAndRejectsWhenFull(t *testing.T) {
	f := newFixture(t)
	m := f.openMatch(t, 2, "50", 48*time.Hour)
	a, b, c := f.user(t, "500"), f.user(t, "500"), f.user(t, "500")

	resA := f.join(t, m, a)
	assert.Equal(t, 1, resA.SlotNumber)
	assert.True(t, resA.Balance.Equal(d("450")))

	resB := f.join(t, m, b)
	assert.Equal(t, 2, resB.SlotNumber)
	assert.True(t, f.balance(t, b).Equal(d("450")))

	_, err := f.svc.Join(f.ctx, m.ID, c.ID, JoinRequest{InGameID: "c", InGameName: "c"})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindNotJoinable))
	assert.ErrorIs(t, err, ErrMatchFull)
	assert.NotErrorIs(t, err, ErrRegistrationClosed)
	assert.True(t, f.balance(t, c).Equal(d("500")))

	f.assertMatchInvariants(t, m.ID)
	f.assertLedgerConsistent(t, a, b, c)
}

func TestJoin_InsufficientBalanceRollsBackSlot(t *testing.T) {
	f := newFixture(t)
	m := f.openMatch(t, 4, "50", 48*time.Hour)
	u := f.user(t, "10")

	_, err := f.svc.Join(f.ctx, m.ID, u.ID, JoinRequest{InGameID: "x", InGameName: "x"})
	assert.ErrorIs(t, err, apperrors.ErrInsufficientBalance)
	assert.True(t, f.balance(t, u).Equal(d("10")))

	stored, err := f.store.Matches().GetWithParticipants(f.ctx, m.ID)
	require.NoError(t, err)
	assert.Zero(t, stored.FilledSlots)
	assert.Empty(t, stored.Participants)
	f.assertLedgerConsistent(t, u)
}

func TestJoin_Preconditions(t *testing.T) {
	f := newFixture(t)
	open := f.openMatch(t, 4, "10", 48*time.Hour)
	upcoming, err := f.svc.Create(f.ctx, adminID, MatchInput{Title: "Later", MaxSlots: 4, EntryFee: d("10"), ScheduledAt: f.now.Add(72 * time.Hour)})
	require.NoError(t, err)

	joined := f.user(t, "100")
	f.join(t, open, joined)

	banned := f.user(t, "100")
	require.NoError(t, f.store.Users().UpdateFlags(f.ctx, banned.ID, false, true))

	tests := []struct {
		name    string
		matchID uint
		userID  uint
		req     JoinRequest
		check   func(t *testing.T, err error)
	}{
		{
			name:    "missing in-game id",
			matchID: open.ID,
			userID:  f.user(t, "100").ID,
			req:     JoinRequest{InGameName: "name"},
			check: func(t *testing.T, err error) {
				assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
			},
		},
		{
			name:    "registration not open",
			matchID: upcoming.ID,
			userID:  f.user(t, "100").ID,
			req:     JoinRequest{InGameID: "id", InGameName: "name"},
			check: func(t *testing.T, err error) {
				assert.True(t, apperrors.IsKind(err, apperrors.KindNotJoinable))
				assert.ErrorIs(t, err, ErrRegistrationClosed)
				assert.NotErrorIs(t, err, ErrMatchFull)
			},
		},
		{
			name:    "already joined",
			matchID: open.ID,
			userID:  joined.ID,
			req:     JoinRequest{InGameID: "id", InGameName: "name"},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, apperrors.ErrAlreadyJoined)
			},
		},
		{
			name:    "banned user",
			matchID: open.ID,
			userID:  banned.ID,
			req:     JoinRequest{InGameID: "id", InGameName: "name"},
			check: func(t *testing.T, err error) {
				assert.True(t, apperrors.IsKind(err, apperrors.KindForbidden))
			},
		},
		{
			name:    "unknown match",
			matchID: 424242,
			userID:  joined.ID,
			req:     JoinRequest{InGameID: "id", InGameName: "name"},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrMatchNotFound)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Join(f.ctx, tt.matchID, tt.userID, tt.req)
			require.Error(t, err)
			tt.check(t, err)
		})
	}

	assert.True(t, f.balance(t, joined).Equal(d("90")))
	assert.True(t, f.balance(t, banned).Equal(d("100")))
	f.assertMatchInvariants(t, open.ID)
}

func TestJoin_FreeMatchPostsNoTransaction(t *testing.T) {
	f := newFixture(t)
	m := f.openMatch(t, 2, "0", time.Hour)
	u := f.user(t, "0")

	res := f.join(t, m, u)
	assert.Nil(t, res.TransactionID)
	assert.True(t, res.Balance.IsZero())

	txs, total, err := f.ledger.History(f.ctx, u.ID, repositories.TransactionFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, txs)
}

func TestJoin_ConcurrentJoinsNeverOverfill(t *testing.T) {
	f := newFixture(t)
	m := f.openMatch(t, 5, "10", time.Hour)

	users := make([]*models.User, 20)
	for i := range users {
		users[i] = f.user(t, "100")
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for _, u := range users {
		wg.Add(1)
		go func(u *models.User) {
			defer wg.Done()
			_, err := f.svc.Join(f.ctx, m.ID, u.ID, JoinRequest{InGameID: "id", InGameName: "name"})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.True(t, apperrors.IsKind(err, apperrors.KindNotJoinable), "unexpected error %v", err)
		}(u)
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	f.assertMatchInvariants(t, m.ID)
	f.assertLedgerConsistent(t, users...)
}

func TestJoin_DuplicateConcurrentJoinDebitsOnce(t *testing.T) {
	f := newFixture(t)
	m := f.openMatch(t, 10, "25", time.Hour)
	u := f.user(t, "100")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.svc.Join(f.ctx, m.ID, u.ID, JoinRequest{InGameID: "id", InGameName: "name"})
		}()
	}
	wg.Wait()

	assert.True(t, f.balance(t, u).Equal(d("75")))
	f.assertMatchInvariants(t, m.ID)
}

func TestLeave_RefundsWithCancellationFee(t *testing.T) {
	f := newFixture(t)
	m := f.openMatch(t, 4, "100", 48*time.Hour)
	u := f.user(t, "500")

	f.join(t, m, u)
	assert.True(t, f.balance(t, u).Equal(d("400")))

	refunded, err := f.svc.Leave(f.ctx, m.ID, u.ID)
	require.NoError(t, err)
	assert.True(t, refunded.Equal(d("90")))
	assert.True(t, f.balance(t, u).Equal(d("490")))

	stored, err := f.svc.Get(f.ctx, m.ID)
	require.NoError(t, err)
	assert.False(t, HasJoined(stored, u.ID))
	f.assertMatchInvariants(t, m.ID)
	f.assertLedgerConsistent(t, u)
}

func TestLeave_FreesSlotForNextJoiner(t *testing.T) {
	f := newFixture(t)
	m := f.openMatch(t, 3, "10", time.Hour)
	a, b, c := f.user(t, "100"), f.user(t, "100"), f.user(t, "100")

	f.join(t, m, a)
	f.join(t, m, b)
	_, err := f.svc.Leave(f.ctx, m.ID, a.ID)
	require.NoError(t, err)

	res := f.join(t, m, c)
	assert.Equal(t, 1, res.SlotNumber)

	stored, err := f.svc.Get(f.ctx, m.ID)
	require.NoError(t, err)
	slot, ok := GetSlot(stored, b.ID)
	assert.True(t, ok)
	assert.Equal(t, 2, slot)
	f.assertMatchInvariants(t, m.ID)
}

func TestLeave_Preconditions(t *testing.T) {
	f := newFixture(t)
	m := f.openMatch(t, 4, "10", time.Hour)
	joined, outsider := f.user(t, "100"), f.user(t, "100")
	f.join(t, m, joined)

	_, err := f.svc.Leave(f.ctx, m.ID, outsider.ID)
	assert.ErrorIs(t, err, ErrNotJoined)

	_, err = f.svc.SetRoomCredentials(f.ctx, adminID, m.ID, "room-1", "pw", true)
	require.NoError(t, err)
	_, err = f.svc.Start(f.ctx, adminID, m.ID)
	require.NoError(t, err)

	_, err = f.svc.Leave(f.ctx, m.ID, joined.ID)
	assert.ErrorIs(t, err, ErrNotLeavable)
	assert.True(t, f.balance(t, joined).Equal(d("90")))
}

func TestCancel_RefundsEveryParticipantInFull(t *testing.T) {
	f := newFixture(t)
	m := f.openMatch(t, 5, "100", 48*time.Hour)
	users := []*models.User{f.user(t, "100"), f.user(t, "250"), f.user(t, "100")}
	for _, u := range users {
		f.join(t, m, u)
	}

	report, err := f.svc.Cancel(f.ctx, adminID, m.ID, "server issue")
	require.NoError(t, err)
	assert.True(t, report.Complete())
	assert.Len(t, report.Refunded, 3)
	assert.True(t, report.TotalRefunded.Equal(d("300")))

	assert.True(t, f.balance(t, users[0]).Equal(d("100")))
	assert.True(t, f.balance(t, users[1]).Equal(d("250")))
	assert.True(t, f.balance(t, users[2]).Equal(d("100")))

	stored, err := f.svc.Get(f.ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchCancelled, stored.Status)
	assert.Equal(t, "server issue", stored.CancelReason)

	for _, u := range users {
		rows, total, err := f.ledger.History(f.ctx, u.ID, repositories.TransactionFilter{Category: models.CategoryMatchRefund})
		require.NoError(t, err)
		require.EqualValues(t, 1, total)
		assert.Equal(t, models.TransactionCompleted, rows[0].Status)
		assert.True(t, rows[0].Amount.Equal(d("100")))
	}

	again, err := f.svc.Cancel(f.ctx, adminID, m.ID, "again")
	require.NoError(t, err)
	assert.True(t, again.Resumed)
	assert.Empty(t, again.Refunded)
	assert.True(t, f.balance(t, users[0]).Equal(d("100")))

	f.audit.AssertCalled(t, "Record", mock.Anything, mock.MatchedBy(func(e audit.Entry) bool {
		return e.Action == audit.ActionMatchCancel && e.AdminID == adminID
	}))
	f.assertLedgerConsistent(t, users...)
}

func TestCancel_PartialFailureIsCollectedAndRetried(t *testing.T) {
	flaky := &flakyLedger{}
	f := newFixture(t, func(l ledger.Service) ledger.Service {
		flaky.Service = l
		return flaky
	})
	m := f.openMatch(t, 5, "40", time.Hour)
	a, b, c := f.user(t, "40"), f.user(t, "40"), f.user(t, "40")
	for _, u := range []*models.User{a, b, c} {
		f.join(t, m, u)
	}

	flaky.userID = b.ID
	flaky.setFailing(true)

	report, err := f.svc.Cancel(f.ctx, adminID, m.ID, "")
	require.NoError(t, err)
	assert.False(t, report.Complete())
	require.Len(t, report.Failed, 1)
	assert.Equal(t, b.ID, report.Failed[0].UserID)
	assert.Len(t, report.Refunded, 2)
	assert.True(t, f.balance(t, a).Equal(d("40")))
	assert.True(t, f.balance(t, b).IsZero())
	assert.True(t, f.balance(t, c).Equal(d("40")))

	flaky.setFailing(false)
	retry, err := f.svc.RetryRefunds(f.ctx, adminID, m.ID)
	require.NoError(t, err)
	assert.True(t, retry.Complete())
	require.Len(t, retry.Refunded, 1)
	assert.Equal(t, b.ID, retry.Refunded[0].UserID)

	assert.True(t, f.balance(t, a).Equal(d("40")))
	assert.True(t, f.balance(t, b).Equal(d("40")))
	assert.True(t, f.balance(t, c).Equal(d("40")))
	f.assertLedgerConsistent(t, a, b, c)
}

func TestCancel_CompletedMatchIsRejected(t *testing.T) {
	f := newFixture(t)
	m := f.openMatch(t, 2, "0", time.Hour)
	u := f.user(t, "0")
	f.join(t, m, u)
	_, err := f.svc.SetRoomCredentials(f.ctx, adminID, m.ID, "r", "p", true)
	require.NoError(t, err)
	_, err = f.svc.Start(f.ctx, adminID, m.ID)
	require.NoError(t, err)
	_, err = f.svc.Complete(f.ctx, adminID, m.ID, nil)
	require.NoError(t, err)

	_, err = f.svc.Cancel(f.ctx, adminID, m.ID, "too late")
	assert.ErrorIs(t, err, ErrMatchCompleted)
}

func TestLifecycle_CompleteCreditsPrizesOnce(t *testing.T) {
	f := newFixture(t)
	m, err := f.svc.Create(f.ctx, adminID, MatchInput{
		Title:        "Sunday Cup",
		MaxSlots:     4,
		EntryFee:     d("20"),
		PerKillPrize: d("5"),
		PrizeDistribution: models.PrizeDistribution{
			{Position: 1, Prize: d("100")},
			{Position: 2, Prize: d("50")},
		},
		ScheduledAt: f.now.Add(2 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, models.MatchUpcoming, m.Status)

	_, err = f.svc.OpenRegistration(f.ctx, adminID, m.ID)
	require.NoError(t, err)

	a, b, c := f.user(t, "100"), f.user(t, "100"), f.user(t, "100")
	for _, u := range []*models.User{a, b, c} {
		f.join(t, m, u)
	}

	_, err = f.svc.Start(f.ctx, adminID, m.ID)
	assert.True(t, apperrors.IsKind(err, apperrors.KindBadRequest), "start before reveal must fail")

	_, err = f.svc.SetRoomCredentials(f.ctx, adminID, m.ID, "room-77", "secret", false)
	require.NoError(t, err)
	_, err = f.svc.RoomFor(f.ctx, a.ID, m.ID)
	assert.ErrorIs(t, err, ErrRoomHidden)

	revealed, err := f.svc.SetRoomCredentials(f.ctx, adminID, m.ID, "room-77", "secret", true)
	require.NoError(t, err)
	assert.Equal(t, models.MatchRoomRevealed, revealed.Status)

	room, err := f.svc.RoomFor(f.ctx, a.ID, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "room-77", room.RoomID)
	outsider := f.user(t, "0")
	_, err = f.svc.RoomFor(f.ctx, outsider.ID, m.ID)
	assert.ErrorIs(t, err, ErrNotParticipant)

	live, err := f.svc.Start(f.ctx, adminID, m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchLive, live.Status)
	assert.NotNil(t, live.StartedAt)

	results := []Result{
		{UserID: a.ID, Position: 1, Kills: 3},
		{UserID: b.ID, Position: 2},
		{UserID: c.ID, Kills: 2},
	}
	settlement, err := f.svc.Complete(f.ctx, adminID, m.ID, results)
	require.NoError(t, err)
	assert.False(t, settlement.AlreadySettled)
	assert.True(t, settlement.TotalPaid.Equal(d("175")))

	assert.True(t, f.balance(t, a).Equal(d("195")))
	assert.True(t, f.balance(t, b).Equal(d("130")))
	assert.True(t, f.balance(t, c).Equal(d("90")))

	again, err := f.svc.Settle(f.ctx, adminID, m.ID)
	require.NoError(t, err)
	assert.True(t, again.AlreadySettled)
	assert.True(t, again.TotalPaid.Equal(d("175")))
	_, err = f.svc.Complete(f.ctx, adminID, m.ID, results)
	require.NoError(t, err)

	assert.True(t, f.balance(t, a).Equal(d("195")))
	assert.True(t, f.balance(t, b).Equal(d("130")))
	assert.True(t, f.balance(t, c).Equal(d("90")))

	stored, err := f.svc.Get(f.ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchCompleted, stored.Status)
	assert.NotNil(t, stored.CompletedAt)

	f.notifier.AssertCalled(t, "Notify", mock.Anything, mock.MatchedBy(func(n notification.Notice) bool {
		return n.UserID == a.ID && n.Type == models.NotificationPrizeCredited
	}))
	f.assertLedgerConsistent(t, a, b, c)
}

func TestSubmitResults_Validation(t *testing.T) {
	f := newFixture(t)
	m := f.openMatch(t, 3, "0", time.Hour)
	a, b := f.user(t, "0"), f.user(t, "0")
	f.join(t, m, a)
	f.join(t, m, b)
	_, err := f.svc.SetRoomCredentials(f.ctx, adminID, m.ID, "r", "p", true)
	require.NoError(t, err)
	_, err = f.svc.Start(f.ctx, adminID, m.ID)
	require.NoError(t, err)

	tests := []struct {
		name    string
		results []Result
	}{
		{name: "unknown player", results: []Result{{UserID: 777, Position: 1}}},
		{name: "duplicate position", results: []Result{{UserID: a.ID, Position: 1}, {UserID: b.ID, Position: 1}}},
		{name: "duplicate player", results: []Result{{UserID: a.ID, Position: 1}, {UserID: a.ID, Position: 2}}},
		{name: "negative kills", results: []Result{{UserID: a.ID, Kills: -1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.SubmitResults(f.ctx, adminID, m.ID, tt.results)
			assert.True(t, apperrors.IsKind(err, apperrors.KindValidation), "got %v", err)
		})
	}

	stored, err := f.svc.Get(f.ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchLive, stored.Status)
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	base := MatchInput{Title: "T", MaxSlots: 2, ScheduledAt: f.now.Add(time.Hour)}

	tests := []struct {
		name   string
		mutate func(in *MatchInput)
	}{
		{name: "no title", mutate: func(in *MatchInput) { in.Title = " " }},
		{name: "zero slots", mutate: func(in *MatchInput) { in.MaxSlots = 0 }},
		{name: "negative fee", mutate: func(in *MatchInput) { in.EntryFee = d("-1") }},
		{name: "no schedule", mutate: func(in *MatchInput) { in.ScheduledAt = time.Time{} }},
		{name: "duplicate prize position", mutate: func(in *MatchInput) {
			in.PrizeDistribution = models.PrizeDistribution{{Position: 1, Prize: d("1")}, {Position: 1, Prize: d("2")}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			tt.mutate(&in)
			_, err := f.svc.Create(f.ctx, adminID, in)
			assert.True(t, apperrors.IsKind(err, apperrors.KindValidation))
		})
	}
}

func TestDelete_RequiresNoParticipants(t *testing.T) {
	f := newFixture(t)
	m := f.openMatch(t, 2, "10", time.Hour)
	u := f.user(t, "10")
	f.join(t, m, u)

	err := f.svc.Delete(f.ctx, adminID, m.ID)
	assert.ErrorIs(t, err, ErrHasParticipants)

	_, err = f.svc.Leave(f.ctx, m.ID, u.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.Delete(f.ctx, adminID, m.ID))

	_, err = f.svc.Get(f.ctx, m.ID)
	assert.ErrorIs(t, err, ErrMatchNotFound)
}

func TestScheduler_OpensDueMatches(t *testing.T) {
	f := newFixture(t)
	past := f.now.Add(-time.Minute)
	future := f.now.Add(time.Hour)

	due, err := f.svc.Create(f.ctx, adminID, MatchInput{Title: "Due", MaxSlots: 2, ScheduledAt: f.now.Add(3 * time.Hour), RegistrationOpensAt: &past})
	require.NoError(t, err)
	later, err := f.svc.Create(f.ctx, adminID, MatchInput{Title: "Later", MaxSlots: 2, ScheduledAt: f.now.Add(3 * time.Hour), RegistrationOpensAt: &future})
	require.NoError(t, err)

	scheduler := NewScheduler(f.svc, time.Minute)
	assert.Equal(t, 1, scheduler.Tick(f.ctx))
	assert.Equal(t, 0, scheduler.Tick(f.ctx))

	got, err := f.svc.Get(f.ctx, due.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchRegistrationOpen, got.Status)
	got, err = f.svc.Get(f.ctx, later.ID)
	require.NoError(t, err)
	assert.Equal(t, models.MatchUpcoming, got.Status)

	f.now = f.now.Add(2 * time.Hour)
	assert.Equal(t, 1, scheduler.Tick(f.ctx))
}

func TestLowestFreeSlot(t *testing.T) {
	tests := []struct {
		used []int
		max  int
		want int
		ok   bool
	}{
		{used: nil, max: 3, want: 1, ok: true},
		{used: []int{1, 2}, max: 3, want: 3, ok: true},
		{used: []int{2, 3}, max: 3, want: 1, ok: true},
		{used: []int{1, 2, 3}, max: 3, ok: false},
	}
	for _, tt := range tests {
		got, ok := lowestFreeSlot(tt.used, tt.max)
		assert.Equal(t, tt.ok, ok)
		assert.Equal(t, tt.want, got)
	}
}
