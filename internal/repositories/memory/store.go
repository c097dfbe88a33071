// Package memory is an in-process Store used by tests and by the server when
// STORE_DRIVER=memory. A transaction holds one store-wide mutex and rolls
// back by restoring a snapshot of every table.
package memory

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"playarena/internal/models"
	"playarena/internal/repositories"
)

type tables struct {
	seq           uint
	users         map[uint]models.User
	matches       map[uint]models.Match
	participants  map[uint]models.MatchParticipant
	transactions  map[uint]models.Transaction
	withdrawals   map[uint]models.Withdrawal
	methods       map[uint]models.SavedPaymentMethod
	notifications map[uint]models.Notification
	adminLogs     map[uint]models.AdminLog
}

func newTables() *tables {
	return &tables{
		users:         map[uint]models.User{},
		matches:       map[uint]models.Match{},
		participants:  map[uint]models.MatchParticipant{},
		transactions:  map[uint]models.Transaction{},
		withdrawals:   map[uint]models.Withdrawal{},
		methods:       map[uint]models.SavedPaymentMethod{},
		notifications: map[uint]models.Notification{},
		adminLogs:     map[uint]models.AdminLog{},
	}
}

func (t *tables) clone() *tables {
	return &tables{
		seq:           t.seq,
		users:         maps.Clone(t.users),
		matches:       maps.Clone(t.matches),
		participants:  maps.Clone(t.participants),
		transactions:  maps.Clone(t.transactions),
		withdrawals:   maps.Clone(t.withdrawals),
		methods:       maps.Clone(t.methods),
		notifications: maps.Clone(t.notifications),
		adminLogs:     maps.Clone(t.adminLogs),
	}
}

func (t *tables) nextID() uint {
	t.seq++
	return t.seq
}

type state struct {
	mu   sync.Mutex
	data *tables
}

// Store implements repositories.Store in memory.
type Store struct {
	st    *state
	inTx  bool
	hooks *[]func()
}

var _ repositories.Store = (*Store)(nil)

func New() *Store {
	return &Store{st: &state{data: newTables()}}
}

// lock serialises access outside a transaction; inside one the mutex is
// already held.
func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.st.mu.Lock()
	return s.st.mu.Unlock
}

func (s *Store) Users() repositories.UserRepository                   { return &userRepo{s} }
func (s *Store) Matches() repositories.MatchRepository                { return &matchRepo{s} }
func (s *Store) Transactions() repositories.TransactionRepository     { return &transactionRepo{s} }
func (s *Store) Withdrawals() repositories.WithdrawalRepository       { return &withdrawalRepo{s} }
func (s *Store) PaymentMethods() repositories.PaymentMethodRepository { return &paymentMethodRepo{s} }
func (s *Store) Notifications() repositories.NotificationRepository   { return &notificationRepo{s} }
func (s *Store) AdminLogs() repositories.AdminLogRepository           { return &adminLogRepo{s} }

func (s *Store) ExecuteInTransaction(ctx context.Context, fn func(repositories.Store) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if s.inTx {
		snap := s.st.data.clone()
		mark := len(*s.hooks)
		if err := fn(s); err != nil {
			s.st.data = snap
			*s.hooks = (*s.hooks)[:mark]
			return err
		}
		return nil
	}

	var hooks []func()
	err := func() (err error) {
		s.st.mu.Lock()
		defer s.st.mu.Unlock()
		snap := s.st.data.clone()
		defer func() {
			if err != nil {
				s.st.data = snap
			}
		}()
		return fn(&Store{st: s.st, inTx: true, hooks: &hooks})
	}()
	if err != nil {
		return err
	}
	for _, h := range hooks {
		h()
	}
	return nil
}

func (s *Store) OnCommit(fn func()) {
	if s.hooks == nil {
		fn()
		return
	}
	*s.hooks = append(*s.hooks, fn)
}

func touch(created, updated *time.Time) {
	now := time.Now()
	if created != nil && created.IsZero() {
		*created = now
	}
	if updated != nil {
		*updated = now
	}
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return []T{}
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func sortedValues[T any](m map[uint]T) []T {
	keys := slices.Sorted(maps.Keys(m))
	out := make([]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, m[k])
	}
	return out
}

func byNewest[T any](items []T, at func(T) time.Time, id func(T) uint) {
	slices.SortStableFunc(items, func(a, b T) int {
		if c := at(b).Compare(at(a)); c != 0 {
			return c
		}
		return cmp.Compare(id(b), id(a))
	})
}
