package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

type gormStore struct {
	db    *gorm.DB
	hooks *[]func()
}

// NewGormStore returns a Store backed by Postgres through gorm.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Users() UserRepository               { return &userRepository{db: s.db} }
func (s *gormStore) Matches() MatchRepository            { return &matchRepository{db: s.db} }
func (s *gormStore) Transactions() TransactionRepository { return &transactionRepository{db: s.db} }
func (s *gormStore) Withdrawals() WithdrawalRepository   { return &withdrawalRepository{db: s.db} }
func (s *gormStore) PaymentMethods() PaymentMethodRepository {
	return &paymentMethodRepository{db: s.db}
}
func (s *gormStore) Notifications() NotificationRepository { return &notificationRepository{db: s.db} }
func (s *gormStore) AdminLogs() AdminLogRepository         { return &adminLogRepository{db: s.db} }

func (s *gormStore) ExecuteInTransaction(ctx context.Context, fn func(Store) error) error {
	if s.hooks != nil {
		// nested call runs inside a savepoint
		mark := len(*s.hooks)
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return fn(&gormStore{db: tx, hooks: s.hooks})
		})
		if err != nil {
			*s.hooks = (*s.hooks)[:mark]
		}
		return err
	}

	var hooks []func()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx, hooks: &hooks})
	})
	if err != nil {
		return err
	}
	for _, h := range hooks {
		h()
	}
	return nil
}

func (s *gormStore) OnCommit(fn func()) {
	if s.hooks == nil {
		fn()
		return
	}
	*s.hooks = append(*s.hooks, fn)
}

// paginate applies limit and offset; a non-positive limit means no limit,
// matching the memory store.
func paginate(query *gorm.DB, limit, offset int) *gorm.DB {
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	return query
}

// translate maps gorm errors onto the package sentinels and wraps the rest.
func translate(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
