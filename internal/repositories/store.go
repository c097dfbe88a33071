// Package repositories provides data access layer implementations.
// It handles all database operations and data persistence logic.
package repositories

import (
	"context"
	"errors"
	"time"

	"playarena/internal/models"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicate    = errors.New("duplicate record")
	ErrStaleVersion = errors.New("row version changed")
)

// UserRepository defines the user operations the ledger and admin tools need
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends
	GetByIDForUpdate(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	// UpdateBalance writes the new balance if user.Version still matches and
	// bumps the version; ErrStaleVersion otherwise.
	UpdateBalance(ctx context.Context, user *models.User, balance decimal.Decimal) error
	UpdateFlags(ctx context.Context, id uint, kycVerified, banned bool) error
}

// MatchFilter narrows match listings
type MatchFilter struct {
	Status models.MatchStatus
	Game   string
	Limit  int
	Offset int
}

// MatchRepository covers matches and their participant rows
type MatchRepository interface {
	Create(ctx context.Context, match *models.Match) error
	GetByID(ctx context.Context, id uint) (*models.Match, error)
	GetByIDForUpdate(ctx context.Context, id uint) (*models.Match, error)
	GetWithParticipants(ctx context.Context, id uint) (*models.Match, error)
	List(ctx context.Context, filter MatchFilter) ([]models.Match, int64, error)
	ListDueForRegistration(ctx context.Context, now time.Time) ([]models.Match, error)
	Save(ctx context.Context, match *models.Match) error
	// IncrementFilled adds one to filled_slots only while filled_slots < max_slots
	IncrementFilled(ctx context.Context, id uint) (bool, error)
	DecrementFilled(ctx context.Context, id uint) error
	Delete(ctx context.Context, id uint) error

	AddParticipant(ctx context.Context, p *models.MatchParticipant) error
	GetParticipant(ctx context.Context, matchID, userID uint) (*models.MatchParticipant, error)
	GetParticipantForUpdate(ctx context.Context, matchID, userID uint) (*models.MatchParticipant, error)
	ListParticipants(ctx context.Context, matchID uint) ([]models.MatchParticipant, error)
	ListParticipationsByUser(ctx context.Context, userID uint) ([]models.MatchParticipant, error)
	CountParticipants(ctx context.Context, matchID uint) (int64, error)
	UsedSlots(ctx context.Context, matchID uint) ([]int, error)
	SaveParticipant(ctx context.Context, p *models.MatchParticipant) error
	DeleteParticipant(ctx context.Context, id uint) error
}

// TransactionFilter narrows ledger history
type TransactionFilter struct {
	Category string
	Status   models.TransactionStatus
	Limit    int
	Offset   int
}

// TransactionRepository is append-only apart from status transitions
type TransactionRepository interface {
	Create(ctx context.Context, tx *models.Transaction) error
	GetByID(ctx context.Context, id uint) (*models.Transaction, error)
	GetByIDForUpdate(ctx context.Context, id uint) (*models.Transaction, error)
	FindByReference(ctx context.Context, userID uint, category string, ref models.Reference) (*models.Transaction, error)
	UpdateStatus(ctx context.Context, id uint, status models.TransactionStatus, reversedByID *uint) error
	// MarkSettled moves a pending row to completed with its final balance snapshot
	MarkSettled(ctx context.Context, id uint, before, after decimal.Decimal, at time.Time) error
	ListByUser(ctx context.Context, userID uint, filter TransactionFilter) ([]models.Transaction, int64, error)
	AllByUser(ctx context.Context, userID uint) ([]models.Transaction, error)
}

// WithdrawalFilter narrows the admin withdrawal queue
type WithdrawalFilter struct {
	UserID uint
	Status models.WithdrawalStatus
	Limit  int
	Offset int
}

type WithdrawalRepository interface {
	Create(ctx context.Context, w *models.Withdrawal) error
	GetByID(ctx context.Context, id uint) (*models.Withdrawal, error)
	GetByIDForUpdate(ctx context.Context, id uint) (*models.Withdrawal, error)
	Save(ctx context.Context, w *models.Withdrawal) error
	// CountOpen counts pending and approved requests
	CountOpen(ctx context.Context, userID uint) (int64, error)
	List(ctx context.Context, filter WithdrawalFilter) ([]models.Withdrawal, int64, error)
}

type PaymentMethodRepository interface {
	// Upsert inserts the method or refreshes LastUsedAt on an existing one
	Upsert(ctx context.Context, m *models.SavedPaymentMethod) error
	ListByUser(ctx context.Context, userID uint, limit int) ([]models.SavedPaymentMethod, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Notification, int64, error)
	MarkRead(ctx context.Context, userID, id uint) error
}

type AdminLogRepository interface {
	Create(ctx context.Context, entry *models.AdminLog) error
	List(ctx context.Context, limit, offset int) ([]models.AdminLog, int64, error)
}

// Store is the unit-of-work boundary. Repositories obtained from the store
// passed to ExecuteInTransaction share that transaction.
type Store interface {
	Users() UserRepository
	Matches() MatchRepository
	Transactions() TransactionRepository
	Withdrawals() WithdrawalRepository
	PaymentMethods() PaymentMethodRepository
	Notifications() NotificationRepository
	AdminLogs() AdminLogRepository

	ExecuteInTransaction(ctx context.Context, fn func(Store) error) error
	// OnCommit defers fn until the outermost transaction commits. Outside a
	// transaction fn runs immediately.
	OnCommit(fn func())
}
