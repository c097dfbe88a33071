package ledger

import (
	"context"
	"time"

	"playarena/internal/models"
	"playarena/internal/repositories"

	"github.com/shopspring/decimal"
)

// Service defines the wallet ledger. Methods taking a repositories.Store run
// on that store's transaction; a nil store opens a new one.
type Service interface {
	Debit(ctx context.Context, tx repositories.Store, entry Entry) (*models.Transaction, error)
	Credit(ctx context.Context, tx repositories.Store, entry Entry) (*models.Transaction, error)
	Reverse(ctx context.Context, tx repositories.Store, txnID uint, reason string) (*models.Transaction, error)
	Settle(ctx context.Context, tx repositories.Store, txnID uint) (*models.Transaction, error)
	Fail(ctx context.Context, tx repositories.Store, txnID uint) (*models.Transaction, error)

	Balance(ctx context.Context, userID uint) (*Balance, error)
	History(ctx context.Context, userID uint, filter repositories.TransactionFilter) ([]models.Transaction, int64, error)
	Reconcile(ctx context.Context, userID uint) (*Reconciliation, error)
}

// Entry describes one posting
type Entry struct {
	UserID      uint
	Amount      decimal.Decimal
	Category    string
	Description string
	Reference   models.Reference
	// Status is completed when empty; pending marks a hold (debit) or an
	// unconfirmed deposit (credit).
	Status   models.TransactionStatus
	Metadata models.JSON
}

type Balance struct {
	UserID uint            `json:"user_id"`
	Wallet decimal.Decimal `json:"wallet_balance"`
	Bonus  decimal.Decimal `json:"bonus_balance"`
	Total  decimal.Decimal `json:"total_balance"`
}

// Reconciliation compares the stored balance with a replay of the ledger
type Reconciliation struct {
	UserID       uint            `json:"user_id"`
	Stored       decimal.Decimal `json:"stored_balance"`
	Replayed     decimal.Decimal `json:"replayed_balance"`
	Drift        decimal.Decimal `json:"drift"`
	Transactions int             `json:"transactions"`
	Consistent   bool            `json:"consistent"`
}

// BalanceCache is the subset of cache.CacheService the ledger uses
type BalanceCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, keys ...string) error
}

// MetricsCollector defines the interface for collecting ledger metrics
type MetricsCollector interface {
	RecordOperationDuration(operation string, duration time.Duration)
	RecordCacheHit(key string)
	RecordCacheMiss(key string)
	RecordBalanceChange(userID uint, oldBalance, newBalance decimal.Decimal)
	RecordError(operation, errType string)
	RecordTransaction(txType models.TransactionType, category string, amount decimal.Decimal)
}
