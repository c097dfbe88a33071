package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	apperrors "playarena/internal/errors"
	"playarena/internal/logger"
	"playarena/internal/models"
	"playarena/internal/repositories"
	keys "playarena/internal/utils/cache"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type service struct {
	store   repositories.Store
	cache   BalanceCache
	metrics MetricsCollector
	log     *zap.Logger
	now     func() time.Time
}

// NewService creates a new ledger service. cache and metrics are optional.
func NewService(
	store repositories.Store,
	cache BalanceCache,
	metrics MetricsCollector,
	log *zap.Logger,
) Service {
	if store == nil {
		panic("store is required")
	}
	if metrics == nil {
		metrics = &NoopMetricsCollector{}
	}
	return &service{
		store:   store,
		cache:   cache,
		metrics: metrics,
		log:     logger.OrNop(log).Named("ledger"),
		now:     time.Now,
	}
}

func (s *service) within(ctx context.Context, tx repositories.Store, fn func(repositories.Store) error) error {
	if tx != nil {
		return fn(tx)
	}
	return s.store.ExecuteInTransaction(ctx, fn)
}

func (e Entry) validate() (models.TransactionStatus, error) {
	if !e.Amount.IsPositive() {
		return "", apperrors.ErrInvalidAmount
	}
	if e.Category == "" {
		return "", ErrInvalidCategory
	}
	switch e.Status {
	case "":
		return models.TransactionCompleted, nil
	case models.TransactionCompleted, models.TransactionPending:
		return e.Status, nil
	}
	return "", ErrInvalidStatus
}

func (s *service) Debit(ctx context.Context, tx repositories.Store, entry Entry) (*models.Transaction, error) {
	status, err := entry.validate()
	if err != nil {
		return nil, err
	}
	start := s.now()

	var row *models.Transaction
	err = s.within(ctx, tx, func(st repositories.Store) error {
		user, err := s.lockUser(ctx, st, entry.UserID)
		if err != nil {
			return err
		}
		if user.WalletBalance.LessThan(entry.Amount) {
			return apperrors.ErrInsufficientBalance
		}

		before := user.WalletBalance
		after := before.Sub(entry.Amount)
		if err := s.writeBalance(ctx, st, user, after); err != nil {
			return err
		}

		row = s.newRow(entry, models.TransactionDebit, status, before, after)
		if err := st.Transactions().Create(ctx, row); err != nil {
			return fmt.Errorf("failed to record debit: %w", err)
		}
		s.afterCommit(st, row, before, after)
		return nil
	})
	if err != nil {
		s.recordError("debit", err)
		return nil, err
	}
	s.metrics.RecordOperationDuration("debit", s.now().Sub(start))
	return row, nil
}

func (s *service) Credit(ctx context.Context, tx repositories.Store, entry Entry) (*models.Transaction, error) {
	status, err := entry.validate()
	if err != nil {
		return nil, err
	}
	start := s.now()

	var row *models.Transaction
	err = s.within(ctx, tx, func(st repositories.Store) error {
		user, err := s.lockUser(ctx, st, entry.UserID)
		if err != nil {
			return err
		}

		before := user.WalletBalance
		after := before
		if status == models.TransactionCompleted {
			after = before.Add(entry.Amount)
			if err := s.writeBalance(ctx, st, user, after); err != nil {
				return err
			}
		}

		row = s.newRow(entry, models.TransactionCredit, status, before, after)
		if err := st.Transactions().Create(ctx, row); err != nil {
			return fmt.Errorf("failed to record credit: %w", err)
		}
		s.afterCommit(st, row, before, after)
		return nil
	})
	if err != nil {
		s.recordError("credit", err)
		return nil, err
	}
	s.metrics.RecordOperationDuration("credit", s.now().Sub(start))
	return row, nil
}

func (s *service) Reverse(ctx context.Context, tx repositories.Store, txnID uint, reason string) (*models.Transaction, error) {
	var reversal *models.Transaction
	err := s.within(ctx, tx, func(st repositories.Store) error {
		orig, err := s.lockTransaction(ctx, st, txnID)
		if err != nil {
			return err
		}

		if orig.Status == models.TransactionReversed && orig.ReversedByID != nil {
			existing, err := st.Transactions().GetByID(ctx, *orig.ReversedByID)
			if err != nil {
				return fmt.Errorf("failed to load reversal: %w", err)
			}
			reversal = existing
			return nil
		}
		if !reversible(orig) {
			return ErrNotReversible
		}

		user, err := s.lockUser(ctx, st, orig.UserID)
		if err != nil {
			return err
		}

		kind := orig.Type.Opposite()
		before := user.WalletBalance
		var after decimal.Decimal
		if kind == models.TransactionDebit {
			if before.LessThan(orig.Amount) {
				return apperrors.ErrInsufficientBalance
			}
			after = before.Sub(orig.Amount)
		} else {
			after = before.Add(orig.Amount)
		}
		if err := s.writeBalance(ctx, st, user, after); err != nil {
			return err
		}

		if reason == "" {
			reason = "Reversal of " + orig.Reference
		}
		reversal = s.newRow(Entry{
			UserID:      orig.UserID,
			Amount:      orig.Amount,
			Category:    reversalCategory(orig.Category),
			Description: reason,
			Reference:   models.Reference{Type: orig.RefType, ID: orig.RefID},
		}, kind, models.TransactionCompleted, before, after)
		reversal.ReversalOfID = &orig.ID
		if err := st.Transactions().Create(ctx, reversal); err != nil {
			return fmt.Errorf("failed to record reversal: %w", err)
		}
		if err := st.Transactions().UpdateStatus(ctx, orig.ID, models.TransactionReversed, &reversal.ID); err != nil {
			return fmt.Errorf("failed to mark transaction reversed: %w", err)
		}
		s.afterCommit(st, reversal, before, after)
		return nil
	})
	if err != nil {
		s.recordError("reverse", err)
		return nil, err
	}
	return reversal, nil
}

func (s *service) Settle(ctx context.Context, tx repositories.Store, txnID uint) (*models.Transaction, error) {
	var row *models.Transaction
	err := s.within(ctx, tx, func(st repositories.Store) error {
		orig, err := s.lockTransaction(ctx, st, txnID)
		if err != nil {
			return err
		}
		switch orig.Status {
		case models.TransactionCompleted:
			row = orig
			return nil
		case models.TransactionPending:
		default:
			return ErrNotPending
		}

		now := s.now()
		before, after := orig.BalanceBefore, orig.BalanceAfter
		if orig.Type == models.TransactionCredit {
			user, err := s.lockUser(ctx, st, orig.UserID)
			if err != nil {
				return err
			}
			before = user.WalletBalance
			after = before.Add(orig.Amount)
			if err := s.writeBalance(ctx, st, user, after); err != nil {
				return err
			}
			s.afterCommit(st, orig, before, after)
		}

		if err := st.Transactions().MarkSettled(ctx, orig.ID, before, after, now); err != nil {
			return fmt.Errorf("failed to settle transaction: %w", err)
		}
		orig.Status = models.TransactionCompleted
		orig.BalanceBefore = before
		orig.BalanceAfter = after
		orig.SettledAt = &now
		row = orig
		return nil
	})
	if err != nil {
		s.recordError("settle", err)
		return nil, err
	}
	return row, nil
}

func (s *service) Fail(ctx context.Context, tx repositories.Store, txnID uint) (*models.Transaction, error) {
	var row *models.Transaction
	err := s.within(ctx, tx, func(st repositories.Store) error {
		orig, err := s.lockTransaction(ctx, st, txnID)
		if err != nil {
			return err
		}
		if orig.Status == models.TransactionFailed {
			row = orig
			return nil
		}
		// holds are released through Reverse
		if orig.Status != models.TransactionPending || orig.Type != models.TransactionCredit {
			return ErrNotPending
		}
		if err := st.Transactions().UpdateStatus(ctx, orig.ID, models.TransactionFailed, nil); err != nil {
			return fmt.Errorf("failed to mark transaction failed: %w", err)
		}
		orig.Status = models.TransactionFailed
		row = orig
		return nil
	})
	if err != nil {
		s.recordError("fail", err)
		return nil, err
	}
	return row, nil
}

func (s *service) Balance(ctx context.Context, userID uint) (*Balance, error) {
	key := balanceKey(userID)
	if s.cache != nil {
		var cached Balance
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.log.Warn("balance cache read failed", zap.Uint("user_id", userID), zap.Error(err))
		} else if found {
			s.metrics.RecordCacheHit(key)
			return &cached, nil
		}
		s.metrics.RecordCacheMiss(key)
	}

	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	balance := &Balance{
		UserID: user.ID,
		Wallet: user.WalletBalance,
		Bonus:  user.BonusBalance,
		Total:  user.WalletBalance.Add(user.BonusBalance),
	}

	if s.cache != nil {
		s.fillBalance(ctx, key, user.Version, balance)
	}
	return balance, nil
}

// fillBalance caches balance as read at version. A posting that commits
// between the read and the write has already run its invalidation, so the
// entry is dropped again when the row moved on.
func (s *service) fillBalance(ctx context.Context, key string, version int64, balance *Balance) {
	if err := s.cache.Set(ctx, key, balance); err != nil {
		s.log.Warn("balance cache write failed", zap.Uint("user_id", balance.UserID), zap.Error(err))
		return
	}
	current, err := s.store.Users().GetByID(ctx, balance.UserID)
	if err == nil && current.Version == version {
		return
	}
	if err := s.cache.Delete(ctx, key); err != nil {
		s.log.Warn("stale balance eviction failed", zap.Uint("user_id", balance.UserID), zap.Error(err))
	}
}

func (s *service) History(ctx context.Context, userID uint, filter repositories.TransactionFilter) ([]models.Transaction, int64, error) {
	txs, total, err := s.store.Transactions().ListByUser(ctx, userID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get transaction history: %w", err)
	}
	return txs, total, nil
}

func (s *service) Reconcile(ctx context.Context, userID uint) (*Reconciliation, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	txs, err := s.store.Transactions().AllByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ledger: %w", err)
	}

	replayed := Replay(txs)
	drift := user.WalletBalance.Sub(replayed)
	report := &Reconciliation{
		UserID:       userID,
		Stored:       user.WalletBalance,
		Replayed:     replayed,
		Drift:        drift,
		Transactions: len(txs),
		Consistent:   drift.IsZero(),
	}
	if !report.Consistent {
		s.log.Error("ledger drift detected",
			zap.Uint("user_id", userID),
			zap.String("stored", user.WalletBalance.StringFixed(2)),
			zap.String("replayed", replayed.StringFixed(2)))
	}
	return report, nil
}

// Replay sums the rows whose amount is reflected in the wallet balance.
func Replay(txs []models.Transaction) decimal.Decimal {
	total := decimal.Zero
	for i := range txs {
		if txs[i].Applied() {
			total = total.Add(txs[i].Signed())
		}
	}
	return total
}

func (s *service) lockUser(ctx context.Context, st repositories.Store, userID uint) (*models.User, error) {
	user, err := st.Users().GetByIDForUpdate(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to lock user: %w", err)
	}
	return user, nil
}

func (s *service) lockTransaction(ctx context.Context, st repositories.Store, txnID uint) (*models.Transaction, error) {
	row, err := st.Transactions().GetByIDForUpdate(ctx, txnID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to lock transaction: %w", err)
	}
	return row, nil
}

func (s *service) writeBalance(ctx context.Context, st repositories.Store, user *models.User, balance decimal.Decimal) error {
	if balance.IsNegative() {
		return apperrors.ErrInsufficientBalance
	}
	err := st.Users().UpdateBalance(ctx, user, balance)
	if errors.Is(err, repositories.ErrStaleVersion) {
		return apperrors.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	return nil
}

func (s *service) newRow(entry Entry, kind models.TransactionType, status models.TransactionStatus, before, after decimal.Decimal) *models.Transaction {
	return &models.Transaction{
		Reference:     "TXN-" + uuid.NewString(),
		UserID:        entry.UserID,
		Type:          kind,
		Category:      entry.Category,
		Amount:        entry.Amount,
		BalanceBefore: before,
		BalanceAfter:  after,
		Status:        status,
		Description:   entry.Description,
		RefType:       entry.Reference.Type,
		RefID:         entry.Reference.ID,
		Metadata:      entry.Metadata,
	}
}

// afterCommit drops the cached balance and records metrics once the
// surrounding transaction has committed.
func (s *service) afterCommit(st repositories.Store, row *models.Transaction, before, after decimal.Decimal) {
	userID, kind, category, amount := row.UserID, row.Type, row.Category, row.Amount
	st.OnCommit(func() {
		if s.cache != nil {
			if err := s.cache.Delete(context.Background(), balanceKey(userID)); err != nil {
				s.log.Warn("balance cache invalidation failed", zap.Uint("user_id", userID), zap.Error(err))
			}
		}
		s.metrics.RecordTransaction(kind, category, amount)
		if !before.Equal(after) {
			s.metrics.RecordBalanceChange(userID, before, after)
		}
	})
}

func (s *service) recordError(op string, err error) {
	errType := "internal"
	if de, ok := apperrors.As(err); ok {
		errType = string(de.Kind)
	}
	s.metrics.RecordError(op, errType)
}

func reversible(tx *models.Transaction) bool {
	if tx.ReversalOfID != nil {
		return false
	}
	switch tx.Status {
	case models.TransactionCompleted:
		return true
	case models.TransactionPending:
		return tx.Type == models.TransactionDebit
	}
	return false
}

func reversalCategory(category string) string {
	switch category {
	case models.CategoryWithdrawal:
		return models.CategoryWithdrawalRefund
	case models.CategoryMatchEntry:
		return models.CategoryMatchRefund
	}
	return models.CategoryReversal
}

func balanceKey(userID uint) string {
	return keys.GenerateKey(keys.EntityWallet, keys.KeyBalance, userID)
}
