package memory

import (
	"context"
	"time"

	"playarena/internal/models"
	"playarena/internal/repositories"

	"github.com/shopspring/decimal"
)

type transactionRepo struct{ s *Store }

func (r *transactionRepo) Create(_ context.Context, tx *models.Transaction) error {
	defer r.s.lock()()
	t := r.s.st.data
	tx.ID = t.nextID()
	touch(&tx.CreatedAt, &tx.UpdatedAt)
	t.transactions[tx.ID] = *tx
	return nil
}

func (r *transactionRepo) GetByID(_ context.Context, id uint) (*models.Transaction, error) {
	defer r.s.lock()()
	tx, ok := r.s.st.data.transactions[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &tx, nil
}

func (r *transactionRepo) GetByIDForUpdate(ctx context.Context, id uint) (*models.Transaction, error) {
	return r.GetByID(ctx, id)
}

func (r *transactionRepo) FindByReference(_ context.Context, userID uint, category string, ref models.Reference) (*models.Transaction, error) {
	defer r.s.lock()()
	for _, tx := range sortedValues(r.s.st.data.transactions) {
		if tx.UserID == userID && tx.Category == category && tx.RefType == ref.Type && tx.RefID == ref.ID {
			return &tx, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *transactionRepo) UpdateStatus(_ context.Context, id uint, status models.TransactionStatus, reversedByID *uint) error {
	defer r.s.lock()()
	t := r.s.st.data
	tx, ok := t.transactions[id]
	if !ok {
		return repositories.ErrNotFound
	}
	tx.Status = status
	if reversedByID != nil {
		ref := *reversedByID
		tx.ReversedByID = &ref
	}
	touch(nil, &tx.UpdatedAt)
	t.transactions[id] = tx
	return nil
}

func (r *transactionRepo) MarkSettled(_ context.Context, id uint, before, after decimal.Decimal, at time.Time) error {
	defer r.s.lock()()
	t := r.s.st.data
	tx, ok := t.transactions[id]
	if !ok || tx.Status != models.TransactionPending {
		return repositories.ErrNotFound
	}
	tx.Status = models.TransactionCompleted
	tx.BalanceBefore = before
	tx.BalanceAfter = after
	settled := at
	tx.SettledAt = &settled
	touch(nil, &tx.UpdatedAt)
	t.transactions[id] = tx
	return nil
}

func (r *transactionRepo) ListByUser(_ context.Context, userID uint, filter repositories.TransactionFilter) ([]models.Transaction, int64, error) {
	defer r.s.lock()()
	var out []models.Transaction
	for _, tx := range sortedValues(r.s.st.data.transactions) {
		if tx.UserID != userID {
			continue
		}
		if filter.Category != "" && tx.Category != filter.Category {
			continue
		}
		if filter.Status != "" && tx.Status != filter.Status {
			continue
		}
		out = append(out, tx)
	}
	byNewest(out,
		func(tx models.Transaction) time.Time { return tx.CreatedAt },
		func(tx models.Transaction) uint { return tx.ID })
	return paginate(out, filter.Limit, filter.Offset), int64(len(out)), nil
}

func (r *transactionRepo) AllByUser(_ context.Context, userID uint) ([]models.Transaction, error) {
	defer r.s.lock()()
	var out []models.Transaction
	for _, tx := range sortedValues(r.s.st.data.transactions) {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	return out, nil
}
