package repositories

import (
	"context"
	"time"

	"playarena/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type transactionRepository struct {
	db *gorm.DB
}

func (r *transactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	return translate(r.db.WithContext(ctx).Create(tx).Error, "create transaction")
}

func (r *transactionRepository) GetByID(ctx context.Context, id uint) (*models.Transaction, error) {
	var tx models.Transaction
	if err := r.db.WithContext(ctx).First(&tx, id).Error; err != nil {
		return nil, translate(err, "get transaction")
	}
	return &tx, nil
}

func (r *transactionRepository) GetByIDForUpdate(ctx context.Context, id uint) (*models.Transaction, error) {
	var tx models.Transaction
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&tx, id).Error
	if err != nil {
		return nil, translate(err, "lock transaction")
	}
	return &tx, nil
}

func (r *transactionRepository) FindByReference(ctx context.Context, userID uint, category string, ref models.Reference) (*models.Transaction, error) {
	var tx models.Transaction
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND category = ? AND ref_type = ? AND ref_id = ?", userID, category, ref.Type, ref.ID).
		Order("id ASC").
		First(&tx).Error
	if err != nil {
		return nil, translate(err, "find transaction by reference")
	}
	return &tx, nil
}

func (r *transactionRepository) UpdateStatus(ctx context.Context, id uint, status models.TransactionStatus, reversedByID *uint) error {
	updates := map[string]interface{}{"status": status}
	if reversedByID != nil {
		updates["reversed_by_id"] = *reversedByID
	}
	result := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return translate(result.Error, "update transaction status")
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *transactionRepository) MarkSettled(ctx context.Context, id uint, before, after decimal.Decimal, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ? AND status = ?", id, models.TransactionPending).
		Updates(map[string]interface{}{
			"status":         models.TransactionCompleted,
			"balance_before": before,
			"balance_after":  after,
			"settled_at":     at,
		})
	if result.Error != nil {
		return translate(result.Error, "settle transaction")
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *transactionRepository) ListByUser(ctx context.Context, userID uint, filter TransactionFilter) ([]models.Transaction, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Transaction{}).Where("user_id = ?", userID)
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "count transactions")
	}

	var txs []models.Transaction
	err := paginate(query.Order("created_at DESC, id DESC"), filter.Limit, filter.Offset).
		Find(&txs).Error
	if err != nil {
		return nil, 0, translate(err, "get transaction history")
	}
	return txs, total, nil
}

func (r *transactionRepository) AllByUser(ctx context.Context, userID uint) ([]models.Transaction, error) {
	var txs []models.Transaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("id ASC").
		Find(&txs).Error
	if err != nil {
		return nil, translate(err, "load ledger")
	}
	return txs, nil
}
