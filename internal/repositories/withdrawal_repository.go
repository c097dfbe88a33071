package repositories

import (
	"context"

	"playarena/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type withdrawalRepository struct {
	db *gorm.DB
}

func (r *withdrawalRepository) Create(ctx context.Context, w *models.Withdrawal) error {
	return translate(r.db.WithContext(ctx).Create(w).Error, "create withdrawal")
}

func (r *withdrawalRepository) GetByID(ctx context.Context, id uint) (*models.Withdrawal, error) {
	var w models.Withdrawal
	if err := r.db.WithContext(ctx).First(&w, id).Error; err != nil {
		return nil, translate(err, "get withdrawal")
	}
	return &w, nil
}

func (r *withdrawalRepository) GetByIDForUpdate(ctx context.Context, id uint) (*models.Withdrawal, error) {
	var w models.Withdrawal
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&w, id).Error
	if err != nil {
		return nil, translate(err, "lock withdrawal")
	}
	return &w, nil
}

func (r *withdrawalRepository) Save(ctx context.Context, w *models.Withdrawal) error {
	return translate(r.db.WithContext(ctx).Save(w).Error, "save withdrawal")
}

func (r *withdrawalRepository) CountOpen(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Withdrawal{}).
		Where("user_id = ? AND status IN ?", userID, []models.WithdrawalStatus{models.WithdrawalPending, models.WithdrawalApproved}).
		Count(&count).Error
	return count, translate(err, "count open withdrawals")
}

func (r *withdrawalRepository) List(ctx context.Context, filter WithdrawalFilter) ([]models.Withdrawal, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Withdrawal{})
	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "count withdrawals")
	}

	var list []models.Withdrawal
	err := paginate(query.Order("created_at DESC, id DESC"), filter.Limit, filter.Offset).
		Find(&list).Error
	if err != nil {
		return nil, 0, translate(err, "list withdrawals")
	}
	return list, total, nil
}
