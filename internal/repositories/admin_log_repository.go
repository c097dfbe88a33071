package repositories

import (
	"context"

	"playarena/internal/models"

	"gorm.io/gorm"
)

type adminLogRepository struct {
	db *gorm.DB
}

func (r *adminLogRepository) Create(ctx context.Context, entry *models.AdminLog) error {
	return translate(r.db.WithContext(ctx).Create(entry).Error, "create admin log")
}

func (r *adminLogRepository) List(ctx context.Context, limit, offset int) ([]models.AdminLog, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.AdminLog{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "count admin logs")
	}

	var logs []models.AdminLog
	err := paginate(query.Order("created_at DESC, id DESC"), limit, offset).Find(&logs).Error
	if err != nil {
		return nil, 0, translate(err, "list admin logs")
	}
	return logs, total, nil
}
