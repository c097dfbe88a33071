package repositories

import (
	"context"

	"playarena/internal/models"

	"gorm.io/gorm"
)

type notificationRepository struct {
	db *gorm.DB
}

func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) error {
	return translate(r.db.WithContext(ctx).Create(n).Error, "create notification")
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Notification, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "count notifications")
	}

	var list []models.Notification
	err := paginate(query.Order("created_at DESC, id DESC"), limit, offset).Find(&list).Error
	if err != nil {
		return nil, 0, translate(err, "list notifications")
	}
	return list, total, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, userID, id uint) error {
	result := r.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("read", true)
	if result.Error != nil {
		return translate(result.Error, "mark notification read")
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
