package repositories

import (
	"context"

	"playarena/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type paymentMethodRepository struct {
	db *gorm.DB
}

func (r *paymentMethodRepository) Upsert(ctx context.Context, m *models.SavedPaymentMethod) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "method"}, {Name: "identifier"}},
			DoUpdates: clause.AssignmentColumns([]string{"bank_account_holder", "bank_account_number", "bank_ifsc", "bank_bank_name", "last_used_at"}),
		}).
		Create(m).Error
	return translate(err, "save payment method")
}

func (r *paymentMethodRepository) ListByUser(ctx context.Context, userID uint, limit int) ([]models.SavedPaymentMethod, error) {
	var methods []models.SavedPaymentMethod
	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("last_used_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&methods).Error
	if err != nil {
		return nil, translate(err, "list payment methods")
	}
	return methods, nil
}
