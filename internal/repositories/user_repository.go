package repositories

import (
	"context"

	"playarena/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type userRepository struct {
	db *gorm.DB
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return translate(r.db.WithContext(ctx).Create(user).Error, "create user")
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, translate(err, "get user")
	}
	return &user, nil
}

func (r *userRepository) GetByIDForUpdate(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&user, id).Error
	if err != nil {
		return nil, translate(err, "lock user")
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, translate(err, "get user")
	}
	return &user, nil
}

func (r *userRepository) UpdateBalance(ctx context.Context, user *models.User, balance decimal.Decimal) error {
	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND version = ?", user.ID, user.Version).
		Updates(map[string]interface{}{
			"wallet_balance": balance,
			"version":        gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		return translate(result.Error, "update balance")
	}
	if result.RowsAffected == 0 {
		return ErrStaleVersion
	}
	user.WalletBalance = balance
	user.Version++
	return nil
}

func (r *userRepository) UpdateFlags(ctx context.Context, id uint, kycVerified, banned bool) error {
	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_kyc_verified": kycVerified,
			"is_banned":       banned,
		})
	if result.Error != nil {
		return translate(result.Error, "update user flags")
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
