package repositories

import (
	"context"
	"time"

	"playarena/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type matchRepository struct {
	db *gorm.DB
}

func (r *matchRepository) Create(ctx context.Context, match *models.Match) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(match).Error, "create match")
}

func (r *matchRepository) GetByID(ctx context.Context, id uint) (*models.Match, error) {
	var match models.Match
	if err := r.db.WithContext(ctx).First(&match, id).Error; err != nil {
		return nil, translate(err, "get match")
	}
	return &match, nil
}

func (r *matchRepository) GetByIDForUpdate(ctx context.Context, id uint) (*models.Match, error) {
	var match models.Match
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&match, id).Error
	if err != nil {
		return nil, translate(err, "lock match")
	}
	return &match, nil
}

func (r *matchRepository) GetWithParticipants(ctx context.Context, id uint) (*models.Match, error) {
	var match models.Match
	err := r.db.WithContext(ctx).
		Preload("Participants", func(db *gorm.DB) *gorm.DB {
			return db.Order("slot_number ASC")
		}).
		First(&match, id).Error
	if err != nil {
		return nil, translate(err, "get match")
	}
	return &match, nil
}

func (r *matchRepository) List(ctx context.Context, filter MatchFilter) ([]models.Match, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Match{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Game != "" {
		query = query.Where("game = ?", filter.Game)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err, "count matches")
	}

	var matches []models.Match
	err := paginate(query.Order("scheduled_at ASC"), filter.Limit, filter.Offset).
		Find(&matches).Error
	if err != nil {
		return nil, 0, translate(err, "list matches")
	}
	return matches, total, nil
}

func (r *matchRepository) ListDueForRegistration(ctx context.Context, now time.Time) ([]models.Match, error) {
	var matches []models.Match
	err := r.db.WithContext(ctx).
		Where("status = ? AND registration_opens_at IS NOT NULL AND registration_opens_at <= ?", models.MatchUpcoming, now).
		Order("registration_opens_at ASC").
		Find(&matches).Error
	if err != nil {
		return nil, translate(err, "list due matches")
	}
	return matches, nil
}

func (r *matchRepository) Save(ctx context.Context, match *models.Match) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Save(match).Error, "save match")
}

func (r *matchRepository) IncrementFilled(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Match{}).
		Where("id = ? AND filled_slots < max_slots", id).
		UpdateColumn("filled_slots", gorm.Expr("filled_slots + 1"))
	if result.Error != nil {
		return false, translate(result.Error, "increment filled slots")
	}
	return result.RowsAffected == 1, nil
}

func (r *matchRepository) DecrementFilled(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).
		Model(&models.Match{}).
		Where("id = ? AND filled_slots > 0", id).
		UpdateColumn("filled_slots", gorm.Expr("filled_slots - 1"))
	return translate(result.Error, "decrement filled slots")
}

func (r *matchRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Match{}, id)
	if result.Error != nil {
		return translate(result.Error, "delete match")
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *matchRepository) AddParticipant(ctx context.Context, p *models.MatchParticipant) error {
	return translate(r.db.WithContext(ctx).Create(p).Error, "add participant")
}

func (r *matchRepository) GetParticipant(ctx context.Context, matchID, userID uint) (*models.MatchParticipant, error) {
	var p models.MatchParticipant
	err := r.db.WithContext(ctx).
		Where("match_id = ? AND user_id = ?", matchID, userID).
		First(&p).Error
	if err != nil {
		return nil, translate(err, "get participant")
	}
	return &p, nil
}

func (r *matchRepository) GetParticipantForUpdate(ctx context.Context, matchID, userID uint) (*models.MatchParticipant, error) {
	var p models.MatchParticipant
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("match_id = ? AND user_id = ?", matchID, userID).
		First(&p).Error
	if err != nil {
		return nil, translate(err, "lock participant")
	}
	return &p, nil
}

func (r *matchRepository) ListParticipants(ctx context.Context, matchID uint) ([]models.MatchParticipant, error) {
	var participants []models.MatchParticipant
	err := r.db.WithContext(ctx).
		Where("match_id = ?", matchID).
		Order("slot_number ASC").
		Find(&participants).Error
	if err != nil {
		return nil, translate(err, "list participants")
	}
	return participants, nil
}

func (r *matchRepository) ListParticipationsByUser(ctx context.Context, userID uint) ([]models.MatchParticipant, error) {
	var participants []models.MatchParticipant
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("joined_at DESC").
		Find(&participants).Error
	if err != nil {
		return nil, translate(err, "list participations")
	}
	return participants, nil
}

func (r *matchRepository) CountParticipants(ctx context.Context, matchID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.MatchParticipant{}).
		Where("match_id = ?", matchID).
		Count(&count).Error
	return count, translate(err, "count participants")
}

func (r *matchRepository) UsedSlots(ctx context.Context, matchID uint) ([]int, error) {
	var slots []int
	err := r.db.WithContext(ctx).
		Model(&models.MatchParticipant{}).
		Where("match_id = ?", matchID).
		Order("slot_number ASC").
		Pluck("slot_number", &slots).Error
	if err != nil {
		return nil, translate(err, "list used slots")
	}
	return slots, nil
}

func (r *matchRepository) SaveParticipant(ctx context.Context, p *models.MatchParticipant) error {
	return translate(r.db.WithContext(ctx).Save(p).Error, "save participant")
}

func (r *matchRepository) DeleteParticipant(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.MatchParticipant{}, id)
	if result.Error != nil {
		return translate(result.Error, "delete participant")
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
