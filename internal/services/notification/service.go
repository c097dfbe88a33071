// Package notification records user-facing notices and publishes them for
// the socket gateway. Delivery is best-effort.
package notification

import (
	"context"
	"fmt"

	"playarena/internal/logger"
	"playarena/internal/models"
	"playarena/internal/repositories"
	keys "playarena/internal/utils/cache"

	"go.uber.org/zap"
)

// Notice is one message for one user
type Notice struct {
	UserID  uint
	Type    string
	Title   string
	Message string
	RefType string
	RefID   string
}

// Notifier is what the match and withdrawal services depend on
type Notifier interface {
	Notify(ctx context.Context, notice Notice)
}

// Publisher pushes a payload onto a pub/sub channel
type Publisher interface {
	Publish(ctx context.Context, channel string, payload interface{}) error
}

// Service persists notices and publishes them on notifications:<userID>.
type Service struct {
	repo      repositories.NotificationRepository
	publisher Publisher
	log       *zap.Logger
}

// NewService creates a new notification service. publisher may be nil.
func NewService(repo repositories.NotificationRepository, publisher Publisher, log *zap.Logger) *Service {
	return &Service{repo: repo, publisher: publisher, log: logger.OrNop(log).Named("notification")}
}

func Channel(userID uint) string {
	return keys.Channel(keys.EntityNotifications, userID)
}

func (s *Service) Notify(ctx context.Context, notice Notice) {
	n := &models.Notification{
		UserID:  notice.UserID,
		Type:    notice.Type,
		Title:   notice.Title,
		Message: notice.Message,
		RefType: notice.RefType,
		RefID:   notice.RefID,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		s.log.Warn("failed to store notification",
			zap.Uint("user_id", notice.UserID),
			zap.String("type", notice.Type),
			zap.Error(err))
		return
	}
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, Channel(notice.UserID), n); err != nil {
		s.log.Warn("failed to publish notification",
			zap.Uint("user_id", notice.UserID),
			zap.Uint("notification_id", n.ID),
			zap.Error(err))
	}
}

func (s *Service) List(ctx context.Context, userID uint, limit, offset int) ([]models.Notification, int64, error) {
	list, total, err := s.repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	return list, total, nil
}

func (s *Service) MarkRead(ctx context.Context, userID, id uint) error {
	return s.repo.MarkRead(ctx, userID, id)
}

// Nop discards every notice.
type Nop struct{}

func (Nop) Notify(context.Context, Notice) {}
