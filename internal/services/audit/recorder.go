// Package audit writes the admin action log.
package audit

import (
	"context"
	"fmt"

	"playarena/internal/logger"
	"playarena/internal/models"
	"playarena/internal/repositories"

	"go.uber.org/zap"
)

// Actions
const (
	ActionMatchCreate        = "match.create"
	ActionMatchDelete        = "match.delete"
	ActionMatchOpen          = "match.open_registration"
	ActionMatchRoom          = "match.room_credentials"
	ActionMatchStart         = "match.start"
	ActionMatchResults       = "match.results"
	ActionMatchSettle        = "match.settle"
	ActionMatchCancel        = "match.cancel"
	ActionWithdrawalApprove  = "withdrawal.approve"
	ActionWithdrawalComplete = "withdrawal.complete"
	ActionWithdrawalReject   = "withdrawal.reject"
	ActionUserFlags          = "user.flags"
)

type Entry struct {
	AdminID     uint
	Action      string
	TargetType  string
	TargetID    string
	Description string
}

// Recorder never returns an error; failures are logged.
type Recorder interface {
	Record(ctx context.Context, entry Entry)
}

type Service struct {
	repo repositories.AdminLogRepository
	log  *zap.Logger
}

func NewService(repo repositories.AdminLogRepository, log *zap.Logger) *Service {
	return &Service{repo: repo, log: logger.OrNop(log).Named("audit")}
}

func (s *Service) Record(ctx context.Context, entry Entry) {
	row := &models.AdminLog{
		AdminID:     entry.AdminID,
		Action:      entry.Action,
		TargetType:  entry.TargetType,
		TargetID:    entry.TargetID,
		Description: entry.Description,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		s.log.Warn("failed to write admin log",
			zap.Uint("admin_id", entry.AdminID),
			zap.String("action", entry.Action),
			zap.String("target", entry.TargetType+":"+entry.TargetID),
			zap.Error(err))
	}
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]models.AdminLog, int64, error) {
	logs, total, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list admin logs: %w", err)
	}
	return logs, total, nil
}

// Nop discards every entry.
type Nop struct{}

func (Nop) Record(context.Context, Entry) {}
