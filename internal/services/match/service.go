// Package match implements slot allocation and the match lifecycle.
package match

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"playarena/internal/logger"
	"playarena/internal/models"
	"playarena/internal/repositories"
	"playarena/internal/services/audit"
	"playarena/internal/services/ledger"
	"playarena/internal/services/notification"
	"playarena/internal/services/refund"

	"go.uber.org/zap"
)

type Service struct {
	store    repositories.Store
	ledger   ledger.Service
	refunds  refund.Policy
	notifier notification.Notifier
	audit    audit.Recorder
	cfg      Config
	log      *zap.Logger
	now      func() time.Time
}

type Option func(*Service)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(
	store repositories.Store,
	ledgerSvc ledger.Service,
	policy refund.Policy,
	notifier notification.Notifier,
	recorder audit.Recorder,
	cfg Config,
	log *zap.Logger,
	opts ...Option,
) *Service {
	if store == nil {
		panic("store is required")
	}
	if ledgerSvc == nil {
		panic("ledger is required")
	}
	if policy == nil {
		policy = refund.Default()
	}
	if notifier == nil {
		notifier = notification.Nop{}
	}
	if recorder == nil {
		recorder = audit.Nop{}
	}
	if len(cfg.JoinableStatuses) == 0 {
		cfg.JoinableStatuses = []models.MatchStatus{models.MatchRegistrationOpen}
	}

	s := &Service{
		store:    store,
		ledger:   ledgerSvc,
		refunds:  policy,
		notifier: notifier,
		audit:    recorder,
		cfg:      cfg,
		log:      logger.OrNop(log).Named("match"),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) joinable(status models.MatchStatus) bool {
	return slices.Contains(s.cfg.JoinableStatuses, status)
}

func (s *Service) Get(ctx context.Context, matchID uint) (*models.Match, error) {
	m, err := s.store.Matches().GetWithParticipants(ctx, matchID)
	if err != nil {
		return nil, notFound(err)
	}
	return m, nil
}

func (s *Service) List(ctx context.Context, filter repositories.MatchFilter) ([]models.Match, int64, error) {
	matches, total, err := s.store.Matches().List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list matches: %w", err)
	}
	return matches, total, nil
}

// RoomFor returns the room only to joined players after reveal.
func (s *Service) RoomFor(ctx context.Context, userID, matchID uint) (*models.RoomCredentials, error) {
	m, err := s.Get(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !HasJoined(m, userID) {
		return nil, ErrNotParticipant
	}
	if !m.RoomCredentialsVisible || m.RoomID == "" {
		return nil, ErrRoomHidden
	}
	return &models.RoomCredentials{RoomID: m.RoomID, RoomPassword: m.RoomPassword}, nil
}

func lockMatch(ctx context.Context, tx repositories.Store, matchID uint) (*models.Match, error) {
	m, err := tx.Matches().GetByIDForUpdate(ctx, matchID)
	if err != nil {
		return nil, notFound(err)
	}
	return m, nil
}

func notFound(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrMatchNotFound
	}
	return fmt.Errorf("failed to load match: %w", err)
}

func matchRef(matchID uint) models.Reference {
	return models.Reference{Type: models.RefMatch, ID: fmt.Sprint(matchID)}
}
