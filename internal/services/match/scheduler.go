package match

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Scheduler opens registration for upcoming matches whose
// RegistrationOpensAt has passed.
type Scheduler struct {
	svc      *Service
	interval time.Duration
	log      *zap.Logger
}

func NewScheduler(svc *Service, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{svc: svc, interval: interval, log: svc.log.Named("scheduler")}
}

// Run ticks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick opens every due match and returns how many were opened.
func (s *Scheduler) Tick(ctx context.Context) int {
	due, err := s.svc.store.Matches().ListDueForRegistration(ctx, s.svc.now())
	if err != nil {
		s.log.Error("failed to list matches due for registration", zap.Error(err))
		return 0
	}

	opened := 0
	for _, m := range due {
		if _, err := s.svc.OpenRegistration(ctx, 0, m.ID); err != nil {
			// another instance may have opened it first
			s.log.Warn("failed to open registration", zap.Uint("match_id", m.ID), zap.Error(err))
			continue
		}
		opened++
		s.log.Info("registration opened", zap.Uint("match_id", m.ID))
	}
	return opened
}
