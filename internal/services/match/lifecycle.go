package match

import (
	"context"
	"fmt"
	"sort"
	"strings"

	apperrors "playarena/internal/errors"
	"playarena/internal/models"
	"playarena/internal/repositories"
	"playarena/internal/services/audit"
	"playarena/internal/services/ledger"
	"playarena/internal/services/notification"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

func validateInput(in MatchInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return apperrors.Validation("title is required")
	}
	if in.MaxSlots <= 0 {
		return apperrors.Validation("max_slots must be greater than zero")
	}
	if in.EntryFee.IsNegative() || in.PrizePool.IsNegative() || in.PerKillPrize.IsNegative() {
		return apperrors.Validation("fees and prizes cannot be negative")
	}
	if in.ScheduledAt.IsZero() {
		return apperrors.Validation("scheduled_at is required")
	}
	if in.RegistrationOpensAt != nil && in.RegistrationOpensAt.After(in.ScheduledAt) {
		return apperrors.Validation("registration must open before the match is scheduled")
	}
	seen := make(map[int]bool, len(in.PrizeDistribution))
	for _, slab := range in.PrizeDistribution {
		if slab.Position <= 0 || slab.Prize.IsNegative() {
			return apperrors.Validation("prize positions must be positive and prizes non-negative")
		}
		if seen[slab.Position] {
			return apperrors.Validation(fmt.Sprintf("duplicate prize position %d", slab.Position))
		}
		seen[slab.Position] = true
	}
	return nil
}

func (s *Service) Create(ctx context.Context, adminID uint, in MatchInput) (*models.Match, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	status := models.MatchUpcoming
	if in.OpenNow {
		status = models.MatchRegistrationOpen
	}
	m := &models.Match{
		Title:               strings.TrimSpace(in.Title),
		Game:                in.Game,
		Status:              status,
		MaxSlots:            in.MaxSlots,
		EntryFee:            in.EntryFee,
		PrizePool:           in.PrizePool,
		PerKillPrize:        in.PerKillPrize,
		PrizeDistribution:   datatypes.NewJSONType(in.PrizeDistribution),
		ScheduledAt:         in.ScheduledAt,
		RegistrationOpensAt: in.RegistrationOpensAt,
		CreatedBy:           adminID,
	}
	if err := s.store.Matches().Create(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}

	s.record(ctx, adminID, audit.ActionMatchCreate, m.ID, "created "+m.Title)
	return m, nil
}

// transition applies fn to the locked match and saves it.
func (s *Service) transition(ctx context.Context, matchID uint, fn func(tx repositories.Store, m *models.Match) error) (*models.Match, error) {
	var out *models.Match
	err := s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		m, err := lockMatch(ctx, tx, matchID)
		if err != nil {
			return err
		}
		if err := fn(tx, m); err != nil {
			return err
		}
		if err := tx.Matches().Save(ctx, m); err != nil {
			return fmt.Errorf("failed to save match: %w", err)
		}
		out = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// OpenRegistration moves upcoming to registration_open. actorID 0 is the scheduler.
func (s *Service) OpenRegistration(ctx context.Context, actorID, matchID uint) (*models.Match, error) {
	m, err := s.transition(ctx, matchID, func(_ repositories.Store, m *models.Match) error {
		if m.Status != models.MatchUpcoming {
			return invalidTransition(m.Status, "open registration for")
		}
		m.Status = models.MatchRegistrationOpen
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, actorID, audit.ActionMatchOpen, matchID, "registration opened")
	return m, nil
}

func (s *Service) SetRoomCredentials(ctx context.Context, adminID, matchID uint, roomID, password string, revealNow bool) (*models.Match, error) {
	roomID = strings.TrimSpace(roomID)
	password = strings.TrimSpace(password)
	if roomID == "" || password == "" {
		return nil, apperrors.Validation("room id and password are required")
	}

	m, err := s.transition(ctx, matchID, func(_ repositories.Store, m *models.Match) error {
		if m.Status != models.MatchRegistrationOpen && m.Status != models.MatchRoomRevealed {
			return invalidTransition(m.Status, "set room credentials for")
		}
		m.RoomID = roomID
		m.RoomPassword = password
		if revealNow {
			m.RoomCredentialsVisible = true
			m.Status = models.MatchRoomRevealed
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, adminID, audit.ActionMatchRoom, matchID, fmt.Sprintf("room set, revealed=%t", revealNow))
	if revealNow {
		s.notifyParticipants(ctx, matchID, notification.Notice{
			Type:    models.NotificationRoomRevealed,
			Title:   "Room details available",
			Message: "Room credentials for " + m.Title + " are now available",
		})
	}
	return m, nil
}

func (s *Service) Start(ctx context.Context, adminID, matchID uint) (*models.Match, error) {
	m, err := s.transition(ctx, matchID, func(_ repositories.Store, m *models.Match) error {
		if m.Status != models.MatchRoomRevealed {
			return invalidTransition(m.Status, "start")
		}
		if !m.RoomCredentialsVisible {
			return ErrRoomNotRevealed
		}
		now := s.now()
		m.Status = models.MatchLive
		m.StartedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, adminID, audit.ActionMatchStart, matchID, "match started")
	return m, nil
}

// SubmitResults records placements and kills and moves live to result_pending.
func (s *Service) SubmitResults(ctx context.Context, adminID, matchID uint, results []Result) (*models.Match, error) {
	m, err := s.transition(ctx, matchID, func(tx repositories.Store, m *models.Match) error {
		if m.Status != models.MatchLive {
			return invalidTransition(m.Status, "submit results for")
		}
		participants, err := tx.Matches().ListParticipants(ctx, matchID)
		if err != nil {
			return fmt.Errorf("failed to load participants: %w", err)
		}
		byUser := make(map[uint]*models.MatchParticipant, len(participants))
		for i := range participants {
			byUser[participants[i].UserID] = &participants[i]
		}

		positions := make(map[int]bool, len(results))
		seen := make(map[uint]bool, len(results))
		for _, r := range results {
			p, ok := byUser[r.UserID]
			if !ok {
				return apperrors.Validation(fmt.Sprintf("user %d is not a participant", r.UserID))
			}
			if seen[r.UserID] {
				return apperrors.Validation(fmt.Sprintf("duplicate result for user %d", r.UserID))
			}
			if r.Position < 0 || r.Kills < 0 {
				return apperrors.Validation("position and kills cannot be negative")
			}
			if r.Position > 0 && positions[r.Position] {
				return apperrors.Validation(fmt.Sprintf("position %d assigned twice", r.Position))
			}
			seen[r.UserID] = true
			positions[r.Position] = r.Position > 0
			p.Position = r.Position
			p.Kills = r.Kills
			if err := tx.Matches().SaveParticipant(ctx, p); err != nil {
				return fmt.Errorf("failed to save result: %w", err)
			}
		}
		m.Status = models.MatchResultPending
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, adminID, audit.ActionMatchResults, matchID, fmt.Sprintf("%d results recorded", len(results)))
	return m, nil
}

// Settle credits prizes and completes the match exactly once.
func (s *Service) Settle(ctx context.Context, adminID, matchID uint) (*Settlement, error) {
	var (
		settlement *Settlement
		title      string
	)
	err := s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		m, err := lockMatch(ctx, tx, matchID)
		if err != nil {
			return err
		}
		participants, err := tx.Matches().ListParticipants(ctx, matchID)
		if err != nil {
			return fmt.Errorf("failed to load participants: %w", err)
		}
		// users are credited in ascending id order
		sort.Slice(participants, func(i, j int) bool {
			return participants[i].UserID < participants[j].UserID
		})

		if m.Status == models.MatchCompleted {
			settlement = storedSettlement(matchID, participants)
			return nil
		}
		if m.Status != models.MatchResultPending {
			return invalidTransition(m.Status, "settle")
		}

		settlement = &Settlement{MatchID: matchID, TotalPaid: decimal.Zero}
		dist := m.Distribution()
		for i := range participants {
			p := &participants[i]
			prize := dist.PrizeFor(p.Position).Add(m.PerKillPrize.Mul(decimal.NewFromInt(int64(p.Kills))))
			payout := Payout{UserID: p.UserID, Position: p.Position, Kills: p.Kills, Prize: prize}

			p.PrizeWon = prize
			if err := tx.Matches().SaveParticipant(ctx, p); err != nil {
				return fmt.Errorf("failed to save prize: %w", err)
			}
			if prize.IsPositive() {
				row, err := s.ledger.Credit(ctx, tx, ledger.Entry{
					UserID:      p.UserID,
					Amount:      prize,
					Category:    models.CategoryMatchPrize,
					Description: "Prize for " + m.Title,
					Reference:   matchRef(matchID),
				})
				if err != nil {
					return err
				}
				payout.TransactionID = &row.ID
				settlement.TotalPaid = settlement.TotalPaid.Add(prize)
			}
			settlement.Payouts = append(settlement.Payouts, payout)
		}

		now := s.now()
		m.Status = models.MatchCompleted
		m.CompletedAt = &now
		if err := tx.Matches().Save(ctx, m); err != nil {
			return fmt.Errorf("failed to complete match: %w", err)
		}
		title = m.Title
		return nil
	})
	if err != nil {
		return nil, err
	}
	if settlement.AlreadySettled {
		return settlement, nil
	}

	s.log.Info("match settled",
		zap.Uint("match_id", matchID),
		zap.Int("payouts", len(settlement.Payouts)),
		zap.String("total", settlement.TotalPaid.StringFixed(2)))
	s.record(ctx, adminID, audit.ActionMatchSettle, matchID, "prizes paid "+settlement.TotalPaid.StringFixed(2))
	for _, p := range settlement.Payouts {
		if !p.Prize.IsPositive() {
			continue
		}
		s.notifier.Notify(ctx, notification.Notice{
			UserID:  p.UserID,
			Type:    models.NotificationPrizeCredited,
			Title:   "Prize credited",
			Message: fmt.Sprintf("You won %s in %s", p.Prize.StringFixed(2), title),
			RefType: models.RefMatch,
			RefID:   fmt.Sprint(matchID),
		})
	}
	return settlement, nil
}

func storedSettlement(matchID uint, participants []models.MatchParticipant) *Settlement {
	out := &Settlement{MatchID: matchID, TotalPaid: decimal.Zero, AlreadySettled: true}
	for _, p := range participants {
		out.Payouts = append(out.Payouts, Payout{UserID: p.UserID, Position: p.Position, Kills: p.Kills, Prize: p.PrizeWon})
		out.TotalPaid = out.TotalPaid.Add(p.PrizeWon)
	}
	return out
}

// Complete records results when the match is live and then settles it.
func (s *Service) Complete(ctx context.Context, adminID, matchID uint, results []Result) (*Settlement, error) {
	m, err := s.store.Matches().GetByID(ctx, matchID)
	if err != nil {
		return nil, notFound(err)
	}
	if m.Status == models.MatchLive {
		if _, err := s.SubmitResults(ctx, adminID, matchID, results); err != nil {
			return nil, err
		}
	}
	return s.Settle(ctx, adminID, matchID)
}

// Cancel closes the match and refunds every participant in full. Calling it
// again on a cancelled match resumes the refunds still owed.
func (s *Service) Cancel(ctx context.Context, actorID, matchID uint, reason string) (*CancelReport, error) {
	resumed := false
	m, err := s.transition(ctx, matchID, func(_ repositories.Store, m *models.Match) error {
		switch m.Status {
		case models.MatchCancelled:
			resumed = true
			return nil
		case models.MatchCompleted:
			return ErrMatchCompleted
		}
		now := s.now()
		m.Status = models.MatchCancelled
		m.CancelReason = strings.TrimSpace(reason)
		m.CancelledAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	report, err := s.refundAll(ctx, m)
	if err != nil {
		return nil, err
	}
	report.Resumed = resumed
	if !resumed {
		s.record(ctx, actorID, audit.ActionMatchCancel, matchID, "cancelled: "+m.CancelReason)
	}
	return report, nil
}

// RetryRefunds refunds participants a previous cancellation could not.
func (s *Service) RetryRefunds(ctx context.Context, actorID, matchID uint) (*CancelReport, error) {
	m, err := s.store.Matches().GetByID(ctx, matchID)
	if err != nil {
		return nil, notFound(err)
	}
	if m.Status != models.MatchCancelled {
		return nil, invalidTransition(m.Status, "retry refunds for")
	}
	report, err := s.refundAll(ctx, m)
	if err != nil {
		return nil, err
	}
	report.Resumed = true
	return report, nil
}

func (s *Service) refundAll(ctx context.Context, m *models.Match) (*CancelReport, error) {
	participants, err := s.store.Matches().ListParticipants(ctx, m.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load participants: %w", err)
	}
	sort.Slice(participants, func(i, j int) bool {
		return participants[i].UserID < participants[j].UserID
	})

	report := &CancelReport{
		MatchID:       m.ID,
		Status:        string(models.MatchCancelled),
		Refunded:      []RefundOutcome{},
		Failed:        []RefundFailure{},
		TotalRefunded: decimal.Zero,
	}
	for _, p := range participants {
		if p.Refunded {
			continue
		}
		outcome, err := s.refundOne(ctx, m, p.UserID)
		if err != nil {
			s.log.Error("cancellation refund failed",
				zap.Uint("match_id", m.ID),
				zap.Uint("user_id", p.UserID),
				zap.Error(err))
			report.Failed = append(report.Failed, RefundFailure{UserID: p.UserID, Amount: p.EntryFeePaid, Error: err.Error()})
			continue
		}
		if outcome == nil {
			continue
		}
		report.Refunded = append(report.Refunded, *outcome)
		report.TotalRefunded = report.TotalRefunded.Add(outcome.Amount)

		s.notifier.Notify(ctx, notification.Notice{
			UserID:  p.UserID,
			Type:    models.NotificationMatchCancelled,
			Title:   "Match cancelled",
			Message: fmt.Sprintf("%s was cancelled. %s has been refunded to your wallet", m.Title, outcome.Amount.StringFixed(2)),
			RefType: models.RefMatch,
			RefID:   fmt.Sprint(m.ID),
		})
	}
	return report, nil
}

// refundOne runs in its own transaction; the Refunded flag makes it safe to retry.
func (s *Service) refundOne(ctx context.Context, m *models.Match, userID uint) (*RefundOutcome, error) {
	var outcome *RefundOutcome
	err := s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		p, err := tx.Matches().GetParticipantForUpdate(ctx, m.ID, userID)
		if err != nil {
			return fmt.Errorf("failed to lock participant: %w", err)
		}
		if p.Refunded {
			return nil
		}

		outcome = &RefundOutcome{UserID: userID, Amount: p.EntryFeePaid}
		if p.EntryFeePaid.IsPositive() {
			row, err := s.ledger.Credit(ctx, tx, ledger.Entry{
				UserID:      userID,
				Amount:      p.EntryFeePaid,
				Category:    models.CategoryMatchRefund,
				Description: "Refund for cancelled match " + m.Title,
				Reference:   matchRef(m.ID),
			})
			if err != nil {
				return err
			}
			outcome.TransactionID = &row.ID
		}
		p.Refunded = true
		return tx.Matches().SaveParticipant(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

// Delete removes a match nobody has joined.
func (s *Service) Delete(ctx context.Context, adminID, matchID uint) error {
	err := s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		if _, err := lockMatch(ctx, tx, matchID); err != nil {
			return err
		}
		count, err := tx.Matches().CountParticipants(ctx, matchID)
		if err != nil {
			return fmt.Errorf("failed to count participants: %w", err)
		}
		if count > 0 {
			return ErrHasParticipants
		}
		if err := tx.Matches().Delete(ctx, matchID); err != nil {
			return notFound(err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.record(ctx, adminID, audit.ActionMatchDelete, matchID, "deleted")
	return nil
}

func (s *Service) notifyParticipants(ctx context.Context, matchID uint, notice notification.Notice) {
	participants, err := s.store.Matches().ListParticipants(ctx, matchID)
	if err != nil {
		s.log.Warn("failed to load participants for notification", zap.Uint("match_id", matchID), zap.Error(err))
		return
	}
	notice.RefType = models.RefMatch
	notice.RefID = fmt.Sprint(matchID)
	for _, p := range participants {
		notice.UserID = p.UserID
		s.notifier.Notify(ctx, notice)
	}
}

func (s *Service) record(ctx context.Context, adminID uint, action string, matchID uint, description string) {
	if adminID == 0 {
		return
	}
	s.audit.Record(ctx, audit.Entry{
		AdminID:     adminID,
		Action:      action,
		TargetType:  models.RefMatch,
		TargetID:    fmt.Sprint(matchID),
		Description: description,
	})
}
