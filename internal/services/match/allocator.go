package match

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apperrors "playarena/internal/errors"
	"playarena/internal/models"
	"playarena/internal/repositories"
	"playarena/internal/services/ledger"
	"playarena/internal/services/notification"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// HasJoined reports whether userID holds a slot. m must carry its participants.
func HasJoined(m *models.Match, userID uint) bool {
	return m.Participant(userID) != nil
}

// GetSlot returns the slot held by userID.
func GetSlot(m *models.Match, userID uint) (int, bool) {
	p := m.Participant(userID)
	if p == nil {
		return 0, false
	}
	return p.SlotNumber, true
}

// lowestFreeSlot returns the smallest slot in [1, maxSlots] not present in used.
func lowestFreeSlot(used []int, maxSlots int) (int, bool) {
	taken := make(map[int]struct{}, len(used))
	for _, n := range used {
		taken[n] = struct{}{}
	}
	for slot := 1; slot <= maxSlots; slot++ {
		if _, ok := taken[slot]; !ok {
			return slot, true
		}
	}
	return 0, false
}

// Join reserves a slot and debits the entry fee in one transaction.
func (s *Service) Join(ctx context.Context, matchID, userID uint, req JoinRequest) (*JoinResult, error) {
	inGameID := strings.TrimSpace(req.InGameID)
	inGameName := strings.TrimSpace(req.InGameName)
	if inGameID == "" || inGameName == "" {
		return nil, apperrors.Validation("inGameId and inGameName are required")
	}

	var (
		result *JoinResult
		title  string
	)
	err := s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		m, err := lockMatch(ctx, tx, matchID)
		if err != nil {
			return err
		}
		if !s.joinable(m.Status) {
			return ErrRegistrationClosed
		}
		if m.FilledSlots >= m.MaxSlots {
			return ErrMatchFull
		}
		if _, err := tx.Matches().GetParticipant(ctx, matchID, userID); err == nil {
			return apperrors.ErrAlreadyJoined
		} else if !errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("failed to check participation: %w", err)
		}

		user, err := tx.Users().GetByID(ctx, userID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ledger.ErrUserNotFound
			}
			return fmt.Errorf("failed to load user: %w", err)
		}
		if user.IsBanned {
			return ErrAccountBanned
		}

		used, err := tx.Matches().UsedSlots(ctx, matchID)
		if err != nil {
			return fmt.Errorf("failed to load slots: %w", err)
		}
		slot, ok := lowestFreeSlot(used, m.MaxSlots)
		if !ok {
			return ErrMatchFull
		}

		p := &models.MatchParticipant{
			MatchID:      matchID,
			UserID:       userID,
			SlotNumber:   slot,
			InGameID:     inGameID,
			InGameName:   inGameName,
			EntryFeePaid: m.EntryFee,
			JoinedAt:     s.now(),
		}
		if err := tx.Matches().AddParticipant(ctx, p); err != nil {
			if errors.Is(err, repositories.ErrDuplicate) {
				return apperrors.ErrAlreadyJoined
			}
			return fmt.Errorf("failed to add participant: %w", err)
		}
		incremented, err := tx.Matches().IncrementFilled(ctx, matchID)
		if err != nil {
			return fmt.Errorf("failed to reserve slot: %w", err)
		}
		if !incremented {
			return ErrMatchFull
		}

		balance := user.WalletBalance
		if m.EntryFee.IsPositive() {
			row, err := s.ledger.Debit(ctx, tx, ledger.Entry{
				UserID:      userID,
				Amount:      m.EntryFee,
				Category:    models.CategoryMatchEntry,
				Description: "Entry fee for " + m.Title,
				Reference:   matchRef(matchID),
			})
			if err != nil {
				return err
			}
			p.EntryTransactionID = &row.ID
			if err := tx.Matches().SaveParticipant(ctx, p); err != nil {
				return fmt.Errorf("failed to link entry fee: %w", err)
			}
			balance = row.BalanceAfter
		}

		title = m.Title
		result = &JoinResult{
			MatchID:       matchID,
			SlotNumber:    slot,
			EntryFee:      m.EntryFee,
			Balance:       balance,
			TransactionID: p.EntryTransactionID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("player joined match",
		zap.Uint("match_id", matchID),
		zap.Uint("user_id", userID),
		zap.Int("slot", result.SlotNumber))
	s.notifier.Notify(ctx, notification.Notice{
		UserID:  userID,
		Type:    models.NotificationMatchJoined,
		Title:   "Match joined",
		Message: fmt.Sprintf("You joined %s in slot %d", title, result.SlotNumber),
		RefType: models.RefMatch,
		RefID:   fmt.Sprint(matchID),
	})
	return result, nil
}

// Leave frees the user's slot and credits the policy refund.
func (s *Service) Leave(ctx context.Context, matchID, userID uint) (decimal.Decimal, error) {
	refund := decimal.Zero
	err := s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		m, err := lockMatch(ctx, tx, matchID)
		if err != nil {
			return err
		}
		if !m.Status.PreStart() {
			return ErrNotLeavable
		}

		p, err := tx.Matches().GetParticipantForUpdate(ctx, matchID, userID)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrNotJoined
			}
			return fmt.Errorf("failed to load participant: %w", err)
		}
		if err := tx.Matches().DeleteParticipant(ctx, p.ID); err != nil {
			return fmt.Errorf("failed to remove participant: %w", err)
		}
		if err := tx.Matches().DecrementFilled(ctx, matchID); err != nil {
			return fmt.Errorf("failed to release slot: %w", err)
		}

		refund = s.refunds.LeaveRefund(p.EntryFeePaid, m.ScheduledAt, s.now())
		if !refund.IsPositive() {
			return nil
		}
		_, err = s.ledger.Credit(ctx, tx, ledger.Entry{
			UserID:      userID,
			Amount:      refund,
			Category:    models.CategoryMatchRefund,
			Description: "Refund for leaving " + m.Title,
			Reference:   matchRef(matchID),
		})
		return err
	})
	if err != nil {
		return decimal.Zero, err
	}

	s.log.Info("player left match",
		zap.Uint("match_id", matchID),
		zap.Uint("user_id", userID),
		zap.String("refund", refund.StringFixed(2)))
	return refund, nil
}
