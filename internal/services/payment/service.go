// Package payment records gateway deposits as pending ledger credits and
// settles them when the checkout signature or a webhook confirms payment.
package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "playarena/internal/errors"
	"playarena/internal/logger"
	"playarena/internal/models"
	"playarena/internal/repositories"
	"playarena/internal/services/ledger"
	"playarena/internal/services/notification"
	keys "playarena/internal/utils/cache"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	EventPaymentCaptured = "payment.captured"
	EventPaymentFailed   = "payment.failed"

	defaultEventTTL = 72 * time.Hour
)

// Deduper remembers processed webhook event ids; cache.CacheService implements it.
type Deduper interface {
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, keys ...string) error
}

type DepositRequest struct {
	Amount  decimal.Decimal `json:"amount"`
	OrderID string          `json:"orderId" validate:"required,max=64"`
}

type VerifyRequest struct {
	OrderID   string `json:"orderId" validate:"required"`
	PaymentID string `json:"paymentId" validate:"required"`
	Signature string `json:"signature" validate:"required"`
}

// WebhookEvent is the gateway's notification, normalised across providers.
type WebhookEvent struct {
	ID        string `json:"id"`
	Event     string `json:"event"`
	UserID    uint   `json:"user_id"`
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
}

type Config struct {
	// EventTTL bounds how long webhook ids are remembered
	EventTTL            time.Duration
	StripeWebhookSecret string
}

type Service struct {
	store    repositories.Store
	ledger   ledger.Service
	checkout SignatureVerifier
	webhooks *HMACVerifier
	dedupe   Deduper
	notifier notification.Notifier
	cfg      Config
	log      *zap.Logger
}

// NewService wires the deposit flow. dedupe may be nil; settlement only
// acts on pending rows, so replays are still harmless without it.
func NewService(
	store repositories.Store,
	ledgerSvc ledger.Service,
	checkout SignatureVerifier,
	webhooks *HMACVerifier,
	dedupe Deduper,
	notifier notification.Notifier,
	cfg Config,
	log *zap.Logger,
) *Service {
	if notifier == nil {
		notifier = notification.Nop{}
	}
	if cfg.EventTTL <= 0 {
		cfg.EventTTL = defaultEventTTL
	}
	return &Service{
		store:    store,
		ledger:   ledgerSvc,
		checkout: checkout,
		webhooks: webhooks,
		dedupe:   dedupe,
		notifier: notifier,
		cfg:      cfg,
		log:      logger.OrNop(log).Named("payment"),
	}
}

// InitiateDeposit records a pending credit for a gateway order. Repeating the
// call for the same order returns the existing row.
func (s *Service) InitiateDeposit(ctx context.Context, userID uint, req DepositRequest) (*models.Transaction, error) {
	orderID := strings.TrimSpace(req.OrderID)
	if orderID == "" {
		return nil, ErrOrderRequired
	}
	if !req.Amount.IsPositive() {
		return nil, apperrors.ErrInvalidAmount
	}

	var row *models.Transaction
	err := s.store.ExecuteInTransaction(ctx, func(tx repositories.Store) error {
		existing, err := tx.Transactions().FindByReference(ctx, userID, models.CategoryDeposit, depositRef(orderID))
		if err == nil {
			row = existing
			return nil
		}
		if !errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("failed to look up deposit: %w", err)
		}

		row, err = s.ledger.Credit(ctx, tx, ledger.Entry{
			UserID:      userID,
			Amount:      req.Amount.Round(2),
			Category:    models.CategoryDeposit,
			Description: "Deposit for order " + orderID,
			Reference:   depositRef(orderID),
			Status:      models.TransactionPending,
			Metadata:    models.JSON{"order_id": orderID},
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

// VerifyDeposit settles the deposit once the checkout signature checks out.
func (s *Service) VerifyDeposit(ctx context.Context, userID uint, req VerifyRequest) (*models.Transaction, error) {
	if s.checkout == nil || !s.checkout.VerifySignature(req.OrderID, req.PaymentID, req.Signature) {
		s.log.Warn("deposit signature rejected", zap.Uint("user_id", userID), zap.String("order_id", req.OrderID))
		return nil, ErrInvalidSignature
	}
	return s.confirm(ctx, userID, req.OrderID, req.PaymentID)
}

// HandleWebhook verifies and applies a gateway webhook body.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.webhooks == nil || !s.webhooks.Verify(payload, signature) {
		return ErrInvalidSignature
	}
	var event WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return ErrMalformedEvent.Wrap(err)
	}
	if event.ID == "" || event.OrderID == "" || event.UserID == 0 {
		return ErrMalformedEvent
	}
	return s.apply(ctx, event)
}

// apply runs event at most once per id.
func (s *Service) apply(ctx context.Context, event WebhookEvent) error {
	key := keys.GenerateKey(keys.EntityWebhook, keys.KeyEvent, event.ID)
	if s.dedupe != nil {
		fresh, err := s.dedupe.MarkProcessed(ctx, key, s.cfg.EventTTL)
		if err != nil {
			s.log.Warn("webhook dedupe unavailable", zap.String("event_id", event.ID), zap.Error(err))
		} else if !fresh {
			s.log.Info("duplicate webhook ignored", zap.String("event_id", event.ID))
			return nil
		}
	}

	var err error
	switch event.Event {
	case EventPaymentCaptured:
		_, err = s.confirm(ctx, event.UserID, event.OrderID, event.PaymentID)
	case EventPaymentFailed:
		err = s.fail(ctx, event.UserID, event.OrderID)
	default:
		s.log.Debug("webhook event ignored", zap.String("event", event.Event))
	}
	if err != nil && s.dedupe != nil {
		// let the gateway's retry through
		if derr := s.dedupe.Delete(ctx, key); derr != nil {
			s.log.Warn("failed to clear webhook marker", zap.String("event_id", event.ID), zap.Error(derr))
		}
	}
	return err
}

func (s *Service) confirm(ctx context.Context, userID uint, orderID, paymentID string) (*models.Transaction, error) {
	pending, err := s.findDeposit(ctx, userID, orderID)
	if err != nil {
		return nil, err
	}
	switch pending.Status {
	case models.TransactionCompleted:
		return pending, nil
	case models.TransactionFailed:
		return nil, ErrDepositFailed
	}

	row, err := s.ledger.Settle(ctx, nil, pending.ID)
	if err != nil {
		return nil, err
	}
	s.log.Info("deposit settled",
		zap.Uint("user_id", userID),
		zap.String("order_id", orderID),
		zap.String("payment_id", paymentID),
		zap.String("amount", row.Amount.StringFixed(2)))
	s.notifier.Notify(ctx, notification.Notice{
		UserID:  userID,
		Type:    models.NotificationDepositCompleted,
		Title:   "Deposit successful",
		Message: fmt.Sprintf("%s has been added to your wallet", row.Amount.StringFixed(2)),
		RefType: models.RefDeposit,
		RefID:   orderID,
	})
	return row, nil
}

func (s *Service) fail(ctx context.Context, userID uint, orderID string) error {
	pending, err := s.findDeposit(ctx, userID, orderID)
	if err != nil {
		return err
	}
	if pending.Status == models.TransactionCompleted {
		s.log.Warn("failure event for a settled deposit", zap.String("order_id", orderID))
		return nil
	}
	if _, err := s.ledger.Fail(ctx, nil, pending.ID); err != nil {
		return err
	}
	s.log.Info("deposit failed", zap.Uint("user_id", userID), zap.String("order_id", orderID))
	return nil
}

func (s *Service) findDeposit(ctx context.Context, userID uint, orderID string) (*models.Transaction, error) {
	row, err := s.store.Transactions().FindByReference(ctx, userID, models.CategoryDeposit, depositRef(orderID))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrDepositNotFound
		}
		return nil, fmt.Errorf("failed to load deposit: %w", err)
	}
	return row, nil
}

func depositRef(orderID string) models.Reference {
	return models.Reference{Type: models.RefDeposit, ID: orderID}
}
