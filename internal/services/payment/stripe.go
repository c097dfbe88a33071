package payment

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/webhook"
	"go.uber.org/zap"
)

// Metadata keys set on the PaymentIntent when the checkout is created.
const (
	stripeOrderKey = "order_id"
	stripeUserKey  = "user_id"
)

// StripeWebhook verifies a Stripe-Signature header and applies
// payment_intent events to the matching deposit.
func (s *Service) StripeWebhook(ctx context.Context, payload []byte, header string) error {
	if s.cfg.StripeWebhookSecret == "" {
		return ErrInvalidSignature
	}
	event, err := webhook.ConstructEvent(payload, header, s.cfg.StripeWebhookSecret)
	if err != nil {
		s.log.Warn("stripe webhook rejected", zap.Error(err))
		return ErrInvalidSignature.Wrap(err)
	}

	var kind string
	switch event.Type {
	case "payment_intent.succeeded":
		kind = EventPaymentCaptured
	case "payment_intent.payment_failed":
		kind = EventPaymentFailed
	default:
		s.log.Debug("stripe event ignored", zap.String("type", event.Type))
		return nil
	}

	if event.Data == nil {
		return ErrMalformedEvent
	}
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return ErrMalformedEvent.Wrap(err)
	}
	userID, err := strconv.ParseUint(intent.Metadata[stripeUserKey], 10, 64)
	if err != nil || intent.Metadata[stripeOrderKey] == "" {
		return ErrMalformedEvent
	}

	return s.apply(ctx, WebhookEvent{
		ID:        event.ID,
		Event:     kind,
		UserID:    uint(userID),
		OrderID:   intent.Metadata[stripeOrderKey],
		PaymentID: intent.ID,
	})
}
