package handlers

import (
	"playarena/internal/models"
	"playarena/internal/repositories"
	"playarena/internal/services/ledger"
	"playarena/internal/services/payment"
	"playarena/internal/utils"
	"playarena/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

const (
	webhookSignatureHeader = "X-Webhook-Signature"
	stripeSignatureHeader  = "Stripe-Signature"
)

type WalletHandler struct {
	ledger   ledger.Service
	payments *payment.Service
}

func NewWalletHandler(ledgerSvc ledger.Service, payments *payment.Service) *WalletHandler {
	return &WalletHandler{
		ledger:   ledgerSvc,
		payments: payments,
	}
}

func (h *WalletHandler) GetWallet(c *fiber.Ctx) error {
	claims, err := currentUser(c)
	if err != nil {
		return err
	}
	balance, err := h.ledger.Balance(c.UserContext(), claims.UserID)
	if err != nil {
		return err
	}
	return response.Success(c, "wallet retrieved", balance)
}

func (h *WalletHandler) Transactions(c *fiber.Ctx) error {
	claims, err := currentUser(c)
	if err != nil {
		return err
	}
	page := utils.GetPagination(c, 1, 20)
	txs, total, err := h.ledger.History(c.UserContext(), claims.UserID, repositories.TransactionFilter{
		Category: c.Query("category"),
		Status:   models.TransactionStatus(c.Query("status")),
		Limit:    page.Limit,
		Offset:   page.Offset,
	})
	if err != nil {
		return err
	}
	return paginated(c, txs, page, total)
}

func (h *WalletHandler) InitiateDeposit(c *fiber.Ctx) error {
	claims, err := currentUser(c)
	if err != nil {
		return err
	}
	var req payment.DepositRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	row, err := h.payments.InitiateDeposit(c.UserContext(), claims.UserID, req)
	if err != nil {
		return err
	}
	return response.Created(c, "deposit pending", row)
}

func (h *WalletHandler) VerifyDeposit(c *fiber.Ctx) error {
	claims, err := currentUser(c)
	if err != nil {
		return err
	}
	var req payment.VerifyRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	row, err := h.payments.VerifyDeposit(c.UserContext(), claims.UserID, req)
	if err != nil {
		return err
	}
	return response.Success(c, "deposit completed", row)
}

// PaymentWebhook is unauthenticated; the HMAC header authenticates the body.
func (h *WalletHandler) PaymentWebhook(c *fiber.Ctx) error {
	if err := h.payments.HandleWebhook(c.UserContext(), c.Body(), c.Get(webhookSignatureHeader)); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"received": true})
}

func (h *WalletHandler) StripeWebhook(c *fiber.Ctx) error {
	if err := h.payments.StripeWebhook(c.UserContext(), c.Body(), c.Get(stripeSignatureHeader)); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"received": true})
}
