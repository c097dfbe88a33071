package handlers

import (
	"strings"

	"playarena/internal/models"
	"playarena/internal/services/withdrawal"
	"playarena/internal/utils"
	"playarena/internal/utils/response"
	"playarena/internal/utils/validation"

	"github.com/gofiber/fiber/v2"
)

type WithdrawalHandler struct {
	withdrawals *withdrawal.Service
}

func NewWithdrawalHandler(withdrawals *withdrawal.Service) *WithdrawalHandler {
	return &WithdrawalHandler{withdrawals: withdrawals}
}

func (h *WithdrawalHandler) Create(c *fiber.Ctx) error {
	claims, err := currentUser(c)
	if err != nil {
		return err
	}
	var req withdrawal.Request
	if err := parseBody(c, &req); err != nil {
		return err
	}

	// format checks only; the service decides which details are required
	v := validation.New()
	if req.SavedPaymentMethodID == 0 {
		switch req.Method {
		case models.PayoutUPI:
			v.Check(req.UPIID == "" || validation.ValidUPI(strings.TrimSpace(req.UPIID)), "upiId", "invalid UPI id")
		case models.PayoutBank:
			v.Check(req.BankDetails.IFSC == "" || validation.ValidIFSC(strings.TrimSpace(req.BankDetails.IFSC)), "ifsc", "invalid IFSC code")
		}
	}
	if err := v.Err(); err != nil {
		return err
	}

	w, err := h.withdrawals.CreateRequest(c.UserContext(), claims.UserID, req)
	if err != nil {
		return err
	}
	return response.Created(c, "withdrawal requested", w)
}

func (h *WithdrawalHandler) List(c *fiber.Ctx) error {
	claims, err := currentUser(c)
	if err != nil {
		return err
	}
	page := utils.GetPagination(c, 1, 20)
	out, total, err := h.withdrawals.ListForUser(c.UserContext(), claims.UserID, page.Limit, page.Offset)
	if err != nil {
		return err
	}
	return paginated(c, out, page, total)
}

func (h *WithdrawalHandler) Get(c *fiber.Ctx) error {
	claims, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	w, err := h.withdrawals.GetForUser(c.UserContext(), id, claims.UserID)
	if err != nil {
		return err
	}
	return response.Success(c, "withdrawal retrieved", w)
}

func (h *WithdrawalHandler) Eligibility(c *fiber.Ctx) error {
	claims, err := currentUser(c)
	if err != nil {
		return err
	}
	out, err := h.withdrawals.CheckEligibility(c.UserContext(), claims.UserID)
	if err != nil {
		return err
	}
	return response.Success(c, "eligibility checked", out)
}

func (h *WithdrawalHandler) PaymentMethods(c *fiber.Ctx) error {
	claims, err := currentUser(c)
	if err != nil {
		return err
	}
	methods, err := h.withdrawals.PaymentMethods(c.UserContext(), claims.UserID)
	if err != nil {
		return err
	}
	return response.Success(c, "payment methods", methods)
}

func (h *WithdrawalHandler) Cancel(c *fiber.Ctx) error {
	claims, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	w, err := h.withdrawals.Cancel(c.UserContext(), id, claims.UserID)
	if err != nil {
		return err
	}
	return response.Success(c, "withdrawal cancelled", w)
}

// Queue is the finance view; ?status= filters, empty lists all.
func (h *WithdrawalHandler) Queue(c *fiber.Ctx) error {
	page := utils.GetPagination(c, 1, 50)
	out, total, err := h.withdrawals.ListByStatus(c.UserContext(), models.WithdrawalStatus(c.Query("status")), page.Limit, page.Offset)
	if err != nil {
		return err
	}
	return paginated(c, out, page, total)
}

func (h *WithdrawalHandler) Approve(c *fiber.Ctx) error {
	var input struct {
		Notes string `json:"notes" validate:"max=500"`
	}
	if len(c.Body()) > 0 {
		if err := parseBody(c, &input); err != nil {
			return err
		}
	}
	return h.adminAction(c, "withdrawal approved", func(adminID, id uint) (*models.Withdrawal, error) {
		return h.withdrawals.Approve(c.UserContext(), id, adminID, input.Notes)
	})
}

func (h *WithdrawalHandler) Complete(c *fiber.Ctx) error {
	var input struct {
		ExternalRef string `json:"externalRef" validate:"max=64"`
	}
	if err := parseBody(c, &input); err != nil {
		return err
	}
	return h.adminAction(c, "withdrawal completed", func(adminID, id uint) (*models.Withdrawal, error) {
		return h.withdrawals.Complete(c.UserContext(), id, adminID, input.ExternalRef)
	})
}

func (h *WithdrawalHandler) Reject(c *fiber.Ctx) error {
	var input struct {
		Reason string `json:"reason" validate:"max=500"`
	}
	if err := parseBody(c, &input); err != nil {
		return err
	}
	return h.adminAction(c, "withdrawal rejected", func(adminID, id uint) (*models.Withdrawal, error) {
		return h.withdrawals.Reject(c.UserContext(), id, adminID, input.Reason)
	})
}

func (h *WithdrawalHandler) adminAction(c *fiber.Ctx, message string, fn func(adminID, id uint) (*models.Withdrawal, error)) error {
	claims, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	w, err := fn(claims.UserID, id)
	if err != nil {
		return err
	}
	return response.Success(c, message, w)
}
