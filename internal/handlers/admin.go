package handlers

import (
	"errors"

	"playarena/internal/repositories"
	"playarena/internal/services/audit"
	"playarena/internal/services/ledger"
	"playarena/internal/utils"
	"playarena/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type AdminHandler struct {
	ledger ledger.Service
	audit  *audit.Service
	users  repositories.UserRepository
}

func NewAdminHandler(ledgerSvc ledger.Service, auditSvc *audit.Service, users repositories.UserRepository) *AdminHandler {
	return &AdminHandler{ledger: ledgerSvc, audit: auditSvc, users: users}
}

// Reconcile replays a user's ledger against the stored balance.
func (h *AdminHandler) Reconcile(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	report, err := h.ledger.Reconcile(c.UserContext(), id)
	if err != nil {
		return err
	}
	return response.Success(c, "reconciliation complete", report)
}

func (h *AdminHandler) Logs(c *fiber.Ctx) error {
	page := utils.GetPagination(c, 1, 50)
	logs, total, err := h.audit.List(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return err
	}
	return paginated(c, logs, page, total)
}

// UpdateUserFlags toggles KYC and ban status; omitted fields keep their value.
func (h *AdminHandler) UpdateUserFlags(c *fiber.Ctx) error {
	claims, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var input struct {
		KYCVerified *bool `json:"kycVerified"`
		Banned      *bool `json:"banned"`
	}
	if err := parseBody(c, &input); err != nil {
		return err
	}

	user, err := h.users.GetByID(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ledger.ErrUserNotFound
		}
		return err
	}
	kyc, banned := user.IsKYCVerified, user.IsBanned
	if input.KYCVerified != nil {
		kyc = *input.KYCVerified
	}
	if input.Banned != nil {
		banned = *input.Banned
	}
	if err := h.users.UpdateFlags(c.UserContext(), id, kyc, banned); err != nil {
		return err
	}

	h.audit.Record(c.UserContext(), audit.Entry{
		AdminID:     claims.UserID,
		Action:      audit.ActionUserFlags,
		TargetType:  "user",
		TargetID:    c.Params("id"),
		Description: flagsDescription(kyc, banned),
	})
	return response.Success(c, "user updated", fiber.Map{"user_id": id, "is_kyc_verified": kyc, "is_banned": banned})
}

func flagsDescription(kyc, banned bool) string {
	out := "kyc="
	if kyc {
		out += "verified"
	} else {
		out += "unverified"
	}
	if banned {
		return out + " banned"
	}
	return out + " active"
}
