package handlers

import (
	"playarena/internal/services/notification"
	"playarena/internal/utils"
	"playarena/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type NotificationHandler struct {
	notifications *notification.Service
}

func NewNotificationHandler(notifications *notification.Service) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

func (h *NotificationHandler) List(c *fiber.Ctx) error {
	claims, err := currentUser(c)
	if err != nil {
		return err
	}
	page := utils.GetPagination(c, 1, 20)
	items, total, err := h.notifications.List(c.UserContext(), claims.UserID, page.Limit, page.Offset)
	if err != nil {
		return err
	}
	return paginated(c, items, page, total)
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	claims, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.notifications.MarkRead(c.UserContext(), claims.UserID, id); err != nil {
		return err
	}
	return response.Success(c, "notification read", fiber.Map{"id": id})
}
