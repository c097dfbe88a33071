package handlers

import (
	"strconv"

	apperrors "playarena/internal/errors"
	"playarena/internal/models"
	"playarena/internal/utils"
	"playarena/internal/utils/validation"

	"github.com/gofiber/fiber/v2"
)

// currentUser is a helper to reduce duplication
func currentUser(c *fiber.Ctx) (*models.UserClaims, error) {
	claims, err := utils.GetUserClaims(c)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "invalid claims")
	}
	return claims, nil
}

func paramID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.BadRequest("INVALID_ID", "invalid "+name)
	}
	return uint(id), nil
}

// parseBody decodes the request and runs its `validate` tags.
func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.BadRequest("INVALID_BODY", "invalid request format")
	}
	return validation.Struct(out)
}

func paginated(c *fiber.Ctx, data interface{}, page utils.Pagination, total int64) error {
	page.SetTotal(total)
	return c.JSON(utils.NewPaginatedResponse(data, page))
}
