package utils

import (
	"errors"

	"playarena/internal/models"

	"github.com/gofiber/fiber/v2"
)

const ClaimsKey = "claims"

// GetUserClaims extracts the user claims from the Fiber context.
// It returns an error if the claims are missing or of an invalid type.
func GetUserClaims(c *fiber.Ctx) (*models.UserClaims, error) {
	v := c.Locals(ClaimsKey)
	if v == nil {
		return nil, errors.New("claims not found in context")
	}

	claims, ok := v.(*models.UserClaims)
	if !ok || claims == nil {
		return nil, errors.New("invalid claims type")
	}
	return claims, nil
}
