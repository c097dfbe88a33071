package response

import (
	"errors"

	apperrors "playarena/internal/errors"
	"playarena/internal/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ErrorHandler is the fiber.Config ErrorHandler: it renders errors returned
// by handlers and middleware and logs the ones that become a 500.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	log = logger.OrNop(log)
	return func(c *fiber.Ctx, err error) error {
		if StatusOf(err) >= fiber.StatusInternalServerError {
			log.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err))
		}
		return FromError(c, err)
	}
}

// StatusOf is the HTTP status FromError would use for err.
func StatusOf(err error) int {
	if _, ok := apperrors.As(err); ok {
		return apperrors.StatusOf(err)
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return fiber.StatusInternalServerError
}
