// Package response renders the JSON envelopes every handler returns:
// {"message", "data"} on success and {"error": {"code", "message"}} on failure.
package response

import (
	"errors"
	"net/http"
	"strings"

	apperrors "playarena/internal/errors"

	"github.com/gofiber/fiber/v2"
)

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func Success(c *fiber.Ctx, message string, data interface{}) error {
	return c.JSON(fiber.Map{
		"message": message,
		"data":    data,
	})
}

func Created(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": message,
		"data":    data,
	})
}

func Error(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": ErrorBody{Code: code, Message: message},
	})
}

// FromError maps a DomainError to its status and code; anything else is a 500
// whose detail is not exposed.
func FromError(c *fiber.Ctx, err error) error {
	if de, ok := apperrors.As(err); ok {
		return Error(c, de.Status, de.Code, de.Message)
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return Error(c, fe.Code, codeFor(fe.Code), fe.Message)
	}
	return ServerError(c)
}

func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, "BAD_REQUEST", message)
}

func ServerError(c *fiber.Ctx) error {
	return Error(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

func Unauthorized(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusUnauthorized, "UNAUTHORIZED", message)
}

func Forbidden(c *fiber.Ctx) error {
	return Error(c, fiber.StatusForbidden, "FORBIDDEN", "insufficient permissions")
}

func ValidationError(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, "VALIDATION_FAILED", message)
}

// codeFor turns a status into a code such as NOT_FOUND.
func codeFor(status int) string {
	text := http.StatusText(status)
	if text == "" {
		return "HTTP_ERROR"
	}
	return strings.ToUpper(strings.ReplaceAll(text, " ", "_"))
}
