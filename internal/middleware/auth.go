// Package middleware provides HTTP middleware components for the application.
// It includes authentication, authorization, and other request processing middleware
// that can be used with the fiber web framework.
package middleware

import (
	"context"
	"slices"
	"strings"

	"playarena/internal/logger"
	"playarena/internal/models"
	"playarena/internal/utils"
	"playarena/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// UserLookup confirms the token subject still exists and is allowed in.
type UserLookup interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

// AuthMiddleware validates the bearer JWT issued by the auth service and
// stores its claims in the request context.
type AuthMiddleware struct {
	secret string
	users  UserLookup
	log    *zap.Logger
}

// NewAuthMiddleware creates the middleware. users may be nil to trust the token alone.
func NewAuthMiddleware(secret string, users UserLookup, log *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		secret: secret,
		users:  users,
		log:    logger.OrNop(log).Named("auth"),
	}
}

// Handler checks for:
// - Presence of Authorization header with Bearer token
// - Valid JWT signature and expiry
// - A user row for the subject
func (m *AuthMiddleware) Handler(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return response.Unauthorized(c, "missing authorization header")
	}
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return response.Unauthorized(c, "invalid authorization format")
	}

	claims, err := utils.ParseToken(m.secret, strings.TrimPrefix(authHeader, "Bearer "))
	if err != nil {
		m.log.Debug("token rejected", zap.Error(err))
		return response.Unauthorized(c, "invalid token")
	}

	if m.users != nil {
		if _, err := m.users.GetByID(c.UserContext(), claims.UserID); err != nil {
			m.log.Warn("token subject not found", zap.Uint("user_id", claims.UserID), zap.Error(err))
			return response.Unauthorized(c, "invalid token")
		}
	}

	c.Locals(utils.ClaimsKey, claims)
	c.Locals("userID", claims.UserID)
	return c.Next()
}

// RequireRole allows only the listed roles.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := utils.GetUserClaims(c)
		if err != nil {
			return response.Unauthorized(c, "unauthorized")
		}
		if !slices.Contains(roles, claims.Role) {
			return response.Forbidden(c)
		}
		return c.Next()
	}
}

// HasPermission returns a middleware that checks for a specific permission.
// Admins pass every check.
func HasPermission(permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := utils.GetUserClaims(c)
		if err != nil {
			return response.Unauthorized(c, "unauthorized")
		}
		if claims.Role == models.RoleAdmin || claims.HasPermission(permission) {
			return c.Next()
		}
		return response.Forbidden(c)
	}
}
