package middleware

import (
	"fmt"
	"time"

	"playarena/internal/utils"
	"playarena/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// MoneyLimiter throttles wallet-moving routes per user and IP.
func MoneyLimiter(max int, window time.Duration) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: window,
		KeyGenerator: func(c *fiber.Ctx) string {
			if claims, err := utils.GetUserClaims(c); err == nil {
				return fmt.Sprintf("%d:%s", claims.UserID, c.IP())
			}
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return response.Error(c, fiber.StatusTooManyRequests, "RATE_LIMITED", "too many requests, slow down")
		},
	})
}
