package handlers

import (
	"context"
	"sort"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

type HealthHandler struct {
	version string
	checks  map[string]HealthCheck
}

func NewHealthHandler(version string, checks map[string]HealthCheck) *HealthHandler {
	return &HealthHandler{version: version, checks: checks}
}

// Health answers 503 when any dependency is down.
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := "ok"
	services := fiber.Map{}
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			status = "degraded"
			services[name] = err.Error()
			continue
		}
		services[name] = "connected"
	}

	code := fiber.StatusOK
	if status != "ok" {
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{
		"status":   status,
		"version":  h.version,
		"services": services,
	})
}
