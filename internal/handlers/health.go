package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Check reports whether one dependency is reachable.
type Check func(ctx context.Context) error

// Stat returns a snapshot of counters worth showing next to the checks.
type Stat func() interface{}

type HealthHandler struct {
	checks  map[string]Check
	stats   map[string]Stat
	version string
}

func NewHealthHandler(version string, checks map[string]Check) *HealthHandler {
	return &HealthHandler{checks: checks, stats: map[string]Stat{}, version: version}
}

// WithStat adds a named counter snapshot to every health response.
func (h *HealthHandler) WithStat(name string, stat Stat) *HealthHandler {
	h.stats[name] = stat
	return h
}

// HealthCheck pings every dependency and answers 503 when any is down.
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status := "ok"
	services := fiber.Map{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			services[name] = "unavailable"
			status = "degraded"
			continue
		}
		services[name] = "connected"
	}

	code := fiber.StatusOK
	if status != "ok" {
		code = fiber.StatusServiceUnavailable
	}
	body := fiber.Map{
		"status":   status,
		"version":  h.version,
		"services": services,
	}
	if len(h.stats) > 0 {
		stats := fiber.Map{}
		for name, stat := range h.stats {
			stats[name] = stat()
		}
		body["stats"] = stats
	}
	return c.Status(code).JSON(body)
}
