// Package handler serves liveness and readiness probes.
package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"restaurant-pos/backend/internal/logging"
	"restaurant-pos/backend/internal/platform/response"
)

const checkTimeout = 2 * time.Second

// Pinger checks connectivity to the database. *sql.DB implements it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PolicyChecker verifies the policy engine can evaluate. *engine.OPAEvaluator implements it.
type PolicyChecker interface {
	HealthCheck(ctx context.Context) error
}

type Handler struct {
	db     Pinger
	policy PolicyChecker
	log    logging.Logger
}

// New returns the health handler. A nil pinger or checker is skipped.
func New(db Pinger, policy PolicyChecker, log logging.Logger) *Handler {
	if log == nil {
		log = logging.Nop()
	}
	return &Handler{db: db, policy: policy, log: log}
}

type status struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
	Policy   string `json:"policy,omitempty"`
}

// Live handles GET /health.
func (h *Handler) Live(c *fiber.Ctx) error {
	return response.OK(c, status{Status: "ok"})
}

// Ready handles GET /ready: 200 when every dependency answers, 503 otherwise.
func (h *Handler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), checkTimeout)
	defer cancel()

	out := status{Status: "ok"}
	if h.db != nil {
		out.Database = "ok"
		if err := h.db.PingContext(ctx); err != nil {
			h.log.Warn(ctx, "readiness: database ping failed", "error", err)
			out.Status, out.Database = "unavailable", "unavailable"
		}
	}
	if h.policy != nil {
		out.Policy = "ok"
		if err := h.policy.HealthCheck(ctx); err != nil {
			h.log.Warn(ctx, "readiness: policy check failed", "error", err)
			out.Status, out.Policy = "unavailable", "unavailable"
		}
	}
	if out.Status != "ok" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(response.Envelope{Success: false, Data: out, Message: "not ready"})
	}
	return response.OK(c, out)
}
