// Package handler exposes simulation runs over HTTP.
package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v3"

	"policysonar/backend/internal/access"
	authhandler "policysonar/backend/internal/auth/handler"
	"policysonar/backend/internal/simulation/domain"
	"policysonar/backend/internal/simulation/service"
	"policysonar/backend/internal/telemetry/otel"
)

// Authorizer is the slice of the access engine the handler needs.
type Authorizer interface {
	Allowed(ctx context.Context, role, action string) (bool, error)
}

// Handler handles the simulation endpoints.
type Handler struct {
	service *service.Service
	access  Authorizer
	metrics *otel.Metrics
}

// NewHandler returns a simulation HTTP handler. metrics may be nil.
func NewHandler(svc *service.Service, authorizer Authorizer, metrics *otel.Metrics) *Handler {
	return &Handler{service: svc, access: authorizer, metrics: metrics}
}

// Register sets up the simulation routes behind the given auth middleware.
func (h *Handler) Register(app *fiber.App, requireUser fiber.Handler) {
	grp := app.Group("/api/simulations", requireUser)
	grp.Post("/:policy_id", h.Run)
	grp.Get("/:policy_id", h.List)
	grp.Get("/:policy_id/:id", h.Get)
	grp.Delete("/:policy_id/:id", h.Delete)
}

// Run starts a new simulation for a policy.
func (h *Handler) Run(c fiber.Ctx) error {
	if !h.allowed(c, access.ActionWrite) {
		return forbidden(c)
	}
	var body struct {
		Parameters   domain.Parameters `json:"parameters"`
		ScenarioName string            `json:"scenario_name"`
		Notes        string            `json:"notes"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if body.Parameters.EconomicModel == "" {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "simulation parameters cannot be empty"})
	}

	sim, err := h.service.Run(c.Context(), c.Params("policy_id"), body.Parameters, body.ScenarioName, body.Notes)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "simulation failed"})
	}
	h.metrics.RecordSimulationRun(c.Context(), sim.Parameters.EconomicModel)
	return c.Status(fiber.StatusCreated).JSON(sim)
}

// List returns a page of a policy's simulation runs.
func (h *Handler) List(c fiber.Ctx) error {
	if !h.allowed(c, access.ActionRead) {
		return forbidden(c)
	}
	page, err := h.service.List(c.Context(),
		c.Params("policy_id"),
		fiber.Query[string](c, "time_range"),
		fiber.Query[string](c, "scenario_name"),
		fiber.Query[int](c, "page", 1),
		fiber.Query[int](c, "per_page", 20),
	)
	if err != nil {
		if errors.Is(err, service.ErrInvalidTimeRange) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to retrieve simulations"})
	}
	return c.JSON(page)
}

// Get returns one simulation run.
func (h *Handler) Get(c fiber.Ctx) error {
	if !h.allowed(c, access.ActionRead) {
		return forbidden(c)
	}
	sim, err := h.service.Get(c.Context(), c.Params("policy_id"), c.Params("id"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Simulation not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to retrieve simulation"})
	}
	return c.JSON(sim)
}

// Delete removes one simulation run. Requires a role the access policy grants
// delete to.
func (h *Handler) Delete(c fiber.Ctx) error {
	if !h.allowed(c, access.ActionDelete) {
		return forbidden(c)
	}
	err := h.service.Delete(c.Context(), c.Params("policy_id"), c.Params("id"))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Simulation not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to delete simulation"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// allowed checks the caller's roles against the access policy; any granted
// role suffices.
func (h *Handler) allowed(c fiber.Ctx, action string) bool {
	view := authhandler.CurrentView(c)
	if view == nil {
		return false
	}
	for _, role := range view.User.Roles {
		ok, err := h.access.Allowed(c.Context(), role, action)
		if err == nil && ok {
			return true
		}
	}
	return false
}

func forbidden(c fiber.Ctx) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "insufficient permissions"})
}
