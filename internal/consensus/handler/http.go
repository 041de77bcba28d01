// Package handler exposes academic consensus lookups over HTTP.
package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"policysonar/backend/internal/consensus"
	"policysonar/backend/internal/telemetry/otel"
)

// Handler handles the consensus endpoint.
type Handler struct {
	service *consensus.Service
	metrics *otel.Metrics
}

// NewHandler returns a consensus HTTP handler. metrics may be nil.
func NewHandler(svc *consensus.Service, metrics *otel.Metrics) *Handler {
	return &Handler{service: svc, metrics: metrics}
}

// Register sets up the consensus route behind the given auth middleware.
func (h *Handler) Register(app *fiber.App, requireUser fiber.Handler) {
	app.Post("/api/consensus", h.GetConsensus, requireUser)
}

// GetConsensus analyzes the submitted policy text for academic consensus.
func (h *Handler) GetConsensus(c fiber.Ctx) error {
	var body struct {
		PolicyText string `json:"policy_text"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	result, err := h.service.GetConsensus(c.Context(), body.PolicyText)
	if err != nil {
		if errors.Is(err, consensus.ErrPolicyTextTooShort) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "consensus analysis failed"})
	}
	h.metrics.RecordConsensusRequest(c.Context())
	return c.JSON(result)
}
