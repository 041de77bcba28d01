// Package handler exposes policy analog analysis over HTTP.
package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"policysonar/backend/internal/policy/domain"
	"policysonar/backend/internal/policy/service"
	"policysonar/backend/internal/risk"
	"policysonar/backend/internal/telemetry/otel"
)

// Handler handles the policy analog endpoints.
type Handler struct {
	analogs *service.Analogs
	metrics *otel.Metrics
}

// NewHandler returns a policy analog HTTP handler. metrics may be nil.
func NewHandler(analogs *service.Analogs, metrics *otel.Metrics) *Handler {
	return &Handler{analogs: analogs, metrics: metrics}
}

// Register sets up the analog routes behind the given auth middleware.
func (h *Handler) Register(app *fiber.App, requireUser fiber.Handler) {
	grp := app.Group("/api/policy-analogs", requireUser)
	grp.Get("/", h.List)
	grp.Post("/", h.Analyze)
}

// List returns the most recently stored analog records.
func (h *Handler) List(c fiber.Ctx) error {
	analogs, err := h.analogs.Recent(c.Context(), fiber.Query[int](c, "limit"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to retrieve analogs"})
	}
	if analogs == nil {
		analogs = []domain.Analog{}
	}
	return c.JSON(fiber.Map{"analogs": analogs})
}

// Analyze matches the submitted policy text against the historical corpus,
// stores the matches, and returns them alongside a risk assessment.
func (h *Handler) Analyze(c fiber.Ctx) error {
	var body struct {
		PolicyText string  `json:"policy_text"`
		Threshold  float64 `json:"threshold"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	analogs, matches, err := h.analogs.FindAnalogs(c.Context(), body.PolicyText, body.Threshold)
	if err != nil {
		if errors.Is(err, service.ErrEmptyPolicyText) {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "analog analysis failed"})
	}

	h.metrics.RecordAnalogAnalysis(c.Context())
	assessment := risk.Assess(matches)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"analogs":         analogs,
		"risk_assessment": assessment,
	})
}
