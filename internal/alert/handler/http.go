// Package handler exposes policy monitoring alerts over HTTP.
package handler

import (
	"github.com/gofiber/fiber/v3"

	"policysonar/backend/internal/alert"
)

// Handler handles the alert monitoring endpoint.
type Handler struct {
	service *alert.Service
}

// NewHandler returns an alert HTTP handler.
func NewHandler(svc *alert.Service) *Handler {
	return &Handler{service: svc}
}

// Register sets up the alert route behind the given auth middleware.
func (h *Handler) Register(app *fiber.App, requireUser fiber.Handler) {
	app.Post("/api/alerts", h.Monitor, requireUser)
}

// Monitor checks the submitted policy against news sentiment and any supplied
// economic indicator movements, returning the alerts that fired.
func (h *Handler) Monitor(c fiber.Ctx) error {
	var body struct {
		PolicyID   string             `json:"policy_id"`
		PolicyText string             `json:"policy_text"`
		Indicators map[string]float64 `json:"indicators"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if body.PolicyText == "" {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "policy text is required"})
	}

	indicators := make(map[alert.Type]float64, len(body.Indicators))
	for k, v := range body.Indicators {
		indicators[alert.Type(k)] = v
	}
	alerts, err := h.service.Monitor(c.Context(), body.PolicyID, body.PolicyText, indicators)
	if err != nil {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "policy monitoring failed"})
	}
	return c.JSON(fiber.Map{"alerts": alerts})
}
