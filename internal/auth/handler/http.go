// Package handler exposes the authentication flows over HTTP.
package handler

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"

	"policysonar/backend/internal/auth"
	"policysonar/backend/internal/security"
)

const localsAuthKey = "auth"

// Handler handles authentication endpoints.
type Handler struct {
	loader  *auth.Loader
	service *auth.Service
}

// NewHandler returns a new auth HTTP handler.
func NewHandler(loader *auth.Loader, service *auth.Service) *Handler {
	return &Handler{loader: loader, service: service}
}

// Register sets up auth routes.
func (h *Handler) Register(app *fiber.App) {
	grp := app.Group("/api/auth")
	grp.Post("/register", h.SignUp)
	grp.Post("/login", h.Login)
	grp.Post("/refresh", h.Refresh)
	grp.Post("/logout", h.Logout)
	grp.Get("/user", h.CurrentUser)
}

// CurrentUser resolves the Authorization header into the minimal user view.
// Terminal outcomes: 401 missing token, 401 failed verification, 404 missing
// profile, 200 with the assembled view.
func (h *Handler) CurrentUser(c fiber.Ctx) error {
	view, err := h.load(c)
	if err != nil {
		return authFailure(c, err)
	}
	return c.JSON(view)
}

// RequireUser returns a middleware guarding a route group with the same flow
// and error contract as CurrentUser, storing the resolved view in locals.
func RequireUser(loader *auth.Loader) fiber.Handler {
	return func(c fiber.Ctx) error {
		view, err := loadView(c, loader)
		if err != nil {
			return authFailure(c, err)
		}
		c.Locals(localsAuthKey, view)
		return c.Next()
	}
}

// CurrentView extracts the resolved auth view from fiber locals, or nil.
func CurrentView(c fiber.Ctx) *auth.AuthView {
	v, ok := c.Locals(localsAuthKey).(*auth.AuthView)
	if !ok {
		return nil
	}
	return v
}

// SignUp creates an account and profile.
func (h *Handler) SignUp(c fiber.Ctx) error {
	var body struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	id, err := h.service.Register(c.Context(), body.Username, body.Email, body.Password, body.Role)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrValidation):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, auth.ErrEmailAlreadyRegistered), errors.Is(err, auth.ErrUsernameTaken):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "registration failed"})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"id": id})
}

// Login exchanges credentials for a token pair.
func (h *Handler) Login(c fiber.Ctx) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	pair, err := h.service.Login(c.Context(), body.Email, body.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid credentials"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "login failed"})
	}
	return c.JSON(tokenPairBody(pair))
}

// Refresh rotates a refresh token.
func (h *Handler) Refresh(c fiber.Ctx) error {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	pair, err := h.service.Refresh(c.Context(), body.RefreshToken)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidRefreshToken) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid or expired refresh token"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "refresh failed"})
	}
	return c.JSON(tokenPairBody(pair))
}

// Logout revokes the caller's session. The session id comes from the bearer
// token when present; logging out without a resolvable session still succeeds.
func (h *Handler) Logout(c fiber.Ctx) error {
	view, err := h.load(c)
	if err == nil && view.Session != "" {
		if err := h.service.Logout(c.Context(), view.Session); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "logout failed"})
		}
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handler) load(c fiber.Ctx) (view *auth.AuthView, err error) {
	return loadView(c, h.loader)
}

func loadView(c fiber.Ctx, loader *auth.Loader) (view *auth.AuthView, err error) {
	// Unexpected panics inside the flow surface as a generic verification
	// failure so internal failure modes do not leak, keeping some diagnostic
	// text in the details field.
	defer func() {
		if r := recover(); r != nil {
			view, err = nil, fmt.Errorf("%w: %v", security.ErrInvalidToken, r)
		}
	}()
	return loader.Load(c.Context(), c.Get(fiber.HeaderAuthorization))
}

func authFailure(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, auth.ErrMissingToken):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Authorization token required"})
	case errors.Is(err, auth.ErrProfileUnavailable):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User profile not found"})
	default:
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "Authentication failed",
			"details": err.Error(),
		})
	}
}

func tokenPairBody(p *auth.TokenPair) fiber.Map {
	return fiber.Map{
		"access_token":  p.AccessToken,
		"refresh_token": p.RefreshToken,
		"expires_at":    p.AccessExpiresAt,
		"session":       p.SessionID,
	}
}
