// Package server assembles the HTTP application: middleware, public auth
// routes, the protected API surface, and the health endpoint.
package server

import (
	"context"
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/redis/go-redis/v9"

	alerthandler "policysonar/backend/internal/alert/handler"
	"policysonar/backend/internal/auth"
	authhandler "policysonar/backend/internal/auth/handler"
	consensushandler "policysonar/backend/internal/consensus/handler"
	policyhandler "policysonar/backend/internal/policy/handler"
	simulationhandler "policysonar/backend/internal/simulation/handler"
)

// PolicyChecker verifies the access policy engine is usable.
type PolicyChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the wired services the HTTP surface needs. Optional fields may
// be nil; the corresponding routes or health probes are then skipped.
type Deps struct {
	AuthService *auth.Service
	Loader      *auth.Loader

	Policy     *policyhandler.Handler
	Simulation *simulationhandler.Handler
	Consensus  *consensushandler.Handler
	Alerts     *alerthandler.Handler

	// DB is pinged by the health endpoint when set.
	DB *sql.DB
	// Redis is pinged by the health endpoint when set.
	Redis redis.UniversalClient
	// Access is checked by the health endpoint when set.
	Access PolicyChecker

	// CORSOrigin is the allowed dashboard origin. Empty allows none.
	CORSOrigin string
	AppName    string
}

// New builds the fiber application.
func New(deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      deps.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	if deps.CORSOrigin != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins: []string{deps.CORSOrigin},
			AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
			AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		}))
	}

	app.Get("/health", healthHandler(deps))

	if deps.Loader != nil && deps.AuthService != nil {
		authhandler.NewHandler(deps.Loader, deps.AuthService).Register(app)
	}

	if deps.Loader != nil {
		requireUser := authhandler.RequireUser(deps.Loader)
		if deps.Policy != nil {
			deps.Policy.Register(app, requireUser)
		}
		if deps.Simulation != nil {
			deps.Simulation.Register(app, requireUser)
		}
		if deps.Consensus != nil {
			deps.Consensus.Register(app, requireUser)
		}
		if deps.Alerts != nil {
			deps.Alerts.Register(app, requireUser)
		}
	}

	return app
}

// healthHandler reports per-dependency health. The endpoint answers 200 as
// long as the process serves; individual checks carry their own status so
// the dashboard can show partial degradation.
func healthHandler(deps Deps) fiber.Handler {
	return func(c fiber.Ctx) error {
		checks := fiber.Map{}
		healthy := true

		if deps.DB != nil {
			if err := deps.DB.PingContext(c.Context()); err != nil {
				checks["database"] = "unreachable"
				healthy = false
			} else {
				checks["database"] = "ok"
			}
		}
		if deps.Redis != nil {
			if err := deps.Redis.Ping(c.Context()).Err(); err != nil {
				checks["redis"] = "unreachable"
				healthy = false
			} else {
				checks["redis"] = "ok"
			}
		}
		if deps.Access != nil {
			if err := deps.Access.HealthCheck(c.Context()); err != nil {
				checks["policy_engine"] = "failing"
				healthy = false
			} else {
				checks["policy_engine"] = "ok"
			}
		}

		status := "healthy"
		if !healthy {
			status = "degraded"
		}
		return c.JSON(fiber.Map{"status": status, "checks": checks})
	}
}
