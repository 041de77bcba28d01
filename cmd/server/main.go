package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"policysonar/backend/internal/access"
	accountrepo "policysonar/backend/internal/account/repository"
	"policysonar/backend/internal/alert"
	alerthandler "policysonar/backend/internal/alert/handler"
	"policysonar/backend/internal/auth"
	"policysonar/backend/internal/config"
	"policysonar/backend/internal/consensus"
	consensushandler "policysonar/backend/internal/consensus/handler"
	"policysonar/backend/internal/db"
	policyhandler "policysonar/backend/internal/policy/handler"
	policyrepo "policysonar/backend/internal/policy/repository"
	policyservice "policysonar/backend/internal/policy/service"
	profilerepo "policysonar/backend/internal/profile/repository"
	"policysonar/backend/internal/security"
	"policysonar/backend/internal/server"
	sessionrepo "policysonar/backend/internal/session/repository"
	simulationhandler "policysonar/backend/internal/simulation/handler"
	simulationrepo "policysonar/backend/internal/simulation/repository"
	simulationservice "policysonar/backend/internal/simulation/service"
	"policysonar/backend/internal/sonar"
	"policysonar/backend/internal/telemetry/otel"
)

const appName = "policysonar-backend"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	providers, err := otel.NewProviders(ctx, cfg.OTLPEndpoint, appName, cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()
	metrics, err := otel.NewMetrics(providers.MeterProvider)
	if err != nil {
		log.Fatalf("telemetry metrics: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			log.Printf("telemetry shutdown: %v", err)
		}
	}()

	dbc, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer dbc.Close()

	var cache redis.UniversalClient
	if cfg.RedisAddr != "" {
		cache = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer cache.Close()
	}

	tokens := security.NewTokenProvider(
		[]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.AudienceList(),
		cfg.AccessTTL(), cfg.RefreshTTL())
	hasher := security.NewHasher(cfg.BcryptCost)

	accounts := accountrepo.NewPostgresRepository(dbc)
	profiles := profilerepo.NewPostgresRepository(dbc)
	sessions := sessionrepo.NewPostgresRepository(dbc)

	audit := otel.NewEventEmitter(providers.LoggerProvider)
	authService := auth.NewService(accounts, profiles, sessions, hasher, tokens, cfg.RefreshTTL(), audit)
	loader := auth.NewLoader(tokens, profiles)

	sonarClient := sonar.NewClient(cfg.SonarAPIKey, cfg.SonarBaseURL)
	analogs := policyservice.NewAnalogs(policyrepo.NewPostgresRepository(dbc), policyservice.HistoricalCorpus())
	consensusService := consensus.NewService(sonarClient, cache, cfg.CacheTTL())
	simulations := simulationservice.NewService(simulationrepo.NewPostgresRepository(dbc), sonarClient)
	alerts := alert.NewService(sonarClient)
	accessEngine := access.NewEngine()

	app := server.New(server.Deps{
		AuthService: authService,
		Loader:      loader,
		Policy:      policyhandler.NewHandler(analogs, metrics),
		Simulation:  simulationhandler.NewHandler(simulations, accessEngine, metrics),
		Consensus:   consensushandler.NewHandler(consensusService, metrics),
		Alerts:      alerthandler.NewHandler(alerts),
		DB:          dbc,
		Redis:       cache,
		Access:      accessEngine,
		CORSOrigin:  cfg.CORSOrigin,
		AppName:     appName,
	})

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := app.Listen(cfg.HTTPAddr); err != nil {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	log.Println("HTTP server stopped")
}
