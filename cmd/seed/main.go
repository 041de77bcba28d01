// seed inserts development sample data for local testing.
// Idempotent: skips inserts if the demo admin (admin@policysonar.dev) already exists.
package main

import (
	"context"
	"log"
	"time"

	accountdomain "policysonar/backend/internal/account/domain"
	accountrepo "policysonar/backend/internal/account/repository"
	"policysonar/backend/internal/config"
	"policysonar/backend/internal/db"
	policydomain "policysonar/backend/internal/policy/domain"
	policyrepo "policysonar/backend/internal/policy/repository"
	policyservice "policysonar/backend/internal/policy/service"
	profiledomain "policysonar/backend/internal/profile/domain"
	profilerepo "policysonar/backend/internal/profile/repository"
	"policysonar/backend/internal/security"
)

const (
	adminEmail    = "admin@policysonar.dev"
	adminPassword = "Password123"
	adminID       = "seed-admin-001"
	analystEmail  = "analyst@policysonar.dev"
	analystID     = "seed-analyst-001"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	dbc, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer dbc.Close()

	ctx := context.Background()
	accounts := accountrepo.NewPostgresRepository(dbc)
	profiles := profilerepo.NewPostgresRepository(dbc)
	analogs := policyrepo.NewPostgresRepository(dbc)
	hasher := security.NewHasher(cfg.BcryptCost)

	existing, err := accounts.GetByEmail(ctx, adminEmail)
	if err != nil {
		log.Fatalf("seed: check admin: %v", err)
	}
	if existing != nil {
		log.Println("seed: demo data already present, nothing to do")
		return
	}

	hash, err := hasher.Hash([]byte(adminPassword))
	if err != nil {
		log.Fatalf("seed: hash password: %v", err)
	}
	now := time.Now().UTC()

	seedUser(ctx, accounts, profiles, hash, now, adminID, adminEmail, "root", "Demo Admin", "admin")
	seedUser(ctx, accounts, profiles, hash, now, analystID, analystEmail, "ana", "Demo Analyst", "analyst")

	// A worked example so the dashboard has something to show before the
	// first analysis runs.
	corpus := policyservice.HistoricalCorpus()
	sample := policydomain.Analog{
		ID:              "seed-analog-001",
		PolicyText:      "Proposed 20% tariff on imported steel products",
		HistoricalMatch: corpus[0].Text,
		SimilarityScore: 0.82,
		RiskFactors:     corpus[0].RiskFactors,
		OutcomeAnalysis: corpus[0].OutcomeAnalysis,
		PolicyType:      corpus[0].PolicyType,
		Jurisdiction:    corpus[0].Jurisdiction,
		TimePeriod:      "2018",
		CreatedAt:       now,
	}
	if err := analogs.Save(ctx, &sample); err != nil {
		log.Fatalf("seed: analog: %v", err)
	}

	log.Printf("seed: created %s and %s (password %q)", adminEmail, analystEmail, adminPassword)
}

func seedUser(ctx context.Context, accounts accountrepo.Repository, profiles profilerepo.Repository,
	hash string, now time.Time, id, email, username, fullName, role string) {
	account := accountdomain.Account{
		ID:           id,
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := accounts.Create(ctx, &account); err != nil {
		log.Fatalf("seed: account %s: %v", email, err)
	}
	profile := profiledomain.Profile{
		ID:        id,
		Username:  username,
		FullName:  fullName,
		Roles:     []string{role},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := profiles.Create(ctx, &profile); err != nil {
		log.Fatalf("seed: profile %s: %v", username, err)
	}
}
