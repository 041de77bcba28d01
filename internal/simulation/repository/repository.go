package repository

import (
	"context"
	"time"

	"policysonar/backend/internal/simulation/domain"
)

// Filter narrows a simulation listing.
type Filter struct {
	PolicyID string
	// Since excludes runs created before it when non-zero.
	Since time.Time
	// Scenario filters by case-insensitive substring match when non-empty.
	Scenario string
	Offset   int
	Limit    int
}

// Repository defines persistence for simulation runs.
type Repository interface {
	Save(ctx context.Context, s *domain.Simulation) error
	GetByID(ctx context.Context, id string) (*domain.Simulation, error)
	List(ctx context.Context, f Filter) ([]domain.Simulation, int, error)
	Delete(ctx context.Context, id string) error
}
