package repository

import (
	"context"

	"policysonar/backend/internal/policy/domain"
)

// Repository defines persistence for policy analog records.
type Repository interface {
	Save(ctx context.Context, a *domain.Analog) error
	ListRecent(ctx context.Context, limit int) ([]domain.Analog, error)
}
