package repository

import (
	"context"
	"time"

	"policysonar/backend/internal/session/domain"
)

// Repository defines persistence for sessions.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	Create(ctx context.Context, s *domain.Session) error
	// UpdateRefreshJti stores the rotated refresh token jti on the session.
	UpdateRefreshJti(ctx context.Context, sessionID, jti string) error
	// Revoke marks the session revoked. Revoking an already-revoked or missing session is a no-op.
	Revoke(ctx context.Context, id string) error
	UpdateLastSeen(ctx context.Context, id string, at time.Time) error
}
