package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"policysonar/backend/internal/session/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a session repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetByID returns the session for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, refresh_jti, expires_at, revoked_at, created_at, last_seen_at
		 FROM sessions WHERE id = $1`, id)
	var (
		s       domain.Session
		revoked sql.NullTime
	)
	err := row.Scan(&s.ID, &s.UserID, &s.RefreshJti, &s.ExpiresAt, &revoked, &s.CreatedAt, &s.LastSeenAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if revoked.Valid {
		t := revoked.Time
		s.RevokedAt = &t
	}
	return &s, nil
}

// Create persists the session. The session must have ID set.
func (r *PostgresRepository) Create(ctx context.Context, s *domain.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, refresh_jti, expires_at, created_at, last_seen_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		s.ID, s.UserID, s.RefreshJti, s.ExpiresAt, s.CreatedAt, s.LastSeenAt)
	return err
}

// UpdateRefreshJti stores the rotated refresh token jti on the session.
func (r *PostgresRepository) UpdateRefreshJti(ctx context.Context, sessionID, jti string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET refresh_jti = $2 WHERE id = $1`, sessionID, jti)
	return err
}

// Revoke marks the session revoked. Already-revoked and missing sessions are no-ops.
func (r *PostgresRepository) Revoke(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET revoked_at = $2 WHERE id = $1 AND revoked_at IS NULL`,
		id, time.Now().UTC())
	return err
}

// UpdateLastSeen records session activity.
func (r *PostgresRepository) UpdateLastSeen(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET last_seen_at = $2 WHERE id = $1`, id, at)
	return err
}
