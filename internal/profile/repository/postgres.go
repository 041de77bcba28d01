package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"policysonar/backend/internal/profile/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a profile repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const profileColumns = `id, username, full_name, avatar_url, roles, created_at, updated_at`

// GetByID returns the profile for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id)
	return scanProfile(row)
}

// GetByUsername returns the profile with the given username, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*domain.Profile, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE username = $1`, username)
	return scanProfile(row)
}

// Create persists the profile. The profile must have ID set; it is not assigned by this method.
func (r *PostgresRepository) Create(ctx context.Context, p *domain.Profile) error {
	fullName := sql.NullString{String: p.FullName, Valid: p.FullName != ""}
	avatar := sql.NullString{String: p.AvatarURL, Valid: p.AvatarURL != ""}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (id, username, full_name, avatar_url, roles, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.Username, fullName, avatar, pq.Array(p.Roles), p.CreatedAt, p.UpdatedAt)
	return err
}

// Update updates the existing profile record. Missing rows are not an error.
func (r *PostgresRepository) Update(ctx context.Context, p *domain.Profile) error {
	fullName := sql.NullString{String: p.FullName, Valid: p.FullName != ""}
	avatar := sql.NullString{String: p.AvatarURL, Valid: p.AvatarURL != ""}
	_, err := r.db.ExecContext(ctx,
		`UPDATE profiles SET username = $2, full_name = $3, avatar_url = $4, roles = $5, updated_at = $6
		 WHERE id = $1`,
		p.ID, p.Username, fullName, avatar, pq.Array(p.Roles), time.Now().UTC())
	return err
}

func scanProfile(row *sql.Row) (*domain.Profile, error) {
	var (
		p        domain.Profile
		fullName sql.NullString
		avatar   sql.NullString
		roles    pq.StringArray
	)
	err := row.Scan(&p.ID, &p.Username, &fullName, &avatar, &roles, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	p.FullName = fullName.String
	p.AvatarURL = avatar.String
	// NULL roles coalesce to an empty set.
	p.Roles = []string(roles)
	if p.Roles == nil {
		p.Roles = []string{}
	}
	return &p, nil
}
