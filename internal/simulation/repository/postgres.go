package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"policysonar/backend/internal/simulation/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a simulation repository backed by db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const simulationColumns = `id, policy_id, scenario_name, notes, parameters, results, execution_time_ms, created_at`

// Save persists a run. Parameters and results are stored as JSONB.
func (r *PostgresRepository) Save(ctx context.Context, s *domain.Simulation) error {
	params, err := json.Marshal(s.Parameters)
	if err != nil {
		return fmt.Errorf("encode parameters: %w", err)
	}
	results, err := json.Marshal(s.Results)
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}
	scenario := sql.NullString{String: s.ScenarioName, Valid: s.ScenarioName != ""}
	notes := sql.NullString{String: s.Notes, Valid: s.Notes != ""}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO simulations (`+simulationColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		s.ID, s.PolicyID, scenario, notes, params, results, s.ExecutionTimeMS, s.CreatedAt)
	return err
}

// GetByID returns the run with the given id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Simulation, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+simulationColumns+` FROM simulations WHERE id = $1`, id)
	s, err := scanSimulation(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

// List returns runs matching the filter, newest first, plus the total count
// of matches before pagination.
func (r *PostgresRepository) List(ctx context.Context, f Filter) ([]domain.Simulation, int, error) {
	where := `WHERE policy_id = $1`
	args := []interface{}{f.PolicyID}
	if !f.Since.IsZero() {
		args = append(args, f.Since)
		where += fmt.Sprintf(` AND created_at >= $%d`, len(args))
	}
	if f.Scenario != "" {
		args = append(args, "%"+f.Scenario+"%")
		where += fmt.Sprintf(` AND scenario_name ILIKE $%d`, len(args))
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM simulations `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Limit, f.Offset)
	rows, err := r.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT %s FROM simulations %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
			simulationColumns, where, len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var sims []domain.Simulation
	for rows.Next() {
		s, err := scanSimulation(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		sims = append(sims, *s)
	}
	return sims, total, rows.Err()
}

// Delete removes the run with the given id. Missing rows are not an error.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM simulations WHERE id = $1`, id)
	return err
}

func scanSimulation(scan func(...interface{}) error) (*domain.Simulation, error) {
	var (
		s        domain.Simulation
		scenario sql.NullString
		notes    sql.NullString
		params   []byte
		results  []byte
	)
	err := scan(&s.ID, &s.PolicyID, &scenario, &notes, &params, &results, &s.ExecutionTimeMS, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	s.ScenarioName = scenario.String
	s.Notes = notes.String
	if err := json.Unmarshal(params, &s.Parameters); err != nil {
		return nil, fmt.Errorf("decode parameters: %w", err)
	}
	if err := json.Unmarshal(results, &s.Results); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}
	return &s, nil
}
