package repository

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"policysonar/backend/internal/policy/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an analog repository backed by db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const analogColumns = `id, policy_text, historical_match, similarity_score, risk_factors,
	outcome_analysis, policy_type, jurisdiction, time_period, created_at`

// Save persists a single analog match record.
func (r *PostgresRepository) Save(ctx context.Context, a *domain.Analog) error {
	if err := a.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO policy_analogs (`+analogColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		a.ID, a.PolicyText, a.HistoricalMatch, a.SimilarityScore, pq.Array(a.RiskFactors),
		nullable(a.OutcomeAnalysis), nullable(a.PolicyType), nullable(a.Jurisdiction),
		nullable(a.TimePeriod), a.CreatedAt)
	return err
}

// ListRecent returns up to limit analog records, newest first.
func (r *PostgresRepository) ListRecent(ctx context.Context, limit int) ([]domain.Analog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+analogColumns+` FROM policy_analogs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var analogs []domain.Analog
	for rows.Next() {
		var (
			a            domain.Analog
			outcome      sql.NullString
			policyType   sql.NullString
			jurisdiction sql.NullString
			timePeriod   sql.NullString
			factors      pq.StringArray
		)
		err := rows.Scan(&a.ID, &a.PolicyText, &a.HistoricalMatch, &a.SimilarityScore, &factors,
			&outcome, &policyType, &jurisdiction, &timePeriod, &a.CreatedAt)
		if err != nil {
			return nil, err
		}
		a.OutcomeAnalysis = outcome.String
		a.PolicyType = policyType.String
		a.Jurisdiction = jurisdiction.String
		a.TimePeriod = timePeriod.String
		a.RiskFactors = []string(factors)
		if a.RiskFactors == nil {
			a.RiskFactors = []string{}
		}
		analogs = append(analogs, a)
	}
	return analogs, rows.Err()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
