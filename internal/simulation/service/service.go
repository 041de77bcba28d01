// Package service runs policy impact simulations and manages stored runs.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"policysonar/backend/internal/simulation/domain"
	"policysonar/backend/internal/simulation/repository"
	"policysonar/backend/internal/sonar"
)

// Sentinel errors surfaced to the transport layer.
var (
	ErrValidation       = errors.New("validation failed")
	ErrNotFound         = errors.New("simulation not found")
	ErrInvalidTimeRange = errors.New("invalid time range, use '7d', '30d', or '1y'")
)

var timeRanges = map[string]time.Duration{
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
	"1y":  365 * 24 * time.Hour,
}

// Model base coefficients used when the analysis API does not return
// numeric impact estimates.
var modelBaselines = map[string]domain.EconomicImpact{
	"keynesian":    {GDPChange: 0.021, EmploymentImpact: 0.4, InflationEffect: 0.3},
	"neoclassical": {GDPChange: 0.012, EmploymentImpact: 0.1, InflationEffect: 0.1},
	"behavioral":   {GDPChange: 0.016, EmploymentImpact: 0.2, InflationEffect: 0.2},
}

// AnalysisClient is the slice of the sonar client the simulator needs.
type AnalysisClient interface {
	AnalyzePolicy(ctx context.Context, policyText, focus string) (*sonar.Analysis, error)
}

// Page is one page of a simulation listing.
type Page struct {
	Items   []domain.Simulation `json:"items"`
	Total   int                 `json:"total"`
	Page    int                 `json:"page"`
	PerPage int                 `json:"per_page"`
}

// Service runs and manages simulations.
type Service struct {
	repo   repository.Repository
	client AnalysisClient
	now    func() time.Time
}

// NewService returns a simulation service.
func NewService(repo repository.Repository, client AnalysisClient) *Service {
	return &Service{repo: repo, client: client, now: time.Now}
}

// Run validates params, delegates the economic analysis to the external API,
// shapes the results, and persists the run.
func (s *Service) Run(ctx context.Context, policyID string, params domain.Parameters, scenarioName, notes string) (*domain.Simulation, error) {
	if err := params.Normalize(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err)
	}

	sim := domain.Simulation{
		ID:           uuid.NewString(),
		PolicyID:     policyID,
		ScenarioName: scenarioName,
		Notes:        notes,
		Parameters:   params,
		CreatedAt:    s.now().UTC(),
	}
	if err := sim.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err)
	}

	started := s.now()
	analysis, err := s.client.AnalyzePolicy(ctx, simulationPrompt(policyID, params), sonar.FocusEconomic)
	if err != nil {
		return nil, fmt.Errorf("simulation analysis: %w", err)
	}
	sim.Results = shapeResults(params, analysis)
	sim.ExecutionTimeMS = s.now().Sub(started).Milliseconds()

	if err := s.repo.Save(ctx, &sim); err != nil {
		return nil, fmt.Errorf("save simulation: %w", err)
	}
	return &sim, nil
}

// List returns a page of runs for policyID, newest first. timeRange is one of
// 7d, 30d, 1y, or empty for all time; scenario is a substring filter.
func (s *Service) List(ctx context.Context, policyID, timeRange, scenario string, page, perPage int) (*Page, error) {
	var since time.Time
	if timeRange != "" {
		window, ok := timeRanges[timeRange]
		if !ok {
			return nil, ErrInvalidTimeRange
		}
		since = s.now().Add(-window)
	}
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	items, total, err := s.repo.List(ctx, repository.Filter{
		PolicyID: policyID,
		Since:    since,
		Scenario: scenario,
		Offset:   (page - 1) * perPage,
		Limit:    perPage,
	})
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Simulation{}
	}
	return &Page{Items: items, Total: total, Page: page, PerPage: perPage}, nil
}

// Get returns the run with the given id belonging to policyID.
func (s *Service) Get(ctx context.Context, policyID, id string) (*domain.Simulation, error) {
	sim, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sim == nil || sim.PolicyID != policyID {
		return nil, ErrNotFound
	}
	return sim, nil
}

// Delete removes the run with the given id belonging to policyID.
func (s *Service) Delete(ctx context.Context, policyID, id string) error {
	sim, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if sim == nil || sim.PolicyID != policyID {
		return ErrNotFound
	}
	return s.repo.Delete(ctx, id)
}

func simulationPrompt(policyID string, params domain.Parameters) string {
	return fmt.Sprintf("Simulate the economic impact of policy %s over %d years using a %s model",
		policyID, params.TimeHorizon, params.EconomicModel)
}

// shapeResults builds the results payload, preferring numeric estimates from
// the analysis response and falling back to the model baseline scaled by the
// time horizon.
func shapeResults(params domain.Parameters, analysis *sonar.Analysis) domain.Results {
	baseline := modelBaselines[params.EconomicModel]
	horizon := float64(params.TimeHorizon) / float64(domain.DefaultTimeHorizon)

	impact := domain.EconomicImpact{
		GDPChange:        rawFloat(analysis, "gdp_change", baseline.GDPChange*horizon),
		EmploymentImpact: rawFloat(analysis, "employment_impact", baseline.EmploymentImpact*horizon),
		InflationEffect:  rawFloat(analysis, "inflation_effect", baseline.InflationEffect*horizon),
	}
	return domain.Results{
		EconomicImpact: impact,
		SectorImpacts: rawFloatMap(analysis, "sector_impacts", map[string]float64{
			"manufacturing": impact.GDPChange * 1.4,
			"services":      impact.GDPChange * 0.9,
			"agriculture":   impact.GDPChange * 0.6,
		}),
		RiskAssessment: rawFloatMap(analysis, "risk_assessment", map[string]float64{
			"recession_probability": 0.08 * horizon,
			"inflation_spike":       0.12 * horizon,
		}),
		SensitivityAnalysis: map[string]interface{}{
			"time_horizon_years": params.TimeHorizon,
			"model":              params.EconomicModel,
			"assumptions":        params.Assumptions,
		},
	}
}

func rawFloat(analysis *sonar.Analysis, key string, fallback float64) float64 {
	if analysis == nil {
		return fallback
	}
	if v, ok := analysis.Raw[key].(float64); ok {
		return v
	}
	return fallback
}

func rawFloatMap(analysis *sonar.Analysis, key string, fallback map[string]float64) map[string]float64 {
	if analysis == nil {
		return fallback
	}
	raw, ok := analysis.Raw[key].(map[string]interface{})
	if !ok {
		return fallback
	}
	out := make(map[string]float64, len(raw))
	for k, v := range raw {
		f, ok := v.(float64)
		if !ok {
			return fallback
		}
		out[k] = f
	}
	return out
}
