// Package domain defines the simulation types and parameter validation.
package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Economic models the simulator understands.
var ValidModels = []string{"keynesian", "neoclassical", "behavioral"}

const (
	MinTimeHorizon     = 1
	MaxTimeHorizon     = 20
	DefaultTimeHorizon = 5

	MaxScenarioNameLen = 100
	MaxNotesLen        = 500
)

// Parameters drive one simulation run.
type Parameters struct {
	EconomicModel string                 `json:"economic_model"`
	TimeHorizon   int                    `json:"time_horizon"`
	Assumptions   map[string]interface{} `json:"assumptions,omitempty"`
}

// Normalize validates the parameters, lowercasing the model and applying the
// time horizon default. It returns an error the caller can surface verbatim.
func (p *Parameters) Normalize() error {
	p.EconomicModel = strings.ToLower(p.EconomicModel)
	valid := false
	for _, m := range ValidModels {
		if p.EconomicModel == m {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("invalid economic model %q, must be one of: %s",
			p.EconomicModel, strings.Join(ValidModels, ", "))
	}
	if p.TimeHorizon == 0 {
		p.TimeHorizon = DefaultTimeHorizon
	}
	if p.TimeHorizon < MinTimeHorizon || p.TimeHorizon > MaxTimeHorizon {
		return fmt.Errorf("time horizon must be between %d and %d years", MinTimeHorizon, MaxTimeHorizon)
	}
	return nil
}

// EconomicImpact holds the headline metrics of a run.
type EconomicImpact struct {
	GDPChange        float64 `json:"gdp_change"`
	EmploymentImpact float64 `json:"employment_impact"`
	InflationEffect  float64 `json:"inflation_effect"`
}

// Results is the full output of a run.
type Results struct {
	EconomicImpact      EconomicImpact         `json:"economic_impact"`
	SectorImpacts       map[string]float64     `json:"sector_impacts"`
	RiskAssessment      map[string]float64     `json:"risk_assessment"`
	SensitivityAnalysis map[string]interface{} `json:"sensitivity_analysis"`
}

// Simulation is one persisted run.
type Simulation struct {
	ID              string     `json:"id"`
	PolicyID        string     `json:"policy_id"`
	ScenarioName    string     `json:"scenario_name,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	Parameters      Parameters `json:"parameters"`
	Results         Results    `json:"results"`
	ExecutionTimeMS int64      `json:"execution_time_ms"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Validate checks the request-level fields of a run.
func (s *Simulation) Validate() error {
	if s.PolicyID == "" {
		return errors.New("policy id is required")
	}
	if len(s.ScenarioName) > MaxScenarioNameLen {
		return fmt.Errorf("scenario name exceeds %d characters", MaxScenarioNameLen)
	}
	if len(s.Notes) > MaxNotesLen {
		return fmt.Errorf("notes exceed %d characters", MaxNotesLen)
	}
	return nil
}
