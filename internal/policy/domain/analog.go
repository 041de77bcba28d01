// Package domain defines the policy-analog types.
package domain

import (
	"errors"
	"time"
)

// HistoricalPolicy is a past policy in the comparison corpus, with the
// observed outcome and known risk factors attached.
type HistoricalPolicy struct {
	ID              string
	Text            string
	Year            int
	PolicyType      string
	Jurisdiction    string
	RiskFactors     []string
	OutcomeAnalysis string
}

// Match pairs a historical policy with its similarity to an analyzed text.
type Match struct {
	Policy     HistoricalPolicy
	Similarity float64
}

// Analog is a persisted record of one analyzed-policy-to-historical-policy
// match.
type Analog struct {
	ID              string    `json:"id"`
	PolicyText      string    `json:"policy_text"`
	HistoricalMatch string    `json:"historical_match"`
	SimilarityScore float64   `json:"similarity_score"`
	RiskFactors     []string  `json:"risk_factors"`
	OutcomeAnalysis string    `json:"outcome_analysis"`
	PolicyType      string    `json:"policy_type"`
	Jurisdiction    string    `json:"jurisdiction"`
	TimePeriod      string    `json:"time_period"`
	CreatedAt       time.Time `json:"created_at"`
}

// Validate checks the fields required for persistence.
func (a *Analog) Validate() error {
	if a.ID == "" {
		return errors.New("analog: id is required")
	}
	if a.PolicyText == "" {
		return errors.New("analog: policy text is required")
	}
	if a.HistoricalMatch == "" {
		return errors.New("analog: historical match is required")
	}
	if a.SimilarityScore < 0 || a.SimilarityScore > 1 {
		return errors.New("analog: similarity score must be within [0, 1]")
	}
	return nil
}
