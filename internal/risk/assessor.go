// Package risk derives a risk assessment for a policy text from its
// historical analogs. Scoring is deterministic: each analog contributes a
// score from a similarity/outcome matrix, weighted by its similarity.
package risk

import (
	"fmt"
	"strings"

	"policysonar/backend/internal/policy/domain"
)

// Level buckets a weighted risk score.
type Level string

const (
	LevelHigh         Level = "High"
	LevelMedium       Level = "Medium"
	LevelLowMedium    Level = "Low-Medium"
	LevelLow          Level = "Low"
	LevelInsufficient Level = "Insufficient Data"
)

// Factor is one historical analog that contributed risk.
type Factor struct {
	Policy     string  `json:"policy"`
	Year       int     `json:"year"`
	Type       string  `json:"type"`
	Outcome    string  `json:"outcome"`
	Similarity float64 `json:"similarity"`
}

// Assessment is the full risk picture for one policy text.
type Assessment struct {
	Level           Level    `json:"risk_level"`
	Score           float64  `json:"score"`
	Confidence      float64  `json:"confidence"`
	Factors         []Factor `json:"factors"`
	Recommendations []string `json:"recommendations"`
}

type outcomeClass int

const (
	outcomePositive outcomeClass = iota
	outcomeNegative
	outcomeMixed
)

// Assess computes the weighted risk assessment over the given analog matches.
// No matches yields the insufficient-data assessment.
func Assess(matches []domain.Match) Assessment {
	if len(matches) == 0 {
		return Assessment{
			Level:           LevelInsufficient,
			Confidence:      0,
			Factors:         []Factor{},
			Recommendations: []string{"No historical analogs found for assessment"},
		}
	}

	var (
		weightedSum     float64
		totalSimilarity float64
		factors         []Factor
	)
	for _, m := range matches {
		class := classifyOutcome(m.Policy.OutcomeAnalysis)
		weightedSum += matrixScore(m.Similarity, class) * m.Similarity
		totalSimilarity += m.Similarity

		// Only non-positive outcomes count as risk factors.
		if class != outcomePositive {
			factors = append(factors, Factor{
				Policy:     m.Policy.Text,
				Year:       m.Policy.Year,
				Type:       m.Policy.PolicyType,
				Outcome:    m.Policy.OutcomeAnalysis,
				Similarity: m.Similarity,
			})
		}
	}
	if factors == nil {
		factors = []Factor{}
	}

	var score float64
	if totalSimilarity > 0 {
		score = weightedSum / totalSimilarity
	}
	level := bucketScore(score)

	confidence := totalSimilarity / float64(len(matches))
	if confidence > 1 {
		confidence = 1
	}

	return Assessment{
		Level:           level,
		Score:           score,
		Confidence:      confidence,
		Factors:         factors,
		Recommendations: recommendations(level, factors),
	}
}

func classifyOutcome(outcome string) outcomeClass {
	lower := strings.ToLower(outcome)
	hasIncrease := strings.Contains(lower, "increase")
	hasDecrease := strings.Contains(lower, "decrease")
	switch {
	case hasIncrease && hasDecrease:
		return outcomeMixed
	case hasIncrease || strings.Contains(lower, "growth") || strings.Contains(lower, "improve"):
		return outcomePositive
	case hasDecrease || strings.Contains(lower, "reduction") || strings.Contains(lower, "decline"):
		return outcomeNegative
	}
	return outcomeMixed
}

func matrixScore(similarity float64, class outcomeClass) float64 {
	switch class {
	case outcomeNegative:
		switch {
		case similarity > 0.85:
			return 0.9
		case similarity > 0.7:
			return 0.7
		default:
			return 0.5
		}
	case outcomeMixed:
		switch {
		case similarity > 0.85:
			return 0.6
		case similarity > 0.7:
			return 0.4
		default:
			return 0.3
		}
	default:
		switch {
		case similarity > 0.85:
			return 0.2
		case similarity > 0.7:
			return 0.1
		default:
			return 0.05
		}
	}
}

func bucketScore(score float64) Level {
	switch {
	case score > 0.7:
		return LevelHigh
	case score > 0.5:
		return LevelMedium
	case score > 0.3:
		return LevelLowMedium
	case score > 0.1:
		return LevelLow
	}
	return LevelInsufficient
}

func recommendations(level Level, factors []Factor) []string {
	var recs []string
	switch level {
	case LevelHigh:
		recs = append(recs,
			"Strongly consider policy redesign or mitigation strategies",
			"Implement phased rollout with monitoring checkpoints")
	case LevelMedium:
		recs = append(recs,
			"Consider targeted adjustments to high-risk aspects",
			"Establish monitoring framework for key indicators")
	}

	for _, f := range factors {
		outcome := strings.ToLower(f.Outcome)
		if strings.Contains(strings.ToLower(f.Type), "trade") {
			recs = append(recs, fmt.Sprintf("Review trade agreements from %d for lessons", f.Year))
		}
		if strings.Contains(outcome, "employment") && strings.Contains(outcome, "reduction") {
			recs = append(recs, "Develop workforce transition programs")
		}
		if strings.Contains(outcome, "price") && strings.Contains(outcome, "increase") {
			recs = append(recs, "Consider price stabilization measures")
		}
	}

	if len(recs) == 0 {
		recs = append(recs, "No significant risks identified based on historical analogs")
	}
	return recs
}
