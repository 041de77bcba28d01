// Package service implements historical analog lookup for analyzed policy
// texts.
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"policysonar/backend/internal/policy/domain"
	"policysonar/backend/internal/policy/similarity"
)

// ErrEmptyPolicyText is returned when an analysis request carries no text.
var ErrEmptyPolicyText = errors.New("policy text is required")

// DefaultThreshold is the minimum similarity for a historical policy to count
// as an analog when the caller does not specify one.
const DefaultThreshold = 0.5

// AnalogStore is the persistence the service needs.
type AnalogStore interface {
	Save(ctx context.Context, a *domain.Analog) error
	ListRecent(ctx context.Context, limit int) ([]domain.Analog, error)
}

// Analogs matches policy texts against a historical corpus and records the
// matches.
type Analogs struct {
	store  AnalogStore
	engine *similarity.Engine
	corpus []domain.HistoricalPolicy
	now    func() time.Time
}

// NewAnalogs returns a service matching against corpus. The similarity engine
// is trained on the corpus texts up front.
func NewAnalogs(store AnalogStore, corpus []domain.HistoricalPolicy) *Analogs {
	engine := similarity.NewEngine()
	texts := make([]string, len(corpus))
	for i, p := range corpus {
		texts[i] = p.Text
	}
	engine.Train(texts)
	return &Analogs{
		store:  store,
		engine: engine,
		corpus: corpus,
		now:    time.Now,
	}
}

// FindAnalogs scores policyText against the historical corpus once, persists
// every match at or above threshold, and returns the stored records alongside
// the raw matches, both ordered by similarity descending. The matches carry
// the full historical policies for the risk assessor. A threshold of zero or
// below falls back to DefaultThreshold.
func (s *Analogs) FindAnalogs(ctx context.Context, policyText string, threshold float64) ([]domain.Analog, []domain.Match, error) {
	if policyText == "" {
		return nil, nil, ErrEmptyPolicyText
	}
	matches := s.match(policyText, threshold)

	analogs := make([]domain.Analog, 0, len(matches))
	for _, m := range matches {
		hist := m.Policy
		analog := domain.Analog{
			ID:              uuid.NewString(),
			PolicyText:      policyText,
			HistoricalMatch: hist.Text,
			SimilarityScore: m.Similarity,
			RiskFactors:     append([]string{}, hist.RiskFactors...),
			OutcomeAnalysis: hist.OutcomeAnalysis,
			PolicyType:      hist.PolicyType,
			Jurisdiction:    hist.Jurisdiction,
			TimePeriod:      strconv.Itoa(hist.Year),
			CreatedAt:       s.now().UTC(),
		}
		if err := s.store.Save(ctx, &analog); err != nil {
			return nil, nil, fmt.Errorf("save analog: %w", err)
		}
		analogs = append(analogs, analog)
	}
	return analogs, matches, nil
}

func (s *Analogs) match(policyText string, threshold float64) []domain.Match {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	texts := make([]string, len(s.corpus))
	for i, p := range s.corpus {
		texts[i] = p.Text
	}
	scored := s.engine.FindSimilar(policyText, texts, threshold)
	matches := make([]domain.Match, 0, len(scored))
	for _, m := range scored {
		matches = append(matches, domain.Match{Policy: s.corpus[m.Index], Similarity: m.Similarity})
	}
	return matches
}

// Recent lists the most recently stored analog records.
func (s *Analogs) Recent(ctx context.Context, limit int) ([]domain.Analog, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.store.ListRecent(ctx, limit)
}

// HistoricalCorpus is the built-in comparison corpus used when no external
// one is configured.
func HistoricalCorpus() []domain.HistoricalPolicy {
	return []domain.HistoricalPolicy{
		{
			ID:              "hist-1",
			Text:            "Tariff increase of 25% on imported steel and aluminum",
			Year:            2018,
			PolicyType:      "Trade",
			Jurisdiction:    "National",
			RiskFactors:     []string{"trade retaliation", "price inflation"},
			OutcomeAnalysis: "2.6% price increase in construction sector, -0.2% employment in manufacturing",
		},
		{
			ID:              "hist-2",
			Text:            "Tax credit of 30% for renewable energy investments",
			Year:            2009,
			PolicyType:      "Energy",
			Jurisdiction:    "National",
			RiskFactors:     []string{"budget deficit", "market distortion"},
			OutcomeAnalysis: "12% growth in renewable sector, +3.1% in green energy jobs",
		},
		{
			ID:              "hist-3",
			Text:            "Minimum wage increase to $15 per hour",
			Year:            2021,
			PolicyType:      "Labor",
			Jurisdiction:    "State",
			RiskFactors:     []string{"small business impact", "inflation"},
			OutcomeAnalysis: "10% wage increase for bottom quartile, 2% reduction in low-wage employment",
		},
	}
}
