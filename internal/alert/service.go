// Package alert monitors analyzed policies for warning signs in news
// sentiment and economic indicators.
package alert

import (
	"context"
	"fmt"
	"time"

	"policysonar/backend/internal/sonar"
)

// Severity ranks how urgent an alert is.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Type names the monitored signal.
type Type string

const (
	TypeSentiment  Type = "sentiment"
	TypeInflation  Type = "inflation"
	TypeGDP        Type = "gdp"
	TypeEmployment Type = "employment"
	TypeTrade      Type = "trade"
)

// Alert is one threshold crossing for a monitored policy.
type Alert struct {
	ID                string    `json:"id"`
	PolicyID          string    `json:"policy_id"`
	Type              Type      `json:"type"`
	Metric            string    `json:"metric"`
	CurrentValue      float64   `json:"current_value"`
	Threshold         float64   `json:"threshold"`
	Timestamp         time.Time `json:"timestamp"`
	Severity          Severity  `json:"severity"`
	Message           string    `json:"message"`
	RelatedIndicators []string  `json:"related_indicators"`
}

// Thresholds are the severity bands for one alert type. More negative (or,
// for inflation, more positive beyond the sign convention of the stored
// values) means worse; a value at or past Critical outranks Alert, which
// outranks Warning.
type Thresholds struct {
	Warning  float64
	Alert    float64
	Critical float64
}

// Neutral sentiment baseline and the window for news recency weighting.
const (
	sentimentBaseline = 0.5
	decayDays         = 30
)

// AnalysisClient is the slice of the sonar client the service needs.
type AnalysisClient interface {
	AnalyzePolicy(ctx context.Context, policyText, focus string) (*sonar.Analysis, error)
}

// Service checks news sentiment and supplied economic indicator movements
// against configurable severity bands.
type Service struct {
	client     AnalysisClient
	thresholds map[Type]Thresholds
	now        func() time.Time
}

// NewService returns an alert service with the default thresholds.
func NewService(client AnalysisClient) *Service {
	return &Service{
		client: client,
		thresholds: map[Type]Thresholds{
			TypeSentiment: {Warning: -0.15, Alert: -0.25, Critical: -0.4},
			TypeInflation: {Warning: 0.01, Alert: 0.02, Critical: 0.03},
			TypeGDP:       {Warning: -0.003, Alert: -0.006, Critical: -0.01},
		},
		now: time.Now,
	}
}

// Monitor analyzes policyText against recent news coverage and checks the
// supplied indicator movements. indicators maps an alert type (inflation,
// gdp) to its observed change; unknown types are ignored. Returns every
// generated alert; an empty slice means nothing crossed a threshold.
func (s *Service) Monitor(ctx context.Context, policyID, policyText string, indicators map[Type]float64) ([]Alert, error) {
	alerts := []Alert{}

	analysis, err := s.client.AnalyzePolicy(ctx, policyText, sonar.FocusNews)
	if err != nil {
		return nil, fmt.Errorf("news analysis: %w", err)
	}
	if a, ok := s.checkSentiment(policyID, analysis.Sources); ok {
		alerts = append(alerts, a)
	}

	for _, typ := range []Type{TypeInflation, TypeGDP} {
		change, ok := indicators[typ]
		if !ok {
			continue
		}
		if a, ok := s.check(policyID, typ, string(typ)+"_change", change); ok {
			alerts = append(alerts, a)
		}
	}
	return alerts, nil
}

// checkSentiment computes the recency-weighted average sentiment of the news
// sources and alerts on its deviation below the neutral baseline. Sources
// older than the decay window, or without a parseable date, carry no weight.
func (s *Service) checkSentiment(policyID string, sources []sonar.Source) (Alert, bool) {
	now := s.now().UTC()
	totalWeight := 0.0
	weighted := 0.0
	for _, src := range sources {
		published, ok := parseDate(src.Date)
		if !ok {
			continue
		}
		daysOld := now.Sub(published).Hours() / 24
		weight := 1 - daysOld/decayDays
		if weight <= 0 {
			continue
		}
		weighted += src.Sentiment * weight
		totalWeight += weight
	}
	if totalWeight == 0 {
		return Alert{}, false
	}
	return s.check(policyID, TypeSentiment, "sentiment_change", weighted/totalWeight-sentimentBaseline)
}

// check classifies value against the type's severity bands. Values that stay
// inside the warning band produce no alert.
func (s *Service) check(policyID string, typ Type, metric string, value float64) (Alert, bool) {
	bands, ok := s.thresholds[typ]
	if !ok {
		return Alert{}, false
	}
	test := value
	if typ == TypeInflation {
		// Inflation bands are positive; rising prices are the bad direction.
		test = -value
		bands = Thresholds{Warning: -bands.Warning, Alert: -bands.Alert, Critical: -bands.Critical}
	}
	var severity Severity
	switch {
	case test <= bands.Critical:
		severity = SeverityCritical
	case test <= bands.Alert:
		severity = SeverityHigh
	case test <= bands.Warning:
		severity = SeverityMedium
	default:
		return Alert{}, false
	}
	warning := s.thresholds[typ].Warning
	now := s.now().UTC()
	return Alert{
		ID:                fmt.Sprintf("ALERT-%s-%s", now.Format("20060102150405"), typ),
		PolicyID:          policyID,
		Type:              typ,
		Metric:            metric,
		CurrentValue:      value,
		Threshold:         warning,
		Timestamp:         now,
		Severity:          severity,
		Message:           message(typ, metric, value, warning),
		RelatedIndicators: relatedIndicators(typ),
	}, true
}

func message(typ Type, metric string, value, threshold float64) string {
	switch typ {
	case TypeSentiment:
		return fmt.Sprintf("Policy sentiment changed by %.1f%% (threshold: %.1f%%)", value*100, threshold*100)
	case TypeInflation:
		return fmt.Sprintf("Inflation impact detected: %.1f%% (threshold: %.1f%%)", value*100, threshold*100)
	default:
		return fmt.Sprintf("%s changed by %.1f%% (threshold: %.1f%%)", metric, value*100, threshold*100)
	}
}

func relatedIndicators(typ Type) []string {
	switch typ {
	case TypeSentiment:
		return []string{"consumer_confidence", "business_sentiment"}
	case TypeInflation:
		return []string{"cpi", "ppi", "wages"}
	case TypeGDP:
		return []string{"industrial_production", "retail_sales"}
	default:
		return []string{}
	}
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
