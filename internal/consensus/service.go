// Package consensus derives academic-consensus metrics for a policy text
// from the analysis API's cited sources.
package consensus

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"policysonar/backend/internal/sonar"
)

// ErrPolicyTextTooShort rejects texts below the minimum analyzable length.
var ErrPolicyTextTooShort = errors.New("policy text must be at least 50 characters")

const minPolicyTextLen = 50

// Sentiment bounds separating support and opposition from neutrality.
const (
	supportSentiment = 0.7
	opposeSentiment  = 0.3
)

// A source counts as recent when published within this many years.
const recentYears = 5

// Metrics summarizes the stance of the cited sources.
type Metrics struct {
	SupportCount    int     `json:"support_count"`
	OpposeCount     int     `json:"oppose_count"`
	NeutralCount    int     `json:"neutral_count"`
	ConfidenceScore float64 `json:"confidence_score"`
	TotalSources    int     `json:"total_sources"`
	RecencyFactor   float64 `json:"recency_factor"`
}

// Result is the full consensus picture for one policy text.
type Result struct {
	Metrics  Metrics        `json:"metrics"`
	Journals []string       `json:"journals"`
	Sources  []sonar.Source `json:"sources"`
}

// AnalysisClient is the slice of the sonar client the service needs.
type AnalysisClient interface {
	AnalyzePolicy(ctx context.Context, policyText, focus string) (*sonar.Analysis, error)
}

// Service gathers and scores academic consensus, caching results in Redis
// keyed by a hash of the policy text.
type Service struct {
	client AnalysisClient
	cache  redis.UniversalClient
	ttl    time.Duration
	now    func() time.Time
}

// NewService returns a consensus service. cache may be nil, in which case
// every request hits the analysis API.
func NewService(client AnalysisClient, cache redis.UniversalClient, ttl time.Duration) *Service {
	return &Service{client: client, cache: cache, ttl: ttl, now: time.Now}
}

// GetConsensus analyzes policyText with academic focus and returns the
// consensus metrics. Texts under 50 characters (after trimming) are rejected.
func (s *Service) GetConsensus(ctx context.Context, policyText string) (*Result, error) {
	if len(strings.TrimSpace(policyText)) < minPolicyTextLen {
		return nil, ErrPolicyTextTooShort
	}

	key := cacheKey(policyText)
	if cached := s.fromCache(ctx, key); cached != nil {
		return cached, nil
	}

	analysis, err := s.client.AnalyzePolicy(ctx, policyText, sonar.FocusAcademic)
	if err != nil {
		return nil, fmt.Errorf("consensus analysis failed: %w", err)
	}

	result := s.process(analysis.Sources)
	s.toCache(ctx, key, result)
	return result, nil
}

func (s *Service) process(sources []sonar.Source) *Result {
	var support, oppose, neutral, recent int
	journalSet := map[string]struct{}{}
	currentYear := s.now().Year()

	for _, src := range sources {
		switch {
		case src.Sentiment > supportSentiment:
			support++
		case src.Sentiment < opposeSentiment:
			oppose++
		default:
			neutral++
		}
		if src.Year >= currentYear-recentYears {
			recent++
		}
		if src.Journal != "" {
			journalSet[src.Journal] = struct{}{}
		}
	}

	total := len(sources)
	var confidence, recency float64
	if total > 0 {
		recency = float64(recent) / float64(total)
		base := float64(support-oppose) / float64(total)
		boost := 1 + recency*0.5
		confidence = math.Round(base*math.Min(1, boost)*100) / 100
	}

	journals := make([]string, 0, len(journalSet))
	for j := range journalSet {
		journals = append(journals, j)
	}
	sort.Strings(journals)

	if sources == nil {
		sources = []sonar.Source{}
	}
	return &Result{
		Metrics: Metrics{
			SupportCount:    support,
			OpposeCount:     oppose,
			NeutralCount:    neutral,
			ConfidenceScore: confidence,
			TotalSources:    total,
			RecencyFactor:   recency,
		},
		Journals: journals,
		Sources:  sources,
	}
}

func (s *Service) fromCache(ctx context.Context, key string) *Result {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("consensus: cache read failed: %v", err)
		}
		return nil
	}
	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil
	}
	return &result
}

func (s *Service) toCache(ctx context.Context, key string, result *Result) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		log.Printf("consensus: cache write failed: %v", err)
	}
}

func cacheKey(policyText string) string {
	sum := sha256.Sum256([]byte(policyText))
	return "consensus:" + hex.EncodeToString(sum[:])
}
