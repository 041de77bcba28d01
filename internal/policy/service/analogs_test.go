package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"policysonar/backend/internal/policy/domain"
)

type memAnalogStore struct {
	mu      sync.Mutex
	saved   []domain.Analog
	saveErr error
}

func (m *memAnalogStore) Save(_ context.Context, a *domain.Analog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, *a)
	return nil
}

func (m *memAnalogStore) ListRecent(_ context.Context, limit int) ([]domain.Analog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := append([]domain.Analog{}, m.saved...)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func TestAnalogs_FindAnalogsMatchesAndPersists(t *testing.T) {
	store := &memAnalogStore{}
	svc := NewAnalogs(store, HistoricalCorpus())

	analogs, matches, err := svc.FindAnalogs(context.Background(), "Proposed tariff increase of 10% on imported steel products", 0.1)
	if err != nil {
		t.Fatalf("FindAnalogs: %v", err)
	}
	if len(analogs) == 0 {
		t.Fatal("expected at least one analog for a steel tariff text")
	}
	if len(matches) != len(analogs) {
		t.Errorf("returned %d matches for %d analogs", len(matches), len(analogs))
	}
	if matches[0].Policy.Text != analogs[0].HistoricalMatch || matches[0].Similarity != analogs[0].SimilarityScore {
		t.Error("matches and analogs disagree on the best result")
	}
	best := analogs[0]
	if best.HistoricalMatch != "Tariff increase of 25% on imported steel and aluminum" {
		t.Errorf("best match = %q", best.HistoricalMatch)
	}
	if best.PolicyType != "Trade" || best.TimePeriod != "2018" {
		t.Errorf("metadata not carried over: type=%q period=%q", best.PolicyType, best.TimePeriod)
	}
	if len(best.RiskFactors) != 2 {
		t.Errorf("risk factors = %v", best.RiskFactors)
	}
	if len(store.saved) != len(analogs) {
		t.Errorf("persisted %d records, returned %d", len(store.saved), len(analogs))
	}
	for i := 1; i < len(analogs); i++ {
		if analogs[i].SimilarityScore > analogs[i-1].SimilarityScore {
			t.Errorf("analogs not sorted descending at %d", i)
		}
	}
}

func TestAnalogs_FindAnalogsEmptyText(t *testing.T) {
	svc := NewAnalogs(&memAnalogStore{}, HistoricalCorpus())
	if _, _, err := svc.FindAnalogs(context.Background(), "", 0.5); !errors.Is(err, ErrEmptyPolicyText) {
		t.Errorf("err = %v, want ErrEmptyPolicyText", err)
	}
}

func TestAnalogs_FindAnalogsDefaultThreshold(t *testing.T) {
	store := &memAnalogStore{}
	svc := NewAnalogs(store, HistoricalCorpus())

	// An unrelated text has no analogs at the default threshold.
	analogs, _, err := svc.FindAnalogs(context.Background(), "Municipal zoning variance for mixed-use development", 0)
	if err != nil {
		t.Fatalf("FindAnalogs: %v", err)
	}
	if len(analogs) != 0 {
		t.Errorf("unrelated text matched %d analogs at default threshold", len(analogs))
	}
}

func TestAnalogs_FindAnalogsSaveFailure(t *testing.T) {
	store := &memAnalogStore{saveErr: errors.New("db down")}
	svc := NewAnalogs(store, HistoricalCorpus())
	if _, _, err := svc.FindAnalogs(context.Background(), "Tariff increase on imported steel and aluminum", 0.1); err == nil {
		t.Fatal("expected persistence failure to surface")
	}
}

func TestAnalogs_MatchesCarryHistoricalRecords(t *testing.T) {
	svc := NewAnalogs(&memAnalogStore{}, HistoricalCorpus())
	_, matches, err := svc.FindAnalogs(context.Background(), "Minimum wage increase to $15 per hour", 0.5)
	if err != nil {
		t.Fatalf("FindAnalogs: %v", err)
	}
	if len(matches) == 0 {
		t.Fatal("expected matches for an in-corpus text")
	}
	if matches[0].Policy.PolicyType != "Labor" {
		t.Errorf("best match type = %q, want Labor", matches[0].Policy.PolicyType)
	}
	if matches[0].Similarity < 0.99 {
		t.Errorf("identity match similarity = %v", matches[0].Similarity)
	}
}

func TestAnalogs_RecentClampsLimit(t *testing.T) {
	store := &memAnalogStore{}
	svc := NewAnalogs(store, HistoricalCorpus())
	if _, _, err := svc.FindAnalogs(context.Background(), "Tariff increase of 25% on imported steel and aluminum", 0.1); err != nil {
		t.Fatalf("FindAnalogs: %v", err)
	}
	got, err := svc.Recent(context.Background(), -1)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) == 0 {
		t.Error("expected stored analogs with clamped limit")
	}
}
