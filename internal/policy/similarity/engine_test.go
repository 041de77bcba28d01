package similarity

import (
	"math"
	"testing"
)

var corpus = []string{
	"Tariff increase of 25% on imported steel and aluminum",
	"Tax credit of 30% for renewable energy investments",
	"Minimum wage increase to $15 per hour",
	"Carbon emissions cap for heavy industry",
}

func trainedEngine() *Engine {
	e := NewEngine()
	e.Train(corpus)
	return e
}

func TestEngine_UntrainedScoresZero(t *testing.T) {
	e := NewEngine()
	if got := e.Similarity("steel tariffs", "steel tariffs"); got != 0 {
		t.Errorf("untrained similarity = %v, want 0", got)
	}
}

func TestEngine_IdenticalTexts(t *testing.T) {
	e := trainedEngine()
	got := e.Similarity("tariff on imported steel", "tariff on imported steel")
	if math.Abs(got-1.0) > 1e-9 {
		t.Errorf("identical texts similarity = %v, want 1", got)
	}
}

func TestEngine_DisjointTexts(t *testing.T) {
	e := trainedEngine()
	if got := e.Similarity("tariff steel aluminum", "renewable energy credit"); got != 0 {
		t.Errorf("disjoint texts similarity = %v, want 0", got)
	}
}

func TestEngine_CaseAndPunctuationInsensitive(t *testing.T) {
	e := trainedEngine()
	a := e.Similarity("Minimum wage increase", "minimum-wage INCREASE!")
	b := e.Similarity("minimum wage increase", "minimum wage increase")
	if math.Abs(a-b) > 1e-9 {
		t.Errorf("tokenization should ignore case and punctuation: %v != %v", a, b)
	}
}

func TestEngine_EmptyText(t *testing.T) {
	e := trainedEngine()
	if got := e.Similarity("", "tariff steel"); got != 0 {
		t.Errorf("empty text similarity = %v, want 0", got)
	}
}

func TestEngine_FindSimilarOrderingAndThreshold(t *testing.T) {
	e := trainedEngine()
	results := e.FindSimilar("Tariff increase on imported steel", corpus, 0.1)
	if len(results) == 0 {
		t.Fatal("expected at least one match")
	}
	if results[0].Index != 0 {
		t.Errorf("best match index = %d, want 0 (steel tariff)", results[0].Index)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Similarity > results[i-1].Similarity {
			t.Errorf("results not sorted descending at %d", i)
		}
	}
	for _, r := range results {
		if r.Similarity < 0.1 {
			t.Errorf("result %d below threshold: %v", r.Index, r.Similarity)
		}
	}

	if got := e.FindSimilar("Tariff increase on imported steel", corpus, 0.999); len(got) > 1 {
		t.Errorf("near-exact threshold returned %d matches", len(got))
	}
}

func TestEngine_RetrainResetsStatistics(t *testing.T) {
	e := trainedEngine()
	before := e.Similarity("renewable energy", "renewable energy")
	e.Train([]string{"budget deficit hearings", "budget committee report"})
	after := e.Similarity("renewable energy", "renewable energy")
	if before == 0 {
		t.Fatal("expected nonzero similarity before retrain")
	}
	if after != 0 {
		t.Errorf("after retrain similarity = %v, want 0 (words unseen in new corpus)", after)
	}
}
