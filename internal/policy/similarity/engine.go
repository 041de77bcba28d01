// Package similarity scores policy texts against each other using TF-IDF
// weighted cosine similarity. The engine is trained once on the historical
// corpus; IDF weights are cached per word after that.
package similarity

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"
)

var wordPattern = regexp.MustCompile(`\w+`)

// Engine computes similarity between texts over a trained corpus.
type Engine struct {
	mu       sync.RWMutex
	docFreq  map[string]int
	docCount int
	idfCache map[string]float64
}

// NewEngine returns an untrained engine. Until Train is called every
// similarity is zero because no word carries IDF weight.
func NewEngine() *Engine {
	return &Engine{
		docFreq:  map[string]int{},
		idfCache: map[string]float64{},
	}
}

// Train replaces the engine's corpus statistics with those of documents.
func (e *Engine) Train(documents []string) {
	docFreq := make(map[string]int)
	for _, doc := range documents {
		seen := map[string]struct{}{}
		for _, word := range tokenize(doc) {
			seen[word] = struct{}{}
		}
		for word := range seen {
			docFreq[word]++
		}
	}

	e.mu.Lock()
	e.docFreq = docFreq
	e.docCount = len(documents)
	e.idfCache = map[string]float64{}
	e.mu.Unlock()
}

// Similarity returns the cosine similarity of the two texts on a 0-1 scale.
func (e *Engine) Similarity(text1, text2 string) float64 {
	return cosine(e.vector(text1), e.vector(text2))
}

// Scored pairs a candidate index with its similarity to the query text.
type Scored struct {
	Index      int
	Similarity float64
}

// FindSimilar scores text against every candidate and returns those at or
// above threshold, sorted by similarity descending.
func (e *Engine) FindSimilar(text string, candidates []string, threshold float64) []Scored {
	queryVec := e.vector(text)
	var results []Scored
	for i, candidate := range candidates {
		sim := cosine(queryVec, e.vector(candidate))
		if sim >= threshold {
			results = append(results, Scored{Index: i, Similarity: sim})
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	return results
}

func (e *Engine) vector(text string) map[string]float64 {
	words := tokenize(text)
	if len(words) == 0 {
		return nil
	}
	tf := make(map[string]float64)
	for _, word := range words {
		tf[word] += 1.0 / float64(len(words))
	}
	vec := make(map[string]float64, len(tf))
	for word, freq := range tf {
		vec[word] = freq * e.idf(word)
	}
	return vec
}

func (e *Engine) idf(word string) float64 {
	e.mu.RLock()
	if cached, ok := e.idfCache[word]; ok {
		e.mu.RUnlock()
		return cached
	}
	freq := e.docFreq[word]
	count := e.docCount
	e.mu.RUnlock()

	if freq == 0 {
		return 0
	}
	idf := math.Log(float64(count) / float64(freq))

	e.mu.Lock()
	e.idfCache[word] = idf
	e.mu.Unlock()
	return idf
}

func cosine(vec1, vec2 map[string]float64) float64 {
	var dot, norm1, norm2 float64
	for word, v1 := range vec1 {
		dot += v1 * vec2[word]
		norm1 += v1 * v1
	}
	for _, v2 := range vec2 {
		norm2 += v2 * v2
	}
	if norm1 == 0 || norm2 == 0 {
		return 0
	}
	return dot / (math.Sqrt(norm1) * math.Sqrt(norm2))
}

func tokenize(text string) []string {
	return wordPattern.FindAllString(strings.ToLower(text), -1)
}
