// Package retrieval issues nearest-neighbour queries against the recipe
// corpus and shapes the matches into pipeline candidates.
package retrieval

import (
	"context"
	"log"

	"github.com/plateful/platefinder/internal/recipe"
	"github.com/plateful/platefinder/internal/recipestore"
	"github.com/plateful/platefinder/internal/resilience"
)

// DefaultK is how many candidates a retrieval pass fetches. The judge is
// the precision layer, so the net here is deliberately wide.
const DefaultK = 30

// Retriever wraps the vector index service.
type Retriever struct {
	store   recipestore.Store
	retrier *resilience.Retrier
	k       int
}

// New creates a Retriever. k <= 0 selects DefaultK.
func New(store recipestore.Store, retrier *resilience.Retrier, k int) *Retriever {
	if k <= 0 {
		k = DefaultK
	}
	return &Retriever{store: store, retrier: retrier, k: k}
}

// Retrieve returns ranked candidates for the query, skipping any whose
// title the session has already excluded and deduplicating by title.
// matched counts index hits before exclusion, so callers can tell an empty
// corpus from an exhausted one. Index failure is recoverable through web
// fallback, so it yields an empty result instead of an error.
func (r *Retriever) Retrieve(ctx context.Context, query string, excluded func(title string) bool) (candidates []recipe.Candidate, matched int) {
	matches, err := resilience.DoValue(ctx, r.retrier, "retrieval.search", nil,
		func(ctx context.Context) ([]recipestore.Match, error) {
			return r.store.Search(ctx, query, r.k)
		})
	if err != nil {
		log.Printf("retrieval: index query failed, continuing with empty result: %v", err)
		return nil, 0
	}

	seen := make(map[string]bool, len(matches))
	for _, m := range matches {
		key := recipe.NormalizeTitle(m.Recipe.Title)
		if key == "" || seen[key] {
			continue
		}
		if excluded != nil && excluded(m.Recipe.Title) {
			continue
		}
		seen[key] = true
		candidates = append(candidates, recipe.Candidate{
			ID:     m.Recipe.ID,
			Title:  m.Recipe.Title,
			Body:   m.Recipe.Body(),
			Source: recipe.SourceLocal,
			Score:  m.Similarity,
		})
	}
	return candidates, len(matches)
}
