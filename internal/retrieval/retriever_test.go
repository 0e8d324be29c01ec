package retrieval

import (
	"context"
	"fmt"
	"testing"

	"github.com/plateful/platefinder/internal/recipe"
	"github.com/plateful/platefinder/internal/recipestore"
	"github.com/plateful/platefinder/internal/resilience"
)

type fakeStore struct {
	matches   []recipestore.Match
	err       error
	lastLimit int
}

func (s *fakeStore) Add(context.Context, []recipestore.Recipe) error { return nil }
func (s *fakeStore) Persist(context.Context, string) error           { return nil }
func (s *fakeStore) Load(context.Context, string) error              { return nil }
func (s *fakeStore) Count() int                                      { return len(s.matches) }

func (s *fakeStore) Search(_ context.Context, _ string, limit int) ([]recipestore.Match, error) {
	s.lastLimit = limit
	return s.matches, s.err
}

func testRetrier() *resilience.Retrier {
	return &resilience.Retrier{MaxAttempts: 1, BaseDelay: 1, MaxDelay: 1}
}

func match(id, title string, similarity float32) recipestore.Match {
	return recipestore.Match{
		Recipe: recipestore.Recipe{
			ID:          id,
			Title:       title,
			Ingredients: []string{"salt"},
			Directions:  []string{"season"},
		},
		Similarity: similarity,
	}
}

func TestRetrieve(t *testing.T) {
	store := &fakeStore{matches: []recipestore.Match{
		match("r-1", "Tofu Stir Fry", 0.9),
		match("r-2", "Tofu  stir fry", 0.85), // duplicate under normalization
		match("r-3", "Beef Stew", 0.7),
	}}
	r := New(store, testRetrier(), 10)

	candidates, matched := r.Retrieve(context.Background(), "tofu", nil)
	if matched != 3 {
		t.Errorf("matched = %d, want raw hit count 3", matched)
	}
	if len(candidates) != 2 {
		t.Fatalf("got %d candidates, want 2 after dedupe", len(candidates))
	}
	if candidates[0].ID != "r-1" || candidates[1].ID != "r-3" {
		t.Errorf("unexpected candidates: %+v", candidates)
	}
	if candidates[0].Source != recipe.SourceLocal {
		t.Errorf("source = %q, want local", candidates[0].Source)
	}
	if candidates[0].Score != 0.9 {
		t.Errorf("score = %v, want 0.9", candidates[0].Score)
	}
	if store.lastLimit != 10 {
		t.Errorf("limit = %d, want 10", store.lastLimit)
	}
}

func TestRetrieveExclusion(t *testing.T) {
	store := &fakeStore{matches: []recipestore.Match{
		match("r-1", "Tofu Stir Fry", 0.9),
		match("r-2", "Beef Stew", 0.7),
	}}
	r := New(store, testRetrier(), 10)

	candidates, matched := r.Retrieve(context.Background(), "dinner", func(title string) bool {
		return recipe.NormalizeTitle(title) == "tofu stir fry"
	})
	if matched != 2 {
		t.Errorf("matched = %d, want pre-exclusion count 2", matched)
	}
	if len(candidates) != 1 || candidates[0].ID != "r-2" {
		t.Fatalf("got %+v, want only r-2", candidates)
	}
}

func TestRetrieveExhaustion(t *testing.T) {
	// Every match excluded: matched stays positive so the caller can tell
	// an exhausted corpus from an empty one.
	store := &fakeStore{matches: []recipestore.Match{match("r-1", "Tofu Stir Fry", 0.9)}}
	r := New(store, testRetrier(), 10)

	candidates, matched := r.Retrieve(context.Background(), "tofu", func(string) bool { return true })
	if len(candidates) != 0 {
		t.Fatalf("got %+v, want none", candidates)
	}
	if matched != 1 {
		t.Errorf("matched = %d, want 1", matched)
	}
}

func TestRetrieveIndexFailureIsEmpty(t *testing.T) {
	store := &fakeStore{err: fmt.Errorf("index corrupt")}
	r := New(store, testRetrier(), 10)

	candidates, matched := r.Retrieve(context.Background(), "tofu", nil)
	if candidates != nil || matched != 0 {
		t.Fatalf("got %v, %d; want nil, 0 on index failure", candidates, matched)
	}
}

func TestDefaultK(t *testing.T) {
	store := &fakeStore{}
	r := New(store, testRetrier(), 0)
	r.Retrieve(context.Background(), "tofu", nil)
	if store.lastLimit != DefaultK {
		t.Errorf("limit = %d, want DefaultK %d", store.lastLimit, DefaultK)
	}
}
