package websearch

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/plateful/platefinder/internal/llm"
	"github.com/plateful/platefinder/internal/recipe"
	"github.com/plateful/platefinder/internal/resilience"
)

type fakeService struct {
	results   []Result
	err       error
	lastQuery string
	lastMax   int
}

func (s *fakeService) Search(_ context.Context, query string, maxResults int) ([]Result, error) {
	s.lastQuery = query
	s.lastMax = maxResults
	return s.results, s.err
}

type fixedProvider struct {
	response string
	err      error
}

func (p *fixedProvider) Name() string { return "fixed" }

func (p *fixedProvider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if p.err != nil {
		return nil, p.err
	}
	return &llm.CompletionResponse{Content: p.response, Model: req.Model}, nil
}

func testRetrier() *resilience.Retrier {
	return &resilience.Retrier{MaxAttempts: 1, BaseDelay: 1, MaxDelay: 1}
}

func hits() []Result {
	return []Result{
		{Title: "Spicy Ramen", URL: "https://example.com/ramen", Snippet: "noodles and broth"},
		{Title: "Miso Soup", URL: "https://example.com/miso", Snippet: "dashi and miso"},
	}
}

const formattedJSON = `{"recipes": [
	{"title": "Spicy Ramen", "recipe_text": "Title: Spicy Ramen\nIngredients: noodles\nDirections: boil"},
	{"title": "spicy  ramen", "recipe_text": "duplicate under normalization"},
	{"title": "Miso Soup", "recipe_text": "Title: Miso Soup\nIngredients: miso\nDirections: simmer"}
]}`

func TestSearchNormalizesHits(t *testing.T) {
	svc := &fakeService{results: hits()}
	s := NewSearcher(svc, &fixedProvider{response: formattedJSON}, "test-model", testRetrier())

	candidates := s.Search(context.Background(), "ramen", nil)
	if len(candidates) != 2 {
		t.Fatalf("got %d candidates, want 2 after title dedupe", len(candidates))
	}
	for _, c := range candidates {
		if c.Source != recipe.SourceWeb {
			t.Errorf("candidate %s source = %q, want web", c.ID, c.Source)
		}
		if !strings.HasPrefix(c.ID, "web-") {
			t.Errorf("candidate id %q not web-minted", c.ID)
		}
	}
	if candidates[0].URL != "https://example.com/ramen" {
		t.Errorf("url attribution failed: %q", candidates[0].URL)
	}
	if !strings.Contains(svc.lastQuery, "recipe full ingredients directions") {
		t.Errorf("query not expanded for the web: %q", svc.lastQuery)
	}
}

func TestSearchSkipsExcludedTitles(t *testing.T) {
	svc := &fakeService{results: hits()}
	s := NewSearcher(svc, &fixedProvider{response: formattedJSON}, "test-model", testRetrier())

	candidates := s.Search(context.Background(), "ramen", func(title string) bool {
		return recipe.NormalizeTitle(title) == "spicy ramen"
	})
	if len(candidates) != 1 || candidates[0].Title != "Miso Soup" {
		t.Fatalf("got %+v, want only Miso Soup", candidates)
	}
}

func TestSearchServiceFailureIsEmpty(t *testing.T) {
	svc := &fakeService{err: fmt.Errorf("tavily is down")}
	s := NewSearcher(svc, &fixedProvider{response: formattedJSON}, "test-model", testRetrier())

	if candidates := s.Search(context.Background(), "ramen", nil); candidates != nil {
		t.Fatalf("got %+v, want nil on service failure", candidates)
	}
}

func TestSearchFormatterFailureIsEmpty(t *testing.T) {
	svc := &fakeService{results: hits()}
	s := NewSearcher(svc, &fixedProvider{response: "no json here"}, "test-model", testRetrier())

	if candidates := s.Search(context.Background(), "ramen", nil); candidates != nil {
		t.Fatalf("got %+v, want nil on formatter failure", candidates)
	}
}

func TestSearchNoHits(t *testing.T) {
	svc := &fakeService{}
	s := NewSearcher(svc, &fixedProvider{response: formattedJSON}, "test-model", testRetrier())

	if candidates := s.Search(context.Background(), "ramen", nil); candidates != nil {
		t.Fatalf("got %+v, want nil for zero hits", candidates)
	}
}

func TestSetMaxResults(t *testing.T) {
	svc := &fakeService{results: hits()}
	s := NewSearcher(svc, &fixedProvider{response: formattedJSON}, "test-model", testRetrier())

	s.SetMaxResults(3)
	s.Search(context.Background(), "ramen", nil)
	if svc.lastMax != 3 {
		t.Errorf("maxResults = %d, want 3", svc.lastMax)
	}

	s.SetMaxResults(0) // ignored
	s.Search(context.Background(), "ramen", nil)
	if svc.lastMax != 3 {
		t.Errorf("maxResults = %d after no-op override, want 3", svc.lastMax)
	}
}
