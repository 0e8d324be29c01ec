package websearch

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/plateful/platefinder/internal/llm"
	"github.com/plateful/platefinder/internal/recipe"
	"github.com/plateful/platefinder/internal/resilience"
)

const formatterSystemPrompt = `You are a culinary assistant. Extract and format recipes from web search results.

Instructions:
- Extract distinct recipes found in the text.
- Respond with a JSON object: {"recipes": [{"title": "...", "recipe_text": "..."}]}.
- "recipe_text" should include Title, Ingredients, and Directions.
- If ingredients or directions are missing, summarize what is available and include the source URL.
- Output JSON only.`

// Searcher turns web search hits into judged-ready candidates. Raw snippets
// are too ragged to judge directly, so a formatting completion reshapes them
// into recipe text first.
type Searcher struct {
	service    Service
	provider   llm.Provider
	model      string
	retrier    *resilience.Retrier
	maxResults int
}

// NewSearcher creates a fallback searcher over the given provider pair.
func NewSearcher(service Service, provider llm.Provider, model string, retrier *resilience.Retrier) *Searcher {
	return &Searcher{
		service:    service,
		provider:   provider,
		model:      model,
		retrier:    retrier,
		maxResults: 5,
	}
}

// SetMaxResults overrides how many web hits each fallback query requests.
func (s *Searcher) SetMaxResults(n int) {
	if n > 0 {
		s.maxResults = n
	}
}

// Search queries the web and normalizes the hits into web-sourced
// candidates, deduplicated by normalized title and minus session-excluded
// titles. Like local retrieval, failure degrades to an empty result: an
// empty fallback is a valid terminal outcome for a run.
func (s *Searcher) Search(ctx context.Context, query string, excluded func(title string) bool) []recipe.Candidate {
	results, err := resilience.DoValue(ctx, s.retrier, "websearch.search", nil,
		func(ctx context.Context) ([]Result, error) {
			return s.service.Search(ctx, query+" recipe full ingredients directions", s.maxResults)
		})
	if err != nil {
		log.Printf("websearch: query failed, continuing with empty result: %v", err)
		return nil
	}
	if len(results) == 0 {
		return nil
	}

	formatted, err := s.format(ctx, query, results)
	if err != nil {
		log.Printf("websearch: formatting failed, continuing with empty result: %v", err)
		return nil
	}

	seen := make(map[string]bool, len(formatted))
	var candidates []recipe.Candidate
	for _, f := range formatted {
		title := strings.TrimSpace(f.Title)
		key := recipe.NormalizeTitle(title)
		if key == "" || seen[key] {
			continue
		}
		if excluded != nil && excluded(title) {
			continue
		}
		seen[key] = true
		candidates = append(candidates, recipe.Candidate{
			ID:     "web-" + uuid.NewString(),
			Title:  title,
			Body:   f.RecipeText,
			Source: recipe.SourceWeb,
			URL:    f.url,
		})
	}
	return candidates
}

type formattedRecipe struct {
	Title      string `json:"title"`
	RecipeText string `json:"recipe_text"`
	url        string
}

func (s *Searcher) format(ctx context.Context, query string, results []Result) ([]formattedRecipe, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "User Query: %q\n\nWeb Results:\n", query)
	for i, r := range results {
		fmt.Fprintf(&b, "Source %d: %s\n%s\nURL: %s\n\n", i+1, r.Title, r.Snippet, r.URL)
	}

	resp, err := resilience.DoValue(ctx, s.retrier, "websearch.format", nil,
		func(ctx context.Context) (*llm.CompletionResponse, error) {
			return s.provider.Complete(ctx, llm.CompletionRequest{
				Model: s.model,
				Messages: []llm.Message{
					{Role: llm.RoleSystem, Content: formatterSystemPrompt},
					{Role: llm.RoleUser, Content: b.String()},
				},
				MaxTokens:   4096,
				Temperature: 0.2,
				JSONMode:    true,
			})
		})
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Recipes []formattedRecipe `json:"recipes"`
	}
	if err := json.Unmarshal([]byte(llm.StripFences(resp.Content)), &parsed); err != nil {
		return nil, fmt.Errorf("unparseable formatter response: %w", err)
	}

	// Best-effort source attribution: pair recipes with hits by title match.
	for i := range parsed.Recipes {
		for _, r := range results {
			if recipe.NormalizeTitle(r.Title) == recipe.NormalizeTitle(parsed.Recipes[i].Title) {
				parsed.Recipes[i].url = r.URL
				break
			}
		}
	}
	return parsed.Recipes, nil
}
