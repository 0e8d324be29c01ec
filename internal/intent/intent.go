// Package intent turns a raw request into an optimized search query plus a
// structured requirement/restriction set. Both readings come from the
// completion service; their failure fails the whole run, because an empty
// IntentSpec would make the judge accept everything.
package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/plateful/platefinder/internal/llm"
	"github.com/plateful/platefinder/internal/recipe"
	"github.com/plateful/platefinder/internal/resilience"
)

// ErrConflictingIntent is returned when the extraction puts the same item
// in both requirements and restrictions. That is a data error, not
// something to merge silently.
var ErrConflictingIntent = fmt.Errorf("intent extraction produced overlapping requirements and restrictions")

// Extractor derives an IntentSpec from free text.
type Extractor struct {
	provider llm.Provider
	model    string
	retrier  *resilience.Retrier
}

// NewExtractor creates an Extractor on the given completion provider.
func NewExtractor(provider llm.Provider, model string, retrier *resilience.Retrier) *Extractor {
	return &Extractor{provider: provider, model: model, retrier: retrier}
}

// Extract runs the query optimization and the intent analysis concurrently.
// Both share the same raw input and neither depends on the other.
func (e *Extractor) Extract(ctx context.Context, rawText string) (*recipe.IntentSpec, error) {
	rawText = strings.TrimSpace(rawText)
	if rawText == "" {
		return nil, fmt.Errorf("empty request text")
	}

	var (
		wg       sync.WaitGroup
		query    string
		queryErr error
		spec     *recipe.IntentSpec
		specErr  error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		query, queryErr = e.optimizeQuery(ctx, rawText)
	}()
	go func() {
		defer wg.Done()
		spec, specErr = e.analyze(ctx, rawText)
	}()
	wg.Wait()

	if queryErr != nil {
		return nil, fmt.Errorf("query optimization: %w", queryErr)
	}
	if specErr != nil {
		return nil, fmt.Errorf("intent analysis: %w", specErr)
	}

	spec.OptimizedQuery = query
	if overlap := intersect(spec.Requirements, spec.Restrictions); len(overlap) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrConflictingIntent, strings.Join(overlap, ", "))
	}
	return spec, nil
}

func (e *Extractor) optimizeQuery(ctx context.Context, rawText string) (string, error) {
	resp, err := resilience.DoValue(ctx, e.retrier, "intent.optimize_query", nil,
		func(ctx context.Context) (*llm.CompletionResponse, error) {
			return e.provider.Complete(ctx, llm.CompletionRequest{
				Model: e.model,
				Messages: []llm.Message{
					{Role: llm.RoleSystem, Content: optimizerSystemPrompt},
					{Role: llm.RoleUser, Content: fmt.Sprintf("User Request: %q", rawText)},
				},
				MaxTokens:   256,
				Temperature: 0.1,
			})
		})
	if err != nil {
		return "", err
	}

	query := strings.Trim(strings.TrimSpace(resp.Content), `"`)
	if query == "" {
		return "", fmt.Errorf("optimizer returned an empty query")
	}
	return query, nil
}

func (e *Extractor) analyze(ctx context.Context, rawText string) (*recipe.IntentSpec, error) {
	resp, err := resilience.DoValue(ctx, e.retrier, "intent.analyze", nil,
		func(ctx context.Context) (*llm.CompletionResponse, error) {
			return e.provider.Complete(ctx, llm.CompletionRequest{
				Model: e.model,
				Messages: []llm.Message{
					{Role: llm.RoleSystem, Content: analyzerSystemPrompt},
					{Role: llm.RoleUser, Content: fmt.Sprintf("User Request: %q", rawText)},
				},
				MaxTokens:   512,
				Temperature: 0.0,
				JSONMode:    true,
			})
		})
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Requirements    []string `json:"requirements"`
		Restrictions    []string `json:"restrictions"`
		EvaluationFocus []string `json:"evaluation_focus"`
	}
	if err := json.Unmarshal([]byte(llm.StripFences(resp.Content)), &parsed); err != nil {
		return nil, fmt.Errorf("unparseable intent analysis: %w", err)
	}

	return &recipe.IntentSpec{
		Requirements:    dedupe(parsed.Requirements),
		Restrictions:    dedupe(parsed.Restrictions),
		EvaluationFocus: dedupe(parsed.EvaluationFocus),
	}, nil
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	var out []string
	for _, item := range items {
		item = strings.TrimSpace(item)
		key := strings.ToLower(item)
		if item == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
	}
	return out
}

func intersect(a, b []string) []string {
	inA := make(map[string]bool, len(a))
	for _, item := range a {
		inA[strings.ToLower(item)] = true
	}
	var out []string
	for _, item := range b {
		if inA[strings.ToLower(item)] {
			out = append(out, item)
		}
	}
	return out
}
