package intent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/plateful/platefinder/internal/llm"
	"github.com/plateful/platefinder/internal/resilience"
)

// routingProvider answers the optimizer and analyzer prompts separately.
type routingProvider struct {
	query    string
	analysis string
	queryErr error
}

func (p *routingProvider) Name() string { return "routing" }

func (p *routingProvider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	system := req.Messages[0].Content
	switch {
	case strings.Contains(system, optimizerSystemPrompt[:40]):
		if p.queryErr != nil {
			return nil, p.queryErr
		}
		return &llm.CompletionResponse{Content: p.query}, nil
	case strings.Contains(system, analyzerSystemPrompt[:40]):
		return &llm.CompletionResponse{Content: p.analysis}, nil
	}
	return nil, fmt.Errorf("unexpected system prompt: %.60s", system)
}

func testRetrier() *resilience.Retrier {
	return &resilience.Retrier{MaxAttempts: 1, BaseDelay: 1, MaxDelay: 1}
}

func TestExtract(t *testing.T) {
	provider := &routingProvider{
		query: `"high protein vegan dinner"`,
		analysis: `{"requirements": ["vegan", "high protein", "Vegan"],
			"restrictions": ["meat", "dairy"],
			"evaluation_focus": ["ingredients"]}`,
	}
	e := NewExtractor(provider, "test-model", testRetrier())

	spec, err := e.Extract(context.Background(), "  I want a high protein vegan dinner  ")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if spec.OptimizedQuery != "high protein vegan dinner" {
		t.Errorf("query = %q, want surrounding quotes stripped", spec.OptimizedQuery)
	}
	if len(spec.Requirements) != 2 {
		t.Errorf("requirements = %v, want case-insensitive dedupe to 2", spec.Requirements)
	}
	if len(spec.Restrictions) != 2 || spec.Restrictions[0] != "meat" {
		t.Errorf("restrictions = %v", spec.Restrictions)
	}
}

func TestExtractEmptyText(t *testing.T) {
	e := NewExtractor(&routingProvider{}, "test-model", testRetrier())
	if _, err := e.Extract(context.Background(), "   "); err == nil {
		t.Fatal("expected error for empty request text")
	}
}

func TestExtractConflictingIntent(t *testing.T) {
	provider := &routingProvider{
		query: "cheesy pasta",
		analysis: `{"requirements": ["cheese"], "restrictions": ["Cheese"],
			"evaluation_focus": ["ingredients"]}`,
	}
	e := NewExtractor(provider, "test-model", testRetrier())

	_, err := e.Extract(context.Background(), "cheesy pasta without cheese")
	if !errors.Is(err, ErrConflictingIntent) {
		t.Fatalf("got %v, want ErrConflictingIntent", err)
	}
}

func TestExtractOptimizerFailureFailsRun(t *testing.T) {
	provider := &routingProvider{
		queryErr: fmt.Errorf("boom"),
		analysis: `{"requirements": [], "restrictions": [], "evaluation_focus": []}`,
	}
	e := NewExtractor(provider, "test-model", testRetrier())

	if _, err := e.Extract(context.Background(), "anything"); err == nil {
		t.Fatal("expected optimizer failure to propagate")
	}
}

func TestExtractEmptyOptimizedQuery(t *testing.T) {
	provider := &routingProvider{
		query:    `""`,
		analysis: `{"requirements": [], "restrictions": [], "evaluation_focus": []}`,
	}
	e := NewExtractor(provider, "test-model", testRetrier())

	if _, err := e.Extract(context.Background(), "anything"); err == nil {
		t.Fatal("expected error for empty optimized query")
	}
}

func TestExtractFencedAnalysis(t *testing.T) {
	provider := &routingProvider{
		query: "quick soup",
		analysis: "```json\n" + `{"requirements": ["quick"], "restrictions": [],
			"evaluation_focus": ["time"]}` + "\n```",
	}
	e := NewExtractor(provider, "test-model", testRetrier())

	spec, err := e.Extract(context.Background(), "a quick soup")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(spec.Requirements) != 1 || spec.Requirements[0] != "quick" {
		t.Errorf("requirements = %v", spec.Requirements)
	}
}
