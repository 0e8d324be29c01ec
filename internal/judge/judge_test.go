package judge

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/plateful/platefinder/internal/llm"
	"github.com/plateful/platefinder/internal/recipe"
	"github.com/plateful/platefinder/internal/resilience"
)

type fixedProvider struct {
	response string
	err      error
	calls    int
	lastUser string
}

func (p *fixedProvider) Name() string { return "fixed" }

func (p *fixedProvider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.calls++
	p.lastUser = req.Messages[len(req.Messages)-1].Content
	if p.err != nil {
		return nil, p.err
	}
	return &llm.CompletionResponse{Content: p.response, Model: req.Model}, nil
}

func testRetrier() *resilience.Retrier {
	return &resilience.Retrier{MaxAttempts: 1, BaseDelay: 1, MaxDelay: 1}
}

func testSpec() *recipe.IntentSpec {
	return &recipe.IntentSpec{
		OptimizedQuery:  "vegan stew",
		Requirements:    []string{"vegan"},
		Restrictions:    []string{"meat"},
		EvaluationFocus: []string{"ingredients"},
	}
}

func testCandidates() []recipe.Candidate {
	return []recipe.Candidate{
		{ID: "r-1", Title: "Lentil Stew", Body: "TITLE: Lentil Stew\n\nINGREDIENTS:\n - lentils\n"},
		{ID: "r-2", Title: "Beef Stew", Body: "TITLE: Beef Stew\n\nINGREDIENTS:\n - beef\n"},
		{ID: "r-3", Title: "Mushroom Stew", Body: "TITLE: Mushroom Stew\n\nINGREDIENTS:\n - mushrooms\n"},
	}
}

func TestJudgeMatchesVerdictsByID(t *testing.T) {
	// Verdicts come back in a different order than the candidates went in.
	provider := &fixedProvider{response: `{"verdicts": [
		{"id": "r-3", "accepted": true, "reason": "plant based"},
		{"id": "r-1", "accepted": true, "reason": "vegan"},
		{"id": "r-2", "accepted": false, "reason": "contains beef"}
	]}`}
	j := New(provider, "test-model", testRetrier())

	verdicts, err := j.Judge(context.Background(), testCandidates(), testSpec())
	if err != nil {
		t.Fatalf("Judge: %v", err)
	}
	if len(verdicts) != 3 {
		t.Fatalf("got %d verdicts, want 3", len(verdicts))
	}

	wantOrder := []string{"r-1", "r-2", "r-3"}
	for i, v := range verdicts {
		if v.CandidateID != wantOrder[i] {
			t.Errorf("verdict %d is for %s, want %s", i, v.CandidateID, wantOrder[i])
		}
	}
	if !verdicts[0].Accepted || verdicts[1].Accepted || !verdicts[2].Accepted {
		t.Errorf("unexpected accept pattern: %+v", verdicts)
	}
	if verdicts[1].Reason != "contains beef" {
		t.Errorf("got reason %q, want %q", verdicts[1].Reason, "contains beef")
	}
}

func TestJudgeMissingVerdictRejects(t *testing.T) {
	provider := &fixedProvider{response: `{"verdicts": [
		{"id": "r-1", "accepted": true, "reason": "vegan"}
	]}`}
	j := New(provider, "test-model", testRetrier())

	verdicts, err := j.Judge(context.Background(), testCandidates(), testSpec())
	if err != nil {
		t.Fatalf("Judge: %v", err)
	}
	for _, v := range verdicts[1:] {
		if v.Accepted {
			t.Errorf("candidate %s accepted without a verdict", v.CandidateID)
		}
		if v.Reason != noVerdictReason {
			t.Errorf("candidate %s reason = %q, want %q", v.CandidateID, v.Reason, noVerdictReason)
		}
	}
}

func TestJudgeUnknownIDsAreIgnored(t *testing.T) {
	provider := &fixedProvider{response: `{"verdicts": [
		{"id": "r-1", "accepted": true, "reason": "vegan"},
		{"id": "r-99", "accepted": true, "reason": "hallucinated"}
	]}`}
	j := New(provider, "test-model", testRetrier())

	verdicts, err := j.Judge(context.Background(), testCandidates(), testSpec())
	if err != nil {
		t.Fatalf("Judge: %v", err)
	}
	if len(verdicts) != 3 {
		t.Fatalf("got %d verdicts, want 3", len(verdicts))
	}
	for _, v := range verdicts {
		if v.CandidateID == "r-99" {
			t.Fatal("verdict for unknown candidate leaked through")
		}
	}
}

func TestJudgeEmptyCandidates(t *testing.T) {
	provider := &fixedProvider{response: `{"verdicts": []}`}
	j := New(provider, "test-model", testRetrier())

	verdicts, err := j.Judge(context.Background(), nil, testSpec())
	if err != nil {
		t.Fatalf("Judge: %v", err)
	}
	if verdicts != nil {
		t.Errorf("got %v, want nil", verdicts)
	}
	if provider.calls != 0 {
		t.Errorf("provider called %d times for an empty batch", provider.calls)
	}
}

func TestJudgeUnparseableResponse(t *testing.T) {
	provider := &fixedProvider{response: "I think they all look great!"}
	j := New(provider, "test-model", testRetrier())

	if _, err := j.Judge(context.Background(), testCandidates(), testSpec()); err == nil {
		t.Fatal("expected error for unparseable response")
	}
}

func TestJudgeHandlesFencedResponse(t *testing.T) {
	provider := &fixedProvider{response: "```json\n" + `{"verdicts": [{"id": "r-1", "accepted": true, "reason": "ok"}]}` + "\n```"}
	j := New(provider, "test-model", testRetrier())

	verdicts, err := j.Judge(context.Background(), testCandidates()[:1], testSpec())
	if err != nil {
		t.Fatalf("Judge: %v", err)
	}
	if !verdicts[0].Accepted {
		t.Error("fenced verdict not applied")
	}
}

func TestJudgePromptCarriesAllCandidates(t *testing.T) {
	provider := &fixedProvider{response: `{"verdicts": []}`}
	j := New(provider, "test-model", testRetrier())

	if _, err := j.Judge(context.Background(), testCandidates(), testSpec()); err != nil {
		t.Fatalf("Judge: %v", err)
	}
	for _, id := range []string{"r-1", "r-2", "r-3"} {
		if !strings.Contains(provider.lastUser, fmt.Sprintf("Candidate id=%s", id)) {
			t.Errorf("prompt is missing candidate %s", id)
		}
	}
	if !strings.Contains(provider.lastUser, "vegan stew") {
		t.Error("prompt is missing the optimized query")
	}
}
