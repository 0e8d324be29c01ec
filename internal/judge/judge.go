// Package judge is the precision layer of the pipeline: similarity gets a
// recipe into the candidate set, but only an explicit accept verdict gets
// it back to the caller.
package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/plateful/platefinder/internal/llm"
	"github.com/plateful/platefinder/internal/recipe"
	"github.com/plateful/platefinder/internal/resilience"
)

// noVerdictReason is assigned when the evaluation response omits a candidate.
const noVerdictReason = "no verdict returned"

// Judge scores candidates against an extracted intent in one batched
// evaluation call.
type Judge struct {
	provider llm.Provider
	model    string
	retrier  *resilience.Retrier
}

// New creates a Judge on the given completion provider.
func New(provider llm.Provider, model string, retrier *resilience.Retrier) *Judge {
	return &Judge{provider: provider, model: model, retrier: retrier}
}

// Judge returns one verdict per candidate, in candidate input order.
// Verdicts are matched back by candidate id, never by position, so a
// reordered or partial response degrades to rejections rather than
// misattributed accepts.
func (j *Judge) Judge(ctx context.Context, candidates []recipe.Candidate, spec *recipe.IntentSpec) ([]recipe.Verdict, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	prompt := j.buildPrompt(candidates, spec)
	resp, err := resilience.DoValue(ctx, j.retrier, "judge.evaluate", nil,
		func(ctx context.Context) (*llm.CompletionResponse, error) {
			return j.provider.Complete(ctx, llm.CompletionRequest{
				Model: j.model,
				Messages: []llm.Message{
					{Role: llm.RoleSystem, Content: judgeSystemPrompt},
					{Role: llm.RoleUser, Content: prompt},
				},
				MaxTokens:   4096,
				Temperature: 0.0,
				JSONMode:    true,
			})
		})
	if err != nil {
		return nil, fmt.Errorf("judge evaluation: %w", err)
	}

	var parsed struct {
		Verdicts []struct {
			ID       string `json:"id"`
			Accepted bool   `json:"accepted"`
			Reason   string `json:"reason"`
		} `json:"verdicts"`
	}
	if err := json.Unmarshal([]byte(llm.StripFences(resp.Content)), &parsed); err != nil {
		return nil, fmt.Errorf("unparseable judge response: %w", err)
	}

	byID := make(map[string]recipe.Verdict, len(parsed.Verdicts))
	for _, v := range parsed.Verdicts {
		byID[strings.TrimSpace(v.ID)] = recipe.Verdict{
			CandidateID: strings.TrimSpace(v.ID),
			Accepted:    v.Accepted,
			Reason:      v.Reason,
		}
	}

	verdicts := make([]recipe.Verdict, 0, len(candidates))
	for _, c := range candidates {
		if v, ok := byID[c.ID]; ok {
			verdicts = append(verdicts, v)
			continue
		}
		verdicts = append(verdicts, recipe.Verdict{
			CandidateID: c.ID,
			Accepted:    false,
			Reason:      noVerdictReason,
		})
	}
	return verdicts, nil
}

func (j *Judge) buildPrompt(candidates []recipe.Candidate, spec *recipe.IntentSpec) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Search query: %q\n\n", spec.OptimizedQuery)
	fmt.Fprintf(&b, "Requirements (must have):\n%s\n\n", bulleted(spec.Requirements))
	fmt.Fprintf(&b, "Restrictions (must avoid):\n%s\n\n", bulleted(spec.Restrictions))
	fmt.Fprintf(&b, "Evaluation focus: %s\n\n", strings.Join(spec.EvaluationFocus, ", "))

	b.WriteString("Candidate recipes (relevant content only):\n-------------------\n")
	for _, c := range candidates {
		fmt.Fprintf(&b, "Candidate id=%s\n%s\n\n", c.ID, buildExcerpt(c, spec))
	}
	b.WriteString("-------------------\n")
	return b.String()
}

func bulleted(items []string) string {
	if len(items) == 0 {
		return "- none"
	}
	var b strings.Builder
	for _, item := range items {
		b.WriteString("- ")
		b.WriteString(item)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
