// Package compliance is the final gate before a user commits to a recipe:
// a single-candidate PASS/FAIL check against hard constraints. Anything
// short of a confirmed pass fails, so an unverified recipe is never treated
// as compliant.
package compliance

import (
	"context"
	"fmt"
	"strings"

	"github.com/plateful/platefinder/internal/llm"
	"github.com/plateful/platefinder/internal/recipe"
	"github.com/plateful/platefinder/internal/resilience"
)

// bodyLimit truncates the candidate text to stay inside context limits.
const bodyLimit = 3000

const validatorSystemPrompt = `Review a recipe against strict dietary constraints.

If ANY forbidden ingredient is present, or you cannot tell, output FAIL with the reason.
Only if the recipe is clearly safe, output PASS.

Respond with exactly one line: PASS, or FAIL: <reason>.`

// Result is the validator's verdict. Fail is a first-class outcome, not an
// error.
type Result struct {
	Passed bool   `json:"passed"`
	Reason string `json:"reason,omitempty"`
}

// Validator checks one candidate at a time.
type Validator struct {
	provider llm.Provider
	model    string
	retrier  *resilience.Retrier
}

// New creates a Validator on the given completion provider.
func New(provider llm.Provider, model string, retrier *resilience.Retrier) *Validator {
	return &Validator{provider: provider, model: model, retrier: retrier}
}

// Validate checks the candidate against the restrictions. Every internal
// failure path (transport error, ambiguous verdict) returns Fail with the
// cause as reason.
func (v *Validator) Validate(ctx context.Context, candidate recipe.Candidate, restrictions []string) Result {
	if len(restrictions) == 0 {
		return Result{Passed: true, Reason: "no restrictions to check"}
	}

	body := candidate.Body
	if len(body) > bodyLimit {
		body = body[:bodyLimit]
	}

	prompt := fmt.Sprintf("Constraints (must avoid):\n%s\n\nRECIPE:\n%s",
		"- "+strings.Join(restrictions, "\n- "), body)

	resp, err := resilience.DoValue(ctx, v.retrier, "compliance.validate", nil,
		func(ctx context.Context) (*llm.CompletionResponse, error) {
			return v.provider.Complete(ctx, llm.CompletionRequest{
				Model: v.model,
				Messages: []llm.Message{
					{Role: llm.RoleSystem, Content: validatorSystemPrompt},
					{Role: llm.RoleUser, Content: prompt},
				},
				MaxTokens:   256,
				Temperature: 0.0,
			})
		})
	if err != nil {
		return Result{Passed: false, Reason: fmt.Sprintf("validation call failed: %v", err)}
	}

	content := strings.TrimSpace(resp.Content)
	upper := strings.ToUpper(content)
	switch {
	case strings.Contains(upper, "FAIL"):
		reason := content
		if idx := strings.Index(upper, "FAIL"); idx != -1 {
			reason = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(content[idx:]), "FAIL"))
			reason = strings.TrimSpace(strings.TrimPrefix(reason, ":"))
		}
		if reason == "" {
			reason = "constraint violation"
		}
		return Result{Passed: false, Reason: reason}
	case strings.Contains(upper, "PASS"):
		return Result{Passed: true}
	default:
		return Result{Passed: false, Reason: fmt.Sprintf("ambiguous validator verdict: %q", content)}
	}
}
