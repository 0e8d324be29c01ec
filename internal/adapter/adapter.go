// Package adapter produces a fixed fan-out of three variants for a chosen
// recipe: ingredient swaps, additive modifications, and a fresh recipe
// aligned with the goal. A response with anything other than three distinct
// options is a terminal error, never a partial success.
package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/plateful/platefinder/internal/llm"
	"github.com/plateful/platefinder/internal/recipe"
	"github.com/plateful/platefinder/internal/resilience"
)

// OptionCount is the fixed adaptation fan-out.
const OptionCount = 3

const adapterSystemPrompt = `You are a culinary assistant adapting a recipe to meet a goal.

Provide exactly 3 options:
- Option 1: ingredient swaps that satisfy the goal.
- Option 2: add-ons or modifications that increase the goal.
- Option 3: a new recipe aligned with the goal, keeping the same kind of dish.

Every option must preserve the identity of the original dish (e.g. "Beef Stew" may become "Lentil Stew", never "Salad").

Respond with a JSON object:
{"options": [{"title": "...", "approach": "...", "summary": "...", "ingredients": ["..."], "directions": ["..."]}]}

Output JSON only.`

// Adapter rewrites a selected recipe toward a modification goal.
type Adapter struct {
	provider llm.Provider
	model    string
	retrier  *resilience.Retrier
}

// New creates an Adapter on the given completion provider.
func New(provider llm.Provider, model string, retrier *resilience.Retrier) *Adapter {
	return &Adapter{provider: provider, model: model, retrier: retrier}
}

// Adapt returns exactly OptionCount options for the candidate, each with a
// distinct approach. Malformed or short responses fail the call.
func (a *Adapter) Adapt(ctx context.Context, candidate recipe.Candidate, goal string) ([]recipe.AdaptationOption, error) {
	goal = strings.TrimSpace(goal)
	if goal == "" {
		return nil, fmt.Errorf("empty adaptation goal")
	}

	prompt := fmt.Sprintf("Adaptation Goal: %q\n\nSelected Recipe:\n%s", goal, candidate.Body)
	resp, err := resilience.DoValue(ctx, a.retrier, "adapter.adapt", nil,
		func(ctx context.Context) (*llm.CompletionResponse, error) {
			return a.provider.Complete(ctx, llm.CompletionRequest{
				Model: a.model,
				Messages: []llm.Message{
					{Role: llm.RoleSystem, Content: adapterSystemPrompt},
					{Role: llm.RoleUser, Content: prompt},
				},
				MaxTokens:   4096,
				Temperature: 0.4,
				JSONMode:    true,
			})
		})
	if err != nil {
		return nil, fmt.Errorf("adaptation call: %w", err)
	}

	var parsed struct {
		Options []struct {
			Title       string   `json:"title"`
			Approach    string   `json:"approach"`
			Summary     string   `json:"summary"`
			Ingredients []string `json:"ingredients"`
			Directions  []string `json:"directions"`
		} `json:"options"`
	}
	if err := json.Unmarshal([]byte(llm.StripFences(resp.Content)), &parsed); err != nil {
		return nil, fmt.Errorf("unparseable adaptation response: %w", err)
	}
	if len(parsed.Options) != OptionCount {
		return nil, fmt.Errorf("adapter returned %d options, want exactly %d", len(parsed.Options), OptionCount)
	}

	options := make([]recipe.AdaptationOption, 0, OptionCount)
	seen := make(map[string]bool, OptionCount)
	for _, opt := range parsed.Options {
		desc := strings.TrimSpace(opt.Approach)
		if opt.Summary != "" {
			desc = strings.TrimSpace(desc + ": " + opt.Summary)
		}
		key := strings.ToLower(desc)
		if desc == "" || seen[key] {
			return nil, fmt.Errorf("adapter options are not pairwise distinct")
		}
		seen[key] = true

		variantID := "var-" + uuid.NewString()
		var body strings.Builder
		fmt.Fprintf(&body, "TITLE: %s\n\nINGREDIENTS:\n", opt.Title)
		for _, ing := range opt.Ingredients {
			fmt.Fprintf(&body, " - %s\n", ing)
		}
		body.WriteString("\nDIRECTIONS:\n")
		for i, step := range opt.Directions {
			fmt.Fprintf(&body, " %d. %s\n", i+1, step)
		}

		options = append(options, recipe.AdaptationOption{
			VariantID:   variantID,
			Description: desc,
			Candidate: recipe.Candidate{
				ID:     variantID,
				Title:  strings.TrimSpace(opt.Title),
				Body:   body.String(),
				Source: candidate.Source,
			},
		})
	}
	return options, nil
}
