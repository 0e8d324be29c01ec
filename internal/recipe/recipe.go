// Package recipe defines the domain types shared across the retrieval
// pipeline: candidates, extracted intent, judge verdicts, and adaptation
// options.
package recipe

import "strings"

// Source identifies where a candidate came from.
type Source string

const (
	SourceLocal Source = "local"
	SourceWeb   Source = "web"
)

// Candidate is a single recipe under consideration by the pipeline. Local
// candidates carry the corpus document ID; web candidates are minted an ID
// when normalized, and deduplicate by title.
type Candidate struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Body        string  `json:"body"`
	Source      Source  `json:"source"`
	Score       float32 `json:"score,omitempty"`
	URL         string  `json:"url,omitempty"`
	MatchReason string  `json:"match_reason,omitempty"`
}

// IntentSpec is the structured reading of a free-text request, produced once
// per pipeline run and consumed by the judge and validator.
type IntentSpec struct {
	OptimizedQuery  string   `json:"optimized_query"`
	Requirements    []string `json:"requirements"`
	Restrictions    []string `json:"restrictions"`
	EvaluationFocus []string `json:"evaluation_focus"`
}

// Verdict is the judge's decision for one candidate.
type Verdict struct {
	CandidateID string `json:"candidate_id"`
	Accepted    bool   `json:"accepted"`
	Reason      string `json:"reason"`
}

// AdaptationOption is one of the fixed three variants proposed for a
// selected recipe.
type AdaptationOption struct {
	VariantID   string    `json:"variant_id"`
	Description string    `json:"description"`
	Candidate   Candidate `json:"candidate"`
}

// NormalizeTitle produces the deduplication key for a candidate title.
func NormalizeTitle(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), " ")
}

// Accepted filters verdicts down to the accepted candidates, preserving the
// candidate input order. Candidates without a verdict are dropped.
func Accepted(candidates []Candidate, verdicts []Verdict) []Candidate {
	byID := make(map[string]Verdict, len(verdicts))
	for _, v := range verdicts {
		byID[v.CandidateID] = v
	}

	var out []Candidate
	for _, c := range candidates {
		v, ok := byID[c.ID]
		if !ok || !v.Accepted {
			continue
		}
		c.MatchReason = v.Reason
		out = append(out, c)
	}
	return out
}
