package judge

import (
	"strings"

	"github.com/plateful/platefinder/internal/recipe"
)

// excerptFallbackLimit bounds the excerpt when the focus names no known
// section, keeping the batched judge call inside context limits.
const excerptFallbackLimit = 800

var ingredientKeywords = []string{
	"ingredient", "protein", "carb", "calorie", "fat", "fiber", "sugar",
	"dairy", "gluten", "nut", "vegan", "vegetarian", "meat", "fish",
	"chicken", "beef", "tofu", "legume", "allergen", "spice",
}

var directionKeywords = []string{
	"direction", "instruction", "method", "step", "cook", "bake",
	"grill", "roast", "fry", "prep",
}

var timeKeywords = []string{"time", "minute", "hour", "quick", "slow"}

var sectionHeaders = []string{"ingredients", "directions", "instructions", "method", "steps", "prep", "cook", "time"}

// buildExcerpt assembles the bounded candidate text the judge sees: the
// title plus only the sections the evaluation focus makes relevant.
func buildExcerpt(c recipe.Candidate, spec *recipe.IntentSpec) string {
	focus := strings.ToLower(strings.Join(spec.EvaluationFocus, " ") + " " +
		strings.Join(spec.Requirements, " ") + " " +
		strings.Join(spec.Restrictions, " "))

	parts := []string{"Title: " + c.Title}

	if containsAny(focus, ingredientKeywords) {
		parts = append(parts, "Ingredients:\n"+orUnspecified(extractSection(c.Body, "ingredients")))
	}
	if containsAny(focus, timeKeywords) {
		parts = append(parts, "Time:\n"+orUnspecified(extractTimeLines(c.Body)))
	}
	if containsAny(focus, directionKeywords) {
		directions := extractSection(c.Body, "directions")
		if directions == "" {
			for _, alt := range []string{"instructions", "method", "steps"} {
				if directions = extractSection(c.Body, alt); directions != "" {
					break
				}
			}
		}
		parts = append(parts, "Directions:\n"+orUnspecified(directions))
	}

	if len(parts) == 1 {
		body := c.Body
		if len(body) > excerptFallbackLimit {
			body = body[:excerptFallbackLimit]
		}
		parts = append(parts, body)
	}
	return strings.Join(parts, "\n\n")
}

// extractSection returns the text from a header up to the next section
// header, or "" when the header is absent.
func extractSection(body, header string) string {
	lower := strings.ToLower(body)
	idx := strings.Index(lower, header)
	if idx == -1 {
		return ""
	}
	remaining := body[idx:]
	remLower := lower[idx:]
	end := len(remaining)
	for _, next := range sectionHeaders {
		if next == header {
			continue
		}
		if i := strings.Index(remLower[len(header):], next); i != -1 && i+len(header) < end {
			end = i + len(header)
		}
	}
	return strings.TrimSpace(remaining[:end])
}

// extractTimeLines pulls up to five lines that mention timing.
func extractTimeLines(body string) string {
	var lines []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		if strings.Contains(lower, "time") || strings.Contains(lower, "min") || strings.Contains(lower, "hour") {
			lines = append(lines, line)
			if len(lines) == 5 {
				break
			}
		}
	}
	return strings.Join(lines, "\n")
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func orUnspecified(s string) string {
	if s == "" {
		return "Not specified"
	}
	return s
}
