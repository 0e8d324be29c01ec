// Package render turns pipeline candidates into markdown and HTML for the
// CLI and the HTTP API.
package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/plateful/platefinder/internal/recipe"
)

var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
	),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
	goldmark.WithRendererOptions(
		html.WithHardWraps(),
	),
)

// Markdown renders a candidate as a markdown document. The body's section
// markers become headings; everything else passes through as-is.
func Markdown(c recipe.Candidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", c.Title)
	if c.Source == recipe.SourceWeb && c.URL != "" {
		fmt.Fprintf(&b, "Source: <%s>\n\n", c.URL)
	}

	for _, line := range strings.Split(c.Body, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "TITLE:"):
			// Already rendered as the heading.
		case trimmed == "INGREDIENTS:":
			b.WriteString("### Ingredients\n")
		case trimmed == "DIRECTIONS:":
			b.WriteString("### Directions\n")
		case strings.HasPrefix(trimmed, "- "):
			b.WriteString(trimmed + "\n")
		default:
			b.WriteString(line + "\n")
		}
	}
	return b.String()
}

// HTML renders a candidate through goldmark.
func HTML(c recipe.Candidate) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(Markdown(c)), &buf); err != nil {
		return "", fmt.Errorf("rendering %s: %w", c.ID, err)
	}
	return buf.String(), nil
}
