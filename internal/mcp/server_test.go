package mcp

import (
	"strings"
	"testing"

	mcpgo "github.com/mark3labs/mcp-go/mcp"

	"github.com/plateful/platefinder/internal/compliance"
	"github.com/plateful/platefinder/internal/pipeline"
	"github.com/plateful/platefinder/internal/recipe"
)

func TestToolDefinitions(t *testing.T) {
	tests := []struct {
		name     string
		tool     mcpgo.Tool
		wantName string
	}{
		{"find_recipes", findRecipesTool, "find_recipes"},
		{"select_recipe", selectRecipeTool, "select_recipe"},
		{"adapt_recipe", adaptRecipeTool, "adapt_recipe"},
		{"reset_session", resetSessionTool, "reset_session"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.tool.Name != tt.wantName {
				t.Errorf("tool name = %q, want %q", tt.tool.Name, tt.wantName)
			}
			if tt.tool.Description == "" {
				t.Error("tool description should not be empty")
			}
		})
	}
}

func TestNewServer(t *testing.T) {
	srv := NewServer(nil)
	if srv == nil {
		t.Fatal("NewServer returned nil")
	}
	if srv.mcp == nil {
		t.Fatal("MCP server not initialized")
	}
}

func TestFormatSearchResult(t *testing.T) {
	res := &pipeline.SearchResult{
		Source: recipe.SourceWeb,
		Accepted: []recipe.Candidate{
			{ID: "web-1", Title: "Tomato Soup", Body: "TITLE: Tomato Soup\n\nINGREDIENTS:\n - tomatoes\n", Source: recipe.SourceWeb},
		},
	}
	out := formatSearchResult(res)
	if !strings.Contains(out, "web-1") || !strings.Contains(out, "Tomato Soup") {
		t.Fatalf("missing candidate details:\n%s", out)
	}
	if !strings.Contains(out, "from the web") {
		t.Fatalf("missing source attribution:\n%s", out)
	}
}

func TestFormatSearchResultEmpty(t *testing.T) {
	out := formatSearchResult(&pipeline.SearchResult{Exhausted: true})
	if !strings.Contains(out, "No matching recipes") {
		t.Fatalf("unexpected output: %s", out)
	}
	if !strings.Contains(out, "no unseen recipes") {
		t.Fatalf("exhaustion not surfaced: %s", out)
	}
}

func TestFormatAdaptResult(t *testing.T) {
	res := &pipeline.AdaptResult{
		Goal: "make it vegan",
		Options: []recipe.AdaptationOption{
			{VariantID: "var-1", Description: "swap: use tofu", Candidate: recipe.Candidate{ID: "var-1", Title: "Tofu Soup"}},
		},
		Checks: []compliance.Result{{Passed: false, Reason: "still contains cream"}},
	}
	out := formatAdaptResult(res)
	if !strings.Contains(out, "var-1") || !strings.Contains(out, "make it vegan") {
		t.Fatalf("missing option details:\n%s", out)
	}
	if !strings.Contains(out, "FAIL (still contains cream)") {
		t.Fatalf("failed check not surfaced:\n%s", out)
	}
}
