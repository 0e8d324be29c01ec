package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/plateful/platefinder/internal/pipeline"
	"github.com/plateful/platefinder/internal/recipe"
	"github.com/plateful/platefinder/internal/render"
)

// handleFindRecipes runs one full search turn.
func (s *Server) handleFindRecipes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: session_id"), nil
	}

	res, err := s.orch.Search(ctx, pipeline.Request{
		SessionID: sessionID,
		Text:      query,
		ForceWeb:  request.GetBool("force_web", false),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	return mcp.NewToolResultText(formatSearchResult(res)), nil
}

// handleSelectRecipe commits a candidate as the session's working recipe.
func (s *Server) handleSelectRecipe(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: session_id"), nil
	}
	candidateID, err := request.RequireString("candidate_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: candidate_id"), nil
	}

	state, err := s.orch.Select(ctx, sessionID, candidateID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("select failed: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Selected %q as the working recipe.\n\n%s",
		state.CurrentSelection.Title,
		render.Markdown(*state.CurrentSelection),
	)), nil
}

// handleAdaptRecipe proposes variants of the selected recipe.
func (s *Server) handleAdaptRecipe(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: session_id"), nil
	}
	goal, err := request.RequireString("goal")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: goal"), nil
	}

	res, err := s.orch.Adapt(ctx, sessionID, goal, nil)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("adapt failed: %v", err)), nil
	}

	return mcp.NewToolResultText(formatAdaptResult(res)), nil
}

// handleResetSession clears the session.
func (s *Server) handleResetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: session_id"), nil
	}

	if _, err := s.orch.Reset(ctx, sessionID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("reset failed: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Session %q cleared.", sessionID)), nil
}

// formatSearchResult converts a search outcome into text an agent can relay.
func formatSearchResult(res *pipeline.SearchResult) string {
	var sb strings.Builder

	if len(res.Accepted) == 0 {
		sb.WriteString("No matching recipes found, even after the fallback search.")
		if res.Exhausted {
			sb.WriteString(" The local collection has no unseen recipes for this query.")
		}
		return sb.String()
	}

	source := "the local collection"
	if res.Source == recipe.SourceWeb {
		source = "the web"
	}
	fmt.Fprintf(&sb, "Found %d recipe(s) from %s:\n", len(res.Accepted), source)

	for i, c := range res.Accepted {
		fmt.Fprintf(&sb, "\n--- Result %d (id=%s) ---\n", i+1, c.ID)
		sb.WriteString(render.Markdown(c))
	}
	sb.WriteString("\nUse select_recipe with an id above to pick one.")
	return sb.String()
}

// formatAdaptResult lists the proposed variants and their compliance checks.
func formatAdaptResult(res *pipeline.AdaptResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Proposed %d adaptation(s) for goal %q:\n", len(res.Options), res.Goal)

	for i, opt := range res.Options {
		fmt.Fprintf(&sb, "\n--- Option %d (id=%s) ---\n", i+1, opt.VariantID)
		fmt.Fprintf(&sb, "Approach: %s\n\n", opt.Description)
		sb.WriteString(render.Markdown(opt.Candidate))
		check := res.Checks[i]
		if check.Passed {
			sb.WriteString("\nCompliance check: PASS\n")
		} else {
			fmt.Fprintf(&sb, "\nCompliance check: FAIL (%s)\n", check.Reason)
		}
	}
	sb.WriteString("\nUse select_recipe with an option id to commit one.")
	return sb.String()
}
