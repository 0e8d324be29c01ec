package mcp

import "github.com/mark3labs/mcp-go/mcp"

// findRecipesTool defines the find_recipes MCP tool.
var findRecipesTool = mcp.NewTool("find_recipes",
	mcp.WithDescription("Search for recipes matching a natural language request. Searches the local index first and falls back to the web when nothing acceptable is found."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language recipe request, e.g. 'a hearty vegetarian soup without mushrooms'"),
	),
	mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("Session identifier. Reuse across calls to accumulate history and avoid repeats."),
	),
	mcp.WithBoolean("force_web",
		mcp.Description("Skip the local index and search the web directly"),
	),
)

// selectRecipeTool defines the select_recipe MCP tool.
var selectRecipeTool = mcp.NewTool("select_recipe",
	mcp.WithDescription("Mark one result from a previous search or adaptation as the working recipe. Its title will be excluded from later searches in this session."),
	mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("Session identifier"),
	),
	mcp.WithString("candidate_id",
		mcp.Required(),
		mcp.Description("ID of the recipe or variant to select"),
	),
)

// adaptRecipeTool defines the adapt_recipe MCP tool.
var adaptRecipeTool = mcp.NewTool("adapt_recipe",
	mcp.WithDescription("Propose three adaptations of the currently selected recipe toward a goal, each checked for compliance with the goal."),
	mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("Session identifier"),
	),
	mcp.WithString("goal",
		mcp.Required(),
		mcp.Description("Adaptation goal, e.g. 'make it dairy-free'"),
	),
)

// resetSessionTool defines the reset_session MCP tool.
var resetSessionTool = mcp.NewTool("reset_session",
	mcp.WithDescription("Clear a session's history, exclusions and selection."),
	mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("Session identifier"),
	),
)
