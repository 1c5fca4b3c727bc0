package mcptools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/execcoach/coach/internal/model"
	"github.com/execcoach/coach/internal/service"
)

// ContextTool handles the coach_context MCP tool.
type ContextTool struct {
	users    UserLookup
	contexts *service.ContextBuilder
}

func NewContextTool(users UserLookup, contexts *service.ContextBuilder) *ContextTool {
	return &ContextTool{users: users, contexts: contexts}
}

func (t *ContextTool) Definition() mcp.Tool {
	return mcp.NewTool("coach_context",
		mcp.WithDescription(
			"Return, as JSON, the personalization context an agent variant would receive "+
				"for a founder: profile, streaks, ranked activities, goals and recent turns.",
		),
		mcp.WithString("user_id",
			mcp.Required(),
			mcp.Description(userIDDescription),
		),
		mcp.WithString("variant",
			mcp.Description("execution_coach (default), business_ideas or market_research"),
			mcp.Enum(string(model.VariantExecutionCoach), string(model.VariantBusinessIdeas), string(model.VariantMarketResearch)),
		),
		mcp.WithString("request",
			mcp.Description("Request text, e.g. the research topic or idea theme"),
		),
	)
}

func (t *ContextTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	variant := model.AgentVariant(req.GetString("variant", string(model.VariantExecutionCoach)))
	if !variant.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("unknown variant %q", variant)), nil
	}

	user, errResult := lookupUser(t.users, req)
	if errResult != nil {
		return errResult, nil
	}

	bundle := t.contexts.Build(ctx, user, variant, req.GetString("request", ""))

	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding context failed: %v", err)), nil
	}

	return mcp.NewToolResultText(string(data)), nil
}
