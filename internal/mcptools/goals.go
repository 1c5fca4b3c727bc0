package mcptools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/execcoach/coach/internal/service"
)

// GoalsTool handles the coach_goals MCP tool.
type GoalsTool struct {
	users UserLookup
	goals *service.GoalService
}

func NewGoalsTool(users UserLookup, goals *service.GoalService) *GoalsTool {
	return &GoalsTool{users: users, goals: goals}
}

func (t *GoalsTool) Definition() mcp.Tool {
	return mcp.NewTool("coach_goals",
		mcp.WithDescription("List a founder's open goals, oldest first, with overdue marks."),
		mcp.WithString("user_id",
			mcp.Required(),
			mcp.Description(userIDDescription),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max goals (default: all)"),
		),
	)
}

func (t *GoalsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user, errResult := lookupUser(t.users, req)
	if errResult != nil {
		return errResult, nil
	}

	limit := req.GetInt("limit", 0)
	if limit < 0 {
		limit = 0
	}

	goals, err := t.goals.ListOpen(user, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("goals unavailable: %v", err)), nil
	}

	return mcp.NewToolResultText(service.FormatGoals(goals)), nil
}
