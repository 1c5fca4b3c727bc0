package mcptools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/execcoach/coach/internal/service"
)

// ProgressTool handles the coach_progress MCP tool.
type ProgressTool struct {
	users    UserLookup
	progress *service.ProgressService
}

func NewProgressTool(users UserLookup, progress *service.ProgressService) *ProgressTool {
	return &ProgressTool{users: users, progress: progress}
}

func (t *ProgressTool) Definition() mcp.Tool {
	return mcp.NewTool("coach_progress",
		mcp.WithDescription(
			"Show a founder's execution progress: streaks, phase, recent activities, "+
				"open goals and tracked metrics.",
		),
		mcp.WithString("user_id",
			mcp.Required(),
			mcp.Description(userIDDescription),
		),
	)
}

func (t *ProgressTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	user, errResult := lookupUser(t.users, req)
	if errResult != nil {
		return errResult, nil
	}

	progress, err := t.progress.Summary(user)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("progress unavailable: %v", err)), nil
	}

	return mcp.NewToolResultText(service.FormatProgress(progress, user.Location())), nil
}
