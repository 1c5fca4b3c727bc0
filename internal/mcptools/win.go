package mcptools

import (
	"context"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/execcoach/coach/internal/model"
	"github.com/execcoach/coach/internal/service"
)

// Coach answers inbound events.
type Coach interface {
	Handle(ctx context.Context, ev model.InboundEvent) model.OutboundReply
}

// LogWinTool handles the coach_log_win MCP tool. The win goes through the
// same pipeline as a /win message, so streaks and turns stay consistent.
type LogWinTool struct {
	coach Coach
	now   func() time.Time
}

func NewLogWinTool(coach Coach) *LogWinTool {
	return &LogWinTool{coach: coach, now: time.Now}
}

func (t *LogWinTool) Definition() mcp.Tool {
	return mcp.NewTool("coach_log_win",
		mcp.WithDescription(
			"Log a win for a founder. Counts toward their streak and returns the coach's reply.",
		),
		mcp.WithString("user_id",
			mcp.Required(),
			mcp.Description(userIDDescription),
		),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("What was accomplished"),
		),
	)
}

func (t *LogWinTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID := strings.TrimSpace(req.GetString("user_id", ""))
	if userID == "" {
		return mcp.NewToolResultError("'user_id' is required"), nil
	}
	text := strings.TrimSpace(req.GetString("text", ""))
	if text == "" {
		return mcp.NewToolResultError("'text' is required"), nil
	}

	reply := t.coach.Handle(ctx, model.InboundEvent{
		UserID:       userID,
		Text:         service.CommandWin + " " + text,
		CommandToken: service.CommandWin,
		Timestamp:    t.now(),
	})

	return mcp.NewToolResultText(reply.Text), nil
}
