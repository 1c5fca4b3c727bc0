package mcptools

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/execcoach/coach/internal/service"
)

const instructions = `Execution Coach tools. Users are addressed by their external id ` +
	`("telegram:<chat id>" or "webhook:<id>"). Read progress with coach_progress and ` +
	`coach_goals, inspect what an agent would see with coach_context and record ` +
	`accomplishments with coach_log_win.`

// Services are the coach components the tools read and write through.
type Services struct {
	Users    *service.UserService
	Progress *service.ProgressService
	Goals    *service.GoalService
	Contexts *service.ContextBuilder
	Coach    Coach
}

// NewServer registers every coach tool on a new MCP server.
func NewServer(version string, s Services) *server.MCPServer {
	srv := server.NewMCPServer(
		"coach",
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	progressTool := NewProgressTool(s.Users, s.Progress)
	srv.AddTool(progressTool.Definition(), progressTool.Handle)

	goalsTool := NewGoalsTool(s.Users, s.Goals)
	srv.AddTool(goalsTool.Definition(), goalsTool.Handle)

	contextTool := NewContextTool(s.Users, s.Contexts)
	srv.AddTool(contextTool.Definition(), contextTool.Handle)

	winTool := NewLogWinTool(s.Coach)
	srv.AddTool(winTool.Definition(), winTool.Handle)

	return srv
}
