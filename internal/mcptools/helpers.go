// Package mcptools exposes the coach to MCP clients: progress and goals to
// read, wins to log and the context bundle an agent would receive.
//
// Each tool is a struct with its dependencies injected via constructor,
// Definition() returning the mcp.Tool schema and Handle() serving the call.
package mcptools

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/execcoach/coach/internal/model"
	"github.com/execcoach/coach/internal/repository"
	"github.com/execcoach/coach/internal/service"
)

const userIDDescription = "External user id, e.g. telegram:123456 or webhook:alice"

// UserLookup resolves external ids to stored users.
type UserLookup interface {
	ByExternalID(externalID string) (*model.User, error)
}

// lookupUser loads the user named by the user_id argument. The second
// return value is a tool error to hand back when the user can't be loaded.
func lookupUser(users UserLookup, req mcp.CallToolRequest) (*model.User, *mcp.CallToolResult) {
	externalID := strings.TrimSpace(req.GetString("user_id", ""))
	if externalID == "" {
		return nil, mcp.NewToolResultError("'user_id' is required")
	}

	user, err := users.ByExternalID(externalID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, mcp.NewToolResultError(fmt.Sprintf("no user %q; they appear after their first message", externalID))
	}
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("loading user failed: %v", err))
	}
	return user, nil
}

var _ UserLookup = (*service.UserService)(nil)
