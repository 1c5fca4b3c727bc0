package cmd

import (
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/execcoach/coach/internal/app"
	"github.com/execcoach/coach/internal/config"
	"github.com/execcoach/coach/internal/logger"
	"github.com/execcoach/coach/internal/mcptools"
)

// Version is stamped at build time with -ldflags.
var Version = "dev"

func MCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the coach tools to MCP clients over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()

			// stdout carries the protocol stream
			logger.InitStderr(slog.LevelInfo)

			a, err := app.New(cfg)
			if err != nil {
				return fmt.Errorf("creating app: %w", err)
			}
			defer a.Close()

			s := mcptools.NewServer(Version, mcptools.Services{
				Users:    a.UserService,
				Progress: a.ProgressService,
				Goals:    a.GoalService,
				Contexts: a.ContextBuilder,
				Coach:    a.CoachService,
			})

			return server.ServeStdio(s)
		},
	}
}
