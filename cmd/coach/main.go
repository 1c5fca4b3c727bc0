package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/execcoach/coach/cmd/coach/cmd"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "coach",
		Short:         "Execution coach chat bot",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(cmd.ServeCmd())
	rootCmd.AddCommand(cmd.MigrateCmd())
	rootCmd.AddCommand(cmd.CheckinCmd())
	rootCmd.AddCommand(cmd.MCPCmd())
	rootCmd.AddCommand(cmd.TokenCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
