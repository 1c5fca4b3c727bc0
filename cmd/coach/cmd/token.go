package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/execcoach/coach/internal/config"
	"github.com/execcoach/coach/internal/service"
)

func TokenCmd() *cobra.Command {
	var ttl time.Duration

	tokenCmd := &cobra.Command{
		Use:   "token <subject>",
		Short: "Mint an admin API bearer token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()

			auth := service.NewAuthService(cfg.AdminJWTSecret, cfg.AdminJWTExpiry, service.SystemClock{})
			token, err := auth.GenerateJWT(args[0], ttl)
			if err != nil {
				return fmt.Errorf("failed to mint token (is ADMIN_JWT_SECRET set?): %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	tokenCmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default ADMIN_JWT_EXPIRY)")
	return tokenCmd
}
