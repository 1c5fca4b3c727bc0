package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/execcoach/coach/internal/app"
	"github.com/execcoach/coach/internal/config"
	"github.com/execcoach/coach/internal/logger"
)

func CheckinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "checkin",
		Short: "Run one check-in scan and exit (for cron)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Load()

			logger.Init(cfg.IsDevelopment(), cfg.SentryDSN)
			defer logger.Flush()

			a, err := app.New(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			err = a.ConnectTransports()
			if err != nil {
				return fmt.Errorf("failed to connect transports: %w", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sent, err := a.Scheduler.RunOnce(ctx, a.Clock.Now())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "sent %d check-ins\n", sent)
			return nil
		},
	}
}
