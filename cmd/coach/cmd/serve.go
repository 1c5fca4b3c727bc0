package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/execcoach/coach/internal/app"
	"github.com/execcoach/coach/internal/config"
	"github.com/execcoach/coach/internal/logger"
	"github.com/execcoach/coach/internal/routes"
)

const shutdownTimeout = 30 * time.Second

func ServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server, Telegram polling and the check-in scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	cfg := config.Load()

	logger.Init(cfg.IsDevelopment(), cfg.SentryDSN)
	defer logger.Flush()

	a, err := app.New(cfg)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		return err
	}
	defer func() {
		closeErr := a.Close()
		if closeErr != nil {
			slog.Error("failed to close app", "error", closeErr)
		}
	}()

	err = a.ConnectTransports()
	if err != nil {
		return fmt.Errorf("failed to connect transports: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           routes.SetupRoutes(a),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.AppEnv, "url", "http://localhost:"+cfg.Port)
		err := server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := server.Shutdown(shutdownCtx)
		// Queued events still get answered before the store closes.
		if closeErr := a.Dispatcher.Close(shutdownCtx); closeErr != nil {
			slog.Error("dispatcher did not drain", "error", closeErr)
		}
		return err
	})

	if a.Telegram != nil {
		g.Go(func() error {
			return a.Telegram.Poll(gctx, a.Dispatcher)
		})
	}

	if cfg.CheckinsEnabled() {
		g.Go(func() error {
			return a.Scheduler.Run(gctx)
		})
	} else {
		slog.Info("check-ins disabled")
	}

	err = g.Wait()
	if err != nil {
		slog.Error("server failed", "error", err)
	}
	return err
}
