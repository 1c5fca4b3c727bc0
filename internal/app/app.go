package app

import (
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	standardwebhooks "github.com/standard-webhooks/standard-webhooks/libraries/go"

	"github.com/execcoach/coach/internal/config"
	"github.com/execcoach/coach/internal/db"
	"github.com/execcoach/coach/internal/repository"
	"github.com/execcoach/coach/internal/service"
	"github.com/execcoach/coach/internal/service/generation"
	"github.com/execcoach/coach/internal/storage"
	"github.com/execcoach/coach/internal/transport"
)

type App struct {
	Cfg   *config.Config
	DB    *sqlx.DB
	Clock service.Clock

	UserRepository    repository.UserRepository
	CheckinRepository repository.CheckinRepository

	UserService     *service.UserService
	GoalService     *service.GoalService
	MetricService   *service.MetricService
	ProgressService *service.ProgressService
	ContextBuilder  *service.ContextBuilder
	ExportService   *service.ExportService
	AuthService     *service.AuthService
	CoachService    *service.CoachService

	Dispatcher *transport.Dispatcher
	Verifier   *standardwebhooks.Webhook

	// Set by ConnectTransports
	Senders   *transport.Router
	Telegram  *transport.Telegram
	Scheduler *service.CheckinScheduler
}

func New(cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run database migrations
	err = db.RunMigrations(database.DB, cfg.DBDriver)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	clock := service.SystemClock{}

	// Repositories
	userRepository := repository.NewUserRepository(database)
	activityRepository := repository.NewActivityRepository(database)
	goalRepository := repository.NewGoalRepository(database)
	metricRepository := repository.NewMetricRepository(database)
	conversationRepository := repository.NewConversationRepository(database)
	checkinRepository := repository.NewCheckinRepository(database)

	// Export storage (optional)
	var exportStore storage.Storage
	if cfg.ExportsEnabled() {
		s3, err := storage.New(cfg)
		if err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		exportStore = s3
	} else {
		slog.Info("exports disabled, no S3 bucket configured")
	}

	// Text generation
	prompts, err := generation.LoadPrompts()
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to load prompts: %w", err)
	}
	responder := generation.NewResponder(generation.NewProvider(cfg), prompts, cfg.GenerationTimeout)

	// Services
	userService := service.NewUserService(userRepository, clock)
	ledgerService := service.NewLedgerService(userRepository, activityRepository, clock)
	phaseService := service.NewPhaseService(userRepository, clock)
	goalService := service.NewGoalService(goalRepository, clock)
	metricService := service.NewMetricService(metricRepository, clock)
	progressService := service.NewProgressService(activityRepository, goalService, metricService, clock)
	contextBuilder := service.NewContextBuilder(activityRepository, goalRepository, conversationRepository, clock)
	exportService := service.NewExportService(activityRepository, goalRepository, metricRepository, conversationRepository, exportStore, clock)
	authService := service.NewAuthService(cfg.AdminJWTSecret, cfg.AdminJWTExpiry, clock)

	coachService := service.NewCoachService(service.CoachDeps{
		Users:            userService,
		Ledger:           ledgerService,
		Phases:           phaseService,
		Goals:            goalService,
		Metrics:          metricService,
		Progress:         progressService,
		Contexts:         contextBuilder,
		Exports:          exportService,
		ConversationRepo: conversationRepository,
		Responder:        responder,
		Locks:            service.NewUserLocks(),
		Clock:            clock,
	})

	var verifier *standardwebhooks.Webhook
	if cfg.WebhookSecret != "" {
		verifier, err = transport.NewVerifier(cfg.WebhookSecret)
		if err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("invalid WEBHOOK_SECRET: %w", err)
		}
	}

	return &App{
		Cfg:               cfg,
		DB:                database,
		Clock:             clock,
		UserRepository:    userRepository,
		CheckinRepository: checkinRepository,
		UserService:       userService,
		GoalService:       goalService,
		MetricService:     metricService,
		ProgressService:   progressService,
		ContextBuilder:    contextBuilder,
		ExportService:     exportService,
		AuthService:       authService,
		CoachService:      coachService,
		Dispatcher:        transport.NewDispatcher(coachService.Handle),
		Verifier:          verifier,
	}, nil
}

// ConnectTransports connects the configured messaging channels and builds the
// check-in scheduler that delivers through them.
func (a *App) ConnectTransports() error {
	senders := transport.NewRouter()

	if a.Cfg.TelegramToken != "" {
		telegram, err := transport.NewTelegram(a.Cfg.TelegramToken)
		if err != nil {
			return err
		}

		commands := make([]transport.BotCommand, 0, len(service.Commands))
		for _, c := range service.Commands {
			commands = append(commands, transport.BotCommand{Name: c.Name, Description: c.Description})
		}
		if err := telegram.SetCommands(commands); err != nil {
			slog.Warn("failed to publish telegram commands", "error", err)
		}

		senders.Register(transport.ChannelTelegram, telegram)
		a.Telegram = telegram
	}

	if a.Cfg.WebhookOutboundURL != "" && a.Cfg.WebhookSecret != "" {
		webhook, err := transport.NewWebhookSender(a.Cfg.WebhookOutboundURL, a.Cfg.WebhookSecret)
		if err != nil {
			return err
		}
		senders.Register(transport.ChannelWebhook, webhook)
	}

	a.Senders = senders
	a.Scheduler = service.NewCheckinScheduler(
		a.UserRepository,
		a.CheckinRepository,
		a.CoachService,
		senders,
		a.Clock,
		service.SchedulerConfig{
			ScanEvery:      a.Cfg.CheckinScanEvery,
			DailyInterval:  a.Cfg.CheckinDailyInterval,
			WeeklyInterval: a.Cfg.CheckinWeeklyInterval,
			WeeklyDay:      a.Cfg.CheckinWeeklyDay,
			WeeklyHour:     a.Cfg.CheckinWeeklyHour,
			ActiveWindow:   a.Cfg.CheckinActiveWindow,
			Concurrency:    a.Cfg.CheckinConcurrency,
		},
	)

	return nil
}

func (a *App) Close() error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
