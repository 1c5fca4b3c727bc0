package routes

import (
	"net/http"
	"time"

	"github.com/execcoach/coach/internal/app"
	"github.com/execcoach/coach/internal/handler"
	"github.com/execcoach/coach/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	health := handler.NewHealthHandler(app.DB)
	admin := handler.NewAdminHandler(app.UserService, app.ProgressService, app.ContextBuilder)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux.HandleFunc("GET /healthz", health.Health)

	// ============================================================================
	// WEBHOOK TRANSPORT
	// ============================================================================

	// Signed inbound events; only served when WEBHOOK_SECRET is set.
	// 60 events per minute per end user; the per-IP limit only stops floods
	// since one integrator host relays all of its users.
	if app.Verifier != nil {
		userLimiter := middleware.NewRateLimiter(60, time.Minute)
		events := handler.NewEventsHandler(app.Verifier, app.Dispatcher, userLimiter, app.Cfg.GenerationTimeout+30*time.Second)
		hostLimiter := middleware.RateLimit(1200, time.Minute)
		mux.HandleFunc("POST /events", hostLimiter(events.Receive))
	}

	// ============================================================================
	// ADMIN API (bearer JWT)
	// ============================================================================

	if app.AuthService.Enabled() {
		requireAdmin := middleware.RequireAdmin(app.AuthService)
		adminLimiter := middleware.RateLimit(30, time.Minute)

		mux.HandleFunc("GET /admin/users/{externalID}/progress", adminLimiter(requireAdmin(admin.Progress)))
		mux.HandleFunc("GET /admin/users/{externalID}/context", adminLimiter(requireAdmin(admin.Context)))
	}

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		middleware.WithRequestID, // Request id first so every later log line carries it
		middleware.Config(app.Cfg),
		middleware.SecurityHeaders,
		middleware.RequestLogging,
	)

	return handler
}
