package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/execcoach/coach/internal/ctxkeys"
	"github.com/execcoach/coach/internal/model"
	"github.com/execcoach/coach/internal/repository"
	"github.com/execcoach/coach/internal/service"
)

// AdminHandler serves read-only views of a user for operators.
type AdminHandler struct {
	userService     *service.UserService
	progressService *service.ProgressService
	contextBuilder  *service.ContextBuilder
}

func NewAdminHandler(userService *service.UserService, progressService *service.ProgressService, contextBuilder *service.ContextBuilder) *AdminHandler {
	return &AdminHandler{
		userService:     userService,
		progressService: progressService,
		contextBuilder:  contextBuilder,
	}
}

func (h *AdminHandler) Progress(w http.ResponseWriter, r *http.Request) {
	user, ok := h.user(w, r)
	if !ok {
		return
	}

	progress, err := h.progressService.Summary(user)
	if err != nil {
		slog.Error("failed to build progress", "user_id", user.ID, "error", err)
		writeError(w, http.StatusServiceUnavailable, "progress unavailable")
		return
	}

	writeJSON(w, http.StatusOK, progress)
}

// Context returns the bundle the given variant would receive for the user.
func (h *AdminHandler) Context(w http.ResponseWriter, r *http.Request) {
	variant := model.AgentVariant(r.URL.Query().Get("variant"))
	if variant == "" {
		variant = model.VariantExecutionCoach
	}
	if !variant.Valid() {
		writeError(w, http.StatusBadRequest, "unknown variant")
		return
	}

	user, ok := h.user(w, r)
	if !ok {
		return
	}

	bundle := h.contextBuilder.Build(r.Context(), user, variant, r.URL.Query().Get("request"))
	writeJSON(w, http.StatusOK, bundle)
}

func (h *AdminHandler) user(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	externalID := r.PathValue("externalID")

	user, err := h.userService.ByExternalID(externalID)
	if errors.Is(err, repository.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, "user not found")
		return nil, false
	}
	if err != nil {
		slog.Error("failed to load user", "external_id", externalID, "error", err)
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
		return nil, false
	}

	slog.Debug("admin read", "admin", ctxkeys.Admin(r.Context()), "external_id", externalID, "path", r.URL.Path)
	return user, true
}
