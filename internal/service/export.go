package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/execcoach/coach/internal/model"
	"github.com/execcoach/coach/internal/repository"
	"github.com/execcoach/coach/internal/storage"
)

var ErrExportsDisabled = errors.New("exports are not configured")

// Export is the full history of one user.
type Export struct {
	ExportedAt    time.Time                `json:"exported_at"`
	User          *model.User              `json:"user"`
	Activities    []model.Activity         `json:"activities"`
	Goals         []model.Goal             `json:"goals"`
	Metrics       []model.Metric           `json:"metrics"`
	Conversations []model.ConversationTurn `json:"conversation"`
}

type ExportService struct {
	activityRepo     repository.ActivityRepository
	goalRepo         repository.GoalRepository
	metricRepo       repository.MetricRepository
	conversationRepo repository.ConversationRepository
	store            storage.Storage
	clock            Clock
}

// NewExportService wires the export store; a nil store disables exports.
func NewExportService(
	activityRepo repository.ActivityRepository,
	goalRepo repository.GoalRepository,
	metricRepo repository.MetricRepository,
	conversationRepo repository.ConversationRepository,
	store storage.Storage,
	clock Clock,
) *ExportService {
	return &ExportService{
		activityRepo:     activityRepo,
		goalRepo:         goalRepo,
		metricRepo:       metricRepo,
		conversationRepo: conversationRepo,
		store:            store,
		clock:            clock,
	}
}

func (s *ExportService) Enabled() bool {
	return s != nil && s.store != nil
}

// Collect gathers the export payload without storing it.
func (s *ExportService) Collect(user *model.User) (*Export, error) {
	activities, err := s.activityRepo.All(user.ID)
	if err != nil {
		return nil, storeError("export activities", err)
	}

	goals, err := s.goalRepo.All(user.ID)
	if err != nil {
		return nil, storeError("export goals", err)
	}

	metrics, err := s.metricRepo.All(user.ID)
	if err != nil {
		return nil, storeError("export metrics", err)
	}

	turns, err := s.conversationRepo.All(user.ID)
	if err != nil {
		return nil, storeError("export conversation", err)
	}

	return &Export{
		ExportedAt:    s.clock.Now().UTC(),
		User:          user,
		Activities:    activities,
		Goals:         goals,
		Metrics:       metrics,
		Conversations: turns,
	}, nil
}

// Export stores the user's history as JSON and returns a temporary download link.
func (s *ExportService) Export(ctx context.Context, user *model.User) (string, error) {
	if !s.Enabled() {
		return "", ErrExportsDisabled
	}

	export, err := s.Collect(user)
	if err != nil {
		return "", err
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode export: %w", err)
	}

	key := fmt.Sprintf("exports/%s/%s.json", user.ID, export.ExportedAt.Format("20060102T150405Z"))

	err = s.store.Save(ctx, key, "application/json", data)
	if err != nil {
		return "", fmt.Errorf("failed to store export: %w", err)
	}

	link, err := s.store.Link(ctx, key)
	if err != nil {
		return "", fmt.Errorf("failed to link export: %w", err)
	}

	slog.InfoContext(ctx, "progress exported", "user_id", user.ID, "key", key, "bytes", len(data))
	return link, nil
}
