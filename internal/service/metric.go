package service

import (
	"strconv"
	"strings"

	"github.com/execcoach/coach/internal/model"
	"github.com/execcoach/coach/internal/repository"
	"github.com/execcoach/coach/internal/validation"
)

type MetricService struct {
	metricRepo repository.MetricRepository
	clock      Clock
}

func NewMetricService(metricRepo repository.MetricRepository, clock Clock) *MetricService {
	return &MetricService{
		metricRepo: metricRepo,
		clock:      clock,
	}
}

// ParseMetricArgs parses "<name> <value>".
func ParseMetricArgs(args string) (name string, value float64, err error) {
	fields := strings.Fields(args)
	if len(fields) != 2 {
		return "", 0, invalidArgument("Usage: /metric <name> <value>, for example /metric customers 12")
	}

	name = strings.ToLower(fields[0])
	if err := validation.ValidateMetricName(name); err != nil {
		return "", 0, invalidArgument("%s", err)
	}

	value, err = strconv.ParseFloat(strings.ReplaceAll(fields[1], ",", ""), 64)
	if err != nil {
		return "", 0, invalidArgument("%q is not a number", fields[1])
	}

	return name, value, nil
}

// Record stores a sample and returns the updated trend for that metric.
func (s *MetricService) Record(user *model.User, name string, value float64) (*model.MetricTrend, error) {
	metric := &model.Metric{
		ID:         repository.NewID(),
		UserID:     user.ID,
		Name:       name,
		Value:      value,
		RecordedAt: s.clock.Now().UTC(),
	}

	err := s.metricRepo.Record(metric)
	if err != nil {
		return nil, storeError("record metric", err)
	}

	trends, err := s.Trends(user)
	if err != nil {
		return nil, err
	}
	for i := range trends {
		if trends[i].Name == name {
			return &trends[i], nil
		}
	}

	return &model.MetricTrend{Name: name, Latest: value, At: metric.RecordedAt}, nil
}

func (s *MetricService) Trends(user *model.User) ([]model.MetricTrend, error) {
	trends, err := s.metricRepo.Trends(user.ID)
	if err != nil {
		return nil, storeError("metric trends", err)
	}
	return trends, nil
}
