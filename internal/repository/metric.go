package repository

import (
	"github.com/jmoiron/sqlx"

	"github.com/execcoach/coach/internal/model"
)

type MetricRepository interface {
	Record(metric *model.Metric) error
	// Trends returns the latest and previous sample per metric name, sorted by name.
	Trends(userID string) ([]model.MetricTrend, error)
	All(userID string) ([]model.Metric, error)
}

type metricRepository struct {
	db *sqlx.DB
}

func NewMetricRepository(db *sqlx.DB) MetricRepository {
	return &metricRepository{db: db}
}

func (r *metricRepository) Record(metric *model.Metric) error {
	query := `INSERT INTO metrics (id, user_id, name, value, recorded_at) VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(query, metric.ID, metric.UserID, metric.Name, metric.Value, metric.RecordedAt.UTC())
	return err
}

func (r *metricRepository) Trends(userID string) ([]model.MetricTrend, error) {
	var samples []model.Metric
	query := `SELECT * FROM metrics WHERE user_id = $1 ORDER BY name ASC, recorded_at DESC, id DESC`

	err := r.db.Select(&samples, query, userID)
	if err != nil {
		return nil, err
	}

	trends := []model.MetricTrend{}
	for i, s := range samples {
		if i > 0 && samples[i-1].Name == s.Name {
			last := &trends[len(trends)-1]
			if last.Previous == nil {
				value := s.Value
				last.Previous = &value
			}
			continue
		}
		trends = append(trends, model.MetricTrend{Name: s.Name, Latest: s.Value, At: s.RecordedAt})
	}

	return trends, nil
}

func (r *metricRepository) All(userID string) ([]model.Metric, error) {
	metrics := []model.Metric{}
	query := `SELECT * FROM metrics WHERE user_id = $1 ORDER BY recorded_at ASC, id ASC`

	err := r.db.Select(&metrics, query, userID)
	if err != nil {
		return nil, err
	}

	return metrics, nil
}
