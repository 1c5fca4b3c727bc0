package model

import "time"

// Metric is one snapshot sample of a user-tracked number (customers contacted, revenue...).
type Metric struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	Name       string    `db:"name" json:"name"`
	Value      float64   `db:"value" json:"value"`
	RecordedAt time.Time `db:"recorded_at" json:"recorded_at"`
}

// MetricTrend pairs the latest sample of a metric with the one before it.
type MetricTrend struct {
	Name     string    `json:"name"`
	Latest   float64   `json:"latest"`
	Previous *float64  `json:"previous,omitempty"`
	At       time.Time `json:"at"`
}

func (t MetricTrend) Delta() float64 {
	if t.Previous == nil {
		return 0
	}
	return t.Latest - *t.Previous
}
