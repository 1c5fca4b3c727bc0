package repository

import (
	"github.com/jmoiron/sqlx"

	"github.com/execcoach/coach/internal/model"
)

// ActivityRepository reads the ledger. Writes go through UserRepository.ApplyActivity
// so that the append and the progress update commit together.
type ActivityRepository interface {
	Recent(userID string, limit int) ([]model.Activity, error)
	All(userID string) ([]model.Activity, error)
}

type activityRepository struct {
	db *sqlx.DB
}

func NewActivityRepository(db *sqlx.DB) ActivityRepository {
	return &activityRepository{db: db}
}

// Recent returns the newest activities first.
func (r *activityRepository) Recent(userID string, limit int) ([]model.Activity, error) {
	activities := []model.Activity{}
	if limit <= 0 {
		return activities, nil
	}

	query := `SELECT * FROM activities WHERE user_id = $1 ORDER BY occurred_at DESC, id DESC LIMIT $2`

	err := r.db.Select(&activities, query, userID, limit)
	if err != nil {
		return nil, err
	}

	return activities, nil
}

func (r *activityRepository) All(userID string) ([]model.Activity, error) {
	activities := []model.Activity{}
	query := `SELECT * FROM activities WHERE user_id = $1 ORDER BY occurred_at ASC, id ASC`

	err := r.db.Select(&activities, query, userID)
	if err != nil {
		return nil, err
	}

	return activities, nil
}
