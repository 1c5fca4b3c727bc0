package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/execcoach/coach/internal/model"
)

var (
	ErrGoalNotFound = errors.New("goal not found")
	ErrGoalNotOpen  = errors.New("goal is not open")
)

type GoalRepository interface {
	Create(goal *model.Goal) error
	ByID(userID, goalID string) (*model.Goal, error)
	Open(userID string, limit int) ([]model.Goal, error)
	All(userID string) ([]model.Goal, error)
	Close(userID, goalID string, status model.GoalStatus, at time.Time) error
}

type goalRepository struct {
	db *sqlx.DB
}

func NewGoalRepository(db *sqlx.DB) GoalRepository {
	return &goalRepository{db: db}
}

func (r *goalRepository) Create(goal *model.Goal) error {
	query := `INSERT INTO goals (id, user_id, description, deadline, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(query,
		goal.ID,
		goal.UserID,
		goal.Description,
		goal.Deadline.UTC(),
		goal.Status,
		goal.CreatedAt.UTC(),
		goal.UpdatedAt.UTC(),
	)

	return err
}

func (r *goalRepository) ByID(userID, goalID string) (*model.Goal, error) {
	goal := &model.Goal{}
	query := `SELECT * FROM goals WHERE id = $1 AND user_id = $2`

	err := r.db.Get(goal, query, goalID, userID)
	if err == sql.ErrNoRows {
		return nil, ErrGoalNotFound
	}
	if err != nil {
		return nil, err
	}

	return goal, nil
}

// Open returns open goals in insertion order. A limit <= 0 returns all of them.
func (r *goalRepository) Open(userID string, limit int) ([]model.Goal, error) {
	goals := []model.Goal{}
	query := `SELECT * FROM goals WHERE user_id = $1 AND status = $2 ORDER BY created_at ASC, id ASC`
	args := []any{userID, model.GoalStatusOpen}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}

	err := r.db.Select(&goals, query, args...)
	if err != nil {
		return nil, err
	}

	return goals, nil
}

func (r *goalRepository) All(userID string) ([]model.Goal, error) {
	goals := []model.Goal{}
	query := `SELECT * FROM goals WHERE user_id = $1 ORDER BY created_at ASC, id ASC`

	err := r.db.Select(&goals, query, userID)
	if err != nil {
		return nil, err
	}

	return goals, nil
}

// Close moves an open goal to done or abandoned.
func (r *goalRepository) Close(userID, goalID string, status model.GoalStatus, at time.Time) error {
	query := `UPDATE goals
	          SET status = $1, updated_at = $2, closed_at = $2
	          WHERE id = $3 AND user_id = $4 AND status = $5`

	result, err := r.db.Exec(query, status, at.UTC(), goalID, userID, model.GoalStatusOpen)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		_, err := r.ByID(userID, goalID)
		if err != nil {
			return err
		}
		return ErrGoalNotOpen
	}

	return nil
}
