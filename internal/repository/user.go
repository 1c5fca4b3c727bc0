package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/execcoach/coach/internal/model"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrDuplicateUser = errors.New("user already exists")
)

type UserRepository interface {
	Create(user *model.User) error
	ByID(id string) (*model.User, error)
	ByExternalID(externalID string) (*model.User, error)
	ActiveSince(since time.Time) ([]*model.User, error)
	SetBusinessIdea(id, idea string) error
	SetPhase(id string, phase model.Phase, changedAt time.Time) error
	SetTimezone(id, timezone string) error
	SetCheckinHour(id string, hour int) error
	Touch(id string, at time.Time) error
	// ApplyActivity appends the activity and rewrites the user's progress fields
	// in one transaction. apply receives the locked row and mutates it in place.
	ApplyActivity(activity *model.Activity, apply func(user *model.User) error) (*model.User, error)
}

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *model.User) error {
	query := `INSERT INTO users (id, external_id, username, first_name, business_idea, phase, phase_changed_at,
	          current_streak, longest_streak, last_activity_at, total_activities, timezone, checkin_hour, created_at, last_active_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := r.db.Exec(query,
		user.ID,
		user.ExternalID,
		user.Username,
		user.FirstName,
		user.BusinessIdea,
		user.Phase,
		user.PhaseChangedAt,
		user.CurrentStreak,
		user.LongestStreak,
		user.LastActivityAt,
		user.TotalActivities,
		user.Timezone,
		user.CheckinHour,
		user.CreatedAt,
		user.LastActiveAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicateUser
	}

	return err
}

func (r *userRepository) ByID(id string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT * FROM users WHERE id = $1`

	err := r.db.Get(user, query, id)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (r *userRepository) ByExternalID(externalID string) (*model.User, error) {
	user := &model.User{}
	query := `SELECT * FROM users WHERE external_id = $1`

	err := r.db.Get(user, query, externalID)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (r *userRepository) ActiveSince(since time.Time) ([]*model.User, error) {
	var users []*model.User
	query := `SELECT * FROM users WHERE last_active_at > $1 ORDER BY created_at ASC, id ASC`

	err := r.db.Select(&users, query, since.UTC())
	if err != nil {
		return nil, err
	}

	return users, nil
}

func (r *userRepository) SetBusinessIdea(id, idea string) error {
	return r.exec(`UPDATE users SET business_idea = $1 WHERE id = $2`, idea, id)
}

func (r *userRepository) SetPhase(id string, phase model.Phase, changedAt time.Time) error {
	return r.exec(`UPDATE users SET phase = $1, phase_changed_at = $2 WHERE id = $3`, phase, changedAt.UTC(), id)
}

func (r *userRepository) SetTimezone(id, timezone string) error {
	return r.exec(`UPDATE users SET timezone = $1 WHERE id = $2`, timezone, id)
}

func (r *userRepository) SetCheckinHour(id string, hour int) error {
	return r.exec(`UPDATE users SET checkin_hour = $1 WHERE id = $2`, hour, id)
}

func (r *userRepository) Touch(id string, at time.Time) error {
	return r.exec(`UPDATE users SET last_active_at = $1 WHERE id = $2`, at.UTC(), id)
}

func (r *userRepository) ApplyActivity(activity *model.Activity, apply func(user *model.User) error) (*model.User, error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	query := `SELECT * FROM users WHERE id = $1`
	if r.db.DriverName() == "pgx" {
		query += ` FOR UPDATE`
	}

	user := &model.User{}
	err = tx.Get(user, query, activity.UserID)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	err = apply(user)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(`INSERT INTO activities (id, user_id, description, category, mood, tags, occurred_at, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		activity.ID,
		activity.UserID,
		activity.Description,
		activity.Category,
		activity.Mood,
		activity.Tags,
		activity.OccurredAt.UTC(),
		activity.CreatedAt.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to append activity: %w", err)
	}

	_, err = tx.Exec(`UPDATE users
	          SET current_streak = $1, longest_streak = $2, last_activity_at = $3, total_activities = $4, last_active_at = $5
	          WHERE id = $6`,
		user.CurrentStreak,
		user.LongestStreak,
		utcPtr(user.LastActivityAt),
		user.TotalActivities,
		user.LastActiveAt.UTC(),
		user.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update progress: %w", err)
	}

	err = tx.Commit()
	if err != nil {
		return nil, err
	}

	return user, nil
}

func (r *userRepository) exec(query string, args ...any) error {
	result, err := r.db.Exec(query, args...)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrUserNotFound
	}

	return nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
