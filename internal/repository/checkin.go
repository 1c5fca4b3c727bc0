package repository

import (
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/execcoach/coach/internal/model"
)

var ErrClaimExists = errors.New("check-in already claimed for period")

type CheckinRepository interface {
	// Claim records the (user, kind, period) key. A second claim for the same key
	// fails with ErrClaimExists.
	Claim(claim *model.CheckinClaim) error
	Release(userID string, kind model.CheckinKind, period string) error
	// Last returns the most recent claim of a kind, or nil when there is none.
	Last(userID string, kind model.CheckinKind) (*model.CheckinClaim, error)
}

type checkinRepository struct {
	db *sqlx.DB
}

func NewCheckinRepository(db *sqlx.DB) CheckinRepository {
	return &checkinRepository{db: db}
}

func (r *checkinRepository) Claim(claim *model.CheckinClaim) error {
	query := `INSERT INTO checkin_claims (user_id, kind, period, created_at) VALUES ($1, $2, $3, $4)
	          ON CONFLICT (user_id, kind, period) DO NOTHING`

	result, err := r.db.Exec(query, claim.UserID, claim.Kind, claim.Period, claim.CreatedAt.UTC())
	if isUniqueViolation(err) {
		return ErrClaimExists
	}
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrClaimExists
	}

	return nil
}

func (r *checkinRepository) Release(userID string, kind model.CheckinKind, period string) error {
	query := `DELETE FROM checkin_claims WHERE user_id = $1 AND kind = $2 AND period = $3`
	_, err := r.db.Exec(query, userID, kind, period)
	return err
}

func (r *checkinRepository) Last(userID string, kind model.CheckinKind) (*model.CheckinClaim, error) {
	claim := &model.CheckinClaim{}
	query := `SELECT * FROM checkin_claims WHERE user_id = $1 AND kind = $2 ORDER BY created_at DESC LIMIT 1`

	err := r.db.Get(claim, query, userID, kind)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return claim, nil
}
