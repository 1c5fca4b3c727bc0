package model

import "time"

type CheckinKind string

const (
	CheckinDaily  CheckinKind = "daily"
	CheckinWeekly CheckinKind = "weekly"
)

// CheckinClaim is the idempotency record for one check-in per (user, kind, period).
type CheckinClaim struct {
	UserID    string      `db:"user_id"`
	Kind      CheckinKind `db:"kind"`
	Period    string      `db:"period"`
	CreatedAt time.Time   `db:"created_at"`
}
