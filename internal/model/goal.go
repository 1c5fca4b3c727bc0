package model

import (
	"time"
)

type GoalStatus string

const (
	GoalStatusOpen      GoalStatus = "open"
	GoalStatusDone      GoalStatus = "done"
	GoalStatusAbandoned GoalStatus = "abandoned"
)

type Goal struct {
	ID          string     `db:"id" json:"id"`
	UserID      string     `db:"user_id" json:"user_id"`
	Description string     `db:"description" json:"description"`
	Deadline    time.Time  `db:"deadline" json:"deadline"`
	Status      GoalStatus `db:"status" json:"status"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
	ClosedAt    *time.Time `db:"closed_at" json:"closed_at,omitempty"`
}

// GoalView is a goal as shown to the user, with read-time flags.
type GoalView struct {
	Goal
	Overdue bool `json:"overdue"`
}

// IsOverdue compares the deadline date with the local date of now.
// The goal is overdue only once the deadline day has fully passed.
func (g *Goal) IsOverdue(now time.Time, loc *time.Location) bool {
	if g.Status != GoalStatusOpen {
		return false
	}
	deadline := g.Deadline.UTC()
	local := now.In(loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
	day := time.Date(deadline.Year(), deadline.Month(), deadline.Day(), 0, 0, 0, 0, time.UTC)
	return day.Before(today)
}
