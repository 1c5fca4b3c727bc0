package model

import (
	"time"
)

const DefaultTimezone = "UTC"

// DefaultCheckinHour is the local hour after which the daily check-in may fire.
const DefaultCheckinHour = 18

type User struct {
	ID              string     `db:"id" json:"id"`
	ExternalID      string     `db:"external_id" json:"external_id"`
	Username        string     `db:"username" json:"username"`
	FirstName       string     `db:"first_name" json:"first_name"`
	BusinessIdea    string     `db:"business_idea" json:"business_idea"`
	Phase           Phase      `db:"phase" json:"phase"`
	PhaseChangedAt  time.Time  `db:"phase_changed_at" json:"phase_changed_at"`
	CurrentStreak   int        `db:"current_streak" json:"current_streak"`
	LongestStreak   int        `db:"longest_streak" json:"longest_streak"`
	LastActivityAt  *time.Time `db:"last_activity_at" json:"last_activity_at,omitempty"` // Last user-originated activity
	TotalActivities int        `db:"total_activities" json:"total_activities"`
	Timezone        string     `db:"timezone" json:"timezone"`
	CheckinHour     int        `db:"checkin_hour" json:"checkin_hour"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	LastActiveAt    time.Time  `db:"last_active_at" json:"last_active_at"`
}

// Location resolves the user's timezone, falling back to UTC.
func (u *User) Location() *time.Location {
	if u.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(u.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DisplayName is what replies call the user.
func (u *User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	if u.Username != "" {
		return u.Username
	}
	return "friend"
}
