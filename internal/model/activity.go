package model

import (
	"strings"
	"time"
)

type ActivityCategory string

const (
	CategoryWin           ActivityCategory = "win"
	CategoryStuck         ActivityCategory = "stuck"
	CategorySystemCheckin ActivityCategory = "system-checkin"
	CategoryMessage       ActivityCategory = "message"
)

// CountsTowardStreak reports whether the activity was initiated by the user.
func (c ActivityCategory) CountsTowardStreak() bool {
	return c != CategorySystemCheckin
}

type Mood string

const (
	MoodWin       Mood = "win"
	MoodStuck     Mood = "stuck"
	MoodImpatient Mood = "impatient"
)

// Activity is an immutable ledger entry.
type Activity struct {
	ID          string           `db:"id" json:"id"`
	UserID      string           `db:"user_id" json:"user_id"`
	Description string           `db:"description" json:"description"`
	Category    ActivityCategory `db:"category" json:"category"`
	Mood        *Mood            `db:"mood" json:"mood,omitempty"`
	Tags        string           `db:"tags" json:"tags,omitempty"`
	OccurredAt  time.Time        `db:"occurred_at" json:"occurred_at"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
}

func (a *Activity) HasMood(moods ...Mood) bool {
	if a.Mood == nil {
		return false
	}
	for _, m := range moods {
		if *a.Mood == m {
			return true
		}
	}
	return false
}

func (a *Activity) TagList() []string {
	if a.Tags == "" {
		return nil
	}
	return strings.Split(a.Tags, ",")
}
