package service

import (
	"fmt"
	"time"

	"github.com/execcoach/coach/internal/model"
)

// StreakState is the part of a user row the streak calculator reads and writes.
type StreakState struct {
	Current        int
	Longest        int
	LastActivityAt *time.Time
}

// UpdateStreak applies one activity at the given time. Days are calendar days in loc.
//
//	same day as the last activity  -> unchanged
//	the day after                  -> +1
//	later, or no prior activity    -> 1
//
// An activity dated before the last activity day is a backfill and changes nothing.
func UpdateStreak(state StreakState, at time.Time, loc *time.Location) (StreakState, error) {
	if state.Current < 0 || state.Longest < 0 || state.Longest < state.Current {
		return state, fmt.Errorf("%w: streak state current=%d longest=%d", ErrInvariantViolation, state.Current, state.Longest)
	}
	if loc == nil {
		loc = time.UTC
	}

	next := state
	at = at.UTC()

	if state.LastActivityAt == nil || state.Current == 0 {
		next.Current = 1
		next.LastActivityAt = &at
	} else {
		gap := calendarDaysBetween(*state.LastActivityAt, at, loc)
		switch {
		case gap < 0:
			return state, nil
		case gap == 0:
			if at.After(*state.LastActivityAt) {
				next.LastActivityAt = &at
			}
		case gap == 1:
			next.Current = state.Current + 1
			next.LastActivityAt = &at
		default:
			next.Current = 1
			next.LastActivityAt = &at
		}
	}

	next.Longest = max(state.Longest, next.Current)
	return next, nil
}

// EffectiveStreak is the streak as of now: a streak whose last activity day is
// more than one calendar day old has lapsed and reads as 0.
func EffectiveStreak(user *model.User, now time.Time) int {
	if user.LastActivityAt == nil {
		return 0
	}
	if calendarDaysBetween(*user.LastActivityAt, now, user.Location()) > 1 {
		return 0
	}
	return user.CurrentStreak
}

// DaysInPhase is the number of calendar days since the phase was last changed.
func DaysInPhase(user *model.User, now time.Time) int {
	return max(0, calendarDaysBetween(user.PhaseChangedAt, now, user.Location()))
}

// DaysSinceStart is the number of calendar days since the user first appeared.
func DaysSinceStart(user *model.User, now time.Time) int {
	return max(0, calendarDaysBetween(user.CreatedAt, now, user.Location()))
}

func civilDay(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// calendarDaysBetween counts day boundaries in loc from a to b.
func calendarDaysBetween(a, b time.Time, loc *time.Location) int {
	return int(civilDay(b, loc).Sub(civilDay(a, loc)).Hours() / 24)
}
