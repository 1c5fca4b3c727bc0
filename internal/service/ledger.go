package service

import (
	"strings"
	"time"

	"github.com/execcoach/coach/internal/model"
	"github.com/execcoach/coach/internal/repository"
)

// Entry is a new ledger line before it is stamped and stored.
type Entry struct {
	Description string
	Category    model.ActivityCategory
	Mood        *model.Mood
	Tags        []string
	// OccurredAt is the event timestamp; zero means now.
	OccurredAt time.Time
}

// LedgerService appends activities and keeps the user's streak in step with
// the ledger.
type LedgerService struct {
	userRepo     repository.UserRepository
	activityRepo repository.ActivityRepository
	clock        Clock
}

func NewLedgerService(userRepo repository.UserRepository, activityRepo repository.ActivityRepository, clock Clock) *LedgerService {
	return &LedgerService{
		userRepo:     userRepo,
		activityRepo: activityRepo,
		clock:        clock,
	}
}

// Append stores the activity and returns the user row as updated in the same
// transaction.
func (s *LedgerService) Append(userID string, e Entry) (*model.User, *model.Activity, error) {
	now := s.clock.Now().UTC()
	occurredAt := e.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = now
	}

	activity := &model.Activity{
		ID:          repository.NewID(),
		UserID:      userID,
		Description: strings.TrimSpace(e.Description),
		Category:    e.Category,
		Mood:        e.Mood,
		Tags:        joinTags(e.Tags),
		OccurredAt:  occurredAt.UTC(),
		CreatedAt:   now,
	}

	user, err := s.userRepo.ApplyActivity(activity, func(u *model.User) error {
		if !activity.Category.CountsTowardStreak() {
			return nil
		}

		next, err := UpdateStreak(StreakState{
			Current:        u.CurrentStreak,
			Longest:        u.LongestStreak,
			LastActivityAt: u.LastActivityAt,
		}, activity.OccurredAt, u.Location())
		if err != nil {
			return err
		}

		u.CurrentStreak = next.Current
		u.LongestStreak = next.Longest
		u.LastActivityAt = next.LastActivityAt
		u.TotalActivities++
		if now.After(u.LastActiveAt) {
			u.LastActiveAt = now
		}
		return nil
	})
	if err != nil {
		return nil, nil, storeError("append activity", err)
	}

	return user, activity, nil
}

// Recent returns up to limit activities, newest first.
func (s *LedgerService) Recent(userID string, limit int) ([]model.Activity, error) {
	activities, err := s.activityRepo.Recent(userID, limit)
	if err != nil {
		return nil, storeError("recent activities", err)
	}
	return activities, nil
}
