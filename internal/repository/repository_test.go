package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/execcoach/coach/internal/db/dbtest"
	"github.com/execcoach/coach/internal/model"
)

var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func seedUser(t *testing.T, db *sqlx.DB, externalID string) *model.User {
	t.Helper()

	user := &model.User{
		ID:             NewID(),
		ExternalID:     externalID,
		Phase:          model.PhasePlanning,
		PhaseChangedAt: t0,
		Timezone:       model.DefaultTimezone,
		CheckinHour:    model.DefaultCheckinHour,
		CreatedAt:      t0,
		LastActiveAt:   t0,
	}
	require.NoError(t, NewUserRepository(db).Create(user))
	return user
}

func TestUserRepository_CreateAndLookup(t *testing.T) {
	db := dbtest.New(t)
	repo := NewUserRepository(db)
	user := seedUser(t, db, "telegram:1")

	got, err := repo.ByExternalID("telegram:1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Nil(t, got.LastActivityAt)

	_, err = repo.ByExternalID("telegram:2")
	assert.ErrorIs(t, err, ErrUserNotFound)

	dup := *user
	dup.ID = NewID()
	assert.ErrorIs(t, repo.Create(&dup), ErrDuplicateUser)

	assert.ErrorIs(t, repo.SetTimezone("missing", "UTC"), ErrUserNotFound)
}

func TestUserRepository_ApplyActivity(t *testing.T) {
	db := dbtest.New(t)
	repo := NewUserRepository(db)
	user := seedUser(t, db, "telegram:1")

	activity := &model.Activity{
		ID:          NewID(),
		UserID:      user.ID,
		Description: "shipped",
		Category:    model.CategoryWin,
		OccurredAt:  t0,
		CreatedAt:   t0,
	}
	updated, err := repo.ApplyActivity(activity, func(u *model.User) error {
		u.CurrentStreak = 1
		u.LongestStreak = 1
		u.TotalActivities++
		at := t0
		u.LastActivityAt = &at
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.TotalActivities)

	reloaded, err := repo.ByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, reloaded.CurrentStreak)
	require.NotNil(t, reloaded.LastActivityAt)
	assert.True(t, reloaded.LastActivityAt.Equal(t0))

	activities, err := NewActivityRepository(db).All(user.ID)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, "shipped", activities[0].Description)
}

func TestUserRepository_ApplyActivitySerializesWriters(t *testing.T) {
	const writers = 20

	// Two pools on one file stand in for the server and the MCP process.
	pools := dbtest.NewShared(t, 2)
	user := seedUser(t, pools[0], "telegram:1")
	repos := []UserRepository{NewUserRepository(pools[0]), NewUserRepository(pools[1])}

	var g errgroup.Group
	for i := range writers {
		repo := repos[i%len(repos)]
		g.Go(func() error {
			at := t0.Add(time.Duration(i) * time.Minute)
			_, err := repo.ApplyActivity(&model.Activity{
				ID:          NewID(),
				UserID:      user.ID,
				Description: "step",
				Category:    model.CategoryMessage,
				OccurredAt:  at,
				CreatedAt:   at,
			}, func(u *model.User) error {
				u.TotalActivities++
				return nil
			})
			return err
		})
	}
	require.NoError(t, g.Wait())

	reloaded, err := repos[1].ByID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, writers, reloaded.TotalActivities)

	activities, err := NewActivityRepository(pools[0]).All(user.ID)
	require.NoError(t, err)
	assert.Len(t, activities, writers)
}

func TestUserRepository_ApplyActivityRollsBack(t *testing.T) {
	db := dbtest.New(t)
	repo := NewUserRepository(db)
	user := seedUser(t, db, "telegram:1")

	boom := errors.New("boom")
	_, err := repo.ApplyActivity(&model.Activity{ID: NewID(), UserID: user.ID, Category: model.CategoryMessage, OccurredAt: t0, CreatedAt: t0},
		func(u *model.User) error { return boom })
	assert.ErrorIs(t, err, boom)

	activities, err := NewActivityRepository(db).All(user.ID)
	require.NoError(t, err)
	assert.Empty(t, activities)
}

func TestUserRepository_ActiveSince(t *testing.T) {
	db := dbtest.New(t)
	repo := NewUserRepository(db)
	active := seedUser(t, db, "telegram:1")
	stale := seedUser(t, db, "telegram:2")

	require.NoError(t, repo.Touch(active.ID, t0.Add(48*time.Hour)))
	require.NoError(t, repo.Touch(stale.ID, t0.Add(-30*24*time.Hour)))

	users, err := repo.ActiveSince(t0)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, active.ID, users[0].ID)
}

func TestGoalRepository_Close(t *testing.T) {
	db := dbtest.New(t)
	repo := NewGoalRepository(db)
	user := seedUser(t, db, "telegram:1")

	goal := &model.Goal{
		ID:          NewID(),
		UserID:      user.ID,
		Description: "ship beta",
		Deadline:    t0.AddDate(0, 0, 7),
		Status:      model.GoalStatusOpen,
		CreatedAt:   t0,
		UpdatedAt:   t0,
	}
	require.NoError(t, repo.Create(goal))

	require.NoError(t, repo.Close(user.ID, goal.ID, model.GoalStatusDone, t0.Add(time.Hour)))
	assert.ErrorIs(t, repo.Close(user.ID, goal.ID, model.GoalStatusAbandoned, t0), ErrGoalNotOpen)
	assert.ErrorIs(t, repo.Close(user.ID, "missing", model.GoalStatusDone, t0), ErrGoalNotFound)

	open, err := repo.Open(user.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, open)

	got, err := repo.ByID(user.ID, goal.ID)
	require.NoError(t, err)
	assert.Equal(t, model.GoalStatusDone, got.Status)
	require.NotNil(t, got.ClosedAt)
}

func TestCheckinRepository_ClaimIsUnique(t *testing.T) {
	db := dbtest.New(t)
	repo := NewCheckinRepository(db)
	user := seedUser(t, db, "telegram:1")

	claim := &model.CheckinClaim{UserID: user.ID, Kind: model.CheckinDaily, Period: "2026-03-02", CreatedAt: t0}
	require.NoError(t, repo.Claim(claim))
	assert.ErrorIs(t, repo.Claim(claim), ErrClaimExists)

	weekly := &model.CheckinClaim{UserID: user.ID, Kind: model.CheckinWeekly, Period: "2026-W10", CreatedAt: t0}
	require.NoError(t, repo.Claim(weekly))

	last, err := repo.Last(user.ID, model.CheckinDaily)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "2026-03-02", last.Period)

	require.NoError(t, repo.Release(user.ID, model.CheckinDaily, "2026-03-02"))
	last, err = repo.Last(user.ID, model.CheckinDaily)
	require.NoError(t, err)
	assert.Nil(t, last)

	require.NoError(t, repo.Claim(claim))
}

func TestMetricRepository_Trends(t *testing.T) {
	db := dbtest.New(t)
	repo := NewMetricRepository(db)
	user := seedUser(t, db, "telegram:1")

	record := func(name string, value float64, at time.Time) {
		require.NoError(t, repo.Record(&model.Metric{ID: NewID(), UserID: user.ID, Name: name, Value: value, RecordedAt: at}))
	}
	record("customers", 3, t0)
	record("customers", 5, t0.Add(time.Hour))
	record("customers", 8, t0.Add(2*time.Hour))
	record("mrr", 120, t0)

	trends, err := repo.Trends(user.ID)
	require.NoError(t, err)
	require.Len(t, trends, 2)

	assert.Equal(t, "customers", trends[0].Name)
	assert.Equal(t, 8.0, trends[0].Latest)
	require.NotNil(t, trends[0].Previous)
	assert.Equal(t, 5.0, *trends[0].Previous)

	assert.Equal(t, "mrr", trends[1].Name)
	assert.Nil(t, trends[1].Previous)
}

func TestConversationRepository_RecentIsChronological(t *testing.T) {
	db := dbtest.New(t)
	repo := NewConversationRepository(db)
	user := seedUser(t, db, "telegram:1")

	for i, text := range []string{"one", "two", "three"} {
		require.NoError(t, repo.Append(&model.ConversationTurn{
			ID:        NewID(),
			UserID:    user.ID,
			Role:      model.RoleUser,
			Variant:   model.VariantExecutionCoach,
			Text:      text,
			Source:    model.SourceUser,
			CreatedAt: t0.Add(time.Duration(i) * time.Minute),
		}))
	}

	turns, err := repo.Recent(user.ID, 2)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "two", turns[0].Text)
	assert.Equal(t, "three", turns[1].Text)
}
