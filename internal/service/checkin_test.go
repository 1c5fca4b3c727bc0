package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/execcoach/coach/internal/model"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []model.OutboundReply
	err  error
}

func (s *fakeSender) Send(_ context.Context, reply model.OutboundReply) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, reply)
	return nil
}

func (s *fakeSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func (s *fakeSender) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func newScheduler(env *testEnv, sender Sender) *CheckinScheduler {
	return NewCheckinScheduler(env.userRepo, env.checkinRepo, env.coach(&recordingResponder{}), sender, env.clock, SchedulerConfig{
		ScanEvery:  10 * time.Millisecond,
		WeeklyDay:  time.Sunday,
		WeeklyHour: 10,
	})
}

// Monday 2 March 2026, 19:00 UTC: after the default daily hour.
var evening = time.Date(2026, 3, 2, 19, 0, 0, 0, time.UTC)

func TestScheduler_NoDuplicateWithinDay(t *testing.T) {
	env := newTestEnv(t)
	env.user(t, "telegram:1")
	sender := &fakeSender{}
	scheduler := newScheduler(env, sender)

	sent, err := scheduler.RunOnce(context.Background(), evening)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	sent, err = scheduler.RunOnce(context.Background(), evening.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	assert.Equal(t, 1, sender.count())
	assert.Contains(t, sender.sent[0].Text, "Daily check-in")
	assert.Equal(t, "telegram:1", sender.sent[0].UserID)
}

func TestScheduler_ClaimIsUniquePerPeriod(t *testing.T) {
	env := newTestEnv(t)
	user := env.user(t, "telegram:1")
	scheduler := newScheduler(env, &fakeSender{})

	require.NoError(t, scheduler.claim(user, model.CheckinDaily, "2026-03-02", evening))
	err := scheduler.claim(user, model.CheckinDaily, "2026-03-02", evening)
	assert.ErrorIs(t, err, ErrDuplicateCheckIn)
	require.NoError(t, scheduler.claim(user, model.CheckinWeekly, "2026-W10", evening))
}

func TestScheduler_RespectsCheckinHourAndTimezone(t *testing.T) {
	env := newTestEnv(t)
	user := env.user(t, "telegram:1")
	require.NoError(t, env.users.SetTimezone(user, "America/New_York"))
	sender := &fakeSender{}
	scheduler := newScheduler(env, sender)

	// 19:00 UTC is 14:00 in New York.
	sent, err := scheduler.RunOnce(context.Background(), evening)
	require.NoError(t, err)
	assert.Zero(t, sent)

	sent, err = scheduler.RunOnce(context.Background(), evening.Add(5*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
}

func TestScheduler_NextDayAfterInterval(t *testing.T) {
	env := newTestEnv(t)
	env.user(t, "telegram:1")
	sender := &fakeSender{}
	scheduler := newScheduler(env, sender)

	_, err := scheduler.RunOnce(context.Background(), evening)
	require.NoError(t, err)

	sent, err := scheduler.RunOnce(context.Background(), evening.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, 2, sender.count())
}

func TestScheduler_FailedSendReleasesClaim(t *testing.T) {
	env := newTestEnv(t)
	user := env.user(t, "telegram:1")
	sender := &fakeSender{}
	sender.fail(errors.New("telegram down"))
	scheduler := newScheduler(env, sender)

	for i := range 3 {
		sent, err := scheduler.RunOnce(context.Background(), evening.Add(time.Duration(i)*5*time.Minute))
		require.NoError(t, err)
		assert.Zero(t, sent)
	}

	activities, err := env.activityRepo.All(user.ID)
	require.NoError(t, err)
	assert.Empty(t, activities)
	turns, err := env.conversationRepo.All(user.ID)
	require.NoError(t, err)
	assert.Empty(t, turns)

	sender.fail(nil)
	sent, err := scheduler.RunOnce(context.Background(), evening.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	activities, err = env.activityRepo.All(user.ID)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, model.CategorySystemCheckin, activities[0].Category)

	turns, err = env.conversationRepo.All(user.ID)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, model.RoleAgent, turns[0].Role)
	assert.Equal(t, sender.sent[0].Text, turns[0].Text)
}

func TestScheduler_WeeklyOnSunday(t *testing.T) {
	env := newTestEnv(t)
	user := env.user(t, "telegram:1")
	require.NoError(t, env.users.SetCheckinHour(user, 20))
	sender := &fakeSender{}
	scheduler := newScheduler(env, sender)

	sunday := time.Date(2026, 3, 8, 11, 0, 0, 0, time.UTC)
	env.clock.Set(sunday)
	require.NoError(t, env.users.Touch(user))

	sent, err := scheduler.RunOnce(context.Background(), sunday)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Contains(t, sender.sent[0].Text, "Weekly planning")

	sent, err = scheduler.RunOnce(context.Background(), sunday.Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestScheduler_SkipsInactiveUsers(t *testing.T) {
	env := newTestEnv(t)
	env.user(t, "telegram:1")
	sender := &fakeSender{}
	scheduler := newScheduler(env, sender)

	sent, err := scheduler.RunOnce(context.Background(), evening.AddDate(0, 0, 8))
	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestScheduler_CheckinsDoNotKeepUsersActive(t *testing.T) {
	env := newTestEnv(t)
	user := env.user(t, "telegram:1")
	scheduler := newScheduler(env, &fakeSender{})

	env.clock.Set(evening)
	_, err := scheduler.RunOnce(context.Background(), evening)
	require.NoError(t, err)

	assert.True(t, env.reload(t, user).LastActiveAt.Equal(day1))
}

func TestScheduler_RunStopsOnCancel(t *testing.T) {
	env := newTestEnv(t)
	env.user(t, "telegram:1")
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	env.clock.Set(evening)
	sender := &fakeSender{}
	scheduler := newScheduler(env, sender)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- scheduler.Run(ctx) }()

	assert.Eventually(t, func() bool { return sender.count() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
	assert.Equal(t, 1, sender.count())
}
