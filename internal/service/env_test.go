package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/execcoach/coach/internal/db/dbtest"
	"github.com/execcoach/coach/internal/model"
	"github.com/execcoach/coach/internal/repository"
	"github.com/execcoach/coach/internal/service/generation"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock(now time.Time) *testClock {
	return &testClock{now: now}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recordingResponder answers with fixed text and remembers what it was asked.
type recordingResponder struct {
	mu     sync.Mutex
	calls  []responderCall
	text   string
	source string
}

type responderCall struct {
	Variant  model.AgentVariant
	Bundle   *model.ContextBundle
	UserText string
}

func (r *recordingResponder) Respond(_ context.Context, variant model.AgentVariant, bundle *model.ContextBundle, userText string) generation.Reply {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, responderCall{Variant: variant, Bundle: bundle, UserText: userText})
	text := r.text
	if text == "" {
		text = "generated reply"
	}
	source := r.source
	if source == "" {
		source = model.SourceGemini
	}
	return generation.Reply{Text: text, Source: source}
}

func (r *recordingResponder) last(t *testing.T) responderCall {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.calls, "responder was not called")
	return r.calls[len(r.calls)-1]
}

type testEnv struct {
	db    *sqlx.DB
	clock *testClock

	userRepo         repository.UserRepository
	activityRepo     repository.ActivityRepository
	goalRepo         repository.GoalRepository
	conversationRepo repository.ConversationRepository
	metricRepo       repository.MetricRepository
	checkinRepo      repository.CheckinRepository

	users    *UserService
	ledger   *LedgerService
	phases   *PhaseService
	goals    *GoalService
	metrics  *MetricService
	progress *ProgressService
	contexts *ContextBuilder
	exports  *ExportService
}

var day1 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	database := dbtest.New(t)
	clock := newTestClock(day1)

	env := &testEnv{
		db:               database,
		clock:            clock,
		userRepo:         repository.NewUserRepository(database),
		activityRepo:     repository.NewActivityRepository(database),
		goalRepo:         repository.NewGoalRepository(database),
		conversationRepo: repository.NewConversationRepository(database),
		metricRepo:       repository.NewMetricRepository(database),
		checkinRepo:      repository.NewCheckinRepository(database),
	}

	env.users = NewUserService(env.userRepo, clock)
	env.ledger = NewLedgerService(env.userRepo, env.activityRepo, clock)
	env.phases = NewPhaseService(env.userRepo, clock)
	env.goals = NewGoalService(env.goalRepo, clock)
	env.metrics = NewMetricService(env.metricRepo, clock)
	env.progress = NewProgressService(env.activityRepo, env.goals, env.metrics, clock)
	env.contexts = NewContextBuilder(env.activityRepo, env.goalRepo, env.conversationRepo, clock)
	env.exports = NewExportService(env.activityRepo, env.goalRepo, env.metricRepo, env.conversationRepo, nil, clock)

	return env
}

func (e *testEnv) coach(responder Responder) *CoachService {
	return NewCoachService(CoachDeps{
		Users:            e.users,
		Ledger:           e.ledger,
		Phases:           e.phases,
		Goals:            e.goals,
		Metrics:          e.metrics,
		Progress:         e.progress,
		Contexts:         e.contexts,
		Exports:          e.exports,
		ConversationRepo: e.conversationRepo,
		Responder:        responder,
		Clock:            e.clock,
	})
}

func (e *testEnv) user(t *testing.T, externalID string) *model.User {
	t.Helper()
	user, err := e.users.GetOrCreate(model.InboundEvent{UserID: externalID, FirstName: "Ana"})
	require.NoError(t, err)
	return user
}

func (e *testEnv) reload(t *testing.T, user *model.User) *model.User {
	t.Helper()
	fresh, err := e.userRepo.ByID(user.ID)
	require.NoError(t, err)
	return fresh
}
