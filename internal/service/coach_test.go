package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/execcoach/coach/internal/model"
	"github.com/execcoach/coach/internal/service/generation"
)

func event(text string) model.InboundEvent {
	return model.InboundEvent{UserID: "telegram:42", Text: text, FirstName: "Ana"}
}

func TestCoach_IdeasRoutesToBusinessIdeas(t *testing.T) {
	env := newTestEnv(t)
	responder := &recordingResponder{text: "1. Focus timer for teams"}
	coach := env.coach(responder)

	coach.Handle(context.Background(), event("/idea meal prep for athletes"))
	coach.Handle(context.Background(), event("I'm stuck on pricing"))

	reply := coach.Handle(context.Background(), event("/ideas productivity tools"))

	call := responder.last(t)
	assert.Equal(t, model.VariantBusinessIdeas, call.Variant)
	assert.Equal(t, "meal prep for athletes", call.Bundle.BusinessIdea)
	assert.Equal(t, "productivity tools", call.Bundle.Theme)
	assert.False(t, call.Bundle.MoodWeighted)
	assert.Contains(t, reply.Text, "Creative Business Ideas")
	assert.Contains(t, reply.Text, "Focus timer for teams")
	assert.Equal(t, "telegram:42", reply.UserID)
}

func TestCoach_FreeTextUsesExecutionCoach(t *testing.T) {
	env := newTestEnv(t)
	responder := &recordingResponder{}
	coach := env.coach(responder)

	coach.Handle(context.Background(), event("I keep procrastinating on cold emails"))

	call := responder.last(t)
	assert.Equal(t, model.VariantExecutionCoach, call.Variant)
	assert.True(t, call.Bundle.MoodWeighted)
	require.Len(t, call.Bundle.Activities, 1)
	assert.True(t, call.Bundle.Activities[0].HasMood(model.MoodStuck))
	assert.Equal(t, 1, call.Bundle.StuckCount)

	user, err := env.users.ByExternalID("telegram:42")
	require.NoError(t, err)
	turns, err := env.conversationRepo.All(user.ID)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, model.RoleUser, turns[0].Role)
	assert.Equal(t, model.RoleAgent, turns[1].Role)
	assert.Equal(t, model.SourceGemini, turns[1].Source)
}

func TestCoach_GenerationTimeoutFallsBack(t *testing.T) {
	env := newTestEnv(t)

	prompts, err := generation.LoadPrompts()
	require.NoError(t, err)
	block := make(chan struct{})
	defer close(block)
	responder := generation.NewResponder(blockingProvider{block: block}, prompts, 20*time.Millisecond)
	coach := env.coach(responder)

	reply := coach.Handle(context.Background(), event("I finished the landing page"))

	assert.Contains(t, reply.Text, "Amazing work")

	user, err := env.users.ByExternalID("telegram:42")
	require.NoError(t, err)
	turns, err := env.conversationRepo.All(user.ID)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, model.SourceFallback, turns[1].Source)
}

type blockingProvider struct {
	block chan struct{}
}

func (p blockingProvider) Generate(context.Context, generation.Request) (generation.Response, error) {
	<-p.block
	return generation.Response{Text: "late"}, nil
}

func (p blockingProvider) Name() string {
	return "blocking"
}

func TestCoach_InvalidArgumentsClarify(t *testing.T) {
	env := newTestEnv(t)
	coach := env.coach(&recordingResponder{})

	tests := []struct {
		text string
		want string
	}{
		{"/phase scaling", "Valid phases"},
		{"/phase", "Usage: /phase"},
		{"/research", "Usage: /research"},
		{"/done 3", "You have 0 open goals"},
		{"/metric customers", "Usage: /metric"},
		{"/timezone Mars/Base", "unknown timezone"},
		{"/checkin noon", "Usage: /checkin"},
		{"/idea", "business idea is required"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			reply := coach.Handle(context.Background(), event(tt.text))
			assert.Contains(t, reply.Text, tt.want)
		})
	}
}

func TestCoach_GoalLifecycle(t *testing.T) {
	env := newTestEnv(t)
	coach := env.coach(&recordingResponder{})
	ctx := context.Background()

	reply := coach.Handle(ctx, event("/goal 10 customer interviews by 2026-03-20"))
	assert.Contains(t, reply.Text, "Goal set: 10 customer interviews (due 2026-03-20)")

	coach.Handle(ctx, event("/goal ship beta"))

	reply = coach.Handle(ctx, event("/goals"))
	assert.Contains(t, reply.Text, "1. 10 customer interviews")
	assert.Contains(t, reply.Text, "2. ship beta (due 2026-03-09)")

	reply = coach.Handle(ctx, event("/done 1"))
	assert.Contains(t, reply.Text, "Done: 10 customer interviews")

	reply = coach.Handle(ctx, event("/abandon 1"))
	assert.Contains(t, reply.Text, "Let go of: ship beta")

	reply = coach.Handle(ctx, event("/goals"))
	assert.Contains(t, reply.Text, "No open goals")

	user, err := env.users.ByExternalID("telegram:42")
	require.NoError(t, err)
	assert.Equal(t, 1, user.CurrentStreak)
}

func TestCoach_WinStuckAndProgress(t *testing.T) {
	env := newTestEnv(t)
	responder := &recordingResponder{text: "keep going"}
	coach := env.coach(responder)
	ctx := context.Background()

	reply := coach.Handle(ctx, event("/win first paying customer"))
	assert.Contains(t, reply.Text, "Win logged!")
	assert.Contains(t, responder.last(t).UserText, "first paying customer")

	env.clock.Advance(24 * time.Hour)
	reply = coach.Handle(ctx, event("/stuck"))
	assert.Contains(t, reply.Text, "Stuck alert")
	assert.Equal(t, 1, responder.last(t).Bundle.StuckCount)

	coach.Handle(ctx, event("/metric customers 1"))
	env.clock.Advance(time.Hour)
	reply = coach.Handle(ctx, event("/metric customers 4"))
	assert.Contains(t, reply.Text, "customers: 4 (+3)")

	coach.Handle(ctx, event("/phase validation"))

	reply = coach.Handle(ctx, event("/progress"))
	assert.Contains(t, reply.Text, "Current streak: **2 days**")
	assert.Contains(t, reply.Text, "Phase: **Validation**")
	assert.Contains(t, reply.Text, "first paying customer (yesterday)")
	assert.Contains(t, reply.Text, "customers: 4 (+3)")
}

func TestCoach_ReadOnlyCommandsDoNotCountAsActivity(t *testing.T) {
	env := newTestEnv(t)
	coach := env.coach(&recordingResponder{})
	ctx := context.Background()

	for _, text := range []string{"/start", "/help", "/modes", "/progress", "/goals", "/export", "/debug", "/plan tasks", "/plan review", "/plan goal"} {
		coach.Handle(ctx, event(text))
	}

	user, err := env.users.ByExternalID("telegram:42")
	require.NoError(t, err)
	assert.Equal(t, 0, user.TotalActivities)
	assert.Equal(t, 0, user.CurrentStreak)
}

func TestCoach_ReadOnlyCommandsKeepUserActive(t *testing.T) {
	env := newTestEnv(t)
	coach := env.coach(&recordingResponder{})
	ctx := context.Background()

	user := env.user(t, "telegram:42")
	assert.True(t, user.LastActiveAt.Equal(day1))

	later := day1.Add(6 * 24 * time.Hour)
	env.clock.Set(later)
	coach.Handle(ctx, event("/progress"))

	reloaded := env.reload(t, user)
	assert.True(t, reloaded.LastActiveAt.Equal(later))
	assert.Zero(t, reloaded.TotalActivities)

	active, err := env.userRepo.ActiveSince(later.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, user.ID, active[0].ID)
}

func TestCoach_PlanOffersOptions(t *testing.T) {
	env := newTestEnv(t)
	coach := env.coach(&recordingResponder{text: "pick three tasks"})
	ctx := context.Background()

	reply := coach.Handle(ctx, event("/plan"))
	assert.Contains(t, reply.Text, "Weekly planning session")
	require.Len(t, reply.Options, 3)

	data := make([]string, 0, len(reply.Options))
	for _, opt := range reply.Options {
		assert.NotEmpty(t, opt.Label)
		data = append(data, opt.Data)
	}
	assert.Equal(t, []string{"/plan tasks", "/plan review", "/plan goal"}, data)

	// Choosing an option comes back as the option's data.
	tasks := coach.Handle(ctx, event(reply.Options[0].Data))
	assert.Contains(t, tasks.Text, "3 must-do tasks")
	assert.Empty(t, tasks.Options)

	review := coach.Handle(ctx, event(reply.Options[1].Data))
	assert.Contains(t, review.Text, "Current streak:")

	goal := coach.Handle(ctx, event(reply.Options[2].Data))
	assert.Contains(t, goal.Text, "/goal")
}

func TestCoach_TestCommand(t *testing.T) {
	env := newTestEnv(t)

	reply := env.coach(&recordingResponder{text: " Hello! Text generation is working correctly. "}).
		Handle(context.Background(), event("/test"))
	assert.Equal(t, "✅ Text generation test result:\nHello! Text generation is working correctly.", reply.Text)

	reply = env.coach(&recordingResponder{text: "fallback text", source: model.SourceFallback}).
		Handle(context.Background(), event("/test"))
	assert.Contains(t, reply.Text, "❌ Text generation is unavailable")
}

type namedResponder struct {
	recordingResponder
}

func (*namedResponder) Provider() string { return "gemini" }

func TestCoach_DebugCommand(t *testing.T) {
	env := newTestEnv(t)
	coach := env.coach(&namedResponder{})
	ctx := context.Background()

	coach.Handle(ctx, event("/win shipped pricing page"))
	coach.Handle(ctx, event("/goal launch beta"))

	reply := coach.Handle(ctx, event("/debug"))
	assert.Contains(t, reply.Text, "Provider: gemini")
	assert.Contains(t, reply.Text, "User ID: telegram:42")
	assert.Contains(t, reply.Text, "Name: Ana")
	assert.Contains(t, reply.Text, "Streak: 1 days")
	assert.Contains(t, reply.Text, "Total activities: 2")
	assert.Contains(t, reply.Text, "Open goals in context: 1")

	reply = env.coach(&recordingResponder{}).Handle(ctx, event("/debug"))
	assert.Contains(t, reply.Text, "Provider: unknown")
}

func TestCoach_ExportDisabled(t *testing.T) {
	env := newTestEnv(t)
	coach := env.coach(&recordingResponder{})

	reply := coach.Handle(context.Background(), event("/export"))
	assert.Contains(t, reply.Text, "not enabled")
}

func TestCoach_StoreUnavailableStillReplies(t *testing.T) {
	env := newTestEnv(t)
	responder := &recordingResponder{text: "still here"}
	coach := env.coach(responder)
	require.NoError(t, env.db.Close())

	reply := coach.Handle(context.Background(), event("hello"))
	assert.Equal(t, "still here", reply.Text)
	assert.True(t, responder.last(t).Bundle.Degraded)

	reply = coach.Handle(context.Background(), event("/progress"))
	assert.Contains(t, reply.Text, "couldn't save that")

	reply = coach.Handle(context.Background(), event("/debug"))
	assert.Contains(t, reply.Text, "Stored profile: ❌ unavailable")
}

func TestCoach_CommandToken(t *testing.T) {
	env := newTestEnv(t)
	responder := &recordingResponder{}
	coach := env.coach(responder)

	coach.Handle(context.Background(), model.InboundEvent{
		UserID:       "webhook:7",
		Text:         "/Research@coach_bot fitness wearables",
		CommandToken: "/Research@coach_bot",
	})

	call := responder.last(t)
	assert.Equal(t, model.VariantMarketResearch, call.Variant)
	assert.Equal(t, "fitness wearables", call.Bundle.Request)
}

func TestCoach_CheckIn(t *testing.T) {
	env := newTestEnv(t)
	responder := &recordingResponder{text: "what's your 5-minute action?"}
	coach := env.coach(responder)
	user := env.user(t, "telegram:42")

	reply, err := coach.CheckIn(context.Background(), user, model.CheckinDaily)
	require.NoError(t, err)
	assert.Equal(t, "telegram:42", reply.UserID)
	assert.Contains(t, reply.Text, "Daily check-in")
	assert.Contains(t, reply.Text, "5-minute action")

	activities, err := env.activityRepo.All(user.ID)
	require.NoError(t, err)
	assert.Empty(t, activities, "nothing is stored before delivery")

	require.NoError(t, coach.RecordCheckIn(context.Background(), user, model.CheckinDaily, reply))

	activities, err = env.activityRepo.All(user.ID)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, model.CategorySystemCheckin, activities[0].Category)

	turns, err := env.conversationRepo.All(user.ID)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, model.SourceCheckin, turns[0].Source)
	assert.Equal(t, reply.Text, turns[0].Text)
}
