package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/execcoach/coach/internal/agent"
	"github.com/execcoach/coach/internal/model"
	"github.com/execcoach/coach/internal/repository"
)

func seedHistory(t *testing.T, env *testEnv, user *model.User, activities, goals, turns int) {
	t.Helper()

	for i := range activities {
		env.clock.Advance(time.Minute)
		_, _, err := env.ledger.Append(user.ID, Entry{Description: fmt.Sprintf("task %d", i), Category: model.CategoryMessage})
		require.NoError(t, err)
	}
	for i := range goals {
		_, err := env.goals.CreateGoal(user, fmt.Sprintf("goal %d", i), time.Time{})
		require.NoError(t, err)
	}
	for i := range turns {
		env.clock.Advance(time.Second)
		require.NoError(t, env.conversationRepo.Append(&model.ConversationTurn{
			ID:        repository.NewID(),
			UserID:    user.ID,
			Role:      model.RoleUser,
			Variant:   model.VariantExecutionCoach,
			Text:      fmt.Sprintf("turn %d", i),
			Source:    model.SourceUser,
			CreatedAt: env.clock.Now(),
		}))
	}
}

func TestContextBuilder_CapsRegardlessOfHistory(t *testing.T) {
	env := newTestEnv(t)
	user := env.user(t, "telegram:1")
	seedHistory(t, env, user, 40, 12, 20)
	user = env.reload(t, user)

	for _, v := range model.Variants {
		bundle := env.contexts.Build(context.Background(), user, v, "help")
		assert.False(t, bundle.Degraded)
		assert.LessOrEqual(t, len(bundle.Activities), agent.MaxActivities, v)
		assert.LessOrEqual(t, len(bundle.Goals), agent.MaxGoals, v)
		assert.LessOrEqual(t, len(bundle.Turns), agent.MaxTurns, v)
	}

	coach := env.contexts.Build(context.Background(), user, model.VariantExecutionCoach, "help")
	assert.Len(t, coach.Activities, agent.MaxActivities)
	assert.Len(t, coach.Goals, agent.MaxGoals)
	require.Len(t, coach.Turns, agent.MaxTurns)
	assert.Equal(t, "turn 19", coach.Turns[len(coach.Turns)-1].Text, "turns are the newest, oldest first")
	assert.Equal(t, "goal 0", coach.Goals[0].Description, "goals keep insertion order")
}

func TestContextBuilder_ExecutionCoachRanksMoods(t *testing.T) {
	env := newTestEnv(t)
	user := env.user(t, "telegram:1")

	stuck := model.MoodStuck
	win := model.MoodWin
	_, _, err := env.ledger.Append(user.ID, Entry{Description: "old stuck", Category: model.CategoryStuck, Mood: &stuck})
	require.NoError(t, err)
	env.clock.Advance(time.Minute)
	_, _, err = env.ledger.Append(user.ID, Entry{Description: "old win", Category: model.CategoryWin, Mood: &win})
	require.NoError(t, err)
	seedHistory(t, env, user, 12, 0, 0)
	user = env.reload(t, user)

	bundle := env.contexts.Build(context.Background(), user, model.VariantExecutionCoach, "help")

	require.Len(t, bundle.Activities, agent.MaxActivities)
	assert.Equal(t, "old win", bundle.Activities[0].Description)
	assert.Equal(t, "old stuck", bundle.Activities[1].Description)
	assert.Equal(t, "task 11", bundle.Activities[2].Description)
	assert.True(t, bundle.MoodWeighted)
	assert.Equal(t, 1, bundle.WinCount)
	assert.Equal(t, 1, bundle.StuckCount)
	assert.Equal(t, 14, bundle.TotalActivities)
	assert.Equal(t, 1, bundle.CurrentStreak)
}

func TestContextBuilder_BusinessIdeas(t *testing.T) {
	env := newTestEnv(t)
	user := env.user(t, "telegram:1")
	require.NoError(t, env.users.SetIdea(user, "meal prep for athletes"))

	stuck := model.MoodStuck
	_, _, err := env.ledger.Append(user.ID, Entry{Description: "stuck on pricing", Category: model.CategoryStuck, Mood: &stuck})
	require.NoError(t, err)
	seedHistory(t, env, user, 5, 4, 4)

	bundle := env.contexts.Build(context.Background(), user, model.VariantBusinessIdeas, "productivity tools")

	assert.Equal(t, "meal prep for athletes", bundle.BusinessIdea)
	assert.Equal(t, "productivity tools", bundle.Theme)
	assert.False(t, bundle.MoodWeighted)
	assert.Zero(t, bundle.StuckCount)
	assert.Len(t, bundle.Activities, 3)
	assert.Equal(t, "task 4", bundle.Activities[0].Description, "recency only")
	assert.Len(t, bundle.Goals, 3)
	assert.Len(t, bundle.Turns, 2)
}

func TestContextBuilder_MarketResearch(t *testing.T) {
	env := newTestEnv(t)
	user := env.user(t, "telegram:1")
	require.NoError(t, env.users.SetIdea(user, "meal prep for athletes"))
	seedHistory(t, env, user, 5, 2, 4)

	bundle := env.contexts.Build(context.Background(), user, model.VariantMarketResearch, "fitness wearables")

	assert.Equal(t, "fitness wearables", bundle.Request)
	assert.Equal(t, "meal prep for athletes", bundle.BusinessIdea)
	assert.Empty(t, bundle.Activities)
	assert.Empty(t, bundle.Goals)
	assert.Len(t, bundle.Turns, 2)
	assert.Empty(t, bundle.Phase)
}

func TestContextBuilder_DegradedOnStoreError(t *testing.T) {
	env := newTestEnv(t)
	user := env.user(t, "telegram:1")
	require.NoError(t, env.db.Close())

	bundle := env.contexts.Build(context.Background(), user, model.VariantExecutionCoach, "hello")

	assert.True(t, bundle.Degraded)
	assert.Equal(t, "hello", bundle.Request)
	assert.Empty(t, bundle.Activities)
}

func TestContextBuilder_NoUser(t *testing.T) {
	env := newTestEnv(t)

	bundle := env.contexts.Build(context.Background(), nil, model.VariantBusinessIdeas, "tools")
	assert.True(t, bundle.Degraded)
	assert.Equal(t, model.VariantBusinessIdeas, bundle.Variant)
}
