package service

import (
	"context"
	"log/slog"
	"slices"

	"github.com/execcoach/coach/internal/agent"
	"github.com/execcoach/coach/internal/model"
	"github.com/execcoach/coach/internal/repository"
)

// ContextBuilder assembles the bounded context bundle for a generation call.
type ContextBuilder struct {
	activityRepo     repository.ActivityRepository
	goalRepo         repository.GoalRepository
	conversationRepo repository.ConversationRepository
	clock            Clock
}

func NewContextBuilder(
	activityRepo repository.ActivityRepository,
	goalRepo repository.GoalRepository,
	conversationRepo repository.ConversationRepository,
	clock Clock,
) *ContextBuilder {
	return &ContextBuilder{
		activityRepo:     activityRepo,
		goalRepo:         goalRepo,
		conversationRepo: conversationRepo,
		clock:            clock,
	}
}

// Build never fails: without a user, or when the store errors, the bundle
// carries only the request and is marked degraded.
func (b *ContextBuilder) Build(ctx context.Context, user *model.User, variant model.AgentVariant, request string) *model.ContextBundle {
	if user == nil {
		return degraded(variant, request)
	}

	bundle, err := b.build(user, variant, request)
	if err != nil {
		slog.WarnContext(ctx, "context degraded", "user_id", user.ID, "variant", variant, "error", err)
		return degraded(variant, request)
	}

	return bundle
}

func degraded(variant model.AgentVariant, request string) *model.ContextBundle {
	return &model.ContextBundle{Variant: variant, Degraded: true, Request: request}
}

func (b *ContextBuilder) build(user *model.User, variant model.AgentVariant, request string) (*model.ContextBundle, error) {
	policy := agent.PolicyFor(variant)
	now := b.clock.Now()

	bundle := &model.ContextBundle{
		Variant:  variant,
		Request:  request,
		UserName: user.DisplayName(),
	}

	if policy.IncludeIdea {
		bundle.BusinessIdea = user.BusinessIdea
	}
	if policy.IncludeTheme {
		bundle.Theme = request
	}
	if policy.IncludeProgress {
		bundle.Phase = user.Phase
		bundle.DaysInPhase = DaysInPhase(user, now)
		bundle.CurrentStreak = EffectiveStreak(user, now)
		bundle.LongestStreak = user.LongestStreak
		bundle.TotalActivities = user.TotalActivities
		bundle.DaysSinceStart = DaysSinceStart(user, now)
	}

	if policy.Activities > 0 {
		candidates, err := b.activityRepo.Recent(user.ID, policy.CandidateWindow)
		if err != nil {
			return nil, storeError("context activities", err)
		}
		bundle.Activities = rankActivities(candidates, policy)
		if len(policy.PriorityMoods) > 0 {
			bundle.MoodWeighted = true
			for i := range candidates {
				switch {
				case candidates[i].HasMood(model.MoodWin):
					bundle.WinCount++
				case candidates[i].HasMood(model.MoodStuck):
					bundle.StuckCount++
				}
			}
		}
	}

	if policy.Goals > 0 {
		goals, err := b.goalRepo.Open(user.ID, policy.Goals)
		if err != nil {
			return nil, storeError("context goals", err)
		}
		loc := user.Location()
		for i := range goals {
			bundle.Goals = append(bundle.Goals, model.GoalView{Goal: goals[i], Overdue: goals[i].IsOverdue(now, loc)})
		}
	}

	if policy.Turns > 0 {
		turns, err := b.conversationRepo.Recent(user.ID, policy.Turns)
		if err != nil {
			return nil, storeError("context turns", err)
		}
		bundle.Turns = turns
	}

	return capBundle(bundle), nil
}

// rankActivities keeps policy.Activities of the newest-first candidates,
// putting priority moods ahead of plain recency.
func rankActivities(candidates []model.Activity, policy agent.Policy) []model.Activity {
	ranked := slices.Clone(candidates)
	if len(policy.PriorityMoods) > 0 {
		slices.SortStableFunc(ranked, func(a, b model.Activity) int {
			return rank(&a, policy.PriorityMoods) - rank(&b, policy.PriorityMoods)
		})
	}
	if len(ranked) > policy.Activities {
		ranked = ranked[:policy.Activities]
	}
	return ranked
}

// rank is 0 for activities carrying a priority mood and 1 otherwise.
// Within a rank the candidates keep their recency order.
func rank(a *model.Activity, moods []model.Mood) int {
	if a.HasMood(moods...) {
		return 0
	}
	return 1
}

func capBundle(bundle *model.ContextBundle) *model.ContextBundle {
	if len(bundle.Activities) > agent.MaxActivities {
		bundle.Activities = bundle.Activities[:agent.MaxActivities]
	}
	if len(bundle.Goals) > agent.MaxGoals {
		bundle.Goals = bundle.Goals[:agent.MaxGoals]
	}
	if len(bundle.Turns) > agent.MaxTurns {
		bundle.Turns = bundle.Turns[len(bundle.Turns)-agent.MaxTurns:]
	}
	return bundle
}
