package agent

import "github.com/execcoach/coach/internal/model"

// Hard caps on the context bundle, whatever the policy asks for.
const (
	MaxActivities = 10
	MaxGoals      = 5
	MaxTurns      = 6
)

// Policy describes how much of the user's history a variant sees and how it is ranked.
type Policy struct {
	Activities int
	Goals      int
	Turns      int

	// CandidateWindow is how many recent activities are considered before ranking.
	CandidateWindow int
	// PriorityMoods are ranked ahead of plain recency when set.
	PriorityMoods []model.Mood

	IncludeIdea  bool
	IncludeTheme bool
	// IncludeProgress controls streak, phase and totals.
	IncludeProgress bool
}

var policies = map[model.AgentVariant]Policy{
	model.VariantExecutionCoach: {
		Activities:      MaxActivities,
		Goals:           MaxGoals,
		Turns:           MaxTurns,
		CandidateWindow: 2 * MaxActivities,
		PriorityMoods:   []model.Mood{model.MoodStuck, model.MoodWin},
		IncludeIdea:     true,
		IncludeProgress: true,
	},
	model.VariantBusinessIdeas: {
		Activities:      3,
		Goals:           3,
		Turns:           2,
		CandidateWindow: 3,
		IncludeIdea:     true,
		IncludeTheme:    true,
		IncludeProgress: true,
	},
	model.VariantMarketResearch: {
		Turns:       2,
		IncludeIdea: true,
	},
}

// PolicyFor returns the weighting policy for a variant, clamped to the bundle caps.
func PolicyFor(v model.AgentVariant) Policy {
	p, ok := policies[v]
	if !ok {
		p = policies[model.VariantExecutionCoach]
	}
	p.Activities = clamp(p.Activities, MaxActivities)
	p.Goals = clamp(p.Goals, MaxGoals)
	p.Turns = clamp(p.Turns, MaxTurns)
	if p.CandidateWindow < p.Activities {
		p.CandidateWindow = p.Activities
	}
	return p
}

func clamp(n, max int) int {
	if n < 0 {
		return 0
	}
	if n > max {
		return max
	}
	return n
}
