package agent

import (
	"testing"

	"github.com/execcoach/coach/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestRoute(t *testing.T) {
	tests := []struct {
		name    string
		command string
		text    string
		want    model.AgentVariant
	}{
		{"ideas", "/ideas", "productivity tools", model.VariantBusinessIdeas},
		{"ideas uppercase", "/IDEAS", "", model.VariantBusinessIdeas},
		{"ideas without slash", "ideas", "", model.VariantBusinessIdeas},
		{"ideas with bot mention", "/ideas@CoachBot", "ai", model.VariantBusinessIdeas},
		{"research", "/research", "food delivery apps", model.VariantMarketResearch},
		{"plain text", "", "I keep procrastinating", model.VariantExecutionCoach},
		{"unknown command", "/dance", "now", model.VariantExecutionCoach},
		{"coach command", "/stuck", "", model.VariantExecutionCoach},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Route(tt.command, tt.text))
		})
	}
}

func TestRouteIsPure(t *testing.T) {
	texts := []string{"", "a", "/research cars", "long text with many words"}
	for _, cmd := range []string{"/ideas", "/research", "/win", ""} {
		first := Route(cmd, "")
		for _, text := range texts {
			assert.Equal(t, first, Route(cmd, text), "command %q", cmd)
		}
	}
}

func TestSplitCommand(t *testing.T) {
	cmd, args := SplitCommand("/ideas productivity tools")
	assert.Equal(t, "/ideas", cmd)
	assert.Equal(t, "productivity tools", args)

	cmd, args = SplitCommand("  just talking  ")
	assert.Empty(t, cmd)
	assert.Equal(t, "just talking", args)

	cmd, args = SplitCommand("/Progress@coach_bot")
	assert.Equal(t, "/progress", cmd)
	assert.Empty(t, args)
}

func TestSplitCommand_AnyWhitespace(t *testing.T) {
	tests := []struct {
		text string
		cmd  string
		args string
	}{
		{"/research\nAI tools", "/research", "AI tools"},
		{"/win\tshipped it", "/win", "shipped it"},
		{"/ideas\u00a0fintech", "/ideas", "fintech"},
		{"/goal  launch beta by 2026-04-01", "/goal", "launch beta by 2026-04-01"},
	}

	for _, tt := range tests {
		cmd, args := SplitCommand(tt.text)
		assert.Equal(t, tt.cmd, cmd, tt.text)
		assert.Equal(t, tt.args, args, tt.text)
	}
	assert.Equal(t, model.VariantMarketResearch, Route(SplitCommand("/research\nAI tools")))
}

func TestPolicyForStaysWithinCaps(t *testing.T) {
	for _, v := range model.Variants {
		p := PolicyFor(v)
		assert.LessOrEqual(t, p.Activities, MaxActivities)
		assert.LessOrEqual(t, p.Goals, MaxGoals)
		assert.LessOrEqual(t, p.Turns, MaxTurns)
		assert.GreaterOrEqual(t, p.CandidateWindow, p.Activities)
	}

	assert.NotEmpty(t, PolicyFor(model.VariantExecutionCoach).PriorityMoods)
	assert.Empty(t, PolicyFor(model.VariantBusinessIdeas).PriorityMoods)
	assert.Zero(t, PolicyFor(model.VariantMarketResearch).Activities)
	assert.Equal(t, PolicyFor(model.VariantExecutionCoach), PolicyFor("unknown"))
}
