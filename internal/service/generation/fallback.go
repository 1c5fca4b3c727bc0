package generation

import (
	"fmt"
	"strings"

	"github.com/execcoach/coach/internal/model"
)

var (
	stuckWords     = []string{"procrastinating", "avoiding", "stuck", "overwhelmed", "can't start"}
	impatientWords = []string{"slow", "not working", "no results", "giving up", "frustrated"}
	winWords       = []string{"completed", "finished", "done", "achieved", "launched", "win"}
)

// Fallback builds the canned reply used when generation is unavailable. It only
// reads the bundle, so a degraded bundle still gets a sensible answer.
func Fallback(variant model.AgentVariant, bundle *model.ContextBundle, userText string) string {
	name := "friend"
	phase := model.PhasePlanning
	streak := 0
	if bundle != nil {
		if bundle.UserName != "" {
			name = bundle.UserName
		}
		if bundle.Phase != "" {
			phase = bundle.Phase
		}
		streak = bundle.CurrentStreak
	}

	switch variant {
	case model.VariantBusinessIdeas:
		return fallbackIdeas(bundle)
	case model.VariantMarketResearch:
		return fallbackResearch(bundle)
	}

	text := strings.ToLower(userText)
	switch {
	case containsAny(text, stuckWords):
		return fmt.Sprintf("I see you're feeling stuck, %s. Your %d-day streak shows you CAN take action! "+
			"What's the smallest possible step you could take in the next 5 minutes? "+
			"Even tiny progress in the %s phase builds momentum. 🚀", name, streak, phase)
	case containsAny(text, impatientWords):
		return fmt.Sprintf("I understand the frustration! In the %s phase, most solo entrepreneurs need 3-6 months "+
			"to see real results. Your %d-day action streak is exactly how success builds, one step at a time. "+
			"What would count as progress in the next 7 days? 📈", phase, streak)
	case containsAny(text, winWords):
		return fmt.Sprintf("🎉 Amazing work! That's %d days of taking action. This is how momentum builds in the %s phase. "+
			"What felt good about completing that? And what's the next small step to keep this energy going? 💪", max(streak, 1), phase)
	}

	return fmt.Sprintf("I'm here to help you execute, %s! You're in the %s phase with a %d-day action streak. "+
		"What's on your mind? Use /stuck if you're procrastinating, /win to celebrate progress, "+
		"or just tell me what you're working on! 🎯", name, phase, streak)
}

func fallbackIdeas(bundle *model.ContextBundle) string {
	theme := ""
	if bundle != nil {
		theme = bundle.Theme
		// Degraded bundles carry only the request.
		if theme == "" {
			theme = bundle.Request
		}
	}
	if theme == "" {
		return "💡 I can't reach the idea generator right now. While you wait, list three problems you ran into this week " +
			"that you would pay to have solved. Each one is a seed for a business idea. Try /ideas again in a few minutes."
	}
	return fmt.Sprintf("💡 I can't reach the idea generator right now. For %q, write down three people who struggle "+
		"in that space and what they already pay for. That list is the start of a good idea. Try /ideas again in a few minutes.", theme)
}

func fallbackResearch(bundle *model.ContextBundle) string {
	topic := ""
	if bundle != nil {
		topic = bundle.Request
	}
	return fmt.Sprintf("📊 I can't run the research for %q right now. Quick manual start: search for the top five "+
		"competitors, note their pricing, and read their worst reviews. Try /research again in a few minutes.", topic)
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
