package generation

import (
	"fmt"
	"strings"

	"github.com/execcoach/coach/internal/model"
)

// RenderPrompt formats the context bundle and the user's text as the user turn
// of a generation request.
func RenderPrompt(bundle *model.ContextBundle, userText string) string {
	var b strings.Builder

	if bundle != nil && !bundle.Degraded {
		b.WriteString("## USER CONTEXT\n")
		if bundle.UserName != "" {
			fmt.Fprintf(&b, "- Name: %s\n", bundle.UserName)
		}
		if bundle.BusinessIdea != "" {
			fmt.Fprintf(&b, "- Business idea: %s\n", bundle.BusinessIdea)
		} else if bundle.Variant != model.VariantMarketResearch {
			b.WriteString("- No business idea set yet\n")
		}
		if bundle.Phase != "" {
			fmt.Fprintf(&b, "- Execution phase: %s (for %d days)\n", bundle.Phase, bundle.DaysInPhase)
			fmt.Fprintf(&b, "- Days using coach: %d\n", bundle.DaysSinceStart)
			fmt.Fprintf(&b, "- Current streak: %d days (longest %d)\n", bundle.CurrentStreak, bundle.LongestStreak)
			fmt.Fprintf(&b, "- Total actions taken: %d\n", bundle.TotalActivities)
		}
		if bundle.MoodWeighted && (bundle.WinCount > 0 || bundle.StuckCount > 0) {
			fmt.Fprintf(&b, "- Recent signals: %d wins, %d stuck moments\n", bundle.WinCount, bundle.StuckCount)
		}

		if len(bundle.Activities) > 0 {
			b.WriteString("\n## RECENT ACTIVITIES\n")
			for _, a := range bundle.Activities {
				mood := ""
				if a.Mood != nil {
					mood = ", " + string(*a.Mood)
				}
				fmt.Fprintf(&b, "- %s (%s%s, %s)\n", a.Description, a.Category, mood, a.OccurredAt.Format("Jan 2"))
			}
		}

		if len(bundle.Goals) > 0 {
			b.WriteString("\n## CURRENT GOALS\n")
			for _, g := range bundle.Goals {
				overdue := ""
				if g.Overdue {
					overdue = ", OVERDUE"
				}
				fmt.Fprintf(&b, "- %s (due %s%s)\n", g.Description, g.Deadline.Format("2006-01-02"), overdue)
			}
		}

		if len(bundle.Turns) > 0 {
			b.WriteString("\n## RECENT CONVERSATION\n")
			for _, t := range bundle.Turns {
				fmt.Fprintf(&b, "%s: %s\n", t.Role, truncate(t.Text, 400))
			}
		}
		b.WriteString("\n")
	}

	if bundle != nil && bundle.Theme != "" {
		fmt.Fprintf(&b, "## REQUESTED THEME\n%s\n\n", bundle.Theme)
	}

	fmt.Fprintf(&b, "## USER MESSAGE\n%q\n", userText)
	return b.String()
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
