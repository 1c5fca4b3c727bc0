package service

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/execcoach/coach/internal/model"
	"github.com/execcoach/coach/internal/repository"
)

const progressRecentActivities = 5

// Progress is the user's execution summary as of a point in time.
type Progress struct {
	ExternalID      string              `json:"external_id"`
	Name            string              `json:"name"`
	BusinessIdea    string              `json:"business_idea,omitempty"`
	Phase           model.Phase         `json:"phase"`
	DaysInPhase     int                 `json:"days_in_phase"`
	CurrentStreak   int                 `json:"current_streak"`
	LongestStreak   int                 `json:"longest_streak"`
	TotalActivities int                 `json:"total_activities"`
	DaysSinceStart  int                 `json:"days_since_start"`
	Recent          []model.Activity    `json:"recent_activities"`
	Goals           []model.GoalView    `json:"open_goals"`
	Metrics         []model.MetricTrend `json:"metrics"`
	AsOf            time.Time           `json:"as_of"`
}

type ProgressService struct {
	activityRepo repository.ActivityRepository
	goals        *GoalService
	metrics      *MetricService
	clock        Clock
}

func NewProgressService(activityRepo repository.ActivityRepository, goals *GoalService, metrics *MetricService, clock Clock) *ProgressService {
	return &ProgressService{
		activityRepo: activityRepo,
		goals:        goals,
		metrics:      metrics,
		clock:        clock,
	}
}

func (s *ProgressService) Summary(user *model.User) (*Progress, error) {
	now := s.clock.Now()

	// Check-ins are ledgered too; the summary lists what the user did.
	candidates, err := s.activityRepo.Recent(user.ID, 4*progressRecentActivities)
	if err != nil {
		return nil, storeError("recent activities", err)
	}
	recent := make([]model.Activity, 0, progressRecentActivities)
	for _, a := range candidates {
		if a.Category.CountsTowardStreak() && len(recent) < progressRecentActivities {
			recent = append(recent, a)
		}
	}

	goals, err := s.goals.ListOpen(user, 0)
	if err != nil {
		return nil, err
	}

	trends, err := s.metrics.Trends(user)
	if err != nil {
		return nil, err
	}

	return &Progress{
		ExternalID:      user.ExternalID,
		Name:            user.DisplayName(),
		BusinessIdea:    user.BusinessIdea,
		Phase:           user.Phase,
		DaysInPhase:     DaysInPhase(user, now),
		CurrentStreak:   EffectiveStreak(user, now),
		LongestStreak:   user.LongestStreak,
		TotalActivities: user.TotalActivities,
		DaysSinceStart:  DaysSinceStart(user, now),
		Recent:          recent,
		Goals:           goals,
		Metrics:         trends,
		AsOf:            now.UTC(),
	}, nil
}

// FormatProgress renders the summary as chat markdown.
func FormatProgress(p *Progress, loc *time.Location) string {
	var b strings.Builder

	b.WriteString("📊 **Your Execution Progress**\n\n")
	fmt.Fprintf(&b, "- 🔥 Current streak: **%d days** (longest %d)\n", p.CurrentStreak, p.LongestStreak)
	fmt.Fprintf(&b, "- 📈 Total actions: **%d**\n", p.TotalActivities)
	fmt.Fprintf(&b, "- 📅 Days as entrepreneur: **%d**\n", p.DaysSinceStart)
	fmt.Fprintf(&b, "- 🚀 Phase: **%s** for %d days\n", PhaseLabel(p.Phase), p.DaysInPhase)

	b.WriteString("\n**Recent activities**\n\n")
	if len(p.Recent) == 0 {
		b.WriteString("- No activities logged yet\n")
	}
	for _, a := range p.Recent {
		fmt.Fprintf(&b, "- %s (%s)\n", a.Description, daysAgo(a.OccurredAt, p.AsOf, loc))
	}

	if len(p.Goals) > 0 {
		b.WriteString("\n**Open goals**\n\n")
		for i, g := range p.Goals {
			mark := ""
			if g.Overdue {
				mark = " ⚠️ overdue"
			}
			fmt.Fprintf(&b, "%d. %s (due %s)%s\n", i+1, g.Description, g.Deadline.Format(time.DateOnly), mark)
		}
	}

	if len(p.Metrics) > 0 {
		b.WriteString("\n**Metrics**\n\n")
		for _, m := range p.Metrics {
			fmt.Fprintf(&b, "- %s: %s%s\n", m.Name, formatNumber(m.Latest), formatDelta(m))
		}
	}

	b.WriteString("\n💪 Keep building momentum! Every action counts.")
	return b.String()
}

// PhaseLabel is the display form of a phase name.
func PhaseLabel(p model.Phase) string {
	if p == model.PhaseMVP {
		return "MVP"
	}
	return cases.Title(language.English).String(string(p))
}

func daysAgo(at, now time.Time, loc *time.Location) string {
	switch days := calendarDaysBetween(at, now, loc); {
	case days <= 0:
		return "today"
	case days == 1:
		return "yesterday"
	default:
		return fmt.Sprintf("%d days ago", days)
	}
}

func formatNumber(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}

func formatDelta(t model.MetricTrend) string {
	if t.Previous == nil {
		return ""
	}
	d := t.Delta()
	switch {
	case d > 0:
		return " (+" + formatNumber(d) + ")"
	case d < 0:
		return " (" + formatNumber(d) + ")"
	default:
		return " (no change)"
	}
}
