package model

// ContextBundle is the bounded payload passed to the text-generation service.
type ContextBundle struct {
	Variant  AgentVariant `json:"variant"`
	Degraded bool         `json:"degraded"`
	Request  string       `json:"request"`

	UserName        string `json:"user_name,omitempty"`
	BusinessIdea    string `json:"business_idea,omitempty"`
	Theme           string `json:"theme,omitempty"`
	Phase           Phase  `json:"phase,omitempty"`
	DaysInPhase     int    `json:"days_in_phase"`
	CurrentStreak   int    `json:"current_streak"`
	LongestStreak   int    `json:"longest_streak"`
	TotalActivities int    `json:"total_activities"`
	DaysSinceStart  int    `json:"days_since_start"`

	Activities []Activity         `json:"activities,omitempty"`
	Goals      []GoalView         `json:"goals,omitempty"`
	Turns      []ConversationTurn `json:"turns,omitempty"`

	// MoodWeighted is set when activities were ranked by stuck/win moods.
	MoodWeighted bool `json:"mood_weighted"`
	WinCount     int  `json:"win_count,omitempty"`
	StuckCount   int  `json:"stuck_count,omitempty"`
}
