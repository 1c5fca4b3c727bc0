package service

import (
	"strings"

	"github.com/execcoach/coach/internal/model"
)

const (
	TagProcrastination = "procrastination"
	TagImpatience      = "impatience"
	TagWin             = "win"
	TagCustomer        = "customer"
	TagFinancial       = "financial"
)

var tagKeywords = []struct {
	tag   string
	words []string
}{
	{TagProcrastination, []string{"procrastinating", "procrastinate", "avoiding", "stuck", "overwhelmed", "can't start"}},
	{TagImpatience, []string{"slow", "frustrated", "no results", "impatient", "giving up", "not working"}},
	{TagWin, []string{"completed", "finished", "done", "win", "success", "launched", "shipped"}},
	{TagCustomer, []string{"customer", "client", "user", "sale"}},
	{TagFinancial, []string{"money", "revenue", "funding", "investment"}},
}

// tagMoods maps the tags that carry a mood. Ties resolve in this order.
var tagMoods = []struct {
	tag  string
	mood model.Mood
}{
	{TagProcrastination, model.MoodStuck},
	{TagImpatience, model.MoodImpatient},
	{TagWin, model.MoodWin},
}

// TagMessage tags a message by keyword and picks the dominant mood, if any.
func TagMessage(text string) (tags []string, mood *model.Mood) {
	lower := strings.ToLower(text)
	hits := make(map[string]int)

	for _, k := range tagKeywords {
		for _, w := range k.words {
			hits[k.tag] += strings.Count(lower, w)
		}
		if hits[k.tag] > 0 {
			tags = append(tags, k.tag)
		}
	}

	best := 0
	for _, tm := range tagMoods {
		if hits[tm.tag] > best {
			best = hits[tm.tag]
			m := tm.mood
			mood = &m
		}
	}

	return tags, mood
}

func joinTags(tags ...[]string) string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range tags {
		for _, t := range list {
			if t != "" && !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	return strings.Join(out, ",")
}
