// Package agent maps inbound commands to response personas and holds the
// per-persona context weighting policies. Everything here is pure.
package agent

import (
	"strings"
	"unicode"

	"github.com/execcoach/coach/internal/model"
)

const (
	CommandIdeas    = "/ideas"
	CommandResearch = "/research"
)

// Route picks the agent variant for a command token. Unknown commands and plain
// text go to the Execution Coach. freeText never changes the outcome; it is part of
// the signature so callers pass the whole event.
func Route(command, freeText string) model.AgentVariant {
	switch NormalizeCommand(command) {
	case CommandIdeas:
		return model.VariantBusinessIdeas
	case CommandResearch:
		return model.VariantMarketResearch
	default:
		return model.VariantExecutionCoach
	}
}

// NormalizeCommand lowercases a command token, adds the leading slash and strips
// a trailing @botname mention.
func NormalizeCommand(command string) string {
	c := strings.ToLower(strings.TrimSpace(command))
	if c == "" {
		return ""
	}
	if i := strings.IndexByte(c, '@'); i >= 0 {
		c = c[:i]
	}
	if !strings.HasPrefix(c, "/") {
		c = "/" + c
	}
	return c
}

// SplitCommand separates a leading command token from its arguments.
// Text that does not start with a slash has no command.
func SplitCommand(text string) (command, args string) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "/") {
		return "", trimmed
	}
	i := strings.IndexFunc(trimmed, unicode.IsSpace)
	if i < 0 {
		return NormalizeCommand(trimmed), ""
	}
	return NormalizeCommand(trimmed[:i]), strings.TrimSpace(trimmed[i:])
}
