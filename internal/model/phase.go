package model

import "strings"

// Phase is the user-declared stage of business execution.
type Phase string

const (
	PhasePlanning   Phase = "planning"
	PhaseValidation Phase = "validation"
	PhaseMVP        Phase = "mvp"
	PhaseTraction   Phase = "traction"
)

// Phases lists every phase in its natural order.
var Phases = []Phase{PhasePlanning, PhaseValidation, PhaseMVP, PhaseTraction}

func (p Phase) Valid() bool {
	for _, known := range Phases {
		if p == known {
			return true
		}
	}
	return false
}

// ParsePhase normalizes user input. The second result is false for unknown names.
func ParsePhase(s string) (Phase, bool) {
	p := Phase(strings.ToLower(strings.TrimSpace(s)))
	return p, p.Valid()
}

func PhaseNames() []string {
	names := make([]string, len(Phases))
	for i, p := range Phases {
		names[i] = string(p)
	}
	return names
}
