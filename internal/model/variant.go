package model

// AgentVariant is the closed set of response personas.
type AgentVariant string

const (
	VariantExecutionCoach AgentVariant = "execution_coach"
	VariantBusinessIdeas  AgentVariant = "business_ideas"
	VariantMarketResearch AgentVariant = "market_research"
)

var Variants = []AgentVariant{VariantExecutionCoach, VariantBusinessIdeas, VariantMarketResearch}

func (v AgentVariant) Valid() bool {
	switch v {
	case VariantExecutionCoach, VariantBusinessIdeas, VariantMarketResearch:
		return true
	}
	return false
}

func (v AgentVariant) Title() string {
	switch v {
	case VariantBusinessIdeas:
		return "Business Ideas"
	case VariantMarketResearch:
		return "Market Research"
	default:
		return "Execution Coach"
	}
}
