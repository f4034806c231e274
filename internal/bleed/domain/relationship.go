package domain

// Relationship links two agents. The engine never mutates relationships; it
// reads intensity to attach reaction-probability hints to manifested echoes.
type Relationship struct {
	WorldID       string
	AgentA        string
	AgentB        string
	Kind          string
	Intensity     int
	Bidirectional bool
}

// bidirectionalBonus is added to reaction likelihood for mutual ties.
const bidirectionalBonus = 0.1

// ReactionHint estimates how likely an agent pair is to react to a manifested
// echo of the given strength.
type ReactionHint struct {
	EchoID     string
	AgentA     string
	AgentB     string
	Likelihood float64
}

// HintFor computes the reaction likelihood for a manifested echo strength.
func (r Relationship) HintFor(echoID string, strength float64) ReactionHint {
	likelihood := float64(r.Intensity) / 10 * strength
	if r.Bidirectional {
		likelihood += bidirectionalBonus
	}
	if likelihood > 1 {
		likelihood = 1
	}
	if likelihood < 0 {
		likelihood = 0
	}
	return ReactionHint{
		EchoID:     echoID,
		AgentA:     r.AgentA,
		AgentB:     r.AgentB,
		Likelihood: likelihood,
	}
}
