package mode

import "strings"

// Mode is the agent reasoning strategy used for a request.
type Mode string

// Strategy constants.
const (
	// Direct is single-pass tool calling (strategy A).
	Direct Mode = "direct"
	// Reasoning is the plan/act/observe loop with scratchpad memory (strategy B).
	Reasoning Mode = "reasoning"
)

// Default is used when a request names no strategy.
const Default = Direct

// IsValid checks if the mode is one of the supported values.
func (m Mode) IsValid() bool {
	return m == Direct || m == Reasoning
}

// Parse accepts strategy names and their letter aliases ("A", "B").
// An empty string selects Default.
func Parse(s string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return Default, true
	case "a", string(Direct):
		return Direct, true
	case "b", string(Reasoning):
		return Reasoning, true
	}
	return "", false
}

// All returns the supported modes in a stable order.
func All() []Mode {
	return []Mode{Direct, Reasoning}
}
