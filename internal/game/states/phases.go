package states

import "fmt"

// MatchPhase represents the current phase of a match
type MatchPhase int

const (
	// PhaseInitializing - Match object created, nothing placed yet
	PhaseInitializing MatchPhase = iota

	// PhaseStarting - Map generation, agent placement
	PhaseStarting

	// PhaseRunning - Turns are being played
	PhaseRunning

	// PhaseEnding - Winner determination, stats flush
	PhaseEnding

	// PhaseEnded - Final state
	PhaseEnded

	// PhaseError - Setup or turn loop failed
	PhaseError
)

var phaseNames = map[MatchPhase]string{
	PhaseInitializing: "Initializing",
	PhaseStarting:     "Starting",
	PhaseRunning:      "Running",
	PhaseEnding:       "Ending",
	PhaseEnded:        "Ended",
	PhaseError:        "Error",
}

// String returns the string representation of a MatchPhase
func (p MatchPhase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", p)
}

// IsTerminal returns true if the phase represents a terminal state
func (p MatchPhase) IsTerminal() bool {
	return p == PhaseEnded || p == PhaseError
}

// AcceptsTurns returns true if the turn clock may advance in this phase
func (p MatchPhase) AcceptsTurns() bool {
	return p == PhaseRunning
}

// AllowedTransitions returns the valid phases this phase can transition to
func (p MatchPhase) AllowedTransitions() []MatchPhase {
	switch p {
	case PhaseInitializing:
		return []MatchPhase{PhaseStarting, PhaseError}
	case PhaseStarting:
		return []MatchPhase{PhaseRunning, PhaseError}
	case PhaseRunning:
		return []MatchPhase{PhaseEnding, PhaseError}
	case PhaseEnding:
		return []MatchPhase{PhaseEnded, PhaseError}
	default:
		return []MatchPhase{}
	}
}

// CanTransitionTo checks if a transition from this phase to the target phase is allowed
func (p MatchPhase) CanTransitionTo(target MatchPhase) bool {
	for _, phase := range p.AllowedTransitions() {
		if phase == target {
			return true
		}
	}
	return false
}

// ParsePhase converts a string to a MatchPhase
func ParsePhase(s string) (MatchPhase, bool) {
	for phase, name := range phaseNames {
		if name == s {
			return phase, true
		}
	}
	return PhaseInitializing, false
}
