package core

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfBudget   = errors.New("turn budget exhausted")
	ErrNoPath        = errors.New("no traversable direction")
	ErrUnknownAgent  = errors.New("unknown agent")
	ErrAgentRemoved  = errors.New("agent removed")
	ErrInvalidLayout = errors.New("invalid channel layout")
	ErrMatchOver     = errors.New("match is over")
	ErrInvalidMap    = errors.New("invalid map")
	ErrBlocked       = errors.New("destination blocked")
)

// WrapAgentError adds agent context to an error.
// Example: "agent 7 move: destination blocked"
func WrapAgentError(agentID int, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("agent %d %s: %w", agentID, operation, err)
}

// WrapTurnError adds turn and phase context to an error.
// Example: "turn 12 [maintenance]: turn budget exhausted"
func WrapTurnError(turn int, phase string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("turn %d [%s]: %w", turn, phase, err)
}

// MatchError is a structured error carrying turn and agent context.
type MatchError struct {
	Turn      int
	AgentID   int
	Operation string
	Err       error
}

func (e *MatchError) Error() string {
	if e.AgentID > 0 {
		return fmt.Sprintf("turn %d: agent %d %s: %v", e.Turn, e.AgentID, e.Operation, e.Err)
	}
	return fmt.Sprintf("turn %d: %s: %v", e.Turn, e.Operation, e.Err)
}

func (e *MatchError) Unwrap() error {
	return e.Err
}

// NewMatchError creates a structured match error. agentID 0 means no agent.
func NewMatchError(turn, agentID int, operation string, err error) *MatchError {
	return &MatchError{Turn: turn, AgentID: agentID, Operation: operation, Err: err}
}
