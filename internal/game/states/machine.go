package states

import (
	"fmt"
	"sync"
	"time"

	"github.com/mitchelldurbincs/swarmnav/internal/game/events"
)

// State represents a match phase with lifecycle callbacks
type State interface {
	// Phase returns the MatchPhase this state represents
	Phase() MatchPhase

	// Enter is called when transitioning into this state
	Enter(ctx *MatchContext) error

	// Exit is called when transitioning out of this state
	Exit(ctx *MatchContext) error

	// Validate checks if the state can be entered given the context
	Validate(ctx *MatchContext) error
}

// Transition represents a state transition in the history
type Transition struct {
	From      MatchPhase
	To        MatchPhase
	Timestamp time.Time
	Reason    string
}

// StateMachine manages match phase transitions and history
type StateMachine struct {
	mu           sync.RWMutex
	currentPhase MatchPhase
	states       map[MatchPhase]State
	context      *MatchContext
	history      []Transition
	eventBus     events.Publisher
}

// NewStateMachine creates a new state machine. eventBus may be nil.
func NewStateMachine(ctx *MatchContext, eventBus events.Publisher) *StateMachine {
	sm := &StateMachine{
		currentPhase: PhaseInitializing,
		states:       make(map[MatchPhase]State),
		context:      ctx,
		history:      make([]Transition, 0, 8),
		eventBus:     eventBus,
	}

	for _, s := range []State{
		NewInitializingState(),
		NewStartingState(),
		NewRunningState(),
		NewEndingState(),
		NewEndedState(),
		NewErrorState(),
	} {
		sm.states[s.Phase()] = s
	}

	return sm
}

// RegisterState replaces the implementation for a phase
func (sm *StateMachine) RegisterState(state State) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.states[state.Phase()] = state
}

// CurrentPhase returns the current match phase
func (sm *StateMachine) CurrentPhase() MatchPhase {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.currentPhase
}

// TransitionTo attempts to transition to the specified phase
func (sm *StateMachine) TransitionTo(targetPhase MatchPhase, reason string) error {
	sm.mu.Lock()

	if !sm.currentPhase.CanTransitionTo(targetPhase) {
		from := sm.currentPhase
		sm.mu.Unlock()
		return fmt.Errorf("invalid transition from %s to %s", from, targetPhase)
	}

	currentState, hasCurrentState := sm.states[sm.currentPhase]
	targetState, hasTargetState := sm.states[targetPhase]
	if !hasTargetState {
		sm.mu.Unlock()
		return fmt.Errorf("no state implementation for phase %s", targetPhase)
	}

	if err := targetState.Validate(sm.context); err != nil {
		sm.mu.Unlock()
		return fmt.Errorf("target state validation failed: %w", err)
	}

	if hasCurrentState {
		if err := currentState.Exit(sm.context); err != nil {
			// The transition still goes ahead.
			sm.context.Logger.Error().
				Err(err).
				Str("from_phase", sm.currentPhase.String()).
				Str("to_phase", targetPhase.String()).
				Msg("Error exiting state")
		}
	}

	previousPhase := sm.currentPhase
	sm.currentPhase = targetPhase

	if err := targetState.Enter(sm.context); err != nil {
		sm.currentPhase = previousPhase
		sm.mu.Unlock()
		return fmt.Errorf("failed to enter state %s: %w", targetPhase, err)
	}

	sm.history = append(sm.history, Transition{
		From:      previousPhase,
		To:        targetPhase,
		Timestamp: time.Now(),
		Reason:    reason,
	})
	matchID := sm.context.MatchID
	sm.mu.Unlock()

	// Published outside the lock so handlers may query the machine.
	if sm.eventBus != nil {
		sm.eventBus.Publish(events.NewStateTransitionEvent(
			matchID,
			previousPhase.String(),
			targetPhase.String(),
			reason,
		))
	}

	sm.context.Logger.Debug().
		Str("from_phase", previousPhase.String()).
		Str("to_phase", targetPhase.String()).
		Str("reason", reason).
		Msg("State transition completed")

	return nil
}

// Fail moves the machine to PhaseError with err recorded in the context.
// It is a no-op once the machine is terminal.
func (sm *StateMachine) Fail(err error) error {
	sm.mu.Lock()
	if sm.currentPhase.IsTerminal() {
		sm.mu.Unlock()
		return nil
	}
	sm.context.Error = err
	sm.mu.Unlock()
	return sm.TransitionTo(PhaseError, err.Error())
}

// GetHistory returns a copy of the transition history
func (sm *StateMachine) GetHistory() []Transition {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	history := make([]Transition, len(sm.history))
	copy(history, sm.history)
	return history
}

// GetContext returns the match context
func (sm *StateMachine) GetContext() *MatchContext {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.context
}

// CanTransitionTo checks if a transition to the target phase is allowed
func (sm *StateMachine) CanTransitionTo(targetPhase MatchPhase) bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.currentPhase.CanTransitionTo(targetPhase)
}
