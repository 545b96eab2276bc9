package states

import (
	"fmt"
	"time"
)

type InitializingState struct{}

func NewInitializingState() State { return &InitializingState{} }

func (s *InitializingState) Phase() MatchPhase { return PhaseInitializing }

func (s *InitializingState) Enter(ctx *MatchContext) error {
	ctx.Logger.Debug().Msg("Entering Initializing state")
	return nil
}

func (s *InitializingState) Exit(ctx *MatchContext) error { return nil }

func (s *InitializingState) Validate(ctx *MatchContext) error { return nil }

// StartingState covers map generation and agent placement
type StartingState struct{}

func NewStartingState() State { return &StartingState{} }

func (s *StartingState) Phase() MatchPhase { return PhaseStarting }

func (s *StartingState) Enter(ctx *MatchContext) error {
	ctx.Logger.Info().Msg("Setting up match")
	return nil
}

func (s *StartingState) Exit(ctx *MatchContext) error {
	ctx.Logger.Debug().
		Int("teams", ctx.Teams).
		Int("agents", ctx.Agents).
		Msg("Match setup complete")
	return nil
}

func (s *StartingState) Validate(ctx *MatchContext) error {
	if ctx.MaxTurns < 1 {
		return fmt.Errorf("max turns must be at least 1, got %d", ctx.MaxTurns)
	}
	return nil
}

// RunningState represents the turn loop
type RunningState struct{}

func NewRunningState() State { return &RunningState{} }

func (s *RunningState) Phase() MatchPhase { return PhaseRunning }

func (s *RunningState) Enter(ctx *MatchContext) error {
	ctx.StartTime = time.Now()
	ctx.Logger.Info().
		Int("teams", ctx.Teams).
		Int("agents", ctx.Agents).
		Int("max_turns", ctx.MaxTurns).
		Msg("Match started")
	return nil
}

func (s *RunningState) Exit(ctx *MatchContext) error {
	ctx.Logger.Info().
		Int("turn", ctx.Turn).
		Dur("elapsed", ctx.Elapsed()).
		Msg("Turn loop stopped")
	return nil
}

func (s *RunningState) Validate(ctx *MatchContext) error {
	if ctx.Teams < 2 {
		return fmt.Errorf("cannot run a match with %d teams", ctx.Teams)
	}
	if ctx.Agents < ctx.Teams {
		return fmt.Errorf("every team needs a home base: %d agents for %d teams", ctx.Agents, ctx.Teams)
	}
	return nil
}

// EndingState records the result before the match is closed
type EndingState struct{}

func NewEndingState() State { return &EndingState{} }

func (s *EndingState) Phase() MatchPhase { return PhaseEnding }

func (s *EndingState) Enter(ctx *MatchContext) error {
	ctx.EndTime = time.Now()
	ctx.Logger.Info().
		Int("winner", ctx.Winner).
		Str("reason", ctx.EndReason).
		Msg("Match ending")
	return nil
}

func (s *EndingState) Exit(ctx *MatchContext) error { return nil }

func (s *EndingState) Validate(ctx *MatchContext) error {
	if !ctx.Decided() {
		return fmt.Errorf("ending state requires a winner or an end reason")
	}
	return nil
}

type EndedState struct{}

func NewEndedState() State { return &EndedState{} }

func (s *EndedState) Phase() MatchPhase { return PhaseEnded }

func (s *EndedState) Enter(ctx *MatchContext) error {
	ctx.Logger.Info().
		Int("winner", ctx.Winner).
		Int("final_turn", ctx.Turn).
		Dur("match_duration", ctx.Elapsed()).
		Msg("Match ended")
	return nil
}

func (s *EndedState) Exit(ctx *MatchContext) error { return nil }

func (s *EndedState) Validate(ctx *MatchContext) error { return nil }

// ErrorState represents a failed match
type ErrorState struct{}

func NewErrorState() State { return &ErrorState{} }

func (s *ErrorState) Phase() MatchPhase { return PhaseError }

func (s *ErrorState) Enter(ctx *MatchContext) error {
	if ctx.EndTime.IsZero() {
		ctx.EndTime = time.Now()
	}
	ctx.Logger.Error().
		Err(ctx.Error).
		Int("turn", ctx.Turn).
		Msg("Match entered error state")
	return nil
}

func (s *ErrorState) Exit(ctx *MatchContext) error { return nil }

func (s *ErrorState) Validate(ctx *MatchContext) error {
	if ctx.Error == nil {
		return fmt.Errorf("error state requires an error in context")
	}
	return nil
}
