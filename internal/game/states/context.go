package states

import (
	"time"

	"github.com/rs/zerolog"
)

// NoWinner marks a match that ended without a winning team.
const NoWinner = -1

// MatchContext carries the match facts that states check and update
type MatchContext struct {
	MatchID string
	Logger  zerolog.Logger

	// Teams and Agents are filled in during PhaseStarting
	Teams  int
	Agents int

	Turn     int
	MaxTurns int

	StartTime time.Time
	EndTime   time.Time

	Winner    int
	EndReason string

	// Error holds the failure that caused the transition to PhaseError
	Error error
}

// NewMatchContext creates a new match context
func NewMatchContext(matchID string, maxTurns int, logger zerolog.Logger) *MatchContext {
	return &MatchContext{
		MatchID:  matchID,
		MaxTurns: maxTurns,
		Logger:   logger.With().Str("match_id", matchID).Logger(),
		Winner:   NoWinner,
	}
}

// Elapsed returns the running time of the match. It stops advancing once the
// match has ended.
func (mc *MatchContext) Elapsed() time.Duration {
	if mc.StartTime.IsZero() {
		return 0
	}
	if !mc.EndTime.IsZero() {
		return mc.EndTime.Sub(mc.StartTime)
	}
	return time.Since(mc.StartTime)
}

// Decided reports whether the match has a winner or an end reason.
func (mc *MatchContext) Decided() bool {
	return mc.Winner != NoWinner || mc.EndReason != ""
}
