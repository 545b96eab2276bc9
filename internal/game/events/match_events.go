package events

import (
	"time"

	"github.com/mitchelldurbincs/swarmnav/internal/game/core"
)

// Event type constants
const (
	TypeMatchStarted     = "match.started"
	TypeMatchEnded       = "match.ended"
	TypeTurnStarted      = "turn.started"
	TypeTurnEnded        = "turn.ended"
	TypeAgentSpawned     = "agent.spawned"
	TypeAgentRemoved     = "agent.removed"
	TypeSymmetryResolved = "symmetry.resolved"
	TypeLockCleared      = "frontier.lock_cleared"
	TypeStateTransition  = "state.transition"
)

// MatchStartedEvent is published when a match begins
type MatchStartedEvent struct {
	BaseEvent
	Seed      int64  `json:"seed"`
	MapWidth  int    `json:"map_width"`
	MapHeight int    `json:"map_height"`
	Symmetry  string `json:"symmetry"`
}

// NewMatchStartedEvent creates a new MatchStartedEvent
func NewMatchStartedEvent(matchID string, seed int64, width, height int, symmetry string) *MatchStartedEvent {
	return &MatchStartedEvent{
		BaseEvent: newBase(TypeMatchStarted, matchID),
		Seed:      seed,
		MapWidth:  width,
		MapHeight: height,
		Symmetry:  symmetry,
	}
}

// MatchEndedEvent is published when a match ends. Winner is -1 for a draw.
type MatchEndedEvent struct {
	BaseEvent
	Winner    int           `json:"winner"`
	Reason    string        `json:"reason"`
	FinalTurn int           `json:"final_turn"`
	Duration  time.Duration `json:"duration"`
}

// NewMatchEndedEvent creates a new MatchEndedEvent
func NewMatchEndedEvent(matchID string, winner int, reason string, finalTurn int, duration time.Duration) *MatchEndedEvent {
	return &MatchEndedEvent{
		BaseEvent: newBase(TypeMatchEnded, matchID),
		Winner:    winner,
		Reason:    reason,
		FinalTurn: finalTurn,
		Duration:  duration,
	}
}

// TurnStartedEvent is published at the beginning of each turn
type TurnStartedEvent struct {
	BaseEvent
	TurnNumber int `json:"turn"`
}

// NewTurnStartedEvent creates a new TurnStartedEvent
func NewTurnStartedEvent(matchID string, turn int) *TurnStartedEvent {
	return &TurnStartedEvent{
		BaseEvent:  newBase(TypeTurnStarted, matchID),
		TurnNumber: turn,
	}
}

// TeamStats is one team's state at the end of a turn.
type TeamStats struct {
	Team             int  `json:"team"`
	Agents           int  `json:"agents"`
	FrontierSize     int  `json:"frontier_size"`
	ResolvedTiles    int  `json:"resolved_tiles"`
	KnownTiles       int  `json:"known_tiles"`
	MaintenanceSteps int  `json:"maintenance_steps"`
	Relaxed          int  `json:"relaxed"`
	LockCleared      bool `json:"lock_cleared"`
	AttackMode       bool `json:"attack_mode"`
}

// TurnEndedEvent is published at the end of each turn
type TurnEndedEvent struct {
	BaseEvent
	TurnNumber    int           `json:"turn"`
	Teams         []TeamStats   `json:"teams"`
	ProcessedTime time.Duration `json:"processed_time"`
}

// NewTurnEndedEvent creates a new TurnEndedEvent
func NewTurnEndedEvent(matchID string, turn int, teams []TeamStats, processed time.Duration) *TurnEndedEvent {
	return &TurnEndedEvent{
		BaseEvent:     newBase(TypeTurnEnded, matchID),
		TurnNumber:    turn,
		Teams:         teams,
		ProcessedTime: processed,
	}
}

// AgentSpawnedEvent is published when a new agent enters the match
type AgentSpawnedEvent struct {
	BaseEvent
	AgentID  int       `json:"agent_id"`
	Team     int       `json:"team"`
	Role     string    `json:"role"`
	Position core.Tile `json:"position"`
}

// NewAgentSpawnedEvent creates a new AgentSpawnedEvent
func NewAgentSpawnedEvent(matchID string, agentID, team int, role core.Role, pos core.Tile) *AgentSpawnedEvent {
	return &AgentSpawnedEvent{
		BaseEvent: newBase(TypeAgentSpawned, matchID),
		AgentID:   agentID,
		Team:      team,
		Role:      role.String(),
		Position:  pos,
	}
}

// AgentRemovedEvent is published when an agent leaves the match
type AgentRemovedEvent struct {
	BaseEvent
	AgentID int    `json:"agent_id"`
	Team    int    `json:"team"`
	Reason  string `json:"reason"`
}

// NewAgentRemovedEvent creates a new AgentRemovedEvent
func NewAgentRemovedEvent(matchID string, agentID, team int, reason string) *AgentRemovedEvent {
	return &AgentRemovedEvent{
		BaseEvent: newBase(TypeAgentRemoved, matchID),
		AgentID:   agentID,
		Team:      team,
		Reason:    reason,
	}
}

// SymmetryResolvedEvent is published when a team's home base publishes the map symmetry
type SymmetryResolvedEvent struct {
	BaseEvent
	Team       int      `json:"team"`
	Transform  string   `json:"transform"`
	Candidates []string `json:"candidates"`
	Fallback   bool     `json:"fallback"`
}

// NewSymmetryResolvedEvent creates a new SymmetryResolvedEvent
func NewSymmetryResolvedEvent(matchID string, team int, transform string, candidates []string, fallback bool) *SymmetryResolvedEvent {
	return &SymmetryResolvedEvent{
		BaseEvent:  newBase(TypeSymmetryResolved, matchID),
		Team:       team,
		Transform:  transform,
		Candidates: candidates,
		Fallback:   fallback,
	}
}

// LockClearedEvent is published when the turn-boundary force-clear found the
// frontier lock still held.
type LockClearedEvent struct {
	BaseEvent
	Team   int   `json:"team"`
	Turn   int   `json:"turn"`
	Holder int32 `json:"holder"`
}

// NewLockClearedEvent creates a new LockClearedEvent
func NewLockClearedEvent(matchID string, team, turn int, holder int32) *LockClearedEvent {
	return &LockClearedEvent{
		BaseEvent: newBase(TypeLockCleared, matchID),
		Team:      team,
		Turn:      turn,
		Holder:    holder,
	}
}

// StateTransitionEvent is published when the match phase changes
type StateTransitionEvent struct {
	BaseEvent
	From   string `json:"from"`
	To     string `json:"to"`
	Reason string `json:"reason"`
}

// NewStateTransitionEvent creates a new StateTransitionEvent
func NewStateTransitionEvent(matchID, from, to, reason string) *StateTransitionEvent {
	return &StateTransitionEvent{
		BaseEvent: newBase(TypeStateTransition, matchID),
		From:      from,
		To:        to,
		Reason:    reason,
	}
}
