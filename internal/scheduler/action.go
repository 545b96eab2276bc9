// Package scheduler runs one agent's turn: pick actions from a per-role
// policy table, commit the first that succeeds, hand out resources, and
// spend what is left of the budget on distance-field maintenance.
package scheduler

import (
	"fmt"

	"github.com/mitchelldurbincs/swarmnav/internal/game/core"
)

// ActionKind is the closed set of things an agent may try in a turn.
type ActionKind uint8

const (
	ActionIdle ActionKind = iota
	ActionAttack
	ActionSpawn
	ActionRetreat
	ActionScout
	ActionMoveToEnemy
	ActionMoveTo
	ActionRally
)

var actionNames = map[ActionKind]string{
	ActionIdle:        "idle",
	ActionAttack:      "attack",
	ActionSpawn:       "spawn",
	ActionRetreat:     "retreat",
	ActionScout:       "scout",
	ActionMoveToEnemy: "move_to_enemy",
	ActionMoveTo:      "move_to",
	ActionRally:       "rally",
}

func (k ActionKind) String() string {
	if name, ok := actionNames[k]; ok {
		return name
	}
	return "unknown"
}

// Action is one candidate step. Target is only meaningful for ActionMoveTo
// and ActionRally.
type Action struct {
	Kind   ActionKind
	Target core.Tile
}

// MoveTo builds a move toward a specific tile.
func MoveTo(t core.Tile) Action {
	return Action{Kind: ActionMoveTo, Target: t}
}

func (a Action) String() string {
	if a.Kind == ActionMoveTo || a.Kind == ActionRally {
		return fmt.Sprintf("%s%s", a.Kind, a.Target)
	}
	return a.Kind.String()
}
