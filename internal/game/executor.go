package game

import (
	"context"

	"github.com/mitchelldurbincs/swarmnav/internal/distfield"
	"github.com/mitchelldurbincs/swarmnav/internal/game/core"
	"github.com/mitchelldurbincs/swarmnav/internal/navigation"
	"github.com/mitchelldurbincs/swarmnav/internal/scheduler"
)

// retreatRadius is how close to home a retreating unit stops.
const retreatRadius = 2

// Attempt commits one action. A dead agent, a missing target or a blocked
// move is a plain false so the scheduler moves on to the next candidate.
func (t *agentTurn) Attempt(ctx context.Context, action scheduler.Action) bool {
	if ctx.Err() != nil || !t.m.world.alive(t.a) {
		return false
	}

	switch action.Kind {
	case scheduler.ActionIdle:
		return true
	case scheduler.ActionAttack:
		return t.attack()
	case scheduler.ActionSpawn:
		return t.spawn()
	case scheduler.ActionRetreat:
		if t.position().ChebyshevTo(core.Tile{}) <= retreatRadius {
			return false
		}
		return t.navigate(navigation.Home{Field: t.field}, false)
	case scheduler.ActionScout:
		return t.scout()
	case scheduler.ActionMoveToEnemy:
		d, ok := t.a.sym.Get(t.ch, t.team.Layout)
		if !ok {
			return false
		}
		return t.navigate(navigation.Enemy{Field: t.field, Desc: d}, true)
	case scheduler.ActionMoveTo:
		return t.navigate(navigation.Point{Tile: action.Target}, false)
	case scheduler.ActionRally:
		if t.position().ChebyshevTo(action.Target) <= 1 {
			t.sig.ReportInPosition()
			return true
		}
		return t.navigate(navigation.Point{Tile: action.Target}, false)
	default:
		t.logger.Warn().Str("action", action.String()).Msg("Unknown action kind")
		return false
	}
}

func (t *agentTurn) attack() bool {
	if Stats(t.a.role).Damage == 0 || !t.a.budget.Affords(core.CostAttack) {
		return false
	}
	target, killed := t.m.world.strike(t.a)
	if target == nil {
		return false
	}
	t.a.budget.Charge(core.CostAttack)
	if killed {
		t.logger.Info().Int("target_id", target.id).Str("target_role", target.role.String()).Msg("Destroyed enemy")
		t.m.agentRemoved(target, "destroyed")
	}
	return true
}

func (t *agentTurn) spawn() bool {
	if t.a.role != core.RoleHQ {
		return false
	}
	enemy := t.m.world.teams[1-t.a.team].hq
	at, ok := t.m.world.freeNeighbor(t.m.world.position(t.a), enemy)
	if !ok {
		return false
	}
	role := core.RoleSoldier
	if t.team.spawned%ScoutEvery == ScoutEvery-1 {
		role = core.RoleScout
	}
	if _, err := t.m.spawnAgent(t.a.team, role, at); err != nil {
		t.logger.Debug().Err(err).Msg("Spawn failed")
		return false
	}
	t.team.spawned++
	return true
}

// scout climbs the distance field toward the frontier, and heads for a
// random goal where the field gives no direction.
func (t *agentTurn) scout() bool {
	if !t.a.role.Mobile() {
		return false
	}
	pos := t.position()
	cur := t.field.Read(pos)
	best, bestDist := core.DirNone, cur
	for _, d := range core.AllDirections {
		s := surroundings{t: t, pos: pos}
		if !s.CanMove(d) {
			continue
		}
		nd := t.field.Read(pos.Move(d))
		if nd != distfield.Unknown && nd > bestDist {
			best, bestDist = d, nd
		}
	}
	if best != core.DirNone && cur != distfield.Unknown {
		return t.step(best)
	}

	if !t.a.hasGoal || pos.ChebyshevTo(t.a.scoutGoal) <= 1 {
		t.a.scoutGoal = t.randomGoal()
		t.a.hasGoal = true
	}
	return t.navigate(navigation.Point{Tile: t.a.scoutGoal}, false)
}

func (t *agentTurn) randomGoal() core.Tile {
	b := t.m.world.board
	x := t.a.rng.Intn(b.W)
	y := t.a.rng.Intn(b.H)
	world := core.NewTile(x, y).Add(t.m.world.origin)
	return t.team.Relative(world)
}

func (t *agentTurn) navigate(target navigation.Target, ignoreHostiles bool) bool {
	if !t.a.role.Mobile() || t.a.nav == nil || !t.a.budget.Affords(core.CostMove) {
		return false
	}
	s := surroundings{t: t, pos: t.position(), ignoreHostiles: ignoreHostiles}
	d := t.a.nav.Step(t.turn, s, target)
	if d == core.DirNone {
		return false
	}
	return t.step(d)
}

func (t *agentTurn) step(d core.Direction) bool {
	if !t.a.budget.Affords(core.CostMove) {
		return false
	}
	if err := t.m.world.move(t.a, d); err != nil {
		t.logger.Debug().Err(err).Str("direction", d.String()).Msg("Move failed")
		return false
	}
	t.a.budget.Charge(core.CostMove)
	return true
}
