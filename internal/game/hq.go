package game

import (
	"github.com/mitchelldurbincs/swarmnav/internal/common"
	"github.com/mitchelldurbincs/swarmnav/internal/game/core"
	"github.com/mitchelldurbincs/swarmnav/internal/game/events"
	"github.com/mitchelldurbincs/swarmnav/internal/symmetry"
)

// Rally stages are fractions of the way from home to the enemy base.
const (
	rallyStageNear = 1
	rallyStageFar  = 2
	rallyStages    = 3
)

// hqDuties is the privileged work the home base does before its own actions:
// clear a lock left behind by a dead holder, refresh the unit counts, seed
// the field and publish the symmetry until both have succeeded, and steer
// the team through the attack signal and rally point.
func (m *Match) hqDuties(t *agentTurn) (lockCleared bool) {
	if holder := t.queue.ForceUnlock(); holder != 0 {
		lockCleared = true
		t.logger.Warn().Int32("holder", holder).Msg("Force-cleared frontier lock")
		m.bus.Publish(events.NewLockClearedEvent(m.id, t.team.ID, t.turn, holder))
	}

	m.refreshCounts(t)

	if !t.team.seeded {
		t.team.seeded = t.engine.Seed(core.Tile{})
	}
	if !t.team.published {
		m.publishSymmetry(t)
	}

	m.determineAttackSignal(t)
	m.updateRally(t)
	return lockCleared
}

func (m *Match) refreshCounts(t *agentTurn) {
	ours, theirs := m.world.countUnits(t.team.ID)
	for r := 0; r < core.NumRoles; r++ {
		role := core.Role(r)
		t.sig.SetUnitCount(role, false, ours[r])
		t.sig.SetUnitCount(role, true, theirs[r])
	}
}

func (m *Match) publishSymmetry(t *agentTurn) {
	d := symmetry.Resolve(t.team.evidence)
	symmetry.Publish(t.ch, t.team.Layout, d)
	t.team.published = true

	var candidates []string
	for _, tr := range d.Candidates.Transforms() {
		candidates = append(candidates, tr.String())
	}
	if d.Fallback() {
		t.logger.Warn().Msg("No symmetry matched the structures, assuming rotation")
	} else if len(candidates) > 1 {
		t.logger.Warn().Strs("candidates", candidates).Str("chosen", d.Transform.String()).Msg("Ambiguous map symmetry")
	}
	m.bus.Publish(events.NewSymmetryResolvedEvent(m.id, t.team.ID, d.Transform.String(), candidates, d.Fallback()))
}

// determineAttackSignal switches attack mode on once enough soldiers are
// alive and back off once too few remain.
func (m *Match) determineAttackSignal(t *agentTurn) {
	soldiers := t.sig.UnitCount(core.RoleSoldier, false)
	attacking := t.sig.AttackMode()
	switch {
	case attacking && soldiers <= m.cfg.RetreatThreshold:
		t.sig.SetAttackMode(false)
		t.logger.Info().Int("soldiers", soldiers).Msg("Calling off attack")
	case !attacking && soldiers >= m.cfg.AttackThreshold:
		t.sig.SetAttackMode(true)
		t.logger.Info().Int("soldiers", soldiers).Msg("Signalling attack")
	}
}

// updateRally places the rally point a third of the way to the enemy, and
// moves it to two thirds once enough allies have reported in.
func (m *Match) updateRally(t *agentTurn) {
	if t.sig.AttackMode() {
		t.sig.ClearNextTarget()
		t.sig.SetAdvance(false)
		t.sig.ResetAlliesInPosition()
		return
	}

	in := t.sig.AlliesInPosition()
	if !t.sig.Advance() && in >= common.Max(1, m.cfg.RetreatThreshold) {
		t.sig.SetAdvance(true)
		t.logger.Debug().Int("allies_in_position", in).Msg("Advancing rally point")
	}
	stage := rallyStageNear
	if t.sig.Advance() {
		stage = rallyStageFar
	}
	enemy := t.team.evidence.Enemy
	rally := core.NewTile(enemy.X*stage/rallyStages, enemy.Y*stage/rallyStages)
	if rally != (core.Tile{}) {
		t.sig.SetNextTarget(rally)
	}
	t.sig.ResetAlliesInPosition()
}
