package game

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/swarmnav/internal/channel"
	"github.com/mitchelldurbincs/swarmnav/internal/distfield"
	"github.com/mitchelldurbincs/swarmnav/internal/frontier"
	"github.com/mitchelldurbincs/swarmnav/internal/game/core"
	"github.com/mitchelldurbincs/swarmnav/internal/scheduler"
)

// agentTurn binds one agent to the shared team state for one turn and
// implements scheduler.Agent. Every store access goes through the agent's
// metered view so it is charged to the turn budget.
type agentTurn struct {
	m        *Match
	a        *Agent
	team     *Team
	turn     int
	supplied bool

	ch     *channel.Metered
	field  *distfield.Field
	queue  *frontier.Queue
	sig    *channel.Signals
	engine *distfield.Engine
	logger zerolog.Logger
}

func (m *Match) newAgentTurn(a *Agent, turn int) *agentTurn {
	team := m.world.teams[a.team]
	income := 0
	if a.role == core.RoleHQ {
		income = HQSupplyPerTurn
	}
	supplied := m.world.upkeep(a, income)
	a.budget.Reset(m.cfg.Budgets.For(a.role, supplied))

	logger := a.logger.With().Int("turn", turn).Logger()
	ch := channel.Meter(team.Store, a.budget)
	field := distfield.NewField(ch, team.Layout)
	queue := frontier.New(ch, team.Layout, logger)
	sensor := distfield.SensorFunc(func(rel core.Tile) core.Terrain {
		return m.world.Sense(a.team, rel)
	})
	engine := distfield.NewEngine(field, queue, sensor, a.budget, int32(a.id), logger).
		WithLockPolls(m.cfg.LockPolls)

	t := &agentTurn{
		m:        m,
		a:        a,
		team:     team,
		turn:     turn,
		supplied: supplied,
		ch:       ch,
		field:    field,
		queue:    queue,
		sig:      channel.NewSignals(ch, team.Layout),
		engine:   engine,
		logger:   logger,
	}
	if d, ok := a.sym.Get(ch, team.Layout); ok {
		engine.WithMirror(d)
	}
	return t
}

func (t *agentTurn) ID() int              { return t.a.id }
func (t *agentTurn) Budget() *core.Budget { return t.a.budget }

// position returns the agent's home-relative tile.
func (t *agentTurn) position() core.Tile {
	return t.team.Relative(t.m.world.position(t.a))
}

func (t *agentTurn) Situation() scheduler.Situation {
	w := t.m.world
	stats := Stats(t.a.role)
	s := scheduler.Situation{
		Role:       t.a.role,
		Supplied:   t.supplied,
		AttackMode: t.sig.AttackMode(),
		LowHealth:  w.lowHealth(t.a),
	}
	if stats.Damage > 0 {
		t.a.budget.Charge(core.CostSense)
		s.HostilesInRange = w.hostilesNear(t.a, stats.AttackRadiusSq)
	}
	if t.a.role == core.RoleHQ {
		s.CanSpawn = t.canSpawn()
	}
	if t.a.role.Mobile() {
		s.RallyPoint, s.HasRallyPoint = t.sig.NextTarget()
	}
	return s
}

func (t *agentTurn) canSpawn() bool {
	every := t.m.cfg.SpawnEvery
	if every <= 0 || (t.turn-1)%every != 0 {
		return false
	}
	return t.m.world.mobileCount(t.a.team) < t.m.cfg.UnitsPerTeam
}

// DistributeResources hands supply to the neediest ally in range.
func (t *agentTurn) DistributeResources() {
	if !t.m.world.alive(t.a) {
		return
	}
	t.a.budget.Charge(core.CostSense)
	if amount := t.m.world.shareSupply(t.a); amount > 0 {
		t.logger.Debug().Int("amount", amount).Msg("Transferred supply")
	}
}

// Maintain runs one flood-fill step. A faulted agent takes the frontier lock
// and dies holding it.
func (t *agentTurn) Maintain() distfield.StepResult {
	if t.a.faulted.Load() {
		t.crash()
	}
	return t.engine.Step()
}

func (t *agentTurn) crash() {
	t.queue.Acquire(int32(t.a.id), nil, 1)
	t.m.removeAgent(t.a.id, "fault")
	panic(fmt.Sprintf("agent %d crashed during maintenance", t.a.id))
}

// surroundings is the navigator's view of the board around the agent.
type surroundings struct {
	t              *agentTurn
	pos            core.Tile
	ignoreHostiles bool
}

func (s surroundings) Position() core.Tile { return s.pos }

func (s surroundings) CanMove(d core.Direction) bool {
	s.t.a.budget.Charge(core.CostSense)
	return s.t.m.world.canMove(s.t.a, d)
}

func (s surroundings) InHostileRange(rel core.Tile) bool {
	if s.ignoreHostiles {
		return false
	}
	return s.t.m.world.inHostileRange(s.t.a.team, s.t.team.Absolute(rel))
}
