package game

import (
	"math/rand"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/swarmnav/internal/game/core"
	"github.com/mitchelldurbincs/swarmnav/internal/navigation"
	"github.com/mitchelldurbincs/swarmnav/internal/symmetry"
)

// Agent is one unit or structure. Position, health, supply and liveness are
// guarded by the World lock; the rest belongs to the agent's own turn.
type Agent struct {
	id   int
	team int
	role core.Role

	pos    core.Tile
	health int
	supply int
	alive  bool

	faulted atomic.Bool

	budget    *core.Budget
	nav       *navigation.Navigator
	sym       symmetry.Cache
	rng       *rand.Rand
	scoutGoal core.Tile
	hasGoal   bool
	logger    zerolog.Logger
}

func newAgent(id, team int, role core.Role, pos core.Tile, seed int64, navOpts navigation.Options, logger zerolog.Logger) *Agent {
	rng := rand.New(rand.NewSource(seed))
	agentLogger := logger.With().Int("agent_id", id).Int("team", team).Str("role", role.String()).Logger()
	a := &Agent{
		id:     id,
		team:   team,
		role:   role,
		pos:    pos,
		health: Stats(role).MaxHealth,
		budget: core.NewBudget(0),
		rng:    rng,
		logger: agentLogger,
	}
	if role.Mobile() {
		a.supply = SpawnSupply
		a.nav = navigation.New(navOpts, rng, agentLogger)
	}
	return a
}

func (a *Agent) ID() int         { return a.id }
func (a *Agent) Team() int       { return a.team }
func (a *Agent) Role() core.Role { return a.role }

// Faulted reports whether the agent will crash during its next maintenance.
func (a *Agent) Faulted() bool { return a.faulted.Load() }

func (w *World) position(a *Agent) core.Tile {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return a.pos
}

func (w *World) alive(a *Agent) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return a.alive
}

func (w *World) lowHealth(a *Agent) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return a.health*10 < Stats(a.role).MaxHealth*3
}
