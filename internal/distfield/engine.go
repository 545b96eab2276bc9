package distfield

import (
	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/swarmnav/internal/frontier"
	"github.com/mitchelldurbincs/swarmnav/internal/game/core"
)

// Sensor reports terrain for home-relative tiles.
type Sensor interface {
	SenseTerrain(t core.Tile) core.Terrain
}

// SensorFunc adapts a function to Sensor.
type SensorFunc func(t core.Tile) core.Terrain

func (f SensorFunc) SenseTerrain(t core.Tile) core.Terrain { return f(t) }

// Mirror maps a tile to its symmetric counterpart once the map symmetry is known.
type Mirror interface {
	Mirror(t core.Tile) (core.Tile, bool)
}

// StepResult describes what one maintenance step did.
type StepResult int

const (
	// StepExpanded means a tile was dequeued and all its neighbours examined.
	StepExpanded StepResult = iota
	// StepDeferred means the tile was put back for a later visit.
	StepDeferred
	// StepIdle means the frontier was empty.
	StepIdle
	// StepLockBusy means the frontier lock could not be taken this attempt.
	StepLockBusy
	// StepOutOfBudget means too little budget remained to start a step.
	StepOutOfBudget
	// StepDropped means the dequeued tile carried no distance and was discarded.
	StepDropped
)

func (r StepResult) String() string {
	switch r {
	case StepExpanded:
		return "expanded"
	case StepDeferred:
		return "deferred"
	case StepIdle:
		return "idle"
	case StepLockBusy:
		return "lock_busy"
	case StepOutOfBudget:
		return "out_of_budget"
	case StepDropped:
		return "dropped"
	default:
		return "unknown"
	}
}

// Progressing reports whether another step this turn could do useful work.
func (r StepResult) Progressing() bool {
	return r == StepExpanded || r == StepDeferred || r == StepDropped
}

// Budget an in-flight step holds back so it can always put its tile back.
const (
	pushCost    = frontier.LockCost + core.CostChannelRead + frontier.EnqueueCost + frontier.UnlockCost + core.CostChannelWrite
	requeueCost = frontier.LockCost + frontier.EnqueueCost + frontier.UnlockCost
	// sense, mirrored sense and the neighbour's distance read
	neighborCost = 2*core.CostSense + core.CostChannelRead + pushCost
	// MinStepCost is the least budget a step needs to make progress.
	MinStepCost = frontier.LockCost + frontier.DequeueCost + frontier.UnlockCost +
		core.CostChannelRead + requeueCost
)

// Engine runs flood-fill maintenance steps for one agent in one turn.
type Engine struct {
	field  *Field
	queue  *frontier.Queue
	sensor Sensor
	mirror Mirror
	budget *core.Budget
	owner  int32
	polls  int
	logger zerolog.Logger

	// Relaxed counts distance writes made by this engine.
	Relaxed int
}

// NewEngine creates an engine. owner is the lock identity of the agent and
// must be non-zero; field and queue should be views over the agent's metered
// channels so that their work is charged to budget.
func NewEngine(field *Field, queue *frontier.Queue, sensor Sensor, budget *core.Budget, owner int32, logger zerolog.Logger) *Engine {
	return &Engine{
		field:  field,
		queue:  queue,
		sensor: sensor,
		budget: budget,
		owner:  owner,
		polls:  frontier.DefaultLockPolls,
		logger: logger.With().Str("component", "distfield").Logger(),
	}
}

// WithMirror enables symmetric inference for tiles the team has not sensed.
func (e *Engine) WithMirror(m Mirror) *Engine {
	e.mirror = m
	return e
}

// WithLockPolls sets how many times a step polls for the frontier lock.
func (e *Engine) WithLockPolls(n int) *Engine {
	if n > 0 {
		e.polls = n
	}
	return e
}

// Seed marks home with distance 1 and queues it. It returns false if the
// lock or queue was unavailable; the caller retries next turn.
func (e *Engine) Seed(home core.Tile) bool {
	if !e.queue.Acquire(e.owner, e.budget, e.polls) {
		return false
	}
	defer e.queue.Unlock(e.owner)

	if !e.queue.Enqueue(home) {
		return false
	}
	e.field.Set(home, 1)
	e.logger.Debug().Str("home", home.String()).Msg("Seeded distance field")
	return true
}

// Step performs one maintenance step: take a tile off the frontier and relax
// its neighbours. Every exit leaves the shared state consistent, so a step
// cut short by budget resumes cleanly on a later turn.
func (e *Engine) Step() StepResult {
	if !e.budget.Affords(MinStepCost) {
		return StepOutOfBudget
	}
	if !e.queue.Acquire(e.owner, e.budget, e.polls) {
		return StepLockBusy
	}
	t, ok := e.queue.Dequeue()
	e.queue.Unlock(e.owner)
	if !ok {
		return StepIdle
	}

	d := e.field.Read(t)
	if d == Unknown {
		e.logger.Debug().Str("tile", t.String()).Msg("Dropping frontier tile without distance")
		return StepDropped
	}

	revisit := false
	for _, dir := range core.AllDirections {
		if !e.budget.Affords(requeueCost + neighborCost) {
			revisit = true
			break
		}
		n := t.Move(dir)
		if !e.field.Covers(n) {
			continue
		}

		switch e.sense(n) {
		case core.TerrainUnknown:
			revisit = true
		case core.TerrainNormal:
			if !Improves(e.field.Read(n), d+1) {
				continue
			}
			if !e.push(n, d+1) {
				revisit = true
			}
		}
	}

	if !revisit {
		return StepExpanded
	}
	if !e.requeue(t) {
		e.logger.Warn().Str("tile", t.String()).Msg("Lost frontier tile")
	}
	return StepDeferred
}

func (e *Engine) sense(t core.Tile) core.Terrain {
	e.budget.Charge(core.CostSense)
	terrain := e.sensor.SenseTerrain(t)
	if terrain != core.TerrainUnknown || e.mirror == nil {
		return terrain
	}
	m, ok := e.mirror.Mirror(t)
	if !ok {
		return terrain
	}
	e.budget.Charge(core.CostSense)
	if mt := e.sensor.SenseTerrain(m); mt != core.TerrainUnknown {
		return mt
	}
	return terrain
}

// push records d for n and queues it under a single lock poll. Distances
// are only written by the lock holder, and only downwards. The distance is
// written only if the tile was queued, so a failed push leaves n eligible
// for a later relaxation.
func (e *Engine) push(n core.Tile, d int) bool {
	if !e.queue.TryLock(e.owner) {
		return false
	}
	defer e.queue.Unlock(e.owner)

	if !Improves(e.field.Read(n), d) {
		return true
	}
	if !e.queue.Enqueue(n) {
		return false
	}
	e.field.Set(n, d)
	e.Relaxed++
	return true
}

func (e *Engine) requeue(t core.Tile) bool {
	if !e.queue.TryLock(e.owner) {
		return false
	}
	defer e.queue.Unlock(e.owner)
	return e.queue.Enqueue(t)
}
