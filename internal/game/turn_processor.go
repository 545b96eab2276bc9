package game

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/mitchelldurbincs/swarmnav/internal/game/core"
	"github.com/mitchelldurbincs/swarmnav/internal/game/events"
	"github.com/mitchelldurbincs/swarmnav/internal/game/states"
	"github.com/mitchelldurbincs/swarmnav/internal/scheduler"
)

// TurnProcessor handles the orchestration of a single turn
type TurnProcessor struct {
	match  *Match
	logger zerolog.Logger
}

// NewTurnProcessor creates a new turn processor
func NewTurnProcessor(m *Match) *TurnProcessor {
	return &TurnProcessor{
		match:  m,
		logger: m.logger,
	}
}

// turnTally accumulates per-team work across the agents of one turn.
type turnTally struct {
	mu          sync.Mutex
	steps       [2]int
	relaxed     [2]int
	lockCleared [2]bool
	panicked    int
}

func (t *turnTally) add(team int, r scheduler.TurnReport, relaxed int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.steps[team] += r.MaintenanceSteps()
	t.relaxed[team] += relaxed
	if r.Panicked {
		t.panicked++
	}
}

// ProcessTurn executes a complete turn: both home bases first, then every
// other agent in a shuffled order.
func (tp *TurnProcessor) ProcessTurn(ctx context.Context) error {
	m := tp.match
	if err := tp.checkContext(ctx, "before starting"); err != nil {
		return err
	}
	if err := tp.validateMatchState(); err != nil {
		return err
	}

	m.mu.Lock()
	m.turn++
	turn := m.turn
	m.mu.Unlock()
	m.sm.GetContext().Turn = turn

	turnLogger := tp.logger.With().Int("turn", turn).Logger()
	turnLogger.Debug().Msg("Starting turn")
	turnStart := time.Now()
	m.bus.Publish(events.NewTurnStartedEvent(m.id, turn))

	tp.injectFaults()
	tally := &turnTally{}

	tp.processHQPhase(ctx, turn, tally)

	if err := tp.processUnitPhase(ctx, turn, tally); err != nil {
		return core.WrapTurnError(turn, "units", err)
	}

	if err := tp.checkContext(ctx, "before end of turn"); err != nil {
		return core.WrapTurnError(turn, "end of turn", err)
	}
	tp.processEndOfTurnPhase(turn, tally, time.Since(turnStart))

	turnLogger.Debug().Int("panicked", tally.panicked).Msg("Turn finished")
	return nil
}

// checkContext checks if the context is cancelled
func (tp *TurnProcessor) checkContext(ctx context.Context, phase string) error {
	select {
	case <-ctx.Done():
		tp.logger.Warn().
			Err(ctx.Err()).
			Int("turn", tp.match.Turn()).
			Str("phase", phase).
			Msg("Turn cancelled or timed out")
		return ctx.Err()
	default:
		return nil
	}
}

// validateMatchState ensures the match can run another turn
func (tp *TurnProcessor) validateMatchState() error {
	phase := tp.match.sm.CurrentPhase()
	if phase.IsTerminal() {
		return core.WrapTurnError(tp.match.Turn(), "step", core.ErrMatchOver)
	}
	if !phase.AcceptsTurns() {
		tp.logger.Warn().Str("current_phase", phase.String()).Msg("Attempted to step match in phase that cannot run turns")
		return fmt.Errorf("match is in %s phase and cannot run turns", phase)
	}
	return nil
}

func (tp *TurnProcessor) injectFaults() {
	m := tp.match
	if m.cfg.FaultRate <= 0 {
		return
	}
	for _, id := range m.world.agentIDs() {
		a, ok := m.world.agent(id)
		if !ok || !a.role.Mobile() {
			continue
		}
		if m.rng.Float64() < m.cfg.FaultRate {
			a.faulted.Store(true)
		}
	}
}

// processHQPhase runs the home bases, alternating which team goes first.
func (tp *TurnProcessor) processHQPhase(ctx context.Context, turn int, tally *turnTally) {
	m := tp.match
	order := [2]int{0, 1}
	if turn%2 == 0 {
		order = [2]int{1, 0}
	}
	for _, team := range order {
		a, ok := m.world.agent(m.world.teams[team].hqID)
		if !ok {
			continue
		}
		t := m.newAgentTurn(a, turn)
		if m.hqDuties(t) {
			tally.lockCleared[team] = true
		}
		report := m.scheduler.RunTurn(ctx, turn, t)
		tally.add(team, report, t.engine.Relaxed)
	}
}

// processUnitPhase runs every other agent, concurrently when configured.
func (tp *TurnProcessor) processUnitPhase(ctx context.Context, turn int, tally *turnTally) error {
	m := tp.match
	ids := make([]int, 0)
	for _, id := range m.world.agentIDs() {
		if a, ok := m.world.agent(id); ok && a.role != core.RoleHQ {
			ids = append(ids, id)
		}
	}
	m.rng.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })

	run := func(ctx context.Context, id int) {
		a, ok := m.world.agent(id)
		if !ok {
			return
		}
		t := m.newAgentTurn(a, turn)
		report := m.scheduler.RunTurn(ctx, turn, t)
		tally.add(a.team, report, t.engine.Relaxed)
	}

	if !m.cfg.ParallelAgents {
		for _, id := range ids {
			if err := tp.checkContext(ctx, "units"); err != nil {
				return err
			}
			run(ctx, id)
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, id := range ids {
		id := id
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			run(gctx, id)
			return nil
		})
	}
	return g.Wait()
}

// processEndOfTurnPhase records statistics and checks whether the match is over
func (tp *TurnProcessor) processEndOfTurnPhase(turn int, tally *turnTally, elapsed time.Duration) {
	m := tp.match
	stats := tp.teamStats(tally)

	m.mu.Lock()
	m.stats = stats
	m.mu.Unlock()
	m.bus.Publish(events.NewTurnEndedEvent(m.id, turn, stats, elapsed))

	if winner, reason := m.world.Winner(); winner != states.NoWinner {
		m.finish(turn, winner, reason)
		return
	}
	if turn >= m.cfg.MaxTurns {
		m.finish(turn, states.NoWinner, "max turns reached")
	}
}
