package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/swarmnav/internal/channel"
	"github.com/mitchelldurbincs/swarmnav/internal/config"
	"github.com/mitchelldurbincs/swarmnav/internal/frontier"
	"github.com/mitchelldurbincs/swarmnav/internal/game/core"
	"github.com/mitchelldurbincs/swarmnav/internal/game/events"
	"github.com/mitchelldurbincs/swarmnav/internal/game/mapgen"
	"github.com/mitchelldurbincs/swarmnav/internal/game/states"
	"github.com/mitchelldurbincs/swarmnav/internal/navigation"
	"github.com/mitchelldurbincs/swarmnav/internal/scheduler"
	"github.com/mitchelldurbincs/swarmnav/internal/symmetry"
)

// originSpread bounds the random offset between board and world coordinates.
const originSpread = 500

// Budgets are the per-turn compute allowances by role and supply.
type Budgets struct {
	HQ         int
	Unit       int
	Unsupplied int
}

// For returns the allowance for one agent turn.
func (b Budgets) For(role core.Role, supplied bool) int {
	switch {
	case role == core.RoleHQ:
		return b.HQ
	case !role.Mobile() || supplied:
		return b.Unit
	default:
		return b.Unsupplied
	}
}

// MatchConfig configures a match. Zero values are filled from
// DefaultMatchConfig.
type MatchConfig struct {
	MatchID      string
	Width        int
	Height       int
	Seed         int64
	MaxTurns     int
	UnitsPerTeam int
	SpawnEvery   int
	// Symmetry names the map transform; empty picks one at random.
	Symmetry         string
	WallDensity      float64
	Towers           int
	SensorRadius     int
	AttackThreshold  int
	RetreatThreshold int
	ParallelAgents   bool
	// FaultRate is the chance per turn that a unit crashes mid-maintenance.
	FaultRate float64

	Budgets    Budgets
	Layout     channel.Layout
	LockPolls  int
	Navigation navigation.Options
	Policy     scheduler.PolicyTable

	// Map, when set, is used instead of generating one.
	Map      *mapgen.Map
	EventBus *events.EventBus
	Logger   zerolog.Logger
}

// DefaultMatchConfig returns the settings used when nothing is configured.
func DefaultMatchConfig() MatchConfig {
	return MatchConfig{
		Width:            40,
		Height:           40,
		MaxTurns:         500,
		UnitsPerTeam:     6,
		SpawnEvery:       10,
		WallDensity:      0.2,
		Towers:           3,
		SensorRadius:     4,
		AttackThreshold:  4,
		RetreatThreshold: 2,
		Budgets: Budgets{
			HQ:         core.BudgetHQ,
			Unit:       core.BudgetUnit,
			Unsupplied: core.BudgetUnsupplied,
		},
		Layout:     channel.DefaultLayout(),
		LockPolls:  frontier.DefaultLockPolls,
		Navigation: navigation.DefaultOptions(),
		Policy:     scheduler.DefaultPolicy(),
		Logger:     zerolog.Nop(),
	}
}

// MatchConfigFromConfig translates loaded configuration into match settings.
func MatchConfigFromConfig(c *config.Config, logger zerolog.Logger) (MatchConfig, error) {
	layout, err := channel.NewLayout(c.Channels.MaxMapWidth, c.Channels.MaxMapHeight, c.Channels.QueueCapacity)
	if err != nil {
		return MatchConfig{}, err
	}
	mc := DefaultMatchConfig()
	mc.Width = c.Match.Width
	mc.Height = c.Match.Height
	mc.Seed = c.Match.Seed
	mc.MaxTurns = c.Match.MaxTurns
	mc.UnitsPerTeam = c.Match.UnitsPerTeam
	mc.SpawnEvery = c.Match.SpawnEvery
	mc.Symmetry = c.Match.Symmetry
	mc.WallDensity = c.Match.WallDensity
	mc.Towers = c.Match.Towers
	mc.SensorRadius = c.Match.SensorRadius
	mc.AttackThreshold = c.Match.AttackThreshold
	mc.RetreatThreshold = c.Match.RetreatThreshold
	mc.ParallelAgents = c.Match.ParallelAgents
	mc.FaultRate = c.Match.FaultRate
	mc.Budgets = Budgets{HQ: c.Budget.HQ, Unit: c.Budget.Unit, Unsupplied: c.Budget.Unsupplied}
	mc.Layout = layout
	mc.LockPolls = c.Channels.LockPollLimit
	mc.Navigation = navigation.Options{
		HistorySize:    c.Navigation.HistorySize,
		AvoidHostiles:  c.Navigation.AvoidHostiles,
		MaxFollowSteps: c.Navigation.MaxFollowSteps,
	}
	mc.Logger = logger
	return mc, nil
}

func (c *MatchConfig) applyDefaults() {
	d := DefaultMatchConfig()
	if c.Width <= 0 {
		c.Width = d.Width
	}
	if c.Height <= 0 {
		c.Height = d.Height
	}
	if c.MaxTurns <= 0 {
		c.MaxTurns = d.MaxTurns
	}
	if c.SensorRadius <= 0 {
		c.SensorRadius = d.SensorRadius
	}
	if c.Budgets == (Budgets{}) {
		c.Budgets = d.Budgets
	}
	if c.Layout.Size() == 0 {
		c.Layout = d.Layout
	}
	if c.LockPolls <= 0 {
		c.LockPolls = d.LockPolls
	}
	if c.Navigation == (navigation.Options{}) {
		c.Navigation = d.Navigation
	}
	if c.Policy == nil {
		c.Policy = d.Policy
	}
}

// Result summarises a finished match.
type Result struct {
	MatchID  string             `json:"match_id"`
	Winner   int                `json:"winner"`
	Reason   string             `json:"reason"`
	Turns    int                `json:"turns"`
	Duration time.Duration      `json:"duration"`
	Teams    []events.TeamStats `json:"teams"`
}

// Match runs two teams against each other on one map, one turn at a time.
type Match struct {
	id        string
	cfg       MatchConfig
	gameMap   *mapgen.Map
	world     *World
	rng       *rand.Rand
	scheduler *scheduler.Scheduler
	bus       *events.EventBus
	sm        *states.StateMachine
	processor *TurnProcessor
	logger    zerolog.Logger

	mu    sync.RWMutex
	turn  int
	stats []events.TeamStats
}

// NewMatch builds the map, places both bases and their towers, and leaves the
// match ready for its first turn.
func NewMatch(cfg MatchConfig) (*Match, error) {
	cfg.applyDefaults()

	id := cfg.MatchID
	if id == "" {
		id = uuid.NewString()
	}
	logger := cfg.Logger.With().Str("match_id", id).Logger()
	rng := rand.New(rand.NewSource(cfg.Seed))

	gameMap := cfg.Map
	if gameMap == nil {
		var err error
		if gameMap, err = generateMap(cfg, rng); err != nil {
			return nil, err
		}
	}
	if gameMap.Board.W > cfg.Layout.MaxWidth() || gameMap.Board.H > cfg.Layout.MaxHeight() {
		return nil, fmt.Errorf("%w: %dx%d board does not fit the %dx%d channel layout",
			core.ErrInvalidMap, gameMap.Board.W, gameMap.Board.H, cfg.Layout.MaxWidth(), cfg.Layout.MaxHeight())
	}

	bus := cfg.EventBus
	if bus == nil {
		bus = events.NewEventBus()
	}

	origin := core.NewTile(rng.Intn(2*originSpread+1)-originSpread, rng.Intn(2*originSpread+1)-originSpread)
	m := &Match{
		id:        id,
		cfg:       cfg,
		gameMap:   gameMap,
		world:     newWorld(gameMap, origin, cfg.SensorRadius, cfg.Layout),
		rng:       rng,
		scheduler: scheduler.New(cfg.Policy, logger),
		bus:       bus,
		logger:    logger,
	}
	m.processor = NewTurnProcessor(m)

	mctx := states.NewMatchContext(id, cfg.MaxTurns, logger)
	m.sm = states.NewStateMachine(mctx, bus)
	if err := m.sm.TransitionTo(states.PhaseStarting, "match created"); err != nil {
		return nil, err
	}

	if err := m.placeStructures(); err != nil {
		_ = m.sm.Fail(err)
		return nil, err
	}
	mctx.Teams = len(m.world.teams)
	mctx.Agents = len(m.world.agentIDs())
	if err := m.sm.TransitionTo(states.PhaseRunning, "structures placed"); err != nil {
		return nil, err
	}

	bus.Publish(events.NewMatchStartedEvent(id, cfg.Seed, gameMap.Board.W, gameMap.Board.H, gameMap.Symmetry.String()))
	logger.Info().
		Int("width", gameMap.Board.W).
		Int("height", gameMap.Board.H).
		Str("symmetry", gameMap.Symmetry.String()).
		Int64("seed", cfg.Seed).
		Msg("Match started")
	return m, nil
}

func generateMap(cfg MatchConfig, rng *rand.Rand) (*mapgen.Map, error) {
	var transform symmetry.Transform
	if cfg.Symmetry != "" {
		t, ok := symmetry.ParseTransform(cfg.Symmetry)
		if !ok {
			return nil, fmt.Errorf("%w: unknown symmetry %q", core.ErrInvalidMap, cfg.Symmetry)
		}
		transform = t
	} else {
		choices := []symmetry.Transform{symmetry.Rotation, symmetry.HorizontalReflection, symmetry.VerticalReflection}
		if cfg.Width == cfg.Height {
			choices = symmetry.Priority[:]
		}
		transform = choices[rng.Intn(len(choices))]
	}

	mapCfg := mapgen.DefaultMapConfig(cfg.Width, cfg.Height, transform)
	mapCfg.WallDensity = cfg.WallDensity
	mapCfg.TowerPairs = cfg.Towers
	return mapgen.NewGenerator(mapCfg, rng).GenerateMap()
}

func (m *Match) placeStructures() error {
	for team := range m.world.teams {
		if _, err := m.spawnAgent(team, core.RoleHQ, m.gameMap.HQs[team].Add(m.world.origin)); err != nil {
			return err
		}
		for _, t := range m.gameMap.Towers[team] {
			if _, err := m.spawnAgent(team, core.RoleTower, t.Add(m.world.origin)); err != nil {
				return err
			}
		}
	}
	return nil
}

// spawnAgent creates an agent at a world tile.
func (m *Match) spawnAgent(team int, role core.Role, at core.Tile) (*Agent, error) {
	id := m.world.allocID()
	a := newAgent(id, team, role, at, m.rng.Int63(), m.cfg.Navigation, m.logger)
	if err := m.world.place(a); err != nil {
		return nil, err
	}
	m.bus.Publish(events.NewAgentSpawnedEvent(m.id, id, team, role, at))
	return a, nil
}

func (m *Match) removeAgent(id int, reason string) error {
	a, err := m.world.remove(id)
	if err != nil {
		return err
	}
	m.agentRemoved(a, reason)
	return nil
}

func (m *Match) agentRemoved(a *Agent, reason string) {
	m.logger.Info().Int("agent_id", a.id).Int("team", a.team).Str("role", a.role.String()).Str("reason", reason).Msg("Agent removed")
	m.bus.Publish(events.NewAgentRemovedEvent(m.id, a.id, a.team, reason))
}

// RemoveAgent takes an agent out of the match between turns. If it held its
// team's frontier lock, the lock stays held until the next turn boundary.
func (m *Match) RemoveAgent(id int) error {
	return m.removeAgent(id, "removed")
}

// InjectFault makes an agent crash during its next maintenance step while
// holding the frontier lock.
func (m *Match) InjectFault(id int) error {
	a, ok := m.world.agent(id)
	if !ok {
		return core.WrapAgentError(id, "inject fault", core.ErrUnknownAgent)
	}
	a.faulted.Store(true)
	return nil
}

// Step runs one turn.
func (m *Match) Step(ctx context.Context) error {
	return m.processor.ProcessTurn(ctx)
}

// Run plays turns until the match ends or ctx is done.
func (m *Match) Run(ctx context.Context) (Result, error) {
	for !m.IsOver() {
		if err := m.Step(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				_ = m.sm.Fail(err)
			}
			return m.Result(), err
		}
	}
	return m.Result(), nil
}

func (m *Match) finish(turn, winner int, reason string) {
	mctx := m.sm.GetContext()
	mctx.Turn = turn
	mctx.Winner = winner
	mctx.EndReason = reason
	if err := m.sm.TransitionTo(states.PhaseEnding, reason); err != nil {
		m.logger.Error().Err(err).Msg("Failed to enter ending phase")
		return
	}
	if err := m.sm.TransitionTo(states.PhaseEnded, "match complete"); err != nil {
		m.logger.Error().Err(err).Msg("Failed to enter ended phase")
		return
	}
	m.bus.Publish(events.NewMatchEndedEvent(m.id, winner, reason, turn, mctx.Elapsed()))
	m.logger.Info().Int("winner", winner).Str("reason", reason).Int("turns", turn).Msg("Match ended")
}

func (m *Match) ID() string                   { return m.id }
func (m *Match) World() *World                { return m.world }
func (m *Match) Map() *mapgen.Map             { return m.gameMap }
func (m *Match) EventBus() *events.EventBus   { return m.bus }
func (m *Match) Phase() states.MatchPhase     { return m.sm.CurrentPhase() }
func (m *Match) History() []states.Transition { return m.sm.GetHistory() }

// IsOver reports whether no more turns will run.
func (m *Match) IsOver() bool { return m.sm.CurrentPhase().IsTerminal() }

// Turn returns the last completed turn.
func (m *Match) Turn() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.turn
}

// Stats returns the per-team statistics of the last completed turn.
func (m *Match) Stats() []events.TeamStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]events.TeamStats(nil), m.stats...)
}

// Result summarises the match so far.
func (m *Match) Result() Result {
	mctx := m.sm.GetContext()
	winner, reason := m.world.Winner()
	if mctx.EndReason != "" {
		reason = mctx.EndReason
	}
	return Result{
		MatchID:  m.id,
		Winner:   winner,
		Reason:   reason,
		Turns:    m.Turn(),
		Duration: mctx.Elapsed(),
		Teams:    m.Stats(),
	}
}
