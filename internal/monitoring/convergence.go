// Package monitoring tracks how a team's distance field is converging over a
// match and warns when it stalls.
package monitoring

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/swarmnav/internal/channel"
	"github.com/mitchelldurbincs/swarmnav/internal/distfield"
	"github.com/mitchelldurbincs/swarmnav/internal/game/core"
	"github.com/mitchelldurbincs/swarmnav/internal/game/events"
)

// DefaultStallTurns is how many turns without a new resolved tile, with a
// non-empty frontier, count as a stall.
const DefaultStallTurns = 25

// FieldCoverage counts distance channels that hold a value and reads the
// frontier size straight from the store, without charging any budget.
func FieldCoverage(ch channel.Channels, l channel.Layout) (resolved, frontier int) {
	for y := -l.MaxHeight(); y <= l.MaxHeight(); y++ {
		for x := -l.MaxWidth(); x <= l.MaxWidth(); x++ {
			c, _ := l.DistanceChannel(core.NewTile(x, y))
			if ch.Get(c) != distfield.Unknown {
				resolved++
			}
		}
	}
	frontier = int(ch.Get(l.QueueSizeChannel()))
	return resolved, frontier
}

// TeamMetrics is the convergence state of one team.
type TeamMetrics struct {
	Team          int  `json:"team"`
	Resolved      int  `json:"resolved"`
	Frontier      int  `json:"frontier"`
	PeakFrontier  int  `json:"peak_frontier"`
	LockClears    int  `json:"lock_clears"`
	LastProgress  int  `json:"last_progress_turn"`
	Stalled       bool `json:"stalled"`
	StallWarnings int  `json:"stall_warnings"`
}

// ConvergenceMonitor is an event subscriber that follows turn.ended and
// frontier.lock_cleared events.
type ConvergenceMonitor struct {
	mu         sync.RWMutex
	teams      map[int]*TeamMetrics
	stallTurns int
	turn       int
	logger     zerolog.Logger
}

// NewConvergenceMonitor creates a monitor. stallTurns <= 0 selects
// DefaultStallTurns.
func NewConvergenceMonitor(stallTurns int, logger zerolog.Logger) *ConvergenceMonitor {
	if stallTurns <= 0 {
		stallTurns = DefaultStallTurns
	}
	return &ConvergenceMonitor{
		teams:      make(map[int]*TeamMetrics),
		stallTurns: stallTurns,
		logger:     logger.With().Str("component", "convergence_monitor").Logger(),
	}
}

func (cm *ConvergenceMonitor) ID() string { return "convergence_monitor" }

func (cm *ConvergenceMonitor) InterestedIn(eventType string) bool {
	return eventType == events.TypeTurnEnded || eventType == events.TypeLockCleared
}

func (cm *ConvergenceMonitor) HandleEvent(e events.Event) {
	switch ev := e.(type) {
	case *events.TurnEndedEvent:
		cm.observeTurn(ev)
	case *events.LockClearedEvent:
		cm.mu.Lock()
		cm.team(ev.Team).LockClears++
		cm.mu.Unlock()
	}
}

// team returns the metrics for id, creating them. Callers hold mu.
func (cm *ConvergenceMonitor) team(id int) *TeamMetrics {
	tm, ok := cm.teams[id]
	if !ok {
		tm = &TeamMetrics{Team: id}
		cm.teams[id] = tm
	}
	return tm
}

func (cm *ConvergenceMonitor) observeTurn(ev *events.TurnEndedEvent) {
	type alert struct {
		team, resolved, frontier, since int
	}
	var alerts []alert

	cm.mu.Lock()
	cm.turn = ev.TurnNumber
	for _, ts := range ev.Teams {
		tm := cm.team(ts.Team)
		if ts.ResolvedTiles > tm.Resolved {
			tm.LastProgress = ev.TurnNumber
			tm.Stalled = false
		}
		tm.Resolved = ts.ResolvedTiles
		tm.Frontier = ts.FrontierSize
		if ts.FrontierSize > tm.PeakFrontier {
			tm.PeakFrontier = ts.FrontierSize
		}

		stalled := ts.FrontierSize > 0 && ev.TurnNumber-tm.LastProgress >= cm.stallTurns
		if stalled && !tm.Stalled {
			tm.StallWarnings++
			alerts = append(alerts, alert{ts.Team, tm.Resolved, tm.Frontier, tm.LastProgress})
		}
		tm.Stalled = stalled
	}
	cm.mu.Unlock()

	for _, a := range alerts {
		cm.logger.Warn().
			Int("team", a.team).
			Int("turn", ev.TurnNumber).
			Int("resolved", a.resolved).
			Int("frontier", a.frontier).
			Int("last_progress_turn", a.since).
			Msg("Distance field stopped converging")
	}
}

// GetMetrics returns a copy of every team's metrics ordered by team id.
func (cm *ConvergenceMonitor) GetMetrics() []TeamMetrics {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	out := make([]TeamMetrics, 0, len(cm.teams))
	for id := 0; len(out) < len(cm.teams); id++ {
		if tm, ok := cm.teams[id]; ok {
			out = append(out, *tm)
		}
	}
	return out
}

// Turn returns the last turn observed.
func (cm *ConvergenceMonitor) Turn() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.turn
}
