package game

import (
	"github.com/mitchelldurbincs/swarmnav/internal/channel"
	"github.com/mitchelldurbincs/swarmnav/internal/game/events"
	"github.com/mitchelldurbincs/swarmnav/internal/monitoring"
)

// teamStats gathers the end-of-turn numbers for both teams. Field coverage
// is read straight from each team's store and is not charged to anyone.
func (tp *TurnProcessor) teamStats(tally *turnTally) []events.TeamStats {
	m := tp.match
	counts := make(map[int]int)
	for _, info := range m.world.Agents() {
		counts[info.Team]++
	}

	out := make([]events.TeamStats, 0, len(m.world.teams))
	for _, team := range m.world.teams {
		resolved, frontierSize := monitoring.FieldCoverage(team.Store, team.Layout)
		out = append(out, events.TeamStats{
			Team:             team.ID,
			Agents:           counts[team.ID],
			FrontierSize:     frontierSize,
			ResolvedTiles:    resolved,
			KnownTiles:       m.world.KnownTiles(team.ID),
			MaintenanceSteps: tally.steps[team.ID],
			Relaxed:          tally.relaxed[team.ID],
			LockCleared:      tally.lockCleared[team.ID],
			AttackMode:       channel.NewSignals(team.Store, team.Layout).AttackMode(),
		})
	}
	return out
}
