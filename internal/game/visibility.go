package game

import (
	"github.com/mitchelldurbincs/swarmnav/internal/game/core"
)

// This file contains the fog of war: which tiles each team has seen.

// reveal marks every tile within sensor range of center as known to team.
// Caller holds w.mu.
func (w *World) reveal(team *Team, center core.Tile) {
	c := w.boardTile(center)
	r := 0
	for r*r < w.sensorRadiusSq {
		r++
	}
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			if dx*dx+dy*dy > w.sensorRadiusSq {
				continue
			}
			t := core.NewTile(c.X+dx, c.Y+dy)
			if !w.board.InBounds(t) {
				continue
			}
			idx := w.board.Idx(t.X, t.Y)
			if !team.known[idx] {
				team.known[idx] = true
				team.knownCount++
			}
		}
	}
}

// knownLocked reports whether team has seen the world tile t. Caller holds w.mu.
func (w *World) knownLocked(team *Team, t core.Tile) bool {
	b := w.boardTile(t)
	if !w.board.InBounds(b) {
		return false
	}
	return team.known[w.board.Idx(b.X, b.Y)]
}

// Sense returns the terrain at a home-relative tile as team knows it. Tiles
// off the board read as impassable and unseen tiles read as unknown.
func (w *World) Sense(team int, rel core.Tile) core.Terrain {
	w.mu.RLock()
	defer w.mu.RUnlock()

	t := w.teams[team]
	b := w.boardTile(t.Absolute(rel))
	if !w.board.InBounds(b) {
		return core.TerrainImpassable
	}
	if !t.known[w.board.Idx(b.X, b.Y)] {
		return core.TerrainUnknown
	}
	return w.board.Terrain(b)
}

// KnownTiles returns how many board tiles team has seen.
func (w *World) KnownTiles(team int) int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.teams[team].knownCount
}

// Known reports whether team has seen the world tile t.
func (w *World) Known(team int, t core.Tile) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.knownLocked(w.teams[team], t)
}
