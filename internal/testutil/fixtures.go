package testutil

import (
	"fmt"

	"github.com/mitchelldurbincs/swarmnav/internal/game/core"
)

// BoardFromRows builds a board from an ASCII picture. '#' is impassable and
// every other rune is normal terrain. Any rune other than '.' and '#' is also
// recorded as a marker, so "H" or "E" can name tiles for the test.
func BoardFromRows(rows ...string) (*core.Board, map[rune][]core.Tile) {
	if len(rows) == 0 {
		panic("BoardFromRows needs at least one row")
	}
	w := len([]rune(rows[0]))
	board := core.NewBoard(w, len(rows))
	markers := make(map[rune][]core.Tile)

	for y, row := range rows {
		runes := []rune(row)
		if len(runes) != w {
			panic(fmt.Sprintf("row %d has width %d, want %d", y, len(runes), w))
		}
		for x, r := range runes {
			tile := core.NewTile(x, y)
			switch r {
			case '#':
				board.SetTerrain(tile, core.TerrainImpassable)
			case '.':
			default:
				markers[r] = append(markers[r], tile)
			}
		}
	}
	return board, markers
}

// CreateOpenBoard returns a w x h board with no walls.
func CreateOpenBoard(w, h int) *core.Board {
	return core.NewBoard(w, h)
}

// ReferenceHops computes true 8-directional hop counts from start over
// passable tiles. Unreachable tiles are absent.
func ReferenceHops(board *core.Board, start core.Tile) map[core.Tile]int {
	hops := map[core.Tile]int{start: 0}
	queue := []core.Tile{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range cur.Neighbors() {
			if !board.Passable(n) {
				continue
			}
			if _, seen := hops[n]; seen {
				continue
			}
			hops[n] = hops[cur] + 1
			queue = append(queue, n)
		}
	}
	return hops
}

// RelativeSensor returns a terrain lookup for home-relative tiles over a
// fully observed board.
func RelativeSensor(board *core.Board, home core.Tile) func(core.Tile) core.Terrain {
	return func(t core.Tile) core.Terrain {
		return board.Terrain(t.Add(home))
	}
}
