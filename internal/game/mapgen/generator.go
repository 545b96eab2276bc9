// Package mapgen builds symmetric two-team maps for the host simulation.
package mapgen

import (
	"fmt"
	"math/rand"

	"github.com/mitchelldurbincs/swarmnav/internal/game/core"
	"github.com/mitchelldurbincs/swarmnav/internal/symmetry"
)

// MapConfig holds configuration for map generation
type MapConfig struct {
	Width          int
	Height         int
	Symmetry       symmetry.Transform
	WallDensity    float64 // chance that a tile pair becomes impassable
	TowerPairs     int
	HQClearance    int // Chebyshev radius around each base kept free of walls and towers
	MinBaseSpacing int // minimum Chebyshev distance between the two bases
	MaxAttempts    int // regeneration attempts before giving up on connectivity
}

// DefaultMapConfig returns a sensible default configuration
func DefaultMapConfig(w, h int, t symmetry.Transform) MapConfig {
	return MapConfig{
		Width:          w,
		Height:         h,
		Symmetry:       t,
		WallDensity:    0.2,
		TowerPairs:     3,
		HQClearance:    2,
		MinBaseSpacing: (w + h) / 4,
		MaxAttempts:    20,
	}
}

// Validate checks that a map with this config can exist.
func (c MapConfig) Validate() error {
	if c.Width < 2 || c.Height < 2 {
		return fmt.Errorf("%w: size %dx%d", core.ErrInvalidMap, c.Width, c.Height)
	}
	if (c.Symmetry == symmetry.DiagonalReflection || c.Symmetry == symmetry.AntiDiagonalReflection) && c.Width != c.Height {
		return fmt.Errorf("%w: %s needs a square map, got %dx%d", core.ErrInvalidMap, c.Symmetry, c.Width, c.Height)
	}
	if c.WallDensity < 0 || c.WallDensity >= 1 {
		return fmt.Errorf("%w: wall density %.2f outside [0,1)", core.ErrInvalidMap, c.WallDensity)
	}
	if c.TowerPairs < 0 {
		return fmt.Errorf("%w: negative tower count", core.ErrInvalidMap)
	}
	return nil
}

// Map is a generated board plus the structures placed on it. Index 0 of HQs
// and Towers is team A, index 1 team B.
type Map struct {
	Board    *core.Board
	Symmetry symmetry.Transform
	HQs      [2]core.Tile
	Towers   [2][]core.Tile
}

// Center returns the point every symmetry of the map is taken about.
func (m *Map) Center() symmetry.Point {
	return center(m.Board.W, m.Board.H)
}

// Mirror maps a tile to its counterpart on the other half.
func (m *Map) Mirror(t core.Tile) core.Tile {
	return m.Symmetry.Apply(m.Center(), t)
}

// Evidence returns what team sees at the start of a match, translated so
// that the team's base sits at the origin.
func (m *Map) Evidence(team int) symmetry.Evidence {
	home := m.HQs[team]
	rel := func(t core.Tile) core.Tile { return t.Sub(home) }
	ev := symmetry.Evidence{
		Home:  core.Tile{},
		Enemy: rel(m.HQs[1-team]),
	}
	for _, t := range m.Towers[team] {
		ev.HomeTowers = append(ev.HomeTowers, rel(t))
	}
	for _, t := range m.Towers[1-team] {
		ev.EnemyTowers = append(ev.EnemyTowers, rel(t))
	}
	return ev
}

// Generator handles map generation with deterministic RNG
type Generator struct {
	config MapConfig
	rng    *rand.Rand
}

// NewGenerator creates a new map generator
func NewGenerator(config MapConfig, rng *rand.Rand) *Generator {
	return &Generator{
		config: config,
		rng:    rng,
	}
}

// GenerateMap creates a symmetric board with both bases and towers placed,
// retrying until the bases are connected.
func (g *Generator) GenerateMap() (*Map, error) {
	if err := g.config.Validate(); err != nil {
		return nil, err
	}

	attempts := g.config.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		m, err := g.generateOnce()
		if err != nil {
			return nil, err
		}
		if Connected(m.Board, m.HQs[0], m.HQs[1]) {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%w: bases not connected after %d attempts", core.ErrInvalidMap, attempts)
}

func (g *Generator) generateOnce() (*Map, error) {
	m := &Map{
		Board:    core.NewBoard(g.config.Width, g.config.Height),
		Symmetry: g.config.Symmetry,
	}

	hq, err := g.placeBases(m)
	if err != nil {
		return nil, err
	}
	m.HQs = hq

	g.placeWalls(m)
	g.placeTowers(m)
	return m, nil
}

func (g *Generator) placeBases(m *Map) ([2]core.Tile, error) {
	b := m.Board
	spacing := g.config.MinBaseSpacing
	for spacing >= 1 {
		for attempts := 0; attempts < b.W*b.H; attempts++ {
			a := core.NewTile(g.rng.Intn(b.W), g.rng.Intn(b.H))
			other := m.Mirror(a)
			if !b.InBounds(other) || a.ChebyshevTo(other) < spacing {
				continue
			}
			return [2]core.Tile{a, other}, nil
		}
		// Small or oddly shaped maps may not admit the requested spacing.
		spacing /= 2
	}
	return [2]core.Tile{}, fmt.Errorf("%w: no room for two bases", core.ErrInvalidMap)
}

func (g *Generator) nearBase(m *Map, t core.Tile) bool {
	return t.ChebyshevTo(m.HQs[0]) <= g.config.HQClearance || t.ChebyshevTo(m.HQs[1]) <= g.config.HQClearance
}

func (g *Generator) placeWalls(m *Map) {
	b := m.Board
	for y := 0; y < b.H; y++ {
		for x := 0; x < b.W; x++ {
			t := core.NewTile(x, y)
			other := m.Mirror(t)
			// Each pair is decided once, from its lower-index member.
			if b.Idx(other.X, other.Y) < b.Idx(x, y) {
				continue
			}
			if g.nearBase(m, t) || g.nearBase(m, other) {
				continue
			}
			if g.rng.Float64() < g.config.WallDensity {
				b.SetTerrain(t, core.TerrainImpassable)
				b.SetTerrain(other, core.TerrainImpassable)
			}
		}
	}
}

func (g *Generator) placeTowers(m *Map) {
	b := m.Board
	taken := make(map[core.Tile]bool)
	maxAttempts := b.W * b.H

	for placed, attempts := 0, 0; placed < g.config.TowerPairs && attempts < maxAttempts; attempts++ {
		t := core.NewTile(g.rng.Intn(b.W), g.rng.Intn(b.H))
		other := m.Mirror(t)
		if t == other || taken[t] || taken[other] {
			continue
		}
		if !b.Passable(t) || g.nearBase(m, t) {
			continue
		}

		// The tower nearer to a base belongs to that base's team.
		if t.DistanceSquaredTo(m.HQs[0]) > t.DistanceSquaredTo(m.HQs[1]) {
			t, other = other, t
		}
		m.Towers[0] = append(m.Towers[0], t)
		m.Towers[1] = append(m.Towers[1], other)
		taken[t], taken[other] = true, true
		placed++
	}
}

// Connected reports whether to is reachable from from over passable tiles
// with 8-way moves.
func Connected(b *core.Board, from, to core.Tile) bool {
	if !b.Passable(from) || !b.Passable(to) {
		return false
	}
	seen := make([]bool, len(b.T))
	seen[b.Idx(from.X, from.Y)] = true
	queue := []core.Tile{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == to {
			return true
		}
		for _, n := range cur.Neighbors() {
			if !b.Passable(n) || seen[b.Idx(n.X, n.Y)] {
				continue
			}
			seen[b.Idx(n.X, n.Y)] = true
			queue = append(queue, n)
		}
	}
	return false
}

func center(w, h int) symmetry.Point {
	return symmetry.Point{X: float64(w-1) / 2, Y: float64(h-1) / 2}
}
