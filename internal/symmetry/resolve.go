package symmetry

import (
	"math"

	"github.com/mitchelldurbincs/swarmnav/internal/game/core"
)

// Descriptor is the resolved symmetry of a map.
type Descriptor struct {
	Transform  Transform
	Midpoint   Point
	Candidates Mask
}

// Fallback reports whether no transform fit and Transform is the default.
func (d Descriptor) Fallback() bool { return d.Candidates == 0 }

// Apply maps a tile to its symmetric counterpart.
func (d Descriptor) Apply(t core.Tile) core.Tile {
	return d.Transform.Apply(d.Midpoint, t)
}

// Mirror implements the flood-fill Mirror hook.
func (d Descriptor) Mirror(t core.Tile) (core.Tile, bool) {
	return d.Apply(t), true
}

// Evidence is what the resolver compares: both base tiles and both sets of
// defensive structures, all in one coordinate frame.
type Evidence struct {
	Home, Enemy             core.Tile
	HomeTowers, EnemyTowers []core.Tile
}

// Resolve tests every transform against the evidence and picks the first
// match in Priority order. When nothing matches it falls back to Rotation
// with an empty candidate mask.
func Resolve(ev Evidence) Descriptor {
	mid := Midpoint(ev.Home, ev.Enemy)
	var mask Mask
	for _, t := range Priority {
		if Matches(t, mid, ev) {
			mask |= t.Bit()
		}
	}
	best, _ := mask.Best()
	return Descriptor{Transform: best, Midpoint: mid, Candidates: mask}
}

// Matches reports whether t about mid carries the home base onto the enemy
// base, and every home tower onto some enemy tower and vice versa.
func Matches(t Transform, mid Point, ev Evidence) bool {
	if !maps(t, mid, ev.Home, []core.Tile{ev.Enemy}) {
		return false
	}
	if len(ev.HomeTowers) != len(ev.EnemyTowers) {
		return false
	}
	for _, h := range ev.HomeTowers {
		if !maps(t, mid, h, ev.EnemyTowers) {
			return false
		}
	}
	for _, e := range ev.EnemyTowers {
		if !maps(t, mid, e, ev.HomeTowers) {
			return false
		}
	}
	return true
}

func maps(t Transform, mid Point, from core.Tile, candidates []core.Tile) bool {
	x, y := t.ApplyPoint(mid, float64(from.X), float64(from.Y))
	for _, c := range candidates {
		if math.Abs(x-float64(c.X)) < Epsilon && math.Abs(y-float64(c.Y)) < Epsilon {
			return true
		}
	}
	return false
}
