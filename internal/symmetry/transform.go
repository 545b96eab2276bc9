// Package symmetry infers how the map mirrors one team's half onto the
// other's, so that distances to the enemy base can be read off the team's own
// distance field.
package symmetry

import (
	"math"

	"github.com/mitchelldurbincs/swarmnav/internal/game/core"
)

// Epsilon is the tolerance for comparing transformed coordinates.
const Epsilon = 1e-6

// Transform is one of the five map symmetries.
type Transform uint8

const (
	// Rotation is a 180 degree turn about the midpoint.
	Rotation Transform = iota
	// HorizontalReflection flips x about the vertical line through the midpoint.
	HorizontalReflection
	// VerticalReflection flips y about the horizontal line through the midpoint.
	VerticalReflection
	// DiagonalReflection swaps offsets about the line y - my = x - mx.
	DiagonalReflection
	// AntiDiagonalReflection swaps and negates offsets about y - my = -(x - mx).
	AntiDiagonalReflection

	numTransforms = 5
)

// Priority is the tie-break order when several transforms fit the evidence.
var Priority = [numTransforms]Transform{
	Rotation,
	HorizontalReflection,
	VerticalReflection,
	DiagonalReflection,
	AntiDiagonalReflection,
}

var transformNames = [numTransforms]string{
	"rotation",
	"horizontal_reflection",
	"vertical_reflection",
	"diagonal_reflection",
	"anti_diagonal_reflection",
}

func (t Transform) String() string {
	if int(t) >= numTransforms {
		return "unknown"
	}
	return transformNames[t]
}

// ParseTransform maps a transform name back to its value.
func ParseTransform(s string) (Transform, bool) {
	for i, name := range transformNames {
		if name == s {
			return Transform(i), true
		}
	}
	return 0, false
}

// Point is a map position with half-tile precision, used for midpoints.
type Point struct {
	X, Y float64
}

// Midpoint returns the point halfway between two tiles.
func Midpoint(a, b core.Tile) Point {
	return Point{X: float64(a.X+b.X) / 2, Y: float64(a.Y+b.Y) / 2}
}

// ApplyPoint maps (x, y) through the transform about mid.
func (t Transform) ApplyPoint(mid Point, x, y float64) (float64, float64) {
	switch t {
	case HorizontalReflection:
		return 2*mid.X - x, y
	case VerticalReflection:
		return x, 2*mid.Y - y
	case DiagonalReflection:
		return mid.X + (y - mid.Y), mid.Y + (x - mid.X)
	case AntiDiagonalReflection:
		return mid.X + mid.Y - y, mid.X + mid.Y - x
	default:
		return 2*mid.X - x, 2*mid.Y - y
	}
}

// Apply maps a tile through the transform, rounding half up.
func (t Transform) Apply(mid Point, tile core.Tile) core.Tile {
	x, y := t.ApplyPoint(mid, float64(tile.X), float64(tile.Y))
	return core.Tile{X: roundHalfUp(x), Y: roundHalfUp(y)}
}

// Mask is a set of transforms, one bit per Transform.
type Mask uint8

// Bit returns the mask holding only t.
func (t Transform) Bit() Mask { return 1 << t }

// Has reports whether t is in the mask.
func (m Mask) Has(t Transform) bool { return m&t.Bit() != 0 }

// Best returns the highest-priority transform in the mask.
func (m Mask) Best() (Transform, bool) {
	for _, t := range Priority {
		if m.Has(t) {
			return t, true
		}
	}
	return Rotation, false
}

// Transforms lists the members of the mask in priority order.
func (m Mask) Transforms() []Transform {
	var out []Transform
	for _, t := range Priority {
		if m.Has(t) {
			out = append(out, t)
		}
	}
	return out
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
