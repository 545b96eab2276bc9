package core

import (
	"fmt"

	"github.com/mitchelldurbincs/swarmnav/internal/common"
)

// Tile is a map position. Agents work in coordinates relative to their own
// home tile, so X and Y may be negative.
type Tile struct {
	X, Y int
}

// NewTile creates a new tile with the given x and y values
func NewTile(x, y int) Tile {
	return Tile{X: x, Y: y}
}

// Add returns the component-wise sum of two tiles
func (t Tile) Add(other Tile) Tile {
	return Tile{X: t.X + other.X, Y: t.Y + other.Y}
}

// Sub returns the component-wise difference of two tiles
func (t Tile) Sub(other Tile) Tile {
	return Tile{X: t.X - other.X, Y: t.Y - other.Y}
}

// Move returns the tile one step away in direction d. DirNone returns t.
func (t Tile) Move(d Direction) Tile {
	dx, dy := d.Delta()
	return Tile{X: t.X + dx, Y: t.Y + dy}
}

// Equal checks if two tiles are the same
func (t Tile) Equal(other Tile) bool {
	return t.X == other.X && t.Y == other.Y
}

// DistanceSquaredTo returns the squared Euclidean distance to other.
func (t Tile) DistanceSquaredTo(other Tile) int {
	return common.DistanceSquared(t.X, t.Y, other.X, other.Y)
}

// ChebyshevTo returns the number of 8-directional steps to other on an open map.
func (t Tile) ChebyshevTo(other Tile) int {
	return common.Chebyshev(t.X, t.Y, other.X, other.Y)
}

// IsAdjacentTo reports whether other is one of the eight surrounding tiles.
func (t Tile) IsAdjacentTo(other Tile) bool {
	return !t.Equal(other) && t.ChebyshevTo(other) == 1
}

// DirectionTo returns the compass direction that best approximates the
// heading from t to other, or DirNone when they are the same tile.
// Headings within 22.5 degrees of an axis snap to that axis.
func (t Tile) DirectionTo(other Tile) Direction {
	dx := other.X - t.X
	dy := other.Y - t.Y
	if dx == 0 && dy == 0 {
		return DirNone
	}

	ax, ay := common.Abs(dx), common.Abs(dy)
	// 2414/1000 approximates tan(67.5 degrees)
	switch {
	case ax*1000 >= ay*2414:
		if dx > 0 {
			return East
		}
		return West
	case ay*1000 >= ax*2414:
		if dy > 0 {
			return South
		}
		return North
	}

	switch {
	case dx > 0 && dy < 0:
		return NorthEast
	case dx > 0:
		return SouthEast
	case dy > 0:
		return SouthWest
	default:
		return NorthWest
	}
}

// Neighbors returns the eight surrounding tiles in direction order.
func (t Tile) Neighbors() [8]Tile {
	var out [8]Tile
	for i, d := range AllDirections {
		out[i] = t.Move(d)
	}
	return out
}

// String returns a string representation of the tile
func (t Tile) String() string {
	return fmt.Sprintf("(%d,%d)", t.X, t.Y)
}
