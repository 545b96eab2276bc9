package navigation

import (
	"github.com/mitchelldurbincs/swarmnav/internal/distfield"
	"github.com/mitchelldurbincs/swarmnav/internal/game/core"
	"github.com/mitchelldurbincs/swarmnav/internal/symmetry"
)

// Target is a destination the navigator can steer toward. Distance returns
// the flood-fill distance from t to the target, or distfield.Unknown when the
// field has nothing for t.
type Target interface {
	Location() core.Tile
	Distance(t core.Tile) int
}

// Home targets the team's own base using the distance field directly.
type Home struct {
	Field *distfield.Field
}

func (h Home) Location() core.Tile      { return core.Tile{} }
func (h Home) Distance(t core.Tile) int { return h.Field.Read(t) }

// Enemy targets the opposing base through the map symmetry, reusing the
// home distance field.
type Enemy struct {
	Field *distfield.Field
	Desc  symmetry.Descriptor
}

func (e Enemy) Location() core.Tile { return e.Desc.Apply(core.Tile{}) }

func (e Enemy) Distance(t core.Tile) int {
	return symmetry.DistanceToEnemy(e.Field, e.Desc, t)
}

// Point targets an arbitrary tile. No field exists for it, so the navigator
// falls back to straight-line distance.
type Point struct {
	Tile core.Tile
}

func (p Point) Location() core.Tile    { return p.Tile }
func (p Point) Distance(core.Tile) int { return distfield.Unknown }
