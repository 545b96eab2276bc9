package symmetry

import (
	"math"

	"github.com/mitchelldurbincs/swarmnav/internal/channel"
	"github.com/mitchelldurbincs/swarmnav/internal/distfield"
	"github.com/mitchelldurbincs/swarmnav/internal/game/core"
)

// Publish writes the descriptor to the symmetry region. The ready channel is
// written last and holds the chosen transform plus one, so readers never see
// a ready flag ahead of its midpoint.
func Publish(ch channel.Channels, l channel.Layout, d Descriptor) {
	ch.Set(l.SymmetryMaskChannel(), int32(d.Candidates))
	ch.Set(l.MidpointXChannel(), floatChannel(d.Midpoint.X))
	ch.Set(l.MidpointYChannel(), floatChannel(d.Midpoint.Y))
	ch.Set(l.SymmetryReadyChannel(), int32(d.Transform)+1)
}

// Load reads a published descriptor. The second result is false until the
// home base has published one.
func Load(ch channel.Channels, l channel.Layout) (Descriptor, bool) {
	ready := ch.Get(l.SymmetryReadyChannel())
	if ready == 0 {
		return Descriptor{}, false
	}
	mask := Mask(ch.Get(l.SymmetryMaskChannel()))
	t := Transform(ready - 1)
	if ready < 0 || int(t) >= numTransforms {
		t, _ = mask.Best()
	}
	return Descriptor{
		Transform:  t,
		Candidates: mask,
		Midpoint: Point{
			X: channelFloat(ch.Get(l.MidpointXChannel())),
			Y: channelFloat(ch.Get(l.MidpointYChannel())),
		},
	}, true
}

// Cache loads the published descriptor at most once per agent.
type Cache struct {
	desc   Descriptor
	loaded bool
}

// Get returns the cached descriptor, reading the store only until the first
// successful load.
func (c *Cache) Get(ch channel.Channels, l channel.Layout) (Descriptor, bool) {
	if c.loaded {
		return c.desc, true
	}
	d, ok := Load(ch, l)
	if !ok {
		return Descriptor{}, false
	}
	c.desc, c.loaded = d, true
	return d, true
}

// Loaded reports whether the descriptor has been cached.
func (c *Cache) Loaded() bool { return c.loaded }

// DistanceToEnemy reads the home distance field at the mirror image of t,
// which by symmetry is t's distance to the enemy base. Zero means unknown.
func DistanceToEnemy(field *distfield.Field, d Descriptor, t core.Tile) int {
	return field.Read(d.Apply(t))
}

func floatChannel(v float64) int32 {
	return int32(math.Float32bits(float32(v)))
}

func channelFloat(v int32) float64 {
	return float64(math.Float32frombits(uint32(v)))
}
