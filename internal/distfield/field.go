// Package distfield maintains the team-shared hop-distance field rooted at
// the home tile and the incremental flood fill that fills it in.
package distfield

import (
	"github.com/mitchelldurbincs/swarmnav/internal/channel"
	"github.com/mitchelldurbincs/swarmnav/internal/game/core"
)

// Unknown is the stored value of a tile the flood fill has not reached.
// Reached tiles store hops+1, so home stores 1.
const Unknown = 0

// Field reads and writes distance channels for home-relative tiles.
type Field struct {
	ch     channel.Channels
	layout channel.Layout
}

// NewField binds a field view to a channel surface.
func NewField(ch channel.Channels, layout channel.Layout) *Field {
	return &Field{ch: ch, layout: layout}
}

// Read returns the stored distance for t, or Unknown. Tiles outside the
// layout window always read Unknown.
func (f *Field) Read(t core.Tile) int {
	c, ok := f.layout.DistanceChannel(t)
	if !ok {
		return Unknown
	}
	return int(f.ch.Get(c))
}

// Set overwrites the stored distance for t. It returns false, writing
// nothing, for tiles outside the window.
func (f *Field) Set(t core.Tile, d int) bool {
	c, ok := f.layout.DistanceChannel(t)
	if !ok {
		return false
	}
	f.ch.Set(c, int32(d))
	return true
}

// Hops converts the stored value to a step count from home, or -1 if unknown.
func (f *Field) Hops(t core.Tile) int {
	d := f.Read(t)
	if d == Unknown {
		return -1
	}
	return d - 1
}

// Improves reports whether d would lower the stored distance of t.
func Improves(stored, d int) bool {
	return stored == Unknown || stored > d
}

// Covers reports whether t has a distance channel.
func (f *Field) Covers(t core.Tile) bool {
	return f.layout.InWindow(t)
}
