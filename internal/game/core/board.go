package core

// Terrain classifies a tile for movement and search.
type Terrain uint8

const (
	TerrainNormal Terrain = iota
	TerrainImpassable
	// TerrainUnknown is reported for tiles nobody on the team has sensed yet.
	TerrainUnknown
)

func (t Terrain) String() string {
	switch t {
	case TerrainNormal:
		return "normal"
	case TerrainImpassable:
		return "impassable"
	case TerrainUnknown:
		return "unknown"
	default:
		return "invalid"
	}
}

// Board is the ground-truth terrain grid in absolute coordinates, row-major.
type Board struct {
	W, H int
	T    []Terrain // length = W*H
}

// NewBoard returns a w x h board with every tile normal.
func NewBoard(w, h int) *Board {
	return &Board{W: w, H: h, T: make([]Terrain, w*h)}
}

// Idx returns the row-major index of (x, y).
func (b *Board) Idx(x, y int) int { return y*b.W + x }

// InBounds reports whether t lies on the board.
func (b *Board) InBounds(t Tile) bool {
	return t.X >= 0 && t.X < b.W && t.Y >= 0 && t.Y < b.H
}

// Terrain returns the terrain at t. Off-board tiles are impassable.
func (b *Board) Terrain(t Tile) Terrain {
	if !b.InBounds(t) {
		return TerrainImpassable
	}
	return b.T[b.Idx(t.X, t.Y)]
}

// SetTerrain overwrites the terrain at t. Off-board writes are ignored.
func (b *Board) SetTerrain(t Tile, terrain Terrain) {
	if !b.InBounds(t) {
		return
	}
	b.T[b.Idx(t.X, t.Y)] = terrain
}

// Passable reports whether t is on the board and normal.
func (b *Board) Passable(t Tile) bool {
	return b.Terrain(t) == TerrainNormal
}

// Clone returns a deep copy of the board.
func (b *Board) Clone() *Board {
	c := &Board{W: b.W, H: b.H, T: make([]Terrain, len(b.T))}
	copy(c.T, b.T)
	return c
}

// CountPassable returns the number of normal tiles.
func (b *Board) CountPassable() int {
	n := 0
	for _, t := range b.T {
		if t == TerrainNormal {
			n++
		}
	}
	return n
}
