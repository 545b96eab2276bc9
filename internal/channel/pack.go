package channel

import "github.com/mitchelldurbincs/swarmnav/internal/game/core"

// PackTile encodes a tile as (x<<16)|(y&0xFFFF). Both components must fit in
// 16 signed bits, which every layout window guarantees.
func PackTile(t core.Tile) int32 {
	return int32(t.X)<<16 | int32(t.Y)&0xFFFF
}

// UnpackTile reverses PackTile, sign-extending both halves.
func UnpackTile(v int32) core.Tile {
	return core.Tile{X: int(v >> 16), Y: int(int16(v & 0xFFFF))}
}
