// Package renderer draws a team's distance field as an image for offline
// inspection of a match.
package renderer

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/mitchelldurbincs/swarmnav/internal/common"
	"github.com/mitchelldurbincs/swarmnav/internal/distfield"
	"github.com/mitchelldurbincs/swarmnav/internal/game/core"
)

const (
	captionPadding = 4
	maxTileSize    = 64
)

var CaptionColor = color.RGBA{255, 255, 255, 255}

// Marker highlights a single board tile, drawn over the heatmap.
type Marker struct {
	Tile  core.Tile
	Color color.RGBA
}

// Heatmap is everything needed to draw one team's view of the board.
type Heatmap struct {
	Board *core.Board
	Field *distfield.Field
	// Home is the team's base in board coordinates; field reads are
	// relative to it.
	Home core.Tile
	// Known filters tiles the team has not sensed. Nil shows every tile.
	Known   func(core.Tile) bool
	Markers []Marker
	Caption string
}

type BoardRenderer struct {
	tileSize    int
	defaultFont font.Face
}

// NewBoardRenderer returns a renderer ready to use.
func NewBoardRenderer(tileSize int, f font.Face) *BoardRenderer {
	return &BoardRenderer{tileSize: common.Clamp(tileSize, 1, maxTileSize), defaultFont: f}
}

// DefaultFace is the caption font.
func DefaultFace() font.Face { return basicfont.Face7x13 }

func DefaultBoardRenderer() *BoardRenderer {
	return NewBoardRenderer(8, DefaultFace())
}

// Draw renders the heatmap. Each tile is one pixel in a board-sized image
// that is then scaled up to tileSize, leaving room for the caption below.
func (br *BoardRenderer) Draw(h Heatmap) *image.RGBA {
	b := h.Board
	tiles := image.NewRGBA(image.Rect(0, 0, b.W, b.H))

	maxHops := 0
	for y := 0; y < b.H; y++ {
		for x := 0; x < b.W; x++ {
			if hops := h.Field.Hops(core.NewTile(x, y).Sub(h.Home)); hops > maxHops {
				maxHops = hops
			}
		}
	}

	for y := 0; y < b.H; y++ {
		for x := 0; x < b.W; x++ {
			tiles.SetRGBA(x, y, br.tileColor(h, core.NewTile(x, y), maxHops))
		}
	}
	tiles.SetRGBA(h.Home.X, h.Home.Y, common.HomeMarkerColor)
	for _, m := range h.Markers {
		if b.InBounds(m.Tile) {
			tiles.SetRGBA(m.Tile.X, m.Tile.Y, m.Color)
		}
	}

	width, height := b.W*br.tileSize, b.H*br.tileSize
	captionHeight := 0
	if h.Caption != "" && br.defaultFont != nil {
		captionHeight = br.defaultFont.Metrics().Height.Ceil() + 2*captionPadding
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height+captionHeight))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(common.UnknownColor), image.Point{}, draw.Src)
	draw.NearestNeighbor.Scale(dst, image.Rect(0, 0, width, height), tiles, tiles.Bounds(), draw.Src, nil)

	if captionHeight > 0 {
		d := &font.Drawer{
			Dst:  dst,
			Src:  image.NewUniform(CaptionColor),
			Face: br.defaultFont,
			Dot:  fixed.P(captionPadding, height+captionHeight-captionPadding-br.defaultFont.Metrics().Descent.Ceil()),
		}
		d.DrawString(h.Caption)
	}
	return dst
}

func (br *BoardRenderer) tileColor(h Heatmap, t core.Tile, maxHops int) color.RGBA {
	if h.Known != nil && !h.Known(t) {
		return common.UnknownColor
	}
	if !h.Board.Passable(t) {
		return common.WallColor
	}
	hops := h.Field.Hops(t.Sub(h.Home))
	if hops < 0 {
		return common.UnknownColor
	}
	if maxHops == 0 {
		return common.NearColor
	}
	return common.Gradient(float64(hops) / float64(maxHops))
}

// WritePNG encodes img to path, creating parent directories.
func WritePNG(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
